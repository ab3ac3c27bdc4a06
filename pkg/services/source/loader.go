package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/de-tools/ad-atlas/pkg/models/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// DedupStrategy picks the surviving row when several rows share a natural key.
type DedupStrategy string

const (
	LastWriteWins  DedupStrategy = "last_write_wins"
	FirstWriteWins DedupStrategy = "first_write_wins"
)

// StatusFilter excludes rows whose status field is not in Keep. Exclusions
// are counted, never silently dropped.
type StatusFilter struct {
	Field Field
	Keep  []string
}

func (f *StatusFilter) allows(value string) bool {
	for _, k := range f.Keep {
		if strings.EqualFold(strings.TrimSpace(value), k) {
			return true
		}
	}
	return false
}

// Descriptor tells the loader everything it needs to turn one file into
// normalized records.
type Descriptor struct {
	Name       string
	Path       string
	Format     Format
	Sheet      string
	Schema     Schema
	NaturalKey []Field
	Status     *StatusFilter
	Dedup      DedupStrategy
}

// Result is a loaded source: its surviving records and the row accounting.
type Result struct {
	Records []domain.Record
	Stats   domain.SourceStats
}

// Load reads the source in a single streaming pass. A schema mismatch is
// returned as *domain.SchemaMismatchError so the caller can skip this source
// without failing the run.
func Load(ctx context.Context, desc Descriptor) (*Result, error) {
	logger := zerolog.Ctx(ctx)

	r, err := openReader(desc)
	if err != nil {
		return nil, fmt.Errorf("source %q: %w", desc.Name, err)
	}
	defer r.Close()

	header, err := r.Header()
	if err != nil {
		return nil, fmt.Errorf("source %q: read header: %w", desc.Name, err)
	}
	idx, missing := desc.Schema.bind(header)
	if len(missing) > 0 {
		return nil, &domain.SchemaMismatchError{Source: desc.Name, Missing: missing}
	}

	stats := domain.SourceStats{Source: desc.Name}
	var records []domain.Record
	// natural key -> position in records, for de-duplication
	seen := make(map[string]int)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			stats.Malformed++
			continue
		}
		if isBlank(row) {
			continue
		}
		stats.RowsRead++

		cells := rowCells(row, idx)

		if desc.Status != nil {
			if !desc.Status.allows(cells[desc.Status.Field]) {
				stats.FilteredByStatus++
				continue
			}
		}

		rec, err := buildRecord(desc, cells)
		if err != nil {
			stats.Malformed++
			continue
		}

		if len(desc.NaturalKey) > 0 {
			key := naturalKey(desc.NaturalKey, cells)
			if pos, dup := seen[key]; dup {
				stats.Duplicates++
				if desc.Dedup != FirstWriteWins {
					records[pos] = rec
				}
				continue
			}
			seen[key] = len(records)
		}
		records = append(records, rec)
	}

	stats.RowsKept = int64(len(records))
	logger.Info().
		Str("source", desc.Name).
		Int64("read", stats.RowsRead).
		Int64("kept", stats.RowsKept).
		Int64("duplicates", stats.Duplicates).
		Int64("filtered", stats.FilteredByStatus).
		Int64("malformed", stats.Malformed).
		Msg("source loaded")

	return &Result{Records: records, Stats: stats}, nil
}

func rowCells(row []string, idx map[Field]int) map[Field]string {
	cells := make(map[Field]string, len(idx))
	for field, i := range idx {
		if i < len(row) {
			cells[field] = strings.TrimSpace(row[i])
		}
	}
	return cells
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func naturalKey(fields []Field, cells map[Field]string) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = cells[f]
	}
	return strings.Join(parts, "\x1f")
}

func buildRecord(desc Descriptor, cells map[Field]string) (domain.Record, error) {
	rec := domain.Record{
		Source:       desc.Name,
		SKU:          cells[FieldSKU],
		ASIN:         strings.ToUpper(cells[FieldASIN]),
		CampaignName: cells[FieldCampaignName],
	}

	if raw, ok := cells[FieldDate]; ok && raw != "" {
		d, err := parseDate(raw, desc.Schema.dateLayouts())
		if err != nil {
			return domain.Record{}, err
		}
		rec.Date = d
	}

	var err error
	if rec.Spend, err = parseMoney(cells[FieldSpend]); err != nil {
		return domain.Record{}, err
	}
	if rec.AdSales, err = parseMoney(cells[FieldAdSales]); err != nil {
		return domain.Record{}, err
	}
	if rec.Clicks, err = parseCount(cells[FieldClicks]); err != nil {
		return domain.Record{}, err
	}
	if rec.Impressions, err = parseCount(cells[FieldImpressions]); err != nil {
		return domain.Record{}, err
	}
	if rec.Orders, err = parseCount(cells[FieldOrders]); err != nil {
		return domain.Record{}, err
	}
	if rec.Units, err = parseCount(cells[FieldUnits]); err != nil {
		return domain.Record{}, err
	}

	switch {
	case cells[FieldRevenue] != "":
		if rec.Revenue, err = parseMoney(cells[FieldRevenue]); err != nil {
			return domain.Record{}, err
		}
	case cells[FieldItemPrice] != "":
		// Order-line source: revenue = item price x quantity, one order per
		// surviving line. Zero-priced lines carry no revenue signal.
		price, err := parseMoney(cells[FieldItemPrice])
		if err != nil {
			return domain.Record{}, err
		}
		if !price.IsPositive() {
			return domain.Record{}, fmt.Errorf("non-positive item price %q", cells[FieldItemPrice])
		}
		qty, err := parseCount(cells[FieldQuantity])
		if err != nil {
			return domain.Record{}, err
		}
		if qty <= 0 {
			qty = 1
		}
		rec.Revenue = price.Mul(decimal.NewFromInt(qty))
		rec.Units = qty
		rec.Orders = 1
	}

	return rec, nil
}

// cleanNumber strips the decorations Amazon exports wrap numbers in.
func cleanNumber(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSuffix(s, "%")
	return strings.TrimSpace(s)
}

func parseMoney(s string) (decimal.Decimal, error) {
	s = cleanNumber(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("bad amount %q: %w", s, err)
	}
	return d, nil
}

func parseCount(s string) (int64, error) {
	s = cleanNumber(s)
	if s == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("bad count %q: %w", s, err)
	}
	return d.IntPart(), nil
}

// parseDate normalizes to midnight UTC so partition boundaries compare on the
// calendar day alone.
func parseDate(s string, layouts []string) (time.Time, error) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}
