package source

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/de-tools/ad-atlas/pkg/models/domain"
)

// ReferencePair is one row of a cohort membership list.
type ReferencePair struct {
	SKU  string
	ASIN string
}

var referenceSchema = Schema{
	Name: "reference",
	Columns: []ColumnSpec{
		{Field: FieldSKU, Names: []string{"SKU", "Seller SKU"}},
		{Field: FieldASIN, Names: []string{"ASIN", "ASIN (Informational only)"}},
	},
}

// LoadReferencePairs reads a cohort membership list from a file. At least one
// of the SKU/ASIN columns must be present.
func LoadReferencePairs(desc Descriptor) ([]ReferencePair, error) {
	if len(desc.Schema.Columns) == 0 {
		desc.Schema = referenceSchema
	}

	r, err := openReader(desc)
	if err != nil {
		return nil, fmt.Errorf("reference list %q: %w", desc.Name, err)
	}
	defer r.Close()

	header, err := r.Header()
	if err != nil {
		return nil, fmt.Errorf("reference list %q: read header: %w", desc.Name, err)
	}
	idx, _ := desc.Schema.bind(header)
	if _, okSKU := idx[FieldSKU]; !okSKU {
		if _, okASIN := idx[FieldASIN]; !okASIN {
			return nil, &domain.SchemaMismatchError{Source: desc.Name, Missing: []string{"SKU", "ASIN"}}
		}
	}

	var pairs []ReferencePair
	for {
		row, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			continue
		}
		cells := rowCells(row, idx)
		p := ReferencePair{
			SKU:  cells[FieldSKU],
			ASIN: strings.ToUpper(cells[FieldASIN]),
		}
		if p.SKU == "" && p.ASIN == "" {
			continue
		}
		pairs = append(pairs, p)
	}
	return pairs, nil
}
