package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/de-tools/ad-atlas/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const campaignCSV = `Date,Campaign Name,Spend,Clicks,Impressions,7 Day Total Orders (#),7 Day Total Units (#),7 Day Total Sales
2025-12-01,SP | B01AAAAAA1 | exact,"$1,250.40",320,15000,42,48,"$3,104.22"
2025-12-02,SP | B01AAAAAA1 | exact,$980.10,250,12000,30,31,"$2,450.00"
2025-12-02,SP auto B09ZZZZZZ1,110.00,40,2000,3,3,240.55
`

func TestLoad_CampaignCSV(t *testing.T) {
	path := writeFile(t, "campaign.csv", campaignCSV)
	result, err := Load(context.Background(), Descriptor{
		Name:   "campaign",
		Path:   path,
		Format: FormatCSV,
		Schema: CampaignSchema(),
	})
	require.NoError(t, err)
	require.Len(t, result.Records, 3)

	rec := result.Records[0]
	assert.Equal(t, "campaign", rec.Source)
	assert.Equal(t, "SP | B01AAAAAA1 | exact", rec.CampaignName)
	assert.Equal(t, time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), rec.Date)
	assert.Equal(t, "1250.4", rec.Spend.String())
	assert.Equal(t, "3104.22", rec.AdSales.String())
	assert.Equal(t, int64(320), rec.Clicks)
	assert.Equal(t, int64(15000), rec.Impressions)
	assert.Equal(t, int64(42), rec.Orders)
	assert.Equal(t, int64(48), rec.Units)

	assert.Equal(t, int64(3), result.Stats.RowsRead)
	assert.Equal(t, int64(3), result.Stats.RowsKept)
	assert.Equal(t, int64(0), result.Stats.Malformed)
}

func TestLoad_SchemaMismatchIsTyped(t *testing.T) {
	path := writeFile(t, "wrong.csv", "Campaign Name,Clicks\nfoo,10\n")
	_, err := Load(context.Background(), Descriptor{
		Name:   "campaign",
		Path:   path,
		Format: FormatCSV,
		Schema: CampaignSchema(),
	})
	require.Error(t, err)

	var mismatch *domain.SchemaMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, "campaign", mismatch.Source)
	assert.ElementsMatch(t, []string{"Date", "Spend"}, mismatch.Missing)
}

func TestLoad_HeaderMatchingIsForgiving(t *testing.T) {
	// Lowercased headers with stray whitespace still bind.
	csv := "date , CAMPAIGN NAME ,spend\n2025-12-01,camp,5.00\n"
	path := writeFile(t, "messy.csv", csv)

	result, err := Load(context.Background(), Descriptor{
		Name:   "campaign",
		Path:   path,
		Format: FormatCSV,
		Schema: CampaignSchema(),
	})
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.Equal(t, "5", result.Records[0].Spend.String())
}

const orderTSV = "amazon-order-id\tpurchase-date\torder-status\tsku\tasin\tquantity\titem-price\n" +
	"111-001\t2025-12-01T10:30:00Z\tShipped\tSKU-1\tb01aaaaaa1\t2\t24.99\n" +
	"111-002\t2025-12-01T11:00:00Z\tCancelled\tSKU-1\tB01AAAAAA1\t1\t24.99\n" +
	"111-001\t2025-12-01T10:30:00Z\tShipped\tSKU-1\tB01AAAAAA1\t2\t19.99\n" +
	"111-003\t2025-12-02T09:00:00Z\tShipped\tSKU-2\tB09ZZZZZZ1\t0\t10.00\n" +
	"111-004\t2025-12-02T09:30:00Z\tShipped\tSKU-2\tB09ZZZZZZ1\t1\t0.00\n"

func orderDescriptor(path string, dedup DedupStrategy) Descriptor {
	return Descriptor{
		Name:       "orders",
		Path:       path,
		Format:     FormatTSV,
		Schema:     OrderSchema(),
		NaturalKey: []Field{FieldOrderID, FieldSKU, FieldQuantity},
		Status:     &StatusFilter{Field: FieldStatus, Keep: []string{"Shipped"}},
		Dedup:      dedup,
	}
}

func TestLoad_OrderTSV(t *testing.T) {
	path := writeFile(t, "orders.tsv", orderTSV)
	result, err := Load(context.Background(), orderDescriptor(path, LastWriteWins))
	require.NoError(t, err)

	stats := result.Stats
	assert.Equal(t, int64(5), stats.RowsRead)
	assert.Equal(t, int64(1), stats.FilteredByStatus)
	assert.Equal(t, int64(1), stats.Duplicates)
	assert.Equal(t, int64(1), stats.Malformed, "zero-priced line is rejected")
	assert.Equal(t, int64(2), stats.RowsKept)

	require.Len(t, result.Records, 2)

	t.Run("revenue is price times quantity", func(t *testing.T) {
		rec := result.Records[0]
		assert.Equal(t, "SKU-1", rec.SKU)
		assert.Equal(t, "B01AAAAAA1", rec.ASIN, "asin is uppercased")
		assert.Equal(t, "39.98", rec.Revenue.String(), "last write wins on the duplicate key")
		assert.Equal(t, int64(2), rec.Units)
		assert.Equal(t, int64(1), rec.Orders)
		assert.Equal(t, time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), rec.Date)
	})

	t.Run("zero quantity defaults to one", func(t *testing.T) {
		rec := result.Records[1]
		assert.Equal(t, "SKU-2", rec.SKU)
		assert.Equal(t, "10", rec.Revenue.String())
		assert.Equal(t, int64(1), rec.Units)
	})
}

func TestLoad_FirstWriteWins(t *testing.T) {
	path := writeFile(t, "orders.tsv", orderTSV)
	result, err := Load(context.Background(), orderDescriptor(path, FirstWriteWins))
	require.NoError(t, err)

	require.Len(t, result.Records, 2)
	assert.Equal(t, "49.98", result.Records[0].Revenue.String(), "first occurrence survives")
	assert.Equal(t, int64(1), result.Stats.Duplicates)
}

func TestLoad_StatusFilterIsCaseInsensitive(t *testing.T) {
	tsv := "amazon-order-id\tpurchase-date\torder-status\tsku\tquantity\titem-price\n" +
		"111-001\t2025-12-01\tSHIPPED\tSKU-1\t1\t5.00\n" +
		"111-002\t2025-12-01\tpending\tSKU-1\t1\t5.00\n"
	path := writeFile(t, "orders.tsv", tsv)

	result, err := Load(context.Background(), Descriptor{
		Name:   "orders",
		Path:   path,
		Format: FormatTSV,
		Schema: OrderSchema(),
		Status: &StatusFilter{Field: FieldStatus, Keep: []string{"Shipped"}},
	})
	require.NoError(t, err)
	assert.Len(t, result.Records, 1)
	assert.Equal(t, int64(1), result.Stats.FilteredByStatus)
}

func TestLoad_BlankRowsAreIgnored(t *testing.T) {
	csv := "Date,Campaign Name,Spend\n2025-12-01,camp,5.00\n,,\n\n"
	path := writeFile(t, "blank.csv", csv)

	result, err := Load(context.Background(), Descriptor{
		Name:   "campaign",
		Path:   path,
		Format: FormatCSV,
		Schema: CampaignSchema(),
	})
	require.NoError(t, err)
	assert.Len(t, result.Records, 1)
	assert.Equal(t, int64(1), result.Stats.RowsRead)
}

func TestLoad_MalformedRowsAreCountedNotFatal(t *testing.T) {
	csv := "Date,Campaign Name,Spend\nnot-a-date,camp,5.00\n2025-12-01,camp,abc\n2025-12-01,camp,5.00\n"
	path := writeFile(t, "bad.csv", csv)

	result, err := Load(context.Background(), Descriptor{
		Name:   "campaign",
		Path:   path,
		Format: FormatCSV,
		Schema: CampaignSchema(),
	})
	require.NoError(t, err)
	assert.Len(t, result.Records, 1)
	assert.Equal(t, int64(2), result.Stats.Malformed)
}

func TestLoad_ContextCancellation(t *testing.T) {
	path := writeFile(t, "campaign.csv", campaignCSV)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Load(ctx, Descriptor{
		Name:   "campaign",
		Path:   path,
		Format: FormatCSV,
		Schema: CampaignSchema(),
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoad_UnsupportedFormat(t *testing.T) {
	_, err := Load(context.Background(), Descriptor{Name: "x", Path: "x", Format: "parquet"})
	assert.Error(t, err)
}

func TestLoadReferencePairs(t *testing.T) {
	t.Run("sku and asin columns", func(t *testing.T) {
		path := writeFile(t, "ref.csv", "SKU,ASIN\nSKU-1,b01aaaaaa1\nSKU-2,\n,B09ZZZZZZ1\n,,\n")
		pairs, err := LoadReferencePairs(Descriptor{Name: "perpetua", Path: path, Format: FormatCSV})
		require.NoError(t, err)
		require.Len(t, pairs, 3)
		assert.Equal(t, ReferencePair{SKU: "SKU-1", ASIN: "B01AAAAAA1"}, pairs[0])
		assert.Equal(t, ReferencePair{SKU: "SKU-2"}, pairs[1])
		assert.Equal(t, ReferencePair{ASIN: "B09ZZZZZZ1"}, pairs[2])
	})

	t.Run("seller sku alias", func(t *testing.T) {
		path := writeFile(t, "ref.csv", "Seller SKU\nSKU-9\n")
		pairs, err := LoadReferencePairs(Descriptor{Name: "perpetua", Path: path, Format: FormatCSV})
		require.NoError(t, err)
		require.Len(t, pairs, 1)
		assert.Equal(t, "SKU-9", pairs[0].SKU)
	})

	t.Run("neither column present", func(t *testing.T) {
		path := writeFile(t, "ref.csv", "Product Name\nWidget\n")
		_, err := LoadReferencePairs(Descriptor{Name: "perpetua", Path: path, Format: FormatCSV})
		var mismatch *domain.SchemaMismatchError
		require.True(t, errors.As(err, &mismatch))
	})
}
