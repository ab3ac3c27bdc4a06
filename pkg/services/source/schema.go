package source

import (
	"strings"
)

// Field is the semantic meaning of a column, independent of how a particular
// export names it.
type Field string

const (
	FieldSKU          Field = "sku"
	FieldASIN         Field = "asin"
	FieldCampaignName Field = "campaign_name"
	FieldDate         Field = "date"
	FieldSpend        Field = "spend"
	FieldAdSales      Field = "ad_sales"
	FieldRevenue      Field = "revenue"
	FieldItemPrice    Field = "item_price"
	FieldQuantity     Field = "quantity"
	FieldClicks       Field = "clicks"
	FieldImpressions  Field = "impressions"
	FieldOrders       Field = "orders"
	FieldUnits        Field = "units"
	FieldStatus       Field = "status"
	FieldOrderID      Field = "order_id"
)

// ColumnSpec binds a semantic field to the header names a source may use for
// it. Names are matched case-insensitively with surrounding whitespace
// ignored; Amazon exports are inconsistent about trailing spaces.
type ColumnSpec struct {
	Field    Field
	Names    []string
	Required bool
}

// Schema declares the tabular layout a source must satisfy.
type Schema struct {
	Name        string
	Columns     []ColumnSpec
	DateLayouts []string
}

var defaultDateLayouts = []string{
	"2006-01-02",
	"Jan 2, 2006",
	"01/02/2006",
	"2006-01-02T15:04:05-07:00",
	"2006-01-02T15:04:05Z",
}

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	return strings.ToLower(strings.TrimSpace(h))
}

// bind maps each schema field to its column index in the header row and
// returns the required fields that could not be found.
func (s Schema) bind(header []string) (map[Field]int, []string) {
	byName := make(map[string]int, len(header))
	for i, h := range header {
		byName[normalizeHeader(h)] = i
	}

	idx := make(map[Field]int, len(s.Columns))
	var missing []string
	for _, col := range s.Columns {
		found := false
		for _, name := range col.Names {
			if i, ok := byName[normalizeHeader(name)]; ok {
				idx[col.Field] = i
				found = true
				break
			}
		}
		if !found && col.Required {
			missing = append(missing, col.Names[0])
		}
	}
	return idx, missing
}

func (s Schema) dateLayouts() []string {
	if len(s.DateLayouts) > 0 {
		return s.DateLayouts
	}
	return defaultDateLayouts
}

// CampaignSchema matches the Sponsored Products campaign export. Ad sales and
// orders use the 7-day attribution columns.
func CampaignSchema() Schema {
	return Schema{
		Name: "campaign",
		Columns: []ColumnSpec{
			{Field: FieldDate, Names: []string{"Date", "Start Date"}, Required: true},
			{Field: FieldCampaignName, Names: []string{"Campaign Name", "Campaigns"}, Required: true},
			{Field: FieldSpend, Names: []string{"Spend", "Cost"}, Required: true},
			{Field: FieldClicks, Names: []string{"Clicks"}},
			{Field: FieldImpressions, Names: []string{"Impressions"}},
			{Field: FieldOrders, Names: []string{"7 Day Total Orders (#)", "Orders"}},
			{Field: FieldUnits, Names: []string{"7 Day Total Units (#)", "Units"}},
			{Field: FieldAdSales, Names: []string{"7 Day Total Sales ", "7 Day Total Sales", "Sales"}},
			{Field: FieldSKU, Names: []string{"Advertised SKU"}},
			{Field: FieldASIN, Names: []string{"Advertised ASIN"}},
		},
	}
}

// ProductSchema matches the advertised-product export, which reports at the
// SKU/ASIN level instead of the campaign level.
func ProductSchema() Schema {
	return Schema{
		Name: "product",
		Columns: []ColumnSpec{
			{Field: FieldDate, Names: []string{"Date"}, Required: true},
			{Field: FieldASIN, Names: []string{"Advertised ASIN", "ASIN"}, Required: true},
			{Field: FieldSKU, Names: []string{"Advertised SKU", "SKU"}},
			{Field: FieldSpend, Names: []string{"Spend", "Cost"}, Required: true},
			{Field: FieldClicks, Names: []string{"Clicks"}},
			{Field: FieldImpressions, Names: []string{"Impressions"}},
			{Field: FieldOrders, Names: []string{"7 Day Total Orders (#)", "Orders"}},
			{Field: FieldUnits, Names: []string{"7 Day Total Units (#)", "Units"}},
			{Field: FieldAdSales, Names: []string{"7 Day Total Sales ", "7 Day Total Sales", "Sales"}},
		},
	}
}

// OrderSchema matches the tab-separated all-orders report. Revenue is derived
// from item price and quantity; each kept line contributes one order.
func OrderSchema() Schema {
	return Schema{
		Name: "order",
		Columns: []ColumnSpec{
			{Field: FieldOrderID, Names: []string{"amazon-order-id"}, Required: true},
			{Field: FieldDate, Names: []string{"purchase-date"}, Required: true},
			{Field: FieldStatus, Names: []string{"order-status"}},
			{Field: FieldSKU, Names: []string{"sku"}, Required: true},
			{Field: FieldASIN, Names: []string{"asin"}},
			{Field: FieldQuantity, Names: []string{"quantity"}},
			{Field: FieldItemPrice, Names: []string{"item-price"}},
		},
		DateLayouts: []string{
			"2006-01-02T15:04:05-07:00",
			"2006-01-02T15:04:05Z",
			"2006-01-02",
		},
	}
}

// PresetSchema resolves a schema preset referenced from configuration.
func PresetSchema(name string) (Schema, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "campaign":
		return CampaignSchema(), true
	case "product":
		return ProductSchema(), true
	case "order":
		return OrderSchema(), true
	}
	return Schema{}, false
}
