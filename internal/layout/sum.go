package layout

import (
	"github.com/kaikelopes301-code/portal-performance/internal/catalog"
	"github.com/kaikelopes301-code/portal-performance/internal/table"
	"github.com/kaikelopes301-code/portal-performance/internal/values"
	"github.com/shopspring/decimal"
)

// Sum adds the money values of col across rows. Cells that do not parse,
// pending labels included, count as zero.
func Sum(rows []table.Row, col string) decimal.Decimal {
	total := decimal.Zero
	for _, r := range rows {
		if d, ok := values.ParseMoney(r[col]); ok {
			total = total.Add(d)
		}
	}
	return total
}

// Sums totals every summed catalog field present in columns, keyed by field
// ID, plus catalog.GeneralDiscounts for the discount fields. Absent fields
// total zero.
func Sums(cat *catalog.Catalog, rows []table.Row, columns map[string]string) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	discounts := decimal.Zero
	for _, f := range cat.SummedFields() {
		total := decimal.Zero
		if col, ok := columns[f.ID]; ok {
			total = Sum(rows, col)
		}
		out[f.ID] = total
		if f.Discount {
			discounts = discounts.Add(total)
		}
	}
	out[catalog.GeneralDiscounts] = discounts
	return out
}
