// Package filter narrows a resolved table to one unit and one month.
package filter

import (
	"sort"

	"github.com/kaikelopes301-code/portal-performance/internal/table"
	"github.com/kaikelopes301-code/portal-performance/internal/textnorm"
	"github.com/kaikelopes301-code/portal-performance/internal/values"
	"github.com/kaikelopes301-code/portal-performance/pkg/logger"
)

// Filter selects rows by month then unit.
type Filter struct {
	normalizer *textnorm.Normalizer
	months     *values.MonthParser
	logger     logger.Logger
}

// New creates a filter. Nil arguments disable the corresponding cache.
func New(normalizer *textnorm.Normalizer, months *values.MonthParser) *Filter {
	return &Filter{
		normalizer: normalizer,
		months:     months,
		logger:     logger.GetGlobalLogger().WithComponent("row_filter"),
	}
}

// Rows returns the rows of t whose month column parses to ym and whose unit
// column equals unit up to case, accents and whitespace. Row order is kept.
func (f *Filter) Rows(t *table.Table, unitCol, monthCol, unit, ym string) []table.Row {
	byMonth := f.ByMonth(t, monthCol, ym)

	want := f.normalizer.Normalize(unit)
	var out []table.Row
	for _, r := range byMonth {
		if f.normalizer.Normalize(textnorm.Stringify(r[unitCol])) == want {
			out = append(out, r)
		}
	}

	f.logger.WithFields(logger.Fields{
		"unit":        unit,
		"month":       ym,
		"total_rows":  t.Len(),
		"month_rows":  len(byMonth),
		"result_rows": len(out),
	}).Debug("Filtered rows")
	return out
}

// ByMonth returns the rows whose month column parses to ym.
func (f *Filter) ByMonth(t *table.Table, monthCol, ym string) []table.Row {
	var out []table.Row
	for _, r := range t.Rows {
		if got, ok := f.months.Parse(r[monthCol]); ok && got == ym {
			out = append(out, r)
		}
	}
	return out
}

// Unit is one distinct unit found in a sheet.
type Unit struct {
	Name string `json:"name"`
	Key  string `json:"key"`
	Rows int    `json:"rows"`
}

// Units lists the distinct units having rows for ym, sorted by key. The first
// spelling seen names the unit. An empty ym lists every month.
func (f *Filter) Units(t *table.Table, unitCol, monthCol, ym string) []Unit {
	rows := t.Rows
	if ym != "" {
		rows = f.ByMonth(t, monthCol, ym)
	}

	index := make(map[string]int)
	var units []Unit
	for _, r := range rows {
		name := textnorm.Stringify(r[unitCol])
		key := f.normalizer.Normalize(name)
		if key == "" {
			continue
		}
		if i, ok := index[key]; ok {
			units[i].Rows++
			continue
		}
		index[key] = len(units)
		units = append(units, Unit{Name: name, Key: key, Rows: 1})
	}

	sort.Slice(units, func(i, j int) bool {
		return units[i].Key < units[j].Key
	})
	return units
}
