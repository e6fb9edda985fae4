// Package extractor is the entry point of the report engine: it resolves a
// billing sheet's headers, narrows it to one unit and month, rescues empty
// extras and returns display-ready rows with a summary.
package extractor

import (
	"github.com/kaikelopes301-code/portal-performance/internal/catalog"
	"github.com/kaikelopes301-code/portal-performance/internal/filter"
	"github.com/kaikelopes301-code/portal-performance/internal/headers"
	"github.com/kaikelopes301-code/portal-performance/internal/layout"
	"github.com/kaikelopes301-code/portal-performance/internal/rescue"
	"github.com/kaikelopes301-code/portal-performance/internal/table"
	"github.com/kaikelopes301-code/portal-performance/internal/textnorm"
	"github.com/kaikelopes301-code/portal-performance/internal/values"
	"github.com/kaikelopes301-code/portal-performance/pkg/errors"
	"github.com/kaikelopes301-code/portal-performance/pkg/logger"
	"github.com/shopspring/decimal"
)

// Result is the outcome of one extraction.
type Result struct {
	Rows       []map[string]string `json:"rows"`
	Recipients []string            `json:"recipients"`
	Summary    Summary             `json:"summary"`
}

// Summary describes how an extraction was produced.
type Summary struct {
	Unit             string                     `json:"unit"`
	Month            string                     `json:"month"`
	RowCount         int                        `json:"row_count"`
	Sums             map[string]decimal.Decimal `json:"sums"`
	DisplayColumns   []string                   `json:"display_columns"`
	RequestedColumns []string                   `json:"requested_columns"`
	MissingColumns   []string                   `json:"missing_columns"`
	FallbackUsed     bool                       `json:"fallback_used"`
	RescueProvenance map[string]string          `json:"rescue_provenance"`
	Suggestions      map[string]string          `json:"suggestions,omitempty"`
	PendingCounts    map[string]int             `json:"pending_counts,omitempty"`
}

// Engine runs extractions against one catalog. It is safe for concurrent use;
// input tables are never modified.
type Engine struct {
	config     *Config
	catalog    *catalog.Catalog
	normalizer *textnorm.Normalizer
	months     *values.MonthParser
	resolver   *headers.Resolver
	filter     *filter.Filter
	rescuer    *rescue.Rescuer
	layout     *layout.Layout
	logger     logger.Logger
}

// NewEngine creates an engine. A nil config uses DefaultConfig and a nil
// catalog uses catalog.Default.
func NewEngine(config *Config, cat *catalog.Catalog) (*Engine, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if cat == nil {
		var err error
		if cat, err = catalog.Default(); err != nil {
			return nil, err
		}
	}

	var normalizer *textnorm.Normalizer
	var months *values.MonthParser
	if config.CacheSize > 0 {
		names, err := textnorm.NewLRUCache(config.CacheSize)
		if err != nil {
			return nil, errors.InternalError(errors.CodeUnexpectedError, "cache setup", err)
		}
		dates, err := textnorm.NewLRUCache(config.CacheSize)
		if err != nil {
			return nil, errors.InternalError(errors.CodeUnexpectedError, "cache setup", err)
		}
		normalizer = textnorm.NewNormalizer(names)
		months = values.NewMonthParser(dates)
	}

	log := logger.GetGlobalLogger().WithComponent("extractor")
	log.WithFields(logger.Fields{
		"cache_size":    config.CacheSize,
		"format_extras": config.FormatExtras,
		"fields":        len(cat.Fields()),
	}).Debug("Created extraction engine")

	return &Engine{
		config:     config,
		catalog:    cat,
		normalizer: normalizer,
		months:     months,
		resolver:   headers.NewResolver(cat, normalizer),
		filter:     filter.New(normalizer, months),
		rescuer:    rescue.New(cat, normalizer),
		layout:     layout.New(cat, normalizer),
		logger:     log,
	}, nil
}

// Catalog returns the engine's field catalog.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// ResolveAndExtract returns the rows of t for unit in month ym ("YYYY-MM" or
// any month form the month parser accepts), showing the requested columns.
//
// Missing data is not an error: when a required column cannot be found, the
// month does not parse or no row matches, the result is empty. Rows hold
// display text keyed by the summary's display columns.
func (e *Engine) ResolveAndExtract(t *table.Table, unit, ym string, requested []string) (*Result, error) {
	log := e.logger.WithFields(logger.Fields{"unit": unit, "month": ym})

	month, ok := e.months.Parse(ym)
	if !ok {
		log.Warn("Requested month is not a valid month reference")
		return e.empty(unit, ym, requested), nil
	}

	t = t.Clone()
	res := e.resolver.Resolve(t)
	if !res.Complete() {
		log.WithField("unresolved", res.Unresolved).Warn("Sheet lacks required columns")
		return e.empty(unit, month, requested), nil
	}

	unitCol, _ := res.Column(catalog.FieldUnit)
	monthCol, _ := res.Column(catalog.FieldNFMonth)
	rows := e.filter.Rows(t, unitCol, monthCol, unit, month)

	columns := make(map[string]string, len(res.Columns))
	for id, col := range res.Columns {
		columns[id] = col
	}
	for _, f := range e.catalog.Fields() {
		if _, ok := columns[f.ID]; !ok && f.Ensure {
			t.AddColumn(f.Name, "")
			columns[f.ID] = f.Name
		}
	}

	prov := e.rescuer.Apply(t.Headers, rows, columns)
	sums := layout.Sums(e.catalog, rows, columns)

	var recipients []string
	if col, ok := columns[catalog.FieldRecipients]; ok {
		cells := make([]any, len(rows))
		for i, r := range rows {
			cells[i] = r[col]
		}
		recipients = values.CollectRecipients(cells)
	}

	display := e.layout.DisplayColumns(layout.Request{
		Columns:   t.Headers,
		Resolved:  columns,
		Requested: requested,
	})

	fields := make(map[string]catalog.Field, len(columns))
	for id, col := range columns {
		fields[col] = e.catalog.MustField(id)
	}
	out := make([]map[string]string, len(rows))
	for i, r := range rows {
		out[i] = e.render(r, display.Columns, fields, month)
	}

	result := &Result{
		Rows:       out,
		Recipients: nonNil(recipients),
		Summary: Summary{
			Unit:             unit,
			Month:            month,
			RowCount:         len(rows),
			Sums:             sums,
			DisplayColumns:   display.Columns,
			RequestedColumns: display.Requested,
			MissingColumns:   display.Missing,
			FallbackUsed:     display.FallbackUsed,
			RescueProvenance: prov,
			Suggestions:      display.Suggestions,
			PendingCounts:    pendingCounts(rows, display.Columns),
		},
	}

	log.WithFields(logger.Fields{
		"rows":     result.Summary.RowCount,
		"columns":  len(display.Columns),
		"missing":  len(display.Missing),
		"rescued":  rescuedCount(prov),
		"fallback": display.FallbackUsed,
	}).Info("Extraction completed")
	return result, nil
}

// Units lists the distinct units of t having rows in month ym; an empty ym
// lists every month. A sheet without unit or month columns has no units.
func (e *Engine) Units(t *table.Table, ym string) []filter.Unit {
	if ym != "" {
		month, ok := e.months.Parse(ym)
		if !ok {
			return nil
		}
		ym = month
	}

	t = t.Clone()
	res := e.resolver.Resolve(t)
	if !res.Complete() {
		return nil
	}
	unitCol, _ := res.Column(catalog.FieldUnit)
	monthCol, _ := res.Column(catalog.FieldNFMonth)
	return e.filter.Units(t, unitCol, monthCol, ym)
}

func (e *Engine) empty(unit, ym string, requested []string) *Result {
	prov := make(map[string]string)
	for _, f := range e.catalog.OfKind(catalog.KindExtra) {
		prov[f.ID] = ""
	}
	return &Result{
		Rows:       []map[string]string{},
		Recipients: []string{},
		Summary: Summary{
			Unit:             unit,
			Month:            ym,
			Sums:             layout.Sums(e.catalog, nil, nil),
			DisplayColumns:   []string{},
			RequestedColumns: append([]string{}, requested...),
			MissingColumns:   []string{},
			RescueProvenance: prov,
		},
	}
}

func pendingCounts(rows []table.Row, cols []string) map[string]int {
	out := make(map[string]int)
	for _, col := range cols {
		for _, r := range rows {
			if values.IsPendingLabel(r[col]) {
				out[col]++
			}
		}
	}
	return out
}

func rescuedCount(prov map[string]string) int {
	n := 0
	for _, src := range prov {
		if src != "" {
			n++
		}
	}
	return n
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
