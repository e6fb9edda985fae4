// Package layout decides which columns an extraction displays, in which
// order, and aggregates the monetary columns.
package layout

import (
	"sort"

	"github.com/kaikelopes301-code/portal-performance/internal/catalog"
	"github.com/kaikelopes301-code/portal-performance/internal/textnorm"
	"github.com/kaikelopes301-code/portal-performance/pkg/logger"
	"github.com/schollz/closestmatch/levenshtein"
)

// Request describes the columns available and the columns asked for.
type Request struct {
	// Columns are the table headers, in table order.
	Columns []string
	// Resolved maps field IDs to their column in Columns.
	Resolved map[string]string
	// Requested are caller-supplied column names; empty means defaults.
	Requested []string
}

// Result is the display decision for one extraction.
type Result struct {
	Columns      []string          `json:"display_columns"`
	Requested    []string          `json:"requested_columns"`
	Missing      []string          `json:"missing_columns"`
	FallbackUsed bool              `json:"fallback_used"`
	Suggestions  map[string]string `json:"suggestions,omitempty"`
}

// Layout orders display columns for a catalog.
type Layout struct {
	catalog    *catalog.Catalog
	normalizer *textnorm.Normalizer
	logger     logger.Logger
}

// New creates a layout.
func New(cat *catalog.Catalog, normalizer *textnorm.Normalizer) *Layout {
	return &Layout{
		catalog:    cat,
		normalizer: normalizer,
		logger:     logger.GetGlobalLogger().WithComponent("layout"),
	}
}

// DisplayColumns resolves req.Requested into an ordered column list.
//
// Names are matched case and accent insensitively against the table
// columns, then against the synonyms and display aliases of resolved fields.
// An empty or fully unresolved request falls back to the catalog defaults.
// The final monthly value, billing month and NF month columns are always
// shown when present; extras are placed after their anchor column and the
// NF month comes last.
func (l *Layout) DisplayColumns(req Request) Result {
	res := Result{
		Requested: append([]string{}, req.Requested...),
		Missing:   []string{},
	}

	available := make(map[string]bool, len(req.Columns))
	for _, c := range req.Columns {
		available[c] = true
	}
	lookup := l.lookup(req)

	var chosen []string
	seen := make(map[string]bool)
	add := func(col string) {
		if !seen[col] {
			seen[col] = true
			chosen = append(chosen, col)
		}
	}

	for _, name := range req.Requested {
		if col, ok := lookup[l.normalizer.Normalize(name)]; ok {
			add(col)
			continue
		}
		if f, ok := l.catalog.ByName(name); ok && f.Kind == catalog.KindExtra && f.Name == name {
			add(f.Name)
			continue
		}
		res.Missing = append(res.Missing, name)
	}

	if len(chosen) == 0 {
		res.FallbackUsed = len(req.Requested) > 0
		for _, name := range l.catalog.DefaultDisplay() {
			if available[name] {
				add(name)
			}
		}
	}

	for _, id := range []string{catalog.FieldFinalMonthlyValue, catalog.FieldBillingMonth, catalog.FieldNFMonth} {
		if col, ok := req.Resolved[id]; ok && available[col] {
			add(col)
		}
	}

	chosen = l.defaultsFirst(chosen)

	if len(chosen) == 0 {
		res.FallbackUsed = true
		n := min(3, len(req.Columns))
		chosen = append(chosen, req.Columns[:n]...)
	}

	chosen = l.placeAnchored(chosen, req.Resolved)
	res.Columns = l.nfMonthLast(chosen, req.Resolved)

	if len(res.Missing) > 0 {
		res.Suggestions = l.suggest(res.Missing, lookup)
		l.logger.WithFields(logger.Fields{
			"missing":     res.Missing,
			"suggestions": res.Suggestions,
		}).Warn("Requested columns not found")
	}
	l.logger.WithFields(logger.Fields{
		"columns":  res.Columns,
		"fallback": res.FallbackUsed,
	}).Debug("Resolved display columns")
	return res
}

// lookup maps normalized names to columns: table columns first, then
// synonyms and display aliases of resolved fields.
func (l *Layout) lookup(req Request) map[string]string {
	m := make(map[string]string)
	for _, c := range req.Columns {
		m[l.normalizer.Normalize(c)] = c
	}
	for _, f := range l.catalog.Fields() {
		col, ok := req.Resolved[f.ID]
		if !ok {
			continue
		}
		for _, s := range append(f.Names(), f.DisplayAliases...) {
			key := l.normalizer.Normalize(s)
			if _, taken := m[key]; !taken {
				m[key] = col
			}
		}
	}
	return m
}

// defaultsFirst moves the catalog default columns to the front, in default
// order, keeping the relative order of the others.
func (l *Layout) defaultsFirst(cols []string) []string {
	in := make(map[string]bool, len(cols))
	for _, c := range cols {
		in[c] = true
	}
	out := make([]string, 0, len(cols))
	isDefault := make(map[string]bool)
	for _, name := range l.catalog.DefaultDisplay() {
		isDefault[name] = true
		if in[name] {
			out = append(out, name)
		}
	}
	for _, c := range cols {
		if !isDefault[c] {
			out = append(out, c)
		}
	}
	return out
}

// placeAnchored moves each chosen extra right after its anchor column, in
// catalog order. Extras whose anchor is not displayed go before the final
// monthly value, or at the end when that is absent too.
func (l *Layout) placeAnchored(cols []string, resolved map[string]string) []string {
	anchored := make(map[string]string)
	for _, f := range l.catalog.Fields() {
		if f.Anchor != "" {
			anchored[f.Name] = f.Anchor
		}
	}

	present := make(map[string]bool, len(cols))
	var base []string
	for _, c := range cols {
		present[c] = true
		if _, ok := anchored[c]; !ok {
			base = append(base, c)
		}
	}

	anchorCol := func(id string) string {
		if col, ok := resolved[id]; ok {
			return col
		}
		return l.catalog.MustField(id).Name
	}
	vmf := anchorCol(catalog.FieldFinalMonthlyValue)

	var orphans []string
	for _, anchor := range []string{catalog.FieldSLAMonth, catalog.FieldFinalMonthlyValue} {
		var group []string
		for _, f := range l.catalog.AnchoredAfter(anchor) {
			if present[f.Name] {
				group = append(group, f.Name)
			}
		}
		if len(group) == 0 {
			continue
		}
		at := indexOf(base, anchorCol(anchor))
		if at < 0 {
			orphans = append(orphans, group...)
			continue
		}
		base = insert(base, at+1, group)
	}

	if len(orphans) > 0 {
		if at := indexOf(base, vmf); at >= 0 {
			base = insert(base, at, orphans)
		} else {
			base = append(base, orphans...)
		}
	}
	return base
}

func (l *Layout) nfMonthLast(cols []string, resolved map[string]string) []string {
	nf, ok := resolved[catalog.FieldNFMonth]
	out := make([]string, 0, len(cols))
	seen := make(map[string]bool, len(cols))
	found := false
	for _, c := range cols {
		if seen[c] {
			continue
		}
		seen[c] = true
		if ok && c == nf {
			found = true
			continue
		}
		out = append(out, c)
	}
	if found {
		out = append(out, nf)
	}
	return out
}

// suggest proposes the closest known column name for each missing request.
// Keys are scanned in sorted order and only a strictly smaller edit distance
// replaces the best match, so ties go to the lexically smallest key. A match
// must be within half the length of the longer name.
func (l *Layout) suggest(missing []string, lookup map[string]string) map[string]string {
	keys := make([]string, 0, len(lookup))
	for k := range lookup {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) == 0 {
		return nil
	}

	out := make(map[string]string)
	for _, name := range missing {
		key := l.normalizer.Normalize(name)
		if key == "" {
			continue
		}
		best, bestDist := "", -1
		for _, k := range keys {
			d := levenshtein.LevenshteinDistance(&key, &k)
			if bestDist < 0 || d < bestDist {
				best, bestDist = k, d
			}
		}
		if bestDist*2 <= max(len(key), len(best)) {
			out[name] = lookup[best]
		}
	}
	return out
}

func indexOf(cols []string, col string) int {
	for i, c := range cols {
		if c == col {
			return i
		}
	}
	return -1
}

func insert(cols []string, at int, group []string) []string {
	out := make([]string, 0, len(cols)+len(group))
	out = append(out, cols[:at]...)
	out = append(out, group...)
	return append(out, cols[at:]...)
}
