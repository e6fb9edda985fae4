// Package rescue refills empty optional-extra columns from lookalike
// columns the header resolver left unclaimed or claimed for another field.
package rescue

import (
	"strings"

	"github.com/kaikelopes301-code/portal-performance/internal/catalog"
	"github.com/kaikelopes301-code/portal-performance/internal/table"
	"github.com/kaikelopes301-code/portal-performance/internal/textnorm"
	"github.com/kaikelopes301-code/portal-performance/internal/values"
	"github.com/kaikelopes301-code/portal-performance/pkg/logger"
)

// Provenance maps an extra's field ID to the header its values were copied
// from, or "" when no rescue happened.
type Provenance map[string]string

// Rescuer applies the catalog rescue rules.
type Rescuer struct {
	catalog    *catalog.Catalog
	normalizer *textnorm.Normalizer
	logger     logger.Logger
}

// New creates a rescuer.
func New(cat *catalog.Catalog, normalizer *textnorm.Normalizer) *Rescuer {
	return &Rescuer{
		catalog:    cat,
		normalizer: normalizer,
		logger:     logger.GetGlobalLogger().WithComponent("column_rescue"),
	}
}

// Apply rescues every extra whose column is blank across rows, then
// normalizes the extra columns. columns maps field IDs to column names;
// headers is the table header list in order.
//
// A rescue only fills a column that is entirely blank, and copies from the
// first other column (in header order) that satisfies the field's rule and
// holds at least one value. Columns belonging to other extras are never
// used as a source.
func (r *Rescuer) Apply(headers []string, rows []table.Row, columns map[string]string) Provenance {
	extras := r.catalog.OfKind(catalog.KindExtra)
	prov := make(Provenance, len(extras))

	owned := make(map[string]bool, len(extras))
	for _, f := range extras {
		if col, ok := columns[f.ID]; ok {
			owned[col] = true
		}
	}

	for _, f := range extras {
		prov[f.ID] = ""
		target, ok := columns[f.ID]
		if !ok || f.Rescue == nil || len(rows) == 0 || !allBlank(rows, target) {
			continue
		}

		for _, h := range headers {
			if h == target || owned[h] {
				continue
			}
			if !r.matches(f.Rescue, h) || allBlank(rows, h) {
				continue
			}
			for _, row := range rows {
				row[target] = row[h]
			}
			prov[f.ID] = h
			r.logger.WithFields(logger.Fields{
				"field":  f.ID,
				"source": h,
				"rows":   len(rows),
			}).Info("Rescued empty column")
			break
		}
	}

	for _, f := range extras {
		col, ok := columns[f.ID]
		if !ok {
			continue
		}
		for _, row := range rows {
			row[col] = NormalizeValue(row[col])
		}
	}
	return prov
}

func (r *Rescuer) matches(rule *catalog.RescueRule, header string) bool {
	key := r.normalizer.Normalize(header)
	for _, tok := range rule.All {
		if !strings.Contains(key, textnorm.Normalize(tok)) {
			return false
		}
	}
	if len(rule.Any) > 0 {
		found := false
		for _, tok := range rule.Any {
			if strings.Contains(key, textnorm.Normalize(tok)) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for _, tok := range rule.None {
		if strings.Contains(key, textnorm.Normalize(tok)) {
			return false
		}
	}
	return true
}

func allBlank(rows []table.Row, col string) bool {
	for _, row := range rows {
		if !values.IsBlank(row[col]) {
			return false
		}
	}
	return true
}

// NormalizeValue cleans an extra's cell: blanks and pending labels become "",
// "(123,45)" becomes "-123,45". Other values, zero included, are kept.
func NormalizeValue(v any) any {
	if values.IsBlank(v) || values.IsPendingLabel(v) {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return v
	}
	s = strings.TrimSpace(s)
	if len(s) > 2 && strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		return "-" + strings.TrimSpace(s[1:len(s)-1])
	}
	return s
}
