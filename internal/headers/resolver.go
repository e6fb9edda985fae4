// Package headers maps the human-edited headers of a billing sheet onto the
// canonical field catalog.
//
// Resolution runs in three passes over the catalog:
//
//  1. equivalent: a header equal to a canonical name up to case, accents,
//     whitespace and punctuation is claimed by that field
//  2. exact: a header whose normalized key equals a synonym's
//  3. fuzzy: substring of a synonym, then all tokens of a token set, then the
//     field pattern (NF issuance month only)
//
// Each header is claimed by at most one field, and each field claims at most
// one header; within a pass fields claim in catalog order and headers are
// scanned in table order. Claimed headers are renamed in place to the
// canonical field name.
package headers

import (
	"strings"

	"github.com/kaikelopes301-code/portal-performance/internal/catalog"
	"github.com/kaikelopes301-code/portal-performance/internal/table"
	"github.com/kaikelopes301-code/portal-performance/internal/textnorm"
	"github.com/kaikelopes301-code/portal-performance/pkg/logger"
)

// Tier records which pass claimed a header.
type Tier string

const (
	TierEquivalent Tier = "equivalent"
	TierExact      Tier = "exact"
	TierSubstring  Tier = "substring"
	TierToken      Tier = "token"
	TierPattern    Tier = "pattern"
)

// Resolution is the outcome of resolving one table.
type Resolution struct {
	// Source maps a field ID to the header it was resolved from.
	Source map[string]string
	// Columns maps a field ID to its column name after renaming.
	Columns map[string]string
	// Tier maps a field ID to the pass that resolved it.
	Tier map[string]Tier
	// Dropped lists headers removed as duplicates of the SLA month discount.
	Dropped []string
	// Unresolved lists required field IDs no header resolved to.
	Unresolved []string
}

// Column returns the column holding field id.
func (r *Resolution) Column(id string) (string, bool) {
	c, ok := r.Columns[id]
	return c, ok
}

// Complete reports whether every required field resolved.
func (r *Resolution) Complete() bool {
	return len(r.Unresolved) == 0
}

// Resolver resolves table headers against a catalog.
type Resolver struct {
	catalog    *catalog.Catalog
	normalizer *textnorm.Normalizer
	logger     logger.Logger
}

// NewResolver creates a resolver. A nil normalizer normalizes without caching.
func NewResolver(cat *catalog.Catalog, normalizer *textnorm.Normalizer) *Resolver {
	return &Resolver{
		catalog:    cat,
		normalizer: normalizer,
		logger:     logger.GetGlobalLogger().WithComponent("header_resolver"),
	}
}

type header struct {
	name    string
	key     string
	equiv   string
	claimed bool
}

// Resolve claims headers for catalog fields and renames them in t.
func (r *Resolver) Resolve(t *table.Table) *Resolution {
	res := &Resolution{
		Source:  make(map[string]string),
		Columns: make(map[string]string),
		Tier:    make(map[string]Tier),
	}

	hs := make([]*header, len(t.Headers))
	for i, h := range t.Headers {
		hs[i] = &header{name: h, key: r.normalizer.Normalize(h), equiv: textnorm.KeyEquivalent(h)}
	}
	fields := r.catalog.Fields()

	claim := func(f catalog.Field, h *header, tier Tier) {
		h.claimed = true
		res.Source[f.ID] = h.name
		res.Tier[f.ID] = tier
		r.logger.WithFields(logger.Fields{
			"field":  f.ID,
			"header": h.name,
			"tier":   string(tier),
		}).Debug("Resolved header")
	}

	for _, f := range fields {
		if h := r.equivalent(f, hs); h != nil {
			claim(f, h, TierEquivalent)
		}
	}

	for _, f := range fields {
		if _, done := res.Source[f.ID]; done {
			continue
		}
		if h := r.exact(f, hs); h != nil {
			claim(f, h, TierExact)
		}
	}

	for _, f := range fields {
		if _, done := res.Source[f.ID]; done {
			continue
		}
		if h := r.substring(f, hs); h != nil {
			claim(f, h, TierSubstring)
		} else if h := r.token(f, hs); h != nil {
			claim(f, h, TierToken)
		} else if h := r.pattern(f, hs); h != nil {
			claim(f, h, TierPattern)
		}
	}

	for _, f := range fields {
		src, ok := res.Source[f.ID]
		if !ok {
			if f.Kind == catalog.KindRequired {
				res.Unresolved = append(res.Unresolved, f.ID)
			}
			continue
		}
		col := src
		if err := t.Rename(src, f.Name); err != nil {
			r.logger.WithError(err).WithField("field", f.ID).Warn("Could not rename resolved header")
		} else {
			col = f.Name
		}
		res.Columns[f.ID] = col
	}

	if _, ok := res.Source[catalog.FieldSLAMonth]; ok {
		sla := r.catalog.MustField(catalog.FieldSLAMonth)
		for _, h := range hs {
			if h.claimed || !r.looksLikeSLAMonth(sla, h) {
				continue
			}
			t.Drop(h.name)
			res.Dropped = append(res.Dropped, h.name)
			r.logger.WithField("header", h.name).Debug("Dropped duplicate SLA month header")
		}
	}

	if len(res.Unresolved) > 0 {
		r.logger.WithField("fields", res.Unresolved).Warn("Required fields not found in headers")
	}
	return res
}

func (r *Resolver) equivalent(f catalog.Field, hs []*header) *header {
	for _, h := range hs {
		if !h.claimed && h.name == f.Name {
			return h
		}
	}
	want := textnorm.KeyEquivalent(f.Name)
	for _, h := range hs {
		if !h.claimed && h.equiv != "" && h.equiv == want {
			return h
		}
	}
	return nil
}

func (r *Resolver) exact(f catalog.Field, hs []*header) *header {
	keys := make(map[string]bool, len(f.Synonyms)+1)
	for _, s := range f.Names() {
		keys[r.normalizer.Normalize(s)] = true
	}
	for _, h := range hs {
		if !h.claimed && keys[h.key] {
			return h
		}
	}
	return nil
}

func (r *Resolver) substring(f catalog.Field, hs []*header) *header {
	for _, h := range hs {
		if h.claimed || h.key == "" || forbidden(f, h.key) {
			continue
		}
		for _, s := range f.Names() {
			if k := r.normalizer.Normalize(s); k != "" && strings.Contains(h.key, k) {
				return h
			}
		}
	}
	return nil
}

func (r *Resolver) token(f catalog.Field, hs []*header) *header {
	if len(f.TokenSets) == 0 {
		return nil
	}
	for _, h := range hs {
		if h.claimed || forbidden(f, h.key) {
			continue
		}
		for _, set := range f.TokenSets {
			if containsAll(h.key, set) {
				return h
			}
		}
	}
	return nil
}

func (r *Resolver) pattern(f catalog.Field, hs []*header) *header {
	if f.Pattern == nil {
		return nil
	}
	for _, h := range hs {
		if !h.claimed && f.Pattern.MatchString(h.key) {
			return h
		}
	}
	return nil
}

// looksLikeSLAMonth matches an exact SLA month synonym, or a header naming
// an SLA discount that carries none of the field's forbidden tokens.
func (r *Resolver) looksLikeSLAMonth(sla catalog.Field, h *header) bool {
	for _, s := range sla.Names() {
		if r.normalizer.Normalize(s) == h.key {
			return true
		}
	}
	return strings.Contains(h.key, "sla") && strings.Contains(h.key, "desc") && !forbidden(sla, h.key)
}

func forbidden(f catalog.Field, key string) bool {
	for _, tok := range f.Forbidden {
		if strings.Contains(key, textnorm.Normalize(tok)) {
			return true
		}
	}
	return false
}

// containsAll reports whether key contains every token, in any order.
func containsAll(key string, tokens []string) bool {
	for _, tok := range tokens {
		if !strings.Contains(key, textnorm.Normalize(tok)) {
			return false
		}
	}
	return true
}
