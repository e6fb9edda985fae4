// Package catalog holds the closed set of canonical report fields.
//
// The catalog is data, not code: each field carries its synonym list,
// token-set fallbacks, forbidden tokens, display format and, for the
// optional extras, the rescue rule and anchor used for column ordering.
// Field order is significant: the header resolver claims headers in this
// order and the display orderer uses it for the anchored groups.
package catalog

import (
	"fmt"
	"regexp"

	"github.com/kaikelopes301-code/portal-performance/internal/textnorm"
	apperrors "github.com/kaikelopes301-code/portal-performance/pkg/errors"
)

// Kind classifies how the engine treats a canonical field.
type Kind int

const (
	// KindRequired fields must resolve or the extraction yields nothing.
	KindRequired Kind = iota
	// KindStandard fields are resolved and displayed but may be absent.
	KindStandard
	// KindSLAMonth is the single monthly SLA discount field; it anchors the
	// first group of extras and shadows duplicate lookalike headers.
	KindSLAMonth
	// KindExtra fields are the optional extras eligible for rescue.
	KindExtra
)

func (k Kind) String() string {
	switch k {
	case KindRequired:
		return "required"
	case KindStandard:
		return "standard"
	case KindSLAMonth:
		return "sla_month"
	case KindExtra:
		return "extra"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Format selects the display formatting applied to a field's cells.
type Format int

const (
	FormatNone Format = iota
	FormatMoney
	FormatPercent
	FormatMonth
	FormatDuration
	FormatPending
)

// RescueRule describes which other headers may refill an empty extra column.
// A candidate's normalized header must contain every All token, at least one
// Any token (when Any is set) and no None token.
type RescueRule struct {
	All  []string
	Any  []string
	None []string
}

// Field is one canonical field.
type Field struct {
	ID   string
	Name string
	Kind Kind

	Synonyms  []string
	TokenSets [][]string
	Forbidden []string
	Pattern   *regexp.Regexp

	// DisplayAliases are extra names accepted when a caller requests columns.
	DisplayAliases []string

	// Ensure creates the column (empty) when no header resolves to it.
	Ensure      bool
	Format      Format
	Placeholder string

	Summed   bool
	Discount bool

	// Anchor is the field ID this extra is displayed after.
	Anchor string
	Rescue *RescueRule
}

// Names returns the canonical name followed by its synonyms.
func (f Field) Names() []string {
	out := make([]string, 0, len(f.Synonyms)+1)
	out = append(out, f.Name)
	return append(out, f.Synonyms...)
}

// Catalog is an immutable, validated list of fields.
type Catalog struct {
	fields  []Field
	byID    map[string]int
	byName  map[string]int
	display []string
}

// New validates fields and builds a catalog. defaultDisplay lists the field
// IDs shown when a caller asks for no particular columns.
func New(fields []Field, defaultDisplay []string) (*Catalog, error) {
	c := &Catalog{
		fields: make([]Field, len(fields)),
		byID:   make(map[string]int, len(fields)),
		byName: make(map[string]int, len(fields)),
	}
	copy(c.fields, fields)

	for i, f := range c.fields {
		if f.ID == "" || textnorm.Normalize(f.Name) == "" {
			return nil, apperrors.CatalogError(apperrors.CodeCatalogCorrupted, fmt.Sprintf("field #%d", i), nil)
		}
		if _, dup := c.byID[f.ID]; dup {
			return nil, apperrors.CatalogError(apperrors.CodeDuplicateField, f.ID, nil)
		}
		key := textnorm.Normalize(f.Name)
		if _, dup := c.byName[key]; dup {
			return nil, apperrors.CatalogError(apperrors.CodeDuplicateField, f.Name, nil)
		}
		if err := validateField(f); err != nil {
			return nil, apperrors.CatalogError(apperrors.CodeCatalogCorrupted, f.ID, err)
		}
		c.byID[f.ID] = i
		c.byName[key] = i
	}

	for _, id := range []string{FieldUnit, FieldNFMonth, FieldSLAMonth, FieldFinalMonthlyValue} {
		if _, ok := c.byID[id]; !ok {
			return nil, apperrors.CatalogError(apperrors.CodeCatalogCorrupted, id, fmt.Errorf("mandatory field not declared"))
		}
	}
	if c.fields[c.byID[FieldSLAMonth]].Kind != KindSLAMonth {
		return nil, apperrors.CatalogError(apperrors.CodeCatalogCorrupted, FieldSLAMonth, fmt.Errorf("must be of kind sla_month"))
	}

	for _, f := range c.fields {
		if f.Anchor == "" {
			continue
		}
		if _, ok := c.byID[f.Anchor]; !ok {
			return nil, apperrors.CatalogError(apperrors.CodeCatalogCorrupted, f.ID, fmt.Errorf("unknown anchor %q", f.Anchor))
		}
	}

	for _, id := range defaultDisplay {
		if _, ok := c.byID[id]; !ok {
			return nil, apperrors.CatalogError(apperrors.CodeCatalogCorrupted, id, fmt.Errorf("unknown default display field"))
		}
		c.display = append(c.display, id)
	}

	return c, nil
}

func validateField(f Field) error {
	for _, s := range f.Synonyms {
		if textnorm.Normalize(s) == "" {
			return fmt.Errorf("empty synonym")
		}
	}
	for _, s := range f.DisplayAliases {
		if textnorm.Normalize(s) == "" {
			return fmt.Errorf("empty display alias")
		}
	}
	for _, set := range f.TokenSets {
		if len(set) == 0 {
			return fmt.Errorf("empty token set")
		}
		for _, tok := range set {
			if textnorm.Normalize(tok) == "" {
				return fmt.Errorf("empty token")
			}
		}
	}
	if f.Rescue != nil {
		if f.Kind != KindExtra {
			return fmt.Errorf("rescue rule on non-extra field")
		}
		if len(f.Rescue.All) == 0 && len(f.Rescue.Any) == 0 {
			return fmt.Errorf("rescue rule without tokens")
		}
	}
	if f.Anchor != "" && f.Kind != KindExtra {
		return fmt.Errorf("anchor on non-extra field")
	}
	return nil
}

// Fields returns the fields in catalog order. The slice must not be modified.
func (c *Catalog) Fields() []Field {
	return c.fields
}

// Field looks a field up by ID.
func (c *Catalog) Field(id string) (Field, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Field{}, false
	}
	return c.fields[i], true
}

// MustField is Field for IDs known to exist in a validated catalog.
func (c *Catalog) MustField(id string) Field {
	f, ok := c.Field(id)
	if !ok {
		panic("catalog: unknown field " + id)
	}
	return f
}

// ByName finds the field whose canonical name is equivalent to name.
func (c *Catalog) ByName(name string) (Field, bool) {
	i, ok := c.byName[textnorm.Normalize(name)]
	if !ok {
		return Field{}, false
	}
	return c.fields[i], true
}

// OfKind returns the fields of kind k in catalog order.
func (c *Catalog) OfKind(k Kind) []Field {
	var out []Field
	for _, f := range c.fields {
		if f.Kind == k {
			out = append(out, f)
		}
	}
	return out
}

// AnchoredAfter returns the extras displayed after anchor, in catalog order.
func (c *Catalog) AnchoredAfter(anchor string) []Field {
	var out []Field
	for _, f := range c.fields {
		if f.Anchor == anchor {
			out = append(out, f)
		}
	}
	return out
}

// DefaultDisplay returns the canonical names shown by default.
func (c *Catalog) DefaultDisplay() []string {
	out := make([]string, 0, len(c.display))
	for _, id := range c.display {
		out = append(out, c.fields[c.byID[id]].Name)
	}
	return out
}

// SummedFields returns the fields aggregated into the summary.
func (c *Catalog) SummedFields() []Field {
	var out []Field
	for _, f := range c.fields {
		if f.Summed {
			out = append(out, f)
		}
	}
	return out
}
