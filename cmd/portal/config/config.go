// Package config loads per-unit overrides for the portal CLI and resolves the
// effective visible columns and reference month of a run.
//
// An overrides file (JSON or YAML) has three scopes:
//
//	{
//	  "defaults": {"visible_columns": [...], "month_reference": "auto"},
//	  "regions":  {"RJ": {...}},
//	  "units":    {"Shopping Leste": {"month_reference": "offset:-2M"}}
//	}
//
// The most specific scope wins: unit, then region, then defaults.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/kaikelopes301-code/portal-performance/internal/textnorm"
	"github.com/kaikelopes301-code/portal-performance/internal/values"
	"github.com/kaikelopes301-code/portal-performance/pkg/errors"

	"github.com/spf13/viper"
)

// MonthAuto selects the month before the current one.
const MonthAuto = "auto"

// Month sources reported by Resolve.
const (
	SourceForce   = "force"
	SourceUnit    = "unit"
	SourceRegion  = "region"
	SourceDefault = "default"
	SourceCLI     = "cli"
)

var offsetPattern = regexp.MustCompile(`^offset:([+-])(\d+)m$`)

// Scope is one level of overrides.
type Scope struct {
	VisibleColumns []string `json:"visible_columns,omitempty" mapstructure:"visible_columns"`
	MonthReference string   `json:"month_reference,omitempty" mapstructure:"month_reference"`
}

// Overrides holds every scope of an overrides file. Region keys are upper
// case and unit keys are normalized unit names.
type Overrides struct {
	Defaults Scope            `json:"defaults" mapstructure:"defaults"`
	Regions  map[string]Scope `json:"regions" mapstructure:"regions"`
	Units    map[string]Scope `json:"units" mapstructure:"units"`

	// Source is the file the overrides were read from, empty when none.
	Source string `json:"-" mapstructure:"-"`
}

// Resolved is the effective configuration for one unit.
type Resolved struct {
	VisibleColumns []string `json:"visible_columns"`
	Month          string   `json:"month"`
	MonthSource    string   `json:"month_source"`
}

// Empty returns overrides with no scope set.
func Empty() *Overrides {
	return &Overrides{
		Regions: make(map[string]Scope),
		Units:   make(map[string]Scope),
	}
}

// LoadOverrides reads an overrides file. An empty path yields Empty().
func LoadOverrides(path string) (*Overrides, error) {
	if strings.TrimSpace(path) == "" {
		return Empty(), nil
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.FileError(errors.CodeFileNotFound, path, err)
		}
		return nil, errors.FileError(errors.CodeFilePermission, path, err)
	}

	// Unit names may contain dots.
	v := viper.NewWithOptions(viper.KeyDelimiter("::"))
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "overrides", path, err).
			WithSuggestion("save the overrides as UTF-8 JSON or YAML without trailing commas or comments")
	}

	var raw Overrides
	if err := v.Unmarshal(&raw); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "overrides", path, err)
	}

	out, err := normalize(&raw)
	if err != nil {
		return nil, err
	}
	out.Source = path
	return out, nil
}

func normalize(raw *Overrides) (*Overrides, error) {
	out := Empty()

	defaults, err := normalizeScope(raw.Defaults, "defaults")
	if err != nil {
		return nil, err
	}
	out.Defaults = defaults

	for key, scope := range raw.Regions {
		region := strings.ToUpper(strings.TrimSpace(key))
		if region == "" {
			return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "regions", key, nil).
				WithSuggestion("region keys must be non-empty")
		}
		s, err := normalizeScope(scope, fmt.Sprintf("regions[%s]", key))
		if err != nil {
			return nil, err
		}
		out.Regions[region] = s
	}

	labels := make(map[string]string, len(raw.Units))
	for key, scope := range raw.Units {
		unit := textnorm.Normalize(key)
		if unit == "" {
			return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "units", key, nil).
				WithSuggestion("unit keys must be non-empty")
		}
		if other, dup := labels[unit]; dup {
			return nil, errors.ConfigurationError(errors.CodeConfigConflict, "units", key, nil).
				WithSuggestion(fmt.Sprintf("%q and %q name the same unit; keep only one", key, other))
		}
		labels[unit] = key
		s, err := normalizeScope(scope, fmt.Sprintf("units[%s]", key))
		if err != nil {
			return nil, err
		}
		out.Units[unit] = s
	}

	return out, nil
}

func normalizeScope(s Scope, name string) (Scope, error) {
	var out Scope
	for _, c := range s.VisibleColumns {
		if c = strings.TrimSpace(c); c != "" {
			out.VisibleColumns = append(out.VisibleColumns, c)
		}
	}

	ref := strings.ToLower(strings.TrimSpace(s.MonthReference))
	switch {
	case ref == "", ref == MonthAuto:
		out.MonthReference = ref
	case offsetPattern.MatchString(ref):
		out.MonthReference = ref
	default:
		ym, ok := values.ParseYearMonth(ref)
		if !ok {
			return Scope{}, errors.ConfigurationError(errors.CodeInvalidConfig, name+".month_reference", s.MonthReference, nil).
				WithSuggestion("use 'auto', 'YYYY-MM' or 'offset:+nM' / 'offset:-nM'")
		}
		out.MonthReference = ym
	}
	return out, nil
}

// Resolve computes the effective columns and month for unit in region.
//
// Month precedence: forceMonth, then the most specific month_reference, then
// cliMonth, then the month before today. Columns come from the most specific
// scope that lists any.
func (o *Overrides) Resolve(region, unit, cliMonth, forceMonth string, today time.Time) (*Resolved, error) {
	if o == nil {
		o = Empty()
	}
	unitScope := o.Units[textnorm.Normalize(unit)]
	regionScope := o.Regions[strings.ToUpper(strings.TrimSpace(region))]

	res := &Resolved{VisibleColumns: []string{}}
	for _, s := range []Scope{unitScope, regionScope, o.Defaults} {
		if len(s.VisibleColumns) > 0 {
			res.VisibleColumns = append(res.VisibleColumns, s.VisibleColumns...)
			break
		}
	}

	if forceMonth != "" {
		ym, ok := values.ParseYearMonth(forceMonth)
		if !ok {
			return nil, errors.ValidationError(errors.CodeInvalidMonth, "force-month", forceMonth, nil)
		}
		res.Month, res.MonthSource = ym, SourceForce
		return res, nil
	}

	scopes := []struct {
		name  string
		scope Scope
	}{
		{SourceUnit, unitScope},
		{SourceRegion, regionScope},
		{SourceDefault, o.Defaults},
	}
	for _, s := range scopes {
		if s.scope.MonthReference == "" {
			continue
		}
		ym, err := ResolveMonth(s.scope.MonthReference, today)
		if err != nil {
			return nil, err
		}
		res.Month, res.MonthSource = ym, s.name
		return res, nil
	}

	if cliMonth != "" {
		ym, ok := values.ParseYearMonth(cliMonth)
		if !ok {
			return nil, errors.ValidationError(errors.CodeInvalidMonth, "month", cliMonth, nil)
		}
		res.Month, res.MonthSource = ym, SourceCLI
		return res, nil
	}

	res.Month, res.MonthSource = PreviousMonth(today), SourceDefault
	return res, nil
}

// ResolveMonth turns a month reference ("auto", "YYYY-MM" or "offset:±nM")
// into a "YYYY-MM" month relative to today.
func ResolveMonth(ref string, today time.Time) (string, error) {
	ref = strings.ToLower(strings.TrimSpace(ref))
	if ref == MonthAuto {
		return PreviousMonth(today), nil
	}
	if m := offsetPattern.FindStringSubmatch(ref); m != nil {
		n, err := strconv.Atoi(m[2])
		if err != nil {
			return "", errors.ValidationError(errors.CodeInvalidMonth, "month_reference", ref, err)
		}
		if m[1] == "-" {
			n = -n
		}
		return ShiftMonth(today, n), nil
	}
	if ym, ok := values.ParseYearMonth(ref); ok {
		return ym, nil
	}
	return "", errors.ValidationError(errors.CodeInvalidMonth, "month_reference", ref, nil).
		WithSuggestion("use 'auto', 'YYYY-MM' or 'offset:+nM' / 'offset:-nM'")
}

// PreviousMonth returns the month before today as "YYYY-MM".
func PreviousMonth(today time.Time) string {
	return ShiftMonth(today, -1)
}

// ShiftMonth moves today's month by delta months.
func ShiftMonth(today time.Time, delta int) string {
	total := today.Year()*12 + int(today.Month()) - 1 + delta
	year, month := total/12, total%12
	if month < 0 {
		year, month = year-1, month+12
	}
	return fmt.Sprintf("%04d-%02d", year, month+1)
}
