package extractor

import (
	"strings"

	"github.com/kaikelopes301-code/portal-performance/internal/catalog"
	"github.com/kaikelopes301-code/portal-performance/internal/table"
	"github.com/kaikelopes301-code/portal-performance/internal/textnorm"
	"github.com/kaikelopes301-code/portal-performance/internal/values"
)

// render turns a raw row into display text for cols. fields maps a column to
// the catalog field stored in it; other columns are passed through as text.
func (e *Engine) render(r table.Row, cols []string, fields map[string]catalog.Field, month string) map[string]string {
	out := make(map[string]string, len(cols))
	for _, col := range cols {
		f, ok := fields[col]
		if !ok {
			out[col] = text(r[col])
			continue
		}
		out[col] = e.formatCell(f, r[col], month)
	}
	return out
}

func (e *Engine) formatCell(f catalog.Field, v any, month string) string {
	if f.Kind == catalog.KindExtra && !e.config.FormatExtras {
		return text(v)
	}

	switch f.Format {
	case catalog.FormatMoney:
		return values.FormatBRLOrPlaceholder(v, f.Placeholder)
	case catalog.FormatPercent:
		return values.FormatPercent(v, f.Placeholder)
	case catalog.FormatMonth:
		return values.FormatMonth(v, month)
	case catalog.FormatDuration:
		if values.IsMissingLike(v) {
			return f.Placeholder
		}
		return values.FormatDuration(v)
	case catalog.FormatPending:
		if values.IsMissingLike(v) {
			return f.Placeholder
		}
		return text(v)
	default:
		return text(v)
	}
}

func text(v any) string {
	return strings.TrimSpace(textnorm.Stringify(v))
}
