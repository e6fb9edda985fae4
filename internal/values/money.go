// Package values parses and formats the locale-specific cell values found in
// billing spreadsheets: BRL amounts, percentages, hour durations, months and
// recipient lists. Parsers never fail loudly; a value that cannot be read is
// reported with ok == false and the caller decides the substitute.
package values

import (
	"math"
	"strings"

	"github.com/kaikelopes301-code/portal-performance/internal/textnorm"
	"github.com/shopspring/decimal"
)

// ParseMoney reads a BRL amount such as "R$ 1.234,56", "(123,45)" or "--5".
// The US form "1,234.56" is read when a single "." follows every "," with
// one or two digits after it. Numbers are taken as-is.
func ParseMoney(v any) (decimal.Decimal, bool) {
	switch x := v.(type) {
	case nil:
		return decimal.Zero, false
	case decimal.Decimal:
		return x, true
	case *decimal.Decimal:
		if x == nil {
			return decimal.Zero, false
		}
		return *x, true
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(x), true
	case float32:
		return ParseMoney(float64(x))
	case int:
		return decimal.NewFromInt(int64(x)), true
	case int64:
		return decimal.NewFromInt(x), true
	case string:
		return parseMoneyText(x)
	default:
		return parseMoneyText(textnorm.Stringify(x))
	}
}

func parseMoneyText(s string) (decimal.Decimal, bool) {
	raw := strings.Join(strings.Fields(s), " ")
	if raw == "" {
		return decimal.Zero, false
	}

	negative := false
	if strings.HasPrefix(raw, "(") && strings.HasSuffix(raw, ")") {
		negative = true
		raw = strings.TrimSpace(raw[1 : len(raw)-1])
	}

	raw = strings.ReplaceAll(raw, "R$", "")
	raw = strings.ReplaceAll(raw, "r$", "")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, false
	}

	if strings.Count(raw, "-")%2 == 1 {
		negative = !negative
	}

	raw = keepOnly(raw, "0123456789.,")
	raw = disambiguateSeparators(raw)
	raw = keepOnly(raw, "0123456789.")
	raw = keepLastDot(raw)

	if raw == "" || raw == "." {
		return decimal.Zero, false
	}
	if strings.HasPrefix(raw, ".") {
		raw = "0" + raw
	}
	raw = strings.TrimSuffix(raw, ".")

	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false
	}
	if negative {
		d = d.Neg()
	}
	return d, true
}

// disambiguateSeparators turns the text into a dot-decimal number: with both
// separators present "." groups thousands unless usGrouped; otherwise the
// last "," or "." is the decimal point.
func disambiguateSeparators(raw string) string {
	if usGrouped(raw) {
		return strings.ReplaceAll(raw, ",", "")
	}
	if strings.Contains(raw, ",") && strings.Contains(raw, ".") {
		raw = strings.ReplaceAll(raw, ".", "")
		return strings.ReplaceAll(raw, ",", ".")
	}
	switch strings.Count(raw, ",") {
	case 0:
	case 1:
		raw = strings.Replace(raw, ",", ".", 1)
	default:
		i := strings.LastIndex(raw, ",")
		raw = strings.ReplaceAll(raw[:i], ",", "") + "." + raw[i+1:]
	}
	return keepLastDot(raw)
}

// usGrouped reports a "1,234.56" shape: commas present, one dot after the
// last comma and one or two digits after the dot.
func usGrouped(raw string) bool {
	dot := strings.LastIndex(raw, ".")
	if dot < 0 || strings.Count(raw, ".") != 1 || dot < strings.LastIndex(raw, ",") || !strings.Contains(raw, ",") {
		return false
	}
	frac := len(raw) - dot - 1
	return frac == 1 || frac == 2
}

func keepLastDot(raw string) string {
	if strings.Count(raw, ".") <= 1 {
		return raw
	}
	i := strings.LastIndex(raw, ".")
	return strings.ReplaceAll(raw[:i], ".", "") + "." + raw[i+1:]
}

func keepOnly(s, allowed string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if strings.ContainsRune(allowed, r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatBRL renders d as "R$ 1.234,56", rounding half away from zero.
// Negative amounts render as "R$ -1.234,56".
func FormatBRL(d decimal.Decimal) string {
	return "R$ " + formatGrouped(d, 2)
}

// FormatBRLOrPlaceholder formats a raw cell as BRL. Missing-like cells, and
// cells that cannot be parsed, yield placeholder; an empty placeholder keeps
// the original text for unparsable cells.
func FormatBRLOrPlaceholder(v any, placeholder string) string {
	if IsMissingLike(v) {
		return placeholder
	}
	d, ok := ParseMoney(v)
	if !ok {
		if placeholder != "" {
			return placeholder
		}
		return strings.TrimSpace(textnorm.Stringify(v))
	}
	return FormatBRL(d)
}

// FormatPercent renders a fraction or a percentage as "1,23%". Magnitudes
// up to 1 are taken as fractions and multiplied by 100.
func FormatPercent(v any, placeholder string) string {
	if IsMissingLike(v) {
		return placeholder
	}
	d, ok := ParseMoney(v)
	if !ok {
		if placeholder != "" {
			return placeholder
		}
		return strings.TrimSpace(textnorm.Stringify(v))
	}
	if d.Abs().LessThanOrEqual(decimal.NewFromInt(1)) {
		d = d.Mul(decimal.NewFromInt(100))
	}
	return formatGrouped(d, 2) + "%"
}

// formatGrouped renders d with "." thousands and "," decimals.
func formatGrouped(d decimal.Decimal, places int32) string {
	d = d.Round(places)
	negative := d.IsNegative()
	fixed := d.Abs().StringFixed(places)

	intPart, fracPart := fixed, ""
	if i := strings.IndexByte(fixed, '.'); i >= 0 {
		intPart, fracPart = fixed[:i], fixed[i+1:]
	}

	var b strings.Builder
	if negative {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if fracPart != "" {
		b.WriteByte(',')
		b.WriteString(fracPart)
	}
	return b.String()
}
