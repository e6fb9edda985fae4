package values

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/kaikelopes301-code/portal-performance/internal/textnorm"
	"github.com/shopspring/decimal"
)

var (
	reClock = regexp.MustCompile(`^\s*([+-]?\d+):\s*(\d{1,2})\s*$`)
	reHours = regexp.MustCompile(`(?i)^\s*([+-]?\d+)\s*h\s*(\d{1,2})?\s*m?\s*$`)
)

var sixty = decimal.NewFromInt(60)

// ParseDuration converts "H:MM", "4h30m", "4h" or decimal hours ("1,5",
// "1.5") into hours rounded to one decimal place. Minutes of 60 or more carry
// into hours.
func ParseDuration(v any) (decimal.Decimal, bool) {
	s := strings.TrimSpace(textnorm.Stringify(v))
	if s == "" {
		return decimal.Zero, false
	}

	if m := reClock.FindStringSubmatch(s); m != nil {
		return clockHours(m[1], m[2])
	}
	if m := reHours.FindStringSubmatch(s); m != nil {
		return clockHours(m[1], m[2])
	}

	raw := strings.ReplaceAll(s, " ", "")
	if strings.Contains(raw, ",") && strings.Contains(raw, ".") {
		raw = strings.ReplaceAll(raw, ".", "")
	}
	raw = strings.ReplaceAll(raw, ",", ".")

	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false
	}
	return d.Round(1), true
}

func clockHours(hours, minutes string) (decimal.Decimal, bool) {
	negative := strings.HasPrefix(hours, "-")
	h, err := strconv.Atoi(strings.TrimLeft(hours, "+-"))
	if err != nil {
		return decimal.Zero, false
	}
	mi := 0
	if minutes != "" {
		if mi, err = strconv.Atoi(minutes); err != nil {
			return decimal.Zero, false
		}
	}
	h += mi / 60
	mi %= 60

	total := decimal.NewFromInt(int64(h*60 + mi))
	out := total.Div(sixty).Round(1)
	if negative {
		out = out.Neg()
	}
	return out, true
}

// FormatDuration renders a duration cell as decimal hours with a comma
// ("4:30" -> "4,5"). Unparsable input is returned unchanged.
func FormatDuration(v any) string {
	d, ok := ParseDuration(v)
	if !ok {
		return strings.TrimSpace(textnorm.Stringify(v))
	}
	return strings.Replace(d.StringFixed(1), ".", ",", 1)
}
