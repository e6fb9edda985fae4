package values

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/kaikelopes301-code/portal-performance/internal/textnorm"
)

// maxSerial is the spreadsheet serial for 9999-12-31.
const maxSerial = 2958465

var serialEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

var monthNames = []string{
	"janeiro", "fevereiro", "marco", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

var (
	reYearMonth    = regexp.MustCompile(`^(\d{4})[-/.](\d{1,2})$`)
	reMonthYear    = regexp.MustCompile(`^(\d{1,2})[-/.](\d{4})$`)
	reDayMonthYear = regexp.MustCompile(`^(\d{1,2})[-/.](\d{1,2})[-/.](\d{4})$`)
	reYearMonthDay = regexp.MustCompile(`^(\d{4})[-/.](\d{1,2})[-/.](\d{1,2})$`)
	reSerial       = regexp.MustCompile(`^\d+(\.\d+)?$`)
)

// ParseYearMonth reads a month reference and returns it as "YYYY-MM".
// Accepted: YYYY-MM, YYYY/MM, MM/YYYY, DD/MM/YYYY, YYYY-MM-DD (time suffix
// ignored), Portuguese month names or abbreviations with a 2 or 4 digit year
// ("Agosto/2025", "ago/25") and spreadsheet date serials (epoch 1899-12-30).
func ParseYearMonth(v any) (string, bool) {
	if v == nil {
		return "", false
	}
	s := textnorm.Normalize(textnorm.Stringify(v))
	if s == "" {
		return "", false
	}

	if ym, named := parseNamedMonth(s); named {
		return ym, ym != ""
	}

	s = strings.ReplaceAll(s, "t", " ")
	if i := strings.IndexByte(s, ' '); i >= 0 {
		s = s[:i]
	}

	if m := reYearMonth.FindStringSubmatch(s); m != nil {
		return yearMonth(m[1], m[2])
	}
	if m := reMonthYear.FindStringSubmatch(s); m != nil {
		return yearMonth(m[2], m[1])
	}
	if m := reDayMonthYear.FindStringSubmatch(s); m != nil {
		return yearMonth(m[3], m[2])
	}
	if m := reYearMonthDay.FindStringSubmatch(s); m != nil {
		return yearMonth(m[1], m[2])
	}
	if reSerial.MatchString(s) {
		return fromSerial(s)
	}
	return "", false
}

func yearMonth(year, month string) (string, bool) {
	y, err := strconv.Atoi(year)
	if err != nil {
		return "", false
	}
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return "", false
	}
	return fmt.Sprintf("%04d-%02d", y, m), true
}

func fromSerial(s string) (string, bool) {
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	days, err := strconv.Atoi(s)
	if err != nil || days < 1 || days > maxSerial {
		return "", false
	}
	d := serialEpoch.AddDate(0, 0, days)
	return fmt.Sprintf("%04d-%02d", d.Year(), int(d.Month())), true
}

// parseNamedMonth reads a month name with its year; named reports whether a
// month name was found at all. A 4-digit year in 1900-2099 wins over any
// other number; a 2-digit year is only taken when it is the sole number and
// follows the month name, so day numbers are never read as years.
func parseNamedMonth(s string) (ym string, named bool) {
	tokens := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	month := 0
	var numbers []string
	shortAfterMonth := ""
	for _, tok := range tokens {
		if month == 0 {
			if m := monthFromName(tok); m > 0 {
				month = m
				continue
			}
		}
		if isDigits(tok) {
			numbers = append(numbers, tok)
			if month > 0 && len(tok) == 2 {
				shortAfterMonth = tok
			}
		}
	}
	if month == 0 {
		return "", false
	}

	for _, tok := range numbers {
		if len(tok) != 4 {
			continue
		}
		if y, _ := strconv.Atoi(tok); y >= 1900 && y <= 2099 {
			return fmt.Sprintf("%04d-%02d", y, month), true
		}
	}
	if len(numbers) == 1 && shortAfterMonth != "" {
		y, _ := strconv.Atoi(shortAfterMonth)
		return fmt.Sprintf("%04d-%02d", 2000+y, month), true
	}
	return "", true
}

func monthFromName(tok string) int {
	if len(tok) < 3 {
		return 0
	}
	for i, name := range monthNames {
		if strings.HasPrefix(name, tok) {
			return i + 1
		}
	}
	return 0
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// FormatMonth renders a month cell as "YYYY/MM", using fallback ("YYYY-MM")
// when the cell cannot be parsed.
func FormatMonth(v any, fallback string) string {
	ym, ok := ParseYearMonth(v)
	if !ok {
		ym = fallback
	}
	return strings.ReplaceAll(ym, "-", "/")
}

// MonthParser memoizes ParseYearMonth for text cells.
type MonthParser struct {
	cache textnorm.Cache
}

// NewMonthParser creates a parser backed by cache; nil disables memoization.
func NewMonthParser(cache textnorm.Cache) *MonthParser {
	return &MonthParser{cache: cache}
}

// Parse is the cached form of ParseYearMonth.
func (p *MonthParser) Parse(v any) (string, bool) {
	if p == nil || p.cache == nil {
		return ParseYearMonth(v)
	}
	key := textnorm.Stringify(v)
	if ym, ok := p.cache.Get(key); ok {
		return ym, ym != ""
	}
	ym, ok := ParseYearMonth(v)
	p.cache.Add(key, ym)
	return ym, ok
}
