// Package textnorm turns free-form spreadsheet text into comparison keys.
//
// Two texts are equivalent when their Normalize keys are equal:
//   - case folded and trimmed
//   - line breaks, tabs and non-breaking spaces become single spaces
//   - en/em dashes become "-"
//   - diacritics are removed through canonical decomposition
package textnorm

import (
	"strings"
	"unicode"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultCacheSize bounds the memoization caches used by the engine.
const DefaultCacheSize = 4096

var dashReplacer = strings.NewReplacer(
	"‐", "-",
	"‑", "-",
	"‒", "-",
	"–", "-",
	"—", "-",
	"―", "-",
	"−", "-",
)

// Normalize returns the comparison key of s. It never fails and
// Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToLower(s)
	s = dashReplacer.Replace(s)
	s = stripMarks(s)
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeValue normalizes any cell value; nil yields "".
func NormalizeValue(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return Normalize(s)
	}
	return Normalize(Stringify(v))
}

// KeyEquivalent is a stricter key keeping only ASCII letters and digits.
// It is meant for header deduplication, e.g. "Mês de\nEmissão" vs "Mes de Emissao".
func KeyEquivalent(s string) string {
	n := Normalize(s)
	var b strings.Builder
	b.Grow(len(n))
	for _, r := range n {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Cache is the memoization contract shared by the normalizer and the month
// parser. *lru.Cache[string, string] satisfies it.
type Cache interface {
	Get(key string) (string, bool)
	Add(key, value string) bool
}

// NewLRUCache returns a bounded cache; size <= 0 falls back to DefaultCacheSize.
func NewLRUCache(size int) (*lru.Cache[string, string], error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	return lru.New[string, string](size)
}

// Normalizer memoizes Normalize. A nil cache disables memoization.
type Normalizer struct {
	cache Cache
}

// NewNormalizer creates a normalizer backed by cache.
func NewNormalizer(cache Cache) *Normalizer {
	return &Normalizer{cache: cache}
}

// Normalize is the cached form of the package-level Normalize.
func (n *Normalizer) Normalize(s string) string {
	if n == nil || n.cache == nil {
		return Normalize(s)
	}
	if key, ok := n.cache.Get(s); ok {
		return key
	}
	key := Normalize(s)
	n.cache.Add(s, key)
	return key
}

// Equal reports whether a and b share a normalized key.
func (n *Normalizer) Equal(a, b string) bool {
	return n.Normalize(a) == n.Normalize(b)
}
