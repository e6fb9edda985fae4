package values

import (
	"math"

	"github.com/kaikelopes301-code/portal-performance/internal/textnorm"
)

// PendingLabels are the sentinel texts meaning "value not provided yet".
var PendingLabels = []string{
	"Informação pendente",
	"Preenchimento pendente",
	"Pendente",
	"Não informado",
}

var pendingKeys = func() map[string]struct{} {
	m := make(map[string]struct{}, len(PendingLabels))
	for _, l := range PendingLabels {
		m[textnorm.Normalize(l)] = struct{}{}
	}
	return m
}()

var nullKeys = map[string]struct{}{
	"nan": {}, "none": {}, "inf": {}, "+inf": {}, "-inf": {},
	"infinity": {}, "+infinity": {}, "-infinity": {},
}

// IsPendingLabel reports whether v is one of the pending sentinel labels.
func IsPendingLabel(v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	_, pending := pendingKeys[textnorm.Normalize(s)]
	return pending
}

// IsMissingLike reports whether v should be treated as absent: nil, NaN or
// infinite floats, blank text, textual nulls and pending labels. Numeric zero
// is never missing-like.
func IsMissingLike(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(x) || math.IsInf(x, 0)
	case float32:
		return math.IsNaN(float64(x)) || math.IsInf(float64(x), 0)
	case string:
		key := textnorm.Normalize(x)
		if key == "" {
			return true
		}
		if _, ok := nullKeys[key]; ok {
			return true
		}
		_, pending := pendingKeys[key]
		return pending
	default:
		return false
	}
}

// IsBlank is the narrower emptiness test used by column rescue: empty text or
// a textual "nan"/"none". Pending labels are not blank.
func IsBlank(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(x)
	case string:
		key := textnorm.Normalize(x)
		return key == "" || key == "nan" || key == "none"
	default:
		return false
	}
}
