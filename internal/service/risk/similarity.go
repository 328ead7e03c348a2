package risk

import "strings"

// TagSimilarity is the default strategy-tag matcher: a deterministic string
// heuristic, deliberately simple. Identical tags score 1, a tag that extends
// the other ("grid" vs "grid-v2") scores 0.9, otherwise token overlap decides.
type TagSimilarity struct{}

func (TagSimilarity) Similarity(a, b string) float64 {
	a = normalizeTag(a)
	b = normalizeTag(b)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	if strings.HasPrefix(a, b) || strings.HasPrefix(b, a) {
		return 0.9
	}
	return tokenOverlap(a, b)
}

func normalizeTag(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// tokenOverlap is Jaccard similarity over "-"/"_"-separated tag tokens.
func tokenOverlap(a, b string) float64 {
	ta := tokens(a)
	tb := tokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	inter := 0
	for tok := range ta {
		if _, ok := tb[tok]; ok {
			inter++
		}
	}
	union := len(ta) + len(tb) - inter
	return float64(inter) / float64(union)
}

func tokens(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, tok := range strings.FieldsFunc(s, func(r rune) bool {
		return r == '-' || r == '_' || r == ' ' || r == '.'
	}) {
		out[tok] = struct{}{}
	}
	return out
}
