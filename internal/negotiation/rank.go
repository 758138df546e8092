package negotiation

import "sort"

// Rank parses every token and orders the preferences by quality, highest
// first. Equal qualities keep header order. A single malformed token fails
// the whole list. When the same network and environment appear more than
// once, only the highest-quality occurrence is kept.
func Rank(tokens []string) ([]AcceptedMediaType, error) {
	parsed := make([]AcceptedMediaType, 0, len(tokens))
	for _, token := range tokens {
		mediaType, err := Parse(token)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, mediaType)
	}

	sort.SliceStable(parsed, func(i, j int) bool {
		return parsed[i].Quality > parsed[j].Quality
	})

	type key struct{ network, environment string }
	seen := make(map[key]struct{}, len(parsed))
	ranked := parsed[:0]
	for _, pref := range parsed {
		k := key{pref.PaymentNetwork, pref.Environment}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		ranked = append(ranked, pref)
	}
	return ranked, nil
}
