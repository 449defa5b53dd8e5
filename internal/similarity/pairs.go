package similarity

import "sort"

// Item is one candidate for pairwise comparison.
type Item[T any] struct {
	ID    string
	Text  string
	Value T
}

// Pair is an unordered pair of items whose score reached the threshold.
// First always precedes Second in the input order.
type Pair[T any] struct {
	First  T
	Second T
	Score  float64
}

// FindSimilarPairs compares every unordered pair (i<j) exactly once and
// returns those scoring at least threshold, highest score first.
func FindSimilarPairs[T any](s Scorer, items []Item[T], threshold float64) []Pair[T] {
	var pairs []Pair[T]
	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			score := s.Score(items[i].Text, items[j].Text)
			if score >= threshold {
				pairs = append(pairs, Pair[T]{
					First:  items[i].Value,
					Second: items[j].Value,
					Score:  score,
				})
			}
		}
	}

	sort.SliceStable(pairs, func(a, b int) bool {
		return pairs[a].Score > pairs[b].Score
	})
	return pairs
}
