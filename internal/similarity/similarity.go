// Package similarity scores how lexically close two pieces of text are.
//
// The primary scorer is TF-IDF cosine over a two-document corpus, weighted
// the same way as scikit-learn's default TfidfVectorizer (lowercased tokens
// of two or more word characters, smoothed idf, L2 normalization). When the
// two texts share no usable vocabulary it degrades to Jaccard overlap of the
// whitespace token sets. Jaccard can also be selected as the only algorithm.
package similarity

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// Algorithm selects the scoring function used by a Scorer.
type Algorithm string

const (
	// TFIDF is TF-IDF cosine with Jaccard fallback (default).
	TFIDF Algorithm = "tfidf"
	// Jaccard is token-set overlap only.
	Jaccard Algorithm = "jaccard"
)

// ParseAlgorithm normalizes an algorithm name, defaulting to TFIDF.
func ParseAlgorithm(s string) Algorithm {
	if Algorithm(strings.ToLower(strings.TrimSpace(s))) == Jaccard {
		return Jaccard
	}
	return TFIDF
}

// Scorer computes pairwise similarity with a fixed algorithm.
// The zero value uses TFIDF.
type Scorer struct {
	Algorithm Algorithm
}

// NewScorer returns a Scorer for the given algorithm.
func NewScorer(alg Algorithm) Scorer {
	return Scorer{Algorithm: alg}
}

// Score returns a similarity in [0,1]. It is symmetric, returns 1 for
// identical (normalized) texts and 0 when either side is empty.
func (s Scorer) Score(a, b string) float64 {
	if s.Algorithm == Jaccard {
		return JaccardScore(a, b)
	}
	return Similarity(a, b)
}

// Similarity is the default TF-IDF scorer.
func Similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}

	ta, tb := wordTokens(na), wordTokens(nb)
	if len(ta) == 0 && len(tb) == 0 {
		// Empty vocabulary: nothing for TF-IDF to weigh.
		return jaccardNormalized(na, nb)
	}
	return clamp(tfidfCosine(ta, tb))
}

// JaccardScore returns |A∩B| / |A∪B| over normalized whitespace tokens.
func JaccardScore(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return 0
	}
	return jaccardNormalized(na, nb)
}

func jaccardNormalized(na, nb string) float64 {
	setA := toSet(strings.Fields(na))
	setB := toSet(strings.Fields(nb))
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	inter := 0
	for w := range setA {
		if _, ok := setB[w]; ok {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// Normalize replaces punctuation and symbols with spaces, keeping letters,
// digits, underscores and CJK ideographs, then collapses whitespace.
func Normalize(s string) string {
	mapped := strings.Map(func(r rune) rune {
		if isWordRune(r) || unicode.IsSpace(r) || isCJK(r) {
			return r
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(mapped), " ")
}

// ContainsCJK reports whether s holds any CJK unified ideograph
// (U+4E00..U+9FFF).
func ContainsCJK(s string) bool {
	for _, r := range s {
		if isCJK(r) {
			return true
		}
	}
	return false
}

func isCJK(r rune) bool {
	return r >= 0x4e00 && r <= 0x9fff
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

// wordTokens splits lowercased text into runs of word characters, keeping
// runs of at least two runes.
func wordTokens(s string) []string {
	var tokens []string
	var cur []rune
	flush := func() {
		if len(cur) >= 2 {
			tokens = append(tokens, string(cur))
		}
		cur = cur[:0]
	}
	for _, r := range strings.ToLower(s) {
		if isWordRune(r) {
			cur = append(cur, r)
			continue
		}
		flush()
	}
	flush()
	return tokens
}

func tfidfCosine(ta, tb []string) float64 {
	tfA, tfB := termCounts(ta), termCounts(tb)

	vocab := make([]string, 0, len(tfA)+len(tfB))
	seen := make(map[string]struct{}, len(tfA)+len(tfB))
	for _, m := range []map[string]float64{tfA, tfB} {
		for term := range m {
			if _, ok := seen[term]; !ok {
				seen[term] = struct{}{}
				vocab = append(vocab, term)
			}
		}
	}
	sort.Strings(vocab)

	const docs = 2.0
	va := make([]float64, len(vocab))
	vb := make([]float64, len(vocab))
	for i, term := range vocab {
		df := 0.0
		if tfA[term] > 0 {
			df++
		}
		if tfB[term] > 0 {
			df++
		}
		idf := math.Log((1+docs)/(1+df)) + 1
		va[i] = tfA[term] * idf
		vb[i] = tfB[term] * idf
	}
	return cosine(va, vb)
}

func termCounts(tokens []string) map[string]float64 {
	m := make(map[string]float64, len(tokens))
	for _, t := range tokens {
		m[t]++
	}
	return m
}

func cosine(a, b []float64) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
