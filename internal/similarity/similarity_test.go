package similarity

import (
	"math"
	"testing"
)

// ─── Similarity ─────────────────────────────────────────────────────────────

func TestSimilarity_Identity(t *testing.T) {
	texts := []string{
		"JWT auth middleware",
		"核心目标：50岁退休 为50岁退休做好身体与精神的双重准备",
		"a",
		"mixed 中文 text, with punctuation!",
	}
	for _, text := range texts {
		if got := Similarity(text, text); got != 1.0 {
			t.Errorf("Similarity(%q, itself) = %v, want 1.0", text, got)
		}
	}
}

func TestSimilarity_Empty(t *testing.T) {
	cases := [][2]string{
		{"hello world", ""},
		{"", "hello world"},
		{"", ""},
		{"!!! ???", "hello"},
	}
	for _, c := range cases {
		if got := Similarity(c[0], c[1]); got != 0 {
			t.Errorf("Similarity(%q, %q) = %v, want 0", c[0], c[1], got)
		}
	}
}

func TestSimilarity_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"learn go concurrency patterns", "go concurrency patterns are useful"},
		{"每天早上跑步 running every morning", "running in the evening"},
		{"decision use sqlite for storage", "decision use postgres for storage"},
	}
	for _, p := range pairs {
		ab := Similarity(p[0], p[1])
		ba := Similarity(p[1], p[0])
		if ab != ba {
			t.Errorf("Similarity not symmetric for %q/%q: %v vs %v", p[0], p[1], ab, ba)
		}
		if ab < 0 || ab > 1 {
			t.Errorf("Similarity(%q, %q) = %v out of range", p[0], p[1], ab)
		}
	}
}

func TestSimilarity_DisjointIsZero(t *testing.T) {
	if got := Similarity("alpha beta", "gamma delta"); got != 0 {
		t.Errorf("disjoint vocabularies = %v, want 0", got)
	}
}

func TestSimilarity_SharedTermsRankHigher(t *testing.T) {
	close := Similarity("use sqlite for local storage", "use sqlite for storage")
	far := Similarity("use sqlite for local storage", "went hiking on sunday")
	if close <= far {
		t.Errorf("expected overlapping texts to score higher: close=%v far=%v", close, far)
	}
}

func TestSimilarity_MatchesReferenceWeights(t *testing.T) {
	// Two docs sharing one of two terms each: shared idf=1, unique idf=1+ln(1.5).
	got := Similarity("apple banana", "apple cherry")
	u := 1 + math.Log(1.5)
	want := 1 / (1 + u*u)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Similarity = %v, want %v", got, want)
	}
}

func TestSimilarity_FallsBackToJaccardOnEmptyVocabulary(t *testing.T) {
	// Single-rune tokens never reach the TF-IDF vocabulary.
	if got := Similarity("a b c", "a b d"); got != 0.5 {
		t.Errorf("Similarity = %v, want 0.5", got)
	}
}

// ─── Jaccard ────────────────────────────────────────────────────────────────

func TestJaccardScore_Example(t *testing.T) {
	if got := JaccardScore("a b c", "a b d"); got != 0.5 {
		t.Errorf("JaccardScore = %v, want 0.5", got)
	}
}

func TestJaccardScore_Bounds(t *testing.T) {
	if got := JaccardScore("x y", "x y"); got != 1 {
		t.Errorf("identical = %v, want 1", got)
	}
	if got := JaccardScore("x y", ""); got != 0 {
		t.Errorf("empty = %v, want 0", got)
	}
}

func TestScorer_SelectsAlgorithm(t *testing.T) {
	j := NewScorer(Jaccard)
	if got := j.Score("alpha beta gamma", "alpha beta delta"); got != 0.5 {
		t.Errorf("jaccard scorer = %v, want 0.5", got)
	}
	var zero Scorer
	if got, want := zero.Score("alpha beta", "alpha gamma"), Similarity("alpha beta", "alpha gamma"); got != want {
		t.Errorf("zero scorer = %v, want tfidf %v", got, want)
	}
}

func TestParseAlgorithm(t *testing.T) {
	tests := []struct {
		in   string
		want Algorithm
	}{
		{"jaccard", Jaccard},
		{" JACCARD ", Jaccard},
		{"tfidf", TFIDF},
		{"", TFIDF},
		{"bogus", TFIDF},
	}
	for _, tt := range tests {
		if got := ParseAlgorithm(tt.in); got != tt.want {
			t.Errorf("ParseAlgorithm(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// ─── Normalize / CJK ────────────────────────────────────────────────────────

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Hello,   world!", "Hello world"},
		{"核心目标：50岁退休", "核心目标 50岁退休"},
		{"snake_case stays", "snake_case stays"},
		{"  \t\n ", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestContainsCJK(t *testing.T) {
	if !ContainsCJK("退休") {
		t.Error("expected CJK detection for 退休")
	}
	if !ContainsCJK("plan 退休 early") {
		t.Error("expected CJK detection for mixed text")
	}
	if ContainsCJK("quantum computing") {
		t.Error("unexpected CJK detection for latin text")
	}
}

// ─── FindSimilarPairs ───────────────────────────────────────────────────────

func items(texts ...string) []Item[string] {
	out := make([]Item[string], len(texts))
	for i, text := range texts {
		id := string(rune('A' + i))
		out[i] = Item[string]{ID: id, Text: text, Value: id}
	}
	return out
}

func TestFindSimilarPairs_NoMirroredPairs(t *testing.T) {
	in := items(
		"morning routine meditation reading",
		"morning routine meditation reading",
		"morning routine meditation reading",
	)
	pairs := FindSimilarPairs(Scorer{}, in, 0.5)
	if len(pairs) != 3 {
		t.Fatalf("expected C(3,2)=3 pairs, got %d", len(pairs))
	}

	seen := map[[2]string]bool{}
	for _, p := range pairs {
		if seen[[2]string{p.Second, p.First}] {
			t.Errorf("mirrored pair returned: (%s,%s)", p.First, p.Second)
		}
		seen[[2]string{p.First, p.Second}] = true
		if p.First >= p.Second {
			t.Errorf("pair not in input order: (%s,%s)", p.First, p.Second)
		}
	}
}

func TestFindSimilarPairs_SortedDescending(t *testing.T) {
	in := items(
		"use sqlite for storage",
		"use sqlite for local storage",
		"use sqlite",
		"completely unrelated words here",
	)
	pairs := FindSimilarPairs(Scorer{}, in, 0.1)
	for i := 1; i < len(pairs); i++ {
		if pairs[i].Score > pairs[i-1].Score {
			t.Fatalf("pairs not sorted: %v then %v", pairs[i-1].Score, pairs[i].Score)
		}
	}
}

func TestFindSimilarPairs_ThresholdMonotonic(t *testing.T) {
	in := items(
		"use sqlite for storage",
		"use sqlite for local storage",
		"use sqlite",
		"sqlite storage engine notes",
		"completely unrelated words here",
	)
	low := FindSimilarPairs(Scorer{}, in, 0.7)
	high := FindSimilarPairs(Scorer{}, in, 0.9)
	if len(high) > len(low) {
		t.Errorf("raising threshold increased pairs: 0.7→%d, 0.9→%d", len(low), len(high))
	}
}

func TestFindSimilarPairs_TooFewItems(t *testing.T) {
	if got := FindSimilarPairs(Scorer{}, items("only one"), 0); len(got) != 0 {
		t.Errorf("expected no pairs, got %d", len(got))
	}
}
