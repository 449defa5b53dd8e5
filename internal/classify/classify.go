// Package classify suggests whether a note is a personal insight or an
// external piece of knowledge, using fixed keyword lists and regex cues.
//
// Suggest is a pure function: the same title and content always produce
// the same Suggestion.
package classify

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

// Categories produced by the classifier.
const (
	Insight   = "insight"
	Knowledge = "knowledge"
)

// insightKeywords mark first-person, reflective writing.
var insightKeywords = []string{
	"我发现", "我意识到", "我觉得", "我认为", "我决定", "我要",
	"我的", "我", "自己", "个人", "感悟", "理解", "觉察",
	"原来", "悟到", "意识到", "发现", "决定", "承诺",
}

// knowledgeKeywords mark cited or reference material.
var knowledgeKeywords = []string{
	"文章", "资料", "回答", "来源", "链接", "书籍", "视频",
	"课程", "教程", "方法", "理论", "概念", "定义",
	"http://", "https://", "来源：", "出处：", "参考：",
}

// The bracketed groups are character classes, not alternations.
var firstPersonPatterns = []*regexp.Regexp{
	regexp.MustCompile(`我[发现|意识到|觉得|认为|决定|要|的]`),
	regexp.MustCompile(`自己[的|会|能]`),
	regexp.MustCompile(`个人[的|理解|感悟]`),
}

var sourcePatterns = []*regexp.Regexp{
	regexp.MustCompile(`http[s]?://`),
	regexp.MustCompile(`来源[：:]`),
	regexp.MustCompile(`出处[：:]`),
	regexp.MustCompile(`参考[：:]`),
	regexp.MustCompile(`《.*》`),
	regexp.MustCompile(`作者[：:]`),
}

const (
	firstPersonWeight = 0.5
	sourceWeight      = 1.0

	baseConfidence   = 0.5
	maxConfidence    = 0.95
	confidenceSpread = 0.45

	// Below this confidence the other category is offered as an alternative.
	alternativeBelow = 0.8

	noSignalReason = "内容特征不明显"
)

// Scores holds the weighted totals behind a suggestion.
type Scores struct {
	Insight   float64 `json:"insight_score"`
	Knowledge float64 `json:"knowledge_score"`
}

// Suggestion is the classifier output.
type Suggestion struct {
	Category    string  `json:"suggested_category"`
	Confidence  float64 `json:"confidence"`
	Reason      string  `json:"reason"`
	Alternative string  `json:"alternative,omitempty"`
	Scores      Scores  `json:"scores"`
}

// Suggest classifies a note as insight or knowledge. Ties go to knowledge.
func Suggest(title, content string) Suggestion {
	text := title + " " + content

	insightHits := countKeywords(text, insightKeywords)
	knowledgeHits := countKeywords(text, knowledgeKeywords)
	firstPerson := countMatches(text, firstPersonPatterns)
	sources := countMatches(text, sourcePatterns)

	insightTotal := float64(insightHits) + float64(firstPerson)*firstPersonWeight
	knowledgeTotal := float64(knowledgeHits) + float64(sources)*sourceWeight

	category := Knowledge
	diff := knowledgeTotal - insightTotal
	if insightTotal > knowledgeTotal {
		category = Insight
		diff = insightTotal - knowledgeTotal
	}

	confidence := baseConfidence
	if total := insightTotal + knowledgeTotal; total != 0 {
		confidence = math.Min(maxConfidence, baseConfidence+(diff/math.Max(total, 1))*confidenceSpread)
	}
	confidence = round2(confidence)

	s := Suggestion{
		Category:   category,
		Confidence: confidence,
		Reason:     reason(insightHits, firstPerson, knowledgeHits, sources),
		Scores: Scores{
			Insight:   insightTotal,
			Knowledge: knowledgeTotal,
		},
	}
	if confidence < alternativeBelow {
		s.Alternative = other(category)
	}
	return s
}

// countKeywords counts how many keywords appear at least once (case-insensitive).
func countKeywords(text string, keywords []string) int {
	lower := strings.ToLower(text)
	n := 0
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			n++
		}
	}
	return n
}

func countMatches(text string, patterns []*regexp.Regexp) int {
	n := 0
	for _, p := range patterns {
		n += len(p.FindAllStringIndex(text, -1))
	}
	return n
}

func reason(insightHits, firstPerson, knowledgeHits, sources int) string {
	var reasons []string
	if insightHits > 0 {
		reasons = append(reasons, fmt.Sprintf("检测到 %d 个个人表达关键词", insightHits))
	}
	if firstPerson > 0 {
		reasons = append(reasons, fmt.Sprintf("包含 %d 处第一人称表达", firstPerson))
	}
	if knowledgeHits > 0 {
		reasons = append(reasons, fmt.Sprintf("检测到 %d 个知识库特征关键词", knowledgeHits))
	}
	if sources > 0 {
		reasons = append(reasons, fmt.Sprintf("包含 %d 处来源信息", sources))
	}
	if len(reasons) == 0 {
		return noSignalReason
	}
	return strings.Join(reasons, "；")
}

func other(category string) string {
	if category == Insight {
		return Knowledge
	}
	return Insight
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
