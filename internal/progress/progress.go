// Package progress computes the 0–100 collection score from session
// state. Everything here is a pure function of its inputs.
package progress

import (
	"strings"
	"unicode/utf8"

	"github.com/rapport-labs/rapport/internal/catalog"
)

// negativeAnswers is the closed set of phrases that never count as a
// collected value.
var negativeAnswers = map[string]bool{
	"不知道": true,
	"没有":  true,
	"不清楚": true,
	"不记得": true,
	"没什么": true,
	"不想说": true,
	"不了解": true,
	"忘记了": true,
}

// ValidField reports whether a collected value carries real
// information: non-empty, at least 2 runes, and not a negative answer.
func ValidField(value string) bool {
	v := strings.TrimSpace(value)
	if utf8.RuneCountInString(v) < 2 {
		return false
	}
	return !negativeAnswers[v]
}

// HasMinimumInfo reports whether at least one valid field has been
// collected anywhere in the data. Deliberately permissive so the flow
// never stalls a cooperative-but-terse user.
func HasMinimumInfo(data map[string]string) bool {
	for _, v := range data {
		if ValidField(v) {
			return true
		}
	}
	return false
}

// NegativeAnswer reports whether a raw user message is a member of the
// closed negative-answer set.
func NegativeAnswer(message string) bool {
	return negativeAnswers[strings.TrimSpace(message)]
}

// Score returns min(100, dimensionScore + qualityScore).
//
// dimensionScore = floor(60 * completed / total dimensions)
// qualityScore   = floor(40 * valid key fields / key fields)
func Score(cat *catalog.Catalog, completedDimensions []string, data map[string]string) int {
	dims := cat.Len()
	completed := 0
	for _, id := range completedDimensions {
		if cat.Contains(id) {
			completed++
		}
	}
	dimensionScore := 0
	if dims > 0 {
		dimensionScore = 60 * completed / dims
	}

	keys := cat.KeyFields()
	valid := 0
	for _, k := range keys {
		if ValidField(data[k]) {
			valid++
		}
	}
	qualityScore := 0
	if len(keys) > 0 {
		qualityScore = 40 * valid / len(keys)
	}

	score := dimensionScore + qualityScore
	if score > 100 {
		return 100
	}
	return score
}
