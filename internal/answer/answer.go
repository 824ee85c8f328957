package answer

import (
	"regexp"
	"strings"
)

// punctuation matches the characters stripped before comparison.
var punctuation = regexp.MustCompile("[.,/#!$%^&*;:{}=\\-_`~()]")

// whitespace also covers Unicode spaces such as NBSP, the BOM and the
// line and paragraph separators.
var whitespace = regexp.MustCompile(`[\s\p{Zs}\x{FEFF}\x{2028}\x{2029}]+`)

// droppable lists particles that may be omitted in casual speech.
var droppable = map[string]bool{
	"ma": true,
	"la": true,
}

// IsCorrect compares the learner's answer against the reference answer.
//
// Normalization rules:
//   - Comparison is case-insensitive
//   - Punctuation in the fixed set is removed
//   - Runs of whitespace collapse to a single space, ends are trimmed
//   - If the normalized strings differ, the particles "ma" and "la" are
//     dropped from both sides and the comparison is repeated
func IsCorrect(userAnswer, correctAnswer string) bool {
	u := Normalize(userAnswer)
	c := Normalize(correctAnswer)
	if u == c {
		return true
	}
	return stripParticles(u) == stripParticles(c)
}

// Normalize lower-cases s, removes punctuation and collapses whitespace.
func Normalize(s string) string {
	s = strings.ToLower(s)
	s = punctuation.ReplaceAllString(s, "")
	s = whitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func stripParticles(normalized string) string {
	words := strings.Split(normalized, " ")
	kept := words[:0]
	for _, w := range words {
		if !droppable[w] {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}
