// Package tutor implements the AI collaborators behind lessons: answer
// feedback, spoken-answer grading, word pronunciation and the premium
// chat assistant.
package tutor

import (
	"encoding/json"
	"strings"
)

// LLM purposes recorded in the request log.
const (
	PurposeFeedback  = "feedback"
	PurposeSpeech    = "speech-eval"
	PurposePronounce = "pronounce"
	PurposeChat      = "tutor-chat"
)

// textContent returns generated text whether the provider returned it
// bare or as a JSON string literal.
func textContent(raw json.RawMessage) string {
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal([]byte(trimmed), &s); err == nil {
			return strings.TrimSpace(s)
		}
	}
	return trimmed
}
