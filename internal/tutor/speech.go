package tutor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/nalibo/nalibopath/internal/audio"
	"github.com/nalibo/nalibopath/internal/curriculum"
	"github.com/nalibo/nalibopath/internal/exercise"
	"github.com/nalibo/nalibopath/internal/llm"
)

// matchMarker is the verdict marker in free-text analyses.
const matchMarker = "ismatch: true"

// MatchFromText extracts the verdict from a free-text analysis.
func MatchFromText(text string) bool {
	return strings.Contains(strings.ToLower(text), matchMarker)
}

// SpeechReport is the structured analysis of a spoken attempt.
type SpeechReport struct {
	Transcription string `json:"transcription"`
	Score         int    `json:"score"`
	Feedback      string `json:"feedback"`
	IsMatch       bool   `json:"is_match"`
}

// String renders the report in the same layout as a free-text analysis,
// so MatchFromText agrees with IsMatch.
func (r SpeechReport) String() string {
	return fmt.Sprintf("Transcription: %s\nScore: %d/10\nFeedback: %s\nIsMatch: %s",
		r.Transcription, r.Score, r.Feedback, titleBool(r.IsMatch))
}

func titleBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

var speechSchema = &llm.Schema{
	Name:        "speech-verdict",
	Description: "Evaluation of a learner's spoken Nalibo sentence",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"transcription": map[string]any{
				"type":        "string",
				"description": "What the learner actually said",
			},
			"score": map[string]any{
				"type":        "integer",
				"description": "Pronunciation score from 1 to 10",
				"minimum":     0,
				"maximum":     10,
			},
			"feedback": map[string]any{
				"type":        "string",
				"description": "Specific advice for improving pronunciation",
			},
			"is_match": map[string]any{
				"type":        "boolean",
				"description": "True if the words match the target and the score is at least 6",
			},
		},
		"required": []any{"transcription", "score", "feedback", "is_match"},
	},
}

const speechTask = `Evaluate the learner's spoken Nalibo in the attached recording.
Target Sentence: %q
Phonetic Rules:
%s
1. Transcribe what you heard.
2. Compare it to the target sentence.
3. Rate the pronunciation on a scale of 1-10.
4. Give specific feedback on how to improve.
Set is_match only if the words match and the score is at least 6.`

// SpeechService grades recordings with an audio-capable LLM. It
// satisfies exercise.SpeechEvaluator.
type SpeechService struct {
	provider  llm.Provider
	maxTokens int
}

// NewSpeechService creates a SpeechService.
func NewSpeechService(p llm.Provider, maxTokens int) *SpeechService {
	return &SpeechService{provider: p, maxTokens: maxTokens}
}

// EvaluateSpeech sends the recording inline with the target sentence.
// When the model answers in free text instead of the schema, the verdict
// is read from the text.
func (s *SpeechService) EvaluateSpeech(ctx context.Context, clip audio.Clip, target string) (exercise.Verdict, error) {
	if clip.Empty() {
		return exercise.Verdict{}, fmt.Errorf("speech: empty recording")
	}
	att, err := attachment(clip)
	if err != nil {
		return exercise.Verdict{}, fmt.Errorf("speech: %w", err)
	}

	ctx = llm.WithSubject(llm.WithPurpose(ctx, PurposeSpeech), target)
	resp, err := s.provider.Generate(ctx, llm.Request{
		Messages: []llm.Message{{
			Role:        llm.RoleUser,
			Content:     fmt.Sprintf(speechTask, target, curriculum.Phonetics),
			Attachments: []llm.Attachment{att},
		}},
		Schema:    speechSchema,
		MaxTokens: s.maxTokens,
	})
	if err != nil {
		// Unstructured or cut-off output may still carry the marker.
		var (
			inv    *llm.ErrInvalidResponse
			maxTok *llm.ErrMaxTokensExceeded
		)
		var partial json.RawMessage
		switch {
		case errors.As(err, &inv):
			partial = inv.Content
		case errors.As(err, &maxTok):
			partial = maxTok.Content
		}
		if len(partial) > 0 {
			text := textContent(partial)
			return exercise.Verdict{Match: MatchFromText(text), Text: text}, nil
		}
		return exercise.Verdict{}, fmt.Errorf("speech: %w", err)
	}

	var report SpeechReport
	if err := json.Unmarshal(resp.Content, &report); err != nil {
		return exercise.Verdict{}, fmt.Errorf("speech: decode report: %w", err)
	}
	return exercise.Verdict{Match: report.IsMatch, Text: report.String()}, nil
}

func attachment(clip audio.Clip) (llm.Attachment, error) {
	if clip.Format == audio.FormatWebM {
		return llm.Attachment{MIMEType: clip.MIMEType(), Data: clip.Data}, nil
	}
	wav, err := clip.WAV()
	if err != nil {
		return llm.Attachment{}, err
	}
	return llm.Attachment{MIMEType: "audio/wav", Data: wav}, nil
}
