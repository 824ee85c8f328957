package exercise

import (
	"context"
	"errors"

	"github.com/nalibo/nalibopath/internal/audio"
)

// Status is the grading state of one exercise instance.
type Status int

const (
	StatusIdle Status = iota
	StatusCorrect
	StatusIncorrect
)

func (s Status) String() string {
	switch s {
	case StatusCorrect:
		return "correct"
	case StatusIncorrect:
		return "incorrect"
	default:
		return "idle"
	}
}

// ErrSubmitting is returned when a submission is already in flight.
var ErrSubmitting = errors.New("submission already in progress")

// Fixed texts shown when no collaborator feedback is available.
const (
	FeedbackCorrect       = "Excellent!"
	FeedbackMatchComplete = "Perfect matching! You've mastered these terms."
	fallbackIncorrect     = "Incorrect. The expected Nalibo construction was: **%s**"
)

// FallbackSpeechAnalysis is reported when the speech evaluator fails.
const FallbackSpeechAnalysis = "Analysis failed. Transcription: Error. Score: 0/10. Feedback: Could not analyze audio. IsMatch: False"

// FeedbackGenerator produces tutor commentary for a graded answer.
type FeedbackGenerator interface {
	Feedback(ctx context.Context, userAnswer, correctAnswer, prompt string) (string, error)
}

// Verdict is a speech evaluator's decision.
type Verdict struct {
	Match bool
	// Text is the human-readable analysis shown as feedback.
	Text string
}

// SpeechEvaluator grades a spoken attempt against the target text.
type SpeechEvaluator interface {
	EvaluateSpeech(ctx context.Context, recording audio.Clip, target string) (Verdict, error)
}

// CompletionFunc receives the graded outcome of an exercise exactly once.
type CompletionFunc func(ctx context.Context, correct bool)

// Result is returned by Submit.
type Result struct {
	// Rejected is set when required input was missing. Nothing changed.
	Rejected bool

	// Advance is set when Submit was called on an already graded
	// exercise; the caller should move on to the next one.
	Advance bool

	Status   Status
	Answer   string
	Feedback string
}

// MatchResult is returned by the matching selection methods.
type MatchResult struct {
	// Matched is set when the pending pair was correct.
	Matched bool

	// Mismatch is set when both sides were chosen but do not belong
	// together. Selections are cleared without penalty.
	Mismatch bool

	// Completed is set when the last pair was matched.
	Completed bool

	// Left and Right echo the evaluated pair.
	Left, Right string
}

// FeedbackFunc adapts a function to the FeedbackGenerator interface.
type FeedbackFunc func(ctx context.Context, userAnswer, correctAnswer, prompt string) (string, error)

func (f FeedbackFunc) Feedback(ctx context.Context, userAnswer, correctAnswer, prompt string) (string, error) {
	return f(ctx, userAnswer, correctAnswer, prompt)
}
