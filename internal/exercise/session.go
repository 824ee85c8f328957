package exercise

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/nalibo/nalibopath/internal/answer"
	"github.com/nalibo/nalibopath/internal/audio"
	"github.com/nalibo/nalibopath/internal/curriculum"
)

// Session holds the transient state of one exercise instance. A new
// Session is created each time an exercise is entered.
type Session struct {
	mu sync.Mutex

	ex     curriculum.Exercise
	status Status

	// selected is the sentence-builder working sequence, or the single
	// filled word for drag-and-drop.
	selected []string
	option   string
	typed    string

	pendingLeft  string
	pendingRight string
	matched      map[int]bool

	recording *audio.Clip

	feedback   string
	submitting bool
	reported   bool

	onComplete CompletionFunc
	feedbackFn FeedbackGenerator
	speech     SpeechEvaluator
	logger     *zap.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithCompletion sets the outcome callback.
func WithCompletion(fn CompletionFunc) Option {
	return func(s *Session) { s.onComplete = fn }
}

// WithFeedback sets the tutor feedback collaborator.
func WithFeedback(g FeedbackGenerator) Option {
	return func(s *Session) { s.feedbackFn = g }
}

// WithSpeechEvaluator sets the speaking-exercise grader.
func WithSpeechEvaluator(e SpeechEvaluator) Option {
	return func(s *Session) { s.speech = e }
}

// WithLogger sets the logger for collaborator failures.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// New creates an idle session for ex.
func New(ex curriculum.Exercise, opts ...Option) *Session {
	s := &Session{
		ex:      ex,
		matched: make(map[int]bool),
		logger:  zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Exercise returns the exercise being played.
func (s *Session) Exercise() curriculum.Exercise {
	return s.ex
}

// Status returns the grading state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Feedback returns the feedback text of a graded exercise.
func (s *Session) Feedback() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.feedback
}

// Submitting reports whether a submission is in flight.
func (s *Session) Submitting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitting
}

// Selected returns the working word sequence.
func (s *Session) Selected() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.selected)
}

// ChosenOption returns the selected multiple-choice option.
func (s *Session) ChosenOption() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.option
}

// ToggleWord adds or removes a word-bank token. For drag-and-drop the
// word replaces the current fill. Ignored once graded.
func (s *Session) ToggleWord(word string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusIdle || s.submitting {
		return
	}

	if s.ex.Type == curriculum.DragAndDrop {
		s.selected = []string{word}
		return
	}
	if i := slices.Index(s.selected, word); i >= 0 {
		s.selected = slices.Delete(s.selected, i, i+1)
		return
	}
	s.selected = append(s.selected, word)
}

// ChooseOption selects a multiple-choice option, replacing any earlier one.
func (s *Session) ChooseOption(option string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusIdle || s.submitting {
		return
	}
	s.option = option
}

// TypeAnswer sets the free-text answer of translation-style exercises.
func (s *Session) TypeAnswer(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusIdle || s.submitting {
		return
	}
	s.typed = text
}

// SetRecording attaches the learner's spoken attempt.
func (s *Session) SetRecording(clip audio.Clip) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusIdle || s.submitting {
		return
	}
	if clip.Empty() {
		s.recording = nil
		return
	}
	s.recording = &clip
}

// HasRecording reports whether a spoken attempt is attached.
func (s *Session) HasRecording() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recording != nil
}

// CanSubmit reports whether the required input for this exercise type
// is present. Matching exercises are never submitted; they complete by
// matching the last pair.
func (s *Session) CanSubmit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canSubmitLocked()
}

func (s *Session) canSubmitLocked() bool {
	if s.status != StatusIdle {
		return true
	}
	switch s.ex.Type {
	case curriculum.SentenceBuilder, curriculum.DragAndDrop:
		return len(s.selected) > 0
	case curriculum.MultipleChoice:
		return s.option != ""
	case curriculum.Speaking:
		return s.recording != nil
	case curriculum.Matching:
		return false
	default:
		return strings.TrimSpace(s.typed) != ""
	}
}

func (s *Session) answerLocked() string {
	switch s.ex.Type {
	case curriculum.SentenceBuilder:
		return strings.Join(s.selected, " ")
	case curriculum.DragAndDrop:
		if len(s.selected) == 0 {
			return ""
		}
		return s.selected[0]
	case curriculum.MultipleChoice:
		return s.option
	default:
		return s.typed
	}
}

// Submit grades the exercise. On an idle session with complete input it
// sets the status, reports the outcome through the completion callback
// and then fetches feedback, falling back to a fixed message on error.
// On a graded session it returns Result.Advance instead.
func (s *Session) Submit(ctx context.Context) (Result, error) {
	s.mu.Lock()
	if s.submitting {
		s.mu.Unlock()
		return Result{}, ErrSubmitting
	}
	if s.status != StatusIdle {
		res := Result{Advance: true, Status: s.status, Answer: s.answerLocked(), Feedback: s.feedback}
		s.mu.Unlock()
		return res, nil
	}
	if !s.canSubmitLocked() {
		s.mu.Unlock()
		return Result{Rejected: true, Status: StatusIdle}, nil
	}
	s.submitting = true
	userAnswer := s.answerLocked()
	var recording audio.Clip
	if s.recording != nil {
		recording = *s.recording
	}
	s.mu.Unlock()

	var (
		correct  bool
		feedback string
	)
	if s.ex.Type == curriculum.Speaking {
		v := s.evaluateSpeech(ctx, recording)
		correct, feedback = v.Match, v.Text
		s.grade(ctx, correct)
	} else {
		correct = answer.IsCorrect(userAnswer, s.ex.CorrectAnswer)
		s.grade(ctx, correct)
		feedback = s.fetchFeedback(ctx, userAnswer, correct)
	}

	s.mu.Lock()
	s.feedback = feedback
	s.submitting = false
	res := Result{Status: s.status, Answer: userAnswer, Feedback: feedback}
	s.mu.Unlock()
	return res, nil
}

// grade sets the terminal status and reports the outcome once.
func (s *Session) grade(ctx context.Context, correct bool) {
	s.mu.Lock()
	if correct {
		s.status = StatusCorrect
	} else {
		s.status = StatusIncorrect
	}
	report := !s.reported
	s.reported = true
	s.mu.Unlock()

	if report && s.onComplete != nil {
		s.onComplete(ctx, correct)
	}
}

func (s *Session) evaluateSpeech(ctx context.Context, recording audio.Clip) Verdict {
	if s.speech == nil {
		s.logger.Warn("no speech evaluator configured", zap.String("exercise", s.ex.ID))
		return Verdict{Text: FallbackSpeechAnalysis}
	}
	v, err := s.speech.EvaluateSpeech(ctx, recording, s.ex.CorrectAnswer)
	if err != nil {
		s.logger.Warn("speech evaluation failed",
			zap.String("exercise", s.ex.ID),
			zap.Error(err),
		)
		return Verdict{Text: FallbackSpeechAnalysis}
	}
	return v
}

func (s *Session) fetchFeedback(ctx context.Context, userAnswer string, correct bool) string {
	fallback := FeedbackCorrect
	if !correct {
		fallback = fmt.Sprintf(fallbackIncorrect, s.ex.CorrectAnswer)
	}
	if s.feedbackFn == nil {
		return fallback
	}
	text, err := s.feedbackFn.Feedback(ctx, userAnswer, s.ex.CorrectAnswer, s.ex.Prompt)
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			s.logger.Warn("tutor feedback failed",
				zap.String("exercise", s.ex.ID),
				zap.Error(err),
			)
		}
		return fallback
	}
	return text
}
