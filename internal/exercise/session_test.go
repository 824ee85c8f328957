package exercise

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nalibo/nalibopath/internal/audio"
	"github.com/nalibo/nalibopath/internal/curriculum"
)

type outcomeRecorder struct {
	mu       sync.Mutex
	outcomes []bool
}

func (r *outcomeRecorder) record(_ context.Context, correct bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, correct)
}

type stubFeedback struct {
	text  string
	err   error
	calls int
}

func (f *stubFeedback) Feedback(_ context.Context, _, _, _ string) (string, error) {
	f.calls++
	return f.text, f.err
}

type stubSpeech struct {
	verdict Verdict
	err     error
	target  string
}

func (s *stubSpeech) EvaluateSpeech(_ context.Context, _ audio.Clip, target string) (Verdict, error) {
	s.target = target
	return s.verdict, s.err
}

func builderExercise() curriculum.Exercise {
	return curriculum.Exercise{
		ID:            "2-2",
		Type:          curriculum.SentenceBuilder,
		Prompt:        `Form: "The red book"`,
		CorrectAnswer: "Ge libre roçe",
		Words: []curriculum.Word{
			{Nalibo: "Ge"}, {Nalibo: "libre"}, {Nalibo: "roçe"}, {Nalibo: "Blu"},
		},
	}
}

func matchingExercise() curriculum.Exercise {
	return curriculum.Exercise{
		ID:            "1-1",
		Type:          curriculum.Matching,
		CorrectAnswer: "All matched",
		Pairs: []curriculum.Pair{
			{Left: "Salave", Right: "Hello"},
			{Left: "Li", Right: "I"},
			{Left: "Tu", Right: "You"},
			{Left: "Graçi", Right: "Thank You"},
		},
	}
}

func TestSubmit_SentenceBuilderCorrect(t *testing.T) {
	rec := &outcomeRecorder{}
	fb := &stubFeedback{text: "Nice use of adjective order."}
	s := New(builderExercise(), WithCompletion(rec.record), WithFeedback(fb))

	for _, w := range []string{"Ge", "libre", "roçe"} {
		s.ToggleWord(w)
	}
	require.True(t, s.CanSubmit())

	res, err := s.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusCorrect, res.Status)
	assert.Equal(t, "Ge libre roçe", res.Answer)
	assert.Equal(t, "Nice use of adjective order.", res.Feedback)
	assert.Equal(t, []bool{true}, rec.outcomes)
}

func TestToggleWord_RemovesAndKeepsOrder(t *testing.T) {
	s := New(builderExercise())
	s.ToggleWord("Ge")
	s.ToggleWord("Blu")
	s.ToggleWord("libre")
	s.ToggleWord("Blu")
	assert.Equal(t, []string{"Ge", "libre"}, s.Selected())
}

func TestToggleWord_DragAndDropReplaces(t *testing.T) {
	ex := curriculum.Exercise{ID: "5-2", Type: curriculum.DragAndDrop, CorrectAnswer: "Kadeji"}
	s := New(ex)
	s.ToggleWord("Kade")
	s.ToggleWord("Kadeji")
	assert.Equal(t, []string{"Kadeji"}, s.Selected())

	res, err := s.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusCorrect, res.Status)
}

func TestSubmit_IncorrectFallbackFeedback(t *testing.T) {
	rec := &outcomeRecorder{}
	fb := &stubFeedback{err: errors.New("quota exceeded")}
	ex := curriculum.Exercise{ID: "4-2", Type: curriculum.MultipleChoice, CorrectAnswer: "Pareno", Options: []string{"Parena", "Pareno"}}
	s := New(ex, WithCompletion(rec.record), WithFeedback(fb))

	s.ChooseOption("Pareno")
	s.ChooseOption("Parena")
	assert.Equal(t, "Parena", s.ChosenOption())

	res, err := s.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusIncorrect, res.Status)
	assert.Equal(t, "Incorrect. The expected Nalibo construction was: **Pareno**", res.Feedback)
	assert.Equal(t, []bool{false}, rec.outcomes)
	assert.Equal(t, 1, fb.calls)
}

func TestSubmit_CorrectFallbackWithoutCollaborator(t *testing.T) {
	ex := curriculum.Exercise{ID: "7-2", Type: curriculum.Translation, CorrectAnswer: "Oike"}
	s := New(ex)
	s.TypeAnswer("oike!")
	res, err := s.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusCorrect, res.Status)
	assert.Equal(t, FeedbackCorrect, res.Feedback)
}

func TestSubmit_RejectedWithoutInput(t *testing.T) {
	tests := []curriculum.Exercise{
		builderExercise(),
		{ID: "mc", Type: curriculum.MultipleChoice, CorrectAnswer: "a"},
		{ID: "dd", Type: curriculum.DragAndDrop, CorrectAnswer: "a"},
		{ID: "sp", Type: curriculum.Speaking, CorrectAnswer: "a"},
		{ID: "tr", Type: curriculum.Translation, CorrectAnswer: "a"},
		matchingExercise(),
	}
	for _, ex := range tests {
		t.Run(ex.ID, func(t *testing.T) {
			rec := &outcomeRecorder{}
			s := New(ex, WithCompletion(rec.record))
			assert.False(t, s.CanSubmit())

			res, err := s.Submit(context.Background())
			require.NoError(t, err)
			assert.True(t, res.Rejected)
			assert.Equal(t, StatusIdle, s.Status())
			assert.Empty(t, rec.outcomes)
		})
	}
}

func TestSubmit_AgainAdvances(t *testing.T) {
	rec := &outcomeRecorder{}
	s := New(builderExercise(), WithCompletion(rec.record))
	s.ToggleWord("Blu")

	first, err := s.Submit(context.Background())
	require.NoError(t, err)
	assert.False(t, first.Advance)
	assert.Equal(t, StatusIncorrect, first.Status)

	second, err := s.Submit(context.Background())
	require.NoError(t, err)
	assert.True(t, second.Advance)
	assert.Equal(t, StatusIncorrect, second.Status)
	assert.Len(t, rec.outcomes, 1, "outcome reported exactly once")
}

func TestInputIgnoredAfterGrading(t *testing.T) {
	s := New(builderExercise())
	s.ToggleWord("Ge")
	_, err := s.Submit(context.Background())
	require.NoError(t, err)

	s.ToggleWord("libre")
	assert.Equal(t, []string{"Ge"}, s.Selected())
}

func TestSubmit_ConcurrentGuard(t *testing.T) {
	block := make(chan struct{})
	started := make(chan struct{})
	fb := FeedbackFunc(func(ctx context.Context, _, _, _ string) (string, error) {
		close(started)
		<-block
		return "done", nil
	})
	s := New(builderExercise(), WithFeedback(fb))
	s.ToggleWord("Ge")

	done := make(chan Result)
	go func() {
		res, _ := s.Submit(context.Background())
		done <- res
	}()

	<-started
	assert.True(t, s.Submitting())
	_, err := s.Submit(context.Background())
	assert.ErrorIs(t, err, ErrSubmitting)

	close(block)
	res := <-done
	assert.Equal(t, "done", res.Feedback)
	assert.False(t, s.Submitting())
}

func TestSubmit_Speaking(t *testing.T) {
	ex := curriculum.Exercise{ID: "1-speaking", Type: curriculum.Speaking, CorrectAnswer: "Salave Graçi"}

	t.Run("match", func(t *testing.T) {
		rec := &outcomeRecorder{}
		sp := &stubSpeech{verdict: Verdict{Match: true, Text: "Transcription: Salave Graçi. IsMatch: True"}}
		s := New(ex, WithCompletion(rec.record), WithSpeechEvaluator(sp))
		s.SetRecording(audio.Clip{Data: []byte{1, 2}, Format: audio.FormatWAV})

		res, err := s.Submit(context.Background())
		require.NoError(t, err)
		assert.Equal(t, StatusCorrect, res.Status)
		assert.Equal(t, "Salave Graçi", sp.target)
		assert.Contains(t, res.Feedback, "IsMatch: True")
		assert.Equal(t, []bool{true}, rec.outcomes)
	})

	t.Run("evaluator failure", func(t *testing.T) {
		rec := &outcomeRecorder{}
		sp := &stubSpeech{err: errors.New("timeout")}
		s := New(ex, WithCompletion(rec.record), WithSpeechEvaluator(sp))
		s.SetRecording(audio.Clip{Data: []byte{1, 2}, Format: audio.FormatWAV})

		res, err := s.Submit(context.Background())
		require.NoError(t, err)
		assert.Equal(t, StatusIncorrect, res.Status)
		assert.Equal(t, FallbackSpeechAnalysis, res.Feedback)
		assert.Equal(t, []bool{false}, rec.outcomes)
	})

	t.Run("empty recording is not a recording", func(t *testing.T) {
		s := New(ex)
		s.SetRecording(audio.Clip{})
		assert.False(t, s.HasRecording())
		assert.False(t, s.CanSubmit())
	})
}

func TestMatching_Scenario(t *testing.T) {
	ctx := context.Background()
	rec := &outcomeRecorder{}
	s := New(matchingExercise(), WithCompletion(rec.record))

	for _, p := range [][2]string{{"Salave", "Hello"}, {"Li", "I"}, {"Tu", "You"}} {
		assert.Equal(t, MatchResult{}, s.SelectLeft(ctx, p[0]))
		res := s.SelectRight(ctx, p[1])
		assert.True(t, res.Matched, "pair %v", p)
		assert.False(t, res.Completed)
	}

	s.SelectLeft(ctx, "Graçi")
	res := s.SelectRight(ctx, "Hello")
	assert.Equal(t, MatchResult{}, res, "already matched right side is ignored")

	res = s.SelectRight(ctx, "I")
	assert.Equal(t, MatchResult{}, res)

	s.SelectLeft(ctx, "Graçi")
	left, right := s.Pending()
	assert.Equal(t, "Graçi", left)
	assert.Empty(t, right)

	assert.Equal(t, StatusIdle, s.Status())
	assert.Empty(t, rec.outcomes)

	res = s.SelectRight(ctx, "Thank You")
	assert.True(t, res.Matched)
	assert.True(t, res.Completed)
	assert.Equal(t, StatusCorrect, s.Status())
	assert.Equal(t, 4, s.MatchedCount())
	assert.Equal(t, FeedbackMatchComplete, s.Feedback())
	assert.Equal(t, []bool{true}, rec.outcomes)

	adv, err := s.Submit(ctx)
	require.NoError(t, err)
	assert.True(t, adv.Advance)
	assert.Equal(t, []bool{true}, rec.outcomes, "outcome reported exactly once")
}

func TestMatching_MismatchClearsWithoutPenalty(t *testing.T) {
	ctx := context.Background()
	rec := &outcomeRecorder{}
	s := New(matchingExercise(), WithCompletion(rec.record))

	s.SelectRight(ctx, "You")
	res := s.SelectLeft(ctx, "Li")
	assert.True(t, res.Mismatch)
	assert.Equal(t, "Li", res.Left)
	assert.Equal(t, "You", res.Right)

	left, right := s.Pending()
	assert.Empty(t, left)
	assert.Empty(t, right)
	assert.Equal(t, StatusIdle, s.Status())
	assert.Empty(t, rec.outcomes)
}

func TestMatching_ReselectSameSideReplaces(t *testing.T) {
	ctx := context.Background()
	s := New(matchingExercise())
	s.SelectLeft(ctx, "Li")
	s.SelectLeft(ctx, "Tu")
	res := s.SelectRight(ctx, "You")
	assert.True(t, res.Matched)
	assert.True(t, s.IsMatched("Tu", true))
	assert.False(t, s.IsMatched("Li", true))
}

func TestMatching_MismatchBeforeLastPair(t *testing.T) {
	ctx := context.Background()
	rec := &outcomeRecorder{}
	s := New(matchingExercise(), WithCompletion(rec.record))

	steps := []struct {
		left, right   string
		wantMatched   bool
		wantMismatch  bool
		wantCompleted bool
	}{
		{"Salave", "Hello", true, false, false},
		{"Li", "I", true, false, false},
		{"Tu", "Thank You", false, true, false},
		{"Tu", "You", true, false, false},
		{"Graçi", "Thank You", true, false, true},
	}
	for _, st := range steps {
		s.SelectLeft(ctx, st.left)
		res := s.SelectRight(ctx, st.right)
		assert.Equal(t, st.wantMatched, res.Matched, "%s/%s matched", st.left, st.right)
		assert.Equal(t, st.wantMismatch, res.Mismatch, "%s/%s mismatch", st.left, st.right)
		assert.Equal(t, st.wantCompleted, res.Completed, "%s/%s completed", st.left, st.right)
	}

	assert.Equal(t, StatusCorrect, s.Status())
	assert.Equal(t, []bool{true}, rec.outcomes)
}
