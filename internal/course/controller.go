package course

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nalibo/nalibopath/internal/curriculum"
	"github.com/nalibo/nalibopath/internal/exercise"
	"github.com/nalibo/nalibopath/internal/progress"
	"github.com/nalibo/nalibopath/internal/progression"
	"github.com/nalibo/nalibopath/internal/store"
)

// Ledger is the learner record the controller drives.
type Ledger interface {
	progression.Ledger
	Snapshot() progress.Progress
	StartLesson(ctx context.Context, lessonID string) error
	SpendGemsForLives(ctx context.Context, cost, restored int) (bool, error)
	Subscribe(fn func(progress.Change)) func()
}

// EventLog receives the learning history. store.EventRepo satisfies it.
type EventLog interface {
	AppendAnswer(ctx context.Context, data store.AnswerEventData) error
	AppendLessonOutcome(ctx context.Context, data store.LessonEventData) error
}

// Controller is the lesson path state machine for one signed-in learner.
type Controller struct {
	catalog  *curriculum.Catalog
	ledger   Ledger
	username string
	log      EventLog
	feedback exercise.FeedbackGenerator
	speech   exercise.SpeechEvaluator
	logger   *zap.Logger
	after    AfterFunc

	mu      sync.Mutex
	mode    Mode
	view    View
	run     *progression.Progression
	runID   string
	session *exercise.Session
	timer   Timer
	timerID int
	closed  bool

	events      chan Event
	unsubscribe func()
}

// Option configures a Controller.
type Option func(*Controller)

// WithEventLog records answers and lesson outcomes for username.
func WithEventLog(log EventLog, username string) Option {
	return func(c *Controller) {
		c.log = log
		c.username = username
	}
}

// WithFeedback sets the tutor feedback collaborator for exercises.
func WithFeedback(g exercise.FeedbackGenerator) Option {
	return func(c *Controller) { c.feedback = g }
}

// WithSpeechEvaluator sets the grader for speaking exercises.
func WithSpeechEvaluator(e exercise.SpeechEvaluator) Option {
	return func(c *Controller) { c.speech = e }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithAfterFunc replaces time.AfterFunc for delayed transitions.
func WithAfterFunc(f AfterFunc) Option {
	return func(c *Controller) {
		if f != nil {
			c.after = f
		}
	}
}

// WithEventBuffer sets the capacity of the event channel.
func WithEventBuffer(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.events = make(chan Event, n)
		}
	}
}

// New creates a controller on the map with the app view showing.
func New(catalog *curriculum.Catalog, ledger Ledger, opts ...Option) *Controller {
	c := &Controller{
		catalog: catalog,
		ledger:  ledger,
		logger:  zap.NewNop(),
		after:   realAfterFunc,
		mode:    ModeMap,
		view:    ViewApp,
	}
	for _, o := range opts {
		o(c)
	}
	if c.events == nil {
		c.events = make(chan Event, defaultEventBuffer)
	}
	c.unsubscribe = ledger.Subscribe(func(ch progress.Change) {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.publishLocked(Event{Kind: EventProgress, LessonID: ch.LessonID, Progress: ch.After})
	})
	return c
}

// Events delivers mode, view and progress changes. The channel is
// closed by Close. Events are dropped while the buffer is full.
func (c *Controller) Events() <-chan Event {
	return c.events
}

// Mode returns the active mode.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// View returns the top-level view.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// Catalog returns the lesson catalog.
func (c *Controller) Catalog() *curriculum.Catalog {
	return c.catalog
}

// Progress returns a copy of the learner's record.
func (c *Controller) Progress() progress.Progress {
	return c.ledger.Snapshot()
}

// IsUnlocked reports whether the learner may open lessonID.
func (c *Controller) IsUnlocked(lessonID string) bool {
	return c.catalog.IsUnlocked(lessonID, c.ledger.Snapshot().Completed)
}

// Lesson returns the running lesson's progression, or nil on the map.
func (c *Controller) Lesson() *progression.Progression {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.run
}

// Session returns the current exercise session, or nil outside the
// exercise mode.
func (c *Controller) Session() *exercise.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// SelectLesson opens a lesson from the map on its objectives.
func (c *Controller) SelectLesson(ctx context.Context, lessonID string) error {
	if err := c.expect(ModeMap); err != nil {
		return err
	}
	lesson, err := c.catalog.Lesson(lessonID)
	if err != nil {
		return err
	}
	if !c.IsUnlocked(lessonID) {
		return fmt.Errorf("%w: %s", ErrLocked, lessonID)
	}
	if err := c.ledger.StartLesson(ctx, lessonID); err != nil {
		c.logger.Warn("save current lesson", zap.String("lesson", lessonID), zap.Error(err))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.run = progression.New(lesson, c.ledger)
	c.runID = uuid.NewString()
	c.session = nil
	c.logger.Info("lesson started",
		zap.String("lesson", lessonID),
		zap.String("run", c.runID),
	)
	c.setModeLocked(ModeObjectives)
	return nil
}

// Next steps through objectives, story and vocabulary. Leaving the
// vocabulary opens the first exercise.
func (c *Controller) Next(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	switch c.mode {
	case ModeObjectives:
		c.setModeLocked(ModeStory)
	case ModeStory:
		c.setModeLocked(ModeVocab)
	case ModeVocab:
		if !c.openExerciseLocked() {
			c.mu.Unlock()
			// Nothing to practise: the lesson completes on the spot.
			return c.complete(ctx)
		}
		c.setModeLocked(ModeExercise)
	default:
		c.mu.Unlock()
		return ErrWrongMode
	}
	c.mu.Unlock()
	return nil
}

// Submit grades the current exercise. Once the exercise is graded a
// second Submit moves on, exactly like Continue.
func (c *Controller) Submit(ctx context.Context) (exercise.Result, error) {
	s, err := c.activeSession()
	if err != nil {
		return exercise.Result{}, err
	}
	res, err := s.Submit(ctx)
	if err != nil {
		return res, err
	}
	if res.Advance {
		return res, c.Continue(ctx)
	}
	if !res.Rejected {
		c.logAnswer(ctx, s.Exercise(), res.Answer, res.Status == exercise.StatusCorrect)
	}
	return res, nil
}

// SelectLeft picks a left-hand term of a matching exercise.
func (c *Controller) SelectLeft(ctx context.Context, value string) (exercise.MatchResult, error) {
	return c.selectMatch(ctx, value, true)
}

// SelectRight picks a right-hand term of a matching exercise.
func (c *Controller) SelectRight(ctx context.Context, value string) (exercise.MatchResult, error) {
	return c.selectMatch(ctx, value, false)
}

func (c *Controller) selectMatch(ctx context.Context, value string, left bool) (exercise.MatchResult, error) {
	s, err := c.activeSession()
	if err != nil {
		return exercise.MatchResult{}, err
	}
	var res exercise.MatchResult
	if left {
		res = s.SelectLeft(ctx, value)
	} else {
		res = s.SelectRight(ctx, value)
	}
	if res.Completed {
		c.logAnswer(ctx, s.Exercise(), s.Exercise().CorrectAnswer, true)
	}
	return res, nil
}

// Continue leaves a graded exercise. It opens the next exercise, or
// completes the lesson after the last one and shows the finished mode.
// While the game over transition is pending it does nothing.
func (c *Controller) Continue(ctx context.Context) error {
	s, err := c.activeSession()
	if err != nil {
		return err
	}
	if s.Status() == exercise.StatusIdle {
		return ErrNotGraded
	}

	c.mu.Lock()
	run := c.run
	c.mu.Unlock()

	done, err := run.Advance(ctx)
	if errors.Is(err, progression.ErrHalted) {
		return nil
	}
	if done {
		c.finish(ctx, run)
		return err
	}
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.openExerciseLocked()
	return nil
}

// BuyLives spends ReviveCost gems to restore all lives and returns to
// the map. With too few gems it reports false and stays on game over.
func (c *Controller) BuyLives(ctx context.Context) (bool, error) {
	if err := c.expect(ModeGameOver); err != nil {
		return false, err
	}
	ok, err := c.ledger.SpendGemsForLives(ctx, progress.ReviveCost, progress.MaxLives)
	if !ok {
		return false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.endRunLocked()
	c.setModeLocked(ModeMap)
	return true, err
}

// DismissGameOver returns to the map without reviving.
func (c *Controller) DismissGameOver() error {
	return c.returnToMap(ModeGameOver)
}

// Finish leaves the finished screen for the map.
func (c *Controller) Finish() error {
	return c.returnToMap(ModeFinished)
}

// Abandon leaves a running lesson for the map. The lesson is logged as
// abandoned and any pending game over is cancelled.
func (c *Controller) Abandon(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if !c.mode.InLesson() {
		c.mu.Unlock()
		return ErrWrongMode
	}
	run, runID := c.run, c.runID
	c.cancelTimerLocked()
	c.endRunLocked()
	c.setModeLocked(ModeMap)
	c.mu.Unlock()

	c.logOutcome(ctx, run, runID, store.LessonOutcomeAbandoned)
	return nil
}

// ToggleChat switches between the map and the tutor chat.
func (c *Controller) ToggleChat() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	switch c.mode {
	case ModeMap:
		c.setModeLocked(ModeTutorChat)
	case ModeTutorChat:
		c.setModeLocked(ModeMap)
	default:
		return ErrWrongMode
	}
	return nil
}

// ShowLeaderboard switches the top-level view to the leaderboard. The
// mode underneath is kept.
func (c *Controller) ShowLeaderboard() {
	c.setView(ViewLeaderboard)
}

// ShowApp switches the top-level view back to the app.
func (c *Controller) ShowApp() {
	c.setView(ViewApp)
}

// Close cancels pending transitions, stops observing the ledger and
// closes the event channel. It is safe to call more than once.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.cancelTimerLocked()
	close(c.events)
	c.mu.Unlock()

	c.unsubscribe()
}

func (c *Controller) setView(v View) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.view == v {
		return
	}
	c.view = v
	c.publishLocked(Event{Kind: EventViewChanged, View: v})
}

func (c *Controller) expect(m Mode) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.mode != m {
		return ErrWrongMode
	}
	return nil
}

func (c *Controller) returnToMap(from Mode) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.mode != from {
		return ErrWrongMode
	}
	c.endRunLocked()
	c.setModeLocked(ModeMap)
	return nil
}

func (c *Controller) activeSession() (*exercise.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	if c.mode != ModeExercise || c.session == nil {
		return nil, ErrWrongMode
	}
	return c.session, nil
}

// openExerciseLocked creates the session for the progression's current
// exercise. It reports false when there is none.
func (c *Controller) openExerciseLocked() bool {
	ex, ok := c.run.Current()
	if !ok {
		c.session = nil
		return false
	}
	run := c.run
	c.session = exercise.New(ex,
		exercise.WithCompletion(func(ctx context.Context, correct bool) {
			c.record(ctx, run, correct)
		}),
		exercise.WithFeedback(c.feedback),
		exercise.WithSpeechEvaluator(c.speech),
		exercise.WithLogger(c.logger),
	)
	return true
}

// record applies a graded outcome. Running out of lives schedules the
// game over switch so the last answer's feedback stays visible.
func (c *Controller) record(ctx context.Context, run *progression.Progression, correct bool) {
	out, err := run.Record(ctx, correct)
	if err != nil {
		c.logger.Warn("record exercise outcome",
			zap.String("lesson", run.Lesson().ID),
			zap.Bool("correct", correct),
			zap.Error(err),
		)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.publishLocked(Event{Kind: EventAnswerGraded, LessonID: run.Lesson().ID, Outcome: out})
	if out.OutOfLives && c.run == run {
		c.scheduleGameOverLocked(run)
	}
}

func (c *Controller) scheduleGameOverLocked(run *progression.Progression) {
	if c.closed {
		return
	}
	c.cancelTimerLocked()
	id := c.timerID
	c.timer = c.after(GameOverDelay, func() { c.gameOver(id, run) })
}

func (c *Controller) gameOver(id int, run *progression.Progression) {
	c.mu.Lock()
	if c.closed || id != c.timerID || c.run != run || c.mode != ModeExercise {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	runID := c.runID
	c.setModeLocked(ModeGameOver)
	c.mu.Unlock()

	c.logOutcome(context.Background(), run, runID, store.LessonOutcomeGameOver)
}

// cancelTimerLocked stops the pending timer. Bumping timerID also
// invalidates a callback that already fired and waits for the lock.
func (c *Controller) cancelTimerLocked() {
	c.timerID++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// complete finishes a run that has no exercise left.
func (c *Controller) complete(ctx context.Context) error {
	c.mu.Lock()
	run := c.run
	c.mu.Unlock()

	done, err := run.Advance(ctx)
	if done {
		c.finish(ctx, run)
	}
	return err
}

func (c *Controller) finish(ctx context.Context, run *progression.Progression) {
	c.mu.Lock()
	if c.run != run {
		c.mu.Unlock()
		return
	}
	runID := c.runID
	c.session = nil
	c.setModeLocked(ModeFinished)
	c.mu.Unlock()

	if r := run.Reward(); r != nil {
		c.logger.Info("lesson completed",
			zap.String("lesson", r.LessonID),
			zap.Bool("perfect", r.Perfect),
			zap.Int("xp", r.XPGained),
			zap.Int("gems", r.GemsGained),
		)
	}
	c.logOutcome(ctx, run, runID, store.LessonOutcomeCompleted)
}

func (c *Controller) endRunLocked() {
	c.run = nil
	c.runID = ""
	c.session = nil
}

func (c *Controller) setModeLocked(m Mode) {
	if c.mode == m {
		return
	}
	c.mode = m
	ev := Event{Kind: EventModeChanged, Mode: m}
	if c.run != nil {
		ev.LessonID = c.run.Lesson().ID
		ev.Reward = c.run.Reward()
	}
	c.publishLocked(ev)
}

func (c *Controller) publishLocked(ev Event) {
	if c.closed {
		return
	}
	select {
	case c.events <- ev:
	default:
		c.logger.Debug("event dropped", zap.Int("kind", int(ev.Kind)))
	}
}

func (c *Controller) logAnswer(ctx context.Context, ex curriculum.Exercise, answer string, correct bool) {
	if c.log == nil {
		return
	}
	c.mu.Lock()
	var lessonID, runID string
	if c.run != nil {
		lessonID, runID = c.run.Lesson().ID, c.runID
	}
	c.mu.Unlock()

	err := c.log.AppendAnswer(ctx, store.AnswerEventData{
		RunID:        runID,
		Username:     c.username,
		LessonID:     lessonID,
		ExerciseID:   ex.ID,
		ExerciseType: string(ex.Type),
		Answer:       answer,
		Correct:      correct,
	})
	if err != nil {
		c.logger.Warn("append answer event", zap.String("exercise", ex.ID), zap.Error(err))
	}
}

func (c *Controller) logOutcome(ctx context.Context, run *progression.Progression, runID, outcome string) {
	if c.log == nil || run == nil {
		return
	}
	data := store.LessonEventData{
		RunID:    runID,
		Username: c.username,
		LessonID: run.Lesson().ID,
		Outcome:  outcome,
	}
	if r := run.Reward(); r != nil {
		data.Perfect = r.Perfect
		data.XPGained = r.XPGained
		data.GemsGained = r.GemsGained
	}
	if err := c.log.AppendLessonOutcome(ctx, data); err != nil {
		c.logger.Warn("append lesson event",
			zap.String("lesson", data.LessonID),
			zap.String("outcome", outcome),
			zap.Error(err),
		)
	}
}
