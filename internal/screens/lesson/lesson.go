// Package lesson implements the in-lesson screen: objectives, story,
// vocabulary, the exercise loop and the finished and game over panels.
package lesson

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	tea "charm.land/bubbletea/v2"
	"go.uber.org/zap"

	"github.com/nalibo/nalibopath/internal/audio"
	"github.com/nalibo/nalibopath/internal/course"
	"github.com/nalibo/nalibopath/internal/curriculum"
	"github.com/nalibo/nalibopath/internal/exercise"
	"github.com/nalibo/nalibopath/internal/progress"
	"github.com/nalibo/nalibopath/internal/router"
	"github.com/nalibo/nalibopath/internal/screen"
	"github.com/nalibo/nalibopath/internal/ui/components"
	"github.com/nalibo/nalibopath/internal/ui/layout"
)

const (
	// RecordDuration is how long a speaking attempt is captured for.
	RecordDuration = 4 * time.Second

	pairFlash     = 600 * time.Millisecond
	mismatchFlash = 500 * time.Millisecond
)

// Pronouncer produces vocabulary audio.
type Pronouncer interface {
	Available() bool
	Synthesize(ctx context.Context, word string) (audio.Clip, bool)
}

// Deps are the collaborators of the lesson screen. Everything except
// Course may be nil.
type Deps struct {
	Course     *course.Controller
	Pronouncer Pronouncer
	Player     audio.Player
	Recorder   audio.Recorder
	Logger     *zap.Logger
}

// flash highlights an evaluated matching pair for a moment.
type flash struct {
	left, right string
	ok          bool
}

// LessonScreen renders whichever in-lesson mode the controller is in.
type LessonScreen struct {
	deps   Deps
	ctrl   *course.Controller
	logger *zap.Logger

	// session is the exercise the widgets below were built for.
	session *exercise.Session
	choice  components.Choice
	bank    components.WordBank
	input   components.TextInput

	leftCol, rightCol       []string
	column                  int
	leftCursor, rightCursor int
	flash                   *flash
	flashID                 int

	vocabCursor int
	overMenu    components.Menu

	busy      bool
	recording bool
	notice    string
	left      bool
}

var _ screen.Screen = (*LessonScreen)(nil)
var _ screen.KeyHintProvider = (*LessonScreen)(nil)
var _ screen.Closer = (*LessonScreen)(nil)

// New creates the lesson screen for the lesson the controller has open.
func New(deps Deps) *LessonScreen {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &LessonScreen{deps: deps, ctrl: deps.Course, logger: logger}
	s.sync()
	return s
}

func (s *LessonScreen) Init() tea.Cmd {
	return s.input.Init()
}

func (s *LessonScreen) Title() string {
	if run := s.ctrl.Lesson(); run != nil {
		return run.Lesson().Title
	}
	return "Lesson"
}

// Close abandons the lesson if the screen is dropped mid-lesson.
func (s *LessonScreen) Close() {
	s.flashID++
	if s.ctrl.Mode().InLesson() {
		if err := s.ctrl.Abandon(context.Background()); err != nil && !errors.Is(err, course.ErrClosed) {
			s.logger.Warn("abandon on close", zap.Error(err))
		}
	}
}

func (s *LessonScreen) KeyHints() []layout.KeyHint {
	switch s.ctrl.Mode() {
	case course.ModeObjectives, course.ModeStory:
		return []layout.KeyHint{
			{Key: "Enter", Description: "Continue"},
			{Key: "Esc", Description: "Leave lesson"},
		}
	case course.ModeVocab:
		return []layout.KeyHint{
			{Key: "↑↓", Description: "Browse"},
			{Key: "P", Description: "Pronounce"},
			{Key: "Enter", Description: "Exercises"},
			{Key: "Esc", Description: "Leave lesson"},
		}
	case course.ModeExercise:
		return s.exerciseHints()
	case course.ModeFinished:
		return []layout.KeyHint{{Key: "Enter", Description: "Continue to path"}}
	case course.ModeGameOver:
		return []layout.KeyHint{
			{Key: "↑↓", Description: "Choose"},
			{Key: "Enter", Description: "Select"},
		}
	}
	return nil
}

func (s *LessonScreen) exerciseHints() []layout.KeyHint {
	sess := s.session
	if sess == nil {
		return nil
	}
	if sess.Status() != exercise.StatusIdle {
		return []layout.KeyHint{{Key: "Enter", Description: "Continue"}}
	}
	hints := []layout.KeyHint{}
	switch sess.Exercise().Type {
	case curriculum.MultipleChoice:
		hints = append(hints, layout.KeyHint{Key: "↑↓/1-9", Description: "Choose"})
	case curriculum.SentenceBuilder, curriculum.DragAndDrop:
		hints = append(hints,
			layout.KeyHint{Key: "←→", Description: "Move"},
			layout.KeyHint{Key: "Space", Description: "Place word"},
			layout.KeyHint{Key: "Bksp", Description: "Undo"},
		)
	case curriculum.Matching:
		hints = append(hints,
			layout.KeyHint{Key: "↑↓", Description: "Move"},
			layout.KeyHint{Key: "←→", Description: "Column"},
			layout.KeyHint{Key: "Space", Description: "Pick"},
		)
	case curriculum.Speaking:
		hints = append(hints,
			layout.KeyHint{Key: "R", Description: "Record"},
			layout.KeyHint{Key: "P", Description: "Listen"},
		)
	}
	if sess.Exercise().Type != curriculum.Matching {
		hints = append(hints, layout.KeyHint{Key: "Enter", Description: "Check"})
	}
	return append(hints, layout.KeyHint{Key: "Esc", Description: "Leave lesson"})
}

func (s *LessonScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case course.Event:
		s.sync()
		return s, s.leaveIfDone()

	case actionDoneMsg:
		s.busy = false
		s.report(msg.Err)
		s.sync()
		return s, s.leaveIfDone()

	case submittedMsg:
		return s.handleSubmitted(msg)

	case matchedMsg:
		return s.handleMatched(msg)

	case matchFlashDoneMsg:
		if msg.ID == s.flashID {
			s.flash = nil
		}
		return s, nil

	case recordedMsg:
		s.recording = false
		if msg.Err != nil {
			s.notice = "Microphone unavailable. Check the record command in your settings."
			s.logger.Warn("record", zap.Error(msg.Err))
			return s, nil
		}
		if sess := s.session; sess != nil {
			sess.SetRecording(msg.Clip)
		}
		s.notice = "Recording captured. Press Enter to check it."
		return s, nil

	case playedMsg:
		if msg.Err != nil {
			s.logger.Debug("playback", zap.Error(msg.Err))
		}
		return s, nil

	case revivedMsg:
		s.busy = false
		s.report(msg.Err)
		if !msg.OK && msg.Err == nil {
			s.notice = "Not enough gems to restore energy."
		}
		s.sync()
		return s, s.leaveIfDone()

	case tea.KeyPressMsg:
		if s.busy {
			return s, nil
		}
		s.notice = ""
		return s.handleKey(msg)
	}

	if s.ctrl.Mode() == course.ModeExercise && s.usesInput() {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *LessonScreen) handleKey(msg tea.KeyPressMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()
	mode := s.ctrl.Mode()

	if key == "esc" && mode.InLesson() {
		return s, s.do(s.ctrl.Abandon)
	}

	switch mode {
	case course.ModeObjectives, course.ModeStory:
		if key == "enter" {
			return s, s.do(s.ctrl.Next)
		}
	case course.ModeVocab:
		return s.handleVocabKey(key)
	case course.ModeExercise:
		return s.handleExerciseKey(msg)
	case course.ModeFinished:
		if key == "enter" || key == "space" {
			return s, s.do(func(context.Context) error { return s.ctrl.Finish() })
		}
	case course.ModeGameOver:
		return s.handleGameOverKey(msg)
	}
	return s, nil
}

func (s *LessonScreen) handleVocabKey(key string) (screen.Screen, tea.Cmd) {
	vocab := s.vocab()
	switch key {
	case "up", "k":
		if s.vocabCursor > 0 {
			s.vocabCursor--
		}
	case "down", "j":
		if s.vocabCursor < len(vocab)-1 {
			s.vocabCursor++
		}
	case "p":
		if s.vocabCursor < len(vocab) {
			return s, s.pronounce(vocab[s.vocabCursor].Nalibo)
		}
	case "enter":
		return s, s.do(s.ctrl.Next)
	}
	return s, nil
}

func (s *LessonScreen) handleExerciseKey(msg tea.KeyPressMsg) (screen.Screen, tea.Cmd) {
	sess := s.session
	if sess == nil {
		return s, nil
	}
	key := msg.String()
	if sess.Status() != exercise.StatusIdle {
		if key == "enter" || key == "space" {
			return s, s.submit()
		}
		return s, nil
	}

	ex := sess.Exercise()
	switch ex.Type {
	case curriculum.MultipleChoice:
		if key == "enter" {
			if sess.ChosenOption() == "" && len(ex.Options) > 0 {
				sess.ChooseOption(s.choice.Options[s.choice.Cursor])
			}
			return s, s.submit()
		}
		var picked string
		var ok bool
		s.choice, picked, ok = s.choice.Update(msg)
		if ok {
			sess.ChooseOption(picked)
		}

	case curriculum.SentenceBuilder, curriculum.DragAndDrop:
		switch key {
		case "enter":
			return s, s.submit()
		case "backspace":
			if sel := sess.Selected(); len(sel) > 0 {
				sess.ToggleWord(sel[len(sel)-1])
			}
			return s, nil
		}
		var word string
		var ok bool
		s.bank, word, ok = s.bank.Update(msg)
		if ok {
			sess.ToggleWord(word)
		}

	case curriculum.Matching:
		return s, s.handleMatchKey(key)

	case curriculum.Speaking:
		switch key {
		case "r":
			return s, s.record()
		case "p":
			return s, s.pronounce(ex.CorrectAnswer)
		case "enter":
			return s, s.submit()
		}

	default:
		if key == "enter" {
			return s, s.submit()
		}
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		sess.TypeAnswer(s.input.Value())
		return s, cmd
	}
	return s, nil
}

func (s *LessonScreen) handleMatchKey(key string) tea.Cmd {
	switch key {
	case "left", "h":
		s.column = 0
	case "right", "l":
		s.column = 1
	case "tab":
		s.column = 1 - s.column
	case "up", "k":
		if s.column == 0 && s.leftCursor > 0 {
			s.leftCursor--
		} else if s.column == 1 && s.rightCursor > 0 {
			s.rightCursor--
		}
	case "down", "j":
		if s.column == 0 && s.leftCursor < len(s.leftCol)-1 {
			s.leftCursor++
		} else if s.column == 1 && s.rightCursor < len(s.rightCol)-1 {
			s.rightCursor++
		}
	case "space", "enter":
		return s.pickMatch()
	}
	return nil
}

func (s *LessonScreen) pickMatch() tea.Cmd {
	ctrl := s.ctrl
	if s.column == 0 {
		if s.leftCursor >= len(s.leftCol) {
			return nil
		}
		v := s.leftCol[s.leftCursor]
		return func() tea.Msg {
			res, err := ctrl.SelectLeft(context.Background(), v)
			return matchedMsg{Result: res, Err: err}
		}
	}
	if s.rightCursor >= len(s.rightCol) {
		return nil
	}
	v := s.rightCol[s.rightCursor]
	return func() tea.Msg {
		res, err := ctrl.SelectRight(context.Background(), v)
		return matchedMsg{Result: res, Err: err}
	}
}

func (s *LessonScreen) handleMatched(msg matchedMsg) (screen.Screen, tea.Cmd) {
	s.report(msg.Err)
	res := msg.Result
	if !res.Matched && !res.Mismatch {
		// Only one side chosen so far; jump to the other column.
		s.column = 1 - s.column
		return s, nil
	}

	s.column = 0
	s.flashID++
	id := s.flashID
	s.flash = &flash{left: res.Left, right: res.Right, ok: res.Matched}
	d := pairFlash
	if res.Mismatch {
		d = mismatchFlash
	}
	cmds := []tea.Cmd{tea.Tick(d, func(time.Time) tea.Msg { return matchFlashDoneMsg{ID: id} })}
	if res.Completed {
		cmds = append(cmds, s.play(audio.Tone(true)))
	}
	return s, tea.Batch(cmds...)
}

func (s *LessonScreen) handleGameOverKey(msg tea.KeyPressMsg) (screen.Screen, tea.Cmd) {
	s.overMenu = s.overMenu.Update(msg)
	key := msg.String()
	if key != "enter" && key != "space" {
		return s, nil
	}
	item, ok := s.overMenu.Current()
	if !ok {
		return s, nil
	}
	if item.Label == backToOverview {
		return s, s.do(func(context.Context) error { return s.ctrl.DismissGameOver() })
	}
	if item.Disabled {
		s.notice = "Not enough gems to restore energy."
		return s, nil
	}
	s.busy = true
	ctrl := s.ctrl
	return s, func() tea.Msg {
		ok, err := ctrl.BuyLives(context.Background())
		return revivedMsg{OK: ok, Err: err}
	}
}

func (s *LessonScreen) handleSubmitted(msg submittedMsg) (screen.Screen, tea.Cmd) {
	s.busy = false
	s.report(msg.Err)
	res := msg.Result
	if res.Rejected {
		s.notice = "Complete the exercise before checking."
	}
	s.sync()

	var cmds []tea.Cmd
	if msg.Err == nil && !res.Rejected && !res.Advance {
		cmds = append(cmds, s.play(audio.Tone(res.Status == exercise.StatusCorrect)))
	}
	cmds = append(cmds, s.leaveIfDone())
	return s, tea.Batch(cmds...)
}

// do runs a controller transition off the update loop.
func (s *LessonScreen) do(fn func(context.Context) error) tea.Cmd {
	s.busy = true
	return func() tea.Msg {
		return actionDoneMsg{Err: fn(context.Background())}
	}
}

func (s *LessonScreen) submit() tea.Cmd {
	s.busy = true
	ctrl := s.ctrl
	return func() tea.Msg {
		res, err := ctrl.Submit(context.Background())
		return submittedMsg{Result: res, Err: err}
	}
}

func (s *LessonScreen) record() tea.Cmd {
	if s.deps.Recorder == nil {
		s.notice = "Microphone unavailable. Check the record command in your settings."
		return nil
	}
	if s.recording {
		return nil
	}
	s.recording = true
	rec := s.deps.Recorder
	return func() tea.Msg {
		clip, err := rec.Record(context.Background(), RecordDuration)
		return recordedMsg{Clip: clip, Err: err}
	}
}

func (s *LessonScreen) pronounce(word string) tea.Cmd {
	p := s.deps.Pronouncer
	if p == nil || !p.Available() || s.deps.Player == nil {
		s.notice = "Pronunciation audio is not configured."
		return nil
	}
	player := s.deps.Player
	return func() tea.Msg {
		clip, ok := p.Synthesize(context.Background(), word)
		if !ok {
			return playedMsg{}
		}
		return playedMsg{Err: player.Play(context.Background(), clip)}
	}
}

func (s *LessonScreen) play(clip audio.Clip) tea.Cmd {
	if s.deps.Player == nil {
		return nil
	}
	player := s.deps.Player
	return func() tea.Msg {
		return playedMsg{Err: player.Play(context.Background(), clip)}
	}
}

func (s *LessonScreen) report(err error) {
	switch {
	case err == nil:
	case errors.Is(err, exercise.ErrSubmitting), errors.Is(err, course.ErrWrongMode), errors.Is(err, course.ErrNotGraded):
		s.logger.Debug("lesson action ignored", zap.Error(err))
	default:
		s.logger.Warn("lesson action", zap.Error(err))
		s.notice = "Your progress could not be saved."
	}
}

// leaveIfDone pops the screen once the controller is back on the map.
func (s *LessonScreen) leaveIfDone() tea.Cmd {
	if s.left || s.ctrl.Mode() != course.ModeMap {
		return nil
	}
	s.left = true
	return func() tea.Msg { return router.PopScreenMsg{} }
}

// sync rebuilds the exercise widgets when the controller has moved to a
// different exercise, and refreshes the game over menu.
func (s *LessonScreen) sync() {
	if s.ctrl.Mode() == course.ModeGameOver {
		gems := s.ctrl.Progress().Gems
		s.overMenu = components.NewMenu([]components.MenuItem{
			{Label: restoreEnergy, Disabled: gems < progress.ReviveCost},
			{Label: backToOverview},
		}, s.overMenu.Selected)
	}

	sess := s.ctrl.Session()
	if sess == s.session {
		return
	}
	s.session = sess
	s.flash = nil
	s.flashID++
	s.column, s.leftCursor, s.rightCursor = 0, 0, 0
	s.recording = false
	if sess == nil {
		return
	}

	ex := sess.Exercise()
	s.choice = components.NewChoice(ex.Options)
	words := make([]string, 0, len(ex.Words))
	for _, w := range ex.Words {
		words = append(words, w.Nalibo)
	}
	s.bank = components.NewWordBank(words)
	s.input = components.NewTextInput("Your answer", "Type in Nalibo...", 200)

	s.leftCol = s.leftCol[:0]
	s.rightCol = s.rightCol[:0]
	for _, p := range ex.Pairs {
		s.leftCol = append(s.leftCol, p.Left)
		s.rightCol = append(s.rightCol, p.Right)
	}
	rand.Shuffle(len(s.rightCol), func(i, j int) {
		s.rightCol[i], s.rightCol[j] = s.rightCol[j], s.rightCol[i]
	})
}

func (s *LessonScreen) usesInput() bool {
	return s.session != nil && s.session.Exercise().Type.FreeText()
}

func (s *LessonScreen) vocab() []curriculum.Word {
	if run := s.ctrl.Lesson(); run != nil {
		return run.Lesson().Vocab
	}
	return nil
}
