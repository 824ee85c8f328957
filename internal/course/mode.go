// Package course selects what the learner is looking at. It walks a
// lesson from the map through objectives, story, vocabulary and
// exercises, and owns the delayed switch to game over. Scoring stays in
// the exercise, progression and progress packages.
package course

import (
	"errors"
	"time"
)

// Mode is the active screen of the lesson path.
type Mode int

const (
	ModeMap Mode = iota
	ModeObjectives
	ModeStory
	ModeVocab
	ModeExercise
	ModeFinished
	ModeGameOver
	ModeTutorChat
)

func (m Mode) String() string {
	switch m {
	case ModeMap:
		return "map"
	case ModeObjectives:
		return "objectives"
	case ModeStory:
		return "story"
	case ModeVocab:
		return "vocab"
	case ModeExercise:
		return "exercise"
	case ModeFinished:
		return "finished"
	case ModeGameOver:
		return "gameover"
	case ModeTutorChat:
		return "tutor_chat"
	}
	return "unknown"
}

// InLesson reports whether m belongs to a running lesson.
func (m Mode) InLesson() bool {
	return m >= ModeObjectives && m <= ModeExercise
}

// View is the top-level toggle between the app and the leaderboard.
type View int

const (
	ViewApp View = iota
	ViewLeaderboard
)

func (v View) String() string {
	if v == ViewLeaderboard {
		return "leaderboard"
	}
	return "app"
}

// GameOverDelay is how long the last wrong answer stays on screen
// before the game over mode takes over.
const GameOverDelay = 1500 * time.Millisecond

var (
	// ErrLocked is returned when a lesson's predecessor is not completed.
	ErrLocked = errors.New("lesson is locked")

	// ErrWrongMode is returned when an action is not available in the
	// current mode. The mode is left unchanged.
	ErrWrongMode = errors.New("action not available in this mode")

	// ErrNotGraded is returned by Continue before the exercise is graded.
	ErrNotGraded = errors.New("exercise not graded yet")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("controller closed")
)

// Timer is a pending one-shot callback.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f to run once after d.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
