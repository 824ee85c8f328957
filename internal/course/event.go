package course

import (
	"github.com/nalibo/nalibopath/internal/progress"
)

// EventKind classifies controller events.
type EventKind int

const (
	// EventModeChanged carries the new Mode.
	EventModeChanged EventKind = iota

	// EventViewChanged carries the new View.
	EventViewChanged

	// EventAnswerGraded carries the ledger Outcome of a graded exercise.
	EventAnswerGraded

	// EventProgress carries the learner's record after a ledger change.
	EventProgress
)

// Event is published on the controller's channel. Only the fields
// relevant to Kind are set.
type Event struct {
	Kind     EventKind
	Mode     Mode
	View     View
	LessonID string
	Outcome  progress.Outcome
	Progress progress.Progress
	Reward   *progress.Reward
}

const defaultEventBuffer = 32
