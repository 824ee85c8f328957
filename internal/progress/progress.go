package progress

import (
	"slices"

	"github.com/nalibo/nalibopath/internal/curriculum"
)

// Reward and penalty constants.
const (
	CorrectXP    = 20
	LessonXP     = 100
	PerfectGems  = 15
	StandardGems = 5
	MaxLives     = 5
	ReviveCost   = 10
	StartingGems = 10
)

// Progress is the durable per-learner record.
type Progress struct {
	// XP only ever grows.
	XP int `json:"xp"`

	// Gems are spendable and never negative.
	Gems int `json:"gems"`

	// Lives are bounded to 0..MaxLives.
	Lives int `json:"lives"`

	// Streak counts completed lessons and only ever grows.
	Streak int `json:"streak"`

	// Completed holds lesson IDs in completion order, without duplicates.
	Completed []string `json:"completed_lessons"`

	CurrentLessonID string           `json:"current_lesson_id"`
	Level           curriculum.Level `json:"proficiency_level"`
}

// New returns the progress record of a freshly signed-up learner.
func New() Progress {
	return Progress{
		Gems:            StartingGems,
		Lives:           MaxLives,
		Completed:       []string{},
		CurrentLessonID: "1",
		Level:           curriculum.LevelNoviceLow,
	}
}

// HasCompleted reports whether lessonID is in the completed set.
func (p Progress) HasCompleted(lessonID string) bool {
	return slices.Contains(p.Completed, lessonID)
}

// Clone returns a deep copy.
func (p Progress) Clone() Progress {
	p.Completed = slices.Clone(p.Completed)
	return p
}
