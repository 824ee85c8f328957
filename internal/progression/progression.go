package progression

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nalibo/nalibopath/internal/curriculum"
	"github.com/nalibo/nalibopath/internal/progress"
)

// ErrHalted is returned when the lesson ended because lives ran out.
var ErrHalted = errors.New("lesson halted: out of lives")

// ErrFinished is returned when the lesson has already completed.
var ErrFinished = errors.New("lesson already finished")

// Ledger is the subset of progress.Ledger a progression mutates.
type Ledger interface {
	ApplyExerciseOutcome(ctx context.Context, correct bool) (progress.Outcome, error)
	ApplyLessonCompletion(ctx context.Context, lessonID string, perfect bool) (progress.Reward, error)
}

// State is where a progression stands.
type State int

const (
	StateActive State = iota
	StateFinished
	StateHalted
)

// Progression drives one run through a lesson's exercises.
type Progression struct {
	mu sync.Mutex

	lesson  curriculum.Lesson
	ledger  Ledger
	index   int
	perfect bool
	state   State

	correct   int
	incorrect int
	reward    *progress.Reward
}

// New starts a progression at the first exercise with the perfect flag set.
func New(lesson curriculum.Lesson, ledger Ledger) *Progression {
	return &Progression{
		lesson:  lesson,
		ledger:  ledger,
		perfect: true,
	}
}

// Lesson returns the lesson being played.
func (p *Progression) Lesson() curriculum.Lesson {
	return p.lesson
}

// Index returns the zero-based position of the current exercise.
func (p *Progression) Index() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.index
}

// Total returns the number of exercises in the lesson.
func (p *Progression) Total() int {
	return len(p.lesson.Exercises)
}

// Current returns the exercise at the current index.
func (p *Progression) Current() (curriculum.Exercise, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.index >= len(p.lesson.Exercises) {
		return curriculum.Exercise{}, false
	}
	return p.lesson.Exercises[p.index], true
}

// Perfect reports whether every answer so far was correct.
func (p *Progression) Perfect() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.perfect
}

// State returns the progression state.
func (p *Progression) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Counts returns the number of correct and incorrect outcomes recorded.
func (p *Progression) Counts() (correct, incorrect int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.correct, p.incorrect
}

// Reward returns the completion reward, or nil before completion.
func (p *Progression) Reward() *progress.Reward {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reward
}

// Record applies an exercise outcome to the ledger. A wrong answer
// clears the perfect flag for good. When the ledger reports that no
// lives remain the progression halts and will never award completion.
func (p *Progression) Record(ctx context.Context, correct bool) (progress.Outcome, error) {
	p.mu.Lock()
	if p.state != StateActive {
		st := p.state
		p.mu.Unlock()
		return progress.Outcome{}, stateErr(st)
	}
	if correct {
		p.correct++
	} else {
		p.incorrect++
		p.perfect = false
	}
	p.mu.Unlock()

	out, err := p.ledger.ApplyExerciseOutcome(ctx, correct)
	if out.OutOfLives {
		p.mu.Lock()
		p.state = StateHalted
		p.mu.Unlock()
	}
	return out, err
}

// Advance moves to the next exercise. After the last exercise it
// completes the lesson through the ledger and returns done.
func (p *Progression) Advance(ctx context.Context) (done bool, err error) {
	p.mu.Lock()
	if p.state != StateActive {
		st := p.state
		p.mu.Unlock()
		return st == StateFinished, stateErr(st)
	}
	if p.index < len(p.lesson.Exercises)-1 {
		p.index++
		p.mu.Unlock()
		return false, nil
	}
	p.state = StateFinished
	p.index = len(p.lesson.Exercises)
	perfect := p.perfect
	p.mu.Unlock()

	reward, err := p.ledger.ApplyLessonCompletion(ctx, p.lesson.ID, perfect)
	p.mu.Lock()
	p.reward = &reward
	p.mu.Unlock()
	if err != nil {
		return true, fmt.Errorf("complete lesson %s: %w", p.lesson.ID, err)
	}
	return true, nil
}

func stateErr(s State) error {
	switch s {
	case StateHalted:
		return ErrHalted
	case StateFinished:
		return ErrFinished
	}
	return nil
}
