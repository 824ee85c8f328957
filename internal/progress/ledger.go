package progress

import (
	"context"
	"fmt"
	"sync"
)

// Saver persists a learner's progress record.
type Saver interface {
	SaveProgress(ctx context.Context, p Progress) error
}

// SaverFunc adapts a function to the Saver interface.
type SaverFunc func(ctx context.Context, p Progress) error

func (f SaverFunc) SaveProgress(ctx context.Context, p Progress) error { return f(ctx, p) }

// ChangeKind names the operation that produced a Change.
type ChangeKind string

const (
	ChangeExerciseOutcome ChangeKind = "exercise_outcome"
	ChangeLessonComplete  ChangeKind = "lesson_complete"
	ChangeRevive          ChangeKind = "revive"
	ChangeLessonStarted   ChangeKind = "lesson_started"
)

// Change is delivered to observers after every mutation.
type Change struct {
	Kind     ChangeKind
	Before   Progress
	After    Progress
	LessonID string
}

// Outcome describes the effect of recording one exercise answer.
type Outcome struct {
	Correct    bool
	XPGained   int
	LivesLost  int
	OutOfLives bool
}

// Reward describes the effect of completing a lesson.
type Reward struct {
	LessonID        string
	Perfect         bool
	XPGained        int
	GemsGained      int
	FirstCompletion bool
}

// Ledger owns one learner's progress for the duration of a session.
// Every mutation is persisted through the Saver and then published to
// observers. A failed save is returned to the caller; the in-memory
// record keeps the mutation so the next successful save carries it.
type Ledger struct {
	mu        sync.Mutex
	p         Progress
	saver     Saver
	observers map[int]func(Change)
	nextObs   int
}

// NewLedger creates a Ledger seeded with p. saver may be nil.
func NewLedger(p Progress, saver Saver) *Ledger {
	return &Ledger{
		p:         p.Clone(),
		saver:     saver,
		observers: make(map[int]func(Change)),
	}
}

// Snapshot returns a copy of the current record.
func (l *Ledger) Snapshot() Progress {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.p.Clone()
}

// Subscribe registers fn to receive every Change. The returned function
// removes the subscription.
func (l *Ledger) Subscribe(fn func(Change)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.nextObs
	l.nextObs++
	l.observers[id] = fn
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.observers, id)
	}
}

// ApplyExerciseOutcome records one graded answer. A correct answer adds
// CorrectXP and never touches lives. An incorrect answer removes one life
// with a floor of zero; OutOfLives is set when no lives remain.
func (l *Ledger) ApplyExerciseOutcome(ctx context.Context, correct bool) (Outcome, error) {
	var out Outcome
	err := l.mutate(ctx, ChangeExerciseOutcome, "", func(p *Progress) bool {
		out.Correct = correct
		if correct {
			p.XP += CorrectXP
			out.XPGained = CorrectXP
			return true
		}
		if p.Lives > 0 {
			p.Lives--
			out.LivesLost = 1
		}
		out.OutOfLives = p.Lives == 0
		return true
	})
	return out, err
}

// ApplyLessonCompletion awards the lesson bonus. The lesson ID is added
// to the completed set at most once; xp, gems and streak are awarded on
// every call.
func (l *Ledger) ApplyLessonCompletion(ctx context.Context, lessonID string, perfect bool) (Reward, error) {
	r := Reward{LessonID: lessonID, Perfect: perfect, XPGained: LessonXP, GemsGained: StandardGems}
	if perfect {
		r.GemsGained = PerfectGems
	}
	err := l.mutate(ctx, ChangeLessonComplete, lessonID, func(p *Progress) bool {
		if !p.HasCompleted(lessonID) {
			p.Completed = append(p.Completed, lessonID)
			r.FirstCompletion = true
		}
		p.XP += r.XPGained
		p.Gems += r.GemsGained
		p.Streak++
		return true
	})
	return r, err
}

// SpendGemsForLives trades cost gems for a full set of restored lives.
// It is a no-op returning false when the learner holds fewer than cost gems.
func (l *Ledger) SpendGemsForLives(ctx context.Context, cost, restored int) (bool, error) {
	if cost < 0 || restored < 0 || restored > MaxLives {
		return false, fmt.Errorf("invalid revive terms: cost=%d restored=%d", cost, restored)
	}

	spent := false
	err := l.mutate(ctx, ChangeRevive, "", func(p *Progress) bool {
		if p.Gems < cost {
			return false
		}
		p.Gems -= cost
		p.Lives = restored
		spent = true
		return true
	})
	return spent, err
}

// StartLesson records the lesson the learner is working on.
func (l *Ledger) StartLesson(ctx context.Context, lessonID string) error {
	return l.mutate(ctx, ChangeLessonStarted, lessonID, func(p *Progress) bool {
		p.CurrentLessonID = lessonID
		return true
	})
}

// mutate applies fn under the lock. Nothing is saved or published when
// fn reports no change.
func (l *Ledger) mutate(ctx context.Context, kind ChangeKind, lessonID string, fn func(*Progress) bool) error {
	l.mu.Lock()
	before := l.p.Clone()
	if !fn(&l.p) {
		l.mu.Unlock()
		return nil
	}
	after := l.p.Clone()
	observers := make([]func(Change), 0, len(l.observers))
	for _, o := range l.observers {
		observers = append(observers, o)
	}
	l.mu.Unlock()

	var err error
	if l.saver != nil {
		if serr := l.saver.SaveProgress(ctx, after); serr != nil {
			err = fmt.Errorf("save progress: %w", serr)
		}
	}

	change := Change{Kind: kind, Before: before, After: after, LessonID: lessonID}
	for _, o := range observers {
		o(change)
	}
	return err
}
