package progression

import (
	"context"
	"errors"
	"testing"

	"github.com/nalibo/nalibopath/internal/curriculum"
	"github.com/nalibo/nalibopath/internal/progress"
)

func threeExerciseLesson() curriculum.Lesson {
	return curriculum.Lesson{
		ID: "1",
		Exercises: []curriculum.Exercise{
			{ID: "1-1"}, {ID: "1-2"}, {ID: "1-3"},
		},
	}
}

func TestPerfectRun(t *testing.T) {
	ctx := context.Background()
	ledger := progress.NewLedger(progress.New(), nil)
	p := New(threeExerciseLesson(), ledger)

	for i := 0; i < 3; i++ {
		if got := p.Index(); got != i {
			t.Fatalf("index = %d, want %d", got, i)
		}
		if _, err := p.Record(ctx, true); err != nil {
			t.Fatalf("Record: %v", err)
		}
		done, err := p.Advance(ctx)
		if err != nil {
			t.Fatalf("Advance: %v", err)
		}
		if done != (i == 2) {
			t.Fatalf("done = %v after exercise %d", done, i)
		}
	}

	if p.State() != StateFinished {
		t.Errorf("state = %v, want finished", p.State())
	}
	r := p.Reward()
	if r == nil || !r.Perfect || r.GemsGained != progress.PerfectGems {
		t.Fatalf("unexpected reward: %+v", r)
	}
	got := ledger.Snapshot()
	if got.XP != 3*progress.CorrectXP+progress.LessonXP {
		t.Errorf("xp = %d, want %d", got.XP, 3*progress.CorrectXP+progress.LessonXP)
	}
	if got.Gems != 25 || got.Streak != 1 {
		t.Errorf("gems = %d streak = %d, want 25 and 1", got.Gems, got.Streak)
	}
}

func TestWrongAnswerClearsPerfect(t *testing.T) {
	ctx := context.Background()
	ledger := progress.NewLedger(progress.New(), nil)
	p := New(threeExerciseLesson(), ledger)

	answers := []bool{true, false, true}
	for _, a := range answers {
		if _, err := p.Record(ctx, a); err != nil {
			t.Fatalf("Record: %v", err)
		}
		if _, err := p.Advance(ctx); err != nil {
			t.Fatalf("Advance: %v", err)
		}
	}

	if p.Perfect() {
		t.Error("perfect flag should be cleared after a wrong answer")
	}
	if r := p.Reward(); r == nil || r.GemsGained != progress.StandardGems {
		t.Errorf("unexpected reward: %+v", r)
	}
	correct, incorrect := p.Counts()
	if correct != 2 || incorrect != 1 {
		t.Errorf("counts = %d/%d, want 2/1", correct, incorrect)
	}
}

func TestHaltOnLastLife(t *testing.T) {
	ctx := context.Background()
	start := progress.New()
	start.Lives = 1
	ledger := progress.NewLedger(start, nil)
	p := New(threeExerciseLesson(), ledger)

	out, err := p.Record(ctx, false)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if !out.OutOfLives {
		t.Fatal("expected OutOfLives")
	}
	if p.State() != StateHalted {
		t.Fatalf("state = %v, want halted", p.State())
	}

	if _, err := p.Advance(ctx); !errors.Is(err, ErrHalted) {
		t.Fatalf("Advance err = %v, want ErrHalted", err)
	}
	if _, err := p.Record(ctx, true); !errors.Is(err, ErrHalted) {
		t.Fatalf("Record err = %v, want ErrHalted", err)
	}
	if got := ledger.Snapshot(); got.Streak != 0 || len(got.Completed) != 0 {
		t.Errorf("halted lesson must not complete: %+v", got)
	}
}

func TestAdvanceAfterFinish(t *testing.T) {
	ctx := context.Background()
	ledger := progress.NewLedger(progress.New(), nil)
	p := New(curriculum.Lesson{ID: "x", Exercises: []curriculum.Exercise{{ID: "x-1"}}}, ledger)

	if done, err := p.Advance(ctx); err != nil || !done {
		t.Fatalf("Advance = %v, %v", done, err)
	}
	done, err := p.Advance(ctx)
	if !done || !errors.Is(err, ErrFinished) {
		t.Fatalf("second Advance = %v, %v; want true, ErrFinished", done, err)
	}
	if _, ok := p.Current(); ok {
		t.Error("Current should report no exercise after finishing")
	}
	if ledger.Snapshot().Streak != 1 {
		t.Error("completion must be applied once")
	}
}
