package exercise

import (
	"context"
	"slices"

	"github.com/nalibo/nalibopath/internal/curriculum"
)

// SelectLeft picks a term from the left column of a matching exercise.
func (s *Session) SelectLeft(ctx context.Context, left string) MatchResult {
	return s.selectSide(ctx, left, true)
}

// SelectRight picks a term from the right column of a matching exercise.
func (s *Session) SelectRight(ctx context.Context, right string) MatchResult {
	return s.selectSide(ctx, right, false)
}

// selectSide records a pending selection. Once both sides are pending
// they are compared against the reference pairs: a correct pair is
// marked matched, a wrong one only clears the selection. Matching the
// final pair grades the exercise correct.
func (s *Session) selectSide(ctx context.Context, value string, left bool) MatchResult {
	s.mu.Lock()
	if s.ex.Type != curriculum.Matching || s.status != StatusIdle || s.isMatchedLocked(value, left) {
		s.mu.Unlock()
		return MatchResult{}
	}
	if left {
		s.pendingLeft = value
	} else {
		s.pendingRight = value
	}
	if s.pendingLeft == "" || s.pendingRight == "" {
		s.mu.Unlock()
		return MatchResult{}
	}

	res := MatchResult{Left: s.pendingLeft, Right: s.pendingRight}
	s.pendingLeft, s.pendingRight = "", ""

	idx := slices.IndexFunc(s.ex.Pairs, func(p curriculum.Pair) bool {
		return p.Left == res.Left && p.Right == res.Right
	})
	if idx < 0 || s.matched[idx] {
		res.Mismatch = true
		s.mu.Unlock()
		return res
	}

	res.Matched = true
	s.matched[idx] = true
	if len(s.matched) == len(s.ex.Pairs) {
		res.Completed = true
		s.feedback = FeedbackMatchComplete
	}
	s.mu.Unlock()

	if res.Completed {
		s.grade(ctx, true)
	}
	return res
}

func (s *Session) isMatchedLocked(value string, left bool) bool {
	for i, p := range s.ex.Pairs {
		if !s.matched[i] {
			continue
		}
		if (left && p.Left == value) || (!left && p.Right == value) {
			return true
		}
	}
	return false
}

// Pending returns the current unpaired selections.
func (s *Session) Pending() (left, right string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingLeft, s.pendingRight
}

// IsMatched reports whether value has been matched on the given side.
func (s *Session) IsMatched(value string, left bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isMatchedLocked(value, left)
}

// MatchedCount returns how many pairs are matched.
func (s *Session) MatchedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.matched)
}
