// Package account manages learner sign-up, sign-in and the signed-in
// session, and persists each learner's progress record.
package account

import (
	"github.com/nalibo/nalibopath/internal/curriculum"
	"github.com/nalibo/nalibopath/internal/progress"
)

// PremiumKeyMinLen is the API key length above which the premium tutor
// is unlocked.
const PremiumKeyMinLen = 10

// User is a registered learner.
type User struct {
	Username     string
	PasswordHash string
	APIKey       string
	Progress     progress.Progress

	// SeenNotes is the last release-notes version the user acknowledged.
	SeenNotes string
}

// IsPremium reports whether the user's key unlocks the tutor chat.
func (u *User) IsPremium() bool {
	return u != nil && len(u.APIKey) > PremiumKeyMinLen
}

func (u *User) clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.Progress = u.Progress.Clone()
	return &c
}

// Standing is one row of the leaderboard.
type Standing struct {
	Rank     int
	Username string
	XP       int
	Streak   int
	Level    curriculum.Level
}
