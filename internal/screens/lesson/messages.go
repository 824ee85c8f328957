package lesson

import (
	"github.com/nalibo/nalibopath/internal/audio"
	"github.com/nalibo/nalibopath/internal/exercise"
)

// actionDoneMsg is sent when a controller transition has finished.
type actionDoneMsg struct {
	Err error
}

// submittedMsg carries the result of submitting the current exercise.
type submittedMsg struct {
	Result exercise.Result
	Err    error
}

// matchedMsg carries the result of picking a matching term.
type matchedMsg struct {
	Result exercise.MatchResult
	Err    error
}

// matchFlashDoneMsg clears the highlight of an evaluated pair.
type matchFlashDoneMsg struct {
	ID int
}

// recordedMsg is sent when microphone capture ends.
type recordedMsg struct {
	Clip audio.Clip
	Err  error
}

// playedMsg is sent when a clip has finished playing.
type playedMsg struct {
	Err error
}

// revivedMsg carries the outcome of spending gems on lives.
type revivedMsg struct {
	OK  bool
	Err error
}
