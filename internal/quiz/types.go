// internal/quiz/types.go
//
// Core type definitions for the flag quiz engine.
// Defines:
//   - Outcome: classification of a resolved guess (Correct/Wrong).
//   - Phase: coarse state machine position of a game.
//   - Feedback: what the renderer shows after a guess resolves.
//   - View: read-only snapshot of a game for display.
//   - Errors returned by engine operations.

package quiz

import (
	"errors"
	"fmt"
)

// Outcome is the Correct/Wrong classification of a resolved guess.
// The string value doubles as the feedback title.
type Outcome string

const (
	OutcomeCorrect Outcome = "Correct"
	OutcomeWrong   Outcome = "Wrong"
)

// Phase is the position of a game in its state machine.
//   - awaiting_guess:   flags are on screen, one guess may be submitted.
//   - showing_feedback: the last guess resolved; waiting for "continue".
//   - game_over:        the round cap was passed; waiting for "restart".
type Phase string

const (
	PhaseAwaitingGuess   Phase = "awaiting_guess"
	PhaseShowingFeedback Phase = "showing_feedback"
	PhaseGameOver        Phase = "game_over"
)

// Feedback describes a resolved guess.
type Feedback struct {
	Outcome  Outcome `json:"outcome"`
	Title    string  `json:"title"`
	Message  string  `json:"message"`
	Tapped   string  `json:"tapped"`   // identifier of the flag actually tapped
	Guess    int     `json:"guess"`    // tapped slot, 0..2
	Score    int     `json:"score"`    // score after resolution
	Round    int     `json:"round"`    // round number after resolution
	GameOver bool    `json:"gameOver"` // true once the round cap is passed
}

// View is a snapshot of the engine state for the rendering layer.
type View struct {
	GameID    string    `json:"gameId"`
	Countries []string  `json:"countries"` // the 3 on-screen identifiers
	Prompt    string    `json:"prompt"`    // display name of the correct country
	Score     int       `json:"score"`
	Round     int       `json:"round"`
	RoundCap  int       `json:"roundCap"`
	Phase     Phase     `json:"phase"`
	Pending   bool      `json:"pending"`
	LastGuess *int      `json:"lastGuess,omitempty"`
	Feedback  *Feedback `json:"feedback,omitempty"`

	// CorrectIndex is never sent to clients.
	CorrectIndex int `json:"-"`
}

// InvalidIndexError reports a guess index outside 0..2.
type InvalidIndexError struct {
	Index int
}

func (e *InvalidIndexError) Error() string {
	return fmt.Sprintf("invalid guess index %d: must be 0..%d", e.Index, SlotCount-1)
}

var (
	ErrPoolTooSmall     = errors.New("country pool needs at least 3 countries")
	ErrDuplicateCountry = errors.New("duplicate country in pool")
	ErrGuessPending     = errors.New("guess pending")
	ErrNotAwaitingGuess = errors.New("not awaiting a guess")
	ErrNoFeedback       = errors.New("no resolved guess to continue from")
	ErrRoundAbandoned   = errors.New("round abandoned before guess resolved")
)
