// internal/quiz/engine.go
//
// Core game engine for a single flag quiz session.
// Responsibilities:
//   - Build rounds: shuffle the country pool, show the first 3, pick the answer slot.
//   - Validate guesses and resolve them after a cosmetic feedback delay.
//   - Track score and round number across a fixed number of rounds.
//   - Track state transitions: awaiting_guess → showing_feedback → game_over.
//
// Notes:
//   - All state sits behind one mutex; timer callbacks and HTTP handlers run
//     on different goroutines.
//   - Only one guess may be in flight. A resolution for a round that was
//     replaced (new round / reset) fires but changes nothing.
//   - Observers are called outside the lock, one View at a time, in the order
//     the state changes happened. The mutating call returns only after its
//     View was delivered, so observers must not call mutating methods.
package quiz

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// SlotCount is the number of flags shown per round.
	SlotCount = 3
	// DefaultRoundCap is the number of rounds in a game.
	DefaultRoundCap = 8
	// DefaultDelay is the feedback animation window before a guess resolves.
	DefaultDelay = time.Second
)

// Engine owns the state of one game.
type Engine struct {
	mu sync.Mutex

	id       string
	pool     []string
	onScreen []string
	correct  int
	round    int
	score    int
	guess    *int
	phase    Phase
	pending  *Pending
	feedback *Feedback
	gen      uint64 // bumped whenever a new round replaces the current one
	started  time.Time

	// ordered observer delivery
	outbox      []View
	dispatching bool
	queued      uint64
	delivered   uint64
	deliveredC  *sync.Cond

	roundCap  int
	delay     time.Duration
	rng       RandomSource
	sched     Scheduler
	display   func(string) string
	now       func() time.Time
	observers []func(View)
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand sets the random source (use NewSeededRNG for reproducible games).
func WithRand(r RandomSource) Option { return func(e *Engine) { e.rng = r } }

// WithScheduler sets how deferred resolutions are scheduled.
func WithScheduler(s Scheduler) Option { return func(e *Engine) { e.sched = s } }

// WithDelay sets the feedback delay. Negative values are treated as zero.
func WithDelay(d time.Duration) Option {
	return func(e *Engine) {
		if d < 0 {
			d = 0
		}
		e.delay = d
	}
}

// WithRoundCap sets the number of rounds; values < 1 keep the default.
func WithRoundCap(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.roundCap = n
		}
	}
}

// WithClock sets the clock used for StartedAt.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithID overrides the generated game ID.
func WithID(id string) Option { return func(e *Engine) { e.id = id } }

// WithDisplayNames maps identifiers to display names for prompts and messages.
func WithDisplayNames(fn func(string) string) Option {
	return func(e *Engine) {
		if fn != nil {
			e.display = fn
		}
	}
}

// New constructs an engine over pool and starts round 1.
// The pool is copied; it must hold at least SlotCount unique identifiers.
func New(pool []string, opts ...Option) (*Engine, error) {
	if len(pool) < SlotCount {
		return nil, ErrPoolTooSmall
	}
	seen := make(map[string]struct{}, len(pool))
	for _, c := range pool {
		if _, dup := seen[c]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateCountry, c)
		}
		seen[c] = struct{}{}
	}

	e := &Engine{
		id:       uuid.NewString(),
		pool:     append([]string(nil), pool...),
		onScreen: make([]string, SlotCount),
		roundCap: DefaultRoundCap,
		delay:    DefaultDelay,
		display:  func(s string) string { return s },
		now:      time.Now,
	}
	e.deliveredC = sync.NewCond(&e.mu)
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = DefaultRNG()
	}
	if e.sched == nil {
		e.sched = DefaultScheduler()
	}

	e.round = 1
	e.started = e.now()
	e.startRoundLocked()
	return e, nil
}

// ID returns the game identifier.
func (e *Engine) ID() string { return e.id }

// Subscribe registers fn to receive a View after every state change.
func (e *Engine) Subscribe(fn func(View)) {
	e.mu.Lock()
	e.observers = append(e.observers, fn)
	e.mu.Unlock()
}

// StartNewRound reshuffles the pool, puts 3 distinct flags on screen,
// picks a new answer slot and clears the last guess. It always succeeds.
func (e *Engine) StartNewRound() {
	e.mu.Lock()
	e.startRoundLocked()
	e.unlockAndNotify()
}

// startRoundLocked is StartNewRound without locking or notification.
func (e *Engine) startRoundLocked() {
	e.gen++
	e.pending = nil
	shuffle(e.rng, e.pool)
	copy(e.onScreen, e.pool[:SlotCount])
	e.correct = e.rng.IntN(SlotCount)
	e.guess = nil
	e.feedback = nil
	if e.round > e.roundCap {
		e.phase = PhaseGameOver
	} else {
		e.phase = PhaseAwaitingGuess
	}
}

// Guess records a guess and schedules its resolution after the feedback delay.
// It returns immediately with a handle that completes when the resolution fires.
//
// Validation (nothing is mutated or scheduled on failure):
//   - index must be in 0..2 → *InvalidIndexError
//   - no other guess may be in flight → ErrGuessPending
//   - the game must be awaiting a guess → ErrNotAwaitingGuess
func (e *Engine) Guess(index int) (*Pending, error) {
	if index < 0 || index >= SlotCount {
		return nil, &InvalidIndexError{Index: index}
	}

	e.mu.Lock()
	if e.pending != nil {
		e.mu.Unlock()
		return nil, ErrGuessPending
	}
	if e.phase != PhaseAwaitingGuess {
		e.mu.Unlock()
		return nil, ErrNotAwaitingGuess
	}
	g := index
	e.guess = &g
	p := &Pending{
		done:    make(chan struct{}),
		gen:     e.gen,
		index:   index,
		correct: index == e.correct,
		tapped:  e.onScreen[index],
	}
	e.pending = p
	sched, delay := e.sched, e.delay
	e.unlockAndNotify()

	sched.AfterFunc(delay, func() { e.resolve(p) })
	return p, nil
}

// SubmitGuess is Guess followed by waiting for the resolution.
// If ctx ends first ctx.Err() is returned; the resolution still fires.
func (e *Engine) SubmitGuess(ctx context.Context, index int) (Feedback, error) {
	p, err := e.Guess(index)
	if err != nil {
		return Feedback{}, err
	}
	select {
	case <-p.Done():
		return p.Result()
	case <-ctx.Done():
		return Feedback{}, ctx.Err()
	}
}

// resolve applies a pending guess: score, round, feedback, phase.
func (e *Engine) resolve(p *Pending) {
	e.mu.Lock()
	if p.gen != e.gen {
		e.mu.Unlock()
		p.err = ErrRoundAbandoned
		close(p.done)
		return
	}
	e.pending = nil
	if p.correct {
		e.score++
	}
	e.round++
	fb := e.feedbackLocked(p)
	e.feedback = &fb
	e.phase = PhaseShowingFeedback
	p.fb = fb
	e.unlockAndNotify()
	// observers have run by the time waiters wake
	close(p.done)
}

// feedbackLocked builds the title and message shown after a guess.
func (e *Engine) feedbackLocked(p *Pending) Feedback {
	fb := Feedback{
		Outcome:  OutcomeWrong,
		Tapped:   p.tapped,
		Guess:    p.index,
		Score:    e.score,
		Round:    e.round,
		GameOver: e.round > e.roundCap,
	}
	if p.correct {
		fb.Outcome = OutcomeCorrect
	}
	fb.Title = string(fb.Outcome)

	switch {
	case fb.GameOver:
		fb.Message = fmt.Sprintf("Your total score of this round is %d", e.score)
	case p.correct:
		fb.Message = fmt.Sprintf("Your score is %d", e.score)
	default:
		fb.Message = fmt.Sprintf("Wrong! That's the flag of %s", e.display(p.tapped))
	}
	return fb
}

// Advance handles "continue" after feedback: a new round, or game over once
// the round cap has been passed. Returns ErrNoFeedback outside showing_feedback.
func (e *Engine) Advance() error {
	e.mu.Lock()
	if e.phase != PhaseShowingFeedback {
		e.mu.Unlock()
		return ErrNoFeedback
	}
	if e.round > e.roundCap {
		e.phase = PhaseGameOver
	} else {
		e.startRoundLocked()
	}
	e.unlockAndNotify()
	return nil
}

// ResetGame restores round 1 and score 0 and starts a new round.
// A guess still in flight is abandoned. It returns the state just before
// the reset, taken under the same lock.
func (e *Engine) ResetGame() View {
	e.mu.Lock()
	prev := e.viewLocked()
	e.round = 1
	e.score = 0
	e.started = e.now()
	e.startRoundLocked()
	e.unlockAndNotify()
	return prev
}

// IsGameOver reports whether the round cap has been passed.
func (e *Engine) IsGameOver() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.round > e.roundCap
}

// Score returns the current score.
func (e *Engine) Score() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.score
}

// Round returns the current round number (1-based; cap+1 once over).
func (e *Engine) Round() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.round
}

// Phase returns the current state machine phase.
func (e *Engine) Phase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

// CorrectIndex returns the answer slot of the current round.
func (e *Engine) CorrectIndex() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.correct
}

// StartedAt returns when the game (or its last reset) began.
func (e *Engine) StartedAt() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.started
}

// View returns a snapshot for rendering.
func (e *Engine) View() View {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.viewLocked()
}

func (e *Engine) viewLocked() View {
	v := View{
		GameID:       e.id,
		Countries:    append([]string(nil), e.onScreen...),
		Prompt:       e.display(e.onScreen[e.correct]),
		Score:        e.score,
		Round:        e.round,
		RoundCap:     e.roundCap,
		Phase:        e.phase,
		Pending:      e.pending != nil,
		CorrectIndex: e.correct,
	}
	if e.guess != nil {
		g := *e.guess
		v.LastGuess = &g
	}
	if e.feedback != nil {
		fb := *e.feedback
		v.Feedback = &fb
	}
	return v
}

// unlockAndNotify queues a snapshot for the observers and releases the lock
// once that snapshot has been delivered. Whichever caller finds nobody
// dispatching drains the queue; the others wait for their turn.
func (e *Engine) unlockAndNotify() {
	if len(e.observers) == 0 {
		e.mu.Unlock()
		return
	}
	e.outbox = append(e.outbox, e.viewLocked())
	e.queued++
	mine := e.queued

	if !e.dispatching {
		e.dispatching = true
		for len(e.outbox) > 0 {
			v := e.outbox[0]
			e.outbox = e.outbox[1:]
			obs := e.observers
			e.mu.Unlock()
			for _, fn := range obs {
				fn(v)
			}
			e.mu.Lock()
			e.delivered++
			e.deliveredC.Broadcast()
		}
		e.dispatching = false
	}
	for e.delivered < mine {
		e.deliveredC.Wait()
	}
	e.mu.Unlock()
}

// Pending is a submitted guess awaiting its deferred resolution.
type Pending struct {
	done chan struct{}
	fb   Feedback
	err  error

	gen     uint64
	index   int
	correct bool
	tapped  string
}

// Done is closed once the resolution has fired.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Result blocks until the resolution fires and returns its feedback.
// It returns ErrRoundAbandoned if the round was replaced first.
func (p *Pending) Result() (Feedback, error) {
	<-p.done
	return p.fb, p.err
}
