package quiz

import (
	"errors"
	"math"
	"math/rand"
	"sync"
	"time"

	"tune-trivia-service/internal/domain"
)

// State is the engine's position in one game session.
type State string

const (
	StateIdle       State = "idle"
	StateLoading    State = "loading"
	StateAnnouncing State = "announcing"
	StatePlaying    State = "playing"
	StateResult     State = "result"
	StateFinished   State = "finished"
)

// Mode selects how answers are evaluated.
type Mode string

const (
	// ModeFreeText evaluates typed guesses with fuzzy containment matching.
	ModeFreeText Mode = "text"
	// ModeChoices presents a shuffled option set; exact title match wins.
	ModeChoices Mode = "choices"
)

const (
	// RoundReward is added exactly once per correct round.
	RoundReward = 100

	// selectionAttempts bounds the random-index retry loop; after that a
	// repeat is accepted instead of spinning forever on tiny playlists.
	selectionAttempts = 200

	defaultAnnounceDelay = 2 * time.Second
	defaultAdvanceDelay  = 6 * time.Second
)

var (
	ErrNoSongs     = errors.New("playlist has no songs")
	ErrNotStarted  = errors.New("game not started")
	ErrNotPlaying  = errors.New("no round in progress")
	ErrNotInResult = errors.New("no round result to advance from")
	ErrWrongMode   = errors.New("answer does not match the game mode")
)

// EventType tags engine events.
type EventType string

const (
	EventRoundStarted EventType = "roundStarted"
	EventRoundResult  EventType = "roundResult"
	EventGameOver     EventType = "gameOver"
)

// Event is what the engine emits to its consumer. RoundStarted carries the
// video to play and, in choices mode, the option set; it never carries the
// answer title.
type Event struct {
	Type        EventType `json:"type"`
	Round       int       `json:"round,omitempty"`
	TotalRounds int       `json:"totalRounds,omitempty"`
	Score       int       `json:"score"`
	VideoID     string    `json:"videoId,omitempty"`
	Thumbnail   string    `json:"thumbnail,omitempty"`
	Choices     []string  `json:"choices,omitempty"`
	Correct     bool      `json:"correct"`
	Answer      string    `json:"answer,omitempty"`
	Accuracy    int       `json:"accuracy"`
}

// Options configure one engine instance.
type Options struct {
	// Rounds requested; <= 0 means "all songs".
	Rounds int
	Mode   Mode
	// RoundTime is the per-round countdown; 0 means untimed.
	RoundTime     time.Duration
	AnnounceDelay time.Duration
	AdvanceDelay  time.Duration
	Scheduler     Scheduler
	Rand          *rand.Rand
}

// Engine drives one quiz session: Idle → Loading → Announcing → Playing ⇄
// Result → Finished. All timer callbacks are generation-checked so a timer
// superseded by a manual action can never act on a later round's state.
type Engine struct {
	mu sync.Mutex

	state    State
	mode     Mode
	playlist domain.ResolvedPlaylist

	requestedRounds int
	totalRounds     int
	round           int
	score           int
	played          map[int]struct{}
	currentIdx      int
	choices         []string

	roundTime     time.Duration
	announceDelay time.Duration
	advanceDelay  time.Duration

	scheduler     Scheduler
	rnd           *rand.Rand
	gen           int
	cancelPending func()

	events chan Event
}

func NewEngine(opts Options) *Engine {
	scheduler := opts.Scheduler
	if scheduler == nil {
		scheduler = WallClockScheduler{}
	}
	rnd := opts.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	mode := opts.Mode
	if mode == "" {
		mode = ModeFreeText
	}
	announce := opts.AnnounceDelay
	if announce <= 0 {
		announce = defaultAnnounceDelay
	}
	advance := opts.AdvanceDelay
	if advance <= 0 {
		advance = defaultAdvanceDelay
	}
	return &Engine{
		state:           StateIdle,
		mode:            mode,
		requestedRounds: opts.Rounds,
		played:          make(map[int]struct{}),
		roundTime:       opts.RoundTime,
		announceDelay:   announce,
		advanceDelay:    advance,
		scheduler:       scheduler,
		rnd:             rnd,
		events:          make(chan Event, 32),
	}
}

// Events exposes the engine's event stream.
func (e *Engine) Events() <-chan Event { return e.events }

// BeginLoading marks the session as resolving its playlist; Start moves it
// on to Announcing once the songs arrive.
func (e *Engine) BeginLoading() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateIdle {
		e.state = StateLoading
	}
}

// Snapshot is a read-only view for transports and tests.
type Snapshot struct {
	State       State
	Round       int
	TotalRounds int
	Score       int
	CurrentSong domain.PlaylistSong
	Choices     []string
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	snap := Snapshot{
		State:       e.state,
		Round:       e.round,
		TotalRounds: e.totalRounds,
		Score:       e.score,
		Choices:     append([]string(nil), e.choices...),
	}
	if e.round > 0 && e.currentIdx < len(e.playlist.Songs) {
		snap.CurrentSong = e.playlist.Songs[e.currentIdx]
	}
	return snap
}

// Start feeds the resolved playlist in and schedules the announcing
// transition before round one.
func (e *Engine) Start(playlist domain.ResolvedPlaylist) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateIdle && e.state != StateLoading {
		return ErrNotStarted
	}
	if len(playlist.Songs) == 0 {
		return ErrNoSongs
	}

	e.playlist = playlist
	e.totalRounds = len(playlist.Songs)
	if e.requestedRounds > 0 && e.requestedRounds < e.totalRounds {
		e.totalRounds = e.requestedRounds
	}

	e.gen++
	e.state = StateAnnouncing
	e.scheduleLocked(e.announceDelay, e.beginRoundLocked)
	return nil
}

// SubmitGuess evaluates a free-text guess for the current round.
func (e *Engine) SubmitGuess(guess string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StatePlaying {
		return false, ErrNotPlaying
	}
	if e.mode != ModeFreeText {
		return false, ErrWrongMode
	}
	correct := IsCorrectGuess(guess, e.playlist.Songs[e.currentIdx].Title)
	e.finishRoundLocked(correct)
	return correct, nil
}

// SelectChoice evaluates a multiple-choice pick for the current round.
func (e *Engine) SelectChoice(title string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StatePlaying {
		return false, ErrNotPlaying
	}
	if e.mode != ModeChoices {
		return false, ErrWrongMode
	}
	correct := title == e.playlist.Songs[e.currentIdx].Title
	e.finishRoundLocked(correct)
	return correct, nil
}

// Advance moves to the next round (or Finished) ahead of the auto-advance.
func (e *Engine) Advance() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateResult {
		return ErrNotInResult
	}
	e.advanceLocked()
	return nil
}

// Stop cancels pending timers and terminates the session.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.gen++
	e.cancelPendingLocked()
	e.state = StateFinished
}

func (e *Engine) beginRoundLocked() {
	e.gen++
	e.cancelPendingLocked()
	e.round++

	idx := e.pickIndexLocked()
	e.currentIdx = idx
	e.played[idx] = struct{}{}
	e.state = StatePlaying

	song := e.playlist.Songs[idx]
	if e.mode == ModeChoices {
		titles := make([]string, len(e.playlist.Songs))
		for i, s := range e.playlist.Songs {
			titles[i] = s.Title
		}
		e.choices = BuildChoices(titles, idx, e.rnd)
	} else {
		e.choices = nil
	}

	e.emitLocked(Event{
		Type:        EventRoundStarted,
		Round:       e.round,
		TotalRounds: e.totalRounds,
		Score:       e.score,
		VideoID:     song.ID,
		Thumbnail:   song.Thumbnail,
		Choices:     e.choices,
	})

	if e.roundTime > 0 {
		e.scheduleLocked(e.roundTime, func() {
			// Countdown expiry is an automatic wrong answer.
			if e.state == StatePlaying {
				e.finishRoundLocked(false)
			}
		})
	}
}

// pickIndexLocked draws a uniform random unplayed index, accepting a repeat
// after the attempt bound so small playlists degrade instead of deadlocking.
func (e *Engine) pickIndexLocked() int {
	n := len(e.playlist.Songs)
	idx := e.rnd.Intn(n)
	for attempts := 1; attempts < selectionAttempts; attempts++ {
		if _, playedAlready := e.played[idx]; !playedAlready {
			break
		}
		idx = e.rnd.Intn(n)
	}
	return idx
}

func (e *Engine) finishRoundLocked(correct bool) {
	e.gen++
	e.cancelPendingLocked()

	if correct {
		e.score += RoundReward
	}
	e.state = StateResult

	e.emitLocked(Event{
		Type:    EventRoundResult,
		Round:   e.round,
		Score:   e.score,
		Correct: correct,
		Answer:  e.playlist.Songs[e.currentIdx].Title,
	})

	e.scheduleLocked(e.advanceDelay, e.advanceLocked)
}

func (e *Engine) advanceLocked() {
	e.gen++
	e.cancelPendingLocked()

	if e.round >= e.totalRounds {
		e.state = StateFinished
		e.emitLocked(Event{
			Type:        EventGameOver,
			TotalRounds: e.totalRounds,
			Score:       e.score,
			Accuracy:    e.accuracyLocked(),
		})
		return
	}
	e.beginRoundLocked()
}

func (e *Engine) accuracyLocked() int {
	if e.totalRounds == 0 {
		return 0
	}
	return int(math.Round(float64(e.score) / float64(e.totalRounds*RoundReward) * 100))
}

// scheduleLocked arms a single pending task for the current generation; the
// callback is dropped if any transition superseded it in the meantime.
func (e *Engine) scheduleLocked(d time.Duration, fn func()) {
	e.cancelPendingLocked()
	gen := e.gen
	e.cancelPending = e.scheduler.After(d, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.gen != gen {
			return
		}
		fn()
	})
}

func (e *Engine) cancelPendingLocked() {
	if e.cancelPending != nil {
		e.cancelPending()
		e.cancelPending = nil
	}
}

func (e *Engine) emitLocked(ev Event) {
	select {
	case e.events <- ev:
	default:
		// Drop the oldest rather than block a state transition on a slow
		// consumer.
		select {
		case <-e.events:
		default:
		}
		e.events <- ev
	}
}
