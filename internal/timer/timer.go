// Package timer implements the per-table action clock: a single-shot
// countdown with a warning threshold, time-bank escalation, and an expiry
// callback that force-folds the current player. It is built on
// coder/quartz so tests can drive it deterministically with a mock clock
// instead of wall-clock sleeps.
package timer

import (
	"sync"
	"time"

	"github.com/coder/quartz"
)

// Callbacks receives the broadcast-worthy events an ActionTimer produces.
// Implementations must not block; the timer invokes these outside its
// internal lock so a slow broadcast never stalls the countdown.
type Callbacks interface {
	OnTick(playerID string, remainingSeconds int, inTimeBank bool, timeBankRemaining int)
	OnWarning(playerID string, remainingSeconds int)
	OnTimeBankActivated(playerID string, timeBankRemaining int)
	OnExpired(playerID string, timeBankConsumed int)
}

type state struct {
	tableID, handID, playerID string
	remaining                 int
	timeBankEnabled           bool
	timeBankRemaining         int
	timeBankStarted           int
	inTimeBank                bool
	warned                    bool
	paused                    bool
	stop                      chan struct{}
}

// ActionTimer runs at most one active countdown per table.
type ActionTimer struct {
	clock quartz.Clock
	cb    Callbacks

	mu     sync.Mutex
	active *state
}

// New creates an ActionTimer driven by clock, reporting to cb.
func New(clock quartz.Clock, cb Callbacks) *ActionTimer {
	return &ActionTimer{clock: clock, cb: cb}
}

// Start begins a countdown for playerID. If actionSeconds <= 0 the timer is
// disabled: Start is a no-op and the player has unlimited time.
func (t *ActionTimer) Start(tableID, handID, playerID string, actionSeconds int, timeBankEnabled bool, timeBankRemaining int) {
	if actionSeconds <= 0 {
		return
	}

	t.mu.Lock()
	if t.active != nil {
		close(t.active.stop)
		t.active = nil
	}
	s := &state{
		tableID:           tableID,
		handID:            handID,
		playerID:          playerID,
		remaining:         actionSeconds,
		timeBankEnabled:   timeBankEnabled,
		timeBankRemaining: timeBankRemaining,
		timeBankStarted:   timeBankRemaining,
		stop:              make(chan struct{}),
	}
	t.active = s
	t.mu.Unlock()

	ticker := t.clock.NewTicker(time.Second, "action-timer")
	go t.run(s, ticker)
}

// run ticks once per second until the timer is cancelled, superseded, or
// expires. While paused it keeps ticking without counting down.
func (t *ActionTimer) run(s *state, ticker *quartz.Ticker) {
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			expired, events := t.tick(s)
			for _, e := range events {
				t.deliver(s, e)
			}
			if expired {
				return
			}
		}
	}
}

type tickEvent struct {
	kind              int // eventTick, eventWarning, eventBankActivated, eventExpired
	remaining         int
	inTimeBank        bool
	timeBankRemaining int
	timeBankConsumed  int
}

const (
	eventTick = iota
	eventWarning
	eventBankActivated
	eventExpired
)

// tick advances the timer state by one second under the lock and returns
// whether it expired plus the events to deliver outside the lock, in
// order. A tick and a one-shot threshold event (warning, bank activation)
// can both fire for the same second; expiry never carries a tick.
func (t *ActionTimer) tick(s *state) (bool, []tickEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.active != s {
		// Superseded by a newer Start or already cancelled.
		return true, nil
	}
	if s.paused {
		return false, []tickEvent{{kind: eventTick, remaining: s.remaining, inTimeBank: s.inTimeBank, timeBankRemaining: s.timeBankRemaining}}
	}

	if s.inTimeBank {
		s.timeBankRemaining--
		if s.timeBankRemaining <= 0 {
			t.active = nil
			consumed := s.timeBankStarted - s.timeBankRemaining
			return true, []tickEvent{{kind: eventExpired, timeBankConsumed: consumed}}
		}
		return false, []tickEvent{{kind: eventTick, remaining: 0, inTimeBank: true, timeBankRemaining: s.timeBankRemaining}}
	}

	s.remaining--
	if s.remaining <= 0 {
		if s.timeBankEnabled && s.timeBankRemaining > 0 {
			s.inTimeBank = true
			return false, []tickEvent{
				{kind: eventTick, remaining: 0, inTimeBank: false, timeBankRemaining: s.timeBankRemaining},
				{kind: eventBankActivated, timeBankRemaining: s.timeBankRemaining},
			}
		}
		t.active = nil
		return true, []tickEvent{{kind: eventExpired, timeBankConsumed: 0}}
	}

	events := []tickEvent{{kind: eventTick, remaining: s.remaining, inTimeBank: false, timeBankRemaining: s.timeBankRemaining}}
	if !s.warned && s.remaining <= 10 {
		s.warned = true
		events = append(events, tickEvent{kind: eventWarning, remaining: s.remaining})
	}
	return false, events
}

func (t *ActionTimer) deliver(s *state, e tickEvent) {
	if t.cb == nil {
		return
	}
	switch e.kind {
	case eventTick:
		t.cb.OnTick(s.playerID, e.remaining, e.inTimeBank, e.timeBankRemaining)
	case eventWarning:
		t.cb.OnWarning(s.playerID, e.remaining)
	case eventBankActivated:
		t.cb.OnTimeBankActivated(s.playerID, e.timeBankRemaining)
	case eventExpired:
		t.cb.OnExpired(s.playerID, e.timeBankConsumed)
	}
}

// Cancel stops the active timer (if any) for the current turn, returning
// the number of time-bank seconds consumed (0 if the bank never engaged)
// and whether a timer was actually active. Calling Cancel for an
// already-removed timer is a no-op (TimerRace): ok is false.
func (t *ActionTimer) Cancel() (timeBankConsumed int, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.active
	if s == nil {
		return 0, false
	}
	t.active = nil
	close(s.stop)

	if s.inTimeBank {
		return s.timeBankStarted - s.timeBankRemaining, true
	}
	return 0, true
}

// Pause stops the countdown table-wide without resetting any counters;
// ticks keep arriving and report the unchanged remaining time.
func (t *ActionTimer) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active != nil {
		t.active.paused = true
	}
}

// Resume continues ticking from wherever Pause left off.
func (t *ActionTimer) Resume() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active != nil {
		t.active.paused = false
	}
}

// IsActive reports whether a timer is currently running.
func (t *ActionTimer) IsActive() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active != nil
}

// Snapshot is a read-only projection of the active timer's state, for a
// GetTimerState request. Active is false if no countdown is running.
type Snapshot struct {
	PlayerID          string
	RemainingSeconds  int
	InTimeBank        bool
	TimeBankRemaining int
	Active            bool
}

// State returns a snapshot of the currently active timer, if any.
func (t *ActionTimer) State() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active == nil {
		return Snapshot{}
	}
	return Snapshot{
		PlayerID:          t.active.playerID,
		RemainingSeconds:  t.active.remaining,
		InTimeBank:        t.active.inTimeBank,
		TimeBankRemaining: t.active.timeBankRemaining,
		Active:            true,
	}
}
