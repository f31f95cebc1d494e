// Package orchestrator owns the table actor: the single-writer loop that
// starts hands, applies validated player actions, advances streets, and
// settles pots on a fold or at showdown. Every mutation to a table's hand
// state is serialized through one goroutine's inbox.
package orchestrator

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/lox/bombpot/internal/cards"
	"github.com/lox/bombpot/internal/eventstore"
	"github.com/lox/bombpot/internal/pokertable"
	"github.com/lox/bombpot/internal/timer"
)

// Notifier receives the broadcast-worthy outcomes of orchestrator
// operations. The orchestrator itself does not know about sanitization or
// transport; it reports what happened and lets the caller's Notifier
// project and fan it out.
type Notifier interface {
	GameStateUpdated(table *pokertable.Table)
	HandStarted(table *pokertable.Table, holeCards map[pokertable.PlayerID][]cards.Card)
	ActionExecuted(tableID pokertable.TableID, playerID pokertable.PlayerID, actionType pokertable.ActionType, amount int64, nextPlayerID pokertable.PlayerID, bettingRoundComplete, handComplete bool)
	HandCompleted(table *pokertable.Table, summary eventstore.HandCompletedData)
	ActionRequired(tableID pokertable.TableID, playerID pokertable.PlayerID, timeoutSeconds int)
	TimerStarted(tableID pokertable.TableID, playerID pokertable.PlayerID, totalSeconds int, timeBankAvailable int)
	TimerCancelled(tableID pokertable.TableID, playerID pokertable.PlayerID)
}

// command is one serialized unit of work on a table.
type command struct {
	run  func()
	done chan struct{}
}

// TableActor owns one table's authoritative state and runs its commands
// one at a time on a dedicated goroutine.
type TableActor struct {
	table    *pokertable.Table
	store    *eventstore.Store
	notifier Notifier
	timer    *timer.ActionTimer
	logger   *log.Logger

	deckFactory func() (*cards.Deck, error)

	inbox chan command
	done  chan struct{}
	once  sync.Once
}

// NewTableActor creates an actor for table, appending events to store and
// reporting outcomes to notifier. at is the table's action timer; nil
// runs the table untimed.
func NewTableActor(table *pokertable.Table, store *eventstore.Store, notifier Notifier, at *timer.ActionTimer) *TableActor {
	a := &TableActor{
		table:       table,
		store:       store,
		notifier:    notifier,
		timer:       at,
		logger:      log.Default().WithPrefix(fmt.Sprintf("table/%s", table.ID)),
		deckFactory: newShuffledDeck,
		inbox:       make(chan command, 32),
		done:        make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *TableActor) run() {
	for {
		select {
		case cmd := <-a.inbox:
			cmd.run()
			close(cmd.done)
		case <-a.done:
			return
		}
	}
}

// submit enqueues fn and blocks until it has run, serialized with every
// other command for this table.
func (a *TableActor) submit(fn func()) {
	cmd := command{run: fn, done: make(chan struct{})}
	a.inbox <- cmd
	<-cmd.done
}

// Stop shuts down the actor's goroutine. Callers must not submit further
// commands afterward.
func (a *TableActor) Stop() {
	a.once.Do(func() { close(a.done) })
}

// ActionTimer returns the table's action timer, for read-only projections
// like a GetTimerState request. Returns nil if the table runs untimed.
func (a *TableActor) ActionTimer() *timer.ActionTimer {
	return a.timer
}

// Snapshot returns the actor's table once every command queued before the
// call has run. It returns the live table, not a copy: commands that run
// later mutate the returned value in place.
func (a *TableActor) Snapshot() *pokertable.Table {
	var snap *pokertable.Table
	a.submit(func() { snap = a.table })
	return snap
}

func newHandID() pokertable.HandID {
	return pokertable.HandID(uuid.NewString())
}

// newShuffledDeck is the production deck factory: a fresh 52-card deck,
// cryptographically shuffled and ready to deal. Tests substitute a
// factory returning a known ordering.
func newShuffledDeck() (*cards.Deck, error) {
	d := cards.New()
	if err := d.Shuffle(); err != nil {
		return nil, err
	}
	return d, nil
}

func (a *TableActor) nextSequence(hand *pokertable.Hand) int {
	return a.store.GetLastSequenceNumber(hand.ID) + 1
}

// timeBankFor reports how many time-bank seconds playerID has left to
// offer in a TimerStarted notification.
func (a *TableActor) timeBankFor(table *pokertable.Table, playerID pokertable.PlayerID) int {
	if p := table.FindPlayer(playerID); p != nil {
		return p.TimeBankSeconds
	}
	return 0
}
