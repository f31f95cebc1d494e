package app

import (
	"math/rand"
	"time"

	"github.com/lox/bombpot/internal/eventstore"
	"github.com/lox/bombpot/internal/orchestrator"
	"github.com/lox/bombpot/internal/pokertable"
)

// nextHandDelay is the pause between a hand completing and the next deal,
// long enough for clients to render the result.
const nextHandDelay = 3 * time.Second

// autoDealer decorates the shared Broadcaster as a table's Notifier:
// every notification passes straight through, and HandCompleted
// additionally schedules the next deal. The table's bomb-pot trigger
// decides whether that deal is a regular hand or a bomb pot.
type autoDealer struct {
	orchestrator.Notifier

	registry *Registry
	tableID  pokertable.TableID
	cfg      pokertable.BombPotConfig
}

func (d *autoDealer) HandCompleted(table *pokertable.Table, summary eventstore.HandCompletedData) {
	d.Notifier.HandCompleted(table, summary)
	completed := summary.HandNumber
	d.registry.Clock.AfterFunc(nextHandDelay, func() {
		d.dealNext(completed)
	})
}

func (d *autoDealer) dealNext(completedHandNumber int) {
	svc, ok := d.registry.Lookup(d.tableID)
	if !ok {
		return
	}
	if d.bombPotNext(completedHandNumber) {
		err := svc.Actor.StartBombPot(d.cfg.Ante, d.cfg.Variant == pokertable.BombPotDoubleBoard)
		if err == nil {
			return
		}
		// A player who can't cover the ante blocks the bomb pot; deal a
		// regular hand instead of stalling the table.
		d.registry.Logger.Debug("bomb pot not started, dealing regular hand", "table", d.tableID, "error", err)
	}
	if err := svc.Actor.StartNewHand(); err != nil {
		d.registry.Logger.Debug("next hand not started", "table", d.tableID, "error", err)
	}
}

// bombPotNext decides whether the hand after completedHandNumber should
// be a bomb pot. Voting and button-money-win triggers depend on table
// surfaces outside this engine (chat votes, a host control), so only the
// automatic triggers fire here; Manual never self-triggers.
func (d *autoDealer) bombPotNext(completedHandNumber int) bool {
	switch d.cfg.Trigger {
	case pokertable.BombPotInterval:
		return d.cfg.IntervalN > 0 && (completedHandNumber+1)%d.cfg.IntervalN == 0
	case pokertable.BombPotRandom:
		return rand.Float64() < d.cfg.RandomPct
	default:
		return false
	}
}
