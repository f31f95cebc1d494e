package app

import (
	"context"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/bombpot/internal/broadcast"
	"github.com/lox/bombpot/internal/connmgr"
	"github.com/lox/bombpot/internal/eventstore"
	"github.com/lox/bombpot/internal/pokertable"
)

func newDealerFixture(t *testing.T, cfg pokertable.BombPotConfig) (*Registry, *TableService, *pokertable.Table, *quartz.Mock) {
	t.Helper()
	logger := log.New(io.Discard)
	clock := quartz.NewMock(t)
	registry := NewRegistry(eventstore.New(), broadcast.New(connmgr.New(), logger), clock, logger)

	table := pokertable.NewTable("t1", "Test Table", 100)
	table.BombPot = cfg
	for seat := 1; seat <= 2; seat++ {
		id := pokertable.PlayerID([]string{"", "p1", "p2"}[seat])
		p := pokertable.NewPlayer(id, string(id), seat, 10000)
		p.Status = pokertable.StatusActive
		table.Seat(seat, p)
	}
	svc := registry.CreateTable(table)
	t.Cleanup(svc.Actor.Stop)
	return registry, svc, table, clock
}

// TestAutoDealerDealsNextHandAfterDelay: once a hand completes, the next
// one is dealt automatically after the inter-hand pause.
func TestAutoDealerDealsNextHandAfterDelay(t *testing.T) {
	_, svc, _, clock := newDealerFixture(t, pokertable.BombPotConfig{Trigger: pokertable.BombPotManual})

	require.NoError(t, svc.Actor.StartNewHand())
	snap := svc.Actor.Snapshot()
	require.NotNil(t, snap.CurrentHand)

	// Heads-up: the button/SB acts first and folds the hand away.
	require.NoError(t, svc.Actor.ExecutePlayerAction(snap.CurrentHand.CurrentPlayerID, pokertable.Fold, 0))
	require.Nil(t, svc.Actor.Snapshot().CurrentHand)

	clock.Advance(nextHandDelay).MustWait(context.Background())

	next := svc.Actor.Snapshot()
	require.NotNil(t, next.CurrentHand, "next hand must be dealt automatically")
	assert.Equal(t, 2, next.CurrentHand.Number)
	assert.False(t, next.CurrentHand.IsBombPot, "manual trigger never self-fires")
}

// TestAutoDealerIntervalTriggersBombPot: with Interval(2), every second
// hand is a bomb pot.
func TestAutoDealerIntervalTriggersBombPot(t *testing.T) {
	_, svc, _, clock := newDealerFixture(t, pokertable.BombPotConfig{
		Trigger:   pokertable.BombPotInterval,
		IntervalN: 2,
		Ante:      200,
		Variant:   pokertable.BombPotSingleBoard,
	})

	require.NoError(t, svc.Actor.StartNewHand())
	snap := svc.Actor.Snapshot()
	require.NoError(t, svc.Actor.ExecutePlayerAction(snap.CurrentHand.CurrentPlayerID, pokertable.Fold, 0))

	clock.Advance(nextHandDelay).MustWait(context.Background())

	next := svc.Actor.Snapshot()
	require.NotNil(t, next.CurrentHand)
	assert.Equal(t, 2, next.CurrentHand.Number)
	assert.True(t, next.CurrentHand.IsBombPot, "hand 2 fires the Interval(2) trigger")
	assert.Equal(t, pokertable.Flop, next.CurrentHand.Phase())
	assert.Equal(t, int64(400), pokertable.TotalPotAmount(next.CurrentHand.Pots))
}
