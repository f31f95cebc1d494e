package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/bombpot/internal/pokertable"
)

func actionTypes(actions []AvailableAction) []string {
	out := make([]string, len(actions))
	for i, a := range actions {
		out[i] = a.Type
	}
	return out
}

func newActionsTable() *pokertable.Table {
	table := pokertable.NewTable("t1", "Main", 100)
	p1 := pokertable.NewPlayer("p1", "Alice", 1, 10000)
	p2 := pokertable.NewPlayer("p2", "Bob", 2, 10000)
	p1.Status = pokertable.StatusActive
	p2.Status = pokertable.StatusActive
	table.Seat(1, p1)
	table.Seat(2, p2)

	hand := pokertable.NewHand("hand-1", 1, []pokertable.PlayerID{"p1", "p2"}, 1)
	hand.Round = pokertable.NewBettingRound(table.BigBlind)
	table.CurrentHand = hand
	return table
}

func TestAvailableActionsFacingABet(t *testing.T) {
	table := newActionsTable()
	hand := table.CurrentHand
	hand.Round.CurrentBet = 600
	hand.CurrentPlayerID = "p1"

	actions := availableActions(table, "p1")
	types := actionTypes(actions)
	assert.Contains(t, types, "fold")
	assert.Contains(t, types, "call")
	assert.Contains(t, types, "raise")
	assert.Contains(t, types, "all-in")
	assert.NotContains(t, types, "check", "cannot check facing a bet")

	for _, a := range actions {
		if a.Type == "call" {
			assert.Equal(t, int64(600), a.MinAmount)
		}
		if a.Type == "raise" {
			assert.Equal(t, int64(800), a.MinAmount, "current bet plus min raise")
			assert.Equal(t, int64(10000), a.MaxAmount)
		}
	}
}

func TestAvailableActionsUnopenedPot(t *testing.T) {
	table := newActionsTable()
	table.CurrentHand.CurrentPlayerID = "p1"

	types := actionTypes(availableActions(table, "p1"))
	assert.Contains(t, types, "check")
	assert.NotContains(t, types, "call", "nothing to call")
}

func TestAvailableActionsEmptyWhenNotYourTurn(t *testing.T) {
	table := newActionsTable()
	table.CurrentHand.CurrentPlayerID = "p2"

	actions := availableActions(table, "p1")
	assert.Empty(t, actions, "every probe fails out of turn")
}

func TestAvailableActionsNilWithoutAHand(t *testing.T) {
	table := newActionsTable()
	table.CurrentHand = nil
	require.Nil(t, availableActions(table, "p1"))
}
