package pokertable

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func roundPlayer(id PlayerID, bet int64, acted bool) *Player {
	p := NewPlayer(id, string(id), 1, 10000)
	p.Status = StatusActive
	p.CurrentBet = bet
	p.HasActedThisRound = acted
	return p
}

func TestBettingRoundIncompleteWhileBetsUnmatched(t *testing.T) {
	round := NewBettingRound(200)
	round.CurrentBet = 600
	players := []*Player{
		roundPlayer("a", 600, true),
		roundPlayer("b", 200, true),
	}
	assert.False(t, round.IsComplete(players, false, ""))
}

func TestBettingRoundIncompleteWhilePlayerHasNotActed(t *testing.T) {
	round := NewBettingRound(200)
	round.CurrentBet = 0
	players := []*Player{
		roundPlayer("a", 0, true),
		roundPlayer("b", 0, false),
	}
	assert.False(t, round.IsComplete(players, false, ""))
}

func TestBettingRoundBBOptionHoldsRoundOpen(t *testing.T) {
	// Preflop, everyone has limped to the big blind. The BB has not
	// exercised their option yet, so the round stays open for them even
	// though every bet matches.
	round := NewBettingRound(200)
	round.CurrentBet = 200
	bb := roundPlayer("bb", 200, false)
	players := []*Player{
		roundPlayer("btn", 200, true),
		roundPlayer("sb", 200, true),
		bb,
	}
	assert.False(t, round.IsComplete(players, true, "bb"))

	bb.HasActedThisRound = true
	round.BBOptionUsed = true
	assert.True(t, round.IsComplete(players, true, "bb"))
}

func TestBettingRoundCompleteWhenNobodyCanAct(t *testing.T) {
	round := NewBettingRound(200)
	round.CurrentBet = 5000
	a := roundPlayer("a", 5000, true)
	a.Status = StatusAllIn
	b := roundPlayer("b", 3000, true)
	b.Status = StatusAllIn
	assert.True(t, round.IsComplete([]*Player{a, b}, false, ""))
}

func TestBettingRoundRecordKeepsActionOrder(t *testing.T) {
	round := NewBettingRound(200)
	round.Record("a", Raise, 600)
	round.Record("b", Call, 600)
	round.Record("c", Fold, 0)
	assert.Equal(t, []RecordedAction{
		{PlayerID: "a", Type: Raise, Amount: 600},
		{PlayerID: "b", Type: Call, Amount: 600},
		{PlayerID: "c", Type: Fold, Amount: 0},
	}, round.Actions)
}
