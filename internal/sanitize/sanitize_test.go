package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/bombpot/internal/cards"
	"github.com/lox/bombpot/internal/pokertable"
)

func newTestTable(t *testing.T) *pokertable.Table {
	t.Helper()
	table := pokertable.NewTable("table-1", "Main", 100)
	table.Seat(1, pokertable.NewPlayer("p1", "Alice", 1, 10000))
	table.Seat(2, pokertable.NewPlayer("p2", "Bob", 2, 10000))

	hand := pokertable.NewHand("hand-1", 1, []pokertable.PlayerID{"p1", "p2"}, 1)
	hand.Round = pokertable.NewBettingRound(table.BigBlind)
	hand.CurrentPlayerID = "p1"
	table.Seats[1].HoleCards = []cards.Card{
		cards.NewCard(cards.Spades, cards.Ace),
		cards.NewCard(cards.Spades, cards.King),
	}
	table.Seats[2].HoleCards = []cards.Card{
		cards.NewCard(cards.Hearts, cards.Two),
		cards.NewCard(cards.Hearts, cards.Three),
	}
	table.CurrentHand = hand
	return table
}

func TestForPlayerSeesOwnHoleCardsNotOthers(t *testing.T) {
	table := newTestTable(t)

	state := ForPlayer(table, "p1")
	require.Len(t, state.Players, 2)

	var viewerView, otherView PlayerView
	for _, pv := range state.Players {
		if pv.PlayerID == "p1" {
			viewerView = pv
		} else {
			otherView = pv
		}
	}

	assert.Len(t, viewerView.HoleCards, 2)
	assert.False(t, viewerView.HasHiddenCards)
	assert.Empty(t, otherView.HoleCards)
	assert.True(t, otherView.HasHiddenCards)
}

func TestForSpectatorSeesNoHoleCards(t *testing.T) {
	table := newTestTable(t)

	state := ForSpectator(table)
	for _, pv := range state.Players {
		assert.Empty(t, pv.HoleCards)
		assert.True(t, pv.HasHiddenCards)
	}
}

func TestShownPlayerRevealsCardsToEveryViewer(t *testing.T) {
	table := newTestTable(t)
	table.CurrentHand.Shown["p2"] = true

	state := ForPlayer(table, "p1")
	for _, pv := range state.Players {
		if pv.PlayerID == "p2" {
			assert.Len(t, pv.HoleCards, 2)
			assert.False(t, pv.HasHiddenCards)
		}
	}

	// Spectators still see nothing: their projection carries no hole
	// cards even after a showdown reveal.
	spectatorState := ForSpectator(table)
	for _, pv := range spectatorState.Players {
		if pv.PlayerID == "p2" {
			assert.Empty(t, pv.HoleCards)
		}
	}
}

func TestFoldedAndNeverShownHasNoHiddenCardsFlag(t *testing.T) {
	table := newTestTable(t)
	table.CurrentHand.Folded["p2"] = true

	state := ForPlayer(table, "p1")
	for _, pv := range state.Players {
		if pv.PlayerID == "p2" {
			assert.False(t, pv.HasHiddenCards, "a folded, unshown hand isn't worth flagging as hidden")
			assert.Empty(t, pv.HoleCards)
		}
	}
}

func TestNoCurrentHandProjectsPlayersOnly(t *testing.T) {
	table := newTestTable(t)
	table.CurrentHand = nil

	state := ForPlayer(table, "p1")
	assert.False(t, state.HasHand)
	assert.Len(t, state.Players, 2)
}
