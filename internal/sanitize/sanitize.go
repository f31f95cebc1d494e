// Package sanitize produces per-viewer projections of a table's
// authoritative state. A player sees their own hole cards and any cards
// revealed at showdown; everyone else's live hand is flagged as hidden.
// A spectator sees no hole cards at all.
package sanitize

import (
	"time"

	"github.com/lox/bombpot/internal/cards"
	"github.com/lox/bombpot/internal/pokertable"
)

// PlayerView is one seated player as a particular viewer sees them.
type PlayerView struct {
	PlayerID         pokertable.PlayerID
	Name             string
	Seat             int
	Chips            int64
	Status           string
	CurrentBet       int64
	TotalBetThisHand int64
	TimeBankSeconds  int
	HoleCards        []cards.Card // populated only when visible to this viewer
	HasHiddenCards   bool         // true when the player holds cards this viewer cannot see
}

// PotView is a pot's public shape: amount and who can still win it.
type PotView struct {
	ID       int
	Type     string
	Amount   int64
	Eligible []pokertable.PlayerID
}

// TableGameState is the sanitized projection broadcast to one viewer (a
// seated player or a spectator). ViewerID is empty for a spectator.
type TableGameState struct {
	TableID    pokertable.TableID
	TableName  string
	Status     string
	ViewerID   pokertable.PlayerID
	Players    []PlayerView
	Timestamp  time.Time

	HasHand         bool
	HandNumber      int
	Phase           string
	ButtonPosition  int
	Community       []cards.Card
	Community2      []cards.Card
	Pots            []PotView
	CurrentBet      int64
	MinRaise        int64
	CurrentPlayerID pokertable.PlayerID
}

// ForPlayer projects table as seen by the seated player viewerID.
func ForPlayer(table *pokertable.Table, viewerID pokertable.PlayerID) TableGameState {
	return project(table, viewerID, false)
}

// ForSpectator projects table with every hole card hidden.
func ForSpectator(table *pokertable.Table) TableGameState {
	return project(table, "", true)
}

func project(table *pokertable.Table, viewerID pokertable.PlayerID, spectator bool) TableGameState {
	state := TableGameState{
		TableID:   table.ID,
		TableName: table.Name,
		Status:    table.Status.String(),
		ViewerID:  viewerID,
		Timestamp: time.Now(),
	}

	hand := table.CurrentHand

	for _, seat := range table.OccupiedSeats() {
		p := table.PlayerBySeat(seat)
		state.Players = append(state.Players, playerView(p, hand, viewerID, spectator))
	}

	if hand == nil {
		return state
	}

	state.HasHand = true
	state.HandNumber = hand.Number
	state.Phase = hand.Phase().String()
	state.ButtonPosition = hand.ButtonPosition
	state.Community = append([]cards.Card{}, hand.Community...)
	if hand.IsDoubleBoard {
		state.Community2 = append([]cards.Card{}, hand.Community2...)
	}
	state.CurrentPlayerID = hand.CurrentPlayerID
	if hand.Round != nil {
		state.CurrentBet = hand.Round.CurrentBet
		state.MinRaise = hand.Round.MinRaise
	}
	for _, pot := range hand.Pots {
		state.Pots = append(state.Pots, PotView{
			ID:       pot.ID,
			Type:     pot.Type.String(),
			Amount:   pot.Amount,
			Eligible: pot.EligibleIDs(),
		})
	}

	return state
}

func playerView(p *pokertable.Player, hand *pokertable.Hand, viewerID pokertable.PlayerID, spectator bool) PlayerView {
	view := PlayerView{
		PlayerID:         p.ID,
		Name:             p.Name,
		Seat:             p.Seat,
		Chips:            p.Chips,
		Status:           p.Status.String(),
		CurrentBet:       p.CurrentBet,
		TotalBetThisHand: p.TotalBetThisHand,
		TimeBankSeconds:  p.TimeBankSeconds,
	}

	if len(p.HoleCards) == 0 {
		return view
	}

	folded := hand != nil && hand.Folded[p.ID]
	shown := hand != nil && hand.Shown[p.ID]

	visible := !spectator && (viewerID == p.ID || shown)
	if visible {
		view.HoleCards = append([]cards.Card{}, p.HoleCards...)
		return view
	}

	// Folded players who never showed take their mucked cards to the
	// grave: no HasHiddenCards flag either, since there's nothing left
	// for a viewer to eventually see revealed.
	if !folded {
		view.HasHiddenCards = true
	}
	return view
}
