// Package pokertable models the authoritative state of a single table: its
// players, the current hand, betting rounds, pots, and the phase state
// machine that governs how a hand advances.
package pokertable

import (
	"fmt"

	"github.com/lox/bombpot/internal/cards"
)

// PlayerID identifies a player uniquely across tables.
type PlayerID string

// Status is a player's standing within the current hand and table.
type Status int

const (
	StatusWaiting Status = iota
	StatusActive
	StatusFolded
	StatusAllIn
	StatusAway
	StatusSittingOut
)

func (s Status) String() string {
	switch s {
	case StatusWaiting:
		return "waiting"
	case StatusActive:
		return "active"
	case StatusFolded:
		return "folded"
	case StatusAllIn:
		return "all-in"
	case StatusAway:
		return "away"
	case StatusSittingOut:
		return "sitting-out"
	default:
		return "unknown"
	}
}

// Player is a seated participant at a table. Chips and bet amounts are
// denominated in cents to keep pot arithmetic exact (smallBlind can be a
// fraction of a dollar, e.g. 0.25).
type Player struct {
	ID   PlayerID
	Name string
	Seat int

	Chips int64

	Status           Status
	CurrentBet       int64
	TotalBetThisHand int64
	HoleCards        []cards.Card
	TimeBankSeconds  int

	HasActedThisRound bool
}

// NewPlayer creates a player seated with a starting stack.
func NewPlayer(id PlayerID, name string, seat int, startingChips int64) *Player {
	return &Player{
		ID:     id,
		Name:   name,
		Seat:   seat,
		Chips:  startingChips,
		Status: StatusWaiting,
	}
}

func (p *Player) String() string {
	return fmt.Sprintf("%s (seat %d, $%.2f)", p.Name, p.Seat, float64(p.Chips)/100)
}

// InHand reports whether the player is still eligible to win the current
// hand (can act, or is all-in and along for the ride).
func (p *Player) InHand() bool {
	return p.Status == StatusActive || p.Status == StatusAllIn
}

// CanAct reports whether the player may take an action this turn.
func (p *Player) CanAct() bool {
	return p.Status == StatusActive
}

// ResetForNewHand clears all per-hand state, seating the player as Active
// if they have chips, or SittingOut otherwise.
func (p *Player) ResetForNewHand() {
	p.HoleCards = nil
	p.CurrentBet = 0
	p.TotalBetThisHand = 0
	p.HasActedThisRound = false
	if p.Status == StatusAway || p.Status == StatusSittingOut {
		return
	}
	if p.Chips > 0 {
		p.Status = StatusActive
	} else {
		p.Status = StatusSittingOut
	}
}

// ResetForNewRound clears the per-betting-round contribution and acted
// flag at a street transition.
func (p *Player) ResetForNewRound() {
	p.CurrentBet = 0
	p.HasActedThisRound = false
}

// CommitChips moves amount from the player's stack into their current-round
// and total-hand contributions, marking them all-in if it exhausts the
// stack. amount must already be capped to the player's remaining chips by
// the caller (the ActionValidator computes that cap).
func (p *Player) CommitChips(amount int64) {
	p.Chips -= amount
	p.CurrentBet += amount
	p.TotalBetThisHand += amount
	if p.Chips == 0 {
		p.Status = StatusAllIn
	}
}

// Fold removes the player from contention for the rest of the hand.
func (p *Player) Fold() {
	p.Status = StatusFolded
	p.HasActedThisRound = true
}
