package pokertable

import (
	"time"

	"github.com/lox/bombpot/internal/cards"
)

// HandID identifies a single hand within a table.
type HandID string

// Hand is the authoritative state of one hand in progress. It is mutated
// only by the table actor that owns it; once Complete it is read-only.
type Hand struct {
	ID     HandID
	Number int

	SmallBlindSeat int
	BigBlindSeat   int
	ButtonPosition int

	Community  []cards.Card
	Community2 []cards.Card // second board, bomb-pot double-board only

	Pots []Pot

	CurrentBet      int64
	MinRaise        int64
	RaisesThisRound int

	CurrentPlayerID PlayerID
	LastAggressorID PlayerID
	PlayerIDs       []PlayerID

	// LastStreetAggressorID is the aggressor of the street that most
	// recently closed (empty if that street went check-check). The
	// showdown handler uses it to pick show order: the aggressor shows
	// first, else the first-to-act does.
	LastStreetAggressorID PlayerID

	IsBombPot     bool
	IsDoubleBoard bool
	Ante          int64

	StartedAt   time.Time
	CompletedAt time.Time

	SM    *HandStateMachine
	Round *BettingRound
	Deck  *cards.Deck

	// Contributions tracks every player's total chips committed this hand
	// (across all streets), the input CalculatePots needs at showdown or on
	// a fold-out. It is kept separate from Player.TotalBetThisHand so it
	// survives a player's removal from the table mid-hand.
	Contributions map[PlayerID]int64
	AllIn         map[PlayerID]bool
	Folded        map[PlayerID]bool

	// Shown holds the ids of players whose hole cards were revealed at
	// showdown (shown voluntarily or because they had to). The Sanitizer
	// consults this to decide what a non-viewer may see.
	Shown map[PlayerID]bool
}

// NewHand creates a hand in the Waiting phase, ready to be advanced via
// its state machine by the orchestrator.
func NewHand(id HandID, number int, playerIDs []PlayerID, button int) *Hand {
	return &Hand{
		ID:             id,
		Number:         number,
		PlayerIDs:      playerIDs,
		ButtonPosition: button,
		SM:             NewHandStateMachine(),
		Contributions:  make(map[PlayerID]int64),
		AllIn:          make(map[PlayerID]bool),
		Folded:         make(map[PlayerID]bool),
		Shown:          make(map[PlayerID]bool),
	}
}

func (h *Hand) Phase() Phase {
	return h.SM.Phase()
}

// Boards returns the active community-card boards: one normally, two for a
// double-board bomb pot.
func (h *Hand) Boards() [][]cards.Card {
	if h.IsDoubleBoard {
		return [][]cards.Card{h.Community, h.Community2}
	}
	return [][]cards.Card{h.Community}
}
