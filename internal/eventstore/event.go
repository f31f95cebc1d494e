// Package eventstore is the append-only, per-hand ordered event log: the
// durable record of everything that happened in a hand, keyed by a dense
// monotonic sequence number.
package eventstore

import (
	"time"

	"github.com/lox/bombpot/internal/cards"
	"github.com/lox/bombpot/internal/pokertable"
)

// Kind identifies the type of a recorded event.
type Kind int

const (
	HandStarted Kind = iota
	BlindsPosted
	AntePosted
	HoleCardsDealt
	PlayerActed
	BettingRoundCompleted
	CommunityCardsDealt
	PlayerShowedCards
	PlayerMuckedCards
	PotAwarded
	HandCompleted
)

func (k Kind) String() string {
	switch k {
	case HandStarted:
		return "HandStarted"
	case BlindsPosted:
		return "BlindsPosted"
	case AntePosted:
		return "AntePosted"
	case HoleCardsDealt:
		return "HoleCardsDealt"
	case PlayerActed:
		return "PlayerActed"
	case BettingRoundCompleted:
		return "BettingRoundCompleted"
	case CommunityCardsDealt:
		return "CommunityCardsDealt"
	case PlayerShowedCards:
		return "PlayerShowedCards"
	case PlayerMuckedCards:
		return "PlayerMuckedCards"
	case PotAwarded:
		return "PotAwarded"
	case HandCompleted:
		return "HandCompleted"
	default:
		return "Unknown"
	}
}

// Event is one entry in a hand's append-only log.
type Event struct {
	HandID     pokertable.HandID
	TableID    pokertable.TableID
	Sequence   int
	Timestamp  time.Time
	Kind       Kind
	Data       interface{}
}

// HandStartedData is the payload for a HandStarted event.
type HandStartedData struct {
	HandNumber    int
	PlayerIDs     []pokertable.PlayerID
	ButtonSeat    int
	IsBombPot     bool
	IsDoubleBoard bool
	Ante          int64
}

// BlindsPostedData is the payload for a BlindsPosted event.
type BlindsPostedData struct {
	SmallBlindPlayerID pokertable.PlayerID
	SmallBlindAmount   int64
	BigBlindPlayerID   pokertable.PlayerID
	BigBlindAmount     int64
}

// AntePostedData is the payload for a single player's AntePosted event.
type AntePostedData struct {
	PlayerID pokertable.PlayerID
	Amount   int64
}

// HoleCardsDealtData is the payload for a HoleCardsDealt event. It records
// which players were dealt in; the card values themselves are not stored
// in the event.
type HoleCardsDealtData struct {
	PlayerIDs []pokertable.PlayerID
}

// PlayerActedData is the payload for a PlayerActed event.
type PlayerActedData struct {
	PlayerID    pokertable.PlayerID
	Type        pokertable.ActionType
	Amount      int64
	NewTotalBet int64
	IsRaise     bool
}

// BettingRoundCompletedData is the payload for a BettingRoundCompleted
// event.
type BettingRoundCompletedData struct {
	Phase pokertable.Phase
}

// CommunityCardsDealtData is the payload for a CommunityCardsDealt event.
type CommunityCardsDealtData struct {
	Phase      pokertable.Phase
	Board      int // 0 for the primary board, 1 for the second board
	CardCount  int
}

// PlayerShowedCardsData is the payload for a PlayerShowedCards event.
type PlayerShowedCardsData struct {
	PlayerID    pokertable.PlayerID
	Description string
}

// PlayerMuckedCardsData is the payload for a PlayerMuckedCards event.
type PlayerMuckedCardsData struct {
	PlayerID pokertable.PlayerID
}

// PotAwardedData is the payload for a single pot's PotAwarded event.
type PotAwardedData struct {
	PotID     int
	Amount    int64
	WinnerIDs []pokertable.PlayerID
}

// HandCompletedData is the payload for a HandCompleted event. The first
// block of fields matches the persisted HandSummary shape; the shown
// cards and descriptions exist for the completion broadcast (split pots
// can be won by different hands) and stay empty on a fold-out, where the
// winner never has to show.
type HandCompletedData struct {
	HandNumber     int
	TotalPot       int64
	DurationMs     int64
	PlayerCount    int
	WentToShowdown bool
	FinalPhase     pokertable.Phase
	WinnerIDs      []pokertable.PlayerID
	PlayerResults  map[pokertable.PlayerID]int64

	ShownCards       map[pokertable.PlayerID][]cards.Card
	HandDescriptions map[pokertable.PlayerID]string
}

// HandSummary is the queryable summary of a completed hand, returned by
// getHandSummary / getTableHistory.
type HandSummary struct {
	HandID         pokertable.HandID
	TableID        pokertable.TableID
	HandNumber     int
	TotalPot       int64
	DurationMs     int64
	PlayerCount    int
	WentToShowdown bool
	FinalPhase     pokertable.Phase
	WinnerIDs      []pokertable.PlayerID
	PlayerResults  map[pokertable.PlayerID]int64
	CompletedAt    time.Time
}
