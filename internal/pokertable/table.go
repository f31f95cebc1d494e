package pokertable

import "sort"

// TableID identifies a table.
type TableID string

// TableStatus is the table's overall lifecycle state, independent of any
// particular hand.
type TableStatus int

const (
	TableWaiting TableStatus = iota
	TablePlaying
	TablePaused
	TableClosed
)

func (s TableStatus) String() string {
	switch s {
	case TableWaiting:
		return "waiting"
	case TablePlaying:
		return "playing"
	case TablePaused:
		return "paused"
	case TableClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// BombPotVariant selects single- or double-board bomb pots.
type BombPotVariant int

const (
	BombPotSingleBoard BombPotVariant = iota
	BombPotDoubleBoard
)

// BombPotTriggerKind selects how bomb pots are triggered.
type BombPotTriggerKind int

const (
	BombPotManual BombPotTriggerKind = iota
	BombPotInterval
	BombPotRandom
	BombPotVoting
	BombPotButtonMoneyWin
)

// BombPotConfig is a table's bomb-pot configuration.
type BombPotConfig struct {
	Variant      BombPotVariant
	Ante         int64
	Trigger      BombPotTriggerKind
	IntervalN    int     // BombPotInterval: every N hands
	RandomPct    float64 // BombPotRandom: chance per hand
	VoteThreshold int    // BombPotVoting: votes required
}

// Table is a seat-indexed collection of players plus the configuration and
// current hand for one table. Seats are 1-indexed.
type Table struct {
	ID   TableID
	Name string

	Seats map[int]*Player

	SmallBlind int64
	BigBlind   int64

	ButtonPosition int
	HandCount      int

	ActionTimerSeconds     int
	TimeBankEnabled        bool
	TimeBankInitialSeconds int

	BombPot BombPotConfig

	Status       TableStatus
	CurrentHand  *Hand
	HostPlayerID PlayerID
}

// NewTable creates an empty table with the given blind structure.
func NewTable(id TableID, name string, smallBlind int64) *Table {
	return &Table{
		ID:         id,
		Name:       name,
		Seats:      make(map[int]*Player),
		SmallBlind: smallBlind,
		BigBlind:   smallBlind * 2,
		Status:     TableWaiting,
	}
}

// Seat places a player at the given seat number.
func (t *Table) Seat(seat int, p *Player) {
	p.Seat = seat
	t.Seats[seat] = p
}

// OccupiedSeats returns seat numbers in ascending order.
func (t *Table) OccupiedSeats() []int {
	seats := make([]int, 0, len(t.Seats))
	for s := range t.Seats {
		seats = append(seats, s)
	}
	sort.Ints(seats)
	return seats
}

// ActivePlayers returns players eligible for a new hand (status not Away,
// chips > 0), in seat order.
func (t *Table) ActivePlayers() []*Player {
	var out []*Player
	for _, seat := range t.OccupiedSeats() {
		p := t.Seats[seat]
		if p.Status != StatusAway && p.Chips > 0 {
			out = append(out, p)
		}
	}
	return out
}

// NextOccupiedSeat returns the next seat clockwise from "from" that holds a
// player eligible to play (status not Away), wrapping around the table.
// Returns 0 if no such seat exists. Empty seats between occupied ones are
// skipped, so sparse seating (e.g. seats 1 and 10 only) still rotates
// correctly.
func (t *Table) NextOccupiedSeat(from int) int {
	seats := t.OccupiedSeats()
	n := len(seats)
	if n == 0 {
		return 0
	}
	start := sort.SearchInts(seats, from+1) % n
	for i := 0; i < n; i++ {
		candidate := seats[(start+i)%n]
		if t.Seats[candidate].Status != StatusAway {
			return candidate
		}
	}
	return 0
}

// PlayerBySeat returns the player in a seat, or nil.
func (t *Table) PlayerBySeat(seat int) *Player {
	return t.Seats[seat]
}

// FindPlayer returns the player with the given id, or nil.
func (t *Table) FindPlayer(id PlayerID) *Player {
	for _, p := range t.Seats {
		if p.ID == id {
			return p
		}
	}
	return nil
}
