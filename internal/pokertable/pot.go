package pokertable

import "sort"

// PotType distinguishes the main pot from side pots created by an all-in.
type PotType int

const (
	PotMain PotType = iota
	PotSide
)

func (t PotType) String() string {
	if t == PotMain {
		return "main"
	}
	return "side"
}

// Pot is a single pot (main or side): an amount and the set of player ids
// still eligible to win it.
type Pot struct {
	ID       int
	Type     PotType
	Amount   int64
	Eligible map[PlayerID]bool
}

// EligibleIDs returns the pot's eligible player ids in no particular order.
func (p Pot) EligibleIDs() []PlayerID {
	out := make([]PlayerID, 0, len(p.Eligible))
	for id := range p.Eligible {
		out = append(out, id)
	}
	return out
}

// CalculatePots derives the main pot and any side pots from per-player
// contributions this hand, the set of players who are all-in, and the set
// of players who have folded.
//
// contributions must include every player who put chips in, folded or not.
// Returns the pots (main first, then side pots in creation order) plus any
// uncallable overage that must be returned to its contributor directly
// rather than sitting in a pot with a single eligible player.
func CalculatePots(contributions map[PlayerID]int64, allInSet, foldedSet map[PlayerID]bool) ([]Pot, map[PlayerID]int64) {
	active := make([]PlayerID, 0, len(contributions))
	for id := range contributions {
		if !foldedSet[id] {
			active = append(active, id)
		}
	}

	if len(active) == 0 {
		total := int64(0)
		eligible := make(map[PlayerID]bool, len(contributions))
		for id, amt := range contributions {
			total += amt
			eligible[id] = true
		}
		if total == 0 {
			return nil, nil
		}
		return []Pot{{ID: 0, Type: PotMain, Amount: total, Eligible: eligible}}, nil
	}

	levelSet := make(map[int64]bool)
	maxActive := int64(0)
	for _, id := range active {
		c := contributions[id]
		if c > maxActive {
			maxActive = c
		}
		if allInSet[id] && c > 0 {
			levelSet[c] = true
		}
	}
	levelSet[maxActive] = true

	levels := make([]int64, 0, len(levelSet))
	for l := range levelSet {
		levels = append(levels, l)
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i] < levels[j] })

	var pots []Pot
	prev := int64(0)
	for _, level := range levels {
		delta := level - prev
		if delta <= 0 {
			prev = level
			continue
		}

		eligible := make(map[PlayerID]bool)
		for _, id := range active {
			if contributions[id] >= level {
				eligible[id] = true
			}
		}

		var amount int64
		for _, c := range contributions {
			contribution := c - prev
			if contribution <= 0 {
				continue
			}
			if contribution > delta {
				contribution = delta
			}
			amount += contribution
		}

		if amount > 0 && len(eligible) > 0 {
			potType := PotMain
			if len(pots) > 0 {
				potType = PotSide
			}
			pots = append(pots, Pot{ID: len(pots), Type: potType, Amount: amount, Eligible: eligible})
		}
		prev = level
	}

	// Uncallable overage: with two or more active players, the top layer
	// can only have a single eligible player when that player contributed
	// more than any opponent could call. Such a layer never forms a side
	// pot; it is returned to its contributor instead. With a single active
	// player the hand is a fold-win and the whole pot is theirs to be
	// awarded, not returned.
	var overage map[PlayerID]int64
	if n := len(pots); n > 0 && len(pots[n-1].Eligible) == 1 && len(active) > 1 {
		last := pots[n-1]
		var owner PlayerID
		for id := range last.Eligible {
			owner = id
		}
		overage = map[PlayerID]int64{owner: last.Amount}
		pots = pots[:n-1]
	}

	return pots, overage
}

// AwardPots distributes each pot to its winners. winnersByPotID maps a
// pot's ID to its winners in tie-break order (the deterministic odd-chip
// recipient first, i.e. the earliest seat left of the button). Each pot's
// Amount is zeroed after award. Returns the chips credited per player
// (gross amounts awarded, not net of the player's contributions).
func AwardPots(pots []Pot, winnersByPotID map[int][]PlayerID) map[PlayerID]int64 {
	awarded := make(map[PlayerID]int64)
	for i := range pots {
		pot := &pots[i]
		if pot.Amount == 0 {
			continue
		}
		candidates := winnersByPotID[pot.ID]
		var winners []PlayerID
		for _, id := range candidates {
			if pot.Eligible[id] {
				winners = append(winners, id)
			}
		}
		if len(winners) == 0 {
			continue
		}

		share := pot.Amount / int64(len(winners))
		remainder := pot.Amount % int64(len(winners))
		for i, id := range winners {
			amt := share
			if i == 0 {
				amt += remainder
			}
			awarded[id] += amt
		}
		pot.Amount = 0
	}
	return awarded
}

// RemovePlayerFromPots strips a player from every pot's eligible set. It is
// idempotent: calling it twice for the same player has no further effect.
func RemovePlayerFromPots(pots []Pot, id PlayerID) {
	for i := range pots {
		delete(pots[i].Eligible, id)
	}
}

// TotalPotAmount sums every pot's amount.
func TotalPotAmount(pots []Pot) int64 {
	var total int64
	for _, p := range pots {
		total += p.Amount
	}
	return total
}
