// Package evaluator maps seven cards (two hole cards plus up to five
// community cards) to a best five-card hand: a total-ordered rank, a hand
// category, a human description, and the five cards that make it up.
//
// Ranks pack the category into the high nibble and the tie-break ranks
// into descending nibbles below it, using actual card ranks (2-14), so
// the packed value is directly inspectable while still comparing
// correctly as a total order: higher HandRank always beats lower.
package evaluator

import (
	"fmt"
	"sort"

	"github.com/lox/bombpot/internal/cards"
)

// Category identifies the type of a 5-card poker hand.
type Category int

const (
	HighCard Category = iota
	Pair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
)

func (c Category) String() string {
	switch c {
	case HighCard:
		return "High Card"
	case Pair:
		return "Pair"
	case TwoPair:
		return "Two Pair"
	case ThreeOfAKind:
		return "Three of a Kind"
	case Straight:
		return "Straight"
	case Flush:
		return "Flush"
	case FullHouse:
		return "Full House"
	case FourOfAKind:
		return "Four of a Kind"
	case StraightFlush:
		return "Straight Flush"
	default:
		return "Unknown"
	}
}

// HandRank is a total order over 5-card poker hands: a larger HandRank is
// always a strictly better hand. The absolute value carries no meaning
// beyond comparison (tests must compare ranks, not interpret them).
type HandRank uint32

func pack(cat Category, ranks ...cards.Rank) HandRank {
	v := HandRank(cat) << 24
	shift := 20
	for _, r := range ranks {
		v |= HandRank(r) << shift
		shift -= 4
	}
	return v
}

// Category extracts the hand category from a packed HandRank.
func (hr HandRank) Category() Category {
	return Category(hr >> 24)
}

// Result is the outcome of evaluating a set of cards: the best five-card
// hand found, its rank, category, and a human-readable description.
type Result struct {
	Rank        HandRank
	Category    Category
	Description string
	BestFive    [5]cards.Card
}

// Evaluate computes the best 5-card hand from 2 to 7 cards. Fewer than 5
// cards is treated as padding with the weakest possible kickers for the
// categories that apply (used only in tests; real hands always evaluate
// with 5-7 cards at showdown).
func Evaluate(hand []cards.Card) Result {
	byRank := make(map[cards.Rank][]cards.Card, 13)
	bySuit := make(map[cards.Suit][]cards.Card, 4)
	for _, c := range hand {
		byRank[c.Rank] = append(byRank[c.Rank], c)
		bySuit[c.Suit] = append(bySuit[c.Suit], c)
	}

	// Precedence follows standard poker hand ranking: straight flush, four
	// of a kind, full house, flush, straight, three of a kind, two pair,
	// pair, high card. A flush suit only yields Flush/StraightFlush; it
	// must not preempt a quad or full house found elsewhere in the seven
	// cards, so the straight-flush check is tried first but does not
	// return early on a plain flush.
	flushSuit, hasFlush := bestFlushSuit(bySuit)
	if hasFlush {
		suited := append([]cards.Card{}, bySuit[flushSuit]...)
		sortDesc(suited)
		if straightHigh, five, ok := bestStraight(suited); ok {
			return result(StraightFlush, five, straightHigh)
		}
	}

	quad, quadCards := findN(byRank, 4)
	if quad != 0 {
		kicker, kickerCard := bestKicker(byRank, quad)
		five := append(append([]cards.Card{}, quadCards...), kickerCard)
		return result(FourOfAKind, five, quad, kicker)
	}

	trips, tripCards := allN(byRank, 3)
	if len(trips) > 0 {
		bestTrip := trips[0]
		bestTripCards := tripCards[bestTrip]
		var pairRank cards.Rank
		var pairCards []cards.Card
		if len(trips) > 1 {
			pairRank = trips[1]
			pairCards = tripCards[pairRank][:2]
		} else if r, pc, ok := bestPair(byRank, bestTrip); ok {
			pairRank, pairCards = r, pc
		}
		if pairRank != 0 {
			five := append(append([]cards.Card{}, bestTripCards...), pairCards...)
			return result(FullHouse, five, bestTrip, pairRank)
		}
	}

	if hasFlush {
		suited := append([]cards.Card{}, bySuit[flushSuit]...)
		sortDesc(suited)
		five := suited[:5]
		return result(Flush, cardSlice(five), ranksOf(five)...)
	}

	all := append([]cards.Card{}, hand...)
	sortDesc(all)
	if straightHigh, five, ok := bestStraight(uniqueByRank(all)); ok {
		return result(Straight, five, straightHigh)
	}

	if len(trips) > 0 {
		bestTrip := trips[0]
		kickers, kickerCards := topKickers(byRank, 2, bestTrip)
		five := append(append([]cards.Card{}, tripCards[bestTrip]...), kickerCards...)
		return result(ThreeOfAKind, five, append([]cards.Rank{bestTrip}, kickers...)...)
	}

	pairs, pairCards := allN(byRank, 2)
	if len(pairs) >= 2 {
		hi, lo := pairs[0], pairs[1]
		kicker, kickerCard := bestKicker(byRank, hi, lo)
		five := append(append(append([]cards.Card{}, pairCards[hi]...), pairCards[lo]...), kickerCard)
		return result(TwoPair, five, hi, lo, kicker)
	}
	if len(pairs) == 1 {
		p := pairs[0]
		kickers, kickerCards := topKickers(byRank, 3, p)
		five := append(append([]cards.Card{}, pairCards[p]...), kickerCards...)
		return result(Pair, five, append([]cards.Rank{p}, kickers...)...)
	}

	kickers, kickerCards := topKickers(byRank, 5)
	return result(HighCard, kickerCards, kickers...)
}

func result(cat Category, five []cards.Card, ranks ...cards.Rank) Result {
	var arr [5]cards.Card
	copy(arr[:], five)
	return Result{
		Rank:        pack(cat, ranks...),
		Category:    cat,
		Description: describe(cat, ranks),
		BestFive:    arr,
	}
}

func describe(cat Category, ranks []cards.Rank) string {
	switch cat {
	case StraightFlush:
		if ranks[0] == cards.Five {
			return "Straight Flush, Five High (Wheel)"
		}
		return fmt.Sprintf("Straight Flush, %s High", ranks[0])
	case FourOfAKind:
		return fmt.Sprintf("Four of a Kind, %ss", ranks[0])
	case FullHouse:
		return fmt.Sprintf("Full House, %ss over %ss", ranks[0], ranks[1])
	case Flush:
		return fmt.Sprintf("Flush, %s High", ranks[0])
	case Straight:
		if ranks[0] == cards.Five {
			return "Straight, Five High (Wheel)"
		}
		return fmt.Sprintf("Straight, %s High", ranks[0])
	case ThreeOfAKind:
		return fmt.Sprintf("Three of a Kind, %ss", ranks[0])
	case TwoPair:
		return fmt.Sprintf("Two Pair, %ss and %ss", ranks[0], ranks[1])
	case Pair:
		return fmt.Sprintf("Pair of %ss", ranks[0])
	default:
		return fmt.Sprintf("High Card, %s", ranks[0])
	}
}

func bestFlushSuit(bySuit map[cards.Suit][]cards.Card) (cards.Suit, bool) {
	for suit, cs := range bySuit {
		if len(cs) >= 5 {
			return suit, true
		}
	}
	return 0, false
}

// bestStraight finds the highest 5-consecutive-rank run in a descending,
// duplicate-rank-free card slice, handling the A-2-3-4-5 wheel. It
// returns the straight's high rank and the five cards forming it.
func bestStraight(desc []cards.Card) (cards.Rank, []cards.Card, bool) {
	if len(desc) < 5 {
		return 0, nil, false
	}
	for i := 0; i+4 < len(desc); i++ {
		if int(desc[i].Rank)-int(desc[i+4].Rank) == 4 {
			return desc[i].Rank, desc[i : i+5], true
		}
	}
	// Wheel: A-2-3-4-5. desc[0] is the highest card overall; check for an
	// Ace plus 5,4,3,2 present anywhere in the slice.
	hasAce := desc[0].Rank == cards.Ace
	if !hasAce {
		return 0, nil, false
	}
	need := []cards.Rank{cards.Five, cards.Four, cards.Three, cards.Two}
	wheel := []cards.Card{desc[0]}
	for _, r := range need {
		found := false
		for _, c := range desc {
			if c.Rank == r {
				wheel = append(wheel, c)
				found = true
				break
			}
		}
		if !found {
			return 0, nil, false
		}
	}
	return cards.Five, wheel, true
}

// uniqueByRank returns a descending slice with at most one card per rank,
// preferring the first (already-sorted) occurrence.
func uniqueByRank(desc []cards.Card) []cards.Card {
	seen := make(map[cards.Rank]bool, 13)
	out := make([]cards.Card, 0, 13)
	for _, c := range desc {
		if seen[c.Rank] {
			continue
		}
		seen[c.Rank] = true
		out = append(out, c)
	}
	return out
}

func sortDesc(cs []cards.Card) {
	sort.Slice(cs, func(i, j int) bool { return cs[i].Rank > cs[j].Rank })
}

func cardSlice(cs []cards.Card) []cards.Card {
	return append([]cards.Card{}, cs...)
}

func ranksOf(cs []cards.Card) []cards.Rank {
	out := make([]cards.Rank, len(cs))
	for i, c := range cs {
		out[i] = c.Rank
	}
	return out
}

// findN returns the highest rank with exactly n cards, plus its cards.
func findN(byRank map[cards.Rank][]cards.Card, n int) (cards.Rank, []cards.Card) {
	var best cards.Rank
	for r, cs := range byRank {
		if len(cs) == n && r > best {
			best = r
		}
	}
	if best == 0 {
		return 0, nil
	}
	return best, byRank[best]
}

// allN returns every rank with exactly n cards, descending, plus a lookup
// of rank -> cards.
func allN(byRank map[cards.Rank][]cards.Card, n int) ([]cards.Rank, map[cards.Rank][]cards.Card) {
	out := make(map[cards.Rank][]cards.Card)
	var ranks []cards.Rank
	for r, cs := range byRank {
		if len(cs) == n {
			ranks = append(ranks, r)
			out[r] = cs
		}
	}
	sort.Slice(ranks, func(i, j int) bool { return ranks[i] > ranks[j] })
	return ranks, out
}

// bestPair finds the highest pair excluding the given rank.
func bestPair(byRank map[cards.Rank][]cards.Card, except cards.Rank) (cards.Rank, []cards.Card, bool) {
	var best cards.Rank
	for r, cs := range byRank {
		if r == except || len(cs) < 2 {
			continue
		}
		if r > best {
			best = r
		}
	}
	if best == 0 {
		return 0, nil, false
	}
	return best, byRank[best][:2], true
}

// bestKicker returns the single highest-rank card excluding the given
// ranks.
func bestKicker(byRank map[cards.Rank][]cards.Card, except ...cards.Rank) (cards.Rank, cards.Card) {
	ranks, cs := topKickers(byRank, 1, except...)
	return ranks[0], cs[0]
}

// topKickers returns the top n ranks (with one representative card each)
// excluding the given ranks, in descending order.
func topKickers(byRank map[cards.Rank][]cards.Card, n int, except ...cards.Rank) ([]cards.Rank, []cards.Card) {
	excluded := make(map[cards.Rank]bool, len(except))
	for _, r := range except {
		excluded[r] = true
	}
	var candidates []cards.Rank
	for r := range byRank {
		if !excluded[r] {
			candidates = append(candidates, r)
		}
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i] > candidates[j] })
	if len(candidates) > n {
		candidates = candidates[:n]
	}
	out := make([]cards.Card, len(candidates))
	for i, r := range candidates {
		out[i] = byRank[r][0]
	}
	return candidates, out
}

// Compare returns 1 if a beats b, -1 if b beats a, 0 for a tie.
func Compare(a, b HandRank) int {
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	default:
		return 0
	}
}
