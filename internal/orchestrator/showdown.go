package orchestrator

import (
	"time"

	"github.com/lox/bombpot/internal/cards"
	"github.com/lox/bombpot/internal/eventstore"
	"github.com/lox/bombpot/internal/evaluator"
	"github.com/lox/bombpot/internal/pokertable"
)

// ExecuteShowdown evaluates the live hands, decides show order, awards
// every pot, and completes the hand. Requires the hand to already be at
// the Showdown phase.
func (a *TableActor) ExecuteShowdown() error {
	var result error
	a.submit(func() {
		hand := a.table.CurrentHand
		if hand == nil {
			result = errRejected("no hand in progress")
			return
		}
		result = a.executeShowdownLocked(a.table, hand)
	})
	return result
}

func (a *TableActor) executeShowdownLocked(table *pokertable.Table, hand *pokertable.Hand) error {
	if hand.Phase() != pokertable.Showdown {
		return errRejected("hand is not at showdown (phase=%s)", hand.Phase())
	}

	live := a.playersInHand(hand)
	if len(live) == 0 {
		return errRejected("no live players at showdown")
	}
	hand.CurrentPlayerID = ""

	boards := hand.Boards()
	evals := make(map[pokertable.PlayerID][]evaluator.Result, len(live))
	for _, p := range live {
		results := make([]evaluator.Result, 0, len(boards))
		for _, board := range boards {
			seven := make([]cards.Card, 0, len(p.HoleCards)+len(board))
			seven = append(seven, p.HoleCards...)
			seven = append(seven, board...)
			results = append(results, evaluator.Evaluate(seven))
		}
		evals[p.ID] = results
	}

	order := showOrder(table, hand, live)

	shown := make(map[pokertable.PlayerID]bool, len(live))
	seq := a.nextSequence(hand)
	var events []eventstore.Event
	for i, p := range order {
		mustShow := i == 0 || canWinAnyPot(p.ID, hand.Pots, live, evals)
		if mustShow {
			shown[p.ID] = true
			hand.Shown[p.ID] = true
			events = append(events, eventstore.Event{
				HandID: hand.ID, TableID: table.ID, Sequence: seq, Timestamp: time.Now(), Kind: eventstore.PlayerShowedCards,
				Data: eventstore.PlayerShowedCardsData{PlayerID: p.ID, Description: evals[p.ID][0].Description},
			})
		} else {
			events = append(events, eventstore.Event{
				HandID: hand.ID, TableID: table.ID, Sequence: seq, Timestamp: time.Now(), Kind: eventstore.PlayerMuckedCards,
				Data: eventstore.PlayerMuckedCardsData{PlayerID: p.ID},
			})
		}
		seq++
	}

	potEvents, awarded, nextSeq := a.settlePotsAtShowdown(table, hand, shown, evals, seq)
	events = append(events, potEvents...)
	seq = nextSeq

	hooks := &stateHooks{actor: a}
	if err := hand.SM.Fire(pokertable.ShowdownComplete, hooks); err != nil {
		return err
	}
	hand.CompletedAt = time.Now()

	results := make(map[pokertable.PlayerID]int64, len(hand.PlayerIDs))
	var winnerIDs []pokertable.PlayerID
	for _, id := range hand.PlayerIDs {
		results[id] = awarded[id] - hand.Contributions[id]
		if awarded[id] > 0 {
			winnerIDs = append(winnerIDs, id)
		}
	}
	shownCards := make(map[pokertable.PlayerID][]cards.Card, len(shown))
	descriptions := make(map[pokertable.PlayerID]string, len(shown))
	for _, p := range live {
		if !shown[p.ID] {
			continue
		}
		shownCards[p.ID] = append([]cards.Card{}, p.HoleCards...)
		descriptions[p.ID] = evals[p.ID][0].Description
	}
	summary := eventstore.HandCompletedData{
		HandNumber: hand.Number,
		TotalPot:   sumValues(awarded), DurationMs: hand.CompletedAt.Sub(hand.StartedAt).Milliseconds(),
		PlayerCount: len(hand.PlayerIDs), WentToShowdown: true, FinalPhase: pokertable.Showdown,
		WinnerIDs: winnerIDs, PlayerResults: results,
		ShownCards: shownCards, HandDescriptions: descriptions,
	}
	events = append(events, eventstore.Event{HandID: hand.ID, TableID: table.ID, Sequence: seq, Timestamp: time.Now(), Kind: eventstore.HandCompleted, Data: summary})

	if err := a.store.AppendRange(events); err != nil {
		return err
	}

	table.CurrentHand = nil
	if a.notifier != nil {
		a.notifier.HandCompleted(table, summary)
	}
	return nil
}

// showOrder returns live players in the order they reveal at showdown: the
// last street's aggressor first (if any), else the first-to-act postflop
// (seat left of the button), then clockwise through the rest.
func showOrder(table *pokertable.Table, hand *pokertable.Hand, live []*pokertable.Player) []*pokertable.Player {
	liveIDs := make([]pokertable.PlayerID, len(live))
	byID := make(map[pokertable.PlayerID]*pokertable.Player, len(live))
	for i, p := range live {
		liveIDs[i] = p.ID
		byID[p.ID] = p
	}

	clockwise := seatTieBreakOrder(table, hand.ButtonPosition, liveIDs)
	if len(clockwise) == 0 {
		return nil
	}

	start := 0
	if hand.LastStreetAggressorID != "" {
		for i, id := range clockwise {
			if id == hand.LastStreetAggressorID {
				start = i
				break
			}
		}
	}
	rotated := append(append([]pokertable.PlayerID{}, clockwise[start:]...), clockwise[:start]...)

	out := make([]*pokertable.Player, len(rotated))
	for i, id := range rotated {
		out[i] = byID[id]
	}
	return out
}

// seatTieBreakOrder orders ids by seat, starting with the first occupied
// seat clockwise from button. This is both the showdown reveal order
// baseline and the deterministic odd-chip tie-break order.
func seatTieBreakOrder(table *pokertable.Table, button int, ids []pokertable.PlayerID) []pokertable.PlayerID {
	want := make(map[pokertable.PlayerID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	seats := table.OccupiedSeats()
	var ordered []pokertable.PlayerID
	seat := button
	for i := 0; i < len(seats); i++ {
		seat = table.NextOccupiedSeat(seat)
		p := table.PlayerBySeat(seat)
		if p != nil && want[p.ID] {
			ordered = append(ordered, p.ID)
		}
	}
	return ordered
}

// canWinAnyPot reports whether player id's evaluated hand(s) could win or
// split at least one pot they are eligible for, compared against every
// other live player's full hand (the server knows all hole cards
// regardless of who has voluntarily shown yet).
func canWinAnyPot(id pokertable.PlayerID, pots []pokertable.Pot, live []*pokertable.Player, evals map[pokertable.PlayerID][]evaluator.Result) bool {
	myEvals, ok := evals[id]
	if !ok {
		return false
	}
	for _, pot := range pots {
		if !pot.Eligible[id] {
			continue
		}
		for boardIdx, my := range myEvals {
			winning := true
			for _, p := range live {
				if p.ID == id || !pot.Eligible[p.ID] {
					continue
				}
				if evaluator.Compare(evals[p.ID][boardIdx].Rank, my.Rank) > 0 {
					winning = false
					break
				}
			}
			if winning {
				return true
			}
		}
	}
	return false
}

// settlePotsAtShowdown awards every pot to its winner(s): single-board
// pots go entirely to the best shown hand; double-board pots split 50/50
// between each board's own best shown hand, with any odd chip going to
// the earliest seat left of the button among that half's tied winners.
// seq is the next free event sequence number; it returns the events
// produced, the chips credited per player, and the next free sequence.
func (a *TableActor) settlePotsAtShowdown(table *pokertable.Table, hand *pokertable.Hand, shown map[pokertable.PlayerID]bool, evals map[pokertable.PlayerID][]evaluator.Result, seq int) ([]eventstore.Event, map[pokertable.PlayerID]int64, int) {
	boards := hand.Boards()
	awarded := make(map[pokertable.PlayerID]int64)
	var events []eventstore.Event

	for i := range hand.Pots {
		pot := &hand.Pots[i]
		if pot.Amount == 0 {
			continue
		}

		share := make(map[pokertable.PlayerID]int64)
		var winnerIDs []pokertable.PlayerID

		if len(boards) == 1 {
			winners := seatTieBreakOrder(table, hand.ButtonPosition, bestHandWinners(pot, 0, shown, evals))
			for id, amt := range splitAmongWinners(pot.Amount, winners) {
				share[id] += amt
			}
			winnerIDs = winners
		} else {
			half0 := pot.Amount / 2
			half1 := pot.Amount - half0
			w0 := seatTieBreakOrder(table, hand.ButtonPosition, bestHandWinners(pot, 0, shown, evals))
			w1 := seatTieBreakOrder(table, hand.ButtonPosition, bestHandWinners(pot, 1, shown, evals))
			for id, amt := range splitAmongWinners(half0, w0) {
				share[id] += amt
			}
			for id, amt := range splitAmongWinners(half1, w1) {
				share[id] += amt
			}
			winnerIDs = dedupIDs(append(append([]pokertable.PlayerID{}, w0...), w1...))
		}

		for id, amt := range share {
			awarded[id] += amt
			if p := table.FindPlayer(id); p != nil {
				p.Chips += amt
			}
		}
		pot.Amount = 0

		events = append(events, eventstore.Event{
			HandID: hand.ID, TableID: table.ID, Sequence: seq, Timestamp: time.Now(), Kind: eventstore.PotAwarded,
			Data: eventstore.PotAwardedData{PotID: pot.ID, Amount: sumValues(share), WinnerIDs: winnerIDs},
		})
		seq++
	}

	return events, awarded, seq
}

// bestHandWinners returns the shown, pot-eligible players whose boardIdx
// hand rank is tied for best.
func bestHandWinners(pot *pokertable.Pot, boardIdx int, shown map[pokertable.PlayerID]bool, evals map[pokertable.PlayerID][]evaluator.Result) []pokertable.PlayerID {
	var best evaluator.HandRank
	var winners []pokertable.PlayerID
	first := true
	for id := range pot.Eligible {
		if !shown[id] {
			continue
		}
		rank := evals[id][boardIdx].Rank
		switch {
		case first || evaluator.Compare(rank, best) > 0:
			best = rank
			winners = []pokertable.PlayerID{id}
			first = false
		case evaluator.Compare(rank, best) == 0:
			winners = append(winners, id)
		}
	}
	return winners
}

// splitAmongWinners divides amount evenly among winners (already in
// tie-break order), crediting any remainder cent to the first.
func splitAmongWinners(amount int64, winners []pokertable.PlayerID) map[pokertable.PlayerID]int64 {
	out := make(map[pokertable.PlayerID]int64, len(winners))
	if len(winners) == 0 || amount == 0 {
		return out
	}
	share := amount / int64(len(winners))
	remainder := amount % int64(len(winners))
	for i, id := range winners {
		amt := share
		if i == 0 {
			amt += remainder
		}
		out[id] = amt
	}
	return out
}

func dedupIDs(ids []pokertable.PlayerID) []pokertable.PlayerID {
	seen := make(map[pokertable.PlayerID]bool, len(ids))
	out := make([]pokertable.PlayerID, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
