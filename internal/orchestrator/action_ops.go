package orchestrator

import (
	"time"

	"github.com/lox/bombpot/internal/eventstore"
	"github.com/lox/bombpot/internal/pokertable"
)

// ExecutePlayerAction validates and applies a player's intent, advancing
// the street or ending the hand as the rules require.
func (a *TableActor) ExecutePlayerAction(playerID pokertable.PlayerID, actionType pokertable.ActionType, amount int64) error {
	var result error
	a.submit(func() { result = a.executePlayerAction(playerID, actionType, amount) })
	return result
}

func (a *TableActor) executePlayerAction(playerID pokertable.PlayerID, actionType pokertable.ActionType, amount int64) error {
	table := a.table
	hand := table.CurrentHand
	if hand == nil {
		return errRejected("no hand in progress")
	}
	isPlayersTurn := hand.CurrentPlayerID == playerID
	player := table.FindPlayer(playerID)
	if player == nil {
		return errRejected("player %s is not seated at this table", playerID)
	}

	validated, err := pokertable.Validate(player, hand.Round, actionType, amount, isPlayersTurn)
	if err != nil {
		return err
	}

	if timerActive := a.timer; timerActive != nil {
		if consumed, ok := timerActive.Cancel(); ok {
			if consumed > player.TimeBankSeconds {
				consumed = player.TimeBankSeconds
			}
			player.TimeBankSeconds -= consumed
			if a.notifier != nil {
				a.notifier.TimerCancelled(table.ID, playerID)
			}
		}
	}

	isPreflop := hand.Phase() == pokertable.Preflop
	var bbPlayerID pokertable.PlayerID
	if bb := table.PlayerBySeat(hand.BigBlindSeat); bb != nil {
		// Bomb pots post no blinds; BigBlindSeat is unset there.
		bbPlayerID = bb.ID
	}
	phaseBefore := hand.Phase()

	switch actionType {
	case pokertable.Fold:
		player.Fold()
		hand.Folded[player.ID] = true
		pokertable.RemovePlayerFromPots(hand.Pots, player.ID)
	case pokertable.Check:
		player.HasActedThisRound = true
	case pokertable.Call, pokertable.Raise, pokertable.AllIn:
		player.CommitChips(validated.Amount)
		player.HasActedThisRound = true
		hand.Contributions[player.ID] += validated.Amount
		if player.Status == pokertable.StatusAllIn {
			hand.AllIn[player.ID] = true
		}
		if validated.NewTotalBet > hand.Round.CurrentBet {
			increment := validated.NewTotalBet - hand.Round.CurrentBet
			hand.Round.CurrentBet = validated.NewTotalBet
			if validated.ReopensAction {
				hand.Round.MinRaise = increment
			}
		}
		if validated.IsRaise {
			hand.Round.LastAggressorID = player.ID
			hand.LastAggressorID = player.ID
		}
		if validated.ReopensAction {
			hand.Round.RaisesThisRound++
			for _, id := range hand.PlayerIDs {
				if id == player.ID {
					continue
				}
				if p := table.FindPlayer(id); p != nil && p.CanAct() {
					p.HasActedThisRound = false
				}
			}
		}
	}

	if isPreflop && player.ID == bbPlayerID && hand.Round.RaisesThisRound == 0 {
		hand.Round.BBOptionUsed = true
	}
	hand.Round.Record(player.ID, actionType, validated.Amount)

	seq := a.nextSequence(hand)
	actedEvent := eventstore.Event{
		HandID: hand.ID, TableID: table.ID, Sequence: seq, Timestamp: time.Now(), Kind: eventstore.PlayerActed,
		Data: eventstore.PlayerActedData{PlayerID: player.ID, Type: actionType, Amount: validated.Amount, NewTotalBet: validated.NewTotalBet, IsRaise: validated.IsRaise},
	}
	if err := a.store.Append(actedEvent); err != nil {
		return err
	}

	survivors := a.playersInHand(hand)
	uncontested := len(survivors) == 1

	playersForRound := make([]*pokertable.Player, 0, len(hand.PlayerIDs))
	for _, id := range hand.PlayerIDs {
		if p := table.FindPlayer(id); p != nil {
			playersForRound = append(playersForRound, p)
		}
	}
	roundComplete := uncontested || hand.Round.IsComplete(playersForRound, isPreflop, bbPlayerID)

	// The echo goes out before settlement, street dealing, or the next
	// timer start, so clients always see ActionExecuted between the
	// previous TimerExpired/TimerCancelled and the next TimerStarted.
	handWillEnd := uncontested
	if roundComplete && !uncontested {
		handWillEnd = a.canActCount(hand) <= 1 || phaseBefore == pokertable.River
	}
	var nextID pokertable.PlayerID
	switch {
	case handWillEnd:
		// none
	case roundComplete:
		nextID = a.firstToActPostflop(table, hand)
	default:
		nextID = a.nextToAct(table, hand, player.Seat)
	}
	if a.notifier != nil {
		a.notifier.ActionExecuted(table.ID, player.ID, actionType, validated.Amount, nextID, roundComplete, handWillEnd)
	}

	switch {
	case uncontested:
		if err := a.awardUncontested(table, hand, survivors[0]); err != nil {
			return err
		}
	case roundComplete:
		if err := a.advanceStreet(table, hand); err != nil {
			return err
		}
	default:
		a.beginTurn(table, hand, nextID)
	}

	if a.notifier != nil {
		a.notifier.GameStateUpdated(table)
	}
	return nil
}

// canActCount counts the non-folded players who may still take an action.
func (a *TableActor) canActCount(hand *pokertable.Hand) int {
	n := 0
	for _, id := range hand.PlayerIDs {
		if hand.Folded[id] {
			continue
		}
		if p := a.table.FindPlayer(id); p != nil && p.CanAct() {
			n++
		}
	}
	return n
}

// beginTurn hands the action to playerID: announces the turn and starts
// the countdown.
func (a *TableActor) beginTurn(table *pokertable.Table, hand *pokertable.Hand, playerID pokertable.PlayerID) {
	hand.CurrentPlayerID = playerID
	if a.notifier != nil {
		a.notifier.ActionRequired(table.ID, playerID, table.ActionTimerSeconds)
	}
	if a.timer != nil {
		a.timer.Start(string(table.ID), string(hand.ID), string(playerID), table.ActionTimerSeconds, table.TimeBankEnabled, a.timeBankFor(table, playerID))
		if a.notifier != nil {
			a.notifier.TimerStarted(table.ID, playerID, table.ActionTimerSeconds, a.timeBankFor(table, playerID))
		}
	}
}

// playersInHand returns the players from this hand who have not folded.
func (a *TableActor) playersInHand(hand *pokertable.Hand) []*pokertable.Player {
	table := a.table
	var out []*pokertable.Player
	for _, id := range hand.PlayerIDs {
		if hand.Folded[id] {
			continue
		}
		if p := table.FindPlayer(id); p != nil {
			out = append(out, p)
		}
	}
	return out
}

// awardUncontested settles the hand when every other player has folded:
// the survivor wins every pot without a showdown.
func (a *TableActor) awardUncontested(table *pokertable.Table, hand *pokertable.Hand, survivor *pokertable.Player) error {
	hand.CurrentPlayerID = ""
	pots, overage := pokertable.CalculatePots(hand.Contributions, hand.AllIn, hand.Folded)
	hand.Pots = pots
	a.returnOverage(table, hand, overage)
	totalPot := pokertable.TotalPotAmount(pots)

	events := make([]eventstore.Event, 0, len(pots)+1)
	seq := a.nextSequence(hand)
	for _, pot := range pots {
		events = append(events, eventstore.Event{
			HandID: hand.ID, TableID: table.ID, Sequence: seq, Timestamp: time.Now(), Kind: eventstore.PotAwarded,
			Data: eventstore.PotAwardedData{PotID: pot.ID, Amount: pot.Amount, WinnerIDs: []pokertable.PlayerID{survivor.ID}},
		})
		seq++
	}

	winnersByPot := make(map[int][]pokertable.PlayerID, len(pots))
	for _, pot := range pots {
		winnersByPot[pot.ID] = []pokertable.PlayerID{survivor.ID}
	}
	awarded := pokertable.AwardPots(pots, winnersByPot)
	survivor.Chips += awarded[survivor.ID]

	finalPhase := hand.Phase()
	hooks := &stateHooks{actor: a}
	if err := hand.SM.Fire(pokertable.AllFolded, hooks); err != nil {
		return err
	}
	hand.CompletedAt = time.Now()

	results := make(map[pokertable.PlayerID]int64, len(hand.PlayerIDs))
	for _, id := range hand.PlayerIDs {
		results[id] = awarded[id] - hand.Contributions[id]
	}
	summary := eventstore.HandCompletedData{
		HandNumber: hand.Number,
		TotalPot:   totalPot, DurationMs: hand.CompletedAt.Sub(hand.StartedAt).Milliseconds(),
		PlayerCount: len(hand.PlayerIDs), WentToShowdown: false, FinalPhase: finalPhase,
		WinnerIDs: []pokertable.PlayerID{survivor.ID}, PlayerResults: results,
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

// returnOverage refunds uncallable chips to their contributor before any
// award, backing them out of the hand's contribution ledger so net
// results and chip conservation both line up.
func (a *TableActor) returnOverage(table *pokertable.Table, hand *pokertable.Hand, overage map[pokertable.PlayerID]int64) {
	for id, amt := range overage {
		hand.Contributions[id] -= amt
		if p := table.FindPlayer(id); p != nil {
			p.Chips += amt
			p.TotalBetThisHand -= amt
		}
	}
}

func sumValues(m map[pokertable.PlayerID]int64) int64 {
	var total int64
	for _, v := range m {
		total += v
	}
	return total
}

// advanceStreet collects chips into pots, deals the next street (or runs
// remaining streets out if betting is moot), and reassigns the next
// player to act.
func (a *TableActor) advanceStreet(table *pokertable.Table, hand *pokertable.Hand) error {
	pots, overage := pokertable.CalculatePots(hand.Contributions, hand.AllIn, hand.Folded)
	hand.Pots = pots
	a.returnOverage(table, hand, overage)

	for _, id := range hand.PlayerIDs {
		if p := table.FindPlayer(id); p != nil {
			p.ResetForNewRound()
		}
	}

	completedPhase := hand.Phase()
	hand.LastStreetAggressorID = hand.Round.LastAggressorID
	seq := a.nextSequence(hand)
	if err := a.store.Append(eventstore.Event{
		HandID: hand.ID, TableID: table.ID, Sequence: seq, Timestamp: time.Now(), Kind: eventstore.BettingRoundCompleted,
		Data: eventstore.BettingRoundCompletedData{Phase: completedPhase},
	}); err != nil {
		return err
	}

	canActCount := 0
	for _, id := range hand.PlayerIDs {
		if hand.Folded[id] {
			continue
		}
		if p := table.FindPlayer(id); p != nil && p.CanAct() {
			canActCount++
		}
	}

	hooks := &stateHooks{actor: a}
	if canActCount <= 1 {
		hand.CurrentPlayerID = ""
		for hand.Phase() != pokertable.Showdown {
			target := nextStreetPhase(hand.Phase())
			if n, ok := cardsDealtAt(target); ok {
				if err := a.dealAndRecordStreet(table, hand, target, n); err != nil {
					return err
				}
			}
			if err := hand.SM.Fire(pokertable.BettingComplete, hooks); err != nil {
				return err
			}
		}
		hand.Round = pokertable.NewBettingRound(table.BigBlind)
		hand.Round.CurrentBet = 0
		return a.executeShowdownLocked(table, hand)
	}

	target := nextStreetPhase(hand.Phase())
	if n, ok := cardsDealtAt(target); ok {
		if err := a.dealAndRecordStreet(table, hand, target, n); err != nil {
			return err
		}
	}
	if err := hand.SM.Fire(pokertable.BettingComplete, hooks); err != nil {
		return err
	}

	hand.Round = pokertable.NewBettingRound(table.BigBlind)
	hand.Round.CurrentBet = 0

	if hand.Phase() == pokertable.Showdown {
		hand.CurrentPlayerID = ""
		return a.executeShowdownLocked(table, hand)
	}

	a.beginTurn(table, hand, a.firstToActPostflop(table, hand))
	return nil
}

func (a *TableActor) dealAndRecordStreet(table *pokertable.Table, hand *pokertable.Hand, phase pokertable.Phase, n int) error {
	if err := a.dealStreetCards(hand, n); err != nil {
		return err
	}
	seq := a.nextSequence(hand)
	events := []eventstore.Event{{HandID: hand.ID, TableID: table.ID, Sequence: seq, Timestamp: time.Now(), Kind: eventstore.CommunityCardsDealt, Data: eventstore.CommunityCardsDealtData{Phase: phase, Board: 0, CardCount: n}}}
	if hand.IsDoubleBoard {
		events = append(events, eventstore.Event{HandID: hand.ID, TableID: table.ID, Sequence: seq + 1, Timestamp: time.Now(), Kind: eventstore.CommunityCardsDealt, Data: eventstore.CommunityCardsDealtData{Phase: phase, Board: 1, CardCount: n}})
	}
	return a.store.AppendRange(events)
}

func nextStreetPhase(current pokertable.Phase) pokertable.Phase {
	switch current {
	case pokertable.Preflop:
		return pokertable.Flop
	case pokertable.Flop:
		return pokertable.Turn
	case pokertable.Turn:
		return pokertable.River
	case pokertable.River:
		return pokertable.Showdown
	default:
		return current
	}
}

func cardsDealtAt(phase pokertable.Phase) (int, bool) {
	switch phase {
	case pokertable.Flop:
		return 3, true
	case pokertable.Turn, pokertable.River:
		return 1, true
	default:
		return 0, false
	}
}

// nextToAct returns the next player left of fromSeat who is still owed an
// action this round: either they have not acted, or their contribution
// has not yet matched the current bet.
func (a *TableActor) nextToAct(table *pokertable.Table, hand *pokertable.Hand, fromSeat int) pokertable.PlayerID {
	seats := table.OccupiedSeats()
	seat := fromSeat
	for i := 0; i < len(seats); i++ {
		seat = table.NextOccupiedSeat(seat)
		p := table.PlayerBySeat(seat)
		if p == nil || hand.Folded[p.ID] || !p.CanAct() {
			continue
		}
		if p.CurrentBet != hand.Round.CurrentBet || !p.HasActedThisRound {
			return p.ID
		}
	}
	return ""
}

// firstToActPostflop returns the first player left of the button who can
// still act this street.
func (a *TableActor) firstToActPostflop(table *pokertable.Table, hand *pokertable.Hand) pokertable.PlayerID {
	seats := table.OccupiedSeats()
	seat := hand.ButtonPosition
	for i := 0; i < len(seats); i++ {
		seat = table.NextOccupiedSeat(seat)
		p := table.PlayerBySeat(seat)
		if p == nil || hand.Folded[p.ID] || !p.CanAct() {
			continue
		}
		return p.ID
	}
	return ""
}

// ForceTimeoutFold folds the current player after their action timer
// expired, debiting the time bank they consumed.
func (a *TableActor) ForceTimeoutFold(timeBankConsumedSeconds int) error {
	var result error
	a.submit(func() { result = a.forceTimeoutFold(timeBankConsumedSeconds) })
	return result
}

func (a *TableActor) forceTimeoutFold(timeBankConsumedSeconds int) error {
	hand := a.table.CurrentHand
	if hand == nil {
		return errRejected("no hand in progress")
	}
	playerID := hand.CurrentPlayerID
	player := a.table.FindPlayer(playerID)
	if player != nil {
		debit := timeBankConsumedSeconds
		if debit > player.TimeBankSeconds {
			debit = player.TimeBankSeconds
		}
		player.TimeBankSeconds -= debit
	}
	return a.executePlayerAction(playerID, pokertable.Fold, 0)
}
