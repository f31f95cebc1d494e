package orchestrator

import (
	"time"

	"github.com/lox/bombpot/internal/cards"
	"github.com/lox/bombpot/internal/eventstore"
	"github.com/lox/bombpot/internal/pokertable"
)

// StartNewHand begins a fresh hand at the table: rotates the button,
// posts blinds, deals hole cards, and sets the first player to act.
func (a *TableActor) StartNewHand() error {
	var result error
	a.submit(func() { result = a.startNewHand() })
	return result
}

func (a *TableActor) startNewHand() error {
	table := a.table
	active := table.ActivePlayers()
	if len(active) < 2 {
		return errRejected("at least 2 active players required to start a hand, have %d", len(active))
	}

	button := table.NextOccupiedSeat(table.ButtonPosition)
	table.ButtonPosition = button

	var sbSeat, bbSeat int
	if len(active) == 2 {
		sbSeat = button
		bbSeat = table.NextOccupiedSeat(button)
	} else {
		sbSeat = table.NextOccupiedSeat(button)
		bbSeat = table.NextOccupiedSeat(sbSeat)
	}

	for _, p := range active {
		p.ResetForNewHand()
	}

	playerIDs := make([]pokertable.PlayerID, len(active))
	for i, p := range active {
		playerIDs[i] = p.ID
	}

	table.HandCount++
	hand := pokertable.NewHand(newHandID(), table.HandCount, playerIDs, button)
	hand.SmallBlindSeat = sbSeat
	hand.BigBlindSeat = bbSeat
	hand.StartedAt = time.Now()
	for _, id := range playerIDs {
		hand.Contributions[id] = 0
	}

	deck, err := a.deckFactory()
	if err != nil {
		return errExhausted("shuffle failed: %v", err)
	}
	hand.Deck = deck

	ordered := orderFromSeat(active, button)
	holeCards := make(map[pokertable.PlayerID][]cards.Card, len(ordered))
	for pass := 0; pass < 2; pass++ {
		for _, p := range ordered {
			c, err := hand.Deck.Deal()
			if err != nil {
				return errExhausted("deal hole cards: %v", err)
			}
			p.HoleCards = append(p.HoleCards, c)
			holeCards[p.ID] = append(holeCards[p.ID], c)
		}
	}

	sbPlayer := table.PlayerBySeat(sbSeat)
	bbPlayer := table.PlayerBySeat(bbSeat)
	sbAmount := minInt64(table.SmallBlind, sbPlayer.Chips)
	bbAmount := minInt64(table.BigBlind, bbPlayer.Chips)
	sbPlayer.CommitChips(sbAmount)
	bbPlayer.CommitChips(bbAmount)
	sbPlayer.HasActedThisRound = false
	bbPlayer.HasActedThisRound = false
	hand.Contributions[sbPlayer.ID] += sbAmount
	hand.Contributions[bbPlayer.ID] += bbAmount
	if sbPlayer.Status == pokertable.StatusAllIn {
		hand.AllIn[sbPlayer.ID] = true
	}
	if bbPlayer.Status == pokertable.StatusAllIn {
		hand.AllIn[bbPlayer.ID] = true
	}

	round := pokertable.NewBettingRound(table.BigBlind)
	round.CurrentBet = table.BigBlind
	hand.Round = round

	if err := hand.SM.Fire(pokertable.StartHand, &stateHooks{actor: a}); err != nil {
		return err
	}

	if len(active) == 2 {
		hand.CurrentPlayerID = sbPlayer.ID
	} else {
		utgSeat := table.NextOccupiedSeat(bbSeat)
		hand.CurrentPlayerID = table.PlayerBySeat(utgSeat).ID
	}

	table.CurrentHand = hand
	table.Status = pokertable.TablePlaying

	seq := 1
	events := []eventstore.Event{
		{HandID: hand.ID, TableID: table.ID, Sequence: seq, Timestamp: time.Now(), Kind: eventstore.HandStarted, Data: eventstore.HandStartedData{
			HandNumber: hand.Number, PlayerIDs: playerIDs, ButtonSeat: button,
		}},
	}
	seq++
	events = append(events, eventstore.Event{HandID: hand.ID, TableID: table.ID, Sequence: seq, Timestamp: time.Now(), Kind: eventstore.BlindsPosted, Data: eventstore.BlindsPostedData{
		SmallBlindPlayerID: sbPlayer.ID, SmallBlindAmount: sbAmount,
		BigBlindPlayerID: bbPlayer.ID, BigBlindAmount: bbAmount,
	}})
	seq++
	events = append(events, eventstore.Event{HandID: hand.ID, TableID: table.ID, Sequence: seq, Timestamp: time.Now(), Kind: eventstore.HoleCardsDealt, Data: eventstore.HoleCardsDealtData{
		PlayerIDs: playerIDs,
	}})

	if err := a.store.AppendRange(events); err != nil {
		return err
	}

	if a.notifier != nil {
		a.notifier.HandStarted(table, holeCards)
	}
	a.beginTurn(table, hand, hand.CurrentPlayerID)
	return nil
}

// StartBombPot begins an ante-funded hand that skips preflop betting
// entirely, dealing straight to a flop.
func (a *TableActor) StartBombPot(ante int64, doubleBoard bool) error {
	var result error
	a.submit(func() { result = a.startBombPot(ante, doubleBoard) })
	return result
}

func (a *TableActor) startBombPot(ante int64, doubleBoard bool) error {
	table := a.table
	active := table.ActivePlayers()
	if len(active) < 2 {
		return errRejected("at least 2 active players required to start a hand, have %d", len(active))
	}
	for _, p := range active {
		if p.Chips < ante {
			return errRejected("%s has insufficient chips for the %d ante", p.ID, ante)
		}
	}

	button := table.ButtonPosition
	if table.NextOccupiedSeat(button) == 0 {
		button = table.NextOccupiedSeat(0)
	}

	for _, p := range active {
		p.ResetForNewHand()
	}

	playerIDs := make([]pokertable.PlayerID, len(active))
	for i, p := range active {
		playerIDs[i] = p.ID
	}

	table.HandCount++
	hand := pokertable.NewHand(newHandID(), table.HandCount, playerIDs, button)
	hand.IsBombPot = true
	hand.IsDoubleBoard = doubleBoard
	hand.Ante = ante
	hand.StartedAt = time.Now()
	for _, id := range playerIDs {
		hand.Contributions[id] = 0
	}

	events := make([]eventstore.Event, 0, 4+len(active))
	seq := 1
	events = append(events, eventstore.Event{HandID: hand.ID, TableID: table.ID, Sequence: seq, Timestamp: time.Now(), Kind: eventstore.HandStarted, Data: eventstore.HandStartedData{
		HandNumber: hand.Number, PlayerIDs: playerIDs, ButtonSeat: button, IsBombPot: true, IsDoubleBoard: doubleBoard, Ante: ante,
	}})
	seq++

	anteTotal := int64(0)
	for _, p := range active {
		amount := minInt64(ante, p.Chips)
		p.CommitChips(amount)
		p.CurrentBet = 0 // ante is not a betting-round contribution
		hand.Contributions[p.ID] += amount
		anteTotal += amount
		if p.Status == pokertable.StatusAllIn {
			hand.AllIn[p.ID] = true
		}
		events = append(events, eventstore.Event{HandID: hand.ID, TableID: table.ID, Sequence: seq, Timestamp: time.Now(), Kind: eventstore.AntePosted, Data: eventstore.AntePostedData{
			PlayerID: p.ID, Amount: amount,
		}})
		seq++
	}
	hand.Pots = []pokertable.Pot{{ID: 0, Type: pokertable.PotMain, Amount: anteTotal, Eligible: eligibleSet(playerIDs)}}

	deck, err := a.deckFactory()
	if err != nil {
		return errExhausted("shuffle failed: %v", err)
	}
	hand.Deck = deck

	ordered := orderFromSeat(active, button)
	holeCards := make(map[pokertable.PlayerID][]cards.Card, len(ordered))
	for pass := 0; pass < 2; pass++ {
		for _, p := range ordered {
			c, err := hand.Deck.Deal()
			if err != nil {
				return errExhausted("deal hole cards: %v", err)
			}
			p.HoleCards = append(p.HoleCards, c)
			holeCards[p.ID] = append(holeCards[p.ID], c)
		}
	}
	events = append(events, eventstore.Event{HandID: hand.ID, TableID: table.ID, Sequence: seq, Timestamp: time.Now(), Kind: eventstore.HoleCardsDealt, Data: eventstore.HoleCardsDealtData{
		PlayerIDs: playerIDs,
	}})
	seq++

	hooks := &stateHooks{actor: a}
	if err := hand.SM.Fire(pokertable.StartHand, hooks); err != nil {
		return err
	}

	if err := a.dealStreetCards(hand, 3); err != nil {
		return err
	}
	events = append(events, eventstore.Event{HandID: hand.ID, TableID: table.ID, Sequence: seq, Timestamp: time.Now(), Kind: eventstore.CommunityCardsDealt, Data: eventstore.CommunityCardsDealtData{
		Phase: pokertable.Flop, Board: 0, CardCount: 3,
	}})
	seq++
	if doubleBoard {
		events = append(events, eventstore.Event{HandID: hand.ID, TableID: table.ID, Sequence: seq, Timestamp: time.Now(), Kind: eventstore.CommunityCardsDealt, Data: eventstore.CommunityCardsDealtData{
			Phase: pokertable.Flop, Board: 1, CardCount: 3,
		}})
		seq++
	}

	if err := hand.SM.Fire(pokertable.BettingComplete, hooks); err != nil {
		return err
	}

	round := pokertable.NewBettingRound(table.BigBlind)
	round.CurrentBet = 0
	hand.Round = round

	firstSeat := table.NextOccupiedSeat(button)
	hand.CurrentPlayerID = table.PlayerBySeat(firstSeat).ID

	table.CurrentHand = hand
	table.Status = pokertable.TablePlaying

	if err := a.store.AppendRange(events); err != nil {
		return err
	}

	if a.notifier != nil {
		a.notifier.HandStarted(table, holeCards)
	}
	a.beginTurn(table, hand, hand.CurrentPlayerID)
	return nil
}

// dealStreetCards burns one card and deals n onto the primary board, and
// symmetrically onto the second board for a double-board hand.
func (a *TableActor) dealStreetCards(hand *pokertable.Hand, n int) error {
	if err := hand.Deck.Burn(); err != nil {
		return errExhausted("burn: %v", err)
	}
	c, err := hand.Deck.DealN(n)
	if err != nil {
		return errExhausted("deal community cards: %v", err)
	}
	hand.Community = append(hand.Community, c...)

	if hand.IsDoubleBoard {
		if err := hand.Deck.Burn(); err != nil {
			return errExhausted("burn (board 2): %v", err)
		}
		c2, err := hand.Deck.DealN(n)
		if err != nil {
			return errExhausted("deal community cards (board 2): %v", err)
		}
		hand.Community2 = append(hand.Community2, c2...)
	}
	return nil
}

// orderFromSeat returns players (already sorted by seat ascending) in the
// order they are dealt to, starting with the first seat strictly after
// fromSeatExclusive and wrapping around the table.
func orderFromSeat(players []*pokertable.Player, fromSeatExclusive int) []*pokertable.Player {
	start := 0
	found := false
	for i, p := range players {
		if p.Seat > fromSeatExclusive {
			start = i
			found = true
			break
		}
	}
	if !found {
		start = 0
	}
	out := make([]*pokertable.Player, 0, len(players))
	out = append(out, players[start:]...)
	out = append(out, players[:start]...)
	return out
}

func eligibleSet(ids []pokertable.PlayerID) map[pokertable.PlayerID]bool {
	out := make(map[pokertable.PlayerID]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
