package app

import "github.com/lox/bombpot/internal/pokertable"

// AvailableAction describes one legal intent for the caller right now,
// the response to a GetAvailableActions request. Amount fields are only
// meaningful for the actions they name.
type AvailableAction struct {
	Type      string `json:"type"`
	MinAmount int64  `json:"minAmount,omitempty"`
	MaxAmount int64  `json:"maxAmount,omitempty"`
}

// availableActions reports which of Fold/Check/Call/Raise/AllIn are legal
// for playerID right now, by probing pokertable.Validate for each action
// type. Validate performs no mutation, so this is safe to call from a
// read-only snapshot.
func availableActions(table *pokertable.Table, playerID pokertable.PlayerID) []AvailableAction {
	hand := table.CurrentHand
	if hand == nil {
		return nil
	}
	player := table.FindPlayer(playerID)
	if player == nil {
		return nil
	}
	isTurn := hand.CurrentPlayerID == playerID

	var out []AvailableAction
	if _, err := pokertable.Validate(player, hand.Round, pokertable.Fold, 0, isTurn); err == nil {
		out = append(out, AvailableAction{Type: pokertable.Fold.String()})
	}
	if _, err := pokertable.Validate(player, hand.Round, pokertable.Check, 0, isTurn); err == nil {
		out = append(out, AvailableAction{Type: pokertable.Check.String()})
	}
	if va, err := pokertable.Validate(player, hand.Round, pokertable.Call, 0, isTurn); err == nil {
		out = append(out, AvailableAction{Type: pokertable.Call.String(), MinAmount: va.Amount, MaxAmount: va.Amount})
	}
	minRaiseTotal := hand.Round.CurrentBet + maxInt64(hand.Round.MinRaise, hand.Round.BigBlind)
	if _, err := pokertable.Validate(player, hand.Round, pokertable.Raise, minRaiseTotal, isTurn); err == nil {
		out = append(out, AvailableAction{Type: pokertable.Raise.String(), MinAmount: minRaiseTotal, MaxAmount: player.CurrentBet + player.Chips})
	}
	if va, err := pokertable.Validate(player, hand.Round, pokertable.AllIn, 0, isTurn); err == nil {
		out = append(out, AvailableAction{Type: pokertable.AllIn.String(), MinAmount: va.NewTotalBet, MaxAmount: va.NewTotalBet})
	}
	return out
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
