package pokertable

import "fmt"

// ValidationError is a rejected player intent: bad turn, illegal check,
// below-min raise, and so on. It carries no state change; the caller's
// state is untouched when this is returned.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func reject(format string, args ...interface{}) (*ValidatedAction, error) {
	return nil, &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// ValidatedAction is the result of a legal intent: how much the player
// commits, their resulting round contribution, whether it is a raise, and
// whether it reopens the action for players who already acted this round.
type ValidatedAction struct {
	Type           ActionType
	Amount         int64 // chips committed by this action
	NewTotalBet    int64 // player's CurrentBet after the action
	IsRaise        bool
	ReopensAction  bool
	RemainingStack int64
}

// Validate checks a player's intended action against the current betting
// round and their turn status, producing a ValidatedAction to apply or a
// ValidationError. Validate performs no mutation.
func Validate(player *Player, round *BettingRound, actionType ActionType, amount int64, isPlayersTurn bool) (*ValidatedAction, error) {
	if !isPlayersTurn {
		return reject("it is not %s's turn to act", player.ID)
	}
	if !player.CanAct() {
		return reject("%s cannot act (status=%s)", player.ID, player.Status)
	}

	switch actionType {
	case Fold:
		return &ValidatedAction{
			Type:           Fold,
			NewTotalBet:    player.CurrentBet,
			RemainingStack: player.Chips,
		}, nil

	case Check:
		if round.CurrentBet != 0 && player.CurrentBet != round.CurrentBet {
			return reject("cannot check facing a bet of %d", round.CurrentBet)
		}
		return &ValidatedAction{
			Type:           Check,
			NewTotalBet:    player.CurrentBet,
			RemainingStack: player.Chips,
		}, nil

	case Call:
		needed := round.CurrentBet - player.CurrentBet
		if needed <= 0 {
			return reject("nothing to call, use check")
		}
		if player.Chips <= 0 {
			return reject("no chips remaining to call")
		}
		committed := needed
		if committed > player.Chips {
			// Implicit all-in for less: still a valid call.
			committed = player.Chips
		}
		return &ValidatedAction{
			Type:           Call,
			Amount:         committed,
			NewTotalBet:    player.CurrentBet + committed,
			RemainingStack: player.Chips - committed,
		}, nil

	case Raise:
		// HasActedThisRound is cleared whenever a full raise reopens the
		// action. If it is still set, the player already acted at the
		// prior bet level and an under-min all-in has not reopened
		// raising for them: they may only call or fold.
		if player.HasActedThisRound && player.CurrentBet < round.CurrentBet {
			return reject("raising is not reopened after an under-minimum all-in")
		}
		minTotal := round.CurrentBet + maxInt64(round.MinRaise, round.BigBlind)
		if amount < minTotal {
			return reject("raise to %d is below the minimum of %d", amount, minTotal)
		}
		committed := amount - player.CurrentBet
		if committed <= 0 || committed > player.Chips {
			return reject("insufficient chips to raise to %d", amount)
		}
		return &ValidatedAction{
			Type:           Raise,
			Amount:         committed,
			NewTotalBet:    amount,
			IsRaise:        true,
			ReopensAction:  true,
			RemainingStack: player.Chips - committed,
		}, nil

	case AllIn:
		if player.Chips <= 0 {
			return reject("no chips remaining to go all-in")
		}
		committed := player.Chips
		newTotal := player.CurrentBet + committed
		isRaise := newTotal > round.CurrentBet
		reopens := isRaise && (newTotal-round.CurrentBet) >= round.MinRaise
		return &ValidatedAction{
			Type:           AllIn,
			Amount:         committed,
			NewTotalBet:    newTotal,
			IsRaise:        isRaise,
			ReopensAction:  reopens,
			RemainingStack: 0,
		}, nil

	default:
		return reject("unknown action type %v", actionType)
	}
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
