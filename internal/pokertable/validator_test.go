package pokertable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newActingPlayer(chips, currentBet int64) *Player {
	p := NewPlayer("p1", "Alice", 1, chips)
	p.Status = StatusActive
	p.CurrentBet = currentBet
	return p
}

func TestValidateRejectsOutOfTurn(t *testing.T) {
	p := newActingPlayer(10000, 0)
	round := NewBettingRound(200)
	_, err := Validate(p, round, Check, 0, false)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestValidateCheckRequiresNoBetFacingPlayer(t *testing.T) {
	p := newActingPlayer(10000, 0)
	round := NewBettingRound(200)
	round.CurrentBet = 200
	_, err := Validate(p, round, Check, 0, true)
	assert.Error(t, err)

	round.CurrentBet = 0
	va, err := Validate(p, round, Check, 0, true)
	require.NoError(t, err)
	assert.Equal(t, Check, va.Type)
}

func TestValidateBBOptionCheckWhenContributionMatchesCurrentBet(t *testing.T) {
	p := newActingPlayer(10000, 200)
	round := NewBettingRound(200)
	round.CurrentBet = 200
	va, err := Validate(p, round, Check, 0, true)
	require.NoError(t, err)
	assert.Equal(t, Check, va.Type)
}

func TestValidateCallImplicitAllInForLess(t *testing.T) {
	p := newActingPlayer(50, 0)
	round := NewBettingRound(200)
	round.CurrentBet = 200
	va, err := Validate(p, round, Call, 0, true)
	require.NoError(t, err)
	assert.Equal(t, int64(50), va.Amount)
	assert.Equal(t, int64(0), va.RemainingStack)
}

func TestValidateRaiseBelowMinimumRejected(t *testing.T) {
	p := newActingPlayer(10000, 0)
	round := NewBettingRound(200)
	round.CurrentBet = 200
	round.MinRaise = 200
	_, err := Validate(p, round, Raise, 300, true)
	assert.Error(t, err)
}

func TestValidateRaiseAtMinimumAccepted(t *testing.T) {
	p := newActingPlayer(10000, 0)
	round := NewBettingRound(200)
	round.CurrentBet = 200
	round.MinRaise = 200
	va, err := Validate(p, round, Raise, 400, true)
	require.NoError(t, err)
	assert.True(t, va.IsRaise)
	assert.True(t, va.ReopensAction)
	assert.Equal(t, int64(400), va.NewTotalBet)
}

func TestValidateAllInUnderMinDoesNotReopenAction(t *testing.T) {
	p := newActingPlayer(300, 0)
	round := NewBettingRound(200)
	round.CurrentBet = 200
	round.MinRaise = 200
	va, err := Validate(p, round, AllIn, 0, true)
	require.NoError(t, err)
	assert.True(t, va.IsRaise, "all-in above the current bet is a raise")
	assert.False(t, va.ReopensAction, "under-min all-in must not reopen action")
}

func TestValidateRaiseRejectedWhenActionNotReopened(t *testing.T) {
	// The player already acted at a lower bet level and an under-min
	// all-in pushed CurrentBet up without reopening: call or fold only.
	p := newActingPlayer(10000, 200)
	p.HasActedThisRound = true
	round := NewBettingRound(200)
	round.CurrentBet = 300
	round.MinRaise = 200
	_, err := Validate(p, round, Raise, 600, true)
	assert.Error(t, err)

	va, err := Validate(p, round, Call, 0, true)
	require.NoError(t, err)
	assert.Equal(t, int64(100), va.Amount)
}

func TestValidateAllInAtOrAboveMinReopensAction(t *testing.T) {
	p := newActingPlayer(500, 0)
	round := NewBettingRound(200)
	round.CurrentBet = 200
	round.MinRaise = 200
	va, err := Validate(p, round, AllIn, 0, true)
	require.NoError(t, err)
	assert.True(t, va.IsRaise)
	assert.True(t, va.ReopensAction)
}

func TestValidateFoldAlwaysLegalOnTurn(t *testing.T) {
	p := newActingPlayer(10000, 0)
	round := NewBettingRound(200)
	va, err := Validate(p, round, Fold, 0, true)
	require.NoError(t, err)
	assert.Equal(t, Fold, va.Type)
}

func TestValidateIsIdempotentGivenUnchangedState(t *testing.T) {
	p := newActingPlayer(10000, 0)
	round := NewBettingRound(200)
	round.CurrentBet = 200
	a, errA := Validate(p, round, Call, 0, true)
	b, errB := Validate(p, round, Call, 0, true)
	require.NoError(t, errA)
	require.NoError(t, errB)
	assert.Equal(t, a, b)
}
