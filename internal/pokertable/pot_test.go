package pokertable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculatePotsThreeWayCallDown(t *testing.T) {
	// S1: three-way call-down, no raises, no all-ins. Pot = $6 (600 cents).
	contributions := map[PlayerID]int64{"btn": 200, "sb": 200, "bb": 200}
	pots, overage := CalculatePots(contributions, nil, nil)
	require.Len(t, pots, 1)
	assert.Equal(t, int64(600), pots[0].Amount)
	assert.Equal(t, PotMain, pots[0].Type)
	assert.Len(t, pots[0].Eligible, 3)
	assert.Nil(t, overage)
}

func TestCalculatePotsThreeAllInsPlusCaller(t *testing.T) {
	// S3: all-ins at $30/$60/$100, fourth calls $100.
	contributions := map[PlayerID]int64{"p1": 3000, "p2": 6000, "p3": 10000, "p4": 10000}
	allIn := map[PlayerID]bool{"p1": true, "p2": true, "p3": true}
	pots, overage := CalculatePots(contributions, allIn, nil)
	require.Len(t, pots, 3)

	assert.Equal(t, PotMain, pots[0].Type)
	assert.Equal(t, int64(12000), pots[0].Amount)
	assert.Len(t, pots[0].Eligible, 4)

	assert.Equal(t, PotSide, pots[1].Type)
	assert.Equal(t, int64(9000), pots[1].Amount)
	assert.Len(t, pots[1].Eligible, 3)
	assert.False(t, pots[1].Eligible["p1"])

	assert.Equal(t, PotSide, pots[2].Type)
	assert.Equal(t, int64(8000), pots[2].Amount)
	assert.Len(t, pots[2].Eligible, 2)
	assert.True(t, pots[2].Eligible["p3"])
	assert.True(t, pots[2].Eligible["p4"])

	var total int64
	for _, p := range pots {
		total += p.Amount
	}
	assert.Equal(t, int64(29000), total)
	assert.Nil(t, overage)

	// P1 wins the main pot only: capped at $120.
	winners := map[int][]PlayerID{0: {"p1"}, 1: {"p3"}, 2: {"p3"}}
	awarded := AwardPots(pots, winners)
	assert.Equal(t, int64(12000), awarded["p1"])
	assert.LessOrEqual(t, awarded["p1"], int64(12000))
}

func TestCalculatePotsUncallableOverageReturnedNotSidePot(t *testing.T) {
	// S5: Short $50 all-in vs Deep $150 all-in, heads-up.
	contributions := map[PlayerID]int64{"short": 5000, "deep": 15000}
	allIn := map[PlayerID]bool{"short": true, "deep": true}
	pots, overage := CalculatePots(contributions, allIn, nil)
	require.Len(t, pots, 1, "uncallable overage must not form a side pot")
	assert.Equal(t, int64(10000), pots[0].Amount)
	assert.Len(t, pots[0].Eligible, 2)
	require.NotNil(t, overage)
	assert.Equal(t, int64(10000), overage["deep"])
}

func TestCalculatePotsExactCallNoSidePot(t *testing.T) {
	contributions := map[PlayerID]int64{"a": 5000, "b": 5000}
	allIn := map[PlayerID]bool{"a": true}
	pots, overage := CalculatePots(contributions, allIn, nil)
	require.Len(t, pots, 1)
	assert.Nil(t, overage)
	assert.Len(t, pots[0].Eligible, 2)
}

func TestAwardPotsSumsToTotalAndOddChipGoesToFirstWinner(t *testing.T) {
	pots := []Pot{{ID: 0, Type: PotMain, Amount: 101, Eligible: map[PlayerID]bool{"a": true, "b": true}}}
	awarded := AwardPots(pots, map[int][]PlayerID{0: {"a", "b"}})
	assert.Equal(t, int64(51), awarded["a"])
	assert.Equal(t, int64(50), awarded["b"])
	assert.Equal(t, int64(0), pots[0].Amount)
}

func TestAwardPotsSkipsIneligibleWinners(t *testing.T) {
	pots := []Pot{{ID: 0, Type: PotSide, Amount: 100, Eligible: map[PlayerID]bool{"a": true}}}
	awarded := AwardPots(pots, map[int][]PlayerID{0: {"b", "a"}})
	assert.Equal(t, int64(100), awarded["a"])
	assert.Equal(t, int64(0), awarded["b"])
}

func TestRemovePlayerFromPotsIsIdempotent(t *testing.T) {
	pots := []Pot{{ID: 0, Eligible: map[PlayerID]bool{"a": true, "b": true}}}
	RemovePlayerFromPots(pots, "a")
	RemovePlayerFromPots(pots, "a")
	assert.False(t, pots[0].Eligible["a"])
	assert.True(t, pots[0].Eligible["b"])
}

func TestCalculatePotsSingleSurvivorKeepsWholePot(t *testing.T) {
	// Fold-win: the lone non-folded player takes everything as a pot to
	// be awarded, never as returned overage.
	contributions := map[PlayerID]int64{"bb": 200, "sb": 100, "btn": 0}
	folded := map[PlayerID]bool{"sb": true, "btn": true}
	pots, overage := CalculatePots(contributions, nil, folded)
	require.Len(t, pots, 1)
	assert.Equal(t, int64(300), pots[0].Amount)
	assert.True(t, pots[0].Eligible["bb"])
	assert.Nil(t, overage)
}

func TestCalculatePotsNoActiveContributorsAllFolded(t *testing.T) {
	contributions := map[PlayerID]int64{"a": 200, "b": 100}
	folded := map[PlayerID]bool{"a": true, "b": true}
	pots, overage := CalculatePots(contributions, nil, folded)
	require.Len(t, pots, 1)
	assert.Equal(t, int64(300), pots[0].Amount)
	assert.Nil(t, overage)
}
