package matcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lottery-hub/internal/apperr"
	"lottery-hub/internal/models"
)

func selection(numbers, stars []int) models.PlayerSelection {
	return models.PlayerSelection{Numbers: numbers, Stars: stars}
}

func draw(numbers, stars []int) models.DrawResult {
	return models.DrawResult{
		Date:    time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC),
		Numbers: numbers,
		Stars:   stars,
	}
}

func TestEvaluate_TopPrize(t *testing.T) {
	out, err := Evaluate(selection([]int{1, 2, 3, 4, 5}, []int{1, 2}), draw([]int{1, 2, 3, 4, 5}, []int{1, 2}))
	require.NoError(t, err)

	assert.Equal(t, 5, out.NumberMatches)
	assert.Equal(t, 2, out.StarMatches)
	assert.Equal(t, 1, out.Tier.Rank)
	assert.True(t, out.Jackpot())
}

func TestEvaluate_NoPrize(t *testing.T) {
	out, err := Evaluate(selection([]int{1, 2, 3, 4, 5}, []int{1, 2}), draw([]int{6, 7, 8, 9, 10}, []int{3, 4}))
	require.NoError(t, err)

	assert.Equal(t, 0, out.NumberMatches)
	assert.Equal(t, 0, out.StarMatches)
	assert.Equal(t, NoPrize, out.Tier)
	assert.False(t, out.Tier.Wins())
	assert.Empty(t, out.MatchedNumbers)
}

func TestEvaluate_ThreePlusOne(t *testing.T) {
	out, err := Evaluate(selection([]int{1, 2, 3, 4, 5}, []int{1, 2}), draw([]int{1, 2, 3, 9, 10}, []int{1, 4}))
	require.NoError(t, err)

	assert.Equal(t, 3, out.NumberMatches)
	assert.Equal(t, 1, out.StarMatches)
	assert.Equal(t, TierFor(3, 1), out.Tier)
	assert.Equal(t, 9, out.Tier.Rank)
	assert.Equal(t, []int{1, 2, 3}, out.MatchedNumbers)
	assert.Equal(t, []int{1}, out.MatchedStars)
}

func TestEvaluate_OneStarOnlyIsNoPrize(t *testing.T) {
	out, err := Evaluate(selection([]int{1, 2, 3, 4, 5}, []int{1, 2}), draw([]int{1, 20, 30, 40, 50}, []int{2, 12}))
	require.NoError(t, err)

	assert.Equal(t, 1, out.NumberMatches)
	assert.Equal(t, 1, out.StarMatches)
	assert.Equal(t, NoPrize, out.Tier)
}

func TestEvaluate_AttachesPayout(t *testing.T) {
	d := draw([]int{1, 2, 3, 9, 10}, []int{1, 4})
	d.Prizes = []models.PrizePayout{
		{Numbers: 5, Stars: 2, Amount: 0, Winners: 0},
		{Numbers: 3, Stars: 1, Amount: 13.52, Winners: 41236},
	}

	out, err := Evaluate(selection([]int{1, 2, 3, 4, 5}, []int{1, 2}), d)
	require.NoError(t, err)
	require.NotNil(t, out.Payout)

	assert.InDelta(t, 13.52, out.Payout.Amount, 0.001)
	assert.Equal(t, 41236, out.Payout.Winners)
}

func TestEvaluate_IsIdempotent(t *testing.T) {
	sel := selection([]int{7, 14, 21, 35, 49}, []int{3, 11})
	d := draw([]int{7, 12, 21, 33, 49}, []int{3, 9})
	d.Prizes = []models.PrizePayout{{Numbers: 3, Stars: 1, Amount: 14.1, Winners: 30000}}

	first, err := Evaluate(sel, d)
	require.NoError(t, err)
	second, err := Evaluate(sel, d)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestEvaluate_CountsAreBounded(t *testing.T) {
	sel := selection([]int{10, 20, 30, 40, 50}, []int{6, 12})
	for start := 1; start <= 46; start++ {
		d := draw([]int{start, start + 1, start + 2, start + 3, start + 4}, []int{start%11 + 1, start%11 + 2})

		out, err := Evaluate(sel, d)
		require.NoError(t, err)

		assert.GreaterOrEqual(t, out.NumberMatches, 0)
		assert.LessOrEqual(t, out.NumberMatches, 5)
		assert.GreaterOrEqual(t, out.StarMatches, 0)
		assert.LessOrEqual(t, out.StarMatches, 2)
		assert.Len(t, out.MatchedNumbers, out.NumberMatches)
	}
}

func TestEvaluate_MatchCountIsSymmetric(t *testing.T) {
	a := []int{3, 17, 22, 41, 48}
	b := []int{17, 19, 22, 40, 48}

	forward, err := Evaluate(selection(a, []int{2, 9}), draw(b, []int{9, 10}))
	require.NoError(t, err)
	backward, err := Evaluate(selection(b, []int{9, 10}), draw(a, []int{2, 9}))
	require.NoError(t, err)

	assert.Equal(t, forward.NumberMatches, backward.NumberMatches)
	assert.Equal(t, forward.StarMatches, backward.StarMatches)
}

func TestValidateSelection(t *testing.T) {
	cases := []struct {
		name string
		sel  models.PlayerSelection
		ok   bool
	}{
		{"valid", selection([]int{1, 12, 23, 34, 50}, []int{1, 12}), true},
		{"four numbers", selection([]int{1, 2, 3, 4}, []int{1, 2}), false},
		{"six numbers", selection([]int{1, 2, 3, 4, 5, 6}, []int{1, 2}), false},
		{"one star", selection([]int{1, 2, 3, 4, 5}, []int{1}), false},
		{"number out of range", selection([]int{1, 2, 3, 4, 51}, []int{1, 2}), false},
		{"zero number", selection([]int{0, 2, 3, 4, 5}, []int{1, 2}), false},
		{"star out of range", selection([]int{1, 2, 3, 4, 5}, []int{1, 13}), false},
		{"repeated number", selection([]int{1, 1, 3, 4, 5}, []int{1, 2}), false},
		{"repeated star", selection([]int{1, 2, 3, 4, 5}, []int{7, 7}), false},
		{"empty", models.PlayerSelection{}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateSelection(tc.sel)
			if tc.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.ErrConfiguration), "got %v", err)
		})
	}
}

func TestEvaluate_MalformedSelection(t *testing.T) {
	_, err := Evaluate(selection([]int{1, 2, 3, 4}, []int{1, 2}), draw([]int{1, 2, 3, 4, 5}, []int{1, 2}))

	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.ErrConfiguration))
	assert.Contains(t, err.Error(), "numbers: expected 5 values")
}

func TestTiers(t *testing.T) {
	tiers := Tiers()
	require.Len(t, tiers, 13)

	seen := make(map[[2]int]bool)
	for i, tr := range tiers {
		assert.Equal(t, i+1, tr.Rank)
		key := [2]int{tr.Numbers, tr.Stars}
		assert.False(t, seen[key], "duplicate pair %v", key)
		seen[key] = true
		assert.Equal(t, tr, TierFor(tr.Numbers, tr.Stars))
	}

	tiers[0].Label = "mutated"
	assert.Equal(t, "5 + 2", TierFor(5, 2).Label)
	assert.Equal(t, NoPrize, TierFor(0, 2))
	assert.Equal(t, NoPrize, TierFor(1, 1))
}
