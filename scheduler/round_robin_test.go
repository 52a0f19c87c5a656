package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/matchday/models"
)

func clubIDs(n int) []int64 {
	ids := make([]int64, n)
	for i := range ids {
		ids[i] = int64(i + 1)
	}
	return ids
}

func TestDoubleRoundRobinProperties(t *testing.T) {
	gen := NewDoubleRoundRobinGenerator()
	start := models.MustParseDate("2025-08-01")

	for _, n := range []int{2, 3, 4, 5, 6, 7, 10, 20} {
		fixtures, err := gen.GenerateFixtures(context.Background(), GenerateFixturesParams{
			ClubIDs:   clubIDs(n),
			StartDate: start,
		})
		require.NoError(t, err, "n=%d", n)
		require.Len(t, fixtures, n*(n-1), "n=%d", n)

		ordered := make(map[[2]int64]int)
		perDate := make(map[string]map[int64]bool)
		dates := make(map[string]bool)
		for _, f := range fixtures {
			assert.NotEqual(t, f.HomeClubID, f.AwayClubID)
			assert.Positive(t, f.HomeClubID, "bye must never be scheduled")
			assert.Positive(t, f.AwayClubID, "bye must never be scheduled")
			ordered[[2]int64{f.HomeClubID, f.AwayClubID}]++

			day := f.MatchDate.String()
			dates[day] = true
			if perDate[day] == nil {
				perDate[day] = make(map[int64]bool)
			}
			for _, club := range []int64{f.HomeClubID, f.AwayClubID} {
				assert.False(t, perDate[day][club], "club %d plays twice on %s (n=%d)", club, day, n)
				perDate[day][club] = true
			}
		}

		// Every ordered pair exactly once means each unordered pair twice with home/away swapped.
		for _, a := range clubIDs(n) {
			for _, b := range clubIDs(n) {
				if a == b {
					continue
				}
				assert.Equal(t, 1, ordered[[2]int64{a, b}], "n=%d pair %d-%d", n, a, b)
			}
		}
		assert.Len(t, dates, Rounds(n), "n=%d", n)
	}
}

func TestDoubleRoundRobinFourClubs(t *testing.T) {
	gen := NewDoubleRoundRobinGenerator()
	fixtures, err := gen.GenerateFixtures(context.Background(), GenerateFixturesParams{
		ClubIDs:   []int64{11, 12, 13, 14},
		StartDate: models.MustParseDate("2025-08-01"),
	})
	require.NoError(t, err)
	require.Len(t, fixtures, 12)

	wantDates := []string{"2025-08-01", "2025-08-08", "2025-08-15", "2025-08-22", "2025-08-29", "2025-09-05"}
	for i, f := range fixtures {
		round := i/2 + 1
		assert.Equal(t, round, f.LegNumber)
		assert.Equal(t, wantDates[round-1], f.MatchDate.String())
	}

	// Round 1 pairs the ends of the list, club 0 stays home in the first leg.
	assert.Equal(t, int64(11), fixtures[0].HomeClubID)
	assert.Equal(t, int64(14), fixtures[0].AwayClubID)
	assert.Equal(t, int64(12), fixtures[1].HomeClubID)
	assert.Equal(t, int64(13), fixtures[1].AwayClubID)

	// The second leg mirrors the first with venues swapped.
	for i := 0; i < 6; i++ {
		first, second := fixtures[i], fixtures[i+6]
		assert.Equal(t, first.HomeClubID, second.AwayClubID)
		assert.Equal(t, first.AwayClubID, second.HomeClubID)
		assert.Equal(t, first.LegNumber+3, second.LegNumber)
	}
}

func TestDoubleRoundRobinOddCountRests(t *testing.T) {
	gen := NewDoubleRoundRobinGenerator()
	fixtures, err := gen.GenerateFixtures(context.Background(), GenerateFixturesParams{
		ClubIDs:       clubIDs(5),
		StartDate:     models.MustParseDate("2025-08-01"),
		RoundInterval: 3,
	})
	require.NoError(t, err)

	perRound := make(map[int]int)
	for _, f := range fixtures {
		perRound[f.LegNumber]++
	}
	assert.Len(t, perRound, 10)
	for round, count := range perRound {
		assert.Equal(t, 2, count, "round %d", round)
	}
	assert.Equal(t, "2025-08-04", fixtures[2].MatchDate.String())
}

func TestDoubleRoundRobinNotEnoughClubs(t *testing.T) {
	gen := NewDoubleRoundRobinGenerator()
	for _, ids := range [][]int64{nil, {7}} {
		_, err := gen.GenerateFixtures(context.Background(), GenerateFixturesParams{ClubIDs: ids})
		assert.True(t, errors.Is(err, ErrNotEnoughClubs))
	}
}

func TestDoubleRoundRobinDoesNotMutateInput(t *testing.T) {
	ids := []int64{4, 3, 2, 1}
	_, err := NewDoubleRoundRobinGenerator().GenerateFixtures(context.Background(), GenerateFixturesParams{ClubIDs: ids})
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 3, 2, 1}, ids)
}
