package services

import (
	"context"
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/matchday/models"
)

func TestGenerateFixturesIsIdempotent(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()
	game := h.newGame(t, 6, 11, seasonStart)
	league := h.league(t)

	require.Len(t, game.Fixtures.Competitions, 1)
	assert.Equal(t, 30, game.Fixtures.Competitions[0].Matches)
	assert.Equal(t, "2025-08-01", game.Fixtures.Competitions[0].FirstDate.String())

	again, err := h.fixtures.GenerateFixtures(ctx, game.Season.ID)
	require.NoError(t, err)
	assert.Zero(t, again.MatchesCreated())
	require.Len(t, again.Skipped, 1)
	assert.Equal(t, league.ID, again.Skipped[0].CompetitionID)

	count, err := h.matchRepo.CountByCompetitionSeason(ctx, nil, league.ID, game.Season.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, count)
}

func TestGenerateFixturesSkipsSmallLeagues(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(3))

	_, err := h.seeder.SeedWorld(ctx, WorldConfig{Nations: []string{"Bigland"}, ClubsPerNation: 5, PlayersPerClub: 11, StartDate: seasonStart}, rng)
	require.NoError(t, err)
	_, err = h.seeder.SeedWorld(ctx, WorldConfig{Nations: []string{"Tinyland"}, ClubsPerNation: 1, PlayersPerClub: 11, StartDate: seasonStart}, rng)
	require.NoError(t, err)

	season, err := h.seasons.CreateSeason(ctx, mustSave(t, h), seasonStart, SeasonEnd(seasonStart))
	require.NoError(t, err)

	report, err := h.fixtures.GenerateFixtures(ctx, season.ID)
	require.NoError(t, err)
	require.Len(t, report.Competitions, 1)
	// 5 clubs: padded to 6, 10 rounds of 2 real matches each.
	assert.Equal(t, 20, report.Competitions[0].Matches)
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, ErrInsufficientClubs.Error(), report.Skipped[0].Reason)

	comps, err := h.compRepo.ListBySeason(ctx, nil, season.ID)
	require.NoError(t, err)
	assert.Len(t, comps, 2, "both leagues are linked to the season")

	matches, err := h.matchRepo.ListByCompetitionSeason(ctx, nil, report.Competitions[0].CompetitionID, season.ID)
	require.NoError(t, err)
	perDate := map[string]map[int64]bool{}
	for _, m := range matches {
		day := m.MatchDate.String()
		if perDate[day] == nil {
			perDate[day] = map[int64]bool{}
		}
		assert.False(t, perDate[day][m.HomeClubID], "club plays twice on %s", day)
		assert.False(t, perDate[day][m.AwayClubID], "club plays twice on %s", day)
		perDate[day][m.HomeClubID] = true
		perDate[day][m.AwayClubID] = true
	}
	assert.Len(t, perDate, 10)
}

func TestGenerateFixturesRejectsFinishedSeason(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()
	game := h.newGame(t, 2, 11, seasonStart)
	require.NoError(t, h.seasonRepo.MarkFinished(ctx, nil, game.Season.ID))

	_, err := h.fixtures.GenerateFixtures(ctx, game.Season.ID)
	assert.ErrorIs(t, err, ErrSeasonAlreadyFinished)
}

func mustSave(t *testing.T, h *harness) uuid.UUID {
	t.Helper()
	save := &models.Save{Name: "fixtures", CreatedAt: seasonStart}
	require.NoError(t, h.clockRepo.CreateSave(context.Background(), nil, save))
	return save.ID
}
