package services

import (
	"context"
	"database/sql"
	"errors"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/matchday/models"
	"github.com/Dosada05/matchday/repositories"
)

// addPlayedCupFinal creates a cup with a played final won 2-1 by the home
// club, with a goal-scoring player on record.
func addPlayedCupFinal(t *testing.T, h *harness, season *models.Season, home, away *models.Club) *models.Competition {
	t.Helper()
	ctx := context.Background()

	cup := &models.Competition{Name: "Testland Cup", Type: models.CompetitionCup}
	require.NoError(t, h.compRepo.Create(ctx, nil, cup))
	require.NoError(t, h.compRepo.LinkSeason(ctx, nil, cup.ID, season.ID))
	stage := &models.CompetitionStage{CompetitionID: cup.ID, SeasonID: season.ID, Name: models.StageFinal, StageOrder: 1, NumberOfLegs: 1}
	require.NoError(t, h.compRepo.GetOrCreateStage(ctx, nil, stage))

	final := &models.Match{
		CompetitionID: cup.ID, SeasonID: season.ID, StageID: stage.ID,
		HomeClubID: home.ID, AwayClubID: away.ID,
		MatchDate: season.EndDate.AddDays(-3), LegNumber: 1,
	}
	err := withTx(ctx, h.conn, testLogger(), func(tx *sql.Tx) error {
		if err := h.matchRepo.BatchCreate(ctx, tx, []*models.Match{final}); err != nil {
			return err
		}
		return h.matchRepo.RecordResult(ctx, tx, final.ID, 2, 1)
	})
	require.NoError(t, err)

	squad, err := h.playerRepo.ListSquad(ctx, nil, home.ID, final.MatchDate)
	require.NoError(t, err)
	require.NotEmpty(t, squad)
	require.NoError(t, h.statsRepo.CreatePlayerStats(ctx, nil, []models.PlayerMatchStat{{
		MatchID: final.ID, PlayerID: squad[0].ID, ClubID: home.ID, Position: squad[0].Position,
		Rating: 8.4, Goals: 2,
	}}))
	return cup
}

func TestProcessSeasonEndScenario(t *testing.T) {
	h := newHarness(t, 11)
	ctx := context.Background()
	game := h.newGame(t, 4, 14, seasonStart)
	season := game.Season
	end := season.EndDate
	require.Equal(t, "2026-07-31", end.String())

	clubs, err := h.clubRepo.ListAll(ctx, nil)
	require.NoError(t, err)
	cup := addPlayedCupFinal(t, h, season, clubs[0], clubs[1])

	veteran := &models.Player{FirstName: "Old", LastName: "Timer", BirthDate: end.AddDate(-37, 0, 0), Position: models.PositionCB, Overall: 60}
	require.NoError(t, h.playerRepo.Create(ctx, nil, veteran))
	require.NoError(t, h.playerRepo.CreateContract(ctx, nil, &models.PlayerContract{
		PlayerID: veteran.ID, ClubID: clubs[2].ID, StartDate: seasonStart, EndDate: end, Salary: decimal.NewFromInt(1000),
	}))
	expiringPlayers, err := h.playerRepo.ListExpiringPlayerContracts(ctx, nil, previousSeasonEnd(season), end)
	require.NoError(t, err)
	expiringStaff, err := h.playerRepo.ListExpiringStaffContracts(ctx, nil, previousSeasonEnd(season), end)
	require.NoError(t, err)

	_, err = h.seasons.ProcessSeasonEnd(ctx, game.Save.ID)
	require.True(t, errors.Is(err, ErrSeasonNotOver))

	balanceBefore, err := h.finance.GetClubBalance(ctx, clubs[0].ID)
	require.NoError(t, err)
	require.NoError(t, h.clockRepo.Set(ctx, nil, &models.GameClock{SaveID: game.Save.ID, CurrentDate: end, SeasonID: season.ID}))

	report, err := h.seasons.ProcessSeasonEnd(ctx, game.Save.ID)
	require.NoError(t, err)

	// The league had no played matches, so only the cup produces a trophy.
	trophies, err := h.awardRepo.ListTrophies(ctx, nil, season.ID)
	require.NoError(t, err)
	require.Len(t, trophies, 1)
	assert.Equal(t, cup.ID, trophies[0].CompetitionID)
	assert.Equal(t, clubs[0].ID, trophies[0].ClubID)
	assert.True(t, trophies[0].DateWon.Equal(end))

	balanceAfter, err := h.finance.GetClubBalance(ctx, clubs[0].ID)
	require.NoError(t, err)
	assert.True(t, balanceAfter.Sub(balanceBefore).Equal(DefaultFinanceConfig().PrizeCup))

	awards, err := h.awardRepo.ListAwards(ctx, nil, season.ID)
	require.NoError(t, err)
	require.NotEmpty(t, awards)
	types := map[models.AwardType]bool{}
	for _, a := range awards {
		types[a.Type] = true
	}
	assert.True(t, types[models.AwardGoldenBoot])
	assert.True(t, types[models.AwardTopScorerCompetition])
	assert.False(t, types[models.AwardBestPlayer], "one match is below the threshold")

	assert.Equal(t, len(expiringPlayers)+len(expiringStaff), report.ContractsResolved)
	transfers, err := h.transferRepo.ListByDate(ctx, nil, end)
	require.NoError(t, err)
	assert.Len(t, transfers, report.ContractsResolved)

	finished, err := h.seasonRepo.GetByID(ctx, nil, season.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SeasonStatusFinished, finished.Status)

	next, err := h.seasons.GetActiveSeason(ctx, game.Save.ID)
	require.NoError(t, err)
	assert.Equal(t, report.NewSeasonID, next.ID)
	assert.Equal(t, "2026-08-07", next.StartDate.String())
	assert.Equal(t, "2027-08-06", next.EndDate.String())

	clock, err := h.clockRepo.Get(ctx, nil, game.Save.ID)
	require.NoError(t, err)
	assert.Equal(t, next.ID, clock.SeasonID)
	assert.True(t, clock.CurrentDate.Equal(next.StartDate))

	windows, err := h.seasonRepo.ListWindows(ctx, nil, next.ID)
	require.NoError(t, err)
	require.Len(t, windows, 2)
	for _, w := range windows {
		switch w.Name {
		case models.TransferWindowSummer:
			assert.Equal(t, "2026-08-01", w.StartDate.String())
			assert.True(t, w.EndDate.Equal(next.StartDate))
		case models.TransferWindowWinter:
			assert.Equal(t, "2027-01-01", w.StartDate.String())
			assert.Equal(t, "2027-01-31", w.EndDate.String())
		}
	}

	nextMatches, err := h.matchRepo.CountByCompetitionSeason(ctx, nil, h.league(t).ID, next.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, nextMatches)

	comps, err := h.compRepo.ListBySeason(ctx, nil, next.ID)
	require.NoError(t, err)
	assert.Len(t, comps, 2, "league and cup carry over")

	require.NotEmpty(t, report.ArchiveURL)
	assert.Len(t, h.archive.Keys(), 1)

	_, err = h.seasons.ProcessSeasonEnd(ctx, game.Save.ID)
	assert.True(t, errors.Is(err, ErrSeasonNotOver))
}

func TestAdvanceRunsTransitionAtSeasonEnd(t *testing.T) {
	h := newHarness(t, 2)
	ctx := context.Background()
	game := h.newGame(t, 2, 12, seasonStart)

	end := game.Season.EndDate
	require.NoError(t, h.clockRepo.Set(ctx, nil, &models.GameClock{SaveID: game.Save.ID, CurrentDate: end, SeasonID: game.Season.ID}))

	result, err := h.days.Advance(ctx, game.Save.ID)
	require.NoError(t, err)
	assert.True(t, result.Day.SeasonEndReached)
	// Both fixtures were overdue and get played on the last day.
	assert.Equal(t, 2, result.Day.MatchesPlayed)
	require.NotNil(t, result.Transition)
	assert.Len(t, result.Transition.Trophies, 1, "league champion crowned")
	assert.True(t, result.Transition.NewStartDate.Equal(end.AddDays(NextSeasonGapDays)))
}

func TestSeasonTransitionRollsBackOnFailure(t *testing.T) {
	h := newHarness(t, 2)
	ctx := context.Background()
	game := h.newGame(t, 2, 12, seasonStart)
	end := game.Season.EndDate
	require.NoError(t, h.clockRepo.Set(ctx, nil, &models.GameClock{SaveID: game.Save.ID, CurrentDate: end, SeasonID: game.Season.ID}))

	// A season already occupying the next start date makes the transition
	// fail after the earlier steps have run.
	_, err := h.conn.ExecContext(ctx, `CREATE UNIQUE INDEX test_one_start ON season (save_id, start_date)`)
	require.NoError(t, err)
	blocker := &models.Season{SaveID: game.Save.ID, StartDate: end.AddDays(NextSeasonGapDays), EndDate: end.AddDays(400), Status: models.SeasonStatusFinished}
	require.NoError(t, h.seasonRepo.Create(ctx, nil, blocker))

	_, err = h.seasons.ProcessSeasonEnd(ctx, game.Save.ID)
	require.Error(t, err)
	var transitionErr *TransitionError
	require.True(t, errors.As(err, &transitionErr))
	assert.Equal(t, "next season", transitionErr.Step)
	assert.True(t, errors.Is(err, repositories.ErrConflict))

	season, err := h.seasonRepo.GetByID(ctx, nil, game.Season.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SeasonStatusInProgress, season.Status)
	clock, err := h.clockRepo.Get(ctx, nil, game.Save.ID)
	require.NoError(t, err)
	assert.Equal(t, game.Season.ID, clock.SeasonID)
	transfers, err := h.transferRepo.ListByDate(ctx, nil, end)
	require.NoError(t, err)
	assert.Empty(t, transfers)
}

func TestPlayerRetires(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	young := 0
	veterans := 0
	for i := 0; i < 1000; i++ {
		if playerRetires(24, 50, rng) {
			young++
		}
		if playerRetires(36, 60, rng) {
			veterans++
		}
	}
	assert.Zero(t, young)
	assert.InDelta(t, 840, veterans, 60)
}

func TestCreateSeasonValidatesDates(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()
	game := h.newGame(t, 2, 12, seasonStart)

	_, err := h.seasons.CreateSeason(ctx, game.Save.ID, seasonStart, seasonStart)
	assert.True(t, errors.Is(err, ErrInvalidSeasonDates))

	season, err := h.seasons.CreateSeason(ctx, game.Save.ID, models.MustParseDate("2030-08-01"), models.MustParseDate("2031-05-31"))
	require.NoError(t, err)
	assert.NotZero(t, season.ID)
	windows, err := h.seasonRepo.ListWindows(ctx, nil, season.ID)
	require.NoError(t, err)
	assert.Len(t, windows, 2)
}

func TestSeasonEndsFollowTransitionGap(t *testing.T) {
	ends := seasonEnds(seasonStart, 3)
	require.Len(t, ends, 3)
	assert.Equal(t, "2026-07-31", ends[0].String())
	assert.Equal(t, "2027-08-06", ends[1].String())
	assert.Equal(t, "2028-08-12", ends[2].String())
}

func TestContractsSettledAcrossTwoTransitions(t *testing.T) {
	h := newHarness(t, 5)
	ctx := context.Background()
	game := h.newGame(t, 4, 18, seasonStart)
	clubs, err := h.clubRepo.ListAll(ctx, nil)
	require.NoError(t, err)

	// Ends inside the second season, a few days before its last day.
	offCycle := &models.Player{FirstName: "Off", LastName: "Cycle", BirthDate: seasonStart.AddDate(-26, 0, 0), Position: models.PositionCM, Overall: 70}
	require.NoError(t, h.playerRepo.Create(ctx, nil, offCycle))
	require.NoError(t, h.playerRepo.CreateContract(ctx, nil, &models.PlayerContract{
		PlayerID: offCycle.ID, ClubID: clubs[0].ID, StartDate: seasonStart,
		EndDate: models.MustParseDate("2027-07-31"), Salary: decimal.NewFromInt(1000),
	}))

	first := game.Season
	require.NoError(t, h.clockRepo.Set(ctx, nil, &models.GameClock{SaveID: game.Save.ID, CurrentDate: first.EndDate, SeasonID: first.ID}))
	report1, err := h.seasons.ProcessSeasonEnd(ctx, game.Save.ID)
	require.NoError(t, err)
	assert.Positive(t, report1.ContractsResolved)

	second, err := h.seasons.GetActiveSeason(ctx, game.Save.ID)
	require.NoError(t, err)
	squadsAtStart := map[int64][]*models.Player{}
	for _, club := range clubs {
		squadsAtStart[club.ID], err = h.playerRepo.ListSquad(ctx, nil, club.ID, second.StartDate)
		require.NoError(t, err)
	}

	require.NoError(t, h.clockRepo.Set(ctx, nil, &models.GameClock{SaveID: game.Save.ID, CurrentDate: second.EndDate, SeasonID: second.ID}))
	report2, err := h.seasons.ProcessSeasonEnd(ctx, game.Save.ID)
	require.NoError(t, err)
	assert.Positive(t, report2.ContractsResolved)

	transfers, err := h.transferRepo.ListByDate(ctx, nil, second.EndDate)
	require.NoError(t, err)
	departed := map[int64]bool{}
	for _, tr := range transfers {
		if tr.PersonType == models.PersonPlayer {
			departed[tr.PersonID] = true
		}
	}
	assert.True(t, departed[offCycle.ID], "contract ending before the season end is settled")

	// Nobody leaves a squad between the second and third season without a
	// recorded departure.
	for _, club := range clubs {
		after, err := h.playerRepo.ListSquad(ctx, nil, club.ID, report2.NewStartDate)
		require.NoError(t, err)
		still := map[int64]bool{}
		for _, p := range after {
			still[p.ID] = true
		}
		for _, p := range squadsAtStart[club.ID] {
			if !still[p.ID] {
				assert.True(t, departed[p.ID], "player %d of club %d lapsed without a transfer", p.ID, club.ID)
			}
		}
	}
}
