package services

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/matchday/models"
)

func TestFourClubSeasonEndToEnd(t *testing.T) {
	h := newHarness(t, 42)
	ctx := context.Background()
	game := h.newGame(t, 4, 14, seasonStart)
	league := h.league(t)

	require.Equal(t, 12, game.Fixtures.MatchesCreated())
	matches, err := h.matchRepo.ListByCompetitionSeason(ctx, nil, league.ID, game.Season.ID)
	require.NoError(t, err)
	require.Len(t, matches, 12)

	dates := map[string]int{}
	for _, m := range matches {
		dates[m.MatchDate.String()]++
	}
	assert.Equal(t, map[string]int{
		"2025-08-01": 2, "2025-08-08": 2, "2025-08-15": 2,
		"2025-08-22": 2, "2025-08-29": 2, "2025-09-05": 2,
	}, dates)

	lastMatchDay := models.MustParseDate("2025-09-05")
	played := 0
	for {
		clock, err := h.clockRepo.Get(ctx, nil, game.Save.ID)
		require.NoError(t, err)
		if clock.CurrentDate.After(lastMatchDay) {
			break
		}

		summary, err := h.days.AdvanceOneDay(ctx, game.Save.ID)
		require.NoError(t, err)
		assert.True(t, summary.NewDate.Equal(clock.CurrentDate.AddDays(1)))
		assert.Empty(t, summary.Failed)
		assert.Empty(t, summary.Skipped)
		assert.False(t, summary.SeasonEndReached)
		played += summary.MatchesPlayed
	}
	assert.Equal(t, 12, played)

	matches, err = h.matchRepo.ListByCompetitionSeason(ctx, nil, league.ID, game.Season.ID)
	require.NoError(t, err)
	for _, m := range matches {
		require.True(t, m.IsPlayed())
		stats, err := h.statsRepo.ListPlayerStats(ctx, nil, m.ID)
		require.NoError(t, err)
		goals := map[int64]int{}
		for _, st := range stats {
			goals[st.ClubID] += st.Goals
			assert.GreaterOrEqual(t, st.Rating, 4.0)
			assert.LessOrEqual(t, st.Rating, 10.0)
		}
		assert.Equal(t, *m.HomeScore, goals[m.HomeClubID], "match %d home goals", m.ID)
		assert.Equal(t, *m.AwayScore, goals[m.AwayClubID], "match %d away goals", m.ID)
	}

	table, err := h.standings.GetStandings(ctx, league.ID, game.Season.ID)
	require.NoError(t, err)
	require.Len(t, table, 4)
	totalFor, totalAgainst := 0, 0
	for i, row := range table {
		assert.Equal(t, i+1, row.Position)
		assert.Equal(t, 6, row.Played)
		assert.Equal(t, 3*row.Wins+row.Draws, row.Points)
		assert.Equal(t, row.GoalsFor-row.GoalsAgainst, row.GoalDifference)
		if i > 0 {
			assert.True(t, table[i-1].RanksAbove(row))
		}
		totalFor += row.GoalsFor
		totalAgainst += row.GoalsAgainst

		history, err := h.standings.GetStandingsHistory(ctx, league.ID, game.Season.ID, row.ClubID)
		require.NoError(t, err)
		require.Len(t, history, 6)
		for j := 1; j < len(history); j++ {
			assert.GreaterOrEqual(t, history[j].Played, history[j-1].Played)
			assert.Greater(t, history[j].MatchDay, history[j-1].MatchDay)
		}
	}
	assert.Equal(t, totalFor, totalAgainst)

	// Stored positions at each match day are a permutation of 1..4.
	for day := 1; day <= 6; day++ {
		rows, err := h.standingRepo.ListTable(ctx, nil, league.ID, game.Season.ID, day)
		require.NoError(t, err)
		seen := map[int]bool{}
		for i, row := range rows {
			require.Equal(t, day, row.MatchDay)
			assert.Equal(t, i+1, row.Position)
			assert.False(t, seen[row.Position])
			seen[row.Position] = true
		}
	}
}

func TestAdvanceOneDayAlwaysMovesClock(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()
	game := h.newGame(t, 4, 14, seasonStart)

	first, err := h.days.AdvanceOneDay(ctx, game.Save.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, first.MatchesPlayed)
	assert.Equal(t, "2025-08-02", first.NewDate.String())

	second, err := h.days.AdvanceOneDay(ctx, game.Save.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, second.MatchesPlayed)
	assert.Equal(t, "2025-08-03", second.NewDate.String())

	clock, err := h.clockRepo.Get(ctx, nil, game.Save.ID)
	require.NoError(t, err)
	assert.Equal(t, "2025-08-03", clock.CurrentDate.String())
}

func TestAdvanceOneDayRejectsOverlap(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()
	game := h.newGame(t, 2, 12, seasonStart)

	unlock, ok := h.locks.TryLock(game.Save.ID)
	require.True(t, ok)
	_, err := h.days.AdvanceOneDay(ctx, game.Save.ID)
	assert.True(t, errors.Is(err, ErrDayAdvanceInProgress))
	_, err = h.seasons.ProcessSeasonEnd(ctx, game.Save.ID)
	assert.True(t, errors.Is(err, ErrDayAdvanceInProgress))
	unlock()

	_, err = h.days.AdvanceOneDay(ctx, game.Save.ID)
	assert.NoError(t, err)
}

func TestAdvanceOneDayWithoutClock(t *testing.T) {
	h := newHarness(t, 1)
	_, err := h.days.AdvanceOneDay(context.Background(), uuid.New())
	assert.Error(t, err)
}

func TestInsufficientSquadsRecordGoallessDraws(t *testing.T) {
	h := newHarness(t, 3)
	ctx := context.Background()
	game := h.newGame(t, 2, 8, seasonStart)
	league := h.league(t)

	summary, err := h.days.AdvanceOneDay(ctx, game.Save.ID)
	require.NoError(t, err)
	require.Equal(t, 1, summary.MatchesPlayed)

	matches, err := h.matchRepo.ListByCompetitionSeason(ctx, nil, league.ID, game.Season.ID)
	require.NoError(t, err)
	first := matches[0]
	require.True(t, first.IsPlayed())
	assert.Equal(t, 0, *first.HomeScore)
	assert.Equal(t, 0, *first.AwayScore)

	events, err := h.statsRepo.ListEvents(ctx, nil, first.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, models.EventMatchSkipped, events[0].Type)

	table, err := h.standings.GetStandings(ctx, league.ID, game.Season.ID)
	require.NoError(t, err)
	require.Len(t, table, 2)
	for _, row := range table {
		assert.Equal(t, 1, row.Draws)
		assert.Equal(t, 1, row.Points)
	}
}

func TestSameSeedSameResults(t *testing.T) {
	scores := func() []int {
		h := newHarness(t, 99)
		ctx := context.Background()
		game := h.newGame(t, 4, 14, seasonStart)
		_, err := h.days.AdvanceOneDay(ctx, game.Save.ID)
		require.NoError(t, err)

		matches, err := h.matchRepo.ListByCompetitionSeason(ctx, nil, h.league(t).ID, game.Season.ID)
		require.NoError(t, err)
		var out []int
		for _, m := range matches {
			if m.IsPlayed() {
				out = append(out, *m.HomeScore, *m.AwayScore)
			}
		}
		return out
	}
	first := scores()
	require.Len(t, first, 4)
	assert.Equal(t, first, scores())
}

func TestMonthlyFinancesOnFirstOfMonth(t *testing.T) {
	h := newHarness(t, 5)
	ctx := context.Background()
	game := h.newGame(t, 2, 12, models.MustParseDate("2025-08-31"))

	clubs, err := h.clubRepo.ListAll(ctx, nil)
	require.NoError(t, err)
	before, err := h.finance.ListTransactions(ctx, clubs[0].ID)
	require.NoError(t, err)

	summary, err := h.days.AdvanceOneDay(ctx, game.Save.ID)
	require.NoError(t, err)
	assert.Equal(t, "2025-09-01", summary.NewDate.String())

	after, err := h.finance.ListTransactions(ctx, clubs[0].ID)
	require.NoError(t, err)
	categories := map[models.TransactionCategory]int{}
	for _, tx := range after[len(before):] {
		categories[tx.Category]++
	}
	assert.Equal(t, 1, categories[models.CategoryMerchandise])
	assert.Equal(t, 1, categories[models.CategorySponsorship])
	assert.Equal(t, 1, categories[models.CategoryBroadcast])
	assert.Equal(t, 1, categories[models.CategorySalaries])

	total := decimal.Zero
	for _, tx := range after {
		total = total.Add(tx.Amount)
	}
	balance, err := h.finance.GetClubBalance(ctx, clubs[0].ID)
	require.NoError(t, err)
	assert.True(t, total.Equal(balance), "balance %s != ledger %s", balance, total)
}

// flakyMatches makes chosen matches fail, hang or panic during resolution
// and resolves the rest normally.
type flakyMatches struct {
	MatchService
	failID  int64
	hangID  int64
	panicID int64
	release chan struct{}
}

func (f *flakyMatches) Resolve(ctx context.Context, match *models.Match, rng *rand.Rand) (*MatchResult, error) {
	switch match.ID {
	case f.failID:
		return nil, errors.New("roster unavailable")
	case f.hangID:
		<-f.release
		return nil, errors.New("released")
	case f.panicID:
		panic("corrupt lineup")
	}
	return f.MatchService.Resolve(ctx, match, rng)
}

func TestAdvanceOneDaySurvivesFailingMatches(t *testing.T) {
	h := newHarness(t, 9)
	ctx := context.Background()
	game := h.newGame(t, 8, 14, seasonStart)

	due, err := h.matchRepo.ListDue(ctx, nil, game.Season.ID, seasonStart)
	require.NoError(t, err)
	require.Len(t, due, 4)

	stub := &flakyMatches{
		MatchService: h.matches,
		failID:       due[0].ID,
		hangID:       due[1].ID,
		panicID:      due[2].ID,
		release:      make(chan struct{}),
	}
	t.Cleanup(func() { close(stub.release) })

	days := NewDayService(h.conn, h.clockRepo, h.seasonRepo, h.matchRepo, stub, h.finance, h.seasons,
		h.locks, NewRandSource(9), nil, SimulationConfig{Workers: 4, MatchTimeout: 200 * time.Millisecond}, testLogger())

	summary, err := days.AdvanceOneDay(ctx, game.Save.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.MatchesPlayed)
	assert.Empty(t, summary.Failed)
	assert.True(t, summary.NewDate.Equal(seasonStart.AddDays(1)))

	reasons := map[int64]string{}
	for _, sk := range summary.Skipped {
		reasons[sk.MatchID] = sk.Reason
	}
	require.Len(t, reasons, 3)
	assert.Equal(t, "roster unavailable", reasons[due[0].ID])
	assert.Equal(t, "simulation timed out", reasons[due[1].ID])
	assert.Contains(t, reasons[due[2].ID], "simulation panicked")

	for _, m := range due {
		stored, err := h.matchRepo.GetByID(ctx, nil, m.ID)
		require.NoError(t, err)
		require.True(t, stored.IsPlayed(), "match %d", m.ID)
		if _, skipped := reasons[m.ID]; skipped {
			assert.Equal(t, 0, *stored.HomeScore)
			assert.Equal(t, 0, *stored.AwayScore)
		}
	}

	clock, err := h.clockRepo.Get(ctx, nil, game.Save.ID)
	require.NoError(t, err)
	assert.Equal(t, "2025-08-02", clock.CurrentDate.String())
}
