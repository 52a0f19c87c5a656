package repositories

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/matchday/db"
	"github.com/Dosada05/matchday/models"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := db.Open(db.Options{Driver: db.DriverSQLite, DSN: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, db.Migrate(context.Background(), conn, db.DriverSQLite))
	return conn
}

type fixture struct {
	clubs  []*models.Club
	comp   *models.Competition
	season *models.Season
}

func seedLeague(t *testing.T, conn *sql.DB, clubCount int) fixture {
	t.Helper()
	ctx := context.Background()
	clubRepo := NewClubRepository(conn)
	compRepo := NewCompetitionRepository(conn)
	seasonRepo := NewSeasonRepository(conn)
	clockRepo := NewClockRepository(conn)

	nation := &models.Nation{Name: "Testland"}
	require.NoError(t, clubRepo.CreateNation(ctx, nil, nation))

	var f fixture
	for i := 0; i < clubCount; i++ {
		club := &models.Club{Name: "Club " + string(rune('A'+i)), NationID: nation.ID, Reputation: 1000, StadiumCapacity: 20000}
		require.NoError(t, clubRepo.Create(ctx, nil, club))
		f.clubs = append(f.clubs, club)
	}

	f.comp = &models.Competition{Name: "Test League", Type: models.CompetitionLeague, NationID: &nation.ID}
	require.NoError(t, compRepo.Create(ctx, nil, f.comp))

	save := &models.Save{Name: "test", CreatedAt: models.MustParseDate("2025-07-01")}
	require.NoError(t, clockRepo.CreateSave(ctx, nil, save))

	f.season = &models.Season{
		SaveID:    save.ID,
		StartDate: models.MustParseDate("2025-08-01"),
		EndDate:   models.MustParseDate("2026-05-31"),
	}
	require.NoError(t, seasonRepo.Create(ctx, nil, f.season))
	return f
}

func TestStandingRepositoryTable(t *testing.T) {
	conn := openTestDB(t)
	f := seedLeague(t, conn, 3)
	ctx := context.Background()
	repo := NewStandingRepository(conn)

	rows := []*models.StandingRow{
		{ClubID: f.clubs[0].ID, MatchDay: 1, Played: 1, Wins: 1, GoalsFor: 2, GoalDifference: 2, Points: 3},
		{ClubID: f.clubs[1].ID, MatchDay: 1, Played: 1, Losses: 1, GoalsAgainst: 2, GoalDifference: -2},
		{ClubID: f.clubs[2].ID, MatchDay: 2, Played: 1, Wins: 1, GoalsFor: 3, GoalDifference: 3, Points: 3},
		{ClubID: f.clubs[0].ID, MatchDay: 2, Played: 2, Wins: 1, Losses: 1, GoalsFor: 2, GoalsAgainst: 3, GoalDifference: -1, Points: 3},
	}
	for _, row := range rows {
		row.CompetitionID, row.SeasonID = f.comp.ID, f.season.ID
		require.NoError(t, repo.Replace(ctx, nil, row))
	}

	table, err := repo.ListTable(ctx, nil, f.comp.ID, f.season.ID, -1)
	require.NoError(t, err)
	require.Len(t, table, 3)
	assert.Equal(t, f.clubs[2].ID, table[0].ClubID)
	assert.Equal(t, f.clubs[0].ID, table[1].ClubID)
	assert.Equal(t, 2, table[1].MatchDay)
	assert.Equal(t, f.clubs[1].ID, table[2].ClubID)

	atDayOne, err := repo.ListTable(ctx, nil, f.comp.ID, f.season.ID, 1)
	require.NoError(t, err)
	require.Len(t, atDayOne, 2)
	assert.Equal(t, f.clubs[0].ID, atDayOne[0].ClubID)

	prior, err := repo.GetLatest(ctx, nil, f.comp.ID, f.season.ID, f.clubs[0].ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, prior.MatchDay)

	_, err = repo.GetLatest(ctx, nil, f.comp.ID, f.season.ID, f.clubs[1].ID, 1)
	assert.True(t, errors.Is(err, ErrStandingNotFound))

	// Replacing a match day keeps one row per club and match day.
	again := *rows[3]
	again.Points = 4
	require.NoError(t, repo.Replace(ctx, nil, &again))
	history, err := repo.ListClubHistory(ctx, nil, f.comp.ID, f.season.ID, f.clubs[0].ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 4, history[1].Points)
}

func TestMatchRepositoryResultIsWrittenOnce(t *testing.T) {
	conn := openTestDB(t)
	f := seedLeague(t, conn, 2)
	ctx := context.Background()
	compRepo := NewCompetitionRepository(conn)
	matchRepo := NewMatchRepository(conn)

	stage := &models.CompetitionStage{CompetitionID: f.comp.ID, SeasonID: f.season.ID, Name: models.StageLeague, StageOrder: 1, NumberOfLegs: 2}
	require.NoError(t, compRepo.GetOrCreateStage(ctx, nil, stage))
	again := *stage
	again.ID = 0
	require.NoError(t, compRepo.GetOrCreateStage(ctx, nil, &again))
	assert.Equal(t, stage.ID, again.ID)

	tx, err := conn.BeginTx(ctx, nil)
	require.NoError(t, err)
	match := &models.Match{
		CompetitionID: f.comp.ID, SeasonID: f.season.ID, StageID: stage.ID,
		HomeClubID: f.clubs[0].ID, AwayClubID: f.clubs[1].ID,
		MatchDate: f.season.StartDate, LegNumber: 1,
	}
	require.NoError(t, matchRepo.BatchCreate(ctx, tx, []*models.Match{match}))
	require.NoError(t, tx.Commit())

	due, err := matchRepo.ListDue(ctx, nil, f.season.ID, f.season.StartDate)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, models.CompetitionLeague, due[0].CompetitionType)

	require.NoError(t, matchRepo.RecordResult(ctx, nil, match.ID, 2, 1))
	assert.True(t, errors.Is(matchRepo.RecordResult(ctx, nil, match.ID, 0, 0), ErrMatchAlreadyPlayed))

	got, err := matchRepo.GetByID(ctx, nil, match.ID)
	require.NoError(t, err)
	assert.True(t, got.IsPlayed())
	assert.Equal(t, 2, *got.HomeScore)

	due, err = matchRepo.ListDue(ctx, nil, f.season.ID, f.season.StartDate)
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestMatchRepositoryRejectsSelfMatch(t *testing.T) {
	conn := openTestDB(t)
	f := seedLeague(t, conn, 2)
	ctx := context.Background()
	stage := &models.CompetitionStage{CompetitionID: f.comp.ID, SeasonID: f.season.ID, Name: models.StageLeague}
	require.NoError(t, NewCompetitionRepository(conn).GetOrCreateStage(ctx, nil, stage))

	tx, err := conn.BeginTx(ctx, nil)
	require.NoError(t, err)
	defer tx.Rollback()
	err = NewMatchRepository(conn).BatchCreate(ctx, tx, []*models.Match{{
		CompetitionID: f.comp.ID, SeasonID: f.season.ID, StageID: stage.ID,
		HomeClubID: f.clubs[0].ID, AwayClubID: f.clubs[0].ID, MatchDate: f.season.StartDate, LegNumber: 1,
	}})
	assert.Error(t, err)
}

func TestAwardRepositoryIgnoresDuplicates(t *testing.T) {
	conn := openTestDB(t)
	f := seedLeague(t, conn, 2)
	ctx := context.Background()
	repo := NewAwardRepository(conn)

	trophy := &models.Trophy{ClubID: f.clubs[0].ID, CompetitionID: f.comp.ID, SeasonID: f.season.ID, DateWon: f.season.EndDate}
	inserted, err := repo.CreateTrophy(ctx, nil, trophy)
	require.NoError(t, err)
	assert.True(t, inserted)

	trophy.ClubID = f.clubs[1].ID
	inserted, err = repo.CreateTrophy(ctx, nil, trophy)
	require.NoError(t, err)
	assert.False(t, inserted)

	trophies, err := repo.ListTrophies(ctx, nil, f.season.ID)
	require.NoError(t, err)
	require.Len(t, trophies, 1)
	assert.Equal(t, f.clubs[0].ID, trophies[0].ClubID)
}

func TestClockAdvanceIsGuarded(t *testing.T) {
	conn := openTestDB(t)
	f := seedLeague(t, conn, 2)
	ctx := context.Background()
	repo := NewClockRepository(conn)

	clock := &models.GameClock{SaveID: f.season.SaveID, CurrentDate: f.season.StartDate, SeasonID: f.season.ID}
	require.NoError(t, repo.Create(ctx, nil, clock))

	next := f.season.StartDate.AddDays(1)
	require.NoError(t, repo.Advance(ctx, nil, clock.SaveID, f.season.StartDate, next))
	assert.True(t, errors.Is(repo.Advance(ctx, nil, clock.SaveID, f.season.StartDate, next), ErrClockMoved))

	got, err := repo.Get(ctx, nil, clock.SaveID)
	require.NoError(t, err)
	assert.Equal(t, "2025-08-02", got.CurrentDate.String())

	_, err = repo.Get(ctx, nil, uuid.New())
	assert.True(t, errors.Is(err, ErrGameClockNotFound))
}

func TestFinanceRepositoryBalance(t *testing.T) {
	conn := openTestDB(t)
	f := seedLeague(t, conn, 1)
	ctx := context.Background()
	repo := NewFinanceRepository(conn)
	clubID := f.clubs[0].ID

	balance, err := repo.GetBalance(ctx, nil, clubID)
	require.NoError(t, err)
	assert.True(t, balance.IsZero())

	require.NoError(t, repo.SetBalance(ctx, nil, clubID, decimal.RequireFromString("1250.50")))
	require.NoError(t, repo.SetBalance(ctx, nil, clubID, decimal.RequireFromString("1000.25")))
	balance, err = repo.GetBalance(ctx, nil, clubID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.RequireFromString("1000.25")), balance.String())
}

func TestMapConstraintErrorUnique(t *testing.T) {
	conn := openTestDB(t)
	ctx := context.Background()
	repo := NewClubRepository(conn)

	require.NoError(t, repo.CreateNation(ctx, nil, &models.Nation{Name: "Dup"}))
	err := repo.CreateNation(ctx, nil, &models.Nation{Name: "Dup"})
	assert.True(t, errors.Is(err, ErrConflict), "got %v", err)
}
