package services

import (
	"context"
	"database/sql"
	"io"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/matchday/db"
	"github.com/Dosada05/matchday/engine"
	"github.com/Dosada05/matchday/models"
	"github.com/Dosada05/matchday/repositories"
	"github.com/Dosada05/matchday/scheduler"
	"github.com/Dosada05/matchday/storage"
)

var seasonStart = models.MustParseDate("2025-08-01")

type harness struct {
	conn *sql.DB

	clubRepo     repositories.ClubRepository
	compRepo     repositories.CompetitionRepository
	seasonRepo   repositories.SeasonRepository
	clockRepo    repositories.ClockRepository
	matchRepo    repositories.MatchRepository
	playerRepo   repositories.PlayerRepository
	statsRepo    repositories.StatsRepository
	standingRepo repositories.StandingRepository
	awardRepo    repositories.AwardRepository
	transferRepo repositories.TransferRepository
	financeRepo  repositories.FinanceRepository

	locks     *SaveLocks
	finance   FinanceService
	standings StandingsService
	fixtures  FixtureService
	matches   MatchService
	awards    AwardService
	seasons   SeasonService
	days      DayService
	seeder    SeedService
	archive   *storage.MemoryStore
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newHarness(t *testing.T, seed int64) *harness {
	t.Helper()
	conn, err := db.Open(db.Options{Driver: db.DriverSQLite, DSN: filepath.Join(t.TempDir(), "save.db")})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, db.Migrate(context.Background(), conn, db.DriverSQLite))

	logger := testLogger()
	h := &harness{
		conn:         conn,
		clubRepo:     repositories.NewClubRepository(conn),
		compRepo:     repositories.NewCompetitionRepository(conn),
		seasonRepo:   repositories.NewSeasonRepository(conn),
		clockRepo:    repositories.NewClockRepository(conn),
		matchRepo:    repositories.NewMatchRepository(conn),
		playerRepo:   repositories.NewPlayerRepository(conn),
		statsRepo:    repositories.NewStatsRepository(conn),
		standingRepo: repositories.NewStandingRepository(conn),
		awardRepo:    repositories.NewAwardRepository(conn),
		transferRepo: repositories.NewTransferRepository(conn),
		financeRepo:  repositories.NewFinanceRepository(conn),
		locks:        NewSaveLocks(),
		archive:      storage.NewMemoryStore("https://archive.test"),
	}

	randSource := NewRandSource(seed)
	eng := engine.New(engine.DefaultConfig())

	h.finance = NewFinanceService(conn, h.financeRepo, h.clubRepo, h.playerRepo, DefaultFinanceConfig(), logger)
	h.standings = NewStandingsService(h.standingRepo, logger)
	h.fixtures = NewFixtureService(conn, scheduler.NewDoubleRoundRobinGenerator(), h.seasonRepo, h.compRepo, h.clubRepo, h.matchRepo, logger)
	h.matches = NewMatchService(conn, eng, h.matchRepo, h.clubRepo, h.playerRepo, h.statsRepo, h.standings, h.finance, randSource, logger)
	h.awards = NewAwardService(h.compRepo, h.matchRepo, h.statsRepo, h.awardRepo, h.standings, h.finance, eng.Config(), AwardsConfig{MinMatches: DefaultAwardMinMatches}, logger)
	h.seasons = NewSeasonService(conn, h.seasonRepo, h.clockRepo, h.compRepo, h.playerRepo, h.transferRepo,
		h.fixtures, h.awards, h.standings, h.finance, h.archive, h.locks, randSource, nil, logger)
	h.days = NewDayService(conn, h.clockRepo, h.seasonRepo, h.matchRepo, h.matches, h.finance, h.seasons,
		h.locks, randSource, nil, SimulationConfig{Workers: 4}, logger)
	h.seeder = NewSeedService(conn, h.clubRepo, h.compRepo, h.playerRepo, logger)
	return h
}

// newGame seeds one nation with clubs and starts a game on seasonStart.
func (h *harness) newGame(t *testing.T, clubs, playersPerClub int, start models.Date) *NewGameResult {
	t.Helper()
	ctx := context.Background()
	_, err := h.seeder.SeedWorld(ctx, WorldConfig{
		Nations:        []string{"Testland"},
		ClubsPerNation: clubs,
		PlayersPerClub: playersPerClub,
		StartDate:      start,
	}, rand.New(rand.NewSource(7)))
	require.NoError(t, err)

	game, err := h.seasons.StartNewGame(ctx, NewGameParams{SaveID: uuid.New(), Name: "test", StartDate: start})
	require.NoError(t, err)
	return game
}

func (h *harness) league(t *testing.T) *models.Competition {
	t.Helper()
	leagues, err := h.compRepo.ListNationalLeagues(context.Background(), nil)
	require.NoError(t, err)
	require.NotEmpty(t, leagues)
	return leagues[0]
}
