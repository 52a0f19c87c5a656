package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Dosada05/matchday/db"
	"github.com/Dosada05/matchday/engine"
	"github.com/Dosada05/matchday/models"
	"github.com/Dosada05/matchday/repositories"
	"github.com/Dosada05/matchday/scheduler"
	"github.com/Dosada05/matchday/services"
	"github.com/Dosada05/matchday/storage"
)

var (
	ErrNoSaveLoaded   = errors.New("no save is loaded")
	ErrSaveAmbiguous  = errors.New("save file holds more than one save, pass a save id")
	ErrSaveFileEmpty  = errors.New("save file holds no save")
	ErrWorldNotSeeded = errors.New("save file has no clubs and no world was requested")
)

// Options configure every session a Manager opens.
type Options struct {
	Driver       string
	MaxOpenConns int

	Engine     engine.Config
	Simulation services.SimulationConfig
	Awards     services.AwardsConfig
	Finance    services.FinanceConfig
	Seed       int64

	// AutoAdvanceInterval > 0 starts a background day loop for the save.
	AutoAdvanceInterval time.Duration

	Archive  storage.FileUploader
	Notifier services.Notifier
}

// Services is the fully wired service graph of one save file.
type Services struct {
	Clubs     repositories.ClubRepository
	Clock     repositories.ClockRepository
	Finance   services.FinanceService
	Standings services.StandingsService
	Fixtures  services.FixtureService
	Matches   services.MatchService
	Awards    services.AwardService
	Seasons   services.SeasonService
	Days      services.DayService
	Seeder    services.SeedService
}

// Session is one open save: its id, the database behind it and the services
// bound to that database.
type Session struct {
	ID       uuid.UUID
	Path     string
	DB       *sql.DB
	Services *Services

	cancel context.CancelFunc
	done   chan struct{}
}

type NewGameParams struct {
	Name      string
	ClubID    *int64
	StartDate models.Date
	// World is generated first when the save file has no clubs yet.
	World *services.WorldConfig
}

// Manager holds the currently loaded save. Opening another save closes the
// previous one.
type Manager struct {
	mu      sync.Mutex
	current *Session
	opts    Options
	locks   *services.SaveLocks
	logger  logrus.FieldLogger
}

func NewManager(opts Options, logger logrus.FieldLogger) *Manager {
	if opts.Driver == "" {
		opts.Driver = db.DriverSQLite
	}
	if opts.Engine.LineupSize == 0 {
		opts.Engine = engine.DefaultConfig()
	}
	if opts.Finance.PrizeLeague.IsZero() {
		opts.Finance = services.DefaultFinanceConfig()
	}
	if opts.Awards.MinMatches == 0 {
		opts.Awards.MinMatches = services.DefaultAwardMinMatches
	}
	return &Manager{
		opts:   opts,
		locks:  services.NewSaveLocks(),
		logger: logger,
	}
}

// NewGame creates a save inside the database at path, seeding a world first
// when the database has no clubs, and makes it the current session.
func (m *Manager) NewGame(ctx context.Context, path string, params NewGameParams) (*Session, *services.NewGameResult, error) {
	conn, err := m.open(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	svc := m.wire(conn)

	clubs, err := svc.Clubs.ListAll(ctx, nil)
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to list clubs: %w", err)
	}
	if len(clubs) == 0 {
		if params.World == nil {
			conn.Close()
			return nil, nil, ErrWorldNotSeeded
		}
		world := *params.World
		if world.StartDate.IsZero() {
			world.StartDate = params.StartDate
		}
		if _, err := svc.Seeder.SeedWorld(ctx, world, services.NewRandSource(m.opts.Seed).For("world")); err != nil {
			conn.Close()
			return nil, nil, fmt.Errorf("failed to seed world: %w", err)
		}
	}

	game, err := svc.Seasons.StartNewGame(ctx, services.NewGameParams{
		SaveID:    uuid.New(),
		Name:      params.Name,
		ClubID:    params.ClubID,
		StartDate: params.StartDate,
	})
	if err != nil {
		conn.Close()
		return nil, nil, err
	}

	s := &Session{ID: game.Save.ID, Path: path, DB: conn, Services: svc}
	m.activate(s)
	return s, game, nil
}

// Load opens the save file at path. A nil saveID picks the file's only save.
func (m *Manager) Load(ctx context.Context, path string, saveID uuid.UUID) (*Session, error) {
	conn, err := m.open(ctx, path)
	if err != nil {
		return nil, err
	}
	svc := m.wire(conn)

	id, err := resolveSave(ctx, svc.Clock, saveID)
	if err != nil {
		conn.Close()
		return nil, err
	}
	if _, err := svc.Clock.Get(ctx, nil, id); err != nil {
		conn.Close()
		return nil, fmt.Errorf("save %s has no game clock: %w", id, err)
	}

	s := &Session{ID: id, Path: path, DB: conn, Services: svc}
	m.activate(s)
	return s, nil
}

func resolveSave(ctx context.Context, clock repositories.ClockRepository, saveID uuid.UUID) (uuid.UUID, error) {
	if saveID != uuid.Nil {
		save, err := clock.GetSave(ctx, nil, saveID)
		if err != nil {
			return uuid.Nil, err
		}
		return save.ID, nil
	}
	saves, err := clock.ListSaves(ctx, nil)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to list saves: %w", err)
	}
	switch len(saves) {
	case 0:
		return uuid.Nil, ErrSaveFileEmpty
	case 1:
		return saves[0].ID, nil
	default:
		return uuid.Nil, ErrSaveAmbiguous
	}
}

// Current returns the loaded session.
func (m *Manager) Current() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil, ErrNoSaveLoaded
	}
	return m.current, nil
}

// Close stops the loaded session, if any.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil
	}
	err := m.current.close()
	m.logger.WithField("save_id", m.current.ID).Info("Save closed")
	m.current = nil
	return err
}

func (m *Manager) open(ctx context.Context, path string) (*sql.DB, error) {
	conn, err := db.Open(db.Options{Driver: m.opts.Driver, DSN: path, MaxOpenConns: m.opts.MaxOpenConns})
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx, conn, m.opts.Driver); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

func (m *Manager) activate(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil {
		if err := m.current.close(); err != nil {
			m.logger.WithError(err).WithField("save_id", m.current.ID).Warn("Failed to close previous save")
		}
	}
	m.current = s

	log := m.logger.WithFields(logrus.Fields{"save_id": s.ID, "path": s.Path})
	if m.opts.AutoAdvanceInterval > 0 {
		ctx, cancel := context.WithCancel(context.Background())
		s.cancel = cancel
		s.done = make(chan struct{})
		go func() {
			defer close(s.done)
			s.Services.Days.Run(ctx, s.ID, m.opts.AutoAdvanceInterval)
		}()
	}
	log.Info("Save loaded")
}

func (s *Session) close() error {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
	return s.DB.Close()
}

func (m *Manager) wire(conn *sql.DB) *Services {
	clubRepo := repositories.NewClubRepository(conn)
	compRepo := repositories.NewCompetitionRepository(conn)
	seasonRepo := repositories.NewSeasonRepository(conn)
	clockRepo := repositories.NewClockRepository(conn)
	matchRepo := repositories.NewMatchRepository(conn)
	playerRepo := repositories.NewPlayerRepository(conn)
	statsRepo := repositories.NewStatsRepository(conn)
	standingRepo := repositories.NewStandingRepository(conn)
	awardRepo := repositories.NewAwardRepository(conn)
	transferRepo := repositories.NewTransferRepository(conn)
	financeRepo := repositories.NewFinanceRepository(conn)

	randSource := services.NewRandSource(m.opts.Seed)
	eng := engine.New(m.opts.Engine)

	finance := services.NewFinanceService(conn, financeRepo, clubRepo, playerRepo, m.opts.Finance, m.logger)
	standings := services.NewStandingsService(standingRepo, m.logger)
	fixtures := services.NewFixtureService(conn, scheduler.NewDoubleRoundRobinGenerator(), seasonRepo, compRepo, clubRepo, matchRepo, m.logger)
	matches := services.NewMatchService(conn, eng, matchRepo, clubRepo, playerRepo, statsRepo, standings, finance, randSource, m.logger)
	awards := services.NewAwardService(compRepo, matchRepo, statsRepo, awardRepo, standings, finance, eng.Config(), m.opts.Awards, m.logger)
	seasons := services.NewSeasonService(conn, seasonRepo, clockRepo, compRepo, playerRepo, transferRepo,
		fixtures, awards, standings, finance, m.opts.Archive, m.locks, randSource, m.opts.Notifier, m.logger)
	days := services.NewDayService(conn, clockRepo, seasonRepo, matchRepo, matches, finance, seasons,
		m.locks, randSource, m.opts.Notifier, m.opts.Simulation, m.logger)

	return &Services{
		Clubs:     clubRepo,
		Clock:     clockRepo,
		Finance:   finance,
		Standings: standings,
		Fixtures:  fixtures,
		Matches:   matches,
		Awards:    awards,
		Seasons:   seasons,
		Days:      days,
		Seeder:    services.NewSeedService(conn, clubRepo, compRepo, playerRepo, m.logger),
	}
}
