package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Dosada05/matchday/models"
	"github.com/Dosada05/matchday/repositories"
	"github.com/Dosada05/matchday/storage"
)

const (
	// NextSeasonGapDays separates a season's end from the next one's start.
	NextSeasonGapDays = 7

	playerVeteranAge       = 35
	playerVeteranOverall   = 70
	playerVeteranRetireP   = 0.8
	playerSeniorAge        = 30
	playerSeniorRetireP    = 0.2
	staffRetirementAge     = 65
	firstSummerWindowMonth = 1
)

type NewGameParams struct {
	SaveID    uuid.UUID
	Name      string
	ClubID    *int64
	StartDate models.Date
}

type NewGameResult struct {
	Save     *models.Save      `json:"save"`
	Season   *models.Season    `json:"season"`
	Clock    *models.GameClock `json:"clock"`
	Fixtures *FixtureReport    `json:"fixtures"`
}

type TransitionReport struct {
	SaveID            uuid.UUID                        `json:"save_id"`
	FinishedSeasonID  int64                            `json:"finished_season_id"`
	NewSeasonID       int64                            `json:"new_season_id"`
	NewStartDate      models.Date                      `json:"new_start_date"`
	NewEndDate        models.Date                      `json:"new_end_date"`
	Trophies          []*models.Trophy                 `json:"trophies"`
	Awards            []*models.Award                  `json:"awards"`
	TeamOfTheYear     []*models.TeamOfTheYearSelection `json:"team_of_the_year"`
	ContractsResolved int                              `json:"contracts_resolved"`
	Transfers         []*models.Transfer               `json:"transfers"`
	Fixtures          *FixtureReport                   `json:"fixtures"`
	ArchiveURL        string                           `json:"archive_url,omitempty"`
}

// SeasonArchive is the snapshot uploaded once a season is closed.
type SeasonArchive struct {
	SaveID    uuid.UUID                       `json:"save_id"`
	Season    *models.Season                  `json:"season"`
	Standings map[int64][]*models.StandingRow `json:"standings"`
	Awards    *AwardSummary                   `json:"awards"`
	Transfers []*models.Transfer              `json:"transfers"`
}

type SeasonService interface {
	CreateSeason(ctx context.Context, saveID uuid.UUID, start, end models.Date) (*models.Season, error)
	GetActiveSeason(ctx context.Context, saveID uuid.UUID) (*models.Season, error)
	GetClock(ctx context.Context, saveID uuid.UUID) (*models.GameClock, error)
	// StartNewGame creates the save, its first season with windows and
	// fixtures, and the clock, all in one transaction.
	StartNewGame(ctx context.Context, params NewGameParams) (*NewGameResult, error)
	// ProcessSeasonEnd closes the clock's season and opens the next one.
	// Nothing is persisted when it fails.
	ProcessSeasonEnd(ctx context.Context, saveID uuid.UUID) (*TransitionReport, error)
}

type seasonService struct {
	db           *sql.DB
	seasonRepo   repositories.SeasonRepository
	clockRepo    repositories.ClockRepository
	compRepo     repositories.CompetitionRepository
	playerRepo   repositories.PlayerRepository
	transferRepo repositories.TransferRepository
	fixtures     FixtureService
	awards       AwardService
	standings    StandingsService
	finance      FinanceService
	archive      storage.FileUploader
	locks        *SaveLocks
	rand         *RandSource
	notifier     Notifier
	logger       logrus.FieldLogger
}

func NewSeasonService(
	db *sql.DB,
	seasonRepo repositories.SeasonRepository,
	clockRepo repositories.ClockRepository,
	compRepo repositories.CompetitionRepository,
	playerRepo repositories.PlayerRepository,
	transferRepo repositories.TransferRepository,
	fixtures FixtureService,
	awards AwardService,
	standings StandingsService,
	finance FinanceService,
	archive storage.FileUploader,
	locks *SaveLocks,
	randSource *RandSource,
	notifier Notifier,
	logger logrus.FieldLogger,
) SeasonService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &seasonService{
		db:           db,
		seasonRepo:   seasonRepo,
		clockRepo:    clockRepo,
		compRepo:     compRepo,
		playerRepo:   playerRepo,
		transferRepo: transferRepo,
		fixtures:     fixtures,
		awards:       awards,
		standings:    standings,
		finance:      finance,
		archive:      archive,
		locks:        locks,
		rand:         randSource,
		notifier:     notifier,
		logger:       logger,
	}
}

// SeasonEnd returns the last day of a season starting on start.
func SeasonEnd(start models.Date) models.Date {
	return start.AddDate(1, 0, -1)
}

func (s *seasonService) CreateSeason(ctx context.Context, saveID uuid.UUID, start, end models.Date) (*models.Season, error) {
	if !end.After(start) {
		return nil, ErrInvalidSeasonDates
	}
	season := &models.Season{SaveID: saveID, StartDate: start, EndDate: end, Status: models.SeasonStatusInProgress}
	err := withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		if err := s.seasonRepo.Create(ctx, tx, season); err != nil {
			return fmt.Errorf("failed to create season: %w", err)
		}
		return s.createWindows(ctx, tx, season, start.AddDate(0, -firstSummerWindowMonth, 0))
	})
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{"save_id": saveID, "season_id": season.ID}).Info("Season created")
	return season, nil
}

func (s *seasonService) GetActiveSeason(ctx context.Context, saveID uuid.UUID) (*models.Season, error) {
	season, err := s.seasonRepo.GetActive(ctx, nil, saveID)
	if errors.Is(err, repositories.ErrSeasonNotFound) {
		return nil, ErrNoActiveSeason
	}
	return season, err
}

func (s *seasonService) GetClock(ctx context.Context, saveID uuid.UUID) (*models.GameClock, error) {
	return s.clockRepo.Get(ctx, nil, saveID)
}

func (s *seasonService) StartNewGame(ctx context.Context, params NewGameParams) (*NewGameResult, error) {
	result := &NewGameResult{
		Save: &models.Save{ID: params.SaveID, Name: params.Name, ClubID: params.ClubID, CreatedAt: params.StartDate},
		Season: &models.Season{
			StartDate: params.StartDate,
			EndDate:   SeasonEnd(params.StartDate),
			Status:    models.SeasonStatusInProgress,
		},
	}

	err := withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		if err := s.clockRepo.CreateSave(ctx, tx, result.Save); err != nil {
			return fmt.Errorf("failed to create save: %w", err)
		}
		result.Season.SaveID = result.Save.ID
		if err := s.seasonRepo.Create(ctx, tx, result.Season); err != nil {
			return fmt.Errorf("failed to create season: %w", err)
		}
		if err := s.createWindows(ctx, tx, result.Season, params.StartDate.AddDate(0, -firstSummerWindowMonth, 0)); err != nil {
			return err
		}

		report, err := s.fixtures.GenerateFixturesTx(ctx, tx, result.Season)
		if err != nil {
			return err
		}
		result.Fixtures = report

		result.Clock = &models.GameClock{SaveID: result.Save.ID, CurrentDate: params.StartDate, SeasonID: result.Season.ID}
		if err := s.clockRepo.Create(ctx, tx, result.Clock); err != nil {
			return fmt.Errorf("failed to create game clock: %w", err)
		}
		return s.finance.OpeningBalances(ctx, tx, params.StartDate)
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"save_id":   result.Save.ID,
		"season_id": result.Season.ID,
		"matches":   result.Fixtures.MatchesCreated(),
	}).Info("New game started")
	return result, nil
}

func (s *seasonService) createWindows(ctx context.Context, exec repositories.SQLExecutor, season *models.Season, summerStart models.Date) error {
	winterStart := models.NewDate(season.StartDate.Year()+1, 1, 1)
	windows := []*models.TransferWindow{
		{SeasonID: season.ID, Name: models.TransferWindowSummer, StartDate: summerStart, EndDate: season.StartDate},
		{SeasonID: season.ID, Name: models.TransferWindowWinter, StartDate: winterStart, EndDate: winterStart.AddDays(30)},
	}
	for _, w := range windows {
		if err := s.seasonRepo.CreateWindow(ctx, exec, w); err != nil {
			return fmt.Errorf("failed to create %s window: %w", w.Name, err)
		}
	}
	return nil
}

func (s *seasonService) ProcessSeasonEnd(ctx context.Context, saveID uuid.UUID) (*TransitionReport, error) {
	unlock, ok := s.locks.TryLock(saveID)
	if !ok {
		return nil, ErrDayAdvanceInProgress
	}
	defer unlock()

	clock, err := s.clockRepo.Get(ctx, nil, saveID)
	if err != nil {
		return nil, fmt.Errorf("failed to read game clock: %w", err)
	}
	season, err := s.seasonRepo.GetByID(ctx, nil, clock.SeasonID)
	if err != nil {
		if errors.Is(err, repositories.ErrSeasonNotFound) {
			return nil, ErrNoActiveSeason
		}
		return nil, err
	}
	if season.Status == models.SeasonStatusFinished {
		return nil, ErrSeasonAlreadyFinished
	}
	if clock.CurrentDate.Before(season.EndDate) {
		return nil, ErrSeasonNotOver
	}

	log := s.logger.WithFields(logrus.Fields{"save_id": saveID, "season_id": season.ID})
	log.Info("Processing season end")

	report := &TransitionReport{SaveID: saveID, FinishedSeasonID: season.ID}
	rng := s.rand.For("season-end", saveID, season.ID)

	err = withTx(ctx, s.db, log, func(tx *sql.Tx) error {
		step := func(name string, err error) error {
			if err == nil {
				return nil
			}
			return &TransitionError{SeasonID: season.ID, Step: name, Err: err}
		}

		err := s.seasonRepo.MarkFinished(ctx, tx, season.ID)
		if errors.Is(err, repositories.ErrSeasonAlreadyFinished) {
			err = ErrSeasonAlreadyFinished
		}
		if err := step("finish season", err); err != nil {
			return err
		}

		report.Trophies, err = s.awards.AwardTrophies(ctx, tx, season)
		if err := step("collective awards", err); err != nil {
			return err
		}

		report.Awards, report.TeamOfTheYear, err = s.awards.AwardIndividual(ctx, tx, season)
		if err := step("individual awards", err); err != nil {
			return err
		}

		report.Transfers, err = s.resolveContracts(ctx, tx, season, rng)
		if err := step("contract expirations", err); err != nil {
			return err
		}
		report.ContractsResolved = len(report.Transfers)

		next, fixtures, err := s.openNextSeason(ctx, tx, season)
		if err := step("next season", err); err != nil {
			return err
		}
		report.NewSeasonID = next.ID
		report.NewStartDate = next.StartDate
		report.NewEndDate = next.EndDate
		report.Fixtures = fixtures

		err = s.clockRepo.Set(ctx, tx, &models.GameClock{SaveID: saveID, CurrentDate: next.StartDate, SeasonID: next.ID})
		return step("game clock", err)
	})
	if err != nil {
		log.WithError(err).Error("Season transition rolled back")
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"new_season_id": report.NewSeasonID,
		"trophies":      len(report.Trophies),
		"awards":        len(report.Awards),
		"contracts":     report.ContractsResolved,
	}).Info("Season finished")

	report.ArchiveURL = s.archiveSeason(ctx, saveID, season, report.Transfers)
	s.notifier.BroadcastToRoom(SaveRoom(saveID), Notification{Type: MessageSeasonEnded, Payload: report})
	return report, nil
}

func (s *seasonService) openNextSeason(ctx context.Context, exec repositories.SQLExecutor, prev *models.Season) (*models.Season, *FixtureReport, error) {
	start := prev.EndDate.AddDays(NextSeasonGapDays)
	next := &models.Season{
		SaveID:    prev.SaveID,
		StartDate: start,
		EndDate:   SeasonEnd(start),
		Status:    models.SeasonStatusInProgress,
	}
	if err := s.seasonRepo.Create(ctx, exec, next); err != nil {
		return nil, nil, fmt.Errorf("failed to create season: %w", err)
	}

	comps, err := s.compRepo.ListBySeason(ctx, exec, prev.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list competitions: %w", err)
	}
	for _, comp := range comps {
		if err := s.compRepo.LinkSeason(ctx, exec, comp.ID, next.ID); err != nil {
			return nil, nil, fmt.Errorf("failed to carry competition %d over: %w", comp.ID, err)
		}
	}

	if err := s.createWindows(ctx, exec, next, prev.EndDate.AddDays(1)); err != nil {
		return nil, nil, err
	}
	fixtures, err := s.fixtures.GenerateFixturesTx(ctx, exec, next)
	if err != nil {
		return nil, nil, err
	}
	return next, fixtures, nil
}

func (s *seasonService) resolveContracts(ctx context.Context, exec repositories.SQLExecutor, season *models.Season, rng *rand.Rand) ([]*models.Transfer, error) {
	after := previousSeasonEnd(season)
	players, err := s.playerRepo.ListExpiringPlayerContracts(ctx, exec, after, season.EndDate)
	if err != nil {
		return nil, fmt.Errorf("failed to list expiring player contracts: %w", err)
	}
	staff, err := s.playerRepo.ListExpiringStaffContracts(ctx, exec, after, season.EndDate)
	if err != nil {
		return nil, fmt.Errorf("failed to list expiring staff contracts: %w", err)
	}

	transfers := make([]*models.Transfer, 0, len(players)+len(staff))
	for _, c := range players {
		age := season.EndDate.YearsSince(c.BirthDate)
		t := newDeparture(models.PersonPlayer, c, season.EndDate)
		if playerRetires(age, c.Overall, rng) {
			t.Type = models.TransferRetirement
			t.Description = fmt.Sprintf("%s has retired.", c.Name)
		} else {
			t.Type = models.TransferFreeTransfer
			t.Description = fmt.Sprintf("%s left as a free agent.", c.Name)
		}
		transfers = append(transfers, t)
	}
	for _, c := range staff {
		age := season.EndDate.YearsSince(c.BirthDate)
		t := newDeparture(models.PersonStaff, c, season.EndDate)
		if age >= staffRetirementAge {
			t.Type = models.TransferRetirement
			t.Description = fmt.Sprintf("%s has retired.", c.Name)
		} else {
			t.Type = models.TransferRelease
			t.Description = fmt.Sprintf("%s was released.", c.Name)
		}
		transfers = append(transfers, t)
	}

	for _, t := range transfers {
		if err := s.transferRepo.Create(ctx, exec, t); err != nil {
			return nil, fmt.Errorf("failed to record %s of %s %d: %w", t.Type, t.PersonType, t.PersonID, err)
		}
	}
	return transfers, nil
}

// previousSeasonEnd is the end date of the season before season. Contracts
// ending after it and up to season's own end are settled at season's close,
// including those ending in the gap between two seasons.
func previousSeasonEnd(season *models.Season) models.Date {
	return season.StartDate.AddDays(-NextSeasonGapDays)
}

func newDeparture(personType models.PersonType, c models.ExpiringContract, date models.Date) *models.Transfer {
	from := c.ClubID
	return &models.Transfer{
		PersonType:   personType,
		PersonID:     c.PersonID,
		FromClubID:   &from,
		TransferDate: date,
		Status:       models.TransferStatusCompleted,
	}
}

// playerRetires decides whether a player whose contract ran out retires.
// Veterans below the overall bar very likely do; anyone past thirty has a
// smaller chance.
func playerRetires(age, overall int, rng *rand.Rand) bool {
	if age >= playerVeteranAge && overall < playerVeteranOverall && rng.Float64() < playerVeteranRetireP {
		return true
	}
	return age >= playerSeniorAge && rng.Float64() < playerSeniorRetireP
}

// archiveSeason uploads a JSON snapshot of the closed season. Failures are
// logged only; the transition is already committed.
func (s *seasonService) archiveSeason(ctx context.Context, saveID uuid.UUID, season *models.Season, transfers []*models.Transfer) string {
	if s.archive == nil {
		return ""
	}
	log := s.logger.WithFields(logrus.Fields{"save_id": saveID, "season_id": season.ID})

	snapshot := SeasonArchive{
		SaveID:    saveID,
		Season:    season,
		Standings: make(map[int64][]*models.StandingRow),
		Transfers: transfers,
	}
	comps, err := s.compRepo.ListBySeason(ctx, nil, season.ID)
	if err != nil {
		log.WithError(err).Warn("Season archive skipped")
		return ""
	}
	for _, comp := range comps {
		if comp.Type != models.CompetitionLeague {
			continue
		}
		table, err := s.standings.GetStandings(ctx, comp.ID, season.ID)
		if err != nil {
			log.WithError(err).Warn("Season archive skipped")
			return ""
		}
		snapshot.Standings[comp.ID] = table
	}
	if snapshot.Awards, err = s.awards.GetSeasonAwards(ctx, season.ID); err != nil {
		log.WithError(err).Warn("Season archive skipped")
		return ""
	}

	body, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		log.WithError(err).Warn("Season archive skipped")
		return ""
	}
	key := storage.SeasonArchiveKey(saveID, season.ID)
	uploaded, err := s.archive.Upload(ctx, key, storage.ContentTypeJSON, bytes.NewReader(body))
	if err != nil {
		log.WithError(err).Error("Season archive upload failed")
		return ""
	}
	log.WithField("key", uploaded.Key).Info("Season archived")
	return uploaded.Location
}
