package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Dosada05/matchday/models"
	"github.com/Dosada05/matchday/repositories"
	"github.com/Dosada05/matchday/scheduler"
)

type CompetitionFixtures struct {
	CompetitionID int64       `json:"competition_id"`
	Name          string      `json:"name"`
	Clubs         int         `json:"clubs"`
	Matches       int         `json:"matches"`
	FirstDate     models.Date `json:"first_date"`
	LastDate      models.Date `json:"last_date"`
}

type SkippedCompetition struct {
	CompetitionID int64  `json:"competition_id"`
	Name          string `json:"name"`
	Reason        string `json:"reason"`
}

type FixtureReport struct {
	SeasonID     int64                 `json:"season_id"`
	Competitions []CompetitionFixtures `json:"competitions"`
	Skipped      []SkippedCompetition  `json:"skipped"`
}

func (r *FixtureReport) MatchesCreated() int {
	total := 0
	for _, c := range r.Competitions {
		total += c.Matches
	}
	return total
}

type FixtureService interface {
	// GenerateFixtures schedules every national league of the season, one
	// transaction per competition. Competitions that already have matches
	// are left alone.
	GenerateFixtures(ctx context.Context, seasonID int64) (*FixtureReport, error)
	// GenerateFixturesTx does the same inside the caller's transaction.
	GenerateFixturesTx(ctx context.Context, exec repositories.SQLExecutor, season *models.Season) (*FixtureReport, error)
}

type fixtureService struct {
	db            *sql.DB
	generator     scheduler.FixtureGenerator
	seasonRepo    repositories.SeasonRepository
	compRepo      repositories.CompetitionRepository
	clubRepo      repositories.ClubRepository
	matchRepo     repositories.MatchRepository
	roundInterval int
	logger        logrus.FieldLogger
}

func NewFixtureService(
	db *sql.DB,
	generator scheduler.FixtureGenerator,
	seasonRepo repositories.SeasonRepository,
	compRepo repositories.CompetitionRepository,
	clubRepo repositories.ClubRepository,
	matchRepo repositories.MatchRepository,
	logger logrus.FieldLogger,
) FixtureService {
	return &fixtureService{
		db:            db,
		generator:     generator,
		seasonRepo:    seasonRepo,
		compRepo:      compRepo,
		clubRepo:      clubRepo,
		matchRepo:     matchRepo,
		roundInterval: scheduler.DefaultRoundInterval,
		logger:        logger,
	}
}

func (s *fixtureService) GenerateFixtures(ctx context.Context, seasonID int64) (*FixtureReport, error) {
	season, err := s.seasonRepo.GetByID(ctx, nil, seasonID)
	if err != nil {
		return nil, fmt.Errorf("failed to get season %d: %w", seasonID, err)
	}
	if season.Status == models.SeasonStatusFinished {
		return nil, ErrSeasonAlreadyFinished
	}

	leagues, err := s.compRepo.ListNationalLeagues(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list leagues: %w", err)
	}

	report := &FixtureReport{SeasonID: season.ID}
	var failures []error
	for _, comp := range leagues {
		err := withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
			return s.scheduleCompetition(ctx, tx, comp, season, report)
		})
		if err != nil {
			// One broken competition does not stop the others.
			s.logger.WithError(err).WithField("competition_id", comp.ID).Error("Fixture generation failed")
			report.Skipped = append(report.Skipped, SkippedCompetition{CompetitionID: comp.ID, Name: comp.Name, Reason: err.Error()})
			failures = append(failures, fmt.Errorf("competition %d: %w", comp.ID, err))
		}
	}

	s.logReport(report)
	return report, errors.Join(failures...)
}

func (s *fixtureService) GenerateFixturesTx(ctx context.Context, exec repositories.SQLExecutor, season *models.Season) (*FixtureReport, error) {
	if exec == nil {
		return nil, ErrTransactionRequired
	}
	leagues, err := s.compRepo.ListNationalLeagues(ctx, exec)
	if err != nil {
		return nil, fmt.Errorf("failed to list leagues: %w", err)
	}

	report := &FixtureReport{SeasonID: season.ID}
	for _, comp := range leagues {
		if err := s.scheduleCompetition(ctx, exec, comp, season, report); err != nil {
			return nil, fmt.Errorf("competition %d: %w", comp.ID, err)
		}
	}
	s.logReport(report)
	return report, nil
}

func (s *fixtureService) scheduleCompetition(ctx context.Context, exec repositories.SQLExecutor, comp *models.Competition, season *models.Season, report *FixtureReport) error {
	skip := func(reason string) error {
		s.logger.WithFields(logrus.Fields{
			"competition_id": comp.ID,
			"season_id":      season.ID,
			"reason":         reason,
		}).Warn("Skipping fixture generation")
		report.Skipped = append(report.Skipped, SkippedCompetition{CompetitionID: comp.ID, Name: comp.Name, Reason: reason})
		return nil
	}

	if err := s.compRepo.LinkSeason(ctx, exec, comp.ID, season.ID); err != nil {
		return fmt.Errorf("failed to link competition to season: %w", err)
	}

	existing, err := s.matchRepo.CountByCompetitionSeason(ctx, exec, comp.ID, season.ID)
	if err != nil {
		return fmt.Errorf("failed to count existing matches: %w", err)
	}
	if existing > 0 {
		return skip("fixtures already scheduled")
	}
	if comp.NationID == nil {
		return skip("competition has no nation")
	}

	clubs, err := s.clubRepo.ListByNation(ctx, exec, *comp.NationID)
	if err != nil {
		return fmt.Errorf("failed to list clubs of nation %d: %w", *comp.NationID, err)
	}
	if len(clubs) < 2 {
		return skip(ErrInsufficientClubs.Error())
	}

	stage := &models.CompetitionStage{
		CompetitionID: comp.ID,
		SeasonID:      season.ID,
		Name:          models.StageLeague,
		StageOrder:    1,
		NumberOfLegs:  2,
	}
	if err := s.compRepo.GetOrCreateStage(ctx, exec, stage); err != nil {
		return fmt.Errorf("failed to prepare league stage: %w", err)
	}

	clubIDs := make([]int64, len(clubs))
	for i, c := range clubs {
		clubIDs[i] = c.ID
	}
	fixtures, err := s.generator.GenerateFixtures(ctx, scheduler.GenerateFixturesParams{
		ClubIDs:       clubIDs,
		StartDate:     season.StartDate,
		RoundInterval: s.roundInterval,
	})
	if err != nil {
		return fmt.Errorf("%s failed: %w", s.generator.GetName(), err)
	}

	matches := make([]*models.Match, len(fixtures))
	for i, f := range fixtures {
		matches[i] = &models.Match{
			CompetitionID: comp.ID,
			SeasonID:      season.ID,
			StageID:       stage.ID,
			HomeClubID:    f.HomeClubID,
			AwayClubID:    f.AwayClubID,
			MatchDate:     f.MatchDate,
			LegNumber:     f.LegNumber,
			Status:        models.MatchStatusScheduled,
		}
	}
	if err := s.matchRepo.BatchCreate(ctx, exec, matches); err != nil {
		return fmt.Errorf("failed to store fixtures: %w", err)
	}

	entry := CompetitionFixtures{CompetitionID: comp.ID, Name: comp.Name, Clubs: len(clubs), Matches: len(matches)}
	if len(matches) > 0 {
		entry.FirstDate = matches[0].MatchDate
		entry.LastDate = matches[len(matches)-1].MatchDate
	}
	report.Competitions = append(report.Competitions, entry)
	return nil
}

func (s *fixtureService) logReport(report *FixtureReport) {
	s.logger.WithFields(logrus.Fields{
		"season_id":    report.SeasonID,
		"competitions": len(report.Competitions),
		"skipped":      len(report.Skipped),
		"matches":      report.MatchesCreated(),
	}).Info("Fixtures generated")
}
