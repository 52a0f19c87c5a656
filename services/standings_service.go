package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Dosada05/matchday/models"
	"github.com/Dosada05/matchday/repositories"
)

type StandingsService interface {
	// ApplyResult appends a snapshot for both clubs at the match's match day
	// and re-ranks that match day. It must run inside the caller's transaction.
	ApplyResult(ctx context.Context, exec repositories.SQLExecutor, match *models.Match, homeScore, awayScore int) error
	// GetStandings returns every club's latest row, best placed first.
	GetStandings(ctx context.Context, competitionID, seasonID int64) ([]*models.StandingRow, error)
	GetStandingsHistory(ctx context.Context, competitionID, seasonID, clubID int64) ([]*models.StandingRow, error)
	// Leader returns the top of the final table, nil when nothing was played.
	Leader(ctx context.Context, exec repositories.SQLExecutor, competitionID, seasonID int64) (*models.StandingRow, error)
}

type standingsService struct {
	standingRepo repositories.StandingRepository
	logger       logrus.FieldLogger
}

func NewStandingsService(standingRepo repositories.StandingRepository, logger logrus.FieldLogger) StandingsService {
	return &standingsService{
		standingRepo: standingRepo,
		logger:       logger,
	}
}

func (s *standingsService) ApplyResult(ctx context.Context, exec repositories.SQLExecutor, match *models.Match, homeScore, awayScore int) error {
	if exec == nil {
		return &StandingsError{MatchID: match.ID, Err: ErrTransactionRequired}
	}

	sides := []struct {
		clubID       int64
		goalsFor     int
		goalsAgainst int
	}{
		{match.HomeClubID, homeScore, awayScore},
		{match.AwayClubID, awayScore, homeScore},
	}
	for _, side := range sides {
		if err := s.accumulate(ctx, exec, match, side.clubID, side.goalsFor, side.goalsAgainst); err != nil {
			return &StandingsError{MatchID: match.ID, Err: err}
		}
	}

	if err := s.rerank(ctx, exec, match.CompetitionID, match.SeasonID, match.LegNumber); err != nil {
		return &StandingsError{MatchID: match.ID, Err: err}
	}
	return nil
}

func (s *standingsService) accumulate(ctx context.Context, exec repositories.SQLExecutor, match *models.Match, clubID int64, goalsFor, goalsAgainst int) error {
	row := &models.StandingRow{
		CompetitionID: match.CompetitionID,
		SeasonID:      match.SeasonID,
		ClubID:        clubID,
	}

	prior, err := s.standingRepo.GetLatest(ctx, exec, match.CompetitionID, match.SeasonID, clubID, match.LegNumber)
	switch {
	case err == nil:
		*row = *prior
		row.ID = 0
	case errors.Is(err, repositories.ErrStandingNotFound):
	default:
		return fmt.Errorf("failed to read latest standing of club %d: %w", clubID, err)
	}

	row.MatchDay = match.LegNumber
	row.Record(goalsFor, goalsAgainst)
	if err := s.standingRepo.Replace(ctx, exec, row); err != nil {
		return fmt.Errorf("failed to store standing of club %d: %w", clubID, err)
	}

	s.logger.WithFields(logrus.Fields{
		"match_id":       match.ID,
		"competition_id": match.CompetitionID,
		"club_id":        clubID,
		"match_day":      row.MatchDay,
		"points":         row.Points,
	}).Debug("Standing updated")
	return nil
}

// rerank numbers the table as it stands after matchDay and stores the
// positions of the rows written for that match day.
func (s *standingsService) rerank(ctx context.Context, exec repositories.SQLExecutor, competitionID, seasonID int64, matchDay int) error {
	table, err := s.standingRepo.ListTable(ctx, exec, competitionID, seasonID, matchDay)
	if err != nil {
		return fmt.Errorf("failed to load table at match day %d: %w", matchDay, err)
	}
	for i, row := range table {
		position := i + 1
		if row.MatchDay != matchDay || row.Position == position {
			continue
		}
		if err := s.standingRepo.UpdatePosition(ctx, exec, row.ID, position); err != nil {
			return fmt.Errorf("failed to set position of club %d: %w", row.ClubID, err)
		}
	}
	return nil
}

func (s *standingsService) GetStandings(ctx context.Context, competitionID, seasonID int64) ([]*models.StandingRow, error) {
	table, err := s.standingRepo.ListTable(ctx, nil, competitionID, seasonID, -1)
	if err != nil {
		return nil, fmt.Errorf("failed to load standings: %w", err)
	}
	for i, row := range table {
		row.Position = i + 1
	}
	return table, nil
}

func (s *standingsService) GetStandingsHistory(ctx context.Context, competitionID, seasonID, clubID int64) ([]*models.StandingRow, error) {
	return s.standingRepo.ListClubHistory(ctx, nil, competitionID, seasonID, clubID)
}

func (s *standingsService) Leader(ctx context.Context, exec repositories.SQLExecutor, competitionID, seasonID int64) (*models.StandingRow, error) {
	table, err := s.standingRepo.ListTable(ctx, exec, competitionID, seasonID, -1)
	if err != nil {
		return nil, fmt.Errorf("failed to load final table: %w", err)
	}
	if len(table) == 0 {
		return nil, nil
	}
	table[0].Position = 1
	return table[0], nil
}
