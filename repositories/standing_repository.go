package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/matchday/models"
)

var ErrStandingNotFound = errors.New("league standing not found")

type StandingRepository interface {
	// GetLatest returns the club's row with the highest match day at or
	// before beforeMatchDay.
	GetLatest(ctx context.Context, exec SQLExecutor, competitionID, seasonID, clubID int64, beforeMatchDay int) (*models.StandingRow, error)
	// Replace writes the row for its match day, dropping any row already
	// stored for the same club and match day.
	Replace(ctx context.Context, exec SQLExecutor, row *models.StandingRow) error
	// ListTable returns each club's latest row at or before matchDay, ranked.
	// A matchDay below zero means no limit.
	ListTable(ctx context.Context, exec SQLExecutor, competitionID, seasonID int64, matchDay int) ([]*models.StandingRow, error)
	UpdatePosition(ctx context.Context, exec SQLExecutor, id int64, position int) error
	ListClubHistory(ctx context.Context, exec SQLExecutor, competitionID, seasonID, clubID int64) ([]*models.StandingRow, error)
}

type sqlStandingRepository struct {
	baseRepository
}

func NewStandingRepository(db *sql.DB) StandingRepository {
	return &sqlStandingRepository{baseRepository{db: db}}
}

const standingColumns = `
	ls.id, ls.competition_id, ls.season_id, ls.club_id, ls.match_day, ls.played, ls.wins, ls.draws, ls.losses,
	ls.goals_for, ls.goals_against, ls.goal_difference, ls.points, ls.position, c.name`

const rankingOrder = ` ORDER BY ls.points DESC, ls.goal_difference DESC, ls.goals_for DESC, ls.club_id ASC`

func (r *sqlStandingRepository) scanStanding(row rowScanner) (*models.StandingRow, error) {
	var s models.StandingRow
	err := row.Scan(
		&s.ID, &s.CompetitionID, &s.SeasonID, &s.ClubID, &s.MatchDay, &s.Played, &s.Wins, &s.Draws, &s.Losses,
		&s.GoalsFor, &s.GoalsAgainst, &s.GoalDifference, &s.Points, &s.Position, &s.ClubName,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStandingNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *sqlStandingRepository) GetLatest(ctx context.Context, exec SQLExecutor, competitionID, seasonID, clubID int64, beforeMatchDay int) (*models.StandingRow, error) {
	row := r.getExecutor(exec).QueryRowContext(ctx, `
		SELECT `+standingColumns+`
		FROM league_standing ls
		JOIN club c ON c.id = ls.club_id
		WHERE ls.competition_id = $1 AND ls.season_id = $2 AND ls.club_id = $3 AND ls.match_day < $4
		ORDER BY ls.match_day DESC
		LIMIT 1`, competitionID, seasonID, clubID, beforeMatchDay)
	return r.scanStanding(row)
}

func (r *sqlStandingRepository) Replace(ctx context.Context, exec SQLExecutor, s *models.StandingRow) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `
		DELETE FROM league_standing
		WHERE competition_id = $1 AND season_id = $2 AND club_id = $3 AND match_day = $4`,
		s.CompetitionID, s.SeasonID, s.ClubID, s.MatchDay)
	if err != nil {
		return fmt.Errorf("failed to clear standing for club %d match day %d: %w", s.ClubID, s.MatchDay, err)
	}

	err = executor.QueryRowContext(ctx, `
		INSERT INTO league_standing
			(competition_id, season_id, club_id, match_day, played, wins, draws, losses,
			 goals_for, goals_against, goal_difference, points, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`,
		s.CompetitionID, s.SeasonID, s.ClubID, s.MatchDay, s.Played, s.Wins, s.Draws, s.Losses,
		s.GoalsFor, s.GoalsAgainst, s.GoalDifference, s.Points, s.Position,
	).Scan(&s.ID)
	return mapConstraintError(err)
}

func (r *sqlStandingRepository) ListTable(ctx context.Context, exec SQLExecutor, competitionID, seasonID int64, matchDay int) ([]*models.StandingRow, error) {
	query := `
		SELECT ` + standingColumns + `
		FROM league_standing ls
		JOIN club c ON c.id = ls.club_id
		WHERE ls.competition_id = $1 AND ls.season_id = $2
		  AND ls.match_day = (
			SELECT MAX(x.match_day) FROM league_standing x
			WHERE x.competition_id = ls.competition_id AND x.season_id = ls.season_id
			  AND x.club_id = ls.club_id AND ($3 < 0 OR x.match_day <= $3)
		  )` + rankingOrder
	return r.list(ctx, exec, query, competitionID, seasonID, matchDay)
}

func (r *sqlStandingRepository) UpdatePosition(ctx context.Context, exec SQLExecutor, id int64, position int) error {
	result, err := r.getExecutor(exec).ExecContext(ctx,
		`UPDATE league_standing SET position = $1 WHERE id = $2`, position, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrStandingNotFound)
}

func (r *sqlStandingRepository) ListClubHistory(ctx context.Context, exec SQLExecutor, competitionID, seasonID, clubID int64) ([]*models.StandingRow, error) {
	return r.list(ctx, exec, `
		SELECT `+standingColumns+`
		FROM league_standing ls
		JOIN club c ON c.id = ls.club_id
		WHERE ls.competition_id = $1 AND ls.season_id = $2 AND ls.club_id = $3
		ORDER BY ls.match_day`, competitionID, seasonID, clubID)
}

func (r *sqlStandingRepository) list(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]*models.StandingRow, error) {
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	standings := make([]*models.StandingRow, 0)
	for rows.Next() {
		s, err := r.scanStanding(rows)
		if err != nil {
			return nil, err
		}
		standings = append(standings, s)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return standings, nil
}
