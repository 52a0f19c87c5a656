package repositories

import (
	"context"
	"database/sql"

	"github.com/Dosada05/matchday/models"
)

// AwardRepository stores trophies and individual honours. Every insert is
// ignore-on-conflict, so the returned bool tells whether a row was written.
type AwardRepository interface {
	CreateTrophy(ctx context.Context, exec SQLExecutor, trophy *models.Trophy) (bool, error)
	CreateAward(ctx context.Context, exec SQLExecutor, award *models.Award) (bool, error)
	CreateTeamOfTheYear(ctx context.Context, exec SQLExecutor, sel *models.TeamOfTheYearSelection) (bool, error)
	ListTrophies(ctx context.Context, exec SQLExecutor, seasonID int64) ([]*models.Trophy, error)
	ListAwards(ctx context.Context, exec SQLExecutor, seasonID int64) ([]*models.Award, error)
	ListTeamOfTheYear(ctx context.Context, exec SQLExecutor, seasonID int64) ([]*models.TeamOfTheYearSelection, error)
}

type sqlAwardRepository struct {
	baseRepository
}

func NewAwardRepository(db *sql.DB) AwardRepository {
	return &sqlAwardRepository{baseRepository{db: db}}
}

func (r *sqlAwardRepository) CreateTrophy(ctx context.Context, exec SQLExecutor, t *models.Trophy) (bool, error) {
	result, err := r.getExecutor(exec).ExecContext(ctx, `
		INSERT INTO club_trophy (club_id, competition_id, season_id, date_won)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT DO NOTHING`,
		t.ClubID, t.CompetitionID, t.SeasonID, t.DateWon)
	if err != nil {
		return false, mapConstraintError(err)
	}
	return insertedRows(result)
}

func (r *sqlAwardRepository) CreateAward(ctx context.Context, exec SQLExecutor, a *models.Award) (bool, error) {
	result, err := r.getExecutor(exec).ExecContext(ctx, `
		INSERT INTO player_award (player_id, award_type, season_id, competition_id, award_date, value)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT DO NOTHING`,
		a.PlayerID, a.Type, a.SeasonID, a.CompetitionID, a.AwardDate, a.Value)
	if err != nil {
		return false, mapConstraintError(err)
	}
	return insertedRows(result)
}

func (r *sqlAwardRepository) CreateTeamOfTheYear(ctx context.Context, exec SQLExecutor, s *models.TeamOfTheYearSelection) (bool, error) {
	result, err := r.getExecutor(exec).ExecContext(ctx, `
		INSERT INTO team_of_the_year (season_id, player_id, position, avg_rating)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT DO NOTHING`,
		s.SeasonID, s.PlayerID, s.Position, s.AvgRating)
	if err != nil {
		return false, mapConstraintError(err)
	}
	return insertedRows(result)
}

func (r *sqlAwardRepository) ListTrophies(ctx context.Context, exec SQLExecutor, seasonID int64) ([]*models.Trophy, error) {
	rows, err := r.getExecutor(exec).QueryContext(ctx, `
		SELECT id, club_id, competition_id, season_id, date_won FROM club_trophy
		WHERE season_id = $1 ORDER BY competition_id`, seasonID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trophies := make([]*models.Trophy, 0)
	for rows.Next() {
		var t models.Trophy
		if err := rows.Scan(&t.ID, &t.ClubID, &t.CompetitionID, &t.SeasonID, &t.DateWon); err != nil {
			return nil, err
		}
		trophies = append(trophies, &t)
	}
	return trophies, rows.Err()
}

func (r *sqlAwardRepository) ListAwards(ctx context.Context, exec SQLExecutor, seasonID int64) ([]*models.Award, error) {
	rows, err := r.getExecutor(exec).QueryContext(ctx, `
		SELECT id, player_id, award_type, season_id, competition_id, award_date, value FROM player_award
		WHERE season_id = $1 ORDER BY award_type, competition_id`, seasonID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	awards := make([]*models.Award, 0)
	for rows.Next() {
		var a models.Award
		if err := rows.Scan(&a.ID, &a.PlayerID, &a.Type, &a.SeasonID, &a.CompetitionID, &a.AwardDate, &a.Value); err != nil {
			return nil, err
		}
		awards = append(awards, &a)
	}
	return awards, rows.Err()
}

func (r *sqlAwardRepository) ListTeamOfTheYear(ctx context.Context, exec SQLExecutor, seasonID int64) ([]*models.TeamOfTheYearSelection, error) {
	rows, err := r.getExecutor(exec).QueryContext(ctx, `
		SELECT season_id, player_id, position, avg_rating FROM team_of_the_year
		WHERE season_id = $1 ORDER BY avg_rating DESC, player_id`, seasonID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	team := make([]*models.TeamOfTheYearSelection, 0)
	for rows.Next() {
		var s models.TeamOfTheYearSelection
		if err := rows.Scan(&s.SeasonID, &s.PlayerID, &s.Position, &s.AvgRating); err != nil {
			return nil, err
		}
		team = append(team, &s)
	}
	return team, rows.Err()
}
