package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/matchday/models"
)

var (
	ErrMatchNotFound      = errors.New("match not found")
	ErrMatchAlreadyPlayed = errors.New("match has already been played")
)

type MatchRepository interface {
	BatchCreate(ctx context.Context, exec SQLExecutor, matches []*models.Match) error
	GetByID(ctx context.Context, exec SQLExecutor, id int64) (*models.Match, error)
	CountByCompetitionSeason(ctx context.Context, exec SQLExecutor, competitionID, seasonID int64) (int, error)
	// ListDue returns scheduled matches of the season dated on or before date,
	// oldest first.
	ListDue(ctx context.Context, exec SQLExecutor, seasonID int64, date models.Date) ([]*models.Match, error)
	ListByCompetitionSeason(ctx context.Context, exec SQLExecutor, competitionID, seasonID int64) ([]*models.Match, error)
	// RecordResult stores the score and marks the match played. It fails with
	// ErrMatchAlreadyPlayed if the match is not scheduled any more.
	RecordResult(ctx context.Context, exec SQLExecutor, id int64, homeScore, awayScore int) error
	GetPlayedFinal(ctx context.Context, exec SQLExecutor, competitionID, seasonID int64) (*models.Match, error)

	SaveLineup(ctx context.Context, exec SQLExecutor, entries []models.LineupEntry) error
	ListLineup(ctx context.Context, exec SQLExecutor, matchID, clubID int64) ([]models.LineupEntry, error)
}

type sqlMatchRepository struct {
	baseRepository
}

func NewMatchRepository(db *sql.DB) MatchRepository {
	return &sqlMatchRepository{baseRepository{db: db}}
}

const matchColumns = `
	m.id, m.competition_id, m.season_id, m.stage_id, m.home_club_id, m.away_club_id,
	m.match_date, m.leg_number, m.status, m.home_score, m.away_score, c.type, s.name`

const matchFrom = `
	FROM matches m
	JOIN competition c ON c.id = m.competition_id
	JOIN competition_stage s ON s.id = m.stage_id`

func (r *sqlMatchRepository) BatchCreate(ctx context.Context, exec SQLExecutor, matches []*models.Match) error {
	if exec == nil {
		return fmt.Errorf("BatchCreate requires a transaction")
	}
	query := `
		INSERT INTO matches
			(competition_id, season_id, stage_id, home_club_id, away_club_id, match_date, leg_number, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	for _, m := range matches {
		if m.Status == "" {
			m.Status = models.MatchStatusScheduled
		}
		err := exec.QueryRowContext(ctx, query,
			m.CompetitionID, m.SeasonID, m.StageID, m.HomeClubID, m.AwayClubID,
			m.MatchDate, m.LegNumber, m.Status,
		).Scan(&m.ID)
		if err != nil {
			return fmt.Errorf("BatchCreate failed for %d vs %d on %s: %w",
				m.HomeClubID, m.AwayClubID, m.MatchDate, mapConstraintError(err))
		}
	}
	return nil
}

func (r *sqlMatchRepository) scanMatch(row rowScanner) (*models.Match, error) {
	var m models.Match
	var home, away sql.NullInt64
	err := row.Scan(
		&m.ID, &m.CompetitionID, &m.SeasonID, &m.StageID, &m.HomeClubID, &m.AwayClubID,
		&m.MatchDate, &m.LegNumber, &m.Status, &home, &away, &m.CompetitionType, &m.StageName,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	if home.Valid {
		v := int(home.Int64)
		m.HomeScore = &v
	}
	if away.Valid {
		v := int(away.Int64)
		m.AwayScore = &v
	}
	return &m, nil
}

func (r *sqlMatchRepository) list(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]*models.Match, error) {
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		m, err := r.scanMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (r *sqlMatchRepository) GetByID(ctx context.Context, exec SQLExecutor, id int64) (*models.Match, error) {
	row := r.getExecutor(exec).QueryRowContext(ctx, `SELECT `+matchColumns+matchFrom+` WHERE m.id = $1`, id)
	return r.scanMatch(row)
}

func (r *sqlMatchRepository) CountByCompetitionSeason(ctx context.Context, exec SQLExecutor, competitionID, seasonID int64) (int, error) {
	var n int
	err := r.getExecutor(exec).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM matches WHERE competition_id = $1 AND season_id = $2`,
		competitionID, seasonID,
	).Scan(&n)
	return n, err
}

func (r *sqlMatchRepository) ListDue(ctx context.Context, exec SQLExecutor, seasonID int64, date models.Date) ([]*models.Match, error) {
	return r.list(ctx, exec, `SELECT `+matchColumns+matchFrom+`
		WHERE m.season_id = $1 AND m.match_date <= $2 AND m.status = $3
		ORDER BY m.match_date, m.id`, seasonID, date, models.MatchStatusScheduled)
}

func (r *sqlMatchRepository) ListByCompetitionSeason(ctx context.Context, exec SQLExecutor, competitionID, seasonID int64) ([]*models.Match, error) {
	return r.list(ctx, exec, `SELECT `+matchColumns+matchFrom+`
		WHERE m.competition_id = $1 AND m.season_id = $2
		ORDER BY m.match_date, m.id`, competitionID, seasonID)
}

func (r *sqlMatchRepository) RecordResult(ctx context.Context, exec SQLExecutor, id int64, homeScore, awayScore int) error {
	result, err := r.getExecutor(exec).ExecContext(ctx, `
		UPDATE matches SET home_score = $1, away_score = $2, status = $3
		WHERE id = $4 AND status = $5`,
		homeScore, awayScore, models.MatchStatusPlayed, id, models.MatchStatusScheduled)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchAlreadyPlayed)
}

func (r *sqlMatchRepository) GetPlayedFinal(ctx context.Context, exec SQLExecutor, competitionID, seasonID int64) (*models.Match, error) {
	row := r.getExecutor(exec).QueryRowContext(ctx, `SELECT `+matchColumns+matchFrom+`
		WHERE m.competition_id = $1 AND m.season_id = $2 AND s.name = $3 AND m.status = $4
		ORDER BY m.match_date DESC, m.id DESC
		LIMIT 1`, competitionID, seasonID, models.StageFinal, models.MatchStatusPlayed)
	return r.scanMatch(row)
}

func (r *sqlMatchRepository) SaveLineup(ctx context.Context, exec SQLExecutor, entries []models.LineupEntry) error {
	executor := r.getExecutor(exec)
	for _, e := range entries {
		_, err := executor.ExecContext(ctx, `
			INSERT INTO match_lineup (match_id, club_id, player_id, position, is_starter, is_captain)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT DO NOTHING`,
			e.MatchID, e.ClubID, e.PlayerID, e.Position, e.IsStarter, e.IsCaptain)
		if err != nil {
			return fmt.Errorf("failed to save lineup entry for player %d: %w", e.PlayerID, mapConstraintError(err))
		}
	}
	return nil
}

func (r *sqlMatchRepository) ListLineup(ctx context.Context, exec SQLExecutor, matchID, clubID int64) ([]models.LineupEntry, error) {
	rows, err := r.getExecutor(exec).QueryContext(ctx, `
		SELECT match_id, club_id, player_id, position, is_starter, is_captain
		FROM match_lineup
		WHERE match_id = $1 AND club_id = $2
		ORDER BY player_id`, matchID, clubID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]models.LineupEntry, 0)
	for rows.Next() {
		var e models.LineupEntry
		if err := rows.Scan(&e.MatchID, &e.ClubID, &e.PlayerID, &e.Position, &e.IsStarter, &e.IsCaptain); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
