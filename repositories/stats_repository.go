package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Dosada05/matchday/models"
)

type StatsRepository interface {
	CreatePlayerStats(ctx context.Context, exec SQLExecutor, stats []models.PlayerMatchStat) error
	CreateEvents(ctx context.Context, exec SQLExecutor, events []models.MatchEvent) error
	ListPlayerStats(ctx context.Context, exec SQLExecutor, matchID int64) ([]models.PlayerMatchStat, error)
	ListEvents(ctx context.Context, exec SQLExecutor, matchID int64) ([]models.MatchEvent, error)

	// TopScorers aggregates goals over a season, optionally restricted to one
	// competition (competitionID 0 means every competition).
	TopScorers(ctx context.Context, exec SQLExecutor, seasonID, competitionID int64, limit int) ([]models.PlayerSeasonStat, error)
	// BestRated aggregates average rating. positions filters on the player's
	// registered position when non-empty.
	BestRated(ctx context.Context, exec SQLExecutor, q RatingQuery) ([]models.PlayerSeasonStat, error)
}

type RatingQuery struct {
	SeasonID      int64
	CompetitionID int64
	MinMatches    int
	Positions     []string
	Limit         int
}

type sqlStatsRepository struct {
	baseRepository
}

func NewStatsRepository(db *sql.DB) StatsRepository {
	return &sqlStatsRepository{baseRepository{db: db}}
}

func (r *sqlStatsRepository) CreatePlayerStats(ctx context.Context, exec SQLExecutor, stats []models.PlayerMatchStat) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO player_match_stats
			(match_id, player_id, club_id, position, rating, goals, assists, shots, shots_on_target,
			 passes, tackles, interceptions, defenses, fouls, yellow_cards, red_cards, is_motm)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	for _, s := range stats {
		_, err := executor.ExecContext(ctx, query,
			s.MatchID, s.PlayerID, s.ClubID, s.Position, s.Rating, s.Goals, s.Assists, s.Shots, s.ShotsOnTarget,
			s.Passes, s.Tackles, s.Interceptions, s.Defenses, s.Fouls, s.YellowCards, s.RedCards, s.IsMOTM,
		)
		if err != nil {
			return fmt.Errorf("failed to insert stats for player %d in match %d: %w", s.PlayerID, s.MatchID, mapConstraintError(err))
		}
	}
	return nil
}

func (r *sqlStatsRepository) CreateEvents(ctx context.Context, exec SQLExecutor, events []models.MatchEvent) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO match_event (match_id, minute, event_type, player_id, club_id, details)
		VALUES ($1, $2, $3, $4, $5, $6)`
	for i := range events {
		e := &events[i]
		_, err := executor.ExecContext(ctx, query, e.MatchID, e.Minute, e.Type, e.PlayerID, e.ClubID, e.Details)
		if err != nil {
			return fmt.Errorf("failed to insert %s event for match %d: %w", e.Type, e.MatchID, mapConstraintError(err))
		}
	}
	return nil
}

func (r *sqlStatsRepository) ListPlayerStats(ctx context.Context, exec SQLExecutor, matchID int64) ([]models.PlayerMatchStat, error) {
	rows, err := r.getExecutor(exec).QueryContext(ctx, `
		SELECT match_id, player_id, club_id, position, rating, goals, assists, shots, shots_on_target,
		       passes, tackles, interceptions, defenses, fouls, yellow_cards, red_cards, is_motm
		FROM player_match_stats
		WHERE match_id = $1
		ORDER BY rating DESC, player_id`, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := make([]models.PlayerMatchStat, 0)
	for rows.Next() {
		var s models.PlayerMatchStat
		err := rows.Scan(&s.MatchID, &s.PlayerID, &s.ClubID, &s.Position, &s.Rating, &s.Goals, &s.Assists,
			&s.Shots, &s.ShotsOnTarget, &s.Passes, &s.Tackles, &s.Interceptions, &s.Defenses, &s.Fouls,
			&s.YellowCards, &s.RedCards, &s.IsMOTM)
		if err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

func (r *sqlStatsRepository) ListEvents(ctx context.Context, exec SQLExecutor, matchID int64) ([]models.MatchEvent, error) {
	rows, err := r.getExecutor(exec).QueryContext(ctx, `
		SELECT id, match_id, minute, event_type, player_id, club_id, details
		FROM match_event
		WHERE match_id = $1
		ORDER BY minute, id`, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]models.MatchEvent, 0)
	for rows.Next() {
		var e models.MatchEvent
		var playerID, clubID sql.NullInt64
		if err := rows.Scan(&e.ID, &e.MatchID, &e.Minute, &e.Type, &playerID, &clubID, &e.Details); err != nil {
			return nil, err
		}
		if playerID.Valid {
			e.PlayerID = &playerID.Int64
		}
		if clubID.Valid {
			e.ClubID = &clubID.Int64
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *sqlStatsRepository) TopScorers(ctx context.Context, exec SQLExecutor, seasonID, competitionID int64, limit int) ([]models.PlayerSeasonStat, error) {
	args := []interface{}{seasonID}
	where := "m.season_id = $1"
	if competitionID != 0 {
		args = append(args, competitionID)
		where += " AND m.competition_id = $2"
	}
	args = append(args, limit)

	query := fmt.Sprintf(`
		SELECT pms.player_id, p.position, COUNT(*) AS matches, SUM(pms.goals) AS goals, AVG(pms.rating) AS avg_rating
		FROM player_match_stats pms
		JOIN matches m ON m.id = pms.match_id
		JOIN player p ON p.id = pms.player_id
		WHERE %s
		GROUP BY pms.player_id, p.position
		HAVING SUM(pms.goals) > 0
		ORDER BY goals DESC, avg_rating DESC, pms.player_id
		LIMIT $%d`, where, len(args))
	return r.aggregate(ctx, exec, query, args...)
}

func (r *sqlStatsRepository) BestRated(ctx context.Context, exec SQLExecutor, q RatingQuery) ([]models.PlayerSeasonStat, error) {
	args := []interface{}{q.SeasonID}
	conds := []string{"m.season_id = $1"}
	if q.CompetitionID != 0 {
		args = append(args, q.CompetitionID)
		conds = append(conds, fmt.Sprintf("m.competition_id = $%d", len(args)))
	}
	if len(q.Positions) > 0 {
		start := len(args) + 1
		for _, pos := range q.Positions {
			args = append(args, pos)
		}
		conds = append(conds, fmt.Sprintf("p.position IN (%s)", placeholders(start, len(q.Positions))))
	}
	args = append(args, q.MinMatches)
	minIdx := len(args)
	limit := q.Limit
	if limit <= 0 {
		limit = 1
	}
	args = append(args, limit)

	query := fmt.Sprintf(`
		SELECT pms.player_id, p.position, COUNT(*) AS matches, SUM(pms.goals) AS goals, AVG(pms.rating) AS avg_rating
		FROM player_match_stats pms
		JOIN matches m ON m.id = pms.match_id
		JOIN player p ON p.id = pms.player_id
		WHERE %s
		GROUP BY pms.player_id, p.position
		HAVING COUNT(*) >= $%d
		ORDER BY avg_rating DESC, matches DESC, pms.player_id
		LIMIT $%d`, strings.Join(conds, " AND "), minIdx, len(args))
	return r.aggregate(ctx, exec, query, args...)
}

func (r *sqlStatsRepository) aggregate(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]models.PlayerSeasonStat, error) {
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]models.PlayerSeasonStat, 0)
	for rows.Next() {
		var s models.PlayerSeasonStat
		if err := rows.Scan(&s.PlayerID, &s.Position, &s.Matches, &s.Goals, &s.AvgRating); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}
