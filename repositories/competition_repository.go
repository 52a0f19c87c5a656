package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/matchday/models"
)

var (
	ErrCompetitionNotFound = errors.New("competition not found")
	ErrStageNotFound       = errors.New("competition stage not found")
)

type CompetitionRepository interface {
	Create(ctx context.Context, exec SQLExecutor, comp *models.Competition) error
	GetByID(ctx context.Context, exec SQLExecutor, id int64) (*models.Competition, error)
	// ListNationalLeagues returns league competitions that belong to a nation.
	ListNationalLeagues(ctx context.Context, exec SQLExecutor) ([]*models.Competition, error)
	ListBySeason(ctx context.Context, exec SQLExecutor, seasonID int64) ([]*models.Competition, error)
	LinkSeason(ctx context.Context, exec SQLExecutor, competitionID, seasonID int64) error
	GetOrCreateStage(ctx context.Context, exec SQLExecutor, stage *models.CompetitionStage) error
}

type sqlCompetitionRepository struct {
	baseRepository
}

func NewCompetitionRepository(db *sql.DB) CompetitionRepository {
	return &sqlCompetitionRepository{baseRepository{db: db}}
}

func (r *sqlCompetitionRepository) Create(ctx context.Context, exec SQLExecutor, comp *models.Competition) error {
	if !comp.Type.IsValid() {
		return fmt.Errorf("invalid competition type %q", comp.Type)
	}
	err := r.getExecutor(exec).QueryRowContext(ctx,
		`INSERT INTO competition (name, type, nation_id) VALUES ($1, $2, $3) RETURNING id`,
		comp.Name, comp.Type, comp.NationID,
	).Scan(&comp.ID)
	return mapConstraintError(err)
}

func (r *sqlCompetitionRepository) scanCompetition(row rowScanner) (*models.Competition, error) {
	var c models.Competition
	var nationID sql.NullInt64
	if err := row.Scan(&c.ID, &c.Name, &c.Type, &nationID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCompetitionNotFound
		}
		return nil, err
	}
	if nationID.Valid {
		c.NationID = &nationID.Int64
	}
	return &c, nil
}

func (r *sqlCompetitionRepository) GetByID(ctx context.Context, exec SQLExecutor, id int64) (*models.Competition, error) {
	row := r.getExecutor(exec).QueryRowContext(ctx,
		`SELECT id, name, type, nation_id FROM competition WHERE id = $1`, id)
	return r.scanCompetition(row)
}

func (r *sqlCompetitionRepository) ListNationalLeagues(ctx context.Context, exec SQLExecutor) ([]*models.Competition, error) {
	return r.list(ctx, exec, `
		SELECT id, name, type, nation_id FROM competition
		WHERE type = $1 AND nation_id IS NOT NULL
		ORDER BY id`, models.CompetitionLeague)
}

func (r *sqlCompetitionRepository) ListBySeason(ctx context.Context, exec SQLExecutor, seasonID int64) ([]*models.Competition, error) {
	return r.list(ctx, exec, `
		SELECT c.id, c.name, c.type, c.nation_id
		FROM competition c
		JOIN competition_season cs ON cs.competition_id = c.id
		WHERE cs.season_id = $1
		ORDER BY c.id`, seasonID)
}

func (r *sqlCompetitionRepository) list(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]*models.Competition, error) {
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comps := make([]*models.Competition, 0)
	for rows.Next() {
		c, err := r.scanCompetition(rows)
		if err != nil {
			return nil, err
		}
		comps = append(comps, c)
	}
	return comps, rows.Err()
}

func (r *sqlCompetitionRepository) LinkSeason(ctx context.Context, exec SQLExecutor, competitionID, seasonID int64) error {
	_, err := r.getExecutor(exec).ExecContext(ctx, `
		INSERT INTO competition_season (competition_id, season_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, competitionID, seasonID)
	return mapConstraintError(err)
}

// GetOrCreateStage fills stage.ID with the existing stage of the same name
// for the competition season, creating it first when needed.
func (r *sqlCompetitionRepository) GetOrCreateStage(ctx context.Context, exec SQLExecutor, stage *models.CompetitionStage) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `
		INSERT INTO competition_stage (competition_id, season_id, name, stage_order, number_of_legs)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT DO NOTHING`,
		stage.CompetitionID, stage.SeasonID, stage.Name, stage.StageOrder, stage.NumberOfLegs)
	if err != nil {
		return mapConstraintError(err)
	}

	err = executor.QueryRowContext(ctx, `
		SELECT id, stage_order, number_of_legs FROM competition_stage
		WHERE competition_id = $1 AND season_id = $2 AND name = $3`,
		stage.CompetitionID, stage.SeasonID, stage.Name,
	).Scan(&stage.ID, &stage.StageOrder, &stage.NumberOfLegs)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrStageNotFound
	}
	return err
}
