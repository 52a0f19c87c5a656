package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/Dosada05/matchday/models"
)

type ClockRepository interface {
	Create(ctx context.Context, exec SQLExecutor, clock *models.GameClock) error
	Get(ctx context.Context, exec SQLExecutor, saveID uuid.UUID) (*models.GameClock, error)
	// Advance moves the clock from one date to the next. It fails with
	// ErrClockMoved when the stored date is no longer from.
	Advance(ctx context.Context, exec SQLExecutor, saveID uuid.UUID, from, to models.Date) error
	Set(ctx context.Context, exec SQLExecutor, clock *models.GameClock) error

	CreateSave(ctx context.Context, exec SQLExecutor, save *models.Save) error
	GetSave(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.Save, error)
	ListSaves(ctx context.Context, exec SQLExecutor) ([]*models.Save, error)
}

type sqlClockRepository struct {
	baseRepository
}

func NewClockRepository(db *sql.DB) ClockRepository {
	return &sqlClockRepository{baseRepository{db: db}}
}

func (r *sqlClockRepository) Create(ctx context.Context, exec SQLExecutor, clock *models.GameClock) error {
	_, err := r.getExecutor(exec).ExecContext(ctx,
		`INSERT INTO game_clock (save_id, clock_date, season_id) VALUES ($1, $2, $3)`,
		clock.SaveID, clock.CurrentDate, clock.SeasonID)
	return mapConstraintError(err)
}

func (r *sqlClockRepository) Get(ctx context.Context, exec SQLExecutor, saveID uuid.UUID) (*models.GameClock, error) {
	var c models.GameClock
	err := r.getExecutor(exec).QueryRowContext(ctx,
		`SELECT save_id, clock_date, season_id FROM game_clock WHERE save_id = $1`, saveID,
	).Scan(&c.SaveID, &c.CurrentDate, &c.SeasonID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameClockNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *sqlClockRepository) Advance(ctx context.Context, exec SQLExecutor, saveID uuid.UUID, from, to models.Date) error {
	result, err := r.getExecutor(exec).ExecContext(ctx,
		`UPDATE game_clock SET clock_date = $1 WHERE save_id = $2 AND clock_date = $3`,
		to, saveID, from)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrClockMoved)
}

func (r *sqlClockRepository) Set(ctx context.Context, exec SQLExecutor, clock *models.GameClock) error {
	result, err := r.getExecutor(exec).ExecContext(ctx,
		`UPDATE game_clock SET clock_date = $1, season_id = $2 WHERE save_id = $3`,
		clock.CurrentDate, clock.SeasonID, clock.SaveID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrGameClockNotFound)
}

func (r *sqlClockRepository) CreateSave(ctx context.Context, exec SQLExecutor, save *models.Save) error {
	if save.ID == uuid.Nil {
		save.ID = uuid.New()
	}
	_, err := r.getExecutor(exec).ExecContext(ctx,
		`INSERT INTO save (id, name, club_id, created_at) VALUES ($1, $2, $3, $4)`,
		save.ID, save.Name, save.ClubID, save.CreatedAt)
	return mapConstraintError(err)
}

func (r *sqlClockRepository) scanSave(row rowScanner) (*models.Save, error) {
	var s models.Save
	var clubID sql.NullInt64
	if err := row.Scan(&s.ID, &s.Name, &clubID, &s.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSaveNotFound
		}
		return nil, err
	}
	if clubID.Valid {
		s.ClubID = &clubID.Int64
	}
	return &s, nil
}

func (r *sqlClockRepository) GetSave(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.Save, error) {
	row := r.getExecutor(exec).QueryRowContext(ctx,
		`SELECT id, name, club_id, created_at FROM save WHERE id = $1`, id)
	return r.scanSave(row)
}

func (r *sqlClockRepository) ListSaves(ctx context.Context, exec SQLExecutor) ([]*models.Save, error) {
	rows, err := r.getExecutor(exec).QueryContext(ctx,
		`SELECT id, name, club_id, created_at FROM save ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	saves := make([]*models.Save, 0)
	for rows.Next() {
		s, err := r.scanSave(rows)
		if err != nil {
			return nil, err
		}
		saves = append(saves, s)
	}
	return saves, rows.Err()
}
