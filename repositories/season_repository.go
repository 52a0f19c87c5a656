package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/Dosada05/matchday/models"
)

var (
	ErrSeasonNotFound        = errors.New("season not found")
	ErrSeasonAlreadyFinished = errors.New("season is already finished")
	ErrGameClockNotFound     = errors.New("game clock not found")
	ErrClockMoved            = errors.New("game clock was moved by another writer")
	ErrSaveNotFound          = errors.New("save not found")
)

type SeasonRepository interface {
	Create(ctx context.Context, exec SQLExecutor, season *models.Season) error
	GetByID(ctx context.Context, exec SQLExecutor, id int64) (*models.Season, error)
	GetActive(ctx context.Context, exec SQLExecutor, saveID uuid.UUID) (*models.Season, error)
	MarkFinished(ctx context.Context, exec SQLExecutor, id int64) error
	CreateWindow(ctx context.Context, exec SQLExecutor, window *models.TransferWindow) error
	ListWindows(ctx context.Context, exec SQLExecutor, seasonID int64) ([]*models.TransferWindow, error)
}

type sqlSeasonRepository struct {
	baseRepository
}

func NewSeasonRepository(db *sql.DB) SeasonRepository {
	return &sqlSeasonRepository{baseRepository{db: db}}
}

func (r *sqlSeasonRepository) Create(ctx context.Context, exec SQLExecutor, season *models.Season) error {
	if season.Status == "" {
		season.Status = models.SeasonStatusInProgress
	}
	err := r.getExecutor(exec).QueryRowContext(ctx, `
		INSERT INTO season (save_id, start_date, end_date, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		season.SaveID, season.StartDate, season.EndDate, season.Status,
	).Scan(&season.ID)
	return mapConstraintError(err)
}

func (r *sqlSeasonRepository) scanSeason(row rowScanner) (*models.Season, error) {
	var s models.Season
	if err := row.Scan(&s.ID, &s.SaveID, &s.StartDate, &s.EndDate, &s.Status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSeasonNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *sqlSeasonRepository) GetByID(ctx context.Context, exec SQLExecutor, id int64) (*models.Season, error) {
	row := r.getExecutor(exec).QueryRowContext(ctx,
		`SELECT id, save_id, start_date, end_date, status FROM season WHERE id = $1`, id)
	return r.scanSeason(row)
}

// GetActive returns the most recent in-progress season of the save.
func (r *sqlSeasonRepository) GetActive(ctx context.Context, exec SQLExecutor, saveID uuid.UUID) (*models.Season, error) {
	row := r.getExecutor(exec).QueryRowContext(ctx, `
		SELECT id, save_id, start_date, end_date, status FROM season
		WHERE save_id = $1 AND status = $2
		ORDER BY start_date DESC, id DESC
		LIMIT 1`, saveID, models.SeasonStatusInProgress)
	return r.scanSeason(row)
}

func (r *sqlSeasonRepository) MarkFinished(ctx context.Context, exec SQLExecutor, id int64) error {
	result, err := r.getExecutor(exec).ExecContext(ctx,
		`UPDATE season SET status = $1 WHERE id = $2 AND status = $3`,
		models.SeasonStatusFinished, id, models.SeasonStatusInProgress)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrSeasonAlreadyFinished)
}

func (r *sqlSeasonRepository) CreateWindow(ctx context.Context, exec SQLExecutor, window *models.TransferWindow) error {
	_, err := r.getExecutor(exec).ExecContext(ctx, `
		INSERT INTO transfer_window (season_id, name, start_date, end_date)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT DO NOTHING`,
		window.SeasonID, window.Name, window.StartDate, window.EndDate)
	return mapConstraintError(err)
}

func (r *sqlSeasonRepository) ListWindows(ctx context.Context, exec SQLExecutor, seasonID int64) ([]*models.TransferWindow, error) {
	rows, err := r.getExecutor(exec).QueryContext(ctx, `
		SELECT id, season_id, name, start_date, end_date FROM transfer_window
		WHERE season_id = $1 ORDER BY start_date`, seasonID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	windows := make([]*models.TransferWindow, 0)
	for rows.Next() {
		var w models.TransferWindow
		if err := rows.Scan(&w.ID, &w.SeasonID, &w.Name, &w.StartDate, &w.EndDate); err != nil {
			return nil, err
		}
		windows = append(windows, &w)
	}
	return windows, rows.Err()
}
