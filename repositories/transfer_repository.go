package repositories

import (
	"context"
	"database/sql"

	"github.com/Dosada05/matchday/models"
)

type TransferRepository interface {
	Create(ctx context.Context, exec SQLExecutor, transfer *models.Transfer) error
	ListByDate(ctx context.Context, exec SQLExecutor, date models.Date) ([]*models.Transfer, error)
}

type sqlTransferRepository struct {
	baseRepository
}

func NewTransferRepository(db *sql.DB) TransferRepository {
	return &sqlTransferRepository{baseRepository{db: db}}
}

func (r *sqlTransferRepository) Create(ctx context.Context, exec SQLExecutor, t *models.Transfer) error {
	if t.Status == "" {
		t.Status = models.TransferStatusCompleted
	}
	err := r.getExecutor(exec).QueryRowContext(ctx, `
		INSERT INTO transfer
			(person_type, person_id, from_club_id, to_club_id, transfer_type, transfer_date, status, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		t.PersonType, t.PersonID, t.FromClubID, t.ToClubID, t.Type, t.TransferDate, t.Status, t.Description,
	).Scan(&t.ID)
	return mapConstraintError(err)
}

func (r *sqlTransferRepository) ListByDate(ctx context.Context, exec SQLExecutor, date models.Date) ([]*models.Transfer, error) {
	rows, err := r.getExecutor(exec).QueryContext(ctx, `
		SELECT id, person_type, person_id, from_club_id, to_club_id, transfer_type, transfer_date, status, description
		FROM transfer WHERE transfer_date = $1 ORDER BY id`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transfers := make([]*models.Transfer, 0)
	for rows.Next() {
		var t models.Transfer
		var from, to sql.NullInt64
		err := rows.Scan(&t.ID, &t.PersonType, &t.PersonID, &from, &to, &t.Type, &t.TransferDate, &t.Status, &t.Description)
		if err != nil {
			return nil, err
		}
		if from.Valid {
			t.FromClubID = &from.Int64
		}
		if to.Valid {
			t.ToClubID = &to.Int64
		}
		transfers = append(transfers, &t)
	}
	return transfers, rows.Err()
}
