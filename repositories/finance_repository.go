package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/Dosada05/matchday/models"
)

type FinanceRepository interface {
	CreateTransaction(ctx context.Context, exec SQLExecutor, tx *models.FinancialTransaction) error
	// GetBalance returns zero for clubs without a finance row.
	GetBalance(ctx context.Context, exec SQLExecutor, clubID int64) (decimal.Decimal, error)
	SetBalance(ctx context.Context, exec SQLExecutor, clubID int64, balance decimal.Decimal) error
	ListTransactions(ctx context.Context, exec SQLExecutor, clubID int64) ([]*models.FinancialTransaction, error)
}

type sqlFinanceRepository struct {
	baseRepository
}

func NewFinanceRepository(db *sql.DB) FinanceRepository {
	return &sqlFinanceRepository{baseRepository{db: db}}
}

func (r *sqlFinanceRepository) CreateTransaction(ctx context.Context, exec SQLExecutor, t *models.FinancialTransaction) error {
	err := r.getExecutor(exec).QueryRowContext(ctx, `
		INSERT INTO financial_transaction (club_id, category, amount, transaction_date, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		t.ClubID, t.Category, t.Amount, t.TransactionDate, t.Description,
	).Scan(&t.ID)
	return mapConstraintError(err)
}

func (r *sqlFinanceRepository) GetBalance(ctx context.Context, exec SQLExecutor, clubID int64) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := r.getExecutor(exec).QueryRowContext(ctx,
		`SELECT balance FROM club_finance WHERE club_id = $1`, clubID,
	).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, nil
	}
	return balance, err
}

func (r *sqlFinanceRepository) SetBalance(ctx context.Context, exec SQLExecutor, clubID int64, balance decimal.Decimal) error {
	_, err := r.getExecutor(exec).ExecContext(ctx, `
		INSERT INTO club_finance (club_id, balance) VALUES ($1, $2)
		ON CONFLICT (club_id) DO UPDATE SET balance = excluded.balance`,
		clubID, balance)
	return mapConstraintError(err)
}

func (r *sqlFinanceRepository) ListTransactions(ctx context.Context, exec SQLExecutor, clubID int64) ([]*models.FinancialTransaction, error) {
	rows, err := r.getExecutor(exec).QueryContext(ctx, `
		SELECT id, club_id, category, amount, transaction_date, description
		FROM financial_transaction
		WHERE club_id = $1
		ORDER BY transaction_date, id`, clubID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txs := make([]*models.FinancialTransaction, 0)
	for rows.Next() {
		var t models.FinancialTransaction
		if err := rows.Scan(&t.ID, &t.ClubID, &t.Category, &t.Amount, &t.TransactionDate, &t.Description); err != nil {
			return nil, err
		}
		txs = append(txs, &t)
	}
	return txs, rows.Err()
}
