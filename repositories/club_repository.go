package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/matchday/models"
)

var ErrClubNotFound = errors.New("club not found")

type ClubRepository interface {
	CreateNation(ctx context.Context, exec SQLExecutor, nation *models.Nation) error
	Create(ctx context.Context, exec SQLExecutor, club *models.Club) error
	GetByID(ctx context.Context, exec SQLExecutor, id int64) (*models.Club, error)
	ListByNation(ctx context.Context, exec SQLExecutor, nationID int64) ([]*models.Club, error)
	ListAll(ctx context.Context, exec SQLExecutor) ([]*models.Club, error)
}

type sqlClubRepository struct {
	baseRepository
}

func NewClubRepository(db *sql.DB) ClubRepository {
	return &sqlClubRepository{baseRepository{db: db}}
}

func (r *sqlClubRepository) CreateNation(ctx context.Context, exec SQLExecutor, nation *models.Nation) error {
	err := r.getExecutor(exec).QueryRowContext(ctx,
		`INSERT INTO nation (name) VALUES ($1) RETURNING id`, nation.Name,
	).Scan(&nation.ID)
	return mapConstraintError(err)
}

func (r *sqlClubRepository) Create(ctx context.Context, exec SQLExecutor, club *models.Club) error {
	query := `
		INSERT INTO club (name, nation_id, reputation, stadium_capacity)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		club.Name, club.NationID, club.Reputation, club.StadiumCapacity,
	).Scan(&club.ID)
	return mapConstraintError(err)
}

func (r *sqlClubRepository) scanClub(row rowScanner) (*models.Club, error) {
	var c models.Club
	if err := row.Scan(&c.ID, &c.Name, &c.NationID, &c.Reputation, &c.StadiumCapacity); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrClubNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *sqlClubRepository) GetByID(ctx context.Context, exec SQLExecutor, id int64) (*models.Club, error) {
	row := r.getExecutor(exec).QueryRowContext(ctx,
		`SELECT id, name, nation_id, reputation, stadium_capacity FROM club WHERE id = $1`, id)
	return r.scanClub(row)
}

// ListByNation returns the nation's clubs ordered by id, which is the order
// fixtures are generated in.
func (r *sqlClubRepository) ListByNation(ctx context.Context, exec SQLExecutor, nationID int64) ([]*models.Club, error) {
	return r.list(ctx, exec, `
		SELECT id, name, nation_id, reputation, stadium_capacity
		FROM club WHERE nation_id = $1 ORDER BY id`, nationID)
}

func (r *sqlClubRepository) ListAll(ctx context.Context, exec SQLExecutor) ([]*models.Club, error) {
	return r.list(ctx, exec, `SELECT id, name, nation_id, reputation, stadium_capacity FROM club ORDER BY id`)
}

func (r *sqlClubRepository) list(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]*models.Club, error) {
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	clubs := make([]*models.Club, 0)
	for rows.Next() {
		c, err := r.scanClub(rows)
		if err != nil {
			return nil, err
		}
		clubs = append(clubs, c)
	}
	return clubs, rows.Err()
}
