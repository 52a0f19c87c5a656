package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/Dosada05/matchday/models"
)

var ErrPlayerNotFound = errors.New("player not found")

type PlayerRepository interface {
	Create(ctx context.Context, exec SQLExecutor, player *models.Player) error
	GetByID(ctx context.Context, exec SQLExecutor, id int64) (*models.Player, error)
	ListByIDs(ctx context.Context, exec SQLExecutor, ids []int64) ([]*models.Player, error)
	// ListSquad returns players holding a contract with the club on date.
	ListSquad(ctx context.Context, exec SQLExecutor, clubID int64, date models.Date) ([]*models.Player, error)

	CreateContract(ctx context.Context, exec SQLExecutor, contract *models.PlayerContract) error
	CreateStaff(ctx context.Context, exec SQLExecutor, staff *models.StaffMember) error
	CreateStaffContract(ctx context.Context, exec SQLExecutor, contract *models.StaffContract) error
	// ListExpiring*Contracts return contracts ending in (after, through].
	ListExpiringPlayerContracts(ctx context.Context, exec SQLExecutor, after, through models.Date) ([]models.ExpiringContract, error)
	ListExpiringStaffContracts(ctx context.Context, exec SQLExecutor, after, through models.Date) ([]models.ExpiringContract, error)
	// MonthlyWages sums the salaries of player and staff contracts active on
	// date, keyed by club.
	MonthlyWages(ctx context.Context, exec SQLExecutor, date models.Date) (map[int64]decimal.Decimal, error)
}

type sqlPlayerRepository struct {
	baseRepository
}

func NewPlayerRepository(db *sql.DB) PlayerRepository {
	return &sqlPlayerRepository{baseRepository{db: db}}
}

func (r *sqlPlayerRepository) Create(ctx context.Context, exec SQLExecutor, player *models.Player) error {
	executor := r.getExecutor(exec)
	err := executor.QueryRowContext(ctx, `
		INSERT INTO player (first_name, last_name, birth_date, nation_id, position, overall, potential)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		player.FirstName, player.LastName, player.BirthDate, player.NationID,
		player.Position, player.Overall, player.Potential,
	).Scan(&player.ID)
	if err != nil {
		return mapConstraintError(err)
	}

	names := make([]string, 0, len(player.Attributes))
	for name := range player.Attributes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		_, err := executor.ExecContext(ctx,
			`INSERT INTO player_attribute (player_id, name, value) VALUES ($1, $2, $3)`,
			player.ID, name, player.Attributes[name])
		if err != nil {
			return fmt.Errorf("failed to insert attribute %s for player %d: %w", name, player.ID, mapConstraintError(err))
		}
	}
	return nil
}

const playerColumns = `p.id, p.first_name, p.last_name, p.birth_date, p.nation_id, p.position, p.overall, p.potential`

func (r *sqlPlayerRepository) scanPlayer(row rowScanner) (*models.Player, error) {
	var p models.Player
	var nationID sql.NullInt64
	err := row.Scan(&p.ID, &p.FirstName, &p.LastName, &p.BirthDate, &nationID, &p.Position, &p.Overall, &p.Potential)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	if nationID.Valid {
		p.NationID = &nationID.Int64
	}
	return &p, nil
}

func (r *sqlPlayerRepository) GetByID(ctx context.Context, exec SQLExecutor, id int64) (*models.Player, error) {
	executor := r.getExecutor(exec)
	p, err := r.scanPlayer(executor.QueryRowContext(ctx, `SELECT `+playerColumns+` FROM player p WHERE p.id = $1`, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadAttributes(ctx, executor, []*models.Player{p}); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *sqlPlayerRepository) ListByIDs(ctx context.Context, exec SQLExecutor, ids []int64) ([]*models.Player, error) {
	if len(ids) == 0 {
		return []*models.Player{}, nil
	}
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	query := `SELECT ` + playerColumns + ` FROM player p WHERE p.id IN (` + placeholders(1, len(ids)) + `) ORDER BY p.id`
	return r.listWithAttributes(ctx, r.getExecutor(exec), query, args...)
}

func (r *sqlPlayerRepository) ListSquad(ctx context.Context, exec SQLExecutor, clubID int64, date models.Date) ([]*models.Player, error) {
	query := `SELECT ` + playerColumns + `
		FROM player p
		JOIN player_contract pc ON pc.player_id = p.id
		WHERE pc.club_id = $1 AND pc.start_date <= $2 AND pc.end_date >= $2
		ORDER BY p.overall DESC, p.id`
	return r.listWithAttributes(ctx, r.getExecutor(exec), query, clubID, date)
}

func (r *sqlPlayerRepository) listWithAttributes(ctx context.Context, executor SQLExecutor, query string, args ...interface{}) ([]*models.Player, error) {
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	players := make([]*models.Player, 0)
	for rows.Next() {
		p, err := r.scanPlayer(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	// Close before the next query: a single sqlite connection cannot serve both.
	rows.Close()

	if err := r.loadAttributes(ctx, executor, players); err != nil {
		return nil, err
	}
	return players, nil
}

func (r *sqlPlayerRepository) loadAttributes(ctx context.Context, executor SQLExecutor, players []*models.Player) error {
	if len(players) == 0 {
		return nil
	}
	byID := make(map[int64]*models.Player, len(players))
	args := make([]interface{}, len(players))
	for i, p := range players {
		p.Attributes = make(map[string]int)
		byID[p.ID] = p
		args[i] = p.ID
	}

	rows, err := executor.QueryContext(ctx,
		`SELECT player_id, name, value FROM player_attribute WHERE player_id IN (`+placeholders(1, len(players))+`)`,
		args...)
	if err != nil {
		return fmt.Errorf("failed to load player attributes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var playerID int64
		var name string
		var value int
		if err := rows.Scan(&playerID, &name, &value); err != nil {
			return err
		}
		if p, ok := byID[playerID]; ok {
			p.Attributes[name] = value
		}
	}
	return rows.Err()
}

func (r *sqlPlayerRepository) CreateContract(ctx context.Context, exec SQLExecutor, c *models.PlayerContract) error {
	err := r.getExecutor(exec).QueryRowContext(ctx, `
		INSERT INTO player_contract (player_id, club_id, start_date, end_date, salary)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		c.PlayerID, c.ClubID, c.StartDate, c.EndDate, c.Salary,
	).Scan(&c.ID)
	return mapConstraintError(err)
}

func (r *sqlPlayerRepository) CreateStaff(ctx context.Context, exec SQLExecutor, s *models.StaffMember) error {
	err := r.getExecutor(exec).QueryRowContext(ctx, `
		INSERT INTO staff (first_name, last_name, birth_date, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		s.FirstName, s.LastName, s.BirthDate, s.Role,
	).Scan(&s.ID)
	return mapConstraintError(err)
}

func (r *sqlPlayerRepository) CreateStaffContract(ctx context.Context, exec SQLExecutor, c *models.StaffContract) error {
	err := r.getExecutor(exec).QueryRowContext(ctx, `
		INSERT INTO staff_contract (staff_id, club_id, start_date, end_date, salary)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		c.StaffID, c.ClubID, c.StartDate, c.EndDate, c.Salary,
	).Scan(&c.ID)
	return mapConstraintError(err)
}

func (r *sqlPlayerRepository) ListExpiringPlayerContracts(ctx context.Context, exec SQLExecutor, after, through models.Date) ([]models.ExpiringContract, error) {
	return r.expiring(ctx, exec, `
		SELECT pc.id, p.id, pc.club_id, p.first_name || ' ' || p.last_name, p.birth_date, p.overall
		FROM player_contract pc
		JOIN player p ON p.id = pc.player_id
		WHERE pc.end_date > $1 AND pc.end_date <= $2
		ORDER BY pc.id`, after, through)
}

func (r *sqlPlayerRepository) ListExpiringStaffContracts(ctx context.Context, exec SQLExecutor, after, through models.Date) ([]models.ExpiringContract, error) {
	return r.expiring(ctx, exec, `
		SELECT sc.id, s.id, sc.club_id, s.first_name || ' ' || s.last_name, s.birth_date, 0
		FROM staff_contract sc
		JOIN staff s ON s.id = sc.staff_id
		WHERE sc.end_date > $1 AND sc.end_date <= $2
		ORDER BY sc.id`, after, through)
}

func (r *sqlPlayerRepository) expiring(ctx context.Context, exec SQLExecutor, query string, after, through models.Date) ([]models.ExpiringContract, error) {
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, after, through)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contracts := make([]models.ExpiringContract, 0)
	for rows.Next() {
		var c models.ExpiringContract
		if err := rows.Scan(&c.ContractID, &c.PersonID, &c.ClubID, &c.Name, &c.BirthDate, &c.Overall); err != nil {
			return nil, err
		}
		contracts = append(contracts, c)
	}
	return contracts, rows.Err()
}

func (r *sqlPlayerRepository) MonthlyWages(ctx context.Context, exec SQLExecutor, date models.Date) (map[int64]decimal.Decimal, error) {
	rows, err := r.getExecutor(exec).QueryContext(ctx, `
		SELECT club_id, salary FROM player_contract WHERE start_date <= $1 AND end_date >= $1
		UNION ALL
		SELECT club_id, salary FROM staff_contract WHERE start_date <= $1 AND end_date >= $1`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	wages := make(map[int64]decimal.Decimal)
	for rows.Next() {
		var clubID int64
		var salary decimal.Decimal
		if err := rows.Scan(&clubID, &salary); err != nil {
			return nil, err
		}
		wages[clubID] = wages[clubID].Add(salary)
	}
	return wages, rows.Err()
}
