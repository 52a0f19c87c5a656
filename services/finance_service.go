package services

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/Dosada05/matchday/models"
	"github.com/Dosada05/matchday/repositories"
)

const (
	merchandisePerReputation = 500
	merchandiseJitter        = 2000
	sponsorshipPerReputation = 300
	broadcastPerReputation   = 400
	startingBalancePerRep    = 5000

	ticketBasePrice    = 30
	minAttendanceRatio = 0.6
	attendanceSpread   = 0.3
)

type FinanceConfig struct {
	PrizeLeague      decimal.Decimal
	PrizeCup         decimal.Decimal
	PrizeCombination decimal.Decimal
}

func DefaultFinanceConfig() FinanceConfig {
	return FinanceConfig{
		PrizeLeague:      decimal.NewFromInt(2_000_000),
		PrizeCup:         decimal.NewFromInt(5_000_000),
		PrizeCombination: decimal.NewFromInt(10_000_000),
	}
}

// Prize returns the winner's prize money for a competition type.
func (c FinanceConfig) Prize(t models.CompetitionType) decimal.Decimal {
	switch t {
	case models.CompetitionCup:
		return c.PrizeCup
	case models.CompetitionCombination:
		return c.PrizeCombination
	default:
		return c.PrizeLeague
	}
}

type FinanceService interface {
	// RecordTransaction books amount against the club and moves its balance
	// in the same transaction. A nil exec opens a transaction of its own.
	RecordTransaction(ctx context.Context, exec repositories.SQLExecutor, clubID int64, category models.TransactionCategory, amount decimal.Decimal, date models.Date, description string) (*models.FinancialTransaction, error)
	GetClubBalance(ctx context.Context, clubID int64) (decimal.Decimal, error)
	ListTransactions(ctx context.Context, clubID int64) ([]*models.FinancialTransaction, error)
	// ProcessMonthly books monthly income and wages for every club.
	ProcessMonthly(ctx context.Context, exec repositories.SQLExecutor, date models.Date, rng *rand.Rand) (int, error)
	OpeningBalances(ctx context.Context, exec repositories.SQLExecutor, date models.Date) error
	TicketRevenue(club *models.Club, rng *rand.Rand) decimal.Decimal
	PrizeFor(t models.CompetitionType) decimal.Decimal
}

type financeService struct {
	db          *sql.DB
	financeRepo repositories.FinanceRepository
	clubRepo    repositories.ClubRepository
	playerRepo  repositories.PlayerRepository
	cfg         FinanceConfig
	logger      logrus.FieldLogger
}

func NewFinanceService(
	db *sql.DB,
	financeRepo repositories.FinanceRepository,
	clubRepo repositories.ClubRepository,
	playerRepo repositories.PlayerRepository,
	cfg FinanceConfig,
	logger logrus.FieldLogger,
) FinanceService {
	return &financeService{
		db:          db,
		financeRepo: financeRepo,
		clubRepo:    clubRepo,
		playerRepo:  playerRepo,
		cfg:         cfg,
		logger:      logger,
	}
}

func (s *financeService) RecordTransaction(ctx context.Context, exec repositories.SQLExecutor, clubID int64, category models.TransactionCategory, amount decimal.Decimal, date models.Date, description string) (*models.FinancialTransaction, error) {
	if exec == nil {
		var recorded *models.FinancialTransaction
		err := withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
			var err error
			recorded, err = s.RecordTransaction(ctx, tx, clubID, category, amount, date, description)
			return err
		})
		return recorded, err
	}

	t := &models.FinancialTransaction{
		ClubID:          clubID,
		Category:        category,
		Amount:          amount,
		TransactionDate: date,
		Description:     description,
	}
	if err := s.financeRepo.CreateTransaction(ctx, exec, t); err != nil {
		return nil, fmt.Errorf("failed to record %s transaction for club %d: %w", category, clubID, err)
	}

	balance, err := s.financeRepo.GetBalance(ctx, exec, clubID)
	if err != nil {
		return nil, fmt.Errorf("failed to read balance of club %d: %w", clubID, err)
	}
	if err := s.financeRepo.SetBalance(ctx, exec, clubID, balance.Add(amount)); err != nil {
		return nil, fmt.Errorf("failed to update balance of club %d: %w", clubID, err)
	}
	return t, nil
}

func (s *financeService) GetClubBalance(ctx context.Context, clubID int64) (decimal.Decimal, error) {
	if _, err := s.clubRepo.GetByID(ctx, nil, clubID); err != nil {
		return decimal.Zero, fmt.Errorf("failed to get club %d: %w", clubID, err)
	}
	return s.financeRepo.GetBalance(ctx, nil, clubID)
}

func (s *financeService) ListTransactions(ctx context.Context, clubID int64) ([]*models.FinancialTransaction, error) {
	return s.financeRepo.ListTransactions(ctx, nil, clubID)
}

func (s *financeService) ProcessMonthly(ctx context.Context, exec repositories.SQLExecutor, date models.Date, rng *rand.Rand) (int, error) {
	if exec == nil {
		return 0, ErrTransactionRequired
	}
	clubs, err := s.clubRepo.ListAll(ctx, exec)
	if err != nil {
		return 0, fmt.Errorf("failed to list clubs: %w", err)
	}
	wages, err := s.playerRepo.MonthlyWages(ctx, exec, date)
	if err != nil {
		return 0, fmt.Errorf("failed to sum wages: %w", err)
	}

	month := date.Format("January 2006")
	booked := 0
	for _, club := range clubs {
		rep := int64(club.Reputation)
		entries := []struct {
			category models.TransactionCategory
			amount   decimal.Decimal
		}{
			{models.CategoryMerchandise, decimal.NewFromInt(rep*merchandisePerReputation + rng.Int63n(merchandiseJitter+1))},
			{models.CategorySponsorship, decimal.NewFromInt(rep * sponsorshipPerReputation)},
			{models.CategoryBroadcast, decimal.NewFromInt(rep * broadcastPerReputation)},
		}
		if wage, ok := wages[club.ID]; ok && wage.IsPositive() {
			entries = append(entries, struct {
				category models.TransactionCategory
				amount   decimal.Decimal
			}{models.CategorySalaries, wage.Neg()})
		}

		for _, e := range entries {
			if e.amount.IsZero() {
				continue
			}
			desc := fmt.Sprintf("%s %s", month, e.category)
			if _, err := s.RecordTransaction(ctx, exec, club.ID, e.category, e.amount, date, desc); err != nil {
				return booked, err
			}
			booked++
		}
	}

	s.logger.WithFields(logrus.Fields{
		"date":         date.String(),
		"clubs":        len(clubs),
		"transactions": booked,
	}).Info("Monthly finances processed")
	return booked, nil
}

// OpeningBalances gives every club without a ledger a starting balance
// scaled by reputation.
func (s *financeService) OpeningBalances(ctx context.Context, exec repositories.SQLExecutor, date models.Date) error {
	clubs, err := s.clubRepo.ListAll(ctx, exec)
	if err != nil {
		return fmt.Errorf("failed to list clubs: %w", err)
	}
	for _, club := range clubs {
		history, err := s.financeRepo.ListTransactions(ctx, exec, club.ID)
		if err != nil {
			return fmt.Errorf("failed to read ledger of club %d: %w", club.ID, err)
		}
		if len(history) > 0 {
			continue
		}
		amount := decimal.NewFromInt(int64(club.Reputation) * startingBalancePerRep)
		if _, err := s.RecordTransaction(ctx, exec, club.ID, models.CategorySponsorship, amount, date, "Opening balance"); err != nil {
			return err
		}
	}
	return nil
}

// TicketRevenue draws the attendance of a home match and prices it by the
// club's reputation.
func (s *financeService) TicketRevenue(club *models.Club, rng *rand.Rand) decimal.Decimal {
	if club == nil || club.StadiumCapacity <= 0 {
		return decimal.Zero
	}
	ratio := minAttendanceRatio + attendanceSpread*rng.Float64()
	attendance := int64(float64(club.StadiumCapacity) * ratio)
	price := decimal.NewFromInt(ticketBasePrice).Add(decimal.NewFromInt(int64(club.Reputation)).Div(decimal.NewFromInt(100)))
	return decimal.NewFromInt(attendance).Mul(price).Round(2)
}

func (s *financeService) PrizeFor(t models.CompetitionType) decimal.Decimal {
	return s.cfg.Prize(t)
}
