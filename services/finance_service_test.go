package services

import (
	"context"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/matchday/models"
)

func TestRecordTransactionMovesBalance(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()
	_, err := h.seeder.SeedWorld(ctx, WorldConfig{ClubsPerNation: 1, PlayersPerClub: 1, StartDate: seasonStart}, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	clubs, err := h.clubRepo.ListAll(ctx, nil)
	require.NoError(t, err)
	clubID := clubs[0].ID

	_, err = h.finance.RecordTransaction(ctx, nil, clubID, models.CategoryPrizeMoney, decimal.RequireFromString("2000000.50"), seasonStart, "prize")
	require.NoError(t, err)
	_, err = h.finance.RecordTransaction(ctx, nil, clubID, models.CategorySalaries, decimal.RequireFromString("-500000.25"), seasonStart, "wages")
	require.NoError(t, err)

	balance, err := h.finance.GetClubBalance(ctx, clubID)
	require.NoError(t, err)
	assert.Equal(t, "1500000.25", balance.StringFixed(2))

	_, err = h.finance.GetClubBalance(ctx, 424242)
	assert.Error(t, err)
}

func TestTicketRevenue(t *testing.T) {
	svc := &financeService{cfg: DefaultFinanceConfig()}
	rng := rand.New(rand.NewSource(4))
	club := &models.Club{StadiumCapacity: 40000, Reputation: 80}

	low := decimal.NewFromInt(40000 * 6 / 10).Mul(decimal.RequireFromString("30.8"))
	high := decimal.NewFromInt(40000 * 9 / 10).Mul(decimal.RequireFromString("30.8"))
	for i := 0; i < 100; i++ {
		revenue := svc.TicketRevenue(club, rng)
		assert.True(t, revenue.GreaterThanOrEqual(low), revenue.String())
		assert.True(t, revenue.LessThanOrEqual(high), revenue.String())
	}
	assert.True(t, svc.TicketRevenue(&models.Club{}, rng).IsZero())
}

func TestPrizeTiers(t *testing.T) {
	cfg := DefaultFinanceConfig()
	league := cfg.Prize(models.CompetitionLeague)
	cup := cfg.Prize(models.CompetitionCup)
	combination := cfg.Prize(models.CompetitionCombination)
	assert.True(t, league.LessThan(cup))
	assert.True(t, cup.LessThan(combination))
}
