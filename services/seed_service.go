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

var (
	seedFirstNames = []string{"Alex", "Bruno", "Carlos", "Daniel", "Emil", "Felix", "Gabriel", "Hugo", "Ivan", "Jonas",
		"Karim", "Luca", "Marco", "Nico", "Oscar", "Pablo", "Rafael", "Sami", "Tomas", "Victor"}
	seedLastNames = []string{"Almeida", "Berger", "Costa", "Dubois", "Eriksen", "Fischer", "Garcia", "Hansen", "Ilic", "Jensen",
		"Kowalski", "Lopez", "Moreau", "Novak", "Olsen", "Petrov", "Rossi", "Silva", "Torres", "Weber"}
	seedClubSuffixes = []string{"United", "City", "Athletic", "Rovers", "Wanderers", "FC", "Albion", "Town"}

	// squadTemplate is the registered position of each player of a generated squad.
	squadTemplate = []string{
		models.PositionGK, models.PositionGK,
		models.PositionCB, models.PositionCB, models.PositionCB, models.PositionLB, models.PositionRB,
		models.PositionCDM, models.PositionCM, models.PositionCM, models.PositionCAM, models.PositionLM, models.PositionRM,
		models.PositionLW, models.PositionRW, models.PositionST, models.PositionST, models.PositionCF,
	}
	staffRoles = []string{"Manager", "Assistant Manager", "Fitness Coach"}
)

type WorldConfig struct {
	Nations        []string
	ClubsPerNation int
	PlayersPerClub int
	StartDate      models.Date
}

type WorldSummary struct {
	Nations      int `json:"nations"`
	Clubs        int `json:"clubs"`
	Competitions int `json:"competitions"`
	Players      int `json:"players"`
	Staff        int `json:"staff"`
}

// SeedService fills an empty save with a generated world: nations, one league
// per nation, clubs with contracted squads and staff.
type SeedService interface {
	SeedWorld(ctx context.Context, cfg WorldConfig, rng *rand.Rand) (*WorldSummary, error)
}

type seedService struct {
	db         *sql.DB
	clubRepo   repositories.ClubRepository
	compRepo   repositories.CompetitionRepository
	playerRepo repositories.PlayerRepository
	logger     logrus.FieldLogger
}

func NewSeedService(
	db *sql.DB,
	clubRepo repositories.ClubRepository,
	compRepo repositories.CompetitionRepository,
	playerRepo repositories.PlayerRepository,
	logger logrus.FieldLogger,
) SeedService {
	return &seedService{
		db:         db,
		clubRepo:   clubRepo,
		compRepo:   compRepo,
		playerRepo: playerRepo,
		logger:     logger,
	}
}

func (s *seedService) SeedWorld(ctx context.Context, cfg WorldConfig, rng *rand.Rand) (*WorldSummary, error) {
	if len(cfg.Nations) == 0 {
		cfg.Nations = []string{"England"}
	}
	if cfg.ClubsPerNation <= 0 {
		cfg.ClubsPerNation = 8
	}
	if cfg.PlayersPerClub <= 0 {
		cfg.PlayersPerClub = len(squadTemplate)
	}

	summary := &WorldSummary{}
	err := withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		for _, name := range cfg.Nations {
			if err := s.seedNation(ctx, tx, name, cfg, rng, summary); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"nations": summary.Nations,
		"clubs":   summary.Clubs,
		"players": summary.Players,
	}).Info("World seeded")
	return summary, nil
}

func (s *seedService) seedNation(ctx context.Context, exec repositories.SQLExecutor, name string, cfg WorldConfig, rng *rand.Rand, summary *WorldSummary) error {
	nation := &models.Nation{Name: name}
	if err := s.clubRepo.CreateNation(ctx, exec, nation); err != nil {
		return fmt.Errorf("failed to create nation %s: %w", name, err)
	}
	summary.Nations++

	league := &models.Competition{Name: name + " Premier League", Type: models.CompetitionLeague, NationID: &nation.ID}
	if err := s.compRepo.Create(ctx, exec, league); err != nil {
		return fmt.Errorf("failed to create league of %s: %w", name, err)
	}
	summary.Competitions++

	for i := 0; i < cfg.ClubsPerNation; i++ {
		club := &models.Club{
			Name:            fmt.Sprintf("%s %s %d", name, seedClubSuffixes[i%len(seedClubSuffixes)], i+1),
			NationID:        nation.ID,
			Reputation:      40 + rng.Intn(61),
			StadiumCapacity: 15000 + rng.Intn(50)*1000,
		}
		if err := s.clubRepo.Create(ctx, exec, club); err != nil {
			return fmt.Errorf("failed to create club %s: %w", club.Name, err)
		}
		summary.Clubs++

		if err := s.seedSquad(ctx, exec, club, nation.ID, cfg, rng, summary); err != nil {
			return err
		}
	}
	return nil
}

func (s *seedService) seedSquad(ctx context.Context, exec repositories.SQLExecutor, club *models.Club, nationID int64, cfg WorldConfig, rng *rand.Rand, summary *WorldSummary) error {
	contractStart := cfg.StartDate.AddDate(-1, 0, 0)
	ends := seasonEnds(cfg.StartDate, 4)

	for i := 0; i < cfg.PlayersPerClub; i++ {
		// Reputation lifts the squad's level.
		overall := 45 + club.Reputation/4 + rng.Intn(20)
		if overall > 95 {
			overall = 95
		}
		age := 18 + rng.Intn(19)
		player := &models.Player{
			FirstName:  seedFirstNames[rng.Intn(len(seedFirstNames))],
			LastName:   seedLastNames[rng.Intn(len(seedLastNames))],
			BirthDate:  cfg.StartDate.AddDate(-age, 0, -rng.Intn(365)),
			NationID:   &nationID,
			Position:   squadTemplate[i%len(squadTemplate)],
			Overall:    overall,
			Potential:  overall + rng.Intn(10),
			Attributes: seedAttributes(overall, rng),
		}
		if err := s.playerRepo.Create(ctx, exec, player); err != nil {
			return fmt.Errorf("failed to create player for club %d: %w", club.ID, err)
		}
		contract := &models.PlayerContract{
			PlayerID:  player.ID,
			ClubID:    club.ID,
			StartDate: contractStart,
			EndDate:   ends[rng.Intn(4)],
			Salary:    decimal.NewFromInt(int64(overall) * 1000),
		}
		if err := s.playerRepo.CreateContract(ctx, exec, contract); err != nil {
			return fmt.Errorf("failed to create contract of player %d: %w", player.ID, err)
		}
		summary.Players++
	}

	for _, role := range staffRoles {
		staff := &models.StaffMember{
			FirstName: seedFirstNames[rng.Intn(len(seedFirstNames))],
			LastName:  seedLastNames[rng.Intn(len(seedLastNames))],
			BirthDate: cfg.StartDate.AddDate(-(35 + rng.Intn(35)), 0, 0),
			Role:      role,
		}
		if err := s.playerRepo.CreateStaff(ctx, exec, staff); err != nil {
			return fmt.Errorf("failed to create staff for club %d: %w", club.ID, err)
		}
		contract := &models.StaffContract{
			StaffID:   staff.ID,
			ClubID:    club.ID,
			StartDate: contractStart,
			EndDate:   ends[rng.Intn(3)],
			Salary:    decimal.NewFromInt(20000),
		}
		if err := s.playerRepo.CreateStaffContract(ctx, exec, contract); err != nil {
			return fmt.Errorf("failed to create contract of staff %d: %w", staff.ID, err)
		}
		summary.Staff++
	}
	return nil
}

// seedAttributes spreads an overall rating (1-100) over the 1-20 attribute scale.
func seedAttributes(overall int, rng *rand.Rand) map[string]int {
	names := []string{
		models.AttrFinishing, models.AttrDribbling, models.AttrPassing, models.AttrVision, models.AttrPace,
		models.AttrTackling, models.AttrMarking, models.AttrStrength, models.AttrComposure,
		models.AttrGoalkeeping, models.AttrDiscipline,
	}
	base := overall / 5
	attrs := make(map[string]int, len(names))
	for _, name := range names {
		v := base + rng.Intn(7) - 3
		if v < 1 {
			v = 1
		}
		if v > 20 {
			v = 20
		}
		attrs[name] = v
	}
	return attrs
}

// seasonEnds returns the end dates of the first n seasons starting on start,
// following the gap the season transition leaves between seasons.
func seasonEnds(start models.Date, n int) []models.Date {
	ends := make([]models.Date, n)
	for i := range ends {
		ends[i] = SeasonEnd(start)
		start = ends[i].AddDays(NextSeasonGapDays)
	}
	return ends
}
