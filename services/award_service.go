package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/Dosada05/matchday/engine"
	"github.com/Dosada05/matchday/models"
	"github.com/Dosada05/matchday/repositories"
)

const DefaultAwardMinMatches = 10

type AwardsConfig struct {
	MinMatches int
}

// teamOfTheYearShape is the 1-4-3-3 the Team of the Year is picked in.
var teamOfTheYearShape = []struct {
	category engine.PositionCategory
	count    int
}{
	{engine.CategoryGoalkeeper, 1},
	{engine.CategoryDefense, 4},
	{engine.CategoryMidfield, 3},
	{engine.CategoryAttack, 3},
}

type AwardSummary struct {
	Trophies      []*models.Trophy                 `json:"trophies"`
	Awards        []*models.Award                  `json:"awards"`
	TeamOfTheYear []*models.TeamOfTheYearSelection `json:"team_of_the_year"`
}

type AwardService interface {
	// AwardTrophies crowns each competition winner of the season and pays
	// the prize money. Already awarded trophies are not paid twice.
	AwardTrophies(ctx context.Context, exec repositories.SQLExecutor, season *models.Season) ([]*models.Trophy, error)
	AwardIndividual(ctx context.Context, exec repositories.SQLExecutor, season *models.Season) ([]*models.Award, []*models.TeamOfTheYearSelection, error)
	GetSeasonAwards(ctx context.Context, seasonID int64) (*AwardSummary, error)
}

type awardService struct {
	compRepo   repositories.CompetitionRepository
	matchRepo  repositories.MatchRepository
	statsRepo  repositories.StatsRepository
	awardRepo  repositories.AwardRepository
	standings  StandingsService
	finance    FinanceService
	categories map[string]engine.PositionCategory
	cfg        AwardsConfig
	logger     logrus.FieldLogger
}

func NewAwardService(
	compRepo repositories.CompetitionRepository,
	matchRepo repositories.MatchRepository,
	statsRepo repositories.StatsRepository,
	awardRepo repositories.AwardRepository,
	standings StandingsService,
	finance FinanceService,
	engineCfg engine.Config,
	cfg AwardsConfig,
	logger logrus.FieldLogger,
) AwardService {
	if cfg.MinMatches <= 0 {
		cfg.MinMatches = DefaultAwardMinMatches
	}
	return &awardService{
		compRepo:   compRepo,
		matchRepo:  matchRepo,
		statsRepo:  statsRepo,
		awardRepo:  awardRepo,
		standings:  standings,
		finance:    finance,
		categories: engineCfg.Categories,
		cfg:        cfg,
		logger:     logger,
	}
}

func (s *awardService) AwardTrophies(ctx context.Context, exec repositories.SQLExecutor, season *models.Season) ([]*models.Trophy, error) {
	comps, err := s.compRepo.ListBySeason(ctx, exec, season.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list competitions of season %d: %w", season.ID, err)
	}

	trophies := make([]*models.Trophy, 0, len(comps))
	for _, comp := range comps {
		log := s.logger.WithFields(logrus.Fields{"season_id": season.ID, "competition_id": comp.ID})

		winnerID, err := s.winner(ctx, exec, comp, season.ID)
		if err != nil {
			return nil, err
		}
		if winnerID == 0 {
			log.Warn("No winner could be determined, no trophy awarded")
			continue
		}

		trophy := &models.Trophy{
			ClubID:        winnerID,
			CompetitionID: comp.ID,
			SeasonID:      season.ID,
			DateWon:       season.EndDate,
		}
		inserted, err := s.awardRepo.CreateTrophy(ctx, exec, trophy)
		if err != nil {
			return nil, fmt.Errorf("failed to record trophy of competition %d: %w", comp.ID, err)
		}
		if !inserted {
			log.Debug("Trophy already awarded")
			continue
		}

		prize := s.finance.PrizeFor(comp.Type)
		desc := fmt.Sprintf("Prize money: %s", comp.Name)
		if _, err := s.finance.RecordTransaction(ctx, exec, winnerID, models.CategoryPrizeMoney, prize, season.EndDate, desc); err != nil {
			return nil, err
		}
		log.WithFields(logrus.Fields{"club_id": winnerID, "prize": prize.String()}).Info("Trophy awarded")
		trophies = append(trophies, trophy)
	}
	return trophies, nil
}

// winner returns the champion of the competition, or zero when there is none.
func (s *awardService) winner(ctx context.Context, exec repositories.SQLExecutor, comp *models.Competition, seasonID int64) (int64, error) {
	if comp.Type == models.CompetitionLeague {
		leader, err := s.standings.Leader(ctx, exec, comp.ID, seasonID)
		if err != nil {
			return 0, err
		}
		if leader == nil {
			return 0, nil
		}
		return leader.ClubID, nil
	}

	final, err := s.matchRepo.GetPlayedFinal(ctx, exec, comp.ID, seasonID)
	if errors.Is(err, repositories.ErrMatchNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to find final of competition %d: %w", comp.ID, err)
	}
	if final.HomeScore == nil || final.AwayScore == nil || *final.HomeScore == *final.AwayScore {
		return 0, nil
	}
	if *final.HomeScore > *final.AwayScore {
		return final.HomeClubID, nil
	}
	return final.AwayClubID, nil
}

func (s *awardService) AwardIndividual(ctx context.Context, exec repositories.SQLExecutor, season *models.Season) ([]*models.Award, []*models.TeamOfTheYearSelection, error) {
	awards := make([]*models.Award, 0)
	give := func(awardType models.AwardType, competitionID int64, stats []models.PlayerSeasonStat, value func(models.PlayerSeasonStat) float64) error {
		log := s.logger.WithFields(logrus.Fields{"season_id": season.ID, "award": awardType, "competition_id": competitionID})
		if len(stats) == 0 {
			log.Warn("No eligible candidate for award")
			return nil
		}
		award := &models.Award{
			PlayerID:      stats[0].PlayerID,
			Type:          awardType,
			SeasonID:      season.ID,
			CompetitionID: competitionID,
			AwardDate:     season.EndDate,
			Value:         value(stats[0]),
		}
		inserted, err := s.awardRepo.CreateAward(ctx, exec, award)
		if err != nil {
			return fmt.Errorf("failed to record %s: %w", awardType, err)
		}
		if inserted {
			log.WithField("player_id", award.PlayerID).Info("Award given")
			awards = append(awards, award)
		}
		return nil
	}
	goals := func(st models.PlayerSeasonStat) float64 { return float64(st.Goals) }
	rating := func(st models.PlayerSeasonStat) float64 { return st.AvgRating }

	scorers, err := s.statsRepo.TopScorers(ctx, exec, season.ID, 0, 1)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to rank scorers: %w", err)
	}
	if err := give(models.AwardGoldenBoot, 0, scorers, goals); err != nil {
		return nil, nil, err
	}

	best, err := s.statsRepo.BestRated(ctx, exec, repositories.RatingQuery{SeasonID: season.ID, MinMatches: s.cfg.MinMatches, Limit: 1})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to rank players: %w", err)
	}
	if err := give(models.AwardBestPlayer, 0, best, rating); err != nil {
		return nil, nil, err
	}

	keepers, err := s.statsRepo.BestRated(ctx, exec, repositories.RatingQuery{
		SeasonID:   season.ID,
		MinMatches: 1,
		Positions:  s.positionsOf(engine.CategoryGoalkeeper),
		Limit:      1,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to rank goalkeepers: %w", err)
	}
	if err := give(models.AwardBestGoalkeeper, 0, keepers, rating); err != nil {
		return nil, nil, err
	}

	comps, err := s.compRepo.ListBySeason(ctx, exec, season.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list competitions of season %d: %w", season.ID, err)
	}
	for _, comp := range comps {
		best, err := s.statsRepo.BestRated(ctx, exec, repositories.RatingQuery{SeasonID: season.ID, CompetitionID: comp.ID, MinMatches: 1, Limit: 1})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to rank players of competition %d: %w", comp.ID, err)
		}
		if err := give(models.AwardBestPlayerCompetition, comp.ID, best, rating); err != nil {
			return nil, nil, err
		}
		scorers, err := s.statsRepo.TopScorers(ctx, exec, season.ID, comp.ID, 1)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to rank scorers of competition %d: %w", comp.ID, err)
		}
		if err := give(models.AwardTopScorerCompetition, comp.ID, scorers, goals); err != nil {
			return nil, nil, err
		}
	}

	team, err := s.teamOfTheYear(ctx, exec, season)
	if err != nil {
		return nil, nil, err
	}
	return awards, team, nil
}

func (s *awardService) teamOfTheYear(ctx context.Context, exec repositories.SQLExecutor, season *models.Season) ([]*models.TeamOfTheYearSelection, error) {
	team := make([]*models.TeamOfTheYearSelection, 0, 11)
	for _, slot := range teamOfTheYearShape {
		picks, err := s.statsRepo.BestRated(ctx, exec, repositories.RatingQuery{
			SeasonID:   season.ID,
			MinMatches: s.cfg.MinMatches,
			Positions:  s.positionsOf(slot.category),
			Limit:      slot.count,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to pick %s for team of the year: %w", slot.category, err)
		}
		if len(picks) < slot.count {
			s.logger.WithFields(logrus.Fields{
				"season_id": season.ID,
				"category":  slot.category,
				"found":     len(picks),
				"needed":    slot.count,
			}).Warn("Not enough eligible players for team of the year")
		}
		for _, p := range picks {
			sel := &models.TeamOfTheYearSelection{
				SeasonID:  season.ID,
				PlayerID:  p.PlayerID,
				Position:  p.Position,
				AvgRating: p.AvgRating,
			}
			inserted, err := s.awardRepo.CreateTeamOfTheYear(ctx, exec, sel)
			if err != nil {
				return nil, fmt.Errorf("failed to record team of the year: %w", err)
			}
			if inserted {
				team = append(team, sel)
			}
		}
	}
	return team, nil
}

func (s *awardService) positionsOf(category engine.PositionCategory) []string {
	positions := make([]string, 0)
	for pos, cat := range s.categories {
		if cat == category {
			positions = append(positions, pos)
		}
	}
	sort.Strings(positions)
	return positions
}

func (s *awardService) GetSeasonAwards(ctx context.Context, seasonID int64) (*AwardSummary, error) {
	summary := &AwardSummary{}
	var err error
	if summary.Trophies, err = s.awardRepo.ListTrophies(ctx, nil, seasonID); err != nil {
		return nil, err
	}
	if summary.Awards, err = s.awardRepo.ListAwards(ctx, nil, seasonID); err != nil {
		return nil, err
	}
	if summary.TeamOfTheYear, err = s.awardRepo.ListTeamOfTheYear(ctx, nil, seasonID); err != nil {
		return nil, err
	}
	return summary, nil
}
