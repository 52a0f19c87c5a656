package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/Dosada05/matchday/engine"
	"github.com/Dosada05/matchday/models"
	"github.com/Dosada05/matchday/repositories"
)

// MatchResult is a resolved match waiting to be persisted. Placeholder
// results carry no Outcome.
type MatchResult struct {
	Match         *models.Match
	HomeScore     int
	AwayScore     int
	Outcome       *engine.Outcome
	Lineups       []models.LineupEntry
	TicketRevenue decimal.Decimal
	Skipped       bool
	SkipReason    string
}

func (r *MatchResult) Events() []models.MatchEvent {
	if r.Outcome != nil {
		return r.Outcome.Events
	}
	return []models.MatchEvent{{
		Minute:  0,
		Type:    models.EventMatchSkipped,
		Details: fmt.Sprintf("Match not simulated (%s), recorded as 0-0", r.SkipReason),
	}}
}

func (r *MatchResult) Log() []string {
	if r.Outcome != nil {
		return r.Outcome.Log()
	}
	lines := make([]string, 0, 1)
	for _, ev := range r.Events() {
		lines = append(lines, fmt.Sprintf("%d' %s", ev.Minute, ev.Details))
	}
	return lines
}

// SimulationResult is what a caller of SimulateMatch gets back.
type SimulationResult struct {
	MatchID            int64    `json:"match_id"`
	HomeScore          int      `json:"home_score"`
	AwayScore          int      `json:"away_score"`
	MOTMPlayerIDs      []int64  `json:"motm_player_ids"`
	MatchLog           []string `json:"match_log"`
	InsufficientLineup bool     `json:"insufficient_lineup"`
}

type MatchDetails struct {
	Match  *models.Match            `json:"match"`
	Stats  []models.PlayerMatchStat `json:"stats"`
	Events []models.MatchEvent      `json:"events"`
	Home   []models.LineupEntry     `json:"home_lineup"`
	Away   []models.LineupEntry     `json:"away_lineup"`
}

type MatchService interface {
	// Resolve loads both sides and simulates the match without writing
	// anything, so it is safe to call from many goroutines.
	Resolve(ctx context.Context, match *models.Match, rng *rand.Rand) (*MatchResult, error)
	// Placeholder is the 0-0 result recorded for a match that could not be
	// resolved.
	Placeholder(match *models.Match, reason string) *MatchResult
	// Apply persists a result: score, lineups, stats, events, standings and
	// ticket revenue. It must run inside the caller's transaction.
	Apply(ctx context.Context, exec repositories.SQLExecutor, result *MatchResult) error
	SimulateMatch(ctx context.Context, matchID int64) (*SimulationResult, error)
	GetMatchDetails(ctx context.Context, matchID int64) (*MatchDetails, error)
}

type matchService struct {
	db         *sql.DB
	engine     *engine.Engine
	matchRepo  repositories.MatchRepository
	clubRepo   repositories.ClubRepository
	playerRepo repositories.PlayerRepository
	statsRepo  repositories.StatsRepository
	standings  StandingsService
	finance    FinanceService
	rand       *RandSource
	logger     logrus.FieldLogger
}

func NewMatchService(
	db *sql.DB,
	eng *engine.Engine,
	matchRepo repositories.MatchRepository,
	clubRepo repositories.ClubRepository,
	playerRepo repositories.PlayerRepository,
	statsRepo repositories.StatsRepository,
	standings StandingsService,
	finance FinanceService,
	randSource *RandSource,
	logger logrus.FieldLogger,
) MatchService {
	return &matchService{
		db:         db,
		engine:     eng,
		matchRepo:  matchRepo,
		clubRepo:   clubRepo,
		playerRepo: playerRepo,
		statsRepo:  statsRepo,
		standings:  standings,
		finance:    finance,
		rand:       randSource,
		logger:     logger,
	}
}

func (s *matchService) Resolve(ctx context.Context, match *models.Match, rng *rand.Rand) (*MatchResult, error) {
	homeClub, err := s.clubRepo.GetByID(ctx, nil, match.HomeClubID)
	if err != nil {
		return nil, fmt.Errorf("failed to get home club %d: %w", match.HomeClubID, err)
	}
	awayClub, err := s.clubRepo.GetByID(ctx, nil, match.AwayClubID)
	if err != nil {
		return nil, fmt.Errorf("failed to get away club %d: %w", match.AwayClubID, err)
	}

	home, homeGenerated, err := s.side(ctx, match, homeClub)
	if err != nil {
		return nil, err
	}
	away, awayGenerated, err := s.side(ctx, match, awayClub)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	outcome := s.engine.Simulate(home, away, rng)
	result := &MatchResult{
		Match:         match,
		HomeScore:     outcome.HomeScore,
		AwayScore:     outcome.AwayScore,
		Outcome:       outcome,
		TicketRevenue: decimal.Zero,
	}
	if outcome.InsufficientLineup {
		s.logger.WithFields(logrus.Fields{
			"match_id":     match.ID,
			"home_players": len(home.Players),
			"away_players": len(away.Players),
		}).Warn("Insufficient lineup, match recorded as 0-0")
		return result, nil
	}

	result.Lineups = append(homeGenerated, awayGenerated...)
	result.TicketRevenue = s.finance.TicketRevenue(homeClub, rng)
	return result, nil
}

// side returns the club's starters for the match: the saved lineup when it
// is complete, an automatic pick from the squad otherwise. Automatic picks
// are returned as lineup rows to persist.
func (s *matchService) side(ctx context.Context, match *models.Match, club *models.Club) (engine.Side, []models.LineupEntry, error) {
	size := s.engine.Config().LineupSize

	saved, err := s.matchRepo.ListLineup(ctx, nil, match.ID, club.ID)
	if err != nil {
		return engine.Side{}, nil, fmt.Errorf("failed to load lineup of club %d: %w", club.ID, err)
	}
	starters := make([]models.LineupEntry, 0, len(saved))
	for _, e := range saved {
		if e.IsStarter {
			starters = append(starters, e)
		}
	}

	if len(starters) >= size {
		side, err := s.savedSide(ctx, club, starters[:size])
		if err != nil {
			return engine.Side{}, nil, err
		}
		if side.Complete(size) {
			return side, nil, nil
		}
	}

	squad, err := s.playerRepo.ListSquad(ctx, nil, club.ID, match.MatchDate)
	if err != nil {
		return engine.Side{}, nil, fmt.Errorf("failed to load squad of club %d: %w", club.ID, err)
	}
	profiles := make([]engine.PlayerProfile, len(squad))
	for i, p := range squad {
		profiles[i] = profileOf(p, club.ID, p.Position)
	}
	side := engine.AutoLineup(club.ID, club.Name, profiles, size)
	if !side.Complete(size) {
		return side, nil, nil
	}
	return side, side.LineupEntries(match.ID), nil
}

func (s *matchService) savedSide(ctx context.Context, club *models.Club, starters []models.LineupEntry) (engine.Side, error) {
	ids := make([]int64, len(starters))
	for i, e := range starters {
		ids[i] = e.PlayerID
	}
	players, err := s.playerRepo.ListByIDs(ctx, nil, ids)
	if err != nil {
		return engine.Side{}, fmt.Errorf("failed to load lineup players of club %d: %w", club.ID, err)
	}
	byID := make(map[int64]*models.Player, len(players))
	for _, p := range players {
		byID[p.ID] = p
	}

	side := engine.Side{ClubID: club.ID, Name: club.Name}
	for _, e := range starters {
		p, ok := byID[e.PlayerID]
		if !ok {
			continue
		}
		position := e.Position
		if position == "" {
			position = p.Position
		}
		side.Players = append(side.Players, profileOf(p, club.ID, position))
		if e.IsCaptain {
			side.CaptainID = p.ID
		}
	}
	if side.CaptainID == 0 && len(side.Players) > 0 {
		side.CaptainID = side.Players[0].PlayerID
	}
	return side, nil
}

func profileOf(p *models.Player, clubID int64, position string) engine.PlayerProfile {
	return engine.PlayerProfile{
		PlayerID:   p.ID,
		ClubID:     clubID,
		Name:       p.FullName(),
		Position:   position,
		Overall:    p.Overall,
		Attributes: p.Attributes,
	}
}

func (s *matchService) Placeholder(match *models.Match, reason string) *MatchResult {
	return &MatchResult{
		Match:         match,
		TicketRevenue: decimal.Zero,
		Skipped:       true,
		SkipReason:    reason,
	}
}

func (s *matchService) Apply(ctx context.Context, exec repositories.SQLExecutor, result *MatchResult) error {
	if exec == nil {
		return ErrTransactionRequired
	}
	match := result.Match

	if err := s.matchRepo.RecordResult(ctx, exec, match.ID, result.HomeScore, result.AwayScore); err != nil {
		if errors.Is(err, repositories.ErrMatchAlreadyPlayed) {
			return ErrMatchAlreadyPlayed
		}
		return fmt.Errorf("failed to record result of match %d: %w", match.ID, err)
	}

	if len(result.Lineups) > 0 {
		if err := s.matchRepo.SaveLineup(ctx, exec, result.Lineups); err != nil {
			return fmt.Errorf("failed to save lineups of match %d: %w", match.ID, err)
		}
	}

	if result.Outcome != nil && len(result.Outcome.Stats) > 0 {
		stats := make([]models.PlayerMatchStat, len(result.Outcome.Stats))
		copy(stats, result.Outcome.Stats)
		for i := range stats {
			stats[i].MatchID = match.ID
		}
		if err := s.statsRepo.CreatePlayerStats(ctx, exec, stats); err != nil {
			return fmt.Errorf("failed to store player stats of match %d: %w", match.ID, err)
		}
	}

	events := append([]models.MatchEvent(nil), result.Events()...)
	for i := range events {
		events[i].MatchID = match.ID
	}
	if err := s.statsRepo.CreateEvents(ctx, exec, events); err != nil {
		return fmt.Errorf("failed to store events of match %d: %w", match.ID, err)
	}

	if match.CompetitionType != models.CompetitionCup {
		if err := s.standings.ApplyResult(ctx, exec, match, result.HomeScore, result.AwayScore); err != nil {
			return err
		}
	}

	if result.TicketRevenue.IsPositive() {
		desc := fmt.Sprintf("Ticket sales, match %d", match.ID)
		if _, err := s.finance.RecordTransaction(ctx, exec, match.HomeClubID, models.CategoryTicketSales, result.TicketRevenue, match.MatchDate, desc); err != nil {
			return err
		}
	}
	return nil
}

func (s *matchService) SimulateMatch(ctx context.Context, matchID int64) (*SimulationResult, error) {
	match, err := s.matchRepo.GetByID(ctx, nil, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get match %d: %w", matchID, err)
	}
	if match.IsPlayed() {
		return nil, ErrMatchAlreadyPlayed
	}

	result, err := s.Resolve(ctx, match, s.rand.For("match", match.ID))
	if err != nil {
		return nil, err
	}
	err = withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		return s.Apply(ctx, tx, result)
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"match_id": match.ID,
		"score":    fmt.Sprintf("%d-%d", result.HomeScore, result.AwayScore),
	}).Info("Match simulated")

	motm := result.Outcome.MOTM
	if motm == nil {
		motm = []int64{}
	}
	return &SimulationResult{
		MatchID:            match.ID,
		HomeScore:          result.HomeScore,
		AwayScore:          result.AwayScore,
		MOTMPlayerIDs:      motm,
		MatchLog:           result.Log(),
		InsufficientLineup: result.Outcome.InsufficientLineup,
	}, nil
}

func (s *matchService) GetMatchDetails(ctx context.Context, matchID int64) (*MatchDetails, error) {
	match, err := s.matchRepo.GetByID(ctx, nil, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	details := &MatchDetails{Match: match}
	if details.Stats, err = s.statsRepo.ListPlayerStats(ctx, nil, matchID); err != nil {
		return nil, err
	}
	if details.Events, err = s.statsRepo.ListEvents(ctx, nil, matchID); err != nil {
		return nil, err
	}
	if details.Home, err = s.matchRepo.ListLineup(ctx, nil, matchID, match.HomeClubID); err != nil {
		return nil, err
	}
	if details.Away, err = s.matchRepo.ListLineup(ctx, nil, matchID, match.AwayClubID); err != nil {
		return nil, err
	}
	return details, nil
}
