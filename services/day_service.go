package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/matchday/models"
	"github.com/Dosada05/matchday/repositories"
)

const DefaultMatchTimeout = 5 * time.Second

type SimulationConfig struct {
	Workers      int
	MatchTimeout time.Duration
}

func (c SimulationConfig) withDefaults() SimulationConfig {
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.MatchTimeout <= 0 {
		c.MatchTimeout = DefaultMatchTimeout
	}
	return c
}

type SkippedMatch struct {
	MatchID int64  `json:"match_id"`
	Reason  string `json:"reason"`
}

type FailedMatch struct {
	MatchID int64  `json:"match_id"`
	Error   string `json:"error"`
}

// DaySummary describes one processed day. Skipped matches were recorded as
// 0-0 placeholders, failed ones are still scheduled.
type DaySummary struct {
	SaveID           uuid.UUID      `json:"save_id"`
	SeasonID         int64          `json:"season_id"`
	MatchesPlayed    int            `json:"matches_played"`
	Skipped          []SkippedMatch `json:"skipped"`
	Failed           []FailedMatch  `json:"failed"`
	PreviousDate     models.Date    `json:"previous_date"`
	NewDate          models.Date    `json:"new_date"`
	SeasonEndReached bool           `json:"season_end_reached"`
}

type AdvanceResult struct {
	Day        *DaySummary       `json:"day"`
	Transition *TransitionReport `json:"transition,omitempty"`
}

type MatchPlayedPayload struct {
	MatchID   int64       `json:"match_id"`
	Date      models.Date `json:"date"`
	HomeClub  int64       `json:"home_club_id"`
	AwayClub  int64       `json:"away_club_id"`
	HomeScore int         `json:"home_score"`
	AwayScore int         `json:"away_score"`
	Skipped   bool        `json:"skipped"`
}

type DayService interface {
	// AdvanceOneDay resolves every match due on the current date and moves
	// the clock forward by exactly one day.
	AdvanceOneDay(ctx context.Context, saveID uuid.UUID) (*DaySummary, error)
	// Advance is AdvanceOneDay followed by the season transition when the
	// processed day closed the season.
	Advance(ctx context.Context, saveID uuid.UUID) (*AdvanceResult, error)
	// Run advances the save every interval until ctx is done.
	Run(ctx context.Context, saveID uuid.UUID, interval time.Duration)
}

type dayService struct {
	db         *sql.DB
	clockRepo  repositories.ClockRepository
	seasonRepo repositories.SeasonRepository
	matchRepo  repositories.MatchRepository
	matches    MatchService
	finance    FinanceService
	seasons    SeasonService
	locks      *SaveLocks
	rand       *RandSource
	notifier   Notifier
	cfg        SimulationConfig
	logger     logrus.FieldLogger
}

func NewDayService(
	db *sql.DB,
	clockRepo repositories.ClockRepository,
	seasonRepo repositories.SeasonRepository,
	matchRepo repositories.MatchRepository,
	matches MatchService,
	finance FinanceService,
	seasons SeasonService,
	locks *SaveLocks,
	randSource *RandSource,
	notifier Notifier,
	cfg SimulationConfig,
	logger logrus.FieldLogger,
) DayService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &dayService{
		db:         db,
		clockRepo:  clockRepo,
		seasonRepo: seasonRepo,
		matchRepo:  matchRepo,
		matches:    matches,
		finance:    finance,
		seasons:    seasons,
		locks:      locks,
		rand:       randSource,
		notifier:   notifier,
		cfg:        cfg.withDefaults(),
		logger:     logger,
	}
}

func (s *dayService) AdvanceOneDay(ctx context.Context, saveID uuid.UUID) (*DaySummary, error) {
	unlock, ok := s.locks.TryLock(saveID)
	if !ok {
		return nil, ErrDayAdvanceInProgress
	}
	defer unlock()

	clock, err := s.clockRepo.Get(ctx, nil, saveID)
	if err != nil {
		return nil, fmt.Errorf("failed to read game clock: %w", err)
	}
	season, err := s.seasonRepo.GetByID(ctx, nil, clock.SeasonID)
	if err != nil {
		if errors.Is(err, repositories.ErrSeasonNotFound) {
			return nil, ErrNoActiveSeason
		}
		return nil, fmt.Errorf("failed to read season %d: %w", clock.SeasonID, err)
	}

	today := clock.CurrentDate
	log := s.logger.WithFields(logrus.Fields{
		"save_id":   saveID,
		"season_id": season.ID,
		"date":      today.String(),
	})

	due, err := s.matchRepo.ListDue(ctx, nil, season.ID, today)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches due on %s: %w", today, err)
	}

	summary := &DaySummary{
		SaveID:       saveID,
		SeasonID:     season.ID,
		PreviousDate: today,
		NewDate:      today.AddDays(1),
		Skipped:      []SkippedMatch{},
		Failed:       []FailedMatch{},
	}

	s.playDay(ctx, saveID, due, summary, log)

	err = withTx(ctx, s.db, log, func(tx *sql.Tx) error {
		if summary.NewDate.Day() == 1 {
			if _, err := s.finance.ProcessMonthly(ctx, tx, summary.NewDate, s.rand.For("monthly", saveID, summary.NewDate)); err != nil {
				return err
			}
		}
		return s.clockRepo.Advance(ctx, tx, saveID, today, summary.NewDate)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to advance clock from %s: %w", today, err)
	}

	summary.SeasonEndReached = !today.Before(season.EndDate)

	log.WithFields(logrus.Fields{
		"played":   summary.MatchesPlayed,
		"skipped":  len(summary.Skipped),
		"failed":   len(summary.Failed),
		"new_date": summary.NewDate.String(),
	}).Info("Day advanced")
	s.notifier.BroadcastToRoom(SaveRoom(saveID), Notification{Type: MessageDayAdvanced, Payload: summary})
	return summary, nil
}

// playDay resolves the due matches on a bounded worker pool and applies the
// results from this goroutine alone, so only one writer ever touches the
// store. Results are applied in due order: an overdue match of a club must
// reach the standings before that club's later matches.
func (s *dayService) playDay(ctx context.Context, saveID uuid.UUID, due []*models.Match, summary *DaySummary, log logrus.FieldLogger) {
	if len(due) == 0 {
		return
	}

	type indexed struct {
		index  int
		result *MatchResult
	}
	results := make(chan indexed, len(due))
	var g errgroup.Group
	g.SetLimit(s.cfg.Workers)
	go func() {
		for i, m := range due {
			i, m := i, m
			g.Go(func() error {
				results <- indexed{index: i, result: s.resolve(ctx, m, log)}
				return nil
			})
		}
		_ = g.Wait()
		close(results)
	}()

	ready := make([]*MatchResult, len(due))
	next := 0
	for r := range results {
		ready[r.index] = r.result
		for next < len(ready) && ready[next] != nil {
			s.apply(ctx, saveID, ready[next], summary, log)
			ready[next] = nil
			next++
		}
	}
}

func (s *dayService) apply(ctx context.Context, saveID uuid.UUID, result *MatchResult, summary *DaySummary, log logrus.FieldLogger) {
	matchLog := log.WithField("match_id", result.Match.ID)
	err := withTx(ctx, s.db, matchLog, func(tx *sql.Tx) error {
		return s.matches.Apply(ctx, tx, result)
	})
	if err != nil {
		matchLog.WithError(err).Error("Failed to apply match result")
		summary.Failed = append(summary.Failed, FailedMatch{MatchID: result.Match.ID, Error: err.Error()})
		return
	}

	if result.Skipped {
		summary.Skipped = append(summary.Skipped, SkippedMatch{MatchID: result.Match.ID, Reason: result.SkipReason})
	} else {
		summary.MatchesPlayed++
	}
	s.notifier.BroadcastToRoom(SaveRoom(saveID), Notification{
		Type: MessageMatchPlayed,
		Payload: MatchPlayedPayload{
			MatchID:   result.Match.ID,
			Date:      result.Match.MatchDate,
			HomeClub:  result.Match.HomeClubID,
			AwayClub:  result.Match.AwayClubID,
			HomeScore: result.HomeScore,
			AwayScore: result.AwayScore,
			Skipped:   result.Skipped,
		},
	})
}

type resolution struct {
	result *MatchResult
	err    error
}

// resolve simulates one match within the configured deadline. Errors,
// panics and timeouts all turn into a placeholder result.
func (s *dayService) resolve(ctx context.Context, match *models.Match, log logrus.FieldLogger) *MatchResult {
	mctx, cancel := context.WithTimeout(ctx, s.cfg.MatchTimeout)
	defer cancel()

	done := make(chan resolution, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- resolution{err: fmt.Errorf("simulation panicked: %v", p)}
			}
		}()
		result, err := s.matches.Resolve(mctx, match, s.rand.For("match", match.ID))
		done <- resolution{result: result, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			log.WithError(res.err).WithField("match_id", match.ID).Error("Match simulation failed, recording placeholder")
			return s.matches.Placeholder(match, res.err.Error())
		}
		return res.result
	case <-mctx.Done():
		log.WithField("match_id", match.ID).Warn("Match simulation timed out, recording placeholder")
		return s.matches.Placeholder(match, "simulation timed out")
	}
}

func (s *dayService) Advance(ctx context.Context, saveID uuid.UUID) (*AdvanceResult, error) {
	summary, err := s.AdvanceOneDay(ctx, saveID)
	if err != nil {
		return nil, err
	}
	result := &AdvanceResult{Day: summary}
	if !summary.SeasonEndReached {
		return result, nil
	}

	report, err := s.seasons.ProcessSeasonEnd(ctx, saveID)
	if err != nil {
		return result, err
	}
	result.Transition = report
	return result, nil
}

func (s *dayService) Run(ctx context.Context, saveID uuid.UUID, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log := s.logger.WithField("save_id", saveID)
	log.WithField("interval", interval.String()).Info("Automatic day advance started")
	for {
		select {
		case <-ctx.Done():
			log.Info("Automatic day advance stopped")
			return
		case <-ticker.C:
			if _, err := s.Advance(ctx, saveID); err != nil {
				if errors.Is(err, ErrDayAdvanceInProgress) {
					log.Debug("Previous day still in progress, skipping tick")
					continue
				}
				log.WithError(err).Error("Automatic day advance failed")
			}
		}
	}
}
