package scheduler

import (
	"context"
	"errors"

	"github.com/Dosada05/matchday/models"
)

var ErrNotEnoughClubs = errors.New("at least two clubs are required to generate fixtures")

// DefaultRoundInterval is the number of days between consecutive rounds.
const DefaultRoundInterval = 7

type GenerateFixturesParams struct {
	ClubIDs       []int64
	StartDate     models.Date
	RoundInterval int
}

// Fixture is one generated pairing. LegNumber is the round number within the
// whole schedule, so the second leg continues after the first.
type Fixture struct {
	LegNumber  int
	MatchDate  models.Date
	HomeClubID int64
	AwayClubID int64
}

type FixtureGenerator interface {
	GenerateFixtures(ctx context.Context, params GenerateFixturesParams) ([]*Fixture, error)

	GetName() string
}
