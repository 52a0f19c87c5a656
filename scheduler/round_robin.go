package scheduler

import (
	"context"
	"fmt"
)

// bye marks the phantom opponent added when the club count is odd.
const bye int64 = -1

type DoubleRoundRobinGenerator struct{}

func NewDoubleRoundRobinGenerator() FixtureGenerator {
	return &DoubleRoundRobinGenerator{}
}

func (g *DoubleRoundRobinGenerator) GetName() string {
	return "DoubleRoundRobin"
}

// GenerateFixtures builds a home-and-away schedule with the circle method.
// Club 0 stays fixed while the rest rotate one slot per round. The second leg
// replays the same rotation with home and away swapped, and its dates keep
// advancing from where the first leg stopped. Pairings against the bye are
// dropped, so with an odd club count one club rests each round.
func (g *DoubleRoundRobinGenerator) GenerateFixtures(ctx context.Context, params GenerateFixturesParams) ([]*Fixture, error) {
	if len(params.ClubIDs) < 2 {
		return nil, fmt.Errorf("DoubleRoundRobinGenerator: %w (found %d)", ErrNotEnoughClubs, len(params.ClubIDs))
	}

	interval := params.RoundInterval
	if interval <= 0 {
		interval = DefaultRoundInterval
	}

	slots := make([]int64, len(params.ClubIDs), len(params.ClubIDs)+1)
	copy(slots, params.ClubIDs)
	if len(slots)%2 == 1 {
		slots = append(slots, bye)
	}

	n := len(slots)
	roundsPerLeg := n - 1
	fixtures := make([]*Fixture, 0, len(params.ClubIDs)*(len(params.ClubIDs)-1))
	date := params.StartDate

	for leg := 0; leg < 2; leg++ {
		for round := 1; round <= roundsPerLeg; round++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			for i := 0; i < n/2; i++ {
				home, away := slots[i], slots[n-1-i]
				if home == bye || away == bye {
					continue
				}
				if leg == 1 {
					home, away = away, home
				}
				fixtures = append(fixtures, &Fixture{
					LegNumber:  round + leg*roundsPerLeg,
					MatchDate:  date,
					HomeClubID: home,
					AwayClubID: away,
				})
			}
			rotate(slots)
			date = date.AddDays(interval)
		}
	}

	return fixtures, nil
}

// rotate keeps slots[0] fixed and moves the last slot to index 1.
func rotate(slots []int64) {
	last := slots[len(slots)-1]
	copy(slots[2:], slots[1:len(slots)-1])
	slots[1] = last
}

// Rounds returns how many distinct match dates a schedule for clubCount clubs spans.
func Rounds(clubCount int) int {
	if clubCount < 2 {
		return 0
	}
	if clubCount%2 == 1 {
		clubCount++
	}
	return 2 * (clubCount - 1)
}
