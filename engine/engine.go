package engine

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/Dosada05/matchday/models"
)

// Outcome is everything a simulated match produced. MatchID fields on stats
// and events are left zero for the caller to fill in.
type Outcome struct {
	HomeScore          int                      `json:"home_score"`
	AwayScore          int                      `json:"away_score"`
	HomeStrength       TeamStrength             `json:"home_strength"`
	AwayStrength       TeamStrength             `json:"away_strength"`
	Stats              []models.PlayerMatchStat `json:"stats"`
	Events             []models.MatchEvent      `json:"events"`
	MOTM               []int64                  `json:"motm"`
	InsufficientLineup bool                     `json:"insufficient_lineup"`
}

// Log renders the event list as human readable lines.
func (o *Outcome) Log() []string {
	lines := make([]string, 0, len(o.Events))
	for _, ev := range o.Events {
		lines = append(lines, fmt.Sprintf("%d' %s", ev.Minute, ev.Details))
	}
	return lines
}

// Engine simulates matches. It holds no mutable state, so one Engine can
// serve many goroutines as long as each passes its own *rand.Rand.
type Engine struct {
	cfg Config
}

func New(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

func (e *Engine) Config() Config {
	return e.cfg
}

type playerLine struct {
	profile PlayerProfile
	side    *Side
	stat    *models.PlayerMatchStat
}

type simulation struct {
	cfg    Config
	rng    *rand.Rand
	home   []*playerLine
	away   []*playerLine
	events []models.MatchEvent
}

// Simulate plays home against away. If either side fields fewer than
// LineupSize players the match ends 0-0 with InsufficientLineup set.
func (e *Engine) Simulate(home, away Side, rng *rand.Rand) *Outcome {
	if !home.Complete(e.cfg.LineupSize) || !away.Complete(e.cfg.LineupSize) {
		return e.insufficient(home, away)
	}

	homeStrength := e.cfg.Strength(home.Players)
	awayStrength := e.cfg.Strength(away.Players)
	homeGoals := poisson(rng, e.cfg.ExpectedGoals(homeStrength.Attack, awayStrength.Defense, e.cfg.HomeAdvantage))
	awayGoals := poisson(rng, e.cfg.ExpectedGoals(awayStrength.Attack, homeStrength.Defense, 0))

	sim := &simulation{
		cfg:  e.cfg,
		rng:  rng,
		home: newLines(&home),
		away: newLines(&away),
	}

	sim.attributeGoals(sim.home, homeGoals)
	sim.attributeGoals(sim.away, awayGoals)
	sim.deriveCounters(sim.home, awayGoals)
	sim.deriveCounters(sim.away, homeGoals)

	stats := make([]models.PlayerMatchStat, 0, len(sim.home)+len(sim.away))
	for _, line := range append(append([]*playerLine{}, sim.home...), sim.away...) {
		stats = append(stats, *line.stat)
	}
	motm := pickMOTM(stats, e.cfg.MOTMCount)

	sort.SliceStable(sim.events, func(i, j int) bool {
		return sim.events[i].Minute < sim.events[j].Minute
	})
	events := make([]models.MatchEvent, 0, len(sim.events)+2)
	events = append(events, models.MatchEvent{
		Minute:  0,
		Type:    models.EventKickoff,
		Details: fmt.Sprintf("Kick-off: %s vs %s", home.Name, away.Name),
	})
	events = append(events, sim.events...)
	events = append(events, models.MatchEvent{
		Minute:  e.cfg.MatchLength,
		Type:    models.EventFullTime,
		Details: fmt.Sprintf("Full time: %s %d-%d %s", home.Name, homeGoals, awayGoals, away.Name),
	})

	return &Outcome{
		HomeScore:    homeGoals,
		AwayScore:    awayGoals,
		HomeStrength: homeStrength,
		AwayStrength: awayStrength,
		Stats:        stats,
		Events:       events,
		MOTM:         motm,
	}
}

func (e *Engine) insufficient(home, away Side) *Outcome {
	return &Outcome{
		InsufficientLineup: true,
		Events: []models.MatchEvent{{
			Minute: 0,
			Type:   models.EventMatchSkipped,
			Details: fmt.Sprintf("Insufficient lineup (%s %d, %s %d of %d players), recorded as 0-0",
				home.Name, len(home.Players), away.Name, len(away.Players), e.cfg.LineupSize),
		}},
	}
}

func newLines(side *Side) []*playerLine {
	lines := make([]*playerLine, 0, len(side.Players))
	for _, p := range side.Players {
		lines = append(lines, &playerLine{
			profile: p,
			side:    side,
			stat: &models.PlayerMatchStat{
				PlayerID: p.PlayerID,
				ClubID:   side.ClubID,
				Position: p.Position,
			},
		})
	}
	return lines
}

func (s *simulation) minute() int {
	return 1 + s.rng.Intn(s.cfg.MatchLength)
}

func (s *simulation) uniform(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}

func (s *simulation) event(minute int, typ models.EventType, line *playerLine, details string) {
	playerID := line.profile.PlayerID
	clubID := line.side.ClubID
	s.events = append(s.events, models.MatchEvent{
		Minute:   minute,
		Type:     typ,
		PlayerID: &playerID,
		ClubID:   &clubID,
		Details:  details,
	})
}

// attributeGoals credits each goal to a scorer and, most of the time, a
// different teammate as assister.
func (s *simulation) attributeGoals(lines []*playerLine, goals int) {
	goalWeights := make([]float64, len(lines))
	assistWeights := make([]float64, len(lines))
	for i, line := range lines {
		p := line.profile
		finishing := float64(p.Attr(models.AttrFinishing, 1)) / 20
		creativity := float64(p.Attr(models.AttrPassing, 1)+p.Attr(models.AttrVision, 1)) / 40
		goalWeights[i] = s.cfg.GoalPropensity[p.Position] * finishing * float64(p.Overall) / 100
		assistWeights[i] = s.cfg.AssistPropensity[p.Position] * creativity * float64(p.Overall) / 100
	}

	for g := 0; g < goals; g++ {
		scorerIdx := weightedPick(s.rng, goalWeights, -1)
		scorer := lines[scorerIdx]
		scorer.stat.Goals++

		details := fmt.Sprintf("GOAL! %s scores for %s", scorer.profile.Name, scorer.side.Name)
		if s.rng.Float64() < s.cfg.AssistProbability && len(lines) > 1 {
			assisterIdx := weightedPick(s.rng, assistWeights, scorerIdx)
			assister := lines[assisterIdx]
			assister.stat.Assists++
			details += fmt.Sprintf(" (assist: %s)", assister.profile.Name)
		}
		s.event(s.minute(), models.EventGoal, scorer, details)
	}
}

// weightedPick draws an index proportionally to weights, never returning
// exclude. When every candidate weight is zero it falls back to a uniform draw.
func weightedPick(rng *rand.Rand, weights []float64, exclude int) int {
	var total float64
	for i, w := range weights {
		if i != exclude {
			total += w
		}
	}

	if total <= 0 {
		candidates := make([]int, 0, len(weights))
		for i := range weights {
			if i != exclude {
				candidates = append(candidates, i)
			}
		}
		return candidates[rng.Intn(len(candidates))]
	}

	r := rng.Float64() * total
	last := -1
	for i, w := range weights {
		if i == exclude || w <= 0 {
			continue
		}
		last = i
		if r < w {
			return i
		}
		r -= w
	}
	return last
}

func (s *simulation) deriveCounters(lines []*playerLine, goalsAgainst int) {
	for _, line := range lines {
		p := line.profile
		st := line.stat
		cat := s.cfg.category(p.Position)

		finishing := p.Attr(models.AttrFinishing, 1)
		vision := p.Attr(models.AttrVision, 1)
		passing := p.Attr(models.AttrPassing, 1)
		tackling := p.Attr(models.AttrTackling, 1)
		marking := p.Attr(models.AttrMarking, 1)
		discipline := p.Attr(models.AttrDiscipline, 10)

		threat := float64(finishing+vision) / 40
		defending := float64(tackling+marking) / 40

		switch cat {
		case CategoryAttack:
			st.Shots = int(math.Round(threat * s.uniform(1, 5)))
			st.Tackles = int(math.Round(s.uniform(0, 1.5)))
			st.Interceptions = int(math.Round(s.uniform(0, 1)))
			st.Passes = int(math.Round(float64(passing) * s.uniform(1, 2)))
		case CategoryMidfield:
			st.Shots = int(math.Round(threat * s.uniform(0, 3)))
			st.Tackles = int(math.Round(defending * s.uniform(1, 4)))
			st.Interceptions = int(math.Round(float64(marking+vision) / 40 * s.uniform(0.5, 3)))
			st.Passes = int(math.Round(float64(passing) * s.uniform(2, 3.5)))
		case CategoryDefense:
			st.Shots = int(math.Round(threat * s.uniform(0, 1)))
			st.Tackles = int(math.Round(defending * s.uniform(1, 5)))
			st.Interceptions = int(math.Round(float64(marking+vision) / 40 * s.uniform(1, 4)))
			st.Defenses = int(math.Round(s.uniform(0, 2)))
			st.Passes = int(math.Round(float64(passing) * s.uniform(1.5, 3)))
		case CategoryGoalkeeper:
			st.Defenses = int(math.Round(float64(p.Attr(models.AttrGoalkeeping, 1)) / 20 * s.uniform(1, 6)))
			st.Passes = int(math.Round(float64(passing) * s.uniform(0.5, 1.5)))
		}

		st.ShotsOnTarget = int(math.Round(float64(st.Shots) * s.uniform(0.3, 0.7)))
		if st.ShotsOnTarget < st.Goals {
			st.ShotsOnTarget = st.Goals
		}
		if st.Shots < st.ShotsOnTarget {
			st.Shots = st.ShotsOnTarget
		}

		if cat != CategoryGoalkeeper {
			st.Fouls = s.rng.Intn(3) + (20-discipline)/8
			if st.Fouls < 0 {
				st.Fouls = 0
			}
		}

		s.discipline(line, discipline)
		s.injury(line)
		if cat == CategoryGoalkeeper && st.Defenses > 0 {
			s.event(s.minute(), models.EventGoalkeeperSave, line,
				fmt.Sprintf("%s made %d saves", p.Name, st.Defenses))
		}

		st.Rating = s.rating(line, cat, goalsAgainst)
	}
}

// discipline draws cards. A red is only possible once a yellow was shown.
func (s *simulation) discipline(line *playerLine, discipline int) {
	st := line.stat
	indiscipline := float64(20 - discipline)
	yellow := s.cfg.YellowCardBase + s.cfg.YellowCardPerFoul*float64(st.Fouls) + s.cfg.YellowCardDiscipline*indiscipline
	if s.rng.Float64() >= yellow {
		return
	}
	st.YellowCards = 1
	s.event(s.minute(), models.EventYellowCard, line, fmt.Sprintf("Yellow card for %s", line.profile.Name))

	red := s.cfg.RedCardBase + s.cfg.RedCardPerFoul*float64(st.Fouls) + s.cfg.RedCardDiscipline*indiscipline
	if s.rng.Float64() < red {
		st.RedCards = 1
		s.event(s.minute(), models.EventRedCard, line, fmt.Sprintf("Red card! %s is sent off", line.profile.Name))
	}
}

func (s *simulation) injury(line *playerLine) {
	chance := s.cfg.InjuryBase + s.cfg.InjuryPerOverall*float64(100-line.profile.Overall)
	if s.rng.Float64() < chance {
		s.event(s.minute(), models.EventInjury, line, fmt.Sprintf("%s picks up an injury", line.profile.Name))
	}
}

func (s *simulation) rating(line *playerLine, cat PositionCategory, goalsAgainst int) float64 {
	st := line.stat
	r := 6.0 + float64(line.profile.Overall-60)/20
	r += 0.8*float64(st.Goals) + 0.5*float64(st.Assists)
	r += 0.1*float64(st.Tackles+st.Interceptions) + 0.15*float64(st.Defenses)
	r += float64(st.Passes) / 50 * 0.3
	r += 0.1 * float64(st.ShotsOnTarget)
	r -= 0.5*float64(st.YellowCards) + 1.5*float64(st.RedCards)

	if cat == CategoryGoalkeeper || cat == CategoryDefense {
		if goalsAgainst == 0 {
			r += 0.5
		} else {
			r -= 0.15 * float64(goalsAgainst)
		}
	}
	r += s.uniform(-0.3, 0.3)

	r = math.Round(r*10) / 10
	return math.Min(s.cfg.MaxRating, math.Max(s.cfg.MinRating, r))
}

// pickMOTM marks the n best rated players, preferring goals then lower id on ties.
func pickMOTM(stats []models.PlayerMatchStat, n int) []int64 {
	if n <= 0 || len(stats) == 0 {
		return nil
	}
	idx := make([]int, len(stats))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		sa, sb := stats[idx[a]], stats[idx[b]]
		if sa.Rating != sb.Rating {
			return sa.Rating > sb.Rating
		}
		if sa.Goals != sb.Goals {
			return sa.Goals > sb.Goals
		}
		return sa.PlayerID < sb.PlayerID
	})
	if n > len(idx) {
		n = len(idx)
	}

	motm := make([]int64, 0, n)
	for _, i := range idx[:n] {
		stats[i].IsMOTM = true
		motm = append(motm, stats[i].PlayerID)
	}
	return motm
}
