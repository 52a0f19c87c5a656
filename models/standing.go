package models

// StandingRow is a club's league table snapshot after a given match day.
type StandingRow struct {
	ID             int64 `json:"id" db:"id"`
	CompetitionID  int64 `json:"competition_id" db:"competition_id"`
	SeasonID       int64 `json:"season_id" db:"season_id"`
	ClubID         int64 `json:"club_id" db:"club_id"`
	MatchDay       int   `json:"match_day" db:"match_day"`
	Played         int   `json:"played" db:"played"`
	Wins           int   `json:"wins" db:"wins"`
	Draws          int   `json:"draws" db:"draws"`
	Losses         int   `json:"losses" db:"losses"`
	GoalsFor       int   `json:"goals_for" db:"goals_for"`
	GoalsAgainst   int   `json:"goals_against" db:"goals_against"`
	GoalDifference int   `json:"goal_difference" db:"goal_difference"`
	Points         int   `json:"points" db:"points"`
	Position       int   `json:"position" db:"position"`

	ClubName string `json:"club_name,omitempty" db:"-"`
}

const (
	PointsForWin  = 3
	PointsForDraw = 1
)

// Record adds one result to the row and keeps the derived columns in sync.
func (s *StandingRow) Record(goalsFor, goalsAgainst int) {
	s.Played++
	s.GoalsFor += goalsFor
	s.GoalsAgainst += goalsAgainst
	switch {
	case goalsFor > goalsAgainst:
		s.Wins++
	case goalsFor == goalsAgainst:
		s.Draws++
	default:
		s.Losses++
	}
	s.GoalDifference = s.GoalsFor - s.GoalsAgainst
	s.Points = s.Wins*PointsForWin + s.Draws*PointsForDraw
}

// RanksAbove reports whether s is placed higher than o in the table:
// points, then goal difference, then goals for, then lower club id.
func (s *StandingRow) RanksAbove(o *StandingRow) bool {
	if s.Points != o.Points {
		return s.Points > o.Points
	}
	if s.GoalDifference != o.GoalDifference {
		return s.GoalDifference > o.GoalDifference
	}
	if s.GoalsFor != o.GoalsFor {
		return s.GoalsFor > o.GoalsFor
	}
	return s.ClubID < o.ClubID
}
