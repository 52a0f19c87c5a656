package models

type CompetitionType string

const (
	CompetitionLeague      CompetitionType = "league"
	CompetitionCup         CompetitionType = "cup"
	CompetitionCombination CompetitionType = "combination"
)

func (t CompetitionType) IsValid() bool {
	switch t {
	case CompetitionLeague, CompetitionCup, CompetitionCombination:
		return true
	}
	return false
}

type Competition struct {
	ID       int64           `json:"id" db:"id"`
	Name     string          `json:"name" db:"name"`
	Type     CompetitionType `json:"type" db:"type"`
	NationID *int64          `json:"nation_id,omitempty" db:"nation_id"`
}

// Stage names with special meaning.
const (
	StageLeague = "League Stage"
	StageFinal  = "final"
)

type CompetitionStage struct {
	ID            int64  `json:"id" db:"id"`
	CompetitionID int64  `json:"competition_id" db:"competition_id"`
	SeasonID      int64  `json:"season_id" db:"season_id"`
	Name          string `json:"name" db:"name"`
	StageOrder    int    `json:"stage_order" db:"stage_order"`
	NumberOfLegs  int    `json:"number_of_legs" db:"number_of_legs"`
}

type Nation struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

type Club struct {
	ID              int64  `json:"id" db:"id"`
	Name            string `json:"name" db:"name"`
	NationID        int64  `json:"nation_id" db:"nation_id"`
	Reputation      int    `json:"reputation" db:"reputation"`
	StadiumCapacity int    `json:"stadium_capacity" db:"stadium_capacity"`
}
