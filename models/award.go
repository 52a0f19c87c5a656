package models

type AwardType string

const (
	AwardGoldenBoot            AwardType = "golden_boot"
	AwardBestPlayer            AwardType = "best_player"
	AwardBestGoalkeeper        AwardType = "best_goalkeeper"
	AwardBestPlayerCompetition AwardType = "best_player_competition"
	AwardTopScorerCompetition  AwardType = "top_scorer_competition"
	AwardTeamOfTheYear         AwardType = "team_of_the_year"
)

// Award is an individual honour. CompetitionID is zero for season-wide awards.
type Award struct {
	ID            int64     `json:"id" db:"id"`
	PlayerID      int64     `json:"player_id" db:"player_id"`
	Type          AwardType `json:"award_type" db:"award_type"`
	SeasonID      int64     `json:"season_id" db:"season_id"`
	CompetitionID int64     `json:"competition_id" db:"competition_id"`
	AwardDate     Date      `json:"award_date" db:"award_date"`
	Value         float64   `json:"value" db:"value"`
}

type Trophy struct {
	ID            int64 `json:"id" db:"id"`
	ClubID        int64 `json:"club_id" db:"club_id"`
	CompetitionID int64 `json:"competition_id" db:"competition_id"`
	SeasonID      int64 `json:"season_id" db:"season_id"`
	DateWon       Date  `json:"date_won" db:"date_won"`
}

type TeamOfTheYearSelection struct {
	SeasonID  int64   `json:"season_id" db:"season_id"`
	PlayerID  int64   `json:"player_id" db:"player_id"`
	Position  string  `json:"position" db:"position"`
	AvgRating float64 `json:"avg_rating" db:"avg_rating"`
}

// PlayerSeasonStat is an aggregate over a player's matches in a season.
type PlayerSeasonStat struct {
	PlayerID  int64   `json:"player_id"`
	Position  string  `json:"position"`
	Matches   int     `json:"matches"`
	Goals     int     `json:"goals"`
	AvgRating float64 `json:"avg_rating"`
}
