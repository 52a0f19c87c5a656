package models

type MatchStatus string

const (
	MatchStatusScheduled MatchStatus = "scheduled"
	MatchStatusPlayed    MatchStatus = "played"
)

type Match struct {
	ID            int64       `json:"id" db:"id"`
	CompetitionID int64       `json:"competition_id" db:"competition_id"`
	SeasonID      int64       `json:"season_id" db:"season_id"`
	StageID       int64       `json:"stage_id" db:"stage_id"`
	HomeClubID    int64       `json:"home_club_id" db:"home_club_id"`
	AwayClubID    int64       `json:"away_club_id" db:"away_club_id"`
	MatchDate     Date        `json:"match_date" db:"match_date"`
	LegNumber     int         `json:"leg_number" db:"leg_number"`
	Status        MatchStatus `json:"status" db:"status"`
	HomeScore     *int        `json:"home_score,omitempty" db:"home_score"`
	AwayScore     *int        `json:"away_score,omitempty" db:"away_score"`

	// Populated by joins, not stored on the match row.
	CompetitionType CompetitionType `json:"competition_type,omitempty" db:"-"`
	StageName       string          `json:"stage_name,omitempty" db:"-"`
}

func (m *Match) IsPlayed() bool {
	return m.Status == MatchStatusPlayed
}

// Involves reports whether the club plays in this match.
func (m *Match) Involves(clubID int64) bool {
	return m.HomeClubID == clubID || m.AwayClubID == clubID
}

type LineupEntry struct {
	MatchID   int64  `json:"match_id" db:"match_id"`
	ClubID    int64  `json:"club_id" db:"club_id"`
	PlayerID  int64  `json:"player_id" db:"player_id"`
	Position  string `json:"position" db:"position"`
	IsStarter bool   `json:"is_starter" db:"is_starter"`
	IsCaptain bool   `json:"is_captain" db:"is_captain"`
}

type EventType string

const (
	EventKickoff        EventType = "kickoff"
	EventGoal           EventType = "goal"
	EventYellowCard     EventType = "yellow_card"
	EventRedCard        EventType = "red_card"
	EventInjury         EventType = "injury"
	EventFullTime       EventType = "full_time"
	EventMatchSkipped   EventType = "match_skipped"
	EventShotOnTarget   EventType = "shot_on_target"
	EventGoalkeeperSave EventType = "goalkeeper_save"
)

type MatchEvent struct {
	ID       int64     `json:"id" db:"id"`
	MatchID  int64     `json:"match_id" db:"match_id"`
	Minute   int       `json:"minute" db:"minute"`
	Type     EventType `json:"event_type" db:"event_type"`
	PlayerID *int64    `json:"player_id,omitempty" db:"player_id"`
	ClubID   *int64    `json:"club_id,omitempty" db:"club_id"`
	Details  string    `json:"details" db:"details"`
}

type PlayerMatchStat struct {
	MatchID       int64   `json:"match_id" db:"match_id"`
	PlayerID      int64   `json:"player_id" db:"player_id"`
	ClubID        int64   `json:"club_id" db:"club_id"`
	Position      string  `json:"position" db:"position"`
	Rating        float64 `json:"rating" db:"rating"`
	Goals         int     `json:"goals" db:"goals"`
	Assists       int     `json:"assists" db:"assists"`
	Shots         int     `json:"shots" db:"shots"`
	ShotsOnTarget int     `json:"shots_on_target" db:"shots_on_target"`
	Passes        int     `json:"passes" db:"passes"`
	Tackles       int     `json:"tackles" db:"tackles"`
	Interceptions int     `json:"interceptions" db:"interceptions"`
	Defenses      int     `json:"defenses" db:"defenses"`
	Fouls         int     `json:"fouls" db:"fouls"`
	YellowCards   int     `json:"yellow_cards" db:"yellow_cards"`
	RedCards      int     `json:"red_cards" db:"red_cards"`
	IsMOTM        bool    `json:"is_motm" db:"is_motm"`
}
