package models

import "github.com/google/uuid"

type SeasonStatus string

const (
	SeasonStatusInProgress SeasonStatus = "in_progress"
	SeasonStatusFinished   SeasonStatus = "finished"
)

type Season struct {
	ID        int64        `json:"id" db:"id"`
	SaveID    uuid.UUID    `json:"save_id" db:"save_id"`
	StartDate Date         `json:"start_date" db:"start_date"`
	EndDate   Date         `json:"end_date" db:"end_date"`
	Status    SeasonStatus `json:"status" db:"status"`
}

// Contains reports whether d falls within the season, bounds included.
func (s *Season) Contains(d Date) bool {
	return !d.Before(s.StartDate) && !d.After(s.EndDate)
}

// GameClock is the in-game date of one save.
type GameClock struct {
	SaveID      uuid.UUID `json:"save_id" db:"save_id"`
	CurrentDate Date      `json:"current_date" db:"clock_date"`
	SeasonID    int64     `json:"season_id" db:"season_id"`
}

// Save identifies one independent game world stored in a database file.
type Save struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	ClubID    *int64    `json:"club_id,omitempty" db:"club_id"`
	CreatedAt Date      `json:"created_at" db:"created_at"`
}

type TransferWindow struct {
	ID        int64  `json:"id" db:"id"`
	SeasonID  int64  `json:"season_id" db:"season_id"`
	Name      string `json:"name" db:"name"`
	StartDate Date   `json:"start_date" db:"start_date"`
	EndDate   Date   `json:"end_date" db:"end_date"`
}

const (
	TransferWindowSummer = "summer"
	TransferWindowWinter = "winter"
)
