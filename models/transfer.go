package models

type PersonType string

const (
	PersonPlayer PersonType = "player"
	PersonStaff  PersonType = "staff"
)

type TransferType string

const (
	TransferRetirement   TransferType = "retirement"
	TransferFreeTransfer TransferType = "free_transfer"
	TransferRelease      TransferType = "release"
)

type Transfer struct {
	ID           int64        `json:"id" db:"id"`
	PersonType   PersonType   `json:"person_type" db:"person_type"`
	PersonID     int64        `json:"person_id" db:"person_id"`
	FromClubID   *int64       `json:"from_club_id,omitempty" db:"from_club_id"`
	ToClubID     *int64       `json:"to_club_id,omitempty" db:"to_club_id"`
	Type         TransferType `json:"transfer_type" db:"transfer_type"`
	TransferDate Date         `json:"transfer_date" db:"transfer_date"`
	Status       string       `json:"status" db:"status"`
	Description  string       `json:"description" db:"description"`
}

const TransferStatusCompleted = "completed"
