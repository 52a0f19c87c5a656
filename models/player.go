package models

import "github.com/shopspring/decimal"

// Player positions.
const (
	PositionGK  = "GK"
	PositionCB  = "CB"
	PositionLB  = "LB"
	PositionRB  = "RB"
	PositionLWB = "LWB"
	PositionRWB = "RWB"
	PositionCDM = "CDM"
	PositionCM  = "CM"
	PositionCAM = "CAM"
	PositionLM  = "LM"
	PositionRM  = "RM"
	PositionLW  = "LW"
	PositionRW  = "RW"
	PositionCF  = "CF"
	PositionST  = "ST"
)

// Attribute names, each rated 1-20.
const (
	AttrFinishing   = "finishing"
	AttrDribbling   = "dribbling"
	AttrPassing     = "passing"
	AttrVision      = "vision"
	AttrPace        = "pace"
	AttrTackling    = "tackling"
	AttrMarking     = "marking"
	AttrStrength    = "strength"
	AttrComposure   = "composure"
	AttrGoalkeeping = "goalkeeping"
	AttrDiscipline  = "discipline"
)

type Player struct {
	ID         int64          `json:"id" db:"id"`
	FirstName  string         `json:"first_name" db:"first_name"`
	LastName   string         `json:"last_name" db:"last_name"`
	BirthDate  Date           `json:"birth_date" db:"birth_date"`
	NationID   *int64         `json:"nation_id,omitempty" db:"nation_id"`
	Position   string         `json:"position" db:"position"`
	Overall    int            `json:"overall" db:"overall"`
	Potential  int            `json:"potential" db:"potential"`
	Attributes map[string]int `json:"attributes,omitempty" db:"-"`
}

func (p *Player) FullName() string {
	return p.FirstName + " " + p.LastName
}

type PlayerContract struct {
	ID        int64           `json:"id" db:"id"`
	PlayerID  int64           `json:"player_id" db:"player_id"`
	ClubID    int64           `json:"club_id" db:"club_id"`
	StartDate Date            `json:"start_date" db:"start_date"`
	EndDate   Date            `json:"end_date" db:"end_date"`
	Salary    decimal.Decimal `json:"salary" db:"salary"`
}

type StaffMember struct {
	ID        int64  `json:"id" db:"id"`
	FirstName string `json:"first_name" db:"first_name"`
	LastName  string `json:"last_name" db:"last_name"`
	BirthDate Date   `json:"birth_date" db:"birth_date"`
	Role      string `json:"role" db:"role"`
}

type StaffContract struct {
	ID        int64           `json:"id" db:"id"`
	StaffID   int64           `json:"staff_id" db:"staff_id"`
	ClubID    int64           `json:"club_id" db:"club_id"`
	StartDate Date            `json:"start_date" db:"start_date"`
	EndDate   Date            `json:"end_date" db:"end_date"`
	Salary    decimal.Decimal `json:"salary" db:"salary"`
}

// ExpiringContract is a contract ending on a given date joined with the
// person data needed to decide its outcome.
type ExpiringContract struct {
	ContractID int64
	PersonID   int64
	ClubID     int64
	Name       string
	BirthDate  Date
	Overall    int
}
