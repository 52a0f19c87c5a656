package services

import (
	"errors"
	"fmt"
)

// Ошибки сервисного слоя. Repository sentinels are passed through wrapped,
// so errors.Is works against both layers.
var (
	ErrNotFound = errors.New("requested resource not found")

	ErrNoActiveSeason        = errors.New("no active season for save")
	ErrSeasonAlreadyFinished = errors.New("season is already finished")
	ErrSeasonNotOver         = errors.New("season end date has not been reached")
	ErrDayAdvanceInProgress  = errors.New("day advance already in progress for this save")
	ErrInsufficientClubs     = errors.New("competition has fewer than 2 eligible clubs")
	ErrMatchAlreadyPlayed    = errors.New("match has already been played")
	ErrInvalidSeasonDates    = errors.New("season end date must be after start date")
	ErrTransactionRequired   = errors.New("database transaction is required for this operation")
)

// TransitionError reports the step of a season transition that failed. The
// whole transition was rolled back when it is returned.
type TransitionError struct {
	SeasonID int64
	Step     string
	Err      error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("season %d transition failed at %s: %v", e.SeasonID, e.Step, e.Err)
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}

// StandingsError reports a failed standings update for a match. No standings
// row of that match is persisted when it is returned.
type StandingsError struct {
	MatchID int64
	Err     error
}

func (e *StandingsError) Error() string {
	return fmt.Sprintf("standings update for match %d failed: %v", e.MatchID, e.Err)
}

func (e *StandingsError) Unwrap() error {
	return e.Err
}
