package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/Dosada05/matchday/models"
	"github.com/Dosada05/matchday/services"
	"github.com/Dosada05/matchday/session"
)

// SessionManager is the part of session.Manager the HTTP layer needs.
type SessionManager interface {
	NewGame(ctx context.Context, path string, params session.NewGameParams) (*session.Session, *services.NewGameResult, error)
	Load(ctx context.Context, path string, saveID uuid.UUID) (*session.Session, error)
	Current() (*session.Session, error)
}

type SaveHandler struct {
	sessions SessionManager
}

func NewSaveHandler(sessions SessionManager) *SaveHandler {
	return &SaveHandler{sessions: sessions}
}

type worldInput struct {
	Nations        []string `json:"nations"`
	ClubsPerNation int      `json:"clubs_per_nation"`
	PlayersPerClub int      `json:"players_per_club"`
}

type newGameInput struct {
	Path      string      `json:"path"`
	Name      string      `json:"name"`
	ClubID    *int64      `json:"club_id"`
	StartDate models.Date `json:"start_date"`
	World     *worldInput `json:"world"`
}

// CreateHandler handles POST /saves.
func (h *SaveHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var input newGameInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Path == "" {
		badRequestResponse(w, r, errors.New("path is required"))
		return
	}
	if input.StartDate.IsZero() {
		badRequestResponse(w, r, errors.New("start_date is required"))
		return
	}

	params := session.NewGameParams{Name: input.Name, ClubID: input.ClubID, StartDate: input.StartDate}
	if input.World != nil {
		params.World = &services.WorldConfig{
			Nations:        input.World.Nations,
			ClubsPerNation: input.World.ClubsPerNation,
			PlayersPerClub: input.World.PlayersPerClub,
		}
	}

	s, game, err := h.sessions.NewGame(r.Context(), input.Path, params)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	resp := jsonResponse{
		"save_id":  s.ID,
		"save":     game.Save,
		"season":   game.Season,
		"clock":    game.Clock,
		"fixtures": game.Fixtures,
	}
	if err := writeJSON(w, http.StatusCreated, resp, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type loadInput struct {
	Path   string    `json:"path"`
	SaveID uuid.UUID `json:"save_id"`
}

// LoadHandler handles POST /saves/load.
func (h *SaveHandler) LoadHandler(w http.ResponseWriter, r *http.Request) {
	var input loadInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Path == "" {
		badRequestResponse(w, r, errors.New("path is required"))
		return
	}

	s, err := h.sessions.Load(r.Context(), input.Path, input.SaveID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	clock, err := s.Services.Seasons.GetClock(r.Context(), s.ID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"save_id": s.ID, "clock": clock}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
