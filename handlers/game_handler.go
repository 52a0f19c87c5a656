package handlers

import (
	"net/http"
	"strconv"

	"github.com/Dosada05/matchday/session"
)

// GameHandler serves the operations on the loaded save.
type GameHandler struct {
	sessions SessionManager
}

func NewGameHandler(sessions SessionManager) *GameHandler {
	return &GameHandler{sessions: sessions}
}

func (h *GameHandler) current(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, err := h.sessions.Current()
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return nil, false
	}
	return s, true
}

// ClockHandler handles GET /clock.
func (h *GameHandler) ClockHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := h.current(w, r)
	if !ok {
		return
	}
	clock, err := s.Services.Seasons.GetClock(r.Context(), s.ID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"clock": clock}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// AdvanceHandler handles POST /advance. The season transition runs in the
// same request when the day closed the season.
func (h *GameHandler) AdvanceHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := h.current(w, r)
	if !ok {
		return
	}
	result, err := s.Services.Days.Advance(r.Context(), s.ID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GenerateFixturesHandler handles POST /seasons/{seasonID}/fixtures.
func (h *GameHandler) GenerateFixturesHandler(w http.ResponseWriter, r *http.Request) {
	seasonID, err := getIDFromURL(r, "seasonID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	s, ok := h.current(w, r)
	if !ok {
		return
	}

	report, err := s.Services.Fixtures.GenerateFixtures(r.Context(), seasonID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	resp := jsonResponse{"matches_created": report.MatchesCreated(), "report": report}
	if err := writeJSON(w, http.StatusOK, resp, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SimulateMatchHandler handles POST /matches/{matchID}/simulate.
func (h *GameHandler) SimulateMatchHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	s, ok := h.current(w, r)
	if !ok {
		return
	}

	result, err := s.Services.Matches.SimulateMatch(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetMatchHandler handles GET /matches/{matchID}.
func (h *GameHandler) GetMatchHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	s, ok := h.current(w, r)
	if !ok {
		return
	}

	details, err := s.Services.Matches.GetMatchDetails(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, details, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// StandingsHandler handles
// GET /competitions/{competitionID}/seasons/{seasonID}/standings.
// With ?club_id= it returns that club's snapshots over the season instead.
func (h *GameHandler) StandingsHandler(w http.ResponseWriter, r *http.Request) {
	competitionID, err := getIDFromURL(r, "competitionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	seasonID, err := getIDFromURL(r, "seasonID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	s, ok := h.current(w, r)
	if !ok {
		return
	}

	if clubParam := r.URL.Query().Get("club_id"); clubParam != "" {
		clubID, err := strconv.ParseInt(clubParam, 10, 64)
		if err != nil || clubID <= 0 {
			errorResponse(w, r, http.StatusBadRequest, "invalid club_id query parameter")
			return
		}
		history, err := s.Services.Standings.GetStandingsHistory(r.Context(), competitionID, seasonID, clubID)
		if err != nil {
			mapServiceErrorToHTTP(w, r, err)
			return
		}
		if err := writeJSON(w, http.StatusOK, jsonResponse{"history": history}, nil); err != nil {
			serverErrorResponse(w, r, err)
		}
		return
	}

	table, err := s.Services.Standings.GetStandings(r.Context(), competitionID, seasonID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"standings": table}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SeasonEndHandler handles POST /season-end.
func (h *GameHandler) SeasonEndHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := h.current(w, r)
	if !ok {
		return
	}
	report, err := s.Services.Seasons.ProcessSeasonEnd(r.Context(), s.ID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, report, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SeasonAwardsHandler handles GET /seasons/{seasonID}/awards.
func (h *GameHandler) SeasonAwardsHandler(w http.ResponseWriter, r *http.Request) {
	seasonID, err := getIDFromURL(r, "seasonID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	s, ok := h.current(w, r)
	if !ok {
		return
	}
	summary, err := s.Services.Awards.GetSeasonAwards(r.Context(), seasonID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, summary, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ClubBalanceHandler handles GET /clubs/{clubID}/balance.
func (h *GameHandler) ClubBalanceHandler(w http.ResponseWriter, r *http.Request) {
	clubID, err := getIDFromURL(r, "clubID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	s, ok := h.current(w, r)
	if !ok {
		return
	}
	balance, err := s.Services.Finance.GetClubBalance(r.Context(), clubID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"club_id": clubID, "balance": balance}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ClubTransactionsHandler handles GET /clubs/{clubID}/transactions.
func (h *GameHandler) ClubTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	clubID, err := getIDFromURL(r, "clubID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	s, ok := h.current(w, r)
	if !ok {
		return
	}
	transactions, err := s.Services.Finance.ListTransactions(r.Context(), clubID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"transactions": transactions}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
