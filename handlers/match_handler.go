package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/Dosada05/tournament-dashboard/brackets"
	"github.com/Dosada05/tournament-dashboard/models"
	"github.com/Dosada05/tournament-dashboard/services"
)

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(ms services.MatchService) *MatchHandler {
	return &MatchHandler{
		matchService: ms,
	}
}

type matchResultRequest struct {
	HomeScore *int              `json:"home_score"`
	AwayScore *int              `json:"away_score"`
	Sets      []models.SetScore `json:"sets"`
	WinnerID  *int              `json:"winner_id"`
	Status    string            `json:"status"`
}

// ApplyResult records a score or a walkover and advances the winner.
// POST /matches/{matchID}/result
func (h *MatchHandler) ApplyResult(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var req matchResultRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	update, err := h.matchService.ApplyMatchResult(r.Context(), matchID, brackets.ResultInput{
		HomeScore: req.HomeScore,
		AwayScore: req.AwayScore,
		Sets:      req.Sets,
		WinnerID:  req.WinnerID,
		Status:    models.MatchStatus(strings.ToLower(req.Status)),
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"update": update}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) ReopenMatch(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	update, err := h.matchService.ReopenMatch(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"update": update}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// AssignPartner sets or clears the doubles partner of one side of a match.
// PUT /matches/{matchID}/partner
func (h *MatchHandler) AssignPartner(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.AssignPartnerInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	input.MatchID = matchID
	input.Side = slotParam(string(input.Side))

	changed, err := h.matchService.AssignPartner(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": changed}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteMatch prunes an empty bracket node.
func (h *MatchHandler) DeleteMatch(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.matchService.DeleteMatch(r.Context(), matchID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func slotParam(s string) models.Slot {
	return models.Slot(strings.ToLower(strings.TrimSpace(s)))
}

func errMissingQuery(name string) error {
	return fmt.Errorf("missing %s query parameter", name)
}
