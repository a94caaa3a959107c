package handlers

import (
	"net/http"

	"github.com/Dosada05/tournament-dashboard/models"
	"github.com/Dosada05/tournament-dashboard/services"
)

type StandingsHandler struct {
	standingsService services.StandingsService
}

func NewStandingsHandler(ss services.StandingsService) *StandingsHandler {
	return &StandingsHandler{
		standingsService: ss,
	}
}

// GetStandings returns the league table of a round-robin fixture.
// GET /fixtures/{fixtureID}/standings
func (h *StandingsHandler) GetStandings(w http.ResponseWriter, r *http.Request) {
	fixtureID, err := getIDFromURL(r, "fixtureID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	rows, err := h.standingsService.GetStandings(r.Context(), fixtureID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"standings": rows}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetScorecard ranks the teams of an event across all activities.
// GET /events/{eventID}/scorecard
func (h *StandingsHandler) GetScorecard(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	card, err := h.standingsService.GetScorecard(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"scorecard": card}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *StandingsHandler) PublishScorecard(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	published, err := h.standingsService.PublishScorecard(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"published": published}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UnpublishScorecard removes the published snapshots of an event.
// DELETE /events/{eventID}/scorecard/publish
func (h *StandingsHandler) UnpublishScorecard(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.standingsService.UnpublishScorecard(r.Context(), eventID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RecordWinners overrides the placements of a fixture.
// PUT /fixtures/{fixtureID}/winners
func (h *StandingsHandler) RecordWinners(w http.ResponseWriter, r *http.Request) {
	fixtureID, err := getIDFromURL(r, "fixtureID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var winners models.FixtureWinners
	if err := readJSON(w, r, &winners); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	fixture, err := h.standingsService.RecordWinners(r.Context(), fixtureID, winners)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"fixture_id": fixture.ID, "winners": fixture.Winners}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
