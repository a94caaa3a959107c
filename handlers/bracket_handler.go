package handlers

import (
	"net/http"

	"github.com/Dosada05/tournament-dashboard/services"
)

type BracketHandler struct {
	bracketService services.BracketService
	matchService   services.MatchService
}

func NewBracketHandler(bs services.BracketService, ms services.MatchService) *BracketHandler {
	return &BracketHandler{
		bracketService: bs,
		matchService:   ms,
	}
}

// BuildBracket generates and stores the bracket of a fixture.
// POST /fixtures/{fixtureID}/bracket
func (h *BracketHandler) BuildBracket(w http.ResponseWriter, r *http.Request) {
	fixtureID, err := getIDFromURL(r, "fixtureID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.BuildBracketInput
	if r.ContentLength != 0 {
		if err := readJSON(w, r, &input); err != nil {
			badRequestResponse(w, r, err)
			return
		}
	}
	input.FixtureID = fixtureID

	result, err := h.bracketService.BuildBracket(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"bracket": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetBracket returns a fixture with all of its matches.
func (h *BracketHandler) GetBracket(w http.ResponseWriter, r *http.Request) {
	fixtureID, err := getIDFromURL(r, "fixtureID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	fixture, err := h.bracketService.GetBracket(r.Context(), fixtureID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"fixture": fixture}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BracketHandler) GetLayout(w http.ResponseWriter, r *http.Request) {
	fixtureID, err := getIDFromURL(r, "fixtureID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	layout, err := h.bracketService.GetLayout(r.Context(), fixtureID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"layout": layout}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BracketHandler) ListEditableMatches(w http.ResponseWriter, r *http.Request) {
	fixtureID, err := getIDFromURL(r, "fixtureID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	matches, err := h.matchService.ListEditableMatches(r.Context(), fixtureID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SwapParticipants exchanges two first-round slots of a not yet started bracket.
// POST /fixtures/{fixtureID}/swap
func (h *BracketHandler) SwapParticipants(w http.ResponseWriter, r *http.Request) {
	fixtureID, err := getIDFromURL(r, "fixtureID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.SwapInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	input.FixtureID = fixtureID

	result, err := h.matchService.SwapParticipants(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"swap": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetEligiblePartners lists players that may partner participant_id.
// GET /fixtures/{fixtureID}/partners?participant_id=&side=&match_id=&q=
func (h *BracketHandler) GetEligiblePartners(w http.ResponseWriter, r *http.Request) {
	fixtureID, err := getIDFromURL(r, "fixtureID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	participantID, err := getOptionalIDFromQuery(r, "participant_id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if participantID == nil {
		badRequestResponse(w, r, errMissingQuery("participant_id"))
		return
	}
	matchID, err := getOptionalIDFromQuery(r, "match_id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	query := r.URL.Query()
	partners, err := h.matchService.GetEligiblePartners(r.Context(), services.PartnerRequest{
		FixtureID:     fixtureID,
		ParticipantID: *participantID,
		Side:          slotParam(query.Get("side")),
		MatchID:       matchID,
		Query:         query.Get("q"),
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"partners": partners}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
