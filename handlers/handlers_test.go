package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Dosada05/tournament-dashboard/brackets"
	"github.com/Dosada05/tournament-dashboard/models"
	"github.com/Dosada05/tournament-dashboard/services"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubMatchService answers every call with err; unimplemented methods panic.
type stubMatchService struct {
	services.MatchService
	err       error
	lastApply brackets.ResultInput
	lastSwap  services.SwapInput
	lastReq   services.PartnerRequest
}

func (s *stubMatchService) ApplyMatchResult(_ context.Context, matchID int, input brackets.ResultInput) (*services.MatchUpdate, error) {
	s.lastApply = input
	if s.err != nil {
		return nil, s.err
	}
	return &services.MatchUpdate{FixtureID: 1, Updated: &models.Match{ID: matchID, Status: models.StatusCompleted}}, nil
}

func (s *stubMatchService) SwapParticipants(_ context.Context, input services.SwapInput) (*services.SwapResult, error) {
	s.lastSwap = input
	if s.err != nil {
		return nil, s.err
	}
	return &services.SwapResult{Affected: []*models.Match{}}, nil
}

func (s *stubMatchService) GetEligiblePartners(_ context.Context, req services.PartnerRequest) ([]*models.Participant, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return []*models.Participant{{ID: 3, Kind: models.ParticipantPlayer, Name: "Cid"}}, nil
}

func (s *stubMatchService) DeleteMatch(context.Context, int) error {
	return s.err
}

type stubStandingsService struct {
	services.StandingsService
	err error
}

func (s *stubStandingsService) PublishScorecard(_ context.Context, eventID int) (*services.PublishedScorecard, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &services.PublishedScorecard{EventID: eventID, JSONURL: "https://cdn/x.json"}, nil
}

func (s *stubStandingsService) UnpublishScorecard(_ context.Context, _ int) error {
	return s.err
}

func (s *stubStandingsService) RecordWinners(_ context.Context, fixtureID int, winners models.FixtureWinners) (*models.Fixture, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.Fixture{ID: fixtureID, Winners: winners}, nil
}

func newTestRouter(ms services.MatchService, ss services.StandingsService) http.Handler {
	bh := NewBracketHandler(nil, ms)
	mh := NewMatchHandler(ms)
	sh := NewStandingsHandler(ss)

	r := chi.NewRouter()
	r.Post("/fixtures/{fixtureID}/swap", bh.SwapParticipants)
	r.Get("/fixtures/{fixtureID}/partners", bh.GetEligiblePartners)
	r.Post("/matches/{matchID}/result", mh.ApplyResult)
	r.Delete("/matches/{matchID}", mh.DeleteMatch)
	r.Post("/events/{eventID}/scorecard/publish", sh.PublishScorecard)
	r.Delete("/events/{eventID}/scorecard/publish", sh.UnpublishScorecard)
	r.Put("/fixtures/{fixtureID}/winners", sh.RecordWinners)
	return r
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestApplyResult_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"ok", nil, http.StatusOK},
		{"not found", fmt.Errorf("%w: 9", services.ErrMatchNotFound), http.StatusNotFound},
		{"ambiguous", services.ErrAmbiguousResult, http.StatusUnprocessableEntity},
		{"invalid winner", services.ErrInvalidWinner, http.StatusUnprocessableEntity},
		{"not ready", services.ErrMatchNotReady, http.StatusUnprocessableEntity},
		{"completed", services.ErrInvalidStatusTransition, http.StatusUnprocessableEntity},
		{"downstream", services.ErrDownstreamPlayed, http.StatusConflict},
		{"conflict", services.ErrInconsistentSwap, http.StatusConflict},
		{"unexpected", errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ms := &stubMatchService{err: tt.err}
			rec := do(t, newTestRouter(ms, nil), http.MethodPost, "/matches/5/result", `{"home_score":2,"away_score":1,"status":"COMPLETED"}`)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Equal(t, models.StatusCompleted, ms.lastApply.Status)
			assert.Equal(t, 2, *ms.lastApply.HomeScore)
		})
	}
}

func TestApplyResult_BadRequests(t *testing.T) {
	ms := &stubMatchService{}
	router := newTestRouter(ms, nil)

	tests := []struct {
		name   string
		target string
		body   string
	}{
		{"bad id", "/matches/abc/result", `{}`},
		{"zero id", "/matches/0/result", `{}`},
		{"malformed json", "/matches/5/result", `{"home_score":`},
		{"unknown field", "/matches/5/result", `{"score":1}`},
		{"wrong type", "/matches/5/result", `{"home_score":"two"}`},
		{"two documents", "/matches/5/result", `{} {}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodPost, tt.target, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var env map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
			assert.NotEmpty(t, env["error"])
		})
	}
}

func TestSwapParticipants_Handler(t *testing.T) {
	ms := &stubMatchService{}
	router := newTestRouter(ms, nil)

	rec := do(t, router, http.MethodPost, "/fixtures/4/swap",
		`{"a":{"match_id":10,"slot":"home","expected_participant_id":7},"b":{"match_id":11,"slot":"away"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 4, ms.lastSwap.FixtureID)
	assert.Equal(t, 10, ms.lastSwap.A.MatchID)
	assert.Equal(t, models.SlotAway, ms.lastSwap.B.Slot)
	assert.Equal(t, 7, *ms.lastSwap.A.Expected)

	ms.err = services.ErrWrongFormat
	rec = do(t, router, http.MethodPost, "/fixtures/4/swap", `{"a":{"match_id":10,"slot":"home"},"b":{"match_id":11,"slot":"home"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	ms.err = services.ErrFixtureLocked
	rec = do(t, router, http.MethodPost, "/fixtures/4/swap", `{"a":{"match_id":10,"slot":"home"},"b":{"match_id":11,"slot":"home"}}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetEligiblePartners_Handler(t *testing.T) {
	ms := &stubMatchService{}
	router := newTestRouter(ms, nil)

	rec := do(t, router, http.MethodGet, "/fixtures/2/partners?participant_id=1&side=HOME&match_id=9&q=ci", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.SlotHome, ms.lastReq.Side)
	assert.Equal(t, 9, *ms.lastReq.MatchID)
	assert.Equal(t, "ci", ms.lastReq.Query)

	var body struct {
		Partners []models.Participant `json:"partners"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Partners, 1)
	assert.Equal(t, "Cid", body.Partners[0].Name)

	rec = do(t, router, http.MethodGet, "/fixtures/2/partners", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	ms.err = services.ErrNotDoublesFixture
	rec = do(t, router, http.MethodGet, "/fixtures/2/partners?participant_id=1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteMatch_Handler(t *testing.T) {
	ms := &stubMatchService{}
	router := newTestRouter(ms, nil)

	rec := do(t, router, http.MethodDelete, "/matches/3", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	ms.err = services.ErrMatchNotEditable
	rec = do(t, router, http.MethodDelete, "/matches/3", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestPublishScorecard_Handler(t *testing.T) {
	ss := &stubStandingsService{}
	router := newTestRouter(nil, ss)

	rec := do(t, router, http.MethodPost, "/events/1/scorecard/publish", "")
	assert.Equal(t, http.StatusCreated, rec.Code)

	ss.err = services.ErrPublishingDisabled
	rec = do(t, router, http.MethodPost, "/events/1/scorecard/publish", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	ss.err = fmt.Errorf("%w: event 1", services.ErrEventNotFound)
	rec = do(t, router, http.MethodPost, "/events/1/scorecard/publish", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUnpublishScorecard_Handler(t *testing.T) {
	ss := &stubStandingsService{}
	router := newTestRouter(nil, ss)

	rec := do(t, router, http.MethodDelete, "/events/1/scorecard/publish", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	ss.err = services.ErrPublishingDisabled
	rec = do(t, router, http.MethodDelete, "/events/1/scorecard/publish", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRecordWinners_Handler(t *testing.T) {
	ss := &stubStandingsService{}
	router := newTestRouter(nil, ss)

	rec := do(t, router, http.MethodPut, "/fixtures/4/winners", `{"first_id": 7, "second_id": 9}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		FixtureID int                   `json:"fixture_id"`
		Winners   models.FixtureWinners `json:"winners"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 4, body.FixtureID)
	require.NotNil(t, body.Winners.FirstID)
	assert.Equal(t, 7, *body.Winners.FirstID)
	assert.Nil(t, body.Winners.ThirdID)

	rec = do(t, router, http.MethodPut, "/fixtures/4/winners", `{"first_id": "x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	ss.err = fmt.Errorf("%w: participant 7 is not registered", services.ErrValidationFailed)
	rec = do(t, router, http.MethodPut, "/fixtures/4/winners", `{"first_id": 7}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
