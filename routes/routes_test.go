package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Dosada05/tournament-dashboard/brackets"
	"github.com/Dosada05/tournament-dashboard/handlers"
	"github.com/Dosada05/tournament-dashboard/models"
	"github.com/Dosada05/tournament-dashboard/repositories"
	"github.com/Dosada05/tournament-dashboard/services"
	"github.com/Dosada05/tournament-dashboard/storage"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiFixture struct {
	server       *httptest.Server
	hub          *brackets.Hub
	eventID      int
	fixture      int
	participants []int
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	store := repositories.NewMemoryStore()
	api := &apiFixture{}
	err := store.WithinTx(ctx, repositories.TxOptions{}, func(repos repositories.Repositories) error {
		event := &models.Event{Name: "Sports day"}
		if err := repos.Events.Create(ctx, event); err != nil {
			return err
		}
		team := &models.Team{EventID: event.ID, Name: "Alpha"}
		if err := repos.Teams.Create(ctx, team); err != nil {
			return err
		}
		activity := &models.Activity{EventID: event.ID, Name: "Chess", PointTable: models.PointTable{First: 10, Second: 5}}
		if err := repos.Activities.Create(ctx, activity); err != nil {
			return err
		}
		var ids []int
		for _, name := range []string{"Ann", "Bob", "Cid"} {
			p := &models.Participant{
				Kind:        models.ParticipantPlayer,
				Name:        name,
				Memberships: []models.TeamMembership{{TeamID: team.ID, EventID: event.ID}},
			}
			if err := repos.Participants.Create(ctx, p); err != nil {
				return err
			}
			ids = append(ids, p.ID)
		}
		fixture := &models.Fixture{
			EventID:         event.ID,
			ActivityID:      activity.ID,
			Name:            "Chess open",
			Format:          models.FormatKnockout,
			ParticipantType: models.ParticipantPlayer,
			ParticipantIDs:  ids,
		}
		if err := repos.Fixtures.Create(ctx, fixture); err != nil {
			return err
		}
		api.eventID, api.fixture, api.participants = event.ID, fixture.ID, ids
		return nil
	})
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	api.hub = brackets.NewHub()
	go api.hub.Run(ctx)

	locks := services.NewFixtureLocks()
	bracketService := services.NewBracketService(store, locks, api.hub, brackets.DefaultMaxReseedAttempts, logger)
	matchService := services.NewMatchService(store, locks, api.hub, logger)
	standingsService := services.NewStandingsService(store, locks, storage.NewMemoryUploader("http://localhost/snapshots"), logger)

	origins := []string{"https://admin.example"}
	router := chi.NewRouter()
	SetupRoutes(router, Handlers{
		Bracket:   handlers.NewBracketHandler(bracketService, matchService),
		Match:     handlers.NewMatchHandler(matchService),
		Standings: handlers.NewStandingsHandler(standingsService),
		WebSocket: handlers.NewWebSocketHandler(api.hub, origins),
	}, origins, logger)

	api.server = httptest.NewServer(router)
	t.Cleanup(api.server.Close)
	return api
}

func (a *apiFixture) call(t *testing.T, method, path, body string, out interface{}) int {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, a.server.URL+path, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestAPI_BracketLifecycle(t *testing.T) {
	api := newAPI(t)
	fixturePath := fmt.Sprintf("/fixtures/%d", api.fixture)

	var built struct {
		Bracket services.BuildResult `json:"bracket"`
	}
	require.Equal(t, http.StatusCreated, api.call(t, http.MethodPost, fixturePath+"/bracket", "", &built))
	require.Len(t, built.Bracket.Matches, 3)
	assert.Equal(t, http.StatusConflict, api.call(t, http.MethodPost, fixturePath+"/bracket", "", nil))

	var first *models.Match
	for _, m := range built.Bracket.Matches {
		if m.UID == "R1M1" {
			first = m
		}
	}
	require.NotNil(t, first)

	var applied struct {
		Update services.MatchUpdate `json:"update"`
	}
	status := api.call(t, http.MethodPost, fmt.Sprintf("/matches/%d/result", first.ID), `{"home_score":3,"away_score":1}`, &applied)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, *first.HomeParticipantID, *applied.Update.Updated.WinnerID)
	require.Len(t, applied.Update.Propagated, 1)

	var layout struct {
		Layout brackets.Layout `json:"layout"`
	}
	require.Equal(t, http.StatusOK, api.call(t, http.MethodGet, fixturePath+"/bracket/layout", "", &layout))
	assert.Len(t, layout.Layout.Nodes, 3)

	assert.Equal(t, http.StatusOK, api.call(t, http.MethodPost, fmt.Sprintf("/matches/%d/reopen", first.ID), "", nil))
	assert.Equal(t, http.StatusUnprocessableEntity,
		api.call(t, http.MethodPost, fmt.Sprintf("/matches/%d/result", first.ID), `{"home_score":1,"away_score":1}`, nil))

	assert.Equal(t, http.StatusBadRequest, api.call(t, http.MethodGet, fixturePath+"/standings", "", nil))
	assert.Equal(t, http.StatusNotFound, api.call(t, http.MethodGet, "/fixtures/9999/bracket", "", nil))
	assert.Equal(t, http.StatusConflict, api.call(t, http.MethodDelete, fmt.Sprintf("/matches/%d", first.ID), "", nil))
}

func TestAPI_Scorecard(t *testing.T) {
	api := newAPI(t)

	var card struct {
		Scorecard services.Scorecard `json:"scorecard"`
	}
	require.Equal(t, http.StatusOK, api.call(t, http.MethodGet, fmt.Sprintf("/events/%d/scorecard", api.eventID), "", &card))
	assert.Equal(t, "Sports day", card.Scorecard.EventName)
	require.Len(t, card.Scorecard.Teams, 1)
	assert.Zero(t, card.Scorecard.Teams[0].TotalPoints)

	var published struct {
		Published services.PublishedScorecard `json:"published"`
	}
	require.Equal(t, http.StatusCreated, api.call(t, http.MethodPost, fmt.Sprintf("/events/%d/scorecard/publish", api.eventID), "", &published))
	assert.Equal(t, fmt.Sprintf("http://localhost/snapshots/scorecards/event-%d.json", api.eventID), published.Published.JSONURL)

	winners := fmt.Sprintf(`{"first_id": %d}`, api.participants[1])
	require.Equal(t, http.StatusOK, api.call(t, http.MethodPut, fmt.Sprintf("/fixtures/%d/winners", api.fixture), winners, nil))
	require.Equal(t, http.StatusOK, api.call(t, http.MethodGet, fmt.Sprintf("/events/%d/scorecard", api.eventID), "", &card))
	assert.Equal(t, 10, card.Scorecard.Teams[0].TotalPoints)

	assert.Equal(t, http.StatusBadRequest, api.call(t, http.MethodPut, fmt.Sprintf("/fixtures/%d/winners", api.fixture), `{"first_id": 9999}`, nil))
	assert.Equal(t, http.StatusNoContent, api.call(t, http.MethodDelete, fmt.Sprintf("/events/%d/scorecard/publish", api.eventID), "", nil))
}

func TestAPI_CORSPreflight(t *testing.T) {
	api := newAPI(t)
	req, err := http.NewRequest(http.MethodOptions, api.server.URL+"/fixtures/1/bracket", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://admin.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "https://admin.example", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestAPI_WebSocketReceivesBracketUpdates(t *testing.T) {
	api := newAPI(t)
	url := "ws" + strings.TrimPrefix(api.server.URL, "http") + fmt.Sprintf("/ws/fixtures/%d", api.fixture)

	header := http.Header{"Origin": []string{"https://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	if resp != nil {
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	}

	conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": []string{"https://admin.example"}})
	require.NoError(t, err)
	defer conn.Close()
	room := brackets.FixtureRoom(api.fixture)
	require.Eventually(t, func() bool { return api.hub.RoomSize(room) == 1 }, time.Second, 10*time.Millisecond)

	require.Equal(t, http.StatusCreated, api.call(t, http.MethodPost, fmt.Sprintf("/fixtures/%d/bracket", api.fixture), "", nil))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg brackets.WebSocketMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, brackets.MessageBracketUpdated, msg.Type)
	assert.Equal(t, room, msg.RoomID)
}
