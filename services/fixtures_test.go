package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/Dosada05/tournament-dashboard/brackets"
	"github.com/Dosada05/tournament-dashboard/models"
	"github.com/Dosada05/tournament-dashboard/repositories"
	"github.com/stretchr/testify/require"
)

type notification struct {
	fixtureID   int
	messageType string
	payload     interface{}
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification
}

func (n *recordingNotifier) NotifyFixture(fixtureID int, messageType string, payload interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification{fixtureID, messageType, payload})
}

func (n *recordingNotifier) last() notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.sent) == 0 {
		return notification{}
	}
	return n.sent[len(n.sent)-1]
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// world is a seeded sports day: Alpha has Ann and Bob, Beta has Cid and Dan.
type world struct {
	store    *repositories.MemoryStore
	event    *models.Event
	alpha    *models.Team
	beta     *models.Team
	chess    *models.Activity
	players  map[string]*models.Participant
	knockout *models.Fixture
	league   *models.Fixture
	doubles  *models.Fixture
}

func (w *world) ids(names ...string) []int {
	out := make([]int, 0, len(names))
	for _, n := range names {
		out = append(out, w.players[n].ID)
	}
	return out
}

func seedWorld(t *testing.T) *world {
	t.Helper()
	w := &world{store: repositories.NewMemoryStore(), players: make(map[string]*models.Participant)}
	ctx := context.Background()
	err := w.store.WithinTx(ctx, repositories.TxOptions{}, func(repos repositories.Repositories) error {
		w.event = &models.Event{Name: "Sports day"}
		if err := repos.Events.Create(ctx, w.event); err != nil {
			return err
		}
		w.alpha = &models.Team{EventID: w.event.ID, Name: "Alpha"}
		w.beta = &models.Team{EventID: w.event.ID, Name: "Beta"}
		for _, team := range []*models.Team{w.alpha, w.beta} {
			if err := repos.Teams.Create(ctx, team); err != nil {
				return err
			}
		}
		w.chess = &models.Activity{EventID: w.event.ID, Name: "Chess", PointTable: models.PointTable{First: 10, Second: 5, Third: 3}}
		if err := repos.Activities.Create(ctx, w.chess); err != nil {
			return err
		}
		roster := []struct {
			name string
			team *models.Team
		}{{"Ann", w.alpha}, {"Cid", w.beta}, {"Bob", w.alpha}, {"Dan", w.beta}, {"Eve", w.alpha}}
		for _, r := range roster {
			p := &models.Participant{
				Kind:        models.ParticipantPlayer,
				Name:        r.name,
				Memberships: []models.TeamMembership{{TeamID: r.team.ID, EventID: w.event.ID}},
			}
			if err := repos.Participants.Create(ctx, p); err != nil {
				return err
			}
			w.players[r.name] = p
		}

		fixtures := []struct {
			target  **models.Fixture
			name    string
			format  models.FixtureFormat
			doubles bool
			players []string
		}{
			{&w.knockout, "Chess open", models.FormatKnockout, false, []string{"Ann", "Cid", "Bob", "Dan"}},
			{&w.league, "Chess league", models.FormatRoundRobin, false, []string{"Ann", "Cid", "Bob"}},
			{&w.doubles, "Chess pairs", models.FormatKnockout, true, []string{"Ann", "Cid"}},
		}
		for _, f := range fixtures {
			fixture := &models.Fixture{
				EventID:         w.event.ID,
				ActivityID:      w.chess.ID,
				Name:            f.name,
				Format:          f.format,
				ParticipantType: models.ParticipantPlayer,
				IsDoubles:       f.doubles,
				ParticipantIDs:  w.ids(f.players...),
			}
			if err := repos.Fixtures.Create(ctx, fixture); err != nil {
				return err
			}
			*f.target = fixture
		}
		return nil
	})
	require.NoError(t, err)
	return w
}

type testServices struct {
	notifier  *recordingNotifier
	brackets  BracketService
	matches   MatchService
	standings StandingsService
}

func newTestServices(w *world) *testServices {
	locks := NewFixtureLocks()
	notifier := &recordingNotifier{}
	return &testServices{
		notifier:  notifier,
		brackets:  NewBracketService(w.store, locks, notifier, 8, discardLogger()),
		matches:   NewMatchService(w.store, locks, notifier, discardLogger()),
		standings: NewStandingsService(w.store, locks, nil, discardLogger()),
	}
}

func matchByUID(t *testing.T, matches []*models.Match, uid string) *models.Match {
	t.Helper()
	for _, m := range matches {
		if m.UID == uid {
			return m
		}
	}
	require.Failf(t, "match not found", "uid %s", uid)
	return nil
}

func build(t *testing.T, ts *testServices, fixtureID int) *BuildResult {
	t.Helper()
	result, err := ts.brackets.BuildBracket(context.Background(), BuildBracketInput{FixtureID: fixtureID})
	require.NoError(t, err)
	return result
}

func win(t *testing.T, ts *testServices, matchID, home, away int) *MatchUpdate {
	t.Helper()
	update, err := ts.matches.ApplyMatchResult(context.Background(), matchID, brackets.ResultInput{
		HomeScore: models.IntPtr(home),
		AwayScore: models.IntPtr(away),
	})
	require.NoError(t, err)
	return update
}
