package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/Dosada05/tournament-dashboard/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seeded struct {
	event    *models.Event
	team     *models.Team
	activity *models.Activity
	players  []*models.Participant
	fixture  *models.Fixture
}

func seedStore(t *testing.T, s Store) seeded {
	t.Helper()
	var out seeded
	err := s.WithinTx(context.Background(), TxOptions{}, func(repos Repositories) error {
		ctx := context.Background()
		out.event = &models.Event{Name: "Sports day"}
		if err := repos.Events.Create(ctx, out.event); err != nil {
			return err
		}
		out.team = &models.Team{EventID: out.event.ID, Name: "Alpha"}
		if err := repos.Teams.Create(ctx, out.team); err != nil {
			return err
		}
		out.activity = &models.Activity{EventID: out.event.ID, Name: "Chess"}
		if err := repos.Activities.Create(ctx, out.activity); err != nil {
			return err
		}
		var ids []int
		for _, name := range []string{"Bob", "Ann"} {
			p := &models.Participant{
				Kind:        models.ParticipantPlayer,
				Name:        name,
				Memberships: []models.TeamMembership{{TeamID: out.team.ID, EventID: out.event.ID}},
			}
			if err := repos.Participants.Create(ctx, p); err != nil {
				return err
			}
			out.players = append(out.players, p)
			ids = append(ids, p.ID)
		}
		out.fixture = &models.Fixture{
			EventID:        out.event.ID,
			ActivityID:     out.activity.ID,
			Name:           "Chess open",
			Format:         models.FormatKnockout,
			ParticipantIDs: ids,
		}
		return repos.Fixtures.Create(ctx, out.fixture)
	})
	require.NoError(t, err)
	return out
}

func createMatch(t *testing.T, s Store, fixtureID int, uid string) *models.Match {
	t.Helper()
	m := &models.Match{FixtureID: fixtureID, UID: uid, Round: 1, MatchNumber: 1, Status: models.StatusScheduled}
	err := s.WithinTx(context.Background(), TxOptions{}, func(repos Repositories) error {
		return repos.Matches.Create(context.Background(), m)
	})
	require.NoError(t, err)
	return m
}

func TestMemoryStore_RollbackOnError(t *testing.T) {
	s := NewMemoryStore()
	data := seedStore(t, s)
	boom := errors.New("boom")

	err := s.WithinTx(context.Background(), TxOptions{}, func(repos Repositories) error {
		if err := repos.Teams.Create(context.Background(), &models.Team{EventID: data.event.ID, Name: "Beta"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	err = s.WithinTx(context.Background(), TxOptions{ReadOnly: true}, func(repos Repositories) error {
		teams, err := repos.Teams.ListByEvent(context.Background(), data.event.ID)
		require.NoError(t, err)
		assert.Len(t, teams, 1)
		return nil
	})
	require.NoError(t, err)
}

func TestMemoryStore_ReadOnlyRejectsWrites(t *testing.T) {
	s := NewMemoryStore()
	err := s.WithinTx(context.Background(), TxOptions{ReadOnly: true}, func(repos Repositories) error {
		return repos.Events.Create(context.Background(), &models.Event{Name: "nope"})
	})
	assert.ErrorIs(t, err, ErrReadOnlyTx)
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewMemoryStore().WithinTx(ctx, TxOptions{}, func(Repositories) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryStore_MatchVersioning(t *testing.T) {
	s := NewMemoryStore()
	data := seedStore(t, s)
	m := createMatch(t, s, data.fixture.ID, "R1M1")
	assert.Equal(t, 1, m.Version)

	stale := m.Clone()
	m.HomeParticipantID = models.IntPtr(data.players[0].ID)
	err := s.WithinTx(context.Background(), TxOptions{}, func(repos Repositories) error {
		return repos.Matches.Update(context.Background(), m)
	})
	require.NoError(t, err)
	assert.Equal(t, 2, m.Version)

	stale.AwayParticipantID = models.IntPtr(data.players[1].ID)
	err = s.WithinTx(context.Background(), TxOptions{}, func(repos Repositories) error {
		return repos.Matches.Update(context.Background(), stale)
	})
	assert.ErrorIs(t, err, ErrMatchVersionConflict)

	// unknown participant ids are rejected
	m.WinnerID = models.IntPtr(999)
	err = s.WithinTx(context.Background(), TxOptions{}, func(repos Repositories) error {
		return repos.Matches.Update(context.Background(), m)
	})
	assert.ErrorIs(t, err, ErrParticipantNotFound)
}

func TestMemoryStore_MatchUIDUniquePerFixture(t *testing.T) {
	s := NewMemoryStore()
	data := seedStore(t, s)
	createMatch(t, s, data.fixture.ID, "R1M1")

	err := s.WithinTx(context.Background(), TxOptions{}, func(repos Repositories) error {
		return repos.Matches.Create(context.Background(), &models.Match{FixtureID: data.fixture.ID, UID: "R1M1"})
	})
	assert.ErrorIs(t, err, ErrMatchUIDConflict)
}

func TestMemoryStore_LinksAndDelete(t *testing.T) {
	s := NewMemoryStore()
	data := seedStore(t, s)
	first := createMatch(t, s, data.fixture.ID, "R1M1")
	final := createMatch(t, s, data.fixture.ID, "R2M1")

	ctx := context.Background()
	err := s.WithinTx(ctx, TxOptions{}, func(repos Repositories) error {
		if err := repos.Matches.UpdateLinks(ctx, first.ID, &final.ID, nil); err != nil {
			return err
		}
		return repos.Matches.UpdateLinks(ctx, final.ID, nil, []int{first.ID})
	})
	require.NoError(t, err)

	err = s.WithinTx(ctx, TxOptions{}, func(repos Repositories) error {
		return repos.Matches.Delete(ctx, final.ID)
	})
	require.NoError(t, err)

	err = s.WithinTx(ctx, TxOptions{ReadOnly: true}, func(repos Repositories) error {
		got, err := repos.Matches.GetByID(ctx, first.ID)
		require.NoError(t, err)
		assert.Nil(t, got.NextMatchID)

		_, err = repos.Matches.GetByID(ctx, final.ID)
		assert.ErrorIs(t, err, ErrMatchNotFound)
		return nil
	})
	require.NoError(t, err)
}

func TestMemoryStore_Participants(t *testing.T) {
	s := NewMemoryStore()
	data := seedStore(t, s)
	ctx := context.Background()

	err := s.WithinTx(ctx, TxOptions{ReadOnly: true}, func(repos Repositories) error {
		ann, bob := data.players[1], data.players[0]
		list, err := repos.Participants.ListByIDs(ctx, []int{ann.ID, bob.ID})
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "Ann", list[0].Name)
		assert.Equal(t, "Bob", list[1].Name)

		_, err = repos.Participants.ListByIDs(ctx, []int{ann.ID, 999})
		assert.ErrorIs(t, err, ErrParticipantNotFound)

		players, err := repos.Participants.ListPlayersByEvent(ctx, data.event.ID)
		require.NoError(t, err)
		assert.Len(t, players, 2)

		fixture, err := repos.Fixtures.GetByID(ctx, data.fixture.ID)
		require.NoError(t, err)
		assert.Equal(t, []int{bob.ID, ann.ID}, fixture.ParticipantIDs)
		assert.NotNil(t, fixture.SettingsJSON)
		return nil
	})
	require.NoError(t, err)

	err = s.WithinTx(ctx, TxOptions{}, func(repos Repositories) error {
		return repos.Participants.AddMembership(ctx, data.players[0].ID, models.TeamMembership{TeamID: 999, EventID: data.event.ID})
	})
	assert.ErrorIs(t, err, ErrTeamNotFound)
}

func TestMemoryStore_TeamEntries(t *testing.T) {
	s := NewMemoryStore()
	data := seedStore(t, s)
	ctx := context.Background()

	entry := &models.Participant{Kind: models.ParticipantTeam, Name: "Alpha", TeamID: models.IntPtr(data.team.ID)}
	err := s.WithinTx(ctx, TxOptions{}, func(repos Repositories) error {
		return repos.Participants.Create(ctx, entry)
	})
	require.NoError(t, err)

	err = s.WithinTx(ctx, TxOptions{ReadOnly: true}, func(repos Repositories) error {
		got, err := repos.Participants.GetByID(ctx, entry.ID)
		require.NoError(t, err)
		require.NotNil(t, got.TeamID)
		assert.Equal(t, data.team.ID, *got.TeamID)
		teamID, ok := got.CreditedTeam(data.event.ID)
		assert.True(t, ok)
		assert.Equal(t, data.team.ID, teamID)

		// team entries are not listed as players
		players, err := repos.Participants.ListPlayersByEvent(ctx, data.event.ID)
		require.NoError(t, err)
		assert.Len(t, players, 2)
		return nil
	})
	require.NoError(t, err)

	err = s.WithinTx(ctx, TxOptions{}, func(repos Repositories) error {
		return repos.Participants.Create(ctx, &models.Participant{Kind: models.ParticipantTeam, Name: "Ghosts", TeamID: models.IntPtr(999)})
	})
	assert.ErrorIs(t, err, ErrTeamNotFound)
}

func TestMemoryStore_FixtureValidation(t *testing.T) {
	s := NewMemoryStore()
	data := seedStore(t, s)
	ctx := context.Background()

	err := s.WithinTx(ctx, TxOptions{}, func(repos Repositories) error {
		return repos.Fixtures.Create(ctx, &models.Fixture{EventID: data.event.ID, ActivityID: 999})
	})
	assert.ErrorIs(t, err, ErrActivityNotFound)

	err = s.WithinTx(ctx, TxOptions{}, func(repos Repositories) error {
		return repos.Fixtures.SetParticipants(ctx, data.fixture.ID, []int{999})
	})
	assert.ErrorIs(t, err, ErrParticipantNotFound)
}
