package main

import (
	"context"
	"strings"
	"testing"

	"github.com/Dosada05/tournament-dashboard/brackets"
	"github.com/Dosada05/tournament-dashboard/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const participantsFile = `# name, team
Ann, Alpha
Cid,Beta

Bob, Alpha
Dan
`

func fixtureFor(format models.FixtureFormat, participants []*models.Participant, settings models.FixtureSettings) *models.Fixture {
	f := &models.Fixture{ID: 1, EventID: offlineEventID, Format: format, ParticipantType: models.ParticipantPlayer, Settings: settings}
	for _, p := range participants {
		f.ParticipantIDs = append(f.ParticipantIDs, p.ID)
	}
	return f
}

func TestReadParticipants(t *testing.T) {
	participants, err := readParticipants(strings.NewReader(participantsFile))
	require.NoError(t, err)
	require.Len(t, participants, 4)

	assert.Equal(t, "Ann", participants[0].Name)
	assert.Equal(t, 1, participants[0].ID)
	assert.Equal(t, 4, participants[3].ID)
	assert.True(t, participants[0].SharesTeamWith(participants[2], offlineEventID))
	assert.False(t, participants[0].SharesTeamWith(participants[1], offlineEventID))
	assert.Nil(t, participants[3].MembershipFor(offlineEventID))

	_, err = readParticipants(strings.NewReader("\"unterminated\n"))
	assert.Error(t, err)
}

func TestBuildDump_Knockout(t *testing.T) {
	participants, err := readParticipants(strings.NewReader("A\nB\nC\n"))
	require.NoError(t, err)

	dump, err := buildDump(context.Background(), fixtureFor(models.FormatKnockout, participants, models.FixtureSettings{}), participants, brackets.DefaultMaxReseedAttempts)
	require.NoError(t, err)
	assert.Equal(t, "SingleElimination", dump.Generator)
	assert.Equal(t, []string{"A", "B", "C"}, dump.Seeding)
	assert.Equal(t, 2, dump.PlayableMatches)
	require.Len(t, dump.Matches, 3)
	assert.Len(t, dump.Layout, 3)

	bye := dump.Matches[1]
	assert.Equal(t, "R1M2", bye.UID)
	assert.True(t, bye.Bye)
	assert.Equal(t, "C", bye.Winner)
	assert.Equal(t, "R2M1", bye.Next)
	assert.Equal(t, "C", dump.Matches[2].Away)

	out, err := yaml.Marshal(dump)
	require.NoError(t, err)
	assert.Contains(t, string(out), "generator: SingleElimination")
	assert.Contains(t, string(out), "uid: R1M1")
}

func TestBuildDump_League(t *testing.T) {
	participants, err := readParticipants(strings.NewReader("A\nB\nC\nD\n"))
	require.NoError(t, err)

	dump, err := buildDump(context.Background(), fixtureFor(models.FormatRoundRobin, participants, models.FixtureSettings{NumberOfRounds: 2}), participants, 0)
	require.NoError(t, err)
	assert.Equal(t, "RoundRobin", dump.Generator)
	assert.Len(t, dump.Matches, 12)
	assert.Empty(t, dump.Layout)
	for _, m := range dump.Matches {
		assert.Empty(t, m.Next)
	}
}

func TestBuildDump_Errors(t *testing.T) {
	participants, err := readParticipants(strings.NewReader("A\n"))
	require.NoError(t, err)

	_, err = buildDump(context.Background(), fixtureFor("swiss", participants, models.FixtureSettings{}), participants, 0)
	assert.ErrorContains(t, err, "unknown format")

	_, err = buildDump(context.Background(), fixtureFor(models.FormatKnockout, participants, models.FixtureSettings{}), participants, 0)
	assert.ErrorIs(t, err, brackets.ErrInvalidParticipantCount)
}
