package scoring

import (
	"testing"

	"github.com/Dosada05/tournament-dashboard/models"
	"github.com/stretchr/testify/assert"
)

func decided(id, round, home, away, winner int, next *int) *models.Match {
	m := played(id, home, away, 1, 0)
	m.Round = round
	m.NextMatchID = next
	if winner == away {
		m.HomeScore, m.AwayScore = models.IntPtr(0), models.IntPtr(1)
	}
	m.WinnerID = models.IntPtr(winner)
	return m
}

func TestDerivePlacements_Knockout(t *testing.T) {
	fixture := &models.Fixture{ID: 3, ActivityID: 9, Format: models.FormatKnockout}
	semi1 := decided(1, 1, 1, 2, 1, models.IntPtr(3))
	semi2 := decided(2, 1, 3, 4, 4, models.IntPtr(3))
	final := decided(3, 2, 1, 4, 4, nil)
	final.PreviousMatchIDs = []int{1, 2}
	third := decided(4, 2, 2, 3, 3, nil)
	third.IsThirdPlaceMatch = true
	third.PreviousMatchIDs = []int{1, 2}

	got := DerivePlacements(fixture, nil, []*models.Match{semi1, semi2, final, third})
	assert.Equal(t, []models.Placement{
		{FixtureID: 3, ActivityID: 9, Position: 1, ParticipantID: 4},
		{FixtureID: 3, ActivityID: 9, Position: 2, ParticipantID: 1},
		{FixtureID: 3, ActivityID: 9, Position: 3, ParticipantID: 3},
	}, got)

	// undecided final: nothing yet
	final.Status = models.StatusScheduled
	final.WinnerID = nil
	assert.Empty(t, DerivePlacements(fixture, nil, []*models.Match{semi1, semi2, final, third}))
}

func TestDerivePlacements_League(t *testing.T) {
	fixture := &models.Fixture{ID: 5, ActivityID: 2, Format: models.FormatRoundRobin}
	teams := []*models.Participant{team(1, "A"), team(2, "B"), team(3, "C")}
	matches := []*models.Match{
		played(1, 1, 2, 2, 0),
		played(2, 2, 3, 1, 0),
		played(3, 3, 1, 0, 3),
	}

	got := DerivePlacements(fixture, teams, matches)
	assert.Len(t, got, 3)
	assert.Equal(t, 1, got[0].ParticipantID)
	assert.Equal(t, 2, got[1].ParticipantID)
	assert.Equal(t, 3, got[2].ParticipantID)

	// a pending match blocks the table
	pending := &models.Match{ID: 4, HomeParticipantID: models.IntPtr(1), AwayParticipantID: models.IntPtr(3), Status: models.StatusScheduled}
	assert.Empty(t, DerivePlacements(fixture, teams, append(matches, pending)))

	// cancelled ones do not
	pending.Status = models.StatusCancelled
	assert.Len(t, DerivePlacements(fixture, teams, append(matches, pending)), 3)
}

func TestDerivePlacements_RecordedWinnersOverride(t *testing.T) {
	fixture := &models.Fixture{
		ID:      5,
		Format:  models.FormatRoundRobin,
		Winners: models.FixtureWinners{FirstID: models.IntPtr(3), ThirdID: models.IntPtr(1)},
	}
	got := DerivePlacements(fixture, nil, []*models.Match{played(1, 1, 2, 2, 0)})
	assert.Equal(t, []models.Placement{
		{FixtureID: 5, Position: 1, ParticipantID: 3},
		{FixtureID: 5, Position: 3, ParticipantID: 1},
	}, got)

	assert.Nil(t, DerivePlacements(nil, nil, nil))
}
