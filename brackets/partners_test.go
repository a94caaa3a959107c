package brackets

import (
	"testing"

	"github.com/Dosada05/tournament-dashboard/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func player(id int, name string, teamID int) *models.Participant {
	return &models.Participant{
		ID:          id,
		Kind:        models.ParticipantPlayer,
		Name:        name,
		Memberships: []models.TeamMembership{{TeamID: teamID, EventID: 1}},
	}
}

func names(ps []*models.Participant) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Name)
	}
	return out
}

// ann has two teammates, bob already partners eve elsewhere in the fixture.
func partnerFixture() (ann *models.Participant, roster []*models.Participant, matches []*models.Match) {
	ann = player(1, "Ann", 10)
	roster = []*models.Participant{
		ann,
		player(2, "Bob", 10),
		player(3, "Cid", 10),
		player(4, "Dan", 20),
		player(5, "Eve", 10),
	}
	matches = []*models.Match{
		{ID: 100, HomeParticipantID: models.IntPtr(5), HomePartnerID: models.IntPtr(2), AwayParticipantID: models.IntPtr(4)},
		{ID: 101, HomeParticipantID: models.IntPtr(1), AwayParticipantID: models.IntPtr(6)},
	}
	return ann, roster, matches
}

func TestEligiblePartners_OnlyUnusedTeammates(t *testing.T) {
	ann, roster, matches := partnerFixture()

	eligible := EligiblePartners(PartnerQuery{
		EventID:     1,
		Participant: ann,
		Roster:      roster,
		Matches:     matches,
		MatchID:     models.IntPtr(101),
		Side:        models.SlotHome,
	})
	assert.Equal(t, []string{"Cid"}, names(eligible))
}

func TestEligiblePartners_CurrentPartnerStaysEligible(t *testing.T) {
	ann, roster, matches := partnerFixture()
	matches[1].HomePartnerID = models.IntPtr(3)

	q := PartnerQuery{EventID: 1, Participant: ann, Roster: roster, Matches: matches, MatchID: models.IntPtr(101), Side: models.SlotHome}
	assert.Equal(t, []string{"Cid"}, names(EligiblePartners(q)))
	assert.True(t, IsEligiblePartner(q, 3))
	assert.False(t, IsEligiblePartner(q, 2))

	// editing another slot: cid is taken there
	q.MatchID = models.IntPtr(100)
	assert.Empty(t, EligiblePartners(q))
}

func TestEligiblePartners_SortedByNameThenID(t *testing.T) {
	ann := player(1, "Ann", 10)
	roster := []*models.Participant{ann, player(9, "Zed", 10), player(8, "Amy", 10), player(7, "Zed", 10), player(7, "Zed", 10)}

	eligible := EligiblePartners(PartnerQuery{EventID: 1, Participant: ann, Roster: roster})
	require.Len(t, eligible, 3)
	assert.Equal(t, 8, eligible[0].ID)
	assert.Equal(t, 7, eligible[1].ID)
	assert.Equal(t, 9, eligible[2].ID)
}

func TestEligiblePartners_NoMembership(t *testing.T) {
	loner := &models.Participant{ID: 1, Kind: models.ParticipantPlayer, Name: "Solo"}
	_, roster, matches := partnerFixture()

	eligible := EligiblePartners(PartnerQuery{EventID: 1, Participant: loner, Roster: roster, Matches: matches})
	assert.NotNil(t, eligible)
	assert.Empty(t, eligible)

	// membership of another event does not count
	ann := player(1, "Ann", 10)
	assert.Empty(t, EligiblePartners(PartnerQuery{EventID: 2, Participant: ann, Roster: roster}))
}

func TestAssignPartner_SkipsStartedMatches(t *testing.T) {
	g := NewGraph([]*models.Match{
		{ID: 1, Round: 1, MatchNumber: 1, HomeParticipantID: models.IntPtr(1), AwayParticipantID: models.IntPtr(2), Status: models.StatusCompleted, WinnerID: models.IntPtr(1)},
		{ID: 2, Round: 2, MatchNumber: 1, AwayParticipantID: models.IntPtr(1), Status: models.StatusScheduled},
		{ID: 3, Round: 2, MatchNumber: 2, HomeParticipantID: models.IntPtr(3), Status: models.StatusScheduled},
	})

	changed := AssignPartner(g, 1, models.IntPtr(5))
	require.Len(t, changed, 1)
	assert.Equal(t, 2, changed[0].ID)
	assert.Equal(t, 5, *changed[0].AwayPartnerID)

	m1, _ := g.Match(1)
	assert.Nil(t, m1.HomePartnerID)

	// same partner again changes nothing
	assert.Empty(t, AssignPartner(g, 1, models.IntPtr(5)))

	cleared := AssignPartner(g, 1, nil)
	require.Len(t, cleared, 1)
	assert.Nil(t, cleared[0].AwayPartnerID)
}
