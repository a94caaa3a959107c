package scoring

import (
	"sort"

	"github.com/Dosada05/tournament-dashboard/models"
)

// ScorecardInput is everything the aggregation needs for one event.
// Participants must cover every placed participant. Team entries are credited to the team they
// represent, players to their team for the event.
type ScorecardInput struct {
	EventID      int
	Teams        []*models.Team
	Activities   []*models.Activity
	Placements   []models.Placement
	Participants map[int]*models.Participant
}

// Unresolved is a placement that could not be credited to any team.
type Unresolved struct {
	Placement models.Placement `json:"placement"`
	Reason    string           `json:"reason"`
}

// AggregateScorecard credits each placement with its activity's points and ranks the teams by
// total, then by number of firsts, seconds and thirds, then by name. Every team of the event is
// listed, including those without points.
func AggregateScorecard(in ScorecardInput) ([]models.TeamScorecard, []Unresolved) {
	activities := make(map[int]*models.Activity, len(in.Activities))
	for _, a := range in.Activities {
		activities[a.ID] = a
	}

	cards := make(map[int]*models.TeamScorecard, len(in.Teams))
	medals := make(map[int]*[3]int, len(in.Teams))
	card := func(teamID int, name string) *models.TeamScorecard {
		if c, ok := cards[teamID]; ok {
			return c
		}
		c := &models.TeamScorecard{TeamID: teamID, TeamName: name, Breakdown: []models.ScorecardEntry{}}
		cards[teamID] = c
		medals[teamID] = &[3]int{}
		return c
	}
	eventTeams := make(map[int]bool, len(in.Teams))
	for _, t := range in.Teams {
		card(t.ID, t.Name)
		eventTeams[t.ID] = true
	}

	var unresolved []Unresolved
	for _, p := range in.Placements {
		activity, ok := activities[p.ActivityID]
		if !ok {
			unresolved = append(unresolved, Unresolved{Placement: p, Reason: "activity not found"})
			continue
		}
		participant := in.Participants[p.ParticipantID]
		teamID, ok := participant.CreditedTeam(in.EventID)
		switch {
		case !ok && participant != nil && participant.Kind == models.ParticipantTeam:
			unresolved = append(unresolved, Unresolved{Placement: p, Reason: "team entry is not linked to a team"})
			continue
		case !ok:
			unresolved = append(unresolved, Unresolved{Placement: p, Reason: "participant has no team for the event"})
			continue
		case participant.Kind == models.ParticipantTeam && !eventTeams[teamID]:
			unresolved = append(unresolved, Unresolved{Placement: p, Reason: "team does not belong to the event"})
			continue
		}
		c := card(teamID, "")
		points := activity.PointTable.ForPosition(p.Position)
		c.Breakdown = append(c.Breakdown, models.ScorecardEntry{
			ActivityID:   activity.ID,
			ActivityName: activity.Name,
			FixtureID:    p.FixtureID,
			Position:     p.Position,
			Points:       points,
		})
		c.TotalPoints += points
		if p.Position >= 1 && p.Position <= 3 {
			medals[teamID][p.Position-1]++
		}
	}

	out := make([]models.TeamScorecard, 0, len(cards))
	for _, c := range cards {
		sort.SliceStable(c.Breakdown, func(i, j int) bool {
			a, b := c.Breakdown[i], c.Breakdown[j]
			if a.ActivityID != b.ActivityID {
				return a.ActivityID < b.ActivityID
			}
			if a.FixtureID != b.FixtureID {
				return a.FixtureID < b.FixtureID
			}
			return a.Position < b.Position
		})
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.TotalPoints != b.TotalPoints {
			return a.TotalPoints > b.TotalPoints
		}
		ma, mb := medals[a.TeamID], medals[b.TeamID]
		for k := 0; k < 3; k++ {
			if ma[k] != mb[k] {
				return ma[k] > mb[k]
			}
		}
		if a.TeamName != b.TeamName {
			return a.TeamName < b.TeamName
		}
		return a.TeamID < b.TeamID
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out, unresolved
}
