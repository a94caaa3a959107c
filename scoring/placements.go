package scoring

import (
	"github.com/Dosada05/tournament-dashboard/brackets"
	"github.com/Dosada05/tournament-dashboard/models"
)

// DerivePlacements returns the 1st to 3rd places of a fixture. Winners recorded on the fixture
// always win. Otherwise a knockout is read from its final and third-place match, and a league from
// its table once every match that is not cancelled has been played. Unknown places are omitted.
func DerivePlacements(fixture *models.Fixture, participants []*models.Participant, matches []*models.Match) []models.Placement {
	if fixture == nil {
		return nil
	}
	if fixture.Winners.IsRecorded() {
		return placementsOf(fixture, fixture.Winners.FirstID, fixture.Winners.SecondID, fixture.Winners.ThirdID)
	}

	switch fixture.Format {
	case models.FormatKnockout:
		return knockoutPlacements(fixture, matches)
	case models.FormatRoundRobin:
		return leaguePlacements(fixture, participants, matches)
	}
	return nil
}

func knockoutPlacements(fixture *models.Fixture, matches []*models.Match) []models.Placement {
	g := brackets.NewGraph(matches)
	final := g.Final()
	if final == nil || !final.IsDecided() {
		return nil
	}
	var third *int
	if tp := g.ThirdPlaceMatch(); tp != nil && tp.IsDecided() {
		third = tp.WinnerID
	}
	return placementsOf(fixture, final.WinnerID, final.LoserID(), third)
}

func leaguePlacements(fixture *models.Fixture, participants []*models.Participant, matches []*models.Match) []models.Placement {
	played := 0
	for _, m := range matches {
		switch m.Status {
		case models.StatusCancelled:
			continue
		case models.StatusCompleted, models.StatusWalkover:
			played++
		default:
			return nil
		}
	}
	if played == 0 {
		return nil
	}
	table := CalculateStandings(participants, matches, fixture.Settings)
	var ids [3]*int
	for i := 0; i < len(table) && i < 3; i++ {
		ids[i] = models.IntPtr(table[i].ParticipantID)
	}
	return placementsOf(fixture, ids[0], ids[1], ids[2])
}

func placementsOf(fixture *models.Fixture, ids ...*int) []models.Placement {
	out := make([]models.Placement, 0, len(ids))
	for i, id := range ids {
		if id == nil {
			continue
		}
		out = append(out, models.Placement{
			FixtureID:     fixture.ID,
			ActivityID:    fixture.ActivityID,
			Position:      i + 1,
			ParticipantID: *id,
		})
	}
	return out
}
