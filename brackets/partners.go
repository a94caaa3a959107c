package brackets

import (
	"sort"

	"github.com/Dosada05/tournament-dashboard/models"
)

// PartnerQuery asks which teammates may partner Participant in a doubles fixture.
// Roster is every player known for the event. MatchID and Side identify the slot being edited;
// with no MatchID every slot the participant holds on Side counts as being edited.
type PartnerQuery struct {
	EventID     int
	Participant *models.Participant
	Roster      []*models.Participant
	Matches     []*models.Match
	MatchID     *int
	Side        models.Slot
}

// EligiblePartners returns the teammates not yet used anywhere in the fixture, ordered by name then id.
// The partner already assigned to the edited slot stays eligible.
func EligiblePartners(q PartnerQuery) []*models.Participant {
	if q.Participant == nil {
		return nil
	}
	membership := q.Participant.MembershipFor(q.EventID)
	if membership == nil {
		return []*models.Participant{}
	}

	used := make(map[int]bool)
	keep := make(map[int]bool)
	for _, m := range q.Matches {
		for _, slot := range []models.Slot{models.SlotHome, models.SlotAway} {
			main, partner := m.Participant(slot), m.Partner(slot)
			if main != nil {
				used[*main] = true
			}
			if partner == nil {
				continue
			}
			used[*partner] = true
			if main != nil && *main == q.Participant.ID && isEditedSlot(q, m, slot) {
				keep[*partner] = true
			}
		}
	}

	out := make([]*models.Participant, 0)
	seen := make(map[int]bool)
	for _, p := range q.Roster {
		if p == nil || p.ID == q.Participant.ID || seen[p.ID] {
			continue
		}
		pm := p.MembershipFor(q.EventID)
		if pm == nil || pm.TeamID != membership.TeamID {
			continue
		}
		if used[p.ID] && !keep[p.ID] {
			continue
		}
		seen[p.ID] = true
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// IsEligiblePartner reports whether candidateID is in the eligible set.
func IsEligiblePartner(q PartnerQuery, candidateID int) bool {
	for _, p := range EligiblePartners(q) {
		if p.ID == candidateID {
			return true
		}
	}
	return false
}

func isEditedSlot(q PartnerQuery, m *models.Match, slot models.Slot) bool {
	if q.MatchID != nil && *q.MatchID != m.ID {
		return false
	}
	return q.Side == "" || q.Side == slot
}

// AssignPartner writes partnerID next to participantID in every match of the graph that has not
// started yet. A nil partnerID clears the pairing. It returns the matches it changed.
func AssignPartner(g *Graph, participantID int, partnerID *int) []*models.Match {
	var changed []*models.Match
	for _, m := range g.matches {
		slot, ok := m.SlotOf(participantID)
		if !ok || m.HasStarted() {
			continue
		}
		if models.SameID(m.Partner(slot), partnerID) {
			continue
		}
		m.SetPartner(slot, copyInt(partnerID))
		g.markDirty(m.ID)
		changed = append(changed, m)
	}
	SortMatches(changed)
	return changed
}
