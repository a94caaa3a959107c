// Package scoring derives league tables, final placements and cross-activity team scorecards
// from match data. Nothing here is persisted; every result is recomputed on demand.
package scoring

import (
	"sort"

	"github.com/Dosada05/tournament-dashboard/models"
)

// CalculateStandings builds the league table of a round-robin fixture. Every participant gets a
// row even without games. Only completed matches and forfeits with both sides present count.
//
// Rows are ordered by points, goal difference, goals for and wins (all descending), then by name
// and participant id.
func CalculateStandings(participants []*models.Participant, matches []*models.Match, settings models.FixtureSettings) []models.StandingRow {
	win, draw, loss := settings.Weights()

	rows := make(map[int]*models.StandingRow, len(participants))
	order := make([]int, 0, len(participants))
	row := func(id int) *models.StandingRow {
		if r, ok := rows[id]; ok {
			return r
		}
		r := &models.StandingRow{ParticipantID: id}
		rows[id] = r
		order = append(order, id)
		return r
	}
	for _, p := range participants {
		if p == nil {
			continue
		}
		row(p.ID).Name = p.Name
	}

	for _, m := range matches {
		if !counts(m) {
			continue
		}
		home, away := row(*m.HomeParticipantID), row(*m.AwayParticipantID)
		hs, as := scoreOf(m.HomeScore), scoreOf(m.AwayScore)

		home.Played++
		away.Played++
		home.GoalsFor += hs
		home.GoalsAgainst += as
		away.GoalsFor += as
		away.GoalsAgainst += hs

		switch winnerSide(m, hs, as) {
		case models.SlotHome:
			home.Won++
			away.Lost++
		case models.SlotAway:
			away.Won++
			home.Lost++
		default:
			home.Drawn++
			away.Drawn++
		}
	}

	out := make([]models.StandingRow, 0, len(rows))
	for _, id := range order {
		r := rows[id]
		r.GoalDifference = r.GoalsFor - r.GoalsAgainst
		r.Points = r.Won*win + r.Drawn*draw + r.Lost*loss
		out = append(out, *r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.Points != b.Points:
			return a.Points > b.Points
		case a.GoalDifference != b.GoalDifference:
			return a.GoalDifference > b.GoalDifference
		case a.GoalsFor != b.GoalsFor:
			return a.GoalsFor > b.GoalsFor
		case a.Won != b.Won:
			return a.Won > b.Won
		case a.Name != b.Name:
			return a.Name < b.Name
		}
		return a.ParticipantID < b.ParticipantID
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

func counts(m *models.Match) bool {
	if m == nil || m.IsBye || m.HomeParticipantID == nil || m.AwayParticipantID == nil {
		return false
	}
	return m.Status == models.StatusCompleted || m.Status == models.StatusWalkover
}

// winnerSide prefers the recorded winner and falls back to the score. Empty means a draw.
func winnerSide(m *models.Match, hs, as int) models.Slot {
	if m.WinnerID != nil {
		if slot, ok := m.SlotOf(*m.WinnerID); ok {
			return slot
		}
	}
	switch {
	case hs > as:
		return models.SlotHome
	case as > hs:
		return models.SlotAway
	}
	return ""
}

func scoreOf(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
