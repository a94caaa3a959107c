package brackets

import (
	"fmt"

	"github.com/Dosada05/tournament-dashboard/models"
)

// ResultInput is either a score pair or a list of set scores, plus an optional manual winner.
type ResultInput struct {
	HomeScore *int               `json:"home_score,omitempty"`
	AwayScore *int               `json:"away_score,omitempty"`
	Sets      []models.SetScore  `json:"sets,omitempty"`
	WinnerID  *int               `json:"winner_id,omitempty"`
	Status    models.MatchStatus `json:"status,omitempty"`
}

// Change describes one progression step: the edited match and the matches it wrote into.
type Change struct {
	Match      *models.Match   `json:"match"`
	Propagated []*models.Match `json:"propagated,omitempty"`
}

// SlotRef addresses one side of a match. Expected, when set, must equal the current occupant.
type SlotRef struct {
	MatchID  int         `json:"match_id"`
	Slot     models.Slot `json:"slot"`
	Expected *int        `json:"expected_participant_id,omitempty"`
}

// ApplyResult records a result on a match and, once the match is decided, advances the winner
// into the next match and a semifinal loser into the third-place match.
func ApplyResult(g *Graph, format models.FixtureFormat, matchID int, in ResultInput) (*Change, error) {
	m, err := g.mustMatch(matchID)
	if err != nil {
		return nil, err
	}
	if m.IsBye {
		return nil, fmt.Errorf("%w: match %d is a bye", ErrMatchNotEditable, matchID)
	}

	status := in.Status
	if status == "" {
		status = models.StatusCompleted
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidStatusTransition, status)
	}
	if m.Status == models.StatusCompleted || m.Status == models.StatusWalkover {
		if status == models.StatusScheduled {
			return ReopenMatch(g, matchID)
		}
		return nil, fmt.Errorf("%w: match %d is %s, reopen it first", ErrInvalidStatusTransition, matchID, m.Status)
	}
	// both sides must be known before a match starts
	switch status {
	case models.StatusCompleted, models.StatusWalkover, models.StatusInProgress:
		if m.ParticipantCount() < 2 {
			return nil, fmt.Errorf("%w: match %d", ErrMatchNotReady, matchID)
		}
	}

	homeScore, awayScore := in.HomeScore, in.AwayScore
	var autoWinner *int
	tiedSets := false
	if len(in.Sets) > 0 {
		homeSets, awaySets := CountSets(in.Sets)
		if homeScore == nil {
			homeScore = models.IntPtr(homeSets)
		}
		if awayScore == nil {
			awayScore = models.IntPtr(awaySets)
		}
		switch {
		case homeSets > awaySets:
			autoWinner = m.HomeParticipantID
		case awaySets > homeSets:
			autoWinner = m.AwayParticipantID
		default:
			tiedSets = true
		}
	} else if homeScore != nil && awayScore != nil {
		switch {
		case *homeScore > *awayScore:
			autoWinner = m.HomeParticipantID
		case *awayScore > *homeScore:
			autoWinner = m.AwayParticipantID
		}
	}

	if in.WinnerID != nil {
		if !models.SameID(in.WinnerID, m.HomeParticipantID) && !models.SameID(in.WinnerID, m.AwayParticipantID) {
			return nil, fmt.Errorf("%w: participant %d in match %d", ErrInvalidWinner, *in.WinnerID, matchID)
		}
	}

	var winner *int
	switch status {
	case models.StatusCompleted:
		if len(in.Sets) == 0 && (homeScore == nil || awayScore == nil) && in.WinnerID == nil {
			return nil, fmt.Errorf("%w: match %d", ErrScoresRequired, matchID)
		}
		switch {
		case in.WinnerID != nil:
			winner = in.WinnerID
		case autoWinner != nil:
			winner = autoWinner
		case tiedSets:
			return nil, fmt.Errorf("%w: sets are tied in match %d", ErrAmbiguousResult, matchID)
		case format == models.FormatRoundRobin && homeScore != nil && awayScore != nil:
			// draw
		default:
			return nil, fmt.Errorf("%w: scores are level in match %d", ErrAmbiguousResult, matchID)
		}
	case models.StatusWalkover:
		switch {
		case in.WinnerID != nil:
			winner = in.WinnerID
		case autoWinner != nil:
			winner = autoWinner
		default:
			return nil, fmt.Errorf("%w: walkover in match %d needs a winner", ErrAmbiguousResult, matchID)
		}
	}

	m.Status = status
	m.HomeScore = copyInt(homeScore)
	m.AwayScore = copyInt(awayScore)
	m.Sets = append([]models.SetScore(nil), in.Sets...)
	m.WinnerID = copyInt(winner)
	g.markDirty(m.ID)

	change := &Change{Match: m}
	if m.IsDecided() {
		if err := propagate(g, m); err != nil {
			return nil, err
		}
		change.Propagated = touchedBy(g, m)
	}
	return change, nil
}

// ReopenMatch moves a decided match back to scheduled and clears what it propagated, one hop only.
func ReopenMatch(g *Graph, matchID int) (*Change, error) {
	m, err := g.mustMatch(matchID)
	if err != nil {
		return nil, err
	}
	if m.IsBye {
		return nil, fmt.Errorf("%w: match %d is a bye", ErrMatchNotEditable, matchID)
	}
	if !m.IsDecided() {
		if m.Status == models.StatusCompleted {
			// completed draw: nothing was propagated
			m.Status = models.StatusScheduled
			g.markDirty(m.ID)
			return &Change{Match: m}, nil
		}
		return nil, fmt.Errorf("%w: match %d is %s", ErrInvalidStatusTransition, matchID, m.Status)
	}

	affected := touchedBy(g, m)
	for _, d := range affected {
		if d.HasStarted() {
			return nil, fmt.Errorf("%w: match %d", ErrDownstreamPlayed, d.ID)
		}
	}

	if m.NextMatchID != nil {
		next, err := g.mustMatch(*m.NextMatchID)
		if err != nil {
			return nil, err
		}
		if slot, ok := next.SlotOf(*m.WinnerID); ok {
			next.SetParticipant(slot, nil)
			next.SetPartner(slot, nil)
			g.markDirty(next.ID)
		}
	}
	if tp, idx := g.thirdPlaceFedBy(m.ID); tp != nil {
		slot := models.SlotForIndex(idx)
		tp.SetParticipant(slot, nil)
		tp.SetPartner(slot, nil)
		g.markDirty(tp.ID)
		settleThirdPlace(g, tp)
	}

	m.Status = models.StatusScheduled
	m.WinnerID = nil
	g.markDirty(m.ID)
	return &Change{Match: m, Propagated: affected}, nil
}

// SwapParticipants exchanges the occupants of two first-round slots. Moving into an empty slot is
// the same operation. Partners travel with their participant.
func SwapParticipants(g *Graph, a, b SlotRef) ([]*models.Match, error) {
	if !a.Slot.IsValid() || !b.Slot.IsValid() {
		return nil, ErrInvalidSlot
	}
	if a.MatchID == b.MatchID && a.Slot == b.Slot {
		return nil, nil
	}
	if g.HasPlayedMatches() {
		return nil, ErrFixtureLocked
	}
	ma, err := g.mustMatch(a.MatchID)
	if err != nil {
		return nil, err
	}
	mb, err := g.mustMatch(b.MatchID)
	if err != nil {
		return nil, err
	}
	for _, m := range []*models.Match{ma, mb} {
		if len(m.PreviousMatchIDs) > 0 || m.IsThirdPlaceMatch {
			return nil, fmt.Errorf("%w: match %d is fed by earlier rounds", ErrMatchNotEditable, m.ID)
		}
	}
	if a.Expected != nil && !models.SameID(ma.Participant(a.Slot), a.Expected) {
		return nil, fmt.Errorf("%w: match %d %s", ErrInconsistentSwap, ma.ID, a.Slot)
	}
	if b.Expected != nil && !models.SameID(mb.Participant(b.Slot), b.Expected) {
		return nil, fmt.Errorf("%w: match %d %s", ErrInconsistentSwap, mb.ID, b.Slot)
	}

	pa, partnerA := copyInt(ma.Participant(a.Slot)), copyInt(ma.Partner(a.Slot))
	pb, partnerB := copyInt(mb.Participant(b.Slot)), copyInt(mb.Partner(b.Slot))
	if pa == nil && pb == nil {
		return nil, nil
	}
	ma.SetParticipant(a.Slot, pb)
	ma.SetPartner(a.Slot, partnerB)
	mb.SetParticipant(b.Slot, pa)
	mb.SetPartner(b.Slot, partnerA)
	g.markDirty(ma.ID, mb.ID)

	if err := normalizeEntry(g, ma); err != nil {
		return nil, err
	}
	if mb.ID != ma.ID {
		if err := normalizeEntry(g, mb); err != nil {
			return nil, err
		}
	}
	return g.Dirty(), nil
}

// CanDelete reports whether a match node may be pruned: only empty, unplayed first-round nodes.
func CanDelete(m *models.Match) bool {
	return m.IsEmpty() &&
		!m.IsThirdPlaceMatch &&
		len(m.PreviousMatchIDs) == 0 &&
		m.WinnerID == nil &&
		m.Status != models.StatusCompleted &&
		m.Status != models.StatusInProgress
}

// DeleteMatch prunes an empty node; its parent keeps a single feeder.
func DeleteMatch(g *Graph, matchID int) error {
	m, err := g.mustMatch(matchID)
	if err != nil {
		return err
	}
	if !CanDelete(m) {
		return fmt.Errorf("%w: match %d is not an empty node", ErrMatchNotEditable, matchID)
	}
	if m.NextMatchID != nil {
		if next, ok := g.Match(*m.NextMatchID); ok {
			next.PreviousMatchIDs = removeID(next.PreviousMatchIDs, m.ID)
			g.markDirty(next.ID)
		}
	}
	if tp, _ := g.thirdPlaceFedBy(m.ID); tp != nil {
		tp.PreviousMatchIDs = removeID(tp.PreviousMatchIDs, m.ID)
		g.markDirty(tp.ID)
	}
	g.remove(matchID)
	return nil
}

// EditableMatches lists matches an administrator may act on; bye walkovers are excluded.
func EditableMatches(g *Graph) []*models.Match {
	out := make([]*models.Match, 0, g.Len())
	for _, m := range g.Matches() {
		if m.IsBye {
			continue
		}
		out = append(out, m)
	}
	return out
}

// CountSets returns how many sets each side won. Level sets count for nobody.
func CountSets(sets []models.SetScore) (home, away int) {
	for _, s := range sets {
		switch {
		case s.Home > s.Away:
			home++
		case s.Away > s.Home:
			away++
		}
	}
	return home, away
}

// propagate writes the winner of a decided match into its next match and, for semifinals, the
// loser into the third-place match.
func propagate(g *Graph, m *models.Match) error {
	if !m.IsDecided() {
		return nil
	}
	winnerSlot, _ := m.SlotOf(*m.WinnerID)
	if m.NextMatchID != nil {
		next, err := g.mustMatch(*m.NextMatchID)
		if err != nil {
			return err
		}
		slot, err := feedSlot(next, m.ID, m.WinnerID)
		if err != nil {
			return err
		}
		if next.HasStarted() && !models.SameID(next.Participant(slot), m.WinnerID) {
			return fmt.Errorf("%w: match %d", ErrDownstreamPlayed, next.ID)
		}
		next.SetParticipant(slot, copyInt(m.WinnerID))
		next.SetPartner(slot, copyInt(m.Partner(winnerSlot)))
		g.markDirty(next.ID)
	}
	if tp, idx := g.thirdPlaceFedBy(m.ID); tp != nil {
		slot := models.SlotForIndex(idx)
		loser := m.LoserID()
		var loserPartner *int
		if loser != nil {
			if ls, ok := m.SlotOf(*loser); ok {
				loserPartner = m.Partner(ls)
			}
		}
		if tp.HasStarted() && !models.SameID(tp.Participant(slot), loser) {
			return fmt.Errorf("%w: match %d", ErrDownstreamPlayed, tp.ID)
		}
		tp.SetParticipant(slot, copyInt(loser))
		tp.SetPartner(slot, copyInt(loserPartner))
		g.markDirty(tp.ID)
		settleThirdPlace(g, tp)
	}
	return nil
}

// feedSlot picks the slot of next fed by match fromID. Two feeders map by index; a single feeder
// uses the slot already holding occupant, else the first free slot.
func feedSlot(next *models.Match, fromID int, occupant *int) (models.Slot, error) {
	idx := -1
	for i, id := range next.PreviousMatchIDs {
		if id == fromID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return "", fmt.Errorf("%w: match %d is not fed by match %d", ErrMatchNotFound, next.ID, fromID)
	}
	if len(next.PreviousMatchIDs) >= 2 {
		return models.SlotForIndex(idx), nil
	}
	if occupant != nil {
		if slot, ok := next.SlotOf(*occupant); ok {
			return slot, nil
		}
	}
	if next.HomeParticipantID == nil {
		return models.SlotHome, nil
	}
	if next.AwayParticipantID == nil {
		return models.SlotAway, nil
	}
	return "", fmt.Errorf("%w: match %d has no free slot", ErrInconsistentSwap, next.ID)
}

// settleThirdPlace turns the third-place match into a walkover when every semifinal is decided but
// only one loser exists (the other semifinal was a bye), and undoes that when it no longer holds.
func settleThirdPlace(g *Graph, tp *models.Match) {
	if tp.HasStarted() {
		return
	}
	allDecided := len(tp.PreviousMatchIDs) > 0
	for _, id := range tp.PreviousMatchIDs {
		if semi, ok := g.Match(id); !ok || !semi.IsDecided() {
			allDecided = false
		}
	}
	if allDecided && tp.ParticipantCount() == 1 {
		tp.IsBye = true
		tp.Status = models.StatusWalkover
		if tp.HomeParticipantID != nil {
			tp.WinnerID = copyInt(tp.HomeParticipantID)
		} else {
			tp.WinnerID = copyInt(tp.AwayParticipantID)
		}
	} else if tp.IsBye {
		tp.IsBye = false
		tp.Status = models.StatusScheduled
		tp.WinnerID = nil
	}
	g.markDirty(tp.ID)
}

// normalizeEntry recomputes the bye state of a first-round match after its occupants changed and
// keeps the next match in sync.
func normalizeEntry(g *Graph, m *models.Match) error {
	previousWinner := copyInt(m.WinnerID)
	switch m.ParticipantCount() {
	case 1:
		m.IsBye = true
		m.Status = models.StatusWalkover
		if m.HomeParticipantID != nil {
			m.WinnerID = copyInt(m.HomeParticipantID)
		} else {
			m.WinnerID = copyInt(m.AwayParticipantID)
		}
	default:
		m.IsBye = false
		m.Status = models.StatusScheduled
		m.WinnerID = nil
	}
	m.HomeScore, m.AwayScore, m.Sets = nil, nil, nil
	g.markDirty(m.ID)

	if m.NextMatchID != nil {
		next, err := g.mustMatch(*m.NextMatchID)
		if err != nil {
			return err
		}
		slot, err := feedSlot(next, m.ID, previousWinner)
		if err != nil {
			return err
		}
		next.SetParticipant(slot, copyInt(m.WinnerID))
		var partner *int
		if m.WinnerID != nil {
			if ws, ok := m.SlotOf(*m.WinnerID); ok {
				partner = copyInt(m.Partner(ws))
			}
		}
		next.SetPartner(slot, partner)
		g.markDirty(next.ID)
	}
	if tp, _ := g.thirdPlaceFedBy(m.ID); tp != nil {
		settleThirdPlace(g, tp)
	}
	return nil
}

// touchedBy lists the matches a decided match writes into.
func touchedBy(g *Graph, m *models.Match) []*models.Match {
	var out []*models.Match
	if m.NextMatchID != nil {
		if next, ok := g.Match(*m.NextMatchID); ok {
			out = append(out, next)
		}
	}
	if tp, _ := g.thirdPlaceFedBy(m.ID); tp != nil {
		out = append(out, tp)
	}
	return out
}

func removeID(ids []int, id int) []int {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
