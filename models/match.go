package models

import "time"

type MatchStatus string

const (
	StatusScheduled  MatchStatus = "scheduled"
	StatusInProgress MatchStatus = "in_progress"
	StatusCompleted  MatchStatus = "completed"
	StatusWalkover   MatchStatus = "walkover"
	StatusPostponed  MatchStatus = "postponed"
	StatusCancelled  MatchStatus = "cancelled"
)

func (s MatchStatus) IsValid() bool {
	switch s {
	case StatusScheduled, StatusInProgress, StatusCompleted, StatusWalkover, StatusPostponed, StatusCancelled:
		return true
	}
	return false
}

// Slot is the side of a match a participant occupies.
type Slot string

const (
	SlotHome Slot = "home"
	SlotAway Slot = "away"
)

func (s Slot) IsValid() bool {
	return s == SlotHome || s == SlotAway
}

// SlotForIndex maps a PreviousMatchIDs index onto a slot: 0 -> home, 1 -> away.
func SlotForIndex(i int) Slot {
	if i == 0 {
		return SlotHome
	}
	return SlotAway
}

type SetScore struct {
	Home int `json:"home"`
	Away int `json:"away"`
}

type Match struct {
	ID                int         `json:"id" db:"id"`
	FixtureID         int         `json:"fixture_id" db:"fixture_id"`
	UID               string      `json:"uid" db:"bracket_match_uid"`
	Round             int         `json:"round" db:"round"`
	MatchNumber       int         `json:"match_number" db:"match_number"`
	HomeParticipantID *int        `json:"home_participant_id" db:"home_participant_id"`
	AwayParticipantID *int        `json:"away_participant_id" db:"away_participant_id"`
	HomePartnerID     *int        `json:"home_partner_id,omitempty" db:"home_partner_id"`
	AwayPartnerID     *int        `json:"away_partner_id,omitempty" db:"away_partner_id"`
	HomeScore         *int        `json:"home_score,omitempty" db:"home_score"`
	AwayScore         *int        `json:"away_score,omitempty" db:"away_score"`
	Sets              []SetScore  `json:"sets,omitempty" db:"sets_json"`
	WinnerID          *int        `json:"winner_id,omitempty" db:"winner_participant_id"`
	Status            MatchStatus `json:"status" db:"status"`
	NextMatchID       *int        `json:"next_match_id" db:"next_match_id"`
	PreviousMatchIDs  []int       `json:"previous_match_ids" db:"previous_match_ids"`
	IsThirdPlaceMatch bool        `json:"is_third_place_match" db:"is_third_place_match"`
	IsBye             bool        `json:"is_bye" db:"is_bye"`
	Version           int         `json:"version" db:"version"`
	UpdatedAt         time.Time   `json:"updated_at" db:"updated_at"`
}

func (m *Match) Participant(slot Slot) *int {
	if slot == SlotHome {
		return m.HomeParticipantID
	}
	return m.AwayParticipantID
}

func (m *Match) SetParticipant(slot Slot, id *int) {
	if slot == SlotHome {
		m.HomeParticipantID = id
	} else {
		m.AwayParticipantID = id
	}
}

func (m *Match) Partner(slot Slot) *int {
	if slot == SlotHome {
		return m.HomePartnerID
	}
	return m.AwayPartnerID
}

func (m *Match) SetPartner(slot Slot, id *int) {
	if slot == SlotHome {
		m.HomePartnerID = id
	} else {
		m.AwayPartnerID = id
	}
}

// SlotOf returns the slot the participant occupies in this match.
func (m *Match) SlotOf(participantID int) (Slot, bool) {
	if m.HomeParticipantID != nil && *m.HomeParticipantID == participantID {
		return SlotHome, true
	}
	if m.AwayParticipantID != nil && *m.AwayParticipantID == participantID {
		return SlotAway, true
	}
	return "", false
}

func (m *Match) ParticipantCount() int {
	n := 0
	if m.HomeParticipantID != nil {
		n++
	}
	if m.AwayParticipantID != nil {
		n++
	}
	return n
}

func (m *Match) IsEmpty() bool {
	return m.ParticipantCount() == 0
}

// IsDecided reports whether the match has produced a result that can be propagated.
func (m *Match) IsDecided() bool {
	return (m.Status == StatusCompleted || m.Status == StatusWalkover) && m.WinnerID != nil
}

// LoserID returns the participant that did not win, if the match is decided and had two sides.
func (m *Match) LoserID() *int {
	if !m.IsDecided() || m.HomeParticipantID == nil || m.AwayParticipantID == nil {
		return nil
	}
	if *m.WinnerID == *m.HomeParticipantID {
		return m.AwayParticipantID
	}
	return m.HomeParticipantID
}

// HasStarted is true for matches that lock the structure of a bracket.
func (m *Match) HasStarted() bool {
	if m.IsBye {
		return false
	}
	return m.Status == StatusCompleted || m.Status == StatusInProgress || m.Status == StatusWalkover
}

// Clone returns a deep copy so graph edits never alias stored rows.
func (m *Match) Clone() *Match {
	c := *m
	c.HomeParticipantID = cloneInt(m.HomeParticipantID)
	c.AwayParticipantID = cloneInt(m.AwayParticipantID)
	c.HomePartnerID = cloneInt(m.HomePartnerID)
	c.AwayPartnerID = cloneInt(m.AwayPartnerID)
	c.HomeScore = cloneInt(m.HomeScore)
	c.AwayScore = cloneInt(m.AwayScore)
	c.WinnerID = cloneInt(m.WinnerID)
	c.NextMatchID = cloneInt(m.NextMatchID)
	if m.Sets != nil {
		c.Sets = append([]SetScore(nil), m.Sets...)
	}
	if m.PreviousMatchIDs != nil {
		c.PreviousMatchIDs = append([]int(nil), m.PreviousMatchIDs...)
	}
	return &c
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// IntPtr is a small helper for optional ids.
func IntPtr(v int) *int {
	return &v
}

// SameID compares two optional ids.
func SameID(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
