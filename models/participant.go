package models

// ParticipantKind distinguishes solo players from whole teams entered into a fixture.
type ParticipantKind string

const (
	ParticipantPlayer ParticipantKind = "player"
	ParticipantTeam   ParticipantKind = "team"
)

// TeamMembership links a player to a team for one event.
type TeamMembership struct {
	TeamID  int    `json:"team_id" db:"team_id"`
	EventID int    `json:"event_id" db:"event_id"`
	Role    string `json:"role,omitempty" db:"role"`
}

// Participant is either a player or a team. Memberships are only populated for players,
// TeamID only for team entries.
type Participant struct {
	ID          int              `json:"id" db:"id"`
	Kind        ParticipantKind  `json:"kind" db:"kind"`
	Name        string           `json:"name" db:"name"`
	TeamID      *int             `json:"team_id,omitempty" db:"team_id"`
	Memberships []TeamMembership `json:"team_memberships,omitempty" db:"-"`
}

func (p *Participant) IsPlayer() bool {
	return p != nil && p.Kind == ParticipantPlayer
}

// MembershipFor returns the player's team membership for the given event, or nil.
func (p *Participant) MembershipFor(eventID int) *TeamMembership {
	if p == nil {
		return nil
	}
	for i := range p.Memberships {
		if p.Memberships[i].EventID == eventID {
			return &p.Memberships[i]
		}
	}
	return nil
}

// CreditedTeam returns the team a placement of this participant counts for: the entered team
// itself for team entries, the player's team for the event otherwise.
func (p *Participant) CreditedTeam(eventID int) (int, bool) {
	if p == nil {
		return 0, false
	}
	if p.Kind == ParticipantTeam {
		if p.TeamID == nil {
			return 0, false
		}
		return *p.TeamID, true
	}
	if m := p.MembershipFor(eventID); m != nil {
		return m.TeamID, true
	}
	return 0, false
}

// SharesTeamWith reports whether both players belong to the same team for the event.
func (p *Participant) SharesTeamWith(other *Participant, eventID int) bool {
	a, b := p.MembershipFor(eventID), other.MembershipFor(eventID)
	return a != nil && b != nil && a.TeamID == b.TeamID
}
