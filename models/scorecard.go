package models

// PointTable is the number of scorecard points an activity awards per placement.
type PointTable struct {
	First  int `json:"first" yaml:"first"`
	Second int `json:"second" yaml:"second"`
	Third  int `json:"third" yaml:"third"`
}

// ForPosition returns the points for a 1-based position; positions outside 1..3 score nothing.
func (t PointTable) ForPosition(position int) int {
	switch position {
	case 1:
		return t.First
	case 2:
		return t.Second
	case 3:
		return t.Third
	}
	return 0
}

type Activity struct {
	ID         int        `json:"id" db:"id"`
	EventID    int        `json:"event_id" db:"event_id"`
	Name       string     `json:"name" db:"name"`
	PointTable PointTable `json:"point_table" db:"-"`
}

// Placement is a final position (1..3) of a participant in one fixture.
type Placement struct {
	FixtureID     int `json:"fixture_id"`
	ActivityID    int `json:"activity_id"`
	Position      int `json:"position"`
	ParticipantID int `json:"participant_id"`
}

type ScorecardEntry struct {
	ActivityID   int    `json:"activity_id" yaml:"activity_id"`
	ActivityName string `json:"activity_name,omitempty" yaml:"activity_name,omitempty"`
	FixtureID    int    `json:"fixture_id" yaml:"fixture_id"`
	Position     int    `json:"position" yaml:"position"`
	Points       int    `json:"points" yaml:"points"`
}

type TeamScorecard struct {
	TeamID      int              `json:"team_id" yaml:"team_id"`
	TeamName    string           `json:"team_name" yaml:"team_name"`
	Rank        int              `json:"rank" yaml:"rank"`
	TotalPoints int              `json:"total_points" yaml:"total_points"`
	Breakdown   []ScorecardEntry `json:"breakdown" yaml:"breakdown"`
}
