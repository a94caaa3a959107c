package models

// StandingRow is a derived league-table row. It is recomputed from matches on every query.
type StandingRow struct {
	ParticipantID  int    `json:"participant_id"`
	Name           string `json:"name"`
	Rank           int    `json:"rank"`
	Played         int    `json:"played"`
	Won            int    `json:"won"`
	Drawn          int    `json:"drawn"`
	Lost           int    `json:"lost"`
	GoalsFor       int    `json:"goals_for"`
	GoalsAgainst   int    `json:"goals_against"`
	GoalDifference int    `json:"goal_difference"`
	Points         int    `json:"points"`
}
