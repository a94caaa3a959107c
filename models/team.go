package models

type Team struct {
	ID      int    `json:"id" db:"id"`
	EventID int    `json:"event_id" db:"event_id"`
	Name    string `json:"name" db:"name"`
}
