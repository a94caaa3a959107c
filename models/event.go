package models

// Event groups the activities, fixtures and teams of one sports day.
type Event struct {
	ID   int    `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}
