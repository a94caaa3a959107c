package models

import (
	"encoding/json"
	"time"
)

type FixtureFormat string

const (
	FormatKnockout   FixtureFormat = "knockout"
	FormatRoundRobin FixtureFormat = "roundrobin"
)

const (
	DefaultPointsForWin  = 3
	DefaultPointsForDraw = 1
	DefaultPointsForLoss = 0
)

// FixtureSettings are fixed once the bracket has been built.
type FixtureSettings struct {
	ThirdPlaceMatch         bool  `json:"third_place_match"`
	RandomizeSeeds          bool  `json:"randomize_seeds"`
	Seed                    int64 `json:"seed"`
	AvoidSameTeamFirstRound bool  `json:"avoid_same_team_first_round"`
	PointsForWin            *int  `json:"points_for_win,omitempty"`
	PointsForDraw           *int  `json:"points_for_draw,omitempty"`
	PointsForLoss           *int  `json:"points_for_loss,omitempty"`
	NumberOfRounds          int   `json:"number_of_rounds,omitempty"` // 1 for single round-robin, 2 for double
}

// Weights returns the effective win/draw/loss points, falling back to 3/1/0.
func (s FixtureSettings) Weights() (win, draw, loss int) {
	win, draw, loss = DefaultPointsForWin, DefaultPointsForDraw, DefaultPointsForLoss
	if s.PointsForWin != nil {
		win = *s.PointsForWin
	}
	if s.PointsForDraw != nil {
		draw = *s.PointsForDraw
	}
	if s.PointsForLoss != nil {
		loss = *s.PointsForLoss
	}
	return win, draw, loss
}

// FixtureWinners are placements recorded by an administrator. They override derived placements.
type FixtureWinners struct {
	FirstID  *int `json:"first_id,omitempty"`
	SecondID *int `json:"second_id,omitempty"`
	ThirdID  *int `json:"third_id,omitempty"`
}

func (w FixtureWinners) IsRecorded() bool {
	return w.FirstID != nil || w.SecondID != nil || w.ThirdID != nil
}

// Fixture is one competition (knockout or league) of an activity inside an event.
type Fixture struct {
	ID              int             `json:"id" db:"id"`
	EventID         int             `json:"event_id" db:"event_id"`
	ActivityID      int             `json:"activity_id" db:"activity_id"`
	Name            string          `json:"name" db:"name"`
	Format          FixtureFormat   `json:"format" db:"format"`
	ParticipantType ParticipantKind `json:"participant_type" db:"participant_type"`
	IsDoubles       bool            `json:"is_doubles" db:"is_doubles"`
	ParticipantIDs  []int           `json:"participant_ids" db:"-"`
	Settings        FixtureSettings `json:"settings" db:"-"`
	SettingsJSON    *string         `json:"-" db:"settings_json"`
	Winners         FixtureWinners  `json:"winners" db:"-"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`

	Matches []Match `json:"matches,omitempty" db:"-"`
}

// ParseSettings fills Settings from the raw SettingsJSON column.
func (f *Fixture) ParseSettings() error {
	if f.SettingsJSON == nil || *f.SettingsJSON == "" {
		f.Settings = FixtureSettings{}
		return nil
	}
	var settings FixtureSettings
	if err := json.Unmarshal([]byte(*f.SettingsJSON), &settings); err != nil {
		return err
	}
	if settings.NumberOfRounds < 1 || settings.NumberOfRounds > 2 {
		settings.NumberOfRounds = 1
	}
	f.Settings = settings
	return nil
}

// EncodeSettings serializes Settings back into SettingsJSON.
func (f *Fixture) EncodeSettings() error {
	raw, err := json.Marshal(f.Settings)
	if err != nil {
		return err
	}
	s := string(raw)
	f.SettingsJSON = &s
	return nil
}
