package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/tournament-dashboard/models"
)

// SQLExecutor is satisfied by both *sql.DB and *sql.Tx.
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

var (
	ErrEventNotFound       = errors.New("event not found")
	ErrFixtureNotFound     = errors.New("fixture not found")
	ErrMatchNotFound       = errors.New("match not found")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrTeamNotFound        = errors.New("team not found")
	ErrActivityNotFound    = errors.New("activity not found")

	// ErrMatchVersionConflict means the row changed since it was read.
	ErrMatchVersionConflict = errors.New("match was modified concurrently")
	ErrMatchUIDConflict     = errors.New("bracket match uid already exists in fixture")
	ErrReadOnlyTx           = errors.New("write attempted in a read-only transaction")
)

type EventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id int) (*models.Event, error)
}

type FixtureRepository interface {
	Create(ctx context.Context, fixture *models.Fixture) error
	GetByID(ctx context.Context, id int) (*models.Fixture, error)
	ListByEvent(ctx context.Context, eventID int) ([]*models.Fixture, error)
	UpdateSettings(ctx context.Context, fixtureID int, settings models.FixtureSettings) error
	// SetParticipants replaces the seeding order of a fixture.
	SetParticipants(ctx context.Context, fixtureID int, participantIDs []int) error
	UpdateWinners(ctx context.Context, fixtureID int, winners models.FixtureWinners) error
}

type MatchRepository interface {
	// Create assigns ID and sets Version to 1. Links are written separately with UpdateLinks.
	Create(ctx context.Context, match *models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	ListByFixture(ctx context.Context, fixtureID int) ([]*models.Match, error)
	// Update writes every mutable column if match.Version is still current and bumps Version.
	Update(ctx context.Context, match *models.Match) error
	UpdateLinks(ctx context.Context, matchID int, nextMatchID *int, previousMatchIDs []int) error
	Delete(ctx context.Context, id int) error
	DeleteByFixture(ctx context.Context, fixtureID int) error
}

type ParticipantRepository interface {
	Create(ctx context.Context, participant *models.Participant) error
	AddMembership(ctx context.Context, participantID int, membership models.TeamMembership) error
	GetByID(ctx context.Context, id int) (*models.Participant, error)
	// ListByIDs keeps the order of ids; unknown ids are reported with ErrParticipantNotFound.
	ListByIDs(ctx context.Context, ids []int) ([]*models.Participant, error)
	ListPlayersByEvent(ctx context.Context, eventID int) ([]*models.Participant, error)
}

type TeamRepository interface {
	Create(ctx context.Context, team *models.Team) error
	ListByEvent(ctx context.Context, eventID int) ([]*models.Team, error)
}

type ActivityRepository interface {
	Create(ctx context.Context, activity *models.Activity) error
	ListByEvent(ctx context.Context, eventID int) ([]*models.Activity, error)
}

// Repositories is the set of repositories bound to one transaction.
type Repositories struct {
	Events       EventRepository
	Fixtures     FixtureRepository
	Matches      MatchRepository
	Participants ParticipantRepository
	Teams        TeamRepository
	Activities   ActivityRepository
}

type TxOptions struct {
	// ReadOnly runs fn against a consistent snapshot; writes fail.
	ReadOnly bool
}

// Store runs fn inside a transaction. The transaction commits when fn returns nil and rolls back
// on error or panic.
type Store interface {
	WithinTx(ctx context.Context, opts TxOptions, fn func(repos Repositories) error) error
}
