package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-dashboard/models"
	"github.com/lib/pq"
)

type postgresFixtureRepository struct {
	exec SQLExecutor
}

func NewPostgresFixtureRepository(exec SQLExecutor) FixtureRepository {
	return &postgresFixtureRepository{exec: exec}
}

var fixtureConstraintErrors = map[string]error{
	"fixtures_event_id_fkey":                   ErrEventNotFound,
	"fixtures_activity_id_fkey":                ErrActivityNotFound,
	"fixtures_first_participant_id_fkey":       ErrParticipantNotFound,
	"fixtures_second_participant_id_fkey":      ErrParticipantNotFound,
	"fixtures_third_participant_id_fkey":       ErrParticipantNotFound,
	"fixture_participants_fixture_id_fkey":     ErrFixtureNotFound,
	"fixture_participants_participant_id_fkey": ErrParticipantNotFound,
}

const fixtureColumns = `
	id, event_id, activity_id, name, format, participant_type, is_doubles, settings_json,
	first_participant_id, second_participant_id, third_participant_id, created_at`

func (r *postgresFixtureRepository) Create(ctx context.Context, fixture *models.Fixture) error {
	if err := fixture.EncodeSettings(); err != nil {
		return fmt.Errorf("failed to encode fixture settings: %w", err)
	}
	query := `
		INSERT INTO fixtures (event_id, activity_id, name, format, participant_type, is_doubles, settings_json)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`
	err := r.exec.QueryRowContext(ctx, query,
		fixture.EventID,
		fixture.ActivityID,
		fixture.Name,
		fixture.Format,
		fixture.ParticipantType,
		fixture.IsDoubles,
		fixture.SettingsJSON,
	).Scan(&fixture.ID, &fixture.CreatedAt)
	if err != nil {
		return mapConstraintError(err, fixtureConstraintErrors)
	}
	if len(fixture.ParticipantIDs) > 0 {
		return r.SetParticipants(ctx, fixture.ID, fixture.ParticipantIDs)
	}
	return nil
}

func (r *postgresFixtureRepository) GetByID(ctx context.Context, id int) (*models.Fixture, error) {
	query := `SELECT ` + fixtureColumns + ` FROM fixtures WHERE id = $1`
	fixture, err := scanFixture(r.exec.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFixtureNotFound
		}
		return nil, fmt.Errorf("failed to scan fixture %d: %w", id, err)
	}
	if err := r.loadParticipantIDs(ctx, []*models.Fixture{fixture}); err != nil {
		return nil, err
	}
	return fixture, nil
}

func (r *postgresFixtureRepository) ListByEvent(ctx context.Context, eventID int) ([]*models.Fixture, error) {
	query := `SELECT ` + fixtureColumns + ` FROM fixtures WHERE event_id = $1 ORDER BY id ASC`
	rows, err := r.exec.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query fixtures for event %d: %w", eventID, err)
	}
	defer rows.Close()

	fixtures := make([]*models.Fixture, 0)
	for rows.Next() {
		fixture, scanErr := scanFixture(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan fixture row: %w", scanErr)
		}
		fixtures = append(fixtures, fixture)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during fixture rows iteration: %w", err)
	}
	if err := r.loadParticipantIDs(ctx, fixtures); err != nil {
		return nil, err
	}
	return fixtures, nil
}

func (r *postgresFixtureRepository) UpdateSettings(ctx context.Context, fixtureID int, settings models.FixtureSettings) error {
	f := &models.Fixture{Settings: settings}
	if err := f.EncodeSettings(); err != nil {
		return fmt.Errorf("failed to encode fixture settings: %w", err)
	}
	result, err := r.exec.ExecContext(ctx, `UPDATE fixtures SET settings_json = $1 WHERE id = $2`, f.SettingsJSON, fixtureID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrFixtureNotFound)
}

func (r *postgresFixtureRepository) SetParticipants(ctx context.Context, fixtureID int, participantIDs []int) error {
	if _, err := r.exec.ExecContext(ctx, `DELETE FROM fixture_participants WHERE fixture_id = $1`, fixtureID); err != nil {
		return fmt.Errorf("failed to clear participants of fixture %d: %w", fixtureID, err)
	}
	if len(participantIDs) == 0 {
		return nil
	}
	// seed = позиция в массиве
	query := `
		INSERT INTO fixture_participants (fixture_id, participant_id, seed)
		SELECT $1, p.id, p.seed
		FROM unnest($2::int[]) WITH ORDINALITY AS p(id, seed)`
	if _, err := r.exec.ExecContext(ctx, query, fixtureID, pq.Array(toInt64s(participantIDs))); err != nil {
		return mapConstraintError(err, fixtureConstraintErrors)
	}
	return nil
}

func (r *postgresFixtureRepository) UpdateWinners(ctx context.Context, fixtureID int, winners models.FixtureWinners) error {
	query := `
		UPDATE fixtures
		SET first_participant_id = $1, second_participant_id = $2, third_participant_id = $3
		WHERE id = $4`
	result, err := r.exec.ExecContext(ctx, query, winners.FirstID, winners.SecondID, winners.ThirdID, fixtureID)
	if err != nil {
		return mapConstraintError(err, fixtureConstraintErrors)
	}
	return checkAffectedRows(result, ErrFixtureNotFound)
}

func (r *postgresFixtureRepository) loadParticipantIDs(ctx context.Context, fixtures []*models.Fixture) error {
	if len(fixtures) == 0 {
		return nil
	}
	byID := make(map[int]*models.Fixture, len(fixtures))
	ids := make([]int, 0, len(fixtures))
	for _, f := range fixtures {
		f.ParticipantIDs = []int{}
		byID[f.ID] = f
		ids = append(ids, f.ID)
	}

	query := `
		SELECT fixture_id, participant_id
		FROM fixture_participants
		WHERE fixture_id = ANY($1)
		ORDER BY fixture_id ASC, seed ASC`
	rows, err := r.exec.QueryContext(ctx, query, pq.Array(toInt64s(ids)))
	if err != nil {
		return fmt.Errorf("failed to query fixture participants: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var fixtureID, participantID int
		if err := rows.Scan(&fixtureID, &participantID); err != nil {
			return fmt.Errorf("failed to scan fixture participant: %w", err)
		}
		if f, ok := byID[fixtureID]; ok {
			f.ParticipantIDs = append(f.ParticipantIDs, participantID)
		}
	}
	return rows.Err()
}

func scanFixture(row rowScanner) (*models.Fixture, error) {
	var fixture models.Fixture
	err := row.Scan(
		&fixture.ID,
		&fixture.EventID,
		&fixture.ActivityID,
		&fixture.Name,
		&fixture.Format,
		&fixture.ParticipantType,
		&fixture.IsDoubles,
		&fixture.SettingsJSON,
		&fixture.Winners.FirstID,
		&fixture.Winners.SecondID,
		&fixture.Winners.ThirdID,
		&fixture.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := fixture.ParseSettings(); err != nil {
		return nil, fmt.Errorf("invalid settings_json for fixture %d: %w", fixture.ID, err)
	}
	return &fixture, nil
}
