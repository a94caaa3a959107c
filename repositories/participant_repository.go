package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Dosada05/tournament-dashboard/models"
	"github.com/lib/pq"
)

type postgresParticipantRepository struct {
	exec SQLExecutor
}

func NewPostgresParticipantRepository(exec SQLExecutor) ParticipantRepository {
	return &postgresParticipantRepository{exec: exec}
}

var participantConstraintErrors = map[string]error{
	"team_memberships_participant_id_fkey": ErrParticipantNotFound,
	"team_memberships_team_id_fkey":        ErrTeamNotFound,
	"team_memberships_event_id_fkey":       ErrEventNotFound,
	"participants_team_id_fkey":            ErrTeamNotFound,
}

func (r *postgresParticipantRepository) Create(ctx context.Context, participant *models.Participant) error {
	query := `INSERT INTO participants (kind, name, team_id) VALUES ($1, $2, $3) RETURNING id`
	err := r.exec.QueryRowContext(ctx, query, participant.Kind, participant.Name, participant.TeamID).Scan(&participant.ID)
	if err != nil {
		return fmt.Errorf("failed to create participant: %w", mapConstraintError(err, participantConstraintErrors))
	}
	for _, m := range participant.Memberships {
		if err := r.AddMembership(ctx, participant.ID, m); err != nil {
			return err
		}
	}
	return nil
}

func (r *postgresParticipantRepository) AddMembership(ctx context.Context, participantID int, membership models.TeamMembership) error {
	query := `
		INSERT INTO team_memberships (participant_id, team_id, event_id, role)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (participant_id, event_id) DO UPDATE SET team_id = EXCLUDED.team_id, role = EXCLUDED.role`
	_, err := r.exec.ExecContext(ctx, query, participantID, membership.TeamID, membership.EventID, membership.Role)
	return mapConstraintError(err, participantConstraintErrors)
}

func (r *postgresParticipantRepository) GetByID(ctx context.Context, id int) (*models.Participant, error) {
	participants, err := r.ListByIDs(ctx, []int{id})
	if err != nil {
		return nil, err
	}
	return participants[0], nil
}

func (r *postgresParticipantRepository) ListByIDs(ctx context.Context, ids []int) ([]*models.Participant, error) {
	if len(ids) == 0 {
		return []*models.Participant{}, nil
	}
	query := `SELECT id, kind, name, team_id FROM participants WHERE id = ANY($1)`
	rows, err := r.exec.QueryContext(ctx, query, pq.Array(toInt64s(ids)))
	if err != nil {
		return nil, fmt.Errorf("failed to query participants: %w", err)
	}
	byID, err := scanParticipants(rows)
	if err != nil {
		return nil, err
	}
	if err := r.loadMemberships(ctx, byID); err != nil {
		return nil, err
	}

	out := make([]*models.Participant, 0, len(ids))
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrParticipantNotFound, id)
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *postgresParticipantRepository) ListPlayersByEvent(ctx context.Context, eventID int) ([]*models.Participant, error) {
	query := `
		SELECT p.id, p.kind, p.name, p.team_id
		FROM participants p
		JOIN team_memberships tm ON tm.participant_id = p.id
		WHERE tm.event_id = $1 AND p.kind = $2`
	rows, err := r.exec.QueryContext(ctx, query, eventID, models.ParticipantPlayer)
	if err != nil {
		return nil, fmt.Errorf("failed to query players of event %d: %w", eventID, err)
	}
	byID, err := scanParticipants(rows)
	if err != nil {
		return nil, err
	}
	if err := r.loadMemberships(ctx, byID); err != nil {
		return nil, err
	}

	out := make([]*models.Participant, 0, len(byID))
	for _, p := range byID {
		out = append(out, p)
	}
	sortParticipants(out)
	return out, nil
}

func (r *postgresParticipantRepository) loadMemberships(ctx context.Context, byID map[int]*models.Participant) error {
	if len(byID) == 0 {
		return nil
	}
	ids := make([]int, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	query := `
		SELECT participant_id, team_id, event_id, role
		FROM team_memberships
		WHERE participant_id = ANY($1)
		ORDER BY participant_id ASC, event_id ASC`
	rows, err := r.exec.QueryContext(ctx, query, pq.Array(toInt64s(ids)))
	if err != nil {
		return fmt.Errorf("failed to query team memberships: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			participantID int
			m             models.TeamMembership
		)
		if err := rows.Scan(&participantID, &m.TeamID, &m.EventID, &m.Role); err != nil {
			return fmt.Errorf("failed to scan team membership: %w", err)
		}
		if p, ok := byID[participantID]; ok {
			p.Memberships = append(p.Memberships, m)
		}
	}
	return rows.Err()
}

func scanParticipants(rows *sql.Rows) (map[int]*models.Participant, error) {
	defer rows.Close()
	byID := make(map[int]*models.Participant)
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.ID, &p.Kind, &p.Name, &p.TeamID); err != nil {
			return nil, fmt.Errorf("failed to scan participant row: %w", err)
		}
		byID[p.ID] = &p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during participant rows iteration: %w", err)
	}
	return byID, nil
}
