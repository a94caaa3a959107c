package repositories

import (
	"context"
	"fmt"

	"github.com/Dosada05/tournament-dashboard/models"
)

type postgresTeamRepository struct {
	exec SQLExecutor
}

func NewPostgresTeamRepository(exec SQLExecutor) TeamRepository {
	return &postgresTeamRepository{exec: exec}
}

func (r *postgresTeamRepository) Create(ctx context.Context, team *models.Team) error {
	query := `INSERT INTO teams (event_id, name) VALUES ($1, $2) RETURNING id`
	err := r.exec.QueryRowContext(ctx, query, team.EventID, team.Name).Scan(&team.ID)
	return mapConstraintError(err, map[string]error{"teams_event_id_fkey": ErrEventNotFound})
}

func (r *postgresTeamRepository) ListByEvent(ctx context.Context, eventID int) ([]*models.Team, error) {
	query := `SELECT id, event_id, name FROM teams WHERE event_id = $1 ORDER BY name ASC, id ASC`
	rows, err := r.exec.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query teams of event %d: %w", eventID, err)
	}
	defer rows.Close()

	teams := make([]*models.Team, 0)
	for rows.Next() {
		var team models.Team
		if err := rows.Scan(&team.ID, &team.EventID, &team.Name); err != nil {
			return nil, fmt.Errorf("failed to scan team row: %w", err)
		}
		teams = append(teams, &team)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during team rows iteration: %w", err)
	}
	return teams, nil
}
