package repositories

import (
	"context"
	"fmt"

	"github.com/Dosada05/tournament-dashboard/models"
)

type postgresActivityRepository struct {
	exec SQLExecutor
}

func NewPostgresActivityRepository(exec SQLExecutor) ActivityRepository {
	return &postgresActivityRepository{exec: exec}
}

func (r *postgresActivityRepository) Create(ctx context.Context, activity *models.Activity) error {
	query := `
		INSERT INTO activities (event_id, name, points_first, points_second, points_third)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	err := r.exec.QueryRowContext(ctx, query,
		activity.EventID,
		activity.Name,
		activity.PointTable.First,
		activity.PointTable.Second,
		activity.PointTable.Third,
	).Scan(&activity.ID)
	return mapConstraintError(err, map[string]error{"activities_event_id_fkey": ErrEventNotFound})
}

func (r *postgresActivityRepository) ListByEvent(ctx context.Context, eventID int) ([]*models.Activity, error) {
	query := `
		SELECT id, event_id, name, points_first, points_second, points_third
		FROM activities
		WHERE event_id = $1
		ORDER BY id ASC`
	rows, err := r.exec.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities of event %d: %w", eventID, err)
	}
	defer rows.Close()

	activities := make([]*models.Activity, 0)
	for rows.Next() {
		var a models.Activity
		if err := rows.Scan(&a.ID, &a.EventID, &a.Name, &a.PointTable.First, &a.PointTable.Second, &a.PointTable.Third); err != nil {
			return nil, fmt.Errorf("failed to scan activity row: %w", err)
		}
		activities = append(activities, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during activity rows iteration: %w", err)
	}
	return activities, nil
}
