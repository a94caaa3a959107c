package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-dashboard/models"
)

type postgresEventRepository struct {
	exec SQLExecutor
}

func NewPostgresEventRepository(exec SQLExecutor) EventRepository {
	return &postgresEventRepository{exec: exec}
}

func (r *postgresEventRepository) Create(ctx context.Context, event *models.Event) error {
	query := `INSERT INTO events (name) VALUES ($1) RETURNING id`
	if err := r.exec.QueryRowContext(ctx, query, event.Name).Scan(&event.ID); err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

func (r *postgresEventRepository) GetByID(ctx context.Context, id int) (*models.Event, error) {
	var event models.Event
	err := r.exec.QueryRowContext(ctx, `SELECT id, name FROM events WHERE id = $1`, id).Scan(&event.ID, &event.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to scan event %d: %w", id, err)
	}
	return &event, nil
}
