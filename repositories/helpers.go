package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/Dosada05/tournament-dashboard/models"
	"github.com/lib/pq"
)

func checkAffectedRows(result sql.Result, notFoundError error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return notFoundError
	}
	return nil
}

// mapConstraintError translates foreign key and unique violations into repository errors.
func mapConstraintError(err error, byConstraint map[string]error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if mapped, ok := byConstraint[pqErr.Constraint]; ok {
			return fmt.Errorf("%w: %s", mapped, pqErr.Message)
		}
	}
	return err
}

func toInt64s(ids []int) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}

func fromInt64s(ids []int64) []int {
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = int(id)
	}
	return out
}

func sortParticipants(participants []*models.Participant) {
	sort.Slice(participants, func(i, j int) bool {
		if participants[i].Name != participants[j].Name {
			return participants[i].Name < participants[j].Name
		}
		return participants[i].ID < participants[j].ID
	})
}
