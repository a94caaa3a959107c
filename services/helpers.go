package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/tournament-dashboard/brackets"
	"github.com/Dosada05/tournament-dashboard/models"
	"github.com/Dosada05/tournament-dashboard/repositories"
)

// Notifier receives fixture change notifications after a transaction commits.
type Notifier interface {
	NotifyFixture(fixtureID int, messageType string, payload interface{})
}

type noopNotifier struct{}

func (noopNotifier) NotifyFixture(int, string, interface{}) {}

func notifierOrNoop(n Notifier) Notifier {
	if n == nil {
		return noopNotifier{}
	}
	return n
}

func loggerOrDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// handleRepositoryError переводит ошибки репозиториев в ошибки сервисов.
func handleRepositoryError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrFixtureNotFound):
		return fmt.Errorf("%w: %v", ErrFixtureNotFound, err)
	case errors.Is(err, repositories.ErrMatchNotFound):
		return fmt.Errorf("%w: %v", ErrMatchNotFound, err)
	case errors.Is(err, repositories.ErrParticipantNotFound):
		return fmt.Errorf("%w: %v", ErrParticipantNotFound, err)
	case errors.Is(err, repositories.ErrEventNotFound):
		return fmt.Errorf("%w: %v", ErrEventNotFound, err)
	case errors.Is(err, repositories.ErrTeamNotFound), errors.Is(err, repositories.ErrActivityNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, repositories.ErrMatchVersionConflict), errors.Is(err, repositories.ErrMatchUIDConflict):
		return fmt.Errorf("%w: %v", ErrInconsistentSwap, err)
	}
	return err
}

// loadFixtureGraph reads a fixture and its match graph inside the current transaction.
func loadFixtureGraph(ctx context.Context, repos repositories.Repositories, fixtureID int) (*models.Fixture, *brackets.Graph, error) {
	fixture, err := repos.Fixtures.GetByID(ctx, fixtureID)
	if err != nil {
		return nil, nil, handleRepositoryError(err)
	}
	matches, err := repos.Matches.ListByFixture(ctx, fixtureID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load matches of fixture %d: %w", fixtureID, err)
	}
	return fixture, brackets.NewGraph(matches), nil
}

// saveGraph writes every modified match and removes pruned ones. Version checks make a
// concurrent writer fail the whole transaction.
func saveGraph(ctx context.Context, repos repositories.Repositories, g *brackets.Graph) error {
	for _, m := range g.Dirty() {
		if err := repos.Matches.Update(ctx, m); err != nil {
			return handleRepositoryError(fmt.Errorf("saving match %d: %w", m.ID, err))
		}
	}
	for _, id := range g.Deleted() {
		if err := repos.Matches.Delete(ctx, id); err != nil {
			return handleRepositoryError(fmt.Errorf("deleting match %d: %w", id, err))
		}
	}
	return nil
}

// fixtureOfMatch resolves the fixture a match belongs to. The fixture of a match never changes,
// so this can run before the fixture lock is taken.
func fixtureOfMatch(ctx context.Context, store repositories.Store, matchID int) (int, error) {
	var fixtureID int
	err := store.WithinTx(ctx, repositories.TxOptions{ReadOnly: true}, func(repos repositories.Repositories) error {
		m, err := repos.Matches.GetByID(ctx, matchID)
		if err != nil {
			return handleRepositoryError(err)
		}
		fixtureID = m.FixtureID
		return nil
	})
	return fixtureID, err
}

func matchesToValues(slice []*models.Match) []models.Match {
	result := make([]models.Match, 0, len(slice))
	for _, m := range slice {
		if m != nil {
			result = append(result, *m)
		}
	}
	return result
}
