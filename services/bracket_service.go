package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Dosada05/tournament-dashboard/brackets"
	"github.com/Dosada05/tournament-dashboard/models"
	"github.com/Dosada05/tournament-dashboard/repositories"
)

type BuildBracketInput struct {
	FixtureID int `json:"-"`
	// ParticipantIDs replaces the registered seeding order when set.
	ParticipantIDs []int `json:"participant_ids,omitempty"`
	// Settings may only be given while the fixture has no bracket yet.
	Settings *models.FixtureSettings `json:"settings,omitempty"`
	// Rebuild discards an existing, still unplayed bracket.
	Rebuild bool `json:"rebuild,omitempty"`
}

type BuildResult struct {
	FixtureID        int             `json:"fixture_id"`
	Generator        string          `json:"generator"`
	Matches          []*models.Match `json:"matches"`
	Seeding          []int           `json:"seeding"`
	SameTeamFallback bool            `json:"same_team_fallback"`
}

type BracketService interface {
	BuildBracket(ctx context.Context, input BuildBracketInput) (*BuildResult, error)
	GetBracket(ctx context.Context, fixtureID int) (*models.Fixture, error)
	GetLayout(ctx context.Context, fixtureID int) (*brackets.Layout, error)
}

type bracketService struct {
	store             repositories.Store
	locks             *FixtureLocks
	notifier          Notifier
	maxReseedAttempts int
	logger            *slog.Logger
}

func NewBracketService(
	store repositories.Store,
	locks *FixtureLocks,
	notifier Notifier,
	maxReseedAttempts int,
	logger *slog.Logger,
) BracketService {
	return &bracketService{
		store:             store,
		locks:             locks,
		notifier:          notifierOrNoop(notifier),
		maxReseedAttempts: maxReseedAttempts,
		logger:            loggerOrDefault(logger),
	}
}

func (s *bracketService) BuildBracket(ctx context.Context, input BuildBracketInput) (*BuildResult, error) {
	if err := validateParticipantIDs(input.ParticipantIDs); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(input.FixtureID)
	defer unlock()

	var result *BuildResult
	err := s.store.WithinTx(ctx, repositories.TxOptions{}, func(repos repositories.Repositories) error {
		fixture, existing, err := loadFixtureGraph(ctx, repos, input.FixtureID)
		if err != nil {
			return err
		}
		if existing.Len() > 0 {
			if input.Settings != nil {
				return fmt.Errorf("%w: settings of fixture %d are fixed once a bracket exists", ErrValidationFailed, fixture.ID)
			}
			if !input.Rebuild {
				return fmt.Errorf("%w: fixture %d", ErrBracketAlreadyExists, fixture.ID)
			}
			if existing.HasPlayedMatches() {
				return fmt.Errorf("%w: fixture %d", ErrFixtureLocked, fixture.ID)
			}
			if err := repos.Matches.DeleteByFixture(ctx, fixture.ID); err != nil {
				return err
			}
		}

		if input.Settings != nil {
			fixture.Settings = *input.Settings
			if fixture.Settings.NumberOfRounds < 1 || fixture.Settings.NumberOfRounds > 2 {
				fixture.Settings.NumberOfRounds = 1
			}
			if err := repos.Fixtures.UpdateSettings(ctx, fixture.ID, fixture.Settings); err != nil {
				return handleRepositoryError(err)
			}
		}
		if input.ParticipantIDs != nil {
			if err := repos.Fixtures.SetParticipants(ctx, fixture.ID, input.ParticipantIDs); err != nil {
				return handleRepositoryError(err)
			}
			fixture.ParticipantIDs = append([]int{}, input.ParticipantIDs...)
		}

		participants, err := repos.Participants.ListByIDs(ctx, fixture.ParticipantIDs)
		if err != nil {
			return handleRepositoryError(err)
		}
		for _, p := range participants {
			if p.Kind != fixture.ParticipantType {
				return fmt.Errorf("%w: participant %d is a %s, fixture expects %s", ErrValidationFailed, p.ID, p.Kind, fixture.ParticipantType)
			}
		}
		if fixture.ParticipantType == models.ParticipantTeam {
			if err := checkTeamEntries(ctx, repos, fixture.EventID, participants); err != nil {
				return err
			}
		}

		generator, ok := brackets.GeneratorFor(fixture.Format, s.maxReseedAttempts)
		if !ok {
			return fmt.Errorf("%w: unsupported fixture format %q", ErrValidationFailed, fixture.Format)
		}
		bracket, err := generator.GenerateBracket(ctx, brackets.GenerateBracketParams{
			Fixture:      fixture,
			Participants: participants,
		})
		if err != nil {
			return fmt.Errorf("failed to generate bracket for fixture %d: %w", fixture.ID, err)
		}

		if err := persistBracket(ctx, repos, bracket.Matches); err != nil {
			return err
		}
		stored, err := repos.Matches.ListByFixture(ctx, fixture.ID)
		if err != nil {
			return err
		}
		result = &BuildResult{
			FixtureID:        fixture.ID,
			Generator:        generator.GetName(),
			Matches:          stored,
			Seeding:          bracket.Seeding,
			SameTeamFallback: bracket.SameTeamFallback,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "bracket built",
		slog.Int("fixture_id", result.FixtureID),
		slog.String("generator", result.Generator),
		slog.Int("matches", len(result.Matches)),
		slog.Int("playable_matches", brackets.PlayableCount(result.Matches)))
	if result.SameTeamFallback {
		s.logger.WarnContext(ctx, "no seeding keeps teammates apart in round one, using unconstrained order",
			slog.Int("fixture_id", result.FixtureID))
	}
	s.notifier.NotifyFixture(result.FixtureID, brackets.MessageBracketUpdated, result.Matches)
	return result, nil
}

// persistBracket stores generated matches in two passes: rows first, then the links between them
// once every local id has a stored id.
func persistBracket(ctx context.Context, repos repositories.Repositories, matches []*models.Match) error {
	localToStored := make(map[int]int, len(matches))
	for _, m := range matches {
		row := m.Clone()
		row.NextMatchID = nil
		row.PreviousMatchIDs = nil
		if err := repos.Matches.Create(ctx, row); err != nil {
			return handleRepositoryError(fmt.Errorf("failed to save match %s: %w", m.UID, err))
		}
		localToStored[m.ID] = row.ID
	}

	for _, m := range matches {
		if m.NextMatchID == nil && len(m.PreviousMatchIDs) == 0 {
			continue
		}
		var next *int
		if m.NextMatchID != nil {
			next = models.IntPtr(localToStored[*m.NextMatchID])
		}
		previous := make([]int, 0, len(m.PreviousMatchIDs))
		for _, id := range m.PreviousMatchIDs {
			previous = append(previous, localToStored[id])
		}
		if err := repos.Matches.UpdateLinks(ctx, localToStored[m.ID], next, previous); err != nil {
			return handleRepositoryError(err)
		}
	}
	return nil
}

func (s *bracketService) GetBracket(ctx context.Context, fixtureID int) (*models.Fixture, error) {
	unlock := s.locks.RLock(fixtureID)
	defer unlock()

	var fixture *models.Fixture
	err := s.store.WithinTx(ctx, repositories.TxOptions{ReadOnly: true}, func(repos repositories.Repositories) error {
		f, g, err := loadFixtureGraph(ctx, repos, fixtureID)
		if err != nil {
			return err
		}
		f.Matches = matchesToValues(g.Matches())
		fixture = f
		return nil
	})
	if err != nil {
		return nil, err
	}
	return fixture, nil
}

func (s *bracketService) GetLayout(ctx context.Context, fixtureID int) (*brackets.Layout, error) {
	unlock := s.locks.RLock(fixtureID)
	defer unlock()

	var layout *brackets.Layout
	err := s.store.WithinTx(ctx, repositories.TxOptions{ReadOnly: true}, func(repos repositories.Repositories) error {
		_, g, err := loadFixtureGraph(ctx, repos, fixtureID)
		if err != nil {
			return err
		}
		layout = brackets.ComputeLayout(g)
		return nil
	})
	return layout, err
}

func validateParticipantIDs(ids []int) error {
	seen := make(map[int]bool, len(ids))
	for _, id := range ids {
		if id <= 0 {
			return fmt.Errorf("%w: invalid participant id %d", ErrValidationFailed, id)
		}
		if seen[id] {
			return fmt.Errorf("%w: participant %d listed twice", ErrValidationFailed, id)
		}
		seen[id] = true
	}
	return nil
}

// checkTeamEntries makes sure every team entry stands for a team of the event, so its placements
// can be credited.
func checkTeamEntries(ctx context.Context, repos repositories.Repositories, eventID int, participants []*models.Participant) error {
	teams, err := repos.Teams.ListByEvent(ctx, eventID)
	if err != nil {
		return err
	}
	ofEvent := make(map[int]bool, len(teams))
	for _, t := range teams {
		ofEvent[t.ID] = true
	}
	for _, p := range participants {
		if p.TeamID == nil || !ofEvent[*p.TeamID] {
			return fmt.Errorf("%w: team entry %d is not linked to a team of event %d", ErrValidationFailed, p.ID, eventID)
		}
	}
	return nil
}
