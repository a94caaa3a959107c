package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Dosada05/tournament-dashboard/brackets"
	"github.com/Dosada05/tournament-dashboard/models"
	"github.com/Dosada05/tournament-dashboard/repositories"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

type MatchUpdate struct {
	FixtureID  int             `json:"fixture_id"`
	Updated    *models.Match   `json:"updated"`
	Propagated []*models.Match `json:"propagated,omitempty"`
	Reverted   []*models.Match `json:"reverted,omitempty"`
}

type SwapInput struct {
	FixtureID int              `json:"-"`
	A         brackets.SlotRef `json:"a"`
	B         brackets.SlotRef `json:"b"`
}

type SwapResult struct {
	MatchA   *models.Match   `json:"match_a"`
	MatchB   *models.Match   `json:"match_b"`
	Affected []*models.Match `json:"affected"`
}

type PartnerRequest struct {
	FixtureID     int
	ParticipantID int
	Side          models.Slot
	MatchID       *int
	// Query filters candidates by a fuzzy, case-insensitive name match.
	Query string
}

type AssignPartnerInput struct {
	MatchID   int         `json:"-"`
	Side      models.Slot `json:"side"`
	PartnerID *int        `json:"partner_id"`
}

type MatchService interface {
	ApplyMatchResult(ctx context.Context, matchID int, input brackets.ResultInput) (*MatchUpdate, error)
	ReopenMatch(ctx context.Context, matchID int) (*MatchUpdate, error)
	SwapParticipants(ctx context.Context, input SwapInput) (*SwapResult, error)
	GetEligiblePartners(ctx context.Context, req PartnerRequest) ([]*models.Participant, error)
	AssignPartner(ctx context.Context, input AssignPartnerInput) ([]*models.Match, error)
	DeleteMatch(ctx context.Context, matchID int) error
	ListEditableMatches(ctx context.Context, fixtureID int) ([]*models.Match, error)
}

type matchService struct {
	store    repositories.Store
	locks    *FixtureLocks
	notifier Notifier
	logger   *slog.Logger
}

func NewMatchService(
	store repositories.Store,
	locks *FixtureLocks,
	notifier Notifier,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		store:    store,
		locks:    locks,
		notifier: notifierOrNoop(notifier),
		logger:   loggerOrDefault(logger),
	}
}

func (s *matchService) ApplyMatchResult(ctx context.Context, matchID int, input brackets.ResultInput) (*MatchUpdate, error) {
	fixtureID, err := fixtureOfMatch(ctx, s.store, matchID)
	if err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(fixtureID)
	defer unlock()

	var update *MatchUpdate
	err = s.store.WithinTx(ctx, repositories.TxOptions{}, func(repos repositories.Repositories) error {
		fixture, g, err := loadFixtureGraph(ctx, repos, fixtureID)
		if err != nil {
			return err
		}
		reopening := false
		if m, ok := g.Match(matchID); ok && input.Status == models.StatusScheduled && m.IsDecided() {
			reopening = true
		}
		change, err := brackets.ApplyResult(g, fixture.Format, matchID, input)
		if err != nil {
			return err
		}
		if err := saveGraph(ctx, repos, g); err != nil {
			return err
		}
		update = &MatchUpdate{FixtureID: fixtureID, Updated: change.Match}
		if reopening {
			update.Reverted = change.Propagated
		} else {
			update.Propagated = change.Propagated
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "match result applied",
		slog.Int("fixture_id", fixtureID),
		slog.Int("match_id", matchID),
		slog.String("status", string(update.Updated.Status)))
	s.notifier.NotifyFixture(fixtureID, brackets.MessageMatchUpdated, update)
	return update, nil
}

func (s *matchService) ReopenMatch(ctx context.Context, matchID int) (*MatchUpdate, error) {
	fixtureID, err := fixtureOfMatch(ctx, s.store, matchID)
	if err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(fixtureID)
	defer unlock()

	var update *MatchUpdate
	err = s.store.WithinTx(ctx, repositories.TxOptions{}, func(repos repositories.Repositories) error {
		_, g, err := loadFixtureGraph(ctx, repos, fixtureID)
		if err != nil {
			return err
		}
		change, err := brackets.ReopenMatch(g, matchID)
		if err != nil {
			return err
		}
		if err := saveGraph(ctx, repos, g); err != nil {
			return err
		}
		update = &MatchUpdate{FixtureID: fixtureID, Updated: change.Match, Reverted: change.Propagated}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "match reopened", slog.Int("fixture_id", fixtureID), slog.Int("match_id", matchID))
	s.notifier.NotifyFixture(fixtureID, brackets.MessageMatchUpdated, update)
	return update, nil
}

func (s *matchService) SwapParticipants(ctx context.Context, input SwapInput) (*SwapResult, error) {
	unlock := s.locks.Lock(input.FixtureID)
	defer unlock()

	var result *SwapResult
	err := s.store.WithinTx(ctx, repositories.TxOptions{}, func(repos repositories.Repositories) error {
		fixture, g, err := loadFixtureGraph(ctx, repos, input.FixtureID)
		if err != nil {
			return err
		}
		if fixture.Format != models.FormatKnockout {
			return fmt.Errorf("%w: swaps reseed knockout brackets only", ErrWrongFormat)
		}
		for _, ref := range []brackets.SlotRef{input.A, input.B} {
			if _, ok := g.Match(ref.MatchID); !ok {
				return fmt.Errorf("%w: match %d in fixture %d", ErrMatchNotFound, ref.MatchID, fixture.ID)
			}
		}
		affected, err := brackets.SwapParticipants(g, input.A, input.B)
		if err != nil {
			return err
		}
		if err := saveGraph(ctx, repos, g); err != nil {
			return err
		}
		a, _ := g.Match(input.A.MatchID)
		b, _ := g.Match(input.B.MatchID)
		if affected == nil {
			affected = []*models.Match{}
		}
		result = &SwapResult{MatchA: a, MatchB: b, Affected: affected}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "participants swapped",
		slog.Int("fixture_id", input.FixtureID),
		slog.Int("match_a", input.A.MatchID),
		slog.Int("match_b", input.B.MatchID))
	s.notifier.NotifyFixture(input.FixtureID, brackets.MessageBracketUpdated, result)
	return result, nil
}

func (s *matchService) GetEligiblePartners(ctx context.Context, req PartnerRequest) ([]*models.Participant, error) {
	if req.Side != "" && !req.Side.IsValid() {
		return nil, ErrInvalidSlot
	}
	unlock := s.locks.RLock(req.FixtureID)
	defer unlock()

	var eligible []*models.Participant
	err := s.store.WithinTx(ctx, repositories.TxOptions{ReadOnly: true}, func(repos repositories.Repositories) error {
		query, err := s.partnerQuery(ctx, repos, req.FixtureID, req.ParticipantID, req.MatchID, req.Side)
		if err != nil {
			return err
		}
		eligible = brackets.EligiblePartners(*query)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return filterByName(eligible, req.Query), nil
}

func (s *matchService) AssignPartner(ctx context.Context, input AssignPartnerInput) ([]*models.Match, error) {
	if !input.Side.IsValid() {
		return nil, ErrInvalidSlot
	}
	fixtureID, err := fixtureOfMatch(ctx, s.store, input.MatchID)
	if err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(fixtureID)
	defer unlock()

	var changed []*models.Match
	err = s.store.WithinTx(ctx, repositories.TxOptions{}, func(repos repositories.Repositories) error {
		fixture, g, err := loadFixtureGraph(ctx, repos, fixtureID)
		if err != nil {
			return err
		}
		m, ok := g.Match(input.MatchID)
		if !ok {
			return ErrMatchNotFound
		}
		if m.HasStarted() {
			return fmt.Errorf("%w: match %d has started", ErrMatchNotEditable, m.ID)
		}
		main := m.Participant(input.Side)
		if main == nil {
			return fmt.Errorf("%w: %s slot of match %d is empty", ErrValidationFailed, input.Side, m.ID)
		}

		if input.PartnerID != nil {
			query, err := s.partnerQuery(ctx, repos, fixture.ID, *main, &m.ID, input.Side)
			if err != nil {
				return err
			}
			if !brackets.IsEligiblePartner(*query, *input.PartnerID) {
				return fmt.Errorf("%w: participant %d for %d", ErrIneligiblePartner, *input.PartnerID, *main)
			}
		}

		changed = brackets.AssignPartner(g, *main, input.PartnerID)
		return saveGraph(ctx, repos, g)
	})
	if err != nil {
		return nil, err
	}
	if changed == nil {
		changed = []*models.Match{}
	}

	s.logger.InfoContext(ctx, "partner assigned",
		slog.Int("fixture_id", fixtureID),
		slog.Int("match_id", input.MatchID),
		slog.Int("matches_changed", len(changed)))
	s.notifier.NotifyFixture(fixtureID, brackets.MessageBracketUpdated, changed)
	return changed, nil
}

func (s *matchService) DeleteMatch(ctx context.Context, matchID int) error {
	fixtureID, err := fixtureOfMatch(ctx, s.store, matchID)
	if err != nil {
		return err
	}
	unlock := s.locks.Lock(fixtureID)
	defer unlock()

	err = s.store.WithinTx(ctx, repositories.TxOptions{}, func(repos repositories.Repositories) error {
		_, g, err := loadFixtureGraph(ctx, repos, fixtureID)
		if err != nil {
			return err
		}
		if err := brackets.DeleteMatch(g, matchID); err != nil {
			return err
		}
		return saveGraph(ctx, repos, g)
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "empty match pruned", slog.Int("fixture_id", fixtureID), slog.Int("match_id", matchID))
	s.notifier.NotifyFixture(fixtureID, brackets.MessageBracketUpdated, map[string]int{"deleted_match_id": matchID})
	return nil
}

func (s *matchService) ListEditableMatches(ctx context.Context, fixtureID int) ([]*models.Match, error) {
	unlock := s.locks.RLock(fixtureID)
	defer unlock()

	var matches []*models.Match
	err := s.store.WithinTx(ctx, repositories.TxOptions{ReadOnly: true}, func(repos repositories.Repositories) error {
		_, g, err := loadFixtureGraph(ctx, repos, fixtureID)
		if err != nil {
			return err
		}
		matches = brackets.EditableMatches(g)
		return nil
	})
	return matches, err
}

// partnerQuery loads what the eligibility rules need for one participant of a doubles fixture.
func (s *matchService) partnerQuery(ctx context.Context, repos repositories.Repositories, fixtureID, participantID int, matchID *int, side models.Slot) (*brackets.PartnerQuery, error) {
	fixture, err := repos.Fixtures.GetByID(ctx, fixtureID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	if !fixture.IsDoubles {
		return nil, fmt.Errorf("%w: fixture %d", ErrNotDoublesFixture, fixture.ID)
	}
	participant, err := repos.Participants.GetByID(ctx, participantID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	roster, err := repos.Participants.ListPlayersByEvent(ctx, fixture.EventID)
	if err != nil {
		return nil, err
	}
	matches, err := repos.Matches.ListByFixture(ctx, fixture.ID)
	if err != nil {
		return nil, err
	}
	if matchID != nil {
		found := false
		for _, m := range matches {
			if m.ID == *matchID {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: match %d in fixture %d", ErrMatchNotFound, *matchID, fixture.ID)
		}
	}
	return &brackets.PartnerQuery{
		EventID:     fixture.EventID,
		Participant: participant,
		Roster:      roster,
		Matches:     matches,
		MatchID:     matchID,
		Side:        side,
	}, nil
}

func filterByName(participants []*models.Participant, query string) []*models.Participant {
	if query == "" {
		return participants
	}
	out := make([]*models.Participant, 0, len(participants))
	for _, p := range participants {
		if fuzzy.MatchNormalizedFold(query, p.Name) {
			out = append(out, p)
		}
	}
	return out
}
