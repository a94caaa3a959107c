package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Dosada05/tournament-dashboard/models"
	"github.com/Dosada05/tournament-dashboard/repositories"
	"github.com/Dosada05/tournament-dashboard/scoring"
	"github.com/Dosada05/tournament-dashboard/storage"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

const scorecardFixtureConcurrency = 4

type Scorecard struct {
	EventID     int                    `json:"event_id" yaml:"event_id"`
	EventName   string                 `json:"event_name" yaml:"event_name"`
	Teams       []models.TeamScorecard `json:"teams" yaml:"teams"`
	Unresolved  []scoring.Unresolved   `json:"unresolved,omitempty" yaml:"-"`
	GeneratedAt time.Time              `json:"generated_at" yaml:"generated_at"`
}

type PublishedScorecard struct {
	EventID int    `json:"event_id"`
	JSONURL string `json:"json_url"`
	YAMLURL string `json:"yaml_url"`
}

type StandingsService interface {
	GetStandings(ctx context.Context, fixtureID int) ([]models.StandingRow, error)
	GetScorecard(ctx context.Context, eventID int) (*Scorecard, error)
	PublishScorecard(ctx context.Context, eventID int) (*PublishedScorecard, error)
	UnpublishScorecard(ctx context.Context, eventID int) error
	// RecordWinners stores placements decided by an administrator; they take precedence over
	// placements derived from the bracket. Empty winners clear the record.
	RecordWinners(ctx context.Context, fixtureID int, winners models.FixtureWinners) (*models.Fixture, error)
}

type standingsService struct {
	store    repositories.Store
	locks    *FixtureLocks
	uploader storage.FileUploader
	logger   *slog.Logger
	now      func() time.Time
}

// NewStandingsService creates the read side of the engine. uploader may be nil, in which case
// PublishScorecard reports ErrPublishingDisabled.
func NewStandingsService(
	store repositories.Store,
	locks *FixtureLocks,
	uploader storage.FileUploader,
	logger *slog.Logger,
) StandingsService {
	return &standingsService{
		store:    store,
		locks:    locks,
		uploader: uploader,
		logger:   loggerOrDefault(logger),
		now:      time.Now,
	}
}

func (s *standingsService) GetStandings(ctx context.Context, fixtureID int) ([]models.StandingRow, error) {
	unlock := s.locks.RLock(fixtureID)
	defer unlock()

	var rows []models.StandingRow
	err := s.store.WithinTx(ctx, repositories.TxOptions{ReadOnly: true}, func(repos repositories.Repositories) error {
		fixture, err := repos.Fixtures.GetByID(ctx, fixtureID)
		if err != nil {
			return handleRepositoryError(err)
		}
		if fixture.Format != models.FormatRoundRobin {
			return fmt.Errorf("%w: standings are computed for round-robin fixtures", ErrWrongFormat)
		}
		participants, err := repos.Participants.ListByIDs(ctx, fixture.ParticipantIDs)
		if err != nil {
			return handleRepositoryError(err)
		}
		matches, err := repos.Matches.ListByFixture(ctx, fixture.ID)
		if err != nil {
			return err
		}
		rows = scoring.CalculateStandings(participants, matches, fixture.Settings)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// fixturePlacements is what one fixture contributes to the scorecard.
type fixturePlacements struct {
	placements   []models.Placement
	participants []*models.Participant
}

func (s *standingsService) GetScorecard(ctx context.Context, eventID int) (*Scorecard, error) {
	var (
		event      *models.Event
		teams      []*models.Team
		activities []*models.Activity
		fixtures   []*models.Fixture
	)
	err := s.store.WithinTx(ctx, repositories.TxOptions{ReadOnly: true}, func(repos repositories.Repositories) error {
		var err error
		if event, err = repos.Events.GetByID(ctx, eventID); err != nil {
			return handleRepositoryError(err)
		}
		if teams, err = repos.Teams.ListByEvent(ctx, eventID); err != nil {
			return err
		}
		if activities, err = repos.Activities.ListByEvent(ctx, eventID); err != nil {
			return err
		}
		fixtures, err = repos.Fixtures.ListByEvent(ctx, eventID)
		return err
	})
	if err != nil {
		return nil, err
	}

	// Каждая сетка читается под своей блокировкой, параллельно.
	results := make([]fixturePlacements, len(fixtures))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(scorecardFixtureConcurrency)
	for i, fixture := range fixtures {
		g.Go(func() error {
			res, err := s.loadFixturePlacements(gCtx, fixture.ID)
			if err != nil {
				return fmt.Errorf("failed to load placements of fixture %d: %w", fixture.ID, err)
			}
			results[i] = *res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	input := scoring.ScorecardInput{
		EventID:      eventID,
		Teams:        teams,
		Activities:   activities,
		Participants: make(map[int]*models.Participant),
	}
	for _, res := range results {
		input.Placements = append(input.Placements, res.placements...)
		for _, p := range res.participants {
			input.Participants[p.ID] = p
		}
	}

	cards, unresolved := scoring.AggregateScorecard(input)
	for _, u := range unresolved {
		s.logger.WarnContext(ctx, "placement not credited to any team",
			slog.Int("event_id", eventID),
			slog.Int("fixture_id", u.Placement.FixtureID),
			slog.Int("participant_id", u.Placement.ParticipantID),
			slog.String("reason", u.Reason))
	}
	return &Scorecard{
		EventID:     event.ID,
		EventName:   event.Name,
		Teams:       cards,
		Unresolved:  unresolved,
		GeneratedAt: s.now().UTC(),
	}, nil
}

func (s *standingsService) loadFixturePlacements(ctx context.Context, fixtureID int) (*fixturePlacements, error) {
	unlock := s.locks.RLock(fixtureID)
	defer unlock()

	var res fixturePlacements
	err := s.store.WithinTx(ctx, repositories.TxOptions{ReadOnly: true}, func(repos repositories.Repositories) error {
		fixture, err := repos.Fixtures.GetByID(ctx, fixtureID)
		if err != nil {
			return handleRepositoryError(err)
		}
		matches, err := repos.Matches.ListByFixture(ctx, fixture.ID)
		if err != nil {
			return err
		}
		ids := append([]int{}, fixture.ParticipantIDs...)
		seen := make(map[int]bool, len(ids))
		for _, id := range ids {
			seen[id] = true
		}
		for _, id := range []*int{fixture.Winners.FirstID, fixture.Winners.SecondID, fixture.Winners.ThirdID} {
			if id != nil && !seen[*id] {
				seen[*id] = true
				ids = append(ids, *id)
			}
		}
		participants, err := repos.Participants.ListByIDs(ctx, ids)
		if err != nil {
			return handleRepositoryError(err)
		}
		res.participants = participants
		res.placements = scoring.DerivePlacements(fixture, participants[:len(fixture.ParticipantIDs)], matches)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *standingsService) PublishScorecard(ctx context.Context, eventID int) (*PublishedScorecard, error) {
	if s.uploader == nil {
		return nil, ErrPublishingDisabled
	}
	card, err := s.GetScorecard(ctx, eventID)
	if err != nil {
		return nil, err
	}

	jsonBody, err := json.MarshalIndent(card, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode scorecard: %w", err)
	}
	var yamlBody bytes.Buffer
	encoder := yaml.NewEncoder(&yamlBody)
	encoder.SetIndent(2)
	if err := encoder.Encode(card); err != nil {
		return nil, fmt.Errorf("failed to encode scorecard as yaml: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode scorecard as yaml: %w", err)
	}

	base := scorecardKeyBase(eventID)
	var (
		mu        sync.Mutex
		published = &PublishedScorecard{EventID: eventID}
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, err := s.uploader.Upload(gCtx, base+".json", "application/json", bytes.NewReader(jsonBody))
		if err != nil {
			return fmt.Errorf("failed to upload scorecard json: %w", err)
		}
		mu.Lock()
		published.JSONURL = res.Location
		mu.Unlock()
		return nil
	})
	g.Go(func() error {
		res, err := s.uploader.Upload(gCtx, base+".yaml", "application/yaml", bytes.NewReader(yamlBody.Bytes()))
		if err != nil {
			return fmt.Errorf("failed to upload scorecard yaml: %w", err)
		}
		mu.Lock()
		published.YAMLURL = res.Location
		mu.Unlock()
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.ErrorContext(ctx, "scorecard publishing failed", slog.Int("event_id", eventID), slog.Any("error", err))
		return nil, err
	}

	s.logger.InfoContext(ctx, "scorecard published",
		slog.Int("event_id", eventID),
		slog.String("json_url", published.JSONURL),
		slog.String("yaml_url", published.YAMLURL))
	return published, nil
}

// UnpublishScorecard removes both published snapshots of an event.
func (s *standingsService) UnpublishScorecard(ctx context.Context, eventID int) error {
	if s.uploader == nil {
		return ErrPublishingDisabled
	}
	err := s.store.WithinTx(ctx, repositories.TxOptions{ReadOnly: true}, func(repos repositories.Repositories) error {
		_, err := repos.Events.GetByID(ctx, eventID)
		return handleRepositoryError(err)
	})
	if err != nil {
		return err
	}

	base := scorecardKeyBase(eventID)
	g, gCtx := errgroup.WithContext(ctx)
	for _, key := range []string{base + ".json", base + ".yaml"} {
		g.Go(func() error {
			return s.uploader.Delete(gCtx, key)
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.ErrorContext(ctx, "scorecard unpublishing failed", slog.Int("event_id", eventID), slog.Any("error", err))
		return err
	}
	s.logger.InfoContext(ctx, "scorecard unpublished", slog.Int("event_id", eventID))
	return nil
}

func (s *standingsService) RecordWinners(ctx context.Context, fixtureID int, winners models.FixtureWinners) (*models.Fixture, error) {
	unlock := s.locks.Lock(fixtureID)
	defer unlock()

	var fixture *models.Fixture
	err := s.store.WithinTx(ctx, repositories.TxOptions{}, func(repos repositories.Repositories) error {
		var err error
		if fixture, err = repos.Fixtures.GetByID(ctx, fixtureID); err != nil {
			return handleRepositoryError(err)
		}
		if err := validateWinners(fixture, winners); err != nil {
			return err
		}
		if err := repos.Fixtures.UpdateWinners(ctx, fixture.ID, winners); err != nil {
			return handleRepositoryError(err)
		}
		fixture.Winners = winners
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "fixture winners recorded",
		slog.Int("fixture_id", fixtureID),
		slog.Bool("cleared", !winners.IsRecorded()))
	return fixture, nil
}

// validateWinners: every recorded winner is a distinct participant of the fixture.
func validateWinners(fixture *models.Fixture, winners models.FixtureWinners) error {
	registered := make(map[int]bool, len(fixture.ParticipantIDs))
	for _, id := range fixture.ParticipantIDs {
		registered[id] = true
	}
	used := make(map[int]bool, 3)
	for _, id := range []*int{winners.FirstID, winners.SecondID, winners.ThirdID} {
		if id == nil {
			continue
		}
		if !registered[*id] {
			return fmt.Errorf("%w: participant %d is not registered in fixture %d", ErrValidationFailed, *id, fixture.ID)
		}
		if used[*id] {
			return fmt.Errorf("%w: participant %d is placed twice", ErrValidationFailed, *id)
		}
		used[*id] = true
	}
	return nil
}

func scorecardKeyBase(eventID int) string {
	return fmt.Sprintf("scorecards/event-%d", eventID)
}
