package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Dosada05/tournament-dashboard/models"
)

// MemoryStore keeps everything in process. A write transaction works on a copy of the state that
// replaces the live state on commit; read transactions see the live state under a read lock.
type MemoryStore struct {
	mu    sync.RWMutex
	state *memoryState
	now   func() time.Time
}

type memoryState struct {
	seq          int
	events       map[int]*models.Event
	fixtures     map[int]*models.Fixture
	matches      map[int]*models.Match
	participants map[int]*models.Participant
	teams        map[int]*models.Team
	activities   map[int]*models.Activity
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		state: &memoryState{
			events:       make(map[int]*models.Event),
			fixtures:     make(map[int]*models.Fixture),
			matches:      make(map[int]*models.Match),
			participants: make(map[int]*models.Participant),
			teams:        make(map[int]*models.Team),
			activities:   make(map[int]*models.Activity),
		},
		now: time.Now,
	}
}

func (s *MemoryStore) WithinTx(ctx context.Context, opts TxOptions, fn func(repos Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if opts.ReadOnly {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return fn(s.repositories(s.state, true))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	work := s.state.clone()
	if err := fn(s.repositories(work, false)); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("transaction aborted: %w", err)
	}
	s.state = work
	return nil
}

func (s *MemoryStore) repositories(state *memoryState, readOnly bool) Repositories {
	tx := &memoryTx{state: state, readOnly: readOnly, now: s.now}
	return Repositories{
		Events:       &memoryEventRepository{tx},
		Fixtures:     &memoryFixtureRepository{tx},
		Matches:      &memoryMatchRepository{tx},
		Participants: &memoryParticipantRepository{tx},
		Teams:        &memoryTeamRepository{tx},
		Activities:   &memoryActivityRepository{tx},
	}
}

func (st *memoryState) clone() *memoryState {
	c := &memoryState{
		seq:          st.seq,
		events:       make(map[int]*models.Event, len(st.events)),
		fixtures:     make(map[int]*models.Fixture, len(st.fixtures)),
		matches:      make(map[int]*models.Match, len(st.matches)),
		participants: make(map[int]*models.Participant, len(st.participants)),
		teams:        make(map[int]*models.Team, len(st.teams)),
		activities:   make(map[int]*models.Activity, len(st.activities)),
	}
	for id, e := range st.events {
		v := *e
		c.events[id] = &v
	}
	for id, f := range st.fixtures {
		c.fixtures[id] = cloneFixture(f)
	}
	for id, m := range st.matches {
		c.matches[id] = m.Clone()
	}
	for id, p := range st.participants {
		c.participants[id] = cloneParticipant(p)
	}
	for id, t := range st.teams {
		v := *t
		c.teams[id] = &v
	}
	for id, a := range st.activities {
		v := *a
		c.activities[id] = &v
	}
	return c
}

type memoryTx struct {
	state    *memoryState
	readOnly bool
	now      func() time.Time
}

func (tx *memoryTx) write() error {
	if tx.readOnly {
		return ErrReadOnlyTx
	}
	return nil
}

func (tx *memoryTx) nextID() int {
	tx.state.seq++
	return tx.state.seq
}

type memoryEventRepository struct{ tx *memoryTx }

func (r *memoryEventRepository) Create(ctx context.Context, event *models.Event) error {
	if err := r.tx.write(); err != nil {
		return err
	}
	event.ID = r.tx.nextID()
	v := *event
	r.tx.state.events[event.ID] = &v
	return nil
}

func (r *memoryEventRepository) GetByID(ctx context.Context, id int) (*models.Event, error) {
	e, ok := r.tx.state.events[id]
	if !ok {
		return nil, ErrEventNotFound
	}
	v := *e
	return &v, nil
}

type memoryFixtureRepository struct{ tx *memoryTx }

func (r *memoryFixtureRepository) Create(ctx context.Context, fixture *models.Fixture) error {
	if err := r.tx.write(); err != nil {
		return err
	}
	if _, ok := r.tx.state.events[fixture.EventID]; !ok {
		return ErrEventNotFound
	}
	if _, ok := r.tx.state.activities[fixture.ActivityID]; !ok {
		return ErrActivityNotFound
	}
	for _, id := range fixture.ParticipantIDs {
		if _, ok := r.tx.state.participants[id]; !ok {
			return fmt.Errorf("%w: %d", ErrParticipantNotFound, id)
		}
	}
	if err := fixture.EncodeSettings(); err != nil {
		return fmt.Errorf("failed to encode fixture settings: %w", err)
	}
	fixture.ID = r.tx.nextID()
	fixture.CreatedAt = r.tx.now()
	r.tx.state.fixtures[fixture.ID] = cloneFixture(fixture)
	return nil
}

func (r *memoryFixtureRepository) GetByID(ctx context.Context, id int) (*models.Fixture, error) {
	f, ok := r.tx.state.fixtures[id]
	if !ok {
		return nil, ErrFixtureNotFound
	}
	return cloneFixture(f), nil
}

func (r *memoryFixtureRepository) ListByEvent(ctx context.Context, eventID int) ([]*models.Fixture, error) {
	out := make([]*models.Fixture, 0)
	for _, f := range r.tx.state.fixtures {
		if f.EventID == eventID {
			out = append(out, cloneFixture(f))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memoryFixtureRepository) UpdateSettings(ctx context.Context, fixtureID int, settings models.FixtureSettings) error {
	if err := r.tx.write(); err != nil {
		return err
	}
	f, ok := r.tx.state.fixtures[fixtureID]
	if !ok {
		return ErrFixtureNotFound
	}
	f.Settings = settings
	return f.EncodeSettings()
}

func (r *memoryFixtureRepository) SetParticipants(ctx context.Context, fixtureID int, participantIDs []int) error {
	if err := r.tx.write(); err != nil {
		return err
	}
	f, ok := r.tx.state.fixtures[fixtureID]
	if !ok {
		return ErrFixtureNotFound
	}
	for _, id := range participantIDs {
		if _, ok := r.tx.state.participants[id]; !ok {
			return fmt.Errorf("%w: %d", ErrParticipantNotFound, id)
		}
	}
	f.ParticipantIDs = append([]int{}, participantIDs...)
	return nil
}

func (r *memoryFixtureRepository) UpdateWinners(ctx context.Context, fixtureID int, winners models.FixtureWinners) error {
	if err := r.tx.write(); err != nil {
		return err
	}
	f, ok := r.tx.state.fixtures[fixtureID]
	if !ok {
		return ErrFixtureNotFound
	}
	f.Winners = winners
	return nil
}

type memoryMatchRepository struct{ tx *memoryTx }

func (r *memoryMatchRepository) Create(ctx context.Context, match *models.Match) error {
	if err := r.tx.write(); err != nil {
		return err
	}
	if _, ok := r.tx.state.fixtures[match.FixtureID]; !ok {
		return ErrFixtureNotFound
	}
	for _, m := range r.tx.state.matches {
		if m.FixtureID == match.FixtureID && m.UID == match.UID {
			return fmt.Errorf("%w: %s", ErrMatchUIDConflict, match.UID)
		}
	}
	match.ID = r.tx.nextID()
	match.Version = 1
	match.UpdatedAt = r.tx.now()
	stored := match.Clone()
	// ссылки пишутся отдельно через UpdateLinks
	stored.NextMatchID = nil
	stored.PreviousMatchIDs = nil
	r.tx.state.matches[match.ID] = stored
	return nil
}

func (r *memoryMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	m, ok := r.tx.state.matches[id]
	if !ok {
		return nil, ErrMatchNotFound
	}
	return m.Clone(), nil
}

func (r *memoryMatchRepository) ListByFixture(ctx context.Context, fixtureID int) ([]*models.Match, error) {
	out := make([]*models.Match, 0)
	for _, m := range r.tx.state.matches {
		if m.FixtureID == fixtureID {
			out = append(out, m.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Round != b.Round {
			return a.Round < b.Round
		}
		if a.IsThirdPlaceMatch != b.IsThirdPlaceMatch {
			return !a.IsThirdPlaceMatch
		}
		if a.MatchNumber != b.MatchNumber {
			return a.MatchNumber < b.MatchNumber
		}
		return a.ID < b.ID
	})
	return out, nil
}

func (r *memoryMatchRepository) Update(ctx context.Context, match *models.Match) error {
	if err := r.tx.write(); err != nil {
		return err
	}
	current, ok := r.tx.state.matches[match.ID]
	if !ok {
		return ErrMatchNotFound
	}
	if current.Version != match.Version {
		return fmt.Errorf("%w: match %d version %d", ErrMatchVersionConflict, match.ID, match.Version)
	}
	for _, id := range []*int{match.HomeParticipantID, match.AwayParticipantID, match.HomePartnerID, match.AwayPartnerID, match.WinnerID} {
		if id == nil {
			continue
		}
		if _, ok := r.tx.state.participants[*id]; !ok {
			return fmt.Errorf("%w: %d", ErrParticipantNotFound, *id)
		}
	}
	match.Version = current.Version + 1
	match.UpdatedAt = r.tx.now()
	stored := match.Clone()
	// неизменяемые колонки
	stored.FixtureID = current.FixtureID
	stored.UID = current.UID
	stored.Round = current.Round
	stored.MatchNumber = current.MatchNumber
	stored.IsThirdPlaceMatch = current.IsThirdPlaceMatch
	r.tx.state.matches[match.ID] = stored
	return nil
}

func (r *memoryMatchRepository) UpdateLinks(ctx context.Context, matchID int, nextMatchID *int, previousMatchIDs []int) error {
	if err := r.tx.write(); err != nil {
		return err
	}
	m, ok := r.tx.state.matches[matchID]
	if !ok {
		return ErrMatchNotFound
	}
	if nextMatchID != nil {
		if _, ok := r.tx.state.matches[*nextMatchID]; !ok {
			return fmt.Errorf("UpdateLinks: next match %d: %w", *nextMatchID, ErrMatchNotFound)
		}
		v := *nextMatchID
		m.NextMatchID = &v
	} else {
		m.NextMatchID = nil
	}
	m.PreviousMatchIDs = append([]int{}, previousMatchIDs...)
	return nil
}

func (r *memoryMatchRepository) Delete(ctx context.Context, id int) error {
	if err := r.tx.write(); err != nil {
		return err
	}
	if _, ok := r.tx.state.matches[id]; !ok {
		return ErrMatchNotFound
	}
	delete(r.tx.state.matches, id)
	for _, m := range r.tx.state.matches {
		if m.NextMatchID != nil && *m.NextMatchID == id {
			m.NextMatchID = nil
		}
	}
	return nil
}

func (r *memoryMatchRepository) DeleteByFixture(ctx context.Context, fixtureID int) error {
	if err := r.tx.write(); err != nil {
		return err
	}
	for id, m := range r.tx.state.matches {
		if m.FixtureID == fixtureID {
			delete(r.tx.state.matches, id)
		}
	}
	return nil
}

type memoryParticipantRepository struct{ tx *memoryTx }

func (r *memoryParticipantRepository) Create(ctx context.Context, participant *models.Participant) error {
	if err := r.tx.write(); err != nil {
		return err
	}
	for _, m := range participant.Memberships {
		if err := r.checkMembership(m); err != nil {
			return err
		}
	}
	if participant.TeamID != nil {
		if _, ok := r.tx.state.teams[*participant.TeamID]; !ok {
			return ErrTeamNotFound
		}
	}
	participant.ID = r.tx.nextID()
	r.tx.state.participants[participant.ID] = cloneParticipant(participant)
	return nil
}

func (r *memoryParticipantRepository) AddMembership(ctx context.Context, participantID int, membership models.TeamMembership) error {
	if err := r.tx.write(); err != nil {
		return err
	}
	p, ok := r.tx.state.participants[participantID]
	if !ok {
		return ErrParticipantNotFound
	}
	if err := r.checkMembership(membership); err != nil {
		return err
	}
	for i := range p.Memberships {
		if p.Memberships[i].EventID == membership.EventID {
			p.Memberships[i] = membership
			return nil
		}
	}
	p.Memberships = append(p.Memberships, membership)
	return nil
}

func (r *memoryParticipantRepository) checkMembership(m models.TeamMembership) error {
	if _, ok := r.tx.state.events[m.EventID]; !ok {
		return ErrEventNotFound
	}
	if _, ok := r.tx.state.teams[m.TeamID]; !ok {
		return ErrTeamNotFound
	}
	return nil
}

func (r *memoryParticipantRepository) GetByID(ctx context.Context, id int) (*models.Participant, error) {
	p, ok := r.tx.state.participants[id]
	if !ok {
		return nil, ErrParticipantNotFound
	}
	return cloneParticipant(p), nil
}

func (r *memoryParticipantRepository) ListByIDs(ctx context.Context, ids []int) ([]*models.Participant, error) {
	out := make([]*models.Participant, 0, len(ids))
	for _, id := range ids {
		p, ok := r.tx.state.participants[id]
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrParticipantNotFound, id)
		}
		out = append(out, cloneParticipant(p))
	}
	return out, nil
}

func (r *memoryParticipantRepository) ListPlayersByEvent(ctx context.Context, eventID int) ([]*models.Participant, error) {
	out := make([]*models.Participant, 0)
	for _, p := range r.tx.state.participants {
		if p.IsPlayer() && p.MembershipFor(eventID) != nil {
			out = append(out, cloneParticipant(p))
		}
	}
	sortParticipants(out)
	return out, nil
}

type memoryTeamRepository struct{ tx *memoryTx }

func (r *memoryTeamRepository) Create(ctx context.Context, team *models.Team) error {
	if err := r.tx.write(); err != nil {
		return err
	}
	if _, ok := r.tx.state.events[team.EventID]; !ok {
		return ErrEventNotFound
	}
	team.ID = r.tx.nextID()
	v := *team
	r.tx.state.teams[team.ID] = &v
	return nil
}

func (r *memoryTeamRepository) ListByEvent(ctx context.Context, eventID int) ([]*models.Team, error) {
	out := make([]*models.Team, 0)
	for _, t := range r.tx.state.teams {
		if t.EventID == eventID {
			v := *t
			out = append(out, &v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

type memoryActivityRepository struct{ tx *memoryTx }

func (r *memoryActivityRepository) Create(ctx context.Context, activity *models.Activity) error {
	if err := r.tx.write(); err != nil {
		return err
	}
	if _, ok := r.tx.state.events[activity.EventID]; !ok {
		return ErrEventNotFound
	}
	activity.ID = r.tx.nextID()
	v := *activity
	r.tx.state.activities[activity.ID] = &v
	return nil
}

func (r *memoryActivityRepository) ListByEvent(ctx context.Context, eventID int) ([]*models.Activity, error) {
	out := make([]*models.Activity, 0)
	for _, a := range r.tx.state.activities {
		if a.EventID == eventID {
			v := *a
			out = append(out, &v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func cloneFixture(f *models.Fixture) *models.Fixture {
	c := *f
	c.ParticipantIDs = append([]int{}, f.ParticipantIDs...)
	if f.SettingsJSON != nil {
		s := *f.SettingsJSON
		c.SettingsJSON = &s
	}
	c.Matches = nil
	return &c
}

func cloneParticipant(p *models.Participant) *models.Participant {
	c := *p
	if p.TeamID != nil {
		id := *p.TeamID
		c.TeamID = &id
	}
	c.Memberships = append([]models.TeamMembership(nil), p.Memberships...)
	return &c
}
