package brackets

import (
	"context"
	"fmt"

	"github.com/Dosada05/tournament-dashboard/models"
)

type RoundRobinGenerator struct{}

func NewRoundRobinGenerator() BracketGenerator {
	return &RoundRobinGenerator{}
}

func (g *RoundRobinGenerator) GetName() string {
	return "RoundRobin"
}

// GenerateBracket creates a league schedule with the circle method. Round is the matchday.
// With an odd number of participants one of them rests every matchday.
// With two legs the second half of the season repeats the first with home and away swapped.
func (g *RoundRobinGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) (*Bracket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if params.Fixture == nil {
		return nil, fmt.Errorf("round robin: fixture is required")
	}
	n := len(params.Participants)
	if n < 2 {
		return nil, fmt.Errorf("%w: found %d", ErrInvalidParticipantCount, n)
	}
	settings := params.Fixture.Settings
	legs := settings.NumberOfRounds
	if legs != 2 {
		legs = 1
	}

	order := make([]*models.Participant, n)
	copy(order, params.Participants)
	if settings.RandomizeSeeds {
		order = ShuffleParticipants(order, settings.Seed)
	}

	// nil is the resting placeholder
	wheel := make([]*models.Participant, len(order), len(order)+1)
	copy(wheel, order)
	if len(wheel)%2 == 1 {
		wheel = append(wheel, nil)
	}
	size := len(wheel)
	matchdays := size - 1

	type pairing struct{ home, away *models.Participant }
	schedule := make([][]pairing, 0, matchdays)
	for day := 0; day < matchdays; day++ {
		var pairs []pairing
		for i := 0; i < size/2; i++ {
			home, away := wheel[i], wheel[size-1-i]
			if home == nil || away == nil {
				continue
			}
			// alternate the fixed participant's side
			if i == 0 && day%2 == 1 {
				home, away = away, home
			}
			pairs = append(pairs, pairing{home, away})
		}
		schedule = append(schedule, pairs)

		// rotate everything but the first position clockwise
		last := wheel[size-1]
		copy(wheel[2:], wheel[1:size-1])
		wheel[1] = last
	}

	matches := make([]*models.Match, 0, legs*n*(n-1)/2)
	nextID := 0
	for leg := 0; leg < legs; leg++ {
		for day, pairs := range schedule {
			round := leg*matchdays + day + 1
			for i, p := range pairs {
				home, away := p.home, p.away
				if leg == 1 {
					home, away = away, home
				}
				nextID++
				matches = append(matches, &models.Match{
					ID:                nextID,
					FixtureID:         params.Fixture.ID,
					UID:               matchUID(round, i+1),
					Round:             round,
					MatchNumber:       i + 1,
					HomeParticipantID: models.IntPtr(home.ID),
					AwayParticipantID: models.IntPtr(away.ID),
					Status:            models.StatusScheduled,
				})
			}
		}
	}

	seeding := make([]int, len(order))
	for i, p := range order {
		seeding[i] = p.ID
	}
	return &Bracket{Matches: matches, Seeding: seeding}, nil
}
