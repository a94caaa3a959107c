package brackets

import (
	"context"
	"fmt"
	"math/bits"

	"github.com/Dosada05/tournament-dashboard/models"
)

type SingleEliminationGenerator struct {
	MaxReseedAttempts int
}

func NewSingleEliminationGenerator(maxReseedAttempts int) BracketGenerator {
	if maxReseedAttempts <= 0 {
		maxReseedAttempts = DefaultMaxReseedAttempts
	}
	return &SingleEliminationGenerator{MaxReseedAttempts: maxReseedAttempts}
}

func (g *SingleEliminationGenerator) GetName() string {
	return "SingleElimination"
}

// GenerateBracket builds the whole knockout graph. Bye matches are materialized as walkovers and
// their participant is already placed in the next round.
func (g *SingleEliminationGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) (*Bracket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if params.Fixture == nil {
		return nil, fmt.Errorf("single elimination: fixture is required")
	}
	n := len(params.Participants)
	if n < 2 {
		return nil, fmt.Errorf("%w: found %d", ErrInvalidParticipantCount, n)
	}
	settings := params.Fixture.Settings

	order := make([]*models.Participant, n)
	copy(order, params.Participants)
	if settings.RandomizeSeeds {
		order = ShuffleParticipants(order, settings.Seed)
	}

	bracketSize := NextPowerOfTwo(n)
	numByes := bracketSize - n
	numRounds := bits.TrailingZeros(uint(bracketSize))
	mask := byeMask(bracketSize/2, numByes)

	fallback := false
	if settings.AvoidSameTeamFirstRound && params.Fixture.ParticipantType == models.ParticipantPlayer {
		order, fallback = separateTeammates(order, mask, params.Fixture.EventID, settings.Seed, g.MaxReseedAttempts)
	}

	nextID := 0
	newMatch := func(round, number int) *models.Match {
		nextID++
		return &models.Match{
			ID:          nextID,
			FixtureID:   params.Fixture.ID,
			UID:         matchUID(round, number),
			Round:       round,
			MatchNumber: number,
			Status:      models.StatusScheduled,
		}
	}

	all := make([]*models.Match, 0, bracketSize)
	previousRound := make([]*models.Match, 0, bracketSize/2)
	for i, group := range pairings(order, mask) {
		m := newMatch(1, i+1)
		m.HomeParticipantID = models.IntPtr(group[0].ID)
		if len(group) == 2 {
			m.AwayParticipantID = models.IntPtr(group[1].ID)
		} else {
			m.IsBye = true
			m.Status = models.StatusWalkover
			m.WinnerID = models.IntPtr(group[0].ID)
		}
		previousRound = append(previousRound, m)
		all = append(all, m)
	}

	for r := 2; r <= numRounds; r++ {
		currentRound := make([]*models.Match, 0, len(previousRound)/2)
		for i := 0; i < len(previousRound); i += 2 {
			m := newMatch(r, i/2+1)
			left, right := previousRound[i], previousRound[i+1]
			m.PreviousMatchIDs = []int{left.ID, right.ID}
			left.NextMatchID = models.IntPtr(m.ID)
			right.NextMatchID = models.IntPtr(m.ID)
			currentRound = append(currentRound, m)
			all = append(all, m)
		}
		previousRound = currentRound
	}

	if settings.ThirdPlaceMatch && numRounds >= 2 {
		var semis []int
		for _, m := range all {
			if m.Round == numRounds-1 {
				semis = append(semis, m.ID)
			}
		}
		tp := newMatch(numRounds, 2)
		tp.UID = "3RD"
		tp.IsThirdPlaceMatch = true
		tp.PreviousMatchIDs = semis
		all = append(all, tp)
	}

	graph := newOwnedGraph(all)
	for _, m := range all {
		if !m.IsBye {
			continue
		}
		if err := propagate(graph, m); err != nil {
			return nil, fmt.Errorf("single elimination: advancing bye %s: %w", m.UID, err)
		}
	}

	seeding := make([]int, len(order))
	for i, p := range order {
		seeding[i] = p.ID
	}
	return &Bracket{
		Matches:          graph.Matches(),
		Seeding:          seeding,
		SameTeamFallback: fallback,
	}, nil
}
