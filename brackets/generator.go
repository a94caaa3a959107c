package brackets

import (
	"context"
	"fmt"

	"github.com/Dosada05/tournament-dashboard/models"
)

type GenerateBracketParams struct {
	Fixture      *models.Fixture
	Participants []*models.Participant
}

// Bracket is the output of a generator: the full match graph plus the seeding that produced it.
// Match ids are local (1..n); the service layer maps them to stored ids.
type Bracket struct {
	Matches          []*models.Match `json:"matches"`
	Seeding          []int           `json:"seeding"`
	SameTeamFallback bool            `json:"same_team_fallback"`
}

type BracketGenerator interface {
	GenerateBracket(ctx context.Context, params GenerateBracketParams) (*Bracket, error)

	GetName() string
}

// GeneratorFor picks the generator for a fixture format.
func GeneratorFor(format models.FixtureFormat, maxReseedAttempts int) (BracketGenerator, bool) {
	switch format {
	case models.FormatKnockout:
		return NewSingleEliminationGenerator(maxReseedAttempts), true
	case models.FormatRoundRobin:
		return NewRoundRobinGenerator(), true
	}
	return nil, false
}

func matchUID(round, number int) string {
	return fmt.Sprintf("R%dM%d", round, number)
}
