package brackets

import (
	"sort"

	"github.com/Dosada05/tournament-dashboard/models"
)

// Graph is the match DAG of one fixture, stored as an arena of matches plus an id index.
// Links between matches are ids (NextMatchID, PreviousMatchIDs), never pointers.
type Graph struct {
	matches []*models.Match
	index   map[int]int
	dirty   map[int]bool
	deleted []int
}

// NewGraph builds a graph over deep copies of the given matches.
func NewGraph(matches []*models.Match) *Graph {
	owned := make([]*models.Match, 0, len(matches))
	for _, m := range matches {
		if m != nil {
			owned = append(owned, m.Clone())
		}
	}
	return newOwnedGraph(owned)
}

func newOwnedGraph(matches []*models.Match) *Graph {
	g := &Graph{
		matches: matches,
		index:   make(map[int]int, len(matches)),
		dirty:   make(map[int]bool),
	}
	for i, m := range matches {
		g.index[m.ID] = i
	}
	return g
}

func (g *Graph) Len() int {
	return len(g.matches)
}

func (g *Graph) Match(id int) (*models.Match, bool) {
	i, ok := g.index[id]
	if !ok {
		return nil, false
	}
	return g.matches[i], true
}

func (g *Graph) mustMatch(id int) (*models.Match, error) {
	m, ok := g.Match(id)
	if !ok {
		return nil, ErrMatchNotFound
	}
	return m, nil
}

// Matches returns the matches ordered by round, third-place match last within its round, then number.
func (g *Graph) Matches() []*models.Match {
	out := make([]*models.Match, len(g.matches))
	copy(out, g.matches)
	SortMatches(out)
	return out
}

// SortMatches orders matches the way brackets are listed everywhere.
func SortMatches(matches []*models.Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
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
}

func (g *Graph) Clone() *Graph {
	return NewGraph(g.matches)
}

func (g *Graph) Rounds() int {
	rounds := 0
	for _, m := range g.matches {
		if m.Round > rounds {
			rounds = m.Round
		}
	}
	return rounds
}

// Final is the only non-third-place match without a next match.
func (g *Graph) Final() *models.Match {
	var final *models.Match
	for _, m := range g.matches {
		if m.IsThirdPlaceMatch || m.NextMatchID != nil {
			continue
		}
		if final == nil || m.Round > final.Round {
			final = m
		}
	}
	return final
}

func (g *Graph) ThirdPlaceMatch() *models.Match {
	for _, m := range g.matches {
		if m.IsThirdPlaceMatch {
			return m
		}
	}
	return nil
}

// thirdPlaceFedBy returns the third-place match and the feeder index of matchID, if matchID is a semifinal.
func (g *Graph) thirdPlaceFedBy(matchID int) (*models.Match, int) {
	tp := g.ThirdPlaceMatch()
	if tp == nil {
		return nil, -1
	}
	for i, id := range tp.PreviousMatchIDs {
		if id == matchID {
			return tp, i
		}
	}
	return nil, -1
}

// HasPlayedMatches is true once any real match is completed, in progress or forfeited.
func (g *Graph) HasPlayedMatches() bool {
	for _, m := range g.matches {
		if m.HasStarted() {
			return true
		}
	}
	return false
}

func (g *Graph) markDirty(ids ...int) {
	for _, id := range ids {
		g.dirty[id] = true
	}
}

// Dirty returns the matches modified since the graph was built, in listing order.
func (g *Graph) Dirty() []*models.Match {
	out := make([]*models.Match, 0, len(g.dirty))
	for id := range g.dirty {
		if m, ok := g.Match(id); ok {
			out = append(out, m)
		}
	}
	SortMatches(out)
	return out
}

// Deleted returns ids of matches pruned from the graph.
func (g *Graph) Deleted() []int {
	return append([]int(nil), g.deleted...)
}

func (g *Graph) remove(id int) {
	i, ok := g.index[id]
	if !ok {
		return
	}
	g.matches = append(g.matches[:i], g.matches[i+1:]...)
	delete(g.dirty, id)
	g.index = make(map[int]int, len(g.matches))
	for j, m := range g.matches {
		g.index[m.ID] = j
	}
	g.deleted = append(g.deleted, id)
}

// PlayableCount counts matches that need a result: bye walkovers and the third-place match excluded.
func PlayableCount(matches []*models.Match) int {
	n := 0
	for _, m := range matches {
		if !m.IsBye && !m.IsThirdPlaceMatch {
			n++
		}
	}
	return n
}
