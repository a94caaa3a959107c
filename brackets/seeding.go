package brackets

import (
	"math/rand"

	"github.com/Dosada05/tournament-dashboard/models"
)

// DefaultMaxReseedAttempts bounds the reshuffles tried to keep teammates apart in round one.
const DefaultMaxReseedAttempts = 64

func NextPowerOfTwo(n int) int {
	size := 1
	for size < n {
		size <<= 1
	}
	return size
}

// StandardSeedOrder returns seed numbers (1-based) in bracket position order, e.g. size 8 gives
// [1 8 4 5 2 7 3 6]. Adjacent pairs meet in the first round.
func StandardSeedOrder(size int) []int {
	order := []int{1}
	for len(order) < size {
		next := make([]int, 0, len(order)*2)
		sum := len(order)*2 + 1
		for _, s := range order {
			next = append(next, s, sum-s)
		}
		order = next
	}
	return order
}

// byeMask marks which first-round match positions carry a bye. Positions are ranked with the
// standard seed order and the lowest ranked ones take the byes, which spreads byes over both halves.
func byeMask(matchesInRound, byes int) []bool {
	mask := make([]bool, matchesInRound)
	if byes <= 0 {
		return mask
	}
	ranks := StandardSeedOrder(matchesInRound)
	for pos, rank := range ranks {
		if rank > matchesInRound-byes {
			mask[pos] = true
		}
	}
	return mask
}

// ShuffleParticipants returns a shuffled copy; the same seed always yields the same order.
func ShuffleParticipants(participants []*models.Participant, seed int64) []*models.Participant {
	out := make([]*models.Participant, len(participants))
	copy(out, participants)
	r := rand.New(rand.NewSource(seed))
	r.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// pairings splits the fill order into first-round groups: two participants for a full match,
// one for a bye match.
func pairings(order []*models.Participant, mask []bool) [][]*models.Participant {
	groups := make([][]*models.Participant, len(mask))
	k := 0
	for i, bye := range mask {
		if bye {
			groups[i] = []*models.Participant{order[k]}
			k++
			continue
		}
		groups[i] = []*models.Participant{order[k], order[k+1]}
		k += 2
	}
	return groups
}

// matchOfPosition maps every position of the fill order onto its first-round match index.
func matchOfPosition(mask []bool) []int {
	var out []int
	for i, bye := range mask {
		out = append(out, i)
		if !bye {
			out = append(out, i)
		}
	}
	return out
}

func sameTeamConflicts(order []*models.Participant, mask []bool, eventID int) int {
	conflicts := 0
	for _, group := range pairings(order, mask) {
		if len(group) == 2 && group[0].SharesTeamWith(group[1], eventID) {
			conflicts++
		}
	}
	return conflicts
}

// separateTeammates reorders the fill order so that no first-round match pairs two players of the
// same team. It first repairs greedily by swapping positions, then tries seeded reshuffles. When no
// compliant order is found it returns the original order and fallback=true.
func separateTeammates(order []*models.Participant, mask []bool, eventID int, seed int64, maxAttempts int) (result []*models.Participant, fallback bool) {
	if sameTeamConflicts(order, mask, eventID) == 0 {
		return order, false
	}

	repaired := make([]*models.Participant, len(order))
	copy(repaired, order)
	matchOf := matchOfPosition(mask)
	for {
		current := sameTeamConflicts(repaired, mask, eventID)
		if current == 0 {
			return repaired, false
		}
		improved := false
		for p := 0; p < len(repaired) && !improved; p++ {
			for q := p + 1; q < len(repaired); q++ {
				if matchOf[p] == matchOf[q] {
					continue
				}
				repaired[p], repaired[q] = repaired[q], repaired[p]
				if sameTeamConflicts(repaired, mask, eventID) < current {
					improved = true
					break
				}
				repaired[p], repaired[q] = repaired[q], repaired[p]
			}
		}
		if !improved {
			break
		}
	}

	r := rand.New(rand.NewSource(seed))
	candidate := make([]*models.Participant, len(order))
	for attempt := 0; attempt < maxAttempts; attempt++ {
		copy(candidate, order)
		r.Shuffle(len(candidate), func(i, j int) { candidate[i], candidate[j] = candidate[j], candidate[i] })
		if sameTeamConflicts(candidate, mask, eventID) == 0 {
			return candidate, false
		}
	}
	return order, true
}
