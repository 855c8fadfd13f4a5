package engine

import (
	"math/rand"

	"github.com/ncsaa/hoopsched/internal/model"
)

// chooseHome decides which side of a placed pairing is the home team.
// Facility ownership dominates: a team at its own gym hosts 90% of the
// time. When both teams call the facility home the stronger (lower) tier
// is favored 60/40, with a lexicographic tiebreak on equal tiers. When
// neither does, the team further below its home-count target hosts. All
// randomness comes from the optimizer's seeded generator.
func chooseHome(s *model.Schedule, a, b *model.Team, facilityID string, target int, rng *rand.Rand) (home, away *model.Team) {
	aOwns := a.HomeFacilityID != "" && a.HomeFacilityID == facilityID
	bOwns := b.HomeFacilityID != "" && b.HomeFacilityID == facilityID

	switch {
	case aOwns && !bOwns:
		return withProbability(a, b, 0.9, rng)
	case bOwns && !aOwns:
		return withProbability(b, a, 0.9, rng)
	case aOwns && bOwns:
		favored, other := a, b
		if b.Tier < a.Tier || (b.Tier == a.Tier && b.ID < a.ID) {
			favored, other = b, a
		}
		return withProbability(favored, other, 0.6, rng)
	}

	// Neither owns the floor: host the team further below its target home
	// count.
	aHome, _ := s.HomeAway(a.ID)
	bHome, _ := s.HomeAway(b.ID)
	wantHome := target / 2
	aDeficit := wantHome - aHome
	bDeficit := wantHome - bHome
	switch {
	case aDeficit > bDeficit:
		return a, b
	case bDeficit > aDeficit:
		return b, a
	}
	return withProbability(a, b, 0.5, rng)
}

func withProbability(favored, other *model.Team, p float64, rng *rand.Rand) (home, away *model.Team) {
	if rng.Float64() < p {
		return favored, other
	}
	return other, favored
}
