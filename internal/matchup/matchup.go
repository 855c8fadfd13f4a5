package matchup

import (
	"fmt"
	"sort"

	"github.com/ncsaa/hoopsched/internal/config"
	"github.com/ncsaa/hoopsched/internal/model"
)

// Pairing is one candidate game inside a school matchup.
type Pairing struct {
	Division model.Division
	TeamA    string // team from the first school
	TeamB    string // team from the second school
}

// SchoolMatchup bundles one candidate game per division shared by two
// schools. The optimizer places the whole bundle into a single block of
// consecutive slots on one court.
type SchoolMatchup struct {
	SchoolA  string
	SchoolB  string
	Pairings []Pairing
	Score    int // composite desirability, higher is better
}

// Key identifies the school pair independent of order.
func (m *SchoolMatchup) Key() string {
	return model.PairKey(m.SchoolA, m.SchoolB)
}

// Planner generates the ranked school matchups for a season.
type Planner interface {
	Plan(league *model.League) []*SchoolMatchup
}

// Get returns a Planner by name.
func Get(name string, cfg *config.Config) (Planner, error) {
	switch name {
	case "school_paired":
		return &SchoolPaired{cfg: cfg}, nil
	default:
		return nil, fmt.Errorf("unknown strategy: %q", name)
	}
}

// SchoolPaired pairs every two schools that share at least one division
// and scores the pair by cluster match, tier affinity, rivalries, and
// do-not-play saturation. Games within a matchup are ordered so that
// games sharing a coach sit next to each other.
type SchoolPaired struct {
	cfg *config.Config
}

func (p *SchoolPaired) Plan(league *model.League) []*SchoolMatchup {
	var matchups []*SchoolMatchup
	for i := 0; i < len(league.Schools); i++ {
		for j := i + 1; j < len(league.Schools); j++ {
			m := p.pairSchools(league, league.Schools[i], league.Schools[j])
			if m != nil {
				matchups = append(matchups, m)
			}
		}
	}

	sort.SliceStable(matchups, func(a, b int) bool {
		if matchups[a].Score != matchups[b].Score {
			return matchups[a].Score > matchups[b].Score
		}
		return matchups[a].Key() < matchups[b].Key()
	})
	return matchups
}

func (p *SchoolPaired) pairSchools(league *model.League, a, b *model.School) *SchoolMatchup {
	teamsA := indexByDivision(league.TeamsBySchool(a.ID))
	teamsB := indexByDivision(league.TeamsBySchool(b.ID))

	m := &SchoolMatchup{SchoolA: a.ID, SchoolB: b.ID}
	for _, div := range model.Divisions() {
		ta, tb := teamsA[div], teamsB[div]
		if ta == nil || tb == nil {
			continue
		}
		if ta.DoNotPlay[tb.ID] || tb.DoNotPlay[ta.ID] {
			continue
		}
		m.Pairings = append(m.Pairings, Pairing{Division: div, TeamA: ta.ID, TeamB: tb.ID})
	}
	if len(m.Pairings) == 0 {
		return nil
	}

	m.Score = p.score(league, a, b, m.Pairings)
	m.Pairings = p.orderByCoach(league, m.Pairings)
	return m
}

func indexByDivision(teams []*model.Team) map[model.Division]*model.Team {
	byDiv := make(map[model.Division]*model.Team, len(teams))
	for _, t := range teams {
		byDiv[t.Division] = t
	}
	return byDiv
}

// score rates the pairing on league structure alone. Rematch pressure is
// applied by the optimizer, which re-ranks matchups against the live
// schedule before each seeding sweep.
func (p *SchoolPaired) score(league *model.League, a, b *model.School, pairings []Pairing) int {
	w := p.cfg.PriorityWeights
	score := 0

	// More shared divisions fill more of a block in one placement.
	score += len(pairings) * w.SchoolClustering

	if a.Cluster != "" && a.Cluster == b.Cluster {
		score += w.GeographicCluster * len(pairings)
	}

	for _, pr := range pairings {
		ta, tb := league.Team(pr.TeamA), league.Team(pr.TeamB)
		if ta == nil || tb == nil {
			continue
		}
		if !pr.Division.Traits().Rec {
			diff := ta.Tier - tb.Tier
			if diff < 0 {
				diff = -diff
			}
			if diff < 3 {
				score += w.TierMatch * (3 - diff) / 3
			}
		}
		if ta.Rivals[tb.ID] || tb.Rivals[ta.ID] {
			score += w.RespectRivals
		}
	}
	return score
}

// orderByCoach reorders pairings so games whose teams share a coach end up
// in consecutive block slots. Order is otherwise preserved.
func (p *SchoolPaired) orderByCoach(league *model.League, pairings []Pairing) []Pairing {
	if len(pairings) < 3 {
		return pairings
	}

	coaches := func(pr Pairing) []string {
		var ids []string
		for _, teamID := range []string{pr.TeamA, pr.TeamB} {
			if t := league.Team(teamID); t != nil && t.CoachID != "" {
				ids = append(ids, t.CoachID)
			}
		}
		return ids
	}
	shares := func(x, y Pairing) bool {
		for _, cx := range coaches(x) {
			for _, cy := range coaches(y) {
				if cx == cy {
					return true
				}
			}
		}
		return false
	}

	ordered := make([]Pairing, 0, len(pairings))
	used := make([]bool, len(pairings))
	for i := range pairings {
		if used[i] {
			continue
		}
		ordered = append(ordered, pairings[i])
		used[i] = true
		// Pull forward any later pairing sharing a coach with the one just
		// placed, chaining until no more match.
		for {
			found := false
			for j := i + 1; j < len(pairings); j++ {
				if !used[j] && shares(ordered[len(ordered)-1], pairings[j]) {
					ordered = append(ordered, pairings[j])
					used[j] = true
					found = true
					break
				}
			}
			if !found {
				break
			}
		}
	}
	return ordered
}
