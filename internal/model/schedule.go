package model

import (
	"sort"
	"time"
)

// Schedule is the set of placed games plus derived indices. It is mutated
// only by the optimizer during a run and frozen (sorted) before validation.
type Schedule struct {
	Games []*Game

	byTeam map[string][]*Game
	byDate map[string][]*Game
	bySlot map[string]*Game
	byPair map[string]int
}

// NewSchedule returns an empty schedule with initialized indices.
func NewSchedule() *Schedule {
	return &Schedule{
		byTeam: make(map[string][]*Game),
		byDate: make(map[string][]*Game),
		bySlot: make(map[string]*Game),
		byPair: make(map[string]int),
	}
}

// Add places a game and updates every index. It does not check legality;
// that is the constraint evaluator's job.
func (s *Schedule) Add(g *Game) {
	s.Games = append(s.Games, g)
	s.byTeam[g.HomeTeamID] = append(s.byTeam[g.HomeTeamID], g)
	s.byTeam[g.AwayTeamID] = append(s.byTeam[g.AwayTeamID], g)
	s.byDate[DateKey(g.Slot.Date)] = append(s.byDate[DateKey(g.Slot.Date)], g)
	s.bySlot[g.Slot.Key()] = g
	s.byPair[PairKey(g.HomeTeamID, g.AwayTeamID)]++
}

// Remove withdraws a game, reversing Add. Used by the optimizer when a pass
// is rolled back.
func (s *Schedule) Remove(g *Game) {
	s.Games = removeGame(s.Games, g)
	s.byTeam[g.HomeTeamID] = removeGame(s.byTeam[g.HomeTeamID], g)
	s.byTeam[g.AwayTeamID] = removeGame(s.byTeam[g.AwayTeamID], g)
	s.byDate[DateKey(g.Slot.Date)] = removeGame(s.byDate[DateKey(g.Slot.Date)], g)
	delete(s.bySlot, g.Slot.Key())
	if s.byPair[PairKey(g.HomeTeamID, g.AwayTeamID)] > 0 {
		s.byPair[PairKey(g.HomeTeamID, g.AwayTeamID)]--
	}
}

func removeGame(games []*Game, g *Game) []*Game {
	for i, cur := range games {
		if cur == g {
			return append(games[:i], games[i+1:]...)
		}
	}
	return games
}

// Len returns the number of placed games.
func (s *Schedule) Len() int { return len(s.Games) }

// GamesForTeam returns the team's games in placement order.
func (s *Schedule) GamesForTeam(teamID string) []*Game { return s.byTeam[teamID] }

// GamesOnDate returns all games on the given date.
func (s *Schedule) GamesOnDate(date time.Time) []*Game { return s.byDate[DateKey(date)] }

// GamesForTeamOn returns the team's games on the given date.
func (s *Schedule) GamesForTeamOn(teamID string, date time.Time) []*Game {
	var out []*Game
	for _, g := range s.byTeam[teamID] {
		if g.Slot.Date.Equal(date) {
			out = append(out, g)
		}
	}
	return out
}

// AtSlot returns the game occupying the slot, or nil.
func (s *Schedule) AtSlot(slot TimeSlot) *Game { return s.bySlot[slot.Key()] }

// Rematches returns how many times the unordered pair has already played.
func (s *Schedule) Rematches(a, b string) int { return s.byPair[PairKey(a, b)] }

// Doubleheaders returns how many dates carry two of the team's games.
func (s *Schedule) Doubleheaders(teamID string) int {
	perDate := make(map[string]int)
	for _, g := range s.byTeam[teamID] {
		perDate[DateKey(g.Slot.Date)]++
	}
	n := 0
	for _, c := range perDate {
		if c > 1 {
			n++
		}
	}
	return n
}

// HomeAway returns the team's home and away game counts.
func (s *Schedule) HomeAway(teamID string) (home, away int) {
	for _, g := range s.byTeam[teamID] {
		if g.HomeTeamID == teamID {
			home++
		} else {
			away++
		}
	}
	return home, away
}

// GamesInWindow counts the team's games with dates in [from, to] inclusive.
func (s *Schedule) GamesInWindow(teamID string, from, to time.Time) int {
	n := 0
	for _, g := range s.byTeam[teamID] {
		d := g.Slot.Date
		if !d.Before(from) && !d.After(to) {
			n++
		}
	}
	return n
}

// Sort puts games in canonical order: date, start time, facility, court,
// then id as the final tiebreak. Called once before the schedule is returned.
func (s *Schedule) Sort() {
	sort.Slice(s.Games, func(i, j int) bool {
		a, b := s.Games[i], s.Games[j]
		if !a.Slot.Date.Equal(b.Slot.Date) {
			return a.Slot.Date.Before(b.Slot.Date)
		}
		if !a.Slot.Start.Equal(b.Slot.Start) {
			return a.Slot.Start.Before(b.Slot.Start)
		}
		if a.Slot.FacilityID != b.Slot.FacilityID {
			return a.Slot.FacilityID < b.Slot.FacilityID
		}
		if a.Slot.Court != b.Slot.Court {
			return a.Slot.Court < b.Slot.Court
		}
		return a.ID < b.ID
	})
}
