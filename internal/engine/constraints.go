package engine

import (
	"fmt"
	"sort"
	"time"

	"github.com/ncsaa/hoopsched/internal/config"
	"github.com/ncsaa/hoopsched/internal/model"
)

// Rule names used in violations, relaxations and validation findings.
const (
	RuleSlotConflict    = "slot_conflict"
	RuleTeamOverlap     = "team_double_booking"
	RuleFrequency7      = "too_many_games_per_week"
	RuleFrequency14     = "too_many_games_per_2weeks"
	RuleDoubleheaderCap = "too_many_doubleheaders"
	RuleDoubleheaderGap = "doubleheader_break"
	RuleDoNotPlay       = "do_not_play_violation"
	RuleFacility        = "facility_not_eligible"
	RuleExcludedDate    = "excluded_date"
	RuleSameSchool      = "same_school_conflict"
	RuleRematchCap      = "excessive_rematches"
	RuleMinGap          = "min_day_gap"
)

// Limits are the effective hard-rule bounds for one placement attempt.
// Stage B loosens them tier by tier; structural rules are not represented
// here because they are never negotiable.
type Limits struct {
	MinDayGap        int // days required between a team's games; 0 allows same-day
	MaxRematches     int
	AllowDoNotPlay   bool
	EnforceFrequency bool
}

// Evaluator applies hard rules and soft preferences to schedule snapshots
// and candidate placements. It holds no mutable state.
type Evaluator struct {
	cfg    *config.Config
	league *model.League
}

func NewEvaluator(cfg *config.Config, league *model.League) *Evaluator {
	return &Evaluator{cfg: cfg, league: league}
}

// BaseLimits returns the strictest placement bounds, used by stage A and
// the first stage B tier.
func (e *Evaluator) BaseLimits() Limits {
	return Limits{
		MinDayGap:        2,
		MaxRematches:     e.cfg.Rules.MaxRematches,
		AllowDoNotPlay:   false,
		EnforceFrequency: true,
	}
}

// CheckGame classifies a candidate placement. It returns the name of the
// first violated rule and false when the placement is illegal under the
// given limits. Checks are ordered cheapest first.
func (e *Evaluator) CheckGame(s *model.Schedule, home, away *model.Team, slot model.TimeSlot, lim Limits) (string, bool) {
	if home.SchoolID == away.SchoolID {
		return RuleSameSchool, false
	}

	facility := e.league.Facility(slot.FacilityID)
	if facility == nil || !facility.EligibleFor(home.Division) {
		return RuleFacility, false
	}

	if e.dateExcluded(home, away, slot.Date) {
		return RuleExcludedDate, false
	}

	if !lim.AllowDoNotPlay && (home.DoNotPlay[away.ID] || away.DoNotPlay[home.ID]) {
		return RuleDoNotPlay, false
	}

	if s.Rematches(home.ID, away.ID) >= lim.MaxRematches {
		return RuleRematchCap, false
	}

	if s.AtSlot(slot) != nil {
		return RuleSlotConflict, false
	}

	for _, teamID := range []string{home.ID, away.ID} {
		if rule, ok := e.checkTeamCalendar(s, teamID, slot, lim); !ok {
			return rule, false
		}
	}
	return "", true
}

// BaseViolations lists every base rule a placement would bend, in check
// order. A relaxed placement records one relaxation per entry so that
// re-validation finds each bent rule covered, not just the first.
func (e *Evaluator) BaseViolations(s *model.Schedule, home, away *model.Team, slot model.TimeSlot) []string {
	var out []string
	seen := make(map[string]bool)
	record := func(rule string) {
		if rule != "" && !seen[rule] {
			seen[rule] = true
			out = append(out, rule)
		}
	}

	base := e.BaseLimits()
	if home.SchoolID == away.SchoolID {
		record(RuleSameSchool)
	}
	if f := e.league.Facility(slot.FacilityID); f == nil || !f.EligibleFor(home.Division) {
		record(RuleFacility)
	}
	if e.dateExcluded(home, away, slot.Date) {
		record(RuleExcludedDate)
	}
	if home.DoNotPlay[away.ID] || away.DoNotPlay[home.ID] {
		record(RuleDoNotPlay)
	}
	if s.Rematches(home.ID, away.ID) >= base.MaxRematches {
		record(RuleRematchCap)
	}
	if s.AtSlot(slot) != nil {
		record(RuleSlotConflict)
	}
	for _, teamID := range []string{home.ID, away.ID} {
		if rule, ok := e.checkTeamCalendar(s, teamID, slot, base); !ok {
			record(rule)
		}
		// The calendar check stops at its first finding, so the frequency
		// caps are re-checked on their own.
		if !e.windowOK(s, teamID, slot.Date, 7, e.cfg.Rules.MaxGamesPer7Days) {
			record(RuleFrequency7)
		}
		if !e.windowOK(s, teamID, slot.Date, 14, e.cfg.Rules.MaxGamesPer14Days) {
			record(RuleFrequency14)
		}
	}
	return out
}

// checkTeamCalendar applies the per-team timing rules: overlap, day gap,
// doubleheader cap and break, and rolling frequency caps.
func (e *Evaluator) checkTeamCalendar(s *model.Schedule, teamID string, slot model.TimeSlot, lim Limits) (string, bool) {
	sameDay := 0
	for _, g := range s.GamesForTeam(teamID) {
		if g.Slot.SameTime(slot) {
			return RuleTeamOverlap, false
		}
		gap := daysBetween(g.Slot.Date, slot.Date)
		if gap < lim.MinDayGap {
			return RuleMinGap, false
		}
		if gap == 0 {
			sameDay++
		}
	}

	if sameDay > 0 {
		// A second game on one date is a doubleheader; a third is never
		// allowed.
		if sameDay >= 2 {
			return RuleDoubleheaderCap, false
		}
		if s.Doubleheaders(teamID) >= e.cfg.Rules.MaxDoubleheadersPerSeason {
			return RuleDoubleheaderCap, false
		}
		if !e.doubleheaderBreakOK(s, teamID, slot) {
			return RuleDoubleheaderGap, false
		}
	}

	if lim.EnforceFrequency {
		if !e.windowOK(s, teamID, slot.Date, 7, e.cfg.Rules.MaxGamesPer7Days) {
			return RuleFrequency7, false
		}
		if !e.windowOK(s, teamID, slot.Date, 14, e.cfg.Rules.MaxGamesPer14Days) {
			return RuleFrequency14, false
		}
	}
	return "", true
}

// dateExcluded reports whether either school is blacked out on the date.
// Facility calendars, holidays and Sundays are already excluded from the
// slot pool at generation time.
func (e *Evaluator) dateExcluded(home, away *model.Team, date time.Time) bool {
	if sc := e.league.School(home.SchoolID); sc != nil && sc.BlackedOut(date) {
		return true
	}
	if sc := e.league.School(away.SchoolID); sc != nil && sc.BlackedOut(date) {
		return true
	}
	return false
}

func (e *Evaluator) doubleheaderBreakOK(s *model.Schedule, teamID string, slot model.TimeSlot) bool {
	breakDur := time.Duration(e.cfg.Rules.DoubleheaderBreakMinutes) * time.Minute
	for _, g := range s.GamesForTeamOn(teamID, slot.Date) {
		var rest time.Duration
		if g.Slot.End.Before(slot.Start) || g.Slot.End.Equal(slot.Start) {
			rest = slot.Start.Sub(g.Slot.End)
		} else {
			rest = g.Slot.Start.Sub(slot.End)
		}
		if rest < breakDur {
			return false
		}
	}
	return true
}

// windowOK verifies that every rolling window of the given span that would
// contain the new game stays within the cap.
func (e *Evaluator) windowOK(s *model.Schedule, teamID string, date time.Time, span, limit int) bool {
	for offset := -(span - 1); offset <= 0; offset++ {
		from := date.AddDate(0, 0, offset)
		to := from.AddDate(0, 0, span-1)
		if s.GamesInWindow(teamID, from, to)+1 > limit {
			return false
		}
	}
	return true
}

func daysBetween(a, b time.Time) int {
	d := int(b.Sub(a).Hours() / 24)
	if d < 0 {
		return -d
	}
	return d
}

// ScorePair rates the intrinsic desirability of an opponent pairing:
// cluster match, tier affinity, rivalry, and pressure against the rematch
// cap. Slot-independent, so the planner uses it for ranking too.
func (e *Evaluator) ScorePair(s *model.Schedule, home, away *model.Team) int {
	w := e.cfg.PriorityWeights
	score := 0
	if home.Cluster != "" && home.Cluster == away.Cluster {
		score += w.GeographicCluster
	}
	if !home.Division.Traits().Rec {
		diff := home.Tier - away.Tier
		if diff < 0 {
			diff = -diff
		}
		if diff < 3 {
			score += w.TierMatch * (3 - diff) / 3
		}
	}
	if home.Rivals[away.ID] || away.Rivals[home.ID] {
		score += w.RespectRivals
	}
	if s != nil {
		score -= s.Rematches(home.ID, away.ID) * w.RespectRivals / 2
	}
	return score
}

// ScoreSlot rates a slot for a particular pairing: school clustering pulls
// both schools' games together on one court, coach clustering favors
// adjacency for shared coaches, and the weeknight preference fills weekday
// slots before Saturdays.
func (e *Evaluator) ScoreSlot(s *model.Schedule, home, away *model.Team, slot model.TimeSlot) int {
	w := e.cfg.PriorityWeights
	duration := time.Duration(e.cfg.Season.GameDurationMinutes) * time.Minute
	score := 0

	prev := slot
	prev.Start = slot.Start.Add(-duration)
	prev.End = slot.Start
	next := slot
	next.Start = slot.End
	next.End = slot.End.Add(duration)

	for _, adj := range []model.TimeSlot{prev, next} {
		g := s.AtSlot(adj)
		if g == nil {
			continue
		}
		if e.sameSchoolPair(g, home, away) {
			score += w.SchoolClustering
		}
		if e.sharesCoach(g, home, away) {
			score += w.CoachClustering
		}
	}

	// Any game of either school already at this facility on this date pulls
	// the matchup toward it.
	for _, g := range s.GamesOnDate(slot.Date) {
		if g.Slot.FacilityID != slot.FacilityID {
			continue
		}
		if e.gameHasSchool(g, home.SchoolID) || e.gameHasSchool(g, away.SchoolID) {
			score += w.SchoolClustering / 4
		}
	}

	if slot.Date.Weekday() != time.Saturday && slot.Date.Weekday() != time.Sunday {
		score += w.WeeknightUtilization
	}
	return score
}

func (e *Evaluator) sameSchoolPair(g *model.Game, home, away *model.Team) bool {
	gh, ga := e.league.Team(g.HomeTeamID), e.league.Team(g.AwayTeamID)
	if gh == nil || ga == nil {
		return false
	}
	return (gh.SchoolID == home.SchoolID && ga.SchoolID == away.SchoolID) ||
		(gh.SchoolID == away.SchoolID && ga.SchoolID == home.SchoolID)
}

func (e *Evaluator) sharesCoach(g *model.Game, home, away *model.Team) bool {
	gh, ga := e.league.Team(g.HomeTeamID), e.league.Team(g.AwayTeamID)
	for _, t := range []*model.Team{gh, ga} {
		if t == nil || t.CoachID == "" {
			continue
		}
		if t.CoachID == home.CoachID || t.CoachID == away.CoachID {
			return true
		}
	}
	return false
}

func (e *Evaluator) gameHasSchool(g *model.Game, schoolID string) bool {
	gh, ga := e.league.Team(g.HomeTeamID), e.league.Team(g.AwayTeamID)
	return (gh != nil && gh.SchoolID == schoolID) || (ga != nil && ga.SchoolID == schoolID)
}

// Validate re-checks a frozen schedule against every hard rule and computes
// the weighted soft score. Violations already covered by a recorded
// relaxation are not re-reported, so a clean relaxed run round-trips.
// Findings come back in one canonical order: per game in schedule order,
// then per court-date, per team and per pair, each in sorted key order.
func (e *Evaluator) Validate(s *model.Schedule, relaxations []model.Relaxation) *model.ValidationReport {
	report := &model.ValidationReport{
		PerTeamStats: make(map[string]*model.TeamStats),
		Relaxations:  relaxations,
	}

	covered := make(map[string]bool, len(relaxations))
	for _, r := range relaxations {
		covered[r.GameID+"|"+r.Rule] = true
	}
	add := func(rule, desc string, gameIDs ...string) {
		for _, id := range gameIDs {
			if covered[id+"|"+rule] {
				return
			}
		}
		report.HardViolations = append(report.HardViolations, model.Violation{
			Rule:        rule,
			Entities:    gameIDs,
			Description: desc,
		})
	}

	byCourt := make(map[string][]*model.Game)
	for _, g := range s.Games {
		k := fmt.Sprintf("%s|%s|%d", model.DateKey(g.Slot.Date), g.Slot.FacilityID, g.Slot.Court)
		byCourt[k] = append(byCourt[k], g)

		home, away := e.league.Team(g.HomeTeamID), e.league.Team(g.AwayTeamID)
		if home == nil || away == nil {
			add(RuleSlotConflict, fmt.Sprintf("game %s references an unknown team", g.ID), g.ID)
			continue
		}

		if home.SchoolID == away.SchoolID {
			add(RuleSameSchool,
				fmt.Sprintf("game %s pairs two %s teams", g.ID, home.SchoolID), g.ID)
		}
		if f := e.league.Facility(g.Slot.FacilityID); f == nil || !f.EligibleFor(g.Division) {
			add(RuleFacility,
				fmt.Sprintf("game %s: %s cannot host %s", g.ID, g.Slot.FacilityID, g.Division), g.ID)
		}
		if e.dateExcluded(home, away, g.Slot.Date) {
			add(RuleExcludedDate,
				fmt.Sprintf("game %s falls on a blacked-out date for a school", g.ID), g.ID)
		}
		if home.DoNotPlay[away.ID] || away.DoNotPlay[home.ID] {
			add(RuleDoNotPlay,
				fmt.Sprintf("game %s pairs do-not-play teams %s and %s", g.ID, home.ID, away.ID), g.ID)
		}
	}

	e.validateCourts(byCourt, add)
	e.validateTeams(s, add)
	e.validatePairs(s, add)

	report.SoftScore = e.SoftScore(s)
	for _, t := range e.league.Teams {
		report.PerTeamStats[t.ID] = e.teamStats(s, t)
	}
	return report
}

// validateCourts flags games whose slots intersect on one court. Generated
// schedules only ever collide on identical slots, but hand-edited workbooks
// can produce partial overlaps too.
func (e *Evaluator) validateCourts(byCourt map[string][]*model.Game, add func(rule, desc string, gameIDs ...string)) {
	courts := make([]string, 0, len(byCourt))
	for k := range byCourt {
		courts = append(courts, k)
	}
	sort.Strings(courts)
	for _, k := range courts {
		games := byCourt[k]
		for i := 0; i < len(games); i++ {
			for j := i + 1; j < len(games); j++ {
				a, b := games[i], games[j]
				if a.Slot.Overlaps(b.Slot) {
					add(RuleSlotConflict,
						fmt.Sprintf("games %s and %s overlap on %s court %d", a.ID, b.ID, a.Slot.FacilityID, a.Slot.Court),
						a.ID, b.ID)
				}
			}
		}
	}
}

func (e *Evaluator) validateTeams(s *model.Schedule, add func(rule, desc string, gameIDs ...string)) {
	breakDur := time.Duration(e.cfg.Rules.DoubleheaderBreakMinutes) * time.Minute
	for _, t := range e.league.Teams {
		games := s.GamesForTeam(t.ID)
		for i := 0; i < len(games); i++ {
			for j := i + 1; j < len(games); j++ {
				a, b := games[i], games[j]
				if a.Slot.SameTime(b.Slot) {
					add(RuleTeamOverlap,
						fmt.Sprintf("%s plays overlapping games %s and %s", t.ID, a.ID, b.ID),
						a.ID, b.ID)
				} else if a.Slot.Date.Equal(b.Slot.Date) {
					var rest time.Duration
					if a.Slot.End.Before(b.Slot.Start) || a.Slot.End.Equal(b.Slot.Start) {
						rest = b.Slot.Start.Sub(a.Slot.End)
					} else {
						rest = a.Slot.Start.Sub(b.Slot.End)
					}
					if rest < breakDur {
						add(RuleDoubleheaderGap,
							fmt.Sprintf("%s doubleheader games %s and %s rest %v, need %v", t.ID, a.ID, b.ID, rest, breakDur),
							a.ID, b.ID)
					}
				} else if gap := daysBetween(a.Slot.Date, b.Slot.Date); gap < 2 {
					add(RuleMinGap,
						fmt.Sprintf("%s plays %s and %s on consecutive days", t.ID, a.ID, b.ID),
						a.ID, b.ID)
				}
			}
		}

		if dh := s.Doubleheaders(t.ID); dh > e.cfg.Rules.MaxDoubleheadersPerSeason {
			ids := teamGameIDs(games)
			add(RuleDoubleheaderCap,
				fmt.Sprintf("%s has %d doubleheaders, cap %d", t.ID, dh, e.cfg.Rules.MaxDoubleheadersPerSeason),
				ids...)
		}

		e.validateFrequency(t.ID, games, add)
	}
}

// validateFrequency reports the densest rolling window per cap as one
// finding carrying every game in it, so a relaxation on any member covers
// the overage.
func (e *Evaluator) validateFrequency(teamID string, games []*model.Game, add func(rule, desc string, gameIDs ...string)) {
	caps := []struct {
		days, limit int
		rule        string
	}{
		{7, e.cfg.Rules.MaxGamesPer7Days, RuleFrequency7},
		{14, e.cfg.Rules.MaxGamesPer14Days, RuleFrequency14},
	}
	for _, c := range caps {
		var worst []*model.Game
		for _, g := range games {
			for offset := -(c.days - 1); offset <= 0; offset++ {
				from := g.Slot.Date.AddDate(0, 0, offset)
				to := from.AddDate(0, 0, c.days-1)
				var in []*model.Game
				for _, w := range games {
					if !w.Slot.Date.Before(from) && !w.Slot.Date.After(to) {
						in = append(in, w)
					}
				}
				if len(in) > len(worst) {
					worst = in
				}
			}
		}
		if len(worst) > c.limit {
			add(c.rule,
				fmt.Sprintf("%s has %d games within %d days, cap %d", teamID, len(worst), c.days, c.limit),
				teamGameIDs(worst)...)
		}
	}
}

func (e *Evaluator) validatePairs(s *model.Schedule, add func(rule, desc string, gameIDs ...string)) {
	pairGames := make(map[string][]*model.Game)
	for _, g := range s.Games {
		k := model.PairKey(g.HomeTeamID, g.AwayTeamID)
		pairGames[k] = append(pairGames[k], g)
	}
	pairs := make([]string, 0, len(pairGames))
	for k := range pairGames {
		pairs = append(pairs, k)
	}
	sort.Strings(pairs)
	for _, pair := range pairs {
		games := pairGames[pair]
		if len(games) > e.cfg.Rules.MaxRematches {
			add(RuleRematchCap,
				fmt.Sprintf("pair %s plays %d times, cap %d", pair, len(games), e.cfg.Rules.MaxRematches),
				teamGameIDs(games)...)
		}
	}
}

func teamGameIDs(games []*model.Game) []string {
	ids := make([]string, len(games))
	for i, g := range games {
		ids[i] = g.ID
	}
	return ids
}

// SoftScore computes the schedule-wide weighted preference total.
func (e *Evaluator) SoftScore(s *model.Schedule) int {
	w := e.cfg.PriorityWeights
	score := 0

	for _, g := range s.Games {
		home, away := e.league.Team(g.HomeTeamID), e.league.Team(g.AwayTeamID)
		if home == nil || away == nil {
			continue
		}
		if home.Cluster != "" && home.Cluster == away.Cluster {
			score += w.GeographicCluster
		}
		if !g.Division.Traits().Rec {
			diff := home.Tier - away.Tier
			if diff < 0 {
				diff = -diff
			}
			if diff < 3 {
				score += w.TierMatch * (3 - diff) / 3
			}
		}
		if home.Rivals[away.ID] {
			score += w.RespectRivals
		}
		if home.HomeFacilityID == g.Slot.FacilityID {
			score += w.HostHomePreference
		}
		if g.Slot.Date.Weekday() != time.Saturday && g.Slot.Date.Weekday() != time.Sunday {
			score += w.WeeknightUtilization
		}
	}

	for _, t := range e.league.Teams {
		home, away := s.HomeAway(t.ID)
		imbalance := home - away
		if imbalance < 0 {
			imbalance = -imbalance
		}
		if imbalance > 1 {
			score -= w.HomeAwayBalance * (imbalance - 1)
		}
	}

	score += e.clusteringScore(s)
	return score
}

// clusteringScore rewards contiguous school blocks and adjacent games for
// shared coaches, per court and date.
func (e *Evaluator) clusteringScore(s *model.Schedule) int {
	w := e.cfg.PriorityWeights
	score := 0

	type courtDate struct {
		facility string
		court    int
		date     string
	}
	byCourt := make(map[courtDate][]*model.Game)
	for _, g := range s.Games {
		k := courtDate{g.Slot.FacilityID, g.Slot.Court, model.DateKey(g.Slot.Date)}
		byCourt[k] = append(byCourt[k], g)
	}

	for _, games := range byCourt {
		ordered := append([]*model.Game(nil), games...)
		for i := 0; i < len(ordered); i++ {
			for j := i + 1; j < len(ordered); j++ {
				if ordered[j].Slot.Start.Before(ordered[i].Slot.Start) {
					ordered[i], ordered[j] = ordered[j], ordered[i]
				}
			}
		}

		// Contiguous same-school-pair runs earn the clustering reward once
		// per adjacent pair; coach adjacency likewise.
		for i := 1; i < len(ordered); i++ {
			a, b := ordered[i-1], ordered[i]
			if !a.Slot.End.Equal(b.Slot.Start) {
				continue
			}
			ah, aa := e.league.Team(a.HomeTeamID), e.league.Team(a.AwayTeamID)
			bh, ba := e.league.Team(b.HomeTeamID), e.league.Team(b.AwayTeamID)
			if ah == nil || aa == nil || bh == nil || ba == nil {
				continue
			}
			if schoolPairKey(ah, aa) == schoolPairKey(bh, ba) {
				score += w.SchoolClustering
			}
			if coachAdjacent(ah, aa, bh, ba) {
				score += w.CoachClustering
			}
		}
	}
	return score
}

func schoolPairKey(a, b *model.Team) string {
	return model.PairKey(a.SchoolID, b.SchoolID)
}

func coachAdjacent(ah, aa, bh, ba *model.Team) bool {
	for _, x := range []*model.Team{ah, aa} {
		if x.CoachID == "" {
			continue
		}
		for _, y := range []*model.Team{bh, ba} {
			if x.CoachID == y.CoachID {
				return true
			}
		}
	}
	return false
}

// teamStats summarizes one team's schedule for the report.
func (e *Evaluator) teamStats(s *model.Schedule, t *model.Team) *model.TeamStats {
	home, away := s.HomeAway(t.ID)
	divs := make(map[model.Division]bool)
	for _, g := range s.GamesForTeam(t.ID) {
		divs[g.Division] = true
	}
	var present []model.Division
	for _, d := range model.Divisions() {
		if divs[d] {
			present = append(present, d)
		}
	}
	return &model.TeamStats{
		TeamID:        t.ID,
		Games:         home + away,
		Home:          home,
		Away:          away,
		Doubleheaders: s.Doubleheaders(t.ID),
		Divisions:     present,
	}
}
