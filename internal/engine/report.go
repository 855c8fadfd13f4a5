package engine

import (
	"fmt"
	"sort"

	"github.com/ncsaa/hoopsched/internal/model"
)

// Shortfall reasons name the cause a league administrator can act on.
const (
	ShortfallNoFacility  = "no_eligible_facility"
	ShortfallDoNotPlay   = "do_not_play_saturation"
	ShortfallBlackout    = "blackout_dominance"
	ShortfallNoOpponents = "no_available_opponents"
	ShortfallSlotSupply  = "insufficient_slots"
)

// buildShortfalls lists every team that finished short of target, each with
// its most likely cause.
func (o *optimizer) buildShortfalls() []model.Shortfall {
	target := o.cfg.Rules.TargetGamesPerTeam
	var out []model.Shortfall
	for _, t := range o.league.Teams {
		n := len(o.sched.GamesForTeam(t.ID))
		if n >= target {
			continue
		}
		out = append(out, model.Shortfall{
			TeamID: t.ID,
			Games:  n,
			Target: target,
			Reason: o.classifyShortfall(t),
		})
	}
	return out
}

func (o *optimizer) classifyShortfall(t *model.Team) string {
	if len(o.divSlots[t.Division]) == 0 {
		return ShortfallNoFacility
	}

	opponents, dnpExcluded := 0, 0
	for _, opp := range o.league.TeamsInDivision(t.Division) {
		if opp.ID == t.ID || opp.SchoolID == t.SchoolID {
			continue
		}
		if t.DoNotPlay[opp.ID] || opp.DoNotPlay[t.ID] {
			dnpExcluded++
			continue
		}
		opponents++
	}
	if opponents == 0 {
		if dnpExcluded > 0 {
			return ShortfallDoNotPlay
		}
		return ShortfallNoOpponents
	}
	// Even with every remaining opponent played to the rematch cap the
	// team cannot reach target, and do-not-play is what removed the rest.
	if opponents*o.cfg.Rules.MaxRematches < o.cfg.Rules.TargetGamesPerTeam && dnpExcluded > 0 {
		return ShortfallDoNotPlay
	}

	if o.blackoutRatio(t) > 0.5 {
		return ShortfallBlackout
	}
	return ShortfallSlotSupply
}

// blackoutRatio is the fraction of the division's distinct playable dates
// that the team's school has blacked out.
func (o *optimizer) blackoutRatio(t *model.Team) float64 {
	school := o.league.School(t.SchoolID)
	if school == nil || len(school.BlackoutDates) == 0 {
		return 0
	}
	dates := make(map[string]bool)
	for _, s := range o.divSlots[t.Division] {
		dates[model.DateKey(s.Date)] = true
	}
	if len(dates) == 0 {
		return 0
	}
	blocked := 0
	for d := range dates {
		if school.BlackoutDates[d] {
			blocked++
		}
	}
	return float64(blocked) / float64(len(dates))
}

// SummaryWarnings flattens a report into operator-readable lines for CLI
// output: violations first, then relaxations, shortfalls, balance warnings
// and annotations.
func SummaryWarnings(report *model.ValidationReport) []string {
	var warnings []string
	for _, v := range report.HardViolations {
		warnings = append(warnings, fmt.Sprintf("violation [%s]: %s", v.Rule, v.Description))
	}
	for _, r := range report.Relaxations {
		warnings = append(warnings, fmt.Sprintf("relaxed [%s] in pass %d: %s", r.Rule, r.Pass, r.Detail))
	}
	for _, s := range report.Shortfalls {
		warnings = append(warnings, fmt.Sprintf("%s has %d of %d games (%s)", s.TeamID, s.Games, s.Target, s.Reason))
	}

	ids := make([]string, 0, len(report.PerTeamStats))
	for id := range report.PerTeamStats {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		st := report.PerTeamStats[id]
		diff := st.Home - st.Away
		if diff < -2 || diff > 2 {
			warnings = append(warnings, fmt.Sprintf("%s home/away imbalance: %d home, %d away", id, st.Home, st.Away))
		}
	}

	warnings = append(warnings, report.Annotations...)
	return warnings
}
