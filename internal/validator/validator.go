package validator

import (
	"fmt"

	"github.com/ncsaa/hoopsched/internal/config"
	"github.com/ncsaa/hoopsched/internal/engine"
	"github.com/ncsaa/hoopsched/internal/excel"
	"github.com/ncsaa/hoopsched/internal/model"
)

// Violation is one finding from re-checking an emitted workbook.
type Violation struct {
	Type    string // "error" or "warning"
	Rule    string
	Message string
}

// Validate reads a schedule workbook back and re-checks the hard rules
// against the league configuration. The workbook does not carry relaxation
// records, so a schedule that needed bent rules shows its bends here.
func Validate(cfg *config.Config, league *model.League, path string) ([]Violation, error) {
	sched, err := excel.ReadSchedule(path, cfg, league)
	if err != nil {
		return nil, err
	}

	var violations []Violation
	violations = append(violations, checkDivisions(league, sched)...)

	report := engine.NewEvaluator(cfg, league).Validate(sched, nil)
	for _, v := range report.HardViolations {
		violations = append(violations, Violation{Type: "error", Rule: v.Rule, Message: v.Description})
	}

	violations = append(violations, checkCompleteness(cfg, league, sched)...)
	return violations, nil
}

// Errors reports how many findings are hard errors.
func Errors(violations []Violation) int {
	n := 0
	for _, v := range violations {
		if v.Type == "error" {
			n++
		}
	}
	return n
}

// checkDivisions flags games whose listed division does not match the
// teams playing them. The evaluator never sees this because the generator
// derives the division from the pairing.
func checkDivisions(league *model.League, s *model.Schedule) []Violation {
	var out []Violation
	for _, g := range s.Games {
		home := league.Team(g.HomeTeamID)
		away := league.Team(g.AwayTeamID)
		if home.Division != g.Division || away.Division != g.Division {
			out = append(out, Violation{
				Type: "error",
				Rule: "division_mismatch",
				Message: fmt.Sprintf("game %s is listed under %s but pairs %s and %s teams",
					g.ID, g.Division, home.Division, away.Division),
			})
		}
	}
	return out
}

func checkCompleteness(cfg *config.Config, league *model.League, s *model.Schedule) []Violation {
	var out []Violation
	target := cfg.Rules.TargetGamesPerTeam
	for _, t := range league.Teams {
		n := len(s.GamesForTeam(t.ID))
		switch {
		case n == 0:
			out = append(out, Violation{
				Type:    "error",
				Rule:    "no_games",
				Message: fmt.Sprintf("%s has no games scheduled", t.ID),
			})
		case n < target:
			out = append(out, Violation{
				Type:    "warning",
				Rule:    "below_target",
				Message: fmt.Sprintf("%s has %d of %d games", t.ID, n, target),
			})
		}
	}
	return out
}
