package model

// Violation is one hard-rule breach found by validation.
type Violation struct {
	Rule        string   `json:"rule"`
	Entities    []string `json:"entities"`
	Description string   `json:"description"`
}

// Relaxation records a constraint the optimizer loosened to place a game.
type Relaxation struct {
	GameID string `json:"game_id"`
	Pass   int    `json:"pass"`
	Rule   string `json:"rule"`
	Detail string `json:"detail"`
}

// Shortfall reports a team that ended below the per-team game target.
type Shortfall struct {
	TeamID string `json:"team_id"`
	Games  int    `json:"games"`
	Target int    `json:"target"`
	Reason string `json:"reason"`
}

// TeamStats is the per-team summary attached to a report.
type TeamStats struct {
	TeamID        string     `json:"team_id"`
	Games         int        `json:"games"`
	Home          int        `json:"home"`
	Away          int        `json:"away"`
	Doubleheaders int        `json:"doubleheaders"`
	Divisions     []Division `json:"divisions_present"`
}

// ValidationReport is the outcome record returned alongside a schedule.
// Data-driven infeasibility lives here, never in an error.
type ValidationReport struct {
	HardViolations []Violation           `json:"hard_violations"`
	SoftScore      int                   `json:"soft_score"`
	PerTeamStats   map[string]*TeamStats `json:"per_team_stats"`
	Relaxations    []Relaxation          `json:"relaxations"`
	Shortfalls     []Shortfall           `json:"shortfalls"`
	Annotations    []string              `json:"annotations,omitempty"`
	Cancelled      bool                  `json:"cancelled"`
}

// Clean reports whether the run finished with no hard violations, no
// relaxations and no shortfalls.
func (r *ValidationReport) Clean() bool {
	return len(r.HardViolations) == 0 && len(r.Relaxations) == 0 && len(r.Shortfalls) == 0 && !r.Cancelled
}
