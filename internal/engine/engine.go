package engine

import (
	"context"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/ncsaa/hoopsched/internal/config"
	"github.com/ncsaa/hoopsched/internal/matchup"
	"github.com/ncsaa/hoopsched/internal/model"
)

// Engine generates a season schedule for a loaded league. Results are
// deterministic for a given (league, config, seed).
type Engine struct {
	cfg      *config.Config
	league   *model.League
	seed     int64
	log      zerolog.Logger
	clock    clockwork.Clock
	progress func(Progress)
}

// Progress is a generation checkpoint: which stage the optimizer is in,
// the pass it just finished and how many games the schedule holds.
// Callbacks run on the generating goroutine and must return quickly.
type Progress struct {
	Stage  string
	Pass   int
	Placed int
}

// OnProgress registers a checkpoint callback. Call it before Generate;
// a nil callback disables reporting.
func (e *Engine) OnProgress(fn func(Progress)) {
	e.progress = fn
}

// New builds an engine. A zero seed is replaced with 1 so the default run
// is reproducible rather than time-derived.
func New(cfg *config.Config, league *model.League, seed int64, log zerolog.Logger) *Engine {
	if seed == 0 {
		seed = 1
	}
	return &Engine{
		cfg:    cfg,
		league: league,
		seed:   seed,
		log:    log,
		clock:  clockwork.NewRealClock(),
	}
}

// Generate runs the full pipeline: slot generation, the two-stage
// optimizer, then validation of the frozen schedule. The error return is
// reserved for invalid input; infeasibility, relaxations and cancellation
// are reported data, never errors.
func (e *Engine) Generate(ctx context.Context) (*model.Schedule, *model.ValidationReport, error) {
	if err := e.validateInput(); err != nil {
		return nil, nil, err
	}

	start := e.clock.Now()
	slots := GenerateSlots(e.cfg, e.league)
	e.log.Info().
		Int("slots", len(slots)).
		Int("teams", len(e.league.Teams)).
		Int("facilities", len(e.league.Facilities)).
		Msg("slot pool generated")

	planner, err := matchup.Get(e.cfg.Strategy, e.cfg)
	if err != nil {
		return nil, nil, invalidInputf("%v", err)
	}

	opt := newOptimizer(e.cfg, e.league, planner, slots, e.seed, e.log, e.clock)
	opt.notify = e.progress
	opt.run(ctx)

	opt.sched.Sort()
	report := opt.eval.Validate(opt.sched, opt.relaxations)
	report.Shortfalls = opt.buildShortfalls()
	report.Annotations = opt.annotations
	report.Cancelled = opt.cancelled

	e.log.Info().
		Int("games", opt.sched.Len()).
		Int("violations", len(report.HardViolations)).
		Int("relaxations", len(report.Relaxations)).
		Int("shortfalls", len(report.Shortfalls)).
		Bool("cancelled", report.Cancelled).
		Dur("elapsed", e.clock.Since(start)).
		Msg("schedule generated")

	return opt.sched, report, nil
}

// validateInput applies the fail-fast structural checks. Config files are
// validated at load time; this guards direct API construction too.
func (e *Engine) validateInput() error {
	if e.league == nil {
		return invalidInputf("league is nil")
	}
	if err := e.league.Validate(); err != nil {
		return invalidInputf("%v", err)
	}
	if e.cfg.Rules.TargetGamesPerTeam <= 0 {
		return invalidInputf("target_games_per_team must be positive, got %d", e.cfg.Rules.TargetGamesPerTeam)
	}
	if e.cfg.Season.EndDate.Time.Before(e.cfg.Season.StartDate.Time) {
		return invalidInputf("season ends %s before it starts %s",
			e.cfg.Season.EndDate.Time.Format("2006-01-02"),
			e.cfg.Season.StartDate.Time.Format("2006-01-02"))
	}
	return nil
}
