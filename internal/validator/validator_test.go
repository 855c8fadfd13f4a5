package validator

import (
	"testing"
	"time"

	"github.com/ncsaa/hoopsched/internal/config"
	"github.com/ncsaa/hoopsched/internal/engine"
	"github.com/ncsaa/hoopsched/internal/excel"
	"github.com/ncsaa/hoopsched/internal/model"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func testConfig() *config.Config {
	return &config.Config{
		Season: config.Season{
			StartDate:           config.Date{Time: date(2026, 1, 5)},
			EndDate:             config.Date{Time: date(2026, 2, 27)},
			GameDurationMinutes: 60,
		},
		Rules: config.Rules{
			TargetGamesPerTeam:        2,
			MaxGamesPer7Days:          2,
			MaxGamesPer14Days:         4,
			MaxDoubleheadersPerSeason: 1,
			DoubleheaderBreakMinutes:  60,
			MaxRematches:              2,
		},
	}
}

func testLeague() *model.League {
	schools := []*model.School{
		{ID: "maple", Cluster: "north", Tier: 2},
		{ID: "oak-ridge", Cluster: "north", Tier: 2},
		{ID: "pinecrest", Cluster: "north", Tier: 2},
	}
	teams := []*model.Team{
		{ID: "maple-msbjv", SchoolID: "maple", Division: model.DivisionMSBoysJV, Tier: 2},
		{ID: "oak-ridge-msbjv", SchoolID: "oak-ridge", Division: model.DivisionMSBoysJV, Tier: 2},
		{ID: "pinecrest-msbjv", SchoolID: "pinecrest", Division: model.DivisionMSBoysJV, Tier: 2},
	}
	facilities := []*model.Facility{
		{ID: "gym", CourtCount: 2},
	}
	return model.NewLeague(schools, teams, facilities)
}

func game(id, home, away string, court int, d time.Time, hour int) *model.Game {
	start := time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, time.UTC)
	return &model.Game{
		ID:         id,
		HomeTeamID: home,
		AwayTeamID: away,
		Division:   model.DivisionMSBoysJV,
		Slot: model.TimeSlot{
			FacilityID: "gym",
			Court:      court,
			Date:       d,
			Start:      start,
			End:        start.Add(time.Hour),
		},
		OfficialsCount: 2,
		Status:         model.GameScheduled,
	}
}

func writeSchedule(t *testing.T, cfg *config.Config, league *model.League, games ...*model.Game) string {
	t.Helper()
	sched := model.NewSchedule()
	for _, g := range games {
		sched.Add(g)
	}
	report := &model.ValidationReport{PerTeamStats: map[string]*model.TeamStats{}}
	f, err := excel.Generate(cfg, league, sched, report)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	path := t.TempDir() + "/schedule.xlsx"
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	return path
}

func TestValidateCleanSchedule(t *testing.T) {
	cfg, league := testConfig(), testLeague()
	path := writeSchedule(t, cfg, league,
		game("MSBJV-001", "maple-msbjv", "oak-ridge-msbjv", 1, date(2026, 1, 5), 17),
		game("MSBJV-002", "pinecrest-msbjv", "maple-msbjv", 1, date(2026, 1, 7), 17),
		game("MSBJV-003", "oak-ridge-msbjv", "maple-msbjv", 1, date(2026, 1, 12), 17),
		game("MSBJV-004", "pinecrest-msbjv", "oak-ridge-msbjv", 1, date(2026, 1, 14), 17),
	)

	violations, err := Validate(cfg, league, path)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(violations) != 0 {
		t.Errorf("violations = %v, want none", violations)
	}
}

func TestValidateFlagsViolations(t *testing.T) {
	cfg, league := testConfig(), testLeague()
	// The first two games share one slot and double-book maple, the
	// maple/oak-ridge pair plays three times against a cap of two, and
	// pinecrest ends below target.
	path := writeSchedule(t, cfg, league,
		game("MSBJV-001", "maple-msbjv", "oak-ridge-msbjv", 1, date(2026, 1, 5), 17),
		game("MSBJV-002", "pinecrest-msbjv", "maple-msbjv", 1, date(2026, 1, 5), 17),
		game("MSBJV-003", "oak-ridge-msbjv", "maple-msbjv", 1, date(2026, 1, 12), 17),
		game("MSBJV-004", "maple-msbjv", "oak-ridge-msbjv", 1, date(2026, 1, 19), 17),
	)

	violations, err := Validate(cfg, league, path)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}

	found := make(map[string]string)
	for _, v := range violations {
		found[v.Rule] = v.Type
	}
	for _, rule := range []string{engine.RuleSlotConflict, engine.RuleTeamOverlap, engine.RuleRematchCap} {
		if found[rule] != "error" {
			t.Errorf("rule %s = %q, want error", rule, found[rule])
		}
	}
	if found["below_target"] != "warning" {
		t.Errorf("below_target = %q, want warning", found["below_target"])
	}
	if Errors(violations) < 3 {
		t.Errorf("Errors = %d, want at least 3", Errors(violations))
	}
}

func TestValidateDivisionMismatch(t *testing.T) {
	cfg, league := testConfig(), testLeague()
	g := game("MSBJV-001", "maple-msbjv", "oak-ridge-msbjv", 1, date(2026, 1, 5), 17)
	g.Division = model.DivisionMSGirlsJV
	path := writeSchedule(t, cfg, league, g)

	violations, err := Validate(cfg, league, path)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	found := false
	for _, v := range violations {
		if v.Rule == "division_mismatch" && v.Type == "error" {
			found = true
		}
	}
	if !found {
		t.Errorf("violations = %v, want a division_mismatch error", violations)
	}
}

func TestValidateMissingWorkbook(t *testing.T) {
	cfg, league := testConfig(), testLeague()
	if _, err := Validate(cfg, league, t.TempDir()+"/absent.xlsx"); err == nil {
		t.Error("expected an error for a missing workbook")
	}
}
