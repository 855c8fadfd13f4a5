package engine

import (
	"testing"
	"time"

	"github.com/ncsaa/hoopsched/internal/config"
	"github.com/ncsaa/hoopsched/internal/model"
)

func evalConfig() *config.Config {
	return &config.Config{
		Season: config.Season{
			StartDate:           config.Date{Time: date(2026, 1, 5)},
			EndDate:             config.Date{Time: date(2026, 2, 28)},
			WeeknightWindow:     config.Window{Start: clock(17, 0), End: clock(20, 30)},
			SaturdayWindow:      config.Window{Start: clock(8, 0), End: clock(18, 0)},
			GameDurationMinutes: 60,
		},
		Rules: config.Rules{
			TargetGamesPerTeam:        8,
			MaxGamesPer7Days:          2,
			MaxGamesPer14Days:         3,
			MaxDoubleheadersPerSeason: 1,
			DoubleheaderBreakMinutes:  60,
			MaxRematches:              2,
			CPTimeBudgetSeconds:       5,
			CPWorkers:                 2,
			GreedyMaxPasses:           20,
		},
		PriorityWeights: config.Weights{
			GeographicCluster:    60,
			TierMatch:            70,
			RespectRivals:        80,
			HomeAwayBalance:      50,
			HostHomePreference:   90,
			SchoolClustering:     100,
			CoachClustering:      90,
			WeeknightUtilization: 75,
		},
		Strategy: "school_paired",
	}
}

// evalLeague is four schools around one shared gym: maple and oak-ridge are
// rivals, somerset refuses to play oak-ridge, and pinecrest sits out
// January 8. The coach cho runs both the maple and pinecrest MS boys teams.
func evalLeague() *model.League {
	schools := []*model.School{
		{ID: "maple", Cluster: "north", Tier: 2},
		{ID: "oak-ridge", Cluster: "north", Tier: 2},
		{ID: "pinecrest", Cluster: "north", Tier: 2,
			BlackoutDates: map[string]bool{"2026-01-08": true}},
		{ID: "somerset", Cluster: "south", Tier: 3},
	}
	teams := []*model.Team{
		{ID: "maple-msbjv", SchoolID: "maple", Division: model.DivisionMSBoysJV, Tier: 2, Cluster: "north",
			CoachID: "cho", Rivals: map[string]bool{"oak-ridge-msbjv": true}},
		{ID: "maple-msgjv", SchoolID: "maple", Division: model.DivisionMSGirlsJV, Tier: 2, Cluster: "north"},
		{ID: "oak-ridge-k1rec", SchoolID: "oak-ridge", Division: model.DivisionK1Rec, Tier: 2, Cluster: "north"},
		{ID: "oak-ridge-msbjv", SchoolID: "oak-ridge", Division: model.DivisionMSBoysJV, Tier: 2, Cluster: "north",
			CoachID: "lee", HomeFacilityID: "gym"},
		{ID: "oak-ridge-msgjv", SchoolID: "oak-ridge", Division: model.DivisionMSGirlsJV, Tier: 2, Cluster: "north"},
		{ID: "pinecrest-msbjv", SchoolID: "pinecrest", Division: model.DivisionMSBoysJV, Tier: 2, Cluster: "north",
			CoachID: "cho"},
		{ID: "pinecrest-msgjv", SchoolID: "pinecrest", Division: model.DivisionMSGirlsJV, Tier: 2, Cluster: "north"},
		{ID: "somerset-k1rec", SchoolID: "somerset", Division: model.DivisionK1Rec, Tier: 3, Cluster: "south"},
		{ID: "somerset-msbjv", SchoolID: "somerset", Division: model.DivisionMSBoysJV, Tier: 3, Cluster: "south",
			DoNotPlay: map[string]bool{"oak-ridge-msbjv": true}},
	}
	facilities := []*model.Facility{
		{ID: "gym", CourtCount: 2, OwnedBySchool: "oak-ridge"},
		{ID: "rec-center", CourtCount: 1, HasShortRims: true},
	}
	return model.NewLeague(schools, teams, facilities)
}

func courtSlot(facility string, court int, d time.Time, hour int) model.TimeSlot {
	start := d.Add(time.Duration(hour) * time.Hour)
	return model.TimeSlot{
		FacilityID: facility,
		Court:      court,
		Date:       d,
		Start:      start,
		End:        start.Add(time.Hour),
	}
}

func addGame(s *model.Schedule, id string, home, away *model.Team, slot model.TimeSlot) *model.Game {
	g := &model.Game{
		ID:         id,
		HomeTeamID: home.ID,
		AwayTeamID: away.ID,
		Division:   home.Division,
		Slot:       slot,
		Status:     model.GameScheduled,
	}
	s.Add(g)
	return g
}

func TestCheckGame(t *testing.T) {
	cfg := evalConfig()
	league := evalLeague()
	eval := NewEvaluator(cfg, league)
	base := eval.BaseLimits()

	maple := league.Team("maple-msbjv")
	oakRidge := league.Team("oak-ridge-msbjv")
	pinecrest := league.Team("pinecrest-msbjv")
	somerset := league.Team("somerset-msbjv")

	t.Run("accepts a legal placement", func(t *testing.T) {
		s := model.NewSchedule()
		slot := courtSlot("gym", 1, date(2026, 1, 5), 17)
		if rule, ok := eval.CheckGame(s, pinecrest, oakRidge, slot, base); !ok {
			t.Errorf("legal placement rejected: %s", rule)
		}
	})

	t.Run("rejects two teams of one school", func(t *testing.T) {
		s := model.NewSchedule()
		girls := league.Team("pinecrest-msgjv")
		slot := courtSlot("gym", 1, date(2026, 1, 5), 17)
		if rule, ok := eval.CheckGame(s, pinecrest, girls, slot, base); ok || rule != RuleSameSchool {
			t.Errorf("rule = %q ok = %v, want %s", rule, ok, RuleSameSchool)
		}
	})

	t.Run("short-rim division needs short rims", func(t *testing.T) {
		s := model.NewSchedule()
		k1a := league.Team("oak-ridge-k1rec")
		k1b := league.Team("somerset-k1rec")
		if rule, ok := eval.CheckGame(s, k1a, k1b, courtSlot("gym", 1, date(2026, 1, 5), 17), base); ok || rule != RuleFacility {
			t.Errorf("rule = %q ok = %v, want %s", rule, ok, RuleFacility)
		}
		if rule, ok := eval.CheckGame(s, k1a, k1b, courtSlot("rec-center", 1, date(2026, 1, 5), 17), base); !ok {
			t.Errorf("short-rim facility rejected: %s", rule)
		}
	})

	t.Run("school blackout dates are excluded", func(t *testing.T) {
		s := model.NewSchedule()
		slot := courtSlot("gym", 1, date(2026, 1, 8), 17)
		if rule, ok := eval.CheckGame(s, pinecrest, maple, slot, base); ok || rule != RuleExcludedDate {
			t.Errorf("rule = %q ok = %v, want %s", rule, ok, RuleExcludedDate)
		}
	})

	t.Run("do-not-play holds until explicitly relaxed", func(t *testing.T) {
		s := model.NewSchedule()
		slot := courtSlot("gym", 1, date(2026, 1, 5), 17)
		if rule, ok := eval.CheckGame(s, somerset, oakRidge, slot, base); ok || rule != RuleDoNotPlay {
			t.Errorf("rule = %q ok = %v, want %s", rule, ok, RuleDoNotPlay)
		}
		lim := base
		lim.AllowDoNotPlay = true
		if rule, ok := eval.CheckGame(s, somerset, oakRidge, slot, lim); !ok {
			t.Errorf("relaxed do-not-play rejected: %s", rule)
		}
	})

	t.Run("rematch cap counts prior meetings", func(t *testing.T) {
		s := model.NewSchedule()
		addGame(s, "MSBJV-001", pinecrest, oakRidge, courtSlot("gym", 1, date(2026, 1, 5), 17))
		addGame(s, "MSBJV-002", oakRidge, pinecrest, courtSlot("gym", 1, date(2026, 1, 12), 17))
		slot := courtSlot("gym", 1, date(2026, 1, 19), 17)
		if rule, ok := eval.CheckGame(s, pinecrest, oakRidge, slot, base); ok || rule != RuleRematchCap {
			t.Errorf("rule = %q ok = %v, want %s", rule, ok, RuleRematchCap)
		}
		lim := base
		lim.MaxRematches = 3
		if rule, ok := eval.CheckGame(s, pinecrest, oakRidge, slot, lim); !ok {
			t.Errorf("third meeting under a raised cap rejected: %s", rule)
		}
	})

	t.Run("occupied slots conflict", func(t *testing.T) {
		s := model.NewSchedule()
		slot := courtSlot("gym", 1, date(2026, 1, 5), 17)
		addGame(s, "MSBJV-001", maple, somerset, slot)
		if rule, ok := eval.CheckGame(s, pinecrest, oakRidge, slot, base); ok || rule != RuleSlotConflict {
			t.Errorf("rule = %q ok = %v, want %s", rule, ok, RuleSlotConflict)
		}
	})

	t.Run("a team cannot play two courts at once", func(t *testing.T) {
		s := model.NewSchedule()
		addGame(s, "MSBJV-001", oakRidge, maple, courtSlot("gym", 1, date(2026, 1, 5), 17))
		slot := courtSlot("gym", 2, date(2026, 1, 5), 17)
		if rule, ok := eval.CheckGame(s, pinecrest, oakRidge, slot, base); ok || rule != RuleTeamOverlap {
			t.Errorf("rule = %q ok = %v, want %s", rule, ok, RuleTeamOverlap)
		}
	})

	t.Run("minimum day gap", func(t *testing.T) {
		s := model.NewSchedule()
		addGame(s, "MSBJV-001", oakRidge, maple, courtSlot("gym", 1, date(2026, 1, 5), 17))
		slot := courtSlot("gym", 1, date(2026, 1, 6), 17)
		if rule, ok := eval.CheckGame(s, pinecrest, oakRidge, slot, base); ok || rule != RuleMinGap {
			t.Errorf("rule = %q ok = %v, want %s", rule, ok, RuleMinGap)
		}
		lim := base
		lim.MinDayGap = 1
		if rule, ok := eval.CheckGame(s, pinecrest, oakRidge, slot, lim); !ok {
			t.Errorf("next-day game under a relaxed gap rejected: %s", rule)
		}
	})

	t.Run("same-day games need the gap fully relaxed", func(t *testing.T) {
		s := model.NewSchedule()
		addGame(s, "MSBJV-001", oakRidge, maple, courtSlot("gym", 1, date(2026, 1, 5), 17))
		slot := courtSlot("gym", 1, date(2026, 1, 5), 19)
		if rule, ok := eval.CheckGame(s, pinecrest, oakRidge, slot, base); ok || rule != RuleMinGap {
			t.Errorf("rule = %q ok = %v, want %s", rule, ok, RuleMinGap)
		}
		lim := base
		lim.MinDayGap = 0
		if rule, ok := eval.CheckGame(s, pinecrest, oakRidge, slot, lim); !ok {
			t.Errorf("doubleheader with a full break rejected: %s", rule)
		}
	})

	t.Run("doubleheader needs the configured break", func(t *testing.T) {
		s := model.NewSchedule()
		addGame(s, "MSBJV-001", oakRidge, maple, courtSlot("gym", 1, date(2026, 1, 5), 17))
		lim := base
		lim.MinDayGap = 0
		slot := courtSlot("gym", 1, date(2026, 1, 5), 18)
		if rule, ok := eval.CheckGame(s, pinecrest, oakRidge, slot, lim); ok || rule != RuleDoubleheaderGap {
			t.Errorf("rule = %q ok = %v, want %s", rule, ok, RuleDoubleheaderGap)
		}
	})

	t.Run("a third game on one date is never allowed", func(t *testing.T) {
		s := model.NewSchedule()
		addGame(s, "MSBJV-001", oakRidge, maple, courtSlot("gym", 1, date(2026, 1, 5), 17))
		addGame(s, "MSBJV-002", oakRidge, pinecrest, courtSlot("gym", 1, date(2026, 1, 5), 19))
		lim := base
		lim.MinDayGap = 0
		lim.MaxRematches = 3
		slot := courtSlot("gym", 2, date(2026, 1, 5), 21)
		if rule, ok := eval.CheckGame(s, maple, oakRidge, slot, lim); ok || rule != RuleDoubleheaderCap {
			t.Errorf("rule = %q ok = %v, want %s", rule, ok, RuleDoubleheaderCap)
		}
	})

	t.Run("season doubleheader cap", func(t *testing.T) {
		s := model.NewSchedule()
		addGame(s, "MSBJV-001", oakRidge, maple, courtSlot("gym", 1, date(2026, 1, 5), 17))
		addGame(s, "MSBJV-002", oakRidge, pinecrest, courtSlot("gym", 1, date(2026, 1, 5), 19))
		addGame(s, "MSBJV-003", maple, oakRidge, courtSlot("gym", 1, date(2026, 1, 12), 17))
		lim := base
		lim.MinDayGap = 0
		slot := courtSlot("gym", 1, date(2026, 1, 12), 19)
		if rule, ok := eval.CheckGame(s, pinecrest, oakRidge, slot, lim); ok || rule != RuleDoubleheaderCap {
			t.Errorf("rule = %q ok = %v, want %s", rule, ok, RuleDoubleheaderCap)
		}
	})

	t.Run("rolling seven-day cap", func(t *testing.T) {
		s := model.NewSchedule()
		addGame(s, "MSBJV-001", oakRidge, maple, courtSlot("gym", 1, date(2026, 1, 5), 17))
		addGame(s, "MSBJV-002", oakRidge, pinecrest, courtSlot("gym", 1, date(2026, 1, 8), 17))
		slot := courtSlot("gym", 1, date(2026, 1, 11), 17)
		if rule, ok := eval.CheckGame(s, maple, oakRidge, slot, base); ok || rule != RuleFrequency7 {
			t.Errorf("rule = %q ok = %v, want %s", rule, ok, RuleFrequency7)
		}
		lim := base
		lim.EnforceFrequency = false
		if rule, ok := eval.CheckGame(s, maple, oakRidge, slot, lim); !ok {
			t.Errorf("unenforced frequency rejected: %s", rule)
		}
	})

	t.Run("rolling fourteen-day cap", func(t *testing.T) {
		s := model.NewSchedule()
		addGame(s, "MSBJV-001", oakRidge, maple, courtSlot("gym", 1, date(2026, 1, 5), 17))
		addGame(s, "MSBJV-002", oakRidge, pinecrest, courtSlot("gym", 1, date(2026, 1, 9), 17))
		addGame(s, "MSBJV-003", maple, oakRidge, courtSlot("gym", 1, date(2026, 1, 13), 17))
		slot := courtSlot("gym", 1, date(2026, 1, 17), 17)
		if rule, ok := eval.CheckGame(s, pinecrest, oakRidge, slot, base); ok || rule != RuleFrequency14 {
			t.Errorf("rule = %q ok = %v, want %s", rule, ok, RuleFrequency14)
		}
	})
}

func TestValidate(t *testing.T) {
	cfg := evalConfig()
	league := evalLeague()
	eval := NewEvaluator(cfg, league)

	maple := league.Team("maple-msbjv")
	oakRidge := league.Team("oak-ridge-msbjv")
	pinecrest := league.Team("pinecrest-msbjv")
	somerset := league.Team("somerset-msbjv")

	rules := func(report *model.ValidationReport) []string {
		var out []string
		for _, v := range report.HardViolations {
			out = append(out, v.Rule)
		}
		return out
	}

	t.Run("clean schedule has no findings", func(t *testing.T) {
		s := model.NewSchedule()
		addGame(s, "MSBJV-001", oakRidge, maple, courtSlot("gym", 1, date(2026, 1, 5), 17))
		addGame(s, "MSBJV-002", pinecrest, maple, courtSlot("gym", 1, date(2026, 1, 12), 17))
		report := eval.Validate(s, nil)
		if len(report.HardViolations) != 0 {
			t.Fatalf("violations = %v, want none", rules(report))
		}
		stats := report.PerTeamStats["maple-msbjv"]
		if stats == nil || stats.Games != 2 || stats.Home != 0 || stats.Away != 2 {
			t.Errorf("maple stats = %+v, want 2 games, all away", stats)
		}
	})

	t.Run("duplicate slot is flagged once with both games", func(t *testing.T) {
		s := model.NewSchedule()
		slot := courtSlot("gym", 1, date(2026, 1, 5), 17)
		addGame(s, "MSBJV-001", oakRidge, maple, slot)
		addGame(s, "MSBJV-002", pinecrest, somerset, slot)
		report := eval.Validate(s, nil)
		found := false
		for _, v := range report.HardViolations {
			if v.Rule == RuleSlotConflict {
				found = true
				if len(v.Entities) != 2 {
					t.Errorf("entities = %v, want both game ids", v.Entities)
				}
			}
		}
		if !found {
			t.Errorf("violations = %v, want %s", rules(report), RuleSlotConflict)
		}
	})

	t.Run("consecutive days violate the day gap", func(t *testing.T) {
		s := model.NewSchedule()
		addGame(s, "MSBJV-001", oakRidge, maple, courtSlot("gym", 1, date(2026, 1, 5), 17))
		addGame(s, "MSBJV-002", maple, pinecrest, courtSlot("gym", 1, date(2026, 1, 6), 17))
		report := eval.Validate(s, nil)
		if got := rules(report); len(got) != 1 || got[0] != RuleMinGap {
			t.Fatalf("violations = %v, want exactly %s", got, RuleMinGap)
		}

		covered := []model.Relaxation{{GameID: "MSBJV-002", Pass: 15, Rule: RuleMinGap, Detail: "maple back to back"}}
		report = eval.Validate(s, covered)
		if len(report.HardViolations) != 0 {
			t.Errorf("covered violations = %v, want none", rules(report))
		}
	})

	t.Run("do-not-play needs a recorded relaxation", func(t *testing.T) {
		s := model.NewSchedule()
		addGame(s, "MSBJV-001", somerset, oakRidge, courtSlot("gym", 1, date(2026, 1, 5), 17))
		report := eval.Validate(s, nil)
		if got := rules(report); len(got) != 1 || got[0] != RuleDoNotPlay {
			t.Fatalf("violations = %v, want exactly %s", got, RuleDoNotPlay)
		}

		covered := []model.Relaxation{{GameID: "MSBJV-001", Pass: 17, Rule: RuleDoNotPlay, Detail: "last resort"}}
		report = eval.Validate(s, covered)
		if len(report.HardViolations) != 0 {
			t.Errorf("covered violations = %v, want none", rules(report))
		}
	})

	t.Run("rematch cap audits the whole pair", func(t *testing.T) {
		s := model.NewSchedule()
		addGame(s, "MSBJV-001", maple, oakRidge, courtSlot("gym", 1, date(2026, 1, 5), 17))
		addGame(s, "MSBJV-002", oakRidge, maple, courtSlot("gym", 1, date(2026, 1, 12), 17))
		addGame(s, "MSBJV-003", maple, oakRidge, courtSlot("gym", 1, date(2026, 1, 19), 17))
		report := eval.Validate(s, nil)
		found := false
		for _, v := range report.HardViolations {
			if v.Rule == RuleRematchCap {
				found = true
				if len(v.Entities) != 3 {
					t.Errorf("entities = %v, want all three games", v.Entities)
				}
			}
		}
		if !found {
			t.Fatalf("violations = %v, want %s", rules(report), RuleRematchCap)
		}

		covered := []model.Relaxation{{GameID: "MSBJV-003", Pass: 11, Rule: RuleRematchCap, Detail: "third meeting"}}
		report = eval.Validate(s, covered)
		if len(report.HardViolations) != 0 {
			t.Errorf("covered violations = %v, want none", rules(report))
		}
	})

	t.Run("back-to-back doubleheader games need rest", func(t *testing.T) {
		s := model.NewSchedule()
		addGame(s, "MSBJV-001", oakRidge, maple, courtSlot("gym", 1, date(2026, 1, 5), 17))
		addGame(s, "MSBJV-002", oakRidge, pinecrest, courtSlot("gym", 2, date(2026, 1, 5), 18))
		report := eval.Validate(s, nil)
		if got := rules(report); len(got) != 1 || got[0] != RuleDoubleheaderGap {
			t.Errorf("violations = %v, want exactly %s", got, RuleDoubleheaderGap)
		}
	})

	t.Run("densest window reported once with all its games", func(t *testing.T) {
		s := model.NewSchedule()
		addGame(s, "MSBJV-001", oakRidge, maple, courtSlot("gym", 1, date(2026, 1, 5), 17))
		addGame(s, "MSBJV-002", oakRidge, pinecrest, courtSlot("gym", 1, date(2026, 1, 7), 17))
		addGame(s, "MSBJV-003", maple, oakRidge, courtSlot("gym", 1, date(2026, 1, 9), 17))
		report := eval.Validate(s, nil)
		if got := rules(report); len(got) != 1 || got[0] != RuleFrequency7 {
			t.Fatalf("violations = %v, want exactly %s", got, RuleFrequency7)
		}
		if got := report.HardViolations[0].Entities; len(got) != 3 {
			t.Errorf("entities = %v, want all three window games", got)
		}

		covered := []model.Relaxation{{GameID: "MSBJV-003", Pass: 20, Rule: RuleFrequency7, Detail: "desperate fill"}}
		report = eval.Validate(s, covered)
		if len(report.HardViolations) != 0 {
			t.Errorf("covered violations = %v, want none", rules(report))
		}
	})
}

func TestValidateOrderStable(t *testing.T) {
	cfg := evalConfig()
	league := evalLeague()
	eval := NewEvaluator(cfg, league)

	maple := league.Team("maple-msbjv")
	oakRidge := league.Team("oak-ridge-msbjv")
	pinecrest := league.Team("pinecrest-msbjv")
	somerset := league.Team("somerset-msbjv")

	// Three court conflicts on distinct court-dates and two pairs over the
	// rematch cap, so the findings span several grouping keys.
	s := model.NewSchedule()
	addGame(s, "MSBJV-001", maple, oakRidge, courtSlot("gym", 1, date(2026, 1, 5), 17))
	addGame(s, "MSBJV-002", pinecrest, somerset, courtSlot("gym", 1, date(2026, 1, 5), 17))
	addGame(s, "MSBJV-003", oakRidge, maple, courtSlot("gym", 2, date(2026, 1, 12), 17))
	addGame(s, "MSBJV-004", somerset, pinecrest, courtSlot("gym", 2, date(2026, 1, 12), 17))
	addGame(s, "MSBJV-005", maple, oakRidge, courtSlot("gym", 1, date(2026, 1, 19), 17))
	addGame(s, "MSBJV-006", pinecrest, somerset, courtSlot("gym", 1, date(2026, 1, 19), 17))

	want := []model.Violation{
		{Rule: RuleSlotConflict, Entities: []string{"MSBJV-001", "MSBJV-002"}},
		{Rule: RuleSlotConflict, Entities: []string{"MSBJV-003", "MSBJV-004"}},
		{Rule: RuleSlotConflict, Entities: []string{"MSBJV-005", "MSBJV-006"}},
		{Rule: RuleRematchCap, Entities: []string{"MSBJV-001", "MSBJV-003", "MSBJV-005"}},
		{Rule: RuleRematchCap, Entities: []string{"MSBJV-002", "MSBJV-004", "MSBJV-006"}},
	}
	for run := 0; run < 25; run++ {
		report := eval.Validate(s, nil)
		if len(report.HardViolations) != len(want) {
			t.Fatalf("run %d: %d violations, want %d", run, len(report.HardViolations), len(want))
		}
		for i, v := range report.HardViolations {
			if v.Rule != want[i].Rule {
				t.Fatalf("run %d violation %d = %s, want %s", run, i, v.Rule, want[i].Rule)
			}
			if len(v.Entities) != len(want[i].Entities) {
				t.Fatalf("run %d violation %d entities = %v, want %v", run, i, v.Entities, want[i].Entities)
			}
			for j := range v.Entities {
				if v.Entities[j] != want[i].Entities[j] {
					t.Fatalf("run %d violation %d entities = %v, want %v", run, i, v.Entities, want[i].Entities)
				}
			}
		}
	}
}

func TestBaseViolations(t *testing.T) {
	cfg := evalConfig()
	league := evalLeague()
	eval := NewEvaluator(cfg, league)

	maple := league.Team("maple-msbjv")
	oakRidge := league.Team("oak-ridge-msbjv")
	somerset := league.Team("somerset-msbjv")

	// A do-not-play game one day after an existing game bends two rules.
	s := model.NewSchedule()
	addGame(s, "MSBJV-001", somerset, maple, courtSlot("gym", 1, date(2026, 1, 5), 17))
	got := eval.BaseViolations(s, somerset, oakRidge, courtSlot("gym", 1, date(2026, 1, 6), 17))
	want := []string{RuleDoNotPlay, RuleMinGap}
	if len(got) != len(want) {
		t.Fatalf("violations = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("violation %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestScorePair(t *testing.T) {
	cfg := evalConfig()
	league := evalLeague()
	eval := NewEvaluator(cfg, league)

	maple := league.Team("maple-msbjv")
	oakRidge := league.Team("oak-ridge-msbjv")
	somerset := league.Team("somerset-msbjv")

	t.Run("cluster, tier and rivalry stack", func(t *testing.T) {
		// Same cluster 60, equal tiers 70, rivals 80.
		if got := eval.ScorePair(nil, maple, oakRidge); got != 210 {
			t.Errorf("score = %d, want 210", got)
		}
	})

	t.Run("cross cluster with a tier step", func(t *testing.T) {
		// No cluster match, tier diff 1 scores 70*2/3.
		if got := eval.ScorePair(nil, maple, somerset); got != 46 {
			t.Errorf("score = %d, want 46", got)
		}
	})

	t.Run("rec divisions skip tier affinity", func(t *testing.T) {
		k1a := league.Team("oak-ridge-k1rec")
		k1b := league.Team("somerset-k1rec")
		if got := eval.ScorePair(nil, k1a, k1b); got != 0 {
			t.Errorf("score = %d, want 0", got)
		}
	})

	t.Run("prior meetings drain the pairing", func(t *testing.T) {
		s := model.NewSchedule()
		addGame(s, "MSBJV-001", maple, oakRidge, courtSlot("gym", 1, date(2026, 1, 5), 17))
		if got := eval.ScorePair(s, maple, oakRidge); got != 210-80/2 {
			t.Errorf("score = %d, want %d", got, 210-80/2)
		}
	})
}

func TestScoreSlot(t *testing.T) {
	cfg := evalConfig()
	league := evalLeague()
	eval := NewEvaluator(cfg, league)

	maple := league.Team("maple-msbjv")
	oakRidge := league.Team("oak-ridge-msbjv")
	pinecrest := league.Team("pinecrest-msbjv")
	somerset := league.Team("somerset-msbjv")

	t.Run("weeknights beat saturdays", func(t *testing.T) {
		s := model.NewSchedule()
		mon := eval.ScoreSlot(s, maple, oakRidge, courtSlot("gym", 1, date(2026, 1, 5), 17))
		sat := eval.ScoreSlot(s, maple, oakRidge, courtSlot("gym", 1, date(2026, 1, 10), 10))
		if mon-sat != 75 {
			t.Errorf("weeknight edge = %d, want 75", mon-sat)
		}
	})

	t.Run("adjacent slot of the same schools attracts", func(t *testing.T) {
		s := model.NewSchedule()
		addGame(s, "MSBJV-001", maple, oakRidge, courtSlot("gym", 1, date(2026, 1, 5), 17))
		// The girls game right after the boys game between the same two
		// schools: adjacency 100 plus the same-facility-date pull 100/4.
		girlsHome := league.Team("maple-msgjv")
		girlsAway := league.Team("oak-ridge-msgjv")
		got := eval.ScoreSlot(s, girlsHome, girlsAway, courtSlot("gym", 1, date(2026, 1, 5), 18))
		if got != 75+100+25 {
			t.Errorf("score = %d, want 200", got)
		}
	})

	t.Run("shared coach attracts the next slot", func(t *testing.T) {
		s := model.NewSchedule()
		// cho coaches maple in the placed game and pinecrest in the candidate.
		addGame(s, "MSBJV-001", maple, oakRidge, courtSlot("gym", 1, date(2026, 1, 5), 17))
		got := eval.ScoreSlot(s, pinecrest, somerset, courtSlot("gym", 1, date(2026, 1, 5), 18))
		if got != 75+90 {
			t.Errorf("score = %d, want 165", got)
		}
	})
}

func TestSoftScoreImbalance(t *testing.T) {
	cfg := evalConfig()
	league := evalLeague()
	eval := NewEvaluator(cfg, league)

	maple := league.Team("maple-msbjv")
	pinecrest := league.Team("pinecrest-msbjv")
	somerset := league.Team("somerset-msbjv")

	// Same pairings and slots, one with maple hosting twice, one split.
	lopsided := model.NewSchedule()
	addGame(lopsided, "MSBJV-001", maple, pinecrest, courtSlot("rec-center", 1, date(2026, 1, 5), 17))
	addGame(lopsided, "MSBJV-002", maple, somerset, courtSlot("rec-center", 1, date(2026, 1, 12), 17))

	balanced := model.NewSchedule()
	addGame(balanced, "MSBJV-001", maple, pinecrest, courtSlot("rec-center", 1, date(2026, 1, 5), 17))
	addGame(balanced, "MSBJV-002", somerset, maple, courtSlot("rec-center", 1, date(2026, 1, 12), 17))

	if diff := eval.SoftScore(balanced) - eval.SoftScore(lopsided); diff != 50 {
		t.Errorf("imbalance penalty = %d, want 50", diff)
	}
}
