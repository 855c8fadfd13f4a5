package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ncsaa/hoopsched/internal/model"
)

// Date is a wrapper around time.Time for YAML date parsing.
type Date struct {
	Time time.Time
}

func (d *Date) UnmarshalYAML(value *yaml.Node) error {
	t, err := time.Parse("2006-01-02", value.Value)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", value.Value, err)
	}
	d.Time = t
	return nil
}

// Clock is a local wall-clock time of day ("17:00") for YAML parsing.
type Clock struct {
	Hour   int
	Minute int
}

func (c *Clock) UnmarshalYAML(value *yaml.Node) error {
	t, err := time.Parse("15:04", value.Value)
	if err != nil {
		return fmt.Errorf("invalid time %q: %w", value.Value, err)
	}
	c.Hour, c.Minute = t.Hour(), t.Minute()
	return nil
}

// Minutes returns the clock value as minutes after midnight.
func (c Clock) Minutes() int { return c.Hour*60 + c.Minute }

func (c Clock) String() string { return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute) }

type Holiday struct {
	Date   Date   `yaml:"date"`
	Reason string `yaml:"reason"`
}

// Window is a daily playing window; it partitions into consecutive
// game-duration slots by the slot generator.
type Window struct {
	Start Clock `yaml:"start"`
	End   Clock `yaml:"end"`
}

type Season struct {
	StartDate           Date      `yaml:"start_date"`
	EndDate             Date      `yaml:"end_date"`
	Holidays            []Holiday `yaml:"holidays"`
	PlayOnSunday        bool      `yaml:"play_on_sunday"`
	WeeknightWindow     Window    `yaml:"weeknight_window"`
	SaturdayWindow      Window    `yaml:"saturday_window"`
	GameDurationMinutes int       `yaml:"game_duration_minutes"`
}

// HolidaySet returns the holidays keyed the way model date sets are keyed.
func (s *Season) HolidaySet() map[string]bool {
	set := make(map[string]bool, len(s.Holidays))
	for _, h := range s.Holidays {
		set[model.DateKey(h.Date.Time)] = true
	}
	return set
}

type Rules struct {
	TargetGamesPerTeam        int `yaml:"target_games_per_team"`
	MaxGamesPer7Days          int `yaml:"max_games_per_7_days"`
	MaxGamesPer14Days         int `yaml:"max_games_per_14_days"`
	MaxDoubleheadersPerSeason int `yaml:"max_doubleheaders_per_season"`
	DoubleheaderBreakMinutes  int `yaml:"doubleheader_break_minutes"`
	MaxRematches              int `yaml:"max_rematches"`
	CPTimeBudgetSeconds       int `yaml:"cp_time_budget_seconds"`
	CPWorkers                 int `yaml:"cp_workers"`
	GreedyMaxPasses           int `yaml:"greedy_max_passes"`
}

// Weights are the soft-constraint priorities. Zero disables a preference;
// negatives are rejected at load time.
type Weights struct {
	GeographicCluster    int `yaml:"geographic_cluster"`
	TierMatch            int `yaml:"tier_match"`
	RespectRivals        int `yaml:"respect_rivals"`
	HomeAwayBalance      int `yaml:"home_away_balance"`
	HostHomePreference   int `yaml:"host_home_preference"`
	SchoolClustering     int `yaml:"school_clustering"`
	CoachClustering      int `yaml:"coach_clustering"`
	WeeknightUtilization int `yaml:"weeknight_utilization"`
}

type SchoolConfig struct {
	Name          string   `yaml:"name"`
	Cluster       string   `yaml:"cluster"`
	Tier          int      `yaml:"tier"`
	BlackoutDates []Date   `yaml:"blackout_dates"`
	Rivals        []string `yaml:"rivals"`
	DoNotPlay     []string `yaml:"do_not_play"`
}

type TeamConfig struct {
	ID           string   `yaml:"id"`
	School       string   `yaml:"school"`
	Division     string   `yaml:"division"`
	Coach        string   `yaml:"coach"`
	Tier         int      `yaml:"tier"`
	Cluster      string   `yaml:"cluster"`
	HomeFacility string   `yaml:"home_facility"`
	Rivals       []string `yaml:"rivals"`
	DoNotPlay    []string `yaml:"do_not_play"`
}

type FacilityConfig struct {
	Name           string   `yaml:"name"`
	Courts         int      `yaml:"courts"`
	ShortRims      bool     `yaml:"short_rims"`
	OwnedBySchool  string   `yaml:"owned_by_school"`
	Weekdays       []string `yaml:"weekdays"`
	AvailableDates []Date   `yaml:"available_dates"`
	BlackoutDates  []Date   `yaml:"blackout_dates"`
}

type Config struct {
	Season          Season           `yaml:"season"`
	Rules           Rules            `yaml:"rules"`
	PriorityWeights Weights          `yaml:"priority_weights"`
	Strategy        string           `yaml:"strategy"`
	Schools         []SchoolConfig   `yaml:"schools"`
	Teams           []TeamConfig     `yaml:"teams"`
	Facilities      []FacilityConfig `yaml:"facilities"`
}

// LoadFromBytes parses YAML bytes into a Config, applies defaults and
// validates it.
func LoadFromBytes(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromFile reads and parses a YAML config file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromBytes(data)
}

func (c *Config) applyDefaults() {
	if c.Season.GameDurationMinutes == 0 {
		c.Season.GameDurationMinutes = 60
	}
	if c.Season.WeeknightWindow == (Window{}) {
		c.Season.WeeknightWindow = Window{Start: Clock{Hour: 17}, End: Clock{Hour: 20, Minute: 30}}
	}
	if c.Season.SaturdayWindow == (Window{}) {
		c.Season.SaturdayWindow = Window{Start: Clock{Hour: 8}, End: Clock{Hour: 18}}
	}
	if c.Rules.TargetGamesPerTeam == 0 {
		c.Rules.TargetGamesPerTeam = 8
	}
	if c.Rules.MaxGamesPer7Days == 0 {
		c.Rules.MaxGamesPer7Days = 2
	}
	if c.Rules.MaxGamesPer14Days == 0 {
		c.Rules.MaxGamesPer14Days = 3
	}
	if c.Rules.MaxDoubleheadersPerSeason == 0 {
		c.Rules.MaxDoubleheadersPerSeason = 1
	}
	if c.Rules.DoubleheaderBreakMinutes == 0 {
		c.Rules.DoubleheaderBreakMinutes = 60
	}
	if c.Rules.MaxRematches == 0 {
		c.Rules.MaxRematches = 2
	}
	if c.Rules.CPTimeBudgetSeconds == 0 {
		c.Rules.CPTimeBudgetSeconds = 30
	}
	if c.Rules.CPWorkers == 0 {
		c.Rules.CPWorkers = 4
	}
	if c.Rules.GreedyMaxPasses == 0 {
		c.Rules.GreedyMaxPasses = 20
	}
	if c.Strategy == "" {
		c.Strategy = "school_paired"
	}
}

func (c *Config) validate() error {
	if !c.Season.EndDate.Time.After(c.Season.StartDate.Time) {
		return fmt.Errorf("end date %s must be after start date %s",
			c.Season.EndDate.Time.Format("2006-01-02"),
			c.Season.StartDate.Time.Format("2006-01-02"))
	}
	if c.Season.WeeknightWindow.End.Minutes() <= c.Season.WeeknightWindow.Start.Minutes() {
		return fmt.Errorf("weeknight window must end after it starts")
	}
	if c.Season.SaturdayWindow.End.Minutes() <= c.Season.SaturdayWindow.Start.Minutes() {
		return fmt.Errorf("saturday window must end after it starts")
	}

	if len(c.Schools) == 0 {
		return fmt.Errorf("at least one school is required")
	}
	if len(c.Teams) == 0 {
		return fmt.Errorf("at least one team is required")
	}
	if len(c.Facilities) == 0 {
		return fmt.Errorf("at least one facility is required")
	}

	for name, w := range map[string]int{
		"geographic_cluster":    c.PriorityWeights.GeographicCluster,
		"tier_match":            c.PriorityWeights.TierMatch,
		"respect_rivals":        c.PriorityWeights.RespectRivals,
		"home_away_balance":     c.PriorityWeights.HomeAwayBalance,
		"host_home_preference":  c.PriorityWeights.HostHomePreference,
		"school_clustering":     c.PriorityWeights.SchoolClustering,
		"coach_clustering":      c.PriorityWeights.CoachClustering,
		"weeknight_utilization": c.PriorityWeights.WeeknightUtilization,
	} {
		if w < 0 {
			return fmt.Errorf("priority weight %s must not be negative", name)
		}
	}

	schools := make(map[string]bool, len(c.Schools))
	for _, s := range c.Schools {
		if s.Name == "" {
			return fmt.Errorf("school with empty name")
		}
		if schools[s.Name] {
			return fmt.Errorf("duplicate school %q", s.Name)
		}
		schools[s.Name] = true
	}
	for _, s := range c.Schools {
		for _, r := range s.Rivals {
			if !schools[r] {
				return fmt.Errorf("school %q: unknown rival school %q", s.Name, r)
			}
		}
		for _, d := range s.DoNotPlay {
			if !schools[d] {
				return fmt.Errorf("school %q: unknown do_not_play school %q", s.Name, d)
			}
		}
	}

	facilities := make(map[string]bool, len(c.Facilities))
	for _, f := range c.Facilities {
		if f.Name == "" {
			return fmt.Errorf("facility with empty name")
		}
		if facilities[f.Name] {
			return fmt.Errorf("duplicate facility %q", f.Name)
		}
		facilities[f.Name] = true
		if f.Courts < 1 {
			return fmt.Errorf("facility %q: courts must be >= 1", f.Name)
		}
		if f.OwnedBySchool != "" && !schools[f.OwnedBySchool] {
			return fmt.Errorf("facility %q: unknown owning school %q", f.Name, f.OwnedBySchool)
		}
		for _, w := range f.Weekdays {
			if _, err := parseWeekday(w); err != nil {
				return fmt.Errorf("facility %q: %w", f.Name, err)
			}
		}
	}

	for _, t := range c.Teams {
		if !schools[t.School] {
			return fmt.Errorf("team %q: unknown school %q", teamLabel(t), t.School)
		}
		if _, err := model.ParseDivision(t.Division); err != nil {
			return fmt.Errorf("team %q: %w", teamLabel(t), err)
		}
		if t.HomeFacility != "" && !facilities[t.HomeFacility] {
			return fmt.Errorf("team %q: unknown home facility %q", teamLabel(t), t.HomeFacility)
		}
	}
	return nil
}

func teamLabel(t TeamConfig) string {
	if t.ID != "" {
		return t.ID
	}
	return t.School + "/" + t.Division
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

func parseWeekday(s string) (time.Weekday, error) {
	if d, ok := weekdayNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return d, nil
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}

// TeamID returns the team's configured id, or the derived school-division
// slug when none is set.
func (t TeamConfig) TeamID() string {
	if t.ID != "" {
		return t.ID
	}
	div, err := model.ParseDivision(t.Division)
	if err != nil {
		return slugify(t.School) + "-" + slugify(t.Division)
	}
	return slugify(t.School) + "-" + strings.ToLower(div.Traits().Slug)
}

func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	lastDash := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash && b.Len() > 0 {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func dateSet(dates []Date) map[string]bool {
	if len(dates) == 0 {
		return nil
	}
	set := make(map[string]bool, len(dates))
	for _, d := range dates {
		set[model.DateKey(d.Time)] = true
	}
	return set
}

// League materializes the configured schools, teams and facilities into the
// domain model. School-level rivals and do_not_play expand to team pairs in
// every division both schools field, matching how the registrar tracks them.
func (c *Config) League() (*model.League, error) {
	schools := make([]*model.School, 0, len(c.Schools))
	schoolCfg := make(map[string]SchoolConfig, len(c.Schools))
	for _, s := range c.Schools {
		tier := s.Tier
		if tier == 0 {
			tier = 2
		}
		schools = append(schools, &model.School{
			ID:            s.Name,
			Cluster:       s.Cluster,
			Tier:          tier,
			BlackoutDates: dateSet(s.BlackoutDates),
		})
		schoolCfg[s.Name] = s
	}

	facilities := make([]*model.Facility, 0, len(c.Facilities))
	homeBySchool := make(map[string]string)
	for _, f := range c.Facilities {
		weekdays := make(map[time.Weekday]bool, len(f.Weekdays))
		for _, w := range f.Weekdays {
			d, err := parseWeekday(w)
			if err != nil {
				return nil, fmt.Errorf("facility %q: %w", f.Name, err)
			}
			weekdays[d] = true
		}
		facilities = append(facilities, &model.Facility{
			ID:                f.Name,
			CourtCount:        f.Courts,
			HasShortRims:      f.ShortRims,
			OwnedBySchool:     f.OwnedBySchool,
			AvailableWeekdays: weekdays,
			AvailableDates:    dateSet(f.AvailableDates),
			BlackoutDates:     dateSet(f.BlackoutDates),
		})
		if f.OwnedBySchool != "" {
			if _, taken := homeBySchool[f.OwnedBySchool]; !taken {
				homeBySchool[f.OwnedBySchool] = f.Name
			}
		}
	}

	// First pass: build teams and record which divisions each school fields.
	teams := make([]*model.Team, 0, len(c.Teams))
	teamBySchoolDiv := make(map[string]map[model.Division]string)
	for _, tc := range c.Teams {
		div, err := model.ParseDivision(tc.Division)
		if err != nil {
			return nil, fmt.Errorf("team %q: %w", teamLabel(tc), err)
		}
		sc := schoolCfg[tc.School]
		tier := tc.Tier
		if tier == 0 {
			tier = sc.Tier
		}
		if tier == 0 {
			tier = 2
		}
		cluster := tc.Cluster
		if cluster == "" {
			cluster = sc.Cluster
		}
		home := tc.HomeFacility
		if home == "" {
			home = homeBySchool[tc.School]
		}
		team := &model.Team{
			ID:             tc.TeamID(),
			SchoolID:       tc.School,
			Division:       div,
			CoachID:        slugify(tc.Coach),
			CoachName:      tc.Coach,
			Tier:           tier,
			Cluster:        cluster,
			HomeFacilityID: home,
			Rivals:         make(map[string]bool),
			DoNotPlay:      make(map[string]bool),
		}
		for _, r := range tc.Rivals {
			team.Rivals[r] = true
		}
		for _, d := range tc.DoNotPlay {
			team.DoNotPlay[d] = true
		}
		teams = append(teams, team)
		if teamBySchoolDiv[tc.School] == nil {
			teamBySchoolDiv[tc.School] = make(map[model.Division]string)
		}
		teamBySchoolDiv[tc.School][div] = team.ID
	}

	// Second pass: expand school-level relations to team pairs per shared
	// division. NewLeague closes the symmetry afterwards.
	for _, team := range teams {
		sc := schoolCfg[team.SchoolID]
		for _, rivalSchool := range sc.Rivals {
			if other, ok := teamBySchoolDiv[rivalSchool][team.Division]; ok {
				team.Rivals[other] = true
			}
		}
		for _, dnpSchool := range sc.DoNotPlay {
			if other, ok := teamBySchoolDiv[dnpSchool][team.Division]; ok {
				team.DoNotPlay[other] = true
			}
		}
	}

	league := model.NewLeague(schools, teams, facilities)
	if err := league.Validate(); err != nil {
		return nil, fmt.Errorf("league config: %w", err)
	}
	return league, nil
}
