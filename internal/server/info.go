package server

import (
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ncsaa/hoopsched/internal/model"
)

// The info endpoints are read-only views of the league and config the
// server started with. Request-scoped sources apply only to generation
// jobs, never here.

type teamPayload struct {
	ID           string   `json:"id"`
	School       string   `json:"school"`
	Division     string   `json:"division"`
	Coach        string   `json:"coach,omitempty"`
	Tier         int      `json:"tier"`
	Cluster      string   `json:"cluster,omitempty"`
	HomeFacility string   `json:"home_facility,omitempty"`
	Rivals       []string `json:"rivals,omitempty"`
	DoNotPlay    []string `json:"do_not_play,omitempty"`
}

type schoolPayload struct {
	ID            string   `json:"id"`
	Cluster       string   `json:"cluster,omitempty"`
	Tier          int      `json:"tier"`
	Teams         []string `json:"teams"`
	BlackoutDates []string `json:"blackout_dates,omitempty"`
}

type facilityPayload struct {
	ID             string   `json:"id"`
	Courts         int      `json:"courts"`
	ShortRims      bool     `json:"short_rims"`
	OwnedBySchool  string   `json:"owned_by_school,omitempty"`
	Weekdays       []string `json:"weekdays,omitempty"`
	AvailableDates []string `json:"available_dates,omitempty"`
	BlackoutDates  []string `json:"blackout_dates,omitempty"`
}

type holidayPayload struct {
	Date   string `json:"date"`
	Reason string `json:"reason,omitempty"`
}

type rulesPayload struct {
	SeasonStart          string           `json:"season_start"`
	SeasonEnd            string           `json:"season_end"`
	GameDurationMinutes  int              `json:"game_duration_minutes"`
	WeeknightWindow      string           `json:"weeknight_window"`
	SaturdayWindow       string           `json:"saturday_window"`
	PlayOnSunday         bool             `json:"play_on_sunday"`
	Holidays             []holidayPayload `json:"holidays,omitempty"`
	TargetGamesPerTeam   int              `json:"target_games_per_team"`
	MaxGamesPer7Days     int              `json:"max_games_per_7_days"`
	MaxGamesPer14Days    int              `json:"max_games_per_14_days"`
	MaxDoubleheaders     int              `json:"max_doubleheaders_per_season"`
	DoubleheaderBreakMin int              `json:"doubleheader_break_minutes"`
	MaxRematches         int              `json:"max_rematches"`
	PriorityWeights      map[string]int   `json:"priority_weights"`
	Divisions            []string         `json:"divisions"`
}

type statsPayload struct {
	Schools         int            `json:"schools"`
	Teams           int            `json:"teams"`
	Facilities      int            `json:"facilities"`
	TargetPerTeam   int            `json:"target_games_per_team"`
	EstimatedGames  int            `json:"estimated_games"`
	GamesByDivision map[string]int `json:"games_by_division"`
}

func (s *Server) teamsInfo(c *gin.Context) {
	out := make([]teamPayload, 0, len(s.league.Teams))
	for _, t := range s.league.Teams {
		out = append(out, teamPayload{
			ID:           t.ID,
			School:       t.SchoolID,
			Division:     string(t.Division),
			Coach:        t.CoachName,
			Tier:         t.Tier,
			Cluster:      t.Cluster,
			HomeFacility: t.HomeFacilityID,
			Rivals:       sortedKeys(t.Rivals),
			DoNotPlay:    sortedKeys(t.DoNotPlay),
		})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) schoolsInfo(c *gin.Context) {
	out := make([]schoolPayload, 0, len(s.league.Schools))
	for _, sc := range s.league.Schools {
		members := s.league.TeamsBySchool(sc.ID)
		teams := make([]string, 0, len(members))
		for _, t := range members {
			teams = append(teams, t.ID)
		}
		out = append(out, schoolPayload{
			ID:            sc.ID,
			Cluster:       sc.Cluster,
			Tier:          sc.Tier,
			Teams:         teams,
			BlackoutDates: sortedKeys(sc.BlackoutDates),
		})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) facilitiesInfo(c *gin.Context) {
	out := make([]facilityPayload, 0, len(s.league.Facilities))
	for _, f := range s.league.Facilities {
		out = append(out, facilityPayload{
			ID:             f.ID,
			Courts:         f.CourtCount,
			ShortRims:      f.HasShortRims,
			OwnedBySchool:  f.OwnedBySchool,
			Weekdays:       weekdayList(f.AvailableWeekdays),
			AvailableDates: sortedKeys(f.AvailableDates),
			BlackoutDates:  sortedKeys(f.BlackoutDates),
		})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) rulesInfo(c *gin.Context) {
	season := s.cfg.Season
	holidays := make([]holidayPayload, 0, len(season.Holidays))
	for _, h := range season.Holidays {
		holidays = append(holidays, holidayPayload{
			Date:   model.DateKey(h.Date.Time),
			Reason: h.Reason,
		})
	}
	divisions := make([]string, 0, len(model.Divisions()))
	for _, d := range model.Divisions() {
		divisions = append(divisions, string(d))
	}

	w := s.cfg.PriorityWeights
	c.JSON(http.StatusOK, rulesPayload{
		SeasonStart:          model.DateKey(season.StartDate.Time),
		SeasonEnd:            model.DateKey(season.EndDate.Time),
		GameDurationMinutes:  season.GameDurationMinutes,
		WeeknightWindow:      season.WeeknightWindow.Start.String() + "-" + season.WeeknightWindow.End.String(),
		SaturdayWindow:       season.SaturdayWindow.Start.String() + "-" + season.SaturdayWindow.End.String(),
		PlayOnSunday:         season.PlayOnSunday,
		Holidays:             holidays,
		TargetGamesPerTeam:   s.cfg.Rules.TargetGamesPerTeam,
		MaxGamesPer7Days:     s.cfg.Rules.MaxGamesPer7Days,
		MaxGamesPer14Days:    s.cfg.Rules.MaxGamesPer14Days,
		MaxDoubleheaders:     s.cfg.Rules.MaxDoubleheadersPerSeason,
		DoubleheaderBreakMin: s.cfg.Rules.DoubleheaderBreakMinutes,
		MaxRematches:         s.cfg.Rules.MaxRematches,
		PriorityWeights: map[string]int{
			"geographic_cluster":    w.GeographicCluster,
			"tier_match":            w.TierMatch,
			"respect_rivals":        w.RespectRivals,
			"home_away_balance":     w.HomeAwayBalance,
			"host_home_preference":  w.HostHomePreference,
			"school_clustering":     w.SchoolClustering,
			"coach_clustering":      w.CoachClustering,
			"weeknight_utilization": w.WeeknightUtilization,
		},
		Divisions: divisions,
	})
}

// statsInfo estimates the season size before a run: each division expects
// teams times target over two games.
func (s *Server) statsInfo(c *gin.Context) {
	target := s.cfg.Rules.TargetGamesPerTeam
	byDivision := make(map[string]int)
	total := 0
	for _, d := range model.Divisions() {
		n := len(s.league.TeamsInDivision(d))
		if n == 0 {
			continue
		}
		games := n * target / 2
		byDivision[string(d)] = games
		total += games
	}
	c.JSON(http.StatusOK, statsPayload{
		Schools:         len(s.league.Schools),
		Teams:           len(s.league.Teams),
		Facilities:      len(s.league.Facilities),
		TargetPerTeam:   target,
		EstimatedGames:  total,
		GamesByDivision: byDivision,
	})
}

func sortedKeys(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func weekdayList(days map[time.Weekday]bool) []string {
	if len(days) == 0 {
		return nil
	}
	var names []string
	for d := time.Sunday; d <= time.Saturday; d++ {
		if days[d] {
			names = append(names, d.String())
		}
	}
	return names
}
