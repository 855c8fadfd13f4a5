package excel

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ncsaa/hoopsched/internal/config"
	"github.com/ncsaa/hoopsched/internal/model"
)

// ReadLeague loads the Schools, Teams and Facilities sheets from a league
// workbook into cfg, replacing whatever entities the YAML carried. Season
// and rules stay with the YAML side.
func ReadLeague(path string, cfg *config.Config) error {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	schools, err := readSchools(f)
	if err != nil {
		return err
	}
	teams, err := readTeams(f)
	if err != nil {
		return err
	}
	facilities, err := readFacilities(f)
	if err != nil {
		return err
	}
	cfg.Schools, cfg.Teams, cfg.Facilities = schools, teams, facilities
	return nil
}

// ReadSchedule loads games back out of a schedule workbook's week sheets.
// Game ids are regenerated per division in date order, the same pattern the
// generator uses.
func ReadSchedule(path string, cfg *config.Config, league *model.League) (*model.Schedule, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	var weekSheets []string
	for _, name := range f.GetSheetList() {
		if strings.HasPrefix(name, "WEEK ") {
			weekSheets = append(weekSheets, name)
		}
	}
	if len(weekSheets) == 0 {
		return nil, fmt.Errorf("workbook has no week sheets")
	}
	sort.Slice(weekSheets, func(i, j int) bool {
		return weekSheetNumber(weekSheets[i]) < weekSheetNumber(weekSheets[j])
	})

	sched := model.NewSchedule()
	counters := make(map[model.Division]int)
	duration := time.Duration(cfg.Season.GameDurationMinutes) * time.Minute
	for _, sheet := range weekSheets {
		sh, err := openSheet(f, sheet, "Date", "Time", "Division",
			"Home Team (Coach)", "Away Team (Coach)", "Facility", "Court")
		if err != nil {
			return nil, err
		}
		for i, row := range sh.rows {
			if emptyRow(row) {
				continue
			}
			g, err := parseGameRow(sh, row, league, duration, counters)
			if err != nil {
				return nil, fmt.Errorf("sheet %s row %d: %w", sheet, i+2, err)
			}
			sched.Add(g)
		}
	}
	sched.Sort()
	return sched, nil
}

type sheetReader struct {
	name string
	cols map[string]int
	rows [][]string
}

func openSheet(f *excelize.File, name string, required ...string) (*sheetReader, error) {
	rows, err := f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("sheet %s: %w", name, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %s: missing header row", name)
	}
	cols := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, r := range required {
		if _, ok := cols[strings.ToLower(r)]; !ok {
			return nil, fmt.Errorf("sheet %s: missing column %q", name, r)
		}
	}
	return &sheetReader{name: name, cols: cols, rows: rows[1:]}, nil
}

func (r *sheetReader) cell(row []string, col string) string {
	idx, ok := r.cols[col]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func emptyRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func readSchools(f *excelize.File) ([]config.SchoolConfig, error) {
	sh, err := openSheet(f, "Schools", "Name")
	if err != nil {
		return nil, err
	}
	var out []config.SchoolConfig
	for i, row := range sh.rows {
		if emptyRow(row) {
			continue
		}
		rowNum := i + 2
		s := config.SchoolConfig{
			Name:      sh.cell(row, "name"),
			Cluster:   sh.cell(row, "cluster"),
			Rivals:    splitList(sh.cell(row, "rivals")),
			DoNotPlay: splitList(sh.cell(row, "do not play")),
		}
		if s.Name == "" {
			return nil, fmt.Errorf("sheet Schools row %d: missing name", rowNum)
		}
		if v := sh.cell(row, "tier"); v != "" {
			t, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("sheet Schools row %d: invalid tier %q", rowNum, v)
			}
			s.Tier = t
		}
		dates, err := splitDates(sh.cell(row, "blackout dates"))
		if err != nil {
			return nil, fmt.Errorf("sheet Schools row %d: %w", rowNum, err)
		}
		s.BlackoutDates = dates
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("sheet Schools: no schools")
	}
	return out, nil
}

func readTeams(f *excelize.File) ([]config.TeamConfig, error) {
	sh, err := openSheet(f, "Teams", "School", "Division")
	if err != nil {
		return nil, err
	}
	var out []config.TeamConfig
	for i, row := range sh.rows {
		if emptyRow(row) {
			continue
		}
		rowNum := i + 2
		t := config.TeamConfig{
			ID:           sh.cell(row, "id"),
			School:       sh.cell(row, "school"),
			Division:     sh.cell(row, "division"),
			Coach:        sh.cell(row, "coach"),
			HomeFacility: sh.cell(row, "home facility"),
		}
		if t.School == "" {
			return nil, fmt.Errorf("sheet Teams row %d: missing school", rowNum)
		}
		if t.Division == "" {
			return nil, fmt.Errorf("sheet Teams row %d: missing division", rowNum)
		}
		if v := sh.cell(row, "tier"); v != "" {
			tier, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("sheet Teams row %d: invalid tier %q", rowNum, v)
			}
			t.Tier = tier
		}
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("sheet Teams: no teams")
	}
	return out, nil
}

func readFacilities(f *excelize.File) ([]config.FacilityConfig, error) {
	sh, err := openSheet(f, "Facilities", "Name", "Courts")
	if err != nil {
		return nil, err
	}
	var out []config.FacilityConfig
	for i, row := range sh.rows {
		if emptyRow(row) {
			continue
		}
		rowNum := i + 2
		fc := config.FacilityConfig{
			Name:          sh.cell(row, "name"),
			OwnedBySchool: sh.cell(row, "owned by school"),
			Weekdays:      splitList(sh.cell(row, "weekdays")),
		}
		if fc.Name == "" {
			return nil, fmt.Errorf("sheet Facilities row %d: missing name", rowNum)
		}
		courts, err := strconv.Atoi(sh.cell(row, "courts"))
		if err != nil || courts < 1 {
			return nil, fmt.Errorf("sheet Facilities row %d: invalid court count %q", rowNum, sh.cell(row, "courts"))
		}
		fc.Courts = courts
		short, err := parseYesNo(sh.cell(row, "short rims"))
		if err != nil {
			return nil, fmt.Errorf("sheet Facilities row %d: %w", rowNum, err)
		}
		fc.ShortRims = short
		dates, err := splitDates(sh.cell(row, "blackout dates"))
		if err != nil {
			return nil, fmt.Errorf("sheet Facilities row %d: %w", rowNum, err)
		}
		fc.BlackoutDates = dates
		out = append(out, fc)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("sheet Facilities: no facilities")
	}
	return out, nil
}

func parseGameRow(sh *sheetReader, row []string, league *model.League, duration time.Duration, counters map[model.Division]int) (*model.Game, error) {
	date, err := time.Parse("01/02/2006", sh.cell(row, "date"))
	if err != nil {
		return nil, fmt.Errorf("invalid date %q", sh.cell(row, "date"))
	}
	start, err := time.Parse("15:04", sh.cell(row, "time"))
	if err != nil {
		return nil, fmt.Errorf("invalid time %q", sh.cell(row, "time"))
	}
	div, err := model.ParseDivision(sh.cell(row, "division"))
	if err != nil {
		return nil, err
	}
	homeID := stripCoach(sh.cell(row, "home team (coach)"))
	awayID := stripCoach(sh.cell(row, "away team (coach)"))
	if league.Team(homeID) == nil {
		return nil, fmt.Errorf("unknown team %q", homeID)
	}
	if league.Team(awayID) == nil {
		return nil, fmt.Errorf("unknown team %q", awayID)
	}
	facility := sh.cell(row, "facility")
	if league.Facility(facility) == nil {
		return nil, fmt.Errorf("unknown facility %q", facility)
	}
	court, err := strconv.Atoi(sh.cell(row, "court"))
	if err != nil || court < 1 {
		return nil, fmt.Errorf("invalid court %q", sh.cell(row, "court"))
	}

	startAt := time.Date(date.Year(), date.Month(), date.Day(), start.Hour(), start.Minute(), 0, 0, time.UTC)
	counters[div]++
	return &model.Game{
		ID:         fmt.Sprintf("%s-%03d", div.Traits().Slug, counters[div]),
		HomeTeamID: homeID,
		AwayTeamID: awayID,
		Division:   div,
		Slot: model.TimeSlot{
			FacilityID: facility,
			Court:      court,
			Date:       date,
			Start:      startAt,
			End:        startAt.Add(duration),
		},
		OfficialsCount: div.Traits().Officials,
		Status:         model.GameScheduled,
	}, nil
}

// stripCoach drops the parenthesized coach suffix from a team cell.
func stripCoach(cell string) string {
	if i := strings.Index(cell, " ("); i >= 0 {
		return cell[:i]
	}
	return cell
}

func weekSheetNumber(name string) int {
	n, err := strconv.Atoi(strings.TrimPrefix(name, "WEEK "))
	if err != nil {
		return 0
	}
	return n
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func splitDates(s string) ([]config.Date, error) {
	var out []config.Date
	for _, part := range splitList(s) {
		t, err := time.Parse("2006-01-02", part)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q", part)
		}
		out = append(out, config.Date{Time: t})
	}
	return out, nil
}

func parseYesNo(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "", "no", "n", "false", "0":
		return false, nil
	case "yes", "y", "true", "1":
		return true, nil
	}
	return false, fmt.Errorf("invalid yes/no value %q", s)
}
