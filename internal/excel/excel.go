package excel

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ncsaa/hoopsched/internal/config"
	"github.com/ncsaa/hoopsched/internal/model"
)

var weekHeaders = []string{
	"Date", "Day", "Time", "Division",
	"Home Team (Coach)", "Away Team (Coach)",
	"Facility", "Court", "Home School", "Away School",
}

var teamHeaders = []string{"Date", "Day", "Time", "Opponent", "Home/Away", "Facility", "Court"}

// Generate creates the schedule workbook: one sheet per season week, one
// per team, and a summary sheet carrying the validation findings.
func Generate(cfg *config.Config, league *model.League, sched *model.Schedule, report *model.ValidationReport) (*excelize.File, error) {
	f := excelize.NewFile()
	f.SetDefaultFont("Arial")
	st := newStyles(f)

	if err := writeWeekSheets(f, st, cfg, league, sched); err != nil {
		return nil, fmt.Errorf("writing week sheets: %w", err)
	}
	if err := writeTeamSheets(f, st, league, sched); err != nil {
		return nil, fmt.Errorf("writing team sheets: %w", err)
	}
	if err := writeSummarySheet(f, st, league, report); err != nil {
		return nil, fmt.Errorf("writing summary sheet: %w", err)
	}

	f.DeleteSheet("Sheet1")
	return f, nil
}

type styles struct {
	header  int
	cell    int
	relaxed int
}

func newStyles(f *excelize.File) styles {
	header, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 12, Family: "Arial"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#4472C4"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	cell, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Size: 12, Family: "Arial"},
	})
	// Relaxed placements get the amber fill so registrars spot them.
	relaxed, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Size: 12, Family: "Arial", Color: "#9C6500"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#FFEB9C"}},
	})
	return styles{header: header, cell: cell, relaxed: relaxed}
}

func writeWeekSheets(f *excelize.File, st styles, cfg *config.Config, league *model.League, sched *model.Schedule) error {
	start := cfg.Season.StartDate.Time
	byWeek := make(map[int][]*model.Game)
	for _, g := range sched.Games {
		wk := weekNumber(start, g.Slot.Date)
		byWeek[wk] = append(byWeek[wk], g)
	}
	weeks := make([]int, 0, len(byWeek))
	for wk := range byWeek {
		weeks = append(weeks, wk)
	}
	sort.Ints(weeks)

	for _, wk := range weeks {
		sheet := fmt.Sprintf("WEEK %d", wk)
		if _, err := f.NewSheet(sheet); err != nil {
			return err
		}
		writeHeader(f, st, sheet, weekHeaders)

		games := byWeek[wk]
		sortGames(games)
		for i, g := range games {
			row := i + 2
			home := league.Team(g.HomeTeamID)
			away := league.Team(g.AwayTeamID)
			f.SetCellValue(sheet, cellRef(1, row), g.Slot.Date.Format("01/02/2006"))
			f.SetCellValue(sheet, cellRef(2, row), g.Slot.Date.Format("Mon"))
			f.SetCellValue(sheet, cellRef(3, row), g.Slot.Start.Format("15:04"))
			f.SetCellValue(sheet, cellRef(4, row), string(g.Division))
			f.SetCellValue(sheet, cellRef(5, row), teamCell(home))
			f.SetCellValue(sheet, cellRef(6, row), teamCell(away))
			f.SetCellValue(sheet, cellRef(7, row), g.Slot.FacilityID)
			f.SetCellValue(sheet, cellRef(8, row), g.Slot.Court)
			f.SetCellValue(sheet, cellRef(9, row), home.SchoolID)
			f.SetCellValue(sheet, cellRef(10, row), away.SchoolID)

			style := st.cell
			if g.Status == model.GameRelaxed {
				style = st.relaxed
			}
			if style != 0 {
				f.SetCellStyle(sheet, cellRef(1, row), cellRef(len(weekHeaders), row), style)
			}
		}

		for i, w := range []float64{12, 6, 8, 18, 30, 30, 20, 7, 16, 16} {
			col := colLetter(i + 1)
			f.SetColWidth(sheet, col, col, w)
		}
	}
	return nil
}

func writeTeamSheets(f *excelize.File, st styles, league *model.League, sched *model.Schedule) error {
	for _, team := range league.Teams {
		sheet := sheetName(team.ID)
		if _, err := f.NewSheet(sheet); err != nil {
			return err
		}
		writeHeader(f, st, sheet, teamHeaders)

		games := append([]*model.Game(nil), sched.GamesForTeam(team.ID)...)
		sortGames(games)
		for i, g := range games {
			row := i + 2
			homeAway := "Home"
			if g.AwayTeamID == team.ID {
				homeAway = "Away"
			}
			f.SetCellValue(sheet, cellRef(1, row), g.Slot.Date.Format("01/02/2006"))
			f.SetCellValue(sheet, cellRef(2, row), g.Slot.Date.Format("Mon"))
			f.SetCellValue(sheet, cellRef(3, row), g.Slot.Start.Format("15:04"))
			f.SetCellValue(sheet, cellRef(4, row), g.Opponent(team.ID))
			f.SetCellValue(sheet, cellRef(5, row), homeAway)
			f.SetCellValue(sheet, cellRef(6, row), g.Slot.FacilityID)
			f.SetCellValue(sheet, cellRef(7, row), g.Slot.Court)
			if st.cell != 0 {
				f.SetCellStyle(sheet, cellRef(1, row), cellRef(len(teamHeaders), row), st.cell)
			}
		}

		for i, w := range []float64{12, 6, 8, 26, 11, 20, 7} {
			col := colLetter(i + 1)
			f.SetColWidth(sheet, col, col, w)
		}
	}
	return nil
}

func writeSummarySheet(f *excelize.File, st styles, league *model.League, report *model.ValidationReport) error {
	sheet := "Summary"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	row := 1
	putRow := func(style int, cells ...interface{}) {
		for i, v := range cells {
			f.SetCellValue(sheet, cellRef(i+1, row), v)
			if style != 0 {
				f.SetCellStyle(sheet, cellRef(i+1, row), cellRef(i+1, row), style)
			}
		}
		row++
	}

	putRow(st.header, "Team", "Games", "Home", "Away", "Doubleheaders")
	for _, team := range league.Teams {
		stats := report.PerTeamStats[team.ID]
		if stats == nil {
			continue
		}
		putRow(st.cell, team.ID, stats.Games, stats.Home, stats.Away, stats.Doubleheaders)
	}
	row++
	putRow(st.cell, "Soft score", report.SoftScore)

	if len(report.HardViolations) > 0 {
		row++
		putRow(st.header, "Violations")
		putRow(st.header, "Rule", "Entities", "Description")
		for _, v := range report.HardViolations {
			putRow(st.cell, v.Rule, strings.Join(v.Entities, ", "), v.Description)
		}
	}
	if len(report.Relaxations) > 0 {
		row++
		putRow(st.header, "Relaxations")
		putRow(st.header, "Game", "Pass", "Rule", "Detail")
		for _, r := range report.Relaxations {
			putRow(st.cell, r.GameID, r.Pass, r.Rule, r.Detail)
		}
	}
	if len(report.Shortfalls) > 0 {
		row++
		putRow(st.header, "Shortfalls")
		putRow(st.header, "Team", "Games", "Target", "Reason")
		for _, s := range report.Shortfalls {
			putRow(st.cell, s.TeamID, s.Games, s.Target, s.Reason)
		}
	}
	if len(report.Annotations) > 0 {
		row++
		putRow(st.header, "Notes")
		for _, a := range report.Annotations {
			putRow(st.cell, a)
		}
	}

	for i, w := range []float64{24, 12, 30, 44, 14} {
		col := colLetter(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}
	return nil
}

func writeHeader(f *excelize.File, st styles, sheet string, headers []string) {
	for i, h := range headers {
		f.SetCellValue(sheet, cellRef(i+1, 1), h)
		if st.header != 0 {
			f.SetCellStyle(sheet, cellRef(i+1, 1), cellRef(i+1, 1), st.header)
		}
	}
	f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

func teamCell(t *model.Team) string {
	if t.CoachName == "" {
		return t.ID
	}
	return fmt.Sprintf("%s (%s)", t.ID, t.CoachName)
}

// weekNumber maps a date to its 1-based season week, counting seven-day
// spans from the season start.
func weekNumber(seasonStart, d time.Time) int {
	days := int(d.Sub(seasonStart).Hours() / 24)
	if days < 0 {
		days = 0
	}
	return days/7 + 1
}

func sortGames(games []*model.Game) {
	sort.Slice(games, func(i, j int) bool {
		a, b := games[i], games[j]
		if !a.Slot.Date.Equal(b.Slot.Date) {
			return a.Slot.Date.Before(b.Slot.Date)
		}
		if !a.Slot.Start.Equal(b.Slot.Start) {
			return a.Slot.Start.Before(b.Slot.Start)
		}
		if a.Slot.FacilityID != b.Slot.FacilityID {
			return a.Slot.FacilityID < b.Slot.FacilityID
		}
		return a.Slot.Court < b.Slot.Court
	})
}

// sheetName trims ids to Excel's 31-character sheet name cap.
func sheetName(id string) string {
	if len(id) > 31 {
		return id[:31]
	}
	return id
}

func cellRef(col, row int) string {
	return fmt.Sprintf("%s%d", colLetter(col), row)
}

func colLetter(col int) string {
	result := ""
	for col > 0 {
		col--
		result = string(rune('A'+col%26)) + result
		col /= 26
	}
	return result
}
