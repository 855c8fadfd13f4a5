package engine

import (
	"sort"
	"time"

	"github.com/ncsaa/hoopsched/internal/config"
	"github.com/ncsaa/hoopsched/internal/model"
)

// GenerateSlots builds every playable (facility, court, date, time) tuple
// for the season. Unavailable, blacked-out, holiday and (by default) Sunday
// dates are skipped; each day's window is partitioned into consecutive
// game-duration segments. Output is sorted by (date, facility, court, start).
func GenerateSlots(cfg *config.Config, league *model.League) []model.TimeSlot {
	holidays := cfg.Season.HolidaySet()
	duration := time.Duration(cfg.Season.GameDurationMinutes) * time.Minute

	var slots []model.TimeSlot
	d := cfg.Season.StartDate.Time
	for !d.After(cfg.Season.EndDate.Time) {
		window := windowForDay(d, &cfg.Season)
		starts := partitionWindow(d, window, duration)
		if len(starts) == 0 {
			d = d.AddDate(0, 0, 1)
			continue
		}
		for _, f := range league.Facilities {
			if !f.AvailableOn(d, holidays, cfg.Season.PlayOnSunday) {
				continue
			}
			for court := 1; court <= f.CourtCount; court++ {
				for _, start := range starts {
					slots = append(slots, model.TimeSlot{
						FacilityID: f.ID,
						Court:      court,
						Date:       d,
						Start:      start,
						End:        start.Add(duration),
					})
				}
			}
		}
		d = d.AddDate(0, 0, 1)
	}

	sort.Slice(slots, func(i, j int) bool {
		a, b := slots[i], slots[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.FacilityID != b.FacilityID {
			return a.FacilityID < b.FacilityID
		}
		if a.Court != b.Court {
			return a.Court < b.Court
		}
		return a.Start.Before(b.Start)
	})

	return slots
}

// windowForDay selects the playing window: Saturdays and Sundays use the
// Saturday window, weekdays the weeknight window.
func windowForDay(d time.Time, season *config.Season) config.Window {
	switch d.Weekday() {
	case time.Saturday, time.Sunday:
		return season.SaturdayWindow
	default:
		return season.WeeknightWindow
	}
}

// partitionWindow cuts a window into consecutive game-duration start times
// on the given date. A trailing remainder shorter than one game is dropped.
func partitionWindow(d time.Time, w config.Window, duration time.Duration) []time.Time {
	var starts []time.Time
	day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	start := day.Add(time.Duration(w.Start.Minutes()) * time.Minute)
	end := day.Add(time.Duration(w.End.Minutes()) * time.Minute)
	for !start.Add(duration).After(end) {
		starts = append(starts, start)
		start = start.Add(duration)
	}
	return starts
}

// BuildBlocks groups slots that share (facility, court, date) and have
// consecutive start times into TimeBlocks, the allocation unit for school
// matchups. Blocks come back sorted by (date, facility, court, first start).
func BuildBlocks(slots []model.TimeSlot, duration time.Duration) []model.TimeBlock {
	type courtKey struct {
		facility string
		court    int
		date     string
	}
	grouped := make(map[courtKey][]model.TimeSlot)
	var order []courtKey
	for _, s := range slots {
		k := courtKey{s.FacilityID, s.Court, model.DateKey(s.Date)}
		if _, seen := grouped[k]; !seen {
			order = append(order, k)
		}
		grouped[k] = append(grouped[k], s)
	}

	var blocks []model.TimeBlock
	for _, k := range order {
		run := grouped[k]
		sort.Slice(run, func(i, j int) bool { return run[i].Start.Before(run[j].Start) })

		current := model.TimeBlock{
			FacilityID: run[0].FacilityID,
			Court:      run[0].Court,
			Date:       run[0].Date,
			Slots:      []model.TimeSlot{run[0]},
		}
		for _, s := range run[1:] {
			last := current.Slots[len(current.Slots)-1]
			if s.Start.Equal(last.Start.Add(duration)) {
				current.Slots = append(current.Slots, s)
				continue
			}
			blocks = append(blocks, current)
			current = model.TimeBlock{
				FacilityID: s.FacilityID,
				Court:      s.Court,
				Date:       s.Date,
				Slots:      []model.TimeSlot{s},
			}
		}
		blocks = append(blocks, current)
	}

	sort.Slice(blocks, func(i, j int) bool {
		a, b := blocks[i], blocks[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.FacilityID != b.FacilityID {
			return a.FacilityID < b.FacilityID
		}
		if a.Court != b.Court {
			return a.Court < b.Court
		}
		return a.Slots[0].Start.Before(b.Slots[0].Start)
	})

	return blocks
}

// DivisionSlots prefilters the slot pool per division so a division only
// ever sees facilities eligible for it. The short-rim division in
// particular must never scan the full pool.
func DivisionSlots(slots []model.TimeSlot, league *model.League) map[model.Division][]model.TimeSlot {
	out := make(map[model.Division][]model.TimeSlot)
	for _, d := range model.Divisions() {
		if len(league.TeamsInDivision(d)) == 0 {
			continue
		}
		var filtered []model.TimeSlot
		for _, s := range slots {
			f := league.Facility(s.FacilityID)
			if f != nil && f.EligibleFor(d) {
				filtered = append(filtered, s)
			}
		}
		out[d] = filtered
	}
	return out
}
