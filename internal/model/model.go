package model

import (
	"fmt"
	"sort"
	"time"
)

const dateFormat = "2006-01-02"

// DateKey formats a date for use as a map key.
func DateKey(t time.Time) string {
	return t.Format(dateFormat)
}

// Division is a competitive category (age/gender/level).
type Division string

const (
	DivisionK1Rec          Division = "ES K-1 REC"
	DivisionG23Rec         Division = "ES 2-3 REC"
	DivisionESBoysComp     Division = "ES BOYS COMP"
	DivisionESGirlsComp    Division = "ES GIRLS COMP"
	DivisionMSBoysJV       Division = "MS BOYS JV"
	DivisionMSGirlsJV      Division = "MS GIRLS JV"
	DivisionHSBoysVarsity  Division = "HS BOYS VARSITY"
	DivisionHSGirlsVarsity Division = "HS GIRLS VARSITY"
)

// DivisionTraits carries the per-division scheduling attributes.
type DivisionTraits struct {
	Slug          string // short code used in game ids
	Officials     int
	NeedShortRims bool
	Rec           bool // recreational divisions ignore tier when ranking matchups
}

var divisionTraits = map[Division]DivisionTraits{
	DivisionK1Rec:          {Slug: "K1REC", Officials: 1, NeedShortRims: true, Rec: true},
	DivisionG23Rec:         {Slug: "G23REC", Officials: 2, Rec: true},
	DivisionESBoysComp:     {Slug: "ESBC", Officials: 2},
	DivisionESGirlsComp:    {Slug: "ESGC", Officials: 2},
	DivisionMSBoysJV:       {Slug: "MSBJV", Officials: 2},
	DivisionMSGirlsJV:      {Slug: "MSGJV", Officials: 2},
	DivisionHSBoysVarsity:  {Slug: "HSBV", Officials: 2},
	DivisionHSGirlsVarsity: {Slug: "HSGV", Officials: 2},
}

// Divisions returns all known divisions in canonical order.
func Divisions() []Division {
	return []Division{
		DivisionK1Rec,
		DivisionG23Rec,
		DivisionESBoysComp,
		DivisionESGirlsComp,
		DivisionMSBoysJV,
		DivisionMSGirlsJV,
		DivisionHSBoysVarsity,
		DivisionHSGirlsVarsity,
	}
}

// Traits returns the division's scheduling attributes.
func (d Division) Traits() DivisionTraits {
	return divisionTraits[d]
}

// Valid reports whether d is a known division.
func (d Division) Valid() bool {
	_, ok := divisionTraits[d]
	return ok
}

// GameStatus records how a game ended up on the schedule.
type GameStatus string

const (
	GameScheduled GameStatus = "scheduled"
	GameRelaxed   GameStatus = "relaxed"
)

// Team is one school's entry in one division.
type Team struct {
	ID             string
	SchoolID       string
	Division       Division
	CoachID        string
	CoachName      string
	Tier           int // 1-4, lower is stronger
	Cluster        string
	HomeFacilityID string
	Rivals         map[string]bool
	DoNotPlay      map[string]bool
}

// School groups teams across divisions and carries shared attributes.
type School struct {
	ID            string
	Cluster       string
	Tier          int
	BlackoutDates map[string]bool // keyed by DateKey
}

// BlackedOut reports whether the school cannot play on the given date.
func (s *School) BlackedOut(date time.Time) bool {
	return s.BlackoutDates[DateKey(date)]
}

// Facility is a venue with one or more courts.
type Facility struct {
	ID                string
	CourtCount        int
	HasShortRims      bool
	OwnedBySchool     string
	AvailableWeekdays map[time.Weekday]bool // empty means every weekday
	AvailableDates    map[string]bool       // explicit extra dates, keyed by DateKey
	BlackoutDates     map[string]bool
}

// AvailableOn reports whether the facility can host games on the given date.
// Holidays and the Sunday rule come from the caller because they are
// league-wide, not per-facility.
func (f *Facility) AvailableOn(date time.Time, holidays map[string]bool, playOnSunday bool) bool {
	key := DateKey(date)
	if f.BlackoutDates[key] {
		return false
	}
	if holidays[key] {
		return false
	}
	if date.Weekday() == time.Sunday && !playOnSunday {
		return false
	}
	if f.AvailableDates[key] {
		return true
	}
	if len(f.AvailableWeekdays) == 0 {
		return len(f.AvailableDates) == 0
	}
	return f.AvailableWeekdays[date.Weekday()]
}

// EligibleFor reports whether the facility can host the given division.
func (f *Facility) EligibleFor(d Division) bool {
	if d.Traits().NeedShortRims {
		return f.HasShortRims
	}
	return true
}

// TimeSlot is one playable game window on one court.
type TimeSlot struct {
	FacilityID string
	Court      int // 1-based
	Date       time.Time
	Start      time.Time
	End        time.Time
}

// Key returns a unique identity for the slot.
func (s TimeSlot) Key() string {
	return fmt.Sprintf("%s|%d|%s", s.FacilityID, s.Court, s.Start.Format("2006-01-02T15:04"))
}

// Overlaps reports whether two slots conflict: same facility, same court,
// same date, intersecting [start, end) intervals.
func (s TimeSlot) Overlaps(o TimeSlot) bool {
	if s.FacilityID != o.FacilityID || s.Court != o.Court {
		return false
	}
	if !s.Date.Equal(o.Date) {
		return false
	}
	return s.Start.Before(o.End) && o.Start.Before(s.End)
}

// SameTime reports whether two slots occupy intersecting wall-clock
// intervals on the same date, regardless of venue.
func (s TimeSlot) SameTime(o TimeSlot) bool {
	if !s.Date.Equal(o.Date) {
		return false
	}
	return s.Start.Before(o.End) && o.Start.Before(s.End)
}

// TimeBlock is a run of consecutive slots on one court at one facility on
// one date. It is the allocation unit for a school matchup.
type TimeBlock struct {
	FacilityID string
	Court      int
	Date       time.Time
	Slots      []TimeSlot
}

// Capacity returns how many games fit in the block.
func (b *TimeBlock) Capacity() int {
	return len(b.Slots)
}

// Game is a scheduled contest between two teams of the same division.
type Game struct {
	ID             string
	HomeTeamID     string
	AwayTeamID     string
	Division       Division
	Slot           TimeSlot
	IsDoubleheader bool
	OfficialsCount int
	Status         GameStatus
}

// Opponent returns the other team, or "" when teamID does not play.
func (g *Game) Opponent(teamID string) string {
	switch teamID {
	case g.HomeTeamID:
		return g.AwayTeamID
	case g.AwayTeamID:
		return g.HomeTeamID
	}
	return ""
}

// PairKey returns the unordered team-pair identity, used for rematch counting.
func PairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

// League is the loaded scheduling problem: schools, teams and facilities,
// indexed for lookup. Build one with NewLeague; it is read-only afterwards.
type League struct {
	Schools    []*School
	Teams      []*Team
	Facilities []*Facility

	schoolByID   map[string]*School
	teamByID     map[string]*Team
	facilityByID map[string]*Facility
	bySchool     map[string][]*Team
	byDivision   map[Division][]*Team
}

// NewLeague indexes the given entities and normalizes relations: rivals and
// do-not-play sets are closed under symmetry, and all slices are put in
// canonical order so downstream iteration is deterministic.
func NewLeague(schools []*School, teams []*Team, facilities []*Facility) *League {
	l := &League{
		Schools:      schools,
		Teams:        teams,
		Facilities:   facilities,
		schoolByID:   make(map[string]*School, len(schools)),
		teamByID:     make(map[string]*Team, len(teams)),
		facilityByID: make(map[string]*Facility, len(facilities)),
		bySchool:     make(map[string][]*Team),
		byDivision:   make(map[Division][]*Team),
	}

	sort.Slice(l.Schools, func(i, j int) bool { return l.Schools[i].ID < l.Schools[j].ID })
	sort.Slice(l.Teams, func(i, j int) bool { return l.Teams[i].ID < l.Teams[j].ID })
	sort.Slice(l.Facilities, func(i, j int) bool { return l.Facilities[i].ID < l.Facilities[j].ID })

	for _, s := range l.Schools {
		l.schoolByID[s.ID] = s
	}
	for _, f := range l.Facilities {
		l.facilityByID[f.ID] = f
	}
	for _, t := range l.Teams {
		if t.Rivals == nil {
			t.Rivals = make(map[string]bool)
		}
		if t.DoNotPlay == nil {
			t.DoNotPlay = make(map[string]bool)
		}
		l.teamByID[t.ID] = t
		l.bySchool[t.SchoolID] = append(l.bySchool[t.SchoolID], t)
		l.byDivision[t.Division] = append(l.byDivision[t.Division], t)
	}

	// Close rivals and do-not-play under symmetry.
	for _, t := range l.Teams {
		for other := range t.Rivals {
			if o := l.teamByID[other]; o != nil {
				o.Rivals[t.ID] = true
			}
		}
		for other := range t.DoNotPlay {
			if o := l.teamByID[other]; o != nil {
				o.DoNotPlay[t.ID] = true
			}
		}
	}
	return l
}

// School returns the school with the given id, or nil.
func (l *League) School(id string) *School { return l.schoolByID[id] }

// Team returns the team with the given id, or nil.
func (l *League) Team(id string) *Team { return l.teamByID[id] }

// Facility returns the facility with the given id, or nil.
func (l *League) Facility(id string) *Facility { return l.facilityByID[id] }

// TeamsBySchool returns the school's teams in id order.
func (l *League) TeamsBySchool(schoolID string) []*Team { return l.bySchool[schoolID] }

// TeamsInDivision returns the division's teams in id order.
func (l *League) TeamsInDivision(d Division) []*Team { return l.byDivision[d] }

// Validate checks structural input invariants. It returns the first problem
// found; data-driven infeasibility is not its concern.
func (l *League) Validate() error {
	if len(l.Teams) == 0 {
		return fmt.Errorf("league has no teams")
	}
	if len(l.Facilities) == 0 {
		return fmt.Errorf("league has no facilities")
	}

	seenTeam := make(map[string]bool, len(l.Teams))
	seenSlot := make(map[string]string, len(l.Teams))
	for _, t := range l.Teams {
		if t.ID == "" {
			return fmt.Errorf("team with empty id (school %q)", t.SchoolID)
		}
		if seenTeam[t.ID] {
			return fmt.Errorf("duplicate team id %q", t.ID)
		}
		seenTeam[t.ID] = true

		if !t.Division.Valid() {
			return fmt.Errorf("team %q: unknown division %q", t.ID, t.Division)
		}
		if l.schoolByID[t.SchoolID] == nil {
			return fmt.Errorf("team %q: unknown school %q", t.ID, t.SchoolID)
		}
		if t.Tier < 1 || t.Tier > 4 {
			return fmt.Errorf("team %q: tier %d out of range 1-4", t.ID, t.Tier)
		}
		if t.HomeFacilityID != "" && l.facilityByID[t.HomeFacilityID] == nil {
			return fmt.Errorf("team %q: unknown home facility %q", t.ID, t.HomeFacilityID)
		}

		slot := t.SchoolID + "|" + string(t.Division)
		if prev, ok := seenSlot[slot]; ok {
			return fmt.Errorf("school %q fields two teams in %s (%q and %q)", t.SchoolID, t.Division, prev, t.ID)
		}
		seenSlot[slot] = t.ID

		if t.Rivals[t.ID] {
			return fmt.Errorf("team %q lists itself as a rival", t.ID)
		}
		if t.DoNotPlay[t.ID] {
			return fmt.Errorf("team %q lists itself in do_not_play", t.ID)
		}
	}

	seenFac := make(map[string]bool, len(l.Facilities))
	for _, f := range l.Facilities {
		if f.ID == "" {
			return fmt.Errorf("facility with empty name")
		}
		if seenFac[f.ID] {
			return fmt.Errorf("duplicate facility %q", f.ID)
		}
		seenFac[f.ID] = true
		if f.CourtCount < 1 {
			return fmt.Errorf("facility %q: court count must be >= 1", f.ID)
		}
	}
	return nil
}
