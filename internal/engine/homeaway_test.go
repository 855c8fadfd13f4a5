package engine

import (
	"math/rand"
	"testing"

	"github.com/ncsaa/hoopsched/internal/model"
)

func TestChooseHomeOwnerFrequency(t *testing.T) {
	owner := &model.Team{ID: "oak-ridge-msbjv", SchoolID: "oak-ridge", Division: model.DivisionMSBoysJV, Tier: 2, HomeFacilityID: "gym"}
	guest := &model.Team{ID: "maple-msbjv", SchoolID: "maple", Division: model.DivisionMSBoysJV, Tier: 2}
	s := model.NewSchedule()
	rng := rand.New(rand.NewSource(42))

	hosts := 0
	for i := 0; i < 1000; i++ {
		home, away := chooseHome(s, owner, guest, "gym", 8, rng)
		if home == owner {
			hosts++
		}
		if home == away {
			t.Fatal("home and away are the same team")
		}
	}
	if hosts < 850 || hosts > 950 {
		t.Errorf("owner hosted %d of 1000, want about 900", hosts)
	}
}

func TestChooseHomeSharedFloor(t *testing.T) {
	// Both programs call the gym home; the stronger tier gets the 60/40
	// edge.
	strong := &model.Team{ID: "ash-hsbv", SchoolID: "ash", Division: model.DivisionHSBoysVarsity, Tier: 1, HomeFacilityID: "gym"}
	weak := &model.Team{ID: "birch-hsbv", SchoolID: "birch", Division: model.DivisionHSBoysVarsity, Tier: 3, HomeFacilityID: "gym"}
	s := model.NewSchedule()
	rng := rand.New(rand.NewSource(42))

	hosts := 0
	for i := 0; i < 1000; i++ {
		home, _ := chooseHome(s, strong, weak, "gym", 8, rng)
		if home == strong {
			hosts++
		}
	}
	if hosts < 520 || hosts > 680 {
		t.Errorf("stronger tier hosted %d of 1000, want about 600", hosts)
	}
}

func TestChooseHomeDeficit(t *testing.T) {
	// Neutral floor: the team further below half its target hosts, no coin
	// involved.
	a := &model.Team{ID: "ash-msbjv", SchoolID: "ash", Division: model.DivisionMSBoysJV, Tier: 2}
	b := &model.Team{ID: "birch-msbjv", SchoolID: "birch", Division: model.DivisionMSBoysJV, Tier: 2}
	c := &model.Team{ID: "cedar-msbjv", SchoolID: "cedar", Division: model.DivisionMSBoysJV, Tier: 2}

	s := model.NewSchedule()
	addGame(s, "MSBJV-001", b, c, courtSlot("neutral", 1, date(2026, 1, 5), 17))
	addGame(s, "MSBJV-002", b, c, courtSlot("neutral", 1, date(2026, 1, 12), 17))

	rng := rand.New(rand.NewSource(1))
	if home, _ := chooseHome(s, a, b, "neutral", 8, rng); home != a {
		t.Errorf("home = %s, want %s with the larger home deficit", home.ID, a.ID)
	}
	if home, _ := chooseHome(s, b, a, "neutral", 8, rng); home != a {
		t.Errorf("home = %s, want %s regardless of argument order", home.ID, a.ID)
	}
}
