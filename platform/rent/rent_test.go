package rent

import (
	"testing"

	"github.com/DedS3t/monopoly-economy/app/models"
	"github.com/DedS3t/monopoly-economy/platform/board"
	"github.com/shopspring/decimal"
)

const (
	mediterranean = 2
	baltic        = 4
	reading       = 6
	oriental      = 7
	vermont       = 9
	connecticut   = 10
	electric      = 13
	pennsylvania  = 16
	bAndO         = 24
	waterWorks    = 27
	shortLine     = 33
	goSquare      = 1
)

func testEngine(t *testing.T) *Engine {
	t.Helper()
	c, err := board.LoadProperties()
	if err != nil {
		t.Fatalf("load board: %v", err)
	}
	return New(c)
}

func own(id string, property int) *models.Ownership {
	return &models.Ownership{ID: id, PlayerID: "p1", PropertyID: property}
}

func wantRent(t *testing.T, got decimal.Decimal, want int64) {
	t.Helper()
	if !got.Equal(decimal.NewFromInt(want)) {
		t.Errorf("rent = %s, want %d", got, want)
	}
}

func TestStreetRent(t *testing.T) {
	e := testEngine(t)

	tests := []struct {
		name     string
		setup    func(o, sibling *models.Ownership) []*models.Ownership
		wantRent int64
	}{
		{
			name:     "single street",
			setup:    func(o, _ *models.Ownership) []*models.Ownership { return []*models.Ownership{o} },
			wantRent: 4,
		},
		{
			name:     "monopoly without houses doubles",
			setup:    func(o, s *models.Ownership) []*models.Ownership { return []*models.Ownership{o, s} },
			wantRent: 8,
		},
		{
			name: "mortgaged sibling voids the monopoly bonus",
			setup: func(o, s *models.Ownership) []*models.Ownership {
				s.Mortgaged = true
				return []*models.Ownership{o, s}
			},
			wantRent: 4,
		},
		{
			name: "one house",
			setup: func(o, s *models.Ownership) []*models.Ownership {
				o.Houses = 1
				return []*models.Ownership{o, s}
			},
			wantRent: 20,
		},
		{
			name: "two houses",
			setup: func(o, s *models.Ownership) []*models.Ownership {
				o.Houses = 2
				return []*models.Ownership{o, s}
			},
			wantRent: 60,
		},
		{
			name: "three houses",
			setup: func(o, s *models.Ownership) []*models.Ownership {
				o.Houses = 3
				return []*models.Ownership{o, s}
			},
			wantRent: 180,
		},
		{
			name: "four houses",
			setup: func(o, s *models.Ownership) []*models.Ownership {
				o.Houses = 4
				return []*models.Ownership{o, s}
			},
			wantRent: 320,
		},
		{
			name: "hotel overrides the house count",
			setup: func(o, s *models.Ownership) []*models.Ownership {
				o.HasHotel = true
				o.Houses = 3
				return []*models.Ownership{o, s}
			},
			wantRent: 20,
		},
		{
			name: "mortgaged street pays nothing even with houses recorded",
			setup: func(o, s *models.Ownership) []*models.Ownership {
				o.Mortgaged = true
				o.Houses = 2
				return []*models.Ownership{o, s}
			},
			wantRent: 0,
		},
		{
			name: "sibling held by another player",
			setup: func(o, s *models.Ownership) []*models.Ownership {
				s.PlayerID = "p2"
				return []*models.Ownership{o, s}
			},
			wantRent: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := own("o1", baltic)
			sibling := own("o2", mediterranean)
			holdings := tt.setup(o, sibling)
			wantRent(t, e.Due(o, holdings, 7), tt.wantRent)
		})
	}
}

func TestUnownedRentIsZero(t *testing.T) {
	e := testEngine(t)
	wantRent(t, e.Due(nil, nil, 7), 0)
}

func TestRailroadRent(t *testing.T) {
	e := testEngine(t)
	roads := []int{reading, pennsylvania, bAndO, shortLine}
	want := []int64{25, 50, 100, 200}

	for n := 1; n <= len(roads); n++ {
		var holdings []*models.Ownership
		for i := 0; i < n; i++ {
			holdings = append(holdings, own(string(rune('a'+i)), roads[i]))
		}
		wantRent(t, e.Due(holdings[0], holdings, 7), want[n-1])
	}
}

func TestMortgagedRailroadStillCounts(t *testing.T) {
	e := testEngine(t)
	first := own("a", reading)
	second := own("b", shortLine)
	second.Mortgaged = true
	wantRent(t, e.Due(first, []*models.Ownership{first, second}, 7), 50)
}

func TestUtilityRent(t *testing.T) {
	e := testEngine(t)
	electricCo := own("a", electric)
	water := own("b", waterWorks)

	wantRent(t, e.Due(electricCo, []*models.Ownership{electricCo}, 7), 28)
	wantRent(t, e.Due(electricCo, []*models.Ownership{electricCo, water}, 7), 70)
}

func TestSpecialRent(t *testing.T) {
	e := testEngine(t)
	o := own("a", goSquare)
	wantRent(t, e.Due(o, []*models.Ownership{o}, 7), 0)
}

func TestHasMonopoly(t *testing.T) {
	e := testEngine(t)
	a, b, c := own("a", oriental), own("b", vermont), own("c", connecticut)
	c.Mortgaged = true

	if e.HasMonopoly("p1", models.LightBlue, []*models.Ownership{a, b}) {
		t.Error("two of three light blues reported as monopoly")
	}
	if !e.HasMonopoly("p1", models.LightBlue, []*models.Ownership{a, b, c}) {
		t.Error("monopoly with a mortgaged member not reported")
	}
	if e.HasMonopoly("p2", models.LightBlue, []*models.Ownership{a, b, c}) {
		t.Error("monopoly credited to the wrong player")
	}
}

func TestBalancedBuilding(t *testing.T) {
	e := testEngine(t)
	a, b, c := own("a", oriental), own("b", vermont), own("c", connecticut)
	holdings := []*models.Ownership{a, b, c}

	a.Houses = 1
	if e.CanBuildHouse(a, holdings) {
		t.Error("built ahead of siblings")
	}
	if !e.CanBuildHouse(b, holdings) {
		t.Error("cannot catch up a lagging sibling")
	}
	if !e.CanSellHouse(a, holdings) {
		t.Error("cannot sell from the tallest property")
	}
	if e.CanSellHouse(b, holdings) {
		t.Error("sold from a property below its siblings")
	}

	a.Houses, b.Houses, c.Houses = 0, 4, 4
	a.HasHotel = true
	if !e.CanSellHouse(a, holdings) {
		t.Error("hotel should rank above four houses")
	}
	if e.CanSellHouse(b, holdings) {
		t.Error("sold a house next to a hotel")
	}
}
