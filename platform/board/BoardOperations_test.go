package board

import (
	"errors"
	"testing"

	"github.com/DedS3t/monopoly-economy/app/models"
	"github.com/DedS3t/monopoly-economy/pkg/apperr"
	"github.com/shopspring/decimal"
)

func TestLoadProperties(t *testing.T) {
	c, err := LoadProperties()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	groups := map[models.ColorGroup]int{
		models.Brown:     2,
		models.LightBlue: 3,
		models.Pink:      3,
		models.Orange:    3,
		models.Red:       3,
		models.Yellow:    3,
		models.Green:     3,
		models.DarkBlue:  2,
		models.Stations:  4,
		models.Utilities: 2,
	}
	for group, want := range groups {
		if got := c.GroupSize(group); got != want {
			t.Errorf("group %s size = %d, want %d", group, got, want)
		}
	}
	if got := c.GroupSize(models.NoGroup); got != 0 {
		t.Errorf("special properties counted as a group: %d", got)
	}

	boardwalk, err := c.GetById(36)
	if err != nil {
		t.Fatalf("get boardwalk: %v", err)
	}
	if boardwalk.Name != "Boardwalk" || !boardwalk.Price.Equal(decimal.NewFromInt(400)) {
		t.Errorf("boardwalk = %+v", boardwalk)
	}

	byPos, err := c.GetByPos(39)
	if err != nil {
		t.Fatalf("get by pos: %v", err)
	}
	if byPos.ID != boardwalk.ID {
		t.Errorf("position 39 = %q, want Boardwalk", byPos.Name)
	}
}

func TestGetByIdUnknown(t *testing.T) {
	c, err := LoadProperties()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	_, err = c.GetById(999)
	if !errors.Is(err, apperr.ErrPropertyNotFound) {
		t.Fatalf("err = %v, want property not found", err)
	}
}

func TestParseRejectsDuplicateIds(t *testing.T) {
	_, err := Parse([]byte(`[{"id":1,"name":"a"},{"id":1,"name":"b"}]`))
	if err == nil {
		t.Fatal("expected duplicate id error")
	}
}

func TestHouseCost(t *testing.T) {
	tests := []struct {
		group models.ColorGroup
		want  int64
	}{
		{models.Brown, 50},
		{models.LightBlue, 50},
		{models.Pink, 100},
		{models.Orange, 100},
		{models.Red, 150},
		{models.Yellow, 150},
		{models.Green, 200},
		{models.DarkBlue, 200},
		{models.Stations, 100},
	}
	for _, tt := range tests {
		if got := HouseCost(tt.group); !got.Equal(decimal.NewFromInt(tt.want)) {
			t.Errorf("HouseCost(%s) = %s, want %d", tt.group, got, tt.want)
		}
	}
}
