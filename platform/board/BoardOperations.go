package board

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/DedS3t/monopoly-economy/app/models"
	"github.com/DedS3t/monopoly-economy/pkg/apperr"
	"github.com/shopspring/decimal"
)

//go:embed properties.json
var propertiesJSON []byte

// Catalog is the immutable property table shared by every session.
type Catalog struct {
	properties []models.Property
	byID       map[int]models.Property
	byPos      map[int]models.Property
	groups     map[models.ColorGroup][]models.Property
}

// LoadProperties parses the embedded standard board.
func LoadProperties() (*Catalog, error) {
	return Parse(propertiesJSON)
}

func Parse(data []byte) (*Catalog, error) {
	var properties []models.Property
	if err := json.Unmarshal(data, &properties); err != nil {
		return nil, fmt.Errorf("parse properties: %w", err)
	}
	c := &Catalog{
		properties: properties,
		byID:       make(map[int]models.Property, len(properties)),
		byPos:      make(map[int]models.Property, len(properties)),
		groups:     make(map[models.ColorGroup][]models.Property),
	}
	for _, p := range properties {
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("parse properties: duplicate id %d", p.ID)
		}
		c.byID[p.ID] = p
		c.byPos[p.Position] = p
		if p.Type != models.Special {
			c.groups[p.Group] = append(c.groups[p.Group], p)
		}
	}
	return c, nil
}

func (c *Catalog) All() []models.Property {
	out := make([]models.Property, len(c.properties))
	copy(out, c.properties)
	return out
}

func (c *Catalog) GetById(id int) (models.Property, error) {
	p, ok := c.byID[id]
	if !ok {
		return models.Property{}, apperr.NotFound(apperr.EntityProperty, strconv.Itoa(id))
	}
	return p, nil
}

func (c *Catalog) GetByPos(pos int) (models.Property, error) {
	p, ok := c.byPos[pos]
	if !ok {
		return models.Property{}, apperr.NotFound(apperr.EntityProperty, "at position "+strconv.Itoa(pos))
	}
	return p, nil
}

// GroupSize is the number of properties defined in a color group.
func (c *Catalog) GroupSize(group models.ColorGroup) int {
	return len(c.groups[group])
}

var houseCosts = map[models.ColorGroup]int64{
	models.Brown:     50,
	models.LightBlue: 50,
	models.Pink:      100,
	models.Orange:    100,
	models.Red:       150,
	models.Yellow:    150,
	models.Green:     200,
	models.DarkBlue:  200,
}

// HouseCost is the price of one house, and of one hotel, in a color group.
func HouseCost(group models.ColorGroup) decimal.Decimal {
	if cost, ok := houseCosts[group]; ok {
		return decimal.NewFromInt(cost)
	}
	return decimal.NewFromInt(100)
}
