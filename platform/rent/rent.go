// Package rent derives the rent owed on a property from current ownership
// state. Nothing here is stored; every call recomputes from its inputs.
package rent

import (
	"github.com/DedS3t/monopoly-economy/app/models"
	"github.com/shopspring/decimal"
)

// Catalog is the slice of the board the engine needs.
type Catalog interface {
	GetById(id int) (models.Property, error)
	GroupSize(group models.ColorGroup) int
}

var houseMultipliers = map[int]int64{1: 5, 2: 15, 3: 45, 4: 80}

var railroadRents = map[int]int64{1: 25, 2: 50, 3: 100, 4: 200}

const (
	hotelMultiplier    = 5
	monopolyMultiplier = 2
	oneUtility         = 4
	bothUtilities      = 10
)

type Engine struct {
	board Catalog
}

func New(board Catalog) *Engine {
	return &Engine{board: board}
}

// Due returns the rent for o. holdings are the ownerships of o's owner in the
// same session; o itself may or may not be among them.
func (e *Engine) Due(o *models.Ownership, holdings []*models.Ownership, dice int) decimal.Decimal {
	if o == nil || o.Mortgaged {
		return decimal.Zero
	}
	p, err := e.board.GetById(o.PropertyID)
	if err != nil {
		return decimal.Zero
	}
	held := e.held(o, holdings)

	switch p.Type {
	case models.Street:
		switch {
		case o.HasHotel:
			return p.Rent.Mul(decimal.NewFromInt(hotelMultiplier))
		case o.Houses > 0:
			m, ok := houseMultipliers[o.Houses]
			if !ok {
				m = houseMultipliers[models.MaxHouses]
			}
			return p.Rent.Mul(decimal.NewFromInt(m))
		case e.unmortgagedMonopoly(p.Group, held):
			return p.Rent.Mul(decimal.NewFromInt(monopolyMultiplier))
		default:
			return p.Rent
		}
	case models.Railroad:
		return decimal.NewFromInt(railroadRents[e.countType(models.Railroad, held)])
	case models.Utility:
		multiplier := int64(oneUtility)
		if e.countType(models.Utility, held) == 2 {
			multiplier = bothUtilities
		}
		return decimal.NewFromInt(int64(dice) * multiplier)
	default:
		return decimal.Zero
	}
}

// HasMonopoly reports whether playerID holds every property of group,
// whatever their mortgage state.
func (e *Engine) HasMonopoly(playerID string, group models.ColorGroup, holdings []*models.Ownership) bool {
	size := e.board.GroupSize(group)
	if size == 0 {
		return false
	}
	n := 0
	for _, h := range e.inGroup(group, holdings) {
		if h.PlayerID == playerID {
			n++
		}
	}
	return n == size
}

// CanBuildHouse holds when o is at the lowest building level of its group.
func (e *Engine) CanBuildHouse(o *models.Ownership, holdings []*models.Ownership) bool {
	p, err := e.board.GetById(o.PropertyID)
	if err != nil {
		return false
	}
	level := o.Level()
	for _, sibling := range e.inGroup(p.Group, e.held(o, holdings)) {
		if sibling.Level() < level {
			return false
		}
	}
	return true
}

// CanSellHouse holds when o is at the highest building level of its group.
func (e *Engine) CanSellHouse(o *models.Ownership, holdings []*models.Ownership) bool {
	p, err := e.board.GetById(o.PropertyID)
	if err != nil {
		return false
	}
	level := o.Level()
	for _, sibling := range e.inGroup(p.Group, e.held(o, holdings)) {
		if sibling.Level() > level {
			return false
		}
	}
	return true
}

func (e *Engine) unmortgagedMonopoly(group models.ColorGroup, held []*models.Ownership) bool {
	if len(held) == 0 || !e.HasMonopoly(held[0].PlayerID, group, held) {
		return false
	}
	for _, sibling := range e.inGroup(group, held) {
		if sibling.Mortgaged {
			return false
		}
	}
	return true
}

// held narrows holdings to o's owner and substitutes o for its stored copy.
func (e *Engine) held(o *models.Ownership, holdings []*models.Ownership) []*models.Ownership {
	out := make([]*models.Ownership, 0, len(holdings)+1)
	out = append(out, o)
	for _, h := range holdings {
		if h.ID == o.ID || h.PlayerID != o.PlayerID {
			continue
		}
		out = append(out, h)
	}
	return out
}

func (e *Engine) inGroup(group models.ColorGroup, holdings []*models.Ownership) []*models.Ownership {
	var out []*models.Ownership
	for _, h := range holdings {
		p, err := e.board.GetById(h.PropertyID)
		if err != nil || p.Type == models.Special || p.Group != group {
			continue
		}
		out = append(out, h)
	}
	return out
}

func (e *Engine) countType(t models.PropertyType, holdings []*models.Ownership) int {
	n := 0
	for _, h := range holdings {
		if p, err := e.board.GetById(h.PropertyID); err == nil && p.Type == t {
			n++
		}
	}
	return n
}
