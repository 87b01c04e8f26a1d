package models

import "github.com/shopspring/decimal"

type PropertyType string

const (
	Street   PropertyType = "STREET"
	Railroad PropertyType = "RAILROAD"
	Utility  PropertyType = "UTILITY"
	Special  PropertyType = "SPECIAL"
)

type ColorGroup string

const (
	Brown     ColorGroup = "BROWN"
	LightBlue ColorGroup = "LIGHT_BLUE"
	Pink      ColorGroup = "PINK"
	Orange    ColorGroup = "ORANGE"
	Red       ColorGroup = "RED"
	Yellow    ColorGroup = "YELLOW"
	Green     ColorGroup = "GREEN"
	DarkBlue  ColorGroup = "DARK_BLUE"
	Stations  ColorGroup = "RAILROAD"
	Utilities ColorGroup = "UTILITY"
	NoGroup   ColorGroup = "NONE"
)

// Property is static board data. It never changes after the catalog loads.
type Property struct {
	tableName struct{} `pg:"properties,alias:property"`

	ID       int             `pg:"id,pk" json:"id"`
	Name     string          `pg:"name" json:"name"`
	Type     PropertyType    `pg:"type" json:"type"`
	Group    ColorGroup      `pg:"color_group" json:"group"`
	Position int             `pg:"position,use_zero" json:"position"`
	Price    decimal.Decimal `pg:"price,type:'numeric(12,2)',use_zero" json:"price"`
	Rent     decimal.Decimal `pg:"rent,type:'numeric(12,2)',use_zero" json:"rent"`
}

// Purchasable reports whether the property can ever have an owner.
func (p Property) Purchasable() bool {
	return p.Type != Special
}
