package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const MaxHouses = 4

// Ownership links one property of a session to its owner.
// A property without an Ownership row belongs to the bank.
type Ownership struct {
	tableName struct{} `pg:"ownerships,alias:ownership"`

	ID          string    `pg:"id,pk" json:"id"`
	SessionID   string    `pg:"session_id,unique:session_property" json:"session_id"`
	PropertyID  int       `pg:"property_id,unique:session_property" json:"property_id"`
	PlayerID    string    `pg:"player_id" json:"player_id"`
	Houses      int       `pg:"houses,use_zero" json:"houses"`
	HasHotel    bool      `pg:"has_hotel,use_zero" json:"has_hotel"`
	Mortgaged   bool      `pg:"mortgaged,use_zero" json:"mortgaged"`
	Version     int       `pg:"version,use_zero" json:"-"`
	PurchasedAt time.Time `pg:"purchased_at" json:"purchased_at"`
}

// Level orders building states; a hotel sits one step above four houses.
func (o *Ownership) Level() int {
	if o.HasHotel {
		return MaxHouses + 1
	}
	return o.Houses
}

func (o *Ownership) HasBuildings() bool {
	return o.Houses > 0 || o.HasHotel
}

// OwnershipView is an ownership joined with its property and derived rent.
type OwnershipView struct {
	ID          string          `json:"id"`
	SessionID   string          `json:"session_id"`
	PlayerID    string          `json:"player_id"`
	PropertyID  int             `json:"property_id"`
	Name        string          `json:"property_name"`
	Price       decimal.Decimal `json:"property_price"`
	Type        PropertyType    `json:"property_type"`
	Group       ColorGroup      `json:"color_group"`
	Houses      int             `json:"houses"`
	HasHotel    bool            `json:"has_hotel"`
	Mortgaged   bool            `json:"mortgaged"`
	CurrentRent decimal.Decimal `json:"current_rent"`
	PurchasedAt time.Time       `json:"purchased_at"`
}

func NewOwnershipView(o *Ownership, p Property, rent decimal.Decimal) OwnershipView {
	return OwnershipView{
		ID:          o.ID,
		SessionID:   o.SessionID,
		PlayerID:    o.PlayerID,
		PropertyID:  p.ID,
		Name:        p.Name,
		Price:       p.Price,
		Type:        p.Type,
		Group:       p.Group,
		Houses:      o.Houses,
		HasHotel:    o.HasHotel,
		Mortgaged:   o.Mortgaged,
		CurrentRent: rent,
		PurchasedAt: o.PurchasedAt,
	}
}
