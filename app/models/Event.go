package models

import "time"

type EventType string

const (
	BalanceUpdated        EventType = "BALANCE_UPDATE"
	PropertyPurchased     EventType = "PROPERTY_PURCHASED"
	PropertyMortgaged     EventType = "PROPERTY_MORTGAGED"
	PropertyRedeemed      EventType = "PROPERTY_REDEEMED"
	HouseBuilt            EventType = "HOUSE_BUILT"
	HouseSold             EventType = "HOUSE_SOLD"
	HotelBuilt            EventType = "HOTEL_BUILT"
	HotelSold             EventType = "HOTEL_SOLD"
	PropertyTransferred   EventType = "PROPERTY_TRANSFERRED"
	PropertiesTransferred EventType = "MULTIPLE_PROPERTIES_TRANSFERRED"
	AssetsLiquidated      EventType = "ASSETS_LIQUIDATED"
	PlayerBankrupt        EventType = "PLAYER_BANKRUPT"
	SessionCreated        EventType = "SESSION_CREATED"
	PlayerJoined          EventType = "PLAYER_JOINED"
	SessionStarted        EventType = "SESSION_STARTED"
	SessionEnded          EventType = "SESSION_ENDED"
	SessionDeleted        EventType = "SESSION_DELETED"
)

// Event is a committed state change on a session channel. Seq is assigned by
// the store at commit and increases per session.
type Event struct {
	Type        EventType   `json:"type"`
	SessionCode string      `json:"session_code"`
	Seq         uint64      `json:"seq"`
	Payload     interface{} `json:"data"`
	Timestamp   time.Time   `json:"timestamp"`
}

type BalancePayload struct {
	Kind        TransactionType  `json:"kind"`
	Players     []PlayerSnapshot `json:"players"`
	Transaction *Transaction     `json:"transaction"`
}

type PropertyPayload struct {
	Action     EventType              `json:"action"`
	Ownerships []OwnershipView        `json:"ownerships"`
	FromPlayer string                 `json:"from_player,omitempty"`
	ToPlayer   string                 `json:"to_player,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
}

type BankruptcyPayload struct {
	BankruptPlayer   string `json:"bankrupt_player"`
	Creditor         string `json:"creditor"`
	PropertiesMoved  int    `json:"properties_transferred"`
	ReleasedProperty []int  `json:"released_properties,omitempty"`
}

type SessionPayload struct {
	Session SessionView `json:"session"`
}
