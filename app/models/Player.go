package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Color string

const (
	ColorRed    Color = "RED"
	ColorBlue   Color = "BLUE"
	ColorGreen  Color = "GREEN"
	ColorYellow Color = "YELLOW"
	ColorPurple Color = "PURPLE"
	ColorOrange Color = "ORANGE"
	ColorPink   Color = "PINK"
	ColorBlack  Color = "BLACK"
)

var Colors = []Color{ColorRed, ColorBlue, ColorGreen, ColorYellow, ColorPurple, ColorOrange, ColorPink, ColorBlack}

func (c Color) Valid() bool {
	for _, known := range Colors {
		if c == known {
			return true
		}
	}
	return false
}

// BankID stands in for the bank wherever a counterparty id is expected.
const (
	BankID   = "BANK"
	BankName = "Bank"
)

type Player struct {
	tableName struct{} `pg:"players,alias:player"`

	ID        string          `pg:"id,pk" json:"id"`
	SessionID string          `pg:"session_id" json:"session_id"`
	Name      string          `pg:"name" json:"name"`
	Color     Color           `pg:"color" json:"color"`
	Balance   decimal.Decimal `pg:"balance,type:'numeric(12,2)',use_zero" json:"balance"`
	IsHost    bool            `pg:"is_host,use_zero" json:"is_host"`
	Bankrupt  bool            `pg:"bankrupt,use_zero" json:"bankrupt"`
	Version   int             `pg:"version,use_zero" json:"-"`
	JoinedAt  time.Time       `pg:"joined_at" json:"joined_at"`
}

type PlayerSnapshot struct {
	ID              string          `json:"id"`
	SessionID       string          `json:"session_id"`
	Name            string          `json:"name"`
	Color           Color           `json:"color"`
	Balance         decimal.Decimal `json:"balance"`
	IsHost          bool            `json:"is_host"`
	Bankrupt        bool            `json:"bankrupt"`
	PropertiesCount int             `json:"properties_count"`
}

func (p *Player) Snapshot(propertiesCount int) PlayerSnapshot {
	return PlayerSnapshot{
		ID:              p.ID,
		SessionID:       p.SessionID,
		Name:            p.Name,
		Color:           p.Color,
		Balance:         p.Balance,
		IsHost:          p.IsHost,
		Bankrupt:        p.Bankrupt,
		PropertiesCount: propertiesCount,
	}
}
