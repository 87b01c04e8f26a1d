package models

import "github.com/shopspring/decimal"

type TransferDto struct {
	FromPlayerID string          `json:"from_player_id"`
	ToPlayerID   string          `json:"to_player_id"`
	Amount       decimal.Decimal `json:"amount"`
	Description  string          `json:"description"`
}

type BankPaymentDto struct {
	PlayerID    string          `json:"player_id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

// PurchaseDto buys from the bank. A nil Price means the list price.
type PurchaseDto struct {
	PlayerID string           `json:"player_id"`
	Price    *decimal.Decimal `json:"custom_price,omitempty"`
}

type PayRentDto struct {
	TenantPlayerID string `json:"tenant_player_id"`
	DiceRoll       int    `json:"dice_roll"`
}

type TransferPropertyDto struct {
	NewOwnerID string           `json:"new_owner_id"`
	Price      *decimal.Decimal `json:"price,omitempty"`
}

// MultipleTransferDto: a positive compensation is paid by the new owner, a
// negative one by the current owner.
type MultipleTransferDto struct {
	OwnershipIDs []string         `json:"ownership_ids"`
	NewOwnerID   string           `json:"new_owner_id"`
	Compensation *decimal.Decimal `json:"compensation_amount,omitempty"`
}

// BankruptcyDto: an empty creditor means the debt is owed to the bank.
type BankruptcyDto struct {
	BankruptPlayerID string `json:"bankrupt_player_id"`
	CreditorPlayerID string `json:"creditor_player_id,omitempty"`
}

type BankruptcyCheck struct {
	PlayerID         string          `json:"player_id"`
	IsBankrupt       bool            `json:"is_bankrupt"`
	LiquidationValue decimal.Decimal `json:"liquidation_value"`
	Debt             decimal.Decimal `json:"debt_amount"`
	Shortfall        decimal.Decimal `json:"shortfall"`
}
