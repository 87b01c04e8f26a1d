package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	PlayerToPlayer TransactionType = "PLAYER_TO_PLAYER"
	PlayerToBank   TransactionType = "PLAYER_TO_BANK"
	BankToPlayer   TransactionType = "BANK_TO_PLAYER"
)

// Transaction is an immutable ledger entry. FromID/ToID hold BankID when the
// bank is the counterparty.
type Transaction struct {
	tableName struct{} `pg:"transactions,alias:transaction"`

	ID          string          `pg:"id,pk" json:"id"`
	Seq         int64           `pg:"seq,type:bigserial" json:"-"`
	SessionID   string          `pg:"session_id" json:"session_id"`
	Type        TransactionType `pg:"type" json:"type"`
	Amount      decimal.Decimal `pg:"amount,type:'numeric(12,2)',use_zero" json:"amount"`
	FromID      string          `pg:"from_id" json:"from_id"`
	FromName    string          `pg:"from_name" json:"from_player_name"`
	ToID        string          `pg:"to_id" json:"to_id"`
	ToName      string          `pg:"to_name" json:"to_player_name"`
	Description string          `pg:"description" json:"description"`
	Timestamp   time.Time       `pg:"timestamp" json:"timestamp"`
}
