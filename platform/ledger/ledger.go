// Package ledger owns player balances. Every balance change is paired with an
// immutable transaction entry and a BALANCE_UPDATE event in the same unit of
// work.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/DedS3t/monopoly-economy/app/models"
	"github.com/DedS3t/monopoly-economy/pkg/apperr"
	"github.com/DedS3t/monopoly-economy/platform/metrics"
	"github.com/DedS3t/monopoly-economy/platform/store"
	uuid "github.com/satori/go.uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type Ledger struct {
	store   store.Store
	retries int
	now     func() time.Time
}

func New(s store.Store, retries int) *Ledger {
	return &Ledger{store: s, retries: retries, now: time.Now}
}

// Transfer moves amount from one player to another in the same session.
func (l *Ledger) Transfer(ctx context.Context, fromID, toID string, amount decimal.Decimal, description string) (*models.Transaction, error) {
	var out *models.Transaction
	err := store.Run(ctx, l.store, l.retries, func(tx store.Tx) error {
		from, err := LoadPlayer(ctx, tx, fromID)
		if err != nil {
			return err
		}
		to, err := LoadPlayer(ctx, tx, toID)
		if err != nil {
			return err
		}
		out, err = l.TransferTx(ctx, tx, from, to, amount, description)
		return err
	})
	l.observe("transfer", err, log.Fields{"from": fromID, "to": toID, "amount": amount.String()})
	return out, err
}

func (l *Ledger) PayToBank(ctx context.Context, playerID string, amount decimal.Decimal, description string) (*models.Transaction, error) {
	var out *models.Transaction
	err := store.Run(ctx, l.store, l.retries, func(tx store.Tx) error {
		p, err := LoadPlayer(ctx, tx, playerID)
		if err != nil {
			return err
		}
		out, err = l.PayToBankTx(ctx, tx, p, amount, description)
		return err
	})
	l.observe("pay_to_bank", err, log.Fields{"player": playerID, "amount": amount.String()})
	return out, err
}

func (l *Ledger) PayFromBank(ctx context.Context, playerID string, amount decimal.Decimal, description string) (*models.Transaction, error) {
	var out *models.Transaction
	err := store.Run(ctx, l.store, l.retries, func(tx store.Tx) error {
		p, err := LoadPlayer(ctx, tx, playerID)
		if err != nil {
			return err
		}
		out, err = l.PayFromBankTx(ctx, tx, p, amount, description)
		return err
	})
	l.observe("pay_from_bank", err, log.Fields{"player": playerID, "amount": amount.String()})
	return out, err
}

// History lists a session's ledger entries, newest first.
func (l *Ledger) History(ctx context.Context, sessionCode string) ([]*models.Transaction, error) {
	var out []*models.Transaction
	err := store.Run(ctx, l.store, l.retries, func(tx store.Tx) error {
		s, err := LoadSessionByCode(ctx, tx, sessionCode)
		if err != nil {
			return err
		}
		out, err = tx.Transactions(ctx, s.ID)
		return err
	})
	return out, err
}

// Player returns a player snapshot with its current property count.
func (l *Ledger) Player(ctx context.Context, playerID string) (models.PlayerSnapshot, error) {
	var out models.PlayerSnapshot
	err := store.Run(ctx, l.store, l.retries, func(tx store.Tx) error {
		p, err := LoadPlayer(ctx, tx, playerID)
		if err != nil {
			return err
		}
		out, err = Snapshot(ctx, tx, p)
		return err
	})
	return out, err
}

// TransferTx applies a player to player payment inside an open unit of work.
// from and to are updated in place.
func (l *Ledger) TransferTx(ctx context.Context, tx store.Tx, from, to *models.Player, amount decimal.Decimal, description string) (*models.Transaction, error) {
	if err := checkAmount(amount); err != nil {
		return nil, err
	}
	if from.ID == to.ID {
		return nil, apperr.InvalidTransaction("player %s cannot pay themselves", from.ID)
	}
	if from.SessionID != to.SessionID {
		return nil, apperr.InvalidTransaction("players %s and %s are not in the same session", from.ID, to.ID)
	}
	if err := active(from, to); err != nil {
		return nil, err
	}
	if from.Balance.LessThan(amount) {
		return nil, apperr.InsufficientFunds("player %s has %s, needs %s", from.Name, from.Balance.StringFixed(2), amount.StringFixed(2))
	}

	from.Balance = from.Balance.Sub(amount)
	to.Balance = to.Balance.Add(amount)
	if err := tx.SavePlayer(ctx, from); err != nil {
		return nil, err
	}
	if err := tx.SavePlayer(ctx, to); err != nil {
		return nil, err
	}

	t := l.entry(from.SessionID, models.PlayerToPlayer, amount, description)
	t.FromID, t.FromName = from.ID, from.Name
	t.ToID, t.ToName = to.ID, to.Name
	return t, l.record(ctx, tx, t, from, to)
}

func (l *Ledger) PayToBankTx(ctx context.Context, tx store.Tx, p *models.Player, amount decimal.Decimal, description string) (*models.Transaction, error) {
	if err := checkAmount(amount); err != nil {
		return nil, err
	}
	if err := active(p); err != nil {
		return nil, err
	}
	if p.Balance.LessThan(amount) {
		return nil, apperr.InsufficientFunds("player %s has %s, needs %s", p.Name, p.Balance.StringFixed(2), amount.StringFixed(2))
	}

	p.Balance = p.Balance.Sub(amount)
	if err := tx.SavePlayer(ctx, p); err != nil {
		return nil, err
	}

	t := l.entry(p.SessionID, models.PlayerToBank, amount, description)
	t.FromID, t.FromName = p.ID, p.Name
	t.ToID, t.ToName = models.BankID, models.BankName
	return t, l.record(ctx, tx, t, p)
}

func (l *Ledger) PayFromBankTx(ctx context.Context, tx store.Tx, p *models.Player, amount decimal.Decimal, description string) (*models.Transaction, error) {
	if err := checkAmount(amount); err != nil {
		return nil, err
	}
	if err := active(p); err != nil {
		return nil, err
	}

	p.Balance = p.Balance.Add(amount)
	if err := tx.SavePlayer(ctx, p); err != nil {
		return nil, err
	}

	t := l.entry(p.SessionID, models.BankToPlayer, amount, description)
	t.FromID, t.FromName = models.BankID, models.BankName
	t.ToID, t.ToName = p.ID, p.Name
	return t, l.record(ctx, tx, t, p)
}

func (l *Ledger) entry(sessionID string, kind models.TransactionType, amount decimal.Decimal, description string) *models.Transaction {
	return &models.Transaction{
		ID:          uuid.NewV4().String(),
		SessionID:   sessionID,
		Type:        kind,
		Amount:      amount,
		Description: description,
		Timestamp:   l.now().UTC(),
	}
}

// record appends t and stages the balance event for the touched players.
func (l *Ledger) record(ctx context.Context, tx store.Tx, t *models.Transaction, players ...*models.Player) error {
	if err := tx.AppendTransaction(ctx, t); err != nil {
		return err
	}
	s, err := tx.Session(ctx, t.SessionID)
	if err != nil {
		return apperr.NotFound(apperr.EntitySession, t.SessionID)
	}
	payload := models.BalancePayload{Kind: t.Type, Transaction: t}
	for _, p := range players {
		snap, err := Snapshot(ctx, tx, p)
		if err != nil {
			return err
		}
		payload.Players = append(payload.Players, snap)
	}
	tx.Emit(models.Event{
		Type:        models.BalanceUpdated,
		SessionCode: s.Code,
		Payload:     payload,
		Timestamp:   t.Timestamp,
	})
	return nil
}

func (l *Ledger) observe(op string, err error, fields log.Fields) {
	metrics.Operation(op, err)
	entry := log.WithFields(fields).WithField("op", op)
	switch {
	case err == nil:
		entry.Debug("ledger operation committed")
	case apperr.KindOf(err) == apperr.KindInternal:
		entry.WithError(err).Error("ledger operation failed")
	default:
		entry.WithError(err).Info("ledger operation rejected")
	}
}

func checkAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperr.InvalidTransaction("amount must be positive, got %s", amount.String())
	}
	return nil
}

func active(players ...*models.Player) error {
	for _, p := range players {
		if p.Bankrupt {
			return apperr.InvalidTransaction("player %s is bankrupt", p.Name)
		}
	}
	return nil
}

// Snapshot renders p with its current property count.
func Snapshot(ctx context.Context, tx store.Tx, p *models.Player) (models.PlayerSnapshot, error) {
	owned, err := tx.OwnershipsByPlayer(ctx, p.ID)
	if err != nil {
		return models.PlayerSnapshot{}, err
	}
	return p.Snapshot(len(owned)), nil
}

// LoadPlayer reads a player and reports a typed NotFound when it is missing.
func LoadPlayer(ctx context.Context, tx store.Tx, id string) (*models.Player, error) {
	p, err := tx.Player(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound(apperr.EntityPlayer, id)
	}
	return p, err
}

func LoadSessionByCode(ctx context.Context, tx store.Tx, code string) (*models.Session, error) {
	s, err := tx.SessionByCode(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound(apperr.EntitySession, code)
	}
	return s, err
}
