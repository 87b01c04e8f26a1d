// Package bankruptcy values a player's assets and settles bankruptcies.
package bankruptcy

import (
	"context"
	"time"

	"github.com/DedS3t/monopoly-economy/app/models"
	"github.com/DedS3t/monopoly-economy/pkg/apperr"
	"github.com/DedS3t/monopoly-economy/platform/ledger"
	"github.com/DedS3t/monopoly-economy/platform/metrics"
	"github.com/DedS3t/monopoly-economy/platform/property"
	"github.com/DedS3t/monopoly-economy/platform/rent"
	"github.com/DedS3t/monopoly-economy/platform/store"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

var (
	half            = decimal.RequireFromString("0.5")
	mortgageResidue = decimal.RequireFromString("0.05")
)

type Resolver struct {
	store   store.Store
	ledger  *ledger.Ledger
	props   *property.Service
	board   rent.Catalog
	retries int
	now     func() time.Time
}

func New(s store.Store, l *ledger.Ledger, props *property.Service, board rent.Catalog, retries int) *Resolver {
	return &Resolver{store: s, ledger: l, props: props, board: board, retries: retries, now: time.Now}
}

// holding is an ownership joined with its property.
type holding struct {
	o *models.Ownership
	p models.Property
}

func (r *Resolver) holdings(ctx context.Context, tx store.Tx, playerID string) ([]holding, error) {
	list, err := tx.OwnershipsByPlayer(ctx, playerID)
	if err != nil {
		return nil, err
	}
	out := make([]holding, 0, len(list))
	for _, o := range list {
		p, err := r.board.GetById(o.PropertyID)
		if err != nil {
			return nil, err
		}
		out = append(out, holding{o, p})
	}
	return out, nil
}

// liquidationValue is the cash p could raise by selling every building and
// mortgaging every unmortgaged property.
func liquidationValue(p *models.Player, hs []holding) decimal.Decimal {
	total := p.Balance
	for _, h := range hs {
		total = total.Add(property.BuildingValue(h.o, h.p).Mul(half))
		if !h.o.Mortgaged {
			total = total.Add(property.MortgageValue(h.p))
		}
	}
	return total
}

func netWorth(p *models.Player, hs []holding) decimal.Decimal {
	total := p.Balance
	for _, h := range hs {
		if h.o.Mortgaged {
			total = total.Add(h.p.Price.Mul(mortgageResidue))
		} else {
			total = total.Add(h.p.Price)
		}
		total = total.Add(property.BuildingValue(h.o, h.p))
	}
	return total
}

func (r *Resolver) valuate(ctx context.Context, playerID string, fn func(*models.Player, []holding) decimal.Decimal) (decimal.Decimal, error) {
	value := decimal.Zero
	err := store.Run(ctx, r.store, r.retries, func(tx store.Tx) error {
		p, err := ledger.LoadPlayer(ctx, tx, playerID)
		if err != nil {
			return err
		}
		hs, err := r.holdings(ctx, tx, playerID)
		if err != nil {
			return err
		}
		value = fn(p, hs)
		return nil
	})
	return value, err
}

func (r *Resolver) LiquidationValue(ctx context.Context, playerID string) (decimal.Decimal, error) {
	return r.valuate(ctx, playerID, liquidationValue)
}

func (r *Resolver) NetWorth(ctx context.Context, playerID string) (decimal.Decimal, error) {
	return r.valuate(ctx, playerID, netWorth)
}

// IsBankrupt reports whether the player cannot raise debt even after
// liquidating everything.
func (r *Resolver) IsBankrupt(ctx context.Context, playerID string, debt decimal.Decimal) (bool, error) {
	check, err := r.Check(ctx, playerID, debt)
	return check.IsBankrupt, err
}

func (r *Resolver) Check(ctx context.Context, playerID string, debt decimal.Decimal) (models.BankruptcyCheck, error) {
	if debt.IsNegative() {
		return models.BankruptcyCheck{}, apperr.InvalidTransaction("debt must not be negative")
	}
	value, err := r.LiquidationValue(ctx, playerID)
	if err != nil {
		return models.BankruptcyCheck{}, err
	}
	shortfall := debt.Sub(value)
	if shortfall.IsNegative() {
		shortfall = decimal.Zero
	}
	return models.BankruptcyCheck{
		PlayerID:         playerID,
		IsBankrupt:       value.LessThan(debt),
		LiquidationValue: value,
		Debt:             debt,
		Shortfall:        shortfall,
	}, nil
}

// LiquidateAssets sells every building and mortgages every unmortgaged
// property of the player. Ownerships stay with the player. It returns the
// total credited.
func (r *Resolver) LiquidateAssets(ctx context.Context, playerID string) (decimal.Decimal, error) {
	total := decimal.Zero
	err := r.run(ctx, "liquidate_assets", log.Fields{"player": playerID}, func(tx store.Tx) error {
		total = decimal.Zero
		p, err := ledger.LoadPlayer(ctx, tx, playerID)
		if err != nil {
			return err
		}
		if p.Bankrupt {
			return apperr.InvalidTransaction("player %s is bankrupt", p.Name)
		}
		hs, err := r.holdings(ctx, tx, playerID)
		if err != nil {
			return err
		}

		views := make([]models.OwnershipView, 0, len(hs))
		for _, h := range hs {
			credit, err := r.props.LiquidateBuildingsTx(ctx, tx, h.o, p, h.p)
			if err != nil {
				return err
			}
			total = total.Add(credit)
			if !h.o.Mortgaged {
				credit, err = r.props.MortgageTx(ctx, tx, h.o, p, h.p)
				if err != nil {
					return err
				}
				total = total.Add(credit)
			}
			views = append(views, models.NewOwnershipView(h.o, h.p, decimal.Zero))
		}
		return r.emit(ctx, tx, p.SessionID, models.AssetsLiquidated, models.PropertyPayload{
			Action:     models.AssetsLiquidated,
			Ownerships: views,
			FromPlayer: p.ID,
			Details:    map[string]interface{}{"total_credited": total},
		})
	})
	return total, err
}

// DeclareBankruptcy settles a bankrupt player. With a creditor every property
// and the remaining cash go to the creditor; without one the properties
// return to the bank and the cash is paid to the bank. Buildings are always
// sold first, crediting the bankrupt player.
func (r *Resolver) DeclareBankruptcy(ctx context.Context, bankruptID, creditorID string) (models.BankruptcyPayload, error) {
	var out models.BankruptcyPayload
	fields := log.Fields{"player": bankruptID, "creditor": creditorID}
	err := r.run(ctx, "declare_bankruptcy", fields, func(tx store.Tx) error {
		out = models.BankruptcyPayload{BankruptPlayer: bankruptID, Creditor: models.BankID}
		debtor, err := ledger.LoadPlayer(ctx, tx, bankruptID)
		if err != nil {
			return err
		}
		if debtor.Bankrupt {
			return apperr.InvalidTransaction("player %s is already bankrupt", debtor.Name)
		}

		var creditor *models.Player
		if creditorID != "" && creditorID != models.BankID {
			if creditor, err = ledger.LoadPlayer(ctx, tx, creditorID); err != nil {
				return err
			}
			if creditor.ID == debtor.ID {
				return apperr.InvalidTransaction("player %s cannot be their own creditor", debtor.Name)
			}
			if creditor.SessionID != debtor.SessionID {
				return apperr.InvalidTransaction("players %s and %s are not in the same session", debtor.ID, creditor.ID)
			}
			if creditor.Bankrupt {
				return apperr.InvalidTransaction("creditor %s is bankrupt", creditor.Name)
			}
			out.Creditor = creditor.ID
		}

		hs, err := r.holdings(ctx, tx, debtor.ID)
		if err != nil {
			return err
		}
		for _, h := range hs {
			if _, err := r.props.LiquidateBuildingsTx(ctx, tx, h.o, debtor, h.p); err != nil {
				return err
			}
		}

		for _, h := range hs {
			if creditor != nil {
				if _, err := r.props.ReassignTx(ctx, tx, h.o, creditor, h.p); err != nil {
					return err
				}
				out.PropertiesMoved++
				continue
			}
			if err := tx.DeleteOwnership(ctx, h.o); err != nil {
				return err
			}
			out.ReleasedProperty = append(out.ReleasedProperty, h.p.ID)
		}

		if debtor.Balance.IsPositive() {
			if creditor != nil {
				_, err = r.ledger.TransferTx(ctx, tx, debtor, creditor, debtor.Balance, "Bankruptcy settlement")
			} else {
				_, err = r.ledger.PayToBankTx(ctx, tx, debtor, debtor.Balance, "Bankruptcy settlement")
			}
			if err != nil {
				return err
			}
		}

		debtor.Balance = decimal.Zero
		debtor.Bankrupt = true
		if err := tx.SavePlayer(ctx, debtor); err != nil {
			return err
		}
		return r.emit(ctx, tx, debtor.SessionID, models.PlayerBankrupt, out)
	})
	return out, err
}

func (r *Resolver) emit(ctx context.Context, tx store.Tx, sessionID string, kind models.EventType, payload interface{}) error {
	sess, err := tx.Session(ctx, sessionID)
	if err != nil {
		return apperr.NotFound(apperr.EntitySession, sessionID)
	}
	tx.Emit(models.Event{
		Type:        kind,
		SessionCode: sess.Code,
		Payload:     payload,
		Timestamp:   r.now().UTC(),
	})
	return nil
}

func (r *Resolver) run(ctx context.Context, op string, fields log.Fields, fn func(tx store.Tx) error) error {
	err := store.Run(ctx, r.store, r.retries, fn)
	metrics.Operation(op, err)
	entry := log.WithFields(fields).WithField("op", op)
	switch {
	case err == nil:
		entry.Info("bankruptcy operation committed")
	case apperr.KindOf(err) == apperr.KindInternal:
		entry.WithError(err).Error("bankruptcy operation failed")
	default:
		entry.WithError(err).Info("bankruptcy operation rejected")
	}
	return err
}
