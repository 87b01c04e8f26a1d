package property

import (
	"context"

	"github.com/DedS3t/monopoly-economy/app/models"
	"github.com/DedS3t/monopoly-economy/pkg/apperr"
	"github.com/DedS3t/monopoly-economy/platform/ledger"
	"github.com/DedS3t/monopoly-economy/platform/store"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// Transfer hands one ownership to another player of the same session. A
// positive price is paid by the new owner to the current owner.
func (s *Service) Transfer(ctx context.Context, ownershipID, newOwnerID string, price decimal.Decimal) (models.OwnershipView, error) {
	var out models.OwnershipView
	fields := log.Fields{"ownership": ownershipID, "to": newOwnerID, "price": price.String()}
	err := s.run(ctx, "transfer_property", fields, func(tx store.Tx) error {
		if price.IsNegative() {
			return apperr.InvalidTransaction("transfer price must not be negative")
		}
		o, owner, p, err := s.holder(ctx, tx, ownershipID)
		if err != nil {
			return err
		}
		buyer, err := s.counterparty(ctx, tx, owner, newOwnerID)
		if err != nil {
			return err
		}

		liquidated, err := s.LiquidateBuildingsTx(ctx, tx, o, owner, p)
		if err != nil {
			return err
		}
		if price.IsPositive() {
			if _, err := s.ledger.TransferTx(ctx, tx, buyer, owner, price, "Purchase of "+p.Name); err != nil {
				return err
			}
		}
		taxed, err := s.ReassignTx(ctx, tx, o, buyer, p)
		if err != nil {
			return err
		}

		out, err = s.view(ctx, tx, o)
		if err != nil {
			return err
		}
		return s.emit(ctx, tx, o.SessionID, models.PropertyPayload{
			Action:     models.PropertyTransferred,
			Ownerships: []models.OwnershipView{out},
			FromPlayer: owner.ID,
			ToPlayer:   buyer.ID,
			Details: map[string]interface{}{
				"price":                price,
				"buildings_liquidated": liquidated,
				"mortgage_tax_paid":    taxed,
			},
		})
	})
	return out, err
}

// TransferMultiple moves several ownerships of one player to another as a
// single deal. A positive compensation is paid by the new owner, a negative
// one by the current owner; an unaffordable compensation aborts the deal.
func (s *Service) TransferMultiple(ctx context.Context, ownershipIDs []string, newOwnerID string, compensation decimal.Decimal) ([]models.OwnershipView, error) {
	var out []models.OwnershipView
	fields := log.Fields{"ownerships": len(ownershipIDs), "to": newOwnerID, "compensation": compensation.String()}
	err := s.run(ctx, "transfer_properties", fields, func(tx store.Tx) error {
		if len(ownershipIDs) == 0 {
			return apperr.InvalidPropertyAction("no properties selected for transfer")
		}

		type item struct {
			o *models.Ownership
			p models.Property
		}
		var (
			items []item
			owner *models.Player
			seen  = make(map[string]bool, len(ownershipIDs))
		)
		for _, id := range ownershipIDs {
			if seen[id] {
				return apperr.InvalidPropertyAction("ownership %s listed twice", id)
			}
			seen[id] = true
			o, err := loadOwnership(ctx, tx, id)
			if err != nil {
				return err
			}
			if owner == nil {
				if owner, err = ledger.LoadPlayer(ctx, tx, o.PlayerID); err != nil {
					return err
				}
			} else if o.PlayerID != owner.ID {
				return apperr.InvalidPropertyAction("all properties must belong to the same player")
			}
			p, err := s.property(o.PropertyID)
			if err != nil {
				return err
			}
			items = append(items, item{o, p})
		}

		buyer, err := s.counterparty(ctx, tx, owner, newOwnerID)
		if err != nil {
			return err
		}

		liquidated := decimal.Zero
		for _, it := range items {
			credit, err := s.LiquidateBuildingsTx(ctx, tx, it.o, owner, it.p)
			if err != nil {
				return err
			}
			liquidated = liquidated.Add(credit)
		}

		switch {
		case compensation.IsPositive():
			_, err = s.ledger.TransferTx(ctx, tx, buyer, owner, compensation, "Compensation for property deal")
		case compensation.IsNegative():
			_, err = s.ledger.TransferTx(ctx, tx, owner, buyer, compensation.Neg(), "Compensation for property deal")
		}
		if err != nil {
			return err
		}

		taxed := 0
		for _, it := range items {
			paid, err := s.ReassignTx(ctx, tx, it.o, buyer, it.p)
			if err != nil {
				return err
			}
			if paid {
				taxed++
			}
		}

		list := make([]*models.Ownership, 0, len(items))
		for _, it := range items {
			list = append(list, it.o)
		}
		out, err = s.views(ctx, tx, list)
		if err != nil {
			return err
		}
		return s.emit(ctx, tx, owner.SessionID, models.PropertyPayload{
			Action:     models.PropertiesTransferred,
			Ownerships: out,
			FromPlayer: owner.ID,
			ToPlayer:   buyer.ID,
			Details: map[string]interface{}{
				"compensation":         compensation,
				"buildings_liquidated": liquidated,
				"mortgage_taxes_paid":  taxed,
			},
		})
	})
	return out, err
}

// counterparty loads the receiving player of a property deal.
func (s *Service) counterparty(ctx context.Context, tx store.Tx, owner *models.Player, newOwnerID string) (*models.Player, error) {
	buyer, err := ledger.LoadPlayer(ctx, tx, newOwnerID)
	if err != nil {
		return nil, err
	}
	if buyer.ID == owner.ID {
		return nil, apperr.InvalidTransaction("player %s already owns these properties", owner.Name)
	}
	if buyer.SessionID != owner.SessionID {
		return nil, apperr.InvalidTransaction("players %s and %s are not in the same session", owner.ID, buyer.ID)
	}
	if buyer.Bankrupt {
		return nil, apperr.InvalidTransaction("player %s is bankrupt", buyer.Name)
	}
	return buyer, nil
}

// ReassignTx gives o to newOwner. A mortgaged property charges the new owner
// a 10% assumption tax when affordable; otherwise it moves untaxed and stays
// mortgaged. It reports whether the tax was paid.
func (s *Service) ReassignTx(ctx context.Context, tx store.Tx, o *models.Ownership, newOwner *models.Player, p models.Property) (bool, error) {
	taxed := false
	if o.Mortgaged {
		tax := p.Price.Mul(assumptionTax)
		if tax.IsPositive() && !newOwner.Balance.LessThan(tax) {
			if _, err := s.ledger.PayToBankTx(ctx, tx, newOwner, tax, "Mortgage assumption tax on "+p.Name); err != nil {
				return false, err
			}
			taxed = true
		}
	}
	o.PlayerID = newOwner.ID
	return taxed, tx.SaveOwnership(ctx, o)
}
