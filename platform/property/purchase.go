package property

import (
	"context"
	"errors"

	"github.com/DedS3t/monopoly-economy/app/models"
	"github.com/DedS3t/monopoly-economy/pkg/apperr"
	"github.com/DedS3t/monopoly-economy/platform/ledger"
	"github.com/DedS3t/monopoly-economy/platform/store"
	uuid "github.com/satori/go.uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// Purchase buys a bank-held property at its list price.
func (s *Service) Purchase(ctx context.Context, playerID string, propertyID int) (models.OwnershipView, error) {
	p, err := s.property(propertyID)
	if err != nil {
		return models.OwnershipView{}, err
	}
	return s.PurchaseAt(ctx, playerID, propertyID, p.Price)
}

// PurchaseAt buys a bank-held property at a negotiated price, which may be zero.
func (s *Service) PurchaseAt(ctx context.Context, playerID string, propertyID int, price decimal.Decimal) (models.OwnershipView, error) {
	var out models.OwnershipView
	fields := log.Fields{"player": playerID, "property": propertyID, "price": price.String()}
	err := s.run(ctx, "purchase", fields, func(tx store.Tx) error {
		if price.IsNegative() {
			return apperr.InvalidTransaction("purchase price must not be negative")
		}
		p, err := s.property(propertyID)
		if err != nil {
			return err
		}
		if !p.Purchasable() {
			return apperr.InvalidPropertyAction("%s cannot be purchased", p.Name)
		}
		buyer, err := ledger.LoadPlayer(ctx, tx, playerID)
		if err != nil {
			return err
		}
		if buyer.Bankrupt {
			return apperr.InvalidTransaction("player %s is bankrupt", buyer.Name)
		}

		existing, err := tx.OwnershipByProperty(ctx, buyer.SessionID, propertyID)
		switch {
		case err == nil:
			return apperr.AlreadyOwned("%s is already owned by player %s", p.Name, existing.PlayerID)
		case !errors.Is(err, store.ErrNotFound):
			return err
		}

		if price.IsPositive() {
			if _, err := s.ledger.PayToBankTx(ctx, tx, buyer, price, "Purchase of "+p.Name); err != nil {
				return err
			}
		}

		o := &models.Ownership{
			ID:          uuid.NewV4().String(),
			SessionID:   buyer.SessionID,
			PropertyID:  p.ID,
			PlayerID:    buyer.ID,
			PurchasedAt: s.now().UTC(),
		}
		if err := tx.InsertOwnership(ctx, o); err != nil {
			return err
		}
		out, err = s.view(ctx, tx, o)
		if err != nil {
			return err
		}
		return s.emit(ctx, tx, o.SessionID, models.PropertyPayload{
			Action:     models.PropertyPurchased,
			Ownerships: []models.OwnershipView{out},
			ToPlayer:   buyer.ID,
			Details:    map[string]interface{}{"price": price},
		})
	})
	return out, err
}

// Mortgage encumbers an unimproved property for half its price.
func (s *Service) Mortgage(ctx context.Context, ownershipID string) (models.OwnershipView, error) {
	var out models.OwnershipView
	err := s.run(ctx, "mortgage", log.Fields{"ownership": ownershipID}, func(tx store.Tx) error {
		o, owner, p, err := s.holder(ctx, tx, ownershipID)
		if err != nil {
			return err
		}
		credit, err := s.MortgageTx(ctx, tx, o, owner, p)
		if err != nil {
			return err
		}
		out, err = s.view(ctx, tx, o)
		if err != nil {
			return err
		}
		return s.emit(ctx, tx, o.SessionID, models.PropertyPayload{
			Action:     models.PropertyMortgaged,
			Ownerships: []models.OwnershipView{out},
			FromPlayer: owner.ID,
			Details:    map[string]interface{}{"mortgage_value": credit},
		})
	})
	return out, err
}

// MortgageTx mortgages o inside an open unit of work and returns the credit.
func (s *Service) MortgageTx(ctx context.Context, tx store.Tx, o *models.Ownership, owner *models.Player, p models.Property) (decimal.Decimal, error) {
	if o.Mortgaged {
		return decimal.Zero, apperr.InvalidPropertyAction("%s is already mortgaged", p.Name)
	}
	if o.HasBuildings() {
		return decimal.Zero, apperr.InvalidPropertyAction("sell the buildings on %s before mortgaging it", p.Name)
	}
	credit := MortgageValue(p)
	if credit.IsPositive() {
		if _, err := s.ledger.PayFromBankTx(ctx, tx, owner, credit, "Mortgage of "+p.Name); err != nil {
			return decimal.Zero, err
		}
	}
	o.Mortgaged = true
	return credit, tx.SaveOwnership(ctx, o)
}

// Redeem lifts a mortgage for 55% of the price.
func (s *Service) Redeem(ctx context.Context, ownershipID string) (models.OwnershipView, error) {
	var out models.OwnershipView
	err := s.run(ctx, "redeem", log.Fields{"ownership": ownershipID}, func(tx store.Tx) error {
		o, owner, p, err := s.holder(ctx, tx, ownershipID)
		if err != nil {
			return err
		}
		if !o.Mortgaged {
			return apperr.InvalidPropertyAction("%s is not mortgaged", p.Name)
		}
		cost := RedeemCost(p)
		if cost.IsPositive() {
			if _, err := s.ledger.PayToBankTx(ctx, tx, owner, cost, "Redemption of "+p.Name); err != nil {
				return err
			}
		}
		o.Mortgaged = false
		if err := tx.SaveOwnership(ctx, o); err != nil {
			return err
		}
		out, err = s.view(ctx, tx, o)
		if err != nil {
			return err
		}
		return s.emit(ctx, tx, o.SessionID, models.PropertyPayload{
			Action:     models.PropertyRedeemed,
			Ownerships: []models.OwnershipView{out},
			FromPlayer: owner.ID,
			Details:    map[string]interface{}{"redemption_cost": cost},
		})
	})
	return out, err
}
