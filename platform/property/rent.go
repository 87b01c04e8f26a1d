package property

import (
	"context"
	"errors"

	"github.com/DedS3t/monopoly-economy/app/models"
	"github.com/DedS3t/monopoly-economy/pkg/apperr"
	"github.com/DedS3t/monopoly-economy/platform/ledger"
	"github.com/DedS3t/monopoly-economy/platform/store"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const maxDice = 12

func checkDice(dice int) error {
	if dice < 0 || dice > maxDice {
		return apperr.InvalidTransaction("dice value must be between 0 and %d, got %d", maxDice, dice)
	}
	return nil
}

// CalculateRent returns the rent a visitor to propertyID owes in the given
// session. Bank-held and mortgaged properties earn nothing.
func (s *Service) CalculateRent(ctx context.Context, sessionCode string, propertyID, dice int) (decimal.Decimal, error) {
	if err := checkDice(dice); err != nil {
		return decimal.Zero, err
	}
	if _, err := s.property(propertyID); err != nil {
		return decimal.Zero, err
	}
	due := decimal.Zero
	err := store.Run(ctx, s.store, s.retries, func(tx store.Tx) error {
		sess, err := ledger.LoadSessionByCode(ctx, tx, sessionCode)
		if err != nil {
			return err
		}
		due, err = s.rentTx(ctx, tx, sess.ID, propertyID, dice)
		return err
	})
	return due, err
}

// rentTx computes rent from the ownership state visible to tx.
func (s *Service) rentTx(ctx context.Context, tx store.Tx, sessionID string, propertyID, dice int) (decimal.Decimal, error) {
	o, err := tx.OwnershipByProperty(ctx, sessionID, propertyID)
	if errors.Is(err, store.ErrNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	holdings, err := tx.OwnershipsByPlayer(ctx, o.PlayerID)
	if err != nil {
		return decimal.Zero, err
	}
	return s.rent.Due(o, holdings, dice), nil
}

// PayRent charges tenant the current rent on propertyID and pays its owner.
func (s *Service) PayRent(ctx context.Context, propertyID int, tenantID string, dice int) (*models.Transaction, error) {
	var out *models.Transaction
	fields := log.Fields{"property": propertyID, "tenant": tenantID, "dice": dice}
	err := s.run(ctx, "pay_rent", fields, func(tx store.Tx) error {
		if err := checkDice(dice); err != nil {
			return err
		}
		p, err := s.property(propertyID)
		if err != nil {
			return err
		}
		tenant, err := ledger.LoadPlayer(ctx, tx, tenantID)
		if err != nil {
			return err
		}
		o, err := tx.OwnershipByProperty(ctx, tenant.SessionID, propertyID)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.InvalidTransaction("%s is not owned, no rent is due", p.Name)
		}
		if err != nil {
			return err
		}
		if o.PlayerID == tenant.ID {
			return apperr.InvalidTransaction("player %s owns %s", tenant.Name, p.Name)
		}
		if o.Mortgaged {
			return apperr.InvalidTransaction("%s is mortgaged, no rent is due", p.Name)
		}
		owner, err := ledger.LoadPlayer(ctx, tx, o.PlayerID)
		if err != nil {
			return err
		}
		holdings, err := tx.OwnershipsByPlayer(ctx, owner.ID)
		if err != nil {
			return err
		}
		due := s.rent.Due(o, holdings, dice)
		if !due.IsPositive() {
			return apperr.InvalidTransaction("no rent is due on %s", p.Name)
		}
		out, err = s.ledger.TransferTx(ctx, tx, tenant, owner, due, "Rent for "+p.Name)
		return err
	})
	return out, err
}

// PlayerProperties lists a player's ownerships with their current rent.
func (s *Service) PlayerProperties(ctx context.Context, playerID string) ([]models.OwnershipView, error) {
	var out []models.OwnershipView
	err := store.Run(ctx, s.store, s.retries, func(tx store.Tx) error {
		if _, err := ledger.LoadPlayer(ctx, tx, playerID); err != nil {
			return err
		}
		list, err := tx.OwnershipsByPlayer(ctx, playerID)
		if err != nil {
			return err
		}
		out, err = s.views(ctx, tx, list)
		return err
	})
	return out, err
}

func (s *Service) SessionProperties(ctx context.Context, sessionCode string) ([]models.OwnershipView, error) {
	var out []models.OwnershipView
	err := store.Run(ctx, s.store, s.retries, func(tx store.Tx) error {
		sess, err := ledger.LoadSessionByCode(ctx, tx, sessionCode)
		if err != nil {
			return err
		}
		list, err := tx.OwnershipsBySession(ctx, sess.ID)
		if err != nil {
			return err
		}
		out, err = s.views(ctx, tx, list)
		return err
	})
	return out, err
}
