package property

import (
	"context"

	"github.com/DedS3t/monopoly-economy/app/models"
	"github.com/DedS3t/monopoly-economy/pkg/apperr"
	"github.com/DedS3t/monopoly-economy/platform/board"
	"github.com/DedS3t/monopoly-economy/platform/store"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// buildStep is one change to the building state of a street.
type buildStep struct {
	op     string
	event  models.EventType
	check  func(o *models.Ownership, p models.Property, holdings []*models.Ownership) error
	apply  func(o *models.Ownership)
	credit bool
}

func (s *Service) BuildHouse(ctx context.Context, ownershipID string) (models.OwnershipView, error) {
	return s.build(ctx, ownershipID, buildStep{
		op:    "build_house",
		event: models.HouseBuilt,
		check: func(o *models.Ownership, p models.Property, holdings []*models.Ownership) error {
			if err := s.checkBuildable(o, p, holdings); err != nil {
				return err
			}
			if o.Houses >= models.MaxHouses {
				return apperr.InvalidPropertyAction("%s already has %d houses", p.Name, models.MaxHouses)
			}
			if !s.rent.CanBuildHouse(o, holdings) {
				return apperr.InvalidPropertyAction("build evenly: another %s property has fewer houses", p.Group)
			}
			return nil
		},
		apply: func(o *models.Ownership) { o.Houses++ },
	})
}

func (s *Service) SellHouse(ctx context.Context, ownershipID string) (models.OwnershipView, error) {
	return s.build(ctx, ownershipID, buildStep{
		op:    "sell_house",
		event: models.HouseSold,
		check: func(o *models.Ownership, p models.Property, holdings []*models.Ownership) error {
			if o.HasHotel {
				return apperr.InvalidPropertyAction("sell the hotel on %s first", p.Name)
			}
			if o.Houses == 0 {
				return apperr.InvalidPropertyAction("%s has no houses to sell", p.Name)
			}
			if !s.rent.CanSellHouse(o, holdings) {
				return apperr.InvalidPropertyAction("sell evenly: another %s property has more houses", p.Group)
			}
			return nil
		},
		apply:  func(o *models.Ownership) { o.Houses-- },
		credit: true,
	})
}

func (s *Service) BuildHotel(ctx context.Context, ownershipID string) (models.OwnershipView, error) {
	return s.build(ctx, ownershipID, buildStep{
		op:    "build_hotel",
		event: models.HotelBuilt,
		check: func(o *models.Ownership, p models.Property, holdings []*models.Ownership) error {
			if err := s.checkBuildable(o, p, holdings); err != nil {
				return err
			}
			if o.Houses != models.MaxHouses {
				return apperr.InvalidPropertyAction("%s needs %d houses before a hotel", p.Name, models.MaxHouses)
			}
			if !s.rent.CanBuildHouse(o, holdings) {
				return apperr.InvalidPropertyAction("build evenly: another %s property has fewer houses", p.Group)
			}
			return nil
		},
		apply: func(o *models.Ownership) {
			o.Houses = 0
			o.HasHotel = true
		},
	})
}

// SellHotel trades a hotel back to the bank; the street keeps four houses.
func (s *Service) SellHotel(ctx context.Context, ownershipID string) (models.OwnershipView, error) {
	return s.build(ctx, ownershipID, buildStep{
		op:    "sell_hotel",
		event: models.HotelSold,
		check: func(o *models.Ownership, p models.Property, holdings []*models.Ownership) error {
			if !o.HasHotel {
				return apperr.InvalidPropertyAction("%s has no hotel", p.Name)
			}
			return nil
		},
		apply: func(o *models.Ownership) {
			o.HasHotel = false
			o.Houses = models.MaxHouses
		},
		credit: true,
	})
}

// checkBuildable holds the rules shared by houses and hotels.
func (s *Service) checkBuildable(o *models.Ownership, p models.Property, holdings []*models.Ownership) error {
	if p.Type != models.Street {
		return apperr.InvalidPropertyAction("buildings can only go on streets, %s is a %s", p.Name, p.Type)
	}
	if o.Mortgaged {
		return apperr.InvalidPropertyAction("%s is mortgaged", p.Name)
	}
	if o.HasHotel {
		return apperr.InvalidPropertyAction("%s already has a hotel", p.Name)
	}
	if !s.rent.HasMonopoly(o.PlayerID, p.Group, holdings) {
		return apperr.InvalidPropertyAction("player must own every %s property to build", p.Group)
	}
	return nil
}

func (s *Service) build(ctx context.Context, ownershipID string, step buildStep) (models.OwnershipView, error) {
	var out models.OwnershipView
	err := s.run(ctx, step.op, log.Fields{"ownership": ownershipID}, func(tx store.Tx) error {
		o, owner, p, err := s.holder(ctx, tx, ownershipID)
		if err != nil {
			return err
		}
		holdings, err := tx.OwnershipsByPlayer(ctx, owner.ID)
		if err != nil {
			return err
		}
		if err := step.check(o, p, holdings); err != nil {
			return err
		}

		cost := board.HouseCost(p.Group)
		amount := cost
		if step.credit {
			amount = cost.Mul(resaleRate)
			_, err = s.ledger.PayFromBankTx(ctx, tx, owner, amount, describe(step.event, p))
		} else {
			_, err = s.ledger.PayToBankTx(ctx, tx, owner, amount, describe(step.event, p))
		}
		if err != nil {
			return err
		}

		step.apply(o)
		if err := tx.SaveOwnership(ctx, o); err != nil {
			return err
		}
		out, err = s.view(ctx, tx, o)
		if err != nil {
			return err
		}
		return s.emit(ctx, tx, o.SessionID, models.PropertyPayload{
			Action:     step.event,
			Ownerships: []models.OwnershipView{out},
			FromPlayer: owner.ID,
			Details:    map[string]interface{}{"amount": amount},
		})
	})
	return out, err
}

// LiquidateBuildingsTx sells every building on o back to the bank at half
// value, crediting the owner. It returns the amount credited.
func (s *Service) LiquidateBuildingsTx(ctx context.Context, tx store.Tx, o *models.Ownership, owner *models.Player, p models.Property) (decimal.Decimal, error) {
	if !o.HasBuildings() {
		return decimal.Zero, nil
	}
	credit := BuildingValue(o, p).Mul(resaleRate)
	if _, err := s.ledger.PayFromBankTx(ctx, tx, owner, credit, "Building liquidation on "+p.Name); err != nil {
		return decimal.Zero, err
	}
	o.Houses = 0
	o.HasHotel = false
	return credit, tx.SaveOwnership(ctx, o)
}

func describe(event models.EventType, p models.Property) string {
	switch event {
	case models.HouseBuilt:
		return "House built on " + p.Name
	case models.HouseSold:
		return "House sold on " + p.Name
	case models.HotelBuilt:
		return "Hotel built on " + p.Name
	case models.HotelSold:
		return "Hotel sold on " + p.Name
	}
	return string(event) + " " + p.Name
}
