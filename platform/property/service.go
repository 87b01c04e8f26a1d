// Package property runs purchase, mortgage, building and transfer operations
// over ownership records. Each operation is one unit of work that composes
// ledger payments with ownership changes and stages one property event.
package property

import (
	"context"
	"errors"
	"time"

	"github.com/DedS3t/monopoly-economy/app/models"
	"github.com/DedS3t/monopoly-economy/pkg/apperr"
	"github.com/DedS3t/monopoly-economy/platform/board"
	"github.com/DedS3t/monopoly-economy/platform/ledger"
	"github.com/DedS3t/monopoly-economy/platform/metrics"
	"github.com/DedS3t/monopoly-economy/platform/rent"
	"github.com/DedS3t/monopoly-economy/platform/store"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// ViewDice is the dice value used for the current rent shown on listings.
const ViewDice = 7

var (
	mortgageRate  = decimal.RequireFromString("0.5")
	redeemRate    = decimal.RequireFromString("0.55")
	assumptionTax = decimal.RequireFromString("0.1")
	resaleRate    = decimal.RequireFromString("0.5")
)

type Service struct {
	store   store.Store
	ledger  *ledger.Ledger
	board   rent.Catalog
	rent    *rent.Engine
	retries int
	now     func() time.Time
}

func New(s store.Store, l *ledger.Ledger, board rent.Catalog, retries int) *Service {
	return &Service{
		store:   s,
		ledger:  l,
		board:   board,
		rent:    rent.New(board),
		retries: retries,
		now:     time.Now,
	}
}

func (s *Service) run(ctx context.Context, op string, fields log.Fields, fn func(tx store.Tx) error) error {
	err := store.Run(ctx, s.store, s.retries, fn)
	metrics.Operation(op, err)
	entry := log.WithFields(fields).WithField("op", op)
	switch {
	case err == nil:
		entry.Debug("property operation committed")
	case apperr.KindOf(err) == apperr.KindInternal:
		entry.WithError(err).Error("property operation failed")
	default:
		entry.WithError(err).Info("property operation rejected")
	}
	return err
}

func (s *Service) property(id int) (models.Property, error) {
	return s.board.GetById(id)
}

func loadOwnership(ctx context.Context, tx store.Tx, id string) (*models.Ownership, error) {
	o, err := tx.Ownership(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound(apperr.EntityOwnership, id)
	}
	return o, err
}

// holder loads the ownership with its owner and property.
func (s *Service) holder(ctx context.Context, tx store.Tx, ownershipID string) (*models.Ownership, *models.Player, models.Property, error) {
	o, err := loadOwnership(ctx, tx, ownershipID)
	if err != nil {
		return nil, nil, models.Property{}, err
	}
	p, err := s.property(o.PropertyID)
	if err != nil {
		return nil, nil, models.Property{}, err
	}
	owner, err := ledger.LoadPlayer(ctx, tx, o.PlayerID)
	if err != nil {
		return nil, nil, models.Property{}, err
	}
	return o, owner, p, nil
}

// view renders o with the rent it currently earns.
func (s *Service) view(ctx context.Context, tx store.Tx, o *models.Ownership) (models.OwnershipView, error) {
	p, err := s.property(o.PropertyID)
	if err != nil {
		return models.OwnershipView{}, err
	}
	holdings, err := tx.OwnershipsByPlayer(ctx, o.PlayerID)
	if err != nil {
		return models.OwnershipView{}, err
	}
	return models.NewOwnershipView(o, p, s.rent.Due(o, holdings, ViewDice)), nil
}

func (s *Service) views(ctx context.Context, tx store.Tx, list []*models.Ownership) ([]models.OwnershipView, error) {
	out := make([]models.OwnershipView, 0, len(list))
	for _, o := range list {
		v, err := s.view(ctx, tx, o)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *Service) emit(ctx context.Context, tx store.Tx, sessionID string, payload models.PropertyPayload) error {
	sess, err := tx.Session(ctx, sessionID)
	if err != nil {
		return apperr.NotFound(apperr.EntitySession, sessionID)
	}
	tx.Emit(models.Event{
		Type:        payload.Action,
		SessionCode: sess.Code,
		Payload:     payload,
		Timestamp:   s.now().UTC(),
	})
	return nil
}

// BuildingValue is the replacement cost of the buildings on o. A hotel is
// valued at one building cost.
func BuildingValue(o *models.Ownership, p models.Property) decimal.Decimal {
	cost := board.HouseCost(p.Group)
	if o.HasHotel {
		return cost
	}
	return cost.Mul(decimal.NewFromInt(int64(o.Houses)))
}

// MortgageValue is what the bank pays for mortgaging p.
func MortgageValue(p models.Property) decimal.Decimal {
	return p.Price.Mul(mortgageRate)
}

func RedeemCost(p models.Property) decimal.Decimal {
	return p.Price.Mul(redeemRate)
}
