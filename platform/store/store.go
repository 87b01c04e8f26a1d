// Package store persists sessions, players, ownerships and ledger entries.
//
// All mutations happen inside Atomic. A unit of work either commits every
// staged write together or none of them; events staged with Emit are handed
// to the EventSink only after a successful commit.
package store

import (
	"context"
	"errors"

	"github.com/DedS3t/monopoly-economy/app/models"
	"github.com/DedS3t/monopoly-economy/pkg/apperr"
	"github.com/DedS3t/monopoly-economy/platform/metrics"
	log "github.com/sirupsen/logrus"
)

var (
	ErrNotFound  = errors.New("store: record not found")
	ErrConflict  = errors.New("store: concurrent modification")
	ErrDuplicate = errors.New("store: duplicate record")
)

// EventSink receives committed events in commit order.
type EventSink interface {
	Enqueue(events ...models.Event)
}

type Store interface {
	Atomic(ctx context.Context, fn func(tx Tx) error) error
	Close() error
}

// Tx is one unit of work. Writes are version checked: saving a record that
// changed since it was read fails the commit with ErrConflict.
type Tx interface {
	Session(ctx context.Context, id string) (*models.Session, error)
	SessionByCode(ctx context.Context, code string) (*models.Session, error)
	InsertSession(ctx context.Context, s *models.Session) error
	SaveSession(ctx context.Context, s *models.Session) error
	// DeleteSession removes the session with its players, ownerships and ledger.
	DeleteSession(ctx context.Context, s *models.Session) error

	Player(ctx context.Context, id string) (*models.Player, error)
	PlayersBySession(ctx context.Context, sessionID string) ([]*models.Player, error)
	InsertPlayer(ctx context.Context, p *models.Player) error
	SavePlayer(ctx context.Context, p *models.Player) error

	Ownership(ctx context.Context, id string) (*models.Ownership, error)
	// OwnershipByProperty returns ErrNotFound when the bank holds the property.
	OwnershipByProperty(ctx context.Context, sessionID string, propertyID int) (*models.Ownership, error)
	OwnershipsByPlayer(ctx context.Context, playerID string) ([]*models.Ownership, error)
	OwnershipsBySession(ctx context.Context, sessionID string) ([]*models.Ownership, error)
	InsertOwnership(ctx context.Context, o *models.Ownership) error
	SaveOwnership(ctx context.Context, o *models.Ownership) error
	DeleteOwnership(ctx context.Context, o *models.Ownership) error

	AppendTransaction(ctx context.Context, t *models.Transaction) error
	// Transactions lists a session's ledger newest first.
	Transactions(ctx context.Context, sessionID string) ([]*models.Transaction, error)

	Emit(event models.Event)
}

// Run executes fn in a unit of work, retrying up to retries times when the
// commit loses a race. Errors leave as *apperr.Error.
func Run(ctx context.Context, s Store, retries int, fn func(tx Tx) error) error {
	var err error
	for attempt := 0; attempt <= retries; attempt++ {
		err = s.Atomic(ctx, fn)
		if !retryable(err) {
			break
		}
		metrics.Conflict()
		log.WithFields(log.Fields{"attempt": attempt + 1, "err": err}).Debug("unit of work lost a race")
		if ctx.Err() != nil {
			break
		}
	}

	if err == nil {
		return nil
	}
	if retryable(err) {
		return apperr.Conflict(err)
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperr.Internal(err)
}

func retryable(err error) bool {
	return errors.Is(err, ErrConflict) || errors.Is(err, ErrDuplicate)
}
