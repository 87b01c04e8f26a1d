// Package session manages the lifecycle of game sessions and answers the
// lookups the economy needs: a session by its public code and whether a
// player hosts it.
package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/DedS3t/monopoly-economy/app/models"
	"github.com/DedS3t/monopoly-economy/pkg"
	"github.com/DedS3t/monopoly-economy/pkg/apperr"
	"github.com/DedS3t/monopoly-economy/platform/ledger"
	"github.com/DedS3t/monopoly-economy/platform/metrics"
	"github.com/DedS3t/monopoly-economy/platform/store"
	uuid "github.com/satori/go.uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const (
	CodeLength = 6
	minPlayers = 2
)

type Options struct {
	StartingBalance decimal.Decimal
	MaxPlayers      int
	Retries         int
}

type Service struct {
	store store.Store
	opts  Options
	now   func() time.Time
	code  func() string
}

func New(s store.Store, opts Options) *Service {
	return &Service{
		store: s,
		opts:  opts,
		now:   time.Now,
		code:  func() string { return pkg.RandString(CodeLength) },
	}
}

func (s *Service) run(ctx context.Context, op string, fields log.Fields, fn func(tx store.Tx) error) error {
	err := store.Run(ctx, s.store, s.opts.Retries, fn)
	metrics.Operation(op, err)
	entry := log.WithFields(fields).WithField("op", op)
	switch {
	case err == nil:
		entry.Info("session operation committed")
	case apperr.KindOf(err) == apperr.KindInternal:
		entry.WithError(err).Error("session operation failed")
	default:
		entry.WithError(err).Info("session operation rejected")
	}
	return err
}

// Create opens a session in WAITING state with its host seated as RED.
func (s *Service) Create(ctx context.Context, hostName string) (models.SessionView, models.PlayerSnapshot, error) {
	var (
		view models.SessionView
		host models.PlayerSnapshot
	)
	hostName = strings.TrimSpace(hostName)
	err := s.run(ctx, "create_session", log.Fields{"host": hostName}, func(tx store.Tx) error {
		if hostName == "" {
			return apperr.InvalidSessionAction("host name is required")
		}
		now := s.now().UTC()
		sess := &models.Session{
			ID:        uuid.NewV4().String(),
			Code:      s.code(),
			HostName:  hostName,
			Status:    models.Waiting,
			CreatedAt: now,
		}
		if err := tx.InsertSession(ctx, sess); err != nil {
			return err
		}
		p := s.newPlayer(sess, hostName, models.ColorRed, now)
		p.IsHost = true
		if err := tx.InsertPlayer(ctx, p); err != nil {
			return err
		}
		host = p.Snapshot(0)
		view = models.SessionView{Session: *sess, Players: []models.PlayerSnapshot{host}}
		emit(tx, models.SessionCreated, view, now)
		return nil
	})
	return view, host, err
}

// Join seats a new player in a WAITING session.
func (s *Service) Join(ctx context.Context, code, name string, color models.Color) (models.SessionView, models.PlayerSnapshot, error) {
	var (
		view   models.SessionView
		joined models.PlayerSnapshot
	)
	name = strings.TrimSpace(name)
	err := s.run(ctx, "join_session", log.Fields{"session": code, "name": name}, func(tx store.Tx) error {
		if name == "" {
			return apperr.InvalidSessionAction("player name is required")
		}
		if !color.Valid() {
			return apperr.InvalidSessionAction("unknown color %q", color)
		}
		sess, err := ledger.LoadSessionByCode(ctx, tx, code)
		if err != nil {
			return err
		}
		if sess.Status != models.Waiting {
			return apperr.InvalidSessionAction("session %s is not accepting players", code)
		}
		players, err := tx.PlayersBySession(ctx, sess.ID)
		if err != nil {
			return err
		}
		if len(players) >= s.opts.MaxPlayers {
			return apperr.InvalidSessionAction("session %s is full", code)
		}
		for _, p := range players {
			if p.Color == color {
				return apperr.InvalidSessionAction("color %s is taken", color)
			}
			if strings.EqualFold(p.Name, name) {
				return apperr.InvalidSessionAction("name %s is taken", name)
			}
		}

		now := s.now().UTC()
		p := s.newPlayer(sess, name, color, now)
		if err := tx.InsertPlayer(ctx, p); err != nil {
			return err
		}
		// Bumping the session serializes concurrent joins.
		if err := tx.SaveSession(ctx, sess); err != nil {
			return err
		}
		joined = p.Snapshot(0)
		view, err = s.viewTx(ctx, tx, sess)
		if err != nil {
			return err
		}
		emit(tx, models.PlayerJoined, view, now)
		return nil
	})
	return view, joined, err
}

func (s *Service) Start(ctx context.Context, code, playerID string) (models.SessionView, error) {
	return s.transition(ctx, "start_session", code, playerID, func(sess *models.Session, players []*models.Player) (models.EventType, error) {
		if sess.Status != models.Waiting {
			return "", apperr.InvalidSessionAction("session %s has already started", code)
		}
		if len(players) < minPlayers {
			return "", apperr.InvalidSessionAction("session %s needs at least %d players", code, minPlayers)
		}
		sess.Status = models.InProgress
		return models.SessionStarted, nil
	})
}

func (s *Service) End(ctx context.Context, code, playerID string) (models.SessionView, error) {
	return s.transition(ctx, "end_session", code, playerID, func(sess *models.Session, players []*models.Player) (models.EventType, error) {
		if sess.Status == models.Finished {
			return "", apperr.InvalidSessionAction("session %s has already ended", code)
		}
		sess.Status = models.Finished
		return models.SessionEnded, nil
	})
}

// transition applies a host-only status change.
func (s *Service) transition(ctx context.Context, op, code, playerID string, change func(*models.Session, []*models.Player) (models.EventType, error)) (models.SessionView, error) {
	var view models.SessionView
	err := s.run(ctx, op, log.Fields{"session": code, "player": playerID}, func(tx store.Tx) error {
		sess, err := s.hostedTx(ctx, tx, code, playerID)
		if err != nil {
			return err
		}
		players, err := tx.PlayersBySession(ctx, sess.ID)
		if err != nil {
			return err
		}
		event, err := change(sess, players)
		if err != nil {
			return err
		}
		if err := tx.SaveSession(ctx, sess); err != nil {
			return err
		}
		view, err = s.viewTx(ctx, tx, sess)
		if err != nil {
			return err
		}
		emit(tx, event, view, s.now().UTC())
		return nil
	})
	return view, err
}

// Delete removes the session with its players, ownerships and ledger.
func (s *Service) Delete(ctx context.Context, code, playerID string) error {
	return s.run(ctx, "delete_session", log.Fields{"session": code, "player": playerID}, func(tx store.Tx) error {
		sess, err := s.hostedTx(ctx, tx, code, playerID)
		if err != nil {
			return err
		}
		view, err := s.viewTx(ctx, tx, sess)
		if err != nil {
			return err
		}
		if err := tx.DeleteSession(ctx, sess); err != nil {
			return err
		}
		emit(tx, models.SessionDeleted, view, s.now().UTC())
		return nil
	})
}

func (s *Service) FindBySessionCode(ctx context.Context, code string) (models.SessionView, error) {
	var view models.SessionView
	err := store.Run(ctx, s.store, s.opts.Retries, func(tx store.Tx) error {
		sess, err := ledger.LoadSessionByCode(ctx, tx, code)
		if err != nil {
			return err
		}
		view, err = s.viewTx(ctx, tx, sess)
		return err
	})
	return view, err
}

func (s *Service) IsHost(ctx context.Context, playerID, sessionID string) (bool, error) {
	host := false
	err := store.Run(ctx, s.store, s.opts.Retries, func(tx store.Tx) error {
		p, err := tx.Player(ctx, playerID)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		host = p.IsHost && p.SessionID == sessionID
		return nil
	})
	return host, err
}

// hostedTx loads the session by code and checks playerID hosts it.
func (s *Service) hostedTx(ctx context.Context, tx store.Tx, code, playerID string) (*models.Session, error) {
	sess, err := ledger.LoadSessionByCode(ctx, tx, code)
	if err != nil {
		return nil, err
	}
	p, err := tx.Player(ctx, playerID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if p == nil || !p.IsHost || p.SessionID != sess.ID {
		return nil, apperr.Unauthorized("only the host of session %s may do that", code)
	}
	return sess, nil
}

func (s *Service) viewTx(ctx context.Context, tx store.Tx, sess *models.Session) (models.SessionView, error) {
	players, err := tx.PlayersBySession(ctx, sess.ID)
	if err != nil {
		return models.SessionView{}, err
	}
	view := models.SessionView{Session: *sess, Players: make([]models.PlayerSnapshot, 0, len(players))}
	for _, p := range players {
		snap, err := ledger.Snapshot(ctx, tx, p)
		if err != nil {
			return models.SessionView{}, err
		}
		view.Players = append(view.Players, snap)
	}
	return view, nil
}

func (s *Service) newPlayer(sess *models.Session, name string, color models.Color, now time.Time) *models.Player {
	return &models.Player{
		ID:        uuid.NewV4().String(),
		SessionID: sess.ID,
		Name:      name,
		Color:     color,
		Balance:   s.opts.StartingBalance,
		JoinedAt:  now,
	}
}

func emit(tx store.Tx, kind models.EventType, view models.SessionView, at time.Time) {
	tx.Emit(models.Event{
		Type:        kind,
		SessionCode: view.Code,
		Payload:     models.SessionPayload{Session: view},
		Timestamp:   at,
	})
}
