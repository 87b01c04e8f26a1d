package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/DedS3t/monopoly-economy/app/models"
	"github.com/gomodule/redigo/redis"
)

// RecentEvents is how many events per session are kept for replay.
const RecentEvents = 50

func ChannelKey(code string) string { return "monopoly:session:" + code }

func eventsKey(code string) string { return "monopoly:events:" + code }

// BalanceKey names the hash holding a player's cached balance in field "bal".
func BalanceKey(code, playerID string) string { return fmt.Sprintf("%s.%s", code, playerID) }

// Sink publishes events on a per-session channel, keeps a short replay log
// and mirrors player balances into hashes.
type Sink struct {
	pool *redis.Pool
}

func NewSink(pool *redis.Pool) *Sink {
	return &Sink{pool: pool}
}

func (s *Sink) Name() string { return "redis" }

func (s *Sink) Deliver(ctx context.Context, ev models.Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	conn, err := s.pool.GetContext(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := Publish(ChannelKey(ev.SessionCode), body, conn); err != nil {
		return err
	}

	switch payload := ev.Payload.(type) {
	case models.BalancePayload:
		for _, p := range payload.Players {
			if err := HSET(BalanceKey(ev.SessionCode, p.ID), "bal", p.Balance.String(), conn); err != nil {
				return err
			}
		}
	case models.SessionPayload:
		if ev.Type == models.SessionDeleted {
			keys := []string{eventsKey(ev.SessionCode)}
			for _, p := range payload.Session.Players {
				keys = append(keys, BalanceKey(ev.SessionCode, p.ID))
			}
			return Del(keys, conn)
		}
	}
	return RPUSH(eventsKey(ev.SessionCode), []interface{}{body}, RecentEvents, conn)
}

// Recent returns the replay log of a session, oldest first.
func (s *Sink) Recent(ctx context.Context, code string) ([]json.RawMessage, error) {
	conn, err := s.pool.GetContext(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	raw, err := LGET(eventsKey(code), conn)
	if err != nil {
		return nil, err
	}
	out := make([]json.RawMessage, 0, len(raw))
	for _, b := range raw {
		out = append(out, json.RawMessage(b))
	}
	return out, nil
}

// Balance reads a cached balance.
func (s *Sink) Balance(ctx context.Context, code, playerID string) (string, error) {
	conn, err := s.pool.GetContext(ctx)
	if err != nil {
		return "", err
	}
	defer conn.Close()
	return HGET(BalanceKey(code, playerID), "bal", conn)
}
