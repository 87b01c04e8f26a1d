package socket

import (
	"context"
	"encoding/json"

	"github.com/DedS3t/monopoly-economy/app/models"
)

// Broadcaster is satisfied by *socketio.Server.
type Broadcaster interface {
	BroadcastToRoom(namespace, room, event string, args ...interface{}) bool
}

// Sink emits each event to the room named by its session code.
type Sink struct {
	rooms Broadcaster
}

func NewSink(rooms Broadcaster) *Sink {
	return &Sink{rooms: rooms}
}

func (s *Sink) Name() string { return "socket" }

func (s *Sink) Deliver(ctx context.Context, ev models.Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	s.rooms.BroadcastToRoom(namespace, ev.SessionCode, string(ev.Type), string(body))
	return nil
}
