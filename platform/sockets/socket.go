package socket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/DedS3t/monopoly-economy/app/models"
	"github.com/DedS3t/monopoly-economy/pkg/apperr"
	socketio "github.com/googollee/go-socket.io"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"
)

const namespace = "/"

// Events emitted to a single connection. Session events use their own type
// as the event name.
const (
	eventSubscribed   = "subscribed"
	eventUnsubscribed = "unsubscribed"
	eventError        = "error-message"
)

type Sessions interface {
	FindBySessionCode(ctx context.Context, code string) (models.SessionView, error)
}

// Replayer returns the most recent events of a session, oldest first.
type Replayer interface {
	Recent(ctx context.Context, code string) ([]json.RawMessage, error)
}

// member is the part of a socket.io connection the subscription logic needs.
type member interface {
	ID() string
	Join(room string)
	Leave(room string)
	Emit(event string, v ...interface{})
}

type Server struct {
	io       *socketio.Server
	sessions Sessions
	replay   Replayer
	http     *http.Server
}

// NewServer registers the session channel handlers. replay may be nil.
func NewServer(addr string, sessions Sessions, replay Replayer, origins []string) (*Server, error) {
	io, err := socketio.NewServer(nil)
	if err != nil {
		return nil, err
	}
	s := &Server{io: io, sessions: sessions, replay: replay}

	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowCredentials: true,
	})
	mux := http.NewServeMux()
	mux.Handle("/socket.io/", io)
	s.http = &http.Server{Addr: addr, Handler: c.Handler(mux)}

	io.OnConnect(namespace, func(c socketio.Conn) error {
		c.SetContext("")
		log.WithFields(log.Fields{"component": "socket", "conn": c.ID()}).Debug("connected")
		return nil
	})

	io.OnEvent(namespace, "subscribe", func(c socketio.Conn, code string) {
		s.subscribe(context.Background(), c, code)
	})

	io.OnEvent(namespace, "unsubscribe", func(c socketio.Conn, code string) {
		s.unsubscribe(c, code)
	})

	io.OnError(namespace, func(c socketio.Conn, e error) {
		log.WithField("component", "socket").WithError(e).Warn("socket error")
	})

	io.OnDisconnect(namespace, func(c socketio.Conn, reason string) {
		c.LeaveAll()
		log.WithFields(log.Fields{"component": "socket", "conn": c.ID(), "reason": reason}).Debug("disconnected")
	})
	return s, nil
}

// Broadcaster exposes the room fan-out for the socket sink.
func (s *Server) Broadcaster() Broadcaster {
	return s.io
}

func (s *Server) subscribe(ctx context.Context, c member, code string) {
	code = strings.ToUpper(strings.TrimSpace(code))
	view, err := s.sessions.FindBySessionCode(ctx, code)
	if err != nil {
		c.Emit(eventError, apperr.Message(err))
		return
	}
	c.Join(code)
	c.Emit(eventSubscribed, code)
	log.WithFields(log.Fields{"component": "socket", "conn": c.ID(), "session": code}).Info("subscribed")

	if s.replay == nil {
		return
	}
	recent, err := s.replay.Recent(ctx, view.Code)
	if err != nil {
		log.WithFields(log.Fields{"component": "socket", "session": code}).WithError(err).Warn("replay failed")
		return
	}
	for _, raw := range recent {
		var head struct {
			Type models.EventType `json:"type"`
		}
		if err := json.Unmarshal(raw, &head); err != nil || head.Type == "" {
			continue
		}
		c.Emit(string(head.Type), string(raw))
	}
}

func (s *Server) unsubscribe(c member, code string) {
	code = strings.ToUpper(strings.TrimSpace(code))
	c.Leave(code)
	c.Emit(eventUnsubscribed, code)
}

// Serve blocks until the listener fails or Shutdown is called.
func (s *Server) Serve() error {
	go func() {
		if err := s.io.Serve(); err != nil {
			log.WithField("component", "socket").WithError(err).Error("socket.io stopped")
		}
	}()

	log.WithFields(log.Fields{"component": "socket", "addr": s.http.Addr}).Info("socket.io listening")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	err := s.http.Shutdown(ctx)
	if cerr := s.io.Close(); err == nil {
		err = cerr
	}
	return err
}
