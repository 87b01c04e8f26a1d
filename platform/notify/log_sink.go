package notify

import (
	"context"

	"github.com/DedS3t/monopoly-economy/app/models"
	log "github.com/sirupsen/logrus"
)

// LogSink writes every event to the process log at debug level.
type LogSink struct{}

func (LogSink) Name() string { return "log" }

func (LogSink) Deliver(ctx context.Context, ev models.Event) error {
	log.WithFields(log.Fields{
		"component": "notify",
		"session":   ev.SessionCode,
		"type":      ev.Type,
		"seq":       ev.Seq,
	}).Debug("event")
	return nil
}
