package infrastructure

import (
	"context"

	"betpool/events"

	log "github.com/sirupsen/logrus"
)

// LogNotifier records rejection notices in the application log. It is used
// when no Discord channel is configured.
type LogNotifier struct{}

// NewLogNotifier creates a new log notifier
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

// NotifyRejection logs the notice
func (LogNotifier) NotifyRejection(_ context.Context, notice events.EventRejectedEvent) error {
	log.WithFields(log.Fields{
		"eventID":    notice.EventID,
		"ownerEmail": notice.OwnerEmail,
		"reason":     notice.RejectionMessage,
	}).Info("Event rejected, owner notified")
	return nil
}
