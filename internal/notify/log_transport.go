package notify

import (
	"context"

	"github.com/jonesrussell/north-cloud/restock/infrastructure/logger"
)

// LogTransport writes messages to the log instead of delivering them.
type LogTransport struct {
	logger logger.Logger
}

// NewLogTransport creates a LogTransport.
func NewLogTransport(log logger.Logger) *LogTransport {
	return &LogTransport{logger: log}
}

func (t *LogTransport) Send(_ context.Context, message, channel string) error {
	t.logger.Info("Notification (not sent)",
		logger.String("channel", channel),
		logger.String("message", message),
	)
	return nil
}
