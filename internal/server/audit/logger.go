package audit

import (
	"context"

	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
)

// LoggerSink writes each event as a structured log line.
type LoggerSink struct {
	logger logging.Logger
}

func NewLoggerSink(l logging.Logger) *LoggerSink {
	return &LoggerSink{logger: l.With("module", "audit")}
}

func (s *LoggerSink) Record(ctx context.Context, e Event) {
	args := []any{"event", string(e.Type), "user_id", e.UserID}
	if e.Username != "" {
		args = append(args, "username", e.Username)
	}
	if e.DeviceInfo != "" {
		args = append(args, "device", e.DeviceInfo)
	}
	if e.IPAddress != "" {
		args = append(args, "ip", e.IPAddress)
	}
	if e.Reason != "" {
		args = append(args, "reason", e.Reason)
	}

	switch e.Type {
	case EventLoginFailed, EventRefreshRejected:
		s.logger.Warn(ctx, "session event", args...)
	default:
		s.logger.Info(ctx, "session event", args...)
	}
}
