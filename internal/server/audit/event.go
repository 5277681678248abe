// Package audit records session lifecycle events. Sinks fan events out to
// the log, to metrics, and optionally to an S3 bucket as JSON objects.
package audit

import (
	"context"
	"time"
)

type EventType string

const (
	EventRegister        EventType = "register"
	EventLogin           EventType = "login"
	EventLoginFailed     EventType = "login_failed"
	EventRefresh         EventType = "refresh"
	EventRefreshRejected EventType = "refresh_rejected"
	EventLogout          EventType = "logout"
)

// Event never carries secrets: no passwords, no token strings.
type Event struct {
	Type       EventType `json:"type"`
	UserID     int64     `json:"userId,omitempty"`
	Username   string    `json:"username,omitempty"`
	DeviceInfo string    `json:"deviceInfo,omitempty"`
	IPAddress  string    `json:"ipAddress,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	Time       time.Time `json:"time"`
}

// Sink consumes events. Record must not block the request for long and
// never fails the operation being audited.
type Sink interface {
	Record(ctx context.Context, e Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, e Event)

func (f SinkFunc) Record(ctx context.Context, e Event) { f(ctx, e) }

// Nop discards events.
var Nop Sink = SinkFunc(func(context.Context, Event) {})

type multiSink []Sink

func (m multiSink) Record(ctx context.Context, e Event) {
	for _, s := range m {
		s.Record(ctx, e)
	}
}

// Multi returns a Sink that forwards to every non-nil sink in order.
func Multi(sinks ...Sink) Sink {
	out := make(multiSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}
