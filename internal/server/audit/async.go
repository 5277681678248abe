package audit

import (
	"context"

	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
)

// AsyncSink hands events to a background worker so slow sinks (S3) stay
// off the request path. When the buffer is full the event is dropped and
// a warning is logged.
type AsyncSink struct {
	next   Sink
	events chan Event
	logger logging.Logger
	done   chan struct{}
}

func NewAsyncSink(next Sink, buffer int, l logging.Logger) *AsyncSink {
	if buffer <= 0 {
		buffer = 256
	}
	return &AsyncSink{
		next:   next,
		events: make(chan Event, buffer),
		logger: l.With("module", "audit_async"),
		done:   make(chan struct{}),
	}
}

func (s *AsyncSink) Record(ctx context.Context, e Event) {
	select {
	case s.events <- e:
	default:
		s.logger.Warn(ctx, "audit buffer full, event dropped", "event", string(e.Type), "user_id", e.UserID)
	}
}

// Run forwards events until ctx is cancelled, then drains what is already
// buffered with a background context and returns.
func (s *AsyncSink) Run(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case e := <-s.events:
			s.next.Record(ctx, e)
		case <-ctx.Done():
			for {
				select {
				case e := <-s.events:
					s.next.Record(context.Background(), e)
				default:
					return
				}
			}
		}
	}
}

// Wait blocks until Run has returned.
func (s *AsyncSink) Wait() {
	<-s.done
}
