// Package notify fans booking events out to email, websocket, Redis and push
// channels without holding up the request that produced them.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/chachabrian/venue-backend/internal/booking"
	"go.uber.org/zap"
)

const DefaultTimeout = 15 * time.Second

// Sink delivers an event over one channel.
type Sink interface {
	Name() string
	Send(ctx context.Context, event booking.Event) error
}

// Dispatcher implements booking.Notifier. Each event is delivered on its own
// goroutine; failures are logged and never reach the caller.
type Dispatcher struct {
	sinks   []Sink
	timeout time.Duration
	log     *zap.Logger
	wg      sync.WaitGroup
}

func NewDispatcher(log *zap.Logger, timeout time.Duration, sinks ...Sink) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Dispatcher{
		sinks:   sinks,
		timeout: timeout,
		log:     log.Named("notify"),
	}
}

func (d *Dispatcher) Notify(ctx context.Context, event booking.Event) {
	if len(d.sinks) == 0 {
		return
	}

	// the request context ends with the response; delivery must outlive it
	ctx = context.WithoutCancel(ctx)

	d.wg.Add(len(d.sinks))
	for _, sink := range d.sinks {
		go func(sink Sink) {
			defer d.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					d.log.Error("notification sink panicked",
						zap.String("sink", sink.Name()),
						zap.Any("panic", r),
					)
				}
			}()

			ctx, cancel := context.WithTimeout(ctx, d.timeout)
			defer cancel()

			if err := sink.Send(ctx, event); err != nil {
				d.log.Warn("notification failed",
					zap.String("sink", sink.Name()),
					zap.String("event", string(event.Kind)),
					zap.Uint("booking_id", event.Booking.ID),
					zap.Error(err),
				)
			}
		}(sink)
	}
}

// Wait blocks until every in-flight delivery has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
