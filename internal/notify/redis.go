package notify

import (
	"context"
	"encoding/json"

	"github.com/chachabrian/venue-backend/internal/booking"
	"github.com/chachabrian/venue-backend/internal/services"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisSink publishes events on services.BookingEventsChannel so every API
// instance, and any other subscriber, sees them.
type RedisSink struct {
	pub     services.Publisher
	channel string
}

func NewRedisSink(pub services.Publisher) *RedisSink {
	return &RedisSink{pub: pub, channel: services.BookingEventsChannel}
}

func (s *RedisSink) Name() string { return "redis" }

func (s *RedisSink) Send(ctx context.Context, event booking.Event) error {
	return services.PublishJSON(ctx, s.pub, s.channel, event)
}

// Relay forwards events received from Redis to sink until ctx is done or msgs
// is closed. It is how events published by one instance reach websocket
// clients connected to another.
func Relay(ctx context.Context, msgs <-chan *redis.Message, sink Sink, log *zap.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			var event booking.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Warn("discarding malformed booking event", zap.String("channel", msg.Channel), zap.Error(err))
				continue
			}
			if err := sink.Send(ctx, event); err != nil {
				log.Warn("relaying booking event failed", zap.String("sink", sink.Name()), zap.Error(err))
			}
		}
	}
}
