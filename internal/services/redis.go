package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chachabrian/venue-backend/internal/config"
	"github.com/redis/go-redis/v9"
)

// BookingEventsChannel carries booking events between API instances.
const BookingEventsChannel = "booking:events"

// NewRedisClient connects to Redis and checks the connection.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to Redis: %w", err)
	}

	return client, nil
}

// Publisher is the part of a Redis client needed to publish messages.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// PublishJSON encodes v and publishes it on channel.
func PublishJSON(ctx context.Context, p Publisher, channel string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return p.Publish(ctx, channel, data).Err()
}
