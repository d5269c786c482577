package services

import (
	"context"
	"encoding/json"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/chachabrian/venue-backend/internal/config"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// messageSender is the subset of *messaging.Client the pusher uses.
type messageSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

// Pusher sends Firebase Cloud Messaging notifications. A Pusher without
// credentials is valid and skips every send.
type Pusher struct {
	client messageSender
	log    *zap.Logger
}

// NewPusher initializes the Firebase Admin SDK when a service account is configured.
func NewPusher(ctx context.Context, cfg config.FirebaseConfig, log *zap.Logger) (*Pusher, error) {
	p := &Pusher{log: log.Named("fcm")}
	if cfg.ServiceAccountPath == "" {
		p.log.Warn("FIREBASE_SERVICE_ACCOUNT_PATH not set, push notifications disabled")
		return p, nil
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(cfg.ServiceAccountPath))
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("get messaging client: %w", err)
	}

	p.client = client
	return p, nil
}

func (p *Pusher) Enabled() bool {
	return p != nil && p.client != nil
}

// NotificationPayload represents the notification data
type NotificationPayload struct {
	Title     string                 `json:"title"`
	Body      string                 `json:"body"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Image     string                 `json:"image,omitempty"`
	ChannelID string                 `json:"channelId,omitempty"`
	Tag       string                 `json:"tag,omitempty"`
}

func getAndroidConfig(payload NotificationPayload) *messaging.AndroidConfig {
	channelID := payload.ChannelID
	if channelID == "" {
		channelID = "venue_bookings"
	}

	return &messaging.AndroidConfig{
		Priority: "high",
		Notification: &messaging.AndroidNotification{
			Sound:        "default",
			DefaultSound: true,
			ChannelID:    channelID,
			Priority:     messaging.PriorityHigh,
			Color:        "#8A6D3B",
			Tag:          payload.Tag,
		},
	}
}

func getAPNSConfig() *messaging.APNSConfig {
	return &messaging.APNSConfig{
		Payload: &messaging.APNSPayload{
			Aps: &messaging.Aps{
				Sound:          "default",
				MutableContent: true,
			},
		},
	}
}

// stringifyData converts the payload data into the string map FCM requires.
func stringifyData(data map[string]interface{}) map[string]string {
	out := make(map[string]string, len(data))
	for key, value := range data {
		switch v := value.(type) {
		case string:
			out[key] = v
		case fmt.Stringer:
			out[key] = v.String()
		case int, int64, uint, uint64, float64, bool:
			out[key] = fmt.Sprintf("%v", v)
		default:
			jsonData, err := json.Marshal(v)
			if err != nil {
				continue
			}
			out[key] = string(jsonData)
		}
	}
	return out
}

func buildNotification(payload NotificationPayload) *messaging.Notification {
	return &messaging.Notification{
		Title:    payload.Title,
		Body:     payload.Body,
		ImageURL: payload.Image,
	}
}

// SendToToken sends a notification to a single device.
func (p *Pusher) SendToToken(ctx context.Context, token string, payload NotificationPayload) error {
	if !p.Enabled() || token == "" {
		return nil
	}

	message := &messaging.Message{
		Notification: buildNotification(payload),
		Data:         stringifyData(payload.Data),
		Token:        token,
		Android:      getAndroidConfig(payload),
		APNS:         getAPNSConfig(),
	}

	if _, err := p.client.Send(ctx, message); err != nil {
		return fmt.Errorf("send push message: %w", err)
	}
	return nil
}

// SendToTokens sends the same notification to several devices and returns
// how many deliveries failed.
func (p *Pusher) SendToTokens(ctx context.Context, tokens []string, payload NotificationPayload) (int, error) {
	if !p.Enabled() || len(tokens) == 0 {
		return 0, nil
	}

	message := &messaging.MulticastMessage{
		Notification: buildNotification(payload),
		Data:         stringifyData(payload.Data),
		Tokens:       tokens,
		Android:      getAndroidConfig(payload),
		APNS:         getAPNSConfig(),
	}

	response, err := p.client.SendEachForMulticast(ctx, message)
	if err != nil {
		return len(tokens), fmt.Errorf("send multicast message: %w", err)
	}

	for idx, resp := range response.Responses {
		if !resp.Success {
			p.log.Debug("push delivery failed", zap.Int("token_index", idx), zap.Error(resp.Error))
		}
	}
	return response.FailureCount, nil
}
