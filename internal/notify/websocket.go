package notify

import (
	"context"
	"encoding/json"

	"github.com/chachabrian/venue-backend/internal/booking"
	"github.com/chachabrian/venue-backend/internal/models"
	"github.com/chachabrian/venue-backend/internal/services"
)

// ConnectionRouter delivers frames to connected websocket clients.
type ConnectionRouter interface {
	SendToUser(userID uint, message []byte) int
	SendToRole(role models.Role, message []byte) int
}

// HubSink pushes events to the owner's open connections and to every
// connected admin, so the admin dashboard updates live.
type HubSink struct {
	hub ConnectionRouter
}

func NewHubSink(hub ConnectionRouter) *HubSink {
	return &HubSink{hub: hub}
}

func (s *HubSink) Name() string { return "websocket" }

func (s *HubSink) Send(_ context.Context, event booking.Event) error {
	frame, err := json.Marshal(services.WebSocketMessage{
		Type: string(event.Kind),
		Data: event,
	})
	if err != nil {
		return err
	}

	s.hub.SendToUser(event.Booking.UserID, frame)
	if event.Kind != booking.EventSpotAvailable {
		s.hub.SendToRole(models.RoleAdmin, frame)
	}
	return nil
}
