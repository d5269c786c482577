package booking

import (
	"context"
	"time"

	"github.com/chachabrian/venue-backend/internal/models"
)

type EventKind string

const (
	EventCreated       EventKind = "BOOKING_CREATED"
	EventWaitlisted    EventKind = "BOOKING_WAITLISTED"
	EventReviewed      EventKind = "BOOKING_REVIEWED"
	EventCancelled     EventKind = "BOOKING_CANCELLED"
	EventPromoted      EventKind = "BOOKING_PROMOTED"
	EventSpotAvailable EventKind = "SPOT_AVAILABLE"
)

// Event describes a committed booking change. Booking is a snapshot taken at
// commit time with the owner's name and email loaded.
type Event struct {
	Kind       EventKind      `json:"kind"`
	Booking    models.Booking `json:"booking"`
	OccurredAt time.Time      `json:"occurredAt"`
}

// Notifier delivers events to interested parties. Implementations must not
// block the caller for long and own their error handling.
type Notifier interface {
	Notify(ctx context.Context, event Event)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, Event) {}
