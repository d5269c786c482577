package notify

import (
	"context"
	"fmt"

	"github.com/chachabrian/venue-backend/internal/booking"
	"github.com/chachabrian/venue-backend/internal/models"
	"github.com/chachabrian/venue-backend/internal/services"
)

type PushSender interface {
	SendToToken(ctx context.Context, token string, payload services.NotificationPayload) error
}

// UserSource looks up a user, including the registered FCM token.
type UserSource interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)
}

// PushSink sends a push notification to the booking owner's device.
type PushSink struct {
	pusher PushSender
	users  UserSource
	prefs  PreferenceSource
}

func NewPushSink(pusher PushSender, users UserSource, prefs PreferenceSource) *PushSink {
	return &PushSink{pusher: pusher, users: users, prefs: prefs}
}

func (s *PushSink) Name() string { return "push" }

func (s *PushSink) Send(ctx context.Context, event booking.Event) error {
	b := event.Booking

	title, body := pushText(event)
	if title == "" {
		return nil
	}

	user, err := s.users.FindByID(ctx, b.UserID)
	if err != nil {
		return err
	}
	if user.FCMToken == "" {
		return nil
	}

	prefs, err := s.prefs.ForUser(ctx, b.UserID)
	if err != nil {
		return err
	}
	if !prefs.AllowsPush() {
		return nil
	}

	return s.pusher.SendToToken(ctx, user.FCMToken, services.NotificationPayload{
		Title: title,
		Body:  body,
		Tag:   fmt.Sprintf("booking_%d", b.ID),
		Data: map[string]interface{}{
			"type":      string(event.Kind),
			"bookingId": b.ID,
			"date":      b.Date.String(),
			"status":    string(b.Status),
		},
	})
}

func pushText(event booking.Event) (string, string) {
	b := event.Booking
	switch event.Kind {
	case booking.EventCreated:
		return "Booking request received", fmt.Sprintf("Your request for %s is pending review.", b.Date)
	case booking.EventWaitlisted:
		position := 0
		if b.WaitlistPosition != nil {
			position = *b.WaitlistPosition
		}
		return "You're on the waitlist", fmt.Sprintf("%s is taken. You are number %d in line.", b.Date, position)
	case booking.EventReviewed:
		if b.Status == models.BookingStatusApproved {
			return "Booking approved", fmt.Sprintf("Your booking for %s is confirmed.", b.Date)
		}
		return "Booking not approved", fmt.Sprintf("We could not accept your booking for %s.", b.Date)
	case booking.EventCancelled:
		return "Booking cancelled", fmt.Sprintf("Your booking for %s was cancelled.", b.Date)
	case booking.EventPromoted:
		return "Off the waitlist", fmt.Sprintf("Your booking for %s is now pending review.", b.Date)
	case booking.EventSpotAvailable:
		return "A spot opened up", fmt.Sprintf("%s just became available and you are first in line.", b.Date)
	}
	return "", ""
}
