package notify

import (
	"context"

	"github.com/chachabrian/venue-backend/internal/booking"
	"github.com/chachabrian/venue-backend/internal/models"
	"github.com/chachabrian/venue-backend/pkg/utils"
)

// PreferenceSource looks up a user's notification preferences.
type PreferenceSource interface {
	ForUser(ctx context.Context, userID uint) (*models.NotificationPreference, error)
}

// EmailSink mails the booking owner and, for new, waitlisted and cancelled
// bookings, the venue admin inbox.
type EmailSink struct {
	mailer     *utils.Mailer
	send       func(to []string, subject, body string) error
	prefs      PreferenceSource
	adminEmail string
}

func NewEmailSink(mailer *utils.Mailer, prefs PreferenceSource, adminEmail string) *EmailSink {
	return &EmailSink{
		mailer:     mailer,
		send:       mailer.Send,
		prefs:      prefs,
		adminEmail: adminEmail,
	}
}

func (s *EmailSink) Name() string { return "email" }

func (s *EmailSink) Send(ctx context.Context, event booking.Event) error {
	b := &event.Booking

	if action := adminAction(event.Kind); action != "" && s.adminEmail != "" {
		subject, body := s.mailer.AdminBookingEmail(b, action)
		if err := s.send([]string{s.adminEmail}, subject, body); err != nil {
			return err
		}
	}

	if b.User == nil || b.User.Email == "" {
		return nil
	}
	prefs, err := s.prefs.ForUser(ctx, b.UserID)
	if err != nil {
		return err
	}
	if !prefs.AllowsEmail() {
		return nil
	}

	var subject, body string
	switch event.Kind {
	case booking.EventCreated:
		subject, body = s.mailer.BookingReceivedEmail(b)
	case booking.EventWaitlisted:
		subject, body = s.mailer.BookingWaitlistedEmail(b)
	case booking.EventReviewed:
		subject, body = s.mailer.BookingReviewedEmail(b)
	case booking.EventCancelled:
		subject, body = s.mailer.BookingCancelledEmail(b)
	case booking.EventPromoted:
		subject, body = s.mailer.BookingPromotedEmail(b)
	case booking.EventSpotAvailable:
		subject, body = s.mailer.SpotAvailableEmail(b)
	default:
		return nil
	}
	return s.send([]string{b.User.Email}, subject, body)
}

func adminAction(kind booking.EventKind) string {
	switch kind {
	case booking.EventCreated:
		return "Requested"
	case booking.EventWaitlisted:
		return "Waitlisted"
	case booking.EventCancelled:
		return "Cancelled"
	}
	return ""
}
