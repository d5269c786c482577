// Package booking implements admission control for venue dates: who holds a
// date, who waits for it, and how bookings leave the live table.
package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chachabrian/venue-backend/internal/apperror"
	"github.com/chachabrian/venue-backend/internal/models"
	"github.com/chachabrian/venue-backend/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// maxAdmissionAttempts bounds how often a check-and-insert is re-run after the
// store rejects it on a unique index.
const maxAdmissionAttempts = 3

// maxCalendarSpan is the most days, inclusive, GetCalendarDates will expand.
const maxCalendarSpan = 366

type Service struct {
	db       *gorm.DB
	bookings *repository.BookingRepository
	history  *repository.HistoryRepository
	notifier Notifier
	log      *zap.Logger
	loc      *time.Location
	now      func() time.Time
}

type Option func(*Service)

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithLocation sets the venue timezone used to decide what "today" is.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(db *gorm.DB, log *zap.Logger, opts ...Option) *Service {
	s := &Service{
		db:       db,
		bookings: repository.NewBookingRepository(db),
		history:  repository.NewHistoryRepository(db),
		notifier: nopNotifier{},
		log:      log.Named("booking"),
		loc:      time.Local,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today returns the current date in the venue timezone.
func (s *Service) Today() models.Day {
	return models.DayOf(s.now().In(s.loc))
}

type CreateBookingInput struct {
	UserID      uint
	Date        models.Day
	EventType   models.EventType
	GuestCount  int
	Description string
}

func (in CreateBookingInput) validate(today models.Day) error {
	switch {
	case in.Date.IsZero():
		return ErrDateRequired
	case !in.EventType.IsValid():
		return ErrInvalidEventType
	case in.GuestCount < 1:
		return ErrInvalidGuestCount
	case in.Date.Before(today):
		return ErrDateInPast
	}
	return nil
}

// CreateBooking admits a request for a date. The first live request takes the
// date as PENDING; later ones join the waitlist behind it.
func (s *Service) CreateBooking(ctx context.Context, in CreateBookingInput) (*models.Booking, error) {
	if err := in.validate(s.Today()); err != nil {
		return nil, err
	}

	var created *models.Booking
	var err error
	for attempt := 1; attempt <= maxAdmissionAttempts; attempt++ {
		created, err = s.admit(ctx, in)
		if err == nil || !repository.IsDuplicate(err) {
			break
		}
		s.log.Debug("admission lost a race, retrying",
			zap.String("date", in.Date.String()),
			zap.Int("attempt", attempt),
		)
	}
	if err != nil {
		if repository.IsDuplicate(err) {
			return nil, ErrDateContention
		}
		return nil, storeError(err)
	}

	booking, err := s.bookings.FindByID(ctx, nil, created.ID)
	if err != nil {
		return nil, storeError(err)
	}

	s.log.Info("booking created",
		zap.Uint("booking_id", booking.ID),
		zap.Uint("user_id", booking.UserID),
		zap.String("date", booking.Date.String()),
		zap.String("status", string(booking.Status)),
	)

	kind := EventCreated
	if booking.Status == models.BookingStatusWaitlisted {
		kind = EventWaitlisted
	}
	s.emit(ctx, kind, booking)

	return booking, nil
}

func (s *Service) admit(ctx context.Context, in CreateBookingInput) (*models.Booking, error) {
	booking := &models.Booking{
		UserID:      in.UserID,
		Date:        in.Date,
		EventType:   in.EventType,
		GuestCount:  in.GuestCount,
		Description: in.Description,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := s.bookings.ExistsForUser(ctx, tx, in.UserID, in.Date)
		if err != nil {
			return err
		}
		if exists {
			return ErrAlreadyBooked
		}

		_, err = s.bookings.FindClaim(ctx, tx, in.Date, 0)
		switch {
		case err == nil:
			max, err := s.bookings.MaxWaitlistPosition(ctx, tx, in.Date)
			if err != nil {
				return err
			}
			position := max + 1
			booking.Status = models.BookingStatusWaitlisted
			booking.WaitlistPosition = &position
		case repository.IsNotFound(err):
			booking.Status = models.BookingStatusPending
		default:
			return err
		}

		return s.bookings.Create(ctx, tx, booking)
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

type ReviewInput struct {
	BookingID uint
	AdminID   uint
	Status    models.BookingStatus
	Note      *string
}

// ReviewBooking approves or rejects a booking. Approval requires the date to be
// free of any other claim; rejection archives the booking.
func (s *Service) ReviewBooking(ctx context.Context, in ReviewInput) (*models.Booking, error) {
	if in.Status != models.BookingStatusApproved && in.Status != models.BookingStatusRejected {
		return nil, ErrInvalidReview
	}

	var reviewed *models.Booking
	var releasedClaim bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := s.bookings.FindByID(ctx, tx, in.BookingID)
		if err != nil {
			return err
		}
		releasedClaim = b.Status.HoldsClaim()

		b.ReviewedByID = &in.AdminID
		b.ReviewNote = in.Note
		reviewed = b

		if in.Status == models.BookingStatusRejected {
			b.Status = models.BookingStatusRejected
			return s.archive(ctx, tx, b, models.HistoryReasonRejected)
		}

		if b.Status == models.BookingStatusApproved {
			return ErrAlreadyApproved
		}
		if _, err := s.bookings.FindClaim(ctx, tx, b.Date, b.ID); err == nil {
			return ErrDateTaken
		} else if !repository.IsNotFound(err) {
			return err
		}

		b.Status = models.BookingStatusApproved
		b.WaitlistPosition = nil
		return s.bookings.Update(ctx, tx, b)
	})
	if err != nil {
		if repository.IsDuplicate(err) {
			return nil, ErrDateTaken
		}
		return nil, storeError(err)
	}

	s.log.Info("booking reviewed",
		zap.Uint("booking_id", reviewed.ID),
		zap.Uint("admin_id", in.AdminID),
		zap.String("status", string(reviewed.Status)),
	)

	s.emit(ctx, EventReviewed, reviewed)
	if reviewed.Status == models.BookingStatusRejected && releasedClaim {
		s.announceSpot(ctx, reviewed.Date)
	}

	return reviewed, nil
}

// CancelBooking archives the owner's booking and returns it as it was at the
// moment of cancellation.
func (s *Service) CancelBooking(ctx context.Context, bookingID, userID uint) (*models.Booking, error) {
	var cancelled *models.Booking
	var releasedClaim bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := s.bookings.FindByID(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if !b.BelongsTo(userID) {
			return ErrNotOwner
		}

		releasedClaim = b.Status.HoldsClaim()
		b.Status = models.BookingStatusCancelled
		cancelled = b
		return s.archive(ctx, tx, b, models.HistoryReasonCancelled)
	})
	if err != nil {
		return nil, storeError(err)
	}

	s.log.Info("booking cancelled",
		zap.Uint("booking_id", cancelled.ID),
		zap.Uint("user_id", userID),
	)

	s.emit(ctx, EventCancelled, cancelled)
	if releasedClaim {
		s.announceSpot(ctx, cancelled.Date)
	}

	return cancelled, nil
}

// PromoteWaitlistedBooking moves a waitlisted booking into the claim on its
// date. Positions of the bookings still waiting are left as they are.
func (s *Service) PromoteWaitlistedBooking(ctx context.Context, bookingID uint) (*models.Booking, error) {
	var promoted *models.Booking
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := s.bookings.FindByID(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if b.Status != models.BookingStatusWaitlisted {
			return ErrNotWaitlisted
		}
		if _, err := s.bookings.FindClaim(ctx, tx, b.Date, b.ID); err == nil {
			return ErrDateTaken
		} else if !repository.IsNotFound(err) {
			return err
		}

		b.Status = models.BookingStatusPending
		b.WaitlistPosition = nil
		promoted = b
		return s.bookings.Update(ctx, tx, b)
	})
	if err != nil {
		if repository.IsDuplicate(err) {
			return nil, ErrDateTaken
		}
		return nil, storeError(err)
	}

	s.log.Info("booking promoted",
		zap.Uint("booking_id", promoted.ID),
		zap.String("date", promoted.Date.String()),
	)
	s.emit(ctx, EventPromoted, promoted)

	return promoted, nil
}

// MovePastBookingsToHistory archives every live booking dated before today, one
// transaction per booking. Bookings archived concurrently by someone else are
// skipped. On failure it returns how many were archived before the error.
func (s *Service) MovePastBookingsToHistory(ctx context.Context) (int, error) {
	today := s.Today()

	ids, err := s.bookings.FindIDsBefore(ctx, nil, today)
	if err != nil {
		return 0, storeError(err)
	}

	moved := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return moved, err
		}

		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			b, err := s.bookings.FindByID(ctx, tx, id)
			if err != nil {
				return err
			}
			return s.archive(ctx, tx, b, models.HistoryReasonPastDate)
		})
		if repository.IsNotFound(err) {
			continue
		}
		if err != nil {
			s.log.Error("archiving past booking failed",
				zap.Uint("booking_id", id),
				zap.Int("moved", moved),
				zap.Error(err),
			)
			return moved, storeError(err)
		}
		moved++
	}

	if moved > 0 {
		s.log.Info("past bookings archived",
			zap.Int("count", moved),
			zap.String("before", today.String()),
		)
	}
	return moved, nil
}

// archive writes the history record and removes the live row. It must run
// inside tx. A booking already archived elsewhere yields gorm.ErrRecordNotFound.
func (s *Service) archive(ctx context.Context, tx *gorm.DB, b *models.Booking, reason models.HistoryReason) error {
	entry := models.NewBookingHistory(b, b.User, reason, s.now().UTC())
	if err := s.history.Create(ctx, tx, entry); err != nil {
		if repository.IsDuplicate(err) {
			return gorm.ErrRecordNotFound
		}
		return err
	}
	return s.bookings.Delete(ctx, tx, b.ID)
}

// GetCalendarDates returns one entry per day in [start, end].
func (s *Service) GetCalendarDates(ctx context.Context, start, end models.Day) ([]models.CalendarDay, error) {
	if start.IsZero() || end.IsZero() {
		return nil, ErrDateRequired
	}
	if start.After(end) {
		return nil, ErrInvalidRange
	}
	if end.After(start.AddDays(maxCalendarSpan - 1)) {
		return nil, ErrInvalidRange.WithMessage("range cannot exceed %d days", maxCalendarSpan)
	}

	bookings, err := s.bookings.FindInRange(ctx, nil, start, end)
	if err != nil {
		return nil, storeError(err)
	}

	byDate := make(map[string][]models.Booking)
	for _, b := range bookings {
		key := b.Date.String()
		byDate[key] = append(byDate[key], b)
	}

	var days []models.CalendarDay
	for d := start; !d.After(end); d = d.AddDays(1) {
		day := models.CalendarDay{Date: d, IsAvailable: true}
		for i, b := range byDate[d.String()] {
			if i == 0 {
				status := b.Status
				day.Status = &status
				day.IsAvailable = false
			}
			if b.Status == models.BookingStatusWaitlisted {
				day.WaitlistCount++
			}
		}
		days = append(days, day)
	}
	return days, nil
}

// CanUserBook reports whether the user has no live booking on date yet.
func (s *Service) CanUserBook(ctx context.Context, userID uint, date models.Day) (bool, error) {
	if date.IsZero() {
		return false, ErrDateRequired
	}
	exists, err := s.bookings.ExistsForUser(ctx, nil, userID, date)
	if err != nil {
		return false, storeError(err)
	}
	return !exists, nil
}

// CanApproveBooking reports whether no other booking holds the booking's date.
func (s *Service) CanApproveBooking(ctx context.Context, bookingID uint) (bool, error) {
	b, err := s.bookings.FindByID(ctx, nil, bookingID)
	if err != nil {
		return false, storeError(err)
	}
	_, err = s.bookings.FindClaim(ctx, nil, b.Date, b.ID)
	switch {
	case err == nil:
		return false, nil
	case repository.IsNotFound(err):
		return true, nil
	default:
		return false, storeError(err)
	}
}

func (s *Service) GetBooking(ctx context.Context, bookingID uint) (*models.Booking, error) {
	b, err := s.bookings.FindByID(ctx, nil, bookingID)
	if err != nil {
		return nil, storeError(err)
	}
	return b, nil
}

func (s *Service) ListBookings(ctx context.Context, f repository.BookingFilter) ([]models.Booking, int64, error) {
	bookings, total, err := s.bookings.List(ctx, nil, f)
	if err != nil {
		return nil, 0, storeError(err)
	}
	return bookings, total, nil
}

func (s *Service) ListHistory(ctx context.Context, f repository.HistoryFilter) ([]models.BookingHistory, int64, error) {
	entries, total, err := s.history.List(ctx, nil, f)
	if err != nil {
		return nil, 0, storeError(err)
	}
	return entries, total, nil
}

// announceSpot tells the head of the waitlist that the date it waits for was
// released. Nothing is promoted automatically.
func (s *Service) announceSpot(ctx context.Context, date models.Day) {
	if date.Before(s.Today()) {
		return
	}
	head, err := s.bookings.FindWaitlistHead(ctx, nil, date)
	if err != nil {
		if !repository.IsNotFound(err) {
			s.log.Warn("looking up waitlist head failed", zap.String("date", date.String()), zap.Error(err))
		}
		return
	}
	s.emit(ctx, EventSpotAvailable, head)
}

func (s *Service) emit(ctx context.Context, kind EventKind, b *models.Booking) {
	s.notifier.Notify(ctx, Event{
		Kind:       kind,
		Booking:    *b,
		OccurredAt: s.now().UTC(),
	})
}

// storeError passes typed errors through and classifies store errors.
func storeError(err error) error {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return err
	}
	if repository.IsNotFound(err) {
		return ErrBookingNotFound
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return apperror.Unexpected(fmt.Errorf("booking store: %w", err))
}
