package booking

import "github.com/chachabrian/venue-backend/internal/apperror"

var (
	ErrBookingNotFound   = apperror.New(apperror.KindNotFound, "BOOKING_NOT_FOUND", "booking not found")
	ErrNotOwner          = apperror.New(apperror.KindForbidden, "BOOKING_FORBIDDEN", "you can only modify your own bookings")
	ErrDateTaken         = apperror.New(apperror.KindConflict, "DATE_UNAVAILABLE", "another booking already holds this date")
	ErrAlreadyBooked     = apperror.New(apperror.KindConflict, "ALREADY_BOOKED", "you already have a booking for this date")
	ErrAlreadyApproved   = apperror.New(apperror.KindConflict, "BOOKING_ALREADY_APPROVED", "booking is already approved")
	ErrNotWaitlisted     = apperror.New(apperror.KindConflict, "BOOKING_NOT_WAITLISTED", "only waitlisted bookings can be promoted")
	ErrDateContention    = apperror.New(apperror.KindConflict, "DATE_CONTENTION", "too many concurrent requests for this date, please retry")
	ErrDateRequired      = apperror.New(apperror.KindValidation, "DATE_REQUIRED", "date is required")
	ErrDateInPast        = apperror.New(apperror.KindValidation, "DATE_IN_PAST", "date cannot be in the past")
	ErrInvalidEventType  = apperror.New(apperror.KindValidation, "INVALID_EVENT_TYPE", "eventType is missing or not recognised")
	ErrInvalidGuestCount = apperror.New(apperror.KindValidation, "INVALID_GUEST_COUNT", "guestCount must be at least 1")
	ErrInvalidReview     = apperror.New(apperror.KindValidation, "INVALID_REVIEW_STATUS", "status must be APPROVED or REJECTED")
	ErrInvalidRange      = apperror.New(apperror.KindValidation, "INVALID_DATE_RANGE", "start must not be after end")
)
