package models

// CalendarDay is the derived availability of one date.
// Status is the status of the first booking found that day and is not
// authoritative when several bookings coexist; use WaitlistCount for the queue.
type CalendarDay struct {
	Date          Day            `json:"date"`
	IsAvailable   bool           `json:"isAvailable"`
	Status        *BookingStatus `json:"status"`
	WaitlistCount int            `json:"waitlistCount"`
}
