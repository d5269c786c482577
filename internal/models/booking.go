package models

import (
	"time"
)

type BookingStatus string

const (
	BookingStatusPending    BookingStatus = "PENDING"
	BookingStatusApproved   BookingStatus = "APPROVED"
	BookingStatusWaitlisted BookingStatus = "WAITLISTED"
	BookingStatusRejected   BookingStatus = "REJECTED"
	BookingStatusCancelled  BookingStatus = "CANCELLED"
)

func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingStatusPending, BookingStatusApproved, BookingStatusWaitlisted,
		BookingStatusRejected, BookingStatusCancelled:
		return true
	}
	return false
}

// HoldsClaim reports whether a booking in this status occupies its date.
// At most one live booking per date may hold the claim.
func (s BookingStatus) HoldsClaim() bool {
	return s == BookingStatusPending || s == BookingStatusApproved
}

// ClaimStatuses are the statuses that occupy a date.
var ClaimStatuses = []BookingStatus{BookingStatusPending, BookingStatusApproved}

type EventType string

const (
	EventTypeWedding         EventType = "WEDDING"
	EventTypeEngagement      EventType = "ENGAGEMENT"
	EventTypeReception       EventType = "RECEPTION"
	EventTypeRehearsalDinner EventType = "REHEARSAL_DINNER"
	EventTypeCorporate       EventType = "CORPORATE"
	EventTypeOther           EventType = "OTHER"
)

func (e EventType) IsValid() bool {
	switch e {
	case EventTypeWedding, EventTypeEngagement, EventTypeReception,
		EventTypeRehearsalDinner, EventTypeCorporate, EventTypeOther:
		return true
	}
	return false
}

// Booking is a live reservation request for a single date. Terminal bookings
// never stay in this table; they are moved to BookingHistory.
type Booking struct {
	ID               uint          `gorm:"primaryKey" json:"id"`
	UserID           uint          `gorm:"not null;index" json:"userId"`
	User             *User         `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Date             Day           `gorm:"type:varchar(10);not null;index" json:"date"`
	EventType        EventType     `gorm:"type:varchar(32);not null" json:"eventType"`
	GuestCount       int           `gorm:"not null" json:"guestCount"`
	Description      string        `gorm:"type:text" json:"description"`
	Status           BookingStatus `gorm:"type:varchar(16);not null;index" json:"status"`
	WaitlistPosition *int          `json:"waitlistPosition"`
	ReviewedByID     *uint         `json:"reviewedBy,omitempty"`
	ReviewNote       *string       `gorm:"type:text" json:"reviewNote,omitempty"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}

func (b *Booking) BelongsTo(userID uint) bool {
	return b.UserID == userID
}
