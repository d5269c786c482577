package models

import "time"

type HistoryReason string

const (
	HistoryReasonCancelled HistoryReason = "CANCELLED"
	HistoryReasonPastDate  HistoryReason = "PAST_DATE"
	HistoryReasonRejected  HistoryReason = "REJECTED"
)

func (r HistoryReason) IsValid() bool {
	switch r {
	case HistoryReasonCancelled, HistoryReasonPastDate, HistoryReasonRejected:
		return true
	}
	return false
}

// BookingHistory is the append-only archive of bookings that left the live table.
// User name and email are copied at archive time so the record outlives the user.
type BookingHistory struct {
	ID                uint          `gorm:"primaryKey" json:"id"`
	OriginalBookingID uint          `gorm:"not null;uniqueIndex" json:"originalBookingId"`
	UserID            uint          `gorm:"not null;index" json:"userId"`
	UserName          string        `json:"userName"`
	UserEmail         string        `json:"userEmail"`
	Date              Day           `gorm:"type:varchar(10);not null;index" json:"date"`
	EventType         EventType     `gorm:"type:varchar(32);not null" json:"eventType"`
	GuestCount        int           `gorm:"not null" json:"guestCount"`
	Description       string        `gorm:"type:text" json:"description"`
	Status            BookingStatus `gorm:"type:varchar(16);not null" json:"status"`
	WaitlistPosition  *int          `json:"waitlistPosition"`
	ReviewedByID      *uint         `json:"reviewedBy,omitempty"`
	ReviewNote        *string       `gorm:"type:text" json:"reviewNote,omitempty"`
	Reason            HistoryReason `gorm:"type:varchar(16);not null;index" json:"reason"`
	BookingCreatedAt  time.Time     `json:"createdAt"`
	MovedToHistoryAt  time.Time     `gorm:"not null" json:"movedToHistoryAt"`
}

func (BookingHistory) TableName() string {
	return "booking_history"
}

// NewBookingHistory snapshots b and its owner into an archive record.
func NewBookingHistory(b *Booking, owner *User, reason HistoryReason, movedAt time.Time) *BookingHistory {
	h := &BookingHistory{
		OriginalBookingID: b.ID,
		UserID:            b.UserID,
		Date:              b.Date,
		EventType:         b.EventType,
		GuestCount:        b.GuestCount,
		Description:       b.Description,
		Status:            b.Status,
		WaitlistPosition:  b.WaitlistPosition,
		ReviewedByID:      b.ReviewedByID,
		ReviewNote:        b.ReviewNote,
		Reason:            reason,
		BookingCreatedAt:  b.CreatedAt,
		MovedToHistoryAt:  movedAt,
	}
	if owner != nil {
		h.UserName = owner.Name
		h.UserEmail = owner.Email
	}
	return h
}
