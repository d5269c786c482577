package models

import (
	"time"
)

// NotificationPreference represents user notification preferences
type NotificationPreference struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex;not null" json:"userId"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Channel toggles
	EmailEnabled bool `gorm:"column:email_enabled;default:true" json:"emailEnabled"`
	PushEnabled  bool `gorm:"column:push_enabled;default:true" json:"pushEnabled"`

	// Booking status changes and waitlist openings
	BookingAlerts bool `gorm:"column:booking_alerts;default:true" json:"bookingAlerts"`
	// Gallery additions and venue announcements
	PromotionalMessages bool `gorm:"column:promotional_messages;default:true" json:"promotionalMessages"`
}

// TableName specifies the table name for NotificationPreference
func (NotificationPreference) TableName() string {
	return "notification_preferences"
}

// DefaultPreferences returns default notification preferences for a new user
func DefaultPreferences(userID uint) *NotificationPreference {
	return &NotificationPreference{
		UserID:              userID,
		EmailEnabled:        true,
		PushEnabled:         true,
		BookingAlerts:       true,
		PromotionalMessages: true,
	}
}

// AllowsEmail reports whether booking emails may be sent under these preferences.
func (p *NotificationPreference) AllowsEmail() bool {
	return p.EmailEnabled && p.BookingAlerts
}

// AllowsPush reports whether booking push notifications may be sent.
func (p *NotificationPreference) AllowsPush() bool {
	return p.PushEnabled && p.BookingAlerts
}
