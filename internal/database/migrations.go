package database

import (
	"fmt"

	"github.com/chachabrian/venue-backend/internal/models"
	"gorm.io/gorm"
)

// Indexes that AutoMigrate cannot express. The partial unique indexes are what
// keep concurrent requests from both claiming the same date.
var bookingIndexes = []string{
	// at most one PENDING/APPROVED booking per date
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_bookings_date_claim
		ON bookings (date) WHERE status IN ('PENDING', 'APPROVED')`,
	// waitlist positions are unique per date
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_bookings_date_waitlist
		ON bookings (date, waitlist_position) WHERE waitlist_position IS NOT NULL`,
	// one live booking per user per date
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_bookings_user_date
		ON bookings (user_id, date)`,
}

func RunMigrations(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.NotificationPreference{},
		&models.Booking{},
		&models.BookingHistory{},
		&models.Tag{},
		&models.Media{},
		&models.Bookmark{},
		&models.Collection{},
	)
	if err != nil {
		return err
	}

	for _, stmt := range bookingIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}

	return nil
}
