package repository

import (
	"context"

	"github.com/chachabrian/venue-backend/internal/models"
	"gorm.io/gorm"
)

type HistoryFilter struct {
	UserID   uint
	Status   models.BookingStatus
	Reason   models.HistoryReason
	Page     int
	PageSize int
}

type HistoryRepository struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

func (r *HistoryRepository) conn(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx)
}

func (r *HistoryRepository) Create(ctx context.Context, tx *gorm.DB, entry *models.BookingHistory) error {
	return r.conn(ctx, tx).Create(entry).Error
}

func (r *HistoryRepository) FindByOriginalID(ctx context.Context, tx *gorm.DB, bookingID uint) (*models.BookingHistory, error) {
	var entry models.BookingHistory
	err := r.conn(ctx, tx).Where("original_booking_id = ?", bookingID).First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// List returns archived bookings, most recently archived first.
func (r *HistoryRepository) List(ctx context.Context, tx *gorm.DB, f HistoryFilter) ([]models.BookingHistory, int64, error) {
	q := r.conn(ctx, tx).Model(&models.BookingHistory{})
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Reason != "" {
		q = q.Where("reason = ?", f.Reason)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []models.BookingHistory
	err := Paginate(q, f.Page, f.PageSize).
		Order("moved_to_history_at DESC, id DESC").
		Find(&entries).Error
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}
