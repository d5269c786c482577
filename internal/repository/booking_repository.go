package repository

import (
	"context"
	"errors"

	"github.com/chachabrian/venue-backend/internal/models"
	"gorm.io/gorm"
)

// BookingFilter narrows live booking listings. Zero values are ignored.
type BookingFilter struct {
	UserID   uint
	Date     models.Day
	Status   models.BookingStatus
	Page     int
	PageSize int
}

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) DB() *gorm.DB {
	return r.db
}

func (r *BookingRepository) conn(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx)
}

// withUser preloads only the owner fields that are safe to expose.
func withUser(db *gorm.DB) *gorm.DB {
	return db.Preload("User", func(db *gorm.DB) *gorm.DB {
		return db.Select("id", "name", "email")
	})
}

func (r *BookingRepository) Create(ctx context.Context, tx *gorm.DB, booking *models.Booking) error {
	return r.conn(ctx, tx).Create(booking).Error
}

func (r *BookingRepository) FindByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Booking, error) {
	var booking models.Booking
	if err := withUser(r.conn(ctx, tx)).First(&booking, id).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

// FindClaim returns the booking holding the claim on date (PENDING or APPROVED),
// ignoring excludeID. It returns gorm.ErrRecordNotFound when the date is free.
func (r *BookingRepository) FindClaim(ctx context.Context, tx *gorm.DB, date models.Day, excludeID uint) (*models.Booking, error) {
	q := r.conn(ctx, tx).
		Where("date = ? AND status IN ?", date, models.ClaimStatuses)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}

	var booking models.Booking
	if err := q.Order("id ASC").First(&booking).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

// MaxWaitlistPosition returns the highest waitlist position on date, 0 when none.
func (r *BookingRepository) MaxWaitlistPosition(ctx context.Context, tx *gorm.DB, date models.Day) (int, error) {
	var max int
	err := r.conn(ctx, tx).
		Model(&models.Booking{}).
		Where("date = ? AND waitlist_position IS NOT NULL", date).
		Select("COALESCE(MAX(waitlist_position), 0)").
		Scan(&max).Error
	return max, err
}

// FindWaitlistHead returns the waitlisted booking with the lowest position on date.
func (r *BookingRepository) FindWaitlistHead(ctx context.Context, tx *gorm.DB, date models.Day) (*models.Booking, error) {
	var booking models.Booking
	err := withUser(r.conn(ctx, tx)).
		Where("date = ? AND status = ?", date, models.BookingStatusWaitlisted).
		Order("waitlist_position ASC, id ASC").
		First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *BookingRepository) ExistsForUser(ctx context.Context, tx *gorm.DB, userID uint, date models.Day) (bool, error) {
	var count int64
	err := r.conn(ctx, tx).
		Model(&models.Booking{}).
		Where("user_id = ? AND date = ? AND status <> ?", userID, date, models.BookingStatusCancelled).
		Count(&count).Error
	return count > 0, err
}

// Update writes the mutable review and queue fields of booking.
func (r *BookingRepository) Update(ctx context.Context, tx *gorm.DB, booking *models.Booking) error {
	return r.conn(ctx, tx).
		Model(booking).
		Select("status", "waitlist_position", "reviewed_by_id", "review_note", "updated_at").
		Updates(booking).Error
}

// Delete removes the live row. It returns gorm.ErrRecordNotFound when nothing was
// deleted so a concurrent archival is detected by the transaction that lost.
func (r *BookingRepository) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	res := r.conn(ctx, tx).Delete(&models.Booking{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FindInRange returns every live booking dated within [start, end].
func (r *BookingRepository) FindInRange(ctx context.Context, tx *gorm.DB, start, end models.Day) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.conn(ctx, tx).
		Where("date >= ? AND date <= ?", start, end).
		Order("date ASC, id ASC").
		Find(&bookings).Error
	return bookings, err
}

// FindIDsBefore returns the ids of live bookings dated strictly before day.
func (r *BookingRepository) FindIDsBefore(ctx context.Context, tx *gorm.DB, day models.Day) ([]uint, error) {
	var ids []uint
	err := r.conn(ctx, tx).
		Model(&models.Booking{}).
		Where("date < ?", day).
		Order("date ASC, id ASC").
		Pluck("id", &ids).Error
	return ids, err
}

func (r *BookingRepository) List(ctx context.Context, tx *gorm.DB, f BookingFilter) ([]models.Booking, int64, error) {
	q := r.conn(ctx, tx).Model(&models.Booking{})
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if !f.Date.IsZero() {
		q = q.Where("date = ?", f.Date)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var bookings []models.Booking
	err := withUser(Paginate(q, f.Page, f.PageSize)).
		Order("date ASC, waitlist_position ASC, id ASC").
		Find(&bookings).Error
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// IsNotFound reports whether err means the record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicate reports whether err is a unique constraint violation.
func IsDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// Paginate applies page/pageSize with the package defaults and cap.
func Paginate(q *gorm.DB, page, pageSize int) *gorm.DB {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	if page < 1 {
		page = 1
	}
	return q.Offset((page - 1) * pageSize).Limit(pageSize)
}
