package repository

import (
	"context"
	"errors"

	"github.com/chachabrian/venue-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile writes the user-editable profile fields.
func (r *UserRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).
		Model(user).
		Select("name", "phone", "updated_at").
		Updates(user).Error
}

// SetFCMToken stores token for the user; an empty token unregisters the device.
func (r *UserRepository) SetFCMToken(ctx context.Context, userID uint, token string) error {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("fcm_token", token)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// EmailsByRole lists the addresses of every user holding role.
func (r *UserRepository) EmailsByRole(ctx context.Context, role models.Role) ([]string, error) {
	var emails []string
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("role = ?", role).
		Order("id ASC").
		Pluck("email", &emails).Error
	return emails, err
}

// GrantAdmin gives the admin role to the existing accounts registered under
// emails and returns the addresses that were promoted.
func (r *UserRepository) GrantAdmin(ctx context.Context, emails []string) ([]string, error) {
	if len(emails) == 0 {
		return nil, nil
	}
	var promoted []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).
			Where("email IN ? AND role <> ?", emails, models.RoleAdmin).
			Order("id ASC").
			Pluck("email", &promoted).Error; err != nil {
			return err
		}
		if len(promoted) == 0 {
			return nil
		}
		return tx.Model(&models.User{}).
			Where("email IN ?", promoted).
			Update("role", models.RoleAdmin).Error
	})
	return promoted, err
}

// PromotionalPushTokens returns the device tokens of users who accept
// promotional push notifications. Users without a preference row accept them.
func (r *UserRepository) PromotionalPushTokens(ctx context.Context) ([]string, error) {
	var tokens []string
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Joins("LEFT JOIN notification_preferences p ON p.user_id = users.id").
		Where("users.fcm_token <> ''").
		Where("p.id IS NULL OR (p.push_enabled AND p.promotional_messages)").
		Order("users.id ASC").
		Pluck("users.fcm_token", &tokens).Error
	return tokens, err
}

type PreferenceRepository struct {
	db *gorm.DB
}

func NewPreferenceRepository(db *gorm.DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

// ForUser returns the user's preferences, creating the defaults on first access.
func (r *PreferenceRepository) ForUser(ctx context.Context, userID uint) (*models.NotificationPreference, error) {
	var prefs models.NotificationPreference
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&prefs).Error
	if err == nil {
		return &prefs, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	defaults := models.DefaultPreferences(userID)
	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(defaults).Error
	if err != nil {
		return nil, err
	}
	// A concurrent request may have created the row first.
	if defaults.ID == 0 {
		if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&prefs).Error; err != nil {
			return nil, err
		}
		return &prefs, nil
	}
	return defaults, nil
}

func (r *PreferenceRepository) Save(ctx context.Context, prefs *models.NotificationPreference) error {
	return r.db.WithContext(ctx).
		Model(prefs).
		Select("email_enabled", "push_enabled", "booking_alerts", "promotional_messages", "updated_at").
		Updates(prefs).Error
}
