// Package gallery manages the venue's photo and video gallery along with the
// tags, bookmarks and collections users organise it with.
package gallery

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/chachabrian/venue-backend/internal/apperror"
	"github.com/chachabrian/venue-backend/internal/models"
	"github.com/chachabrian/venue-backend/internal/repository"
	"github.com/chachabrian/venue-backend/internal/services"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	uploadFolder  = "gallery"
	maxTagNameLen = 50
)

// BlobStore is where uploaded files live. *services.Storage satisfies it.
type BlobStore interface {
	Upload(ctx context.Context, folder, filename string, r io.Reader) (*services.StoredObject, error)
	Delete(ctx context.Context, key string) error
}

type Service struct {
	db    *gorm.DB
	blobs BlobStore
	log   *zap.Logger
}

func NewService(db *gorm.DB, blobs BlobStore, log *zap.Logger) *Service {
	return &Service{db: db, blobs: blobs, log: log.Named("gallery")}
}

type UploadInput struct {
	Title       string
	Description string
	Filename    string
	Body        io.Reader
	Tags        []string
	Metadata    map[string]interface{}
	UploadedBy  uint
}

// Upload stores the file and records it. The blob is removed again when the
// row cannot be written.
func (s *Service) Upload(ctx context.Context, in UploadInput) (*models.Media, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	tags, err := normalizeTags(in.Tags)
	if err != nil {
		return nil, err
	}

	obj, err := s.blobs.Upload(ctx, uploadFolder, in.Filename, in.Body)
	if err != nil {
		return nil, apperror.Unexpected(err)
	}

	kind, ok := kindOf(obj.ContentType)
	if !ok {
		s.discardBlob(ctx, obj.Key)
		return nil, ErrUnsupportedMedia.WithMessage("unsupported media type %s", obj.ContentType)
	}

	media := &models.Media{
		Title:        title,
		Description:  strings.TrimSpace(in.Description),
		Kind:         kind,
		URL:          obj.URL,
		StorageKey:   obj.Key,
		ContentType:  obj.ContentType,
		UploadedByID: in.UploadedBy,
	}
	if len(in.Metadata) > 0 {
		media.Metadata = datatypes.JSONMap(in.Metadata)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		resolved, err := resolveTags(tx, tags)
		if err != nil {
			return err
		}
		media.Tags = resolved
		return tx.Omit("Tags.*").Create(media).Error
	})
	if err != nil {
		s.discardBlob(ctx, obj.Key)
		return nil, apperror.Unexpected(err)
	}

	s.log.Info("media uploaded",
		zap.Uint("media_id", media.ID),
		zap.String("kind", string(kind)),
		zap.Int64("size", obj.Size),
	)
	return media, nil
}

func (s *Service) discardBlob(ctx context.Context, key string) {
	if err := s.blobs.Delete(context.WithoutCancel(ctx), key); err != nil {
		s.log.Warn("failed to remove orphaned blob", zap.String("key", key), zap.Error(err))
	}
}

func kindOf(contentType string) (models.MediaKind, bool) {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return models.MediaKindImage, true
	case strings.HasPrefix(contentType, "video/"):
		return models.MediaKindVideo, true
	}
	return "", false
}

type MediaFilter struct {
	Tag      string
	Kind     models.MediaKind
	Page     int
	PageSize int
}

// List returns media newest first, optionally narrowed to a tag or kind.
func (s *Service) List(ctx context.Context, f MediaFilter) ([]models.Media, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Media{})
	if f.Kind != "" {
		q = q.Where("kind = ?", f.Kind)
	}
	if tag := strings.ToLower(strings.TrimSpace(f.Tag)); tag != "" {
		q = q.Where("id IN (?)",
			s.db.WithContext(ctx).Table("media_tags").
				Select("media_tags.media_id").
				Joins("JOIN tags ON tags.id = media_tags.tag_id").
				Where("tags.name = ?", tag),
		)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, apperror.Unexpected(err)
	}

	var media []models.Media
	err := repository.Paginate(q, f.Page, f.PageSize).
		Preload("Tags").
		Order("created_at DESC, id DESC").
		Find(&media).Error
	if err != nil {
		return nil, 0, apperror.Unexpected(err)
	}
	return media, total, nil
}

func (s *Service) Get(ctx context.Context, id uint) (*models.Media, error) {
	var media models.Media
	if err := s.db.WithContext(ctx).Preload("Tags").First(&media, id).Error; err != nil {
		return nil, notFound(err, ErrMediaNotFound)
	}
	return &media, nil
}

// Delete removes the media row and everything pointing at it, then the blob.
// A blob that cannot be removed is logged and left behind.
func (s *Service) Delete(ctx context.Context, id uint) error {
	var media models.Media
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&media, id).Error; err != nil {
			return err
		}
		for _, stmt := range []string{
			"DELETE FROM media_tags WHERE media_id = ?",
			"DELETE FROM collection_media WHERE media_id = ?",
			"DELETE FROM bookmarks WHERE media_id = ?",
		} {
			if err := tx.Exec(stmt, id).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&media).Error
	})
	if err != nil {
		return notFound(err, ErrMediaNotFound)
	}

	if err := s.blobs.Delete(ctx, media.StorageKey); err != nil {
		s.log.Warn("failed to delete media blob",
			zap.Uint("media_id", id),
			zap.String("key", media.StorageKey),
			zap.Error(err),
		)
	}
	return nil
}

func (s *Service) ListTags(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&tags).Error; err != nil {
		return nil, apperror.Unexpected(err)
	}
	return tags, nil
}

func (s *Service) CreateTag(ctx context.Context, name string) (*models.Tag, error) {
	name, err := normalizeTag(name)
	if err != nil {
		return nil, err
	}
	tag := &models.Tag{Name: name}
	if err := s.db.WithContext(ctx).Create(tag).Error; err != nil {
		if repository.IsDuplicate(err) {
			return nil, ErrTagExists
		}
		return nil, apperror.Unexpected(err)
	}
	return tag, nil
}

func (s *Service) DeleteTag(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM media_tags WHERE tag_id = ?", id).Error; err != nil {
			return apperror.Unexpected(err)
		}
		res := tx.Delete(&models.Tag{}, id)
		if res.Error != nil {
			return apperror.Unexpected(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrTagNotFound
		}
		return nil
	})
}

// SetMediaTags replaces the tags on a media item, creating unknown tags.
func (s *Service) SetMediaTags(ctx context.Context, mediaID uint, names []string) (*models.Media, error) {
	names, err := normalizeTags(names)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var media models.Media
		if err := tx.First(&media, mediaID).Error; err != nil {
			return err
		}
		tags, err := resolveTags(tx, names)
		if err != nil {
			return err
		}
		return tx.Model(&media).Association("Tags").Replace(tags)
	})
	if err != nil {
		return nil, notFound(err, ErrMediaNotFound)
	}
	return s.Get(ctx, mediaID)
}

// AddBookmark saves media for the user. Bookmarking twice is a no-op.
func (s *Service) AddBookmark(ctx context.Context, userID, mediaID uint) error {
	if _, err := s.Get(ctx, mediaID); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Bookmark{UserID: userID, MediaID: mediaID}).Error
	if err != nil {
		return apperror.Unexpected(err)
	}
	return nil
}

func (s *Service) RemoveBookmark(ctx context.Context, userID, mediaID uint) error {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND media_id = ?", userID, mediaID).
		Delete(&models.Bookmark{})
	if res.Error != nil {
		return apperror.Unexpected(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrMediaNotFound.WithMessage("bookmark not found")
	}
	return nil
}

// ListBookmarks returns the user's bookmarked media, most recently saved first.
func (s *Service) ListBookmarks(ctx context.Context, userID uint) ([]models.Media, error) {
	var media []models.Media
	err := s.db.WithContext(ctx).
		Joins("JOIN bookmarks ON bookmarks.media_id = media.id").
		Where("bookmarks.user_id = ?", userID).
		Order("bookmarks.created_at DESC, media.id DESC").
		Preload("Tags").
		Find(&media).Error
	if err != nil {
		return nil, apperror.Unexpected(err)
	}
	return media, nil
}

func (s *Service) CreateCollection(ctx context.Context, userID uint, name, description string) (*models.Collection, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	c := &models.Collection{
		UserID:      userID,
		Name:        name,
		Description: strings.TrimSpace(description),
		Items:       []models.Media{},
	}
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, apperror.Unexpected(err)
	}
	return c, nil
}

func (s *Service) ListCollections(ctx context.Context, userID uint) ([]models.Collection, error) {
	var collections []models.Collection
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&collections).Error
	if err != nil {
		return nil, apperror.Unexpected(err)
	}
	return collections, nil
}

// GetCollection returns the collection with its items. Only the owner may read it.
func (s *Service) GetCollection(ctx context.Context, userID, id uint) (*models.Collection, error) {
	c, err := s.ownedCollection(s.db.WithContext(ctx).Preload("Items.Tags"), userID, id)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) AddToCollection(ctx context.Context, userID, collectionID, mediaID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := s.ownedCollection(tx, userID, collectionID)
		if err != nil {
			return err
		}
		var media models.Media
		if err := tx.First(&media, mediaID).Error; err != nil {
			return notFound(err, ErrMediaNotFound)
		}
		if err := tx.Model(c).Omit("Items.*").Association("Items").Append(&media); err != nil {
			return apperror.Unexpected(err)
		}
		return nil
	})
}

func (s *Service) RemoveFromCollection(ctx context.Context, userID, collectionID, mediaID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.ownedCollection(tx, userID, collectionID); err != nil {
			return err
		}
		res := tx.Exec("DELETE FROM collection_media WHERE collection_id = ? AND media_id = ?", collectionID, mediaID)
		if res.Error != nil {
			return apperror.Unexpected(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrMediaNotFound.WithMessage("media is not in this collection")
		}
		return nil
	})
}

func (s *Service) DeleteCollection(ctx context.Context, userID, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := s.ownedCollection(tx, userID, id)
		if err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM collection_media WHERE collection_id = ?", id).Error; err != nil {
			return apperror.Unexpected(err)
		}
		if err := tx.Delete(c).Error; err != nil {
			return apperror.Unexpected(err)
		}
		return nil
	})
}

func (s *Service) ownedCollection(q *gorm.DB, userID, id uint) (*models.Collection, error) {
	var c models.Collection
	if err := q.First(&c, id).Error; err != nil {
		return nil, notFound(err, ErrCollectionNotFound)
	}
	if c.UserID != userID {
		return nil, ErrNotCollectionOwner
	}
	return &c, nil
}

// resolveTags returns the tags with the given names, creating missing ones.
func resolveTags(tx *gorm.DB, names []string) ([]models.Tag, error) {
	if len(names) == 0 {
		return []models.Tag{}, nil
	}
	rows := make([]models.Tag, len(names))
	for i, name := range names {
		rows[i] = models.Tag{Name: name}
	}
	err := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(&rows).Error
	if err != nil {
		return nil, err
	}

	var tags []models.Tag
	if err := tx.Where("name IN ?", names).Order("name ASC").Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

func normalizeTag(name string) (string, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || len(name) > maxTagNameLen {
		return "", ErrInvalidTagName
	}
	return name, nil
}

func normalizeTags(names []string) ([]string, error) {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		name, err := normalizeTag(n)
		if err != nil {
			return nil, err
		}
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out, nil
}

func notFound(err error, notFoundErr *apperror.Error) error {
	var appErr *apperror.Error
	switch {
	case errors.As(err, &appErr):
		return appErr
	case repository.IsNotFound(err):
		return notFoundErr
	default:
		return apperror.Unexpected(err)
	}
}
