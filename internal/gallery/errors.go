package gallery

import "github.com/chachabrian/venue-backend/internal/apperror"

var (
	ErrMediaNotFound      = apperror.New(apperror.KindNotFound, "MEDIA_NOT_FOUND", "media not found")
	ErrTagNotFound        = apperror.New(apperror.KindNotFound, "TAG_NOT_FOUND", "tag not found")
	ErrCollectionNotFound = apperror.New(apperror.KindNotFound, "COLLECTION_NOT_FOUND", "collection not found")
	ErrNotCollectionOwner = apperror.New(apperror.KindForbidden, "COLLECTION_FORBIDDEN", "you can only modify your own collections")
	ErrTagExists          = apperror.New(apperror.KindConflict, "TAG_EXISTS", "a tag with this name already exists")
	ErrTitleRequired      = apperror.New(apperror.KindValidation, "TITLE_REQUIRED", "title is required")
	ErrNameRequired       = apperror.New(apperror.KindValidation, "NAME_REQUIRED", "name is required")
	ErrUnsupportedMedia   = apperror.New(apperror.KindValidation, "UNSUPPORTED_MEDIA_TYPE", "only image and video uploads are accepted")
	ErrInvalidTagName     = apperror.New(apperror.KindValidation, "INVALID_TAG_NAME", "tag names must be 1-50 characters")
)
