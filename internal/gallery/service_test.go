package gallery

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/chachabrian/venue-backend/internal/apperror"
	"github.com/chachabrian/venue-backend/internal/database/databasetest"
	"github.com/chachabrian/venue-backend/internal/models"
	"github.com/chachabrian/venue-backend/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeBlobs struct {
	contentType string
	deleteErr   error
	stored      map[string]string
	deleted     []string
	n           int
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{contentType: "image/jpeg", stored: map[string]string{}}
}

func (f *fakeBlobs) Upload(_ context.Context, folder, filename string, r io.Reader) (*services.StoredObject, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	f.n++
	key := folder + "/" + strings.Repeat("k", f.n) + "-" + filename
	f.stored[key] = string(data)
	return &services.StoredObject{
		Key:         key,
		URL:         "https://cdn.example.com/" + key,
		ContentType: f.contentType,
		Size:        int64(len(data)),
	}, nil
}

func (f *fakeBlobs) Delete(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.stored, key)
	return nil
}

func newTestService(t *testing.T, log *zap.Logger) (*Service, *fakeBlobs, *models.User, *models.User) {
	t.Helper()
	db := databasetest.Open(t)
	admin := databasetest.CreateUser(t, db, "Venue Admin", models.RoleAdmin)
	user := databasetest.CreateUser(t, db, "Grace Hopper", models.RoleUser)
	blobs := newFakeBlobs()
	return NewService(db, blobs, log), blobs, admin, user
}

func upload(t *testing.T, svc *Service, title string, tags ...string) *models.Media {
	t.Helper()
	m, err := svc.Upload(context.Background(), UploadInput{
		Title:      title,
		Filename:   "photo.jpg",
		Body:       strings.NewReader("jpeg bytes"),
		Tags:       tags,
		UploadedBy: 1,
	})
	require.NoError(t, err)
	return m
}

func TestUpload(t *testing.T) {
	svc, blobs, admin, _ := newTestService(t, zap.NewNop())
	ctx := context.Background()

	m, err := svc.Upload(ctx, UploadInput{
		Title:       "  Garden ceremony ",
		Description: "Arch at sunset",
		Filename:    "arch.jpg",
		Body:        strings.NewReader("jpeg bytes"),
		Tags:        []string{"Garden", "garden", "sunset"},
		Metadata:    map[string]interface{}{"photographer": "Lee"},
		UploadedBy:  admin.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, "Garden ceremony", m.Title)
	assert.Equal(t, models.MediaKindImage, m.Kind)
	assert.Equal(t, "https://cdn.example.com/"+m.StorageKey, m.URL)
	assert.Contains(t, blobs.stored, m.StorageKey)

	got, err := svc.Get(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, got.Tags, 2)
	assert.Equal(t, "garden", got.Tags[0].Name)
	assert.Equal(t, "sunset", got.Tags[1].Name)
	assert.Equal(t, "Lee", got.Metadata["photographer"])

	t.Run("title required", func(t *testing.T) {
		_, err := svc.Upload(ctx, UploadInput{Title: " ", Body: strings.NewReader("x")})
		assert.ErrorIs(t, err, ErrTitleRequired)
	})

	t.Run("unsupported type removes the blob", func(t *testing.T) {
		blobs.contentType = "application/pdf"
		defer func() { blobs.contentType = "image/jpeg" }()

		_, err := svc.Upload(ctx, UploadInput{Title: "Menu", Filename: "menu.pdf", Body: strings.NewReader("%PDF")})
		assert.ErrorIs(t, err, ErrUnsupportedMedia)
		assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
		require.NotEmpty(t, blobs.deleted)
		assert.NotContains(t, blobs.stored, blobs.deleted[len(blobs.deleted)-1])
	})

	t.Run("video", func(t *testing.T) {
		blobs.contentType = "video/mp4"
		defer func() { blobs.contentType = "image/jpeg" }()

		m, err := svc.Upload(ctx, UploadInput{Title: "First dance", Filename: "dance.mp4", Body: strings.NewReader("mp4")})
		require.NoError(t, err)
		assert.Equal(t, models.MediaKindVideo, m.Kind)
	})
}

func TestList(t *testing.T) {
	svc, blobs, _, _ := newTestService(t, zap.NewNop())
	ctx := context.Background()

	upload(t, svc, "Ballroom", "indoor")
	upload(t, svc, "Lawn", "garden")
	upload(t, svc, "Pergola", "garden", "sunset")
	blobs.contentType = "video/mp4"
	upload(t, svc, "Tour", "indoor")

	all, total, err := svc.List(ctx, MediaFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	assert.Equal(t, "Tour", all[0].Title)

	garden, total, err := svc.List(ctx, MediaFilter{Tag: "GARDEN"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.ElementsMatch(t, []string{"Lawn", "Pergola"}, []string{garden[0].Title, garden[1].Title})

	videos, total, err := svc.List(ctx, MediaFilter{Kind: models.MediaKindVideo})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "Tour", videos[0].Title)

	page, total, err := svc.List(ctx, MediaFilter{Page: 2, PageSize: 3})
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	require.Len(t, page, 1)
	assert.Equal(t, "Ballroom", page[0].Title)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, _, err = svc.List(cancelled, MediaFilter{Tag: "garden"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDelete(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	svc, blobs, _, user := newTestService(t, zap.New(core))
	ctx := context.Background()

	m := upload(t, svc, "Ballroom", "indoor")
	require.NoError(t, svc.AddBookmark(ctx, user.ID, m.ID))
	c, err := svc.CreateCollection(ctx, user.ID, "Ideas", "")
	require.NoError(t, err)
	require.NoError(t, svc.AddToCollection(ctx, user.ID, c.ID, m.ID))

	require.NoError(t, svc.Delete(ctx, m.ID))
	assert.NotContains(t, blobs.stored, m.StorageKey)

	_, err = svc.Get(ctx, m.ID)
	assert.ErrorIs(t, err, ErrMediaNotFound)
	bookmarks, err := svc.ListBookmarks(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, bookmarks)
	got, err := svc.GetCollection(ctx, user.ID, c.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Items)

	assert.ErrorIs(t, svc.Delete(ctx, m.ID), ErrMediaNotFound)

	t.Run("blob failure is logged, row still goes", func(t *testing.T) {
		m := upload(t, svc, "Lawn")
		blobs.deleteErr = errors.New("s3 unavailable")

		require.NoError(t, svc.Delete(ctx, m.ID))
		_, err := svc.Get(ctx, m.ID)
		assert.ErrorIs(t, err, ErrMediaNotFound)
		assert.Len(t, logs.FilterMessage("failed to delete media blob").All(), 1)
	})
}

func TestTags(t *testing.T) {
	svc, _, _, _ := newTestService(t, zap.NewNop())
	ctx := context.Background()

	tag, err := svc.CreateTag(ctx, " Rustic ")
	require.NoError(t, err)
	assert.Equal(t, "rustic", tag.Name)

	_, err = svc.CreateTag(ctx, "RUSTIC")
	assert.ErrorIs(t, err, ErrTagExists)
	_, err = svc.CreateTag(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidTagName)

	m := upload(t, svc, "Barn", "rustic", "indoor")
	m, err = svc.SetMediaTags(ctx, m.ID, []string{"outdoor", "rustic"})
	require.NoError(t, err)
	require.Len(t, m.Tags, 2)
	assert.Equal(t, "outdoor", m.Tags[0].Name)
	assert.Equal(t, "rustic", m.Tags[1].Name)

	tags, err := svc.ListTags(ctx)
	require.NoError(t, err)
	assert.Len(t, tags, 3)

	require.NoError(t, svc.DeleteTag(ctx, tag.ID))
	assert.ErrorIs(t, svc.DeleteTag(ctx, tag.ID), ErrTagNotFound)

	m, err = svc.Get(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, m.Tags, 1)
	assert.Equal(t, "outdoor", m.Tags[0].Name)

	_, err = svc.SetMediaTags(ctx, 999, []string{"x"})
	assert.ErrorIs(t, err, ErrMediaNotFound)
}

func TestBookmarks(t *testing.T) {
	svc, _, _, user := newTestService(t, zap.NewNop())
	ctx := context.Background()

	first := upload(t, svc, "Ballroom")
	second := upload(t, svc, "Lawn")

	require.NoError(t, svc.AddBookmark(ctx, user.ID, first.ID))
	require.NoError(t, svc.AddBookmark(ctx, user.ID, first.ID))
	require.NoError(t, svc.AddBookmark(ctx, user.ID, second.ID))
	assert.ErrorIs(t, svc.AddBookmark(ctx, user.ID, 999), ErrMediaNotFound)

	saved, err := svc.ListBookmarks(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, saved, 2)

	require.NoError(t, svc.RemoveBookmark(ctx, user.ID, first.ID))
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(svc.RemoveBookmark(ctx, user.ID, first.ID)))

	saved, err = svc.ListBookmarks(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, second.ID, saved[0].ID)
}

func TestCollections(t *testing.T) {
	svc, _, admin, user := newTestService(t, zap.NewNop())
	ctx := context.Background()
	m := upload(t, svc, "Ballroom", "indoor")

	_, err := svc.CreateCollection(ctx, user.ID, "  ", "")
	assert.ErrorIs(t, err, ErrNameRequired)

	c, err := svc.CreateCollection(ctx, user.ID, "Winter wedding", "cosy ideas")
	require.NoError(t, err)

	require.NoError(t, svc.AddToCollection(ctx, user.ID, c.ID, m.ID))
	require.NoError(t, svc.AddToCollection(ctx, user.ID, c.ID, m.ID))
	assert.ErrorIs(t, svc.AddToCollection(ctx, user.ID, c.ID, 999), ErrMediaNotFound)

	got, err := svc.GetCollection(ctx, user.ID, c.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	require.Len(t, got.Items[0].Tags, 1)
	assert.Equal(t, "indoor", got.Items[0].Tags[0].Name)

	t.Run("other users are refused", func(t *testing.T) {
		_, err := svc.GetCollection(ctx, admin.ID, c.ID)
		assert.ErrorIs(t, err, ErrNotCollectionOwner)
		assert.ErrorIs(t, svc.AddToCollection(ctx, admin.ID, c.ID, m.ID), ErrNotCollectionOwner)
		assert.ErrorIs(t, svc.DeleteCollection(ctx, admin.ID, c.ID), ErrNotCollectionOwner)
	})

	list, err := svc.ListCollections(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.RemoveFromCollection(ctx, user.ID, c.ID, m.ID))
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(svc.RemoveFromCollection(ctx, user.ID, c.ID, m.ID)))

	require.NoError(t, svc.DeleteCollection(ctx, user.ID, c.ID))
	_, err = svc.GetCollection(ctx, user.ID, c.ID)
	assert.ErrorIs(t, err, ErrCollectionNotFound)
}
