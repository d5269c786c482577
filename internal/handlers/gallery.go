package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/chachabrian/venue-backend/internal/apperror"
	"github.com/chachabrian/venue-backend/internal/gallery"
	"github.com/chachabrian/venue-backend/internal/models"
	"github.com/gin-gonic/gin"
)

const maxUploadSize = 100 << 20

// UploadMedia accepts a multipart form with file, title, description, tags
// (repeated or comma separated) and an optional metadata JSON object.
func UploadMedia(svc *gallery.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

		fileHeader, err := c.FormFile("file")
		if err != nil {
			respondError(c, apperror.Validation("file is required"))
			return
		}

		var metadata map[string]interface{}
		if raw := c.PostForm("metadata"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
				respondError(c, apperror.Validation("metadata must be a JSON object"))
				return
			}
		}

		file, err := fileHeader.Open()
		if err != nil {
			respondError(c, apperror.Unexpected(err))
			return
		}
		defer file.Close()

		media, err := svc.Upload(c.Request.Context(), gallery.UploadInput{
			Title:       c.PostForm("title"),
			Description: c.PostForm("description"),
			Filename:    fileHeader.Filename,
			Body:        file,
			Tags:        splitTags(c.PostFormArray("tags")),
			Metadata:    metadata,
			UploadedBy:  currentUser(c),
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, media)
	}
}

func ListMedia(svc *gallery.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		f := gallery.MediaFilter{
			Tag:      c.Query("tag"),
			Kind:     models.MediaKind(strings.ToUpper(c.Query("kind"))),
			Page:     queryInt(c, "page"),
			PageSize: queryInt(c, "pageSize"),
		}
		if f.Kind != "" && f.Kind != models.MediaKindImage && f.Kind != models.MediaKindVideo {
			respondError(c, apperror.Validation("kind must be IMAGE or VIDEO"))
			return
		}

		media, total, err := svc.List(c.Request.Context(), f)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, newPage(media, total, f.Page, f.PageSize))
	}
}

func GetMedia(svc *gallery.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		media, err := svc.Get(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, media)
	}
}

func DeleteMedia(svc *gallery.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		if err := svc.Delete(c.Request.Context(), id); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func SetMediaTags(svc *gallery.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		var input struct {
			Tags []string `json:"tags"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			badRequest(c, err)
			return
		}

		media, err := svc.SetMediaTags(c.Request.Context(), id, input.Tags)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, media)
	}
}

func ListTags(svc *gallery.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		tags, err := svc.ListTags(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, tags)
	}
}

func CreateTag(svc *gallery.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Name string `json:"name" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			badRequest(c, err)
			return
		}
		tag, err := svc.CreateTag(c.Request.Context(), input.Name)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, tag)
	}
}

func DeleteTag(svc *gallery.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		if err := svc.DeleteTag(c.Request.Context(), id); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func ListBookmarks(svc *gallery.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		media, err := svc.ListBookmarks(c.Request.Context(), currentUser(c))
		if err != nil {
			respondError(c, err)
			return
		}
		if media == nil {
			media = []models.Media{}
		}
		c.JSON(http.StatusOK, media)
	}
}

func AddBookmark(svc *gallery.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		mediaID, ok := paramID(c, "mediaId")
		if !ok {
			return
		}
		if err := svc.AddBookmark(c.Request.Context(), currentUser(c), mediaID); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func RemoveBookmark(svc *gallery.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		mediaID, ok := paramID(c, "mediaId")
		if !ok {
			return
		}
		if err := svc.RemoveBookmark(c.Request.Context(), currentUser(c), mediaID); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func ListCollections(svc *gallery.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		collections, err := svc.ListCollections(c.Request.Context(), currentUser(c))
		if err != nil {
			respondError(c, err)
			return
		}
		if collections == nil {
			collections = []models.Collection{}
		}
		c.JSON(http.StatusOK, collections)
	}
}

func CreateCollection(svc *gallery.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Name        string `json:"name"`
			Description string `json:"description"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			badRequest(c, err)
			return
		}
		collection, err := svc.CreateCollection(c.Request.Context(), currentUser(c), input.Name, input.Description)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, collection)
	}
}

func GetCollection(svc *gallery.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		collection, err := svc.GetCollection(c.Request.Context(), currentUser(c), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, collection)
	}
}

func DeleteCollection(svc *gallery.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		if err := svc.DeleteCollection(c.Request.Context(), currentUser(c), id); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func AddToCollection(svc *gallery.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		var input struct {
			MediaID uint `json:"mediaId" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			badRequest(c, err)
			return
		}
		if err := svc.AddToCollection(c.Request.Context(), currentUser(c), id, input.MediaID); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func RemoveFromCollection(svc *gallery.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		mediaID, ok := paramID(c, "mediaId")
		if !ok {
			return
		}
		if err := svc.RemoveFromCollection(c.Request.Context(), currentUser(c), id, mediaID); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func splitTags(values []string) []string {
	var tags []string
	for _, v := range values {
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
	}
	return tags
}
