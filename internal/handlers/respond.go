package handlers

import (
	"net/http"
	"strconv"

	"github.com/chachabrian/venue-backend/internal/apperror"
	"github.com/chachabrian/venue-backend/internal/middleware"
	"github.com/chachabrian/venue-backend/internal/repository"
	"github.com/gin-gonic/gin"
)

// respondError writes err as {"error", "code"} with the status of its kind.
// Unexpected errors hide their cause from the client and leave it on the gin
// context for the request logger.
func respondError(c *gin.Context, err error) {
	appErr := apperror.As(err)
	if appErr.Kind == apperror.KindUnexpected {
		c.Error(err)
	}
	c.JSON(appErr.Kind.HTTPStatus(), gin.H{"error": appErr.Message, "code": appErr.Code})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "VALIDATION_ERROR"})
}

// paramID parses a positive numeric path parameter.
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name, "code": "VALIDATION_ERROR"})
		return 0, false
	}
	return uint(id), true
}

func queryInt(c *gin.Context, name string) int {
	v, _ := strconv.Atoi(c.Query(name))
	return v
}

func currentUser(c *gin.Context) uint {
	id, _ := middleware.GetUserID(c)
	return id
}

type page[T any] struct {
	Items    []T   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
}

func newPage[T any](items []T, total int64, p, size int) page[T] {
	if items == nil {
		items = []T{}
	}
	if p < 1 {
		p = 1
	}
	if size <= 0 {
		size = repository.DefaultPageSize
	}
	if size > repository.MaxPageSize {
		size = repository.MaxPageSize
	}
	return page[T]{Items: items, Total: total, Page: p, PageSize: size}
}
