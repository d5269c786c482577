package handlers

import (
	"net/http"
	"strings"

	"github.com/chachabrian/venue-backend/internal/apperror"
	"github.com/chachabrian/venue-backend/internal/repository"
	"github.com/gin-gonic/gin"
)

var errUserNotFound = apperror.New(apperror.KindNotFound, "USER_NOT_FOUND", "User not found")

// GetProfile retrieves the user's profile
func GetProfile(users *repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := users.FindByID(c.Request.Context(), currentUser(c))
		if err != nil {
			respondError(c, userError(err))
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// UpdateProfile updates the fields present in the request body.
func UpdateProfile(users *repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Name  *string `json:"name"`
			Phone *string `json:"phone"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			badRequest(c, err)
			return
		}

		ctx := c.Request.Context()
		user, err := users.FindByID(ctx, currentUser(c))
		if err != nil {
			respondError(c, userError(err))
			return
		}

		if input.Name != nil {
			name := strings.TrimSpace(*input.Name)
			if name == "" {
				respondError(c, apperror.Validation("name cannot be empty"))
				return
			}
			user.Name = name
		}
		if input.Phone != nil {
			user.Phone = strings.TrimSpace(*input.Phone)
		}

		if err := users.UpdateProfile(ctx, user); err != nil {
			respondError(c, apperror.Unexpected(err))
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

func userError(err error) error {
	if repository.IsNotFound(err) {
		return errUserNotFound
	}
	return apperror.Unexpected(err)
}
