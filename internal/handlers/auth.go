package handlers

import (
	"net/http"
	"strings"

	"github.com/chachabrian/venue-backend/internal/apperror"
	"github.com/chachabrian/venue-backend/internal/config"
	"github.com/chachabrian/venue-backend/internal/models"
	"github.com/chachabrian/venue-backend/internal/repository"
	"github.com/chachabrian/venue-backend/pkg/utils"
	"github.com/gin-gonic/gin"
)

var (
	errEmailTaken         = apperror.New(apperror.KindConflict, "EMAIL_TAKEN", "an account with this email already exists")
	errInvalidCredentials = apperror.New(apperror.KindUnauthorized, "INVALID_CREDENTIALS", "Invalid credentials")
)

type RegisterInput struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Phone    string `json:"phone"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register creates a user account. Admin rights are only granted by cmd/grant-admin.
func Register(users *repository.UserRepository, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input RegisterInput
		if err := c.ShouldBindJSON(&input); err != nil {
			badRequest(c, err)
			return
		}

		email := strings.ToLower(strings.TrimSpace(input.Email))
		user := models.User{
			Name:  strings.TrimSpace(input.Name),
			Email: email,
			Phone: strings.TrimSpace(input.Phone),
			Role:  models.RoleUser,
		}
		if err := user.SetPassword(input.Password); err != nil {
			respondError(c, apperror.Unexpected(err))
			return
		}

		if err := users.Create(c.Request.Context(), &user); err != nil {
			if repository.IsDuplicate(err) {
				respondError(c, errEmailTaken)
				return
			}
			respondError(c, apperror.Unexpected(err))
			return
		}

		token, err := utils.GenerateToken(&user, cfg.JWT)
		if err != nil {
			respondError(c, apperror.Unexpected(err))
			return
		}

		c.JSON(http.StatusCreated, gin.H{"token": token, "user": user})
	}
}

func Login(users *repository.UserRepository, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input LoginInput
		if err := c.ShouldBindJSON(&input); err != nil {
			badRequest(c, err)
			return
		}

		user, err := users.FindByEmail(c.Request.Context(), strings.ToLower(strings.TrimSpace(input.Email)))
		if err != nil {
			if repository.IsNotFound(err) {
				respondError(c, errInvalidCredentials)
				return
			}
			respondError(c, apperror.Unexpected(err))
			return
		}

		if err := user.CheckPassword(input.Password); err != nil {
			respondError(c, errInvalidCredentials)
			return
		}

		token, err := utils.GenerateToken(user, cfg.JWT)
		if err != nil {
			respondError(c, apperror.Unexpected(err))
			return
		}

		c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
	}
}
