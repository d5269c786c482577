package handlers

import (
	"net/http"

	"github.com/chachabrian/venue-backend/internal/apperror"
	"github.com/chachabrian/venue-backend/internal/repository"
	"github.com/gin-gonic/gin"
)

// GetNotificationPreferences returns the user's preferences, creating the
// defaults on first access.
func GetNotificationPreferences(prefs *repository.PreferenceRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := prefs.ForUser(c.Request.Context(), currentUser(c))
		if err != nil {
			respondError(c, apperror.Unexpected(err))
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// UpdateNotificationPreferences updates only the toggles present in the body.
func UpdateNotificationPreferences(prefs *repository.PreferenceRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			EmailEnabled        *bool `json:"emailEnabled"`
			PushEnabled         *bool `json:"pushEnabled"`
			BookingAlerts       *bool `json:"bookingAlerts"`
			PromotionalMessages *bool `json:"promotionalMessages"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			badRequest(c, err)
			return
		}

		ctx := c.Request.Context()
		p, err := prefs.ForUser(ctx, currentUser(c))
		if err != nil {
			respondError(c, apperror.Unexpected(err))
			return
		}

		if input.EmailEnabled != nil {
			p.EmailEnabled = *input.EmailEnabled
		}
		if input.PushEnabled != nil {
			p.PushEnabled = *input.PushEnabled
		}
		if input.BookingAlerts != nil {
			p.BookingAlerts = *input.BookingAlerts
		}
		if input.PromotionalMessages != nil {
			p.PromotionalMessages = *input.PromotionalMessages
		}

		if err := prefs.Save(ctx, p); err != nil {
			respondError(c, apperror.Unexpected(err))
			return
		}
		c.JSON(http.StatusOK, p)
	}
}
