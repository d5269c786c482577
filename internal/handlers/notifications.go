package handlers

import (
	"context"
	"net/http"

	"github.com/chachabrian/venue-backend/internal/apperror"
	"github.com/chachabrian/venue-backend/internal/repository"
	"github.com/chachabrian/venue-backend/internal/services"
	"github.com/gin-gonic/gin"
)

// PushBroadcaster sends push notifications. *services.Pusher satisfies it.
type PushBroadcaster interface {
	SendToToken(ctx context.Context, token string, payload services.NotificationPayload) error
	SendToTokens(ctx context.Context, tokens []string, payload services.NotificationPayload) (int, error)
}

var errNoDevice = apperror.New(apperror.KindValidation, "NO_DEVICE_REGISTERED", "No FCM token registered for this user")

// RegisterFCMToken registers or updates a user's FCM token
func RegisterFCMToken(users *repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			FCMToken string `json:"fcmToken" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			badRequest(c, err)
			return
		}

		if err := users.SetFCMToken(c.Request.Context(), currentUser(c), input.FCMToken); err != nil {
			respondError(c, userError(err))
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "FCM token registered successfully"})
	}
}

// RemoveFCMToken removes a user's FCM token
func RemoveFCMToken(users *repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := users.SetFCMToken(c.Request.Context(), currentUser(c), ""); err != nil {
			respondError(c, userError(err))
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "FCM token removed successfully"})
	}
}

// SendBroadcastNotification pushes a venue announcement to every user who
// accepts promotional messages.
func SendBroadcastNotification(users *repository.UserRepository, pusher PushBroadcaster) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Title    string                 `json:"title" binding:"required"`
			Body     string                 `json:"body" binding:"required"`
			ImageURL string                 `json:"imageUrl"`
			Data     map[string]interface{} `json:"data"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			badRequest(c, err)
			return
		}

		ctx := c.Request.Context()
		tokens, err := users.PromotionalPushTokens(ctx)
		if err != nil {
			respondError(c, apperror.Unexpected(err))
			return
		}

		payload := services.NotificationPayload{
			Title: input.Title,
			Body:  input.Body,
			Image: input.ImageURL,
			Data:  input.Data,
			Tag:   "announcement",
		}
		failed, err := pusher.SendToTokens(ctx, tokens, payload)
		if err != nil {
			respondError(c, apperror.Unexpected(err))
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message":      "Broadcast notification sent",
			"successCount": len(tokens) - failed,
			"failureCount": failed,
			"totalTokens":  len(tokens),
		})
	}
}

// TestNotification sends a push to the caller's own device.
func TestNotification(users *repository.UserRepository, pusher PushBroadcaster) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		user, err := users.FindByID(ctx, currentUser(c))
		if err != nil {
			respondError(c, userError(err))
			return
		}
		if user.FCMToken == "" {
			respondError(c, errNoDevice)
			return
		}

		err = pusher.SendToToken(ctx, user.FCMToken, services.NotificationPayload{
			Title: "Test notification",
			Body:  "Push notifications are working.",
			Data:  map[string]interface{}{"type": "TEST"},
		})
		if err != nil {
			respondError(c, apperror.Unexpected(err))
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Test notification sent"})
	}
}
