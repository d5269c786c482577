package handlers

import (
	"github.com/chachabrian/venue-backend/internal/middleware"
	"github.com/chachabrian/venue-backend/internal/services"
	"github.com/gin-gonic/gin"
)

// WebSocketHandler upgrades the connection and subscribes it to the caller's
// booking events. Admins also receive every booking event.
func WebSocketHandler(hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		hub.ServeWS(c.Writer, c.Request, currentUser(c), middleware.GetRole(c))
	}
}
