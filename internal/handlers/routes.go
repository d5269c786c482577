package handlers

import (
	"net/http"

	"github.com/chachabrian/venue-backend/internal/booking"
	"github.com/chachabrian/venue-backend/internal/config"
	"github.com/chachabrian/venue-backend/internal/gallery"
	"github.com/chachabrian/venue-backend/internal/middleware"
	"github.com/chachabrian/venue-backend/internal/repository"
	"github.com/chachabrian/venue-backend/internal/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Deps is everything the HTTP layer calls into.
type Deps struct {
	Config   *config.Config
	Log      *zap.Logger
	Bookings *booking.Service
	Gallery  *gallery.Service
	Users    *repository.UserRepository
	Prefs    *repository.PreferenceRepository
	Hub      *services.Hub
	Pusher   PushBroadcaster
	// Idempotency may be nil, in which case retried creates are not deduplicated.
	Idempotency middleware.IdempotencyStore
	// UploadDir is served under /uploads when media is stored locally.
	UploadDir string
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(d.Log))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = d.Config.CORSOrigins
	corsConfig.AllowHeaders = []string{
		"Origin", "Content-Type", "Accept", "Authorization",
		middleware.RequestIDHeader, middleware.IdempotencyKeyHeader,
	}
	corsConfig.ExposeHeaders = []string{middleware.RequestIDHeader, "Idempotent-Replayed"}
	r.Use(cors.New(corsConfig))

	if d.UploadDir != "" {
		r.Static("/uploads", d.UploadDir)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := middleware.AuthMiddleware(d.Config.JWT)
	admin := middleware.RequireAdmin()

	api := r.Group("/api")
	{
		// Public routes
		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/register", Register(d.Users, d.Config))
			authRoutes.POST("/login", Login(d.Users, d.Config))
		}

		api.GET("/calendar", GetCalendar(d.Bookings))
		api.GET("/media", ListMedia(d.Gallery))
		api.GET("/media/:id", GetMedia(d.Gallery))
		api.GET("/tags", ListTags(d.Gallery))

		// WebSocket connection
		api.GET("/ws", auth, WebSocketHandler(d.Hub))

		// Protected routes
		protected := api.Group("/")
		protected.Use(auth)
		{
			users := protected.Group("/users")
			{
				users.GET("/profile", GetProfile(d.Users))
				users.PUT("/profile", UpdateProfile(d.Users))
			}

			bookings := protected.Group("/bookings")
			{
				bookings.POST("", middleware.Idempotency(middleware.IdempotencyConfig{
					Store: d.Idempotency,
					Log:   d.Log,
				}), CreateBooking(d.Bookings))
				bookings.GET("", ListBookings(d.Bookings))
				bookings.GET("/availability", CheckAvailability(d.Bookings))
				bookings.GET("/:id", GetBooking(d.Bookings))
				bookings.DELETE("/:id", CancelBooking(d.Bookings))

				bookings.GET("/admin", admin, ListAdminBookings(d.Bookings))
				bookings.POST("/admin", admin, ReviewBooking(d.Bookings))
				bookings.POST("/admin/promote", admin, PromoteBooking(d.Bookings))
				bookings.GET("/admin/:id/can-approve", admin, CanApproveBooking(d.Bookings))
				bookings.POST("/history", admin, MovePastBookings(d.Bookings))
			}

			media := protected.Group("/media", admin)
			{
				media.POST("", UploadMedia(d.Gallery))
				media.DELETE("/:id", DeleteMedia(d.Gallery))
				media.PUT("/:id/tags", SetMediaTags(d.Gallery))
			}

			tags := protected.Group("/tags", admin)
			{
				tags.POST("", CreateTag(d.Gallery))
				tags.DELETE("/:id", DeleteTag(d.Gallery))
			}

			bookmarks := protected.Group("/bookmarks")
			{
				bookmarks.GET("", ListBookmarks(d.Gallery))
				bookmarks.POST("/:mediaId", AddBookmark(d.Gallery))
				bookmarks.DELETE("/:mediaId", RemoveBookmark(d.Gallery))
			}

			collections := protected.Group("/collections")
			{
				collections.GET("", ListCollections(d.Gallery))
				collections.POST("", CreateCollection(d.Gallery))
				collections.GET("/:id", GetCollection(d.Gallery))
				collections.DELETE("/:id", DeleteCollection(d.Gallery))
				collections.POST("/:id/items", AddToCollection(d.Gallery))
				collections.DELETE("/:id/items/:mediaId", RemoveFromCollection(d.Gallery))
			}

			notifications := protected.Group("/notifications")
			{
				notifications.POST("/register-token", RegisterFCMToken(d.Users))
				notifications.DELETE("/remove-token", RemoveFCMToken(d.Users))
				notifications.POST("/test", TestNotification(d.Users, d.Pusher))
				notifications.POST("/broadcast", admin, SendBroadcastNotification(d.Users, d.Pusher))

				notifications.GET("/preferences", GetNotificationPreferences(d.Prefs))
				notifications.PUT("/preferences", UpdateNotificationPreferences(d.Prefs))
			}
		}
	}

	return r
}
