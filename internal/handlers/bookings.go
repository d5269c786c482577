package handlers

import (
	"net/http"
	"strconv"

	"github.com/chachabrian/venue-backend/internal/apperror"
	"github.com/chachabrian/venue-backend/internal/booking"
	"github.com/chachabrian/venue-backend/internal/middleware"
	"github.com/chachabrian/venue-backend/internal/models"
	"github.com/chachabrian/venue-backend/internal/repository"
	"github.com/gin-gonic/gin"
)

type CreateBookingInput struct {
	Date        models.Day       `json:"date"`
	EventType   models.EventType `json:"eventType"`
	GuestCount  int              `json:"guestCount"`
	Description string           `json:"description"`
}

// CreateBooking admits a booking request for the caller. The response status
// tells the client whether it holds the date (PENDING) or waits for it.
func CreateBooking(svc *booking.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input CreateBookingInput
		if err := c.ShouldBindJSON(&input); err != nil {
			badRequest(c, err)
			return
		}

		b, err := svc.CreateBooking(c.Request.Context(), booking.CreateBookingInput{
			UserID:      currentUser(c),
			Date:        input.Date,
			EventType:   input.EventType,
			GuestCount:  input.GuestCount,
			Description: input.Description,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, b)
	}
}

// ListBookings returns the caller's live bookings. Admins see everyone's when
// userOnly=false.
func ListBookings(svc *booking.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		f := repository.BookingFilter{
			UserID:   currentUser(c),
			Page:     queryInt(c, "page"),
			PageSize: queryInt(c, "pageSize"),
		}
		if middleware.IsAdmin(c) && c.Query("userOnly") == "false" {
			f.UserID = 0
		}
		if !parseDayQuery(c, "date", &f.Date) || !parseStatusQuery(c, &f.Status) {
			return
		}

		bookings, total, err := svc.ListBookings(c.Request.Context(), f)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, newPage(bookings, total, f.Page, f.PageSize))
	}
}

// GetBooking returns one booking to its owner or an admin.
func GetBooking(svc *booking.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}

		b, err := svc.GetBooking(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		if !b.BelongsTo(currentUser(c)) && !middleware.IsAdmin(c) {
			respondError(c, booking.ErrNotOwner.WithMessage("you can only view your own bookings"))
			return
		}
		c.JSON(http.StatusOK, b)
	}
}

func CancelBooking(svc *booking.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}

		b, err := svc.CancelBooking(c.Request.Context(), id, currentUser(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, b)
	}
}

// CheckAvailability tells the caller whether they may request date and how
// the date currently looks on the calendar.
func CheckAvailability(svc *booking.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var date models.Day
		if !parseDayQuery(c, "date", &date) {
			return
		}
		ctx := c.Request.Context()

		canBook, err := svc.CanUserBook(ctx, currentUser(c), date)
		if err != nil {
			respondError(c, err)
			return
		}
		days, err := svc.GetCalendarDates(ctx, date, date)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"date":     date,
			"canBook":  canBook,
			"calendar": days[0],
		})
	}
}

// ListAdminBookings lists live bookings, or archived ones with type=history.
func ListAdminBookings(svc *booking.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, pageSize := queryInt(c, "page"), queryInt(c, "pageSize")
		var userID uint
		if v := c.Query("userId"); v != "" {
			id, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				respondError(c, apperror.Validation("invalid userId"))
				return
			}
			userID = uint(id)
		}

		var status models.BookingStatus
		if !parseStatusQuery(c, &status) {
			return
		}

		if c.Query("type") == "history" {
			reason := models.HistoryReason(c.Query("reason"))
			if reason != "" && !reason.IsValid() {
				respondError(c, apperror.Validation("reason must be CANCELLED, PAST_DATE or REJECTED"))
				return
			}
			entries, total, err := svc.ListHistory(c.Request.Context(), repository.HistoryFilter{
				UserID:   userID,
				Status:   status,
				Reason:   reason,
				Page:     page,
				PageSize: pageSize,
			})
			if err != nil {
				respondError(c, err)
				return
			}
			c.JSON(http.StatusOK, newPage(entries, total, page, pageSize))
			return
		}

		f := repository.BookingFilter{UserID: userID, Status: status, Page: page, PageSize: pageSize}
		if !parseDayQuery(c, "date", &f.Date) {
			return
		}
		bookings, total, err := svc.ListBookings(c.Request.Context(), f)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, newPage(bookings, total, page, pageSize))
	}
}

type ReviewBookingInput struct {
	BookingID uint                 `json:"bookingId" binding:"required"`
	Status    models.BookingStatus `json:"status" binding:"required"`
	Note      *string              `json:"note"`
}

func ReviewBooking(svc *booking.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input ReviewBookingInput
		if err := c.ShouldBindJSON(&input); err != nil {
			badRequest(c, err)
			return
		}

		b, err := svc.ReviewBooking(c.Request.Context(), booking.ReviewInput{
			BookingID: input.BookingID,
			AdminID:   currentUser(c),
			Status:    input.Status,
			Note:      input.Note,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, b)
	}
}

func PromoteBooking(svc *booking.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			BookingID uint `json:"bookingId" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			badRequest(c, err)
			return
		}

		b, err := svc.PromoteWaitlistedBooking(c.Request.Context(), input.BookingID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, b)
	}
}

func CanApproveBooking(svc *booking.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}

		canApprove, err := svc.CanApproveBooking(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"bookingId": id, "canApprove": canApprove})
	}
}

// MovePastBookings archives every booking dated before today.
func MovePastBookings(svc *booking.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		moved, err := svc.MovePastBookingsToHistory(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"moved": moved})
	}
}

func parseDayQuery(c *gin.Context, name string, dst *models.Day) bool {
	v := c.Query(name)
	if v == "" {
		return true
	}
	d, err := models.ParseDay(v)
	if err != nil {
		respondError(c, apperror.Validation(err.Error()))
		return false
	}
	*dst = d
	return true
}

func parseStatusQuery(c *gin.Context, dst *models.BookingStatus) bool {
	status := models.BookingStatus(c.Query("status"))
	if status != "" && !status.IsValid() {
		respondError(c, apperror.Validation("unknown booking status "+string(status)))
		return false
	}
	*dst = status
	return true
}
