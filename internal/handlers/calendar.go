package handlers

import (
	"net/http"
	"time"

	"github.com/chachabrian/venue-backend/internal/apperror"
	"github.com/chachabrian/venue-backend/internal/booking"
	"github.com/chachabrian/venue-backend/internal/models"
	"github.com/gin-gonic/gin"
)

// GetCalendar returns day-by-day availability for ?month=YYYY-MM or for the
// inclusive range ?start=&end=.
func GetCalendar(svc *booking.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var start, end models.Day

		if month := c.Query("month"); month != "" {
			t, err := time.Parse("2006-01", month)
			if err != nil {
				respondError(c, apperror.Validation("month must be YYYY-MM"))
				return
			}
			start, end = models.MonthRange(t.Year(), t.Month())
		} else {
			if !parseDayQuery(c, "start", &start) || !parseDayQuery(c, "end", &end) {
				return
			}
			if start.IsZero() || end.IsZero() {
				respondError(c, apperror.Validation("month or both start and end are required"))
				return
			}
		}

		days, err := svc.GetCalendarDates(c.Request.Context(), start, end)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"start": start, "end": end, "days": days})
	}
}
