package availability

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/scheduler-api/internal/handler"
	"github.com/jwalitptl/scheduler-api/internal/middleware"
	"github.com/jwalitptl/scheduler-api/internal/service/availability"
	"github.com/jwalitptl/scheduler-api/pkg/calendar"
)

type Handler struct {
	service *availability.Service
	auth    *middleware.AuthMiddleware
}

func NewHandler(service *availability.Service, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{service: service, auth: auth}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/availability", h.auth.Authenticate(), h.GetAvailability)
}

// GetAvailability renders the bookable dates for a doctor. Missing bounds
// default to a 28-day horizon from the effective start. The optional
// weeks=true flag adds the four 7-day presentation buckets for the UI; the
// backend itself always resolves over the continuous window.
func (h *Handler) GetAvailability(c *gin.Context) {
	doctorID, err := uuid.Parse(c.Query("doctor_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid doctor ID"))
		return
	}

	now := time.Now()
	start := calendar.Truncate(now)
	if v := c.Query("start"); v != "" {
		start, err = time.Parse("2006-01-02", v)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("start must be YYYY-MM-DD"))
			return
		}
	}

	// The default end hangs off the effective start, so start-only queries
	// still get a full horizon instead of one clipped against today.
	end := start.Add(calendar.DefaultHorizon)
	if v := c.Query("end"); v != "" {
		end, err = time.Parse("2006-01-02", v)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("end must be YYYY-MM-DD"))
			return
		}
	}

	result, err := h.service.Resolve(c.Request.Context(), doctorID, start, end)
	if err != nil {
		c.JSON(handler.StatusFor(err), handler.NewErrorResponse(err.Error()))
		return
	}

	if c.Query("weeks") == "true" {
		c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{
			"availability": result,
			"weeks":        calendar.Weeks(now),
		}))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(result))
}
