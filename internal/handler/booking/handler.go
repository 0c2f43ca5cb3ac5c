package booking

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/scheduler-api/internal/handler"
	"github.com/jwalitptl/scheduler-api/internal/middleware"
	"github.com/jwalitptl/scheduler-api/internal/model"
	"github.com/jwalitptl/scheduler-api/internal/service/booking"
)

type Handler struct {
	service *booking.Service
	auth    *middleware.AuthMiddleware
}

func NewHandler(service *booking.Service, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{service: service, auth: auth}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	bookings := r.Group("/bookings")
	bookings.Use(h.auth.Authenticate())
	{
		bookings.POST("", h.auth.RequireRole(model.RolePatient), h.CreateBooking)
		bookings.POST("/:id/cancel", h.auth.RequireRole(model.RolePatient), h.CancelBooking)
		bookings.GET("", h.ListBookings)
		bookings.GET("/:id", h.GetBooking)
	}
}

// CreateBooking is the single write entry point for patients. A
// SlotAlreadyBooked response means the patient's availability view is stale
// and must be refreshed before another attempt.
func (h *Handler) CreateBooking(c *gin.Context) {
	var req model.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	patientID, ok := middleware.CallerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid caller identity"))
		return
	}

	created, err := h.service.Book(c.Request.Context(), req.SlotTemplateID, req.Date.Time, patientID, req.Reason, req.Urgency)
	if err != nil {
		c.JSON(handler.StatusFor(err), handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(created))
}

func (h *Handler) CancelBooking(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid booking ID"))
		return
	}

	var req model.CancelBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	patientID, ok := middleware.CallerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid caller identity"))
		return
	}

	if err := h.service.Cancel(c.Request.Context(), id, patientID, req.Reason); err != nil {
		c.JSON(handler.StatusFor(err), handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) GetBooking(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid booking ID"))
		return
	}

	found, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(handler.StatusFor(err), handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(found))
}

func (h *Handler) ListBookings(c *gin.Context) {
	if id := c.Query("doctor_id"); id != "" {
		doctorID, err := uuid.Parse(id)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid doctor ID"))
			return
		}
		bookings, err := h.service.ListByDoctor(c.Request.Context(), doctorID)
		if err != nil {
			c.JSON(handler.StatusFor(err), handler.NewErrorResponse(err.Error()))
			return
		}
		c.JSON(http.StatusOK, handler.NewSuccessResponse(bookings))
		return
	}

	if id := c.Query("patient_id"); id != "" {
		patientID, err := uuid.Parse(id)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid patient ID"))
			return
		}
		bookings, err := h.service.ListByPatient(c.Request.Context(), patientID)
		if err != nil {
			c.JSON(handler.StatusFor(err), handler.NewErrorResponse(err.Error()))
			return
		}
		c.JSON(http.StatusOK, handler.NewSuccessResponse(bookings))
		return
	}

	c.JSON(http.StatusBadRequest, handler.NewErrorResponse("doctor_id or patient_id is required"))
}
