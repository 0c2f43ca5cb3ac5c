package slot

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/scheduler-api/internal/handler"
	"github.com/jwalitptl/scheduler-api/internal/middleware"
	"github.com/jwalitptl/scheduler-api/internal/model"
	"github.com/jwalitptl/scheduler-api/internal/service/slot"
)

type Handler struct {
	service *slot.Service
	auth    *middleware.AuthMiddleware
}

func NewHandler(service *slot.Service, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{service: service, auth: auth}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	slots := r.Group("/slots")
	slots.Use(h.auth.Authenticate())
	{
		slots.POST("", h.auth.RequireRole(model.RoleDoctor), h.RequestSlot)
		slots.POST("/:id/approve", h.auth.RequireRole(model.RoleAdmin), h.ApproveSlot)
		slots.POST("/:id/reject", h.auth.RequireRole(model.RoleAdmin), h.RejectSlot)
		slots.GET("", h.ListSlots)
		slots.GET("/:id", h.GetSlot)
	}
}

// RequestSlot lets a doctor offer a recurring weekly window. The template
// starts pending until an admin decides.
func (h *Handler) RequestSlot(c *gin.Context) {
	var req model.RequestSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	doctorID, ok := middleware.CallerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid caller identity"))
		return
	}

	created, err := h.service.Request(c.Request.Context(), doctorID, req.DayOfWeek, req.TimeSlot, req.Notes)
	if err != nil {
		c.JSON(handler.StatusFor(err), handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(created))
}

func (h *Handler) ApproveSlot(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid slot template ID"))
		return
	}

	adminID, ok := middleware.CallerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid caller identity"))
		return
	}

	updated, err := h.service.Approve(c.Request.Context(), id, adminID)
	if err != nil {
		c.JSON(handler.StatusFor(err), handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(updated))
}

func (h *Handler) RejectSlot(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid slot template ID"))
		return
	}

	var req model.RejectSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	adminID, ok := middleware.CallerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid caller identity"))
		return
	}

	updated, err := h.service.Reject(c.Request.Context(), id, adminID, req.Reason)
	if err != nil {
		c.JSON(handler.StatusFor(err), handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(updated))
}

func (h *Handler) GetSlot(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid slot template ID"))
		return
	}

	found, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(handler.StatusFor(err), handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(found))
}

func (h *Handler) ListSlots(c *gin.Context) {
	filters := &model.SlotFilters{}

	if id := c.Query("doctor_id"); id != "" {
		doctorID, err := uuid.Parse(id)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid doctor ID"))
			return
		}
		filters.DoctorID = doctorID
	}

	if day := c.Query("day_of_week"); day != "" {
		d, err := strconv.Atoi(day)
		if err != nil || d < 0 || d > 6 {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("day_of_week must be between 0 and 6"))
			return
		}
		filters.DayOfWeek = &d
	}

	if status := c.Query("status"); status != "" {
		filters.Status = model.SlotStatus(status)
	}

	slots, err := h.service.List(c.Request.Context(), filters)
	if err != nil {
		c.JSON(handler.StatusFor(err), handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(slots))
}
