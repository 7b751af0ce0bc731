package appointment

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/adsdental/clinic-api/internal/handler"
	"github.com/adsdental/clinic-api/internal/middleware"
	"github.com/adsdental/clinic-api/internal/model"
	"github.com/adsdental/clinic-api/internal/service/appointment"
)

type Handler struct {
	service *appointment.Service
}

func NewHandler(service *appointment.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes wires the scheduling surface. Booking is restricted to
// patients; the listing is open to any authenticated caller and scoped
// by role inside the service.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, authMW *middleware.AuthMiddleware) {
	appointments := r.Group("/appointments", authMW.Authenticate())
	{
		appointments.POST("", authMW.RequirePatient(), h.BookAppointment)
		appointments.GET("", h.ListAppointments)
		appointments.GET("/:id", authMW.RequireRoles(model.RoleAdmin, model.RoleDentist), h.GetAppointment)
		appointments.PUT("/:id/cancel",
			authMW.RequireRoles(model.RoleAdmin, model.RoleDentist), h.CancelAppointment)
		appointments.PUT("/:id/complete",
			authMW.RequireRoles(model.RoleAdmin, model.RoleDentist), h.CompleteAppointment)
	}
}

func (h *Handler) BookAppointment(c *gin.Context) {
	caller, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("authentication required"))
		return
	}

	var req model.BookAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	booked, err := h.service.Book(c.Request.Context(), caller, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(booked))
}

func (h *Handler) ListAppointments(c *gin.Context) {
	caller, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("authentication required"))
		return
	}

	appointments, err := h.service.ListVisibleTo(c.Request.Context(), caller)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(appointments))
}

func (h *Handler) GetAppointment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	found, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(found))
}

func (h *Handler) CancelAppointment(c *gin.Context) {
	h.transition(c, h.service.Cancel)
}

func (h *Handler) CompleteAppointment(c *gin.Context) {
	h.transition(c, h.service.Complete)
}

func (h *Handler) transition(c *gin.Context, fn func(ctx context.Context, caller *model.User, id uuid.UUID) (*model.Appointment, error)) {
	caller, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("authentication required"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	updated, err := fn(c.Request.Context(), caller, id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(updated))
}
