package surgery

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/adsdental/clinic-api/internal/handler"
	"github.com/adsdental/clinic-api/internal/middleware"
	"github.com/adsdental/clinic-api/internal/model"
	"github.com/adsdental/clinic-api/internal/service/surgery"
)

type Handler struct {
	service *surgery.Service
}

func NewHandler(service *surgery.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, authMW *middleware.AuthMiddleware) {
	surgeries := r.Group("/surgeries", authMW.Authenticate())
	{
		surgeries.GET("", authMW.RequireRoles(model.RolePatient, model.RoleAdmin), h.ListSurgeries)
		surgeries.GET("/:id", authMW.RequireRoles(model.RolePatient, model.RoleAdmin), h.GetSurgery)
	}

	addresses := r.Group("/addresses", authMW.Authenticate())
	{
		addresses.GET("", authMW.RequireRoles(model.RoleAdmin), h.ListAddresses)
	}
}

func (h *Handler) ListSurgeries(c *gin.Context) {
	surgeries, err := h.service.List(c.Request.Context())
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(surgeries))
}

func (h *Handler) GetSurgery(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid surgery ID"))
		return
	}

	found, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(found))
}

func (h *Handler) ListAddresses(c *gin.Context) {
	addresses, err := h.service.ListAddresses(c.Request.Context())
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(addresses))
}
