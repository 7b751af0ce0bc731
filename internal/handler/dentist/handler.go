package dentist

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/adsdental/clinic-api/internal/handler"
	"github.com/adsdental/clinic-api/internal/middleware"
	"github.com/adsdental/clinic-api/internal/service/dentist"
)

type Handler struct {
	service *dentist.Service
}

func NewHandler(service *dentist.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes exposes the dentist directory to any authenticated
// caller; patients need it to pick a dentist when booking.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, authMW *middleware.AuthMiddleware) {
	dentists := r.Group("/dentists", authMW.Authenticate())
	{
		dentists.GET("", h.ListDentists)
		dentists.GET("/:id", h.GetDentist)
	}
}

func (h *Handler) ListDentists(c *gin.Context) {
	dentists, err := h.service.List(c.Request.Context())
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(dentists))
}

func (h *Handler) GetDentist(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid dentist ID"))
		return
	}

	found, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(found))
}
