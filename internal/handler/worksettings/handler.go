package worksettings

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clinichub/scheduling-api/internal/handler"
	"github.com/clinichub/scheduling-api/internal/middleware"
	"github.com/clinichub/scheduling-api/internal/model"
	"github.com/clinichub/scheduling-api/internal/service/worksettings"
)

type Handler struct {
	service *worksettings.Service
}

func NewHandler(service *worksettings.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) SetWorkSettings(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("missing actor"))
		return
	}

	var req model.SetWorkSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	settings, err := h.service.SetWorkSettings(c.Request.Context(), actor, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(settings))
}

func (h *Handler) GetWorkSettings(c *gin.Context) {
	clinicID, err := uuid.Parse(c.Query("clinic_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid clinic ID"))
		return
	}
	doctorID, err := uuid.Parse(c.Query("doctor_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid doctor ID"))
		return
	}

	settings, err := h.service.GetWorkSettings(c.Request.Context(), clinicID, doctorID)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(settings))
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	settings := r.Group("/work-settings")
	{
		settings.PUT("", h.SetWorkSettings)
		settings.GET("", h.GetWorkSettings)
	}
}
