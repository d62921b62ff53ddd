package override

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clinichub/scheduling-api/internal/handler"
	"github.com/clinichub/scheduling-api/internal/middleware"
	"github.com/clinichub/scheduling-api/internal/model"
	"github.com/clinichub/scheduling-api/internal/service/override"
)

type Handler struct {
	service *override.Service
}

func NewHandler(service *override.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) SetOverride(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("missing actor"))
		return
	}

	var req model.SetOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	result, err := h.service.SetOverride(c.Request.Context(), actor, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(result))
}

func (h *Handler) GetOverride(c *gin.Context) {
	doctorID, clinicID, date, ok := h.tripleFromQuery(c)
	if !ok {
		return
	}

	result, err := h.service.GetOverride(c.Request.Context(), doctorID, clinicID, date)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(result))
}

func (h *Handler) DeleteOverride(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("missing actor"))
		return
	}

	doctorID, clinicID, date, ok := h.tripleFromQuery(c)
	if !ok {
		return
	}

	if err := h.service.DeleteOverride(c.Request.Context(), actor, doctorID, clinicID, date); err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) ListOverrides(c *gin.Context) {
	doctorID, err := uuid.Parse(c.Query("doctor_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid doctor ID"))
		return
	}
	clinicID, err := uuid.Parse(c.Query("clinic_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid clinic ID"))
		return
	}
	from, err := time.Parse(model.DateOnly, c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid from date"))
		return
	}
	to, err := time.Parse(model.DateOnly, c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid to date"))
		return
	}

	overrides, err := h.service.ListOverrides(c.Request.Context(), doctorID, clinicID, from, to)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(overrides))
}

func (h *Handler) tripleFromQuery(c *gin.Context) (uuid.UUID, uuid.UUID, time.Time, bool) {
	doctorID, err := uuid.Parse(c.Query("doctor_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid doctor ID"))
		return uuid.Nil, uuid.Nil, time.Time{}, false
	}
	clinicID, err := uuid.Parse(c.Query("clinic_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid clinic ID"))
		return uuid.Nil, uuid.Nil, time.Time{}, false
	}
	date, err := time.Parse(model.DateOnly, c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid date format"))
		return uuid.Nil, uuid.Nil, time.Time{}, false
	}
	return doctorID, clinicID, date, true
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	overrides := r.Group("/overrides")
	{
		overrides.PUT("", h.SetOverride)
		overrides.GET("", h.ListOverrides)
		overrides.GET("/by-date", h.GetOverride)
		overrides.DELETE("", h.DeleteOverride)
	}
}
