package slot

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/clinichub/scheduling-api/internal/handler"
	"github.com/clinichub/scheduling-api/internal/model"
	"github.com/clinichub/scheduling-api/internal/service/slot"
)

type Handler struct {
	service *slot.Service
}

func NewHandler(service *slot.Service) *Handler {
	return &Handler{service: service}
}

// ListSlots materializes and returns the slots for a single day. Generation
// is idempotent, so repeated reads of the same day are cheap cache hits.
func (h *Handler) ListSlots(c *gin.Context) {
	var req model.GenerateSlotsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	date, err := time.Parse(model.DateOnly, req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid date format"))
		return
	}

	slots, err := h.service.GenerateSlots(c.Request.Context(), req.DoctorID, req.ClinicID, date)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(slots))
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	slots := r.Group("/slots")
	{
		slots.GET("", h.ListSlots)
	}
}
