package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/consult-booking-api/internal/models"
	"github.com/noah-isme/consult-booking-api/internal/service"
	"github.com/noah-isme/consult-booking-api/pkg/response"
)

// SlotHandler exposes preference-ranked slot search.
type SlotHandler struct {
	slots *service.SlotService
}

// NewSlotHandler constructs handler.
func NewSlotHandler(slots *service.SlotService) *SlotHandler {
	return &SlotHandler{slots: slots}
}

// Search godoc
// @Summary Search available slots ranked by preference fit
// @Tags Slots
// @Produce json
// @Param from query string true "Window start (RFC3339 or YYYY-MM-DD)"
// @Param to query string true "Window end (RFC3339 or YYYY-MM-DD)"
// @Param preferredConsultants query string false "Comma separated consultant IDs"
// @Param preferredTimes query string false "Comma separated HH:MM slot start times"
// @Param avoidTimes query string false "Comma separated HH:MM slot start times"
// @Success 200 {object} response.Envelope
// @Router /slots/search [get]
func (h *SlotHandler) Search(c *gin.Context) {
	from, to, err := parseWindow(c.Query("from"), c.Query("to"))
	if err != nil {
		response.Error(c, err)
		return
	}

	prefs := models.SlotPreferences{
		PreferredConsultants: splitListParam(c.Query("preferredConsultants")),
		PreferredTimeSlots:   splitListParam(c.Query("preferredTimes")),
		AvoidTimes:           splitListParam(c.Query("avoidTimes")),
	}

	slots, err := h.slots.FindAvailable(c.Request.Context(), prefs, from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}
