package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/consult-booking-api/internal/models"
	"github.com/noah-isme/consult-booking-api/internal/service"
	appErrors "github.com/noah-isme/consult-booking-api/pkg/errors"
	"github.com/noah-isme/consult-booking-api/pkg/response"
)

// AvailabilityHandler manages availability rules and derived slots.
type AvailabilityHandler struct {
	rules *service.RuleService
	slots *service.SlotService
}

// NewAvailabilityHandler constructs handler.
func NewAvailabilityHandler(rules *service.RuleService, slots *service.SlotService) *AvailabilityHandler {
	return &AvailabilityHandler{rules: rules, slots: slots}
}

// Slots godoc
// @Summary List a consultant's bookable slots
// @Tags Availability
// @Produce json
// @Param consultantId path string true "Consultant ID"
// @Param from query string true "Window start (RFC3339 or YYYY-MM-DD)"
// @Param to query string true "Window end (RFC3339 or YYYY-MM-DD)"
// @Param includeBooked query bool false "Include fully booked slots"
// @Success 200 {object} response.Envelope
// @Router /consultants/{consultantId}/availability [get]
func (h *AvailabilityHandler) Slots(c *gin.Context) {
	from, to, err := parseWindow(c.Query("from"), c.Query("to"))
	if err != nil {
		response.Error(c, err)
		return
	}
	includeBooked, _ := strconv.ParseBool(c.DefaultQuery("includeBooked", "false"))

	slots, err := h.slots.Generate(c.Request.Context(), c.Param("consultantId"), from, to, includeBooked)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}

// ListRules godoc
// @Summary List a consultant's availability rules
// @Tags Availability
// @Produce json
// @Param consultantId path string true "Consultant ID"
// @Param from query string false "Window start"
// @Param to query string false "Window end"
// @Success 200 {object} response.Envelope
// @Router /consultants/{consultantId}/availability-rules [get]
func (h *AvailabilityHandler) ListRules(c *gin.Context) {
	var from, to *time.Time
	if raw := c.Query("from"); raw != "" {
		parsed, err := parseDateParam(raw)
		if err != nil {
			response.Error(c, err)
			return
		}
		from = &parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := parseDateParam(raw)
		if err != nil {
			response.Error(c, err)
			return
		}
		to = &parsed
	}

	rules, err := h.rules.List(c.Request.Context(), c.Param("consultantId"), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rules, nil)
}

// CreateRule godoc
// @Summary Declare an availability rule
// @Tags Availability
// @Accept json
// @Produce json
// @Param consultantId path string true "Consultant ID"
// @Param payload body service.CreateRuleRequest true "Rule payload"
// @Success 201 {object} response.Envelope
// @Router /consultants/{consultantId}/availability-rules [post]
func (h *AvailabilityHandler) CreateRule(c *gin.Context) {
	var req service.CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	rule, err := h.rules.Add(c.Request.Context(), c.Param("consultantId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, rule)
}

// UpdateRule godoc
// @Summary Update an availability rule
// @Tags Availability
// @Accept json
// @Produce json
// @Param ruleId path string true "Rule ID"
// @Param payload body models.RuleUpdate true "Update payload"
// @Success 200 {object} response.Envelope
// @Router /availability-rules/{ruleId} [patch]
func (h *AvailabilityHandler) UpdateRule(c *gin.Context) {
	var update models.RuleUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	rule, err := h.rules.Update(c.Request.Context(), c.Param("ruleId"), update)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rule, nil)
}

// DeleteRule godoc
// @Summary Remove an availability rule
// @Tags Availability
// @Produce json
// @Param ruleId path string true "Rule ID"
// @Success 204
// @Router /availability-rules/{ruleId} [delete]
func (h *AvailabilityHandler) DeleteRule(c *gin.Context) {
	if err := h.rules.Remove(c.Request.Context(), c.Param("ruleId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
