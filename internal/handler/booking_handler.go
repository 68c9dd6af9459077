package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/consult-booking-api/internal/models"
	"github.com/noah-isme/consult-booking-api/internal/service"
	appErrors "github.com/noah-isme/consult-booking-api/pkg/errors"
	"github.com/noah-isme/consult-booking-api/pkg/response"
)

// RescheduleRequest captures the payload to move a booking.
type RescheduleRequest struct {
	Start  time.Time `json:"start" binding:"required"`
	End    time.Time `json:"end" binding:"required"`
	Reason string    `json:"reason"`
}

// CancelRequest captures the payload to cancel a booking.
type CancelRequest struct {
	Reason string `json:"reason"`
}

// BookingHandler manages the booking lifecycle endpoints.
type BookingHandler struct {
	service *service.BookingService
}

// NewBookingHandler constructs handler.
func NewBookingHandler(svc *service.BookingService) *BookingHandler {
	return &BookingHandler{service: svc}
}

// Create godoc
// @Summary Book a consultation slot
// @Tags Bookings
// @Accept json
// @Produce json
// @Param payload body service.BookingRequest true "Booking payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /bookings [post]
func (h *BookingHandler) Create(c *gin.Context) {
	var req service.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if req.StudentID == "" {
		if claims := claimsFromContext(c); claims != nil && claims.Role == models.RoleStudent {
			req.StudentID = claims.UserID
		}
	}
	confirmation, conflicts, err := h.service.Book(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if len(conflicts) > 0 {
		response.Conflicts(c, conflicts)
		return
	}
	response.Created(c, confirmation)
}

// Get godoc
// @Summary Fetch a booking
// @Tags Bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Envelope
// @Router /bookings/{id} [get]
func (h *BookingHandler) Get(c *gin.Context) {
	booking, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, booking, nil)
}

// Reschedule godoc
// @Summary Move a booking to a new window
// @Tags Bookings
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param payload body RescheduleRequest true "New window"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /bookings/{id}/reschedule [patch]
func (h *BookingHandler) Reschedule(c *gin.Context) {
	var req RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	confirmation, conflicts, err := h.service.Reschedule(c.Request.Context(), c.Param("id"), req.Start, req.End, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	if len(conflicts) > 0 {
		response.Conflicts(c, conflicts)
		return
	}
	response.JSON(c, http.StatusOK, confirmation, nil)
}

// Cancel godoc
// @Summary Cancel a booking
// @Tags Bookings
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param payload body CancelRequest false "Cancellation reason"
// @Success 204
// @Router /bookings/{id}/cancel [patch]
func (h *BookingHandler) Cancel(c *gin.Context) {
	var req CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.service.Cancel(c.Request.Context(), c.Param("id"), req.Reason); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListByStudent godoc
// @Summary List a student's bookings
// @Tags Bookings
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{studentId}/bookings [get]
func (h *BookingHandler) ListByStudent(c *gin.Context) {
	bookings, err := h.service.ListStudentBookings(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, bookings, nil)
}
