package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/consult-booking-api/internal/middleware"
	"github.com/noah-isme/consult-booking-api/internal/models"
	"github.com/noah-isme/consult-booking-api/internal/service"
)

type bookingRepoMock struct {
	items map[string]*models.Booking
}

func newBookingRepoMock() *bookingRepoMock {
	return &bookingRepoMock{items: make(map[string]*models.Booking)}
}

func (m *bookingRepoMock) Create(ctx context.Context, booking *models.Booking) error {
	if booking.ID == "" {
		booking.ID = "b1"
	}
	cp := *booking
	m.items[booking.ID] = &cp
	return nil
}

func (m *bookingRepoMock) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	if booking, ok := m.items[id]; ok {
		cp := *booking
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *bookingRepoMock) UpdateSchedule(ctx context.Context, id string, start, end time.Time, status models.BookingStatus, notes string) error {
	if booking, ok := m.items[id]; ok {
		booking.ScheduledStart = start
		booking.ScheduledEnd = end
		booking.Status = status
		booking.Notes = notes
	}
	return nil
}

func (m *bookingRepoMock) UpdateStatus(ctx context.Context, id string, status models.BookingStatus, notes string) error {
	if booking, ok := m.items[id]; ok {
		booking.Status = status
		booking.Notes = notes
	}
	return nil
}

func (m *bookingRepoMock) ListByConsultant(ctx context.Context, consultantID string, from, to time.Time) ([]models.Booking, error) {
	var out []models.Booking
	for _, b := range m.items {
		if b.ConsultantID == consultantID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m *bookingRepoMock) ListByStudent(ctx context.Context, studentID string) ([]models.Booking, error) {
	var out []models.Booking
	for _, b := range m.items {
		if b.StudentID == studentID {
			out = append(out, *b)
		}
	}
	return out, nil
}

type checkerMock struct {
	conflicts []models.Conflict
}

func (m *checkerMock) Check(ctx context.Context, req service.BookingRequest, excludeBookingID string) ([]models.Conflict, error) {
	return m.conflicts, nil
}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func newBookingHandlerForTest(repo *bookingRepoMock, checker *checkerMock) *BookingHandler {
	svc := service.NewBookingService(repo, checker, nil, service.NewCacheService(nil, nil, 0, nil, false), nil, nil, nil, nil)
	return NewBookingHandler(svc)
}

func TestBookingHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := newBookingRepoMock()
	handler := newBookingHandlerForTest(repo, &checkerMock{})

	payload, _ := json.Marshal(service.BookingRequest{
		ConsultantID: "c1",
		StudentID:    "s1",
		Start:        time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC),
		End:          time.Date(2026, 9, 7, 11, 0, 0, 0, time.UTC),
	})
	c, w := newGinContext(http.MethodPost, "/bookings", payload)

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "confirmation_code")
	assert.Len(t, repo.items, 1)
}

func TestBookingHandlerCreateConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := newBookingRepoMock()
	handler := newBookingHandlerForTest(repo, &checkerMock{conflicts: []models.Conflict{
		{Type: models.ConflictDoubleBooking, Message: "taken"},
	}})

	payload, _ := json.Marshal(service.BookingRequest{
		ConsultantID: "c1",
		StudentID:    "s1",
		Start:        time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC),
		End:          time.Date(2026, 9, 7, 11, 0, 0, 0, time.UTC),
	})
	c, w := newGinContext(http.MethodPost, "/bookings", payload)

	handler.Create(c)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "DOUBLE_BOOKING")
	assert.Empty(t, repo.items)
}

func TestBookingHandlerCreateDefaultsStudentFromClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := newBookingRepoMock()
	handler := newBookingHandlerForTest(repo, &checkerMock{})

	payload, _ := json.Marshal(service.BookingRequest{
		ConsultantID: "c1",
		Start:        time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC),
		End:          time.Date(2026, 9, 7, 11, 0, 0, 0, time.UTC),
	})
	c, w := newGinContext(http.MethodPost, "/bookings", payload)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "s9", Role: models.RoleStudent})

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, repo.items, 1)
	for _, booking := range repo.items {
		assert.Equal(t, "s9", booking.StudentID)
	}
}

func TestBookingHandlerCreateInvalidPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newBookingHandlerForTest(newBookingRepoMock(), &checkerMock{})

	c, w := newGinContext(http.MethodPost, "/bookings", []byte("{not json"))
	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBookingHandlerGetNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newBookingHandlerForTest(newBookingRepoMock(), &checkerMock{})

	c, w := newGinContext(http.MethodGet, "/bookings/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.Get(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestBookingHandlerCancel(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := newBookingRepoMock()
	require.NoError(t, repo.Create(context.Background(), &models.Booking{
		ID:           "b1",
		ConsultantID: "c1",
		StudentID:    "s1",
		Status:       models.BookingScheduled,
	}))
	handler := newBookingHandlerForTest(repo, &checkerMock{})

	payload, _ := json.Marshal(CancelRequest{Reason: "student request"})
	c, w := newGinContext(http.MethodPatch, "/bookings/b1/cancel", payload)
	c.Params = gin.Params{{Key: "id", Value: "b1"}}

	handler.Cancel(c)
	c.Writer.WriteHeaderNow()
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, models.BookingCancelled, repo.items["b1"].Status)
}

func TestBookingHandlerReschedule(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := newBookingRepoMock()
	require.NoError(t, repo.Create(context.Background(), &models.Booking{
		ID:             "b1",
		ConsultantID:   "c1",
		StudentID:      "s1",
		ScheduledStart: time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC),
		ScheduledEnd:   time.Date(2026, 9, 7, 11, 0, 0, 0, time.UTC),
		Status:         models.BookingScheduled,
	}))
	handler := newBookingHandlerForTest(repo, &checkerMock{})

	payload, _ := json.Marshal(RescheduleRequest{
		Start:  time.Date(2026, 9, 8, 14, 0, 0, 0, time.UTC),
		End:    time.Date(2026, 9, 8, 15, 0, 0, 0, time.UTC),
		Reason: "clinic closed",
	})
	c, w := newGinContext(http.MethodPatch, "/bookings/b1/reschedule", payload)
	c.Params = gin.Params{{Key: "id", Value: "b1"}}

	handler.Reschedule(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.BookingRescheduled, repo.items["b1"].Status)
}
