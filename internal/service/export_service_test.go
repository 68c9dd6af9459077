package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/consult-booking-api/internal/models"
)

type scheduleStub struct {
	bookings []models.Booking
	err      error
}

func (s *scheduleStub) ListConsultantSchedule(ctx context.Context, consultantID string, from, to time.Time) ([]models.Booking, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.bookings, nil
}

func exportWindow() (time.Time, time.Time) {
	return testMonday, testMonday.AddDate(0, 0, 7)
}

func TestExportServiceRenderCSV(t *testing.T) {
	source := &scheduleStub{bookings: []models.Booking{
		{
			ID:               "b1",
			StudentID:        "s1",
			ConsultantID:     "c1",
			ScheduledStart:   time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC),
			ScheduledEnd:     time.Date(2026, 9, 7, 11, 0, 0, 0, time.UTC),
			Status:           models.BookingScheduled,
			ConfirmationCode: "ABC123",
		},
	}}
	svc := NewExportService(source, nil)

	from, to := exportWindow()
	result, err := svc.RenderSchedule(context.Background(), "c1", from, to, ExportCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", result.MimeType)
	assert.True(t, strings.HasSuffix(result.Filename, ".csv"))

	body := string(result.Content)
	assert.Contains(t, body, "Booking ID")
	assert.Contains(t, body, "b1")
	assert.Contains(t, body, "ABC123")
	assert.Contains(t, body, "SCHEDULED")
}

func TestExportServiceRenderPDF(t *testing.T) {
	source := &scheduleStub{bookings: []models.Booking{
		{
			ID:             "b1",
			StudentID:      "s1",
			ConsultantID:   "c1",
			ScheduledStart: time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC),
			ScheduledEnd:   time.Date(2026, 9, 7, 11, 0, 0, 0, time.UTC),
			Status:         models.BookingScheduled,
		},
	}}
	svc := NewExportService(source, nil)

	from, to := exportWindow()
	result, err := svc.RenderSchedule(context.Background(), "c1", from, to, ExportPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.MimeType)
	assert.True(t, strings.HasSuffix(result.Filename, ".pdf"))
	assert.True(t, strings.HasPrefix(string(result.Content), "%PDF"))
}

func TestExportServiceUnsupportedFormat(t *testing.T) {
	svc := NewExportService(&scheduleStub{}, nil)

	from, to := exportWindow()
	_, err := svc.RenderSchedule(context.Background(), "c1", from, to, ExportFormat("xlsx"))
	assert.Error(t, err)
}

func TestParseExportFormat(t *testing.T) {
	format, err := ParseExportFormat("")
	require.NoError(t, err)
	assert.Equal(t, ExportCSV, format)

	format, err = ParseExportFormat("PDF")
	require.NoError(t, err)
	assert.Equal(t, ExportPDF, format)

	_, err = ParseExportFormat("docx")
	assert.Error(t, err)
}
