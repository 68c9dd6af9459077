package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/consult-booking-api/internal/models"
	appErrors "github.com/noah-isme/consult-booking-api/pkg/errors"
	"github.com/noah-isme/consult-booking-api/pkg/export"
)

// ExportFormat enumerates supported schedule export formats.
type ExportFormat string

const (
	ExportCSV ExportFormat = "csv"
	ExportPDF ExportFormat = "pdf"
)

// ExportResult carries a rendered schedule document.
type ExportResult struct {
	Filename string
	MimeType string
	Content  []byte
}

type scheduleSource interface {
	ListConsultantSchedule(ctx context.Context, consultantID string, from, to time.Time) ([]models.Booking, error)
}

// ExportService renders consultant schedules as downloadable documents.
type ExportService struct {
	bookings scheduleSource
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	logger   *zap.Logger
}

// NewExportService constructs the service.
func NewExportService(bookings scheduleSource, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		bookings: bookings,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		logger:   logger,
	}
}

// RenderSchedule produces the consultant's schedule for the window in
// the requested format.
func (s *ExportService) RenderSchedule(ctx context.Context, consultantID string, from, to time.Time, format ExportFormat) (*ExportResult, error) {
	bookings, err := s.bookings.ListConsultantSchedule(ctx, consultantID, from, to)
	if err != nil {
		return nil, err
	}

	dataset := scheduleDataset(bookings)
	filename := fmt.Sprintf("schedule-%s-%s", consultantID, from.Format("2006-01-02"))

	switch format {
	case ExportCSV:
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportResult{Filename: filename + ".csv", MimeType: "text/csv", Content: content}, nil
	case ExportPDF:
		title := fmt.Sprintf("Consultation Schedule %s to %s", from.Format("2006-01-02"), to.Format("2006-01-02"))
		content, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportResult{Filename: filename + ".pdf", MimeType: "application/pdf", Content: content}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

func scheduleDataset(bookings []models.Booking) export.Dataset {
	headers := []string{"Booking ID", "Student", "Start", "End", "Status", "Confirmation"}
	rows := make([]map[string]string, 0, len(bookings))
	for _, b := range bookings {
		rows = append(rows, map[string]string{
			"Booking ID":   b.ID,
			"Student":      b.StudentID,
			"Start":        b.ScheduledStart.Format(time.RFC3339),
			"End":          b.ScheduledEnd.Format(time.RFC3339),
			"Status":       string(b.Status),
			"Confirmation": b.ConfirmationCode,
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

// ParseExportFormat normalises a format query value.
func ParseExportFormat(raw string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "csv":
		return ExportCSV, nil
	case "pdf":
		return ExportPDF, nil
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", raw))
	}
}
