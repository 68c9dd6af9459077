package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/consult-booking-api/internal/models"
)

const bookingColumns = "id, student_id, consultant_id, scheduled_start, scheduled_end, status, notes, confirmation_code, created_at, updated_at"

// activeStatusList matches models.ActiveStatuses; kept inline so the
// overlap queries stay a single statement.
const activeStatusList = "('SCHEDULED', 'CONFIRMED', 'IN_PROGRESS')"

// BookingRepository provides persistence for bookings.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository creates a new booking repository.
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// Create stores a new booking record.
func (r *BookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = now
	}
	booking.UpdatedAt = now

	const query = `INSERT INTO bookings (id, student_id, consultant_id, scheduled_start, scheduled_end, status, notes, confirmation_code, created_at, updated_at) VALUES (:id, :student_id, :consultant_id, :scheduled_start, :scheduled_end, :status, :notes, :confirmation_code, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, booking); err != nil {
		return fmt.Errorf("create booking: %w", err)
	}
	return nil
}

// FindByID loads a booking by id.
func (r *BookingRepository) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	query := fmt.Sprintf("SELECT %s FROM bookings WHERE id = $1", bookingColumns)
	var booking models.Booking
	if err := r.db.GetContext(ctx, &booking, query, id); err != nil {
		return nil, err
	}
	return &booking, nil
}

// UpdateSchedule moves a booking to a new window, updating status and notes
// in the same statement so the write stays atomic.
func (r *BookingRepository) UpdateSchedule(ctx context.Context, id string, start, end time.Time, status models.BookingStatus, notes string) error {
	const query = `UPDATE bookings SET scheduled_start = $2, scheduled_end = $3, status = $4, notes = $5, updated_at = $6 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, start, end, status, notes, time.Now().UTC()); err != nil {
		return fmt.Errorf("update booking schedule: %w", err)
	}
	return nil
}

// UpdateStatus sets the booking status and notes.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id string, status models.BookingStatus, notes string) error {
	const query = `UPDATE bookings SET status = $2, notes = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, notes, time.Now().UTC()); err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}
	return nil
}

// FindOverlapping returns active bookings for the consultant whose
// [scheduled_start, scheduled_end) interval intersects [start, end).
// excludeID skips the booking being moved during a reschedule.
func (r *BookingRepository) FindOverlapping(ctx context.Context, consultantID string, start, end time.Time, excludeID string) ([]models.Booking, error) {
	query := fmt.Sprintf("SELECT %s FROM bookings WHERE consultant_id = $1 AND status IN %s AND scheduled_start < $3 AND scheduled_end > $2 AND ($4 = '' OR id <> $4) ORDER BY scheduled_start ASC", bookingColumns, activeStatusList)
	var bookings []models.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, consultantID, start, end, excludeID); err != nil {
		return nil, fmt.Errorf("find overlapping bookings: %w", err)
	}
	return bookings, nil
}

// CountActiveInWindow counts active bookings intersecting the window.
func (r *BookingRepository) CountActiveInWindow(ctx context.Context, consultantID string, start, end time.Time) (int, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM bookings WHERE consultant_id = $1 AND status IN %s AND scheduled_start < $3 AND scheduled_end > $2", activeStatusList)
	var count int
	if err := r.db.GetContext(ctx, &count, query, consultantID, start, end); err != nil {
		return 0, fmt.Errorf("count active bookings: %w", err)
	}
	return count, nil
}

// ListByConsultant returns bookings for a consultant intersecting the window.
func (r *BookingRepository) ListByConsultant(ctx context.Context, consultantID string, from, to time.Time) ([]models.Booking, error) {
	query := fmt.Sprintf("SELECT %s FROM bookings WHERE consultant_id = $1 AND scheduled_start < $3 AND scheduled_end > $2 ORDER BY scheduled_start ASC", bookingColumns)
	var bookings []models.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, consultantID, from, to); err != nil {
		return nil, fmt.Errorf("list bookings by consultant: %w", err)
	}
	return bookings, nil
}

// ListByStudent returns a student's bookings, most recent first.
func (r *BookingRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Booking, error) {
	query := fmt.Sprintf("SELECT %s FROM bookings WHERE student_id = $1 ORDER BY scheduled_start DESC", bookingColumns)
	var bookings []models.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, studentID); err != nil {
		return nil, fmt.Errorf("list bookings by student: %w", err)
	}
	return bookings, nil
}
