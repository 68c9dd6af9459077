package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/consult-booking-api/internal/models"
)

func newBookingRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func bookingRows(id string, start, end time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "student_id", "consultant_id", "scheduled_start", "scheduled_end", "status", "notes", "confirmation_code", "created_at", "updated_at"}).
		AddRow(id, "s1", "c1", start, end, "SCHEDULED", "", "ABC123", time.Now(), time.Now())
}

func TestBookingRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newBookingRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectExec("INSERT INTO bookings").
		WillReturnResult(sqlmock.NewResult(1, 1))

	booking := &models.Booking{
		StudentID:        "s1",
		ConsultantID:     "c1",
		ScheduledStart:   time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC),
		ScheduledEnd:     time.Date(2026, 9, 7, 11, 0, 0, 0, time.UTC),
		Status:           models.BookingScheduled,
		ConfirmationCode: "ABC123",
	}
	require.NoError(t, repo.Create(context.Background(), booking))
	assert.NotEmpty(t, booking.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryFindOverlapping(t *testing.T) {
	db, mock, cleanup := newBookingRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	start := time.Date(2026, 9, 7, 10, 30, 0, 0, time.UTC)
	end := time.Date(2026, 9, 7, 11, 30, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("status IN ('SCHEDULED', 'CONFIRMED', 'IN_PROGRESS') AND scheduled_start < $3 AND scheduled_end > $2 AND ($4 = '' OR id <> $4)")).
		WithArgs("c1", start, end, "").
		WillReturnRows(bookingRows("b1", start.Add(-30*time.Minute), end.Add(-30*time.Minute)))

	bookings, err := repo.FindOverlapping(context.Background(), "c1", start, end, "")
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, "b1", bookings[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryFindOverlappingExcludesSelf(t *testing.T) {
	db, mock, cleanup := newBookingRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	start := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	mock.ExpectQuery("FROM bookings").
		WithArgs("c1", start, end, "b1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "student_id", "consultant_id", "scheduled_start", "scheduled_end", "status", "notes", "confirmation_code", "created_at", "updated_at"}))

	bookings, err := repo.FindOverlapping(context.Background(), "c1", start, end, "b1")
	require.NoError(t, err)
	assert.Empty(t, bookings)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryUpdateSchedule(t *testing.T) {
	db, mock, cleanup := newBookingRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	start := time.Date(2026, 9, 8, 14, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE bookings SET scheduled_start = $2, scheduled_end = $3, status = $4, notes = $5, updated_at = $6 WHERE id = $1")).
		WithArgs("b1", start, end, string(models.BookingRescheduled), "moved", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.UpdateSchedule(context.Background(), "b1", start, end, models.BookingRescheduled, "moved"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newBookingRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE bookings SET status = $2, notes = $3, updated_at = $4 WHERE id = $1")).
		WithArgs("b1", string(models.BookingCancelled), "cancelled: student request", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "b1", models.BookingCancelled, "cancelled: student request"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryCountActiveInWindow(t *testing.T) {
	db, mock, cleanup := newBookingRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	start := time.Date(2026, 9, 7, 9, 0, 0, 0, time.UTC)
	end := start.Add(8 * time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM bookings")).
		WithArgs("c1", start, end).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	count, err := repo.CountActiveInWindow(context.Background(), "c1", start, end)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryListByStudent(t *testing.T) {
	db, mock, cleanup := newBookingRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	start := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("FROM bookings WHERE student_id = $1 ORDER BY scheduled_start DESC")).
		WithArgs("s1").
		WillReturnRows(bookingRows("b1", start, start.Add(time.Hour)))

	bookings, err := repo.ListByStudent(context.Background(), "s1")
	require.NoError(t, err)
	assert.Len(t, bookings, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
