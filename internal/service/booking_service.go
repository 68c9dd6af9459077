package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/consult-booking-api/internal/models"
	appErrors "github.com/noah-isme/consult-booking-api/pkg/errors"
)

type bookingRepository interface {
	Create(ctx context.Context, booking *models.Booking) error
	FindByID(ctx context.Context, id string) (*models.Booking, error)
	UpdateSchedule(ctx context.Context, id string, start, end time.Time, status models.BookingStatus, notes string) error
	UpdateStatus(ctx context.Context, id string, status models.BookingStatus, notes string) error
	ListByConsultant(ctx context.Context, consultantID string, from, to time.Time) ([]models.Booking, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Booking, error)
}

type conflictChecker interface {
	Check(ctx context.Context, req BookingRequest, excludeBookingID string) ([]models.Conflict, error)
}

const confirmationCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
const confirmationCodeLength = 6

// consultantLocks serialises booking writes per consultant. The conflict
// check and the subsequent write form one critical section; without it
// two concurrent overlapping requests could both pass the check.
type consultantLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newConsultantLocks() *consultantLocks {
	return &consultantLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *consultantLocks) acquire(consultantID string) *sync.Mutex {
	l.mu.Lock()
	lock, ok := l.locks[consultantID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[consultantID] = lock
	}
	l.mu.Unlock()
	lock.Lock()
	return lock
}

// BookingService orchestrates the booking lifecycle. Conflicts are
// returned to the caller before any mutation; a booking is never
// partially created.
type BookingService struct {
	repo      bookingRepository
	conflicts conflictChecker
	notifier  Notifier
	cache     *CacheService
	clock     Clock
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	locks     *consultantLocks
}

// NewBookingService constructs the service.
func NewBookingService(repo bookingRepository, conflicts conflictChecker, notifier Notifier, cache *CacheService, clock Clock, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *BookingService {
	if clock == nil {
		clock = SystemClock()
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookingService{
		repo:      repo,
		conflicts: conflicts,
		notifier:  notifier,
		cache:     cache,
		clock:     clock,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		locks:     newConsultantLocks(),
	}
}

// Book commits a new booking. When conflicts exist the call performs no
// write and returns them; exactly one of confirmation or conflicts is
// non-empty on a nil error.
func (s *BookingService) Book(ctx context.Context, req BookingRequest) (*models.BookingConfirmation, []models.Conflict, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking payload")
	}
	if !req.Start.Before(req.End) {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "booking start must be before end")
	}

	lock := s.locks.acquire(req.ConsultantID)
	defer lock.Unlock()

	conflicts, err := s.conflicts.Check(ctx, req, "")
	if err != nil {
		return nil, nil, err
	}
	if len(conflicts) > 0 {
		s.recordConflicts(conflicts)
		return nil, conflicts, nil
	}

	code, err := generateConfirmationCode()
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate confirmation code")
	}

	booking := &models.Booking{
		StudentID:        req.StudentID,
		ConsultantID:     req.ConsultantID,
		ScheduledStart:   req.Start,
		ScheduledEnd:     req.End,
		Status:           models.BookingScheduled,
		ConfirmationCode: code,
	}

	if err := s.repo.Create(ctx, booking); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to store booking")
	}

	s.afterCommit(ctx, models.EventBookingCreated, *booking, "")
	if s.metrics != nil {
		s.metrics.RecordBookingOperation("created")
	}

	return s.confirmation(booking), nil, nil
}

// Reschedule moves an existing booking to a new window. The booking
// being moved is excluded from the DOUBLE_BOOKING check against itself.
func (s *BookingService) Reschedule(ctx context.Context, bookingID string, newStart, newEnd time.Time, reason string) (*models.BookingConfirmation, []models.Conflict, error) {
	if !newStart.Before(newEnd) {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "booking start must be before end")
	}

	// First load only resolves the consultant for the lock key. The
	// status guard runs on a fresh read inside the critical section so a
	// concurrent cancel cannot slip between check and write.
	booking, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}

	lock := s.locks.acquire(booking.ConsultantID)
	defer lock.Unlock()

	booking, err = s.load(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}
	if !booking.CanBeRescheduled() {
		return nil, nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("booking in status %s cannot be rescheduled", booking.Status))
	}

	req := BookingRequest{
		ConsultantID: booking.ConsultantID,
		StudentID:    booking.StudentID,
		Start:        newStart,
		End:          newEnd,
	}
	conflicts, err := s.conflicts.Check(ctx, req, booking.ID)
	if err != nil {
		return nil, nil, err
	}
	if len(conflicts) > 0 {
		s.recordConflicts(conflicts)
		return nil, conflicts, nil
	}

	// The prior window is not retained as structured history; the note
	// keeps a human-readable trace of the move.
	note := fmt.Sprintf("rescheduled from %s-%s: %s",
		booking.ScheduledStart.Format(time.RFC3339), booking.ScheduledEnd.Format(time.RFC3339), reason)
	notes := appendNote(booking.Notes, note)

	if err := s.repo.UpdateSchedule(ctx, booking.ID, newStart, newEnd, models.BookingRescheduled, notes); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to update booking")
	}

	booking.ScheduledStart = newStart
	booking.ScheduledEnd = newEnd
	booking.Status = models.BookingRescheduled
	booking.Notes = notes

	s.afterCommit(ctx, models.EventBookingRescheduled, *booking, reason)
	if s.metrics != nil {
		s.metrics.RecordBookingOperation("rescheduled")
	}

	return s.confirmation(booking), nil, nil
}

// Cancel soft-cancels a booking. The row is never deleted; history stays
// available for downstream reporting.
func (s *BookingService) Cancel(ctx context.Context, bookingID, reason string) error {
	booking, err := s.load(ctx, bookingID)
	if err != nil {
		return err
	}

	lock := s.locks.acquire(booking.ConsultantID)
	defer lock.Unlock()

	booking, err = s.load(ctx, bookingID)
	if err != nil {
		return err
	}
	if !booking.CanBeCancelled() {
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("booking in status %s cannot be cancelled", booking.Status))
	}

	notes := appendNote(booking.Notes, fmt.Sprintf("cancelled: %s", reason))
	if err := s.repo.UpdateStatus(ctx, booking.ID, models.BookingCancelled, notes); err != nil {
		return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to cancel booking")
	}

	booking.Status = models.BookingCancelled
	booking.Notes = notes

	s.afterCommit(ctx, models.EventBookingCancelled, *booking, reason)
	if s.metrics != nil {
		s.metrics.RecordBookingOperation("cancelled")
	}

	return nil
}

// GetByID loads a booking.
func (s *BookingService) GetByID(ctx context.Context, bookingID string) (*models.Booking, error) {
	return s.load(ctx, bookingID)
}

// ListConsultantSchedule returns a consultant's bookings for a window.
func (s *BookingService) ListConsultantSchedule(ctx context.Context, consultantID string, from, to time.Time) ([]models.Booking, error) {
	if !from.Before(to) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date range start must be before end")
	}
	bookings, err := s.repo.ListByConsultant(ctx, consultantID, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to list bookings")
	}
	return bookings, nil
}

// ListStudentBookings returns a student's booking history.
func (s *BookingService) ListStudentBookings(ctx context.Context, studentID string) ([]models.Booking, error) {
	bookings, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to list bookings")
	}
	return bookings, nil
}

func (s *BookingService) load(ctx context.Context, bookingID string) (*models.Booking, error) {
	booking, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load booking")
	}
	return booking, nil
}

// afterCommit runs the post-commit side effects: cache invalidation and
// fire-and-forget notification. Neither can fail the committed write.
func (s *BookingService) afterCommit(ctx context.Context, eventType models.BookingEventType, booking models.Booking, reason string) {
	if err := s.cache.InvalidateConsultant(ctx, booking.ConsultantID); err != nil {
		s.logger.Warn("slot cache invalidation failed",
			zap.String("consultant_id", booking.ConsultantID), zap.Error(err))
	}
	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, models.BookingEvent{
			Type:    eventType,
			Booking: booking,
			Reason:  reason,
		}); err != nil {
			s.logger.Warn("notification dispatch failed",
				zap.String("booking_id", booking.ID), zap.Error(err))
		}
	}
}

func (s *BookingService) recordConflicts(conflicts []models.Conflict) {
	if s.metrics == nil {
		return
	}
	for _, conflict := range conflicts {
		s.metrics.RecordConflict(string(conflict.Type))
	}
}

func (s *BookingService) confirmation(booking *models.Booking) *models.BookingConfirmation {
	return &models.BookingConfirmation{
		BookingID:        booking.ID,
		ConsultantID:     booking.ConsultantID,
		StudentID:        booking.StudentID,
		ScheduledStart:   booking.ScheduledStart,
		ScheduledEnd:     booking.ScheduledEnd,
		ConfirmationCode: booking.ConfirmationCode,
		JoinReference:    fmt.Sprintf("/sessions/%s/join", booking.ID),
	}
}

func appendNote(existing, note string) string {
	note = strings.TrimSpace(note)
	if note == "" {
		return existing
	}
	if existing == "" {
		return note
	}
	return existing + "\n" + note
}

func generateConfirmationCode() (string, error) {
	code := make([]byte, confirmationCodeLength)
	max := big.NewInt(int64(len(confirmationCodeAlphabet)))
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		code[i] = confirmationCodeAlphabet[n.Int64()]
	}
	return string(code), nil
}
