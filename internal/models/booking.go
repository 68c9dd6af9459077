package models

import "time"

// BookingStatus enumerates booking lifecycle states.
type BookingStatus string

const (
	BookingScheduled      BookingStatus = "SCHEDULED"
	BookingConfirmed      BookingStatus = "CONFIRMED"
	BookingInProgress     BookingStatus = "IN_PROGRESS"
	BookingCompleted      BookingStatus = "COMPLETED"
	BookingCancelled      BookingStatus = "CANCELLED"
	BookingNoShow         BookingStatus = "NO_SHOW"
	BookingRescheduled    BookingStatus = "RESCHEDULED"
	BookingTechnicalIssue BookingStatus = "TECHNICAL_ISSUE"
)

// ActiveStatuses are the statuses that occupy a consultant's time. No two
// bookings in these statuses may overlap for one consultant.
var ActiveStatuses = []BookingStatus{
	BookingScheduled,
	BookingConfirmed,
	BookingInProgress,
}

// Booking is a committed reservation of a consultant's time by a student.
type Booking struct {
	ID               string        `db:"id" json:"id"`
	StudentID        string        `db:"student_id" json:"student_id"`
	ConsultantID     string        `db:"consultant_id" json:"consultant_id"`
	ScheduledStart   time.Time     `db:"scheduled_start" json:"scheduled_start"`
	ScheduledEnd     time.Time     `db:"scheduled_end" json:"scheduled_end"`
	Status           BookingStatus `db:"status" json:"status"`
	Notes            string        `db:"notes" json:"notes"`
	ConfirmationCode string        `db:"confirmation_code" json:"confirmation_code"`
	CreatedAt        time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time     `db:"updated_at" json:"updated_at"`
}

// IsActive reports whether the booking occupies the consultant's time.
func (b *Booking) IsActive() bool {
	switch b.Status {
	case BookingScheduled, BookingConfirmed, BookingInProgress:
		return true
	}
	return false
}

// CanBeCancelled reports whether a soft cancel is allowed.
func (b *Booking) CanBeCancelled() bool {
	return b.Status == BookingScheduled || b.Status == BookingConfirmed
}

// CanBeRescheduled reports whether the time window may still be moved.
func (b *Booking) CanBeRescheduled() bool {
	return b.Status == BookingScheduled || b.Status == BookingConfirmed
}

// BookingConfirmation is returned to the caller after a successful
// booking or reschedule commit.
type BookingConfirmation struct {
	BookingID        string    `json:"booking_id"`
	ConsultantID     string    `json:"consultant_id"`
	StudentID        string    `json:"student_id"`
	ScheduledStart   time.Time `json:"scheduled_start"`
	ScheduledEnd     time.Time `json:"scheduled_end"`
	ConfirmationCode string    `json:"confirmation_code"`
	JoinReference    string    `json:"join_reference"`
}

// ConflictType enumerates machine-readable reasons a booking cannot commit.
type ConflictType string

const (
	ConflictDoubleBooking ConflictType = "DOUBLE_BOOKING"
	ConflictMinimumNotice ConflictType = "MINIMUM_NOTICE"
	ConflictMaxSessions   ConflictType = "MAX_SESSIONS"
)

// Conflict is a first-class return value, not an error: it names one
// reason a prospective booking cannot be committed.
type Conflict struct {
	Type         ConflictType `json:"type"`
	Message      string       `json:"message"`
	Alternatives []TimeSlot   `json:"alternatives,omitempty"`
}

// BookingEventType enumerates notification event kinds.
type BookingEventType string

const (
	EventBookingCreated     BookingEventType = "booking.created"
	EventBookingRescheduled BookingEventType = "booking.rescheduled"
	EventBookingCancelled   BookingEventType = "booking.cancelled"
)

// BookingEvent is handed to the notifier after a successful commit.
type BookingEvent struct {
	Type      BookingEventType `json:"type"`
	Booking   Booking          `json:"booking"`
	Reason    string           `json:"reason,omitempty"`
	EmittedAt time.Time        `json:"emitted_at"`
}
