package models

import "time"

// RuleKind enumerates the supported availability rule kinds.
type RuleKind string

const (
	RuleRecurringWeekly RuleKind = "RECURRING_WEEKLY"
	RuleOneTime         RuleKind = "ONE_TIME"
	RuleBlockedTime     RuleKind = "BLOCKED_TIME"
	RuleHolidayBlock    RuleKind = "HOLIDAY_BLOCK"
)

// AvailabilityRule is a consultant-owned declarative statement of when
// they are (or are not) bookable. Start/end times are local to Timezone
// in HH:MM form.
type AvailabilityRule struct {
	ID                 string     `db:"id" json:"id"`
	ConsultantID       string     `db:"consultant_id" json:"consultant_id"`
	Kind               RuleKind   `db:"kind" json:"kind"`
	DayOfWeek          *int       `db:"day_of_week" json:"day_of_week,omitempty"`
	SpecificDate       *time.Time `db:"specific_date" json:"specific_date,omitempty"`
	StartTime          string     `db:"start_time" json:"start_time"`
	EndTime            string     `db:"end_time" json:"end_time"`
	MaxSessions        int        `db:"max_sessions" json:"max_sessions"`
	BufferMinutes      int        `db:"buffer_minutes" json:"buffer_minutes"`
	BookingWindowDays  int        `db:"booking_window_days" json:"booking_window_days"`
	MinimumNoticeHours int        `db:"minimum_notice_hours" json:"minimum_notice_hours"`
	IsAvailable        bool       `db:"is_available" json:"is_available"`
	Timezone           string     `db:"timezone" json:"timezone"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}

// IsBlocking reports whether the rule subtracts time instead of adding it.
// A blocking rule never contributes AVAILABLE slots.
func (r *AvailabilityRule) IsBlocking() bool {
	return r.Kind == RuleBlockedTime || r.Kind == RuleHolidayBlock
}

// AppliesToDate reports whether the rule contributes intervals on the
// given calendar date (interpreted in the rule's timezone).
func (r *AvailabilityRule) AppliesToDate(date time.Time) bool {
	switch r.Kind {
	case RuleRecurringWeekly:
		return r.DayOfWeek != nil && int(date.Weekday()) == *r.DayOfWeek
	case RuleOneTime, RuleBlockedTime, RuleHolidayBlock:
		if r.SpecificDate == nil {
			return false
		}
		y1, m1, d1 := r.SpecificDate.Date()
		y2, m2, d2 := date.Date()
		return y1 == y2 && m1 == m2 && d1 == d2
	default:
		return false
	}
}

// RuleUpdate enumerates exactly the mutable rule fields. Kind, owner and
// identity are immutable once created; nil fields are left untouched.
type RuleUpdate struct {
	DayOfWeek          *int       `json:"day_of_week,omitempty"`
	SpecificDate       *time.Time `json:"specific_date,omitempty"`
	StartTime          *string    `json:"start_time,omitempty"`
	EndTime            *string    `json:"end_time,omitempty"`
	MaxSessions        *int       `json:"max_sessions,omitempty"`
	BufferMinutes      *int       `json:"buffer_minutes,omitempty"`
	BookingWindowDays  *int       `json:"booking_window_days,omitempty"`
	MinimumNoticeHours *int       `json:"minimum_notice_hours,omitempty"`
	IsAvailable        *bool      `json:"is_available,omitempty"`
	Timezone           *string    `json:"timezone,omitempty"`
}

// Apply copies the set fields onto the rule.
func (u RuleUpdate) Apply(rule *AvailabilityRule) {
	if u.DayOfWeek != nil {
		rule.DayOfWeek = u.DayOfWeek
	}
	if u.SpecificDate != nil {
		rule.SpecificDate = u.SpecificDate
	}
	if u.StartTime != nil {
		rule.StartTime = *u.StartTime
	}
	if u.EndTime != nil {
		rule.EndTime = *u.EndTime
	}
	if u.MaxSessions != nil {
		rule.MaxSessions = *u.MaxSessions
	}
	if u.BufferMinutes != nil {
		rule.BufferMinutes = *u.BufferMinutes
	}
	if u.BookingWindowDays != nil {
		rule.BookingWindowDays = *u.BookingWindowDays
	}
	if u.MinimumNoticeHours != nil {
		rule.MinimumNoticeHours = *u.MinimumNoticeHours
	}
	if u.IsAvailable != nil {
		rule.IsAvailable = *u.IsAvailable
	}
	if u.Timezone != nil {
		rule.Timezone = *u.Timezone
	}
}
