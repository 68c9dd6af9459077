package models

import "time"

// SlotStatus enumerates derived slot states.
type SlotStatus string

const (
	SlotAvailable SlotStatus = "AVAILABLE"
	SlotBooked    SlotStatus = "BOOKED"
	SlotBlocked   SlotStatus = "BLOCKED"
	SlotPast      SlotStatus = "PAST"
)

// TimeSlot is a concrete bookable (or booked/blocked) interval computed
// from rules and bookings for a given range. Slots are derived on every
// query and never persisted.
type TimeSlot struct {
	ConsultantID    string     `json:"consultant_id"`
	Start           time.Time  `json:"start"`
	End             time.Time  `json:"end"`
	DurationMinutes int        `json:"duration_minutes"`
	Status          SlotStatus `json:"status"`
	MaxSessions     int        `json:"max_sessions"`
	CurrentBookings int        `json:"current_bookings"`
	SourceRuleID    string     `json:"source_rule_id"`
}

// SpareCapacity returns the number of sessions still bookable in the slot.
func (s *TimeSlot) SpareCapacity() int {
	spare := s.MaxSessions - s.CurrentBookings
	if spare < 0 {
		return 0
	}
	return spare
}

// Overlaps reports whether [start, end) intersects the slot interval.
func (s *TimeSlot) Overlaps(start, end time.Time) bool {
	return start.Before(s.End) && s.Start.Before(end)
}

// SlotPreferences captures a requester's stated preferences used to rank
// candidate slots. Time-of-day values use HH:MM in the slot's local zone.
type SlotPreferences struct {
	PreferredConsultants []string `json:"preferred_consultants"`
	PreferredTimeSlots   []string `json:"preferred_time_slots"`
	AvoidTimes           []string `json:"avoid_times"`
}
