package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/consult-booking-api/internal/models"
	appErrors "github.com/noah-isme/consult-booking-api/pkg/errors"
)

type overlapSource interface {
	FindOverlapping(ctx context.Context, consultantID string, start, end time.Time, excludeID string) ([]models.Booking, error)
}

type conflictRuleSource interface {
	ListForWindow(ctx context.Context, consultantID string, from, to *time.Time) ([]models.AvailabilityRule, error)
}

type slotExpander interface {
	Generate(ctx context.Context, consultantID string, from, to time.Time, includeBooked bool) ([]models.TimeSlot, error)
}

// BookingRequest describes a prospective booking window.
type BookingRequest struct {
	ConsultantID string    `json:"consultant_id" validate:"required"`
	StudentID    string    `json:"student_id" validate:"required"`
	Start        time.Time `json:"start" validate:"required"`
	End          time.Time `json:"end" validate:"required"`
}

// ConflictService validates a prospective booking against existing
// bookings, notice requirements and capacity. A bookable request yields
// an empty conflict list; every applicable conflict is reported, not
// just the first.
type ConflictService struct {
	bookings           overlapSource
	rules              conflictRuleSource
	slots              slotExpander
	clock              Clock
	logger             *zap.Logger
	defaultNoticeHours int
	alternativeLimit   int
}

// NewConflictService constructs the service.
func NewConflictService(bookings overlapSource, rules conflictRuleSource, slots slotExpander, clock Clock, logger *zap.Logger, defaultNoticeHours, alternativeLimit int) *ConflictService {
	if clock == nil {
		clock = SystemClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultNoticeHours <= 0 {
		// Safe-by-default when no rule resolves for the window.
		defaultNoticeHours = 24
	}
	if alternativeLimit <= 0 {
		alternativeLimit = 3
	}
	return &ConflictService{
		bookings:           bookings,
		rules:              rules,
		slots:              slots,
		clock:              clock,
		logger:             logger,
		defaultNoticeHours: defaultNoticeHours,
		alternativeLimit:   alternativeLimit,
	}
}

// Check evaluates the request. excludeBookingID skips one booking in the
// DOUBLE_BOOKING check so a reschedule does not conflict with itself.
func (s *ConflictService) Check(ctx context.Context, req BookingRequest, excludeBookingID string) ([]models.Conflict, error) {
	if !req.Start.Before(req.End) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "booking start must be before end")
	}

	now := s.clock.Now()
	conflicts := []models.Conflict{}

	noticeHours, bufferMinutes := s.resolvePolicy(ctx, req)

	// The buffer widens the probe: a session needs clear time on both
	// sides, so bookings inside the padded window collide.
	pad := time.Duration(bufferMinutes) * time.Minute
	overlapping, err := s.bookings.FindOverlapping(ctx, req.ConsultantID, req.Start.Add(-pad), req.End.Add(pad), excludeBookingID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to check overlapping bookings")
	}

	covering, alternatives := s.inspectSlots(ctx, req, now)

	if len(overlapping) > 0 {
		first := overlapping[0]
		conflicts = append(conflicts, models.Conflict{
			Type: models.ConflictDoubleBooking,
			Message: fmt.Sprintf("consultant already has a booking from %s to %s",
				first.ScheduledStart.Format(time.RFC3339), first.ScheduledEnd.Format(time.RFC3339)),
			Alternatives: alternatives,
		})
	}

	if req.Start.Sub(now) < time.Duration(noticeHours)*time.Hour {
		conflicts = append(conflicts, models.Conflict{
			Type:    models.ConflictMinimumNotice,
			Message: fmt.Sprintf("bookings require at least %d hours notice", noticeHours),
		})
	}

	if covering != nil && covering.CurrentBookings >= covering.MaxSessions {
		conflicts = append(conflicts, models.Conflict{
			Type:         models.ConflictMaxSessions,
			Message:      fmt.Sprintf("slot already has %d of %d sessions booked", covering.CurrentBookings, covering.MaxSessions),
			Alternatives: alternatives,
		})
	}

	return conflicts, nil
}

// inspectSlots expands the consultant's slots around the requested window
// and returns the slot covering it plus nearby bookable alternatives.
func (s *ConflictService) inspectSlots(ctx context.Context, req BookingRequest, now time.Time) (*models.TimeSlot, []models.TimeSlot) {
	searchFrom := startOfDay(req.Start)
	if searchFrom.Before(now) {
		searchFrom = now
	}
	searchTo := startOfDay(req.Start).AddDate(0, 0, 7)

	slots, err := s.slots.Generate(ctx, req.ConsultantID, searchFrom, searchTo, true)
	if err != nil {
		s.logger.Warn("slot expansion failed during conflict check",
			zap.String("consultant_id", req.ConsultantID), zap.Error(err))
		return nil, nil
	}

	var covering *models.TimeSlot
	var alternatives []models.TimeSlot
	for i := range slots {
		slot := slots[i]
		if !slot.Start.After(req.Start) && !slot.End.Before(req.End) {
			covering = &slots[i]
			continue
		}
		if slot.Status == models.SlotAvailable && len(alternatives) < s.alternativeLimit && !slot.Overlaps(req.Start, req.End) {
			alternatives = append(alternatives, slot)
		}
	}
	return covering, alternatives
}

// resolvePolicy finds the minimum notice and session buffer of the rule
// matching the requested start. The default notice and a zero buffer
// apply when no rule resolves.
func (s *ConflictService) resolvePolicy(ctx context.Context, req BookingRequest) (noticeHours, bufferMinutes int) {
	dayStart := startOfDay(req.Start)
	dayEnd := dayStart.AddDate(0, 0, 1)

	rules, err := s.rules.ListForWindow(ctx, req.ConsultantID, &dayStart, &dayEnd)
	if err != nil {
		s.logger.Warn("rule lookup failed during notice check",
			zap.String("consultant_id", req.ConsultantID), zap.Error(err))
		return s.defaultNoticeHours, 0
	}

	for i := range rules {
		rule := &rules[i]
		if rule.IsBlocking() || !rule.IsAvailable {
			continue
		}
		loc, locErr := time.LoadLocation(rule.Timezone)
		if locErr != nil {
			loc = time.UTC
		}
		if !rule.AppliesToDate(req.Start.In(loc)) {
			continue
		}
		if iv, ok := ruleIntervalOnDate(rule, &req.Start, loc); ok {
			if !req.Start.Before(iv.start) && !req.End.After(iv.end) {
				return rule.MinimumNoticeHours, rule.BufferMinutes
			}
		}
	}
	return s.defaultNoticeHours, 0
}
