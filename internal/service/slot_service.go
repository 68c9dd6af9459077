package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/consult-booking-api/internal/models"
	appErrors "github.com/noah-isme/consult-booking-api/pkg/errors"
)

type slotRuleSource interface {
	ListForWindow(ctx context.Context, consultantID string, from, to *time.Time) ([]models.AvailabilityRule, error)
	ListConsultantIDs(ctx context.Context) ([]string, error)
}

type slotBookingSource interface {
	ListByConsultant(ctx context.Context, consultantID string, from, to time.Time) ([]models.Booking, error)
}

// SlotService expands availability rules and bookings into concrete time
// slots. Slots are recomputed on every query; the optional cache is
// invalidated on every rule or booking write for the consultant.
type SlotService struct {
	rules        slotRuleSource
	bookings     slotBookingSource
	cache        *CacheService
	clock        Clock
	metrics      *MetricsService
	logger       *zap.Logger
	maxRangeDays int
}

// NewSlotService constructs the service.
func NewSlotService(rules slotRuleSource, bookings slotBookingSource, cache *CacheService, clock Clock, metrics *MetricsService, logger *zap.Logger, maxRangeDays int) *SlotService {
	if clock == nil {
		clock = SystemClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRangeDays <= 0 {
		maxRangeDays = 90
	}
	return &SlotService{
		rules:        rules,
		bookings:     bookings,
		cache:        cache,
		clock:        clock,
		metrics:      metrics,
		logger:       logger,
		maxRangeDays: maxRangeDays,
	}
}

type interval struct {
	start time.Time
	end   time.Time
}

// Generate expands the consultant's rules over [from, to) into ordered
// slots. Identical rules, bookings and range always yield an identical
// ordered list. Slots whose start is not in the future are dropped.
func (s *SlotService) Generate(ctx context.Context, consultantID string, from, to time.Time, includeBooked bool) ([]models.TimeSlot, error) {
	if consultantID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "consultant id is required")
	}
	if !from.Before(to) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date range start must be before end")
	}
	if to.Sub(from) > time.Duration(s.maxRangeDays)*24*time.Hour {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("date range exceeds %d days", s.maxRangeDays))
	}

	now := s.clock.Now()
	cacheKey := fmt.Sprintf("slots:%s:%d:%d:%t", consultantID, from.Unix(), to.Unix(), includeBooked)

	var cached []models.TimeSlot
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return dropElapsed(cached, now), nil
	}

	started := time.Now()
	slots, err := s.expand(ctx, consultantID, from, to, includeBooked, now)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.ObserveSlotGeneration(time.Since(started))
	}

	_ = s.cache.Set(ctx, cacheKey, slots, 0)

	return dropElapsed(slots, now), nil
}

func (s *SlotService) expand(ctx context.Context, consultantID string, from, to time.Time, includeBooked bool, now time.Time) ([]models.TimeSlot, error) {
	rules, err := s.rules.ListForWindow(ctx, consultantID, &from, &to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load rules")
	}

	var blocks []interval
	type candidate struct {
		interval
		rule *models.AvailabilityRule
	}
	var positives []candidate

	for i := range rules {
		rule := &rules[i]
		loc, locErr := time.LoadLocation(rule.Timezone)
		if locErr != nil {
			s.logger.Warn("rule has unknown timezone, using UTC", zap.String("rule_id", rule.ID), zap.String("timezone", rule.Timezone))
			loc = time.UTC
		}

		if rule.IsBlocking() {
			if iv, ok := ruleIntervalOnDate(rule, rule.SpecificDate, loc); ok {
				blocks = append(blocks, iv)
			}
			continue
		}
		if !rule.IsAvailable {
			continue
		}

		switch rule.Kind {
		case models.RuleRecurringWeekly:
			for day := startOfDay(from.In(loc)); day.Before(to); day = day.AddDate(0, 0, 1) {
				if rule.DayOfWeek == nil || int(day.Weekday()) != *rule.DayOfWeek {
					continue
				}
				if iv, ok := ruleIntervalOnDate(rule, &day, loc); ok && iv.start.Before(to) && iv.end.After(from) {
					positives = append(positives, candidate{interval: iv, rule: rule})
				}
			}
		case models.RuleOneTime:
			if iv, ok := ruleIntervalOnDate(rule, rule.SpecificDate, loc); ok && iv.start.Before(to) && iv.end.After(from) {
				positives = append(positives, candidate{interval: iv, rule: rule})
			}
		}
	}

	var slots []models.TimeSlot
	var buffers []time.Duration
	for _, pos := range positives {
		for _, piece := range subtract(pos.interval, blocks) {
			if pos.rule.BookingWindowDays > 0 && piece.start.After(now.AddDate(0, 0, pos.rule.BookingWindowDays)) {
				continue
			}
			slots = append(slots, models.TimeSlot{
				ConsultantID:    consultantID,
				Start:           piece.start,
				End:             piece.end,
				DurationMinutes: int(piece.end.Sub(piece.start) / time.Minute),
				Status:          models.SlotAvailable,
				MaxSessions:     pos.rule.MaxSessions,
				SourceRuleID:    pos.rule.ID,
			})
			buffers = append(buffers, time.Duration(pos.rule.BufferMinutes)*time.Minute)
		}
	}

	if includeBooked && len(slots) > 0 {
		bookings, err := s.bookings.ListByConsultant(ctx, consultantID, from, to)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load bookings")
		}
		for i := range slots {
			count := 0
			for j := range bookings {
				// A session occupies its window plus the rule's buffer
				// on both sides.
				if bookings[j].IsActive() && slots[i].Overlaps(bookings[j].ScheduledStart.Add(-buffers[i]), bookings[j].ScheduledEnd.Add(buffers[i])) {
					count++
				}
			}
			if count > 0 {
				slots[i].Status = models.SlotBooked
				if count > slots[i].MaxSessions {
					count = slots[i].MaxSessions
				}
				slots[i].CurrentBookings = count
			}
		}
	}

	sort.SliceStable(slots, func(i, j int) bool {
		if slots[i].Start.Equal(slots[j].Start) {
			return slots[i].ConsultantID < slots[j].ConsultantID
		}
		return slots[i].Start.Before(slots[j].Start)
	})

	return slots, nil
}

// FindAvailable expands slots across consultants, drops everything that
// is not bookable, and ranks the remainder against the preferences.
func (s *SlotService) FindAvailable(ctx context.Context, prefs models.SlotPreferences, from, to time.Time) ([]models.TimeSlot, error) {
	consultants := prefs.PreferredConsultants
	if len(consultants) == 0 {
		ids, err := s.rules.ListConsultantIDs(ctx)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to list consultants")
		}
		consultants = ids
	}

	var available []models.TimeSlot
	for _, consultantID := range consultants {
		slots, err := s.Generate(ctx, consultantID, from, to, true)
		if err != nil {
			return nil, err
		}
		for _, slot := range slots {
			if slot.Status == models.SlotAvailable {
				available = append(available, slot)
			}
		}
	}

	return RankSlots(available, prefs, s.clock.Now()), nil
}

// ruleIntervalOnDate materialises the rule's HH:MM window on the given
// calendar date in loc.
func ruleIntervalOnDate(rule *models.AvailabilityRule, date *time.Time, loc *time.Location) (interval, bool) {
	if date == nil {
		return interval{}, false
	}
	startMin, err := parseTimeOfDay(rule.StartTime)
	if err != nil {
		return interval{}, false
	}
	endMin, err := parseTimeOfDay(rule.EndTime)
	if err != nil {
		return interval{}, false
	}
	d := date.In(loc)
	y, m, day := d.Date()
	return interval{
		start: time.Date(y, m, day, startMin/60, startMin%60, 0, 0, loc),
		end:   time.Date(y, m, day, endMin/60, endMin%60, 0, 0, loc),
	}, true
}

// subtract removes every blocking interval from the positive interval,
// returning the remaining pieces in chronological order.
func subtract(pos interval, blocks []interval) []interval {
	pieces := []interval{pos}
	for _, block := range blocks {
		var next []interval
		for _, piece := range pieces {
			if !block.start.Before(piece.end) || !piece.start.Before(block.end) {
				next = append(next, piece)
				continue
			}
			if piece.start.Before(block.start) {
				next = append(next, interval{start: piece.start, end: block.start})
			}
			if block.end.Before(piece.end) {
				next = append(next, interval{start: block.end, end: piece.end})
			}
		}
		pieces = next
	}
	return pieces
}

func dropElapsed(slots []models.TimeSlot, now time.Time) []models.TimeSlot {
	result := make([]models.TimeSlot, 0, len(slots))
	for _, slot := range slots {
		if slot.Start.After(now) {
			result = append(result, slot)
		}
	}
	return result
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// parseTimeOfDay parses HH:MM into minutes since midnight.
func parseTimeOfDay(raw string) (int, error) {
	parsed, err := time.Parse("15:04", raw)
	if err != nil {
		return 0, fmt.Errorf("parse time of day %q: %w", raw, err)
	}
	return parsed.Hour()*60 + parsed.Minute(), nil
}
