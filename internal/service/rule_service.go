package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/consult-booking-api/internal/models"
	appErrors "github.com/noah-isme/consult-booking-api/pkg/errors"
)

type ruleRepository interface {
	Create(ctx context.Context, rule *models.AvailabilityRule) error
	FindByID(ctx context.Context, id string) (*models.AvailabilityRule, error)
	Update(ctx context.Context, rule *models.AvailabilityRule) error
	Delete(ctx context.Context, id string) error
	ListForWindow(ctx context.Context, consultantID string, from, to *time.Time) ([]models.AvailabilityRule, error)
}

// CreateRuleRequest captures the payload to declare availability.
type CreateRuleRequest struct {
	Kind               models.RuleKind `json:"kind" validate:"required"`
	DayOfWeek          *int            `json:"day_of_week"`
	SpecificDate       *time.Time      `json:"specific_date"`
	StartTime          string          `json:"start_time" validate:"required"`
	EndTime            string          `json:"end_time" validate:"required"`
	MaxSessions        int             `json:"max_sessions"`
	BufferMinutes      int             `json:"buffer_minutes" validate:"min=0"`
	BookingWindowDays  int             `json:"booking_window_days" validate:"min=0"`
	MinimumNoticeHours int             `json:"minimum_notice_hours" validate:"min=0"`
	IsAvailable        *bool           `json:"is_available"`
	Timezone           string          `json:"timezone"`
}

// RuleService owns availability rule storage. It validates rule shape
// only; it never checks rules against existing bookings.
type RuleService struct {
	repo      ruleRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRuleService constructs the service.
func NewRuleService(repo ruleRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *RuleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RuleService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// Add validates and stores a new rule for the consultant.
func (s *RuleService) Add(ctx context.Context, consultantID string, req CreateRuleRequest) (*models.AvailabilityRule, error) {
	if consultantID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "consultant id is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rule payload")
	}

	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}
	timezone := req.Timezone
	if timezone == "" {
		timezone = "UTC"
	}
	if req.MaxSessions == 0 {
		req.MaxSessions = 1
	}

	rule := &models.AvailabilityRule{
		ConsultantID:       consultantID,
		Kind:               req.Kind,
		DayOfWeek:          req.DayOfWeek,
		SpecificDate:       req.SpecificDate,
		StartTime:          req.StartTime,
		EndTime:            req.EndTime,
		MaxSessions:        req.MaxSessions,
		BufferMinutes:      req.BufferMinutes,
		BookingWindowDays:  req.BookingWindowDays,
		MinimumNoticeHours: req.MinimumNoticeHours,
		IsAvailable:        available,
		Timezone:           timezone,
	}

	if err := validateRule(rule); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, rule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to store rule")
	}

	s.invalidate(ctx, consultantID)
	return rule, nil
}

// Update applies the whitelisted mutable fields to an existing rule.
// The rule kind and owner are immutable.
func (s *RuleService) Update(ctx context.Context, ruleID string, update models.RuleUpdate) (*models.AvailabilityRule, error) {
	rule, err := s.repo.FindByID(ctx, ruleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "availability rule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load rule")
	}

	update.Apply(rule)

	if err := validateRule(rule); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, rule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to update rule")
	}

	s.invalidate(ctx, rule.ConsultantID)
	return rule, nil
}

// Remove deletes a rule. Rule lifetime is independent of bookings:
// existing bookings stay committed even if the rule that allowed them
// goes away.
func (s *RuleService) Remove(ctx context.Context, ruleID string) error {
	rule, err := s.repo.FindByID(ctx, ruleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "availability rule not found")
		}
		return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load rule")
	}

	if err := s.repo.Delete(ctx, ruleID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to delete rule")
	}

	s.invalidate(ctx, rule.ConsultantID)
	return nil
}

// List returns the rules relevant to the window.
func (s *RuleService) List(ctx context.Context, consultantID string, from, to *time.Time) ([]models.AvailabilityRule, error) {
	rules, err := s.repo.ListForWindow(ctx, consultantID, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to list rules")
	}
	return rules, nil
}

func (s *RuleService) invalidate(ctx context.Context, consultantID string) {
	if err := s.cache.InvalidateConsultant(ctx, consultantID); err != nil {
		s.logger.Warn("slot cache invalidation failed", zap.String("consultant_id", consultantID), zap.Error(err))
	}
}

// validateRule enforces rule shape invariants before any persistence call.
func validateRule(rule *models.AvailabilityRule) error {
	switch rule.Kind {
	case models.RuleRecurringWeekly, models.RuleOneTime, models.RuleBlockedTime, models.RuleHolidayBlock:
	default:
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown rule kind %q", rule.Kind))
	}

	startMin, err := parseTimeOfDay(rule.StartTime)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "start_time must be HH:MM")
	}
	endMin, err := parseTimeOfDay(rule.EndTime)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "end_time must be HH:MM")
	}
	if startMin >= endMin {
		return appErrors.Clone(appErrors.ErrValidation, "start_time must be before end_time")
	}

	if rule.MaxSessions < 1 {
		return appErrors.Clone(appErrors.ErrValidation, "max_sessions must be at least 1")
	}

	if rule.Kind == models.RuleRecurringWeekly {
		if rule.DayOfWeek == nil {
			return appErrors.Clone(appErrors.ErrValidation, "day_of_week is required for recurring rules")
		}
		if *rule.DayOfWeek < 0 || *rule.DayOfWeek > 6 {
			return appErrors.Clone(appErrors.ErrValidation, "day_of_week must be between 0 and 6")
		}
	} else if rule.SpecificDate == nil {
		return appErrors.Clone(appErrors.ErrValidation, "specific_date is required for dated rules")
	}

	if _, err := time.LoadLocation(rule.Timezone); err != nil {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown timezone %q", rule.Timezone))
	}

	return nil
}
