package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/consult-booking-api/internal/models"
)

const ruleColumns = "id, consultant_id, kind, day_of_week, specific_date, start_time, end_time, max_sessions, buffer_minutes, booking_window_days, minimum_notice_hours, is_available, timezone, created_at, updated_at"

// RuleRepository provides persistence for availability rules.
type RuleRepository struct {
	db *sqlx.DB
}

// NewRuleRepository creates a new rule repository.
func NewRuleRepository(db *sqlx.DB) *RuleRepository {
	return &RuleRepository{db: db}
}

// Create stores a new availability rule.
func (r *RuleRepository) Create(ctx context.Context, rule *models.AvailabilityRule) error {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = now
	}
	rule.UpdatedAt = now

	const query = `INSERT INTO availability_rules (id, consultant_id, kind, day_of_week, specific_date, start_time, end_time, max_sessions, buffer_minutes, booking_window_days, minimum_notice_hours, is_available, timezone, created_at, updated_at) VALUES (:id, :consultant_id, :kind, :day_of_week, :specific_date, :start_time, :end_time, :max_sessions, :buffer_minutes, :booking_window_days, :minimum_notice_hours, :is_available, :timezone, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, rule); err != nil {
		return fmt.Errorf("create availability rule: %w", err)
	}
	return nil
}

// FindByID loads a rule by id.
func (r *RuleRepository) FindByID(ctx context.Context, id string) (*models.AvailabilityRule, error) {
	query := fmt.Sprintf("SELECT %s FROM availability_rules WHERE id = $1", ruleColumns)
	var rule models.AvailabilityRule
	if err := r.db.GetContext(ctx, &rule, query, id); err != nil {
		return nil, err
	}
	return &rule, nil
}

// Update persists mutable rule fields.
func (r *RuleRepository) Update(ctx context.Context, rule *models.AvailabilityRule) error {
	rule.UpdatedAt = time.Now().UTC()
	const query = `UPDATE availability_rules SET day_of_week = :day_of_week, specific_date = :specific_date, start_time = :start_time, end_time = :end_time, max_sessions = :max_sessions, buffer_minutes = :buffer_minutes, booking_window_days = :booking_window_days, minimum_notice_hours = :minimum_notice_hours, is_available = :is_available, timezone = :timezone, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, rule); err != nil {
		return fmt.Errorf("update availability rule: %w", err)
	}
	return nil
}

// Delete removes a rule by id.
func (r *RuleRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM availability_rules WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete availability rule: %w", err)
	}
	return nil
}

// ListForWindow returns the rules relevant to a date window: all
// recurring rules for the consultant plus dated rules whose date falls
// inside [from, to]. Nil bounds return every rule for the consultant.
func (r *RuleRepository) ListForWindow(ctx context.Context, consultantID string, from, to *time.Time) ([]models.AvailabilityRule, error) {
	var rules []models.AvailabilityRule

	if from == nil || to == nil {
		query := fmt.Sprintf("SELECT %s FROM availability_rules WHERE consultant_id = $1 ORDER BY created_at ASC", ruleColumns)
		if err := r.db.SelectContext(ctx, &rules, query, consultantID); err != nil {
			return nil, fmt.Errorf("list availability rules: %w", err)
		}
		return rules, nil
	}

	query := fmt.Sprintf("SELECT %s FROM availability_rules WHERE consultant_id = $1 AND (kind = 'RECURRING_WEEKLY' OR (specific_date IS NOT NULL AND specific_date >= $2 AND specific_date <= $3)) ORDER BY created_at ASC", ruleColumns)
	if err := r.db.SelectContext(ctx, &rules, query, consultantID, *from, *to); err != nil {
		return nil, fmt.Errorf("list availability rules for window: %w", err)
	}
	return rules, nil
}

// ListConsultantIDs returns every consultant that has at least one rule.
func (r *RuleRepository) ListConsultantIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, `SELECT DISTINCT consultant_id FROM availability_rules ORDER BY consultant_id ASC`); err != nil {
		return nil, fmt.Errorf("list consultant ids: %w", err)
	}
	return ids, nil
}
