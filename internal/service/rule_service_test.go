package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/consult-booking-api/internal/models"
	appErrors "github.com/noah-isme/consult-booking-api/pkg/errors"
)

type mockRuleRepo struct {
	items   map[string]*models.AvailabilityRule
	nextID  int
	deleted []string
}

func newMockRuleRepo() *mockRuleRepo {
	return &mockRuleRepo{items: make(map[string]*models.AvailabilityRule)}
}

func (m *mockRuleRepo) Create(ctx context.Context, rule *models.AvailabilityRule) error {
	if rule.ID == "" {
		m.nextID++
		rule.ID = "generated"
	}
	cp := *rule
	m.items[rule.ID] = &cp
	return nil
}

func (m *mockRuleRepo) FindByID(ctx context.Context, id string) (*models.AvailabilityRule, error) {
	if rule, ok := m.items[id]; ok {
		cp := *rule
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockRuleRepo) Update(ctx context.Context, rule *models.AvailabilityRule) error {
	cp := *rule
	m.items[rule.ID] = &cp
	return nil
}

func (m *mockRuleRepo) Delete(ctx context.Context, id string) error {
	delete(m.items, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockRuleRepo) ListForWindow(ctx context.Context, consultantID string, from, to *time.Time) ([]models.AvailabilityRule, error) {
	var out []models.AvailabilityRule
	for _, rule := range m.items {
		if rule.ConsultantID == consultantID {
			out = append(out, *rule)
		}
	}
	return out, nil
}

func TestRuleServiceAddAppliesDefaults(t *testing.T) {
	repo := newMockRuleRepo()
	svc := NewRuleService(repo, disabledCache(), nil, nil)

	rule, err := svc.Add(context.Background(), "c1", CreateRuleRequest{
		Kind:      models.RuleRecurringWeekly,
		DayOfWeek: intPtr(1),
		StartTime: "09:00",
		EndTime:   "17:00",
	})
	require.NoError(t, err)
	assert.Equal(t, "c1", rule.ConsultantID)
	assert.True(t, rule.IsAvailable)
	assert.Equal(t, "UTC", rule.Timezone)
	assert.Equal(t, 1, rule.MaxSessions)
	assert.Contains(t, repo.items, rule.ID)
}

func TestRuleServiceAddValidation(t *testing.T) {
	svc := NewRuleService(newMockRuleRepo(), disabledCache(), nil, nil)
	date := testMonday

	cases := []struct {
		name string
		req  CreateRuleRequest
	}{
		{"unknown kind", CreateRuleRequest{Kind: "SOMETIMES", StartTime: "09:00", EndTime: "17:00"}},
		{"bad start time", CreateRuleRequest{Kind: models.RuleRecurringWeekly, DayOfWeek: intPtr(1), StartTime: "9am", EndTime: "17:00"}},
		{"start after end", CreateRuleRequest{Kind: models.RuleRecurringWeekly, DayOfWeek: intPtr(1), StartTime: "17:00", EndTime: "09:00"}},
		{"recurring without day", CreateRuleRequest{Kind: models.RuleRecurringWeekly, StartTime: "09:00", EndTime: "17:00"}},
		{"day out of range", CreateRuleRequest{Kind: models.RuleRecurringWeekly, DayOfWeek: intPtr(7), StartTime: "09:00", EndTime: "17:00"}},
		{"one time without date", CreateRuleRequest{Kind: models.RuleOneTime, StartTime: "09:00", EndTime: "17:00"}},
		{"bad timezone", CreateRuleRequest{Kind: models.RuleOneTime, SpecificDate: &date, StartTime: "09:00", EndTime: "17:00", Timezone: "Mars/Olympus"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Add(context.Background(), "c1", tc.req)
			require.Error(t, err)
			appErr := appErrors.FromError(err)
			assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
		})
	}
}

func TestRuleServiceUpdateKeepsKindAndOwner(t *testing.T) {
	repo := newMockRuleRepo()
	rule := weeklyRule("r1", "c1", 1, "09:00", "17:00", 1)
	repo.items["r1"] = &rule
	svc := NewRuleService(repo, disabledCache(), nil, nil)

	start := "10:00"
	updated, err := svc.Update(context.Background(), "r1", models.RuleUpdate{StartTime: &start})
	require.NoError(t, err)
	assert.Equal(t, models.RuleRecurringWeekly, updated.Kind)
	assert.Equal(t, "c1", updated.ConsultantID)
	assert.Equal(t, "10:00", updated.StartTime)
	assert.Equal(t, "17:00", updated.EndTime)
}

func TestRuleServiceUpdateRevalidates(t *testing.T) {
	repo := newMockRuleRepo()
	rule := weeklyRule("r1", "c1", 1, "09:00", "17:00", 1)
	repo.items["r1"] = &rule
	svc := NewRuleService(repo, disabledCache(), nil, nil)

	start := "18:00"
	_, err := svc.Update(context.Background(), "r1", models.RuleUpdate{StartTime: &start})
	require.Error(t, err)
	// The stored rule is untouched after a failed update.
	assert.Equal(t, "09:00", repo.items["r1"].StartTime)
}

func TestRuleServiceUpdateNotFound(t *testing.T) {
	svc := NewRuleService(newMockRuleRepo(), disabledCache(), nil, nil)

	start := "10:00"
	_, err := svc.Update(context.Background(), "missing", models.RuleUpdate{StartTime: &start})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestRuleServiceRemove(t *testing.T) {
	repo := newMockRuleRepo()
	rule := weeklyRule("r1", "c1", 1, "09:00", "17:00", 1)
	repo.items["r1"] = &rule
	svc := NewRuleService(repo, disabledCache(), nil, nil)

	require.NoError(t, svc.Remove(context.Background(), "r1"))
	assert.Equal(t, []string{"r1"}, repo.deleted)

	err := svc.Remove(context.Background(), "r1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
