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

func newRuleRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func ruleRows(id, consultantID string) *sqlmock.Rows {
	day := 1
	return sqlmock.NewRows([]string{"id", "consultant_id", "kind", "day_of_week", "specific_date", "start_time", "end_time", "max_sessions", "buffer_minutes", "booking_window_days", "minimum_notice_hours", "is_available", "timezone", "created_at", "updated_at"}).
		AddRow(id, consultantID, "RECURRING_WEEKLY", &day, nil, "09:00", "17:00", 1, 0, 0, 0, true, "UTC", time.Now(), time.Now())
}

func TestRuleRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRuleRepoMock(t)
	defer cleanup()
	repo := NewRuleRepository(db)

	mock.ExpectExec("INSERT INTO availability_rules").
		WillReturnResult(sqlmock.NewResult(1, 1))

	day := 1
	rule := &models.AvailabilityRule{
		ConsultantID: "c1",
		Kind:         models.RuleRecurringWeekly,
		DayOfWeek:    &day,
		StartTime:    "09:00",
		EndTime:      "17:00",
		MaxSessions:  1,
		IsAvailable:  true,
		Timezone:     "UTC",
	}
	require.NoError(t, repo.Create(context.Background(), rule))
	assert.NotEmpty(t, rule.ID)
	assert.False(t, rule.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRuleRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRuleRepoMock(t)
	defer cleanup()
	repo := NewRuleRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, consultant_id, kind, day_of_week, specific_date, start_time, end_time, max_sessions, buffer_minutes, booking_window_days, minimum_notice_hours, is_available, timezone, created_at, updated_at FROM availability_rules WHERE id = $1")).
		WithArgs("r1").
		WillReturnRows(ruleRows("r1", "c1"))

	rule, err := repo.FindByID(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, "c1", rule.ConsultantID)
	assert.Equal(t, models.RuleRecurringWeekly, rule.Kind)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRuleRepositoryListForWindow(t *testing.T) {
	db, mock, cleanup := newRuleRepoMock(t)
	defer cleanup()
	repo := NewRuleRepository(db)

	from := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)

	mock.ExpectQuery(regexp.QuoteMeta("kind = 'RECURRING_WEEKLY' OR (specific_date IS NOT NULL AND specific_date >= $2 AND specific_date <= $3)")).
		WithArgs("c1", from, to).
		WillReturnRows(ruleRows("r1", "c1"))

	rules, err := repo.ListForWindow(context.Background(), "c1", &from, &to)
	require.NoError(t, err)
	assert.Len(t, rules, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRuleRepositoryListForWindowNilBounds(t *testing.T) {
	db, mock, cleanup := newRuleRepoMock(t)
	defer cleanup()
	repo := NewRuleRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM availability_rules WHERE consultant_id = $1 ORDER BY created_at ASC")).
		WithArgs("c1").
		WillReturnRows(ruleRows("r1", "c1"))

	rules, err := repo.ListForWindow(context.Background(), "c1", nil, nil)
	require.NoError(t, err)
	assert.Len(t, rules, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRuleRepositoryUpdateAndDelete(t *testing.T) {
	db, mock, cleanup := newRuleRepoMock(t)
	defer cleanup()
	repo := NewRuleRepository(db)

	mock.ExpectExec("UPDATE availability_rules SET").
		WillReturnResult(sqlmock.NewResult(1, 1))

	day := 2
	rule := &models.AvailabilityRule{ID: "r1", DayOfWeek: &day, StartTime: "10:00", EndTime: "16:00"}
	require.NoError(t, repo.Update(context.Background(), rule))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM availability_rules WHERE id = $1")).
		WithArgs("r1").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Delete(context.Background(), "r1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRuleRepositoryListConsultantIDs(t *testing.T) {
	db, mock, cleanup := newRuleRepoMock(t)
	defer cleanup()
	repo := NewRuleRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT consultant_id FROM availability_rules ORDER BY consultant_id ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"consultant_id"}).AddRow("c1").AddRow("c2"))

	ids, err := repo.ListConsultantIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c2"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}
