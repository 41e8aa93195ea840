package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/schemaforge/backend/internal/infrastructure/persistence"
	"github.com/schemaforge/backend/pkg/auth"
	apperrors "github.com/schemaforge/backend/pkg/errors"
)

var planColumns = []string{"id", "name", "monthly_quota", "entitlement_rule", "created_date"}

func newEntitlementFixture(t *testing.T) (*EntitlementService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	t.Cleanup(func() { db.Close() })

	usage := NewUsageService(persistence.NewUsageRepository(db))
	return NewEntitlementService(persistence.NewPlanRepository(db), usage), mock
}

func expectPlan(mock sqlmock.Sqlmock, planID string, quota int, rule string) {
	mock.ExpectQuery("FROM sf_plan WHERE id = \\?").
		WithArgs(planID).
		WillReturnRows(sqlmock.NewRows(planColumns).AddRow(planID, planID, quota, rule, time.Now()))
}

func expectUsedCount(mock sqlmock.Sqlmock, userID string, used int) {
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM sf_usage_event").
		WithArgs(userID, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(used))
}

func TestCheckAllowedUnderQuota(t *testing.T) {
	svc, mock := newEntitlementFixture(t)

	expectPlan(mock, "free", 10, "")
	expectUsedCount(mock, "u-1", 3)

	err := svc.Check(context.Background(), auth.UserSession{ID: "u-1", PlanID: "free"})
	if err != nil {
		t.Errorf("expected user under quota to be allowed, got %v", err)
	}
}

func TestCheckDeniedAtQuota(t *testing.T) {
	svc, mock := newEntitlementFixture(t)

	expectPlan(mock, "free", 10, "")
	expectUsedCount(mock, "u-1", 10)

	err := svc.Check(context.Background(), auth.UserSession{ID: "u-1", PlanID: "free"})
	if !apperrors.IsQuotaExceeded(err) {
		t.Errorf("expected QuotaExceededError, got %v", err)
	}
}

func TestCheckZeroQuotaIsUnlimited(t *testing.T) {
	svc, mock := newEntitlementFixture(t)

	expectPlan(mock, "pro", 0, "")
	expectUsedCount(mock, "u-1", 100000)

	err := svc.Check(context.Background(), auth.UserSession{ID: "u-1", PlanID: "pro"})
	if err != nil {
		t.Errorf("expected zero quota to mean unlimited, got %v", err)
	}
}

func TestCheckAdminBypassesQuota(t *testing.T) {
	svc, mock := newEntitlementFixture(t)

	expectPlan(mock, "free", 10, "")
	expectUsedCount(mock, "admin", 500)

	err := svc.Check(context.Background(), auth.UserSession{ID: "admin", PlanID: "free", IsAdmin: true})
	if err != nil {
		t.Errorf("expected admin to bypass quota, got %v", err)
	}
}

func TestCheckCustomPlanRule(t *testing.T) {
	svc, mock := newEntitlementFixture(t)

	// Plan carries its own rule that is stricter than the quota
	expectPlan(mock, "trial", 10, "used < 2")
	expectUsedCount(mock, "u-1", 2)

	err := svc.Check(context.Background(), auth.UserSession{ID: "u-1", PlanID: "trial"})
	if !apperrors.IsQuotaExceeded(err) {
		t.Errorf("expected custom rule to deny, got %v", err)
	}
}

func TestCheckBrokenRuleFallsBackToDefault(t *testing.T) {
	svc, mock := newEntitlementFixture(t)

	expectPlan(mock, "broken", 10, "used <")
	expectUsedCount(mock, "u-1", 3)

	err := svc.Check(context.Background(), auth.UserSession{ID: "u-1", PlanID: "broken"})
	if err != nil {
		t.Errorf("expected fallback to default rule to allow, got %v", err)
	}
}

func TestCheckUnknownPlan(t *testing.T) {
	svc, mock := newEntitlementFixture(t)

	mock.ExpectQuery("FROM sf_plan WHERE id = \\?").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows(planColumns))

	err := svc.Check(context.Background(), auth.UserSession{ID: "u-1", PlanID: "ghost"})
	if !apperrors.IsNotFound(err) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
}

func TestQuota(t *testing.T) {
	svc, mock := newEntitlementFixture(t)

	expectPlan(mock, "free", 10, "")
	expectUsedCount(mock, "u-1", 4)

	used, quota, err := svc.Quota(context.Background(), auth.UserSession{ID: "u-1", PlanID: "free"})
	if err != nil {
		t.Fatalf("Quota failed: %v", err)
	}
	if used != 4 || quota != 10 {
		t.Errorf("Quota = (%d, %d), want (4, 10)", used, quota)
	}
}
