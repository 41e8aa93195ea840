package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"github.com/schemaforge/backend/internal/domain/models"
	"github.com/schemaforge/backend/pkg/constants"
)

func TestUpsertPlan(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewPlanRepository(db)

	plan := &models.Plan{
		ID:              "free",
		Name:            "Free",
		MonthlyQuota:    10,
		EntitlementRule: "used < quota",
	}

	mock.ExpectExec("INSERT INTO "+constants.TablePlan).
		WithArgs(plan.ID, plan.Name, plan.MonthlyQuota, plan.EntitlementRule).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = repo.UpsertPlan(context.Background(), plan)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPlan(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewPlanRepository(db)

	columns := []string{"id", "name", "monthly_quota", "entitlement_rule", "created_date"}

	mock.ExpectQuery("FROM "+constants.TablePlan+" WHERE id = \\?").
		WithArgs("pro").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("pro", "Pro", 0, "is_admin || quota == 0 || used < quota", time.Now()))

	plan, err := repo.GetPlan(context.Background(), "pro")
	assert.NoError(t, err)
	assert.NotNil(t, plan)
	assert.Equal(t, 0, plan.MonthlyQuota)

	// A NULL rule survives as an empty string
	mock.ExpectQuery("FROM "+constants.TablePlan+" WHERE id = \\?").
		WithArgs("legacy").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("legacy", "Legacy", 5, nil, time.Now()))

	plan, err = repo.GetPlan(context.Background(), "legacy")
	assert.NoError(t, err)
	assert.NotNil(t, plan)
	assert.Equal(t, "", plan.EntitlementRule)

	// Unknown plan returns nil, nil
	mock.ExpectQuery("FROM "+constants.TablePlan+" WHERE id = \\?").
		WithArgs("enterprise").
		WillReturnRows(sqlmock.NewRows(columns))

	plan, err = repo.GetPlan(context.Background(), "enterprise")
	assert.NoError(t, err)
	assert.Nil(t, plan)
}

func TestPlanFindAll(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewPlanRepository(db)

	columns := []string{"id", "name", "monthly_quota", "entitlement_rule", "created_date"}

	mock.ExpectQuery("FROM " + constants.TablePlan + " ORDER BY monthly_quota").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("pro", "Pro", 0, "", time.Now()).
			AddRow("free", "Free", 10, "", time.Now()))

	plans, err := repo.FindAll(context.Background())
	assert.NoError(t, err)
	assert.Len(t, plans, 2)
	assert.Equal(t, "pro", plans[0].ID)
}
