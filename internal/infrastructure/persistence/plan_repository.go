package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/schemaforge/backend/internal/domain/models"
	"github.com/schemaforge/backend/pkg/constants"
)

// PlanRepository handles database operations for paid-tier plans
type PlanRepository struct {
	db *sql.DB
}

// NewPlanRepository creates a new PlanRepository
func NewPlanRepository(db *sql.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// UpsertPlan creates or refreshes a plan definition (used by bootstrap)
func (r *PlanRepository) UpsertPlan(ctx context.Context, plan *models.Plan) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, monthly_quota, entitlement_rule, created_date)
		VALUES (?, ?, ?, ?, NOW())
		ON DUPLICATE KEY UPDATE name = VALUES(name), monthly_quota = VALUES(monthly_quota), entitlement_rule = VALUES(entitlement_rule)`,
		constants.TablePlan)

	_, err := r.db.ExecContext(ctx, query,
		plan.ID,
		plan.Name,
		plan.MonthlyQuota,
		plan.EntitlementRule,
	)
	return err
}

// GetPlan retrieves a plan by ID, or nil when no plan matches
func (r *PlanRepository) GetPlan(ctx context.Context, planID string) (*models.Plan, error) {
	query := fmt.Sprintf(`
		SELECT id, name, monthly_quota, entitlement_rule, created_date
		FROM %s WHERE id = ? LIMIT 1`,
		constants.TablePlan)

	var p models.Plan
	// entitlement_rule is nullable; a NULL rule means "use the default"
	var rule sql.NullString
	err := r.db.QueryRowContext(ctx, query, planID).Scan(
		&p.ID,
		&p.Name,
		&p.MonthlyQuota,
		&rule,
		&p.CreatedDate,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	p.EntitlementRule = rule.String
	return &p, nil
}

// FindAll retrieves all plans ordered by monthly quota
func (r *PlanRepository) FindAll(ctx context.Context) ([]*models.Plan, error) {
	query := fmt.Sprintf(`
		SELECT id, name, monthly_quota, entitlement_rule, created_date
		FROM %s ORDER BY %s`,
		constants.TablePlan, constants.FieldMonthlyQuota)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	plans := make([]*models.Plan, 0)
	for rows.Next() {
		var p models.Plan
		var rule sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &p.MonthlyQuota, &rule, &p.CreatedDate); err != nil {
			return nil, err
		}
		p.EntitlementRule = rule.String
		plans = append(plans, &p)
	}
	return plans, rows.Err()
}
