package services

import (
	"context"
	"fmt"
	"log"

	"github.com/schemaforge/backend/internal/domain/models"
	"github.com/schemaforge/backend/internal/infrastructure/persistence"
	"github.com/schemaforge/backend/pkg/auth"
	"github.com/schemaforge/backend/pkg/errors"
	"github.com/schemaforge/backend/pkg/expression"
)

// DefaultEntitlementRule is used when a plan carries no rule of its own.
// A quota of 0 means unlimited.
const DefaultEntitlementRule = "is_admin || quota == 0 || used < quota"

// EntitlementService answers the single question the generation path needs:
// is this caller entitled to call generate right now.
type EntitlementService struct {
	plans  *persistence.PlanRepository
	usage  *UsageService
	engine *expression.Engine
}

// NewEntitlementService creates a new EntitlementService
func NewEntitlementService(plans *persistence.PlanRepository, usage *UsageService) *EntitlementService {
	return &EntitlementService{
		plans:  plans,
		usage:  usage,
		engine: expression.NewEngine(),
	}
}

// Check returns nil when the user may generate, a QuotaExceededError when the
// plan rule denies them, or a database/rule error.
func (s *EntitlementService) Check(ctx context.Context, user auth.UserSession) error {
	plan, err := s.plans.GetPlan(ctx, user.PlanID)
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if plan == nil {
		return errors.NewNotFoundError("plan", user.PlanID)
	}

	used, err := s.usage.UsedThisPeriod(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}

	rule := plan.EntitlementRule
	if rule == "" {
		rule = DefaultEntitlementRule
	}

	allowed, err := s.engine.EvaluateBool(rule, map[string]interface{}{
		"is_admin": user.IsAdmin,
		"used":     used,
		"quota":    plan.MonthlyQuota,
	})
	if err != nil {
		// A broken rule should not lock out paying users silently; log and
		// fall back to the default rule.
		log.Printf("⚠️ Entitlement rule for plan %s failed (%v), using default", plan.ID, err)
		allowed, err = s.engine.EvaluateBool(DefaultEntitlementRule, map[string]interface{}{
			"is_admin": user.IsAdmin,
			"used":     used,
			"quota":    plan.MonthlyQuota,
		})
		if err != nil {
			return fmt.Errorf("entitlement evaluation failed: %w", err)
		}
	}

	if !allowed {
		return errors.NewQuotaExceededError(used, plan.MonthlyQuota)
	}
	return nil
}

// Quota reports the user's current usage against their plan quota
func (s *EntitlementService) Quota(ctx context.Context, user auth.UserSession) (used, quota int, err error) {
	plan, err := s.plans.GetPlan(ctx, user.PlanID)
	if err != nil {
		return 0, 0, fmt.Errorf("database error: %w", err)
	}
	if plan == nil {
		return 0, 0, errors.NewNotFoundError("plan", user.PlanID)
	}

	used, err = s.usage.UsedThisPeriod(ctx, user.ID)
	if err != nil {
		return 0, 0, fmt.Errorf("database error: %w", err)
	}
	return used, plan.MonthlyQuota, nil
}

// Plans lists the available plans
func (s *EntitlementService) Plans(ctx context.Context) ([]*models.Plan, error) {
	return s.plans.FindAll(ctx)
}
