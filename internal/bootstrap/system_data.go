package bootstrap

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/schemaforge/backend/internal/domain/models"
	"github.com/schemaforge/backend/internal/infrastructure/database"
	"github.com/schemaforge/backend/internal/infrastructure/persistence"
	"github.com/schemaforge/backend/pkg/auth"
	"github.com/schemaforge/backend/pkg/utils"
)

//go:embed system_data.json
var systemDataJSON []byte

type SystemData struct {
	Plans []struct {
		ID              string `json:"id"`
		Name            string `json:"name"`
		MonthlyQuota    int    `json:"monthly_quota"`
		EntitlementRule string `json:"entitlement_rule"`
	} `json:"plans"`
	Users []struct {
		ID       string `json:"id,omitempty"`
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		PlanID   string `json:"plan_id"`
		IsAdmin  bool   `json:"is_admin"`
	} `json:"users"`
}

// InitializeSystemData ensures the seed plans and the admin account exist.
// Called during startup before the server accepts requests. The admin
// credentials can be overridden with ADMIN_EMAIL / ADMIN_PASSWORD.
func InitializeSystemData(db *database.Connection) error {
	log.Println("🔧 Initializing system data...")

	var data SystemData
	if err := json.Unmarshal(systemDataJSON, &data); err != nil {
		return fmt.Errorf("failed to parse system_data.json: %w", err)
	}

	ctx := context.Background()
	planRepo := persistence.NewPlanRepository(db.DB())
	userRepo := persistence.NewUserRepository(db.DB())

	for _, p := range data.Plans {
		plan := &models.Plan{
			ID:              p.ID,
			Name:            p.Name,
			MonthlyQuota:    p.MonthlyQuota,
			EntitlementRule: p.EntitlementRule,
		}
		if err := planRepo.UpsertPlan(ctx, plan); err != nil {
			return fmt.Errorf("failed to upsert plan %s: %w", p.ID, err)
		}
	}
	log.Printf("   ✅ Ensure %d plans", len(data.Plans))

	for _, u := range data.Users {
		email := u.Email
		password := u.Password
		if u.IsAdmin {
			if v := os.Getenv("ADMIN_EMAIL"); v != "" {
				email = v
			}
			if v := os.Getenv("ADMIN_PASSWORD"); v != "" {
				password = v
			}
		}

		exists, err := userRepo.CheckUserExistsByEmail(ctx, email)
		if err != nil {
			return fmt.Errorf("failed to check user %s: %w", email, err)
		}
		if exists {
			continue
		}

		hash, err := auth.HashPassword(password)
		if err != nil {
			return fmt.Errorf("failed to hash password for %s: %w", email, err)
		}

		id := u.ID
		if id == "" {
			id = utils.GenerateID()
		}

		user := &models.User{
			ID:       id,
			Name:     u.Name,
			Email:    email,
			Password: hash,
			PlanID:   u.PlanID,
			IsAdmin:  u.IsAdmin,
			IsActive: true,
		}
		if err := userRepo.InsertUser(ctx, user); err != nil {
			return fmt.Errorf("failed to create user %s: %w", email, err)
		}
		log.Printf("   ✅ Created user %s", email)
	}

	return nil
}
