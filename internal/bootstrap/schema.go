package bootstrap

import (
	"context"
	"fmt"
	"log"

	"github.com/schemaforge/backend/internal/infrastructure/database"
	"github.com/schemaforge/backend/pkg/constants"
)

var tableDDL = map[string]string{
	constants.TableUser: `CREATE TABLE IF NOT EXISTS %s (
		id VARCHAR(36) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL UNIQUE,
		password VARCHAR(255) NOT NULL,
		plan_id VARCHAR(64) NOT NULL DEFAULT 'free',
		is_admin BOOLEAN NOT NULL DEFAULT FALSE,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_date TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		last_login_date TIMESTAMP NULL,
		INDEX idx_user_email (email)
	)`,

	constants.TableSession: `CREATE TABLE IF NOT EXISTS %s (
		id VARCHAR(36) PRIMARY KEY,
		user_id VARCHAR(36) NOT NULL,
		token TEXT NOT NULL,
		expires_at TIMESTAMP NOT NULL,
		ip_address VARCHAR(45),
		user_agent TEXT,
		is_revoked BOOLEAN NOT NULL DEFAULT FALSE,
		last_activity TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		created_date TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_session_user (user_id),
		INDEX idx_session_expires (expires_at)
	)`,

	constants.TablePlan: `CREATE TABLE IF NOT EXISTS %s (
		id VARCHAR(64) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		monthly_quota INT NOT NULL DEFAULT 0,
		entitlement_rule TEXT,
		created_date TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,

	constants.TableUsageEvent: `CREATE TABLE IF NOT EXISTS %s (
		id VARCHAR(36) PRIMARY KEY,
		user_id VARCHAR(36) NOT NULL,
		model VARCHAR(128) NOT NULL,
		prompt_bytes INT NOT NULL DEFAULT 0,
		output_bytes INT NOT NULL DEFAULT 0,
		duration_ms BIGINT NOT NULL DEFAULT 0,
		created_date TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_usage_user_date (user_id, created_date)
	)`,
}

// Ordered so foreign references exist before the tables that point at them.
var tableOrder = []string{
	constants.TablePlan,
	constants.TableUser,
	constants.TableSession,
	constants.TableUsageEvent,
}

// InitializeSchema creates the core tables. DDL is idempotent so this runs on
// every startup.
func InitializeSchema(db *database.Connection) error {
	log.Println("🔧 Initializing database schema...")

	ctx := context.Background()
	for _, name := range tableOrder {
		ddl := fmt.Sprintf(tableDDL[name], name)
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			log.Printf("   ⚠️  Failed to create table %s: %v", name, err)
			return fmt.Errorf("failed to create table %s: %w", name, err)
		}
	}

	log.Printf("✅ Database schema initialized (%d tables)", len(tableOrder))
	return nil
}
