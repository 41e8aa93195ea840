package services

import (
	"github.com/schemaforge/backend/internal/infrastructure/database"
	"github.com/schemaforge/backend/internal/infrastructure/persistence"
)

// ServiceManager orchestrates all services with dependency injection
type ServiceManager struct {
	db *database.Connection

	Auth        *AuthService
	Users       *UserService
	Usage       *UsageService
	Entitlement *EntitlementService
	Generation  *GenerationService
}

// NewServiceManager creates a new service manager with all dependencies wired.
// The Generator is injected so tests can stub the upstream endpoint.
func NewServiceManager(db *database.Connection, generator Generator) *ServiceManager {
	sm := &ServiceManager{
		db: db,
	}

	userRepo := persistence.NewUserRepository(db.DB())
	sessionRepo := persistence.NewSessionRepository(db.DB())
	planRepo := persistence.NewPlanRepository(db.DB())
	usageRepo := persistence.NewUsageRepository(db.DB())

	// Initialize services in dependency order
	sm.Auth = NewAuthService(userRepo, sessionRepo)
	sm.Users = NewUserService(userRepo, planRepo)
	sm.Usage = NewUsageService(usageRepo)
	sm.Entitlement = NewEntitlementService(planRepo, sm.Usage)
	sm.Generation = NewGenerationService(generator, sm.Entitlement, sm.Usage)

	return sm
}
