package services

import (
	"context"
	"fmt"
	"log"

	"github.com/schemaforge/backend/internal/domain/models"
	"github.com/schemaforge/backend/internal/infrastructure/persistence"
	"github.com/schemaforge/backend/pkg/auth"
	"github.com/schemaforge/backend/pkg/constants"
	"github.com/schemaforge/backend/pkg/errors"
	"github.com/schemaforge/backend/pkg/utils"
)

// UserService handles account management
type UserService struct {
	users *persistence.UserRepository
	plans *persistence.PlanRepository
}

// NewUserService creates a new UserService
func NewUserService(users *persistence.UserRepository, plans *persistence.PlanRepository) *UserService {
	return &UserService{
		users: users,
		plans: plans,
	}
}

// RegisterRequest carries a new account's attributes
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	PlanID   string `json:"plan_id"`
	IsAdmin  bool   `json:"is_admin"`
}

// Register creates a new user account
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	if !auth.IsValidEmail(req.Email) {
		return nil, errors.NewValidationError("email", "Invalid email format")
	}
	if err := auth.ValidatePasswordStrength(req.Password); err != nil {
		return nil, errors.NewValidationError("password", err.Error())
	}

	exists, err := s.users.CheckUserExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if exists {
		return nil, errors.NewConflictError("user", "email", req.Email)
	}

	planID := req.PlanID
	if planID == "" {
		planID = constants.PlanFree
	}
	plan, err := s.plans.GetPlan(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if plan == nil {
		return nil, errors.NewNotFoundError("plan", planID)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:       utils.GenerateID(),
		Name:     req.Name,
		Email:    req.Email,
		Password: hash,
		PlanID:   planID,
		IsAdmin:  req.IsAdmin,
		IsActive: true,
	}
	if err := s.users.InsertUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.Printf("👤 User registered: %s (%s, plan=%s)", user.Name, user.Email, user.PlanID)
	return user, nil
}

// GetUsers retrieves all user accounts
func (s *UserService) GetUsers(ctx context.Context) ([]*models.User, error) {
	return s.users.FindAll(ctx)
}

// ChangePlan moves a user to another plan
func (s *UserService) ChangePlan(ctx context.Context, userID, planID string) error {
	plan, err := s.plans.GetPlan(ctx, planID)
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if plan == nil {
		return errors.NewNotFoundError("plan", planID)
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if user == nil {
		return errors.NewNotFoundError("user", userID)
	}

	return s.users.UpdatePlan(ctx, userID, planID)
}
