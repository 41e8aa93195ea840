package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/schemaforge/backend/internal/domain/models"
	"github.com/schemaforge/backend/internal/infrastructure/persistence"
	"github.com/schemaforge/backend/pkg/auth"
	"github.com/schemaforge/backend/pkg/errors"
)

// AuthService handles authentication, session management, and password operations
type AuthService struct {
	users    *persistence.UserRepository
	sessions *persistence.SessionRepository
}

// NewAuthService creates a new AuthService
func NewAuthService(users *persistence.UserRepository, sessions *persistence.SessionRepository) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
	}
}

// LoginResult contains the result of a successful login
type LoginResult struct {
	Token     string
	User      auth.UserSession
	ExpiresAt time.Time
}

// Login authenticates a user and creates a session
func (s *AuthService) Login(ctx context.Context, email, password, ip, userAgent string) (*LoginResult, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if user == nil {
		log.Printf("⚠️ Login failed for %s: user not found", email)
		return nil, errors.NewUnauthorizedError("Invalid email or password")
	}

	if !user.IsActive {
		return nil, errors.NewUnauthorizedError("Account is deactivated")
	}
	if !auth.VerifyPassword(password, user.Password) {
		log.Printf("⚠️ Login failed for %s: invalid password", email)
		return nil, errors.NewUnauthorizedError("Invalid email or password")
	}

	userSession := auth.UserSession{
		ID:      user.ID,
		Name:    user.Name,
		Email:   user.Email,
		PlanID:  user.PlanID,
		IsAdmin: user.IsAdmin,
	}

	token, err := auth.GenerateToken(userSession)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	// Decode token to get the session ID (jti) and expiry
	claims, err := auth.DecodeToken(token)
	if err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}
	expiresAt := claims.ExpiresAt.Time

	session := &models.Session{
		ID:           claims.RegisteredClaims.ID,
		UserID:       user.ID,
		Token:        token,
		ExpiresAt:    expiresAt,
		IPAddress:    ip,
		UserAgent:    userAgent,
		IsRevoked:    false,
		LastActivity: time.Now(),
	}
	if err := s.sessions.InsertSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	// Non-critical, best effort
	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		log.Printf("⚠️ Failed to update last login for %s: %v", user.ID, err)
	}

	return &LoginResult{
		Token:     token,
		User:      userSession,
		ExpiresAt: expiresAt,
	}, nil
}

// ValidateSession checks if a session token is valid and active in the database
func (s *AuthService) ValidateSession(ctx context.Context, tokenString string) (*auth.Claims, error) {
	// 1. Verify JWT signature and claims
	claims, err := auth.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	// 2. Check DB for revocation
	session, err := s.sessions.GetSession(ctx, claims.RegisteredClaims.ID)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if session == nil {
		return nil, errors.NewUnauthorizedError("Session not found")
	}
	if session.IsRevoked {
		return nil, errors.NewUnauthorizedError("Session has been revoked")
	}

	return claims, nil
}

// TouchSession updates the last activity timestamp for a session.
// Fire and forget - errors are acceptable for non-critical activity timestamps.
func (s *AuthService) TouchSession(sessionID string) {
	go func() {
		_ = s.sessions.TouchSession(context.Background(), sessionID)
	}()
}

// Logout revokes a session
func (s *AuthService) Logout(ctx context.Context, tokenString string) error {
	claims, err := auth.DecodeToken(tokenString)
	if err != nil {
		return errors.NewValidationError("token", "Invalid token")
	}

	err = s.sessions.RevokeSession(ctx, claims.RegisteredClaims.ID)
	if err == nil {
		log.Printf("👋 User logged out: %s (Session: %s)", claims.User.Email, claims.RegisteredClaims.ID)
	}
	return err
}

// ChangePassword updates a user's password
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if err := auth.ValidatePasswordStrength(newPassword); err != nil {
		return errors.NewValidationError("new_password", err.Error())
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to retrieve user: %w", err)
	}
	if user == nil {
		return errors.NewNotFoundError("user", userID)
	}

	if !auth.VerifyPassword(currentPassword, user.Password) {
		return errors.NewUnauthorizedError("Current password is incorrect")
	}

	newHash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	err = s.users.UpdatePassword(ctx, userID, newHash)
	if err == nil {
		log.Printf("🔐 Password changed for user: %s", userID)
	}
	return err
}

// CleanupExpiredSessions deletes session rows past their expiry. Access is
// already gated by the JWT exp claim; this keeps the session table from
// accumulating dead rows. Called at startup.
func (s *AuthService) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	deleted, err := s.sessions.DeleteExpiredSessions(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	if deleted > 0 {
		log.Printf("🧹 Removed %d expired sessions", deleted)
	}
	return deleted, nil
}

// GetUserByID retrieves a user session object by ID
func (s *AuthService) GetUserByID(ctx context.Context, userID string) (*auth.UserSession, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.NewNotFoundError("user", userID)
	}

	return &auth.UserSession{
		ID:      user.ID,
		Name:    user.Name,
		Email:   user.Email,
		PlanID:  user.PlanID,
		IsAdmin: user.IsAdmin,
	}, nil
}
