package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/schemaforge/backend/internal/domain/models"
	"github.com/schemaforge/backend/pkg/constants"
)

// SessionRepository handles database operations for login sessions
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new SessionRepository
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// InsertSession creates a new session in the database
func (r *SessionRepository) InsertSession(ctx context.Context, session *models.Session) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, user_id, token, expires_at, ip_address, user_agent, is_revoked, last_activity, created_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, NOW())`,
		constants.TableSession)

	_, err := r.db.ExecContext(ctx, query,
		session.ID,
		session.UserID,
		session.Token,
		session.ExpiresAt,
		session.IPAddress,
		session.UserAgent,
		session.IsRevoked,
		session.LastActivity,
	)
	return err
}

// GetSession retrieves a session by its ID (the JWT jti claim), or nil when
// no session matches
func (r *SessionRepository) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, token, expires_at, ip_address, user_agent, is_revoked, last_activity, created_date
		FROM %s WHERE id = ? LIMIT 1`,
		constants.TableSession)

	var s models.Session
	err := r.db.QueryRowContext(ctx, query, sessionID).Scan(
		&s.ID,
		&s.UserID,
		&s.Token,
		&s.ExpiresAt,
		&s.IPAddress,
		&s.UserAgent,
		&s.IsRevoked,
		&s.LastActivity,
		&s.CreatedDate,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// RevokeSession marks a session as revoked
func (r *SessionRepository) RevokeSession(ctx context.Context, sessionID string) error {
	query := fmt.Sprintf("UPDATE %s SET %s = TRUE WHERE %s = ?",
		constants.TableSession, constants.FieldIsRevoked, constants.FieldID)
	_, err := r.db.ExecContext(ctx, query, sessionID)
	return err
}

// TouchSession updates the session's last activity timestamp
func (r *SessionRepository) TouchSession(ctx context.Context, sessionID string) error {
	query := fmt.Sprintf("UPDATE %s SET %s = NOW() WHERE %s = ?",
		constants.TableSession, constants.FieldLastActivity, constants.FieldID)
	_, err := r.db.ExecContext(ctx, query, sessionID)
	return err
}

// DeleteExpiredSessions removes sessions past their expiry
func (r *SessionRepository) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s < NOW()",
		constants.TableSession, constants.FieldExpiresAt)
	result, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
