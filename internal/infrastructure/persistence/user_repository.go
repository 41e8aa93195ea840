package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/schemaforge/backend/internal/domain/models"
	"github.com/schemaforge/backend/pkg/constants"
)

// UserRepository handles database operations for user accounts
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = "id, name, email, password, plan_id, is_admin, is_active, created_date, last_login_date"

// InsertUser creates a new user record
func (r *UserRepository) InsertUser(ctx context.Context, user *models.User) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, email, password, plan_id, is_admin, is_active, created_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, NOW())`,
		constants.TableUser)

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.Password,
		user.PlanID,
		user.IsAdmin,
		user.IsActive,
	)
	return err
}

// FindByEmail retrieves a user by email, or nil when no user matches
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ? LIMIT 1",
		userColumns, constants.TableUser, constants.FieldEmail)
	return r.scanUser(r.db.QueryRowContext(ctx, query, email))
}

// FindByID retrieves a user by ID, or nil when no user matches
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ? LIMIT 1",
		userColumns, constants.TableUser, constants.FieldID)
	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

// FindAll retrieves all users, newest first
func (r *UserRepository) FindAll(ctx context.Context) ([]*models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s DESC",
		userColumns, constants.TableUser, constants.FieldCreatedDate)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		var u models.User
		var lastLogin sql.NullTime
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.PlanID,
			&u.IsAdmin, &u.IsActive, &u.CreatedDate, &lastLogin); err != nil {
			return nil, err
		}
		if lastLogin.Valid {
			u.LastLoginDate = &lastLogin.Time
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}

// CheckUserExistsByEmail reports whether any user has the given email
func (r *UserRepository) CheckUserExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE %s = ?)",
		constants.TableUser, constants.FieldEmail)
	err := r.db.QueryRowContext(ctx, query, email).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// UpdateLastLogin stamps the user's last login time
func (r *UserRepository) UpdateLastLogin(ctx context.Context, userID string) error {
	query := fmt.Sprintf("UPDATE %s SET %s = NOW() WHERE %s = ?",
		constants.TableUser, constants.FieldLastLoginDate, constants.FieldID)
	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}

// UpdatePassword replaces the user's password hash
func (r *UserRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	query := fmt.Sprintf("UPDATE %s SET %s = ? WHERE %s = ?",
		constants.TableUser, constants.FieldPassword, constants.FieldID)
	_, err := r.db.ExecContext(ctx, query, passwordHash, userID)
	return err
}

// UpdatePlan moves the user to a different plan
func (r *UserRepository) UpdatePlan(ctx context.Context, userID, planID string) error {
	query := fmt.Sprintf("UPDATE %s SET %s = ? WHERE %s = ?",
		constants.TableUser, constants.FieldPlanID, constants.FieldID)
	_, err := r.db.ExecContext(ctx, query, planID, userID)
	return err
}

func (r *UserRepository) scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	var lastLogin sql.NullTime

	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.PlanID,
		&u.IsAdmin, &u.IsActive, &u.CreatedDate, &lastLogin)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if lastLogin.Valid {
		u.LastLoginDate = &lastLogin.Time
	}
	return &u, nil
}
