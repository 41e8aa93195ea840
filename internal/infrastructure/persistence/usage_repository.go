package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/schemaforge/backend/internal/domain/models"
	"github.com/schemaforge/backend/pkg/constants"
)

// UsageRepository handles database operations for the per-user usage ledger
type UsageRepository struct {
	db *sql.DB
}

// NewUsageRepository creates a new UsageRepository
func NewUsageRepository(db *sql.DB) *UsageRepository {
	return &UsageRepository{db: db}
}

// InsertEvent appends one generation to the ledger
func (r *UsageRepository) InsertEvent(ctx context.Context, event *models.UsageEvent) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, user_id, model, prompt_bytes, output_bytes, duration_ms, created_date)
		VALUES (?, ?, ?, ?, ?, ?, NOW())`,
		constants.TableUsageEvent)

	_, err := r.db.ExecContext(ctx, query,
		event.ID,
		event.UserID,
		event.Model,
		event.PromptBytes,
		event.OutputBytes,
		event.DurationMS,
	)
	return err
}

// CountForUserSince counts the user's generations at or after the given time
func (r *UsageRepository) CountForUserSince(ctx context.Context, userID string, since time.Time) (int, error) {
	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = ? AND %s >= ?",
		constants.TableUsageEvent, constants.FieldUserID, constants.FieldCreatedDate)
	err := r.db.QueryRowContext(ctx, query, userID, since).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// FindRecentForUser retrieves the user's most recent generations
func (r *UsageRepository) FindRecentForUser(ctx context.Context, userID string, limit int) ([]*models.UsageEvent, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, model, prompt_bytes, output_bytes, duration_ms, created_date
		FROM %s WHERE %s = ? ORDER BY %s DESC LIMIT ?`,
		constants.TableUsageEvent, constants.FieldUserID, constants.FieldCreatedDate)

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*models.UsageEvent, 0)
	for rows.Next() {
		var e models.UsageEvent
		if err := rows.Scan(&e.ID, &e.UserID, &e.Model, &e.PromptBytes, &e.OutputBytes, &e.DurationMS, &e.CreatedDate); err != nil {
			return nil, err
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}
