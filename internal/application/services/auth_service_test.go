package services

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/schemaforge/backend/internal/infrastructure/persistence"
)

func TestCleanupExpiredSessions(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	t.Cleanup(func() { db.Close() })

	svc := NewAuthService(persistence.NewUserRepository(db), persistence.NewSessionRepository(db))

	mock.ExpectExec("DELETE FROM sf_session WHERE expires_at < NOW\\(\\)").
		WillReturnResult(sqlmock.NewResult(0, 5))

	deleted, err := svc.CleanupExpiredSessions(context.Background())
	if err != nil {
		t.Fatalf("CleanupExpiredSessions failed: %v", err)
	}
	if deleted != 5 {
		t.Errorf("deleted = %d, want 5", deleted)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
