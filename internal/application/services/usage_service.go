package services

import (
	"context"
	"time"

	"github.com/schemaforge/backend/internal/domain/models"
	"github.com/schemaforge/backend/internal/infrastructure/persistence"
	"github.com/schemaforge/backend/pkg/utils"
)

// UsageService meters generation requests per user. The metering period is
// the current calendar month in UTC.
type UsageService struct {
	usage *persistence.UsageRepository
}

// NewUsageService creates a new UsageService
func NewUsageService(usage *persistence.UsageRepository) *UsageService {
	return &UsageService{usage: usage}
}

// PeriodStart returns the beginning of the current metering period
func PeriodStart(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// RecordGeneration appends one successful generation to the ledger
func (s *UsageService) RecordGeneration(ctx context.Context, userID, model string, promptBytes, outputBytes int, duration time.Duration) error {
	event := &models.UsageEvent{
		ID:          utils.GenerateID(),
		UserID:      userID,
		Model:       model,
		PromptBytes: promptBytes,
		OutputBytes: outputBytes,
		DurationMS:  duration.Milliseconds(),
	}
	return s.usage.InsertEvent(ctx, event)
}

// UsedThisPeriod counts the user's generations in the current period
func (s *UsageService) UsedThisPeriod(ctx context.Context, userID string) (int, error) {
	return s.usage.CountForUserSince(ctx, userID, PeriodStart(time.Now()))
}

// RecentEvents retrieves the user's most recent generations
func (s *UsageService) RecentEvents(ctx context.Context, userID string, limit int) ([]*models.UsageEvent, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.usage.FindRecentForUser(ctx, userID, limit)
}
