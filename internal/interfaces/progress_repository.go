package interfaces

import (
	"context"

	"qadamsafe/internal/models"

	"github.com/google/uuid"
)

// ProgressRepository хранит прогресс пользователей по сценариям.
type ProgressRepository interface {
	// Get returns models.ErrNotFound when the user never completed the scenario.
	Get(ctx context.Context, userID, scenarioID uuid.UUID) (*models.UserProgress, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.UserProgress, error)
	// RecordCompletion merges a finished run into the stored row:
	// best score, minimum mistakes, attempts+1, latest decisions,
	// completed_at kept from the first completion. Returns the merged row and
	// the best score stored before this run (0 if never completed), read while
	// concurrent completions of the same user are serialized.
	RecordCompletion(ctx context.Context, run *models.UserProgress) (merged *models.UserProgress, previousBest int, err error)
}
