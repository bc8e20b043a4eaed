package interfaces

import (
	"context"

	"qadamsafe/internal/models"

	"github.com/google/uuid"
)

type ScenarioRepository interface {
	Create(ctx context.Context, scenario *models.Scenario) error
	// Upsert inserts or fully replaces the scenario with the same ID.
	Upsert(ctx context.Context, scenario *models.Scenario) error
	// GetByID returns models.ErrScenarioNotFound if missing.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Scenario, error)
	// List returns all scenarios ordered by sort_order, created_at.
	List(ctx context.Context) ([]*models.Scenario, error)
	// Delete returns models.ErrScenarioNotFound if nothing was deleted.
	Delete(ctx context.Context, id uuid.UUID) error
}
