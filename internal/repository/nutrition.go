package repository

import (
	"context"

	"levelup/internal/domain"
)

// NutritionRepository exposes persistence operations for nutrition entries.
type NutritionRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, entry *domain.Nutrition) (int64, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Nutrition, error)
	// Delete removes the entry only when it exists and belongs to userID.
	Delete(ctx context.Context, id, userID int64) error
}
