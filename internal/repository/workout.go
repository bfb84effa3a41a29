package repository

import (
	"context"

	"levelup/internal/domain"
)

// WorkoutRepository exposes persistence operations for workout entries.
type WorkoutRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, workout *domain.Workout) (int64, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Workout, error)
	// Delete removes the entry only when it exists and belongs to userID.
	Delete(ctx context.Context, id, userID int64) error
}
