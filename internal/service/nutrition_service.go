package service

import (
	"context"
	"errors"
	"fmt"

	"levelup/internal/domain"
	"levelup/internal/repository"
)

// NutritionInput carries the fields of a nutrition entry being logged.
type NutritionInput struct {
	Food     string
	Protein  int
	Carbs    int
	Fats     int
	Calories int
	Date     string
}

// NutritionService coordinates nutrition-log operations scoped to the owning user.
type NutritionService interface {
	Add(ctx context.Context, input NutritionInput, ownerID int64) (*domain.Nutrition, error)
	List(ctx context.Context, ownerID int64) ([]domain.Nutrition, error)
	Delete(ctx context.Context, id, ownerID int64) error
}

type nutritionService struct {
	entries repository.NutritionRepository
}

func NewNutritionService(entries repository.NutritionRepository) NutritionService {
	return &nutritionService{entries: entries}
}

func (s *nutritionService) Add(ctx context.Context, input NutritionInput, ownerID int64) (*domain.Nutrition, error) {
	if ownerID == 0 {
		return nil, ErrNotAuthenticated
	}
	if input.Food == "" {
		return nil, fmt.Errorf("%w: food name is required", ErrValidation)
	}

	date, err := normalizeEntryDate(input.Date)
	if err != nil {
		return nil, err
	}

	entry := &domain.Nutrition{
		Food:     input.Food,
		Protein:  input.Protein,
		Carbs:    input.Carbs,
		Fats:     input.Fats,
		Calories: input.Calories,
		Date:     date,
		UserID:   ownerID,
	}

	if _, err := s.entries.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *nutritionService) List(ctx context.Context, ownerID int64) ([]domain.Nutrition, error) {
	if ownerID == 0 {
		return nil, ErrNotAuthenticated
	}
	return s.entries.ListByUser(ctx, ownerID)
}

func (s *nutritionService) Delete(ctx context.Context, id, ownerID int64) error {
	if ownerID == 0 {
		return ErrNotAuthenticated
	}
	if err := s.entries.Delete(ctx, id, ownerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
