package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"levelup/internal/domain"
	"levelup/internal/repository"
)

const entryDateLayout = "2006-01-02"

// WorkoutInput carries the fields of a workout entry being logged.
type WorkoutInput struct {
	Exercise string
	Weight   int
	Reps     int
	Sets     int
	Date     string
}

// WorkoutService coordinates workout-log operations scoped to the owning user.
type WorkoutService interface {
	Add(ctx context.Context, input WorkoutInput, ownerID int64) (*domain.Workout, error)
	List(ctx context.Context, ownerID int64) ([]domain.Workout, error)
	Delete(ctx context.Context, id, ownerID int64) error
}

type workoutService struct {
	workouts repository.WorkoutRepository
}

func NewWorkoutService(workouts repository.WorkoutRepository) WorkoutService {
	return &workoutService{workouts: workouts}
}

func (s *workoutService) Add(ctx context.Context, input WorkoutInput, ownerID int64) (*domain.Workout, error) {
	if ownerID == 0 {
		return nil, ErrNotAuthenticated
	}
	if input.Exercise == "" {
		return nil, fmt.Errorf("%w: exercise name is required", ErrValidation)
	}

	date, err := normalizeEntryDate(input.Date)
	if err != nil {
		return nil, err
	}

	workout := &domain.Workout{
		Exercise: input.Exercise,
		Weight:   input.Weight,
		Reps:     input.Reps,
		Sets:     input.Sets,
		Date:     date,
		UserID:   ownerID,
	}
	if workout.Reps == 0 {
		workout.Reps = 10
	}
	if workout.Sets == 0 {
		workout.Sets = 3
	}

	if _, err := s.workouts.Create(ctx, workout); err != nil {
		return nil, err
	}
	return workout, nil
}

func (s *workoutService) List(ctx context.Context, ownerID int64) ([]domain.Workout, error) {
	if ownerID == 0 {
		return nil, ErrNotAuthenticated
	}
	return s.workouts.ListByUser(ctx, ownerID)
}

func (s *workoutService) Delete(ctx context.Context, id, ownerID int64) error {
	if ownerID == 0 {
		return ErrNotAuthenticated
	}
	if err := s.workouts.Delete(ctx, id, ownerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// normalizeEntryDate defaults an empty date to today and validates the layout.
func normalizeEntryDate(date string) (string, error) {
	if date == "" {
		return time.Now().Format(entryDateLayout), nil
	}
	if _, err := time.Parse(entryDateLayout, date); err != nil {
		return "", fmt.Errorf("%w: date must be formatted as %s", ErrValidation, entryDateLayout)
	}
	return date, nil
}
