package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"levelup/internal/domain"
	"levelup/internal/repository"
)

const createWorkoutTable = `
CREATE TABLE IF NOT EXISTS workout (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	exercise TEXT NOT NULL,
	weight INTEGER NOT NULL DEFAULT 0,
	reps INTEGER NOT NULL DEFAULT 10,
	sets INTEGER NOT NULL DEFAULT 3,
	date TEXT NOT NULL DEFAULT '',
	user_id INTEGER NOT NULL REFERENCES users(id)
);
`

type WorkoutRepository struct {
	db *sql.DB
}

func NewWorkoutRepository(db *sql.DB) repository.WorkoutRepository {
	return &WorkoutRepository{db: db}
}

func (r *WorkoutRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createWorkoutTable); err != nil {
		return fmt.Errorf("create workout table: %w", err)
	}
	return nil
}

func (r *WorkoutRepository) Create(ctx context.Context, workout *domain.Workout) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
INSERT INTO workout (exercise, weight, reps, sets, date, user_id)
VALUES (?, ?, ?, ?, ?, ?)`,
		workout.Exercise,
		workout.Weight,
		workout.Reps,
		workout.Sets,
		workout.Date,
		workout.UserID,
	)
	if err != nil {
		return 0, fmt.Errorf("insert workout: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("workout last insert id: %w", err)
	}
	workout.ID = id
	return id, nil
}

func (r *WorkoutRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Workout, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, exercise, weight, reps, sets, date, user_id
FROM workout
WHERE user_id = ?
ORDER BY date DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list workouts: %w", err)
	}
	defer rows.Close()

	var workouts []domain.Workout
	for rows.Next() {
		var w domain.Workout
		if err := rows.Scan(&w.ID, &w.Exercise, &w.Weight, &w.Reps, &w.Sets, &w.Date, &w.UserID); err != nil {
			return nil, fmt.Errorf("scan workout: %w", err)
		}
		workouts = append(workouts, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate workouts: %w", err)
	}
	return workouts, nil
}

func (r *WorkoutRepository) Delete(ctx context.Context, id, userID int64) error {
	res, err := r.db.ExecContext(ctx, `
DELETE FROM workout WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete workout: %w", err)
	}
	return ensureRowAffected(res)
}
