package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"levelup/internal/domain"
	"levelup/internal/repository"
)

const createNutritionTable = `
CREATE TABLE IF NOT EXISTS nutrition (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	food TEXT NOT NULL,
	protein INTEGER NOT NULL DEFAULT 0,
	carbs INTEGER NOT NULL DEFAULT 0,
	fats INTEGER NOT NULL DEFAULT 0,
	calories INTEGER NOT NULL DEFAULT 0,
	date TEXT NOT NULL DEFAULT '',
	user_id INTEGER NOT NULL REFERENCES users(id)
);
`

type NutritionRepository struct {
	db *sql.DB
}

func NewNutritionRepository(db *sql.DB) repository.NutritionRepository {
	return &NutritionRepository{db: db}
}

func (r *NutritionRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createNutritionTable); err != nil {
		return fmt.Errorf("create nutrition table: %w", err)
	}
	return nil
}

func (r *NutritionRepository) Create(ctx context.Context, entry *domain.Nutrition) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
INSERT INTO nutrition (food, protein, carbs, fats, calories, date, user_id)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.Food,
		entry.Protein,
		entry.Carbs,
		entry.Fats,
		entry.Calories,
		entry.Date,
		entry.UserID,
	)
	if err != nil {
		return 0, fmt.Errorf("insert nutrition entry: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("nutrition last insert id: %w", err)
	}
	entry.ID = id
	return id, nil
}

func (r *NutritionRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Nutrition, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, food, protein, carbs, fats, calories, date, user_id
FROM nutrition
WHERE user_id = ?
ORDER BY date DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list nutrition entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.Nutrition
	for rows.Next() {
		var n domain.Nutrition
		if err := rows.Scan(&n.ID, &n.Food, &n.Protein, &n.Carbs, &n.Fats, &n.Calories, &n.Date, &n.UserID); err != nil {
			return nil, fmt.Errorf("scan nutrition entry: %w", err)
		}
		entries = append(entries, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nutrition entries: %w", err)
	}
	return entries, nil
}

func (r *NutritionRepository) Delete(ctx context.Context, id, userID int64) error {
	res, err := r.db.ExecContext(ctx, `
DELETE FROM nutrition WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete nutrition entry: %w", err)
	}
	return ensureRowAffected(res)
}
