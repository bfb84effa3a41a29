package domain

// Nutrition is a single logged food entry owned by a user.
// Macro fields are whole grams, calories are kcal.
type Nutrition struct {
	ID       int64
	Food     string
	Protein  int
	Carbs    int
	Fats     int
	Calories int
	Date     string
	UserID   int64
}
