package domain

// Workout is a single logged training entry owned by a user.
// Date is stored as an ISO date string (2006-01-02).
type Workout struct {
	ID       int64
	Exercise string
	Weight   int
	Reps     int
	Sets     int
	Date     string
	UserID   int64
}
