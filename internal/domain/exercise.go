package domain

import "time"

// ExerciseRecord is a single normalized entry in a user's exercise log.
type ExerciseRecord struct {
	Description string
	DurationMin int
	// Date is a calendar date held at midnight UTC.
	Date time.Time
}

// User owns an append-only exercise log. Exercises are kept in insertion
// order, which is not necessarily date order.
type User struct {
	ID        string
	Username  string
	Exercises []ExerciseRecord
}

// ExerciseInput is the raw, unvalidated payload for a new exercise.
type ExerciseInput struct {
	Description string
	Duration    string
	Date        string
}
