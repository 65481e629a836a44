// Package events defines event payloads published by the exercise tracker.
package events

import "time"

// ExerciseLoggedType is the event_type header value for ExerciseLogged.
const ExerciseLoggedType = "exercise.logged"

// ExerciseLogged is emitted when an exercise is appended to a user's log.
type ExerciseLogged struct {
	UserID      string    `json:"user_id"`
	Username    string    `json:"username"`
	Description string    `json:"description"`
	DurationMin int       `json:"duration_min"`
	Date        string    `json:"date"`
	LoggedAt    time.Time `json:"logged_at"`
}
