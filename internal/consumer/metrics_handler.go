package consumer

import (
	"context"
	"encoding/json"
	"fmt"

	"example.com/exercisetracker/internal/events"
)

// MetricsHandler folds exercise.logged events into Prometheus counters.
// Other event types are acknowledged and ignored.
type MetricsHandler struct{}

// NewMetricsHandler constructs a MetricsHandler.
func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{}
}

// Handle implements Handler.
func (h *MetricsHandler) Handle(_ context.Context, msg Message) error {
	if msg.EventType != events.ExerciseLoggedType {
		return nil
	}

	var evt events.ExerciseLogged
	if err := json.Unmarshal(msg.Payload, &evt); err != nil {
		return fmt.Errorf("decode %s: %w", msg.EventType, err)
	}
	if evt.DurationMin <= 0 {
		return fmt.Errorf("event for user %s has non-positive duration %d", evt.UserID, evt.DurationMin)
	}

	recordExerciseMinutes(msg.Topic, evt.DurationMin)
	return nil
}
