package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	usersCreatedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Subsystem: "users",
		Name:      "created_total",
		Help:      "Number of users registered.",
	})
	exercisesLoggedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Subsystem: "exercises",
		Name:      "logged_total",
		Help:      "Number of exercises appended to user logs.",
	})
	minutesLoggedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Subsystem: "exercises",
		Name:      "minutes_logged_total",
		Help:      "Sum of exercise durations appended to user logs, in minutes.",
	})
	lastExerciseGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "exercise_tracker",
		Subsystem: "exercises",
		Name:      "last_logged_timestamp_seconds",
		Help:      "Unix timestamp of the most recent exercise appended.",
	})
	logEntriesHistogram = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "exercise_tracker",
		Subsystem: "logs",
		Name:      "entries_returned",
		Help:      "Number of log entries returned per log query.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
	})
)

func init() {
	prometheus.MustRegister(usersCreatedCounter, exercisesLoggedCounter, minutesLoggedCounter, lastExerciseGauge, logEntriesHistogram)
}

// RecordUserCreated counts a newly registered user.
func RecordUserCreated() {
	usersCreatedCounter.Inc()
}

// RecordExerciseLogged counts an appended exercise and moves the watermark gauge.
func RecordExerciseLogged(durationMin int, ts time.Time) {
	exercisesLoggedCounter.Inc()
	if durationMin > 0 {
		minutesLoggedCounter.Add(float64(durationMin))
	}
	if ts.IsZero() {
		return
	}
	lastExerciseGauge.Set(float64(ts.Unix()))
}

// RecordLogServed observes the size of a log response.
func RecordLogServed(count int) {
	logEntriesHistogram.Observe(float64(count))
}
