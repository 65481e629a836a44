package domain

import (
	"strings"
	"time"
)

// NoLimit disables truncation in a LogQuery.
const NoLimit = -1

// LogQuery narrows a user's exercise log. Zero From or To leaves that side of
// the range open; both bounds are inclusive.
type LogQuery struct {
	From  time.Time
	To    time.Time
	Limit int
}

// ParseLogQuery builds a LogQuery from raw query parameters. Bounds that are
// not valid dates impose no constraint.
func ParseLogQuery(from, to, limit string) LogQuery {
	q := LogQuery{Limit: ParseLimit(limit)}
	if strings.TrimSpace(from) != "" {
		if parsed, err := ParseDate(from); err == nil {
			q.From = parsed
		}
	}
	if strings.TrimSpace(to) != "" {
		if parsed, err := ParseDate(to); err == nil {
			q.To = parsed
		}
	}
	return q
}

// ParseLimit reads the leading integer of raw. Blank, non-numeric and
// negative input yield NoLimit; zero is honoured and empties the log.
func ParseLimit(raw string) int {
	n, ok := leadingInt(raw)
	if !ok || n < 0 {
		return NoLimit
	}
	return n
}

// FilterLog returns the records inside the query's date range, in their
// original order, truncated to the query limit. The input is not modified.
func FilterLog(records []ExerciseRecord, q LogQuery) []ExerciseRecord {
	out := make([]ExerciseRecord, 0, len(records))
	for _, rec := range records {
		if q.Limit >= 0 && len(out) >= q.Limit {
			break
		}
		if !q.From.IsZero() && rec.Date.Before(q.From) {
			continue
		}
		if !q.To.IsZero() && rec.Date.After(q.To) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// LogEntry is the wire form of a single exercise.
type LogEntry struct {
	Description string `json:"description"`
	Duration    int    `json:"duration"`
	Date        string `json:"date"`
}

// LogResponse is the wire form of a filtered exercise log.
type LogResponse struct {
	ID       string     `json:"_id"`
	Username string     `json:"username"`
	Count    int        `json:"count"`
	Log      []LogEntry `json:"log"`
}

// Shape renders records for the given user. Count always matches len(Log).
func Shape(user User, records []ExerciseRecord) LogResponse {
	entries := make([]LogEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, ToLogEntry(rec))
	}
	return LogResponse{
		ID:       user.ID,
		Username: user.Username,
		Count:    len(entries),
		Log:      entries,
	}
}

// ToLogEntry renders one record with a human-readable date.
func ToLogEntry(rec ExerciseRecord) LogEntry {
	return LogEntry{
		Description: rec.Description,
		Duration:    rec.DurationMin,
		Date:        FormatDate(rec.Date),
	}
}
