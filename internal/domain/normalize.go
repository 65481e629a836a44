package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// dateLayouts lists the calendar-date formats accepted for exercise dates and
// log bounds, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"Mon Jan 02 2006",
	"Mon Jan 2 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"02 Jan 2006",
}

// Normalize validates raw exercise input and produces the record that gets
// appended to a user's log. now supplies the date when input.Date is blank.
func Normalize(input ExerciseInput, now time.Time) (ExerciseRecord, error) {
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return ExerciseRecord{}, fmt.Errorf("%w: description is required", ErrValidation)
	}

	duration, err := ParseDuration(input.Duration)
	if err != nil {
		return ExerciseRecord{}, err
	}

	date := CalendarDate(now)
	if strings.TrimSpace(input.Date) != "" {
		date, err = ParseDate(input.Date)
		if err != nil {
			return ExerciseRecord{}, err
		}
	}

	return ExerciseRecord{
		Description: description,
		DurationMin: duration,
		Date:        date,
	}, nil
}

// ParseDuration coerces a duration in minutes. Only the leading integer is
// read, so "30abc" is 30 and "45.9" is 45. Blank input, input without a
// leading integer and non-positive values are validation errors.
func ParseDuration(raw string) (int, error) {
	if strings.TrimSpace(raw) == "" {
		return 0, fmt.Errorf("%w: duration is required", ErrValidation)
	}
	minutes, ok := leadingInt(raw)
	if !ok {
		return 0, fmt.Errorf("%w: duration %q is not a number", ErrValidation, raw)
	}
	if minutes <= 0 {
		return 0, fmt.Errorf("%w: duration must be positive", ErrValidation)
	}
	return minutes, nil
}

// ParseDate reads a calendar date in any of the supported layouts and drops
// the time of day. Inputs carrying an offset keep the date in that offset.
func ParseDate(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return CalendarDate(parsed), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
}

// CalendarDate returns midnight UTC of t's date in t's own location.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDate renders a calendar date as "Mon Jan 02 2006".
func FormatDate(t time.Time) string {
	return t.Format("Mon Jan 02 2006")
}

// leadingInt parses an optionally signed run of digits after leading
// whitespace and ignores whatever follows it.
func leadingInt(raw string) (int, bool) {
	s := strings.TrimLeftFunc(raw, unicode.IsSpace)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digitsStart := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
