package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParamError represents an invalid path or query parameter
type ParamError struct {
	Field   string
	Message string
}

func (e *ParamError) Error() string {
	return e.Message
}

// ParseID parses a positive integer identifier
func ParseID(field, raw string) (uint, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || id == 0 {
		return 0, &ParamError{
			Field:   field,
			Message: fmt.Sprintf("%s must be a positive integer", field),
		}
	}
	return uint(id), nil
}

// ParseOptionalID parses an identifier that may be absent. Empty input yields nil.
func ParseOptionalID(field, raw string) (*uint, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	id, err := ParseID(field, raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// ParseOptionalInt parses an integer that may be absent. Empty input yields 0.
func ParseOptionalInt(field, raw string) (int, error) {
	if strings.TrimSpace(raw) == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, &ParamError{
			Field:   field,
			Message: fmt.Sprintf("%s must be an integer", field),
		}
	}
	return v, nil
}

// ParseOptionalTime parses an RFC 3339 timestamp or a YYYY-MM-DD date,
// returned in UTC. A date means the start of that day. Empty input yields nil.
func ParseOptionalTime(field, raw string) (*time.Time, error) {
	return parseOptionalTime(field, raw, false)
}

// ParseOptionalEndTime is ParseOptionalTime for the upper bound of a window:
// a YYYY-MM-DD date means the last instant of that day.
func ParseOptionalEndTime(field, raw string) (*time.Time, error) {
	return parseOptionalTime(field, raw, true)
}

func parseOptionalTime(field, raw string, endOfDay bool) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		t = t.UTC()
		return &t, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		if endOfDay {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		return &t, nil
	}
	return nil, &ParamError{
		Field:   field,
		Message: fmt.Sprintf("%s must be an RFC 3339 timestamp or YYYY-MM-DD date", field),
	}
}
