package utils

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar date format accepted by the API (yyyy-mm-dd).
const DateLayout = "2006-01-02"

// ParseDate parses a yyyy-mm-dd string. An empty string yields nil.
func ParseDate(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return nil, fmt.Errorf("invalid date format, expected yyyy-mm-dd: %q", value)
	}
	return &t, nil
}

// FormatDate renders t as yyyy-mm-dd, or "" when t is nil.
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(DateLayout)
}

// ValidateBirthDate rejects dates in the future relative to now.
func ValidateBirthDate(dob *time.Time, now time.Time) error {
	if dob == nil {
		return nil
	}
	if dob.After(now) {
		return fmt.Errorf("date of birth %s is in the future", dob.Format(DateLayout))
	}
	return nil
}
