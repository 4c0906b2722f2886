// Package userutil holds the stateless helpers used to build and check user
// records: long-form date rendering and email shape validation.
package userutil

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// LongDateLayout renders dates in the en-US long form, e.g. "January 5, 2024"
const LongDateLayout = "January 2, 2006"

// ErrInvalidDate is wrapped by FormatError when the input is not a date
var ErrInvalidDate = errors.New("invalid date")

// FormatError reports an input that FormatDate could not parse
type FormatError struct {
	Input string
	Err   error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("format date %q: %v", e.Input, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// dateLayouts are tried in order
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// FormatDate parses an ISO-8601 date or timestamp and renders it in long form.
// Timestamps keep their own offset, so "2024-01-05T23:00:00-05:00" formats as
// January 5. Anything that does not parse yields a *FormatError.
func FormatDate(value string) (string, error) {
	t, err := parseDate(value)
	if err != nil {
		return "", err
	}
	return FormatTime(t), nil
}

// parseDate parses the inputs accepted by FormatDate
func parseDate(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, &FormatError{Input: value, Err: ErrInvalidDate}
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t, nil
		}
	}

	return time.Time{}, &FormatError{Input: value, Err: ErrInvalidDate}
}

// FormatTime renders t in long form
func FormatTime(t time.Time) string {
	return t.Format(LongDateLayout)
}

// FormatUnixMilli renders an epoch millisecond value (UTC) in long form
func FormatUnixMilli(ms int64) string {
	return FormatTime(time.UnixMilli(ms).UTC())
}
