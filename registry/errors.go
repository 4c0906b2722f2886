package registry

import (
	"errors"
	"fmt"
)

// Sentinels matched by errors.Is against NetworkError and DecodeError
var (
	ErrNetwork = errors.New("network error")
	ErrDecode  = errors.New("decode error")
)

// NetworkError means the bulk-load request could not be completed
type NetworkError struct {
	URL        string
	StatusCode int // zero when no response was received
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("load users from %s: unexpected status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("load users from %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrNetwork) hold for any *NetworkError
func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }

// DecodeError means the response could not be turned into user records
type DecodeError struct {
	URL   string
	Index int // offending record, -1 when the body as a whole is malformed
	Err   error
}

func (e *DecodeError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("decode users from %s: record %d: %v", e.URL, e.Index, e.Err)
	}
	return fmt.Sprintf("decode users from %s: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrDecode) hold for any *DecodeError
func (e *DecodeError) Is(target error) bool { return target == ErrDecode }
