package models

import (
	"errors"
	"fmt"
	"time"
)

// CreatedAtLayout is the ISO-8601 layout used for User.CreatedAt
const CreatedAtLayout = "2006-01-02T15:04:05.000Z"

// ErrInvalidUser is returned by Validate when a record is missing a required field
var ErrInvalidUser = errors.New("invalid user record")

// User represents a user in the registry
// Records are treated as immutable once constructed
type User struct {
	ID        int64  `json:"id"` // epoch milliseconds at creation
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt string `json:"createdAt"`
}

// Clock supplies the current instant to NewUser
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock
type SystemClock struct{}

// Now returns time.Now()
func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant
type FixedClock time.Time

// Now returns the fixed instant
func (c FixedClock) Now() time.Time { return time.Time(c) }

// NewUser builds a user record stamped with the clock's current instant.
// The id is the epoch millisecond value, so two users created within the
// same millisecond share an id. The record is not added to any registry.
func NewUser(clock Clock, name, email string) User {
	if clock == nil {
		clock = SystemClock{}
	}
	now := clock.Now()

	return User{
		ID:        now.UnixMilli(),
		Name:      name,
		Email:     email,
		CreatedAt: now.UTC().Format(CreatedAtLayout),
	}
}

// Validate checks that every field of a decoded record is present and well formed
func (u User) Validate() error {
	switch {
	case u.ID == 0:
		return fmt.Errorf("%w: missing id", ErrInvalidUser)
	case u.Name == "":
		return fmt.Errorf("%w: missing name for id %d", ErrInvalidUser, u.ID)
	case u.Email == "":
		return fmt.Errorf("%w: missing email for id %d", ErrInvalidUser, u.ID)
	case u.CreatedAt == "":
		return fmt.Errorf("%w: missing createdAt for id %d", ErrInvalidUser, u.ID)
	}

	if _, err := time.Parse(time.RFC3339Nano, u.CreatedAt); err != nil {
		return fmt.Errorf("%w: createdAt %q for id %d: %v", ErrInvalidUser, u.CreatedAt, u.ID, err)
	}

	return nil
}
