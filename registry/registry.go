// Package registry keeps an ordered, in-memory collection of user records that
// can be bulk-loaded from a remote source, appended to, and searched by id.
//
// A UserRegistry is not safe for concurrent use. Callers that share one across
// goroutines must serialize calls themselves, including keeping at most one
// LoadUsers in flight.
package registry

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/samandartukhtayev/user-registry/config"
	"github.com/samandartukhtayev/user-registry/models"
)

// UserRegistry holds users in insertion order
type UserRegistry struct {
	baseAddress string
	strict      bool
	source      Source
	logger      *slog.Logger
	users       []models.User
}

// Option customizes a UserRegistry
type Option func(*options)

type options struct {
	client *http.Client
	logger *slog.Logger
	source Source
}

// WithHTTPClient sets the client used by the default HTTP source
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) { o.client = client }
}

// WithLogger sets the logger used for load diagnostics
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithSource replaces the HTTP source, e.g. with a SQL-backed one
func WithSource(source Source) Option {
	return func(o *options) { o.source = source }
}

// New creates an empty registry. A nil cfg means config.DefaultConfig(), and
// an empty BaseAddress falls back to config.DefaultBaseAddress.
func New(cfg *config.Config, opts ...Option) *UserRegistry {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	baseAddress := cfg.BaseAddress
	if baseAddress == "" {
		baseAddress = config.DefaultBaseAddress
	}

	source := o.source
	if source == nil {
		source = NewHTTPSource(baseAddress, o.client)
	}

	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &UserRegistry{
		baseAddress: baseAddress,
		strict:      cfg.StrictDecoding,
		source:      source,
		logger:      logger,
		users:       []models.User{},
	}
}

// BaseAddress returns the endpoint users are loaded from
func (r *UserRegistry) BaseAddress() string {
	return r.baseAddress
}

// LoadUsers fetches the full user list once and replaces the registry's
// contents with it. On failure the error is logged and returned, and the
// existing users are left exactly as they were.
func (r *UserRegistry) LoadUsers(ctx context.Context) ([]models.User, error) {
	where := r.source.Describe()
	r.logger.Debug("loading users", "source", where)

	users, err := r.source.FetchUsers(ctx)
	if err != nil {
		r.logger.Error("failed to load users", "source", where, "error", err)
		return nil, err
	}

	if r.strict {
		for i, u := range users {
			if err := u.Validate(); err != nil {
				derr := &DecodeError{URL: where, Index: i, Err: err}
				r.logger.Error("failed to load users", "source", where, "error", derr)
				return nil, derr
			}
		}
	}

	// The source may keep its slice; the registry owns a separate copy
	r.users = append(make([]models.User, 0, len(users)), users...)
	r.logger.Info("users loaded", "source", where, "count", len(users))

	return r.Users(), nil
}

// AddUser appends user and returns it unchanged. No validation is performed.
func (r *UserRegistry) AddUser(user models.User) models.User {
	r.users = append(r.users, user)
	return user
}

// FindUserByID returns the first user in insertion order with the given id
func (r *UserRegistry) FindUserByID(id int64) (models.User, bool) {
	for _, u := range r.users {
		if u.ID == id {
			return u, true
		}
	}
	return models.User{}, false
}

// Users returns a copy of the current users in insertion order
func (r *UserRegistry) Users() []models.User {
	out := make([]models.User, len(r.users))
	copy(out, r.users)
	return out
}

// Len returns the number of users held
func (r *UserRegistry) Len() int {
	return len(r.users)
}
