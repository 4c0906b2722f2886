package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/samandartukhtayev/user-registry/models"
)

// Source fetches the full set of users for a bulk load
type Source interface {
	FetchUsers(ctx context.Context) ([]models.User, error)
	// Describe names the source in diagnostics
	Describe() string
}

// HTTPSource loads users with a single GET {baseAddress}/users
type HTTPSource struct {
	baseAddress string
	client      *http.Client
}

// NewHTTPSource creates an HTTP source. A nil client means http.DefaultClient.
func NewHTTPSource(baseAddress string, client *http.Client) *HTTPSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSource{
		baseAddress: baseAddress,
		client:      client,
	}
}

// URL returns the endpoint the source requests
func (s *HTTPSource) URL() string {
	return strings.TrimRight(s.baseAddress, "/") + "/users"
}

// Describe returns the endpoint URL
func (s *HTTPSource) Describe() string { return s.URL() }

// FetchUsers issues one request and decodes the body as a JSON array of users.
// Transport failures and non-2xx statuses return *NetworkError; a body that
// is not a JSON array of user objects returns *DecodeError.
func (s *HTTPSource) FetchUsers(ctx context.Context) ([]models.User, error) {
	url := s.URL()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused
		_, _ = io.CopyN(io.Discard, resp.Body, 4<<10)
		return nil, &NetworkError{URL: url, StatusCode: resp.StatusCode, Err: errors.New(resp.Status)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	var users []models.User
	if err := json.Unmarshal(body, &users); err != nil {
		return nil, &DecodeError{URL: url, Index: -1, Err: err}
	}
	if users == nil {
		// JSON null is not a sequence
		return nil, &DecodeError{URL: url, Index: -1, Err: errors.New("response body is not a JSON array")}
	}

	return users, nil
}
