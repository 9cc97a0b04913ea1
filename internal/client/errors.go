package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	ErrMissingAPIKey = errors.New("API key is not set")
	ErrUnauthorized  = errors.New("authentication failed")
	ErrNotFound      = errors.New("endpoint not found")
	ErrRateLimited   = errors.New("rate limit exceeded")
	ErrConnection    = errors.New("could not connect")
	ErrTimeout       = errors.New("request timed out")
	ErrBadResponse   = errors.New("unexpected response format")
)

// APIError is returned for any non-2xx response, and for 2xx bodies that
// carry an error object.
type APIError struct {
	StatusCode int
	Message    string
	URL        string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("HTTP %d from %s", e.StatusCode, e.URL)
	}
	return fmt.Sprintf("HTTP %d from %s: %s", e.StatusCode, e.URL, e.Message)
}

// Unwrap maps the status codes the CLI treats specially onto sentinels so
// callers can use errors.Is.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	}
	return nil
}

func newAPIError(status int, url string, body []byte) *APIError {
	msg := ""
	if gjson.ValidBytes(body) {
		msg = gjson.GetBytes(body, "error.message").String()
		if msg == "" {
			msg = gjson.GetBytes(body, "error").String()
		}
	}
	if msg == "" {
		msg = strings.TrimSpace(string(body))
	}
	return &APIError{StatusCode: status, Message: msg, URL: url}
}

// transportError classifies a failure from http.Client.Do.
func transportError(ctx context.Context, baseURL string, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return ctx.Err()
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w to %s: %v", ErrConnection, baseURL, err)
}

// Describe returns the line the CLI prints for err.
func Describe(err error) string {
	var apiErr *APIError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingAPIKey):
		return "Error: API key is not set. Please configure your API key in the config file or provide it with --api-key."
	case errors.Is(err, ErrUnauthorized):
		return "Error: Authentication failed. Please check your API key."
	case errors.Is(err, ErrNotFound) && errors.As(err, &apiErr):
		return fmt.Sprintf("Error: Endpoint not found at %s", apiErr.URL)
	case errors.Is(err, ErrRateLimited):
		return "Error: Rate limit exceeded. Please try again later."
	case errors.As(err, &apiErr):
		return fmt.Sprintf("HTTP Error: %v", apiErr)
	case errors.Is(err, ErrConnection):
		return fmt.Sprintf("Error: %v. Please check your internet connection and base URL.", err)
	case errors.Is(err, ErrTimeout):
		return "Error: Request timed out. Please try again later."
	case errors.Is(err, context.Canceled):
		return "Request cancelled by user."
	}
	return fmt.Sprintf("Error: %v", err)
}
