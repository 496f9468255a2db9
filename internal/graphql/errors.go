package graphql

import (
	"errors"
	"fmt"
	"time"
)

// ErrEmptyAction is returned by CallAction when no action name is given.
var ErrEmptyAction = errors.New("graphql: action name is required")

// TransportError reports a network failure, a non-2xx HTTP status, or a
// response body that is not a JSON envelope.
type TransportError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("graphql: transport: HTTP %d: %v", e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("graphql: transport: unexpected HTTP status %d: %s", e.StatusCode, e.Body)
	default:
		return fmt.Sprintf("graphql: transport: %v", e.Err)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// TimeoutError reports that no response arrived within the deadline.
type TimeoutError struct {
	Timeout time.Duration
	Err     error
}

func (e *TimeoutError) Error() string {
	if e.Timeout > 0 {
		return fmt.Sprintf("graphql: no response within %s: %v", e.Timeout, e.Err)
	}
	return fmt.Sprintf("graphql: deadline exceeded: %v", e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// MissingDataError reports an envelope without data.<Field>. Errors holds
// the top-level GraphQL errors array when the server sent one.
type MissingDataError struct {
	Field  string
	Errors []GraphQLError
}

func (e *MissingDataError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("graphql: response has no data.%s", e.Field)
	}
	resp := Response{Errors: e.Errors}
	return fmt.Sprintf("graphql: response has no data.%s: %s", e.Field, resp.ErrorMessages())
}

// MalformedResultError reports an inner result string that is not valid
// JSON. Raw holds the string as received.
type MalformedResultError struct {
	Field string
	Raw   string
	Err   error
}

func (e *MalformedResultError) Error() string {
	return fmt.Sprintf("graphql: data.%s.result is not valid JSON: %v (raw: %q)", e.Field, e.Err, truncate(e.Raw, 200))
}

func (e *MalformedResultError) Unwrap() error { return e.Err }

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
