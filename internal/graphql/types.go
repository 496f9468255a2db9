// Package graphql provides a GraphQL HTTP client for the workflow platform's
// generic action API.
package graphql

import (
	"context"
	"encoding/json"
	"strings"
)

// GraphQLError represents a single error returned in a GraphQL response.
type GraphQLError struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// Response is the outer envelope of every GraphQL response. Exactly one of
// Data or Errors is normally populated, but servers may return both.
type Response struct {
	Data   map[string]json.RawMessage `json:"data"`
	Errors []GraphQLError             `json:"errors,omitempty"`
}

// ErrorMessages joins the messages of all errors in the envelope.
func (r *Response) ErrorMessages() string {
	if r == nil || len(r.Errors) == 0 {
		return ""
	}
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

// Client defines the interface for executing GraphQL operations.
type Client interface {
	Execute(ctx context.Context, query string, variables map[string]any) (*Response, error)
}
