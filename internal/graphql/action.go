package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
)

const (
	// ActionField is the data field populated by the generic action mutation.
	ActionField = "genericActionCall"
	// GetObjectField is the data field populated by generic object reads.
	GetObjectField = "genericGetObject"

	// ActionMutation is the single mutation shape every action is sent with.
	ActionMutation = `mutation GenericActionCall($action: String!, $payload: JSON!) {
  genericActionCall(action: $action, payload: $payload) {
    result
    __typename
  }
}`
)

// ActionResult is the payload of data.genericActionCall. Result is itself a
// JSON document encoded as a string.
type ActionResult struct {
	Result   string `json:"result"`
	Typename string `json:"__typename"`
}

// ActionClient issues generic action calls and object reads over a Client.
type ActionClient struct {
	client Client
}

// NewActionClient returns an ActionClient backed by client.
func NewActionClient(client Client) *ActionClient {
	if client == nil {
		panic("graphql client must not be nil")
	}
	return &ActionClient{client: client}
}

// CallAction sends action with payload through the generic action mutation
// and returns the decoded inner result. Payload may be any JSON-serialisable
// value, including json.RawMessage; it is not validated client-side.
//
// Numbers decode as json.Number so large integer IDs survive intact. Callers
// that re-render the result should use CallActionRaw, which keeps the
// server's key order.
//
// Every invocation is a fresh server-side mutation. Nothing is retried.
func (a *ActionClient) CallAction(ctx context.Context, action string, payload any) (any, error) {
	raw, err := a.CallActionRaw(ctx, action, payload)
	if err != nil {
		return nil, err
	}
	out, err := decodeValue(raw)
	if err != nil {
		return nil, fmt.Errorf("graphql: decode action result: %w", err)
	}
	return out, nil
}

// CallActionInto behaves like CallAction but decodes the inner result into out.
func (a *ActionClient) CallActionInto(ctx context.Context, action string, payload any, out any) error {
	raw, err := a.CallActionRaw(ctx, action, payload)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("graphql: decode action %s result: %w", action, err)
	}
	return nil
}

// CallActionRaw returns the inner result of an action call as raw JSON,
// validated but not decoded.
func (a *ActionClient) CallActionRaw(ctx context.Context, action string, payload any) (json.RawMessage, error) {
	if action == "" {
		return nil, ErrEmptyAction
	}

	resp, err := a.client.Execute(ctx, ActionMutation, map[string]any{
		"action":  action,
		"payload": payload,
	})
	if err != nil {
		return nil, err
	}

	return innerResult(resp, ActionField)
}

// GetOption adjusts how GetObject navigates the envelope.
type GetOption func(*getOptions)

type getOptions struct {
	field         string
	doubleEncoded bool
}

// WithField reads data.<field> instead of data.genericGetObject.
func WithField(field string) GetOption {
	return func(o *getOptions) {
		if field != "" {
			o.field = field
		}
	}
}

// WithDoubleEncoded makes GetObject parse the field's result string a second
// time, as action calls do. Whether a read double-encodes depends on the
// server-side handler, so it is chosen per call site.
func WithDoubleEncoded(enabled bool) GetOption {
	return func(o *getOptions) {
		o.doubleEncoded = enabled
	}
}

// GetObject executes a read query and returns the decoded value of
// data.genericGetObject (or the field given by WithField).
func (a *ActionClient) GetObject(ctx context.Context, query string, variables map[string]any, opts ...GetOption) (any, error) {
	o := getOptions{field: GetObjectField}
	for _, opt := range opts {
		opt(&o)
	}

	resp, err := a.client.Execute(ctx, query, variables)
	if err != nil {
		return nil, err
	}

	return DecodeField(resp, o.field, o.doubleEncoded)
}

// GetObjectRaw is GetObject without the final decode. The field's JSON is
// returned byte for byte.
func (a *ActionClient) GetObjectRaw(ctx context.Context, query string, variables map[string]any, opts ...GetOption) (json.RawMessage, error) {
	o := getOptions{field: GetObjectField}
	for _, opt := range opts {
		opt(&o)
	}

	resp, err := a.client.Execute(ctx, query, variables)
	if err != nil {
		return nil, err
	}

	return FieldRaw(resp, o.field, o.doubleEncoded)
}

// DecodeField navigates resp.data.<field>. When doubleEncoded is set the
// field must be an object whose result member is a JSON string, and that
// string is parsed again; otherwise the field itself is decoded.
//
// DecodeField does not modify resp, so decoding the same envelope twice
// yields equal values.
func DecodeField(resp *Response, field string, doubleEncoded bool) (any, error) {
	raw, err := FieldRaw(resp, field, doubleEncoded)
	if err != nil {
		return nil, err
	}

	out, err := decodeValue(raw)
	if err != nil {
		return nil, fmt.Errorf("graphql: decode data.%s: %w", field, err)
	}
	return out, nil
}

// FieldRaw is DecodeField without the final decode.
func FieldRaw(resp *Response, field string, doubleEncoded bool) (json.RawMessage, error) {
	if doubleEncoded {
		return innerResult(resp, field)
	}
	return fieldData(resp, field)
}

// decodeValue decodes one JSON document, keeping numbers as json.Number.
func decodeValue(raw json.RawMessage) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// fieldData returns data.<field>, treating an explicit null as absent.
func fieldData(resp *Response, field string) (json.RawMessage, error) {
	if resp == nil {
		return nil, &MissingDataError{Field: field}
	}
	raw, ok := resp.Data[field]
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return nil, &MissingDataError{Field: field, Errors: resp.Errors}
	}
	return raw, nil
}

// innerResult unwraps data.<field>.result and checks that it holds JSON.
func innerResult(resp *Response, field string) (json.RawMessage, error) {
	raw, err := fieldData(resp, field)
	if err != nil {
		return nil, err
	}

	var ar ActionResult
	if err := json.Unmarshal(raw, &ar); err != nil {
		return nil, &MalformedResultError{Field: field, Raw: string(raw), Err: err}
	}

	var v any
	if err := json.Unmarshal([]byte(ar.Result), &v); err != nil {
		return nil, &MalformedResultError{Field: field, Raw: ar.Result, Err: err}
	}
	return json.RawMessage(ar.Result), nil
}
