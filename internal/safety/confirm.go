package safety

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"
)

const tokenTTL = 5 * time.Minute

// pendingConfirmation holds the metadata for an outstanding confirmation token.
type pendingConfirmation struct {
	action      string
	fingerprint string
	description string
	createdAt   time.Time
}

// ConfirmationTracker manages single-use, time-limited confirmation tokens
// for actions whose names match one of its glob patterns. A token only
// confirms the exact action and payload fingerprint it was issued for.
type ConfirmationTracker struct {
	patterns []string
	now      func() time.Time

	mu     sync.Mutex
	tokens map[string]*pendingConfirmation
}

// NewConfirmationTracker returns a ConfirmationTracker for actions matching
// patterns. A nil or empty slice means no action requires confirmation.
func NewConfirmationTracker(patterns []string) *ConfirmationTracker {
	return &ConfirmationTracker{
		patterns: append([]string(nil), patterns...),
		now:      time.Now,
		tokens:   make(map[string]*pendingConfirmation),
	}
}

// NeedsConfirmation reports whether action matches a confirmation pattern.
// A nil tracker confirms nothing.
func (ct *ConfirmationTracker) NeedsConfirmation(action string) bool {
	if ct == nil {
		return false
	}
	return matchAny(ct.patterns, action)
}

// sweepExpired removes all tokens whose age exceeds tokenTTL. The caller must
// hold ct.mu.
func (ct *ConfirmationTracker) sweepExpired(now time.Time) {
	for token, pending := range ct.tokens {
		if now.Sub(pending.createdAt) > tokenTTL {
			delete(ct.tokens, token)
		}
	}
}

// RequestConfirmation issues a token for sending action with the payload
// identified by fingerprint. Tokens are valid for 5 minutes and single-use.
func (ct *ConfirmationTracker) RequestConfirmation(action, fingerprint, description string) string {
	token := generateToken()

	ct.mu.Lock()
	now := ct.now()
	ct.sweepExpired(now)
	ct.tokens[token] = &pendingConfirmation{
		action:      action,
		fingerprint: fingerprint,
		description: description,
		createdAt:   now,
	}
	ct.mu.Unlock()

	return token
}

// Confirm consumes token and reports whether it was issued for this action
// and fingerprint and has not expired. A presented token is always
// consumed, even when it does not match.
func (ct *ConfirmationTracker) Confirm(token, action, fingerprint string) bool {
	if token == "" {
		return false
	}

	ct.mu.Lock()
	defer ct.mu.Unlock()

	pending, ok := ct.tokens[token]
	if !ok {
		return false
	}
	delete(ct.tokens, token)

	if ct.now().Sub(pending.createdAt) > tokenTTL {
		return false
	}

	return pending.action == action && pending.fingerprint == fingerprint
}

// Pending returns the number of outstanding tokens.
func (ct *ConfirmationTracker) Pending() int {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	return len(ct.tokens)
}

// Fingerprint returns a stable digest of payload for binding a token to it.
// The payload is re-encoded through a generic value first so key order and
// whitespace do not matter. Numbers keep their literal form.
func Fingerprint(payload any) string {
	data, err := json.Marshal(payload)
	if err != nil {
		return ""
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err == nil {
		if canonical, err := json.Marshal(v); err == nil {
			data = canonical
		}
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// generateToken returns a cryptographically random hex-encoded token string.
func generateToken() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return hex.EncodeToString([]byte(time.Now().String()))
	}
	return hex.EncodeToString(b[:])
}
