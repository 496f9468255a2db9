// Package auth guards the MCP HTTP endpoint with a static bearer token.
package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

const bearerPrefix = "Bearer "

// Middleware wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// NewAuthMiddleware returns middleware that admits only requests carrying
// "Authorization: Bearer <token>". The prefix is case-sensitive and followed by
// exactly one space. An empty token disables the check. Rejections are logged
// at debug level on logger, which may be nil.
//
// This guards clients of the MCP server. It is unrelated to the Authorization
// header the server itself sends upstream.
func NewAuthMiddleware(token string, logger *zap.Logger) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	want := []byte(token)

	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok || subtle.ConstantTimeCompare([]byte(provided), want) != 1 {
				logger.Debug("rejected unauthenticated request",
					zap.String("remote_addr", r.RemoteAddr),
					zap.String("path", r.URL.Path),
					zap.Bool("header_present", r.Header.Get("Authorization") != ""),
				)
				w.Header().Set("WWW-Authenticate", `Bearer realm="opus-mcp"`)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken extracts the credential from an Authorization header value.
func bearerToken(header string) (string, bool) {
	provided, found := strings.CutPrefix(header, bearerPrefix)
	if !found || provided == "" {
		return "", false
	}
	return provided, true
}
