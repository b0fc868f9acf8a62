// internal/application/session/context.go
package session

import (
	"context"
	"strings"
)

type ctxKey int

const ctxKeySessionID ctxKey = iota

// WithSessionID stores the storefront session id in the context.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, ctxKeySessionID, strings.TrimSpace(sessionID))
}

// FromContext returns the session id, or "" when absent.
func FromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxKeySessionID).(string); ok {
		return v
	}
	return ""
}
