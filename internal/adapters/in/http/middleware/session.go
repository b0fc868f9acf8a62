// internal/adapters/in/http/middleware/session.go
package middleware

import (
	"net/http"
	"strings"

	"tcon/internal/application/session"
)

// SessionHeader carries the storefront session id. Guests get one minted on
// first contact; the header is echoed back so the client can persist it.
const SessionHeader = "X-Session-Id"

// Session resolves (or mints) the storefront session id and stores it in the
// request context.
func Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := strings.TrimSpace(r.Header.Get(SessionHeader))
		if sid == "" {
			sid = session.NewSessionID()
		}
		w.Header().Set(SessionHeader, sid)

		ctx := session.WithSessionID(r.Context(), sid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
