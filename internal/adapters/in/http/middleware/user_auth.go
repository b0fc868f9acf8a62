// internal/adapters/in/http/middleware/user_auth.go
package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"

	firebaseauth "firebase.google.com/go/v4/auth"

	sess "tcon/internal/application/session"
	uc "tcon/internal/application/usecase"
)

type ctxKey struct{ name string }

var (
	ctxKeyUID   = ctxKey{name: "uid"}
	ctxKeyEmail = ctxKey{name: "email"}
)

// AuthPublisher receives identity-state transitions for a session.
// The session AuthBroker satisfies it.
type AuthPublisher interface {
	Publish(sessionID string, st uc.AuthState)
}

// UserAuth verifies a Firebase ID token when one is presented and publishes
// the session's identity state (signed in / guest) to the broker. A missing
// or invalid token is NOT an error here: guest checkout is a supported flow.
type UserAuth struct {
	FirebaseAuth *firebaseauth.Client
	Publisher    AuthPublisher
}

func (m *UserAuth) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := sess.FromContext(r.Context())

		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") || m.FirebaseAuth == nil {
			m.publish(sid, uc.AuthState{SignedIn: false})
			next.ServeHTTP(w, r)
			return
		}

		idToken := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if idToken == "" {
			m.publish(sid, uc.AuthState{SignedIn: false})
			next.ServeHTTP(w, r)
			return
		}

		token, err := m.FirebaseAuth.VerifyIDToken(r.Context(), idToken)
		if err != nil {
			log.Printf("[user_auth] token verify failed session=%s: %v", sid, err)
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		uid := strings.TrimSpace(token.UID)
		if uid == "" {
			http.Error(w, "invalid uid in token", http.StatusUnauthorized)
			return
		}

		m.publish(sid, uc.AuthState{SignedIn: true, UID: uid})

		ctx := context.WithValue(r.Context(), ctxKeyUID, uid)
		if emailRaw, ok := token.Claims["email"]; ok {
			if e, ok2 := emailRaw.(string); ok2 && strings.TrimSpace(e) != "" {
				ctx = context.WithValue(ctx, ctxKeyEmail, strings.TrimSpace(e))
			}
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *UserAuth) publish(sessionID string, st uc.AuthState) {
	if m == nil || m.Publisher == nil || sessionID == "" {
		return
	}
	m.Publisher.Publish(sessionID, st)
}

// UIDFromContext returns the verified Firebase uid, or "".
func UIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyUID).(string); ok {
		return v
	}
	return ""
}

// EmailFromContext returns the token email claim, or "".
func EmailFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyEmail).(string); ok {
		return v
	}
	return ""
}
