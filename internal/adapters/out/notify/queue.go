// internal/adapters/out/notify/queue.go
package notify

import (
	"context"
	"log"
	"sync"
	"time"

	"tcon/internal/application/session"
)

// Level distinguishes transient success toasts from blocking error alerts.
type Level string

const (
	LevelSuccess       Level = "success"
	LevelBlockingError Level = "error"
)

// Notice is one user-facing message queued for the storefront client.
type Notice struct {
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Queue implements usecase.Notifier. Messages are queued per session and
// drained by the HTTP layer into responses (the client renders them as the
// toast / alert the checkout screen shows). Messages without a session in
// context are logged only.
type Queue struct {
	mu      sync.Mutex
	pending map[string][]Notice
}

func NewQueue() *Queue {
	return &Queue{pending: map[string][]Notice{}}
}

func (q *Queue) Success(ctx context.Context, msg string) {
	q.push(ctx, LevelSuccess, msg)
}

func (q *Queue) BlockingError(ctx context.Context, msg string) {
	q.push(ctx, LevelBlockingError, msg)
}

// Drain returns and clears the session's queued notices in arrival order.
func (q *Queue) Drain(sessionID string) []Notice {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.pending[sessionID]
	delete(q.pending, sessionID)
	return out
}

func (q *Queue) push(ctx context.Context, level Level, msg string) {
	sid := session.FromContext(ctx)
	log.Printf("[notify] session=%s level=%s msg=%q", sid, level, msg)
	if sid == "" {
		return
	}

	q.mu.Lock()
	q.pending[sid] = append(q.pending[sid], Notice{
		Level:   level,
		Message: msg,
		At:      time.Now().UTC(),
	})
	q.mu.Unlock()
}
