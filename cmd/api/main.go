// cmd/api/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"tcon/internal/adapters/in/http/middleware"
	"tcon/internal/platform/di"
	shared "tcon/internal/platform/di/shared"
)

// atomicHandler allows swapping the underlying handler at runtime safely.
// We listen with a healthz-only mux immediately and swap in the real router
// once infra is up (Cloud Run wants the port open fast).
type atomicHandler struct {
	v atomic.Value // stores http.Handler
}

func newAtomicHandler(initial http.Handler) *atomicHandler {
	ah := &atomicHandler{}
	if initial == nil {
		initial = http.NotFoundHandler()
	}
	ah.v.Store(initial)
	return ah
}

func (h *atomicHandler) Store(next http.Handler) {
	if next == nil {
		return
	}
	h.v.Store(next)
}

func (h *atomicHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cur := h.v.Load()
	if cur == nil {
		http.NotFound(w, r)
		return
	}
	cur.(http.Handler).ServeHTTP(w, r)
}

func main() {
	ctx := context.Background()

	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	healthMux := http.NewServeMux()
	healthMux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	switcher := newAtomicHandler(middleware.CORS(healthMux))

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      switcher,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var containerHolder atomic.Value // stores *di.Container (or nil)
	containerHolder.Store((*di.Container)(nil))

	idleConnsClosed := make(chan struct{})
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		sig := <-c
		log.Printf("[boot] signal received: %v, shutting down", sig)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[boot] WARN: server shutdown: %v", err)
		}

		if v := containerHolder.Load(); v != nil {
			if cont, ok := v.(*di.Container); ok && cont != nil {
				cont.Close()
			}
		}
		close(idleConnsClosed)
	}()

	// init infra + container in the background, swap the handler in when ready
	go func() {
		infra, err := shared.NewInfra(ctx)
		if err != nil {
			log.Printf("[boot] FATAL: infra init failed: %v (serving healthz only)", err)
			return
		}

		cont, err := di.NewContainer(ctx, infra)
		if err != nil {
			log.Printf("[boot] FATAL: container init failed: %v (serving healthz only)", err)
			_ = infra.Close()
			return
		}

		containerHolder.Store(cont)
		switcher.Store(cont.Handler())
		log.Printf("[boot] storefront checkout router active")
	}()

	log.Printf("[boot] listening on :%s", port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("[boot] ListenAndServe: %v", err)
	}
	<-idleConnsClosed
}
