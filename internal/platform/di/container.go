// internal/platform/di/container.go
package di

import (
	"context"
	"errors"
	"log"
	"net/http"

	httphandlers "tcon/internal/adapters/in/http/handlers"
	"tcon/internal/adapters/in/http/middleware"
	pgarchive "tcon/internal/adapters/out/db"
	fsrepo "tcon/internal/adapters/out/firestore"
	"tcon/internal/adapters/out/mail"
	"tcon/internal/adapters/out/notify"
	"tcon/internal/application/session"
	uc "tcon/internal/application/usecase"
	shared "tcon/internal/platform/di/shared"
)

// Container wires the storefront checkout service.
type Container struct {
	Infra    *shared.Infra
	Registry *session.Registry
	Broker   *session.AuthBroker
	Notices  *notify.Queue

	handler http.Handler
}

// NewContainer builds all adapters, the session registry, and the router.
func NewContainer(ctx context.Context, infra *shared.Infra) (*Container, error) {
	if infra == nil || infra.Firestore == nil {
		return nil, errors.New("di: infra is not initialized")
	}

	// out adapters
	carts := fsrepo.NewCartRepositoryFS(infra.Firestore)
	buyers := fsrepo.NewBuyerRepositoryFS(infra.Firestore)
	orders := fsrepo.NewOrderRepositoryFS(infra.Firestore)

	broker := session.NewAuthBroker()
	notices := notify.NewQueue()

	deps := uc.WorkflowDeps{
		Carts:       carts,
		Buyers:      buyers,
		Orders:      orders,
		Identity:    broker,
		Notifier:    notices,
		CallTimeout: infra.Config.CheckoutCallTimeout,
	}

	if infra.ArchiveDB != nil {
		deps.Archiver = pgarchive.NewOrderArchivePG(infra.ArchiveDB)
	}
	if infra.SendGridAPIKey != "" {
		deps.Mailer = mail.NewSendGridMailer(infra.SendGridAPIKey, infra.Config.MailFrom)
	} else {
		log.Printf("[di] confirmation mail disabled (no SendGrid key)")
	}

	registry := session.NewRegistry(deps)

	c := &Container{
		Infra:    infra,
		Registry: registry,
		Broker:   broker,
		Notices:  notices,
	}
	c.handler = c.buildRouter()
	return c, nil
}

// Handler returns the fully middleware-wrapped root handler.
func (c *Container) Handler() http.Handler {
	return c.handler
}

func (c *Container) buildRouter() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/cart", httphandlers.NewCartHandler(c.Registry))
	mux.Handle("/cart/", httphandlers.NewCartHandler(c.Registry))
	mux.Handle("/checkout", httphandlers.NewCheckoutHandler(c.Registry, c.Notices))
	mux.Handle("/checkout/", httphandlers.NewCheckoutHandler(c.Registry, c.Notices))

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	auth := &middleware.UserAuth{
		FirebaseAuth: c.Infra.FirebaseAuth,
		Publisher:    c.Broker,
	}

	// chain order matters: CORS outermost, then recover, session, auth
	var h http.Handler = mux
	h = auth.Handler(h)
	h = middleware.Session(h)
	h = middleware.Recover(h)
	h = middleware.CORS(h)
	return h
}

// Close tears down sessions (subscriptions cancelled) and infra clients.
func (c *Container) Close() {
	if c == nil {
		return
	}
	if c.Registry != nil {
		c.Registry.Close()
	}
	if c.Infra != nil {
		_ = c.Infra.Close()
	}
}
