// internal/adapters/in/http/handlers/checkout_handler.go
package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"tcon/internal/adapters/out/notify"
	sess "tcon/internal/application/session"
	uc "tcon/internal/application/usecase"
	buyerdom "tcon/internal/domain/buyer"
	orderdom "tcon/internal/domain/order"
)

// CheckoutHandler serves the checkout screen's server side.
//
// Routes (mounted at /checkout):
//   - GET  /checkout                 full state (items, total, form, readiness, notices)
//   - PUT  /checkout/form            stage buyer-form fields
//   - PUT  /checkout/payment-method  select payment method
//   - POST /checkout                 run checkout
type CheckoutHandler struct {
	registry *sess.Registry
	notices  *notify.Queue
}

func NewCheckoutHandler(registry *sess.Registry, notices *notify.Queue) http.Handler {
	return &CheckoutHandler{registry: registry, notices: notices}
}

func (h *CheckoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	path := strings.TrimRight(r.URL.Path, "/")
	if path == "" {
		path = "/"
	}

	sid := sess.FromContext(r.Context())
	log.Printf("[checkout_handler] enter method=%s path=%q session=%s", r.Method, path, sid)

	if h.registry == nil {
		writeErr(w, http.StatusInternalServerError, "checkout handler is not configured")
		return
	}

	wf, err := h.registry.Workflow(r.Context(), sid)
	if err != nil {
		log.Printf("[checkout_handler] workflow init failed session=%s: %v", sid, err)
		writeErr(w, http.StatusInternalServerError, "checkout unavailable")
		return
	}

	switch {
	case r.Method == http.MethodGet:
		h.getState(w, sid, wf)
	case r.Method == http.MethodPut && strings.HasSuffix(path, "/form"):
		h.putForm(w, r, wf)
	case r.Method == http.MethodPut && strings.HasSuffix(path, "/payment-method"):
		h.putPaymentMethod(w, r, wf)
	case r.Method == http.MethodPost:
		h.checkout(w, r, sid, wf)
	default:
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
	}

	log.Printf("[checkout_handler] exit method=%s path=%q session=%s elapsed=%s", r.Method, path, sid, time.Since(start))
}

func (h *CheckoutHandler) getState(w http.ResponseWriter, sid string, wf *uc.CheckoutWorkflow) {
	writeJSON(w, http.StatusOK, h.stateDTO(sid, wf))
}

func (h *CheckoutHandler) putForm(w http.ResponseWriter, r *http.Request, wf *uc.CheckoutWorkflow) {
	var req uc.GuestForm
	if !decodeBody(w, r, &req) {
		return
	}
	wf.SetGuestForm(req)
	writeJSON(w, http.StatusOK, map[string]any{"form": wf.GuestForm()})
}

func (h *CheckoutHandler) putPaymentMethod(w http.ResponseWriter, r *http.Request, wf *uc.CheckoutWorkflow) {
	var req struct {
		PaymentMethod string `json:"paymentMethod"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if err := wf.SetPaymentMethod(req.PaymentMethod); err != nil {
		writeErr(w, http.StatusBadRequest, "payment method not accepted")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"paymentMethod": wf.PaymentMethod(),
		"canCheckout":   wf.CanCheckout(),
	})
}

func (h *CheckoutHandler) checkout(w http.ResponseWriter, r *http.Request, sid string, wf *uc.CheckoutWorkflow) {
	o, err := wf.Checkout(r.Context())
	if err != nil {
		status := checkoutErrStatus(err)
		resp := map[string]any{"error": err.Error()}
		if h.notices != nil {
			resp["notices"] = h.notices.Drain(sid)
		}
		writeJSON(w, status, resp)
		return
	}

	resp := map[string]any{
		"orderId":   o.ID,
		"total":     o.Total,
		"orderTime": o.OrderTime,
	}
	if h.notices != nil {
		resp["notices"] = h.notices.Drain(sid)
	}
	writeJSON(w, http.StatusCreated, resp)
}

func checkoutErrStatus(err error) int {
	switch {
	case errors.Is(err, uc.ErrNotReady):
		return http.StatusUnprocessableEntity
	case errors.Is(err, uc.ErrCheckoutInFlight), errors.Is(err, uc.ErrCartBusy):
		return http.StatusConflict
	case errors.Is(err, buyerdom.ErrInvalidGuest),
		errors.Is(err, buyerdom.ErrInvalidProfile),
		errors.Is(err, orderdom.ErrInvalidPaymentMethod):
		return http.StatusUnprocessableEntity
	case errors.Is(err, uc.ErrProfileUpdateFailed),
		errors.Is(err, uc.ErrGuestOrderSaveFailed),
		errors.Is(err, uc.ErrOrderSaveFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// -------------------------
// response DTO
// -------------------------

type checkoutStateResp struct {
	Items         any             `json:"items"`
	Total         int64           `json:"total"`
	Form          uc.GuestForm    `json:"form"`
	PaymentMethod string          `json:"paymentMethod"`
	SignedIn      bool            `json:"signedIn"`
	CanCheckout   bool            `json:"canCheckout"`
	Notices       []notify.Notice `json:"notices,omitempty"`
}

func (h *CheckoutHandler) stateDTO(sid string, wf *uc.CheckoutWorkflow) checkoutStateResp {
	resp := checkoutStateResp{
		Items:         wf.Items(),
		Total:         wf.Total(),
		Form:          wf.GuestForm(),
		PaymentMethod: string(wf.PaymentMethod()),
		SignedIn:      wf.SignedIn(),
		CanCheckout:   wf.CanCheckout(),
	}
	if h.notices != nil {
		resp.Notices = h.notices.Drain(sid)
	}
	return resp
}
