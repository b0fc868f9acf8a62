// internal/adapters/in/http/handlers/cart_handler.go
package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	sess "tcon/internal/application/session"
	uc "tcon/internal/application/usecase"
	cartdom "tcon/internal/domain/cart"
)

// CartHandler serves storefront cart endpoints.
//
// Routes (mounted at /cart):
//   - GET    /cart              current items + total
//   - POST   /cart/items        add item
//   - PUT    /cart/items        set quantity
//   - DELETE /cart/items        remove item (productId in query or body)
//   - DELETE /cart              clear cart
type CartHandler struct {
	registry *sess.Registry
}

func NewCartHandler(registry *sess.Registry) http.Handler {
	return &CartHandler{registry: registry}
}

func (h *CartHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	path := strings.TrimRight(r.URL.Path, "/")
	if path == "" {
		path = "/"
	}

	sid := sess.FromContext(r.Context())
	log.Printf("[cart_handler] enter method=%s path=%q session=%s", r.Method, path, sid)

	if h.registry == nil {
		writeErr(w, http.StatusInternalServerError, "cart handler is not configured")
		return
	}

	wf, err := h.registry.Workflow(r.Context(), sid)
	if err != nil {
		log.Printf("[cart_handler] workflow init failed session=%s: %v", sid, err)
		writeErr(w, http.StatusInternalServerError, "cart unavailable")
		return
	}

	isItems := strings.HasSuffix(path, "/items")

	switch {
	case r.Method == http.MethodGet && !isItems:
		h.getCart(w, wf)
	case r.Method == http.MethodPost && isItems:
		h.addItem(w, r, wf)
	case r.Method == http.MethodPut && isItems:
		h.updateQty(w, r, wf)
	case r.Method == http.MethodDelete && isItems:
		h.removeItem(w, r, wf)
	case r.Method == http.MethodDelete && !isItems:
		h.clear(w, r, wf)
	default:
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
	}

	log.Printf("[cart_handler] exit method=%s path=%q session=%s elapsed=%s", r.Method, path, sid, time.Since(start))
}

func (h *CartHandler) getCart(w http.ResponseWriter, wf *uc.CheckoutWorkflow) {
	writeJSON(w, http.StatusOK, cartStateDTO(wf))
}

func (h *CartHandler) addItem(w http.ResponseWriter, r *http.Request, wf *uc.CheckoutWorkflow) {
	var req cartItemReq
	if !decodeBody(w, r, &req) {
		return
	}

	if err := wf.AddItem(r.Context(), req.ProductID, req.Name, req.UnitPrice, req.Qty); err != nil {
		writeCartErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cartStateDTO(wf))
}

func (h *CartHandler) updateQty(w http.ResponseWriter, r *http.Request, wf *uc.CheckoutWorkflow) {
	var req cartItemReq
	if !decodeBody(w, r, &req) {
		return
	}

	if err := wf.UpdateQuantity(r.Context(), req.ProductID, req.Qty); err != nil {
		writeCartErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cartStateDTO(wf))
}

func (h *CartHandler) removeItem(w http.ResponseWriter, r *http.Request, wf *uc.CheckoutWorkflow) {
	pid := strings.TrimSpace(r.URL.Query().Get("productId"))
	if pid == "" {
		var req cartItemReq
		if !decodeBody(w, r, &req) {
			return
		}
		pid = strings.TrimSpace(req.ProductID)
	}

	if err := wf.RemoveItem(r.Context(), pid); err != nil {
		writeCartErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cartStateDTO(wf))
}

func (h *CartHandler) clear(w http.ResponseWriter, r *http.Request, wf *uc.CheckoutWorkflow) {
	if err := wf.ClearCart(r.Context()); err != nil {
		writeCartErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cartStateDTO(wf))
}

func writeCartErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, uc.ErrCheckoutInFlight):
		writeErr(w, http.StatusConflict, "checkout in progress; cart is locked")
	case errors.Is(err, cartdom.ErrInvalidItem), errors.Is(err, cartdom.ErrInvalidCart):
		writeErr(w, http.StatusBadRequest, err.Error())
	default:
		writeErr(w, http.StatusInternalServerError, "cart operation failed")
	}
}

// -------------------------
// request / response DTO
// -------------------------

type cartItemReq struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unitPrice"`
	Qty       int    `json:"qty"`
}

type cartStateResp struct {
	Items []cartdom.LineItem `json:"items"`
	Total int64              `json:"total"`
}

func cartStateDTO(wf *uc.CheckoutWorkflow) cartStateResp {
	return cartStateResp{
		Items: wf.Items(),
		Total: wf.Total(),
	}
}
