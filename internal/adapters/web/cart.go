package web

import (
	"errors"
	"net/http"

	"candyshop/internal/app"
)

// getCart handles GET /api/cart.
func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.svc.GetCart())
}

// addToCart handles POST /api/cart/items.
func (h *Handler) addToCart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID string `json:"product_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.AddToCart(req.ProductID); err != nil {
		if errors.Is(err, app.ErrProductNotFound) {
			writeError(w, r, "product not found", "NOT_FOUND", http.StatusNotFound)
			return
		}
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, h.svc.GetCart())
}

// changeCartQuantity handles PATCH /api/cart/items/{id}.
func (h *Handler) changeCartQuantity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Delta int `json:"delta"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.ChangeCartQuantity(productID(r), req.Delta); err != nil {
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, h.svc.GetCart())
}

// removeFromCart handles DELETE /api/cart/items/{id}.
func (h *Handler) removeFromCart(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.RemoveFromCart(productID(r)); err != nil {
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, h.svc.GetCart())
}

// checkout handles POST /api/checkout. Finalizing an empty cart is not an
// error at the service level; the API maps it to 409 so clients can tell the
// difference.
func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	var req app.CheckoutRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sale, err := h.svc.Checkout(req)
	if err != nil {
		writeError(w, r, err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	if sale == nil {
		writeError(w, r, "cart is empty", "EMPTY_CART", http.StatusConflict)
		return
	}
	writeJSONStatus(w, http.StatusCreated, sale)
}
