package web

import (
	"errors"
	"net/http"

	"candyshop/internal/app"

	"github.com/go-chi/chi/v5"
)

// listSales handles GET /api/sales.
func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.svc.ListSales())
}

// resolveSalePayment handles POST /api/sales/{id}/payment.
func (h *Handler) resolveSalePayment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Method string `json:"method"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	sale, err := h.svc.ResolveSalePayment(chi.URLParam(r, "id"), req.Method)
	if err != nil {
		if errors.Is(err, app.ErrSaleNotFound) {
			writeError(w, r, "sale not found", "NOT_FOUND", http.StatusNotFound)
			return
		}
		writeError(w, r, err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	writeJSON(w, sale)
}

// report handles GET /api/report?range=&method=. Both parameters default to
// the widest setting when absent.
func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
	dateRange := r.URL.Query().Get("range")
	if dateRange == "" {
		dateRange = "all"
	}
	method := r.URL.Query().Get("method")
	if method == "" {
		method = "all"
	}

	rep, err := h.svc.BuildReport(dateRange, method)
	if err != nil {
		writeError(w, r, err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	writeJSON(w, rep)
}
