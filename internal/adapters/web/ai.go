package web

import (
	"net/http"
	"strings"

	"candyshop/internal/core"
)

// askInsights handles POST /api/insights — free-text questions about the
// store. The service fails closed, so this endpoint always answers 200.
func (h *Handler) askInsights(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question string `json:"question"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, r, "question is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	type response struct {
		Answer string `json:"answer"`
	}
	writeJSON(w, response{Answer: h.svc.AskInsights(r.Context(), req.Question)})
}

// proposeRestock handles POST /api/insights/restock — asks the assistant for
// a replenishment plan for the low-stock products. Nothing is applied here.
func (h *Handler) proposeRestock(w http.ResponseWriter, r *http.Request) {
	proposal, err := h.svc.ProposeRestock(r.Context())
	if err != nil {
		writeError(w, r, err.Error(), "RESTOCK_UNAVAILABLE", http.StatusConflict)
		return
	}
	writeJSON(w, proposal)
}

// applyRestock handles POST /api/insights/restock/apply — applies a proposal
// the user has confirmed.
func (h *Handler) applyRestock(w http.ResponseWriter, r *http.Request) {
	var proposal core.RestockProposal
	if !decodeJSON(w, r, &proposal) {
		return
	}
	if err := h.svc.ApplyRestock(&proposal); err != nil {
		writeError(w, r, err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	writeJSON(w, h.svc.StockAlert())
}

// getView handles GET /api/view.
func (h *Handler) getView(w http.ResponseWriter, r *http.Request) {
	type response struct {
		View core.StoreView `json:"view"`
	}
	writeJSON(w, response{View: h.svc.ActiveView()})
}

// setView handles PUT /api/view.
func (h *Handler) setView(w http.ResponseWriter, r *http.Request) {
	var req struct {
		View string `json:"view"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.SetActiveView(req.View); err != nil {
		writeError(w, r, err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	type response struct {
		View core.StoreView `json:"view"`
	}
	writeJSON(w, response{View: h.svc.ActiveView()})
}
