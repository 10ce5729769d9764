// Package web is the HTTP adapter: a JSON API over the application service,
// with JWT cookie auth in front of everything except health and login.
package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"candyshop/internal/app"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler holds the ApplicationService and the auth configuration.
type Handler struct {
	svc       app.ApplicationService
	jwtSecret string
	log       *zap.Logger
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, allowedOrigins, jwtSecret string, log *zap.Logger) http.Handler {
	h := &Handler{svc: svc, jwtSecret: jwtSecret, log: log}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(log))
	r.Use(Recoverer(log))
	r.Use(CORS(allowedOrigins))

	// ── Public ───────────────────────────────────────────────────────────
	r.Get("/api/health", h.health)
	r.Post("/api/auth/login", h.login)
	r.Post("/api/auth/logout", h.logout)

	// ── Protected API routes (401 JSON if unauthenticated) ───────────────
	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)

		// Image upload: body limit is managed inside the handler (multipart).
		r.Post("/api/products/{id}/image", h.uploadProductImage)

		// All other endpoints: 1 MB body limit to prevent unbounded request abuse.
		r.Group(func(r chi.Router) {
			r.Use(RequestBodyLimit(1 << 20)) // 1 MB

			r.Get("/api/auth/me", h.me)

			// Inventory
			r.Get("/api/products", h.listProducts)
			r.Post("/api/products", h.createProduct)
			r.Put("/api/products/{id}", h.updateProduct)
			r.Delete("/api/products/{id}", h.deleteProduct)
			r.Get("/api/stock/alert", h.stockAlert)
			r.Put("/api/stock/levels", h.applyStockLevels)

			// Register
			r.Get("/api/cart", h.getCart)
			r.Post("/api/cart/items", h.addToCart)
			r.Patch("/api/cart/items/{id}", h.changeCartQuantity)
			r.Delete("/api/cart/items/{id}", h.removeFromCart)
			r.Post("/api/checkout", h.checkout)

			// Sales and reporting
			r.Get("/api/sales", h.listSales)
			r.Post("/api/sales/{id}/payment", h.resolveSalePayment)
			r.Get("/api/report", h.report)

			// Assistant
			r.Post("/api/insights", h.askInsights)
			r.Post("/api/insights/restock", h.proposeRestock)
			r.Post("/api/insights/restock/apply", h.applyRestock)

			// Shell
			r.Get("/api/view", h.getView)
			r.Put("/api/view", h.setView)
		})
	})

	return r
}

// health returns service status. Public so load balancers can probe it.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status string `json:"status"`
	}
	writeJSON(w, response{Status: "ok"})
}

// productID extracts the {id} URL parameter.
func productID(r *http.Request) string {
	return chi.URLParam(r, "id")
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}
