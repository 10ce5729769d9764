package app

import (
	"context"
	"errors"

	"candyshop/internal/core"
)

var (
	// ErrInvalidCredentials means the username/password pair was rejected.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrBackendUnavailable means the user directory could not be reached
	// and the hardcoded fallback pair did not match either.
	ErrBackendUnavailable = errors.New("could not reach the login backend")

	// ErrProductNotFound is returned by product operations on unknown ids.
	ErrProductNotFound = errors.New("product not found")

	// ErrSaleNotFound is returned by sale operations on unknown ids.
	ErrSaleNotFound = errors.New("sale not found")
)

// ApplicationService is the single interface the web adapter calls. It owns
// the in-memory Product and Sale collections: adapters receive copies and
// funnel every mutation through this action set — nothing else writes the
// collections.
type ApplicationService interface {
	// ── Inventory ────────────────────────────────────────────────────────

	// ListProducts returns a copy of the product collection.
	ListProducts() []core.Product

	// AddProduct creates a product with a fresh id.
	AddProduct(req ProductRequest) (core.Product, error)

	// UpdateProduct overwrites the product with the given id.
	UpdateProduct(id string, req ProductRequest) (core.Product, error)

	// DeleteProduct removes the product with the given id.
	DeleteProduct(id string) error

	// ApplyStockLevels bulk-updates stock levels, one persistence call per
	// affected product, issued in input order.
	ApplyStockLevels(items []StockLevel) error

	// UploadProductImage stores the image and attaches its URL to the product.
	// Unlike the mutation paths this is awaited, so the caller can show the
	// specific failure.
	UploadProductImage(ctx context.Context, productID, filename, contentType string, data []byte) (string, error)

	// StockAlert returns the low-stock count and whether the aggregate
	// alert threshold is met.
	StockAlert() StockAlertResult

	// ── Register ─────────────────────────────────────────────────────────

	// GetCart returns the current cart contents and form fields.
	GetCart() CartResult

	// AddToCart adds the product to the cart, honoring the stock ceiling.
	AddToCart(productID string) error

	// ChangeCartQuantity adjusts a cart line by delta, clamped to the live
	// stock level.
	ChangeCartQuantity(productID string, delta int) error

	// RemoveFromCart drops a cart line unconditionally.
	RemoveFromCart(productID string) error

	// Checkout finalizes the cart into a Sale, decrements stock for every
	// line, and records the sale. On an empty cart it returns (nil, nil).
	Checkout(req CheckoutRequest) (*core.Sale, error)

	// ── Sales ────────────────────────────────────────────────────────────

	// ListSales returns a copy of the sale history.
	ListSales() []core.Sale

	// ResolveSalePayment transitions a pending sale to a settled method.
	// Exactly once: resolving an already-settled sale is a silent no-op
	// that returns the unchanged sale.
	ResolveSalePayment(saleID, method string) (core.Sale, error)

	// BuildReport aggregates the sale history for the dashboard.
	BuildReport(dateRange, paymentFilter string) (core.Report, error)

	// ── Assistant ────────────────────────────────────────────────────────

	// AskInsights answers a free-text question about the store. Fails
	// closed: the reply is always a usable string.
	AskInsights(ctx context.Context, question string) string

	// ProposeRestock asks the assistant for a structured replenishment
	// plan for the low-stock products.
	ProposeRestock(ctx context.Context) (*core.RestockProposal, error)

	// ApplyRestock applies a confirmed proposal through the bulk stock path.
	ApplyRestock(p *core.RestockProposal) error

	// ── Shell ────────────────────────────────────────────────────────────

	// ActiveView returns the active top-level screen.
	ActiveView() core.StoreView

	// SetActiveView switches the active top-level screen.
	SetActiveView(view string) error

	// AuthenticateUser checks app_users first and falls back to the
	// hardcoded admin pair when the directory is unavailable.
	AuthenticateUser(ctx context.Context, username, password string) (*Session, error)

	// Close drains the persistence queue and stops the worker.
	Close()
}

// ProductRequest carries the editable product fields.
type ProductRequest struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Price    string `json:"price"` // accepts comma or period decimal separator
	Cost     string `json:"cost"`
	Stock    int    `json:"stock"`
	ImageURL string `json:"image_url"`
}

// CheckoutRequest carries the checkout form fields.
type CheckoutRequest struct {
	PaymentMethod string `json:"payment_method"`
	Observation   string `json:"observation"`
	DeliveryCost  string `json:"delivery_cost"`
}

// StockLevel is one entry of a bulk stock update.
type StockLevel struct {
	ProductID string `json:"product_id"`
	Stock     int    `json:"stock"`
}

// CartResult is the cart view returned to adapters.
type CartResult struct {
	Items         []core.CartItem    `json:"items"`
	PaymentMethod core.PaymentMethod `json:"payment_method"`
	Observation   string             `json:"observation"`
	DeliveryCost  string             `json:"delivery_cost"`
}

// StockAlertResult reports the low-stock situation.
type StockAlertResult struct {
	LowStockCount int  `json:"low_stock_count"`
	Alert         bool `json:"alert"`
}

// Session identifies an authenticated user.
type Session struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}
