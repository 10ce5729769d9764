package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod tags a sale with how (or whether) it was paid.
type PaymentMethod string

const (
	PaymentCash    PaymentMethod = "cash"
	PaymentCard    PaymentMethod = "card"
	PaymentPix     PaymentMethod = "pix"
	PaymentPending PaymentMethod = "pending" // fiado: recorded before payment is received
	PaymentIfood   PaymentMethod = "ifood"
)

// ParsePaymentMethod validates s against the closed payment-method set.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	m := PaymentMethod(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case PaymentCash, PaymentCard, PaymentPix, PaymentPending, PaymentIfood:
		return m, nil
	}
	return "", fmt.Errorf("unknown payment method %q", s)
}

// IsSettled reports whether the method represents money already received.
func (m PaymentMethod) IsSettled() bool {
	return m != PaymentPending && m != ""
}

// Product is a sellable item in the shop catalog.
// Stock never goes below zero at rest; the cart enforces the ceiling on sale.
type Product struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Price    decimal.Decimal `json:"price"`
	Cost     decimal.Decimal `json:"cost"`
	Stock    int             `json:"stock"`
	ImageURL string          `json:"image_url,omitempty"`
}

// CartItem is a product snapshot plus a quantity. It only exists inside an
// in-progress cart or a finalized sale's item list, never standalone.
type CartItem struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// Subtotal is price × quantity for this line.
func (i CartItem) Subtotal() decimal.Decimal {
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Sale is an immutable record of a completed or pending transaction.
// Total is computed once at checkout and never recomputed from the items.
// The only field that ever changes afterwards is PaymentMethod, which may
// transition exactly once from pending to a settled method.
type Sale struct {
	ID            string          `json:"id"`
	Items         []CartItem      `json:"items"`
	Total         decimal.Decimal `json:"total"`
	Timestamp     time.Time       `json:"timestamp"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	Observation   string          `json:"observation,omitempty"`
}

// StoreView is the active top-level screen. Pure routing state, never persisted.
type StoreView string

const (
	ViewDashboard   StoreView = "dashboard"
	ViewPOS         StoreView = "pos"
	ViewInventory   StoreView = "inventory"
	ViewAIAssistant StoreView = "ai_assistant"
)

// ParseStoreView validates s against the closed view set.
func ParseStoreView(s string) (StoreView, error) {
	v := StoreView(strings.ToLower(strings.TrimSpace(s)))
	switch v {
	case ViewDashboard, ViewPOS, ViewInventory, ViewAIAssistant:
		return v, nil
	}
	return "", fmt.Errorf("unknown view %q", s)
}
