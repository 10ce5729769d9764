package core

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cart accumulates product snapshots for one in-progress sale, together with
// the transient checkout form fields. A zero quantity never survives: lines
// are removed the moment they hit it.
type Cart struct {
	items []CartItem

	// Transient form state, reset to defaults after a successful checkout.
	paymentMethod PaymentMethod
	observation   string
	deliveryCost  string
}

// NewCart returns an empty cart with the payment method defaulted to cash.
func NewCart() *Cart {
	return &Cart{paymentMethod: PaymentCash}
}

// Items returns a copy of the current cart lines.
func (c *Cart) Items() []CartItem {
	out := make([]CartItem, len(c.items))
	copy(out, c.items)
	return out
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool { return len(c.items) == 0 }

// PaymentMethod returns the currently selected payment method.
func (c *Cart) PaymentMethod() PaymentMethod { return c.paymentMethod }

// Observation returns the current observation text.
func (c *Cart) Observation() string { return c.observation }

// DeliveryCost returns the raw delivery-cost text as typed.
func (c *Cart) DeliveryCost() string { return c.deliveryCost }

// SetPaymentMethod selects the payment method for the next checkout.
// Invalid methods are ignored and the current selection kept.
func (c *Cart) SetPaymentMethod(m PaymentMethod) {
	if _, err := ParsePaymentMethod(string(m)); err != nil {
		return
	}
	c.paymentMethod = m
}

// SetObservation sets the free-text observation for the next checkout.
func (c *Cart) SetObservation(s string) { c.observation = s }

// SetDeliveryCost sets the raw delivery-cost text. Parsing happens at checkout.
func (c *Cart) SetDeliveryCost(s string) { c.deliveryCost = s }

// AddItem inserts p at quantity 1 or increments an existing line by 1.
// It is a no-op when p is out of stock or the line already sits at the
// product's stock ceiling.
func (c *Cart) AddItem(p Product) {
	if p.Stock <= 0 {
		return
	}
	for i := range c.items {
		if c.items[i].Product.ID != p.ID {
			continue
		}
		if c.items[i].Quantity >= p.Stock {
			return
		}
		c.items[i].Quantity++
		return
	}
	c.items = append(c.items, CartItem{Product: p, Quantity: 1})
}

// ChangeQuantity adjusts the line for productID by delta, clamped to
// [0, live stock]. The ceiling comes from stockFor, which must consult the
// live product collection, not the cart snapshot. A result of 0 removes the
// line. Unknown product IDs are ignored.
func (c *Cart) ChangeQuantity(productID string, delta int, stockFor func(productID string) int) {
	for i := range c.items {
		if c.items[i].Product.ID != productID {
			continue
		}
		q := c.items[i].Quantity + delta
		if ceiling := stockFor(productID); q > ceiling {
			q = ceiling
		}
		if q <= 0 {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
		c.items[i].Quantity = q
		return
	}
}

// RemoveItem drops the line for productID unconditionally.
func (c *Cart) RemoveItem(productID string) {
	for i := range c.items {
		if c.items[i].Product.ID == productID {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
	}
}

// Checkout finalizes the cart into a new Sale and resets the cart.
// On an empty cart it is a no-op: nil is returned and all cart state,
// including the form fields, is left untouched.
//
// Total = Σ(price × quantity) + delivery surcharge. The surcharge text
// accepts a comma as decimal separator; unparseable or negative values
// count as zero. A positive surcharge is annotated on the observation.
func (c *Cart) Checkout() *Sale {
	if len(c.items) == 0 {
		return nil
	}

	total := decimal.Zero
	for _, it := range c.items {
		total = total.Add(it.Subtotal())
	}

	delivery := decimal.Zero
	if v, err := ParseAmount(c.deliveryCost); err == nil && v.IsPositive() {
		delivery = v
	}

	obs := strings.TrimSpace(c.observation)
	if delivery.IsPositive() {
		note := "[Entrega: " + FormatBRL(delivery) + "]"
		if obs == "" {
			obs = note
		} else {
			obs = obs + " " + note
		}
	}

	sale := &Sale{
		ID:            uuid.NewString(),
		Items:         append([]CartItem(nil), c.items...),
		Total:         total.Add(delivery),
		Timestamp:     time.Now(),
		PaymentMethod: c.paymentMethod,
		Observation:   obs,
	}

	c.Clear()
	return sale
}

// Clear empties the cart and resets the form fields to their defaults.
func (c *Cart) Clear() {
	c.items = nil
	c.paymentMethod = PaymentCash
	c.observation = ""
	c.deliveryCost = ""
}

// ParseAmount parses a currency amount typed by the user, accepting a comma
// as decimal separator in addition to a period ("5,00" == "5.00").
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(strings.Replace(s, ",", ".", 1))
}

// FormatBRL renders d as a user-facing BRL amount, e.g. "R$ 5,00".
func FormatBRL(d decimal.Decimal) string {
	return "R$ " + strings.Replace(d.StringFixed(2), ".", ",", 1)
}
