package core_test

import (
	"strings"
	"testing"

	"candyshop/internal/core"

	"github.com/shopspring/decimal"
)

func product(id, name string, price float64, stock int) core.Product {
	return core.Product{ID: id, Name: name, Price: decimal.NewFromFloat(price), Stock: stock}
}

func liveStock(products ...core.Product) func(string) int {
	return func(id string) int {
		for _, p := range products {
			if p.ID == id {
				return p.Stock
			}
		}
		return 0
	}
}

func quantityOf(t *testing.T, c *core.Cart, productID string) int {
	t.Helper()
	for _, it := range c.Items() {
		if it.Product.ID == productID {
			return it.Quantity
		}
	}
	return 0
}

func TestCart_AddItem_StockCeiling(t *testing.T) {
	p := product("p1", "Brigadeiro", 1.50, 2)
	c := core.NewCart()

	c.AddItem(p)
	c.AddItem(p)
	c.AddItem(p) // at ceiling, must be a no-op

	if got := quantityOf(t, c, "p1"); got != 2 {
		t.Errorf("expected quantity clamped to stock 2, got %d", got)
	}
}

func TestCart_AddItem_OutOfStock(t *testing.T) {
	c := core.NewCart()
	c.AddItem(product("p1", "Paçoca", 0.80, 0))

	if !c.IsEmpty() {
		t.Errorf("adding an out-of-stock product must be a no-op")
	}
}

func TestCart_ChangeQuantity(t *testing.T) {
	p := product("p1", "Pirulito", 0.50, 5)

	tests := []struct {
		name    string
		deltas  []int
		stock   int
		wantQty int // 0 means the line must be gone
	}{
		{name: "increment within stock", deltas: []int{3}, stock: 5, wantQty: 4},
		{name: "clamped to live stock", deltas: []int{10}, stock: 5, wantQty: 5},
		{name: "live stock below snapshot", deltas: []int{10}, stock: 2, wantQty: 2},
		{name: "down to zero removes", deltas: []int{-1}, stock: 5, wantQty: 0},
		{name: "below zero removes", deltas: []int{-7}, stock: 5, wantQty: 0},
		{name: "sequence stays in bounds", deltas: []int{4, -2, 9, -1}, stock: 5, wantQty: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := core.NewCart()
			c.AddItem(p) // quantity 1
			for _, d := range tt.deltas {
				c.ChangeQuantity("p1", d, func(string) int { return tt.stock })
			}
			got := quantityOf(t, c, "p1")
			if got != tt.wantQty {
				t.Errorf("quantity = %d, want %d", got, tt.wantQty)
			}
			if got < 0 || got > tt.stock {
				t.Errorf("quantity %d out of [0, %d]", got, tt.stock)
			}
		})
	}
}

func TestCart_RemoveItem(t *testing.T) {
	a := product("p1", "Bala", 0.25, 10)
	b := product("p2", "Chocolate", 8.00, 10)
	c := core.NewCart()
	c.AddItem(a)
	c.AddItem(b)

	c.RemoveItem("p1")

	if quantityOf(t, c, "p1") != 0 {
		t.Errorf("p1 should have been removed")
	}
	if quantityOf(t, c, "p2") != 1 {
		t.Errorf("p2 should be untouched")
	}
}

func TestCart_Checkout_EmptyCartIsNoOp(t *testing.T) {
	c := core.NewCart()
	c.SetPaymentMethod(core.PaymentPix)
	c.SetObservation("entregar depois das 18h")
	c.SetDeliveryCost("7,50")

	if sale := c.Checkout(); sale != nil {
		t.Fatalf("checkout on empty cart must produce no sale, got %+v", sale)
	}
	if c.PaymentMethod() != core.PaymentPix || c.Observation() != "entregar depois das 18h" || c.DeliveryCost() != "7,50" {
		t.Errorf("empty checkout must leave form fields unchanged")
	}
}

func TestCart_Checkout_TotalsAndDeliveryAnnotation(t *testing.T) {
	a := product("p1", "Trufa", 3.50, 10)
	b := product("p2", "Caixa de bombom", 10.00, 10)

	c := core.NewCart()
	c.AddItem(a)
	c.ChangeQuantity("p1", 1, liveStock(a, b)) // qty 2
	c.AddItem(b)
	c.SetPaymentMethod(core.PaymentCard)
	c.SetObservation("cliente da esquina")
	c.SetDeliveryCost("5,00") // comma decimal separator

	sale := c.Checkout()
	if sale == nil {
		t.Fatal("expected a sale")
	}
	if want := decimal.NewFromFloat(22.00); !sale.Total.Equal(want) {
		t.Errorf("total = %s, want %s (17.00 products + 5.00 delivery)", sale.Total, want)
	}
	if sale.PaymentMethod != core.PaymentCard {
		t.Errorf("payment method = %s, want card", sale.PaymentMethod)
	}
	if !strings.Contains(sale.Observation, "Entrega: R$ 5,00") {
		t.Errorf("observation %q missing delivery annotation", sale.Observation)
	}
	if sale.ID == "" || sale.Timestamp.IsZero() {
		t.Errorf("sale must carry a fresh id and timestamp")
	}
	if len(sale.Items) != 2 {
		t.Errorf("sale items = %d, want 2", len(sale.Items))
	}

	// Cart and form fields reset after checkout.
	if !c.IsEmpty() {
		t.Errorf("cart must be empty after checkout")
	}
	if c.PaymentMethod() != core.PaymentCash || c.Observation() != "" || c.DeliveryCost() != "" {
		t.Errorf("form fields must reset to defaults after checkout")
	}
}

func TestCart_Checkout_IgnoresBadDeliveryCost(t *testing.T) {
	tests := []struct {
		name     string
		delivery string
		want     float64
	}{
		{name: "empty", delivery: "", want: 3.50},
		{name: "unparseable", delivery: "uns cinco reais", want: 3.50},
		{name: "negative clamped", delivery: "-2,00", want: 3.50},
		{name: "period separator", delivery: "1.25", want: 4.75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := core.NewCart()
			c.AddItem(product("p1", "Trufa", 3.50, 5))
			c.SetDeliveryCost(tt.delivery)
			sale := c.Checkout()
			if sale == nil {
				t.Fatal("expected a sale")
			}
			if want := decimal.NewFromFloat(tt.want); !sale.Total.Equal(want) {
				t.Errorf("total = %s, want %s", sale.Total, want)
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	got, err := core.ParseAmount("12,34")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(decimal.NewFromFloat(12.34)) {
		t.Errorf("ParseAmount(\"12,34\") = %s, want 12.34", got)
	}
	if _, err := core.ParseAmount("abc"); err == nil {
		t.Errorf("expected error for non-numeric input")
	}
}

func TestFormatBRL(t *testing.T) {
	if got := core.FormatBRL(decimal.NewFromFloat(5)); got != "R$ 5,00" {
		t.Errorf("FormatBRL(5) = %q, want \"R$ 5,00\"", got)
	}
}
