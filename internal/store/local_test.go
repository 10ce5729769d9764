package store_test

import (
	"context"
	"testing"
	"time"

	"candyshop/internal/core"
	"candyshop/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newLocal(t *testing.T) *store.Local {
	t.Helper()
	l, err := store.NewLocal(t.TempDir(), zaptest.NewLogger(t))
	require.NoError(t, err)
	return l
}

func TestLocal_SeedsWhenEmpty(t *testing.T) {
	l := newLocal(t)
	ctx := context.Background()

	products, err := l.FetchProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, store.SampleProducts(), products, "missing product state must degrade to the sample seed")

	sales, err := l.FetchSales(ctx)
	require.NoError(t, err)
	assert.Empty(t, sales, "missing sale state must degrade to an empty history")
}

func TestLocal_MirrorRoundTrip(t *testing.T) {
	l := newLocal(t)
	ctx := context.Background()

	products := []core.Product{
		{ID: "p1", Name: "Brigadeiro", Category: "Docinhos", Price: decimal.NewFromFloat(3.5), Cost: decimal.NewFromFloat(1.2), Stock: 7, ImageURL: "https://img.example/p1.png"},
		{ID: "p2", Name: "Trufa", Category: "Trufas", Price: decimal.NewFromFloat(4), Cost: decimal.NewFromFloat(1.6), Stock: 0},
	}
	sales := []core.Sale{{
		ID:            "s1",
		Items:         []core.CartItem{{Product: products[0], Quantity: 2}},
		Total:         decimal.NewFromFloat(7),
		Timestamp:     time.Date(2026, 8, 28, 14, 30, 0, 0, time.UTC),
		PaymentMethod: core.PaymentPending,
		Observation:   "fiado da dona Marta",
	}}

	require.NoError(t, l.MirrorAll(ctx, products, sales))

	gotProducts, err := l.FetchProducts(ctx)
	require.NoError(t, err)
	require.Len(t, gotProducts, 2)
	for i, want := range products {
		assert.Equal(t, want.ID, gotProducts[i].ID)
		assert.Equal(t, want.Name, gotProducts[i].Name)
		assert.Equal(t, want.Category, gotProducts[i].Category)
		assert.Equal(t, want.Stock, gotProducts[i].Stock)
		assert.Equal(t, want.ImageURL, gotProducts[i].ImageURL)
		assert.True(t, want.Price.Equal(gotProducts[i].Price), "price survives the round trip")
		assert.True(t, want.Cost.Equal(gotProducts[i].Cost), "cost survives the round trip")
	}

	gotSales, err := l.FetchSales(ctx)
	require.NoError(t, err)
	require.Len(t, gotSales, 1)
	got := gotSales[0]
	assert.Equal(t, sales[0].ID, got.ID)
	assert.Equal(t, sales[0].PaymentMethod, got.PaymentMethod)
	assert.Equal(t, sales[0].Observation, got.Observation)
	assert.True(t, sales[0].Total.Equal(got.Total))
	assert.True(t, sales[0].Timestamp.Equal(got.Timestamp))
	require.Len(t, got.Items, 1)
	assert.Equal(t, "p1", got.Items[0].Product.ID)
	assert.Equal(t, 2, got.Items[0].Quantity)
}

func TestLocal_EntityOps(t *testing.T) {
	l := newLocal(t)
	ctx := context.Background()

	p := core.Product{ID: "p9", Name: "Cocada", Price: decimal.NewFromFloat(2), Stock: 5}
	require.NoError(t, l.CreateProduct(ctx, p))

	p.Name = "Cocada Cremosa"
	require.NoError(t, l.UpdateProduct(ctx, p))
	require.NoError(t, l.UpdateStock(ctx, "p9", 3))

	products, err := l.FetchProducts(ctx)
	require.NoError(t, err)
	var found *core.Product
	for i := range products {
		if products[i].ID == "p9" {
			found = &products[i]
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, "Cocada Cremosa", found.Name)
	assert.Equal(t, 3, found.Stock)

	require.NoError(t, l.DeleteProduct(ctx, "p9"))
	products, err = l.FetchProducts(ctx)
	require.NoError(t, err)
	for _, got := range products {
		assert.NotEqual(t, "p9", got.ID)
	}
}

func TestLocal_UpdateSalePayment_OnlyPending(t *testing.T) {
	l := newLocal(t)
	ctx := context.Background()

	sales := []core.Sale{
		{ID: "s1", Total: decimal.NewFromFloat(10), Timestamp: time.Now(), PaymentMethod: core.PaymentPending},
		{ID: "s2", Total: decimal.NewFromFloat(20), Timestamp: time.Now(), PaymentMethod: core.PaymentCash},
	}
	require.NoError(t, l.MirrorAll(ctx, []core.Product{}, sales))

	require.NoError(t, l.UpdateSalePayment(ctx, "s1", core.PaymentPix))
	require.NoError(t, l.UpdateSalePayment(ctx, "s2", core.PaymentPix)) // already settled: no-op

	got, err := l.FetchSales(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.PaymentPix, got[0].PaymentMethod)
	assert.Equal(t, core.PaymentCash, got[1].PaymentMethod)
}

func TestLocal_UploadRejected(t *testing.T) {
	l := newLocal(t)

	_, err := l.UploadImage(context.Background(), "foto.png", "image/png", []byte{1, 2, 3})
	assert.ErrorIs(t, err, store.ErrUploadUnavailable)
}

func TestLocal_NoUserDirectory(t *testing.T) {
	l := newLocal(t)

	_, err := l.FindAppUser(context.Background(), "admin")
	assert.ErrorIs(t, err, store.ErrUserNotFound)
}
