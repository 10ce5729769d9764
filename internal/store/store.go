// Package store implements the persistence adapter: a uniform read/write
// surface over two interchangeable backends. The backend is selected once at
// boot (see cmd/server) — a Postgres store when the remote backend is
// configured and reachable, a local JSON-file store otherwise — and is never
// re-checked per call.
package store

import (
	"context"
	"errors"

	"candyshop/internal/core"

	"github.com/shopspring/decimal"
)

var (
	// ErrUploadUnavailable is returned when the active backend cannot host
	// binary assets (the local store always, Postgres without a bucket).
	ErrUploadUnavailable = errors.New("image upload is not available on this backend")

	// ErrPermissionDenied is returned when the object store rejects an
	// upload for lack of permissions.
	ErrPermissionDenied = errors.New("image storage denied the upload: permission error")

	// ErrUserNotFound is returned by FindAppUser when no matching row exists.
	ErrUserNotFound = errors.New("app user not found")
)

// AppUser is a row of the app_users login table. Password holds either a
// bcrypt hash or, for legacy rows, the plaintext password itself.
type AppUser struct {
	Username string
	Password string
}

// Store is the uniform persistence surface used by the sync controller.
// Write operations are issued fire-and-forget by the controller; failures
// are logged and dropped, never rolled back.
type Store interface {
	// Remote reports whether this store targets the remote backend.
	// Decided once at boot; the controller uses it to pick between
	// per-entity writes (remote) and full mirroring (local).
	Remote() bool

	FetchProducts(ctx context.Context) ([]core.Product, error)
	CreateProduct(ctx context.Context, p core.Product) error
	UpdateProduct(ctx context.Context, p core.Product) error
	DeleteProduct(ctx context.Context, id string) error

	FetchSales(ctx context.Context) ([]core.Sale, error)
	CreateSale(ctx context.Context, s core.Sale) error
	// UpdateSalePayment records the one-time pending → settled transition.
	UpdateSalePayment(ctx context.Context, saleID string, m core.PaymentMethod) error

	// UpdateStock persists one product's stock level. Bulk stock changes
	// fan out to one call per product, in action order.
	UpdateStock(ctx context.Context, productID string, stock int) error

	// MirrorAll rewrites the full Product and Sale collections. The local
	// backend uses it as the durability backstop after every mutation; on
	// the remote backend it is a no-op.
	MirrorAll(ctx context.Context, products []core.Product, sales []core.Sale) error

	// UploadImage stores a product image and returns its public URL.
	UploadImage(ctx context.Context, filename, contentType string, data []byte) (string, error)

	FindAppUser(ctx context.Context, username string) (*AppUser, error)
}

// SampleProducts is the fixed seed the local store serves when no prior
// local state exists.
func SampleProducts() []core.Product {
	return []core.Product{
		{ID: "seed-brigadeiro", Name: "Brigadeiro Gourmet", Category: "Docinhos", Price: dec("3.50"), Cost: dec("1.20"), Stock: 40},
		{ID: "seed-trufa", Name: "Trufa de Maracujá", Category: "Trufas", Price: dec("4.00"), Cost: dec("1.60"), Stock: 25},
		{ID: "seed-pacoca", Name: "Paçoca Rolha", Category: "Docinhos", Price: dec("1.00"), Cost: dec("0.40"), Stock: 60},
		{ID: "seed-caixa-bombom", Name: "Caixa de Bombom (12un)", Category: "Caixas", Price: dec("28.00"), Cost: dec("14.00"), Stock: 8},
		{ID: "seed-pirulito", Name: "Pirulito Artesanal", Category: "Balas", Price: dec("2.50"), Cost: dec("0.90"), Stock: 30},
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
