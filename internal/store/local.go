package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"candyshop/internal/core"

	"go.uber.org/zap"
)

const (
	productsFile = "products.json"
	salesFile    = "sales.json"
)

// Local is the fallback backend: two keyed JSON blobs under a data
// directory, rewritten in full after every mutation. A durability
// backstop, not a database.
type Local struct {
	dir string
	log *zap.Logger
	mu  sync.Mutex
}

// NewLocal creates the data directory if needed and returns the store.
func NewLocal(dir string, log *zap.Logger) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir %s: %w", dir, err)
	}
	return &Local{dir: dir, log: log}, nil
}

func (l *Local) Remote() bool { return false }

// FetchProducts reads the product blob. When no prior local state exists it
// degrades to the fixed sample seed instead of an error.
func (l *Local) FetchProducts(ctx context.Context) ([]core.Product, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var products []core.Product
	if err := l.read(productsFile, &products); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			l.log.Warn("local product state unreadable, serving sample seed", zap.Error(err))
		}
		return SampleProducts(), nil
	}
	return products, nil
}

// FetchSales reads the sale blob; no prior state means an empty history.
func (l *Local) FetchSales(ctx context.Context) ([]core.Sale, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var sales []core.Sale
	if err := l.read(salesFile, &sales); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			l.log.Warn("local sale state unreadable, serving empty history", zap.Error(err))
		}
		return []core.Sale{}, nil
	}
	return sales, nil
}

func (l *Local) CreateProduct(ctx context.Context, p core.Product) error {
	return l.mutateProducts(ctx, func(products []core.Product) []core.Product {
		return append(products, p)
	})
}

func (l *Local) UpdateProduct(ctx context.Context, p core.Product) error {
	return l.mutateProducts(ctx, func(products []core.Product) []core.Product {
		for i := range products {
			if products[i].ID == p.ID {
				products[i] = p
			}
		}
		return products
	})
}

func (l *Local) DeleteProduct(ctx context.Context, id string) error {
	return l.mutateProducts(ctx, func(products []core.Product) []core.Product {
		out := products[:0]
		for _, p := range products {
			if p.ID != id {
				out = append(out, p)
			}
		}
		return out
	})
}

func (l *Local) UpdateStock(ctx context.Context, productID string, stock int) error {
	return l.mutateProducts(ctx, func(products []core.Product) []core.Product {
		for i := range products {
			if products[i].ID == productID {
				products[i].Stock = stock
			}
		}
		return products
	})
}

func (l *Local) CreateSale(ctx context.Context, s core.Sale) error {
	sales, err := l.FetchSales(ctx)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.write(salesFile, append(sales, s))
}

func (l *Local) UpdateSalePayment(ctx context.Context, saleID string, m core.PaymentMethod) error {
	sales, err := l.FetchSales(ctx)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range sales {
		if sales[i].ID == saleID && sales[i].PaymentMethod == core.PaymentPending {
			sales[i].PaymentMethod = m
		}
	}
	return l.write(salesFile, sales)
}

// MirrorAll rewrites both blobs. This is the write path the sync controller
// actually uses in local mode, after every state change.
func (l *Local) MirrorAll(ctx context.Context, products []core.Product, sales []core.Sale) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.write(productsFile, products); err != nil {
		return err
	}
	return l.write(salesFile, sales)
}

// UploadImage is unconditionally rejected: the local store cannot host
// binary assets.
func (l *Local) UploadImage(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	return "", ErrUploadUnavailable
}

// FindAppUser has no user directory to consult; login falls back to the
// hardcoded admin pair.
func (l *Local) FindAppUser(ctx context.Context, username string) (*AppUser, error) {
	return nil, ErrUserNotFound
}

func (l *Local) mutateProducts(ctx context.Context, fn func([]core.Product) []core.Product) error {
	products, err := l.FetchProducts(ctx)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.write(productsFile, fn(products))
}

func (l *Local) read(name string, v any) error {
	data, err := os.ReadFile(filepath.Join(l.dir, name))
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func (l *Local) write(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	if err := os.WriteFile(filepath.Join(l.dir, name), data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}
