package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"candyshop/internal/core"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Postgres is the remote backend: products and sales tables (the sale item
// list stored as JSONB) plus the app_users login table, with product images
// delegated to an object-store uploader when one is configured.
//
// Fetches degrade to an empty collection on query error; write failures
// surface to the caller (the sync controller logs and drops them).
type Postgres struct {
	pool     *pgxpool.Pool
	uploader *ImageUploader // nil when no bucket is configured
	log      *zap.Logger
}

// NewPostgres wraps an already-constructed pool. Backend selection happened
// at boot; by the time this runs the remote store is the chosen one.
func NewPostgres(pool *pgxpool.Pool, uploader *ImageUploader, log *zap.Logger) *Postgres {
	return &Postgres{pool: pool, uploader: uploader, log: log}
}

func (p *Postgres) Remote() bool { return true }

func (p *Postgres) FetchProducts(ctx context.Context) ([]core.Product, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, name, category, price, cost, stock, COALESCE(image_url, '')
		FROM products
		ORDER BY name
	`)
	if err != nil {
		p.log.Error("product fetch failed, degrading to empty collection", zap.Error(err))
		return []core.Product{}, nil
	}
	defer rows.Close()

	var products []core.Product
	for rows.Next() {
		var prod core.Product
		if err := rows.Scan(&prod.ID, &prod.Name, &prod.Category, &prod.Price, &prod.Cost, &prod.Stock, &prod.ImageURL); err != nil {
			p.log.Error("product scan failed, degrading to empty collection", zap.Error(err))
			return []core.Product{}, nil
		}
		products = append(products, prod)
	}
	if products == nil {
		products = []core.Product{}
	}
	return products, nil
}

func (p *Postgres) FetchSales(ctx context.Context) ([]core.Sale, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, items, total, ts, payment_method, COALESCE(observation, '')
		FROM sales
		ORDER BY ts
	`)
	if err != nil {
		p.log.Error("sale fetch failed, degrading to empty collection", zap.Error(err))
		return []core.Sale{}, nil
	}
	defer rows.Close()

	var sales []core.Sale
	for rows.Next() {
		var s core.Sale
		var items []byte
		var method string
		if err := rows.Scan(&s.ID, &items, &s.Total, &s.Timestamp, &method, &s.Observation); err != nil {
			p.log.Error("sale scan failed, degrading to empty collection", zap.Error(err))
			return []core.Sale{}, nil
		}
		if err := json.Unmarshal(items, &s.Items); err != nil {
			p.log.Error("sale items blob unreadable, degrading to empty collection",
				zap.String("sale_id", s.ID), zap.Error(err))
			return []core.Sale{}, nil
		}
		s.PaymentMethod = core.PaymentMethod(method)
		sales = append(sales, s)
	}
	if sales == nil {
		sales = []core.Sale{}
	}
	return sales, nil
}

func (p *Postgres) CreateProduct(ctx context.Context, prod core.Product) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO products (id, name, category, price, cost, stock, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''))
	`, prod.ID, prod.Name, prod.Category, prod.Price, prod.Cost, prod.Stock, prod.ImageURL)
	if err != nil {
		return fmt.Errorf("failed to insert product %s: %w", prod.ID, err)
	}
	return nil
}

func (p *Postgres) UpdateProduct(ctx context.Context, prod core.Product) error {
	_, err := p.pool.Exec(ctx, `
		UPDATE products
		SET name = $2, category = $3, price = $4, cost = $5, stock = $6, image_url = NULLIF($7, '')
		WHERE id = $1
	`, prod.ID, prod.Name, prod.Category, prod.Price, prod.Cost, prod.Stock, prod.ImageURL)
	if err != nil {
		return fmt.Errorf("failed to update product %s: %w", prod.ID, err)
	}
	return nil
}

func (p *Postgres) DeleteProduct(ctx context.Context, id string) error {
	_, err := p.pool.Exec(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete product %s: %w", id, err)
	}
	return nil
}

func (p *Postgres) UpdateStock(ctx context.Context, productID string, stock int) error {
	_, err := p.pool.Exec(ctx, "UPDATE products SET stock = $2 WHERE id = $1", productID, stock)
	if err != nil {
		return fmt.Errorf("failed to update stock for product %s: %w", productID, err)
	}
	return nil
}

func (p *Postgres) CreateSale(ctx context.Context, s core.Sale) error {
	items, err := json.Marshal(s.Items)
	if err != nil {
		return fmt.Errorf("failed to encode sale items: %w", err)
	}
	_, err = p.pool.Exec(ctx, `
		INSERT INTO sales (id, items, total, ts, payment_method, observation)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))
	`, s.ID, items, s.Total, s.Timestamp, string(s.PaymentMethod), s.Observation)
	if err != nil {
		return fmt.Errorf("failed to insert sale %s: %w", s.ID, err)
	}
	return nil
}

// UpdateSalePayment only touches rows still pending, so a replayed
// resolution can never overwrite an already-settled method.
func (p *Postgres) UpdateSalePayment(ctx context.Context, saleID string, m core.PaymentMethod) error {
	_, err := p.pool.Exec(ctx,
		"UPDATE sales SET payment_method = $2 WHERE id = $1 AND payment_method = 'pending'",
		saleID, string(m))
	if err != nil {
		return fmt.Errorf("failed to resolve payment for sale %s: %w", saleID, err)
	}
	return nil
}

// MirrorAll is a no-op on the remote backend: durability comes from the
// per-entity writes.
func (p *Postgres) MirrorAll(ctx context.Context, products []core.Product, sales []core.Sale) error {
	return nil
}

func (p *Postgres) UploadImage(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	if p.uploader == nil {
		return "", ErrUploadUnavailable
	}
	return p.uploader.Upload(ctx, filename, contentType, data)
}

func (p *Postgres) FindAppUser(ctx context.Context, username string) (*AppUser, error) {
	u := &AppUser{}
	err := p.pool.QueryRow(ctx,
		"SELECT username, password FROM app_users WHERE username = $1 LIMIT 1",
		username,
	).Scan(&u.Username, &u.Password)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to query app_users: %w", err)
	}
	return u, nil
}
