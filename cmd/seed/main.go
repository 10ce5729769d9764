// seed is a one-shot tool that prepares the remote database: it creates the
// schema if missing, inserts the sample catalog, and upserts the admin login.
//
// Usage: go run ./cmd/seed
package main

import (
	"context"
	"log"

	"candyshop/internal/config"
	"candyshop/internal/db"
	"candyshop/internal/store"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Store.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; the local backend needs no seeding")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.Store.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer pool.Close()

	log.Println("Creating schema...")
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS products (
			id        TEXT PRIMARY KEY,
			name      TEXT NOT NULL,
			category  TEXT NOT NULL DEFAULT '',
			price     NUMERIC(12,2) NOT NULL,
			cost      NUMERIC(12,2) NOT NULL,
			stock     INT NOT NULL CHECK (stock >= 0),
			image_url TEXT
		);
		CREATE TABLE IF NOT EXISTS sales (
			id             TEXT PRIMARY KEY,
			items          JSONB NOT NULL,
			total          NUMERIC(12,2) NOT NULL,
			ts             TIMESTAMPTZ NOT NULL,
			payment_method TEXT NOT NULL,
			observation    TEXT
		);
		CREATE TABLE IF NOT EXISTS app_users (
			username TEXT PRIMARY KEY,
			password TEXT NOT NULL
		);
	`)
	if err != nil {
		log.Fatalf("Failed to create schema: %v", err)
	}

	log.Println("Inserting sample catalog...")
	for _, p := range store.SampleProducts() {
		_, err = pool.Exec(ctx, `
			INSERT INTO products (id, name, category, price, cost, stock, image_url)
			VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''))
			ON CONFLICT (id) DO NOTHING;
		`, p.ID, p.Name, p.Category, p.Price, p.Cost, p.Stock, p.ImageURL)
		if err != nil {
			log.Fatalf("Failed to insert product %s: %v", p.ID, err)
		}
	}

	log.Println("Upserting admin user...")
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Auth.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash admin password: %v", err)
	}
	_, err = pool.Exec(ctx, `
		INSERT INTO app_users (username, password)
		VALUES ($1, $2)
		ON CONFLICT (username) DO UPDATE SET password = EXCLUDED.password;
	`, cfg.Auth.AdminUser, string(hash))
	if err != nil {
		log.Fatalf("Failed to upsert admin user: %v", err)
	}

	log.Println("Done.")
}
