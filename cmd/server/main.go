package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	webAdapter "candyshop/internal/adapters/web"
	"candyshop/internal/ai"
	"candyshop/internal/app"
	"candyshop/internal/config"
	"candyshop/internal/db"
	"candyshop/internal/events"
	"candyshop/internal/logger"
	"candyshop/internal/store"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zlog, err := logger.New(cfg.Log.Level)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer zlog.Sync()

	ctx := context.Background()

	// Backend selection happens exactly once, here. A configured but
	// unreachable database falls back to the local JSON store instead of
	// refusing to start: the shop must be able to sell offline.
	st := selectStore(ctx, cfg, zlog)

	if cfg.AI.OpenAIAPIKey == "" {
		zlog.Warn("OPENAI_API_KEY is not set; store insights will answer with the fallback message")
	}
	agent := ai.NewAgent(cfg.AI.OpenAIAPIKey)

	var producer *events.Producer
	if cfg.Events.KafkaBrokers != "" {
		producer = events.NewProducer(cfg.Events.KafkaBrokers, zlog)
		defer producer.Close()
	}

	svc, err := app.New(st, agent, producer, cfg.Auth.AdminUser, cfg.Auth.AdminPassword, zlog)
	if err != nil {
		zlog.Fatal("application service", zap.Error(err))
	}
	defer svc.Close()

	handler := webAdapter.NewHandler(svc, cfg.Server.AllowedOrigins, cfg.Auth.JWTSecret, zlog)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	zlog.Info("server starting", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, handler); err != nil {
		zlog.Fatal("server", zap.Error(err))
	}
}

// selectStore picks the persistence backend for this process lifetime.
func selectStore(ctx context.Context, cfg *config.Config, zlog *zap.Logger) store.Store {
	if cfg.Store.DatabaseURL != "" {
		pool, err := db.NewPool(ctx, cfg.Store.DatabaseURL)
		if err == nil {
			var uploader *store.ImageUploader
			if cfg.Store.S3Bucket != "" {
				uploader, err = store.NewImageUploader(ctx, cfg.Store.S3Bucket, cfg.Store.Region)
				if err != nil {
					zlog.Warn("image uploader unavailable", zap.Error(err))
					uploader = nil
				}
			}
			zlog.Info("using remote backend", zap.Bool("image_uploads", uploader != nil))
			return store.NewPostgres(pool, uploader, zlog)
		}
		zlog.Warn("remote backend unreachable, falling back to local store", zap.Error(err))
	}

	local, err := store.NewLocal(cfg.Store.DataDir, zlog)
	if err != nil {
		zlog.Fatal("local store", zap.Error(err))
	}
	zlog.Info("using local backend", zap.String("data_dir", cfg.Store.DataDir))
	return local
}
