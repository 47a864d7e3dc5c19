package main

import (
	"context"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/ha7san14/dev-bank-v2/internal/adapter/repository/postgres"
	"github.com/ha7san14/dev-bank-v2/internal/config"
)

// Bootstraps the ledger backing stores: applies migrations and verifies
// the engine's collaborators are reachable before anything moves money.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := postgres.RunMigrations(ctx, cfg.DatabaseDSN, cfg.MigrationsDir); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	db, err := postgres.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			log.Fatalf("ping redis: %v", err)
		}
		_ = client.Close()
	}

	log.Println("ledger stores ready: schema up to date and reachable")
}
