package main

import (
	"context"
	"log"
	"os"

	"shopverse/internal/config"
	"shopverse/internal/db"
	"shopverse/internal/migrate"
	"shopverse/internal/seed"
)

func main() {
	logger := log.New(os.Stdout, "[seed] ", log.LstdFlags|log.LUTC|log.Lshortfile)
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	if err := migrate.Apply(ctx, pool, logger); err != nil {
		logger.Fatalf("apply migrations: %v", err)
	}
	if err := seed.Apply(ctx, pool, seed.Options{
		AdminPassword:    os.Getenv("SEED_ADMIN_PASSWORD"),
		CustomerPassword: os.Getenv("SEED_CUSTOMER_PASSWORD"),
		BcryptCost:       cfg.BcryptCost,
		Logger:           logger,
	}); err != nil {
		logger.Fatalf("seed apply: %v", err)
	}

	logger.Printf("seed applied; admin login %s", seed.AdminEmail)
}
