package main

import (
	"context"
	"log"

	"ctchen222/bookshelf/internal/api/repository"
	"ctchen222/bookshelf/internal/catalog"
	"ctchen222/bookshelf/internal/config"
	"ctchen222/bookshelf/internal/db"
	"ctchen222/bookshelf/internal/logger"

	"github.com/spf13/pflag"
)

func main() {
	path := pflag.StringP("file", "f", "seed/books.yaml", "path to the YAML book catalogue")
	pflag.Parse()

	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := logger.Init(cfg.LogLevel, cfg.LogFormat); err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}

	books, err := catalog.Load(*path)
	if err != nil {
		log.Fatalf("failed to load catalogue: %v", err)
	}

	DB, err := db.Open(ctx, cfg.DatabasePath)
	if err != nil {
		log.Fatalf("failed to initialize sqlite db: %v", err)
	}
	defer DB.Close()

	if err := catalog.Seed(ctx, repository.NewBookRepository(DB), books); err != nil {
		log.Fatalf("failed to seed catalogue: %v", err)
	}
}
