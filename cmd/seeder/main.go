// cmd/seeder/main.go
package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/unclebandit/crowdfund-program/internal/config"
	"github.com/unclebandit/crowdfund-program/internal/db"
	"github.com/unclebandit/crowdfund-program/internal/logging"
)

var seedFiles = []string{
	"seed/schema.sql",
	"seed/accounts.sql",
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "seeder:", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "seeder:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx := context.Background()
	conn, err := db.Open(ctx, cfg.DSN(), logger)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer conn.Close()

	if err := db.ApplyFiles(ctx, conn, seedFiles, logger); err != nil {
		logger.Fatal("seeding failed", zap.Error(err))
	}

	logger.Info("Database seeding completed successfully!")
}
