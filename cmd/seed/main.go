package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"skins-market/internal/config"
	"skins-market/internal/db"
	"skins-market/internal/seed"
)

func main() {
	var opts seed.Options
	flag.StringVar(&opts.StaffUsername, "staff-username", "admin", "Staff account username; empty skips the account")
	flag.StringVar(&opts.StaffEmail, "staff-email", "admin@skins.market", "Staff account email")
	flag.StringVar(&opts.StaffPassword, "staff-password", "Market!Staff1", "Staff account password")
	flag.Int64Var(&opts.StaffCash, "staff-cash", 100000, "Staff account starting cash")
	flag.Parse()

	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger, err := cfg.Logger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	logger = logger.Named("seed")

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	if err := seed.Apply(ctx, pool, opts); err != nil {
		logger.Fatal("seed apply", zap.Error(err))
	}

	logger.Info("seed applied")
}
