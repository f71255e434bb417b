// Command provision creates the tables, collections and indexes the API
// expects. It is safe to run repeatedly.
package main

import (
	"context"
	"os"
	"time"

	"github.com/raushankrgupta/fitly-api/config"
	"github.com/raushankrgupta/fitly-api/store"
	"github.com/raushankrgupta/fitly-api/utils"
)

func main() {
	cfg := config.MustLoad()
	logger := utils.NewLogger(cfg.LogLevel, cfg.LogPretty)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	awsCfg, err := utils.LoadAWSConfig(ctx, cfg.AWSRegion)
	if err != nil {
		logger.Fatal().Err(err).Msg("load aws config")
	}

	backend, err := store.Open(ctx, cfg, awsCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("open store")
	}
	defer backend.Close(ctx)

	if err := backend.EnsureSchema(ctx); err != nil {
		logger.Error().Err(err).Str("store", cfg.StoreDriver).Msg("provision failed")
		backend.Close(ctx)
		os.Exit(1)
	}

	logger.Info().
		Str("store", cfg.StoreDriver).
		Str("profiles", cfg.ProfilesTable).
		Str("cart_items", cfg.CartItemsTable).
		Str("fits", cfg.FitsTable).
		Str("fits_index", cfg.FitsUserIndex).
		Msg("schema ready")
}
