package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/raushankrgupta/fitly-api/api"
	"github.com/raushankrgupta/fitly-api/compose"
	"github.com/raushankrgupta/fitly-api/config"
	"github.com/raushankrgupta/fitly-api/store"
	"github.com/raushankrgupta/fitly-api/utils"
)

func main() {
	cfg := config.MustLoad()
	logger := utils.NewLogger(cfg.LogLevel, cfg.LogPretty)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	awsCfg, err := utils.LoadAWSConfig(ctx, cfg.AWSRegion)
	if err != nil {
		return err
	}

	backend, err := store.Open(ctx, cfg, awsCfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := backend.Close(closeCtx); err != nil {
			logger.Error().Err(err).Msg("close store")
		}
	}()

	verifier, err := newVerifier(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer verifier.Close()

	objects := utils.NewS3Objects(awsCfg, cfg.AssetsBucket)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	handler := api.NewHandler(api.Deps{
		Profiles:      backend.Profiles,
		CartItems:     backend.CartItems,
		Fits:          backend.Fits,
		FitsIndex:     cfg.FitsUserIndex,
		Objects:       objects,
		Compositor:    compose.Placeholder{Copier: objects},
		HTTPClient:    &http.Client{Timeout: cfg.TokenTimeout},
		TokenURL:      cfg.TokenURL(),
		ClientID:      cfg.CognitoClientID,
		CartPageLimit: cfg.CartPageLimit,
		Metrics:       api.NewMetrics(registry),
	})

	servers := []*http.Server{{
		Addr:              cfg.Addr(),
		Handler:           api.NewRouter(handler, verifier, logger),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}}
	if cfg.MetricsAddr != "" {
		servers = append(servers, &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		})
	}

	errc := make(chan error, len(servers))
	for _, srv := range servers {
		go func(srv *http.Server) {
			logger.Info().Str("addr", srv.Addr).Str("store", cfg.StoreDriver).Msg("listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errc <- err
			}
		}(srv)
	}

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
	case err = <-errc:
		logger.Error().Err(err).Msg("listener failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	for _, srv := range servers {
		if serr := srv.Shutdown(shutdownCtx); serr != nil {
			logger.Error().Err(serr).Str("addr", srv.Addr).Msg("shutdown")
		}
	}
	return err
}

func newVerifier(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*utils.TokenVerifier, error) {
	if cfg.JWKSURL != "" {
		return utils.NewJWKSVerifier(ctx, cfg.JWKSURL, logger)
	}
	return utils.NewHMACVerifier([]byte(cfg.JWTSecret)), nil
}
