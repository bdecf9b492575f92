package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GregMSThompson/finboard/internal/bootstrap"
	"github.com/GregMSThompson/finboard/internal/client/provider"
	"github.com/GregMSThompson/finboard/internal/config"
	"github.com/GregMSThompson/finboard/internal/dto"
	"github.com/GregMSThompson/finboard/internal/handlers"
	"github.com/GregMSThompson/finboard/internal/middleware"
	"github.com/GregMSThompson/finboard/internal/response"
	"github.com/GregMSThompson/finboard/internal/router"
	"github.com/GregMSThompson/finboard/internal/services"
	"github.com/GregMSThompson/finboard/pkg/logger"
)

func exitOnError(message string, err error, log *slog.Logger) {
	if err != nil {
		log.Error(message, "error", err)
		os.Exit(1)
	}
}

func main() {
	// bootstrap
	cfg, err := config.New()
	exitOnError("config failed", err, slog.Default())
	bs, err := bootstrap.Run(cfg)
	exitOnError("bootstrap failed", err, bs.Log)
	defer bs.Close()

	ctx := logger.ToContext(context.Background(), bs.Log)
	exitOnError("provider keys failed", bs.LoadProviderKeys(ctx, cfg), bs.Log)

	// stores
	persister, err := bootstrap.NewPersister(ctx, cfg, bs)
	exitOnError("persistence init failed", err, bs.Log)
	dashboards := services.NewDashboards(persister)

	// provider client: limit, then dedupe identical requests
	client := provider.NewClient(bs.ProviderKeys,
		provider.WithHTTPClient(provider.NewHTTPClient(cfg.Providers.Timeout)))
	limited := provider.NewRateLimited(client).
		Limit(dto.ProviderAlphaVantage, cfg.Providers.AlphaVantagePerMinute, 1).
		Limit(dto.ProviderFinnhub, cfg.Providers.FinnhubPerMinute, 5)
	fetcher := provider.NewCache(limited, cfg.Refresh.DedupeTTL, cfg.Refresh.DedupeMaxSize)

	// services
	tracker := services.NewRefreshTracker()
	dserv := services.NewDashboardService(dashboards, tracker)
	wserv := services.NewWidgetDataService(dashboards, fetcher, tracker, cfg.Refresh.Concurrency)

	// response handler
	rh := response.New(bs.Log)

	// dependancies
	deps := new(handlers.Deps)
	deps.Log = bs.Log
	deps.ResponseHandler = rh
	deps.DashboardSvc = dserv
	deps.WidgetDataSvc = wserv

	auth := middleware.NewMiddleware(nil)
	if bs.Firebase != nil {
		auth = middleware.NewMiddleware(bs.Firebase)
	}

	// router
	r := router.NewRouter(deps, auth)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			bs.Log.Warn("shutdown failed", "error", err)
		}
	}()

	bs.Log.Info("listening", "port", cfg.Port, "persistence", cfg.Persistence)
	err = srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		err = nil
	}
	exitOnError("server start failed", err, bs.Log)
}
