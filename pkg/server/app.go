package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	drepo "TradeGate/internal/domain/repository"
	"TradeGate/internal/service/marketdata"
	"TradeGate/internal/service/reaper"
	"TradeGate/pkg/cache"
	"TradeGate/pkg/config"
	xhttp "TradeGate/pkg/http"
	applogger "TradeGate/pkg/logger"
)

// App encapsulates the application lifecycle: HTTP server, background reaper,
// and the optional market-data collector.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	handler    xhttp.Handler
	reaper     *reaper.Reaper
	collector  *marketdata.Collector
	publisher  drepo.DecisionPublisher
	cache      cache.Service
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies. The collector and
// cache may be nil when disabled in config.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	handler xhttp.Handler,
	rp *reaper.Reaper,
	collector *marketdata.Collector,
	publisher drepo.DecisionPublisher,
	cacheSvc cache.Service,
) *App {
	return &App{
		cfg:       cfg,
		log:       log,
		handler:   handler,
		reaper:    rp,
		collector: collector,
		publisher: publisher,
		cache:     cacheSvc,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opts := []xhttp.ServerOption{
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	}
	if a.cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetricsPath(a.cfg.Metrics.Path))
	}
	a.httpServer = xhttp.NewServer(a.handler, a.log, opts...)

	a.reaper.Start(ctx)
	a.log.Info("reaper started",
		applogger.Duration("interval", a.cfg.Admission.ReaperInterval),
		applogger.Duration("ttl", a.cfg.Admission.RetentionTTL),
	)

	if a.collector != nil {
		a.collector.Start(ctx)
		a.log.Info("market data collector started", applogger.Strings("symbols", a.cfg.MarketData.Symbols))
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	if a.collector != nil {
		a.collector.Stop()
	}
	a.reaper.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.Warn("publisher close error", applogger.Error(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.log.Warn("cache close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
