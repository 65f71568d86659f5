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

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/storefront/internal/apiclient"
	"github.com/Skotchmaster/storefront/internal/authclient"
	"github.com/Skotchmaster/storefront/internal/catalog"
	"github.com/Skotchmaster/storefront/internal/config"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/logging"
	csrfmw "github.com/Skotchmaster/storefront/internal/middleware/csrf"
	"github.com/Skotchmaster/storefront/internal/ratelimit"
	"github.com/Skotchmaster/storefront/internal/storage"
	httpserver "github.com/Skotchmaster/storefront/internal/transport/http"
	"github.com/Skotchmaster/storefront/internal/visitor"
)

func main() {
	cfg := config.Load()

	log := logging.New(cfg.LogLevel)
	slog.SetDefault(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := storage.Open(ctx, cfg.StorageDSN)
	if err != nil {
		log.Error("storage_open_failed", "error", err)
		os.Exit(1)
	}
	store := storage.NewGormStore(db)
	if err := store.Migrate(ctx); err != nil {
		log.Error("storage_migrate_failed", "error", err)
		os.Exit(1)
	}

	hc := apiclient.NewHTTPClient()

	var search catalog.Searcher
	if cfg.ESURL != "" {
		es, err := catalog.NewESClient(catalog.ESConfig{
			URL:      cfg.ESURL,
			User:     cfg.ESUser,
			Password: cfg.ESPassword,
		})
		if err != nil {
			log.Error("elasticsearch_init_failed", "error", err)
			os.Exit(1)
		}
		pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
		if err := catalog.Ping(pingCtx, es); err != nil {
			log.Warn("elasticsearch_unreachable", "error", err)
		}
		pingCancel()
		search = &catalog.ESSearcher{ES: es, Index: cfg.ESIndex}
	}

	var pub events.Publisher = events.Noop{}
	if len(cfg.KafkaBrokers) > 0 {
		pub = events.NewKafkaPublisher(cfg.KafkaBrokers, log)
	}

	limiter := ratelimit.NewLimiter(cfg.LoginBurst, 10*time.Minute, ratelimit.PerMinute(cfg.LoginRatePerMinute))
	go limiter.Run(ctx, time.Minute)

	csrf := csrfmw.DefaultConfig()
	csrf.Secure = cfg.CookieSecure

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second
	e.Server.IdleTimeout = 60 * time.Second
	e.Pre(middleware.RemoveTrailingSlash())

	httpserver.Register(e, &httpserver.Deps{
		Store:    store,
		Visitors: &visitor.Issuer{Secret: cfg.VisitorSecret, TTL: cfg.VisitorTTL, Secure: cfg.CookieSecure},
		Auth:     authclient.NewClient(cfg.GatewayURL, hc),
		API:      apiclient.New(cfg.GatewayURL, hc),
		Search:   search,
		Events:   pub,
		Limiter:  limiter,
		CSRF:     csrf,
		Logger:   log,
	})

	go func() {
		log.Info("server_starting", "addr", cfg.ListenAddr, "gateway", cfg.GatewayURL)
		if err := e.Start(cfg.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server_error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	go func() {
		<-quit
		log.Warn("force_exit")
		os.Exit(1)
	}()

	log.Info("shutting_down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("server_shutdown_error", "error", err)
	}
	if err := pub.Close(); err != nil {
		log.Error("events_close_error", "error", err)
	}
	if err := store.Close(); err != nil {
		log.Error("storage_close_error", "error", err)
	}

	log.Info("shutdown_complete")
}
