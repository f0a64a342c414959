package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Skotchmaster/desi_occasions/internal/config"
	"github.com/Skotchmaster/desi_occasions/internal/es"
	"github.com/Skotchmaster/desi_occasions/internal/httpserver"
	"github.com/Skotchmaster/desi_occasions/internal/metrics"
	"github.com/Skotchmaster/desi_occasions/internal/mykafka"
	"github.com/Skotchmaster/desi_occasions/internal/notify"
	"github.com/Skotchmaster/desi_occasions/internal/payments"
	"github.com/Skotchmaster/desi_occasions/internal/repo"
	"github.com/Skotchmaster/desi_occasions/internal/service"
	"github.com/Skotchmaster/desi_occasions/internal/whatsapp"
	"github.com/Skotchmaster/desi_occasions/pkg/authclient"
	pkgdb "github.com/Skotchmaster/desi_occasions/pkg/db"
	"github.com/Skotchmaster/desi_occasions/pkg/logging"
	loggingmw "github.com/Skotchmaster/desi_occasions/pkg/middleware/logging"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.ServiceName, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("server_exit", zap.Error(err))
	}
	logger.Info("server_stopped")
}

func run(ctx context.Context, cfg config.ServiceConfig, logger *zap.Logger) error {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Warn("timezone_fallback", zap.String("timezone", cfg.Timezone), zap.Error(err))
		loc = time.UTC
	}
	clock := service.Clock{Loc: loc}

	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	db, err := pkgdb.Open(openCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		return fmt.Errorf("db open: %w", err)
	}
	defer pkgdb.Close(db)

	store := &repo.GormRepo{DB: db}
	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	sender, err := whatsapp.New(cfg.WhatsApp)
	if err != nil {
		return err
	}
	dispatcher := notify.NewDispatcher(sender, store, m, logger, notify.Options{
		Workers:   cfg.NotifyWorkers,
		QueueSize: cfg.NotifyQueueSize,
		Timeout:   cfg.NotifyTimeout,
	})
	dispatcher.Start(ctx)

	events := mykafka.NewPublisher(cfg.KafkaBrokers)

	var search service.VendorSearch
	if cfg.ESURL != "" {
		client, err := es.NewClient(ctx, es.ClientConfig{URL: cfg.ESURL, Username: cfg.ESUser, Password: cfg.ESPassword})
		if err != nil {
			logger.Warn("es_unavailable", zap.Error(err))
		} else {
			idx := &es.VendorIndex{Client: client, Index: cfg.ESIndex}
			if err := idx.EnsureIndex(ctx); err != nil {
				logger.Warn("es_ensure_index_error", zap.Error(err))
			}
			search = idx
		}
	}

	checkout := &service.CheckoutService{Metrics: m}
	if c := payments.NewCheckout(cfg.StripeSecretKey, nil); c != nil {
		checkout.Provider = c
	}

	vendors := &service.VendorService{Repo: store, Search: search, Clock: clock}
	orders := &service.OrderService{
		Repo:     store,
		Notifier: dispatcher,
		Events:   events,
		Checkout: checkout,
		Metrics:  m,
		BaseURL:  cfg.PublicBaseURL,
		Clock:    clock,
	}

	var auth *authclient.Client
	if cfg.AuthHTTPURL != "" {
		auth = authclient.NewClient(cfg.AuthHTTPURL, cfg.AuthAPIKey)
	}
	authHTTP := &httpserver.AuthHTTP{JWTSecret: cfg.JWTAccessSecret, BaseURL: cfg.PublicBaseURL, Vendors: vendors}
	deps := &httpserver.Deps{
		DB:        db,
		Gatherer:  reg,
		Vendors:   &httpserver.VendorHTTP{Svc: vendors},
		Orders:    &httpserver.OrderHTTP{Svc: orders},
		Addresses: &httpserver.AddressHTTP{Svc: &service.AddressService{Repo: store}},
		Payments: &httpserver.PaymentHTTP{
			Checkout: checkout,
			Webhooks: &service.WebhookService{
				Verifier: &payments.WebhookVerifier{Secret: cfg.StripeWebhookSecret},
				Events:   events,
				Metrics:  m,
				Clock:    clock,
			},
		},
		Messages:  &httpserver.MessageHTTP{Svc: &service.MessageService{Sender: sender}},
		Auth:      authHTTP,
		JWTSecret: cfg.JWTAccessSecret,
	}
	if auth != nil {
		authHTTP.Client = auth
		deps.AuthClient = auth
	}

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = httpserver.ErrorHandler
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{cfg.PublicBaseURL},
		AllowCredentials: true,
	}))
	e.Use(echomw.Secure())
	e.Use(m.Middleware())
	e.Use(loggingmw.RequestLogger(logger))

	httpserver.Register(e, deps)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server_listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("server_shutting_down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server_shutdown_error", zap.Error(err))
		}
		if err := dispatcher.Stop(shutdownCtx); err != nil {
			logger.Error("notify_stop_error", zap.Error(err))
		}
		if err := events.Close(); err != nil {
			logger.Error("kafka_close_error", zap.Error(err))
		}
		return nil
	})
	return g.Wait()
}
