package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/stylehub/commerce-backend/internal/domain/entity"
	"github.com/stylehub/commerce-backend/internal/domain/gateway"
	"github.com/stylehub/commerce-backend/internal/domain/repository"
	"github.com/stylehub/commerce-backend/internal/domain/service"
	"github.com/stylehub/commerce-backend/internal/infrastructure/config"
	"github.com/stylehub/commerce-backend/internal/infrastructure/database/inmemory"
	"github.com/stylehub/commerce-backend/internal/infrastructure/database/postgres"
	"github.com/stylehub/commerce-backend/internal/infrastructure/gateway/mock"
	"github.com/stylehub/commerce-backend/internal/infrastructure/gateway/paystack"
	"github.com/stylehub/commerce-backend/internal/infrastructure/messaging"
	"github.com/stylehub/commerce-backend/internal/interface/http/handler"
	"github.com/stylehub/commerce-backend/internal/interface/http/router"
	"github.com/stylehub/commerce-backend/internal/interface/presenter"
	"github.com/stylehub/commerce-backend/internal/usecase"
	"github.com/stylehub/commerce-backend/pkg/logging"
	"github.com/stylehub/commerce-backend/pkg/metrics"
)

const shutdownTimeout = 10 * time.Second

// main wires dependencies and runs the HTTP server and the outbox relay
// until SIGINT or SIGTERM.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logging.New("commerce-api", cfg.LogJSON)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", logging.Fields{Error: err.Error()})
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *logging.Logger) error {
	store, health, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	gw, err := newGateway(cfg)
	if err != nil {
		return err
	}
	publisher, err := newPublisher(cfg, log)
	if err != nil {
		return err
	}
	defer publisher.Close()

	m := metrics.NewServerMetrics()
	pricing := service.PricingConfig{
		Currency:              cfg.Currency,
		ShippingFlatFee:       cfg.ShippingFlatFee,
		FreeShippingThreshold: cfg.FreeShippingThreshold,
	}
	carts := usecase.NewCartService(store, log)
	orders := usecase.NewOrderService(store, service.NewOrderCalculator(pricing), log)
	payments := usecase.NewPaymentService(store, gw, usecase.PaymentConfig{
		Provider:    providerFor(cfg.PaymentGateway),
		CallbackURL: cfg.PaymentCallbackURL,
	}, log)

	app := router.New(router.Config{
		JWTSecret: cfg.JWTSecret,
		Log:       log,
		Metrics:   m,
		Health:    health,
	}, router.Handlers{
		Cart:    handler.NewCartHandler(carts, presenter.NewCartPresenter(cfg.Currency)),
		Order:   handler.NewOrderHandler(orders, presenter.NewOrderPresenter()),
		Payment: handler.NewPaymentHandler(payments, presenter.NewPaymentPresenter(), paystack.SignatureHeader),
	})
	relay := messaging.NewRelay(store.Repositories().Events, publisher, messaging.RelayConfig{
		BatchSize:    cfg.OutboxBatchSize,
		PollInterval: cfg.OutboxPollInterval,
	}, m, log)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting server on "+cfg.Addr, logging.Fields{Status: cfg.Env})
		return app.Listen(cfg.Addr)
	})
	g.Go(func() error {
		return relay.Run(ctx)
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down", logging.Fields{})
		return app.ShutdownWithTimeout(shutdownTimeout)
	})
	return g.Wait()
}

// openStore returns Postgres storage when DATABASE_URL is set and in-memory
// storage otherwise.
func openStore(ctx context.Context, cfg config.Config, log *logging.Logger) (repository.Store, func(context.Context) error, func(), error) {
	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL not set, using in-memory storage", logging.Fields{})
		store := inmemory.NewStore()
		if err := seedCatalog(ctx, store); err != nil {
			return nil, nil, nil, err
		}
		return store, nil, func() {}, nil
	}
	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, nil, nil, err
	}
	return postgres.NewUnitOfWork(db), pinger(db), func() { db.Close() }, nil
}

func pinger(db *sql.DB) func(context.Context) error {
	return db.PingContext
}

func newGateway(cfg config.Config) (gateway.PaymentGateway, error) {
	switch cfg.PaymentGateway {
	case config.GatewayPaystack:
		return paystack.NewClient(paystack.Config{
			SecretKey: cfg.PaystackSecretKey,
			BaseURL:   cfg.PaystackBaseURL,
			Currency:  cfg.Currency,
			Timeout:   cfg.GatewayTimeout,
		})
	case config.GatewayMock:
		return mock.New(cfg.PaystackSecretKey), nil
	}
	return nil, errors.New("unknown payment gateway " + cfg.PaymentGateway)
}

func providerFor(name string) entity.PaymentProvider {
	if name == config.GatewayPaystack {
		return entity.PaymentProviderPaystack
	}
	return entity.PaymentProviderManual
}

func newPublisher(cfg config.Config, log *logging.Logger) (messaging.Publisher, error) {
	if !cfg.KafkaEnabled() {
		return messaging.NewLogPublisher(log), nil
	}
	return messaging.NewKafkaPublisher(messaging.KafkaConfig{
		Brokers:     cfg.KafkaBrokers,
		TopicPrefix: cfg.KafkaTopicPrefix,
	})
}
