package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appcart "github.com/Zhima-Mochi/minishop-checkout/internal/application/cart"
	appcheckout "github.com/Zhima-Mochi/minishop-checkout/internal/application/checkout"
	apporder "github.com/Zhima-Mochi/minishop-checkout/internal/application/order"
	apppayment "github.com/Zhima-Mochi/minishop-checkout/internal/application/payment"
	"github.com/Zhima-Mochi/minishop-checkout/internal/config"
	domcart "github.com/Zhima-Mochi/minishop-checkout/internal/domain/cart"
	domorder "github.com/Zhima-Mochi/minishop-checkout/internal/domain/order"
	dompay "github.com/Zhima-Mochi/minishop-checkout/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/pricing"
	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/uow"
	"github.com/Zhima-Mochi/minishop-checkout/internal/infrastructure/id"
	"github.com/Zhima-Mochi/minishop-checkout/internal/infrastructure/kafka"
	"github.com/Zhima-Mochi/minishop-checkout/internal/infrastructure/memory"
	infraobs "github.com/Zhima-Mochi/minishop-checkout/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/minishop-checkout/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/minishop-checkout/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/minishop-checkout/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/minishop-checkout/internal/infrastructure/outbox"
	"github.com/Zhima-Mochi/minishop-checkout/internal/infrastructure/paystack"
	"github.com/Zhima-Mochi/minishop-checkout/internal/infrastructure/postgres"
	"github.com/Zhima-Mochi/minishop-checkout/internal/infrastructure/redis"
	"github.com/Zhima-Mochi/minishop-checkout/internal/infrastructure/sqlite"
	"github.com/Zhima-Mochi/minishop-checkout/internal/pkg/logging"
	httppresentation "github.com/Zhima-Mochi/minishop-checkout/internal/presentation/http"
	workerpresentation "github.com/Zhima-Mochi/minishop-checkout/internal/presentation/worker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	baseLogger, err := logging.NewLogger(logging.Options{
		Service: cfg.ServiceName,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
	})
	if err != nil {
		return err
	}
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger)
	systemLogger := baseLogger.With(zap.String("component", "system"))

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := prometrics.Register(registry, "minishop")
	if err != nil {
		return err
	}
	tel := infraobs.New(oteltrace.New("minishop.usecase"), zaplogger.New(baseLogger), metrics)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var closers []func()
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}()

	unit, err := openStore(ctx, cfg, systemLogger)
	if err != nil {
		return err
	}
	if c, ok := unit.(interface{ Close() }); ok {
		closers = append(closers, c.Close)
	}

	var carts domcart.Repository = memory.NewCartRepository()
	if cfg.RedisAddr != "" {
		client := redis.NewClient(cfg.RedisAddr)
		closers = append(closers, func() { _ = client.Close() })
		carts = redis.NewCartRepository(client, cfg.ServiceName, cfg.CartTTL)
		systemLogger.Info("cart_store", zap.String("driver", "redis"), zap.String("addr", cfg.RedisAddr))
	}

	var deliveries dompay.WebhookLog
	if cfg.WebhookLogPath != "" {
		wl, err := sqlite.Open(cfg.WebhookLogPath)
		if err != nil {
			return err
		}
		closers = append(closers, func() { _ = wl.Close() })
		deliveries = wl
	}

	// In-memory event bus; Kafka, when configured, is just another subscriber.
	bus := outbox.NewBus(tel.Logger(), outbox.Options{})
	if brokers := kafka.ParseBrokers(cfg.KafkaBrokers); len(brokers) > 0 {
		kp := kafka.NewPublisher(brokers, cfg.KafkaTopic, cfg.ServiceName)
		closers = append(closers, func() { _ = kp.Close() })
		kp.Forward(bus,
			domorder.CreatedEvent{}.EventName(),
			dompay.InitializedEvent{}.EventName(),
			dompay.SettledEvent{}.EventName(),
			dompay.DeclinedEvent{}.EventName(),
		)
		systemLogger.Info("event_forwarding", zap.Strings("brokers", brokers), zap.String("topic", cfg.KafkaTopic))
	}

	calc, err := pricing.NewCalculator(cfg.TaxRate, cfg.PricesIncludeTax)
	if err != nil {
		return err
	}
	systemLogger.Info("pricing",
		zap.String("currency", cfg.Currency),
		zap.String("tax_rate", calc.Rate().String()),
		zap.Bool("prices_include_tax", calc.PricesIncludeTax()),
	)
	if cfg.PaystackSecretKey == "" {
		systemLogger.Warn("paystack_secret_missing", zap.String("effect", "webhooks will be rejected and provider calls will fail"))
	}
	provider := paystack.New(paystack.Options{
		BaseURL:   cfg.PaystackBaseURL,
		SecretKey: cfg.PaystackSecretKey,
		Timeout:   cfg.PaystackTimeout,
	})
	ids := id.NewUUIDGenerator()

	settle := apppayment.NewSettlementHandler(unit, bus, tel)
	handler := httppresentation.NewHandler(httppresentation.UseCases{
		Checkout:          appcheckout.NewCheckoutUseCase(unit, carts, calc, ids, bus, cfg.Currency, tel),
		InitializePayment: apppayment.NewInitializePaymentUseCase(unit, provider, ids, bus, cfg.PaystackTimeout, tel),
		VerifyPayment:     apppayment.NewVerifyPaymentUseCase(unit, provider, settle, cfg.PaystackTimeout, tel),
		Webhook:           apppayment.NewProcessWebhookUseCase(provider.Name(), provider, settle, deliveries, tel),
		GetOrder:          apporder.NewGetOrderUseCase(unit, tel),
		GetCart:           appcart.NewGetCartUseCase(carts, tel),
		SetCartItem:       appcart.NewSetItemUseCase(unit, carts, tel),
	}, httppresentation.Options{
		CallbackURL: cfg.PaystackCallbackURL,
		Metrics:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
	}, tel.Logger(), tel)

	workerpresentation.NewCartWorker(bus, appcart.NewClearCartUseCase(carts, tel), tel).Start()
	bus.Start(context.Background())

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		systemLogger.Info("http_server_start", zap.String("addr", server.Addr))
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			systemLogger.Error("http_server_error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		systemLogger.Error("http_server_shutdown_error", zap.Error(err))
	} else {
		systemLogger.Info("http_server_stopped")
	}
	bus.Stop(shutdownCtx)
	return nil
}

// openStore returns the unit of work for the configured driver. The memory
// store starts with the demo catalog.
func openStore(ctx context.Context, cfg config.Config, log *zap.Logger) (uow.UnitOfWork, error) {
	if cfg.StoreDriver == config.StorePostgres {
		pool, err := postgres.Connect(ctx, postgres.Options{URL: cfg.DatabaseURL, MaxConns: int32(cfg.DBMaxConns)})
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info("store", zap.String("driver", config.StorePostgres))
		return postgres.NewUnitOfWork(pool, cfg.DBLockTimeout), nil
	}

	store := memory.NewStore()
	if err := memory.Seed(ctx, store, memory.DemoProducts(), memory.DemoShippingMethods()); err != nil {
		return nil, err
	}
	log.Info("store", zap.String("driver", config.StoreMemory), zap.Bool("seeded", true))
	return store, nil
}
