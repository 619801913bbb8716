package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ChristopheBouriel/restoh-frontend-sub000/internal/catalog"
	"github.com/ChristopheBouriel/restoh-frontend-sub000/internal/config"
	"github.com/ChristopheBouriel/restoh-frontend-sub000/internal/event"
	handler "github.com/ChristopheBouriel/restoh-frontend-sub000/internal/handler/http"
	"github.com/ChristopheBouriel/restoh-frontend-sub000/internal/service"
	"github.com/ChristopheBouriel/restoh-frontend-sub000/pkg/health"
	"github.com/ChristopheBouriel/restoh-frontend-sub000/pkg/httpclient"
	pkgkafka "github.com/ChristopheBouriel/restoh-frontend-sub000/pkg/kafka"
	"github.com/ChristopheBouriel/restoh-frontend-sub000/pkg/middleware"
	"github.com/ChristopheBouriel/restoh-frontend-sub000/pkg/tracing"
)

const serviceName = "cart-service"

// App wires together all dependencies and runs the cart service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	store          *cartStore
	refresher      *catalog.Refresher
	producer       *pkgkafka.Producer
	dlq            *pkgkafka.DLQProducer
	consumers      []*pkgkafka.Consumer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "cart",
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	healthHandler := health.NewHandler()

	store, err := openCartStore(ctx, cfg, healthHandler, logger)
	if err != nil {
		return nil, err
	}

	// Menu catalog, loaded from the menu service through a circuit breaker.
	menu := catalog.New()
	baseClient := httpclient.New(httpclient.Config{
		Timeout:         10 * time.Second,
		MaxRetries:      2,
		RetryWaitMin:    500 * time.Millisecond,
		RetryWaitMax:    2 * time.Second,
		MaxConnsPerHost: 10,
	})
	cbClient := httpclient.NewBreakerClient(baseClient, httpclient.DefaultBreakerConfig("menu-service"), logger)
	refresher := catalog.NewRefresher(menu, catalog.NewHTTPSource(cbClient, cfg.MenuServiceURL), cfg.MenuRefreshInterval, logger)
	healthHandler.Register("menu_catalog", func(context.Context) error {
		if !menu.Loaded() {
			return errors.New("menu catalog not loaded")
		}
		return nil
	})

	// Kafka: cart events out, menu events in.
	var (
		producer  *pkgkafka.Producer
		dlq       *pkgkafka.DLQProducer
		consumers []*pkgkafka.Consumer
		publisher event.Publisher
	)
	if cfg.KafkaEnabled {
		producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		publisher = producer
		dlq = pkgkafka.NewDLQProducer(cfg.KafkaBrokers, logger)

		menuConsumer := event.NewMenuConsumer(menu, logger)
		handle := pkgkafka.IdempotentHandler(pkgkafka.NewMemoryIdempotencyStore(time.Hour), menuConsumer.Handle, logger)
		for _, topic := range event.MenuTopics() {
			consumers = append(consumers, pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
				Brokers:  cfg.KafkaBrokers,
				GroupID:  serviceName,
				Topic:    topic,
				MinBytes: 1,
				MaxBytes: 10e6,
				DLQ:      dlq,
			}, handle, logger))
		}
		healthHandler.Register("kafka_producer", producer.Ping)
		logger.Info("kafka initialized",
			slog.Any("brokers", cfg.KafkaBrokers),
			slog.Any("topics", event.MenuTopics()),
		)
	} else {
		logger.Info("kafka disabled, cart events are not published and menu updates come from polling only")
	}

	// Build the dependency graph.
	eventProducer := event.NewProducer(publisher, cfg.Currency, logger)
	cartService := service.NewCartService(store, eventProducer, menu, cfg.Currency, logger)

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.CORSAllowedOrigins
	corsCfg.Environment = cfg.Environment

	// HTTP router.
	router := handler.NewRouter(cartService, healthHandler, logger, handler.RouterConfig{
		PprofCIDRs: cfg.PprofAllowedCIDRs,
		CORS:       corsCfg,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		store:          store,
		refresher:      refresher,
		producer:       producer,
		dlq:            dlq,
		consumers:      consumers,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// Run starts the HTTP server, the menu refresher and the Kafka consumers,
// blocking until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 2+len(a.consumers))

	go func() {
		if err := a.refresher.Run(ctx); err != nil {
			errCh <- fmt.Errorf("menu refresher: %w", err)
		}
	}()

	// Start Kafka consumers in background goroutines.
	for _, c := range a.consumers {
		c := c
		go func() {
			if err := c.Start(ctx); err != nil {
				errCh <- fmt.Errorf("kafka consumer: %w", err)
			}
		}()
	}

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in the correct order:
// 1. HTTP server (drain in-flight requests)
// 2. Tracer (flush pending spans from drained requests)
// 3. Kafka consumers, producer and DLQ producer
// 4. Cart store
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	// Graceful HTTP server shutdown with a 10-second deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	if err := a.tracerShutdown(shutdownCtx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
	}

	for _, c := range a.consumers {
		if err := c.Close(); err != nil {
			a.logger.Error("kafka consumer close error", slog.String("error", err.Error()))
		}
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}
	if a.dlq != nil {
		if err := a.dlq.Close(); err != nil {
			a.logger.Error("kafka dlq producer close error", slog.String("error", err.Error()))
		}
	}

	a.store.close()

	a.logger.Info("application shutdown complete")
	return nil
}
