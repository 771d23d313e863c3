package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/niksmo/storefront/config"
	"github.com/niksmo/storefront/internal/adapter"
	"github.com/niksmo/storefront/internal/adapter/httphandler"
	"github.com/niksmo/storefront/internal/adapter/kafka"
	"github.com/niksmo/storefront/internal/adapter/storage"
	"github.com/niksmo/storefront/internal/adapter/stripe"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/internal/core/service"
	"github.com/niksmo/storefront/pkg/retry"
	"github.com/niksmo/storefront/pkg/schema"
	"github.com/niksmo/storefront/pkg/telemetry"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/sr"
)

const connectAttempts = 5

type coreService struct {
	admin    port.CatalogAdmin
	payments port.PaymentProcessor
	events   port.PaymentEventsSaver
}

// App is the ecom server: payment gateway adapter, catalog admin API and
// the payment events pipeline.
type App struct {
	ctx              context.Context
	cfg              config.Config
	shutdownTracing  telemetry.ShutdownFunc
	kafkaOpts        []kgo.Opt
	srOpts           []sr.ClientOpt
	paymentSerde     schema.Serde
	sqlDB            storage.SQLDB
	paymentsProducer kafka.PaymentEventsProducer
	paymentsConsumer kafka.PaymentEventsConsumer
	service          coreService
	httpServer       httphandler.HTTPServer
}

func New(ctx context.Context, cfg config.Config) *App {
	app := &App{ctx: ctx, cfg: cfg}

	app.initLogger()
	app.validateConfig()
	app.initTelemetry()
	app.initTLS()
	app.initSerdes()
	app.initStorage()
	app.initProducers()
	app.initCoreService()
	app.initConsumers()
	app.initInboundAdapters()

	return app
}

func (app *App) initLogger() {
	opts := &slog.HandlerOptions{Level: app.cfg.LogLevel}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, opts))
	slog.SetDefault(logger)
}

func (app *App) validateConfig() {
	const op = "App.validateConfig"
	if err := app.cfg.ValidateServer(); err != nil {
		app.fallDown(op, err)
	}
}

func (app *App) initTelemetry() {
	const op = "App.initTelemetry"

	shutdown, err := telemetry.Setup(app.ctx, telemetry.Config{
		ServiceName:  app.cfg.Telemetry.ServiceName,
		OTLPEndpoint: app.cfg.Telemetry.OTLPEndpoint,
		Insecure:     app.cfg.Telemetry.Insecure,
		SampleRatio:  app.cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		app.fallDown(op, err)
	}
	app.shutdownTracing = shutdown
}

func (app *App) initTLS() {
	const op = "App.initTLS"

	tlsCfg := app.cfg.Broker.TLS
	if !tlsCfg.Enabled {
		return
	}

	c, err := adapter.MakeTLSConfig(tlsCfg.CAFile, tlsCfg.CertFile, tlsCfg.KeyFile)
	if err != nil {
		app.fallDown(op, err)
	}
	app.kafkaOpts = append(app.kafkaOpts, kgo.DialTLSConfig(c))
	app.srOpts = append(app.srOpts, sr.DialTLSConfig(c))
}

func (app *App) initSerdes() {
	const op = "App.initSerdes"

	srOpts := append([]sr.ClientOpt{
		sr.URLs(app.cfg.Broker.SchemaRegistryURLs...),
	}, app.srOpts...)
	srClient, err := sr.NewClient(srOpts...)
	if err != nil {
		app.fallDown(op, err)
	}

	subject := app.cfg.Broker.Topics.Payments + "-value"
	paymentSerde, err := retry.DoWithResult(app.ctx, app.connectRetry(),
		func() (schema.Serde, error) {
			return schema.NewSerdePaymentEventV1(
				app.ctx,
				schema.SubjectOpt(subject),
				schema.SchemaIdentifierOpt(schema.NewRegistryIdentifier(srClient)),
			)
		},
	)
	if err != nil {
		app.fallDown(op, err)
	}
	app.paymentSerde = paymentSerde
}

func (app *App) initStorage() {
	const op = "App.initStorage"

	db, err := retry.DoWithResult(app.ctx, app.connectRetry(),
		func() (storage.SQLDB, error) {
			return storage.NewSQLDB(app.ctx, app.cfg.SQLDB)
		},
	)
	if err != nil {
		app.fallDown(op, err)
	}
	app.sqlDB = db
}

func (app *App) initProducers() {
	const op = "App.initProducers"

	producer, err := kafka.NewPaymentEventsProducer(
		kafka.ProducerClientOpt(
			app.ctx,
			app.cfg.Broker.SeedBrokers,
			app.cfg.Broker.Topics.Payments,
			app.kafkaOpts...,
		),
		kafka.ProducerEncoderOpt(app.paymentSerde),
	)
	if err != nil {
		app.fallDown(op, err)
	}
	app.paymentsProducer = producer
}

func (app *App) initCoreService() {
	categories := storage.NewCategoriesRepository(app.sqlDB)
	products := storage.NewProductsRepository(app.sqlDB)
	events := storage.NewPaymentEventsRepository(app.sqlDB)

	gateway := stripe.NewGateway(
		app.cfg.Payment.SecretKey,
		stripe.CurrencyOpt(app.cfg.Payment.Currency),
		stripe.WebhookSecretOpt(app.cfg.Payment.WebhookSecret),
	)

	app.service.admin = service.NewAdminService(categories, products)
	app.service.payments = service.NewPaymentService(
		gateway,
		app.paymentsProducer,
		service.WithRateLimit(app.cfg.Payment.RateLimit, app.cfg.Payment.RateBurst),
	)
	app.service.events = service.NewEventsService(events)
}

func (app *App) initConsumers() {
	const op = "App.initConsumers"

	consumer, err := kafka.NewPaymentEventsConsumer(
		kafka.ConsumerClientOpt(
			app.cfg.Broker.SeedBrokers,
			app.cfg.Broker.Topics.Payments,
			app.cfg.Broker.Consumers.PaymentSaverGroup,
			app.kafkaOpts...,
		),
		kafka.ConsumerDecoderOpt(app.paymentSerde),
		kafka.PaymentEventsSaverOpt(app.service.events),
	)
	if err != nil {
		app.fallDown(op, err)
	}
	app.paymentsConsumer = consumer
}

func (app *App) initInboundAdapters() {
	router := httphandler.NewRouter(app.service.payments, app.service.admin)
	app.httpServer = httphandler.NewHTTPServer(
		app.cfg.HTTPServer.Addr, router, app.cfg.HTTPServer.HandlerTimeout,
	)
}

func (app *App) connectRetry() retry.RetryConfig {
	return retry.RetryConfig{
		MaxAttempts: connectAttempts,
		Backoff:     retry.ExponentialBackoff(500 * time.Millisecond),
		ShouldRetry: retry.NotOn(context.Canceled, context.DeadlineExceeded),
	}
}

func (app *App) Run(stopFn context.CancelFunc) {
	go app.httpServer.Run(stopFn)
	go app.paymentsConsumer.Run(app.ctx)

	slog.Info("application is running")
}

func (app *App) Close(ctx context.Context) {
	slog.Info("application is closing...")

	app.httpServer.Close(ctx)
	app.paymentsConsumer.Close()
	app.paymentsProducer.Close()
	app.sqlDB.Close()

	if err := app.shutdownTracing(ctx); err != nil {
		slog.Error("failed to shutdown tracing", "err", err)
	}

	slog.Info("application is closed")
}

func (app *App) fallDown(op string, err error) {
	panic(fmt.Errorf("%s: %w", op, err))
}
