package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"betpool/config"
	"betpool/database"
	"betpool/events"
	"betpool/infrastructure"
	"betpool/observability"
	"betpool/repository"
	"betpool/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"
)

// App holds the wired services and the resources they depend on
type App struct {
	Accounts   service.AccountService
	Wallets    service.WalletService
	Events     service.EventService
	Betting    service.BettingService
	Settlement service.SettlementService

	db            *database.DB
	eventBus      *events.Bus
	metricsServer *http.Server
	natsClient    *infrastructure.NATSClient
}

// NewApp connects to every backing resource and builds the services
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("Database connection established successfully")

	eventBus := events.NewBus()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(registry)
	metrics.Attach(eventBus)

	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus).WithObserver(metrics)

	app := &App{
		Accounts:   service.NewAccountService(uowFactory, cfg),
		Wallets:    service.NewWalletService(uowFactory, cfg),
		Events:     service.NewEventService(uowFactory, cfg),
		Betting:    service.NewBettingService(uowFactory, cfg),
		Settlement: service.NewSettlementService(uowFactory, cfg),
		db:         db,
		eventBus:   eventBus,
	}
	log.Info("Services initialized successfully")

	var notifier service.ReviewNotifier
	if cfg.ReviewChannelID != "" {
		discordNotifier, err := infrastructure.NewDiscordNotifier(cfg.DiscordToken, cfg.ReviewChannelID)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize Discord notifier: %w", err)
		}
		notifier = discordNotifier
		log.WithField("channelID", cfg.ReviewChannelID).Info("Rejection notices go to Discord")
	} else {
		notifier = infrastructure.NewLogNotifier()
		log.Info("No review channel configured, rejection notices are logged")
	}
	service.RegisterReviewNotifier(eventBus, notifier)

	if cfg.NATSEnabled {
		client := infrastructure.NewNATSClient(cfg.NATSServers)
		if err := client.Connect(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}

		mapper := infrastructure.NewEventSubjectMapper()
		if err := client.EnsureStream(infrastructure.DomainEventStream, mapper.GetAllSubjects()); err != nil {
			_ = client.Close()
			db.Close()
			return nil, fmt.Errorf("failed to ensure NATS stream: %w", err)
		}

		infrastructure.NewNATSEventPublisher(client, mapper).Attach(eventBus)
		app.natsClient = client
		log.Info("Domain events are forwarded to NATS")
	}

	app.metricsServer = observability.NewServer(cfg.MetricsAddr, registry, func(ctx context.Context) error {
		return db.Ping(ctx)
	})

	return app, nil
}

// Close stops the metrics server, drains pending event handlers and releases connections
func (a *App) Close(ctx context.Context) {
	if a.metricsServer != nil {
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			log.WithError(err).Error("Error shutting down metrics server")
		}
	}

	drained := make(chan struct{})
	go func() {
		a.eventBus.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-ctx.Done():
		log.Warn("Shutdown timeout exceeded while waiting for event handlers")
	}

	if a.natsClient != nil {
		if err := a.natsClient.Close(); err != nil {
			log.WithError(err).Error("Error closing NATS connection")
		}
	}

	log.Info("Closing database connection...")
	a.db.Close()
}

// Run initializes and starts the application
func Run(ctx context.Context) error {
	cfg := config.Get()
	if err := configureLogging(cfg.LogLevel, cfg.LogFormat); err != nil {
		return err
	}

	log.WithField("environment", cfg.Environment).Info("Starting betpool...")

	app, err := NewApp(ctx, cfg)
	if err != nil {
		return err
	}
	observability.Serve(app.metricsServer)

	log.WithFields(log.Fields{
		"removalPolicy": cfg.RemovalPolicy,
		"minQuotaPrice": cfg.MinQuotaPrice,
	}).Info("betpool is running")
	<-ctx.Done()

	log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	app.Close(shutdownCtx)

	log.Info("Shutdown completed")
	return nil
}
