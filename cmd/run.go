package cmd

import (
	"context"
	"fmt"
	"time"

	"questhelper/application"
	"questhelper/bot"
	"questhelper/config"
	"questhelper/database"
	"questhelper/events"
	"questhelper/infrastructure"
	"questhelper/infrastructure/observability"
	"questhelper/repository"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	// Load configuration
	cfg := config.Get()

	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	} else {
		log.WithField("level", cfg.LogLevel).Warn("Unknown log level, keeping default")
	}
	log.Info("Starting quest helper bot...")

	// Initialize metrics
	if err := observability.InitializeGlobalMetrics(ctx, cfg); err != nil {
		log.WithError(err).Warn("Failed to initialize metrics, continuing without them")
	}

	// Initialize database connection and schema
	log.Info("Connecting to database...")
	databaseURL := cfg.GetDatabaseURL()
	if err := database.RunMigrationsWithURL(databaseURL); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	db, err := database.NewConnection(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Info("Database connection established successfully")

	// Initialize event bus, optionally bridged to NATS
	eventBus := events.NewBus()
	var publisher events.Publisher = eventBus

	var natsClient *infrastructure.NATSClient
	if cfg.NATSEnabled() {
		natsClient = infrastructure.NewNATSClient(cfg.NATSServers)
		if err := natsClient.Connect(ctx); err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		defer natsClient.Close()

		mapper := infrastructure.NewEventSubjectMapper()
		if err := infrastructure.EnsureDomainEventStream(natsClient, mapper); err != nil {
			return fmt.Errorf("failed to ensure event stream: %w", err)
		}
		publisher = infrastructure.NewNATSEventPublisher(natsClient, mapper, eventBus)
		log.WithField("servers", cfg.NATSServers).Info("Publishing domain events to NATS")
	}

	uowFactory := repository.NewUnitOfWorkFactory(db, publisher)

	// Initialize Discord bot
	log.Info("Initializing Discord bot...")
	discordBot, err := bot.New(bot.Config{
		Token:                 cfg.DiscordToken,
		DefaultPrefix:         cfg.DefaultPrefix,
		PrefixCacheSize:       cfg.PrefixCacheSize,
		PromotedRoleIDs:       cfg.PromotedRoleIDs,
		AutoRoleQueueSize:     cfg.AutoRoleQueueSize,
		AutoRoleRatePerSecond: cfg.AutoRoleRatePerSecond,
	}, uowFactory)
	if err != nil {
		return fmt.Errorf("failed to initialize Discord bot: %w", err)
	}

	notifier := application.NewLogChannelNotifier(uowFactory, discordBot.LogPoster())
	application.RegisterApplicationSubscriptions(eventBus, notifier)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	var health *infrastructure.HealthServer
	if cfg.HealthAddr != "" {
		health = infrastructure.NewHealthServer(cfg.HealthAddr)
		if err := health.Listen(); err != nil {
			return fmt.Errorf("failed to start health server: %w", err)
		}
		g.Go(func() error {
			return health.Serve(gctx)
		})
	}

	if err := discordBot.Start(gctx); err != nil {
		return fmt.Errorf("failed to start Discord bot: %w", err)
	}
	if health != nil {
		health.SetServing(true)
	}
	log.WithField("environment", cfg.Environment).Info("Bot is running")

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down bot...")
		if health != nil {
			health.SetServing(false)
		}
		if err := discordBot.Close(); err != nil {
			log.WithError(err).Error("Error closing Discord bot")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := observability.ShutdownGlobalMetrics(shutdownCtx); err != nil {
			log.WithError(err).Warn("Failed to flush metrics")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("Shutdown completed")
	return nil
}
