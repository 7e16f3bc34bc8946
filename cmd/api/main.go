package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/docsched/backend/internal/adapters/cache"
	"github.com/docsched/backend/internal/adapters/database"
	"github.com/docsched/backend/internal/adapters/events"
	"github.com/docsched/backend/internal/api/handlers"
	"github.com/docsched/backend/internal/api/routes"
	"github.com/docsched/backend/internal/application/services"
	"github.com/docsched/backend/internal/domain/providers"
	"github.com/docsched/backend/internal/domain/repositories"
	"github.com/docsched/backend/internal/infrastructure/clients/postgres"
	"github.com/docsched/backend/internal/infrastructure/clients/redis"
	"github.com/docsched/backend/internal/infrastructure/notifications"
	"github.com/docsched/backend/internal/infrastructure/observability"
	"github.com/docsched/backend/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Environment)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			log.Info().Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()
	log.Info().Msg("PostgreSQL client initialized")

	// Initialize Redis client; the application works without caching
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable; running without cache and event bus")
		redisClient = nil
	} else {
		defer redisClient.Close()
		log.Info().Msg("Redis client initialized")
	}

	var cacheProvider providers.CacheProvider
	var eventBus providers.EventBus
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient)
		eventBus = events.NewRedisEventBus(redisClient)
	}

	// Initialize adapters
	baseProviderAdapter := database.NewProviderAdapter(pgClient)

	var providerAdapter repositories.ProviderRepository
	var cachedProviderAdapter *database.CachedProviderAdapter
	if cacheProvider != nil {
		cachedProviderAdapter = database.NewCachedProviderAdapter(baseProviderAdapter, cacheProvider, metrics)
		providerAdapter = cachedProviderAdapter
	} else {
		providerAdapter = baseProviderAdapter
	}

	requesterAdapter := database.NewRequesterAdapter(pgClient)
	scheduleAdapter := database.NewScheduleAdapter(pgClient)
	reservationAdapter := database.NewReservationAdapter(pgClient, metrics)
	ratingAdapter := database.NewRatingAdapter(pgClient)

	// Initialize services
	providerService := services.NewProviderService(providerAdapter)
	requesterService := services.NewRequesterService(requesterAdapter)
	scheduleService := services.NewScheduleService(scheduleAdapter, providerAdapter, reservationAdapter, eventBus)
	bookingService := services.NewBookingService(reservationAdapter, scheduleAdapter, providerAdapter, requesterAdapter, eventBus)

	var invalidator services.ProviderCacheInvalidator
	if cachedProviderAdapter != nil {
		invalidator = cachedProviderAdapter
	}
	ratingService := services.NewRatingService(ratingAdapter, requesterAdapter, invalidator)

	// Start the notification worker when both the bus and gateway are up
	if cfg.Notifications.Enabled && eventBus != nil {
		sender, err := notifications.NewGatewaySender(&cfg.Notifications)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize notification gateway")
		} else {
			notificationService := services.NewNotificationService(
				sqlx.NewDb(pgClient.DB(), "postgres"),
				sender,
				eventBus,
				requesterAdapter,
				providerAdapter,
			)
			if err := notificationService.Start(ctx, events.ChannelReservations); err != nil {
				log.Warn().Err(err).Msg("Failed to start notification worker")
			} else {
				log.Info().Msg("Notification worker started")
			}
		}
	}

	// Initialize handlers
	providerHandler := handlers.NewProviderHandler(providerService)
	requesterHandler := handlers.NewRequesterHandler(requesterService)
	scheduleHandler := handlers.NewScheduleHandler(scheduleService)
	bookingHandler := handlers.NewBookingHandler(bookingService, metrics)
	ratingHandler := handlers.NewRatingHandler(ratingService)

	router := routes.NewRouter(
		providerHandler,
		requesterHandler,
		scheduleHandler,
		bookingHandler,
		ratingHandler,
		cfg.Auth.JWTSecret,
		metrics,
	)
	handler := router.SetupRoutes()

	serverAddr := cfg.Server.ServerAddr()
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during server shutdown")
	}

	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing event bus")
		}
	}

	log.Info().Msg("Server stopped")
}
