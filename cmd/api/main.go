// Package main is the entry point for the LifeQuest Hub API process.
//
// The API serves the REST surface: account registration, character
// creation, XP awards, level-ups, tasks, journal entries and the
// dashboard. Background jobs (daily task suggestions, weather cache
// warming) run in the separate worker process, see cmd/worker.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lifequest/lifequest-hub/config"
	"github.com/lifequest/lifequest-hub/internal/application/command"
	"github.com/lifequest/lifequest-hub/internal/application/eventhandler"
	"github.com/lifequest/lifequest-hub/internal/application/query"
	"github.com/lifequest/lifequest-hub/internal/domain/character"
	"github.com/lifequest/lifequest-hub/internal/domain/shared"
	"github.com/lifequest/lifequest-hub/internal/infrastructure/external/openai"
	"github.com/lifequest/lifequest-hub/internal/infrastructure/external/weather"
	"github.com/lifequest/lifequest-hub/internal/infrastructure/messaging"
	"github.com/lifequest/lifequest-hub/internal/infrastructure/persistence/postgres"
	"github.com/lifequest/lifequest-hub/internal/infrastructure/persistence/redis"
	httpserver "github.com/lifequest/lifequest-hub/internal/interface/http"
	"github.com/lifequest/lifequest-hub/pkg/logger"
	"github.com/lifequest/lifequest-hub/pkg/timeutil"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting LifeQuest Hub API",
		"env", string(cfg.App.Environment),
		"version", cfg.App.Version,
		"timezone", cfg.App.Timezone,
	)

	// Day boundaries and suggestion windows follow the configured timezone.
	timeutil.SetLocation(cfg.App.Location)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. DATABASE (PostgreSQL)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection...")
		dbConn.Close()
	}()
	log.Info("database connection established")

	// ─────────────────────────────────────────────────────────────────────────
	// 4. MIGRATIONS
	// ─────────────────────────────────────────────────────────────────────────
	if cfg.Database.RunMigrations {
		log.Info("checking database migrations...")
		migrator := postgres.NewMigrator(dbConn)
		if err := migrator.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("database schema is up to date")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. REDIS (optional)
	// ─────────────────────────────────────────────────────────────────────────
	var redisCache *redis.Cache
	var sheetCache *redis.SheetCache
	var weatherCache *redis.WeatherCache

	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis...")
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

		redisCache, err = redis.NewCache(redisCfg)
		if err != nil {
			// The app works without Redis; sheets are rebuilt from
			// postgres and weather context is fetched on demand.
			log.Warn("failed to connect to Redis, caching disabled", "error", err)
			redisCache = nil
		} else {
			defer redisCache.Close()
			sheetCache = redis.NewSheetCache(redisCache)
			weatherCache = redis.NewWeatherCache(redisCache)
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. REPOSITORIES
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing repositories...")
	userRepo := postgres.NewUserRepository(dbConn)
	characterRepo := postgres.NewCharacterRepository(dbConn)
	taskRepo := postgres.NewTaskRepository(dbConn)
	journalRepo := postgres.NewJournalRepository(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing event bus...")
	eventBusConfig := messaging.DefaultInMemoryEventBusConfig()
	eventBusConfig.Logger = log
	eventBusConfig.AsyncMode = true
	eventBus := messaging.NewInMemoryEventBus(eventBusConfig)
	defer func() {
		log.Info("closing event bus...")
		_ = eventBus.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 8. EXTERNAL CLIENTS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing external clients...")

	// OpenAI backs title generation and journal analysis. Without a key
	// the app degrades: fallback titles, entries recorded unanalyzed.
	var titleGen character.TitleGenerator
	var entryAnalyzer command.EntryAnalyzer
	if cfg.OpenAI.APIKey != "" {
		openaiCfg := openai.DefaultClientConfig(cfg.OpenAI.APIKey)
		openaiCfg.BaseURL = cfg.OpenAI.BaseURL
		openaiCfg.Model = cfg.OpenAI.Model
		openaiCfg.Timeout = cfg.OpenAI.RequestTimeout
		openaiCfg.Temperature = cfg.OpenAI.Temperature
		openaiCfg.MaxTokens = cfg.OpenAI.MaxTokens
		openaiCfg.RateLimiterConfig.RequestsPerSecond = cfg.OpenAI.RateLimit
		openaiCfg.RateLimiterConfig.BurstSize = cfg.OpenAI.RateLimitBurst
		openaiCfg.Logger = log
		openaiClient := openai.NewClient(openaiCfg)
		titleGen = openaiClient
		entryAnalyzer = openaiClient
		log.Info("OpenAI client initialized", "model", cfg.OpenAI.Model)
	} else {
		log.Warn("OPENAI_API_KEY not set, titles and analysis use fallbacks")
	}

	// Weather context for journal entries and the dashboard.
	var journalWeather command.WeatherProvider
	var dashboardWeather query.DashboardWeather
	if !cfg.Weather.Disabled {
		weatherCfg := weather.DefaultClientConfig(cfg.Weather.Latitude, cfg.Weather.Longitude)
		weatherCfg.BaseURL = cfg.Weather.BaseURL
		weatherCfg.UserAgent = cfg.Weather.UserAgent
		weatherCfg.Timeout = cfg.Weather.RequestTimeout
		weatherCfg.Logger = log
		weatherClient := weather.NewClient(weatherCfg)

		var snapshotCache weather.SnapshotCache
		if weatherCache != nil {
			snapshotCache = weatherCache
		}
		provider := weather.NewCachedProvider(weatherClient, snapshotCache)
		journalWeather = provider
		dashboardWeather = provider
		log.Info("weather client initialized",
			"lat", cfg.Weather.Latitude,
			"lon", cfg.Weather.Longitude,
		)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 9. APPLICATION HANDLERS (CQRS)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing application handlers...")

	var sheetInvalidator command.SheetInvalidator
	var querySheetCache query.SheetCache
	if sheetCache != nil {
		sheetInvalidator = sheetCache
		querySheetCache = sheetCache
	}

	// Commands
	registerUserHandler := command.NewRegisterUserHandler(userRepo, eventBus)
	createCharacterHandler := command.NewCreateCharacterHandler(characterRepo, eventBus)
	awardXPHandler := command.NewAwardXPHandler(characterRepo, eventBus, sheetInvalidator)
	levelUpStatHandler := command.NewLevelUpStatHandler(
		characterRepo,
		titleGen,
		eventBus,
		sheetInvalidator,
		command.DefaultLevelUpStatHandlerConfig(),
	)
	createTaskHandler := command.NewCreateTaskHandler(taskRepo, characterRepo)
	completeTaskHandler := command.NewCompleteTaskHandler(taskRepo, awardXPHandler, eventBus)
	recordJournalEntryHandler := command.NewRecordJournalEntryHandler(
		journalRepo,
		awardXPHandler,
		entryAnalyzer,
		journalWeather,
		eventBus,
		log,
		command.DefaultRecordJournalEntryHandlerConfig(),
	)

	// Queries
	sheetHandler := query.NewGetCharacterSheetHandler(characterRepo, querySheetCache)
	statProgressHandler := query.NewGetStatProgressHandler(characterRepo)
	dashboardHandler := query.NewGetDashboardHandler(sheetHandler, taskRepo, journalRepo, dashboardWeather)
	listTasksHandler := query.NewListTasksHandler(taskRepo)
	listJournalEntriesHandler := query.NewListJournalEntriesHandler(journalRepo)

	// ─────────────────────────────────────────────────────────────────────────
	// 10. EVENT HANDLERS
	// ─────────────────────────────────────────────────────────────────────────
	// Level-up title enrichment runs off the request path; the command
	// returns a fallback title immediately and this handler upgrades it.
	statLeveledUpHandler := eventhandler.NewOnStatLeveledUpHandler(
		characterRepo,
		titleGen,
		eventBus,
		log,
		eventhandler.DefaultStatLeveledUpConfig(),
	)
	if err := eventBus.Subscribe(shared.EventStatLeveledUp, statLeveledUpHandler.Handle); err != nil {
		return fmt.Errorf("failed to subscribe level-up handler: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 11. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing HTTP server...")

	httpLog := logger.New(logger.Options{
		Output: os.Stdout,
		Level:  logger.ParseLevel(cfg.Observability.LogLevel),
	})

	serverCfg := httpserver.DefaultConfig()
	serverCfg.Host = cfg.HTTP.Host
	serverCfg.Port = cfg.HTTP.Port
	serverCfg.ReadTimeout = cfg.HTTP.ReadTimeout
	serverCfg.WriteTimeout = cfg.HTTP.WriteTimeout
	serverCfg.IdleTimeout = cfg.HTTP.IdleTimeout
	serverCfg.EnableCORS = cfg.HTTP.EnableCORS
	serverCfg.AllowedOrigins = cfg.HTTP.AllowedOrigins
	serverCfg.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute
	serverCfg.APIKeys = cfg.HTTP.APIKeys

	deps := httpserver.Dependencies{
		RegisterUserHandler:       registerUserHandler,
		CreateCharacterHandler:    createCharacterHandler,
		AwardXPHandler:            awardXPHandler,
		LevelUpStatHandler:        levelUpStatHandler,
		CreateTaskHandler:         createTaskHandler,
		CompleteTaskHandler:       completeTaskHandler,
		RecordJournalEntryHandler: recordJournalEntryHandler,
		GetCharacterSheetHandler:  sheetHandler,
		GetStatProgressHandler:    statProgressHandler,
		GetDashboardHandler:       dashboardHandler,
		ListTasksHandler:          listTasksHandler,
		ListJournalEntriesHandler: listJournalEntriesHandler,
		Logger:                    httpLog,
		HealthChecker:             &healthChecker{db: dbConn, cache: redisCache},
	}

	server := httpserver.NewServer(serverCfg, deps)

	// ─────────────────────────────────────────────────────────────────────────
	// 12. START + GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	errCh := server.StartAsync()
	log.Info("LifeQuest Hub API is running", "address", server.Address())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	case <-ctx.Done():
		log.Info("context cancelled")
	}

	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown failed", "error", err)
	}

	log.Info("shutdown completed successfully")
	return nil
}

// healthChecker reports backing-service health for /health and /ready.
type healthChecker struct {
	db    *postgres.Connection
	cache *redis.Cache
}

func (h *healthChecker) Check(ctx context.Context) httpserver.HealthStatus {
	status := httpserver.HealthStatus{
		Healthy:    true,
		Ready:      true,
		Components: make(map[string]string),
	}

	if err := h.db.Ping(ctx); err != nil {
		status.Healthy = false
		status.Ready = false
		status.Message = "database unreachable"
		status.Components["postgres"] = err.Error()
	} else {
		status.Components["postgres"] = "ok"
	}

	// Redis is optional; a cache outage degrades but does not fail us.
	if h.cache != nil {
		if err := h.cache.Ping(ctx); err != nil {
			status.Components["redis"] = err.Error()
		} else {
			status.Components["redis"] = "ok"
		}
	} else {
		status.Components["redis"] = "disabled"
	}

	return status
}

// setupLogger configures structured logging for the process.
func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slogLevel(cfg.Observability.LogLevel),
	}

	var handler slog.Handler
	if cfg.Observability.LogFormat == "json" || cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)

	return log
}

func slogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
