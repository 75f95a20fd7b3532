// Package main is the entry point for the LifeQuest Hub worker process.
//
// The worker runs the periodic jobs that keep the game feeling alive
// without anyone opening the app:
//   - Daily AI task suggestions targeting each character's weakest stats
//   - Weather cache warming so journal entries get context without
//     blocking on the forecast API
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lifequest/lifequest-hub/config"
	"github.com/lifequest/lifequest-hub/internal/infrastructure/external/openai"
	"github.com/lifequest/lifequest-hub/internal/infrastructure/external/weather"
	"github.com/lifequest/lifequest-hub/internal/infrastructure/persistence/postgres"
	"github.com/lifequest/lifequest-hub/internal/infrastructure/persistence/redis"
	"github.com/lifequest/lifequest-hub/internal/infrastructure/scheduler"
	"github.com/lifequest/lifequest-hub/internal/infrastructure/scheduler/jobs"
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
	log.Info("starting LifeQuest Hub worker",
		"env", string(cfg.App.Environment),
		"timezone", cfg.App.Timezone,
	)

	if !cfg.Scheduler.Enabled {
		log.Warn("scheduler is disabled, nothing to do")
		return nil
	}

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

	// The worker needs the current schema too.
	if cfg.Database.RunMigrations {
		log.Info("checking database migrations...")
		migrator := postgres.NewMigrator(dbConn)
		if err := migrator.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("database schema is up to date")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. REDIS (optional, backs the weather cache)
	// ─────────────────────────────────────────────────────────────────────────
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

		redisCache, err := redis.NewCache(redisCfg)
		if err != nil {
			log.Warn("failed to connect to Redis, weather warming disabled", "error", err)
		} else {
			defer redisCache.Close()
			weatherCache = redis.NewWeatherCache(redisCache)
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. REPOSITORIES
	// ─────────────────────────────────────────────────────────────────────────
	characterRepo := postgres.NewCharacterRepository(dbConn)
	taskRepo := postgres.NewTaskRepository(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 6. SCHEDULER + JOBS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing scheduler...")
	sched := scheduler.NewScheduler(scheduler.SchedulerConfig{
		Logger:        log,
		Timezone:      cfg.App.Location,
		EnableMetrics: true,
	})

	registered := 0

	// Daily task suggestions need the OpenAI client.
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

		suggestCfg := jobs.DefaultSuggestDailyTasksConfig()
		suggestCfg.MaxPendingSuggested = cfg.Scheduler.MaxPendingSuggested
		suggestCfg.SuggestionsPerCharacter = cfg.Scheduler.SuggestionsPerCharacter
		suggestCfg.Timeout = cfg.Scheduler.JobTimeout
		suggestCfg.Concurrency = cfg.Scheduler.MaxConcurrentJobs

		suggestJob := jobs.NewSuggestDailyTasksJob(characterRepo, taskRepo, openaiClient, log, suggestCfg)
		suggestSchedule, err := scheduler.NewDailyAtSchedule(
			cfg.Scheduler.SuggestionHour,
			cfg.Scheduler.SuggestionMinute,
			cfg.App.Location,
		)
		if err != nil {
			return fmt.Errorf("invalid suggestion schedule: %w", err)
		}
		if err := sched.Register(suggestJob, suggestSchedule); err != nil {
			return fmt.Errorf("failed to register %s: %w", suggestJob.Name(), err)
		}
		registered++
		log.Info("registered job",
			"job", suggestJob.Name(),
			"schedule", suggestSchedule.String(),
		)
	} else {
		log.Warn("OPENAI_API_KEY not set, daily task suggestions disabled")
	}

	// Weather warming needs both the forecast client and a cache to warm.
	if !cfg.Weather.Disabled && weatherCache != nil {
		weatherCfg := weather.DefaultClientConfig(cfg.Weather.Latitude, cfg.Weather.Longitude)
		weatherCfg.BaseURL = cfg.Weather.BaseURL
		weatherCfg.UserAgent = cfg.Weather.UserAgent
		weatherCfg.Timeout = cfg.Weather.RequestTimeout
		weatherCfg.Logger = log
		weatherClient := weather.NewClient(weatherCfg)
		provider := weather.NewCachedProvider(weatherClient, weatherCache)

		warmJob := jobs.NewWarmWeatherCacheJob(provider, log, cfg.Weather.RequestTimeout)
		warmSchedule := scheduler.NewIntervalSchedule(cfg.Scheduler.WeatherWarmInterval)
		if err := sched.Register(warmJob, warmSchedule); err != nil {
			return fmt.Errorf("failed to register %s: %w", warmJob.Name(), err)
		}
		registered++
		log.Info("registered job",
			"job", warmJob.Name(),
			"schedule", warmSchedule.String(),
		)
	}

	if registered == 0 {
		log.Warn("no jobs registered, exiting")
		return nil
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. START + GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	log.Info("LifeQuest Hub worker is running", "jobs", registered)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		log.Info("context cancelled")
	}

	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())
	if err := sched.Stop(); err != nil {
		log.Error("scheduler stop failed", "error", err)
	}

	log.Info("shutdown completed successfully")
	return nil
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
