package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-telegram/bot"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Freeeeeet/sirius_schedule/internal/api"
	"github.com/Freeeeeet/sirius_schedule/internal/app"
	"github.com/Freeeeeet/sirius_schedule/internal/config"
	"github.com/Freeeeeet/sirius_schedule/internal/connectivity"
	"github.com/Freeeeeet/sirius_schedule/internal/controller"
	"github.com/Freeeeeet/sirius_schedule/internal/controller/handlers"
	"github.com/Freeeeeet/sirius_schedule/internal/controller/sessions"
	"github.com/Freeeeeet/sirius_schedule/internal/metrics"
	"github.com/Freeeeeet/sirius_schedule/internal/remote"
	"github.com/Freeeeeet/sirius_schedule/internal/repository"
	"github.com/Freeeeeet/sirius_schedule/internal/service"
)

const shutdownTimeout = 10 * time.Second

func main() {

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := app.NewLogger(cfg.Environment, "sirius-schedule-bot")
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	defer logger.Sync()

	logger.Sugar().Infow("Starting schedule bot",
		"environment", cfg.Environment,
		"api", cfg.APIBaseURL,
		"token_length", len(cfg.TelegramToken))

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Bot stopped with error", zap.Error(err))
	}
	logger.Info("Bot stopped")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	if cfg.TelegramToken == "" {
		return errors.New("TELEGRAM_TOKEN is required but not set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	// База и миграции
	pool, err := pgxpool.New(ctx, cfg.GetDBDSN())
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	migrator, err := app.NewMigrator(pool, cfg.MigrationsPath, logger)
	if err != nil {
		return err
	}
	if err := migrator.Run(ctx); err != nil {
		return err
	}
	if err := migrator.Close(); err != nil {
		logger.Warn("Failed to close migrator", zap.Error(err))
	}

	// Метрики
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	// Сеть
	client, err := remote.NewClient(remote.Options{
		BaseURL:   cfg.APIBaseURL,
		Timeout:   cfg.APITimeout,
		RateLimit: cfg.APIRateLimit,
		Burst:     2,
	}, logger)
	if err != nil {
		return err
	}
	monitor := connectivity.NewMonitor(client, cfg.ConnectivityProbeInterval, true, m, logger)
	monitor.Check(ctx)

	// Репозитории и сервисы
	cacheRepo := repository.NewScheduleCacheRepository(pool)
	prefsRepo := repository.NewPreferencesRepository(pool)

	scheduleService := service.NewScheduleService(cacheRepo, client, monitor, cfg.VolatileWeekOffsets, m, logger)
	catalogService := service.NewCatalogService(client, monitor, service.DefaultCatalogTTL, logger)
	prefsService := service.NewPreferencesService(prefsRepo, logger)

	registry := sessions.NewRegistry(ctx, scheduleService, service.SessionOptions{
		Location: loc,
		Metrics:  m,
		Logger:   logger,
	}, logger)
	defer registry.CloseAll()

	// Telegram
	b, err := bot.New(cfg.TelegramToken)
	if err != nil {
		return fmt.Errorf("create bot: %w", err)
	}
	h := handlers.NewHandlers(b, registry, scheduleService, prefsService, catalogService, loc, logger)
	botController := controller.NewBotController(b, h, logger)
	if err := botController.RegisterHandlers(ctx); err != nil {
		logger.Warn("Bot commands menu not set", zap.Error(err))
	}

	scheduler := app.NewScheduler(scheduleService, cacheRepo, prefsService, h, app.SchedulerOptions{
		Tick:          cfg.SchedulerTick,
		RetryAttempts: cfg.RefreshRetryAttempts,
		RetryBackoff:  cfg.RefreshRetryBackoff,
		VolatileWeeks: cfg.VolatileWeekOffsets,
		Location:      loc,
	}, m, logger)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		monitor.Run(gctx)
		return nil
	})

	updates, unsubscribe := monitor.Subscribe()
	defer unsubscribe()
	g.Go(func() error {
		registry.Run(gctx, updates, cfg.ConnectivityProbeInterval, monitor.IsOnline)
		return nil
	})

	scheduler.Start(gctx)
	defer scheduler.Stop()

	if cfg.HTTPAddr != "" {
		server := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           api.NewRouter(api.NewHandlers(scheduleService, catalogService, monitor, reg, logger)),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info("HTTP API listening", zap.String("addr", cfg.HTTPAddr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		return botController.Start(gctx)
	})

	return g.Wait()
}
