package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/backoffice/internal/config"
	"github.com/iliyamo/backoffice/internal/database"
	"github.com/iliyamo/backoffice/internal/handler"
	"github.com/iliyamo/backoffice/internal/ident"
	"github.com/iliyamo/backoffice/internal/logging"
	"github.com/iliyamo/backoffice/internal/middleware"
	"github.com/iliyamo/backoffice/internal/queue"
	"github.com/iliyamo/backoffice/internal/repository"
	"github.com/iliyamo/backoffice/internal/router"
	"github.com/iliyamo/backoffice/internal/service"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.New("backoffice", cfg.LogLevel)

	e := echo.New()
	e.HideBanner = true
	e.Logger = logger
	e.Validator = handler.NewRequestValidator()
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{
		Generator: func() string { return uuid.NewString() },
	}))
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			fields := log.JSON{
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency_ms": v.Latency.Milliseconds(),
				"request_id": v.RequestID,
			}
			if v.Error != nil {
				fields["error"] = v.Error.Error()
				logger.Errorj(fields)
				return nil
			}
			logger.Infoj(fields)
			return nil
		},
	}))
	e.Use(echomw.Recover())

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logger.Fatalf("connect database: %v", err)
	}
	defer db.Close()
	if cfg.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := database.EnsureSchema(ctx, db)
		cancel()
		if err != nil {
			logger.Fatalf("apply schema: %v", err)
		}
		logger.Info("schema is up to date")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var events service.EventPublisher = service.NopPublisher{}
	if cfg.EventsEnabled {
		events = queue.NewPublisher(cfg.RabbitMQURL, logger)
		consumer := queue.NewConsumer(cfg.RabbitMQURL, cfg.AuditLogDir, logger)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Errorf("event consumer stopped: %v", err)
			}
		}()
	}

	bookingRepo := repository.NewBookingRepo(db)
	customerRepo := repository.NewCustomerRepo(db)
	applicationRepo := repository.NewApplicationRepo(db)
	studentRepo := repository.NewStudentRepo(db)

	aggregator := service.NewCustomerAggregator(bookingRepo, customerRepo, events, logger)
	numbers := &ident.Generator{
		Prefix: cfg.StudentIDPrefix,
		Width:  cfg.StudentIDWidth,
		Source: ident.SuffixFunc(studentRepo.NextSequence),
	}

	handlers := router.Handlers{
		Bookings:  handler.NewBookingHandler(service.NewBookingService(bookingRepo, aggregator, logger)),
		Customers: handler.NewCustomerHandler(service.NewCustomerService(customerRepo, bookingRepo, aggregator)),
		Applications: handler.NewApplicationHandler(service.NewApplicationService(
			applicationRepo, studentRepo, numbers, cfg.DefaultCohort, events, logger)),
	}

	// Redis backs the response cache and the rate limiter.  Without it both
	// are skipped and the API keeps serving.
	var rdb *redis.Client
	if client, err := config.NewRedisClient(config.LoadRedisConfig()); err != nil {
		logger.Warnf("redis unavailable, cache and rate limit disabled: %v", err)
	} else {
		rdb = client
		defer rdb.Close()
	}
	cacheCfg := config.LoadCacheConfig()
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, repository.NewUserRepo(db), repository.NewTokenRepo(db)), cfg.JWTSecret)
	router.RegisterBackoffice(e, handlers, cfg.JWTSecret,
		middleware.NewRedisCache(cacheCfg, rdb),
		middleware.PurgeCache(cacheCfg, rdb),
	)

	addr := ":" + cfg.Port
	go func() {
		logger.Infof("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("shutdown: %v", err)
	}
}
