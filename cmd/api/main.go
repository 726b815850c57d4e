// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/thesis-archive/internal/admin"
	"github.com/carterperez-dev/thesis-archive/internal/application"
	"github.com/carterperez-dev/thesis-archive/internal/audit"
	"github.com/carterperez-dev/thesis-archive/internal/auth"
	"github.com/carterperez-dev/thesis-archive/internal/config"
	"github.com/carterperez-dev/thesis-archive/internal/core"
	"github.com/carterperez-dev/thesis-archive/internal/department"
	"github.com/carterperez-dev/thesis-archive/internal/health"
	"github.com/carterperez-dev/thesis-archive/internal/janitor"
	"github.com/carterperez-dev/thesis-archive/internal/middleware"
	"github.com/carterperez-dev/thesis-archive/internal/notify"
	"github.com/carterperez-dev/thesis-archive/internal/policy"
	"github.com/carterperez-dev/thesis-archive/internal/server"
	"github.com/carterperez-dev/thesis-archive/internal/storage"
	"github.com/carterperez-dev/thesis-archive/internal/thesis"
	"github.com/carterperez-dev/thesis-archive/internal/user"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrate := flag.Bool("migrate", true, "apply pending migrations before serving")
	flag.Parse()

	if err := run(*configPath, *migrate); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string, migrate bool) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	if migrate {
		if err := core.Migrate(ctx, db.DB); err != nil {
			return err
		}
		logger.Info("migrations applied")
	}

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	files, err := storage.NewLocal(cfg.Storage)
	if err != nil {
		return err
	}
	logger.Info("file storage ready",
		"root", cfg.Storage.Root,
		"max_upload_bytes", cfg.Storage.MaxUploadBytes,
	)

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "ES256",
		"key_id", jwtManager.KeyID(),
	)

	mailer := notify.NewSender(cfg.Mail, logger)
	blacklist := core.NewTokenBlacklist(redis.Client)

	auditSvc := audit.NewService(audit.NewRepository(db.DB), logger)
	auditHandler := audit.NewHandler(auditSvc)

	userSvc := user.NewService(user.NewRepository(db.DB), auditSvc)
	userHandler := user.NewHandler(userSvc)

	authSvc := auth.NewService(auth.ServiceConfig{
		Repo:         auth.NewRepository(db.DB),
		JWT:          jwtManager,
		Users:        userSvc,
		Revoker:      blacklist,
		Mailer:       mailer,
		Verification: cfg.Verification,
		Logger:       logger,
	})
	authHandler := auth.NewHandler(authSvc, jwtManager, cfg.Cookie)

	deptSvc := department.NewService(department.NewRepository(db.DB), auditSvc)
	deptHandler := department.NewHandler(deptSvc)

	thesisRepo := thesis.NewRepository(db.DB)
	thesisSvc := thesis.NewService(thesis.ServiceConfig{
		Repo:    thesisRepo,
		Storage: files,
		Audit:   auditSvc,
		Logger:  logger,
	})
	thesisHandler := thesis.NewHandler(thesisSvc, cfg.Storage.MaxUploadBytes)

	appSvc := application.NewService(application.ServiceConfig{
		DB:      db.DB,
		Courses: deptSvc,
		Audit:   auditSvc,
	})
	appHandler := application.NewHandler(appSvc)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		Counters: admin.Counters{
			Students:            admin.RoleCounter(userSvc.CountByRole, policy.RoleStudent),
			Teachers:            admin.RoleCounter(userSvc.CountByRole, policy.RoleAdmin),
			Theses:              thesisSvc.Count,
			Departments:         deptSvc.Count,
			PendingApplications: appSvc.CountPending,
		},
		DBStats:    db.Stats,
		RedisStats: redis.PoolStats,
		DBPing:     db.Ping,
		RedisPing:  redis.Ping,
	})

	healthHandler := health.NewHandler(
		health.Dependency{Name: "database", Checker: db},
		health.Dependency{Name: "redis", Checker: redis},
		health.Dependency{Name: "storage", Checker: files},
	)

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit: middleware.PerWindow(
				cfg.RateLimit.Window,
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
			),
			FailOpen: true,
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	srv.MountOperational()
	authHandler.RegisterWellKnown(router)
	router.Handle("/files/*", files.FileServer("/files/"))

	gate := middleware.NewGate(middleware.GateConfig{
		Verifier:    jwtManager,
		Resolver:    userSvc,
		Revocations: blacklist,
		CookieName:  cfg.Cookie.Name,
	})
	authenticator := gate.Authenticator
	authLimiter := middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
		Limit: middleware.PerHour(
			cfg.RateLimit.AuthRequests,
			cfg.RateLimit.AuthBurst,
		),
		KeyFunc:  middleware.KeyByIPAndEndpoint,
		FailOpen: true,
	})
	staffOnly := middleware.RequireRole(policy.Staff...)
	superadminOnly := middleware.RequireRole(policy.RoleSuperadmin)

	router.Route("/api", func(r chi.Router) {
		authHandler.RegisterRoutes(r, auth.Gates{
			Required: gate.Authenticator,
			Soft:     gate.SoftAuthenticator,
			Optional: gate.OptionalAuth,
			Throttle: authLimiter.Handler,
		})

		userHandler.RegisterRoutes(r, authenticator)
		userHandler.RegisterAdminRoutes(r, authenticator, staffOnly, superadminOnly)

		thesisHandler.RegisterRoutes(r, authenticator)
		thesisHandler.RegisterAdminRoutes(r, authenticator, staffOnly)

		appHandler.RegisterRoutes(r, authenticator)
		appHandler.RegisterAdminRoutes(r, authenticator, staffOnly)

		deptHandler.RegisterRoutes(r)
		deptHandler.RegisterAdminRoutes(r, authenticator, superadminOnly)

		auditHandler.RegisterRoutes(r, authenticator, staffOnly)
		adminHandler.RegisterRoutes(r, authenticator, staffOnly, superadminOnly)
	})

	var workers sync.WaitGroup
	if cfg.Janitor.Enabled {
		sweeper := janitor.New(janitor.Config{
			Store:   thesisRepo,
			Storage: files,
			Janitor: cfg.Janitor,
			Logger:  logger,
		})
		workers.Add(1)
		go func() {
			defer workers.Done()
			sweeper.Run(ctx)
		}()
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()
	healthHandler.SetReady(true)

	select {
	case err := <-errChan:
		stop()
		workers.Wait()
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	workers.Wait()

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
