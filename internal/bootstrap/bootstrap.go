package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	appControllers "github.com/yigit/alumnitrack/internal/app/controllers"
	appMigrations "github.com/yigit/alumnitrack/internal/app/migrations"
	appRepos "github.com/yigit/alumnitrack/internal/app/repositories"
	appRoutes "github.com/yigit/alumnitrack/internal/app/routes"
	appServices "github.com/yigit/alumnitrack/internal/app/services"
	"github.com/yigit/alumnitrack/internal/config"
	"github.com/yigit/alumnitrack/internal/db"
	appMiddleware "github.com/yigit/alumnitrack/internal/middleware"
	pkgAuth "github.com/yigit/alumnitrack/internal/pkg/auth"
	"github.com/yigit/alumnitrack/internal/pkg/email"
	"github.com/yigit/alumnitrack/internal/pkg/helpers"
	"github.com/yigit/alumnitrack/internal/pkg/logger"
	"github.com/yigit/alumnitrack/internal/pkg/queue"
	"github.com/yigit/alumnitrack/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	DB          *db.PostgresDB
	Redis       *redis.Client // nil with the memory audit backend
	Repos       *appRepos.Repositories
	AuditQueue  queue.Queue
	AuditWorker *appServices.AuditWorker

	AuthService       appServices.AuthService
	AuditService      appServices.AuditService
	DuplicateGuard    appServices.DuplicateGuard
	AlumniService     appServices.AlumniService
	CompletionService appServices.CompletionService
	LifecycleService  appServices.LifecycleService
	BulkUploadService appServices.BulkUploadService
	ExportService     appServices.ExportService
	DashboardService  appServices.DashboardService

	Controllers    appRoutes.Controllers
	AuthMiddleware *appMiddleware.AuthMiddleware
	RateLimiter    *appMiddleware.TokenBucket
	JWTService     *pkgAuth.JWTService
	Logger         zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadConfig(config.ResolvePath())
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.ParseLevel(cfg.Logging.Level)
	lgr := logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: strings.ToLower(cfg.Logging.Format) == "text",
	})
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection and applies migrations when enabled.
// The server is started only after this returns.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*db.PostgresDB, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	if !cfg.Database.AutoMigrate {
		lgr.Info().Msg("Automatic migrations disabled")
		return database, nil
	}

	lgr.Info().Msg("Running database migrations...")
	if err := appMigrations.NewMigrator(cfg.GetMigrateConnectionString(), lgr).Up(); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		database.Close()
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	return database, nil
}

// SetupAuditQueue returns the queue carrying audit entries to the worker.
// The redis backend also returns its client so the caller can close it.
func SetupAuditQueue(cfg *config.Config, lgr zerolog.Logger) (queue.Queue, *redis.Client, error) {
	switch strings.ToLower(cfg.Audit.Backend) {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		lgr.Info().Str("addr", cfg.Redis.Addr).Str("key", cfg.Audit.RedisKey).Msg("Audit queue backed by redis")
		return queue.NewRedisQueue(client, cfg.Audit.RedisKey), client, nil
	default:
		lgr.Info().Int("bufferSize", cfg.Audit.BufferSize).Msg("Audit queue kept in memory")
		return queue.NewInMemory(cfg.Audit.BufferSize), nil, nil
	}
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(cfg *config.Config, database *db.PostgresDB, auditQueue queue.Queue, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		DB:         database,
		AuditQueue: auditQueue,
		Logger:     lgr,
	}
	deps.Repos = appRepos.NewRepositories(database)
	clock := helpers.SystemClock{}

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:       cfg.JWT.Secret,
		AccessTokenExp:  helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, time.Hour),
		RefreshTokenExp: helpers.ParseDuration(cfg.JWT.RefreshTokenExpiration, 720*time.Hour),
		TokenIssuer:     cfg.JWT.Issuer,
	})

	deps.AuditService = appServices.NewAuditService(auditQueue, deps.Repos.Audit, logger.Component("audit"))
	deps.AuditWorker = appServices.NewAuditWorker(auditQueue, deps.Repos.Audit, logger.Component("audit-worker"))

	deps.AuthService = appServices.NewAuthService(appServices.AuthDeps{
		Tx:        database,
		AdminRepo: deps.Repos.Admin,
		TokenRepo: deps.Repos.Token,
		ResetRepo: deps.Repos.PasswordResetToken,
		JWT:       deps.JWTService,
		Email: email.NewEmailService(email.SMTPConfig{
			Host:      cfg.SMTP.Host,
			Port:      cfg.SMTP.Port,
			Username:  cfg.SMTP.Username,
			Password:  cfg.SMTP.Password,
			FromName:  cfg.SMTP.FromName,
			FromEmail: cfg.SMTP.FromEmail,
			UseTLS:    cfg.SMTP.UseTLS,
			BaseURL:   cfg.Server.BaseURL,
		}, logger.Component("email")),
		Audit:         deps.AuditService,
		ResetTokenTTL: helpers.ParseDuration(cfg.JWT.ResetTokenExpiration, time.Hour),
		Clock:         clock,
	}, logger.Component("auth"))

	deps.DashboardService = appServices.NewDashboardService(deps.Repos.Alumni,
		helpers.ParseDuration(cfg.Cache.StatsTTL, time.Minute), clock, logger.Component("dashboard"))
	deps.DuplicateGuard = appServices.NewDuplicateGuard(deps.Repos.Alumni, logger.Component("duplicates"))
	deps.AlumniService = appServices.NewAlumniService(deps.Repos.Alumni, deps.DuplicateGuard,
		deps.AuditService, deps.DashboardService, logger.Component("alumni"))
	deps.CompletionService = appServices.NewCompletionService(deps.Repos.Alumni, deps.Repos.FormCompletion,
		deps.AuditService, clock, logger.Component("completion"))
	deps.LifecycleService = appServices.NewLifecycleService(database, deps.Repos.Alumni,
		deps.AuditService, deps.DashboardService, clock, logger.Component("lifecycle"))
	deps.BulkUploadService = appServices.NewBulkUploadService(deps.Repos.Alumni, deps.DuplicateGuard,
		deps.AuditService, deps.DashboardService, cfg.Cache.StagingSize,
		helpers.ParseDuration(cfg.Cache.StagingTTL, 30*time.Minute), clock, logger.Component("bulk-upload"))
	deps.ExportService = appServices.NewExportService(deps.Repos.Alumni, deps.AuditService, clock, logger.Component("export"))

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)
	if cfg.RateLimit.Enabled {
		deps.RateLimiter = appMiddleware.NewTokenBucket(cfg.RateLimit.Burst, cfg.RateLimit.PerMinute)
	}

	deps.Controllers = appRoutes.Controllers{
		Auth: appControllers.NewAuthController(deps.AuthService, lgr),
		Alumni: appControllers.NewAlumniController(deps.AlumniService, deps.DuplicateGuard,
			deps.CompletionService, deps.LifecycleService, deps.ExportService, lgr),
		Archive:    appControllers.NewArchiveController(deps.LifecycleService, lgr),
		BulkUpload: appControllers.NewBulkUploadController(deps.BulkUploadService, cfg.Server.MaxUploadBytes, lgr),
		Audit:      appControllers.NewAuditController(deps.AuditService, lgr),
		Dashboard:  appControllers.NewDashboardController(deps.DashboardService),
	}

	return deps, nil
}

// SeedDefaults creates the configured super admin
func SeedDefaults(cfg *config.Config, deps *Dependencies) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := seed.CreateDefaultAdmin(ctx, cfg, deps.AuthService, deps.Logger); err != nil {
		deps.Logger.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		appMiddleware.SecurityHeaders(),
		appMiddleware.Metrics(),
		appMiddleware.RequestLogger(logger.Component("http"), "/ping", "/healthz", "/metrics"),
	)

	appRoutes.SetupSwagger(router)
	appRoutes.SetupRouter(router, deps.Controllers, deps.AuthMiddleware, deps.RateLimiter)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})
	router.GET("/healthz", healthHandler(deps))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}

func healthHandler(deps *Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		checks := gin.H{"database": "ok"}
		status := http.StatusOK

		if err := deps.DB.Ping(c.Request.Context()); err != nil {
			checks["database"] = err.Error()
			status = http.StatusServiceUnavailable
		}
		if deps.Redis != nil {
			checks["redis"] = "ok"
			if err := deps.Redis.Ping(c.Request.Context()).Err(); err != nil {
				checks["redis"] = err.Error()
				status = http.StatusServiceUnavailable
			}
		}

		state := "healthy"
		if status != http.StatusOK {
			state = "unhealthy"
		}
		c.JSON(status, gin.H{"status": state, "checks": checks})
	}
}
