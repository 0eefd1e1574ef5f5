package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-medical-appointment/config"
	deliveryHttp "go-medical-appointment/internal/delivery/http"
	"go-medical-appointment/internal/delivery/http/handler"
	"go-medical-appointment/internal/delivery/http/middleware"
	"go-medical-appointment/internal/infrastructure/cache"
	"go-medical-appointment/internal/infrastructure/database"
	"go-medical-appointment/internal/infrastructure/logging"
	"go-medical-appointment/internal/infrastructure/messaging"
	"go-medical-appointment/internal/infrastructure/storage"
	"go-medical-appointment/internal/repository"
	"go-medical-appointment/internal/service"
	"go-medical-appointment/internal/usecase"
	"go-medical-appointment/pkg/jwt"
	"go-medical-appointment/pkg/validator"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

// Publisher is an event publisher that owns a connection.
type Publisher interface {
	service.EventPublisher
	Close() error
}

// App holds all dependencies for the application
type App struct {
	Config      *config.Config
	Log         *logrus.Logger
	DB          *gorm.DB
	RedisClient *redis.Client
	Publisher   Publisher
	Scheduler   *service.AppointmentScheduler
	RateLimiter *middleware.RateLimiter
	Server      *http.Server
}

// New creates a new App instance with all dependencies initialized
func New(ctx context.Context) (*App, error) {
	app := &App{}

	cfg, log, err := loadBase()
	if err != nil {
		return nil, err
	}
	app.Config = cfg
	app.Log = log

	// Initialize database
	db, err := database.NewPostgresConnection(cfg.DB, cfg.IsProduction())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = db
	log.Info("Database connected successfully")

	// Initialize Redis
	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	app.RedisClient = redisClient
	log.Info("Redis connected successfully")

	app.Publisher = newPublisher(cfg.Kafka, log)

	if err := app.initialize(ctx); err != nil {
		app.Close()
		return nil, err
	}

	return app, nil
}

// loadBase reads configuration and sets up logging.
func loadBase() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logging.Setup(cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	log.Info("Configuration loaded successfully")

	return cfg, log, nil
}

func newPublisher(cfg config.KafkaConfig, log *logrus.Logger) Publisher {
	if len(cfg.Brokers) == 0 {
		log.Info("No Kafka brokers configured, domain events will only be logged")
		return messaging.NewLogPublisher(log)
	}
	log.Infof("Publishing domain events to Kafka topic %s", cfg.Topic)
	return messaging.NewKafkaPublisher(cfg, log)
}

func calendarSettings(cfg config.CalendarConfig) (usecase.CalendarSettings, error) {
	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return usecase.CalendarSettings{}, fmt.Errorf("invalid calendar time zone %q: %w", cfg.TimeZone, err)
	}
	return usecase.CalendarSettings{Location: loc, MaxRangeDays: cfg.MaxRangeDays}, nil
}

// initialize creates and configures every layer and the HTTP server
func (app *App) initialize(ctx context.Context) error {
	cfg, db, log, redisClient := app.Config, app.DB, app.Log, app.RedisClient

	settings, err := calendarSettings(cfg.Calendar)
	if err != nil {
		return err
	}

	// Initialize JWT service
	jwtService := jwt.NewJWTService(cfg.JWT)

	// Initialize validator
	customValidator := validator.NewValidator()

	// Initialize repositories
	userRepo := repository.NewUserRepository()
	doctorProfileRepo := repository.NewDoctorProfileRepository()
	patientProfileRepo := repository.NewPatientProfileRepository()
	availabilityRepo := repository.NewDoctorAvailabilityRepository()
	appointmentRepo := repository.NewAppointmentRepository()
	analysisRepo := repository.NewAnalysisRepository(db)
	patientAnalysisRepo := repository.NewPatientAnalysisRepository()
	auditLogRepo := repository.NewAuditLogRepository()

	// Initialize services
	auditService := service.NewAuditService(log, auditLogRepo)
	historyCache := service.NewHistoryCache(redisClient, 0)
	slotLockService := service.NewSlotLockService(db, redisClient, log)

	// Rebuild slot locks lost with a Redis restart before accepting bookings
	if err := slotLockService.SyncOnStartup(ctx); err != nil {
		log.Warnf("Failed to sync slot locks on startup: %+v", err)
	}

	var resultStorage usecase.ResultStorage
	s3Storage, err := storage.NewS3Storage(ctx, cfg.Storage)
	switch {
	case errors.Is(err, storage.ErrStorageDisabled):
		log.Info("S3 bucket not configured, result file uploads are disabled")
	case err != nil:
		return fmt.Errorf("failed to initialize result storage: %w", err)
	default:
		resultStorage = s3Storage
	}

	if cfg.Scheduler.Enabled {
		scheduler, err := service.NewAppointmentScheduler(cfg.Scheduler, db, log, appointmentRepo, app.Publisher)
		if err != nil {
			return err
		}
		app.Scheduler = scheduler
	}

	// Initialize usecases
	authUsecase := usecase.NewAuthUsecase(db, log, userRepo, patientProfileRepo, auditService, jwtService, redisClient)
	doctorProfileUsecase := usecase.NewDoctorProfileUsecase(db, log, userRepo, doctorProfileRepo, auditService, authUsecase)
	patientProfileUsecase := usecase.NewPatientProfileUsecase(db, log, userRepo, patientProfileRepo, auditService)
	availabilityUsecase := usecase.NewAvailabilityUsecase(db, log, availabilityRepo, doctorProfileRepo, auditService, settings)
	appointmentUsecase := usecase.NewAppointmentUsecase(db, log, appointmentRepo, doctorProfileRepo, patientProfileRepo, auditService, slotLockService, app.Publisher)
	analysisUsecase := usecase.NewAnalysisUsecase(db, log, analysisRepo, patientAnalysisRepo, patientProfileRepo, appointmentRepo, auditService, historyCache, resultStorage, app.Publisher)
	calendarUsecase := usecase.NewCalendarUsecase(db, log, appointmentRepo, availabilityRepo, settings)
	auditLogUsecase := usecase.NewAuditLogUsecase(db, log, auditLogRepo)

	// Initialize handlers
	handlers := deliveryHttp.Handlers{
		Auth:         handler.NewAuthHandler(authUsecase, customValidator, jwtService),
		Doctor:       handler.NewDoctorHandler(doctorProfileUsecase, customValidator),
		Patient:      handler.NewPatientHandler(patientProfileUsecase, customValidator),
		Availability: handler.NewAvailabilityHandler(availabilityUsecase, customValidator, settings.Location),
		Appointment:  handler.NewAppointmentHandler(appointmentUsecase, customValidator),
		Analysis:     handler.NewAnalysisHandler(analysisUsecase, customValidator),
		Calendar:     handler.NewCalendarHandler(calendarUsecase, customValidator),
		AuditLog:     handler.NewAuditLogHandler(auditLogUsecase),
	}

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtService, redisClient, log)
	corsMiddleware := middleware.NewCORSMiddleware(cfg.App.CORSOrigins)
	app.RateLimiter = middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metricsMiddleware, err := middleware.NewMetricsMiddleware(registry)
	if err != nil {
		return fmt.Errorf("failed to register HTTP metrics: %w", err)
	}

	// Initialize router
	router := deliveryHttp.NewRouter(
		handlers,
		authMiddleware,
		corsMiddleware,
		app.RateLimiter,
		metricsMiddleware,
		promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	)

	// Create server
	app.Server = &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.App.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return nil
}

// Run starts the HTTP server and handles graceful shutdown
func (app *App) Run() {
	if app.Scheduler != nil {
		app.Scheduler.Start()
	}

	// Start server in goroutine
	go func() {
		app.Log.Infof("Server starting on port %s", app.Config.App.Port)
		app.Log.Infof("Environment: %s", app.Config.App.Env)
		if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	app.waitForShutdown()
}

// waitForShutdown blocks until an interrupt signal is received
func (app *App) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	app.Log.Info("Shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Shutdown HTTP server gracefully
	if err := app.Server.Shutdown(ctx); err != nil {
		app.Log.Errorf("Server forced to shutdown: %v", err)
	}

	if app.Scheduler != nil {
		app.Scheduler.Stop(ctx)
	}

	// Close connections
	app.Close()

	app.Log.Info("Server shutdown complete")
}

// Close closes all connections (database, redis, broker)
func (app *App) Close() {
	if app.RateLimiter != nil {
		app.RateLimiter.Stop()
	}

	if app.Publisher != nil {
		if err := app.Publisher.Close(); err != nil {
			app.Log.Warnf("Failed to close event publisher: %+v", err)
		}
	}

	// Close database connection
	if app.DB != nil {
		sqlDB, err := app.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}

	// Close Redis connection
	if app.RedisClient != nil {
		app.RedisClient.Close()
	}
}
