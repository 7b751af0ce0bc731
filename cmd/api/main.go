package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/adsdental/clinic-api/internal/config"
	"github.com/adsdental/clinic-api/internal/handler"
	appointmentHandler "github.com/adsdental/clinic-api/internal/handler/appointment"
	authHandler "github.com/adsdental/clinic-api/internal/handler/auth"
	dentistHandler "github.com/adsdental/clinic-api/internal/handler/dentist"
	patientHandler "github.com/adsdental/clinic-api/internal/handler/patient"
	surgeryHandler "github.com/adsdental/clinic-api/internal/handler/surgery"
	userHandler "github.com/adsdental/clinic-api/internal/handler/user"
	"github.com/adsdental/clinic-api/internal/middleware"
	"github.com/adsdental/clinic-api/internal/repository/postgres"
	"github.com/adsdental/clinic-api/internal/router"
	appointmentService "github.com/adsdental/clinic-api/internal/service/appointment"
	authService "github.com/adsdental/clinic-api/internal/service/auth"
	dentistService "github.com/adsdental/clinic-api/internal/service/dentist"
	patientService "github.com/adsdental/clinic-api/internal/service/patient"
	surgeryService "github.com/adsdental/clinic-api/internal/service/surgery"
	userService "github.com/adsdental/clinic-api/internal/service/user"
	"github.com/adsdental/clinic-api/pkg/auth"
	"github.com/adsdental/clinic-api/pkg/logger"
	"github.com/adsdental/clinic-api/pkg/messaging/redis"
	"github.com/adsdental/clinic-api/pkg/metrics"
	"github.com/adsdental/clinic-api/pkg/security"
	"github.com/adsdental/clinic-api/pkg/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := postgres.Migrate(cfg.Database); err != nil {
		log.Fatal().Err(err).Msg("failed to apply migrations")
	}

	m := metrics.NewMetrics("clinic_api")

	userRepo := postgres.NewUserRepository(db)
	patientRepo := postgres.NewPatientRepository(db)
	dentistRepo := postgres.NewDentistRepository(db)
	surgeryRepo := postgres.NewSurgeryRepository(db)
	addressRepo := postgres.NewAddressRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)

	hasher := security.NewBcryptHasher(cfg.Security.BcryptCost)
	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Expiry)

	authSvc := authService.NewService(userRepo, jwtSvc, hasher)
	userSvc := userService.NewService(userRepo, hasher)
	patientSvc := patientService.NewService(patientRepo)
	dentistSvc := dentistService.NewService(dentistRepo)
	surgerySvc := surgeryService.NewService(surgeryRepo, addressRepo)
	appointmentSvc := appointmentService.NewService(appointmentRepo, patientRepo, dentistRepo, surgeryRepo, m)

	if cfg.Security.AdminEmail != "" {
		if err := userSvc.EnsureAdmin(context.Background(), cfg.Security.AdminEmail, cfg.Security.AdminPassword); err != nil {
			log.Fatal().Err(err).Msg("failed to bootstrap admin account")
		}
	}

	authMiddleware := middleware.NewAuthMiddleware(jwtSvc, authSvc)

	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.Server.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.Server.AllowedOrigins
	}

	r := router.NewRouter(
		authMiddleware,
		authHandler.NewHandler(authSvc),
		userHandler.NewHandler(userSvc),
		patientHandler.NewHandler(patientSvc),
		dentistHandler.NewHandler(dentistSvc),
		surgeryHandler.NewHandler(surgerySvc),
		appointmentHandler.NewHandler(appointmentSvc),
		handler.NewHandler(),
		m,
		router.Config{
			RateLimitEnabled: cfg.RateLimit.Enabled,
			RateLimit:        rate.Limit(cfg.RateLimit.RequestsPerSecond),
			RateBurst:        cfg.RateLimit.Burst,
			CORSConfig:       corsConfig,
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()

	appLogger := logger.NewLogger(nil)
	broker, err := redis.NewBroker(redis.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: cfg.Redis.RetryBackoff,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, &log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer broker.Close()

	outboxProcessor := worker.NewOutboxProcessor(outboxRepo, broker, worker.OutboxProcessorConfig{
		BatchSize:     cfg.Outbox.BatchSize,
		PollInterval:  cfg.Outbox.PollInterval,
		RetryAttempts: cfg.Outbox.RetryAttempts,
		RetryDelay:    cfg.Outbox.RetryDelay,
	}, appLogger, m)
	go outboxProcessor.Start(workerCtx)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()
	log.Info().Int("port", cfg.Server.Port).Msg("server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	stopWorker()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
