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

	"github.com/carebridge/booking-api/internal/config"
	"github.com/carebridge/booking-api/internal/email"
	"github.com/carebridge/booking-api/internal/handler"
	adminHandler "github.com/carebridge/booking-api/internal/handler/admin"
	appointmentHandler "github.com/carebridge/booking-api/internal/handler/appointment"
	medicalHandler "github.com/carebridge/booking-api/internal/handler/medical"
	providerHandler "github.com/carebridge/booking-api/internal/handler/provider"
	userHandler "github.com/carebridge/booking-api/internal/handler/user"
	"github.com/carebridge/booking-api/internal/middleware"
	"github.com/carebridge/booking-api/internal/repository/postgres"
	"github.com/carebridge/booking-api/internal/router"
	adminService "github.com/carebridge/booking-api/internal/service/admin"
	authService "github.com/carebridge/booking-api/internal/service/auth"
	availabilityService "github.com/carebridge/booking-api/internal/service/availability"
	bookingService "github.com/carebridge/booking-api/internal/service/booking"
	medicalService "github.com/carebridge/booking-api/internal/service/medical"
	providerService "github.com/carebridge/booking-api/internal/service/provider"
	userService "github.com/carebridge/booking-api/internal/service/user"
	"github.com/carebridge/booking-api/pkg/auth"
	"github.com/carebridge/booking-api/pkg/logger"
	"github.com/carebridge/booking-api/pkg/security"
	"github.com/carebridge/booking-api/pkg/storage"
	"github.com/carebridge/booking-api/pkg/validator"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Logger.Level),
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
		Pretty:     cfg.Logger.Pretty,
	})
	zl := *appLogger.Zerolog()

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	userRepo := postgres.NewUserRepository(db)
	providerRepo := postgres.NewProviderRepository(db)
	scheduleRepo := postgres.NewScheduleRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)
	medicalRepo := postgres.NewMedicalRecordRepository(db)
	reviewRepo := postgres.NewReviewRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)

	store, err := storage.NewDiskStorage(cfg.Storage.Root)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize storage")
	}

	emailSvc := email.NewSMTPService(cfg.SMTP)

	jwtSvc := auth.NewJWTService(auth.Config{
		Secret:        cfg.JWT.Secret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		Expiry:        time.Duration(cfg.JWT.ExpiryHours) * time.Hour,
		RefreshExpiry: time.Duration(cfg.JWT.RefreshExpiryHours) * time.Hour,
	})

	hasher := security.NewBcryptHasher(12)

	availabilitySvc := availabilityService.NewService(providerRepo, scheduleRepo, appointmentRepo)
	bookingSvc := bookingService.NewService(appointmentRepo, userRepo, outboxRepo, availabilitySvc, emailSvc, zl)
	providerSvc := providerService.NewService(providerRepo, userRepo, scheduleRepo, appointmentRepo, outboxRepo, store, emailSvc, zl)
	userSvc := userService.NewService(userRepo, providerRepo, appointmentRepo, reviewRepo, availabilitySvc, store, hasher, zl)
	medicalSvc := medicalService.NewService(medicalRepo, providerRepo, store)
	adminSvc := adminService.NewService(userRepo, providerRepo, appointmentRepo, outboxRepo, emailSvc, zl)
	authSvc := authService.NewService(userRepo, jwtSvc, hasher, time.Duration(cfg.JWT.ExpiryHours)*time.Hour)

	authMiddleware := middleware.NewAuthMiddleware(jwtSvc)

	if err := validator.Register(); err != nil {
		log.Fatal().Err(err).Msg("failed to register request validations")
	}

	r := router.NewRouter(
		cfg,
		zl,
		authMiddleware,
		handler.NewHealthHandler(db),
		userHandler.NewHandler(userSvc, authSvc, medicalSvc),
		appointmentHandler.NewHandler(availabilitySvc, bookingSvc),
		providerHandler.NewHandler(providerSvc),
		medicalHandler.NewHandler(medicalSvc),
		adminHandler.NewHandler(adminSvc),
	)
	r.Setup()

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        r.Engine(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		appLogger.Info("starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
}
