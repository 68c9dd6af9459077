package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/consult-booking-api/api/swagger"
	"github.com/noah-isme/consult-booking-api/internal/handler"
	"github.com/noah-isme/consult-booking-api/internal/middleware"
	"github.com/noah-isme/consult-booking-api/internal/repository"
	"github.com/noah-isme/consult-booking-api/internal/service"
	"github.com/noah-isme/consult-booking-api/pkg/cache"
	"github.com/noah-isme/consult-booking-api/pkg/config"
	"github.com/noah-isme/consult-booking-api/pkg/database"
	"github.com/noah-isme/consult-booking-api/pkg/jobs"
	"github.com/noah-isme/consult-booking-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/consult-booking-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/consult-booking-api/pkg/middleware/requestid"
)

// @title Consultation Booking API
// @version 1.0.0
// @description Availability, slot search and booking lifecycle for consultation sessions
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, slot cache disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()
	clock := service.SystemClock()
	metrics := service.NewMetricsService()

	ruleRepo := repository.NewRuleRepository(db)
	bookingRepo := repository.NewBookingRepository(db)

	var cacheSvc *service.CacheService
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metrics, cfg.Slots.CacheTTL, logr, cfg.Slots.CacheEnabled)
	} else {
		cacheSvc = service.NewCacheService(nil, metrics, cfg.Slots.CacheTTL, logr, false)
	}

	notifier := service.NewQueueNotifier(&service.LogSink{Logger: logr}, jobs.QueueConfig{
		Workers:    cfg.Notifications.Workers,
		BufferSize: cfg.Notifications.BufferSize,
		MaxRetries: cfg.Notifications.MaxRetries,
		RetryDelay: cfg.Notifications.RetryDelay,
		Logger:     logr,
	}, metrics, logr)

	ruleSvc := service.NewRuleService(ruleRepo, cacheSvc, validate, logr)
	slotSvc := service.NewSlotService(ruleRepo, bookingRepo, cacheSvc, clock, metrics, logr, cfg.Slots.MaxRangeDays)
	conflictSvc := service.NewConflictService(bookingRepo, ruleRepo, slotSvc, clock, logr, cfg.Slots.DefaultNoticeHours, cfg.Slots.AlternativeLimit)
	bookingSvc := service.NewBookingService(bookingRepo, conflictSvc, notifier, cacheSvc, clock, metrics, validate, logr)
	authSvc := service.NewAuthService(service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	}, logr)
	exportSvc := service.NewExportService(bookingSvc, logr)

	availabilityHandler := handler.NewAvailabilityHandler(ruleSvc, slotSvc)
	slotHandler := handler.NewSlotHandler(slotSvc)
	bookingHandler := handler.NewBookingHandler(bookingSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	metricsHandler := handler.NewMetricsHandler(metrics)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(authSvc))
	{
		api.GET("/consultants/:consultantId/availability", availabilityHandler.Slots)
		api.GET("/consultants/:consultantId/availability-rules", availabilityHandler.ListRules)
		api.POST("/consultants/:consultantId/availability-rules", availabilityHandler.CreateRule)
		api.PATCH("/availability-rules/:ruleId", availabilityHandler.UpdateRule)
		api.DELETE("/availability-rules/:ruleId", availabilityHandler.DeleteRule)

		api.GET("/slots/search", slotHandler.Search)

		api.POST("/bookings", bookingHandler.Create)
		api.GET("/bookings/:id", bookingHandler.Get)
		api.PATCH("/bookings/:id/reschedule", bookingHandler.Reschedule)
		api.PATCH("/bookings/:id/cancel", bookingHandler.Cancel)
		api.GET("/students/:studentId/bookings", bookingHandler.ListByStudent)

		if cfg.Exports.Enabled {
			api.GET("/consultants/:consultantId/schedule/export", exportHandler.Schedule)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	notifier.Start(ctx)
	defer notifier.Stop()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
