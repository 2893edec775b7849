package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/ksndmc/flow-api/internal/handler"
	"github.com/ksndmc/flow-api/internal/middleware"
	"github.com/ksndmc/flow-api/internal/models"
	"github.com/ksndmc/flow-api/internal/realtime"
	"github.com/ksndmc/flow-api/internal/repository"
	"github.com/ksndmc/flow-api/internal/service"
	"github.com/ksndmc/flow-api/pkg/cache"
	"github.com/ksndmc/flow-api/pkg/config"
	"github.com/ksndmc/flow-api/pkg/database"
	"github.com/ksndmc/flow-api/pkg/jobs"
	"github.com/ksndmc/flow-api/pkg/logger"
	corsmiddleware "github.com/ksndmc/flow-api/pkg/middleware/cors"
	reqidmiddleware "github.com/ksndmc/flow-api/pkg/middleware/requestid"
	"github.com/ksndmc/flow-api/pkg/storage"
)

// @title KSNDMC Flow API
// @version 1.0.0
// @description Workforce attendance and leave management service
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, change feed stays process-local", "error", err)
		redisClient = nil
	}

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	holidayRepo := repository.NewHolidayRepository(db)
	leaveRepo := repository.NewLeaveRepository(db)
	reportRepo := repository.NewReportRepository(db)

	// Realtime change feed. With realtime disabled the broadcaster runs in
	// local mode so SSE subscribers on this instance still get change events.
	feedClient := redisClient
	if !cfg.Realtime.Enabled {
		feedClient = nil
	}
	broadcaster := realtime.NewBroadcaster(feedClient, cfg.Realtime.Channel, logr)
	broadcaster.Start(ctx)
	defer broadcaster.Close()

	metricsSvc := service.NewMetricsService()
	broadcaster.OnSubscriberChange(metricsSvc.SetFeedSubscribers)

	// Services.
	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		TokenSecret: cfg.JWT.Secret,
		TokenExpiry: cfg.JWT.Expiration,
		Issuer:      cfg.JWT.Issuer,
	})
	userSvc := service.NewUserService(userRepo, broadcaster, nil, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, broadcaster, nil, logr)
	calendarSvc := service.NewCalendarService(holidayRepo, logr)
	leaveSvc := service.NewLeaveService(leaveRepo, holidayRepo, broadcaster, nil, logr)
	snapshotSvc := service.NewSnapshotService(userRepo, attendanceRepo, leaveRepo, holidayRepo, logr)

	// Report export pipeline.
	var reportSvc *service.ReportService
	var reportQueue *jobs.Queue
	if cfg.Reports.Enabled {
		store, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to prepare report storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)

		reportQueue = jobs.NewQueue("reports", func(ctx context.Context, job jobs.Job) error {
			err := reportSvc.Process(ctx, job)
			if err != nil {
				metricsSvc.RecordReportJob(string(models.ReportJobFailed))
			} else {
				metricsSvc.RecordReportJob(string(models.ReportJobCompleted))
			}
			return err
		}, jobs.QueueConfig{
			Workers:    cfg.Reports.WorkerConcurrency,
			MaxRetries: cfg.Reports.WorkerRetries,
			Logger:     logr,
		})
		reportSvc = service.NewReportService(reportRepo, attendanceRepo, reportQueue, store, signer, logr)
		reportQueue.Start(ctx)
		defer reportQueue.Stop()
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc, userSvc)
	userHandler := handler.NewUserHandler(userSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc)
	leaveHandler := handler.NewLeaveHandler(leaveSvc, metricsSvc)
	calendarHandler := handler.NewCalendarHandler(calendarSvc)
	eventsHandler := handler.NewEventsHandler(broadcaster, snapshotSvc, logr)

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/auth/login", authHandler.Login)

		authed := api.Group("", middleware.JWT(authSvc))
		{
			authed.GET("/auth/me", authHandler.Me)

			authed.GET("/users", middleware.RequireRoles(models.RoleAdmin), userHandler.List)
			authed.GET("/users/:id", middleware.RBAC(string(models.RoleAdmin), "SELF"), userHandler.Get)
			authed.POST("/users", middleware.RequireRoles(models.RoleAdmin), userHandler.Create)
			authed.PATCH("/users/:id", middleware.RequireRoles(models.RoleAdmin), userHandler.Update)
			authed.DELETE("/users/:id", middleware.RequireRoles(models.RoleAdmin), userHandler.Delete)

			authed.GET("/attendance", attendanceHandler.List)
			authed.PUT("/attendance", attendanceHandler.Mark)
			authed.GET("/attendance/:id/summary", middleware.RBAC(string(models.RoleAdmin), "SELF"), attendanceHandler.Summary)

			authed.GET("/leave/requests", leaveHandler.List)
			authed.POST("/leave/requests", leaveHandler.Submit)
			authed.POST("/leave/requests/:id/approve", middleware.RequireRoles(models.RoleAdmin), leaveHandler.Approve)
			authed.POST("/leave/requests/:id/reject", middleware.RequireRoles(models.RoleAdmin), leaveHandler.Reject)
			authed.GET("/leave/balances/:id", middleware.RBAC(string(models.RoleAdmin), "SELF"), leaveHandler.Balance)
			authed.PATCH("/leave/balances/:id", middleware.RequireRoles(models.RoleAdmin), leaveHandler.PatchBalance)

			authed.GET("/calendar/holidays", calendarHandler.Holidays)
			authed.GET("/calendar/special-day", calendarHandler.ClassifyDate)

			authed.GET("/events/snapshot/:collection", eventsHandler.Snapshot)
		}

		// EventSource clients authenticate via query token.
		api.GET("/events", middleware.TokenQueryJWT(authSvc), eventsHandler.Stream)

		if cfg.Reports.Enabled {
			reportHandler := handler.NewReportHandler(reportSvc)
			reports := api.Group("/reports")
			reports.GET("/download", reportHandler.Download)
			reports.Use(middleware.JWT(authSvc))
			reports.POST("", reportHandler.Create)
			reports.GET("/:id", reportHandler.Status)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		<-ctx.Done()
		logr.Sugar().Infow("shutting down")
		_ = srv.Shutdown(context.Background())
	}()

	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
