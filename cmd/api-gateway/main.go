package main

import (
	"context"
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

	_ "github.com/arenafit/schedule-api/api/swagger"
	"github.com/arenafit/schedule-api/internal/handler"
	"github.com/arenafit/schedule-api/internal/middleware"
	"github.com/arenafit/schedule-api/internal/models"
	"github.com/arenafit/schedule-api/internal/repository"
	"github.com/arenafit/schedule-api/internal/service"
	"github.com/arenafit/schedule-api/pkg/cache"
	"github.com/arenafit/schedule-api/pkg/config"
	"github.com/arenafit/schedule-api/pkg/database"
	"github.com/arenafit/schedule-api/pkg/logger"
	corsmiddleware "github.com/arenafit/schedule-api/pkg/middleware/cors"
	reqidmiddleware "github.com/arenafit/schedule-api/pkg/middleware/requestid"
	"github.com/arenafit/schedule-api/pkg/storage"
)

// @title ArenaFit Schedule API
// @version 1.0.0
// @description Workload and capacity analysis engine for the ArenaFit studio schedule.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, workload cache disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	// Repositories.
	teacherRepo := repository.NewTeacherRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	workLogRepo := repository.NewWorkLogRepository(db)
	capacityRepo := repository.NewCapacityRepository(db)
	proposalRepo := repository.NewProposalRepository(db)
	announcementRepo := repository.NewAnnouncementRepository(db)
	rosterRepo := repository.NewRosterRepository(db)
	userRepo := repository.NewUserRepository(db)
	reportRepo := repository.NewReportRepository(db)

	// Services.
	authSvc := service.NewAuthService(userRepo, cfg.JWT, validate, logr)
	teacherSvc := service.NewTeacherService(teacherRepo, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, validate, logr)
	scheduleSvc := service.NewScheduleService(scheduleRepo, validate, logr)
	workloadSvc := service.NewWorkloadService(workLogRepo, teacherRepo, redisClient, cfg.Planning.WorkloadCacheTTL, metrics, logr)
	capacitySvc := service.NewCapacityService(capacityRepo, teacherRepo, validate, logr)
	planningSvc := service.NewPlanningService(scheduleRepo, capacityRepo, teacherRepo, logr)
	timeclockSvc := service.NewTimeclockService(workLogRepo, scheduleRepo, teacherRepo, workloadSvc, logr)
	proposalSvc := service.NewProposalService(proposalRepo, scheduleRepo, planningSvc, validate, logr)
	suggestionSvc := service.NewSuggestionService(scheduleRepo, teacherRepo, proposalRepo, validate, logr)
	announcementSvc := service.NewAnnouncementService(announcementRepo, validate, logr)
	rosterSvc := service.NewRosterService(rosterRepo, teacherRepo, logr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var reportSvc *service.ReportService
	if cfg.Reports.Enabled {
		store, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init report storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
		reportSvc = service.NewReportService(reportRepo, workloadSvc, teacherRepo, scheduleRepo, store, signer, metrics, service.ReportServiceConfig{
			WorkerConcurrency: cfg.Reports.WorkerConcurrency,
			WorkerRetries:     cfg.Reports.WorkerRetries,
		}, validate, logr)
		reportSvc.Start(ctx)
		defer reportSvc.Stop()
	}

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	teacherHandler := handler.NewTeacherHandler(teacherSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	scheduleHandler := handler.NewScheduleHandler(scheduleSvc)
	workloadHandler := handler.NewWorkloadHandler(workloadSvc)
	capacityHandler := handler.NewCapacityHandler(capacitySvc)
	planningHandler := handler.NewPlanningHandler(planningSvc)
	timeclockHandler := handler.NewTimeclockHandler(timeclockSvc)
	proposalHandler := handler.NewProposalHandler(proposalSvc)
	suggestionHandler := handler.NewSuggestionHandler(suggestionSvc)
	announcementHandler := handler.NewAnnouncementHandler(announcementSvc)
	rosterHandler := handler.NewRosterHandler(rosterSvc)
	metricsHandler := handler.NewMetricsHandler(metrics)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
	auth.POST("/register", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin), authHandler.Register)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))

	viewer := protected.Group("")

	planner := protected.Group("")
	planner.Use(middleware.RequireRoles(models.RoleAdmin, models.RolePlanner))

	viewer.GET("/teachers", teacherHandler.List)
	viewer.GET("/teachers/:id", teacherHandler.Get)
	planner.POST("/teachers", teacherHandler.Create)
	planner.PUT("/teachers/:id", teacherHandler.Update)
	planner.DELETE("/teachers/:id", teacherHandler.Delete)

	viewer.GET("/students", studentHandler.List)
	planner.POST("/students", studentHandler.Create)
	planner.PUT("/students/:id", studentHandler.Update)
	planner.DELETE("/students/:id", studentHandler.Delete)

	viewer.GET("/schedule", scheduleHandler.List)
	viewer.GET("/schedule/:id", scheduleHandler.Get)
	planner.POST("/schedule", scheduleHandler.Create)
	planner.PUT("/schedule/:id", scheduleHandler.Update)
	planner.DELETE("/schedule/:id", scheduleHandler.Delete)

	planner.POST("/teachers/:id/check-in", timeclockHandler.CheckIn)
	planner.POST("/teachers/:id/check-out", timeclockHandler.CheckOut)
	planner.POST("/teachers/:id/work-logs", timeclockHandler.RecordManual)
	viewer.GET("/teachers/:id/work-logs", timeclockHandler.History)

	viewer.GET("/workload", workloadHandler.Summary)
	viewer.GET("/workload/:id", workloadHandler.ForTeacher)
	viewer.GET("/planning/analysis", planningHandler.Analyze)

	viewer.GET("/teachers/:id/capacity", capacityHandler.List)
	viewer.GET("/teachers/:id/capacity/current", capacityHandler.Current)
	planner.POST("/teachers/:id/capacity", capacityHandler.Create)
	planner.PUT("/teachers/:id/capacity/:pid/current", capacityHandler.SetCurrent)

	viewer.GET("/proposals", proposalHandler.List)
	viewer.GET("/proposals/:id", proposalHandler.Get)
	planner.POST("/proposals", proposalHandler.Activate)
	planner.PUT("/proposals/:id/status", proposalHandler.Transition)
	planner.POST("/proposals/:id/entries", proposalHandler.AddEntry)
	planner.DELETE("/proposals/:id/entries/:eid", proposalHandler.RemoveEntry)
	planner.PUT("/proposals/:id/entries/:eid/teachers", proposalHandler.ReassignEntry)
	planner.POST("/proposals/:id/analysis", proposalHandler.RefreshAnalysis)

	planner.POST("/suggestions/apply", suggestionHandler.Apply)

	viewer.GET("/announcements", announcementHandler.List)
	planner.POST("/announcements", announcementHandler.Create)
	planner.DELETE("/announcements/:id", announcementHandler.Delete)

	viewer.GET("/rosters/priority", rosterHandler.PriorityList)
	planner.PUT("/rosters/priority", rosterHandler.SavePriorityList)
	viewer.GET("/rosters/shifts", rosterHandler.ShiftRoster)
	planner.PUT("/rosters/shifts", rosterHandler.SaveShiftRoster)

	protected.GET("/metrics/system", middleware.RequireRoles(models.RoleAdmin), metricsHandler.System)

	if reportSvc != nil {
		reportHandler := handler.NewReportHandler(reportSvc)
		viewer.GET("/reports", reportHandler.List)
		planner.POST("/reports/generate", reportHandler.Generate)
		viewer.GET("/reports/:id/status", reportHandler.Status)
		api.GET("/reports/download/:token", reportHandler.Download)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
