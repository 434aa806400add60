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

	_ "github.com/uniport-dev/uni-portal-api/api/swagger"
	"github.com/uniport-dev/uni-portal-api/internal/handler"
	"github.com/uniport-dev/uni-portal-api/internal/middleware"
	"github.com/uniport-dev/uni-portal-api/internal/models"
	"github.com/uniport-dev/uni-portal-api/internal/repository"
	"github.com/uniport-dev/uni-portal-api/internal/service"
	"github.com/uniport-dev/uni-portal-api/pkg/cache"
	"github.com/uniport-dev/uni-portal-api/pkg/config"
	"github.com/uniport-dev/uni-portal-api/pkg/database"
	"github.com/uniport-dev/uni-portal-api/pkg/jobs"
	"github.com/uniport-dev/uni-portal-api/pkg/logger"
	corsmiddleware "github.com/uniport-dev/uni-portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/uniport-dev/uni-portal-api/pkg/middleware/requestid"
)

// @title University Portal API
// @version 1.0.0
// @description Timetable and scheduling backend for the university portal
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
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	validate := validator.New()

	sessionRepo := repository.NewSessionRepository(db)
	userRepo := repository.NewUserRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	specialtyRepo := repository.NewSpecialtyRepository(db)

	metricsSvc := service.NewMetricsService()

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "uni-portal-api",
	})
	timetableSvc := service.NewTimetableService(sessionRepo, redisClient, cfg.Timetable.CacheTTL, logr)
	timetableSvc.AttachMetrics(metricsSvc)
	sessionSvc := service.NewSessionService(sessionRepo, db, validate, logr)
	sessionSvc.AttachMetrics(metricsSvc)
	sessionSvc.AttachCache(timetableSvc)
	refdataSvc := service.NewRefDataService(roomRepo, groupRepo, subjectRepo, specialtyRepo, userRepo, redisClient, cfg.Timetable.RefDataCacheTTL, logr)
	refdataSvc.AttachMetrics(metricsSvc)
	generatorSvc := service.NewGeneratorService(sessionRepo, db, cfg.Timetable.RunTTL, validate, logr)
	generatorSvc.AttachMetrics(metricsSvc)
	generatorSvc.AttachCache(timetableSvc)

	queue := jobs.NewQueue("timetable-generation", generatorSvc.HandleJob, jobs.QueueConfig{
		Workers: cfg.Timetable.GeneratorWorkers,
		Logger:  logr,
	})
	generatorSvc.AttachQueue(queue)

	authHandler := handler.NewAuthHandler(authSvc)
	sessionHandler := handler.NewSessionHandler(sessionSvc)
	timetableHandler := handler.NewTimetableHandler(timetableSvc)
	generatorHandler := handler.NewGeneratorHandler(generatorSvc)
	refdataHandler := handler.NewRefDataHandler(refdataSvc)

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
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/register", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin), authHandler.Register)
	auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
	auth.PUT("/password", middleware.JWT(authSvc), authHandler.ChangePassword)
	auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))

	protected.GET("/sessions", sessionHandler.List)
	protected.POST("/sessions", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin), sessionHandler.Create)
	protected.POST("/sessions/check", sessionHandler.CheckSlot)
	protected.DELETE("/sessions/:id", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin), sessionHandler.Cancel)
	protected.POST("/sessions/:id/makeup", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin), sessionHandler.CreateMakeup)

	protected.GET("/timetable/grid", timetableHandler.Grid)
	protected.GET("/timetable/:scope/:id", timetableHandler.WeekView)
	protected.GET("/timetable/:scope/:id/export", timetableHandler.ExportPDF)
	protected.POST("/timetable/generate", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin), generatorHandler.Generate)
	protected.GET("/timetable/generate/:id", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin), generatorHandler.GetRun)

	protected.GET("/rooms", refdataHandler.ListRooms)
	protected.GET("/rooms/:id", refdataHandler.GetRoom)
	protected.GET("/groups", refdataHandler.ListGroups)
	protected.GET("/groups/:id", refdataHandler.GetGroup)
	protected.GET("/subjects", refdataHandler.ListSubjects)
	protected.GET("/subjects/:id", refdataHandler.GetSubject)
	protected.GET("/specialties", refdataHandler.ListSpecialties)
	protected.GET("/teachers", refdataHandler.ListTeachers)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	queue.Start(ctx)
	defer queue.Stop()

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
