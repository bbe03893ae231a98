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

	_ "github.com/campushub/admissions-agent-api/api/swagger"
	"github.com/campushub/admissions-agent-api/internal/client"
	"github.com/campushub/admissions-agent-api/internal/feed"
	"github.com/campushub/admissions-agent-api/internal/handler"
	internalmiddleware "github.com/campushub/admissions-agent-api/internal/middleware"
	"github.com/campushub/admissions-agent-api/internal/models"
	"github.com/campushub/admissions-agent-api/internal/repository"
	"github.com/campushub/admissions-agent-api/internal/service"
	"github.com/campushub/admissions-agent-api/internal/store"
	"github.com/campushub/admissions-agent-api/pkg/cache"
	"github.com/campushub/admissions-agent-api/pkg/config"
	"github.com/campushub/admissions-agent-api/pkg/database"
	"github.com/campushub/admissions-agent-api/pkg/jobs"
	"github.com/campushub/admissions-agent-api/pkg/logger"
	corsmiddleware "github.com/campushub/admissions-agent-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campushub/admissions-agent-api/pkg/middleware/requestid"
	"github.com/campushub/admissions-agent-api/pkg/storage"
)

// @title Admissions Agent API
// @version 0.1.0
// @description Agent session orchestration and realtime sync for the admissions dashboard
// @BasePath /
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
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close() //nolint:errcheck

	validate := validator.New()
	metrics := service.NewMetricsService()

	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Feed.CacheTTL, logr, true)

	sessionRepo := repository.NewSessionRepository(db)
	applicantRepo := repository.NewApplicantRepository(db)
	userRepo := repository.NewUserRepository(db)

	publisher := feed.NewPublisher(redisClient, cfg.Feed.ChannelPrefix, logr)

	// The queue handler is bound after the runner exists; both sides need the
	// session service in between.
	var runner *service.AgentRunner
	queue := jobs.NewQueue("agent-sessions", func(ctx context.Context, job jobs.Job) error {
		return runner.Handle(ctx, job)
	}, jobs.QueueConfig{
		Workers:    cfg.Agents.Workers,
		MaxRetries: cfg.Agents.MaxRetries,
		RetryDelay: cfg.Agents.RetryDelay,
		Logger:     logr,
	})

	sessionSvc := service.NewSessionService(sessionRepo, publisher, queue, cacheSvc, metrics, logr)

	rankingExec := service.NewRankingExecutor(applicantRepo, sessionSvc, cfg.Ranking.DefaultIntakeLimit, logr)
	runner = service.NewAgentRunner(sessionSvc, map[models.AgentKind]service.AgentExecutor{
		models.AgentKindRanking: rankingExec,
	}, logr)

	queue.Start(ctx)
	defer queue.Stop()

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "admissions-agent-api",
	})

	authoritySvc := service.NewAuthorityService(cfg.Authority, metrics)

	sessionAPI := client.NewSessionClient(cfg.SessionAPI.BaseURL, cfg.SessionAPI.Token, cfg.SessionAPI.Timeout)
	feedSource := feed.NewRedisSource(redisClient, cfg.Feed.BufferSize)

	engines := service.NewEngineManager(func(institutionID string) *service.SessionEngine {
		sessionCache := store.NewSessionCache(sessionAPI, logr)
		subscriber := feed.NewSubscriber(feedSource, sessionCache, cfg.Feed.ChannelPrefix, authoritySvc.Resolver(), metrics, logr)
		orchestrator := service.NewSessionOrchestrator(sessionCache, subscriber, sessionAPI, authoritySvc.Resolver(), logr)
		return &service.SessionEngine{
			Orchestrator: orchestrator,
			Switcher:     service.NewAgentSwitcher(orchestrator, logr),
		}
	}, logr)
	defer engines.Shutdown()

	files, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init export storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exportSvc := service.NewExportService(files, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Exports.CleanupInterval,
	}, logr, nil, nil)
	go runExportCleanup(ctx, exportSvc, cfg.Exports.CleanupInterval)

	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(service.NewUserService(userRepo, validate, logr))
	sessionHandler := handler.NewSessionHandler(sessionSvc, engines)
	rankingHandler := handler.NewRankingHandler(exportSvc)
	authorityHandler := handler.NewAuthorityHandler(authoritySvc)
	metricsHandler := handler.NewMetricsHandler(metrics)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.WithResponseMeta())
	r.Use(internalmiddleware.Metrics(metrics))
	r.Use(internalmiddleware.AuthorityMode(authoritySvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/forgot-password", authHandler.ForgotPassword)
		auth.POST("/reset-password", authHandler.ResetPassword)

		protected := auth.Group("", internalmiddleware.JWT(authSvc))
		protected.POST("/logout", authHandler.Logout)
		protected.PUT("/password", authHandler.ChangePassword)
		protected.GET("/me", authHandler.Me)
	}

	users := api.Group("/users", internalmiddleware.JWT(authSvc))
	{
		users.GET("", internalmiddleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin), userHandler.List)
		users.POST("", internalmiddleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin), userHandler.Create)
		users.GET("/:id", internalmiddleware.RBAC(string(models.RoleSuperAdmin), string(models.RoleAdmin), "SELF"), userHandler.Get)
		users.PUT("/:id", internalmiddleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin), userHandler.Update)
		users.DELETE("/:id", internalmiddleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin), userHandler.Delete)
	}

	institutions := api.Group("/institutions/:institutionId", internalmiddleware.JWT(authSvc))
	{
		sessions := institutions.Group("/agent-sessions")
		sessions.GET("", sessionHandler.List)
		sessions.POST("", sessionHandler.Create)
		sessions.GET("/:id", sessionHandler.Get)
		sessions.GET("/:id/messages", sessionHandler.Messages)
		sessions.PUT("/:id/status", sessionHandler.UpdateStatus)
		sessions.PUT("/:id/progress", sessionHandler.UpdateProgress)
		sessions.DELETE("/:id",
			internalmiddleware.Audit(userRepo, models.AuditActionSessionDelete, "agent_sessions"),
			sessionHandler.Delete)

		institutions.POST("/agent-switch", sessionHandler.Switch)

		rankings := institutions.Group("/rankings")
		rankings.POST("/classify", rankingHandler.Classify)
		rankings.POST("/export", rankingHandler.Export)
	}

	api.GET("/rankings/download/:token", rankingHandler.Download)

	authority := api.Group("/authority",
		internalmiddleware.JWT(authSvc),
		internalmiddleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin))
	{
		authority.GET("/status", authorityHandler.Status)
		authority.GET("/ping", authorityHandler.PingRemote)
		authority.PUT("/mode",
			internalmiddleware.Audit(userRepo, models.AuditActionAuthorityFlip, "authority"),
			authorityHandler.SetMode)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "authority", authoritySvc.Mode())
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

func runExportCleanup(ctx context.Context, exports *service.ExportService, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			exports.Cleanup()
		}
	}
}
