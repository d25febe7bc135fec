package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/noah-isme/survey-api/api/swagger"
	"github.com/noah-isme/survey-api/internal/handler"
	"github.com/noah-isme/survey-api/internal/repository"
	"github.com/noah-isme/survey-api/internal/router"
	"github.com/noah-isme/survey-api/internal/service"
	"github.com/noah-isme/survey-api/pkg/cache"
	"github.com/noah-isme/survey-api/pkg/config"
	"github.com/noah-isme/survey-api/pkg/database"
	"github.com/noah-isme/survey-api/pkg/export"
	"github.com/noah-isme/survey-api/pkg/logger"
)

// @title Survey API
// @version 1.0.0
// @description Survey authoring, one-shot submissions and aggregated results
// @BasePath /
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			logr.Fatal("failed to apply migrations", zap.Error(err))
		}
	}

	metrics := service.NewMetricsService()
	checks := map[string]handler.HealthCheck{
		"postgres": func(ctx context.Context) error { return db.PingContext(ctx) },
	}

	var cacheRepo service.CacheRepository
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		} else {
			redisRepo := repository.NewCacheRepository(client, logr)
			defer redisRepo.Close() //nolint:errcheck
			cacheRepo = redisRepo
			checks["redis"] = redisRepo.Ping
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.SurveyTTL, logr, cacheRepo != nil)

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	surveyRepo := repository.NewSurveyRepository(db)
	questionRepo := repository.NewQuestionRepository(db)
	completionRepo := repository.NewCompletionRepository(db)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	surveySvc := service.NewSurveyService(surveyRepo, userRepo, cacheSvc, metrics, validate, logr)
	questionSvc := service.NewQuestionService(surveyRepo, questionRepo, userRepo, cacheSvc, validate, logr)
	submissionSvc := service.NewSubmissionService(surveyRepo, questionRepo, completionRepo, userRepo, cacheSvc, metrics, logr)
	exportSvc := service.NewExportService(surveyRepo, questionRepo, export.NewCSVExporter(), export.NewPDFExporter(), logr)

	engine := router.Wire(router.Handlers{
		Auth:       handler.NewAuthHandler(authSvc),
		Users:      handler.NewUserHandler(userSvc),
		Surveys:    handler.NewSurveyHandler(surveySvc),
		Questions:  handler.NewQuestionHandler(questionSvc),
		Submission: handler.NewSubmissionHandler(submissionSvc, exportSvc),
		Metrics:    handler.NewMetricsHandler(metrics, checks),
	}, router.Options{
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		EnableDocs:     cfg.Env != config.EnvProduction,
		EnableMetrics:  cfg.Metrics.Enabled,
		Tokens:         authSvc,
		Audit:          userRepo,
		Observer:       metrics,
		Logger:         logr,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
