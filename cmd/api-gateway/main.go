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
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/uni-registration-api/api/swagger"
	"github.com/noah-isme/uni-registration-api/internal/handler"
	"github.com/noah-isme/uni-registration-api/internal/repository"
	"github.com/noah-isme/uni-registration-api/internal/service"
	"github.com/noah-isme/uni-registration-api/pkg/cache"
	"github.com/noah-isme/uni-registration-api/pkg/completion"
	"github.com/noah-isme/uni-registration-api/pkg/config"
	"github.com/noah-isme/uni-registration-api/pkg/database"
	"github.com/noah-isme/uni-registration-api/pkg/logger"
	"github.com/noah-isme/uni-registration-api/pkg/messaging"
)

// @title University Course Registration API
// @version 1.0.0
// @description Course registration, drop/swap requests, grades, notifications and support chat.
// @BasePath /api/v1
// @schemes http https
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, catalog cache and realtime chat disabled", zap.Error(err))
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	var publisher service.EventPublisher
	if cfg.Broker.URL != "" {
		p, err := messaging.NewPublisher(cfg.Broker.URL, cfg.Broker.Queue, logr)
		if err != nil {
			logr.Warn("rabbitmq unavailable, notification events will not be published", zap.Error(err))
		} else {
			defer p.Close()
			publisher = p
		}
	}

	app := build(cfg, logr, db, redisClient, publisher)
	router := newRouter(cfg, logr, app)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

// application holds the wired handlers and the pieces routes need directly.
type application struct {
	auth          *service.AuthService
	settings      *service.SettingsService
	metrics       *service.MetricsService
	authH         *handler.AuthHandler
	catalogH      *handler.CatalogHandler
	enrollmentH   *handler.EnrollmentHandler
	academicH     *handler.AcademicHandler
	requestH      *handler.RequestHandler
	notificationH *handler.NotificationHandler
	chatH         *handler.ChatHandler
	settingsH     *handler.SettingsHandler
	studentH      *handler.StudentHandler
	dashboardH    *handler.DashboardHandler
	userH         *handler.UserHandler
	metricsH      *handler.MetricsHandler
}

func build(cfg *config.Config, logr *zap.Logger, db *sqlx.DB, redisClient *redis.Client, publisher service.EventPublisher) *application {
	validate := service.NewValidator()
	metrics := service.NewMetricsService()

	users := repository.NewUserRepository(db)
	majors := repository.NewMajorRepository(db)
	courses := repository.NewCourseRepository(db)
	enrollments := repository.NewEnrollmentRepository(db)
	requests := repository.NewRequestRepository(db)
	notifications := repository.NewNotificationRepository(db)
	chats := repository.NewChatRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	stats := repository.NewStatsRepository(db)

	var cacheRepo service.CacheRepository
	var chatBus *repository.ChatEventBus
	checks := map[string]handler.Pinger{"postgres": db.PingContext}
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, cfg.Cache.Namespace)
		chatBus = repository.NewChatEventBus(redisClient, cfg.Chat.ChannelPrefix, logr)
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.CatalogTTL, logr, cfg.Cache.Enabled && redisClient != nil)

	authSvc := service.NewAuthService(users, majors, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	settingsSvc := service.NewSettingsService(settingsRepo, validate, logr)
	catalogSvc := service.NewCatalogService(courses, majors, cacheSvc, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollments, courses, metrics, validate, logr)
	gpaSvc := service.NewGPAService(enrollments, users, validate, logr)
	exportSvc := service.NewExportService(gpaSvc, logr, nil, nil)
	scheduleSvc := service.NewScheduleService(enrollments, logr)
	requestSvc := service.NewRequestService(requests, enrollments, courses, metrics,
		service.RequestServiceConfig{ApplyDropSwap: cfg.Requests.ApplyDropSwap}, validate, logr)
	notificationSvc := service.NewNotificationService(notifications, users, publisher, metrics, validate, logr)
	chatbotSvc := service.NewChatbotService(completion.NewClient(cfg.Chatbot, logr), cfg.Chatbot.HistorySize, metrics, validate, logr)
	studentSvc := service.NewStudentService(users, enrollments, validate, logr)
	userSvc := service.NewUserService(users, validate, logr)
	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Enrollments: enrollments,
		Requests:    requests,
		Stats:       stats,
		Settings:    settingsSvc,
		Cache:       cacheSvc,
		Logger:      logr,
	})

	chatSvc := service.NewChatService(chats, users, nil, metrics, validate, logr)
	if chatBus != nil {
		chatSvc = service.NewChatService(chats, users, chatBus, metrics, validate, logr)
	}

	return &application{
		auth:          authSvc,
		settings:      settingsSvc,
		metrics:       metrics,
		authH:         handler.NewAuthHandler(authSvc),
		catalogH:      handler.NewCatalogHandler(catalogSvc),
		enrollmentH:   handler.NewEnrollmentHandler(enrollmentSvc),
		academicH:     handler.NewAcademicHandler(gpaSvc, exportSvc, scheduleSvc),
		requestH:      handler.NewRequestHandler(requestSvc),
		notificationH: handler.NewNotificationHandler(notificationSvc),
		chatH:         handler.NewChatHandler(chatSvc, chatbotSvc),
		settingsH:     handler.NewSettingsHandler(settingsSvc),
		studentH:      handler.NewStudentHandler(studentSvc),
		dashboardH:    handler.NewDashboardHandler(dashboardSvc),
		userH:         handler.NewUserHandler(userSvc),
		metricsH:      handler.NewMetricsHandler(metrics, checks),
	}
}
