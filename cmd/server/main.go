package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"qadamsafe/internal/ai"
	"qadamsafe/internal/config"
	"qadamsafe/internal/database"
	"qadamsafe/internal/handler"
	"qadamsafe/internal/interfaces"
	"qadamsafe/internal/logger"
	"qadamsafe/internal/messaging"
	"qadamsafe/internal/middleware"
	"qadamsafe/internal/models"
	"qadamsafe/internal/realtime"
	"qadamsafe/internal/service"
	"qadamsafe/pkg/migration"

	rateli "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig(".env")
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:    cfg.LogLevel,
		Encoding: cfg.LogEncoding,
		Service:  "qadamsafe-api",
	})
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	zap.ReplaceGlobals(log)
	log.Info("Logger initialized", zap.String("logLevel", cfg.LogLevel), zap.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- External connections ---
	pgPool, err := database.ConnectPostgres(ctx, database.PostgresOptions{
		DSN:         cfg.PostgresDSN(),
		MaxConns:    cfg.DBMaxConns,
		IdleTimeout: cfg.DBIdleTimeout,
	}, log)
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer pgPool.Close()

	if cfg.DBAutoMigrate {
		migrator := migration.NewMigrator(migration.Config{
			MigrationsFS:   database.MigrationsFS,
			MigrationsPath: database.MigrationsPath,
		}, pgPool)
		if err := migrator.Up(ctx); err != nil {
			log.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	redisClient, err := database.ConnectRedis(ctx, database.RedisOptions{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, log)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()

	// Без RabbitMQ push-уведомления отключены, живые события через WebSocket работают.
	// publisher должен остаться nil интерфейсом, а не typed nil.
	var publisher interfaces.PushPublisher
	if cfg.RabbitMQURL != "" {
		mqConn, err := messaging.ConnectRabbitMQ(ctx, cfg.RabbitMQURL, log)
		if err != nil {
			log.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
		}
		defer mqConn.Close()
		pushPublisher, err := messaging.NewPushPublisher(mqConn, cfg.PushQueueName, log)
		if err != nil {
			log.Fatal("Failed to create push publisher", zap.Error(err))
		}
		defer pushPublisher.Close()
		publisher = pushPublisher
	} else {
		log.Warn("RABBITMQ_URL is empty, push notifications are disabled")
	}

	// --- Dependency injection ---
	userRepo := database.NewPgUserRepository(pgPool, log)
	scenarioRepo := database.NewPgScenarioRepository(pgPool, log)
	progressRepo := database.NewPgProgressRepository(pgPool, log)
	achievementRepo := database.NewPgAchievementRepository(pgPool, log)
	classroomRepo := database.NewPgClassroomRepository(pgPool, log)
	deviceTokenRepo := database.NewPgDeviceTokenRepository(pgPool, log)
	tokenRepo := database.NewRedisTokenRepository(redisClient, log)
	leaderboardCache := database.NewRedisLeaderboardCache(redisClient, cfg.LeaderboardCacheTTL, log)
	sessionStore := database.NewRedisSessionStore(redisClient, log)

	liveEvents := realtime.NewManager(log)
	defer liveEvents.CloseAll()
	events := service.NewEventDispatcher(publisher, liveEvents, log)

	aiClient, err := ai.NewClient(cfg, log)
	if err != nil {
		log.Fatal("Failed to create AI client", zap.Error(err))
	}
	if aiClient == nil {
		log.Info("AI_PROVIDER is empty, scenario generation is disabled")
	}

	achievementSvc := service.NewAchievementService(achievementRepo, progressRepo, log)
	leaderboardSvc := service.NewLeaderboardService(userRepo, leaderboardCache, log)
	authSvc := service.NewAuthService(userRepo, tokenRepo, leaderboardSvc, cfg, log)
	progressSvc := service.NewProgressService(userRepo, scenarioRepo, progressRepo, achievementSvc, leaderboardSvc, events, log)

	h := handler.NewHandler(handler.Services{
		Auth:         authSvc,
		Scenarios:    service.NewScenarioService(userRepo, scenarioRepo, progressRepo, log),
		Play:         service.NewPlayService(userRepo, scenarioRepo, progressRepo, sessionStore, progressSvc, cfg.PlaySessionTTL, log),
		Progress:     progressSvc,
		Achievements: achievementSvc,
		Leaderboard:  leaderboardSvc,
		Classrooms:   service.NewClassroomService(classroomRepo, log),
		Generator:    service.NewGeneratorService(aiClient, scenarioRepo, log),
		Devices:      service.NewDeviceTokenService(deviceTokenRepo, log),
		WebSocket:    realtime.NewHandler(liveEvents, authSvc, cfg.GetAllowedOrigins(), log).ServeWS,
	}, log)

	// Rate limit на публичные auth ручки, per IP
	rateLimitStore := rateli.RedisStore(&rateli.RedisOptions{
		RedisClient: redisClient,
		Rate:        time.Minute,
		Limit:       cfg.AuthRateLimit,
	})
	rateLimitMiddleware := rateli.RateLimiter(rateLimitStore, &rateli.Options{
		ErrorHandler: func(c *gin.Context, info rateli.Info) {
			zap.L().Warn("Rate limit exceeded",
				zap.String("clientIP", c.ClientIP()),
				zap.Time("resetTime", info.ResetTime),
				zap.String("path", c.Request.URL.Path),
			)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{
				Code:    models.ErrCodeTooManyRequests,
				Message: "Too many requests. Try again in " + time.Until(info.ResetTime).Round(time.Second).String(),
			})
		},
		KeyFunc: func(c *gin.Context) string {
			return c.ClientIP()
		},
	})

	// --- HTTP server ---
	gin.SetMode(gin.ReleaseMode)
	if cfg.Env == "development" {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(middleware.GinZapLogger(log))
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if origins := cfg.GetAllowedOrigins(); len(origins) > 0 {
		corsConfig.AllowOrigins = origins
	} else {
		corsConfig.AllowOrigins = []string{"http://localhost:3000"}
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	corsConfig.AllowCredentials = true
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	p := ginprometheus.NewPrometheus("gin")
	h.RegisterRoutes(router, rateLimitMiddleware)
	// После регистрации роутов, иначе /metrics попадет под общие middleware
	p.Use(router)

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// WriteTimeout не ставим: AI генерация и WebSocket живут дольше обычного запроса
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Starting HTTP server", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server listen error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced to shutdown", zap.Error(err))
	}
	log.Info("Server exiting")
}
