package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"qadamsafe/internal/config"
	"qadamsafe/internal/database"
	sharedLogger "qadamsafe/internal/logger"
	"qadamsafe/internal/messaging"
	"qadamsafe/internal/models"
	"qadamsafe/internal/notification"
	"qadamsafe/internal/notification/sender"

	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config/notifier.yml", "path to notifier config file")
	flag.Parse()

	// --- Загрузка конфигурации ---
	cfg, err := config.LoadNotifierConfig(*configPath)
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	logger, err := sharedLogger.New(sharedLogger.Config{
		Level:    cfg.Log.Level,
		Encoding: cfg.Log.Encoding,
		Service:  "qadamsafe-notifier",
	})
	if err != nil {
		log.Fatalf("Ошибка инициализации логгера: %v", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	sugar := logger.Sugar()

	ctx := context.Background()

	// --- Подключения ---
	pgPool, err := database.ConnectPostgres(ctx, database.PostgresOptions{
		DSN:      cfg.Postgres.DSN,
		MaxConns: cfg.Postgres.MaxConns,
	}, logger)
	if err != nil {
		sugar.Fatalf("Не удалось подключиться к PostgreSQL: %v", err)
	}
	defer pgPool.Close()

	rabbitConn, err := messaging.ConnectRabbitMQ(ctx, cfg.RabbitMQ.URI, logger)
	if err != nil {
		sugar.Fatalf("Не удалось подключиться к RabbitMQ: %v", err)
	}
	defer rabbitConn.Close()

	// --- Отправители ---
	fcmSender, err := sender.NewFCMSender(ctx, cfg.FCM, logger)
	if err != nil {
		sugar.Fatalf("Ошибка инициализации FCM Sender: %v", err)
	}
	if fcmSender == nil {
		sugar.Warn("FCM Sender не настроен, используется заглушка.")
		fcmSender = sender.NewStubSender(models.PlatformAndroid, logger)
	}

	apnsSender, err := sender.NewApnsSender(cfg.APNS, logger)
	if err != nil {
		sugar.Fatalf("Ошибка инициализации APNS Sender: %v", err)
	}
	if apnsSender == nil {
		sugar.Warn("APNS Sender не настроен, используется заглушка.")
		apnsSender = sender.NewStubSender(models.PlatformIOS, logger)
	}

	tokens := database.NewPgDeviceTokenRepository(pgPool, logger)
	notificationService := notification.NewService(tokens, logger, fcmSender, apnsSender)

	processor := messaging.NewProcessor(logger, notificationService)
	consumer := messaging.NewConsumer(rabbitConn, logger, cfg.PushQueueName, cfg.WorkerConcurrency, processor)

	healthSrv := startHealthCheckServer(cfg.HealthCheckPort, logger)

	consumerErrChan := make(chan error, 1)
	go func() {
		sugar.Info("Запуск консьюмера RabbitMQ...")
		err := consumer.Start()
		if err != nil {
			sugar.Errorf("Консьюмер RabbitMQ завершился с ошибкой: %v", err)
		}
		consumerErrChan <- err
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		sugar.Info("Получен сигнал завершения, начинаем остановку...")
	case err := <-consumerErrChan:
		if err != nil {
			sugar.Errorf("Консьюмер завершился с ошибкой, инициируем остановку: %v", err)
		}
		// Горутина уже вышла, дальше ждать нечего
		consumerErrChan <- err
	}

	// --- Graceful shutdown ---
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := healthSrv.Shutdown(ctxShutdown); err != nil {
		sugar.Errorf("Ошибка при остановке Health Check сервера: %v", err)
	}

	consumer.Stop()
	<-consumerErrChan
	sugar.Info("Сервис уведомлений остановлен.")
}

func startHealthCheckServer(port string, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("Запуск Health Check сервера", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Ошибка запуска Health Check сервера", zap.Error(err))
		}
	}()

	return srv
}
