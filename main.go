package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/QuizHub-2025/quiz-service/internal/ai"
	"github.com/QuizHub-2025/quiz-service/internal/config"
	"github.com/QuizHub-2025/quiz-service/internal/events"
	"github.com/QuizHub-2025/quiz-service/internal/handlers"
	"github.com/QuizHub-2025/quiz-service/internal/repositories/casdoor"
	"github.com/QuizHub-2025/quiz-service/internal/repositories/postgres"
	"github.com/QuizHub-2025/quiz-service/internal/services"
	"github.com/QuizHub-2025/quiz-service/internal/utils"
	"github.com/QuizHub-2025/quiz-service/internal/validator"
	"github.com/QuizHub-2025/quiz-service/pkg"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	slogLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	logger := utils.NewSlogLogger(slogLogger)

	// Initialize database
	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize Redis (if configured)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = pkg.NewRedisClient(cfg)
		if err != nil {
			log.Printf("Warning: Failed to initialize Redis: %v", err)
		}
	}

	// Initialize repositories
	casdoorConfig := casdoor.CasdoorConfig{
		Endpoint:         cfg.CasdoorEndpoint,
		ClientID:         cfg.CasdoorClientID,
		ClientSecret:     cfg.CasdoorClientSecret,
		Certificate:      cfg.CasdoorCertificate,
		OrganizationName: cfg.CasdoorOrganization,
		ApplicationName:  cfg.CasdoorApplication,
	}
	repoManager := postgres.NewRepositoryManager(postgres.RepositoryConfig{
		DB:            db,
		RedisClient:   redisClient,
		CasdoorConfig: casdoorConfig,
	})
	if err := repoManager.Initialize(); err != nil {
		log.Fatalf("Failed to initialize repositories: %v", err)
	}

	// Initialize validator
	validator := validator.New()

	// Event transport: Kafka when brokers are configured, in-process otherwise.
	// The attempts topic always runs in-process so the feedback worker can
	// consume it inside this process.
	attemptsPubSub := events.NewGoChannelPubSub(slogLogger)
	var notificationPublisher events.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher, err := events.NewKafkaPublisher(cfg.KafkaBrokers, slogLogger)
		if err != nil {
			log.Fatalf("Failed to initialize Kafka publisher: %v", err)
		}
		notificationPublisher = events.NewEventPublisher(kafkaPublisher, slogLogger)
	} else {
		notificationPublisher = events.NewEventPublisher(attemptsPubSub, slogLogger)
		slogLogger.Info("Kafka not configured, notification events stay in-process")
	}
	attemptsPublisher := events.NewEventPublisher(attemptsPubSub, slogLogger)

	// AI provider (optional)
	var generator *ai.Generator
	if cfg.OpenAIAPIKey != "" {
		client := ai.NewClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel)
		generator = ai.NewGenerator(client, slogLogger)
	} else {
		generator = ai.NewGenerator(nil, slogLogger)
		slogLogger.Info("OpenAI not configured, serving fallback feedback and questions")
	}

	// Initialize services
	serviceManager := services.NewServiceManager(services.ServiceManagerConfig{
		Repository:            repoManager.GetRepository(),
		DB:                    db,
		Logger:                slogLogger,
		Validator:             validator,
		Publisher:             attemptsPublisher,
		NotificationPublisher: notificationPublisher,
		Generator:             generator,
	})
	if err := serviceManager.Initialize(); err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	// Start the feedback worker on the attempts stream
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	feedbackWorker := services.NewFeedbackWorker(attemptsPubSub, serviceManager.FeedbackService(), slogLogger)
	if err := feedbackWorker.Start(workerCtx); err != nil {
		log.Fatalf("Failed to start feedback worker: %v", err)
	}

	// Initialize handlers
	handlerManager := handlers.NewHandlerManager(serviceManager, validator, logger, casdoorConfig, repoManager.GetRepository().User())

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handlers.SetupMiddleware(router, logger)
	handlerManager.SetupRoutes(router)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	if notificationPublisher != nil {
		if err := notificationPublisher.Close(); err != nil {
			log.Printf("Failed to close notification publisher: %v", err)
		}
	}

	if err := serviceManager.Shutdown(ctx); err != nil {
		log.Printf("Failed to shutdown services: %v", err)
	}

	if err := repoManager.Shutdown(ctx); err != nil {
		log.Printf("Failed to shutdown repositories: %v", err)
	}

	logger.Info("Server exited")
}
