package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"gorm.io/gorm"

	"github.com/QuizHub-2025/quiz-service/internal/ai"
	"github.com/QuizHub-2025/quiz-service/internal/events"
	"github.com/QuizHub-2025/quiz-service/internal/repositories"
	"github.com/QuizHub-2025/quiz-service/internal/validator"
)

// ServiceManagerConfig holds everything the services need. Publisher,
// NotificationPublisher and Generator may be nil; the services degrade
// gracefully without them.
type ServiceManagerConfig struct {
	Repository repositories.Repository
	DB         *gorm.DB
	Logger     *slog.Logger
	Validator  *validator.Validator

	// Publisher carries attempt completion events to the feedback worker.
	Publisher events.EventPublisher
	// NotificationPublisher carries outward-facing events (feedback ready,
	// exam published). Defaults to Publisher when nil.
	NotificationPublisher events.EventPublisher

	Generator *ai.Generator
}

// ServiceManager wires and owns all service instances.
type ServiceManager struct {
	mu     sync.RWMutex
	config ServiceManagerConfig

	initialized bool

	attempt      AttemptService
	exam         ExamService
	feedback     FeedbackService
	export       ExportService
	notification NotificationEventService
}

func NewServiceManager(config ServiceManagerConfig) *ServiceManager {
	return &ServiceManager{config: config}
}

// Initialize builds all services in dependency order.
func (sm *ServiceManager) Initialize() error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	if sm.config.Repository == nil {
		return fmt.Errorf("repository is required")
	}
	if sm.config.DB == nil {
		return fmt.Errorf("database connection is required")
	}
	if sm.config.Logger == nil {
		return fmt.Errorf("logger is required")
	}
	if sm.config.Validator == nil {
		return fmt.Errorf("validator is required")
	}

	generator := sm.config.Generator
	if generator == nil {
		// Without an AI provider every generation call serves fallback content
		generator = ai.NewGenerator(nil, sm.config.Logger)
	}

	notificationPublisher := sm.config.NotificationPublisher
	if notificationPublisher == nil {
		notificationPublisher = sm.config.Publisher
	}

	sm.notification = NewNotificationEventService(sm.config.Repository, notificationPublisher, sm.config.Logger)
	sm.attempt = NewAttemptService(sm.config.Repository, sm.config.DB, sm.config.Logger, sm.config.Validator, sm.config.Publisher)
	sm.exam = NewExamService(sm.config.Repository, sm.config.DB, sm.config.Logger, sm.config.Validator, generator, sm.notification)
	sm.feedback = NewFeedbackService(sm.config.Repository, sm.config.DB, sm.config.Logger, generator, sm.notification)
	sm.export = NewExportService(sm.config.Repository, sm.config.DB, sm.config.Logger)

	sm.initialized = true
	sm.config.Logger.Info("Service manager initialized")

	return nil
}

// HealthCheck verifies the backing repository connections.
func (sm *ServiceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}

	return sm.config.Repository.Ping(ctx)
}

// Shutdown releases service-owned resources. Repository connections are
// closed by their own manager.
func (sm *ServiceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if !sm.initialized {
		return nil
	}

	if sm.config.Publisher != nil {
		if err := sm.config.Publisher.Close(); err != nil {
			sm.config.Logger.Error("Failed to close event publisher", "error", err)
		}
	}

	sm.initialized = false
	sm.config.Logger.Info("Service manager shut down")

	return nil
}

// Getters panic when called before Initialize; that is a programming error,
// not a runtime condition.

func (sm *ServiceManager) AttemptService() AttemptService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	if sm.attempt == nil {
		panic("service manager not initialized: AttemptService")
	}
	return sm.attempt
}

func (sm *ServiceManager) ExamService() ExamService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	if sm.exam == nil {
		panic("service manager not initialized: ExamService")
	}
	return sm.exam
}

func (sm *ServiceManager) FeedbackService() FeedbackService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	if sm.feedback == nil {
		panic("service manager not initialized: FeedbackService")
	}
	return sm.feedback
}

func (sm *ServiceManager) ExportService() ExportService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	if sm.export == nil {
		panic("service manager not initialized: ExportService")
	}
	return sm.export
}

func (sm *ServiceManager) NotificationEventService() NotificationEventService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	if sm.notification == nil {
		panic("service manager not initialized: NotificationEventService")
	}
	return sm.notification
}
