package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Craipes/StudyTestingSoftware-sub000/internal/events"
	"github.com/Craipes/StudyTestingSoftware-sub000/internal/repositories"
	"github.com/Craipes/StudyTestingSoftware-sub000/internal/validator"
)

// ServiceManagerConfig holds configuration for the service manager
type ServiceManagerConfig struct {
	Expiry ExpirySchedulerConfig

	// Disables the background sweep; expired sessions are then only finalized lazily
	DisableExpiryScheduler bool
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	// Dependencies
	repo      repositories.Repository
	publisher events.EventPublisher
	leases    Leaser
	logger    *slog.Logger
	validator *validator.Validator
	config    ServiceManagerConfig

	// Service instances
	sessionService SessionService
	answerRecorder AnswerRecorder
	exportService  ExportService
	scheduler      *ExpiryScheduler

	// Background sweep
	stopScheduler context.CancelFunc
	schedulerDone chan struct{}

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a new service manager with all dependencies
func NewServiceManager(repo repositories.Repository, publisher events.EventPublisher, leases Leaser, logger *slog.Logger, validator *validator.Validator, config ServiceManagerConfig) ServiceManager {
	return &serviceManager{
		repo:      repo,
		publisher: publisher,
		leases:    leases,
		logger:    logger,
		validator: validator,
		config:    config,
	}
}

// Initialize sets up all services and starts the expiry sweep
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	if err := sm.config.Validate(); err != nil {
		return err
	}

	sm.logger.Info("Initializing service manager")

	sm.sessionService = NewSessionService(sm.repo, sm.publisher, sm.logger, sm.validator)
	sm.logger.Info("Session service initialized")

	sm.answerRecorder = NewAnswerRecorder(sm.repo, sm.sessionService, sm.logger, sm.validator)
	sm.logger.Info("Answer recorder initialized")

	sm.exportService = NewExportService(sm.repo, sm.logger)
	sm.logger.Info("Export service initialized")

	sm.scheduler = NewExpiryScheduler(sm.repo, sm.sessionService, sm.leases, sm.logger, sm.config.Expiry)
	if !sm.config.DisableExpiryScheduler {
		runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		sm.stopScheduler = cancel
		sm.schedulerDone = make(chan struct{})

		go func() {
			defer close(sm.schedulerDone)
			if err := sm.scheduler.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
				sm.logger.Error("Expiry scheduler exited", "error", err)
			}
		}()
	}

	sm.initialized = true
	sm.logger.Info("Service manager initialized successfully")

	return nil
}

func (sm *serviceManager) Session() SessionService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if sm.sessionService == nil {
		panic("session service not initialized")
	}
	return sm.sessionService
}

func (sm *serviceManager) Answers() AnswerRecorder {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if sm.answerRecorder == nil {
		panic("answer recorder not initialized")
	}
	return sm.answerRecorder
}

func (sm *serviceManager) Export() ExportService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if sm.exportService == nil {
		panic("export service not initialized")
	}
	return sm.exportService
}

func (sm *serviceManager) Scheduler() *ExpiryScheduler {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.scheduler
}

// Health and lifecycle
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}

	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	if err := sm.repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}

	return nil
}

// Shutdown stops the sweep, waiting for an in-flight batch until ctx expires
func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.logger.Info("Shutting down service manager")

	if sm.stopScheduler != nil {
		sm.stopScheduler()
		select {
		case <-sm.schedulerDone:
		case <-ctx.Done():
			sm.logger.Warn("Expiry scheduler did not stop before shutdown deadline")
		}
	}

	if sm.publisher != nil {
		if err := sm.publisher.Close(); err != nil {
			sm.logger.Error("Failed to close event publisher", "error", err)
		}
	}

	sm.shutdown = true
	sm.logger.Info("Service manager shut down completed")

	return nil
}

// ===== CONFIGURATION VALIDATION =====

func (config *ServiceManagerConfig) Validate() error {
	var errs []string

	if config.Expiry.Interval < 0 {
		errs = append(errs, "expiry interval cannot be negative")
	}
	if config.Expiry.BatchSize < 0 {
		errs = append(errs, "expiry batch size cannot be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errs)
	}

	return nil
}
