package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/certchain/credential-service/internal/cache"
	"github.com/certchain/credential-service/internal/chain"
	"github.com/certchain/credential-service/internal/events"
	"github.com/certchain/credential-service/internal/pinning"
	"github.com/certchain/credential-service/internal/repositories"
	"github.com/certchain/credential-service/internal/validator"
)

// ServiceManagerConfig holds configuration for the service manager
type ServiceManagerConfig struct {
	EnableDebugLogging bool
	LogLevel           slog.Level

	// Global settings
	DefaultTimeout time.Duration
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	// Dependencies
	repo      repositories.Repository
	registry  chain.Registry
	pinner    pinning.Pinner
	cache     *cache.CacheManager
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *validator.Validator
	config    ServiceManagerConfig

	// Service instances
	registryService     RegistryService
	issuanceService     IssuanceService
	leaderboardService  LeaderboardService
	verificationService VerificationService
	eventService        EventService
	notificationService NotificationService
	dashboardService    DashboardService

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a new service manager with all dependencies
func NewServiceManager(
	repo repositories.Repository,
	registry chain.Registry,
	pinner pinning.Pinner,
	cacheManager *cache.CacheManager,
	publisher events.EventPublisher,
	logger *slog.Logger,
	v *validator.Validator,
	config ServiceManagerConfig,
) ServiceManager {
	return &serviceManager{
		repo:      repo,
		registry:  registry,
		pinner:    pinner,
		cache:     cacheManager,
		publisher: publisher,
		logger:    logger,
		validator: v,
		config:    config,
	}
}

// NewDefaultServiceManager creates a service manager with default configuration
func NewDefaultServiceManager(
	repo repositories.Repository,
	registry chain.Registry,
	pinner pinning.Pinner,
	cacheManager *cache.CacheManager,
	publisher events.EventPublisher,
	logger *slog.Logger,
	v *validator.Validator,
) ServiceManager {
	config := ServiceManagerConfig{
		EnableDebugLogging: false,
		LogLevel:           slog.LevelInfo,
		DefaultTimeout:     30 * time.Second,
	}

	return NewServiceManager(repo, registry, pinner, cacheManager, publisher, logger, v, config)
}

// Initialize sets up all services and their dependencies
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	sm.logger.Info("Initializing service manager")

	// Notification first: issuance and events publish through it.
	sm.notificationService = NewNotificationService(sm.repo, sm.publisher, sm.logger)
	sm.logger.Info("Notification service initialized")

	sm.registryService = NewRegistryService(sm.repo, sm.cache, sm.publisher, sm.logger, sm.validator)
	sm.logger.Info("Registry service initialized")

	sm.issuanceService = NewIssuanceService(sm.repo, sm.registry, sm.pinner, sm.cache, sm.publisher, sm.notificationService, sm.logger, sm.validator)
	sm.logger.Info("Issuance service initialized")

	sm.leaderboardService = NewLeaderboardService(sm.repo, sm.registry, sm.cache, sm.logger)
	sm.logger.Info("Leaderboard service initialized")

	sm.verificationService = NewVerificationService(sm.registry, sm.cache, sm.logger)
	sm.logger.Info("Verification service initialized")

	sm.eventService = NewEventService(sm.repo, sm.publisher, sm.notificationService, sm.logger, sm.validator)
	sm.logger.Info("Event service initialized")

	sm.dashboardService = NewDashboardService(sm.repo, sm.registry, sm.cache, sm.logger)
	sm.logger.Info("Dashboard service initialized")

	sm.initialized = true
	sm.logger.Info("Service manager initialized successfully")

	return nil
}

// Service getters
func (sm *serviceManager) Registry() RegistryService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}

	return sm.registryService
}

func (sm *serviceManager) Issuance() IssuanceService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}

	return sm.issuanceService
}

func (sm *serviceManager) Leaderboard() LeaderboardService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}

	return sm.leaderboardService
}

func (sm *serviceManager) Verification() VerificationService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}

	return sm.verificationService
}

func (sm *serviceManager) Event() EventService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}

	return sm.eventService
}

func (sm *serviceManager) Notification() NotificationService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}

	return sm.notificationService
}

func (sm *serviceManager) Dashboard() DashboardService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}

	return sm.dashboardService
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

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.logger.Info("Shutting down service manager")

	if err := sm.publisher.Close(); err != nil {
		sm.logger.Error("Failed to close event publisher", "error", err)
	}

	if sm.registry != nil {
		sm.registry.Close()
	}

	sm.shutdown = true
	sm.logger.Info("Service manager shut down completed")

	return nil
}

// WithTimeout creates a context with the default timeout
func (sm *serviceManager) WithTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, sm.config.DefaultTimeout)
}
