package repositories

import "context"

// Repository aggregates all the domain repositories behind one
// injectable surface. Services receive this instead of reaching for
// ambient storage, so every store can be swapped in tests.
type Repository interface {
	// Registry domain
	Student() StudentRepository

	// Issuance mirror
	Certificate() CertificateRepository

	// Events domain
	Event() EventRepository
	EventRegistration() EventRegistrationRepository

	// Notification feed
	Notification() NotificationRepository

	// Transaction support
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager interface for managing repository lifecycle
type RepositoryManager interface {
	// Initialize repositories with database connections
	Initialize() error

	// Get repository instance
	GetRepository() Repository

	// Health check for all repositories
	HealthCheck(ctx context.Context) error

	// Graceful shutdown
	Shutdown(ctx context.Context) error
}
