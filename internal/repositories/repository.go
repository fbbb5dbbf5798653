package repositories

import (
	"context"
	"errors"
)

// Repository aggregates all repositories of the session service
type Repository interface {
	// Test definitions (read-only, always the live definition)
	Test() TestRepository
	Membership() MembershipRepository

	// Session domain
	Session() SessionRepository
	Answer() AnswerRepository

	// Reward state
	Profile() ProfileRepository

	// Transaction support: fn receives a Repository bound to the transaction
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

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}
