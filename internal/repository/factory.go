package repository

import "context"

// Repositories holds all repository instances.
type Repositories struct {
	User  UserRepository
	Video VideoRepository
}

// DatabaseHealth is an interface for database health checks.
// Both the sqlite and postgres DB wrappers satisfy it.
type DatabaseHealth interface {
	Ping(ctx context.Context) error
	Close() error
}
