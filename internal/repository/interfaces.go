// Package repository defines the persistence interfaces for the Motion
// Video backend and errors shared by all driver implementations.
package repository

import (
	"context"
	"time"

	"github.com/vijaymanda323/motion-video/internal/domain"
)

// UserRepository persists users and their streak bookkeeping.
type UserRepository interface {
	// Create inserts a new user. Returns ErrDuplicate if the email is taken.
	Create(ctx context.Context, user *domain.User) error

	// GetByEmail fetches a user by normalized email. Returns ErrNotFound
	// if no such user exists.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetByID fetches a user by ID. Returns ErrNotFound if no such user exists.
	GetByID(ctx context.Context, id int64) (*domain.User, error)

	// Update overwrites all mutable fields of the user, matched by email.
	// Returns ErrNotFound if no such user exists.
	Update(ctx context.Context, user *domain.User) error

	// List returns all users ordered by creation time.
	List(ctx context.Context) ([]*domain.User, error)
}

// VideoRepository persists video catalog metadata.
type VideoRepository interface {
	// Create inserts a new video record.
	Create(ctx context.Context, video *domain.Video) error

	// GetByID fetches a video by ID. Returns ErrNotFound if no such
	// video exists.
	GetByID(ctx context.Context, id string) (*domain.Video, error)

	// Update overwrites the mutable metadata of a video, matched by ID.
	// Returns ErrNotFound if no such video exists.
	Update(ctx context.Context, video *domain.Video) error

	// Delete removes a video record. Returns ErrNotFound if no such
	// video exists.
	Delete(ctx context.Context, id string) error

	// ListPublic returns all public videos in ready state, newest first.
	ListPublic(ctx context.Context) ([]*domain.Video, error)

	// ListByUploader returns all videos uploaded by the given email,
	// newest first, regardless of visibility.
	ListByUploader(ctx context.Context, email string) ([]*domain.Video, error)

	// IncrementViews atomically bumps the view counter and returns the
	// new value. Returns ErrNotFound if no such video exists.
	IncrementViews(ctx context.Context, id string) (int64, error)
}

// Cache provides a byte-oriented cache with TTL expiry. Implementations
// must be safe for concurrent use.
type Cache interface {
	// Get returns the cached value for key, or ErrCacheMiss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores the value under key with the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes the key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// PublicVideosCacheKey is the cache key for the public catalog listing.
const PublicVideosCacheKey = "videos:public"
