// Package service provides business logic services for the Motion Video
// backend. Business conditions are reported as domain sentinel errors;
// infrastructure failures are wrapped with ErrInternalError.
package service

import "errors"

// Common service errors.
var (
	// ErrInternalError wraps unexpected infrastructure failures.
	ErrInternalError = errors.New("internal server error")

	// ErrStoreNotReady is returned while the backing data store is still
	// initializing or has become unavailable.
	ErrStoreNotReady = errors.New("store not ready")
)
