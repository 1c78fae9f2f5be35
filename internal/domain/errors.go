package domain

import (
	"errors"
	"fmt"
)

// User errors.
var (
	// ErrUserNotFound is returned when a user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists is returned when registering an email that is
	// already taken.
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrInvalidCredentials is returned on login when the email is unknown
	// or the password does not match. The two cases are indistinguishable
	// to the caller.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Video errors.
var (
	// ErrVideoNotFound is returned when a video does not exist.
	ErrVideoNotFound = errors.New("video not found")

	// ErrInvalidVideoID is returned when a video ID is not a valid UUID.
	ErrInvalidVideoID = errors.New("invalid video id")

	// ErrNoThumbnail is returned when a video has no thumbnail blob.
	ErrNoThumbnail = errors.New("video has no thumbnail")
)

// Blob errors.
var (
	// ErrBlobNotFound is returned when a blob does not exist in the store.
	ErrBlobNotFound = errors.New("blob not found")

	// ErrInvalidRange is returned when a requested byte range cannot be
	// satisfied by the blob.
	ErrInvalidRange = errors.New("invalid byte range")
)

// Validation errors. Each wraps ErrValidation so callers can match the
// whole family with a single errors.Is check.
var (
	// ErrValidation is the base error for all input validation failures.
	ErrValidation = errors.New("validation error")

	// ErrEmailRequired is returned when an email is missing.
	ErrEmailRequired = fmt.Errorf("%w: email is required", ErrValidation)

	// ErrInvalidEmail is returned when an email is malformed.
	ErrInvalidEmail = fmt.Errorf("%w: invalid email address", ErrValidation)

	// ErrPasswordTooShort is returned when a password has fewer than
	// MinPasswordLength characters.
	ErrPasswordTooShort = fmt.Errorf("%w: password too short", ErrValidation)

	// ErrNameRequired is returned when a registration name is missing.
	ErrNameRequired = fmt.Errorf("%w: name is required", ErrValidation)

	// ErrTitleRequired is returned when an upload has no title.
	ErrTitleRequired = fmt.Errorf("%w: title is required", ErrValidation)

	// ErrFileRequired is returned when an upload has no video file.
	ErrFileRequired = fmt.Errorf("%w: video file is required", ErrValidation)

	// ErrUnsupportedMediaType is returned when an uploaded file is not a
	// video (or a thumbnail is not an image).
	ErrUnsupportedMediaType = fmt.Errorf("%w: unsupported media type", ErrValidation)

	// ErrFileTooLarge is returned when an upload exceeds the size limit.
	ErrFileTooLarge = fmt.Errorf("%w: file too large", ErrValidation)
)

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 6
