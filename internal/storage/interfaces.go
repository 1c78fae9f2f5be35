// Package storage defines interfaces for blob storage backends.
// The storage layer persists and retrieves raw media bytes; catalog
// metadata lives in the repository layer.
package storage

import (
	"context"
	"fmt"
	"io"
)

// Well-known buckets.
const (
	// BucketVideos holds video media blobs.
	BucketVideos = "videos"

	// BucketThumbnails holds thumbnail image blobs.
	BucketThumbnails = "thumbnails"
)

// ByteRange represents an inclusive byte range within a blob.
// A negative End means "through the final byte"; Clamp resolves it
// once the blob size is known.
type ByteRange struct {
	Start int64
	End   int64
}

// Length returns the number of bytes covered by the range.
func (r ByteRange) Length() int64 {
	return r.End - r.Start + 1
}

// ContentRange formats the range for a Content-Range response header.
func (r ByteRange) ContentRange(totalSize int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End, totalSize)
}

// Clamp validates the range against the blob size and caps End at the
// last byte. Returns false if the range cannot be satisfied.
func (r *ByteRange) Clamp(totalSize int64) bool {
	if r.Start < 0 || r.Start >= totalSize {
		return false
	}
	if r.End < 0 || r.End >= totalSize {
		r.End = totalSize - 1
	}
	return r.End >= r.Start
}

// Backend defines the interface for blob storage backends.
// Implementations include the local filesystem and S3.
type Backend interface {
	// Store writes the blob under (bucket, id), replacing any previous
	// content. Returns the number of bytes written.
	Store(ctx context.Context, bucket, id string, reader io.Reader) (int64, error)

	// Open returns a reader over the blob, restricted to rng when non-nil,
	// along with the total blob size. The caller must close the reader.
	// Returns domain.ErrBlobNotFound if the blob doesn't exist and
	// domain.ErrInvalidRange if rng cannot be satisfied.
	Open(ctx context.Context, bucket, id string, rng *ByteRange) (io.ReadCloser, int64, error)

	// Size returns the total blob size in bytes.
	// Returns domain.ErrBlobNotFound if the blob doesn't exist.
	Size(ctx context.Context, bucket, id string) (int64, error)

	// Delete removes the blob. Returns domain.ErrBlobNotFound if the
	// blob doesn't exist.
	Delete(ctx context.Context, bucket, id string) error
}
