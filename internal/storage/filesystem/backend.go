// Package filesystem implements blob storage on the local filesystem.
// Blobs are stored under sharded directories to keep directory sizes
// manageable, and writes go through a temp file plus rename so readers
// never observe partial content. A SHA-256 digest is computed during the
// write and kept in a sidecar file for out-of-band integrity checks.
package filesystem

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/vijaymanda323/motion-video/internal/domain"
	"github.com/vijaymanda323/motion-video/internal/storage"
)

// Backend implements storage.Backend on the local filesystem.
type Backend struct {
	pathCfg storage.PathConfig
	tempDir string
	logger  zerolog.Logger
}

// NewBackend creates a filesystem backend rooted at dataDir.
func NewBackend(dataDir string, logger zerolog.Logger) (*Backend, error) {
	tempDir := filepath.Join(dataDir, ".tmp")
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directories: %w", err)
	}

	return &Backend{
		pathCfg: storage.DefaultPathConfig(dataDir),
		tempDir: tempDir,
		logger:  logger.With().Str("component", "fs_storage").Logger(),
	}, nil
}

// validID rejects IDs that could escape the storage root.
func validID(id string) bool {
	return id != "" && !strings.ContainsAny(id, `/\`) && id != "." && id != ".."
}

func (b *Backend) blobPath(bucket, id string) (string, error) {
	if !validID(id) || !validID(bucket) {
		return "", fmt.Errorf("%w: invalid blob id", domain.ErrBlobNotFound)
	}
	return storage.ComputePath(b.pathCfg, bucket, id), nil
}

// Store writes the blob under (bucket, id), replacing any previous content.
func (b *Backend) Store(ctx context.Context, bucket, id string, reader io.Reader) (int64, error) {
	path, err := b.blobPath(bucket, id)
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("failed to create shard directory: %w", err)
	}

	tmp, err := os.CreateTemp(b.tempDir, "upload-*")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	hasher := sha256.New()
	written, err := io.Copy(tmp, io.TeeReader(reader, hasher))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("failed to write blob: %w", err)
	}

	if err := ctx.Err(); err != nil {
		os.Remove(tmpPath)
		return 0, err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("failed to finalize blob: %w", err)
	}

	digest := hex.EncodeToString(hasher.Sum(nil))
	if err := os.WriteFile(checksumPath(path), []byte(digest+"\n"), 0o644); err != nil {
		b.logger.Warn().Err(err).Str("id", id).Msg("failed to write checksum sidecar")
	}

	b.logger.Debug().
		Str("bucket", bucket).
		Str("id", id).
		Int64("size", written).
		Str("sha256", digest).
		Msg("blob stored")

	return written, nil
}

// Checksum returns the SHA-256 digest recorded when the blob was stored.
func (b *Backend) Checksum(ctx context.Context, bucket, id string) (string, error) {
	path, err := b.blobPath(bucket, id)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(checksumPath(path))
	if err != nil {
		if os.IsNotExist(err) {
			return "", domain.ErrBlobNotFound
		}
		return "", fmt.Errorf("failed to read checksum sidecar: %w", err)
	}

	return strings.TrimSpace(string(data)), nil
}

func checksumPath(blobPath string) string {
	return blobPath + ".sha256"
}

// Open returns a reader over the blob, restricted to rng when non-nil.
func (b *Backend) Open(ctx context.Context, bucket, id string, rng *storage.ByteRange) (io.ReadCloser, int64, error) {
	path, err := b.blobPath(bucket, id)
	if err != nil {
		return nil, 0, err
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, domain.ErrBlobNotFound
		}
		return nil, 0, fmt.Errorf("failed to open blob: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("failed to stat blob: %w", err)
	}
	totalSize := info.Size()

	if rng == nil {
		return f, totalSize, nil
	}

	if !rng.Clamp(totalSize) {
		f.Close()
		return nil, totalSize, domain.ErrInvalidRange
	}

	return &sectionReadCloser{
		SectionReader: io.NewSectionReader(f, rng.Start, rng.Length()),
		file:          f,
	}, totalSize, nil
}

// Size returns the total blob size in bytes.
func (b *Backend) Size(ctx context.Context, bucket, id string) (int64, error) {
	path, err := b.blobPath(bucket, id)
	if err != nil {
		return 0, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, domain.ErrBlobNotFound
		}
		return 0, fmt.Errorf("failed to stat blob: %w", err)
	}

	return info.Size(), nil
}

// Delete removes the blob.
func (b *Backend) Delete(ctx context.Context, bucket, id string) error {
	path, err := b.blobPath(bucket, id)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return domain.ErrBlobNotFound
		}
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	os.Remove(checksumPath(path))

	b.logger.Debug().Str("bucket", bucket).Str("id", id).Msg("blob deleted")

	return nil
}

// sectionReadCloser wraps an io.SectionReader and closes the backing file.
type sectionReadCloser struct {
	*io.SectionReader
	file *os.File
}

func (s *sectionReadCloser) Close() error {
	return s.file.Close()
}

// Ensure Backend implements storage.Backend.
var _ storage.Backend = (*Backend)(nil)
