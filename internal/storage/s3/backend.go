// Package s3 implements blob storage on S3-compatible object stores.
// All blobs live in a single configured bucket, keyed as <bucket>/<id>,
// so the logical video and thumbnail buckets map to key prefixes.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog"

	"github.com/vijaymanda323/motion-video/internal/config"
	"github.com/vijaymanda323/motion-video/internal/domain"
	"github.com/vijaymanda323/motion-video/internal/storage"
)

// Backend implements storage.Backend on an S3-compatible object store.
type Backend struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	logger   zerolog.Logger
}

// NewBackend creates an S3 backend from configuration.
func NewBackend(ctx context.Context, cfg config.S3StorageConfig, logger zerolog.Logger) (*Backend, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	logger.Info().
		Str("bucket", cfg.Bucket).
		Str("region", cfg.Region).
		Str("endpoint", cfg.Endpoint).
		Msg("using S3 blob storage")

	return &Backend{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   cfg.Bucket,
		logger:   logger.With().Str("component", "s3_storage").Logger(),
	}, nil
}

func (b *Backend) key(bucket, id string) string {
	return bucket + "/" + id
}

// Store streams the blob to S3 via multipart upload.
func (b *Backend) Store(ctx context.Context, bucket, id string, reader io.Reader) (int64, error) {
	counter := &countingReader{r: reader}

	_, err := b.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key(bucket, id)),
		Body:   counter,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to upload blob: %w", err)
	}

	b.logger.Debug().
		Str("bucket", bucket).
		Str("id", id).
		Int64("size", counter.n).
		Msg("blob stored")

	return counter.n, nil
}

// Open returns a reader over the blob, restricted to rng when non-nil.
func (b *Backend) Open(ctx context.Context, bucket, id string, rng *storage.ByteRange) (io.ReadCloser, int64, error) {
	input := &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key(bucket, id)),
	}
	if rng != nil {
		if rng.End < 0 {
			input.Range = aws.String(fmt.Sprintf("bytes=%d-", rng.Start))
		} else {
			input.Range = aws.String(fmt.Sprintf("bytes=%d-%d", rng.Start, rng.End))
		}
	}

	out, err := b.client.GetObject(ctx, input)
	if err != nil {
		if isNoSuchKey(err) {
			return nil, 0, domain.ErrBlobNotFound
		}
		if isInvalidRange(err) {
			size, serr := b.Size(ctx, bucket, id)
			if serr != nil {
				size = 0
			}
			return nil, size, domain.ErrInvalidRange
		}
		return nil, 0, fmt.Errorf("failed to get blob: %w", err)
	}

	totalSize := aws.ToInt64(out.ContentLength)
	if rng != nil {
		// Ranged responses report the full size in Content-Range.
		if total, ok := parseTotalSize(aws.ToString(out.ContentRange)); ok {
			totalSize = total
		}
		// The backend may have clamped the range at the last byte.
		rng.End = rng.Start + aws.ToInt64(out.ContentLength) - 1
	}

	return out.Body, totalSize, nil
}

// Size returns the total blob size in bytes.
func (b *Backend) Size(ctx context.Context, bucket, id string) (int64, error) {
	out, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key(bucket, id)),
	})
	if err != nil {
		if isNotFound(err) {
			return 0, domain.ErrBlobNotFound
		}
		return 0, fmt.Errorf("failed to head blob: %w", err)
	}

	return aws.ToInt64(out.ContentLength), nil
}

// Delete removes the blob.
func (b *Backend) Delete(ctx context.Context, bucket, id string) error {
	if _, err := b.Size(ctx, bucket, id); err != nil {
		return err
	}

	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key(bucket, id)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete blob: %w", err)
	}

	b.logger.Debug().Str("bucket", bucket).Str("id", id).Msg("blob deleted")

	return nil
}

// parseTotalSize extracts the total size from a Content-Range header
// such as "bytes 0-99/12345".
func parseTotalSize(contentRange string) (int64, bool) {
	idx := strings.LastIndexByte(contentRange, '/')
	if idx < 0 {
		return 0, false
	}
	total, err := strconv.ParseInt(contentRange[idx+1:], 10, 64)
	if err != nil {
		return 0, false
	}
	return total, true
}

func isNoSuchKey(err error) bool {
	var noSuchKey *types.NoSuchKey
	return errors.As(err, &noSuchKey)
}

func isNotFound(err error) bool {
	var notFound *types.NotFound
	return errors.As(err, &notFound)
}

func isInvalidRange(err error) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "InvalidRange"
}

// countingReader counts bytes as they are consumed by the uploader.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// Ensure Backend implements storage.Backend.
var _ storage.Backend = (*Backend)(nil)
