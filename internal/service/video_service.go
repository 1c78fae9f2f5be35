package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vijaymanda323/motion-video/internal/domain"
	"github.com/vijaymanda323/motion-video/internal/repository"
	"github.com/vijaymanda323/motion-video/internal/storage"
)

// publicListTTL is how long the public catalog listing stays cached.
const publicListTTL = 30 * time.Second

// VideoService handles the exercise video catalog.
type VideoService struct {
	videos      repository.VideoRepository
	users       repository.UserRepository
	blobs       storage.Backend
	cache       repository.Cache
	maxFileSize int64
	logger      zerolog.Logger
}

// NewVideoService creates a new VideoService.
func NewVideoService(videos repository.VideoRepository, users repository.UserRepository, blobs storage.Backend, cache repository.Cache, maxFileSize int64, logger zerolog.Logger) *VideoService {
	return &VideoService{
		videos:      videos,
		users:       users,
		blobs:       blobs,
		cache:       cache,
		maxFileSize: maxFileSize,
		logger:      logger.With().Str("service", "video").Logger(),
	}
}

// UploadInput contains the data needed to upload a video.
type UploadInput struct {
	Title         string
	Description   string
	Category      string
	Tags          []string
	Duration      float64
	UploaderEmail string

	FileName    string
	ContentType string
	Size        int64
	Reader      io.Reader

	// Optional thumbnail.
	ThumbnailContentType string
	ThumbnailReader      io.Reader
}

// Upload stores the media blobs and creates the catalog record.
// Uploaded videos are always public and land directly in ready state.
// The uploader must resolve to an existing user.
func (s *VideoService) Upload(ctx context.Context, input UploadInput) (*domain.Video, error) {
	if err := s.validateUploadInput(input); err != nil {
		return nil, err
	}

	uploaderEmail := domain.NormalizeEmail(input.UploaderEmail)
	if _, err := s.users.GetByEmail(ctx, uploaderEmail); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		s.logger.Error().Err(err).Str("email", uploaderEmail).Msg("failed to resolve uploader")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	category := strings.TrimSpace(input.Category)
	if !domain.ValidCategory(category) {
		category = domain.CategoryOther
	}

	videoBlobID := uuid.NewString()

	size, err := s.blobs.Store(ctx, storage.BucketVideos, videoBlobID, input.Reader)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to store video blob")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	var thumbnailBlobID string
	if input.ThumbnailReader != nil {
		thumbnailBlobID = uuid.NewString()
		if _, err := s.blobs.Store(ctx, storage.BucketThumbnails, thumbnailBlobID, input.ThumbnailReader); err != nil {
			s.deleteBlob(ctx, storage.BucketVideos, videoBlobID)
			s.logger.Error().Err(err).Msg("failed to store thumbnail blob")
			return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
		}
	}

	now := time.Now().UTC()
	video := &domain.Video{
		ID:                   uuid.NewString(),
		Title:                strings.TrimSpace(input.Title),
		Description:          input.Description,
		Category:             category,
		Tags:                 domain.NormalizeTags(input.Tags),
		FileName:             input.FileName,
		ContentType:          input.ContentType,
		Size:                 size,
		Duration:             input.Duration,
		IsPublic:             true,
		Status:               domain.VideoStatusReady,
		VideoBlobID:          videoBlobID,
		ThumbnailBlobID:      thumbnailBlobID,
		ThumbnailContentType: input.ThumbnailContentType,
		HasThumbnail:         thumbnailBlobID != "",
		UploaderEmail:        uploaderEmail,
		UploadedAt:           now,
		UpdatedAt:            now,
	}

	if err := s.videos.Create(ctx, video); err != nil {
		s.deleteBlob(ctx, storage.BucketVideos, videoBlobID)
		if thumbnailBlobID != "" {
			s.deleteBlob(ctx, storage.BucketThumbnails, thumbnailBlobID)
		}
		s.logger.Error().Err(err).Msg("failed to create video record")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.invalidatePublicList(ctx)

	s.logger.Info().
		Str("video_id", video.ID).
		Str("uploader", video.UploaderEmail).
		Int64("size", size).
		Msg("video uploaded")

	return video, nil
}

// Get returns video metadata by ID and counts the fetch as a view.
func (s *VideoService) Get(ctx context.Context, id string) (*domain.Video, error) {
	video, err := s.getByID(ctx, id)
	if err != nil {
		return nil, err
	}

	views, err := s.videos.IncrementViews(ctx, video.ID)
	if err != nil {
		s.logger.Warn().Err(err).Str("video_id", video.ID).Msg("failed to increment views")
	} else {
		video.Views = views
	}

	return video, nil
}

// StreamOutput contains everything needed to serve media bytes.
type StreamOutput struct {
	Video     *domain.Video
	Reader    io.ReadCloser
	TotalSize int64

	// Range is the satisfied byte range, nil for a full-body response.
	Range *storage.ByteRange
}

// Stream opens the video blob, restricted to rng when non-nil, and
// counts the stream start as a view. The caller must close the reader.
func (s *VideoService) Stream(ctx context.Context, id string, rng *storage.ByteRange) (*StreamOutput, error) {
	video, err := s.getByID(ctx, id)
	if err != nil {
		return nil, err
	}

	reader, totalSize, err := s.blobs.Open(ctx, storage.BucketVideos, video.VideoBlobID, rng)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidRange) {
			return &StreamOutput{Video: video, TotalSize: totalSize}, domain.ErrInvalidRange
		}
		if errors.Is(err, domain.ErrBlobNotFound) {
			s.logger.Error().Str("video_id", video.ID).Msg("video record has no blob")
			return nil, domain.ErrBlobNotFound
		}
		s.logger.Error().Err(err).Str("video_id", video.ID).Msg("failed to open video blob")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if views, err := s.videos.IncrementViews(ctx, video.ID); err != nil {
		s.logger.Warn().Err(err).Str("video_id", video.ID).Msg("failed to increment views")
	} else {
		video.Views = views
	}

	return &StreamOutput{
		Video:     video,
		Reader:    reader,
		TotalSize: totalSize,
		Range:     rng,
	}, nil
}

// Thumbnail opens the thumbnail blob for a video. Thumbnail fetches do
// not count as views.
func (s *VideoService) Thumbnail(ctx context.Context, id string) (io.ReadCloser, string, error) {
	video, err := s.getByID(ctx, id)
	if err != nil {
		return nil, "", err
	}

	if video.ThumbnailBlobID == "" {
		return nil, "", domain.ErrNoThumbnail
	}

	reader, _, err := s.blobs.Open(ctx, storage.BucketThumbnails, video.ThumbnailBlobID, nil)
	if err != nil {
		if errors.Is(err, domain.ErrBlobNotFound) {
			return nil, "", domain.ErrNoThumbnail
		}
		s.logger.Error().Err(err).Str("video_id", video.ID).Msg("failed to open thumbnail blob")
		return nil, "", fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	return reader, video.ThumbnailContentType, nil
}

// ListPublic returns all public ready videos, newest first. The listing
// is cached briefly to absorb catalog-browse bursts.
func (s *VideoService) ListPublic(ctx context.Context) ([]*domain.Video, error) {
	if cached, err := s.cache.Get(ctx, repository.PublicVideosCacheKey); err == nil {
		var videos []*domain.Video
		if err := json.Unmarshal(cached, &videos); err == nil {
			return videos, nil
		}
	}

	videos, err := s.videos.ListPublic(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list public videos")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if data, err := json.Marshal(videos); err == nil {
		if err := s.cache.Set(ctx, repository.PublicVideosCacheKey, data, publicListTTL); err != nil {
			s.logger.Debug().Err(err).Msg("failed to cache public listing")
		}
	}

	return videos, nil
}

// ListByUploader returns all videos uploaded by the given email.
func (s *VideoService) ListByUploader(ctx context.Context, email string) ([]*domain.Video, error) {
	videos, err := s.videos.ListByUploader(ctx, domain.NormalizeEmail(email))
	if err != nil {
		s.logger.Error().Err(err).Str("email", email).Msg("failed to list videos by uploader")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return videos, nil
}

// SearchRoutine returns public videos matching a routine name by title
// substring or tag.
func (s *VideoService) SearchRoutine(ctx context.Context, routine string) ([]*domain.Video, error) {
	videos, err := s.ListPublic(ctx)
	if err != nil {
		return nil, err
	}

	matched := make([]*domain.Video, 0, len(videos))
	for _, v := range videos {
		if v.MatchesRoutine(routine) {
			matched = append(matched, v)
		}
	}

	return matched, nil
}

// UpdateMetadataInput contains video metadata fields to change.
// Nil pointers leave the corresponding field untouched.
type UpdateMetadataInput struct {
	ID          string
	Title       *string
	Description *string
	Category    *string
	Tags        []string
	IsPublic    *bool

	// Optional replacement thumbnail.
	ThumbnailContentType string
	ThumbnailReader      io.Reader
}

// UpdateMetadata changes catalog metadata with sparse-update semantics.
// A supplied thumbnail replaces the previous one; the old blob is
// deleted best effort.
func (s *VideoService) UpdateMetadata(ctx context.Context, input UpdateMetadataInput) (*domain.Video, error) {
	video, err := s.getByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, domain.ErrTitleRequired
		}
		video.Title = title
	}
	if input.Description != nil {
		video.Description = *input.Description
	}
	if input.Category != nil {
		video.Category = *input.Category
	}
	if input.Tags != nil {
		video.Tags = domain.NormalizeTags(input.Tags)
	}
	if input.IsPublic != nil {
		video.IsPublic = *input.IsPublic
	}

	if input.ThumbnailReader != nil {
		if !strings.HasPrefix(input.ThumbnailContentType, "image/") {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedMediaType, input.ThumbnailContentType)
		}

		if video.ThumbnailBlobID != "" {
			s.deleteBlob(ctx, storage.BucketThumbnails, video.ThumbnailBlobID)
		}

		thumbnailBlobID := uuid.NewString()
		if _, err := s.blobs.Store(ctx, storage.BucketThumbnails, thumbnailBlobID, input.ThumbnailReader); err != nil {
			s.logger.Error().Err(err).Str("video_id", video.ID).Msg("failed to store replacement thumbnail")
			return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
		}
		video.ThumbnailBlobID = thumbnailBlobID
		video.ThumbnailContentType = input.ThumbnailContentType
		video.HasThumbnail = true
	}

	if err := s.videos.Update(ctx, video); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrVideoNotFound
		}
		s.logger.Error().Err(err).Str("video_id", video.ID).Msg("failed to update video")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.invalidatePublicList(ctx)

	return video, nil
}

// Delete removes a video and its blobs. Blob deletion is best effort;
// the catalog record is the source of truth.
func (s *VideoService) Delete(ctx context.Context, id string) error {
	video, err := s.getByID(ctx, id)
	if err != nil {
		return err
	}

	s.deleteBlob(ctx, storage.BucketVideos, video.VideoBlobID)
	if video.ThumbnailBlobID != "" {
		s.deleteBlob(ctx, storage.BucketThumbnails, video.ThumbnailBlobID)
	}

	if err := s.videos.Delete(ctx, video.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrVideoNotFound
		}
		s.logger.Error().Err(err).Str("video_id", video.ID).Msg("failed to delete video record")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.invalidatePublicList(ctx)

	s.logger.Info().Str("video_id", video.ID).Msg("video deleted")

	return nil
}

func (s *VideoService) getByID(ctx context.Context, id string) (*domain.Video, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrInvalidVideoID
	}

	video, err := s.videos.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrVideoNotFound
		}
		s.logger.Error().Err(err).Str("video_id", id).Msg("failed to get video")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	return video, nil
}

func (s *VideoService) deleteBlob(ctx context.Context, bucket, id string) {
	if err := s.blobs.Delete(ctx, bucket, id); err != nil && !errors.Is(err, domain.ErrBlobNotFound) {
		s.logger.Warn().Err(err).Str("bucket", bucket).Str("blob_id", id).Msg("failed to delete blob")
	}
}

func (s *VideoService) invalidatePublicList(ctx context.Context) {
	if err := s.cache.Delete(ctx, repository.PublicVideosCacheKey); err != nil {
		s.logger.Debug().Err(err).Msg("failed to invalidate public listing cache")
	}
}

// validateUploadInput checks upload fields.
func (s *VideoService) validateUploadInput(input UploadInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return domain.ErrTitleRequired
	}
	if input.Reader == nil {
		return domain.ErrFileRequired
	}
	if !strings.HasPrefix(input.ContentType, "video/") {
		return fmt.Errorf("%w: %s", domain.ErrUnsupportedMediaType, input.ContentType)
	}
	if input.ThumbnailReader != nil && !strings.HasPrefix(input.ThumbnailContentType, "image/") {
		return fmt.Errorf("%w: %s", domain.ErrUnsupportedMediaType, input.ThumbnailContentType)
	}
	if s.maxFileSize > 0 && input.Size > s.maxFileSize {
		return fmt.Errorf("%w: limit is %d bytes", domain.ErrFileTooLarge, s.maxFileSize)
	}
	if domain.NormalizeEmail(input.UploaderEmail) == "" {
		return domain.ErrEmailRequired
	}
	return nil
}
