package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/vijaymanda323/motion-video/internal/domain"
	"github.com/vijaymanda323/motion-video/internal/repository"
)

// videoRepository implements repository.VideoRepository for PostgreSQL.
type videoRepository struct {
	q Querier
}

// NewVideoRepository creates a new PostgreSQL video repository.
func NewVideoRepository(q Querier) repository.VideoRepository {
	return &videoRepository{q: q}
}

const videoColumns = `id, title, description, category, tags, file_name, content_type,
	size, duration, is_public, views, status, video_blob_id,
	thumbnail_blob_id, thumbnail_content_type, uploader_email, uploaded_at, updated_at`

// Create inserts a new video record.
func (r *videoRepository) Create(ctx context.Context, video *domain.Video) error {
	query := `
		INSERT INTO videos (id, title, description, category, tags, file_name, content_type,
			size, duration, is_public, views, status, video_blob_id,
			thumbnail_blob_id, thumbnail_content_type, uploader_email, uploaded_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	rows, err := r.q.Query(ctx, query,
		video.ID,
		video.Title,
		video.Description,
		video.Category,
		emptyIfNil(video.Tags),
		video.FileName,
		video.ContentType,
		video.Size,
		video.Duration,
		video.IsPublic,
		video.Views,
		video.Status,
		video.VideoBlobID,
		video.ThumbnailBlobID,
		video.ThumbnailContentType,
		video.UploaderEmail,
		video.UploadedAt,
		video.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: video id already exists", repository.ErrDuplicate)
		}
		return fmt.Errorf("failed to create video: %w", err)
	}
	rows.Close()

	if err := rows.Err(); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: video id already exists", repository.ErrDuplicate)
		}
		return fmt.Errorf("failed to create video: %w", err)
	}

	return nil
}

// GetByID retrieves a video by ID.
func (r *videoRepository) GetByID(ctx context.Context, id string) (*domain.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos WHERE id = $1`

	video, err := scanVideo(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get video by ID: %w", err)
	}

	return video, nil
}

// Update overwrites the mutable metadata of a video.
func (r *videoRepository) Update(ctx context.Context, video *domain.Video) error {
	video.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE videos
		SET title = $1, description = $2, category = $3, tags = $4, is_public = $5,
			views = $6, status = $7, duration = $8, thumbnail_blob_id = $9,
			thumbnail_content_type = $10, updated_at = $11
		WHERE id = $12
	`

	rows, err := r.q.Query(ctx, query,
		video.Title,
		video.Description,
		video.Category,
		emptyIfNil(video.Tags),
		video.IsPublic,
		video.Views,
		video.Status,
		video.Duration,
		video.ThumbnailBlobID,
		video.ThumbnailContentType,
		video.UpdatedAt,
		video.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update video: %w", err)
	}
	rows.Close()

	if rows.CommandTag().RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Delete removes a video record.
func (r *videoRepository) Delete(ctx context.Context, id string) error {
	rows, err := r.q.Query(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete video: %w", err)
	}
	rows.Close()

	if rows.CommandTag().RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// ListPublic returns all public videos in ready state, newest first.
func (r *videoRepository) ListPublic(ctx context.Context) ([]*domain.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos
		WHERE is_public = TRUE AND status = $1
		ORDER BY uploaded_at DESC`

	return r.list(ctx, query, domain.VideoStatusReady)
}

// ListByUploader returns all videos uploaded by the given email, newest first.
func (r *videoRepository) ListByUploader(ctx context.Context, email string) ([]*domain.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos
		WHERE uploader_email = $1
		ORDER BY uploaded_at DESC`

	return r.list(ctx, query, email)
}

// IncrementViews atomically bumps the view counter and returns the new value.
func (r *videoRepository) IncrementViews(ctx context.Context, id string) (int64, error) {
	var views int64
	err := r.q.QueryRow(ctx, `UPDATE videos SET views = views + 1 WHERE id = $1 RETURNING views`, id).Scan(&views)
	if err != nil {
		if isNoRows(err) {
			return 0, repository.ErrNotFound
		}
		return 0, fmt.Errorf("failed to increment views: %w", err)
	}

	return views, nil
}

func (r *videoRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Video, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list videos: %w", err)
	}
	defer rows.Close()

	var videos []*domain.Video
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan video: %w", err)
		}
		videos = append(videos, video)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating videos: %w", err)
	}

	return videos, nil
}

func scanVideo(row rowScanner) (*domain.Video, error) {
	video := &domain.Video{}

	err := row.Scan(
		&video.ID,
		&video.Title,
		&video.Description,
		&video.Category,
		&video.Tags,
		&video.FileName,
		&video.ContentType,
		&video.Size,
		&video.Duration,
		&video.IsPublic,
		&video.Views,
		&video.Status,
		&video.VideoBlobID,
		&video.ThumbnailBlobID,
		&video.ThumbnailContentType,
		&video.UploaderEmail,
		&video.UploadedAt,
		&video.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	video.HasThumbnail = video.ThumbnailBlobID != ""

	return video, nil
}

// Ensure videoRepository implements repository.VideoRepository.
var _ repository.VideoRepository = (*videoRepository)(nil)
