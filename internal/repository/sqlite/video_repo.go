package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vijaymanda323/motion-video/internal/domain"
	"github.com/vijaymanda323/motion-video/internal/repository"
)

// videoRepository implements repository.VideoRepository for SQLite.
type videoRepository struct {
	db *DB
}

// NewVideoRepository creates a new SQLite video repository.
func NewVideoRepository(db *DB) repository.VideoRepository {
	return &videoRepository{db: db}
}

const videoColumns = `id, title, description, category, tags, file_name, content_type,
	size, duration, is_public, views, status, video_blob_id,
	thumbnail_blob_id, thumbnail_content_type, uploader_email, uploaded_at, updated_at`

// Create inserts a new video record.
func (r *videoRepository) Create(ctx context.Context, video *domain.Video) error {
	tags, err := json.Marshal(emptyIfNil(video.Tags))
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}

	query := `
		INSERT INTO videos (id, title, description, category, tags, file_name, content_type,
			size, duration, is_public, views, status, video_blob_id,
			thumbnail_blob_id, thumbnail_content_type, uploader_email, uploaded_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		video.ID,
		video.Title,
		video.Description,
		video.Category,
		string(tags),
		video.FileName,
		video.ContentType,
		video.Size,
		video.Duration,
		boolToInt(video.IsPublic),
		video.Views,
		video.Status,
		video.VideoBlobID,
		video.ThumbnailBlobID,
		video.ThumbnailContentType,
		video.UploaderEmail,
		video.UploadedAt.Format(time.RFC3339),
		video.UpdatedAt.Format(time.RFC3339),
	)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: video id already exists", repository.ErrDuplicate)
		}
		return fmt.Errorf("failed to create video: %w", err)
	}

	return nil
}

// GetByID retrieves a video by ID.
func (r *videoRepository) GetByID(ctx context.Context, id string) (*domain.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos WHERE id = ?`

	video, err := scanVideo(r.db.QueryRowContext(ctx, query, id))
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

	tags, err := json.Marshal(emptyIfNil(video.Tags))
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}

	query := `
		UPDATE videos
		SET title = ?, description = ?, category = ?, tags = ?, is_public = ?,
			views = ?, status = ?, duration = ?, thumbnail_blob_id = ?,
			thumbnail_content_type = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		video.Title,
		video.Description,
		video.Category,
		string(tags),
		boolToInt(video.IsPublic),
		video.Views,
		video.Status,
		video.Duration,
		video.ThumbnailBlobID,
		video.ThumbnailContentType,
		video.UpdatedAt.Format(time.RFC3339),
		video.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update video: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Delete removes a video record.
func (r *videoRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM videos WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete video: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// ListPublic returns all public videos in ready state, newest first.
func (r *videoRepository) ListPublic(ctx context.Context) ([]*domain.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos
		WHERE is_public = 1 AND status = ?
		ORDER BY uploaded_at DESC`

	return r.list(ctx, query, domain.VideoStatusReady)
}

// ListByUploader returns all videos uploaded by the given email, newest first.
func (r *videoRepository) ListByUploader(ctx context.Context, email string) ([]*domain.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos
		WHERE uploader_email = ?
		ORDER BY uploaded_at DESC`

	return r.list(ctx, query, email)
}

// IncrementViews atomically bumps the view counter and returns the new value.
// IncrementViews atomically bumps the view counter and returns the new value.
func (r *videoRepository) IncrementViews(ctx context.Context, id string) (int64, error) {
	var views int64
	err := r.db.QueryRowContext(ctx, `UPDATE videos SET views = views + 1 WHERE id = ? RETURNING views`, id).Scan(&views)
	if err != nil {
		if isNoRows(err) {
			return 0, repository.ErrNotFound
		}
		return 0, fmt.Errorf("failed to increment views: %w", err)
	}

	return views, nil
}

func (r *videoRepository) list(ctx context.Context, query string, args ...interface{}) ([]*domain.Video, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
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
	var (
		isPublic                   int
		tags, uploadedAt, updatedAt string
	)

	err := row.Scan(
		&video.ID,
		&video.Title,
		&video.Description,
		&video.Category,
		&tags,
		&video.FileName,
		&video.ContentType,
		&video.Size,
		&video.Duration,
		&isPublic,
		&video.Views,
		&video.Status,
		&video.VideoBlobID,
		&video.ThumbnailBlobID,
		&video.ThumbnailContentType,
		&video.UploaderEmail,
		&uploadedAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	video.IsPublic = isPublic != 0
	video.HasThumbnail = video.ThumbnailBlobID != ""
	video.UploadedAt, _ = time.Parse(time.RFC3339, uploadedAt)
	video.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	if err := json.Unmarshal([]byte(tags), &video.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags: %w", err)
	}

	return video, nil
}

// Ensure videoRepository implements repository.VideoRepository.
var _ repository.VideoRepository = (*videoRepository)(nil)
