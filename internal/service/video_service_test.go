package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vijaymanda323/motion-video/internal/domain"
	"github.com/vijaymanda323/motion-video/internal/repository"
	"github.com/vijaymanda323/motion-video/internal/storage"
)

// =============================================================================
// Mocks
// =============================================================================

type mockVideoRepository struct {
	mock.Mock
}

func (m *mockVideoRepository) Create(ctx context.Context, video *domain.Video) error {
	args := m.Called(ctx, video)
	return args.Error(0)
}

func (m *mockVideoRepository) GetByID(ctx context.Context, id string) (*domain.Video, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Video), args.Error(1)
}

func (m *mockVideoRepository) Update(ctx context.Context, video *domain.Video) error {
	args := m.Called(ctx, video)
	return args.Error(0)
}

func (m *mockVideoRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockVideoRepository) ListPublic(ctx context.Context) ([]*domain.Video, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Video), args.Error(1)
}

func (m *mockVideoRepository) ListByUploader(ctx context.Context, email string) ([]*domain.Video, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Video), args.Error(1)
}

func (m *mockVideoRepository) IncrementViews(ctx context.Context, id string) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

var _ repository.VideoRepository = (*mockVideoRepository)(nil)

type mockStorageBackend struct {
	mock.Mock
}

func (m *mockStorageBackend) Store(ctx context.Context, bucket, id string, reader io.Reader) (int64, error) {
	args := m.Called(ctx, bucket, id, reader)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStorageBackend) Open(ctx context.Context, bucket, id string, rng *storage.ByteRange) (io.ReadCloser, int64, error) {
	args := m.Called(ctx, bucket, id, rng)
	var rc io.ReadCloser
	if args.Get(0) != nil {
		rc = args.Get(0).(io.ReadCloser)
	}
	return rc, args.Get(1).(int64), args.Error(2)
}

func (m *mockStorageBackend) Size(ctx context.Context, bucket, id string) (int64, error) {
	args := m.Called(ctx, bucket, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStorageBackend) Delete(ctx context.Context, bucket, id string) error {
	args := m.Called(ctx, bucket, id)
	return args.Error(0)
}

var _ storage.Backend = (*mockStorageBackend)(nil)

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

var _ repository.Cache = (*mockCache)(nil)

const testMaxFileSize = 500 * 1024 * 1024

func newTestVideoService() (*VideoService, *mockVideoRepository, *mockUserRepository, *mockStorageBackend, *mockCache) {
	videos := &mockVideoRepository{}
	users := &mockUserRepository{}
	blobs := &mockStorageBackend{}
	cache := &mockCache{}
	svc := NewVideoService(videos, users, blobs, cache, testMaxFileSize, zerolog.Nop())
	return svc, videos, users, blobs, cache
}

func validUploadInput() UploadInput {
	return UploadInput{
		Title:         "Morning Cat Cow Flow",
		Description:   "Gentle spine mobility",
		Category:      domain.CategoryExercise,
		Tags:          []string{"cat-cow", " back "},
		Duration:      90,
		UploaderEmail: "jane@x.com",
		FileName:      "catcow.mp4",
		ContentType:   "video/mp4",
		Size:          2048,
		Reader:        strings.NewReader("video-bytes"),
	}
}

// =============================================================================
// Upload
// =============================================================================

func TestVideoService_Upload(t *testing.T) {
	svc, videos, users, blobs, cache := newTestVideoService()

	users.On("GetByEmail", mock.Anything, "jane@x.com").Return(&domain.User{ID: 1, Email: "jane@x.com"}, nil)
	blobs.On("Store", mock.Anything, storage.BucketVideos, mock.Anything, mock.Anything).Return(int64(2048), nil)
	videos.On("Create", mock.Anything, mock.AnythingOfType("*domain.Video")).Return(nil)
	cache.On("Delete", mock.Anything, repository.PublicVideosCacheKey).Return(nil)

	video, err := svc.Upload(context.Background(), validUploadInput())
	require.NoError(t, err)

	require.NotEmpty(t, video.ID)
	require.True(t, video.IsPublic)
	require.Equal(t, domain.VideoStatusReady, video.Status)
	require.Equal(t, int64(2048), video.Size)
	require.Equal(t, []string{"cat-cow", "back"}, video.Tags)
	require.Equal(t, "jane@x.com", video.UploaderEmail)
	require.False(t, video.HasThumbnail)
	videos.AssertExpectations(t)
}

func TestVideoService_Upload_WithThumbnail(t *testing.T) {
	svc, videos, users, blobs, cache := newTestVideoService()

	users.On("GetByEmail", mock.Anything, "jane@x.com").Return(&domain.User{ID: 1}, nil)
	blobs.On("Store", mock.Anything, storage.BucketVideos, mock.Anything, mock.Anything).Return(int64(2048), nil)
	blobs.On("Store", mock.Anything, storage.BucketThumbnails, mock.Anything, mock.Anything).Return(int64(64), nil)
	videos.On("Create", mock.Anything, mock.Anything).Return(nil)
	cache.On("Delete", mock.Anything, mock.Anything).Return(nil)

	input := validUploadInput()
	input.ThumbnailContentType = "image/jpeg"
	input.ThumbnailReader = strings.NewReader("thumb-bytes")

	video, err := svc.Upload(context.Background(), input)
	require.NoError(t, err)
	require.True(t, video.HasThumbnail)
	require.NotEmpty(t, video.ThumbnailBlobID)
	require.Equal(t, "image/jpeg", video.ThumbnailContentType)
}

func TestVideoService_Upload_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*UploadInput)
		wantErr error
	}{
		{
			name:    "missing title",
			mutate:  func(in *UploadInput) { in.Title = "  " },
			wantErr: domain.ErrTitleRequired,
		},
		{
			name:    "missing file",
			mutate:  func(in *UploadInput) { in.Reader = nil },
			wantErr: domain.ErrFileRequired,
		},
		{
			name:    "non-video content type",
			mutate:  func(in *UploadInput) { in.ContentType = "application/pdf" },
			wantErr: domain.ErrUnsupportedMediaType,
		},
		{
			name: "non-image thumbnail",
			mutate: func(in *UploadInput) {
				in.ThumbnailReader = strings.NewReader("x")
				in.ThumbnailContentType = "video/mp4"
			},
			wantErr: domain.ErrUnsupportedMediaType,
		},
		{
			name:    "file too large",
			mutate:  func(in *UploadInput) { in.Size = testMaxFileSize + 1 },
			wantErr: domain.ErrFileTooLarge,
		},
		{
			name:    "missing uploader email",
			mutate:  func(in *UploadInput) { in.UploaderEmail = " " },
			wantErr: domain.ErrEmailRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _, _, _ := newTestVideoService()

			input := validUploadInput()
			tt.mutate(&input)

			_, err := svc.Upload(context.Background(), input)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestVideoService_Upload_UnknownUploader(t *testing.T) {
	svc, _, users, _, _ := newTestVideoService()

	users.On("GetByEmail", mock.Anything, "jane@x.com").Return(nil, repository.ErrNotFound)

	_, err := svc.Upload(context.Background(), validUploadInput())
	require.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestVideoService_Upload_UnknownCategoryFallsBackToOther(t *testing.T) {
	svc, videos, users, blobs, cache := newTestVideoService()

	users.On("GetByEmail", mock.Anything, mock.Anything).Return(&domain.User{ID: 1}, nil)
	blobs.On("Store", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(int64(10), nil)
	videos.On("Create", mock.Anything, mock.Anything).Return(nil)
	cache.On("Delete", mock.Anything, mock.Anything).Return(nil)

	tests := []struct {
		name     string
		category string
	}{
		{name: "unrecognized", category: "freestyle"},
		{name: "empty", category: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validUploadInput()
			input.Category = tt.category

			video, err := svc.Upload(context.Background(), input)
			require.NoError(t, err)
			require.Equal(t, domain.CategoryOther, video.Category)
		})
	}
}

func TestVideoService_Upload_ThumbnailFailureCleansUpVideoBlob(t *testing.T) {
	svc, videos, users, blobs, _ := newTestVideoService()

	users.On("GetByEmail", mock.Anything, mock.Anything).Return(&domain.User{ID: 1}, nil)
	blobs.On("Store", mock.Anything, storage.BucketVideos, mock.Anything, mock.Anything).Return(int64(2048), nil)
	blobs.On("Store", mock.Anything, storage.BucketThumbnails, mock.Anything, mock.Anything).Return(int64(0), assertedErr)
	blobs.On("Delete", mock.Anything, storage.BucketVideos, mock.Anything).Return(nil)

	input := validUploadInput()
	input.ThumbnailContentType = "image/png"
	input.ThumbnailReader = strings.NewReader("thumb")

	_, err := svc.Upload(context.Background(), input)
	require.ErrorIs(t, err, ErrInternalError)
	blobs.AssertCalled(t, "Delete", mock.Anything, storage.BucketVideos, mock.Anything)
	videos.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestVideoService_Upload_CreateFailureCleansUpBlobs(t *testing.T) {
	svc, videos, users, blobs, _ := newTestVideoService()

	users.On("GetByEmail", mock.Anything, mock.Anything).Return(&domain.User{ID: 1}, nil)
	blobs.On("Store", mock.Anything, storage.BucketVideos, mock.Anything, mock.Anything).Return(int64(2048), nil)
	videos.On("Create", mock.Anything, mock.Anything).Return(assertedErr)
	blobs.On("Delete", mock.Anything, storage.BucketVideos, mock.Anything).Return(nil)

	_, err := svc.Upload(context.Background(), validUploadInput())
	require.ErrorIs(t, err, ErrInternalError)
	blobs.AssertCalled(t, "Delete", mock.Anything, storage.BucketVideos, mock.Anything)
}

// =============================================================================
// Get / Stream / Thumbnail
// =============================================================================

func TestVideoService_Get_CountsView(t *testing.T) {
	svc, videos, _, _, _ := newTestVideoService()

	id := uuid.NewString()
	videos.On("GetByID", mock.Anything, id).Return(&domain.Video{ID: id, Views: 4}, nil)
	videos.On("IncrementViews", mock.Anything, id).Return(int64(5), nil)

	video, err := svc.Get(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, int64(5), video.Views)
}

func TestVideoService_Get_Errors(t *testing.T) {
	svc, videos, _, _, _ := newTestVideoService()

	missing := uuid.NewString()
	videos.On("GetByID", mock.Anything, missing).Return(nil, repository.ErrNotFound)

	_, err := svc.Get(context.Background(), "not-a-uuid")
	require.ErrorIs(t, err, domain.ErrInvalidVideoID)

	_, err = svc.Get(context.Background(), missing)
	require.ErrorIs(t, err, domain.ErrVideoNotFound)
}

func TestVideoService_Stream(t *testing.T) {
	svc, videos, _, blobs, _ := newTestVideoService()

	id := uuid.NewString()
	video := &domain.Video{ID: id, VideoBlobID: "blob-1", ContentType: "video/mp4"}
	videos.On("GetByID", mock.Anything, id).Return(video, nil)
	videos.On("IncrementViews", mock.Anything, id).Return(int64(1), nil)

	rng := &storage.ByteRange{Start: 0, End: 99}
	blobs.On("Open", mock.Anything, storage.BucketVideos, "blob-1", rng).
		Return(io.NopCloser(strings.NewReader(strings.Repeat("x", 100))), int64(1000), nil)

	out, err := svc.Stream(context.Background(), id, rng)
	require.NoError(t, err)
	defer out.Reader.Close()

	require.Equal(t, int64(1000), out.TotalSize)
	require.Equal(t, rng, out.Range)
	require.Equal(t, int64(1), out.Video.Views)

	body, err := io.ReadAll(out.Reader)
	require.NoError(t, err)
	require.Len(t, body, 100)
}

func TestVideoService_Stream_InvalidRangeCarriesTotalSize(t *testing.T) {
	svc, videos, _, blobs, _ := newTestVideoService()

	id := uuid.NewString()
	videos.On("GetByID", mock.Anything, id).Return(&domain.Video{ID: id, VideoBlobID: "blob-1"}, nil)

	rng := &storage.ByteRange{Start: 5000, End: 6000}
	blobs.On("Open", mock.Anything, storage.BucketVideos, "blob-1", rng).
		Return(nil, int64(1000), domain.ErrInvalidRange)

	out, err := svc.Stream(context.Background(), id, rng)
	require.ErrorIs(t, err, domain.ErrInvalidRange)
	require.NotNil(t, out)
	require.Equal(t, int64(1000), out.TotalSize)
}

func TestVideoService_Stream_ViewIncrementFailureIsNonFatal(t *testing.T) {
	svc, videos, _, blobs, _ := newTestVideoService()

	id := uuid.NewString()
	videos.On("GetByID", mock.Anything, id).Return(&domain.Video{ID: id, VideoBlobID: "blob-1"}, nil)
	videos.On("IncrementViews", mock.Anything, id).Return(int64(0), assertedErr)
	blobs.On("Open", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(io.NopCloser(strings.NewReader("data")), int64(4), nil)

	out, err := svc.Stream(context.Background(), id, nil)
	require.NoError(t, err)
	out.Reader.Close()
}

func TestVideoService_Thumbnail(t *testing.T) {
	svc, videos, _, blobs, _ := newTestVideoService()

	withThumb := uuid.NewString()
	noThumb := uuid.NewString()
	videos.On("GetByID", mock.Anything, withThumb).
		Return(&domain.Video{ID: withThumb, ThumbnailBlobID: "thumb-1", ThumbnailContentType: "image/png"}, nil)
	videos.On("GetByID", mock.Anything, noThumb).Return(&domain.Video{ID: noThumb}, nil)
	blobs.On("Open", mock.Anything, storage.BucketThumbnails, "thumb-1", (*storage.ByteRange)(nil)).
		Return(io.NopCloser(strings.NewReader("png")), int64(3), nil)

	reader, contentType, err := svc.Thumbnail(context.Background(), withThumb)
	require.NoError(t, err)
	reader.Close()
	require.Equal(t, "image/png", contentType)

	_, _, err = svc.Thumbnail(context.Background(), noThumb)
	require.ErrorIs(t, err, domain.ErrNoThumbnail)
}

// =============================================================================
// Listing and search
// =============================================================================

func TestVideoService_ListPublic_CachesListing(t *testing.T) {
	svc, videos, _, _, cache := newTestVideoService()

	listing := []*domain.Video{{ID: uuid.NewString(), Title: "Plank Basics"}}
	cache.On("Get", mock.Anything, repository.PublicVideosCacheKey).Return(nil, repository.ErrCacheMiss).Once()
	videos.On("ListPublic", mock.Anything).Return(listing, nil).Once()
	cache.On("Set", mock.Anything, repository.PublicVideosCacheKey, mock.Anything, publicListTTL).
		Run(func(args mock.Arguments) {
			data := args.Get(2).([]byte)
			cache.On("Get", mock.Anything, repository.PublicVideosCacheKey).Return(data, nil)
		}).
		Return(nil).Once()

	first, err := svc.ListPublic(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 1)

	// Second call is served from cache; the repository is not hit again.
	second, err := svc.ListPublic(context.Background())
	require.NoError(t, err)
	require.Equal(t, first[0].ID, second[0].ID)
	videos.AssertNumberOfCalls(t, "ListPublic", 1)
}

func TestVideoService_SearchRoutine(t *testing.T) {
	svc, videos, _, _, cache := newTestVideoService()

	listing := []*domain.Video{
		{ID: uuid.NewString(), Title: "Morning Cat Cow Flow"},
		{ID: uuid.NewString(), Title: "Spine Mobility", Tags: []string{"cat-cow"}},
		{ID: uuid.NewString(), Title: "Hamstring Stretch", Tags: []string{"legs"}},
	}
	cache.On("Get", mock.Anything, mock.Anything).Return(nil, repository.ErrCacheMiss)
	cache.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	videos.On("ListPublic", mock.Anything).Return(listing, nil)

	matched, err := svc.SearchRoutine(context.Background(), "Cat Cow")
	require.NoError(t, err)
	require.Len(t, matched, 2)
}

// =============================================================================
// Update and delete
// =============================================================================

func TestVideoService_UpdateMetadata_Sparse(t *testing.T) {
	svc, videos, _, _, cache := newTestVideoService()

	id := uuid.NewString()
	stored := &domain.Video{ID: id, Title: "Old Title", Description: "Old description", IsPublic: true}
	videos.On("GetByID", mock.Anything, id).Return(stored, nil)
	videos.On("Update", mock.Anything, mock.AnythingOfType("*domain.Video")).Return(nil)
	cache.On("Delete", mock.Anything, mock.Anything).Return(nil)

	title := "New Title"
	video, err := svc.UpdateMetadata(context.Background(), UpdateMetadataInput{ID: id, Title: &title})
	require.NoError(t, err)

	require.Equal(t, "New Title", video.Title)
	require.Equal(t, "Old description", video.Description)
	require.True(t, video.IsPublic)
}

func TestVideoService_UpdateMetadata_ReplacesThumbnail(t *testing.T) {
	svc, videos, _, blobs, cache := newTestVideoService()

	id := uuid.NewString()
	stored := &domain.Video{ID: id, Title: "Flow", ThumbnailBlobID: "old-thumb"}
	videos.On("GetByID", mock.Anything, id).Return(stored, nil)
	videos.On("Update", mock.Anything, mock.Anything).Return(nil)
	blobs.On("Delete", mock.Anything, storage.BucketThumbnails, "old-thumb").Return(nil)
	blobs.On("Store", mock.Anything, storage.BucketThumbnails, mock.Anything, mock.Anything).Return(int64(32), nil)
	cache.On("Delete", mock.Anything, mock.Anything).Return(nil)

	video, err := svc.UpdateMetadata(context.Background(), UpdateMetadataInput{
		ID:                   id,
		ThumbnailContentType: "image/png",
		ThumbnailReader:      strings.NewReader("new-thumb"),
	})
	require.NoError(t, err)

	require.True(t, video.HasThumbnail)
	require.NotEqual(t, "old-thumb", video.ThumbnailBlobID)
	blobs.AssertCalled(t, "Delete", mock.Anything, storage.BucketThumbnails, "old-thumb")
}

func TestVideoService_UpdateMetadata_EmptyTitleRejected(t *testing.T) {
	svc, videos, _, _, _ := newTestVideoService()

	id := uuid.NewString()
	videos.On("GetByID", mock.Anything, id).Return(&domain.Video{ID: id, Title: "Kept"}, nil)

	empty := "  "
	_, err := svc.UpdateMetadata(context.Background(), UpdateMetadataInput{ID: id, Title: &empty})
	require.ErrorIs(t, err, domain.ErrTitleRequired)
}

func TestVideoService_Delete(t *testing.T) {
	svc, videos, _, blobs, cache := newTestVideoService()

	id := uuid.NewString()
	stored := &domain.Video{ID: id, VideoBlobID: "blob-1", ThumbnailBlobID: "thumb-1"}
	videos.On("GetByID", mock.Anything, id).Return(stored, nil)
	videos.On("Delete", mock.Anything, id).Return(nil)
	blobs.On("Delete", mock.Anything, storage.BucketVideos, "blob-1").Return(nil)
	blobs.On("Delete", mock.Anything, storage.BucketThumbnails, "thumb-1").Return(nil)
	cache.On("Delete", mock.Anything, mock.Anything).Return(nil)

	require.NoError(t, svc.Delete(context.Background(), id))
	videos.AssertExpectations(t)
	blobs.AssertExpectations(t)
}

func TestVideoService_Delete_BlobFailureStillDeletesRecord(t *testing.T) {
	svc, videos, _, blobs, cache := newTestVideoService()

	id := uuid.NewString()
	stored := &domain.Video{ID: id, VideoBlobID: "blob-1"}
	videos.On("GetByID", mock.Anything, id).Return(stored, nil)
	videos.On("Delete", mock.Anything, id).Return(nil)
	blobs.On("Delete", mock.Anything, storage.BucketVideos, "blob-1").Return(assertedErr)
	cache.On("Delete", mock.Anything, mock.Anything).Return(nil)

	require.NoError(t, svc.Delete(context.Background(), id))
	videos.AssertCalled(t, "Delete", mock.Anything, id)
}

func TestVideoService_Delete_NotFound(t *testing.T) {
	svc, videos, _, blobs, _ := newTestVideoService()

	id := uuid.NewString()
	videos.On("GetByID", mock.Anything, id).Return(nil, repository.ErrNotFound)

	require.ErrorIs(t, svc.Delete(context.Background(), id), domain.ErrVideoNotFound)
	blobs.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
}
