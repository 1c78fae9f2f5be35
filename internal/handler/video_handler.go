package handler

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/vijaymanda323/motion-video/internal/auth"
	"github.com/vijaymanda323/motion-video/internal/domain"
	"github.com/vijaymanda323/motion-video/internal/metrics"
	"github.com/vijaymanda323/motion-video/internal/service"
	"github.com/vijaymanda323/motion-video/internal/storage"
)

// uploadSlack leaves room for multipart framing, text fields, and a
// thumbnail part on top of the video file itself.
const uploadSlack = 10 << 20

// VideoHandler handles video catalog and streaming requests.
type VideoHandler struct {
	videoService *service.VideoService
	metrics      *metrics.Metrics
	maxMemory    int64
	maxFileSize  int64
	logger       zerolog.Logger
}

// NewVideoHandler creates a new VideoHandler. maxMemory bounds how much
// of a multipart upload is buffered in memory before spilling to disk;
// maxFileSize caps the request body at ingestion so oversize uploads are
// cut off instead of buffered in full.
func NewVideoHandler(videoService *service.VideoService, m *metrics.Metrics, maxMemory, maxFileSize int64, logger zerolog.Logger) *VideoHandler {
	return &VideoHandler{
		videoService: videoService,
		metrics:      m,
		maxMemory:    maxMemory,
		maxFileSize:  maxFileSize,
		logger:       logger.With().Str("handler", "video").Logger(),
	}
}

// RegisterRoutes registers video routes.
func (h *VideoHandler) RegisterRoutes(r chi.Router) {
	r.Post("/videos/upload-file", h.handleUploadFile)
	r.Post("/videos/upload", h.handleUploadJSON)
	r.Get("/videos", h.handleList)
	r.Get("/videos/routine/{routineName}", h.handleRoutine)
	r.Get("/videos/user/{email}", h.handleListByUser)
	r.Get("/videos/{videoId}", h.handleGet)
	r.Get("/videos/{videoId}/stream", h.handleStream)
	r.Get("/videos/{videoId}/thumbnail", h.handleThumbnail)
	r.Put("/videos/{videoId}", h.handleUpdate)
	r.Delete("/videos/{videoId}", h.handleDelete)
}

func (h *VideoHandler) handleUploadFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize+uploadSlack)

	if err := r.ParseMultipartForm(h.maxMemory); err != nil {
		if bodyTooLarge(err) {
			writeError(w, h.logger, domain.ErrFileTooLarge)
			return
		}
		writeError(w, h.logger, fmt.Errorf("%w: invalid multipart form", domain.ErrValidation))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("video")
	if err != nil {
		writeError(w, h.logger, domain.ErrFileRequired)
		return
	}
	defer file.Close()

	input := service.UploadInput{
		Title:         r.FormValue("title"),
		Description:   r.FormValue("description"),
		Category:      r.FormValue("category"),
		Tags:          domain.SplitTagsCSV(r.FormValue("tags")),
		UploaderEmail: h.uploaderEmail(r, r.FormValue("userEmail")),
		FileName:      header.Filename,
		ContentType:   header.Header.Get("Content-Type"),
		Size:          header.Size,
		Reader:        file,
	}

	if d := r.FormValue("duration"); d != "" {
		if duration, err := strconv.ParseFloat(d, 64); err == nil {
			input.Duration = duration
		}
	}

	if thumb, thumbHeader, err := r.FormFile("thumbnail"); err == nil {
		defer thumb.Close()
		input.ThumbnailContentType = thumbHeader.Header.Get("Content-Type")
		input.ThumbnailReader = thumb
	}

	h.finishUpload(w, r, input)
}

type uploadJSONRequest struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Category      string   `json:"category"`
	Tags          []string `json:"tags"`
	Duration      float64  `json:"duration"`
	UserEmail     string   `json:"userEmail"`
	FileName      string   `json:"fileName"`
	ContentType   string   `json:"contentType"`
	VideoData     string   `json:"videoData"`
	ThumbnailData string   `json:"thumbnailData"`

	ThumbnailContentType string `json:"thumbnailContentType"`
}

func (h *VideoHandler) handleUploadJSON(w http.ResponseWriter, r *http.Request) {
	// Base64 inflates the payload by a third, so the cap scales with it.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize*4/3+uploadSlack)

	var req uploadJSONRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if bodyTooLarge(err) {
			writeError(w, h.logger, domain.ErrFileTooLarge)
			return
		}
		writeError(w, h.logger, fmt.Errorf("%w: invalid request body", domain.ErrValidation))
		return
	}

	if req.VideoData == "" {
		writeError(w, h.logger, domain.ErrFileRequired)
		return
	}

	videoBytes, err := decodeBase64Payload(req.VideoData)
	if err != nil {
		writeError(w, h.logger, fmt.Errorf("%w: invalid videoData encoding", domain.ErrValidation))
		return
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = "video/mp4"
	}

	input := service.UploadInput{
		Title:         req.Title,
		Description:   req.Description,
		Category:      req.Category,
		Tags:          req.Tags,
		Duration:      req.Duration,
		UploaderEmail: h.uploaderEmail(r, req.UserEmail),
		FileName:      req.FileName,
		ContentType:   contentType,
		Size:          int64(len(videoBytes)),
		Reader:        bytes.NewReader(videoBytes),
	}

	if req.ThumbnailData != "" {
		thumbBytes, err := decodeBase64Payload(req.ThumbnailData)
		if err != nil {
			writeError(w, h.logger, fmt.Errorf("%w: invalid thumbnailData encoding", domain.ErrValidation))
			return
		}
		thumbType := req.ThumbnailContentType
		if thumbType == "" {
			thumbType = "image/jpeg"
		}
		input.ThumbnailContentType = thumbType
		input.ThumbnailReader = bytes.NewReader(thumbBytes)
	}

	h.finishUpload(w, r, input)
}

func (h *VideoHandler) finishUpload(w http.ResponseWriter, r *http.Request, input service.UploadInput) {
	video, err := h.videoService.Upload(r.Context(), input)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.metrics.UploadsTotal.Inc()

	writeJSON(w, http.StatusCreated, map[string]interface{}{"video": video})
}

func (h *VideoHandler) handleList(w http.ResponseWriter, r *http.Request) {
	videos, err := h.videoService.ListPublic(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":  len(videos),
		"videos": videos,
	})
}

func (h *VideoHandler) handleRoutine(w http.ResponseWriter, r *http.Request) {
	routineName := chi.URLParam(r, "routineName")

	videos, err := h.videoService.SearchRoutine(r.Context(), routineName)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"routineName": routineName,
		"count":       len(videos),
		"videos":      videos,
	})
}

func (h *VideoHandler) handleListByUser(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")

	videos, err := h.videoService.ListByUploader(r.Context(), email)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":  len(videos),
		"videos": videos,
	})
}

func (h *VideoHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	video, err := h.videoService.Get(r.Context(), chi.URLParam(r, "videoId"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"video": video})
}

func (h *VideoHandler) handleStream(w http.ResponseWriter, r *http.Request) {
	rng := parseRangeHeader(r.Header.Get("Range"))

	out, err := h.videoService.Stream(r.Context(), chi.URLParam(r, "videoId"), rng)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidRange) && out != nil {
			w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", out.TotalSize))
			writeError(w, h.logger, err)
			return
		}
		writeError(w, h.logger, err)
		return
	}
	defer out.Reader.Close()

	h.metrics.StreamsTotal.Inc()
	h.metrics.ActiveStreams.Inc()
	defer h.metrics.ActiveStreams.Dec()

	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Type", out.Video.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", out.Video.FileName))

	if out.Range != nil {
		w.Header().Set("Content-Range", out.Range.ContentRange(out.TotalSize))
		w.Header().Set("Content-Length", strconv.FormatInt(out.Range.Length(), 10))
		w.WriteHeader(http.StatusPartialContent)
	} else {
		w.Header().Set("Content-Length", strconv.FormatInt(out.TotalSize, 10))
		w.WriteHeader(http.StatusOK)
	}

	written, err := io.Copy(w, out.Reader)
	h.metrics.StreamedBytes.Add(float64(written))
	if err != nil {
		// The client usually went away mid-stream. Nothing to send back.
		h.logger.Debug().Err(err).Str("video_id", out.Video.ID).Msg("stream interrupted")
	}
}

func (h *VideoHandler) handleThumbnail(w http.ResponseWriter, r *http.Request) {
	reader, contentType, err := h.videoService.Thumbnail(r.Context(), chi.URLParam(r, "videoId"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	defer reader.Close()

	if contentType == "" {
		contentType = "image/jpeg"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	io.Copy(w, reader)
}

type updateVideoRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Category    *string  `json:"category"`
	Tags        []string `json:"tags"`
	IsPublic    *bool    `json:"isPublic"`

	ThumbnailData        string `json:"thumbnailData"`
	ThumbnailContentType string `json:"thumbnailContentType"`
}

func (h *VideoHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, fmt.Errorf("%w: invalid request body", domain.ErrValidation))
		return
	}

	input := service.UpdateMetadataInput{
		ID:          chi.URLParam(r, "videoId"),
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Tags:        req.Tags,
		IsPublic:    req.IsPublic,
	}

	if req.ThumbnailData != "" {
		thumbBytes, err := decodeBase64Payload(req.ThumbnailData)
		if err != nil {
			writeError(w, h.logger, fmt.Errorf("%w: invalid thumbnailData encoding", domain.ErrValidation))
			return
		}
		thumbType := req.ThumbnailContentType
		if thumbType == "" {
			thumbType = "image/jpeg"
		}
		input.ThumbnailContentType = thumbType
		input.ThumbnailReader = bytes.NewReader(thumbBytes)
	}

	video, err := h.videoService.UpdateMetadata(r.Context(), input)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"video": video})
}

func (h *VideoHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.videoService.Delete(r.Context(), chi.URLParam(r, "videoId")); err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "video deleted"})
}

// bodyTooLarge reports whether err came from the MaxBytesReader cap.
func bodyTooLarge(err error) bool {
	var maxBytesErr *http.MaxBytesError
	return errors.As(err, &maxBytesErr)
}

// uploaderEmail prefers the explicit form/body field and falls back to
// the session token's email.
func (h *VideoHandler) uploaderEmail(r *http.Request, fieldEmail string) string {
	if fieldEmail != "" {
		return fieldEmail
	}
	if tokenEmail, ok := auth.EmailFromContext(r.Context()); ok {
		return tokenEmail
	}
	return ""
}

// parseRangeHeader parses a single-range header of the form
// "bytes=start-end" where end is optional. Malformed or multi-range
// headers are ignored, which yields a full-body 200 response.
func parseRangeHeader(header string) *storage.ByteRange {
	if header == "" || !strings.HasPrefix(header, "bytes=") {
		return nil
	}

	spec := strings.TrimPrefix(header, "bytes=")
	if strings.Contains(spec, ",") {
		return nil
	}

	start, end, found := strings.Cut(spec, "-")
	if !found || start == "" {
		return nil
	}

	startByte, err := strconv.ParseInt(start, 10, 64)
	if err != nil || startByte < 0 {
		return nil
	}

	rng := &storage.ByteRange{Start: startByte, End: -1}
	if end != "" {
		endByte, err := strconv.ParseInt(end, 10, 64)
		if err != nil || endByte < startByte {
			return nil
		}
		rng.End = endByte
	}

	return rng
}

// decodeBase64Payload accepts standard base64, optionally prefixed with a
// data URI header as sent by some clients.
func decodeBase64Payload(data string) ([]byte, error) {
	if idx := strings.Index(data, ";base64,"); idx >= 0 {
		data = data[idx+len(";base64,"):]
	}
	return base64.StdEncoding.DecodeString(strings.TrimSpace(data))
}
