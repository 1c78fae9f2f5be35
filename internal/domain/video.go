package domain

import (
	"strings"
	"time"
)

// Video categories. CategoryOther is the catch-all for anything
// unrecognized.
const (
	CategoryExercise = "exercise"
	CategoryTutorial = "tutorial"
	CategoryWorkout  = "workout"
	CategoryOther    = "other"
)

// Video processing states. Uploads go straight to ready because bytes
// are durably stored before the catalog record is created.
const (
	VideoStatusUploading  = "uploading"
	VideoStatusProcessing = "processing"
	VideoStatusReady      = "ready"
	VideoStatusFailed     = "failed"
)

// ValidCategory reports whether c is one of the known categories.
func ValidCategory(c string) bool {
	switch c {
	case CategoryExercise, CategoryTutorial, CategoryWorkout, CategoryOther:
		return true
	}
	return false
}

// Video represents an exercise video in the catalog. The media bytes live
// in the blob store; this entity carries the metadata and the blob IDs.
type Video struct {
	// ID is the unique identifier for the video (UUID string).
	ID string `json:"id"`

	// Title is the display title. Required.
	Title string `json:"title"`

	// Description is an optional longer description.
	Description string `json:"description,omitempty"`

	// Category groups the video in the catalog. Defaults to "exercise".
	Category string `json:"category"`

	// Tags are free-form labels used by routine search.
	Tags []string `json:"tags,omitempty"`

	// FileName is the original upload filename, kept for download headers.
	FileName string `json:"fileName"`

	// ContentType is the media type of the video blob.
	ContentType string `json:"contentType"`

	// Size is the video blob size in bytes.
	Size int64 `json:"size"`

	// Duration is the reported playback length in seconds. Zero if unknown.
	Duration float64 `json:"duration,omitempty"`

	// IsPublic controls visibility in the shared catalog.
	IsPublic bool `json:"isPublic"`

	// Views counts metadata fetches and stream starts.
	Views int64 `json:"views"`

	// Status is the processing state. Uploads land directly in "ready".
	Status string `json:"status"`

	// VideoBlobID locates the media bytes in the blob store.
	VideoBlobID string `json:"-"`

	// ThumbnailBlobID locates the optional thumbnail image. Empty if none.
	ThumbnailBlobID string `json:"-"`

	// ThumbnailContentType is the media type of the thumbnail, if present.
	ThumbnailContentType string `json:"-"`

	// HasThumbnail reports whether a thumbnail was uploaded.
	HasThumbnail bool `json:"hasThumbnail"`

	// UploaderEmail is the normalized email of the uploading user.
	UploaderEmail string `json:"uploaderEmail"`

	// UploadedAt is the timestamp when the video was uploaded.
	UploadedAt time.Time `json:"uploadedAt"`

	// UpdatedAt is the timestamp when the metadata was last changed.
	UpdatedAt time.Time `json:"updatedAt"`
}

// NormalizeTags trims whitespace from each tag and drops empties,
// preserving order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// SplitTagsCSV parses a comma-separated tag list into normalized tags.
func SplitTagsCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return NormalizeTags(strings.Split(s, ","))
}

// MatchesRoutine reports whether the video belongs to the given routine.
// A video matches when the routine appears in the title (case-insensitive
// substring) or when any tag equals the routine name, with spaces and
// hyphens treated as interchangeable.
func (v *Video) MatchesRoutine(routine string) bool {
	routine = strings.ToLower(strings.TrimSpace(routine))
	if routine == "" {
		return false
	}
	if strings.Contains(strings.ToLower(v.Title), routine) {
		return true
	}
	hyphenated := strings.ReplaceAll(routine, " ", "-")
	spaced := strings.ReplaceAll(routine, "-", " ")
	for _, tag := range v.Tags {
		t := strings.ToLower(tag)
		if t == routine || t == hyphenated || t == spaced {
			return true
		}
	}
	return false
}
