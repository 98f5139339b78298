package client

import (
	"context"
)

// UploadURLRequest asks the backend for a presigned object-storage URL.
type UploadURLRequest struct {
	JourneyID     string `json:"journey_id"`
	ChapterID     string `json:"chapter_id"`
	FileExtension string `json:"file_extension"`
	ContentType   string `json:"content_type"`
}

type UploadURL struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"`
	FileName  string `json:"fileName"`
}

// ConfirmUploadRequest registers an object already PUT to storage.
type ConfirmUploadRequest struct {
	JourneyID       string  `json:"journey_id"`
	ChapterID       string  `json:"chapter_id"`
	ObjectKey       string  `json:"object_key"`
	SizeBytes       int64   `json:"size_bytes"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// MediaUpload is the backend's record of a confirmed upload.
type MediaUpload struct {
	ID         string `json:"id"`
	JourneyID  string `json:"journeyId"`
	ChapterID  string `json:"chapterId"`
	ObjectKey  string `json:"objectKey"`
	FileName   string `json:"fileName"`
	SizeBytes  int64  `json:"sizeBytes"`
	MediaType  string `json:"mediaType"`
	UploadedAt string `json:"uploadedAt"`
}

type User struct {
	ID               string  `json:"id"`
	Email            string  `json:"email"`
	DisplayName      string  `json:"display_name"`
	PrimaryJourneyID *string `json:"primary_journey_id"`
}

// Uploader is the three-step upload protocol used by the sync manager.
type Uploader interface {
	RequestUploadURL(ctx context.Context, token string, req UploadURLRequest) (*UploadURL, error)
	PutObject(ctx context.Context, uploadURL, path, contentType string) error
	ConfirmUpload(ctx context.Context, token string, req ConfirmUploadRequest) (*MediaUpload, error)
}

// Pinger probes backend reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Client interface {
	Uploader
	Pinger
	Login(ctx context.Context, email, password string) (string, error)
	Me(ctx context.Context, token string) (*User, error)
}
