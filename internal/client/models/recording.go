// Package models defines the client-side domain types of journeykeeper.
package models

import (
	"fmt"
	"time"
)

// RecordingType is the media kind of a captured recording.
type RecordingType string

const (
	RecordingTypeAudio RecordingType = "audio"
	RecordingTypeVideo RecordingType = "video"
)

func (t RecordingType) Valid() bool {
	return t == RecordingTypeAudio || t == RecordingTypeVideo
}

// Extension is the file extension used for persisted blobs of this type.
func (t RecordingType) Extension() string {
	if t == RecordingTypeVideo {
		return "m4v"
	}
	return "m4a"
}

// ContentType is the MIME type announced to object storage on upload.
func (t RecordingType) ContentType() string {
	if t == RecordingTypeVideo {
		return "video/mp4"
	}
	return "audio/m4a"
}

func ParseRecordingType(s string) (RecordingType, error) {
	t := RecordingType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown recording type %q", s)
	}
	return t, nil
}

// RecordingStatus tracks where a recording is in the upload lifecycle.
//
//	pending_upload -> uploading -> uploaded
//	                      |
//	                      v
//	                   failed -> uploading (retry)
type RecordingStatus string

const (
	StatusPendingUpload RecordingStatus = "pending_upload"
	StatusUploading     RecordingStatus = "uploading"
	StatusUploaded      RecordingStatus = "uploaded"
	StatusFailed        RecordingStatus = "failed"
)

func (s RecordingStatus) Valid() bool {
	switch s {
	case StatusPendingUpload, StatusUploading, StatusUploaded, StatusFailed:
		return true
	}
	return false
}

// Terminal reports whether no further transition can leave s.
func (s RecordingStatus) Terminal() bool {
	return s == StatusUploaded
}

// Recording is one captured media file and its sync bookkeeping.
type Recording struct {
	ID                  string
	ServerID            *string
	JourneyID           string
	ChapterID           string
	LocalURI            string
	RemoteURL           *string
	Type                RecordingType
	DurationSeconds     float64
	SizeBytes           int64
	Status              RecordingStatus
	UploadAttempts      int
	LastUploadAttemptAt *time.Time
	ErrorMessage        *string
	IsDeleted           bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
	SyncedAt            *time.Time
}

// NewRecording carries the caller-supplied fields of a recording to insert.
type NewRecording struct {
	JourneyID       string
	ChapterID       string
	LocalURI        string
	Type            RecordingType
	DurationSeconds float64
	SizeBytes       int64
}
