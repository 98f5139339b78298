package models

import "time"

type Journey struct {
	ID        string
	ServerID  *string
	Title     string
	UserID    string
	IsDeleted bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type ChapterStatus string

const (
	ChapterLocked    ChapterStatus = "locked"
	ChapterAvailable ChapterStatus = "available"
	ChapterCompleted ChapterStatus = "completed"
)

func (s ChapterStatus) Valid() bool {
	return s == ChapterLocked || s == ChapterAvailable || s == ChapterCompleted
}

// ChapterProgress is the local mirror of a user's progress in one chapter.
type ChapterProgress struct {
	ID                 string
	ServerID           *string
	JourneyID          string
	ChapterID          string
	Status             ChapterStatus
	ProgressPercentage float64
	MediaCount         int
	LastActivityAt     *time.Time
	IsDeleted          bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
