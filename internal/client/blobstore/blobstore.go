// Package blobstore moves captured media from transient capture locations
// into the app's durable recordings directory and removes it again.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/journeykeeper/internal/client/models"
	"github.com/dmitrijs2005/journeykeeper/internal/filex"
	"github.com/gabriel-vasile/mimetype"
	"github.com/shirou/gopsutil/v3/disk"
)

var (
	ErrInsufficientSpace = errors.New("insufficient free space")
	ErrUnsupportedMedia  = errors.New("unsupported media type")
)

// Mode selects how Persist takes ownership of the source file.
type Mode string

const (
	// ModeCopy leaves the source in place.
	ModeCopy Mode = "copy"
	// ModeMove renames the source, falling back to copy and remove when
	// the rename crosses filesystems.
	ModeMove Mode = "move"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(s)) {
	case ModeCopy:
		return ModeCopy, nil
	case ModeMove:
		return ModeMove, nil
	}
	return "", fmt.Errorf("unknown storage mode %q", s)
}

const maxNameCollisions = 1000

type Store struct {
	dir       string
	mode      Mode
	minFree   uint64
	now       func() time.Time
	freeSpace func(ctx context.Context, path string) (uint64, error)
}

type Option func(*Store)

// WithMinFreeBytes makes Persist refuse files that would leave less than n
// bytes free on the recordings volume. Zero disables the check.
func WithMinFreeBytes(n uint64) Option {
	return func(s *Store) { s.minFree = n }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func diskFree(ctx context.Context, path string) (uint64, error) {
	u, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return 0, err
	}
	return u.Free, nil
}

// New returns a store rooted at dir. The directory is created lazily by
// the first Persist.
func New(dir string, mode Mode, opts ...Option) *Store {
	s := &Store{dir: dir, mode: mode, now: time.Now, freeSpace: diskFree}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) Dir() string { return s.dir }

// Persist takes ownership of tempPath and returns its durable location,
// named {chapterID}_{unixMillis}.{ext}.
func (s *Store) Persist(ctx context.Context, tempPath, chapterID string, typ models.RecordingType) (string, error) {
	if !typ.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedMedia, typ)
	}
	if chapterID == "" || strings.ContainsAny(chapterID, `/\`) {
		return "", fmt.Errorf("invalid chapter id %q", chapterID)
	}

	size, err := filex.Size(tempPath)
	if err != nil {
		return "", fmt.Errorf("stat capture file: %w", err)
	}

	dir, err := filex.EnsureDir(s.dir)
	if err != nil {
		return "", fmt.Errorf("recordings dir: %w", err)
	}

	if err := s.checkSpace(ctx, dir, size); err != nil {
		return "", err
	}

	dst, err := s.target(dir, chapterID, typ)
	if err != nil {
		return "", err
	}

	switch s.mode {
	case ModeMove:
		if err := os.Rename(tempPath, dst); err != nil {
			if err := filex.CopyFile(tempPath, dst); err != nil {
				return "", fmt.Errorf("move capture file: %w", err)
			}
			_ = os.Remove(tempPath)
		}
	default:
		if err := filex.CopyFile(tempPath, dst); err != nil {
			return "", fmt.Errorf("copy capture file: %w", err)
		}
	}
	return dst, nil
}

func (s *Store) checkSpace(ctx context.Context, dir string, size int64) error {
	if s.minFree == 0 {
		return nil
	}
	free, err := s.freeSpace(ctx, dir)
	if err != nil {
		return fmt.Errorf("disk usage: %w", err)
	}
	if free < uint64(size)+s.minFree {
		return fmt.Errorf("%w: %d bytes free, need %d plus %d reserve", ErrInsufficientSpace, free, size, s.minFree)
	}
	return nil
}

func (s *Store) target(dir, chapterID string, typ models.RecordingType) (string, error) {
	base := fmt.Sprintf("%s_%d", chapterID, s.now().UnixMilli())
	for i := 0; i < maxNameCollisions; i++ {
		name := base
		if i > 0 {
			name = fmt.Sprintf("%s_%d", base, i)
		}
		p := filepath.Join(dir, name+"."+typ.Extension())
		ok, err := filex.Exists(p)
		if err != nil {
			return "", err
		}
		if !ok {
			return p, nil
		}
	}
	return "", fmt.Errorf("no free file name for %s", base)
}

// Remove deletes a persisted blob. A missing file is not an error.
func (s *Store) Remove(path string) error {
	if err := filex.RemoveIfExists(path); err != nil {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}

func (s *Store) SizeOf(path string) (int64, error) {
	return filex.Size(path)
}

// DetectType sniffs the file content and maps audio/* and video/* MIME
// types (or their parents) to a recording type.
func DetectType(path string) (models.RecordingType, error) {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return "", fmt.Errorf("detect type: %w", err)
	}
	for m := mt; m != nil; m = m.Parent() {
		switch {
		case strings.HasPrefix(m.String(), "audio/"):
			return models.RecordingTypeAudio, nil
		case strings.HasPrefix(m.String(), "video/"):
			return models.RecordingTypeVideo, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedMedia, mt.String())
}
