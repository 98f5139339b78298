package blobstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/journeykeeper/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.UnixMilli(1_760_000_000_000)

func writeCapture(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, data, 0o600))
	return p
}

func TestPersist_CopyKeepsSource(t *testing.T) {
	tmp := t.TempDir()
	src := writeCapture(t, tmp, "capture.tmp", []byte("audio-bytes"))
	s := New(filepath.Join(tmp, "recordings"), ModeCopy, WithClock(func() time.Time { return fixedNow }))

	dst, err := s.Persist(context.Background(), src, "chapter-1", models.RecordingTypeAudio)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(tmp, "recordings", "chapter-1_1760000000000.m4a"), dst)
	b, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "audio-bytes", string(b))
	_, err = os.Stat(src)
	assert.NoError(t, err, "copy mode leaves the source")

	size, err := s.SizeOf(dst)
	require.NoError(t, err)
	assert.EqualValues(t, len("audio-bytes"), size)
}

func TestPersist_MoveRemovesSource(t *testing.T) {
	tmp := t.TempDir()
	src := writeCapture(t, tmp, "capture.tmp", []byte("video"))
	s := New(filepath.Join(tmp, "recordings"), ModeMove, WithClock(func() time.Time { return fixedNow }))

	dst, err := s.Persist(context.Background(), src, "c9", models.RecordingTypeVideo)
	require.NoError(t, err)
	assert.Equal(t, "c9_1760000000000.m4v", filepath.Base(dst))

	_, err = os.Stat(src)
	assert.ErrorIs(t, err, os.ErrNotExist)
	_, err = os.Stat(dst)
	assert.NoError(t, err)
}

func TestPersist_SameMillisecondGetsSuffix(t *testing.T) {
	tmp := t.TempDir()
	s := New(filepath.Join(tmp, "recordings"), ModeCopy, WithClock(func() time.Time { return fixedNow }))
	src := writeCapture(t, tmp, "capture.tmp", []byte("x"))

	first, err := s.Persist(context.Background(), src, "c1", models.RecordingTypeAudio)
	require.NoError(t, err)
	second, err := s.Persist(context.Background(), src, "c1", models.RecordingTypeAudio)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, "c1_1760000000000_1.m4a", filepath.Base(second))
}

func TestPersist_DirectoryCreationIsIdempotent(t *testing.T) {
	tmp := t.TempDir()
	dir := filepath.Join(tmp, "recordings")
	require.NoError(t, os.MkdirAll(dir, 0o700))
	s := New(dir, ModeCopy)

	_, err := s.Persist(context.Background(), writeCapture(t, tmp, "a", []byte("a")), "c1", models.RecordingTypeAudio)
	require.NoError(t, err)
}

func TestPersist_Errors(t *testing.T) {
	tmp := t.TempDir()
	s := New(filepath.Join(tmp, "recordings"), ModeCopy)
	src := writeCapture(t, tmp, "a", []byte("a"))

	_, err := s.Persist(context.Background(), filepath.Join(tmp, "missing"), "c1", models.RecordingTypeAudio)
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = s.Persist(context.Background(), src, "c1", "image")
	require.ErrorIs(t, err, ErrUnsupportedMedia)

	_, err = s.Persist(context.Background(), src, "../escape", models.RecordingTypeAudio)
	require.Error(t, err)

	blocked := New(src+"/sub", ModeCopy)
	_, err = blocked.Persist(context.Background(), src, "c1", models.RecordingTypeAudio)
	require.Error(t, err, "directory under a regular file cannot be created")
}

func TestPersist_FreeSpaceGuard(t *testing.T) {
	tmp := t.TempDir()
	src := writeCapture(t, tmp, "a", make([]byte, 100))

	s := New(filepath.Join(tmp, "recordings"), ModeCopy, WithMinFreeBytes(1000))
	s.freeSpace = func(context.Context, string) (uint64, error) { return 1050, nil }

	_, err := s.Persist(context.Background(), src, "c1", models.RecordingTypeAudio)
	require.ErrorIs(t, err, ErrInsufficientSpace)
	entries, _ := os.ReadDir(filepath.Join(tmp, "recordings"))
	assert.Empty(t, entries, "nothing written when space is short")

	s.freeSpace = func(context.Context, string) (uint64, error) { return 1100, nil }
	_, err = s.Persist(context.Background(), src, "c1", models.RecordingTypeAudio)
	require.NoError(t, err)

	s.freeSpace = func(context.Context, string) (uint64, error) { return 0, errors.New("statfs failed") }
	_, err = s.Persist(context.Background(), src, "c1", models.RecordingTypeAudio)
	require.ErrorContains(t, err, "statfs failed")
}

func TestPersist_RealDiskUsage(t *testing.T) {
	tmp := t.TempDir()
	s := New(filepath.Join(tmp, "recordings"), ModeCopy, WithMinFreeBytes(1))
	_, err := s.Persist(context.Background(), writeCapture(t, tmp, "a", []byte("a")), "c1", models.RecordingTypeAudio)
	require.NoError(t, err)
}

func TestRemove_Idempotent(t *testing.T) {
	tmp := t.TempDir()
	p := writeCapture(t, tmp, "a.m4a", []byte("a"))
	s := New(tmp, ModeCopy)

	require.NoError(t, s.Remove(p))
	require.NoError(t, s.Remove(p), "already missing is fine")
	_, err := os.Stat(p)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDetectType(t *testing.T) {
	tmp := t.TempDir()

	wav := append([]byte("RIFF\x24\x00\x00\x00WAVEfmt "), make([]byte, 32)...)
	m4a := append([]byte("\x00\x00\x00\x20ftypM4A \x00\x00\x00\x00"), make([]byte, 32)...)
	mp4 := append([]byte("\x00\x00\x00\x20ftypisom\x00\x00\x02\x00"), make([]byte, 32)...)

	tests := []struct {
		name    string
		data    []byte
		want    models.RecordingType
		wantErr error
	}{
		{"wav", wav, models.RecordingTypeAudio, nil},
		{"m4a", m4a, models.RecordingTypeAudio, nil},
		{"mp4", mp4, models.RecordingTypeVideo, nil},
		{"text", []byte("just some notes\n"), "", ErrUnsupportedMedia},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectType(writeCapture(t, tmp, tt.name, tt.data))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := DetectType(filepath.Join(tmp, "missing"))
	require.Error(t, err)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("MOVE")
	require.NoError(t, err)
	assert.Equal(t, ModeMove, m)
	_, err = ParseMode("link")
	require.Error(t, err)
}
