package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordingType(t *testing.T) {
	tests := []struct {
		typ  RecordingType
		ext  string
		ct   string
		good bool
	}{
		{RecordingTypeAudio, "m4a", "audio/m4a", true},
		{RecordingTypeVideo, "m4v", "video/mp4", true},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			assert.Equal(t, tt.ext, tt.typ.Extension())
			assert.Equal(t, tt.ct, tt.typ.ContentType())
			assert.Equal(t, tt.good, tt.typ.Valid())
		})
	}
	assert.False(t, RecordingType("image").Valid())
}

func TestParseRecordingType(t *testing.T) {
	got, err := ParseRecordingType("video")
	require.NoError(t, err)
	assert.Equal(t, RecordingTypeVideo, got)

	_, err = ParseRecordingType("gif")
	require.Error(t, err)
}

func TestRecordingStatus(t *testing.T) {
	for _, s := range []RecordingStatus{StatusPendingUpload, StatusUploading, StatusUploaded, StatusFailed} {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, RecordingStatus("done").Valid())

	assert.True(t, StatusUploaded.Terminal())
	assert.False(t, StatusFailed.Terminal())
	assert.False(t, StatusPendingUpload.Terminal())
}

func TestSession_Expired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	assert.False(t, Session{Token: "opaque"}.Expired(now), "no expiry never expires")
	assert.True(t, Session{ExpiresAt: &past}.Expired(now))
	assert.True(t, Session{ExpiresAt: &now}.Expired(now))
	assert.False(t, Session{ExpiresAt: &future}.Expired(now))
}
