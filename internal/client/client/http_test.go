package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.Handler) (*HTTPClient, *httptest.Server) {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	c, err := NewHTTPClient(ts.URL+"/api/v1", "", ts.Client())
	require.NoError(t, err)
	return c, ts
}

func TestNewHTTPClient(t *testing.T) {
	c, err := NewHTTPClient("http://localhost:8000/api/v1/", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000/api/v1", c.baseURL)
	assert.Equal(t, "http://localhost:8000/healthz", c.healthURL)

	c, err = NewHTTPClient("http://localhost:8000/api/v1", "http://probe/health", nil)
	require.NoError(t, err)
	assert.Equal(t, "http://probe/health", c.healthURL)

	_, err = NewHTTPClient("localhost:8000", "", nil)
	require.Error(t, err)
}

func TestRequestUploadURL(t *testing.T) {
	var got UploadURLRequest
	var auth string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/media/upload-url", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]string{
			"uploadUrl": "http://bucket/put?sig=1",
			"objectKey": "journeys/j1/c1/abc.m4a",
			"fileName":  "abc.m4a",
		})
	}))

	out, err := c.RequestUploadURL(context.Background(), "tok", UploadURLRequest{
		JourneyID: "j1", ChapterID: "c1", FileExtension: "m4a", ContentType: "audio/m4a",
	})
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok", auth)
	assert.Equal(t, UploadURLRequest{JourneyID: "j1", ChapterID: "c1", FileExtension: "m4a", ContentType: "audio/m4a"}, got)
	assert.Equal(t, "http://bucket/put?sig=1", out.UploadURL)
	assert.Equal(t, "journeys/j1/c1/abc.m4a", out.ObjectKey)
}

func TestRequestUploadURL_IncompleteResponse(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"fileName":"x"}`)
	}))
	_, err := c.RequestUploadURL(context.Background(), "tok", UploadURLRequest{})
	require.Error(t, err)
}

func TestConfirmUpload(t *testing.T) {
	var raw map[string]any
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/media/confirm-upload", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		_, _ = io.WriteString(w, `{"id":"srv-1","journeyId":"j1","chapterId":"c1","objectKey":"k","fileName":"f","sizeBytes":12,"mediaType":"audio","uploadedAt":"2026-01-01T00:00:00Z"}`)
	}))

	out, err := c.ConfirmUpload(context.Background(), "tok", ConfirmUploadRequest{
		JourneyID: "j1", ChapterID: "c1", ObjectKey: "k", SizeBytes: 12, DurationSeconds: 3.5,
	})
	require.NoError(t, err)
	assert.Equal(t, "srv-1", out.ID)
	assert.Equal(t, "k", out.ObjectKey)
	assert.EqualValues(t, 12, out.SizeBytes)

	assert.Equal(t, "k", raw["object_key"])
	assert.EqualValues(t, 12, raw["size_bytes"])
	assert.EqualValues(t, 3.5, raw["duration_seconds"])
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantIs     error
		wantAPI    bool
		wantDetail string
	}{
		{"401", http.StatusUnauthorized, `{"detail":"Not authenticated"}`, ErrUnauthorized, true, "Not authenticated"},
		{"403", http.StatusForbidden, `{"detail":"Forbidden"}`, ErrUnauthorized, true, "Forbidden"},
		{"503", http.StatusServiceUnavailable, `oops`, ErrUnavailable, true, "oops"},
		{"422 list detail", http.StatusUnprocessableEntity, `{"detail":[{"loc":["body","chapter_id"]}]}`, nil, true, `[{"loc":["body","chapter_id"]}]`},
		{"404", http.StatusNotFound, `{"detail":"Journey not found"}`, nil, true, "Journey not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))

			_, err := c.ConfirmUpload(context.Background(), "tok", ConfirmUploadRequest{})
			require.Error(t, err)
			if tt.wantIs != nil {
				assert.ErrorIs(t, err, tt.wantIs)
			} else {
				assert.False(t, errors.Is(err, ErrUnavailable))
				assert.False(t, errors.Is(err, ErrUnauthorized))
			}
			var apiErr *APIError
			require.Equal(t, tt.wantAPI, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.wantDetail, apiErr.Detail)
		})
	}
}

func TestTransportErrorIsUnavailable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	ts.Close()
	c, err := NewHTTPClient(ts.URL+"/api/v1", "", nil)
	require.NoError(t, err)

	_, err = c.RequestUploadURL(context.Background(), "tok", UploadURLRequest{})
	require.ErrorIs(t, err, ErrUnavailable)

	require.ErrorIs(t, c.Ping(context.Background()), ErrUnavailable)
}

func TestPing(t *testing.T) {
	healthy := true
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/healthz", r.URL.Path)
		if !healthy {
			w.WriteHeader(http.StatusBadGateway)
		}
	}))

	require.NoError(t, c.Ping(context.Background()))
	healthy = false
	require.ErrorIs(t, c.Ping(context.Background()), ErrUnavailable)
}

func TestPutObject(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.m4a")
	require.NoError(t, os.WriteFile(path, []byte("audio"), 0o600))

	var body []byte
	c, ts := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		body, _ = io.ReadAll(r.Body)
	}))

	require.NoError(t, c.PutObject(context.Background(), ts.URL+"/bucket/k", path, "audio/m4a"))
	assert.Equal(t, "audio", string(body))
}

func TestLoginAndMe(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("username") != "ann@example.com" || r.PostForm.Get("password") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"detail":"Incorrect email or password"}`)
			return
		}
		_, _ = io.WriteString(w, `{"access_token":"abc","token_type":"bearer"}`)
	})
	mux.HandleFunc("/api/v1/auth/me", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"id":"u1","email":"ann@example.com","display_name":"Ann","primary_journey_id":"j1"}`)
	})
	c, _ := newTestClient(t, mux)

	tok, err := c.Login(context.Background(), "ann@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	u, err := c.Me(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	require.NotNil(t, u.PrimaryJourneyID)
	assert.Equal(t, "j1", *u.PrimaryJourneyID)

	_, err = c.Login(context.Background(), "ann@example.com", "wrong")
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Contains(t, err.Error(), "Incorrect email or password")
}
