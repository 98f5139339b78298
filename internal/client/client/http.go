package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/journeykeeper/internal/common"
	"github.com/dmitrijs2005/journeykeeper/internal/netx"
)

const maxErrBody = 16 << 10

// HTTPClient talks to the journey REST API.
type HTTPClient struct {
	baseURL   string
	healthURL string
	hc        *http.Client
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient builds a client rooted at baseURL (e.g.
// http://localhost:8000/api/v1). An empty healthURL defaults to /healthz on
// the base URL's host.
func NewHTTPClient(baseURL, healthURL string, hc *http.Client) (*HTTPClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}
	if healthURL == "" {
		healthURL = (&url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/healthz"}).String()
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	return &HTTPClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		healthURL: healthURL,
		hc:        hc,
	}, nil
}

func (c *HTTPClient) RequestUploadURL(ctx context.Context, token string, req UploadURLRequest) (*UploadURL, error) {
	var out UploadURL
	if err := c.doJSON(ctx, http.MethodPost, "/media/upload-url", token, req, &out); err != nil {
		return nil, fmt.Errorf("request upload url: %w", err)
	}
	if out.UploadURL == "" || out.ObjectKey == "" {
		return nil, fmt.Errorf("request upload url: incomplete response")
	}
	return &out, nil
}

func (c *HTTPClient) PutObject(ctx context.Context, uploadURL, path, contentType string) error {
	if err := netx.PutFile(ctx, c.hc, uploadURL, path, contentType); err != nil {
		return fmt.Errorf("put object: %w", err)
	}
	return nil
}

func (c *HTTPClient) ConfirmUpload(ctx context.Context, token string, req ConfirmUploadRequest) (*MediaUpload, error) {
	var out MediaUpload
	if err := c.doJSON(ctx, http.MethodPost, "/media/confirm-upload", token, req, &out); err != nil {
		return nil, fmt.Errorf("confirm upload: %w", err)
	}
	return &out, nil
}

// Ping returns nil when the health endpoint answers 2xx.
func (c *HTTPClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.healthURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: health status %d", ErrUnavailable, resp.StatusCode)
	}
	return nil
}

// Login exchanges credentials for an access token. The backend expects an
// OAuth2 password form where the email goes in the username field.
func (c *HTTPClient) Login(ctx context.Context, email, password string) (string, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var out struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	if err := c.do(req, &out); err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("login: empty access token")
	}
	return out.AccessToken, nil
}

func (c *HTTPClient) Me(ctx context.Context, token string) (*User, error) {
	var out User
	if err := c.doJSON(ctx, http.MethodGet, "/auth/me", token, nil, &out); err != nil {
		return nil, fmt.Errorf("me: %w", err)
	}
	return &out, nil
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(common.AuthorizationHeader, common.BearerPrefix+token)
	}
	return c.do(req, out)
}

// do sends req and decodes a 2xx JSON body into out, mapping failures to
// ErrUnavailable, ErrUnauthorized or *APIError.
func (c *HTTPClient) do(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		if out == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}

	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrBody))
	apiErr := &APIError{StatusCode: resp.StatusCode, Detail: parseDetail(b)}

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %w", ErrUnauthorized, apiErr)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: %w", ErrUnavailable, apiErr)
	default:
		return apiErr
	}
}
