package share

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// Default uploader configuration constants.
const (
	DefaultUploadURL     = "https://api.imgbb.com/1/upload"
	defaultUploadTimeout = 10 * time.Second
	maxResponseBytes     = 1 << 20
)

// Uploaded is where the image host put an image.
type Uploaded struct {
	URL       string
	ViewerURL string
}

// Uploader stores a rendered image somewhere public.
type Uploader interface {
	Upload(ctx context.Context, png []byte) (Uploaded, error)
}

// ImageHost uploads to an ImgBB-compatible endpoint: a multipart form with
// the API key and the base64 image, answered by JSON carrying data.url and
// data.url_viewer.
type ImageHost struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// ImageHostOption configures an ImageHost.
type ImageHostOption func(*ImageHost)

// WithEndpoint overrides the upload URL.
func WithEndpoint(u string) ImageHostOption {
	return func(h *ImageHost) {
		if u != "" {
			h.endpoint = u
		}
	}
}

// WithHTTPClient swaps the HTTP client.
func WithHTTPClient(c *http.Client) ImageHostOption {
	return func(h *ImageHost) {
		if c != nil {
			h.client = c
		}
	}
}

// WithUploadTimeout sets the per-request timeout of the default client.
func WithUploadTimeout(d time.Duration) ImageHostOption {
	return func(h *ImageHost) {
		if d > 0 {
			h.client = &http.Client{Timeout: d}
		}
	}
}

// NewImageHost creates an uploader. An empty apiKey disables uploads.
func NewImageHost(apiKey string, opts ...ImageHostOption) *ImageHost {
	h := &ImageHost{
		endpoint: DefaultUploadURL,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: defaultUploadTimeout},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Enabled reports whether an API key is configured.
func (h *ImageHost) Enabled() bool { return h.apiKey != "" }

type imgbbResponse struct {
	Success bool `json:"success"`
	Status  int  `json:"status"`
	Data    struct {
		URL       string `json:"url"`
		URLViewer string `json:"url_viewer"`
	} `json:"data"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Upload implements Uploader.
func (h *ImageHost) Upload(ctx context.Context, png []byte) (Uploaded, error) {
	if !h.Enabled() {
		return Uploaded{}, ErrUploadDisabled
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	if err := form.WriteField("key", h.apiKey); err != nil {
		return Uploaded{}, fmt.Errorf("%w: write key: %w", ErrUpload, err)
	}
	if err := form.WriteField("image", base64.StdEncoding.EncodeToString(png)); err != nil {
		return Uploaded{}, fmt.Errorf("%w: write image: %w", ErrUpload, err)
	}
	if err := form.Close(); err != nil {
		return Uploaded{}, fmt.Errorf("%w: close form: %w", ErrUpload, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, &body)
	if err != nil {
		return Uploaded{}, fmt.Errorf("%w: create request: %w", ErrUpload, err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := h.client.Do(req)
	if err != nil {
		return Uploaded{}, fmt.Errorf("%w: %w", ErrUpload, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Uploaded{}, fmt.Errorf("%w: read response: %w", ErrUpload, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Uploaded{}, fmt.Errorf("%w: status %d", ErrUpload, resp.StatusCode)
	}

	var parsed imgbbResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return Uploaded{}, fmt.Errorf("%w: decode response: %w", ErrUpload, err)
	}
	if parsed.Data.URL == "" {
		msg := parsed.Error.Message
		if msg == "" {
			msg = "missing data.url"
		}
		return Uploaded{}, fmt.Errorf("%w: %s", ErrUpload, msg)
	}
	return Uploaded{URL: parsed.Data.URL, ViewerURL: parsed.Data.URLViewer}, nil
}
