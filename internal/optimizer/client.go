// Package optimizer is the HTTP client for the external Optimization API,
// which rewrites resumes, renders the PDF and scores the match.
package optimizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jonathan/tailorhire/internal/fetch"
	"github.com/jonathan/tailorhire/internal/schemas"
	"github.com/jonathan/tailorhire/internal/types"
)

// Defaults for the Optimization API client.
const (
	DefaultBaseURL = "http://localhost:8000/api"
	// DefaultTimeout covers a full model run, which can take minutes.
	DefaultTimeout = 5 * time.Minute
	// DefaultUploadTimeout covers text extraction of one file.
	DefaultUploadTimeout = time.Minute
)

const healthTimeout = 5 * time.Second

const maxResponseBytes = 32 << 20

// Config configures a Client.
type Config struct {
	BaseURL       string
	Timeout       time.Duration
	UploadTimeout time.Duration
	HTTPClient    *http.Client
}

// Client calls the Optimization API.
type Client struct {
	baseURL       string
	timeout       time.Duration
	uploadTimeout time.Duration
	httpClient    *http.Client
}

// Health is the response of the health endpoint.
type Health struct {
	Status  string `json:"status"`
	Service string `json:"service,omitempty"`
	Version string `json:"version,omitempty"`
}

// NewClient creates an Optimization API client.
func NewClient(cfg Config) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	uploadTimeout := cfg.UploadTimeout
	if uploadTimeout <= 0 {
		uploadTimeout = DefaultUploadTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL:       base,
		timeout:       timeout,
		uploadTimeout: uploadTimeout,
		httpClient:    httpClient,
	}
}

// BaseURL returns the API root used for requests.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Optimize submits resume text and a job description. The request must
// already be validated; the response is schema-checked before decoding.
func (c *Client) Optimize(ctx context.Context, req *types.OptimizeRequest) (*types.OptimizationResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, &APIError{Message: "failed to encode request", Cause: err}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	data, err := c.do(ctx, http.MethodPost, "/optimize", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	if err := schemas.Validate(schemas.OptimizeResponse, data); err != nil {
		return nil, &APIError{Message: "unexpected optimize response", Cause: err}
	}
	var result types.OptimizationResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, &APIError{Message: "failed to decode optimize response", Cause: err}
	}

	log.Info().
		Dur("duration", time.Since(start)).
		Float64("match_score", result.MatchScorePercent).
		Int("key_changes", len(result.KeyChanges)).
		Msg("resume optimized")
	return &result, nil
}

// Upload sends a resume file for text extraction.
func (c *Client) Upload(ctx context.Context, filename, contentType string, r io.Reader) (*types.UploadResponse, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, &APIError{Message: "failed to create multipart body", Cause: err}
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, &APIError{Message: "failed to read upload", Cause: err}
	}
	if err := writer.Close(); err != nil {
		return nil, &APIError{Message: "failed to create multipart body", Cause: err}
	}

	ctx, cancel := context.WithTimeout(ctx, c.uploadTimeout)
	defer cancel()

	data, err := c.do(ctx, http.MethodPost, "/upload", writer.FormDataContentType(), &buf)
	if err != nil {
		return nil, err
	}

	if err := schemas.Validate(schemas.UploadResponse, data); err != nil {
		return nil, &APIError{Message: "unexpected upload response", Cause: err}
	}
	var resp types.UploadResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, &APIError{Message: "failed to decode upload response", Cause: err}
	}
	if resp.Length == 0 {
		resp.Length = len(resp.Text)
	}
	return &resp, nil
}

// Health checks that the API is reachable. The health endpoint sits beside
// the API root, so a trailing "/api" is dropped from the base URL.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	healthURL := strings.TrimSuffix(c.baseURL, "/api") + "/health"

	opts := fetch.DefaultOptions()
	opts.Client = c.httpClient
	opts.Timeout = healthTimeout
	opts = opts.WithHeader("Accept", "application/json")

	result, err := fetch.Get(ctx, healthURL, opts)
	if err != nil {
		status := 0
		if result != nil {
			status = result.StatusCode
		}
		return nil, &APIError{StatusCode: status, Message: "health check failed", Cause: err}
	}

	var health Health
	if err := json.Unmarshal(result.Body, &health); err != nil {
		return nil, &APIError{StatusCode: result.StatusCode, Message: "invalid health response", Cause: err}
	}
	if health.Status == "" {
		health.Status = "ok"
	}
	return &health, nil
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, &APIError{Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", fetch.DefaultUserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &APIError{Message: "request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: "failed to read response", Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			Detail:     parseDetail(data),
			Message:    fmt.Sprintf("%s %s failed", method, path),
		}
		log.Warn().Err(apiErr).Str("path", path).Msg("optimizer API returned error")
		return nil, apiErr
	}
	return data, nil
}
