// Package fetch provides the HTTP GET layer shared by the upstream API clients.
package fetch

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "TailorHire-Web/1.0"

// DefaultMaxBytes bounds how much of a response body is read.
const DefaultMaxBytes = 16 << 20

// snippetBytes is how much of an error body is quoted in a StatusError.
const snippetBytes = 200

// Response is a fully read GET response.
type Response struct {
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
	// Truncated reports that the body exceeded the read limit.
	Truncated bool
}

// ContentType returns the media type without parameters.
func (r *Response) ContentType() string {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}
	return mediaType
}

// Error is a transport failure: the request never produced a response.
type Error struct {
	URL     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("GET %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("GET %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// StatusError reports a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
	Snippet    string
}

func (e *StatusError) Error() string {
	if e.Snippet != "" {
		return fmt.Sprintf("GET %s: HTTP status %d: %s", e.URL, e.StatusCode, e.Snippet)
	}
	return fmt.Sprintf("GET %s: HTTP status %d", e.URL, e.StatusCode)
}

// Options configures a GET.
type Options struct {
	// Timeout bounds the whole request, including reading the body.
	Timeout   time.Duration
	UserAgent string
	Header    http.Header
	// MaxBytes caps the body; zero means DefaultMaxBytes.
	MaxBytes int64
	Client   *http.Client
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() *Options {
	return &Options{
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
		Header:    http.Header{},
	}
}

// WithHeader returns a copy of o with the header set.
func (o *Options) WithHeader(key, value string) *Options {
	clone := *o
	clone.Header = o.Header.Clone()
	if clone.Header == nil {
		clone.Header = http.Header{}
	}
	clone.Header.Set(key, value)
	return &clone
}

// Get performs a GET request. A non-2xx status returns the read Response
// together with a *StatusError.
func Get(ctx context.Context, rawURL string, opts *Options) (*Response, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if err := checkURL(rawURL); err != nil {
		return nil, err
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &Error{URL: rawURL, Message: "failed to create request", Cause: err}
	}
	for key, values := range opts.Header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	req.Header.Set("User-Agent", userAgent)

	client := opts.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &Error{URL: rawURL, Message: "request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return nil, &Error{URL: rawURL, Message: "failed to read response body", Cause: err}
	}

	result := &Response{
		URL:        rawURL,
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}
	if int64(len(body)) > maxBytes {
		result.Body = body[:maxBytes]
		result.Truncated = true
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return result, &StatusError{URL: rawURL, StatusCode: resp.StatusCode, Snippet: snippet(result.Body)}
	}
	return result, nil
}

func checkURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return &Error{URL: rawURL, Message: "invalid URL", Cause: err}
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" || parsed.Host == "" {
		return &Error{URL: rawURL, Message: "invalid URL: want an absolute http(s) URL"}
	}
	return nil
}

func snippet(body []byte) string {
	s := strings.Join(strings.Fields(string(body)), " ")
	if len(s) > snippetBytes {
		s = s[:snippetBytes] + "..."
	}
	return s
}
