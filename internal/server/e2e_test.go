package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/tailorhire/internal/optimizer"
	"github.com/jonathan/tailorhire/internal/server/ratelimit"
	"github.com/jonathan/tailorhire/internal/stubapi"
)

// TestEndToEnd_OptimizeWithStubAPI drives the site against the stub
// Optimization API through the real HTTP client.
func TestEndToEnd_OptimizeWithStubAPI(t *testing.T) {
	api := httptest.NewServer(stubapi.New(stubapi.Config{Version: "e2e"}).Handler())
	t.Cleanup(api.Close)

	s := newTestServerWithConfig(t, Config{
		Articles:  &fakeArticles{},
		Optimizer: optimizer.NewClient(optimizer.Config{BaseURL: api.URL + "/api"}),
		RateLimit: &ratelimit.Config{Enabled: false},
	})

	w := serve(s, formRequest("/optimize", url.Values{
		"resume_text":     {"Jane Doe\nSoftware engineer with Go and Kubernetes experience."},
		"job_description": {"Senior Go engineer. Kubernetes, Terraform, PostgreSQL."},
	}))
	require.Equal(t, http.StatusSeeOther, w.Code, w.Body.String())
	location := w.Header().Get("Location")

	doc := parseDoc(t, serve(s, httptest.NewRequest(http.MethodGet, location, nil)))
	score, err := strconv.Atoi(strings.TrimSuffix(doc.Find(".score").Text(), "%"))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, score, 0)
	assert.LessOrEqual(t, score, 100)
	assert.Positive(t, doc.Find(".key-changes li").Length())

	download, _ := doc.Find(".download").Attr("href")
	w = serve(s, httptest.NewRequest(http.MethodGet, download, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "Optimized-Resume-Jane-Doe.pdf")

	// The upstream health check reaches the stub's /health
	w = serve(s, httptest.NewRequest(http.MethodGet, "/healthz/upstream", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), stubapi.Service)
}

func TestEndToEnd_UploadWithStubAPI(t *testing.T) {
	api := httptest.NewServer(stubapi.New(stubapi.Config{}).Handler())
	t.Cleanup(api.Close)

	s := newTestServerWithConfig(t, Config{
		Articles:  &fakeArticles{},
		Optimizer: optimizer.NewClient(optimizer.Config{BaseURL: api.URL + "/api"}),
		RateLimit: &ratelimit.Config{Enabled: false},
	})

	resp, err := stubapi.Optimize("Jane Doe\nGo engineer", "Go engineer")
	require.NoError(t, err)
	pdf := decodeForTest(t, resp.OptimizedResumePDFBase64)

	w := serve(s, uploadRequest(t, "jane.pdf", "application/pdf", pdf))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	doc := parseDoc(t, w)
	assert.Equal(t, MsgExtracted, doc.Find(".flash-success").Text())
	assert.Contains(t, doc.Find("#resume_text").Text(), "Jane Doe")
}
