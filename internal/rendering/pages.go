// Package rendering renders the site's HTML pages from embedded templates.
package rendering

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/jonathan/tailorhire/internal/ingestion"
	"github.com/jonathan/tailorhire/internal/results"
	"github.com/jonathan/tailorhire/internal/types"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page names
const (
	PageHome     = "home"
	PageResult   = "result"
	PageBlogList = "blog_list"
	PageBlogPost = "blog_post"
	PageNotFound = "not_found"
	PageError    = "error"
)

var pageNames = []string{PageHome, PageResult, PageBlogList, PageBlogPost, PageNotFound, PageError}

// SiteName is shown in titles and the header.
const SiteName = "TailorHire"

// Flash kinds
const (
	FlashError   = "error"
	FlashSuccess = "success"
	FlashInfo    = "info"
)

// Flash is a one-shot notification shown above the page content.
type Flash struct {
	Kind    string
	Message string
}

// Page holds the fields every page shares.
type Page struct {
	Title       string
	Description string
	Flash       *Flash
	RequestID   string
}

// UploadPreview describes an uploaded resume file kept for preview.
type UploadPreview struct {
	Filename    string
	ContentType string
	URL         string
	Size        int64
}

// HomePage is the landing page with the optimizer form.
type HomePage struct {
	Page
	ResumeText     string
	JobDescription string
	Upload         *UploadPreview
	// FieldErrors maps form field names to inline messages.
	FieldErrors map[string]string
	MaxUpload   int64
}

// ResultPage shows an optimization result.
type ResultPage struct {
	Page
	ID             string
	Score          int
	Candidate      string
	KeyChanges     []string
	Suggestions    []string
	ProcessingTime float64
	PreviewURL     template.URL
	DownloadURL    string
	ShowDiff       bool
	Diff           *results.Diff
}

// ArticleCard is one entry of the blog list.
type ArticleCard struct {
	Title       string
	Slug        string
	Excerpt     string
	ImageURL    string
	Author      string
	PublishedAt time.Time
}

// BlogListPage lists articles.
type BlogListPage struct {
	Page
	Articles []ArticleCard
}

// BlogPostPage shows a single article.
type BlogPostPage struct {
	Page
	Article *types.Article
	Body    template.HTML
}

// ErrorPage is the fallback shown when a request fails unexpectedly.
type ErrorPage struct {
	Page
	Message  string
	RetryURL string
}

// Renderer executes the page templates.
type Renderer struct {
	pages map[string]*template.Template
}

// New parses all page templates.
func New() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(templateFS,
			"templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, &TemplateError{Page: name, Phase: PhaseParse, Cause: err}
		}
		r.pages[name] = tmpl
	}
	return r, nil
}

// Render executes a page into w. The page is rendered into a buffer first so
// a template failure never leaves a half-written response; a failed write to
// w is returned as is.
func (r *Renderer) Render(w io.Writer, name string, data any) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return &UnknownPageError{Page: name}
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return &TemplateError{Page: name, Phase: PhaseExecute, Cause: err}
	}
	_, err := buf.WriteTo(w)
	return err
}

var funcs = template.FuncMap{
	"formatDate": formatDate,
	"fileSize":   ingestion.FormatFileSize,
	"year":       func() int { return time.Now().Year() },
	"siteName":   func() string { return SiteName },
	"rowClass":   rowClass,
	"lineNo":     lineNo,
}

// formatDate renders dates as "January 2, 2006"; zero times render empty.
func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("January 2, 2006")
}

func rowClass(op results.Op) string {
	switch op {
	case results.OpDelete:
		return "diff-del"
	case results.OpInsert:
		return "diff-ins"
	case results.OpReplace:
		return "diff-mod"
	default:
		return "diff-eq"
	}
}

func lineNo(n int) string {
	if n <= 0 {
		return ""
	}
	return fmt.Sprintf("%d", n)
}
