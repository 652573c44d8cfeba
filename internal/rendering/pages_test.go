package rendering

import (
	"bytes"
	"html/template"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/jonathan/tailorhire/internal/results"
	"github.com/jonathan/tailorhire/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, name string, data any) *goquery.Document {
	t.Helper()
	r, err := New()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, name, data))
	doc, err := goquery.NewDocumentFromReader(&buf)
	require.NoError(t, err)
	return doc
}

func TestNew_ParsesAllPages(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	assert.Len(t, r.pages, len(pageNames))
}

func TestRender_UnknownPage(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	var buf bytes.Buffer
	err = r.Render(&buf, "missing", nil)
	var unknownErr *UnknownPageError
	require.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, "missing", unknownErr.Page)
	assert.Zero(t, buf.Len())
}

func TestRender_ExecutionFailureWritesNothing(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	// BlogPostPage.Article is dereferenced by the template
	var buf bytes.Buffer
	err = r.Render(&buf, PageBlogPost, BlogPostPage{})
	var templateErr *TemplateError
	require.ErrorAs(t, err, &templateErr)
	assert.Equal(t, PhaseExecute, templateErr.Phase)
	assert.Equal(t, PageBlogPost, templateErr.Page)
	assert.Zero(t, buf.Len())
}

func TestRender_Home(t *testing.T) {
	doc := render(t, PageHome, HomePage{
		Page:           Page{Title: "Home", Flash: &Flash{Kind: FlashError, Message: "Please provide the job description"}},
		ResumeText:     "Jane Doe",
		JobDescription: "<b>Engineer</b>",
		FieldErrors:    map[string]string{"job_description": "Please provide the job description"},
		MaxUpload:      10 << 20,
	})

	assert.Equal(t, "Home | TailorHire", doc.Find("title").Text())
	assert.Equal(t, "Please provide the job description", doc.Find(".flash-error").Text())
	assert.Equal(t, "Jane Doe", doc.Find("#resume_text").Text())
	assert.Equal(t, "<b>Engineer</b>", doc.Find("#job_description").Text())
	assert.Equal(t, 1, doc.Find(`.field-error[data-field="job_description"]`).Length())
	assert.Equal(t, 0, doc.Find(`.field-error[data-field="resume_text"]`).Length())
	assert.Equal(t, 1, doc.Find(`form#upload-form input[type="file"][name="resume"]`).Length())
	assert.Contains(t, doc.Find("#optimize-form button").Text(), "Optimize My Resume")
}

func TestRender_HomeWithUpload(t *testing.T) {
	doc := render(t, PageHome, HomePage{
		Upload: &UploadPreview{Filename: "cv.pdf", ContentType: "application/pdf", URL: "/blobs/abc", Size: 2048},
	})

	assert.Equal(t, "cv.pdf", doc.Find(".upload-name").Text())
	assert.Equal(t, "2 KB", doc.Find(".upload-size").Text())
	src, _ := doc.Find(".upload-preview iframe").Attr("src")
	assert.Equal(t, "/blobs/abc", src)
	assert.Equal(t, 0, doc.Find("#upload-form").Length())
}

func TestRender_Result(t *testing.T) {
	page := ResultPage{
		ID:          "r1",
		Score:       87,
		Candidate:   "Jane Doe",
		KeyChanges:  []string{"Added keywords", "Quantified impact"},
		PreviewURL:  template.URL("data:application/pdf;base64,JVBERi0="),
		DownloadURL: "/results/r1/download",
	}

	doc := render(t, PageResult, page)
	assert.Equal(t, "87%", doc.Find(".score").Text())
	assert.Equal(t, 2, doc.Find(".key-changes li").Length())
	src, _ := doc.Find("iframe").Attr("src")
	assert.Equal(t, "data:application/pdf;base64,JVBERi0=", src)
	href, _ := doc.Find(".toggle-diff").Attr("href")
	assert.Equal(t, "/results/r1?diff=1", href)
	assert.Equal(t, "Show Detailed Content Changes", doc.Find(".toggle-diff").Text())
	href, _ = doc.Find(".download").Attr("href")
	assert.Equal(t, "/results/r1/download", href)
	assert.Equal(t, "Start Over", doc.Find(".start-over").Text())

	page.ShowDiff = true
	page.Diff = &results.Diff{
		LeftTitle:  "Original",
		RightTitle: "Optimized",
		Rows: []results.Row{
			{Op: results.OpEqual, LeftNo: 1, Left: "Jane Doe", RightNo: 1, Right: "Jane Doe"},
			{Op: results.OpDelete, LeftNo: 2, Left: "old line"},
		},
	}
	doc = render(t, PageResult, page)
	assert.Equal(t, "Hide Content Changes", doc.Find(".toggle-diff").Text())
	assert.Equal(t, 1, doc.Find("tr.diff-eq").Length())
	assert.Equal(t, "old line", doc.Find("tr.diff-del .left").Text())
}

func TestRender_BlogList(t *testing.T) {
	doc := render(t, PageBlogList, BlogListPage{})
	assert.Equal(t, "No articles found.", doc.Find(".empty").Text())

	doc = render(t, PageBlogList, BlogListPage{Articles: []ArticleCard{{
		Title:       "Beat the ATS",
		Slug:        "beat-the-ats",
		Excerpt:     "How applicant tracking works",
		ImageURL:    "http://127.0.0.1:1337/uploads/ats.png",
		PublishedAt: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
	}}})
	assert.Equal(t, 0, doc.Find(".empty").Length())
	href, _ := doc.Find(".article-card h2 a").Attr("href")
	assert.Equal(t, "/blog/beat-the-ats", href)
	assert.Contains(t, doc.Find(".article-card").Text(), "March 5, 2024")
}

func TestRender_BlogPost(t *testing.T) {
	doc := render(t, PageBlogPost, BlogPostPage{
		Article: &types.Article{Title: "", PublishedAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		Body:    template.HTML("<p>Hello <strong>world</strong></p>"),
	})

	assert.Equal(t, "Untitled", doc.Find("h1").Text())
	assert.Equal(t, "By TailorHire Team • January 2, 2024", doc.Find(".byline").Text())
	assert.Equal(t, "world", doc.Find(".prose strong").Text())
}

func TestRender_Error(t *testing.T) {
	doc := render(t, PageError, ErrorPage{
		Page:     Page{RequestID: "req-1"},
		RetryURL: "/blog",
	})

	assert.Equal(t, "Oops! Something went wrong", doc.Find("h1").Text())
	href, _ := doc.Find(".try-again").Attr("href")
	assert.Equal(t, "/blog", href)
	assert.Equal(t, "Refresh Page", doc.Find(".refresh").Text())
	assert.True(t, strings.Contains(doc.Text(), "req-1"))
}

func TestRender_NotFound(t *testing.T) {
	doc := render(t, PageNotFound, Page{Title: "Not Found"})
	assert.Equal(t, "Page not found", doc.Find("h1").Text())
}

func TestRowClass(t *testing.T) {
	assert.Equal(t, "diff-eq", rowClass(results.OpEqual))
	assert.Equal(t, "diff-del", rowClass(results.OpDelete))
	assert.Equal(t, "diff-ins", rowClass(results.OpInsert))
	assert.Equal(t, "diff-mod", rowClass(results.OpReplace))
}

func TestFormatDate(t *testing.T) {
	assert.Empty(t, formatDate(time.Time{}))
	assert.Equal(t, "December 31, 2023", formatDate(time.Date(2023, 12, 31, 23, 0, 0, 0, time.UTC)))
	assert.Empty(t, lineNo(0))
	assert.Equal(t, "12", lineNo(12))
}
