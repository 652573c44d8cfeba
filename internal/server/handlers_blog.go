package server

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/jonathan/tailorhire/internal/rendering"
	"github.com/jonathan/tailorhire/internal/richtext"
	"github.com/jonathan/tailorhire/internal/types"
)

// excerptRunes bounds blog card excerpts built from article text.
const excerptRunes = 160

func (s *Server) handleBlogList(w http.ResponseWriter, r *http.Request) {
	articles := s.articles.ListArticles(r.Context())

	cards := make([]rendering.ArticleCard, 0, len(articles))
	for i := range articles {
		a := &articles[i]
		cards = append(cards, rendering.ArticleCard{
			Title:       a.DisplayTitle(),
			Slug:        a.Slug,
			Excerpt:     excerpt(a),
			ImageURL:    a.FeaturedImageURL,
			Author:      a.DisplayAuthor(),
			PublishedAt: a.PublishedAt,
		})
	}

	page := rendering.BlogListPage{
		Page:     s.page(r, "Blog", nil),
		Articles: cards,
	}
	page.Description = "Resume tips, ATS insights and career advice from the " + rendering.SiteName + " team."
	s.render(w, r, http.StatusOK, rendering.PageBlogList, page)
}

func (s *Server) handleBlogPost(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	article, found, err := s.articles.GetArticleBySlug(r.Context(), slug)
	if err != nil {
		s.renderError(w, r, http.StatusBadGateway)
		return
	}
	if !found {
		s.renderNotFound(w, r, &ErrNotFound{Resource: "article", ID: slug})
		return
	}

	body, err := s.richText.RenderHTML(article.Content)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("slug", slug).Msg("failed to render article")
		s.renderError(w, r, http.StatusInternalServerError)
		return
	}

	page := rendering.BlogPostPage{
		Page:    s.page(r, article.DisplayTitle(), nil),
		Article: article,
		Body:    richtext.Sanitize(body),
	}
	page.Description = article.SEODescription
	s.render(w, r, http.StatusOK, rendering.PageBlogPost, page)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.renderNotFound(w, r, &ErrNotFound{Resource: "page", ID: r.URL.Path})
}

// excerpt prefers the SEO description and otherwise shortens the article
// text at a word boundary.
func excerpt(a *types.Article) string {
	if d := strings.TrimSpace(a.SEODescription); d != "" {
		return d
	}
	text := strings.Join(strings.Fields(richtext.PlainText(a.Content)), " ")
	if utf8.RuneCountInString(text) <= excerptRunes {
		return text
	}
	runes := []rune(text)[:excerptRunes]
	cut := string(runes)
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "…"
}
