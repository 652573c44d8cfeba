package types

import "time"

// DefaultAuthor is shown when an article has no author.
const DefaultAuthor = "TailorHire Team"

// Article is a blog post fetched from the CMS. The CMS owns it; the site only
// holds request- or cache-scoped copies.
type Article struct {
	ID               string          `json:"id"`
	Title            string          `json:"title"`
	Slug             string          `json:"slug"`
	Author           string          `json:"author"`
	Content          []*ContentBlock `json:"content"`
	FeaturedImageURL string          `json:"featured_image_url,omitempty"`
	PublishedAt      time.Time       `json:"published_at"`
	SEODescription   string          `json:"seo_description,omitempty"`
}

// DisplayTitle returns the title, or "Untitled" when it is empty.
func (a *Article) DisplayTitle() string {
	if a.Title == "" {
		return "Untitled"
	}
	return a.Title
}

// DisplayAuthor returns the author, or DefaultAuthor when it is empty.
func (a *Article) DisplayAuthor() string {
	if a.Author == "" {
		return DefaultAuthor
	}
	return a.Author
}
