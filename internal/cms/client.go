// Package cms fetches blog articles from the headless CMS content API and
// normalizes the response shapes it has been observed to return.
package cms

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/jonathan/tailorhire/internal/fetch"
	"github.com/jonathan/tailorhire/internal/types"
)

// Defaults for the content API client.
const (
	DefaultBaseURL  = "http://127.0.0.1:1337"
	DefaultTimeout  = 10 * time.Second
	DefaultCacheTTL = 10 * time.Second
)

const listKey = "articles"

// Config configures a Client.
type Config struct {
	// BaseURL is the CMS origin; requests go to {BaseURL}/api/articles.
	BaseURL string
	// AssetBaseURL prefixes relative media URLs. Defaults to BaseURL.
	AssetBaseURL string
	// APIToken is sent as a bearer token when set.
	APIToken string
	Timeout  time.Duration
	// CacheTTL bounds how long the article list is reused. Zero disables caching.
	CacheTTL   time.Duration
	HTTPClient *http.Client
}

// Client reads articles from the content API.
type Client struct {
	endpoint  string
	assetBase string
	opts      *fetch.Options
	cache     *expirable.LRU[string, []types.Article]
	group     singleflight.Group
}

// NewClient creates a content API client.
func NewClient(cfg Config) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	assetBase := strings.TrimRight(cfg.AssetBaseURL, "/")
	if assetBase == "" {
		assetBase = base
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	opts := fetch.DefaultOptions()
	opts.Timeout = timeout
	opts.Client = cfg.HTTPClient
	opts = opts.WithHeader("Accept", "application/json")
	if cfg.APIToken != "" {
		opts = opts.WithHeader("Authorization", "Bearer "+cfg.APIToken)
	}

	c := &Client{
		endpoint:  base + "/api/articles",
		assetBase: assetBase,
		opts:      opts,
	}
	if cfg.CacheTTL > 0 {
		c.cache = expirable.NewLRU[string, []types.Article](1, nil, cfg.CacheTTL)
	}
	return c
}

// ListArticles returns all articles, newest first. Failures are logged and
// yield an empty slice: the blog is not critical to the site.
func (c *Client) ListArticles(ctx context.Context) []types.Article {
	if c.cache != nil {
		if articles, ok := c.cache.Get(listKey); ok {
			return articles
		}
	}

	// Followers share this fetch, so it ignores the leader's cancellation.
	// The fetch timeout still bounds it.
	fetchCtx := context.WithoutCancel(ctx)
	v, _, _ := c.group.Do(listKey, func() (any, error) {
		query := url.Values{}
		query.Set("populate", "*")
		query.Set("sort", "publishedAt:desc")

		articles, err := c.query(fetchCtx, query)
		if err != nil {
			log.Warn().Err(err).Str("endpoint", c.endpoint).Msg("failed to fetch articles")
			return []types.Article{}, nil
		}
		if c.cache != nil {
			c.cache.Add(listKey, articles)
		}
		return articles, nil
	})
	return v.([]types.Article)
}

// GetArticleBySlug looks up a single article. found is false, with a nil
// error, when no article has the slug.
func (c *Client) GetArticleBySlug(ctx context.Context, slug string) (*types.Article, bool, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, false, nil
	}

	query := url.Values{}
	query.Set("filters[slug][$eq]", slug)
	query.Set("populate", "*")

	articles, err := c.query(ctx, query)
	if err != nil {
		log.Error().Err(err).Str("slug", slug).Msg("failed to fetch article")
		return nil, false, err
	}
	for i := range articles {
		// Filtering is the CMS's job, but an unfiltered response must not
		// return the wrong article. Records without a slug never match.
		if articles[i].Slug == slug {
			return &articles[i], true, nil
		}
	}
	return nil, false, nil
}

// Invalidate drops the cached article list.
func (c *Client) Invalidate() {
	if c.cache != nil {
		c.cache.Purge()
	}
}

func (c *Client) query(ctx context.Context, query url.Values) ([]types.Article, error) {
	result, err := fetch.Get(ctx, c.endpoint+"?"+query.Encode(), c.opts)
	if err != nil {
		return nil, err
	}
	return DecodeArticles(result.Body, c.assetBase)
}
