package cms

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jonathan/tailorhire/internal/types"
)

// record is one entry of a collection response, with the attributes wrapper
// (if any) already merged into the top level.
type record map[string]json.RawMessage

type collection struct {
	Data json.RawMessage `json:"data"`
}

// DecodeArticles decodes a content API collection response, or a single
// article object, into normalized articles. Relative image URLs are resolved
// against assetBase.
func DecodeArticles(data []byte, assetBase string) ([]types.Article, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, &DecodeError{Message: "empty response body"}
	}

	payload := trimmed
	var wrapper collection
	if trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &wrapper); err != nil {
			return nil, &DecodeError{Message: "invalid JSON", Cause: err}
		}
		if wrapper.Data != nil {
			payload = bytes.TrimSpace(wrapper.Data)
		}
	}

	var raws []json.RawMessage
	switch {
	case len(payload) == 0 || string(payload) == "null":
		return []types.Article{}, nil
	case payload[0] == '[':
		if err := json.Unmarshal(payload, &raws); err != nil {
			return nil, &DecodeError{Message: "invalid article list", Cause: err}
		}
	case payload[0] == '{':
		raws = []json.RawMessage{payload}
	default:
		return nil, &DecodeError{Message: "unexpected data shape"}
	}

	articles := make([]types.Article, 0, len(raws))
	for _, raw := range raws {
		rec, err := flatten(raw)
		if err != nil {
			return nil, err
		}
		if rec == nil {
			continue
		}
		articles = append(articles, rec.article(assetBase))
	}
	return articles, nil
}

// flatten merges the attributes wrapper into the record. Top-level fields
// such as id win over attributes.
func flatten(raw json.RawMessage) (record, error) {
	if isNull(raw) {
		return nil, nil
	}
	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, &DecodeError{Message: "invalid article record", Cause: err}
	}
	attrs, ok := rec["attributes"]
	if !ok || isNull(attrs) {
		return rec, nil
	}
	var inner record
	if err := json.Unmarshal(attrs, &inner); err != nil {
		return nil, &DecodeError{Message: "invalid article attributes", Cause: err}
	}
	delete(rec, "attributes")
	for k, v := range inner {
		if _, exists := rec[k]; !exists {
			rec[k] = v
		}
	}
	return rec, nil
}

func (r record) article(assetBase string) types.Article {
	author := r.author()
	if author == "" {
		author = types.DefaultAuthor
	}
	return types.Article{
		ID:               r.id(),
		Title:            r.str("title"),
		Slug:             r.str("slug"),
		Author:           author,
		Content:          decodeContent(r.first("content", "body")),
		FeaturedImageURL: resolveURL(r.image(), assetBase),
		PublishedAt:      r.timestamp("publishedAt", "published_at", "createdAt", "created_at"),
		SEODescription:   r.str("seo_description", "seoDescription", "description"),
	}
}

// first returns the first non-null field among keys.
func (r record) first(keys ...string) json.RawMessage {
	for _, k := range keys {
		if v, ok := r[k]; ok && !isNull(v) {
			return v
		}
	}
	return nil
}

func (r record) str(keys ...string) string {
	for _, k := range keys {
		var s string
		if v, ok := r[k]; ok && json.Unmarshal(v, &s) == nil && s != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func (r record) id() string {
	raw := r.first("id")
	if raw == nil {
		return r.str("documentId")
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	default:
		return ""
	}
}

// author accepts a plain string, {name}, or a relation {data:{attributes:{name}}}.
func (r record) author() string {
	raw := r.first("author")
	if raw == nil {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return strings.TrimSpace(s)
	}
	rec, err := unwrapRelation(raw)
	if err != nil || rec == nil {
		return ""
	}
	return rec.str("name", "username", "displayName")
}

// image returns the featured image URL, preferring the medium format.
func (r record) image() string {
	raw := r.first("featured_image", "featuredImage", "cover", "image")
	if raw == nil {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return strings.TrimSpace(s)
	}
	rec, err := unwrapRelation(raw)
	if err != nil || rec == nil {
		return ""
	}
	var formats struct {
		Medium struct {
			URL string `json:"url"`
		} `json:"medium"`
	}
	if raw := rec.first("formats"); raw != nil {
		_ = json.Unmarshal(raw, &formats)
	}
	if formats.Medium.URL != "" {
		return formats.Medium.URL
	}
	return rec.str("url")
}

func (r record) timestamp(keys ...string) time.Time {
	for _, k := range keys {
		s := r.str(k)
		if s == "" {
			continue
		}
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
			if t, err := time.Parse(layout, s); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}

// unwrapRelation peels {data: ...} and attributes wrappers off a relation or
// media field. A to-many relation yields its first entry.
func unwrapRelation(raw json.RawMessage) (record, error) {
	rec, err := flatten(raw)
	if err != nil || rec == nil {
		return rec, err
	}
	data, ok := rec["data"]
	if !ok {
		return rec, nil
	}
	data = bytes.TrimSpace(data)
	if isNull(data) {
		return nil, nil
	}
	if data[0] == '[' {
		var list []json.RawMessage
		if err := json.Unmarshal(data, &list); err != nil || len(list) == 0 {
			return nil, err
		}
		data = list[0]
	}
	return flatten(data)
}

// decodeContent decodes a blocks array leniently. A plain string body
// (markdown or rich text fields) becomes one paragraph per blank-line
// separated chunk. Anything else yields no content.
func decodeContent(raw json.RawMessage) []*types.ContentBlock {
	if raw == nil {
		return nil
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(raw, &raws); err == nil {
		return decodeBlocks(raws)
	}

	var blocks []*types.ContentBlock
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	for _, chunk := range strings.Split(s, "\n\n") {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		blocks = append(blocks, &types.ContentBlock{
			Type:     types.BlockParagraph,
			Children: []*types.InlineNode{{Type: types.InlineText, Text: chunk}},
		})
	}
	return blocks
}

// decodeBlocks decodes each block on its own so that one malformed block
// is dropped without losing the rest of the document. null entries stay nil.
func decodeBlocks(raws []json.RawMessage) []*types.ContentBlock {
	if raws == nil {
		return nil
	}
	blocks := make([]*types.ContentBlock, 0, len(raws))
	for i, raw := range raws {
		var block *types.ContentBlock
		if err := json.Unmarshal(raw, &block); err != nil {
			log.Debug().Err(err).Int("index", i).Msg("skipping malformed content block")
			continue
		}
		blocks = append(blocks, block)
	}
	return blocks
}

// resolveURL prefixes relative URLs with the asset base. Absolute and
// protocol-relative URLs are returned unchanged.
func resolveURL(u, assetBase string) string {
	if u == "" {
		return ""
	}
	lower := strings.ToLower(u)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") ||
		strings.HasPrefix(u, "//") || strings.HasPrefix(lower, "data:") {
		return u
	}
	if assetBase == "" {
		return u
	}
	return strings.TrimRight(assetBase, "/") + "/" + strings.TrimLeft(u, "/")
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || string(trimmed) == "null"
}
