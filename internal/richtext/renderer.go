// Package richtext renders CMS content-block trees into HTML.
//
// Inline formatting on text nodes nests as <u><em><strong>text</strong></em></u>:
// bold is applied first, then italic, then underline. Link labels and list
// items are rendered from plain text; formatting on their children is dropped.
package richtext

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/jonathan/tailorhire/internal/types"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DefaultHeadingLevel is the heading level used when a heading block has none.
const DefaultHeadingLevel = 3

// Options configures the renderer.
type Options struct {
	// DefaultHeadingLevel applies to heading blocks with a missing or zero level.
	DefaultHeadingLevel int
	// UnknownBlocks decides what happens to blocks of an unrecognized type.
	UnknownBlocks UnknownBlockPolicy
}

// DefaultOptions returns the options used by the article pages.
func DefaultOptions() Options {
	return Options{
		DefaultHeadingLevel: DefaultHeadingLevel,
		UnknownBlocks:       UnknownAsParagraph,
	}
}

// Renderer converts content blocks into HTML nodes. It is safe for concurrent use.
type Renderer struct {
	opts Options
}

// NewRenderer creates a renderer. An out-of-range default heading level is clamped to 1-6.
func NewRenderer(opts Options) *Renderer {
	if opts.DefaultHeadingLevel == 0 {
		opts.DefaultHeadingLevel = DefaultHeadingLevel
	}
	opts.DefaultHeadingLevel = clampLevel(opts.DefaultHeadingLevel)
	return &Renderer{opts: opts}
}

// Options returns the effective renderer options.
func (r *Renderer) Options() Options {
	return r.opts
}

// Render returns one node per rendered block, in input order. Nil blocks, and
// unknown blocks under UnknownSkip, produce no node.
func (r *Renderer) Render(blocks []*types.ContentBlock) []*html.Node {
	nodes := make([]*html.Node, 0, len(blocks))
	for _, block := range blocks {
		if node := r.renderBlock(block); node != nil {
			nodes = append(nodes, node)
		}
	}
	return nodes
}

// RenderHTML renders the blocks and serializes them. The output is not
// sanitized; pass it through Sanitize before embedding untrusted content.
func (r *Renderer) RenderHTML(blocks []*types.ContentBlock) (template.HTML, error) {
	var buf bytes.Buffer
	for _, node := range r.Render(blocks) {
		if err := html.Render(&buf, node); err != nil {
			return "", &RenderError{Message: "failed to serialize block", Cause: err}
		}
	}
	return template.HTML(buf.String()), nil //nolint:gosec // escaped by html.Render
}

// PlainText returns the visible text of every block, one block per line.
func PlainText(blocks []*types.ContentBlock) string {
	lines := make([]string, 0, len(blocks))
	for _, block := range blocks {
		if text := strings.TrimSpace(block.PlainText()); text != "" {
			lines = append(lines, text)
		}
	}
	return strings.Join(lines, "\n")
}

func (r *Renderer) renderBlock(block *types.ContentBlock) *html.Node {
	if block == nil {
		return nil
	}

	switch block.Type {
	case types.BlockHeading:
		heading := element(headingTag(r.headingLevel(block.Level)))
		appendInline(heading, block.Children)
		return heading

	case types.BlockParagraph:
		p := element("p")
		appendInline(p, block.Children)
		return p

	case types.BlockList:
		tag := "ul"
		if block.Format == types.ListOrdered {
			tag = "ol"
		}
		list := element(tag)
		for _, item := range block.Children {
			if item == nil {
				continue
			}
			li := element("li")
			li.AppendChild(textNode(listItemText(item)))
			list.AppendChild(li)
		}
		return list

	default:
		if r.opts.UnknownBlocks == UnknownSkip {
			return nil
		}
		p := element("p")
		p.AppendChild(textNode(block.PlainText()))
		return p
	}
}

func (r *Renderer) headingLevel(level int) int {
	if level <= 0 {
		return r.opts.DefaultHeadingLevel
	}
	return clampLevel(level)
}

// listItemText returns the text of a list item. Items normally wrap inline
// children; a bare text node is accepted as its own item.
func listItemText(item *types.InlineNode) string {
	if item.Type == types.InlineText {
		return item.Text
	}
	return types.JoinPlainText(item.Children)
}

func appendInline(parent *html.Node, children []*types.InlineNode) {
	for _, child := range children {
		for _, node := range renderInline(child) {
			parent.AppendChild(node)
		}
	}
}

func renderInline(node *types.InlineNode) []*html.Node {
	if node == nil {
		return nil
	}

	switch node.Type {
	case types.InlineText:
		return renderText(node)
	case types.InlineLink:
		return []*html.Node{renderLink(node)}
	default:
		return nil
	}
}

func renderText(node *types.InlineNode) []*html.Node {
	if node.Text == "" {
		return nil
	}

	nodes := splitLines(node.Text)
	if node.Bold {
		nodes = []*html.Node{wrap("strong", nodes)}
	}
	if node.Italic {
		nodes = []*html.Node{wrap("em", nodes)}
	}
	if node.Underline {
		nodes = []*html.Node{wrap("u", nodes)}
	}
	return nodes
}

// splitLines turns "a\nb" into text("a"), <br>, text("b").
func splitLines(text string) []*html.Node {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	parts := strings.Split(text, "\n")
	nodes := make([]*html.Node, 0, len(parts)*2-1)
	for i, part := range parts {
		if i > 0 {
			nodes = append(nodes, element("br"))
		}
		if part != "" {
			nodes = append(nodes, textNode(part))
		}
	}
	return nodes
}

func renderLink(node *types.InlineNode) *html.Node {
	target := "_self"
	if strings.HasPrefix(node.URL, "http") {
		target = "_blank"
	}

	a := element("a")
	a.Attr = []html.Attribute{
		{Key: "href", Val: node.URL},
		{Key: "target", Val: target},
		{Key: "rel", Val: "noopener noreferrer"},
	}
	a.AppendChild(textNode(types.JoinPlainText(node.Children)))
	return a
}

func wrap(tag string, children []*html.Node) *html.Node {
	el := element(tag)
	for _, child := range children {
		el.AppendChild(child)
	}
	return el
}

func element(tag string) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
}

func textNode(text string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: text}
}

func headingTag(level int) string {
	return fmt.Sprintf("h%d", level)
}

func clampLevel(level int) int {
	switch {
	case level < 1:
		return 1
	case level > 6:
		return 6
	default:
		return level
	}
}
