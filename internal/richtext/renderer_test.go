package richtext

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/jonathan/tailorhire/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func text(s string) *types.InlineNode {
	return &types.InlineNode{Type: types.InlineText, Text: s}
}

func paragraph(children ...*types.InlineNode) *types.ContentBlock {
	return &types.ContentBlock{Type: types.BlockParagraph, Children: children}
}

func renderString(t *testing.T, r *Renderer, blocks ...*types.ContentBlock) string {
	t.Helper()
	out, err := r.RenderHTML(blocks)
	require.NoError(t, err)
	return string(out)
}

func TestRender_Paragraph(t *testing.T) {
	r := NewRenderer(DefaultOptions())
	got := renderString(t, r, paragraph(text("Hello "), text("world")))
	assert.Equal(t, "<p>Hello world</p>", got)
}

func TestRender_FormattingFlagsCompose(t *testing.T) {
	r := NewRenderer(DefaultOptions())
	node := &types.InlineNode{Type: types.InlineText, Text: "world", Bold: true, Italic: true, Underline: true}

	got := renderString(t, r, paragraph(text("Hello "), node))
	assert.Equal(t, "<p>Hello <u><em><strong>world</strong></em></u></p>", got)
}

func TestRender_SingleFormattingFlags(t *testing.T) {
	tests := []struct {
		name string
		node *types.InlineNode
		want string
	}{
		{"bold", &types.InlineNode{Type: types.InlineText, Text: "x", Bold: true}, "<p><strong>x</strong></p>"},
		{"italic", &types.InlineNode{Type: types.InlineText, Text: "x", Italic: true}, "<p><em>x</em></p>"},
		{"underline", &types.InlineNode{Type: types.InlineText, Text: "x", Underline: true}, "<p><u>x</u></p>"},
		{"bold italic", &types.InlineNode{Type: types.InlineText, Text: "x", Bold: true, Italic: true}, "<p><em><strong>x</strong></em></p>"},
		{"italic underline", &types.InlineNode{Type: types.InlineText, Text: "x", Italic: true, Underline: true}, "<p><u><em>x</em></u></p>"},
	}

	r := NewRenderer(DefaultOptions())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, renderString(t, r, paragraph(tt.node)))
		})
	}
}

func TestRender_NewlinesBecomeLineBreaks(t *testing.T) {
	r := NewRenderer(DefaultOptions())

	got := renderString(t, r, paragraph(text("line one\nline two\r\nline three")))
	assert.Equal(t, "<p>line one<br/>line two<br/>line three</p>", got)

	bold := &types.InlineNode{Type: types.InlineText, Text: "a\nb", Bold: true}
	got = renderString(t, r, paragraph(bold))
	assert.Equal(t, "<p><strong>a<br/>b</strong></p>", got)
}

func TestRender_TextIsEscaped(t *testing.T) {
	r := NewRenderer(DefaultOptions())
	got := renderString(t, r, paragraph(text("a < b & <script>")))
	assert.Equal(t, "<p>a &lt; b &amp; &lt;script&gt;</p>", got)
}

func TestRender_Headings(t *testing.T) {
	heading := func(level int) *types.ContentBlock {
		return &types.ContentBlock{Type: types.BlockHeading, Level: level, Children: []*types.InlineNode{text("Title")}}
	}

	r := NewRenderer(DefaultOptions())
	assert.Equal(t, "<h1>Title</h1>", renderString(t, r, heading(1)))
	assert.Equal(t, "<h2>Title</h2>", renderString(t, r, heading(2)))
	assert.Equal(t, "<h3>Title</h3>", renderString(t, r, heading(0)), "missing level uses the default")
	assert.Equal(t, "<h6>Title</h6>", renderString(t, r, heading(9)), "level clamps to 6")

	r = NewRenderer(Options{DefaultHeadingLevel: 2})
	assert.Equal(t, "<h2>Title</h2>", renderString(t, r, heading(0)))
}

func TestRender_HeadingAppliesInlineFormatting(t *testing.T) {
	r := NewRenderer(DefaultOptions())
	block := &types.ContentBlock{Type: types.BlockHeading, Level: 2, Children: []*types.InlineNode{
		text("Beat the "),
		{Type: types.InlineText, Text: "ATS", Bold: true},
	}}
	assert.Equal(t, "<h2>Beat the <strong>ATS</strong></h2>", renderString(t, r, block))
}

func TestRender_Lists(t *testing.T) {
	item := func(children ...*types.InlineNode) *types.InlineNode {
		return &types.InlineNode{Type: types.InlineListItem, Children: children}
	}
	block := &types.ContentBlock{Type: types.BlockList, Format: types.ListUnordered, Children: []*types.InlineNode{
		item(&types.InlineNode{Type: types.InlineText, Text: "One", Bold: true}),
		item(text("Two "), &types.InlineNode{Type: types.InlineLink, URL: "/x", Children: []*types.InlineNode{text("links")}}),
		nil,
	}}

	r := NewRenderer(DefaultOptions())
	// Formatting inside list items is dropped.
	assert.Equal(t, "<ul><li>One</li><li>Two links</li></ul>", renderString(t, r, block))

	block.Format = types.ListOrdered
	assert.Equal(t, "<ol><li>One</li><li>Two links</li></ol>", renderString(t, r, block))

	block.Format = ""
	assert.True(t, strings.HasPrefix(renderString(t, r, block), "<ul>"), "lists without a format are unordered")
}

func TestRender_LinkLabelIgnoresChildFormatting(t *testing.T) {
	r := NewRenderer(DefaultOptions())
	link := &types.InlineNode{Type: types.InlineLink, URL: "https://example.com/guide", Children: []*types.InlineNode{
		{Type: types.InlineText, Text: "Resume", Bold: true},
		{Type: types.InlineText, Text: " guide", Italic: true, Underline: true},
	}}

	got := renderString(t, r, paragraph(text("Read the "), link))
	assert.Equal(t,
		`<p>Read the <a href="https://example.com/guide" target="_blank" rel="noopener noreferrer">Resume guide</a></p>`,
		got)
}

func TestRender_RelativeLinkOpensInSameTab(t *testing.T) {
	r := NewRenderer(DefaultOptions())
	link := &types.InlineNode{Type: types.InlineLink, URL: "/blog/ats-tips", Children: []*types.InlineNode{text("tips")}}

	got := renderString(t, r, paragraph(link))
	assert.Equal(t, `<p><a href="/blog/ats-tips" target="_self" rel="noopener noreferrer">tips</a></p>`, got)
}

func TestRender_UnknownBlockPolicies(t *testing.T) {
	unknown := &types.ContentBlock{Type: "quote", Children: []*types.InlineNode{
		{Type: types.InlineText, Text: "Quoted", Bold: true},
		text(" text"),
	}}

	r := NewRenderer(Options{UnknownBlocks: UnknownAsParagraph})
	assert.Equal(t, "<p>Quoted text</p>", renderString(t, r, unknown))

	r = NewRenderer(Options{UnknownBlocks: UnknownSkip})
	assert.Equal(t, "", renderString(t, r, unknown))
	assert.Empty(t, r.Render([]*types.ContentBlock{unknown}))
}

func TestRender_MalformedInputDoesNotPanic(t *testing.T) {
	r := NewRenderer(DefaultOptions())
	blocks := []*types.ContentBlock{
		nil,
		{Type: types.BlockParagraph},
		{Type: types.BlockHeading},
		{Type: types.BlockList},
		paragraph(nil, &types.InlineNode{Type: "mention", Text: "@x"}, &types.InlineNode{Type: types.InlineLink}),
	}

	var got string
	assert.NotPanics(t, func() { got = renderString(t, r, blocks...) })
	assert.Equal(t, `<p></p><h3></h3><ul></ul><p><a href="" target="_self" rel="noopener noreferrer"></a></p>`, got)
}

func TestRender_OneNodePerRecognizedBlockInOrder(t *testing.T) {
	raw := `[
		{"type": "heading", "level": 2, "children": [{"type": "text", "text": "H"}]},
		null,
		{"type": "paragraph", "children": [{"type": "text", "text": "P"}]},
		{"type": "image", "children": [{"type": "text", "text": "I"}]},
		{"type": "list", "format": "ordered", "children": [{"type": "list-item", "children": [{"type": "text", "text": "L"}]}]}
	]`
	var blocks []*types.ContentBlock
	require.NoError(t, json.Unmarshal([]byte(raw), &blocks))

	nodes := NewRenderer(Options{UnknownBlocks: UnknownSkip}).Render(blocks)
	require.Len(t, nodes, 3)
	assert.Equal(t, "h2", nodes[0].Data)
	assert.Equal(t, "p", nodes[1].Data)
	assert.Equal(t, "ol", nodes[2].Data)

	nodes = NewRenderer(Options{UnknownBlocks: UnknownAsParagraph}).Render(blocks)
	require.Len(t, nodes, 4)
	assert.Equal(t, []string{"h2", "p", "p", "ol"}, []string{nodes[0].Data, nodes[1].Data, nodes[2].Data, nodes[3].Data})
}

func TestNewRenderer_ClampsDefaultLevel(t *testing.T) {
	assert.Equal(t, DefaultHeadingLevel, NewRenderer(Options{}).Options().DefaultHeadingLevel)
	assert.Equal(t, 6, NewRenderer(Options{DefaultHeadingLevel: 12}).Options().DefaultHeadingLevel)
	assert.Equal(t, 1, NewRenderer(Options{DefaultHeadingLevel: -4}).Options().DefaultHeadingLevel)
}

func TestPlainText(t *testing.T) {
	blocks := []*types.ContentBlock{
		{Type: types.BlockHeading, Children: []*types.InlineNode{text("Title")}},
		nil,
		paragraph(text("Body "), &types.InlineNode{Type: types.InlineLink, Children: []*types.InlineNode{text("link")}}),
		paragraph(),
	}
	assert.Equal(t, "Title\nBody link", PlainText(blocks))
}

func TestParseUnknownBlockPolicy(t *testing.T) {
	p, err := ParseUnknownBlockPolicy("")
	require.NoError(t, err)
	assert.Equal(t, UnknownAsParagraph, p)

	p, err = ParseUnknownBlockPolicy(" SKIP ")
	require.NoError(t, err)
	assert.Equal(t, UnknownSkip, p)
	assert.Equal(t, "skip", p.String())

	_, err = ParseUnknownBlockPolicy("drop")
	assert.Error(t, err)
}
