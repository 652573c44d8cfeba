// Package types provides type definitions for structured data used throughout the TailorHire site.
package types

import "strings"

// BlockType identifies the kind of a rich-text content block.
type BlockType string

// Block types emitted by the CMS blocks editor. Any other value is treated as unknown.
const (
	BlockHeading   BlockType = "heading"
	BlockParagraph BlockType = "paragraph"
	BlockList      BlockType = "list"
)

// ListFormat selects between numbered and bulleted lists.
type ListFormat string

// List formats
const (
	ListOrdered   ListFormat = "ordered"
	ListUnordered ListFormat = "unordered"
)

// InlineType identifies the kind of an inline node.
type InlineType string

// Inline node types. ListItem only appears as an immediate child of a list block.
const (
	InlineText     InlineType = "text"
	InlineLink     InlineType = "link"
	InlineListItem InlineType = "list-item"
)

// ContentBlock is a node in a rich-text document tree.
// A missing children array decodes to nil and is treated as an empty block.
type ContentBlock struct {
	Type     BlockType     `json:"type"`
	Level    int           `json:"level,omitempty"`  // heading only, 1-6
	Format   ListFormat    `json:"format,omitempty"` // list only
	Children []*InlineNode `json:"children"`
}

// InlineNode is a leaf or link within a block.
type InlineNode struct {
	Type      InlineType    `json:"type"`
	Text      string        `json:"text,omitempty"`
	Bold      bool          `json:"bold,omitempty"`
	Italic    bool          `json:"italic,omitempty"`
	Underline bool          `json:"underline,omitempty"`
	URL       string        `json:"url,omitempty"`
	Children  []*InlineNode `json:"children,omitempty"`
}

// PlainText returns the visible text of the node with all formatting dropped.
// Text nodes return their own text; every other node returns the
// concatenation of its children's plain text, in order.
func (n *InlineNode) PlainText() string {
	if n == nil {
		return ""
	}
	if n.Type == InlineText {
		return n.Text
	}
	return JoinPlainText(n.Children)
}

// JoinPlainText concatenates the plain text of each node.
func JoinPlainText(nodes []*InlineNode) string {
	var sb strings.Builder
	for _, child := range nodes {
		sb.WriteString(child.PlainText())
	}
	return sb.String()
}

// PlainText returns the concatenated text of the block's children.
func (b *ContentBlock) PlainText() string {
	if b == nil {
		return ""
	}
	return JoinPlainText(b.Children)
}
