package richtext

import (
	"fmt"
	"strings"
)

// UnknownBlockPolicy decides how blocks of an unrecognized type are rendered.
type UnknownBlockPolicy int

const (
	// UnknownAsParagraph renders the block's concatenated child text as a plain paragraph.
	UnknownAsParagraph UnknownBlockPolicy = iota
	// UnknownSkip drops the block.
	UnknownSkip
)

func (p UnknownBlockPolicy) String() string {
	switch p {
	case UnknownSkip:
		return "skip"
	default:
		return "paragraph"
	}
}

// ParseUnknownBlockPolicy parses "paragraph" or "skip". An empty string selects UnknownAsParagraph.
func ParseUnknownBlockPolicy(s string) (UnknownBlockPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "paragraph":
		return UnknownAsParagraph, nil
	case "skip":
		return UnknownSkip, nil
	default:
		return UnknownAsParagraph, fmt.Errorf("unknown block policy %q (want paragraph or skip)", s)
	}
}
