// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/tailorhire/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stderr; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
	for _, line := range lines {
		// Truncate long lines
		if utf8.RuneCountInString(line) > boxWidth-4 {
			line = string([]rune(line)[:boxWidth-7]) + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintArticle outputs a summary of a normalized CMS article.
func (p *Printer) PrintArticle(article *types.Article) {
	if article == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Title:     %s\n", article.DisplayTitle()))
	sb.WriteString(fmt.Sprintf("Slug:      %s\n", article.Slug))
	sb.WriteString(fmt.Sprintf("Author:    %s\n", article.DisplayAuthor()))
	if !article.PublishedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("Published: %s\n", article.PublishedAt.Format("January 2, 2006")))
	}
	if article.FeaturedImageURL != "" {
		sb.WriteString(fmt.Sprintf("Image:     %s\n", article.FeaturedImageURL))
	}

	counts := make(map[types.BlockType]int)
	for _, block := range article.Content {
		if block == nil {
			continue
		}
		counts[block.Type]++
	}
	sb.WriteString(fmt.Sprintf("\nBlocks: %d\n", len(article.Content)))
	kinds := make([]types.BlockType, 0, len(counts))
	for kind := range counts {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	for _, kind := range kinds {
		label := string(kind)
		switch kind {
		case types.BlockHeading, types.BlockParagraph, types.BlockList:
		default:
			label += " (unknown)"
		}
		sb.WriteString(fmt.Sprintf("  • %s: %d\n", label, counts[kind]))
	}

	p.printBox("ARTICLE", sb.String())
}

// PrintResult outputs a summary of an optimization result.
func (p *Printer) PrintResult(result *types.OptimizationResult) {
	if result == nil {
		return
	}

	var sb strings.Builder
	if name := result.CandidateName(); name != "" {
		sb.WriteString(fmt.Sprintf("Candidate:       %s\n", name))
	}
	sb.WriteString(fmt.Sprintf("ATS Match Score: %d%%\n", result.Score()))
	if result.ProcessingTime > 0 {
		sb.WriteString(fmt.Sprintf("Processing Time: %.1fs\n", result.ProcessingTime))
	}

	writeList(&sb, "Key Improvements", result.KeyChanges, "changes")
	writeList(&sb, "Suggestions", result.Suggestions, "suggestions")

	p.printBox("OPTIMIZATION RESULT", sb.String())
}

func writeList(sb *strings.Builder, title string, items []string, noun string) {
	if len(items) == 0 {
		return
	}
	sb.WriteString(fmt.Sprintf("\n%s:\n", title))
	count := min(len(items), maxItemsToShow)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("  • %s\n", items[i]))
	}
	if len(items) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more %s\n", len(items)-maxItemsToShow, noun))
	}
}
