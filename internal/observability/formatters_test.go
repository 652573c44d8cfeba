package observability

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/jonathan/tailorhire/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestPrintArticle(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	article := &types.Article{
		Title:            "Beat the ATS",
		Slug:             "beat-the-ats",
		PublishedAt:      time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		FeaturedImageURL: "http://127.0.0.1:1337/uploads/ats.png",
		Content: []*types.ContentBlock{
			{Type: types.BlockHeading, Level: 2},
			{Type: types.BlockParagraph},
			{Type: types.BlockParagraph},
			{Type: "quote"},
			nil,
		},
	}

	p.PrintArticle(article)
	output := buf.String()

	assert.Contains(t, output, "ARTICLE")
	assert.Contains(t, output, "Beat the ATS")
	assert.Contains(t, output, "TailorHire Team")
	assert.Contains(t, output, "March 5, 2024")
	assert.Contains(t, output, "Blocks: 5")
	assert.Contains(t, output, "paragraph: 2")
	assert.Contains(t, output, "quote (unknown): 1")
}

func TestPrintArticle_Nil(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintArticle(nil)
	assert.Empty(t, buf.String())
}

func TestPrintResult(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	result := &types.OptimizationResult{
		MatchScorePercent:   87.4,
		OptimizedResumeJSON: map[string]any{"name": "Jane Doe"},
		KeyChanges:          []string{"a", "b", "c", "d", "e", "f", "g"},
		Suggestions:         []string{"Add metrics"},
		ProcessingTime:      12.34,
	}

	p.PrintResult(result)
	output := buf.String()

	assert.Contains(t, output, "OPTIMIZATION RESULT")
	assert.Contains(t, output, "Jane Doe")
	assert.Contains(t, output, "87%")
	assert.Contains(t, output, "12.3s")
	assert.Contains(t, output, "... and 2 more changes")
	assert.Contains(t, output, "Add metrics")
}

func TestPrintResult_Nil(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintResult(nil)
	assert.Empty(t, buf.String())
}

func TestPrintBox_TruncatesLongLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.printBox("TITLE", strings.Repeat("é", 100))
	output := buf.String()

	assert.Contains(t, output, "...")
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		assert.LessOrEqual(t, len([]rune(line)), boxWidth)
	}
}
