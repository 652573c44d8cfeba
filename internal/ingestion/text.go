package ingestion

import (
	"regexp"
	"strings"
)

var (
	spaceRun     = regexp.MustCompile(`\s+`)
	blankLineRun = regexp.MustCompile(`\n\n\n+`)
)

// extractionNoise maps characters PDF and DOCX extraction leaves behind.
var extractionNoise = strings.NewReplacer(
	"\r\n", "\n",
	"\r", "\n",
	"\f", "\n\n", // page break
	"\u00a0", " ",
	"\u200b", "",
	"\ufeff", "",
	"\u00ad", "", // soft hyphen
)

var bulletMarkers = []string{"- ", "* ", "• ", "· ", "▪ ", "● ", "◦ ", "– "}

// CleanText normalizes pasted or extracted resume text while preserving its
// line structure. Line endings become LF and page breaks a blank line;
// invisible characters are dropped, space runs inside a line collapse and
// runs of blank lines shrink to one.
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	content = extractionNoise.Replace(content)

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = cleanLine(line)
	}

	result := blankLineRun.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(result)
}

// cleanLine keeps leading indentation and bullet markers and collapses the
// rest of the line.
func cleanLine(line string) string {
	line = strings.TrimRight(line, " \t")
	trimmed := strings.TrimLeft(line, " \t")
	if trimmed == "" {
		return ""
	}

	// Headings and bullets keep their text untouched.
	if strings.HasPrefix(trimmed, "#") {
		return trimmed
	}
	indent := strings.Repeat(" ", len(line)-len(trimmed))
	if isBulletLine(trimmed) {
		return indent + trimmed
	}
	return indent + spaceRun.ReplaceAllString(trimmed, " ")
}

func isBulletLine(line string) bool {
	for _, marker := range bulletMarkers {
		if strings.HasPrefix(line, marker) {
			return true
		}
	}
	return false
}
