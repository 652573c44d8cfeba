package stubapi

import (
	"bytes"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// resumeDocument is the content of a generated resume PDF.
type resumeDocument struct {
	Name    string
	Summary string
	Body    string
	Skills  []string
}

// render lays the document out on A4 pages. Content streams are left
// uncompressed so ExtractText can read the stub's own output back.
func (d *resumeDocument) render() ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(false)
	pdf.SetTitle(d.title(), true)
	pdf.SetCreator(Service, true)
	pdf.SetMargins(18, 18, 18)
	pdf.SetAutoPageBreak(true, 18)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	if d.Name != "" {
		pdf.SetFont("Helvetica", "B", 18)
		pdf.CellFormat(0, 10, tr(d.Name), "", 1, "L", false, 0, "")
		pdf.Ln(2)
	}

	section := func(title, text string) {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 8, tr(title), "B", 1, "L", false, 0, "")
		pdf.Ln(1)
		pdf.SetFont("Helvetica", "", 10)
		for _, line := range strings.Split(text, "\n") {
			pdf.MultiCell(0, 5, tr(line), "", "L", false)
		}
		pdf.Ln(3)
	}

	section("Summary", d.Summary)
	if len(d.Skills) > 0 {
		section("Skills", strings.Join(d.Skills, ", "))
	}
	section("Experience", d.Body)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func (d *resumeDocument) title() string {
	if d.Name == "" {
		return "Optimized Resume"
	}
	return "Optimized Resume - " + d.Name
}

var (
	showTextPattern = regexp.MustCompile(`\(((?:[^()\\]|\\.)*)\)\s*Tj`)
	pdfEscapes      = strings.NewReplacer(`\(`, "(", `\)`, ")", `\\`, `\`, `\n`, "\n", `\r`, "", `\t`, "\t")
)

// ExtractText returns the text of an uncompressed PDF, one line per text
// operation. Other files, and PDFs it cannot read, get a placeholder naming
// the file.
func ExtractText(filename string, data []byte) string {
	if bytes.HasPrefix(data, []byte("%PDF")) {
		var lines []string
		for _, m := range showTextPattern.FindAllSubmatch(data, -1) {
			if line := strings.TrimSpace(pdfEscapes.Replace(string(m[1]))); line != "" {
				lines = append(lines, line)
			}
		}
		if len(lines) > 0 {
			return strings.Join(lines, "\n")
		}
	}
	return fmt.Sprintf("Resume text extracted from %s.", filepath.Base(filename))
}
