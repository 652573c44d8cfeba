// Package results presents Optimization API results: an inline PDF preview,
// a decoded PDF download and a side-by-side comparison of the resume content.
package results

import (
	"encoding/base64"
	"html/template"
	"regexp"
	"strings"

	"github.com/jonathan/tailorhire/internal/types"
)

// PDFContentType is the media type of downloaded resumes.
const PDFContentType = "application/pdf"

// fallbackName is used in the download filename when the resume has no name.
const fallbackName = "Resume"

var unsafeFilenameChars = regexp.MustCompile(`[\s/\\"]+`)

// Download is a decoded PDF ready to be written as an attachment.
type Download struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Preview returns a data URI embedding the optimized PDF. No decoding happens here.
func Preview(result *types.OptimizationResult) template.URL {
	if result == nil || strings.TrimSpace(result.OptimizedResumePDFBase64) == "" {
		return ""
	}
	return template.URL("data:" + PDFContentType + ";base64," + compact(result.OptimizedResumePDFBase64)) //nolint:gosec // base64 payload only
}

// DownloadPDF decodes the optimized PDF. A malformed payload returns a *DecodeError.
func DownloadPDF(result *types.OptimizationResult) (*Download, error) {
	if result == nil {
		return nil, &DecodeError{Message: "no result to download"}
	}

	data, err := decodeBase64(result.OptimizedResumePDFBase64)
	if err != nil {
		return nil, err
	}

	return &Download{
		Filename:    DownloadFilename(result),
		ContentType: PDFContentType,
		Data:        data,
	}, nil
}

// DownloadFilename derives "Optimized-Resume-<name>.pdf" from the resume's
// name, replacing whitespace and path characters with dashes.
func DownloadFilename(result *types.OptimizationResult) string {
	name := result.CandidateName()
	if name != "" {
		name = strings.Trim(unsafeFilenameChars.ReplaceAllString(name, "-"), "-")
	}
	if name == "" {
		name = fallbackName
	}
	return "Optimized-Resume-" + name + ".pdf"
}

func decodeBase64(payload string) ([]byte, error) {
	payload = compact(payload)
	if payload == "" {
		return nil, &DecodeError{Message: "empty PDF payload"}
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil && !strings.HasSuffix(payload, "=") {
		// Unpadded payloads are accepted as well.
		data, err = base64.RawStdEncoding.DecodeString(payload)
	}
	if err != nil {
		return nil, &DecodeError{Message: "invalid base64 PDF payload", Cause: err}
	}
	return data, nil
}

// compact removes whitespace, which transports sometimes insert into long base64 strings.
func compact(payload string) string {
	return strings.Join(strings.Fields(payload), "")
}
