// Package ingestion checks resume uploads and cleans resume text before it is
// sent to the Optimization API.
package ingestion

import (
	"fmt"
	"math"
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// MaxUploadBytes is the largest accepted resume file.
const MaxUploadBytes = 10 << 20

// Accepted resume content types.
const (
	MIMETypePDF  = "application/pdf"
	MIMETypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var acceptedTypes = map[string]bool{
	MIMETypePDF:  true,
	MIMETypeDOCX: true,
}

var extensionTypes = map[string]string{
	".pdf":  MIMETypePDF,
	".docx": MIMETypeDOCX,
}

// FileError describes why an upload was rejected.
type FileError struct {
	Filename string
	Message  string
}

func (e *FileError) Error() string {
	if e.Filename != "" {
		return fmt.Sprintf("%s: %s", e.Filename, e.Message)
	}
	return e.Message
}

// Rejection messages.
const (
	MsgInvalidType = "Please upload a PDF or DOCX file"
	MsgTooLarge    = "File size must be less than 10MB"
	MsgEmpty       = "The selected file is empty"
)

// ValidateFile checks an upload before any network call. declaredType is the
// Content-Type the browser sent; an empty or generic value falls back to the
// file extension. The content is sniffed as well, so a renamed file is
// rejected. It returns the content type to forward upstream.
func ValidateFile(filename, declaredType string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", &FileError{Filename: filename, Message: MsgEmpty}
	}
	if len(data) > MaxUploadBytes {
		return "", &FileError{Filename: filename, Message: MsgTooLarge}
	}

	contentType := normalizeType(declaredType)
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = extensionTypes[strings.ToLower(filepath.Ext(filename))]
	}
	if !acceptedTypes[contentType] {
		return "", &FileError{Filename: filename, Message: MsgInvalidType}
	}

	detected := mimetype.Detect(data)
	if !detected.Is(contentType) {
		return "", &FileError{
			Filename: filename,
			Message:  fmt.Sprintf("%s (file content looks like %s)", MsgInvalidType, detected.String()),
		}
	}
	return contentType, nil
}

func normalizeType(declared string) string {
	if declared == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(declared)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(declared))
	}
	return mediaType
}

var sizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// FormatFileSize renders a byte count the way the upload form shows it,
// e.g. "0 Bytes", "512 Bytes", "1.5 KB", "2.25 MB".
func FormatFileSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}
	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(1024)))
	if i >= len(sizeUnits) {
		i = len(sizeUnits) - 1
	}
	value := float64(bytes) / math.Pow(1024, float64(i))
	rounded := math.Round(value*100) / 100
	return fmt.Sprintf("%s %s", trimFloat(rounded), sizeUnits[i])
}

func trimFloat(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
