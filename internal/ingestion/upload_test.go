package ingestion

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var samplePDF = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n%%EOF\n")

// minimalDOCX builds a zip with the entries mimetype uses to recognize DOCX.
func minimalDOCX(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range []string{"[Content_Types].xml", "_rels/.rels", "word/document.xml"} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte("<xml/>"))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestValidateFile_PDF(t *testing.T) {
	contentType, err := ValidateFile("resume.pdf", "application/pdf", samplePDF)
	require.NoError(t, err)
	assert.Equal(t, MIMETypePDF, contentType)
}

func TestValidateFile_DOCX(t *testing.T) {
	contentType, err := ValidateFile("resume.docx", MIMETypeDOCX, minimalDOCX(t))
	require.NoError(t, err)
	assert.Equal(t, MIMETypeDOCX, contentType)
}

func TestValidateFile_FallsBackToExtension(t *testing.T) {
	contentType, err := ValidateFile("Resume.PDF", "application/octet-stream", samplePDF)
	require.NoError(t, err)
	assert.Equal(t, MIMETypePDF, contentType)

	contentType, err = ValidateFile("resume.pdf", "", samplePDF)
	require.NoError(t, err)
	assert.Equal(t, MIMETypePDF, contentType)
}

func TestValidateFile_DeclaredTypeWithParams(t *testing.T) {
	_, err := ValidateFile("resume.pdf", "application/pdf; charset=binary", samplePDF)
	assert.NoError(t, err)
}

func TestValidateFile_Rejections(t *testing.T) {
	tests := []struct {
		name         string
		filename     string
		declaredType string
		data         []byte
		message      string
	}{
		{
			name:         "text file",
			filename:     "resume.txt",
			declaredType: "text/plain",
			data:         []byte("Jane Doe"),
			message:      MsgInvalidType,
		},
		{
			name:         "renamed text file",
			filename:     "resume.pdf",
			declaredType: "application/pdf",
			data:         []byte("just some text"),
			message:      "file content looks like text/plain",
		},
		{
			name:         "legacy word document",
			filename:     "resume.doc",
			declaredType: "application/msword",
			data:         []byte{0xD0, 0xCF, 0x11, 0xE0},
			message:      MsgInvalidType,
		},
		{
			name:         "empty",
			filename:     "resume.pdf",
			declaredType: "application/pdf",
			data:         nil,
			message:      MsgEmpty,
		},
		{
			name:         "too large",
			filename:     "resume.pdf",
			declaredType: "application/pdf",
			data:         append(append([]byte{}, samplePDF...), make([]byte, MaxUploadBytes)...),
			message:      MsgTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateFile(tt.filename, tt.declaredType, tt.data)
			require.Error(t, err)

			var fileErr *FileError
			require.ErrorAs(t, err, &fileErr)
			assert.Contains(t, err.Error(), tt.message)
			assert.Equal(t, tt.filename, fileErr.Filename)
		})
	}
}

func TestValidateFile_ExactlyMaxSize(t *testing.T) {
	data := make([]byte, MaxUploadBytes)
	copy(data, samplePDF)
	_, err := ValidateFile("resume.pdf", "application/pdf", data)
	assert.NoError(t, err)
}

func TestFormatFileSize(t *testing.T) {
	tests := []struct {
		bytes    int64
		expected string
	}{
		{0, "0 Bytes"},
		{512, "512 Bytes"},
		{1024, "1 KB"},
		{1536, "1.5 KB"},
		{10 << 20, "10 MB"},
		{2359296, "2.25 MB"},
		{5 << 40, "5120 GB"},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatFileSize(tt.bytes))
		})
	}
}
