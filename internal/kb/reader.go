// File path: internal/kb/reader.go
package kb

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// UnsupportedFormatError identifies a file the ingestion pipeline cannot
// parse. Batch callers skip the file with a diagnostic instead of aborting.
type UnsupportedFormatError struct {
	Path string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file format: %s", e.Path)
}

// SupportedFormat reports whether the file extension is one the reader can
// turn into normalized text.
func SupportedFormat(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".pdf":
		return true
	default:
		return false
	}
}

// ExtractText reads a document file and returns its normalized text. Plain
// text is read as-is; PDF text is extracted locally, standing in for the
// external OCR collaborator that normally supplies pre-extracted content.
func ExtractText(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read text file: %w", err)
		}
		return string(data), nil
	case ".pdf":
		return extractPDF(path)
	default:
		return "", &UnsupportedFormatError{Path: path}
	}
}

func extractPDF(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return buf.String(), nil
}
