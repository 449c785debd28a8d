// File path: internal/kb/reader_test.go
package kb

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestExtractTextPlainFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	const content = "first line\nsecond line\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	text, err := ExtractText(path)
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if text != content {
		t.Fatalf("text mismatch: %q", text)
	}
}

func TestExtractTextUnsupportedFormat(t *testing.T) {
	_, err := ExtractText("diagram.png")
	if err == nil {
		t.Fatal("expected error for unsupported extension")
	}
	var unsupported *UnsupportedFormatError
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected UnsupportedFormatError, got %T", err)
	}
	if unsupported.Path != "diagram.png" {
		t.Fatalf("error should identify the file: %q", unsupported.Path)
	}
}

func TestSupportedFormat(t *testing.T) {
	cases := map[string]bool{
		"doc.txt":      true,
		"DOC.PDF":      true,
		"archive.zip":  false,
		"no-extension": false,
	}
	for path, want := range cases {
		if got := SupportedFormat(path); got != want {
			t.Fatalf("SupportedFormat(%q) = %v, want %v", path, got, want)
		}
	}
}
