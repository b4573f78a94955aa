package services

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExtractText_TXT(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.txt")
	content := "First line.\r\nSecond line.\n\n\n\n\nThird line.\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write sample: %v", err)
	}

	got, err := NewSampleExtractor().ExtractText(path)
	if err != nil {
		t.Fatalf("ExtractText returned error: %v", err)
	}
	want := "First line.\nSecond line.\n\nThird line."
	if got != want {
		t.Errorf("ExtractText = %q, want %q", got, want)
	}
}

func TestExtractText_EmptyTXT(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	if err := os.WriteFile(path, []byte("   \n  "), 0o644); err != nil {
		t.Fatalf("failed to write sample: %v", err)
	}

	if _, err := NewSampleExtractor().ExtractText(path); err == nil {
		t.Error("expected error for empty sample")
	}
}

func TestExtractText_DOCX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.docx")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create docx: %v", err)
	}

	zw := zip.NewWriter(f)
	doc, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("failed to create zip entry: %v", err)
	}
	doc.Write([]byte(`<w:document><w:body>` +
		`<w:p><w:r><w:t>You are the bottleneck.</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Build the system instead.</w:t></w:r></w:p>` +
		`</w:body></w:document>`))
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to close zip: %v", err)
	}
	f.Close()

	got, err := NewSampleExtractor().ExtractText(path)
	if err != nil {
		t.Fatalf("ExtractText returned error: %v", err)
	}
	if !strings.Contains(got, "You are the bottleneck.") || !strings.Contains(got, "Build the system instead.") {
		t.Errorf("ExtractText = %q, missing paragraph text", got)
	}
	if strings.Contains(got, "<w:") {
		t.Errorf("ExtractText = %q, contains markup", got)
	}
}

func TestExtractText_UnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.exe")
	if err := os.WriteFile(path, []byte("binary"), 0o644); err != nil {
		t.Fatalf("failed to write sample: %v", err)
	}

	if _, err := NewSampleExtractor().ExtractText(path); err == nil {
		t.Error("expected error for unsupported file type")
	}
}
