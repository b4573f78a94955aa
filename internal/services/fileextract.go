package services

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

// SampleExtractor pulls plain text out of uploaded writing samples so
// they can feed the style profiler.
type SampleExtractor struct{}

func NewSampleExtractor() *SampleExtractor {
	return &SampleExtractor{}
}

func (s *SampleExtractor) ExtractText(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		return s.extractTXT(path)
	case ".pdf":
		return s.extractPDF(path)
	case ".docx":
		return s.extractDOCX(path)
	default:
		return "", fmt.Errorf("unsupported sample file type: %s", filepath.Ext(path))
	}
}

func (s *SampleExtractor) extractTXT(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	text := normalizeSampleText(string(b))
	if text == "" {
		return "", fmt.Errorf("sample file is empty")
	}
	return text, nil
}

func (s *SampleExtractor) extractPDF(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var b strings.Builder
	for pageIndex := 1; pageIndex <= reader.NumPage(); pageIndex++ {
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(content)
		b.WriteString("\n")
	}

	text := normalizeSampleText(b.String())
	if text == "" {
		return "", fmt.Errorf("no extractable text found in pdf")
	}
	return text, nil
}

var docxTagRe = regexp.MustCompile(`<[^>]+>`)

func (s *SampleExtractor) extractDOCX(path string) (string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return "", err
	}
	defer r.Close()

	var document []byte
	for _, f := range r.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", err
		}
		document, err = readAllAndClose(rc)
		if err != nil {
			return "", err
		}
		break
	}

	if len(document) == 0 {
		return "", fmt.Errorf("docx has no document body")
	}

	// Paragraph closers become newlines, every other tag is dropped.
	text := strings.ReplaceAll(string(document), "</w:p>", "\n")
	text = docxTagRe.ReplaceAllString(text, "")

	text = normalizeSampleText(text)
	if text == "" {
		return "", fmt.Errorf("no extractable text found in docx")
	}
	return text, nil
}

func readAllAndClose(rc io.ReadCloser) ([]byte, error) {
	defer rc.Close()
	return io.ReadAll(rc)
}

var multiBlankRe = regexp.MustCompile(`\n{3,}`)

func normalizeSampleText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = multiBlankRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
