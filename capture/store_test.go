package capture

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPersist_PDF(t *testing.T) {
	s := NewStore(t.TempDir(), true)

	files, typ, err := s.Persist("PCGRERA250517", "approved_layout",
		[]byte("%PDF-1.7 payload"), "application/pdf", "https://portal.example.in/d/layout.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if typ != "pdf" {
		t.Errorf("type = %q", typ)
	}
	if len(files) != 1 || files[0] != filepath.Join("PCGRERA250517", "approved_layout.pdf") {
		t.Errorf("files = %v", files)
	}

	body, err := os.ReadFile(filepath.Join(s.dir, files[0]))
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != "%PDF-1.7 payload" {
		t.Error("payload must be written verbatim")
	}
}

func TestPersist_HTMLGetsMarkdownSibling(t *testing.T) {
	s := NewStore(t.TempDir(), true)

	files, typ, err := s.Persist("PCGRERA250517", "litigation-details.case-papers",
		[]byte("<html><body><h1>Case Papers</h1><p>WP 123/2024</p></body></html>"),
		"text/html; charset=utf-8", "https://portal.example.in/case")
	if err != nil {
		t.Fatal(err)
	}
	if typ != "html" {
		t.Errorf("type = %q", typ)
	}
	if len(files) != 2 {
		t.Fatalf("files = %v", files)
	}
	if !strings.HasSuffix(files[0], "litigation-details_case-papers.html") ||
		!strings.HasSuffix(files[1], "litigation-details_case-papers.md") {
		t.Errorf("files = %v", files)
	}

	md, err := os.ReadFile(filepath.Join(s.dir, files[1]))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(md), "Case Papers") {
		t.Errorf("markdown missing heading text:\n%s", md)
	}
}

func TestPersist_MarkdownDisabled(t *testing.T) {
	s := NewStore(t.TempDir(), false)

	files, _, err := s.Persist("E1", "k", []byte("<p>x</p>"), "text/html", "https://e.in/")
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 {
		t.Errorf("markdown sibling written despite being disabled: %v", files)
	}
}

func TestClassifyContent(t *testing.T) {
	tests := []struct {
		contentType string
		body        string
		wantType    string
		wantExt     string
	}{
		{"application/pdf", "", "pdf", ".pdf"},
		{"application/pdf; charset=binary", "", "pdf", ".pdf"},
		{"image/png", "", "image", ".png"},
		{"image/jpeg", "", "image", ".jpg"},
		{"text/html; charset=utf-8", "", "html", ".html"},
		{"application/octet-stream", "%PDF-1.4", "pdf", ".pdf"},
		{"application/octet-stream", "GIF89a", "binary", ".bin"},
		{"", "random bytes", "binary", ".bin"},
	}

	for _, tt := range tests {
		typ, ext := classifyContent(tt.contentType, []byte(tt.body))
		if typ != tt.wantType || ext != tt.wantExt {
			t.Errorf("classifyContent(%q, %q) = %q, %q; want %q, %q",
				tt.contentType, tt.body, typ, ext, tt.wantType, tt.wantExt)
		}
	}
}
