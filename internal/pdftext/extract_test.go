package pdftext

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"codeberg.org/go-pdf/fpdf"
)

type stubBackend struct {
	name  string
	pages []RawPage
	err   error
	calls int
}

func (s *stubBackend) Name() string { return s.name }

func (s *stubBackend) Pages(string) ([]RawPage, error) {
	s.calls++
	return s.pages, s.err
}

func TestExtractorFallback(t *testing.T) {
	failing := &stubBackend{name: "bad", err: errors.New("boom")}
	good := &stubBackend{name: "good", pages: []RawPage{
		{Box: Box{0, 0, 100, 100}, Runs: []Run{{Text: "hi", X: 1, Y: 50, Width: 10, Size: 10}}},
	}}

	e := NewExtractorWith(nil, failing, good)
	pages, err := e.Extract("x.pdf")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if failing.calls != 1 || good.calls != 1 {
		t.Errorf("unexpected calls: %d %d", failing.calls, good.calls)
	}
	if len(pages) != 1 || pages[0].Text() != "hi" {
		t.Errorf("unexpected pages %+v", pages)
	}

	t.Run("all backends fail", func(t *testing.T) {
		e := NewExtractorWith(nil, failing, &stubBackend{name: "also", err: errors.New("nope")})
		_, err := e.Extract("x.pdf")
		if err == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(err.Error(), "boom") || !strings.Contains(err.Error(), "nope") {
			t.Errorf("expected both causes, got %v", err)
		}
	})
}

func TestNewExtractor(t *testing.T) {
	e, err := NewExtractor(nil, nil)
	if err != nil {
		t.Fatalf("NewExtractor failed: %v", err)
	}
	if len(e.backends) != len(DefaultBackends) {
		t.Errorf("expected default chain, got %d backends", len(e.backends))
	}
	if _, err := NewExtractor([]string{"pymupdf"}, nil); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func writeSamplePDF(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.pdf")
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetFont("Helvetica", "", 12)
	pdf.AddPage()
	pdf.Text(72, 72, "12345 678")
	pdf.AddPage()
	pdf.Text(72, 72, "second")
	if err := pdf.OutputFileAndClose(path); err != nil {
		t.Fatalf("failed to write sample: %v", err)
	}
	return path
}

func TestBackendsReadGeneratedPDF(t *testing.T) {
	path := writeSamplePDF(t)
	for _, b := range []Backend{TabulaBackend{}, LedongthucBackend{}} {
		t.Run(b.Name(), func(t *testing.T) {
			raw, err := b.Pages(path)
			if err != nil {
				t.Fatalf("Pages failed: %v", err)
			}
			if len(raw) != 2 {
				t.Fatalf("expected 2 pages, got %d", len(raw))
			}
			p := BuildPage(0, raw[0])
			if !strings.Contains(p.Text(), "12345") {
				t.Errorf("expected page text to contain 12345, got %q", p.Text())
			}
			if p.Width < 595 || p.Width > 596 {
				t.Errorf("expected A4 width, got %v", p.Width)
			}
		})
	}
}

func TestBackendsMissingFile(t *testing.T) {
	for _, b := range []Backend{TabulaBackend{}, LedongthucBackend{}} {
		if _, err := b.Pages(filepath.Join(t.TempDir(), "missing.pdf")); err == nil {
			t.Errorf("%s: expected error for missing file", b.Name())
		}
	}
}
