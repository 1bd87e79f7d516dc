package pagestore

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"codeberg.org/go-pdf/fpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/carden-code/wb-stickers/internal/errs"
	"github.com/carden-code/wb-stickers/internal/pdftext"
)

// writeTestPDF writes a PDF with one page per label, each label printed
// near the top of its page.
func writeTestPDF(t *testing.T, dir string, labels ...string) string {
	t.Helper()
	path := filepath.Join(dir, "stickers.pdf")
	pdf := fpdf.New("P", "pt", "", "")
	pdf.SetFont("Helvetica", "", 12)
	for _, l := range labels {
		pdf.AddPageFormat("P", fpdf.SizeType{Wd: 200, Ht: 300})
		pdf.Text(20, 40, l)
	}
	if err := pdf.OutputFileAndClose(path); err != nil {
		t.Fatalf("failed to write test PDF: %v", err)
	}
	return path
}

// testStyle returns the default style, skipping when the default font is not
// installed.
func testStyle(t *testing.T) Style {
	t.Helper()
	if _, err := os.Stat(DefaultFontPath); err != nil {
		t.Skipf("font %s not available", DefaultFontPath)
	}
	return DefaultStyle()
}

func memStore(pages int) *Store {
	s := &Store{logger: nil}
	for i := 0; i < pages; i++ {
		w := float64(100 + i)
		s.dims = append(s.dims, [2]float64{w, 200})
		s.refs = append(s.refs, PageRef{Kind: RefSource, Source: i, Width: w, Height: 200})
	}
	return s
}

func refSources(s *Store) string {
	var parts []string
	for _, r := range s.Refs() {
		if r.Kind == RefSeparator {
			parts = append(parts, "S:"+r.Separator.Article)
			continue
		}
		parts = append(parts, fmt.Sprint(r.Source))
	}
	return strings.Join(parts, ",")
}

func TestReorderInsertAnnotate(t *testing.T) {
	s := memStore(3)

	if err := s.Reorder([]int{2, 0, 2}); err != nil {
		t.Fatalf("Reorder failed: %v", err)
	}
	if got := refSources(s); got != "2,0,2" {
		t.Errorf("unexpected order %s", got)
	}

	if err := s.InsertPage(0, Separator{Article: "A", Count: 1}); err != nil {
		t.Fatalf("InsertPage failed: %v", err)
	}
	if err := s.InsertPage(s.PageCount(), Separator{Article: "B", Count: 2}); err != nil {
		t.Fatalf("InsertPage failed: %v", err)
	}
	if got := refSources(s); got != "S:A,2,0,2,S:B" {
		t.Errorf("unexpected sequence %s", got)
	}
	if s.PageCount() != 5 || s.SourcePageCount() != 3 {
		t.Errorf("unexpected counts %d/%d", s.PageCount(), s.SourcePageCount())
	}

	// Separators take the size of the first page at insertion time.
	refs := s.Refs()
	if refs[0].Width != 102 || refs[4].Width != 102 {
		t.Errorf("unexpected separator widths %v, %v", refs[0].Width, refs[4].Width)
	}

	ov := Overlay{Rect: pdftext.Rect{X0: 1, Y0: 2, X1: 3, Y1: 4}, Text: "ART"}
	if err := s.Annotate(1, ov); err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}
	refs = s.Refs()
	if len(refs[1].Overlays) != 1 || len(refs[3].Overlays) != 0 {
		t.Error("overlay must only attach to the annotated copy of a page")
	}

	t.Run("out of range", func(t *testing.T) {
		if err := s.Reorder([]int{5}); err == nil {
			t.Error("expected Reorder error")
		}
		if err := s.InsertPage(7, Separator{}); err == nil {
			t.Error("expected InsertPage error")
		}
		if err := s.Annotate(-1, ov); err == nil {
			t.Error("expected Annotate error")
		}
	})
}

func TestOpenErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Open(filepath.Join(dir, "missing.pdf"), DefaultStyle(), nil)
	if errs.Classify(err) != errs.KindResourceNotFound {
		t.Errorf("expected resource_not_found, got %v", err)
	}

	junk := filepath.Join(dir, "junk.pdf")
	os.WriteFile(junk, []byte("hello"), 0o644)
	_, err = Open(junk, DefaultStyle(), nil)
	if errs.Classify(err) != errs.KindFormat {
		t.Errorf("expected format error, got %v", err)
	}

	badFont := filepath.Join(dir, "bad.ttf")
	os.WriteFile(badFont, []byte("not a font"), 0o644)
	style := DefaultStyle()
	style.FontPath = badFont
	_, err = Open(writeTestPDF(t, dir, "x"), style, nil)
	var fle *errs.FontLoadError
	if !errors.As(err, &fle) {
		t.Errorf("expected FontLoadError, got %v", err)
	}

	style.FontPath = filepath.Join(dir, "nope.ttf")
	_, err = Open(writeTestPDF(t, dir, "x"), style, nil)
	if !errors.As(err, &fle) {
		t.Errorf("expected FontLoadError for missing font, got %v", err)
	}
}

func TestSave(t *testing.T) {
	style := testStyle(t)
	dir := t.TempDir()
	src := writeTestPDF(t, dir, "first 111", "second 222", "third 333")

	s, err := Open(src, style, nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	if s.PageCount() != 3 {
		t.Fatalf("expected 3 pages, got %d", s.PageCount())
	}
	if err := s.Reorder([]int{2, 0}); err != nil {
		t.Fatal(err)
	}
	if err := s.InsertPage(0, Separator{Article: "ART-1", Count: 2, Text: "Article: ART-1\nCount: 2"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Annotate(1, Overlay{Rect: pdftext.Rect{X0: 20, Y0: 30, X1: 40, Y1: 42}, Text: "ART-1"}); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(dir, "out.pdf")
	if err := s.Save(out); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	n, err := api.PageCount(bytes.NewReader(data), newConfig())
	if err != nil || n != 3 {
		t.Errorf("expected 3 output pages, got %d (%v)", n, err)
	}

	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}

	t.Run("unwritable target", func(t *testing.T) {
		err := s.Save(filepath.Join(dir, "missing-dir", "out.pdf"))
		if errs.Classify(err) != errs.KindPersistence {
			t.Errorf("expected persistence error, got %v", err)
		}
	})
}

func TestWriteAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.pdf")
	os.WriteFile(path, []byte("old"), 0o644)

	if err := writeAtomic(path, []byte("new")); err != nil {
		t.Fatalf("writeAtomic failed: %v", err)
	}
	got, _ := os.ReadFile(path)
	if string(got) != "new" {
		t.Errorf("expected replaced content, got %q", got)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("expected only the output file, found %d entries", len(entries))
	}

	if err := writeAtomic(filepath.Join(dir, "no", "such", "file.pdf"), []byte("x")); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestStyleDefaults(t *testing.T) {
	s := Style{SeparatorAlign: "l", OverlayFontSize: 2}.withDefaults()
	if s.FontPath != DefaultFontPath || s.FontName != DefaultFontName {
		t.Errorf("unexpected font %s/%s", s.FontPath, s.FontName)
	}
	if s.SeparatorAlign != "L" || s.SeparatorFontSize != 12 {
		t.Errorf("unexpected separator style %+v", s)
	}
	if s.OverlayMinFontSize != 2 {
		t.Errorf("minimum overlay size must not exceed the base size, got %v", s.OverlayMinFontSize)
	}
	if got := (Style{SeparatorAlign: "X"}).withDefaults().SeparatorAlign; got != "C" {
		t.Errorf("expected fallback to C, got %s", got)
	}
}
