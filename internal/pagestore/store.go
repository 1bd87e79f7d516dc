// Package pagestore holds a PDF document as an editable sequence of page
// references. Source pages can be reordered and duplicated, separator pages
// inserted and overlays attached; nothing is rendered until Save.
package pagestore

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/carden-code/wb-stickers/internal/errs"
	"github.com/carden-code/wb-stickers/internal/pdftext"
)

func init() {
	api.DisableConfigDir()
}

// RefKind tells source pages from synthesized ones.
type RefKind int

const (
	RefSource RefKind = iota
	RefSeparator
)

func (k RefKind) String() string {
	if k == RefSeparator {
		return "separator"
	}
	return "source"
}

// Separator is the content of a synthesized separator page.
type Separator struct {
	Article string
	Count   int
	Text    string
}

// Overlay covers Rect with an opaque white box and writes Text into it,
// rotated 90 degrees. Rect is in page space, origin top-left.
type Overlay struct {
	Rect pdftext.Rect
	Text string
}

// PageRef is one page of the edited document.
type PageRef struct {
	Kind      RefKind
	Source    int // 0-based source page, RefSource only
	Separator *Separator
	Overlays  []Overlay
	Width     float64
	Height    float64
}

// Store is an editable view over a source PDF.
type Store struct {
	path   string
	data   []byte
	dims   [][2]float64
	refs   []PageRef
	font   []byte
	style  Style
	logger *slog.Logger
}

func newConfig() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// Open reads and validates the PDF at path and loads the annotation font.
func Open(path string, style Style, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	style = style.withDefaults()

	if err := errs.CheckReadable(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &errs.ResourceNotFoundError{Path: path, Err: err}
	}

	ctx, err := api.ReadContext(bytes.NewReader(data), newConfig())
	if err != nil {
		return nil, &errs.FormatError{Path: path, Reason: "not a readable PDF", Err: err}
	}
	if err := api.ValidateContext(ctx); err != nil {
		return nil, &errs.FormatError{Path: path, Reason: "invalid PDF", Err: err}
	}
	pageDims, err := ctx.PageDims()
	if err != nil {
		return nil, &errs.FormatError{Path: path, Reason: "failed to read page sizes", Err: err}
	}
	if len(pageDims) == 0 {
		return nil, &errs.FormatError{Path: path, Reason: "document has no pages"}
	}

	font, err := loadFont(style.FontPath, style.FontName)
	if err != nil {
		return nil, err
	}

	s := &Store{
		path:   path,
		data:   data,
		dims:   make([][2]float64, len(pageDims)),
		refs:   make([]PageRef, len(pageDims)),
		font:   font,
		style:  style,
		logger: logger.With("document", path),
	}
	for i, d := range pageDims {
		s.dims[i] = [2]float64{d.Width, d.Height}
		s.refs[i] = PageRef{Kind: RefSource, Source: i, Width: d.Width, Height: d.Height}
	}
	s.logger.Debug("document opened", "pages", len(s.refs))
	return s, nil
}

// Close releases the source document.
func (s *Store) Close() error {
	s.data = nil
	s.refs = nil
	s.font = nil
	return nil
}

// PageCount returns the number of pages in the edited document.
func (s *Store) PageCount() int { return len(s.refs) }

// SourcePageCount returns the number of pages in the source document.
func (s *Store) SourcePageCount() int { return len(s.dims) }

// Refs returns a copy of the page sequence.
func (s *Store) Refs() []PageRef {
	out := make([]PageRef, len(s.refs))
	for i, r := range s.refs {
		out[i] = r
		out[i].Overlays = append([]Overlay(nil), r.Overlays...)
	}
	return out
}

// Reorder replaces the page sequence with the pages at indices of the
// current sequence. Indices may repeat.
func (s *Store) Reorder(indices []int) error {
	refs := make([]PageRef, 0, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= len(s.refs) {
			return fmt.Errorf("page index %d out of range [0, %d)", idx, len(s.refs))
		}
		r := s.refs[idx]
		r.Overlays = append([]Overlay(nil), r.Overlays...)
		refs = append(refs, r)
	}
	s.refs = refs
	return nil
}

// InsertPage inserts a separator page before position at. The page takes the
// size of the first page of the document.
func (s *Store) InsertPage(at int, sep Separator) error {
	if at < 0 || at > len(s.refs) {
		return fmt.Errorf("insert position %d out of range [0, %d]", at, len(s.refs))
	}
	w, h := s.dims[0][0], s.dims[0][1]
	if len(s.refs) > 0 {
		w, h = s.refs[0].Width, s.refs[0].Height
	}
	ref := PageRef{Kind: RefSeparator, Source: -1, Separator: &sep, Width: w, Height: h}

	s.refs = append(s.refs, PageRef{})
	copy(s.refs[at+1:], s.refs[at:])
	s.refs[at] = ref
	return nil
}

// Annotate attaches an overlay to a page of the edited document.
func (s *Store) Annotate(page int, ov Overlay) error {
	if page < 0 || page >= len(s.refs) {
		return fmt.Errorf("page index %d out of range [0, %d)", page, len(s.refs))
	}
	s.refs[page].Overlays = append(s.refs[page].Overlays, ov)
	return nil
}
