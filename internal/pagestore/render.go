package pagestore

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"codeberg.org/go-pdf/fpdf"
	"codeberg.org/go-pdf/fpdf/contrib/gofpdi"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/carden-code/wb-stickers/internal/errs"
)

// lineSpacing is the separator line height as a multiple of the font size.
const lineSpacing = 1.2

// Save renders the edited document, compacts and validates it, and writes
// it to out. The file at out is replaced only when every step succeeded.
func (s *Store) Save(out string) error {
	if len(s.refs) == 0 {
		return &errs.PersistenceError{Path: out, Err: errors.New("document has no pages")}
	}

	var raw bytes.Buffer
	if err := s.render(&raw); err != nil {
		return &errs.PersistenceError{Path: out, Err: fmt.Errorf("render: %w", err)}
	}

	var optimized bytes.Buffer
	if err := api.Optimize(bytes.NewReader(raw.Bytes()), &optimized, newConfig()); err != nil {
		return &errs.PersistenceError{Path: out, Err: fmt.Errorf("optimize: %w", err)}
	}
	if err := api.Validate(bytes.NewReader(optimized.Bytes()), newConfig()); err != nil {
		return &errs.PersistenceError{Path: out, Err: fmt.Errorf("validate: %w", err)}
	}
	n, err := api.PageCount(bytes.NewReader(optimized.Bytes()), newConfig())
	if err != nil {
		return &errs.PersistenceError{Path: out, Err: fmt.Errorf("page count: %w", err)}
	}
	if n != len(s.refs) {
		return &errs.PersistenceError{Path: out, Err: fmt.Errorf("rendered %d pages, expected %d", n, len(s.refs))}
	}

	if err := writeAtomic(out, optimized.Bytes()); err != nil {
		return &errs.PersistenceError{Path: out, Err: err}
	}
	s.logger.Info("document saved", "output", out, "pages", n, "bytes", optimized.Len())
	return nil
}

func (s *Store) render(w io.Writer) (err error) {
	// gofpdi panics on source streams it cannot parse.
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%v", rec)
		}
	}()

	pdf := fpdf.New("P", "pt", "", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.AddUTF8FontFromBytes(s.style.FontName, "", s.font)

	importer := gofpdi.NewImporter()
	rs := io.ReadSeeker(bytes.NewReader(s.data))
	templates := make(map[int]int)

	for _, ref := range s.refs {
		pdf.AddPageFormat("P", fpdf.SizeType{Wd: ref.Width, Ht: ref.Height})

		switch ref.Kind {
		case RefSource:
			tpl, ok := templates[ref.Source]
			if !ok {
				tpl = importer.ImportPageFromStream(pdf, &rs, ref.Source+1, "/MediaBox")
				templates[ref.Source] = tpl
			}
			importer.UseImportedTemplate(pdf, tpl, 0, 0, ref.Width, ref.Height)
		case RefSeparator:
			s.drawSeparator(pdf, ref)
		}

		for _, ov := range ref.Overlays {
			s.drawOverlay(pdf, ov)
		}
		if pdf.Err() {
			return pdf.Error()
		}
	}
	return pdf.Output(w)
}

func (s *Store) drawSeparator(pdf *fpdf.Fpdf, ref PageRef) {
	size := s.style.SeparatorFontSize
	m := s.style.Margin
	pdf.SetFont(s.style.FontName, "", size)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(m, m)
	pdf.MultiCell(ref.Width-2*m, size*lineSpacing, ref.Separator.Text, "", s.style.SeparatorAlign, false)
}

// drawOverlay blanks the overlay box and writes the text bottom-to-top,
// centred on the box. The font shrinks until the text fits the box height.
func (s *Store) drawOverlay(pdf *fpdf.Fpdf, ov Overlay) {
	r := ov.Rect
	pdf.SetFillColor(255, 255, 255)
	pdf.Rect(r.X0, r.Y0, r.Width(), r.Height(), "F")

	box := r.Expand(1)
	size := s.style.OverlayFontSize
	pdf.SetFont(s.style.FontName, "", size)
	for pdf.GetStringWidth(ov.Text) > box.Height() && size > s.style.OverlayMinFontSize {
		size = max(size-0.5, s.style.OverlayMinFontSize)
		pdf.SetFont(s.style.FontName, "", size)
	}

	cx := (box.X0 + box.X1) / 2
	cy := (box.Y0 + box.Y1) / 2
	tw := pdf.GetStringWidth(ov.Text)

	pdf.SetTextColor(0, 0, 0)
	pdf.TransformBegin()
	pdf.TransformRotate(90, cx, cy)
	pdf.Text(cx-tw/2, cy+size*0.35, ov.Text)
	pdf.TransformEnd()
}

// writeAtomic writes data to a temporary file next to path and renames it
// into place.
func writeAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	return nil
}
