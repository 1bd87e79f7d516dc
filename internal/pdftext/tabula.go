package pdftext

import (
	"fmt"

	"github.com/tsawler/tabula/reader"
)

// TabulaBackend reads text fragments with the tabula PDF reader.
type TabulaBackend struct{}

func (TabulaBackend) Name() string { return "tabula" }

func (TabulaBackend) Pages(path string) ([]RawPage, error) {
	r, err := reader.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer r.Close()

	n, err := r.PageCount()
	if err != nil {
		return nil, fmt.Errorf("failed to get page count: %w", err)
	}

	pages := make([]RawPage, 0, n)
	for i := 0; i < n; i++ {
		p, err := r.GetPage(i)
		if err != nil {
			return nil, fmt.Errorf("failed to load page %d: %w", i+1, err)
		}

		box := defaultBox
		if mb, err := p.MediaBox(); err == nil {
			box = boxFrom(mb)
		}

		frags, err := r.ExtractTextFragments(p)
		if err != nil {
			return nil, fmt.Errorf("failed to extract text from page %d: %w", i+1, err)
		}

		runs := make([]Run, 0, len(frags))
		for _, f := range frags {
			runs = append(runs, Run{
				Text:  f.Text,
				X:     f.X,
				Y:     f.Y,
				Width: f.Width,
				Size:  f.FontSize,
			})
		}
		pages = append(pages, RawPage{Box: box, Runs: runs})
	}
	return pages, nil
}
