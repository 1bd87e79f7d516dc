package pdftext

import (
	"fmt"

	"github.com/ledongthuc/pdf"
)

// LedongthucBackend reads per-glyph text with ledongthuc/pdf. It copes with
// some files the tabula reader rejects and is used as a fallback.
type LedongthucBackend struct{}

func (LedongthucBackend) Name() string { return "ledongthuc" }

func (LedongthucBackend) Pages(path string) (pages []RawPage, err error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	// The library panics on malformed content streams.
	defer func() {
		if rec := recover(); rec != nil {
			pages = nil
			err = fmt.Errorf("failed to decode PDF content: %v", rec)
		}
	}()

	n := r.NumPage()
	pages = make([]RawPage, 0, n)
	for i := 1; i <= n; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, RawPage{Box: defaultBox})
			continue
		}

		content := p.Content()
		runs := make([]Run, 0, len(content.Text))
		for _, t := range content.Text {
			runs = append(runs, Run{
				Text:  t.S,
				X:     t.X,
				Y:     t.Y,
				Width: t.W,
				Size:  t.FontSize,
			})
		}
		pages = append(pages, RawPage{Box: inheritedMediaBox(p.V), Runs: runs})
	}
	return pages, nil
}

// inheritedMediaBox walks up the page tree until a MediaBox is found.
func inheritedMediaBox(v pdf.Value) Box {
	for node, depth := v, 0; !node.IsNull() && depth < 32; node, depth = node.Key("Parent"), depth+1 {
		mb := node.Key("MediaBox")
		if mb.Kind() != pdf.Array || mb.Len() < 4 {
			continue
		}
		vals := make([]float64, 4)
		for i := range vals {
			vals[i] = mb.Index(i).Float64()
		}
		return boxFrom(vals)
	}
	return defaultBox
}
