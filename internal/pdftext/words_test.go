package pdftext

import (
	"math"
	"testing"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func TestBuildPage(t *testing.T) {
	box := Box{0, 0, 200, 100}

	t.Run("splits on spaces and keeps lines", func(t *testing.T) {
		raw := RawPage{Box: box, Runs: []Run{
			{Text: "Hello world", X: 10, Y: 90, Width: 55, Size: 10},
			{Text: "next", X: 10, Y: 70, Width: 20, Size: 10},
		}}
		p := BuildPage(0, raw)
		if len(p.Words) != 3 {
			t.Fatalf("expected 3 words, got %d: %+v", len(p.Words), p.Words)
		}
		if p.Text() != "Hello world\nnext" {
			t.Errorf("unexpected text %q", p.Text())
		}
		if p.Width != 200 || p.Height != 100 {
			t.Errorf("unexpected size %vx%v", p.Width, p.Height)
		}
		w := p.Words[0]
		if !near(w.X0, 10) || !near(w.X1, 35) {
			t.Errorf("unexpected x range %v..%v", w.X0, w.X1)
		}
		// baseline at 10 from the top, ascent 8, descent 2
		if !near(w.Y0, 2) || !near(w.Y1, 12) {
			t.Errorf("unexpected y range %v..%v", w.Y0, w.Y1)
		}
	})

	t.Run("joins adjacent glyph runs", func(t *testing.T) {
		raw := RawPage{Box: box, Runs: []Run{
			{Text: "12", X: 10, Y: 50, Width: 10, Size: 10},
			{Text: "34", X: 20, Y: 50, Width: 10, Size: 10},
			{Text: "56", X: 40, Y: 50, Width: 10, Size: 10},
		}}
		p := BuildPage(0, raw)
		if p.Text() != "1234 56" {
			t.Errorf("unexpected text %q", p.Text())
		}
	})

	t.Run("offsets by the media box origin", func(t *testing.T) {
		raw := RawPage{Box: Box{50, 50, 250, 150}, Runs: []Run{
			{Text: "x", X: 60, Y: 140, Width: 5, Size: 10},
		}}
		p := BuildPage(2, raw)
		if p.Index != 2 {
			t.Errorf("unexpected index %d", p.Index)
		}
		if !near(p.Words[0].X0, 10) || !near(p.Words[0].Y0, 2) {
			t.Errorf("unexpected origin %v,%v", p.Words[0].X0, p.Words[0].Y0)
		}
	})

	t.Run("empty page", func(t *testing.T) {
		p := BuildPage(0, RawPage{Box: box})
		if len(p.Words) != 0 || p.Text() != "" {
			t.Errorf("expected empty page, got %+v", p)
		}
	})
}

func TestFind(t *testing.T) {
	raw := RawPage{Box: Box{0, 0, 200, 100}, Runs: []Run{
		{Text: "ABCWBX", X: 0, Y: 50, Width: 60, Size: 10},
		{Text: "wb", X: 100, Y: 20, Width: 20, Size: 10},
	}}
	p := BuildPage(0, raw)

	hits := p.Find("WB")
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if !near(hits[0].X0, 30) || !near(hits[0].X1, 50) {
		t.Errorf("unexpected first hit %+v", hits[0])
	}
	if !near(hits[1].X0, 100) || !near(hits[1].X1, 120) {
		t.Errorf("unexpected second hit %+v", hits[1])
	}
	if got := p.Find("zz"); len(got) != 0 {
		t.Errorf("expected no hits, got %v", got)
	}
	if got := p.Find(""); got != nil {
		t.Errorf("expected nil for empty needle, got %v", got)
	}
}

func TestSortedWords(t *testing.T) {
	raw := RawPage{Box: Box{0, 0, 200, 100}, Runs: []Run{
		{Text: "b", X: 50, Y: 50, Width: 5, Size: 10},
		{Text: "c", X: 10, Y: 20, Width: 5, Size: 10},
		{Text: "a", X: 10, Y: 50, Width: 5, Size: 10},
	}}
	p := BuildPage(0, raw)
	got := ""
	for _, w := range p.SortedWords() {
		got += w.Text
	}
	if got != "abc" {
		t.Errorf("expected abc, got %q", got)
	}
	if p.Words[0].Text != "b" {
		t.Error("SortedWords must not reorder the page")
	}
}

func TestRectExpand(t *testing.T) {
	r := Rect{10, 10, 20, 30}.Expand(1)
	if r != (Rect{9, 9, 21, 31}) {
		t.Errorf("unexpected rect %+v", r)
	}
	if r.Width() != 12 || r.Height() != 22 {
		t.Errorf("unexpected size %vx%v", r.Width(), r.Height())
	}
}
