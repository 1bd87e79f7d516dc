package pdftext

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

const (
	// ascent and descent approximate a glyph box from its baseline and size.
	ascent  = 0.8
	descent = 0.2

	// wordGap is the horizontal gap (in font-size units) that splits words.
	wordGap = 0.2

	// lineShift is the baseline shift (in font-size units) that starts a new line.
	lineShift = 0.5

	minFontSize = 1.0
)

// Rect is an axis-aligned box in page space: origin top-left, y grows down.
type Rect struct {
	X0, Y0, X1, Y1 float64
}

// Width returns the rectangle width.
func (r Rect) Width() float64 { return r.X1 - r.X0 }

// Height returns the rectangle height.
func (r Rect) Height() float64 { return r.Y1 - r.Y0 }

// Expand grows the rectangle by d on every side.
func (r Rect) Expand(d float64) Rect {
	return Rect{r.X0 - d, r.Y0 - d, r.X1 + d, r.Y1 + d}
}

// Word is a whitespace-free token with its box in page space.
type Word struct {
	Text string
	Rect
	Size float64

	// edges holds the left edge of every rune plus the right edge of the last.
	edges []float64
}

// Page is the text layer of a single PDF page.
type Page struct {
	Index  int // 0-based
	Width  float64
	Height float64
	Words  []Word // content-stream order
	text   string
}

// Text returns the page text in content-stream order, words separated by
// spaces and lines by newlines.
func (p *Page) Text() string { return p.text }

// SortedWords returns the words ordered top-to-bottom, then left-to-right.
func (p *Page) SortedWords() []Word {
	out := make([]Word, len(p.Words))
	copy(out, p.Words)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Y0 != out[j].Y0 {
			return out[i].Y0 < out[j].Y0
		}
		return out[i].X0 < out[j].X0
	})
	return out
}

// Find returns the box of every case-insensitive occurrence of needle inside
// a word on the page.
func (p *Page) Find(needle string) []Rect {
	target := []rune(needle)
	if len(target) == 0 {
		return nil
	}
	var hits []Rect
	for _, w := range p.Words {
		rs := []rune(w.Text)
		for i := 0; i+len(target) <= len(rs); i++ {
			if !strings.EqualFold(string(rs[i:i+len(target)]), needle) {
				continue
			}
			hits = append(hits, Rect{
				X0: w.edges[i],
				Y0: w.Y0,
				X1: w.edges[i+len(target)],
				Y1: w.Y1,
			})
		}
	}
	return hits
}

// BuildPage segments the runs of a raw page into words.
func BuildPage(index int, raw RawPage) Page {
	b := &wordBuilder{box: raw.Box}
	for _, run := range raw.Runs {
		b.add(run)
	}
	b.flush()
	return Page{
		Index:  index,
		Width:  raw.Box.Width(),
		Height: raw.Box.Height(),
		Words:  b.words,
		text:   b.text.String(),
	}
}

type wordBuilder struct {
	box   Box
	words []Word
	text  strings.Builder

	// current word
	runes []rune
	edges []float64
	base  float64
	size  float64
	open  bool

	// baseline of the last emitted word, for line detection
	lastBase float64
	lastSize float64
	emitted  bool
}

func (b *wordBuilder) add(run Run) {
	rs := []rune(run.Text)
	if len(rs) == 0 {
		return
	}
	size := math.Max(run.Size, minFontSize)
	adv := run.Width / float64(len(rs))
	if adv <= 0 {
		adv = size * 0.5
	}
	x := run.X - b.box.LLX
	base := b.box.URY - run.Y

	if b.open {
		end := b.edges[len(b.edges)-1]
		switch {
		case math.Abs(base-b.base) > size*lineShift:
			b.flush()
		case x-end > size*wordGap:
			b.flush()
		case x < b.edges[0]-size:
			b.flush()
		}
	}

	for i, r := range rs {
		x0 := x + float64(i)*adv
		if unicode.IsSpace(r) {
			b.flush()
			continue
		}
		if !b.open {
			b.open = true
			b.base = base
			b.size = size
			b.edges = append(b.edges[:0], x0)
		}
		b.runes = append(b.runes, r)
		b.edges = append(b.edges, x0+adv)
		if size > b.size {
			b.size = size
		}
	}
}

func (b *wordBuilder) flush() {
	if !b.open {
		return
	}
	b.open = false
	if len(b.runes) == 0 {
		return
	}

	text := string(b.runes)
	if b.emitted {
		if math.Abs(b.base-b.lastBase) > math.Min(b.size, b.lastSize)*lineShift {
			b.text.WriteByte('\n')
		} else {
			b.text.WriteByte(' ')
		}
	}
	b.text.WriteString(text)

	edges := make([]float64, len(b.edges))
	copy(edges, b.edges)
	b.words = append(b.words, Word{
		Text: text,
		Rect: Rect{
			X0: edges[0],
			Y0: b.base - ascent*b.size,
			X1: edges[len(edges)-1],
			Y1: b.base + descent*b.size,
		},
		Size:  b.size,
		edges: edges,
	})

	b.emitted = true
	b.lastBase = b.base
	b.lastSize = b.size
	b.runes = b.runes[:0]
}
