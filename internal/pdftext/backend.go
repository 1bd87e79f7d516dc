// Package pdftext turns PDF pages into positioned words.
//
// Backends only decode content streams into text runs in PDF user space
// (origin bottom-left). Word segmentation, reading-order text and substring
// location are done here, once, for every backend.
package pdftext

// Run is a piece of text shown by a single text operator.
type Run struct {
	Text  string
	X, Y  float64 // baseline origin, user space
	Width float64
	Size  float64
}

// Box is a page's MediaBox in user space.
type Box struct {
	LLX, LLY, URX, URY float64
}

// Width returns the box width.
func (b Box) Width() float64 { return b.URX - b.LLX }

// Height returns the box height.
func (b Box) Height() float64 { return b.URY - b.LLY }

// defaultBox is US Letter, used when a page carries no usable MediaBox.
var defaultBox = Box{0, 0, 612, 792}

// RawPage is what a backend returns for one page.
type RawPage struct {
	Box  Box
	Runs []Run
}

// Backend decodes every page of a PDF file into text runs.
type Backend interface {
	Name() string
	Pages(path string) ([]RawPage, error)
}

func boxFrom(v []float64) Box {
	if len(v) < 4 {
		return defaultBox
	}
	b := Box{v[0], v[1], v[2], v[3]}
	if b.Width() <= 0 || b.Height() <= 0 {
		return defaultBox
	}
	return b
}
