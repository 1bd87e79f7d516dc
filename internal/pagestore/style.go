package pagestore

import (
	"fmt"
	"os"
	"strings"

	"codeberg.org/go-pdf/fpdf"

	"github.com/carden-code/wb-stickers/internal/errs"
)

const (
	DefaultFontPath = "/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf"
	DefaultFontName = "DejaVuSans"
)

// Style controls how separators and overlays are drawn.
type Style struct {
	FontPath string
	FontName string

	SeparatorFontSize float64
	SeparatorAlign    string // L, C or R
	Margin            float64

	OverlayFontSize    float64
	OverlayMinFontSize float64
}

// DefaultStyle returns the built-in style.
func DefaultStyle() Style {
	return Style{
		FontPath:           DefaultFontPath,
		FontName:           DefaultFontName,
		SeparatorFontSize:  12,
		SeparatorAlign:     "C",
		Margin:             0,
		OverlayFontSize:    6,
		OverlayMinFontSize: 3,
	}
}

func (s Style) withDefaults() Style {
	d := DefaultStyle()
	if s.FontPath == "" {
		s.FontPath = d.FontPath
	}
	if s.FontName == "" {
		s.FontName = d.FontName
	}
	if s.SeparatorFontSize <= 0 {
		s.SeparatorFontSize = d.SeparatorFontSize
	}
	switch strings.ToUpper(s.SeparatorAlign) {
	case "L", "C", "R":
		s.SeparatorAlign = strings.ToUpper(s.SeparatorAlign)
	default:
		s.SeparatorAlign = d.SeparatorAlign
	}
	if s.Margin < 0 {
		s.Margin = 0
	}
	if s.OverlayFontSize <= 0 {
		s.OverlayFontSize = d.OverlayFontSize
	}
	if s.OverlayMinFontSize <= 0 || s.OverlayMinFontSize > s.OverlayFontSize {
		s.OverlayMinFontSize = min(d.OverlayMinFontSize, s.OverlayFontSize)
	}
	return s
}

// loadFont reads a TrueType font and checks that fpdf can embed it.
func loadFont(path, name string) (font []byte, err error) {
	font, err = os.ReadFile(path)
	if err != nil {
		return nil, &errs.FontLoadError{Path: path, Err: err}
	}

	defer func() {
		if rec := recover(); rec != nil {
			font = nil
			err = &errs.FontLoadError{Path: path, Err: fmt.Errorf("%v", rec)}
		}
	}()

	probe := fpdf.New("P", "pt", "", "")
	probe.AddUTF8FontFromBytes(name, "", font)
	if probe.Err() {
		return nil, &errs.FontLoadError{Path: path, Err: probe.Error()}
	}
	return font, nil
}
