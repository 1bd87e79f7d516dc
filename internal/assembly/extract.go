package assembly

import (
	"log/slog"
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/carden-code/wb-stickers/internal/pdftext"
)

// Sentinel is the article recorded for a shipment whose article could not
// be read.
const Sentinel = "—"

// DefaultBandTolerance is the vertical distance, in points, within which an
// article word belongs to a shipment row.
const DefaultBandTolerance = 12.0

var (
	shipmentRe = regexp.MustCompile(`^\d{6,}-\d{3,5}-\d$`)

	spaceBeforeClose = regexp.MustCompile(`\s+([,.)»”])`)
	spaceAfterOpen   = regexp.MustCompile(`([«“(])\s+`)
	multiSpace       = regexp.MustCompile(`\s{2,}`)
)

// IsShipmentID reports whether s is a complete shipment number.
func IsShipmentID(s string) bool {
	return shipmentRe.MatchString(s)
}

// Articles is the result of reading an assembly list.
type Articles struct {
	// Order lists shipment ids as they appear, duplicates included.
	Order []string
	// ByShipment maps a shipment id to its article. A later occurrence
	// overwrites an earlier one.
	ByShipment map[string]string
}

// Article returns the article for id, or Sentinel when unknown.
func (a *Articles) Article(id string) string {
	if art, ok := a.ByShipment[id]; ok {
		return art
	}
	return Sentinel
}

// Extractor pulls shipment/article pairs out of assembly list pages.
type Extractor struct {
	BandTolerance float64
	Logger        *slog.Logger
}

// Extract reads every page. Columns are detected on the first page and
// reused for the rest.
func (e *Extractor) Extract(pages []pdftext.Page) *Articles {
	logger := e.Logger
	if logger == nil {
		logger = slog.Default()
	}
	band := e.BandTolerance
	if band <= 0 {
		band = DefaultBandTolerance
	}

	out := &Articles{ByShipment: make(map[string]string)}
	if len(pages) == 0 {
		return out
	}

	layout := DetectColumns(pages[0])
	if missing := layout.Missing(); len(missing) > 0 {
		logger.Warn("assembly header columns not found", "columns", missing)
	}
	left, right, _ := layout.Bounds(ColArticle)

	for _, page := range pages {
		words := page.SortedWords()

		var artWords []pdftext.Word
		for _, w := range words {
			if left <= w.X0 && w.X0 < right && strings.TrimSpace(w.Text) != "" {
				artWords = append(artWords, w)
			}
		}

		for _, w := range words {
			id := strings.TrimSpace(w.Text)
			if !IsShipmentID(id) {
				continue
			}
			out.Order = append(out.Order, id)

			text := articleInBand(artWords, w.Y0, band)
			if utf8.RuneCountInString(text) <= 2 {
				logger.Warn("article not readable for shipment", "shipment", id, "page", page.Index+1)
				text = Sentinel
			}
			out.ByShipment[id] = text
		}
	}
	return out
}

// articleInBand joins the article words within tol of y. Words are grouped
// into lines by their rounded top edge; lines are read top to bottom and
// words left to right.
func articleInBand(words []pdftext.Word, y, tol float64) string {
	lines := make(map[float64][]pdftext.Word)
	for _, w := range words {
		if math.Abs(w.Y0-y) <= tol {
			key := math.Round(w.Y0*10) / 10
			lines[key] = append(lines[key], w)
		}
	}
	if len(lines) == 0 {
		return ""
	}

	keys := make([]float64, 0, len(lines))
	for k := range lines {
		keys = append(keys, k)
	}
	sort.Float64s(keys)

	var tokens []string
	for _, k := range keys {
		line := lines[k]
		sort.SliceStable(line, func(i, j int) bool {
			if line[i].X0 != line[j].X0 {
				return line[i].X0 < line[j].X0
			}
			return line[i].Y0 < line[j].Y0
		})
		for _, w := range line {
			if t := strings.TrimSpace(w.Text); t != "" {
				tokens = append(tokens, t)
			}
		}
	}
	return Normalize(strings.Join(tokens, " "))
}

// Normalize removes whitespace artefacts left by joining words: spaces
// before closing punctuation, spaces after opening brackets and quotes, and
// repeated spaces.
func Normalize(s string) string {
	s = spaceBeforeClose.ReplaceAllString(s, "$1")
	s = spaceAfterOpen.ReplaceAllString(s, "$1")
	s = multiSpace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
