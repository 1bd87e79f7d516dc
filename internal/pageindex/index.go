// Package pageindex maps the keys printed on sticker pages to page numbers.
package pageindex

import (
	"log/slog"
	"regexp"
	"unicode"
	"unicode/utf8"

	"github.com/carden-code/wb-stickers/internal/pdftext"
)

// Index maps keys to 0-based page indices of one document.
type Index struct {
	Pages map[string][]int
	Order []string // keys in order of first sighting
	Total int      // pages in the document
}

func newIndex(total int) *Index {
	return &Index{Pages: make(map[string][]int), Total: total}
}

func (ix *Index) add(key string, page int) {
	pages, ok := ix.Pages[key]
	if !ok {
		ix.Order = append(ix.Order, key)
	}
	for _, p := range pages {
		if p == page {
			return
		}
	}
	ix.Pages[key] = append(pages, page)
}

// Lookup returns the pages carrying key.
func (ix *Index) Lookup(key string) ([]int, bool) {
	pages, ok := ix.Pages[key]
	return pages, ok
}

// Keys returns the indexed keys in order of first sighting.
func (ix *Index) Keys() []string {
	out := make([]string, len(ix.Order))
	copy(out, ix.Order)
	return out
}

// Referenced reports whether any key points at page.
func (ix *Index) Referenced(page int) bool {
	for _, pages := range ix.Pages {
		for _, p := range pages {
			if p == page {
				return true
			}
		}
	}
	return false
}

// StickerKey derives a WB sticker key from page text: the last two
// standalone integers joined by a space.
func StickerKey(text string) (string, bool) {
	nums := integers(text)
	if len(nums) < 2 {
		return "", false
	}
	return nums[len(nums)-2] + " " + nums[len(nums)-1], true
}

// BuildStickerIndex indexes WB sticker pages by StickerKey. Pages without a
// key are skipped with a warning.
func BuildStickerIndex(pages []pdftext.Page, logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.Default()
	}
	ix := newIndex(len(pages))
	for _, p := range pages {
		key, ok := StickerKey(p.Text())
		if !ok {
			logger.Warn("sticker page has no key", "page", p.Index+1)
			continue
		}
		ix.add(key, p.Index)
	}
	return ix
}

var shipmentRe = regexp.MustCompile(`\d{6,}-\d{3,5}-\d`)

// ShipmentIDs returns every standalone shipment number in text.
func ShipmentIDs(text string) []string {
	var out []string
	for _, loc := range shipmentRe.FindAllStringIndex(text, -1) {
		if isWordBoundary(text, loc[0], loc[1]) {
			out = append(out, text[loc[0]:loc[1]])
		}
	}
	return out
}

// BuildShipmentIndex indexes Ozon ticket pages by every shipment number they
// carry.
func BuildShipmentIndex(pages []pdftext.Page, logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.Default()
	}
	ix := newIndex(len(pages))
	for _, p := range pages {
		ids := ShipmentIDs(p.Text())
		if len(ids) == 0 {
			logger.Warn("ticket page has no shipment number", "page", p.Index+1)
		}
		for _, id := range ids {
			ix.add(id, p.Index)
		}
	}
	return ix
}

// integers returns the maximal digit runs of text that are not glued to a
// letter, digit or underscore.
func integers(text string) []string {
	var out []string
	start := -1
	for i, r := range text {
		if unicode.IsDigit(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			if isWordBoundary(text, start, i) {
				out = append(out, text[start:i])
			}
			start = -1
		}
	}
	if start >= 0 && isWordBoundary(text, start, len(text)) {
		out = append(out, text[start:])
	}
	return out
}

func isWordBoundary(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if isWordRune(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}

