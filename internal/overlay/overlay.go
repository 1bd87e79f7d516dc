// Package overlay writes article labels over the marketplace placeholder
// printed on WB stickers.
package overlay

import (
	"log/slog"
	"strings"

	"github.com/carden-code/wb-stickers/internal/pageindex"
	"github.com/carden-code/wb-stickers/internal/pagestore"
	"github.com/carden-code/wb-stickers/internal/pdftext"
)

const (
	DefaultPlaceholder      = "WB"
	DefaultMaxArticleLength = 50
	ellipsis                = "..."
)

// Store is the page-store surface overlays are attached through.
type Store interface {
	Refs() []pagestore.PageRef
	Annotate(page int, ov pagestore.Overlay) error
}

// Engine places article labels on sticker pages.
type Engine struct {
	Placeholder string
	MaxLength   int
	// Marker identifies separator text; pages containing it are left alone.
	Marker string
	Logger *slog.Logger
}

// Stats counts what Apply did.
type Stats struct {
	Pages    int // pages annotated
	Overlays int // placeholder occurrences covered
}

// Apply annotates every source page of store. sources holds the text layer
// of the source document, indexed by source page.
func (e *Engine) Apply(store Store, sources []pdftext.Page, keyToArticle map[string]string) (Stats, error) {
	logger := e.Logger
	if logger == nil {
		logger = slog.Default()
	}
	placeholder := e.Placeholder
	if placeholder == "" {
		placeholder = DefaultPlaceholder
	}
	maxLen := e.MaxLength
	if maxLen <= 0 {
		maxLen = DefaultMaxArticleLength
	}

	var stats Stats
	for i, ref := range store.Refs() {
		if ref.Kind != pagestore.RefSource || ref.Source < 0 || ref.Source >= len(sources) {
			continue
		}
		page := sources[ref.Source]
		if e.Marker != "" && strings.Contains(page.Text(), e.Marker) {
			continue
		}

		key, ok := pageindex.StickerKey(page.Text())
		if !ok {
			continue
		}
		article, ok := keyToArticle[key]
		if !ok || article == "" {
			logger.Warn("no article for sticker", "key", key, "page", i+1)
			continue
		}

		hits := page.Find(placeholder)
		if len(hits) == 0 {
			logger.Warn("placeholder not found on sticker", "placeholder", placeholder, "key", key, "page", i+1)
			continue
		}

		label := Truncate(article, maxLen)
		for _, r := range hits {
			if err := store.Annotate(i, pagestore.Overlay{Rect: r, Text: label}); err != nil {
				return stats, err
			}
			stats.Overlays++
		}
		stats.Pages++
	}
	return stats, nil
}

// Truncate shortens s to n characters followed by an ellipsis.
func Truncate(s string, n int) string {
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[:n]) + ellipsis
}
