// Package reorder plans the output page sequence: sticker pages regrouped
// by article, each group preceded by a separator page.
package reorder

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/carden-code/wb-stickers/internal/errs"
	"github.com/carden-code/wb-stickers/internal/grouping"
	"github.com/carden-code/wb-stickers/internal/pageindex"
	"github.com/carden-code/wb-stickers/internal/pagestore"
)

// DefaultTemplate is the separator page text.
const DefaultTemplate = "Article: {article}\nCount: {count}"

// Store is the page-store surface the plan is applied to.
type Store interface {
	Reorder(indices []int) error
	InsertPage(at int, sep pagestore.Separator) error
	PageCount() int
}

// PlacedGroup is a group that contributed pages to the output.
type PlacedGroup struct {
	Article  string
	Count    int // distinct keys placed
	Pages    int // source pages placed
	Position int // index in Order where the group's pages start
}

// Plan is the computed output sequence.
type Plan struct {
	Order     []int // source page indices, separators excluded
	Groups    []PlacedGroup
	Missing   []string // keys without a page
	Leftovers []int    // source pages no key pointed at
	Template  string
}

// Options controls plan construction.
type Options struct {
	AppendLeftovers bool
	Template        string
	Logger          *slog.Logger
}

// Build lays out the pages of every group in group order. A key is placed
// once; a group whose keys all miss the index is left out. Build fails with
// an ExtractionError when no page at all could be matched.
func Build(groups []grouping.Group, ix *pageindex.Index, opts Options) (*Plan, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tmpl := opts.Template
	if tmpl == "" {
		tmpl = DefaultTemplate
	}

	plan := &Plan{Template: tmpl}
	placedKeys := make(map[string]bool)
	placedPages := make(map[int]bool)

	for _, g := range groups {
		pg := PlacedGroup{Article: g.Article, Position: len(plan.Order)}
		for _, key := range g.Keys {
			if placedKeys[key] {
				logger.Warn("key already placed, skipping", "key", key, "article", g.Article)
				continue
			}
			pages, ok := ix.Lookup(key)
			if !ok {
				logger.Warn("no sticker page for key", "key", key, "article", g.Article)
				plan.Missing = append(plan.Missing, key)
				continue
			}
			placedKeys[key] = true
			pg.Count++
			for _, p := range pages {
				plan.Order = append(plan.Order, p)
				placedPages[p] = true
				pg.Pages++
			}
		}
		if pg.Count == 0 {
			logger.Warn("article has no sticker pages, no separator added", "article", g.Article)
			continue
		}
		plan.Groups = append(plan.Groups, pg)
	}

	if len(plan.Order) == 0 {
		return nil, &errs.ExtractionError{Reason: "no sticker page matched any key"}
	}

	for p := 0; p < ix.Total; p++ {
		if !placedPages[p] {
			plan.Leftovers = append(plan.Leftovers, p)
		}
	}
	if opts.AppendLeftovers {
		plan.Order = append(plan.Order, plan.Leftovers...)
	} else if len(plan.Leftovers) > 0 {
		logger.Info("unmatched sticker pages dropped", "pages", len(plan.Leftovers))
	}
	return plan, nil
}

// Apply reorders the store and inserts one separator before each group.
// Positions are shifted by the separators already inserted.
func (p *Plan) Apply(store Store) error {
	if err := store.Reorder(p.Order); err != nil {
		return fmt.Errorf("failed to reorder pages: %w", err)
	}
	offset := 0
	for _, g := range p.Groups {
		at := min(g.Position+offset, store.PageCount())
		sep := pagestore.Separator{
			Article: g.Article,
			Count:   g.Count,
			Text:    SeparatorText(p.Template, g.Article, g.Count),
		}
		if err := store.InsertPage(at, sep); err != nil {
			return fmt.Errorf("failed to insert separator for %q: %w", g.Article, err)
		}
		offset++
	}
	return nil
}

// EntryKind tells source pages from separators.
type EntryKind int

const (
	EntrySource EntryKind = iota
	EntrySeparator
)

// Entry is one page of the planned output.
type Entry struct {
	Kind    EntryKind
	Source  int // source page, EntrySource only
	Article string
	Count   int
}

// Entries returns the planned output page by page.
func (p *Plan) Entries() []Entry {
	var ls listStore
	// listStore never fails.
	_ = p.Apply(&ls)
	return ls.entries
}

// SeparatorText fills the {article} and {count} placeholders of tmpl.
func SeparatorText(tmpl, article string, count int) string {
	return strings.NewReplacer("{article}", article, "{count}", strconv.Itoa(count)).Replace(tmpl)
}

// Marker is the text every separator page starts with: the template up to
// the {article} placeholder.
func Marker(tmpl string) string {
	if i := strings.Index(tmpl, "{article}"); i >= 0 {
		return strings.TrimSpace(tmpl[:i])
	}
	return strings.TrimSpace(tmpl)
}

// listStore applies a plan to a slice of entries.
type listStore struct {
	entries []Entry
}

func (s *listStore) Reorder(indices []int) error {
	s.entries = make([]Entry, len(indices))
	for i, idx := range indices {
		s.entries[i] = Entry{Kind: EntrySource, Source: idx}
	}
	return nil
}

func (s *listStore) InsertPage(at int, sep pagestore.Separator) error {
	e := Entry{Kind: EntrySeparator, Source: -1, Article: sep.Article, Count: sep.Count}
	s.entries = append(s.entries, Entry{})
	copy(s.entries[at+1:], s.entries[at:])
	s.entries[at] = e
	return nil
}

func (s *listStore) PageCount() int { return len(s.entries) }
