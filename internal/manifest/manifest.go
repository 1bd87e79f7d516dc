// Package manifest loads the order manifest: one row per ordered item,
// eight positional columns, the last two of which (article and sticker key)
// join the manifest to the sticker document.
package manifest

import (
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/carden-code/wb-stickers/internal/errs"
)

// Columns is the number of positional columns a manifest row must carry.
const Columns = 8

// Record is one manifest row.
type Record struct {
	Row        int // 0-based row in the source sheet
	TaskID     string
	Photo      string
	Brand      string
	Name       string
	Size       string
	Color      string
	Article    string
	StickerKey string
}

// ArticleKeys is an article with its sticker keys in manifest order.
type ArticleKeys struct {
	Article string
	Keys    []string
}

// Manifest is the parsed manifest.
type Manifest struct {
	Path    string
	Records []Record
}

// KeyToArticle maps each sticker key to its article. A key listed on
// several rows resolves to the last of them.
func (m *Manifest) KeyToArticle() map[string]string {
	out := make(map[string]string, len(m.Records))
	for _, r := range m.Records {
		out[r.StickerKey] = r.Article
	}
	return out
}

// ByArticle groups sticker keys by article. Articles and keys keep the order
// in which they first appear.
func (m *Manifest) ByArticle() []ArticleKeys {
	var out []ArticleKeys
	index := make(map[string]int)
	for _, r := range m.Records {
		i, ok := index[r.Article]
		if !ok {
			i = len(out)
			index[r.Article] = i
			out = append(out, ArticleKeys{Article: r.Article})
		}
		out[i].Keys = append(out[i].Keys, r.StickerKey)
	}
	return out
}

// Options controls how a manifest is read.
type Options struct {
	// HeaderRows is the number of leading rows skipped before data.
	HeaderRows int
	Logger     *slog.Logger
}

// DefaultOptions skips a single header row.
func DefaultOptions() Options {
	return Options{HeaderRows: 1}
}

// Load reads the manifest at path. The format is chosen by extension.
func Load(path string, opts Options) (*Manifest, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("manifest", path)

	if err := errs.CheckReadable(path); err != nil {
		return nil, err
	}

	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		rows, err = readXLSX(path)
	case ".csv":
		rows, err = readCSV(path)
	default:
		return nil, &errs.FormatError{Path: path, Reason: "unsupported manifest type " + filepath.Ext(path)}
	}
	if err != nil {
		return nil, &errs.FormatError{Path: path, Reason: "failed to read rows", Err: err}
	}

	return parseRows(path, rows, opts.HeaderRows, logger)
}

func parseRows(path string, rows [][]string, headerRows int, logger *slog.Logger) (*Manifest, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if headerRows < 0 {
		headerRows = 0
	}

	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	if width < Columns {
		return nil, &errs.FormatError{
			Path:   path,
			Reason: "expected " + strconv.Itoa(Columns) + " columns, found " + strconv.Itoa(width),
		}
	}

	m := &Manifest{Path: path}
	for i := headerRows; i < len(rows); i++ {
		row := rows[i]
		if blank(row) {
			continue
		}
		cell := func(c int) string {
			if c < len(row) {
				return strings.TrimSpace(row[c])
			}
			return ""
		}
		rec := Record{
			Row:        i,
			TaskID:     cell(0),
			Photo:      cell(1),
			Brand:      cell(2),
			Name:       cell(3),
			Size:       cell(4),
			Color:      cell(5),
			Article:    cell(6),
			StickerKey: normalizeKey(cell(7)),
		}
		if rec.Article == "" || rec.StickerKey == "" {
			logger.Warn("skipping row without article or sticker key", "row", i+1)
			continue
		}
		m.Records = append(m.Records, rec)
	}

	if len(m.Records) == 0 {
		return nil, &errs.FormatError{Path: path, Reason: "no row carries both an article and a sticker key"}
	}
	logger.Debug("manifest loaded", "records", len(m.Records))
	return m, nil
}

// normalizeKey renders numeric cells without a trailing fraction so that
// "123456.0" and "123456" are the same key.
func normalizeKey(s string) string {
	if strings.HasSuffix(s, ".0") {
		if _, err := strconv.ParseInt(strings.TrimSuffix(s, ".0"), 10, 64); err == nil {
			return strings.TrimSuffix(s, ".0")
		}
	}
	if strings.ContainsAny(s, "eE") {
		if f, err := strconv.ParseFloat(s, 64); err == nil && f == float64(int64(f)) {
			return strconv.FormatInt(int64(f), 10)
		}
	}
	return s
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
