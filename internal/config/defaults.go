package config

import (
	"errors"
)

// ErrNoDefault is returned when no default value exists for a config key.
var ErrNoDefault = errors.New("no default exists")

// Entry is a single configuration key with its value and description.
type Entry struct {
	Key         string `json:"key" yaml:"key"`
	Value       any    `json:"value" yaml:"value"`
	Description string `json:"description" yaml:"description"`
}

// DefaultEntries returns the default configuration entries, in the order
// they are written to a new config file.
func DefaultEntries() []Entry {
	return []Entry{
		// ===================
		// Fonts
		// ===================
		{
			Key:         "font.path",
			Value:       "/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
			Description: "TrueType font for separator pages and article labels",
		},
		{
			Key:         "font.name",
			Value:       "DejaVuSans",
			Description: "Name the font is embedded under",
		},

		// ===================
		// Separator pages
		// ===================
		{
			Key:         "separator.template",
			Value:       "Article: {article}\nCount: {count}",
			Description: "Separator text; {article} and {count} are substituted",
		},
		{
			Key:         "separator.font_size",
			Value:       12.0,
			Description: "Separator font size in points",
		},
		{
			Key:         "separator.margin",
			Value:       0.0,
			Description: "Separator text margin in points",
		},

		// ===================
		// WB article labels
		// ===================
		{
			Key:         "overlay.placeholder",
			Value:       "WB",
			Description: "Text on WB stickers that is replaced by the article",
		},
		{
			Key:         "overlay.max_article_length",
			Value:       50,
			Description: "Articles longer than this are truncated with an ellipsis",
		},
		{
			Key:         "overlay.font_size",
			Value:       6.0,
			Description: "Label font size in points",
		},
		{
			Key:         "overlay.min_font_size",
			Value:       3.0,
			Description: "Smallest font size a label is shrunk to",
		},

		// ===================
		// Inputs
		// ===================
		{
			Key:         "manifest.header_rows",
			Value:       1,
			Description: "Leading manifest rows skipped before data",
		},
		{
			Key:         "assembly.band_tolerance",
			Value:       12.0,
			Description: "Vertical distance in points between a shipment number and its article text",
		},
		{
			Key:         "text.backends",
			Value:       []string{"tabula", "ledongthuc"},
			Description: "PDF text backends, tried in order",
		},

		// ===================
		// Marketplaces
		// ===================
		{
			Key:         "wb.order",
			Value:       "first-appearance",
			Description: "WB group order: first-appearance or lexicographic",
		},
		{
			Key:         "wb.append_leftovers",
			Value:       false,
			Description: "Append WB stickers no manifest row points at",
		},
		{
			Key:         "wb.align",
			Value:       "C",
			Description: "WB separator text alignment: L, C or R",
		},
		{
			Key:         "ozon.order",
			Value:       "lexicographic",
			Description: "Ozon group order: first-appearance or lexicographic",
		},
		{
			Key:         "ozon.append_leftovers",
			Value:       true,
			Description: "Append Ozon tickets no shipment points at",
		},
		{
			Key:         "ozon.align",
			Value:       "L",
			Description: "Ozon separator text alignment: L, C or R",
		},

		// ===================
		// Hot folder
		// ===================
		{
			Key:         "watch.workers",
			Value:       2,
			Description: "Jobs processed concurrently",
		},
		{
			Key:         "watch.queue_size",
			Value:       32,
			Description: "Jobs queued before new ones are rejected",
		},
		{
			Key:         "watch.job_timeout",
			Value:       "5m",
			Description: "Time after which a job is reported as failed",
		},
		{
			Key:         "watch.settle_attempts",
			Value:       10,
			Description: "Checks for a dropped file to stop growing",
		},
		{
			Key:         "watch.settle_delay",
			Value:       "500ms",
			Description: "Delay between settle checks",
		},

		// ===================
		// Logging
		// ===================
		{
			Key:         "log.level",
			Value:       "info",
			Description: "Log level: debug, info, warn or error",
		},
	}
}

// GetDefault returns the default entry for a config key.
// Returns nil if no default exists for the key.
func GetDefault(key string) *Entry {
	for _, entry := range DefaultEntries() {
		if entry.Key == key {
			return &entry
		}
	}
	return nil
}
