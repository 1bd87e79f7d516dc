package config

import (
	"time"
)

// Config holds stickers configuration.
// Stored at: ./config.yaml or {home}/config.yaml
type Config struct {
	Font      FontCfg      `mapstructure:"font" yaml:"font"`
	Separator SeparatorCfg `mapstructure:"separator" yaml:"separator"`
	Overlay   OverlayCfg   `mapstructure:"overlay" yaml:"overlay"`
	Manifest  ManifestCfg  `mapstructure:"manifest" yaml:"manifest"`
	Assembly  AssemblyCfg  `mapstructure:"assembly" yaml:"assembly"`
	Text      TextCfg      `mapstructure:"text" yaml:"text"`
	WB        VariantCfg   `mapstructure:"wb" yaml:"wb"`
	Ozon      VariantCfg   `mapstructure:"ozon" yaml:"ozon"`
	Watch     WatchCfg     `mapstructure:"watch" yaml:"watch"`
	Log       LogCfg       `mapstructure:"log" yaml:"log"`
}

// FontCfg selects the TrueType font used for separators and labels.
type FontCfg struct {
	Path string `mapstructure:"path" yaml:"path"`
	Name string `mapstructure:"name" yaml:"name"` // embedding name
}

// SeparatorCfg configures separator pages.
type SeparatorCfg struct {
	Template string  `mapstructure:"template" yaml:"template"` // {article} and {count} placeholders
	FontSize float64 `mapstructure:"font_size" yaml:"font_size"`
	Margin   float64 `mapstructure:"margin" yaml:"margin"`
}

// OverlayCfg configures WB article labels.
type OverlayCfg struct {
	Placeholder      string  `mapstructure:"placeholder" yaml:"placeholder"`
	MaxArticleLength int     `mapstructure:"max_article_length" yaml:"max_article_length"`
	FontSize         float64 `mapstructure:"font_size" yaml:"font_size"`
	MinFontSize      float64 `mapstructure:"min_font_size" yaml:"min_font_size"`
}

// ManifestCfg configures manifest reading.
type ManifestCfg struct {
	HeaderRows int `mapstructure:"header_rows" yaml:"header_rows"`
}

// AssemblyCfg configures Ozon assembly list reading.
type AssemblyCfg struct {
	BandTolerance float64 `mapstructure:"band_tolerance" yaml:"band_tolerance"` // points
}

// TextCfg configures PDF text extraction.
type TextCfg struct {
	Backends []string `mapstructure:"backends" yaml:"backends"` // tried in order
}

// VariantCfg holds the per-marketplace switches.
type VariantCfg struct {
	Order           string `mapstructure:"order" yaml:"order"` // first-appearance or lexicographic
	AppendLeftovers bool   `mapstructure:"append_leftovers" yaml:"append_leftovers"`
	Align           string `mapstructure:"align" yaml:"align"` // separator text alignment: L, C or R
}

// WatchCfg configures the hot-folder runner.
type WatchCfg struct {
	Workers        int           `mapstructure:"workers" yaml:"workers"`
	QueueSize      int           `mapstructure:"queue_size" yaml:"queue_size"`
	JobTimeout     time.Duration `mapstructure:"job_timeout" yaml:"job_timeout"`
	SettleAttempts uint          `mapstructure:"settle_attempts" yaml:"settle_attempts"`
	SettleDelay    time.Duration `mapstructure:"settle_delay" yaml:"settle_delay"`
}

// LogCfg configures logging.
type LogCfg struct {
	Level string `mapstructure:"level" yaml:"level"` // debug, info, warn, error
}
