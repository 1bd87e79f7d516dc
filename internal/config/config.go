package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"

	"github.com/carden-code/wb-stickers/internal/grouping"
	"github.com/carden-code/wb-stickers/internal/pagestore"
	"github.com/carden-code/wb-stickers/internal/pipeline"
)

// Manager handles loading and hot-reloading configuration.
type Manager struct {
	mu        sync.RWMutex
	v         *viper.Viper
	config    *Config
	callbacks []func(*Config)
}

// NewManager creates a new config manager and loads initial config.
// searchDir is an extra directory searched for config.yaml when cfgFile is
// empty (normally the home directory).
func NewManager(cfgFile, searchDir string) (*Manager, error) {
	cm := &Manager{
		v:         viper.New(),
		callbacks: make([]func(*Config), 0),
	}

	if err := cm.initViper(cfgFile, searchDir); err != nil {
		return nil, err
	}

	cfg, err := cm.load()
	if err != nil {
		return nil, err
	}
	cm.config = cfg

	return cm, nil
}

// initViper sets up viper with defaults and config file.
func (cm *Manager) initViper(cfgFile, searchDir string) error {
	for _, e := range DefaultEntries() {
		cm.v.SetDefault(e.Key, e.Value)
	}

	// Environment variables with STICKERS_ prefix, e.g. STICKERS_FONT_PATH
	cm.v.SetEnvPrefix("STICKERS")
	cm.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cm.v.AutomaticEnv()

	// Config file
	if cfgFile != "" {
		cm.v.SetConfigFile(cfgFile)
	} else {
		cm.v.SetConfigName("config")
		cm.v.SetConfigType("yaml")
		cm.v.AddConfigPath(".")
		if searchDir != "" {
			cm.v.AddConfigPath(searchDir)
		}
		cm.v.AddConfigPath("$HOME/.stickers")
	}

	// Try to read config file (not required)
	if err := cm.v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// load parses the current viper state into a Config struct.
func (cm *Manager) load() (*Config, error) {
	var cfg Config
	if err := cm.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Get returns the current configuration (thread-safe).
func (cm *Manager) Get() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// File returns the config file in use, or "" when running on defaults.
func (cm *Manager) File() string {
	return cm.v.ConfigFileUsed()
}

// Entries returns every known key with its effective value.
func (cm *Manager) Entries() []Entry {
	defaults := DefaultEntries()
	out := make([]Entry, len(defaults))
	for i, e := range defaults {
		out[i] = Entry{Key: e.Key, Value: cm.v.Get(e.Key), Description: e.Description}
	}
	return out
}

// Lookup returns the effective value of a single key.
func (cm *Manager) Lookup(key string) (Entry, error) {
	def := GetDefault(key)
	if def == nil {
		return Entry{}, fmt.Errorf("%w for key %q", ErrNoDefault, key)
	}
	return Entry{Key: key, Value: cm.v.Get(key), Description: def.Description}, nil
}

// OnChange registers a callback for config changes.
func (cm *Manager) OnChange(fn func(*Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, fn)
}

// WatchConfig enables hot-reloading of configuration.
func (cm *Manager) WatchConfig(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	cm.v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := cm.load()
		if err != nil {
			logger.Warn("ignoring invalid config change", "file", e.Name, "error", err)
			return
		}

		cm.mu.Lock()
		cm.config = cfg
		callbacks := make([]func(*Config), len(cm.callbacks))
		copy(callbacks, cm.callbacks)
		cm.mu.Unlock()

		logger.Info("config reloaded", "file", e.Name)
		for _, fn := range callbacks {
			fn(cfg)
		}
	})
	cm.v.WatchConfig()
}

// PipelineOptions converts the config into run options for a variant.
func (c *Config) PipelineOptions(v pipeline.Variant) (pipeline.Options, error) {
	vc := c.WB
	if v == pipeline.VariantOzon {
		vc = c.Ozon
	}
	order, err := grouping.ParseOrder(vc.Order)
	if err != nil {
		return pipeline.Options{}, fmt.Errorf("%s.order: %w", v, err)
	}

	opts := pipeline.DefaultOptions(v)
	opts.Style = pagestore.Style{
		FontPath:           c.Font.Path,
		FontName:           c.Font.Name,
		SeparatorFontSize:  c.Separator.FontSize,
		SeparatorAlign:     vc.Align,
		Margin:             c.Separator.Margin,
		OverlayFontSize:    c.Overlay.FontSize,
		OverlayMinFontSize: c.Overlay.MinFontSize,
	}
	opts.SeparatorTemplate = c.Separator.Template
	opts.Order = order
	opts.AppendLeftovers = vc.AppendLeftovers
	opts.HeaderRows = c.Manifest.HeaderRows
	opts.BandTolerance = c.Assembly.BandTolerance
	opts.Placeholder = c.Overlay.Placeholder
	opts.MaxArticleLength = c.Overlay.MaxArticleLength
	opts.TextBackends = c.Text.Backends
	return opts, nil
}

// DefaultConfig returns configuration with the built-in defaults.
func DefaultConfig() *Config {
	cm := &Manager{v: viper.New()}
	for _, e := range DefaultEntries() {
		cm.v.SetDefault(e.Key, e.Value)
	}
	cfg, err := cm.load()
	if err != nil {
		panic(fmt.Sprintf("invalid built-in config defaults: %v", err))
	}
	return cfg
}

// WriteDefault writes the default configuration to the specified path.
func WriteDefault(path string) error {
	data, err := yaml.Marshal(nest(DefaultEntries()))
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# Stickers configuration
# Every key can be overridden with an environment variable:
# font.path -> STICKERS_FONT_PATH, watch.workers -> STICKERS_WATCH_WORKERS

`)
	return os.WriteFile(path, append(header, data...), 0o644)
}

// nest turns dotted keys into nested YAML maps, keeping entry order.
func nest(entries []Entry) yaml.MapSlice {
	var root yaml.MapSlice
	for _, e := range entries {
		root = insert(root, strings.Split(e.Key, "."), e.Value)
	}
	return root
}

func insert(m yaml.MapSlice, path []string, value any) yaml.MapSlice {
	if len(path) == 1 {
		return append(m, yaml.MapItem{Key: path[0], Value: value})
	}
	for i := range m {
		if m[i].Key == path[0] {
			child, _ := m[i].Value.(yaml.MapSlice)
			m[i].Value = insert(child, path[1:], value)
			return m
		}
	}
	return append(m, yaml.MapItem{Key: path[0], Value: insert(nil, path[1:], value)})
}
