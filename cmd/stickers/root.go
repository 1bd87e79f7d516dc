package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/carden-code/wb-stickers/internal/config"
	"github.com/carden-code/wb-stickers/internal/home"
	"github.com/carden-code/wb-stickers/internal/output"
	"github.com/carden-code/wb-stickers/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
	logLevel     string
)

var rootCmd = &cobra.Command{
	Use:   "stickers",
	Short: "Sort marketplace sticker PDFs by product article",
	Long: `Stickers regroups the pages of a marketplace sticker PDF by product article,
inserting a separator page before each group.

Two flows are supported:
  - wb:   an order manifest (xlsx or csv) plus a sticker PDF; the placeholder
          on each sticker is overwritten with the article
  - ozon: an assembly list PDF plus a ticket PDF

The watch command runs the same flows for job files dropped into a hot folder.`,
	Version:       version.GitRelease,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.stickers/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "stickers home directory (default: ~/.stickers)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)
	rootCmd.PersistentFlags().StringVar(
		&logLevel, "log-level", "", "log level: debug, info, warn, error (default from config)",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if _, err := output.ParseFormat(outputFormat); err != nil {
			return err
		}
		output.SetFormat(outputFormat)
		return nil
	}

	rootCmd.AddCommand(wbCmd)
	rootCmd.AddCommand(ozonCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig opens the home directory and the config manager.
func loadConfig() (*home.Dir, *config.Manager, error) {
	h, err := home.New(homeDir)
	if err != nil {
		return nil, nil, err
	}
	cm, err := config.NewManager(cfgFile, h.Path())
	if err != nil {
		return nil, nil, err
	}
	return h, cm, nil
}

// newLogger builds the stderr logger. The --log-level flag wins over config.
func newLogger(cfg *config.Config) (*slog.Logger, error) {
	name := cfg.Log.Level
	if logLevel != "" {
		name = logLevel
	}
	level, err := parseLevel(name)
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})), nil
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s", s)
	}
}
