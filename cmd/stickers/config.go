package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/carden-code/wb-stickers/internal/config"
	"github.com/carden-code/wb-stickers/internal/home"
	"github.com/carden-code/wb-stickers/internal/output"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the stickers configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the defaults",
	Long: `Create the stickers home directory and write config.yaml with every
setting at its default value.

Examples:
  stickers config init
  stickers config init --home /srv/stickers --force`,
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}

		path := h.ConfigPath()
		if cfgFile != "" {
			path = cfgFile
		}
		if _, err := os.Stat(path); err == nil && !configForce {
			return fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
		}
		if err := config.WriteDefault(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show [key]",
	Short: "Show the effective configuration",
	Long: `Show every setting with its effective value, or a single setting by key.

Examples:
  stickers config show
  stickers config show overlay.placeholder -o json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, cm, err := loadConfig()
		if err != nil {
			return err
		}
		if len(args) == 1 {
			e, err := cm.Lookup(args[0])
			if err != nil {
				return err
			}
			return output.Print(e)
		}
		return output.Print(map[string]any{
			"file":     cm.File(),
			"settings": cm.Entries(),
		})
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing config file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}
