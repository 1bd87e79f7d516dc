package main

import (
	"github.com/spf13/cobra"

	"github.com/carden-code/wb-stickers/internal/config"
	"github.com/carden-code/wb-stickers/internal/watch"
)

var watchWorkers int

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run sticker jobs dropped into the inbox",
	Long: `Watch the inbox of the stickers home for job files and run them.

A job is a <name>.job.json file next to its inputs:

  {"variant": "wb", "manifest": "orders.xlsx", "stickers": "stickers.pdf"}
  {"variant": "ozon", "assembly": "a.pdf", "ticket": "t.pdf", "output": "sorted.pdf"}

Sorted PDFs and <name>.result.yaml reports go to outbox/. Failed jobs leave
their report in failed/. Config changes apply to the next job.

Examples:
  stickers watch
  stickers watch --home /srv/stickers --workers 4`,
	RunE: func(cmd *cobra.Command, args []string) error {
		h, cm, err := loadConfig()
		if err != nil {
			return err
		}
		logger, err := newLogger(cm.Get())
		if err != nil {
			return err
		}

		cm.OnChange(func(cfg *config.Config) {
			logger.Info("config change applies to the next job", "job_timeout", cfg.Watch.JobTimeout)
		})
		cm.WatchConfig(logger)

		r := watch.New(h, cm, watch.Options{Workers: watchWorkers}, logger)
		return r.Run(cmd.Context())
	},
}

func init() {
	watchCmd.Flags().IntVar(&watchWorkers, "workers", 0, "concurrent jobs (default from config)")
}
