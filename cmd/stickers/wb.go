package main

import (
	"github.com/spf13/cobra"

	"github.com/carden-code/wb-stickers/internal/pipeline"
)

var (
	wbManifest string
	wbStickers string
	wbFlags    runFlags
)

var wbCmd = &cobra.Command{
	Use:   "wb",
	Short: "Sort WB stickers by the articles of an order manifest",
	Long: `Sort a WB sticker PDF by product article.

The manifest is the xlsx (or csv) order export: one row per sticker with the
article in column 6 and the sticker number in column 7. Stickers are grouped
by article in manifest order, each group behind a separator page, and the
marketplace placeholder on each sticker is overwritten with its article.

Examples:
  stickers wb --manifest orders.xlsx --stickers stickers.pdf --out sorted.pdf
  stickers wb --manifest orders.csv --stickers stickers.pdf --out sorted.pdf -o json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := wbFlags.options(cmd, pipeline.VariantWB)
		if err != nil {
			return err
		}
		return report(pipeline.RunWB(wbManifest, wbStickers, wbFlags.out, opts))
	},
}

func init() {
	wbCmd.Flags().StringVar(&wbManifest, "manifest", "", "order manifest, xlsx or csv (required)")
	wbCmd.Flags().StringVar(&wbStickers, "stickers", "", "sticker PDF (required)")
	_ = wbCmd.MarkFlagRequired("manifest")
	_ = wbCmd.MarkFlagRequired("stickers")
	wbFlags.register(wbCmd)
}
