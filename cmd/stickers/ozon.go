package main

import (
	"github.com/spf13/cobra"

	"github.com/carden-code/wb-stickers/internal/pipeline"
)

var (
	ozonAssembly string
	ozonTicket   string
	ozonFlags    runFlags
)

var ozonCmd = &cobra.Command{
	Use:   "ozon",
	Short: "Sort Ozon tickets by the articles of an assembly list",
	Long: `Sort an Ozon ticket PDF by product article.

Articles are read off the assembly list PDF by shipment number. Tickets are
grouped by article in article order, each group behind a separator page.
Tickets no shipment points at are appended at the end.

Examples:
  stickers ozon --assembly assembly.pdf --ticket tickets.pdf --out sorted.pdf
  stickers ozon --assembly assembly.pdf --ticket tickets.pdf --out sorted.pdf --leftovers=false`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := ozonFlags.options(cmd, pipeline.VariantOzon)
		if err != nil {
			return err
		}
		return report(pipeline.RunOzon(ozonAssembly, ozonTicket, ozonFlags.out, opts))
	},
}

func init() {
	ozonCmd.Flags().StringVar(&ozonAssembly, "assembly", "", "assembly list PDF (required)")
	ozonCmd.Flags().StringVar(&ozonTicket, "ticket", "", "ticket PDF (required)")
	_ = ozonCmd.MarkFlagRequired("assembly")
	_ = ozonCmd.MarkFlagRequired("ticket")
	ozonFlags.register(ozonCmd)
}
