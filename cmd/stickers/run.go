package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/carden-code/wb-stickers/internal/grouping"
	"github.com/carden-code/wb-stickers/internal/output"
	"github.com/carden-code/wb-stickers/internal/pipeline"
)

// runFlags are shared by the wb and ozon commands.
type runFlags struct {
	out       string
	font      string
	order     string
	leftovers bool
	template  string
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.out, "out", "", "output PDF path (required)")
	cmd.Flags().StringVar(&f.font, "font", "", "TrueType font for separators and labels (default from config)")
	cmd.Flags().StringVar(&f.order, "order", "", "group order: first-appearance or lexicographic (default from config)")
	cmd.Flags().BoolVar(&f.leftovers, "leftovers", false, "append pages no group references at the end")
	cmd.Flags().StringVar(&f.template, "template", "", "separator text, with {article} and {count} placeholders")
	_ = cmd.MarkFlagRequired("out")
}

// options builds run options from config with flag overrides applied.
func (f *runFlags) options(cmd *cobra.Command, v pipeline.Variant) (pipeline.Options, error) {
	_, cm, err := loadConfig()
	if err != nil {
		return pipeline.Options{}, err
	}
	cfg := cm.Get()
	logger, err := newLogger(cfg)
	if err != nil {
		return pipeline.Options{}, err
	}

	opts, err := cfg.PipelineOptions(v)
	if err != nil {
		return pipeline.Options{}, err
	}
	opts.Logger = logger

	if f.font != "" {
		opts.Style.FontPath = f.font
	}
	if f.order != "" {
		order, err := grouping.ParseOrder(f.order)
		if err != nil {
			return pipeline.Options{}, err
		}
		opts.Order = order
	}
	if cmd.Flags().Changed("leftovers") {
		opts.AppendLeftovers = f.leftovers
	}
	if f.template != "" {
		opts.SeparatorTemplate = f.template
	}
	return opts, nil
}

// report prints the run result and turns a failed run into a command error.
func report(res *pipeline.Result) error {
	if err := output.Print(res); err != nil {
		return err
	}
	if !res.OK() {
		return fmt.Errorf("%s run failed: %w", res.Variant, res.Err)
	}
	return nil
}
