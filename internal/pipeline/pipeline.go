// Package pipeline runs the two sticker sorting flows end to end.
//
// WB: an order manifest plus a sticker PDF. Stickers are grouped by the
// manifest article in manifest order and the marketplace placeholder on
// each sticker is overwritten with its article.
//
// Ozon: an assembly list PDF plus a ticket PDF. Tickets are grouped by the
// article read off the assembly list, in article order, and tickets no
// shipment points at are appended at the end.
package pipeline

import (
	"log/slog"
	"time"

	"github.com/carden-code/wb-stickers/internal/errs"
	"github.com/carden-code/wb-stickers/internal/grouping"
	"github.com/carden-code/wb-stickers/internal/pagestore"
	"github.com/carden-code/wb-stickers/internal/pdftext"
	"github.com/carden-code/wb-stickers/internal/reorder"
)

// Variant names a sorting flow.
type Variant string

const (
	VariantWB   Variant = "wb"
	VariantOzon Variant = "ozon"
)

// Options configures a run. Start from DefaultOptions; an empty order,
// template or separator alignment falls back to the variant default.
type Options struct {
	Style             pagestore.Style
	SeparatorTemplate string
	Order             grouping.Order
	AppendLeftovers   bool

	HeaderRows       int
	BandTolerance    float64
	Placeholder      string
	MaxArticleLength int
	TextBackends     []string

	// Extractor, when set, replaces the extractor built from TextBackends.
	Extractor *pdftext.Extractor

	Logger *slog.Logger
}

// DefaultOptions returns the defaults of a variant.
func DefaultOptions(v Variant) Options {
	opts := Options{
		Style:             pagestore.DefaultStyle(),
		SeparatorTemplate: reorder.DefaultTemplate,
		HeaderRows:        1,
		TextBackends:      pdftext.DefaultBackends,
	}
	switch v {
	case VariantOzon:
		opts.Order = grouping.OrderLexicographic
		opts.AppendLeftovers = true
		opts.Style.SeparatorAlign = "L"
	default:
		opts.Order = grouping.OrderFirstAppearance
		opts.Style.SeparatorAlign = "C"
	}
	return opts
}

func (o Options) withDefaults(v Variant) Options {
	d := DefaultOptions(v)
	if o.Order == "" {
		o.Order = d.Order
	}
	if o.SeparatorTemplate == "" {
		o.SeparatorTemplate = d.SeparatorTemplate
	}
	if o.Style.SeparatorAlign == "" {
		o.Style.SeparatorAlign = d.Style.SeparatorAlign
	}
	return o
}

// GroupSummary describes one group of the output.
type GroupSummary struct {
	Article string `yaml:"article" json:"article"`
	Count   int    `yaml:"count" json:"count"`
	Pages   int    `yaml:"pages" json:"pages"`
}

// Result is the outcome of a run: Output is set on success, Err on failure.
type Result struct {
	Variant   Variant        `yaml:"variant" json:"variant"`
	Output    string         `yaml:"output,omitempty" json:"output,omitempty"`
	Pages     int            `yaml:"pages" json:"pages"`
	Groups    []GroupSummary `yaml:"groups,omitempty" json:"groups,omitempty"`
	Missing   []string       `yaml:"missing,omitempty" json:"missing,omitempty"`
	Leftovers int            `yaml:"leftovers,omitempty" json:"leftovers,omitempty"`
	Overlays  int            `yaml:"overlays,omitempty" json:"overlays,omitempty"`
	Warnings  []string       `yaml:"warnings,omitempty" json:"warnings,omitempty"`
	Error     string         `yaml:"error,omitempty" json:"error,omitempty"`
	ErrorKind errs.Kind      `yaml:"error_kind,omitempty" json:"error_kind,omitempty"`
	Duration  string         `yaml:"duration" json:"duration"`
	Err       error          `yaml:"-" json:"-"`
}

// OK reports whether the run produced an output file.
func (r *Result) OK() bool { return r.Err == nil }

// run carries the per-invocation state shared by both flows.
type run struct {
	variant  Variant
	opts     Options
	logger   *slog.Logger
	warnings *warnings
	started  time.Time
	result   *Result
}

func newRun(v Variant, opts Options) *run {
	opts = opts.withDefaults(v)
	base := opts.Logger
	if base == nil {
		base = slog.Default()
	}
	logger, w := newCollector(base.With("variant", string(v)))
	return &run{
		variant:  v,
		opts:     opts,
		logger:   logger,
		warnings: w,
		started:  time.Now(),
		result:   &Result{Variant: v},
	}
}

func (r *run) fail(err error) *Result {
	r.result.Err = err
	r.result.Error = err.Error()
	r.result.ErrorKind = errs.Classify(err)
	res := r.finish()
	r.logger.Error("run failed", "error", err, "kind", res.ErrorKind)
	return res
}

func (r *run) finish() *Result {
	r.result.Warnings = r.warnings.list()
	r.result.Duration = time.Since(r.started).Round(time.Millisecond).String()
	return r.result
}

// checkInputs fails on the first input that is missing or unreadable.
func (r *run) checkInputs(paths ...string) error {
	for _, p := range paths {
		if err := errs.CheckReadable(p); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) extractor() (*pdftext.Extractor, error) {
	if r.opts.Extractor != nil {
		return r.opts.Extractor, nil
	}
	return pdftext.NewExtractor(r.opts.TextBackends, r.logger)
}

// extract reads the text layer of path. Decode failures are format errors.
func (r *run) extract(ex *pdftext.Extractor, path string) ([]pdftext.Page, error) {
	if err := errs.CheckReadable(path); err != nil {
		return nil, err
	}
	pages, err := ex.Extract(path)
	if err != nil {
		return nil, &errs.FormatError{Path: path, Reason: "failed to read text layer", Err: err}
	}
	return pages, nil
}

// compose applies plan to store and records the plan in the result.
func (r *run) compose(store *pagestore.Store, plan *reorder.Plan) error {
	if err := plan.Apply(store); err != nil {
		return err
	}
	for _, g := range plan.Groups {
		r.result.Groups = append(r.result.Groups, GroupSummary{Article: g.Article, Count: g.Count, Pages: g.Pages})
	}
	r.result.Missing = plan.Missing
	if r.opts.AppendLeftovers {
		r.result.Leftovers = len(plan.Leftovers)
	}
	return nil
}

func (r *run) save(store *pagestore.Store, out string) *Result {
	if err := store.Save(out); err != nil {
		return r.fail(err)
	}
	r.result.Output = out
	r.result.Pages = store.PageCount()
	r.logger.Info("run complete", "output", out, "pages", r.result.Pages, "groups", len(r.result.Groups))
	return r.finish()
}
