package pipeline

import (
	"github.com/carden-code/wb-stickers/internal/assembly"
	"github.com/carden-code/wb-stickers/internal/grouping"
	"github.com/carden-code/wb-stickers/internal/pageindex"
	"github.com/carden-code/wb-stickers/internal/pagestore"
	"github.com/carden-code/wb-stickers/internal/reorder"
)

// RunOzon sorts the tickets in ticketPath by the articles of the assembly
// list at assemblyPath and writes the result to out.
func RunOzon(assemblyPath, ticketPath, out string, opts Options) *Result {
	r := newRun(VariantOzon, opts)
	r.logger.Info("sorting Ozon tickets", "assembly", assemblyPath, "tickets", ticketPath)

	if err := r.checkInputs(assemblyPath, ticketPath); err != nil {
		return r.fail(err)
	}

	ex, err := r.extractor()
	if err != nil {
		return r.fail(err)
	}
	asmPages, err := r.extract(ex, assemblyPath)
	if err != nil {
		return r.fail(err)
	}
	articles := (&assembly.Extractor{BandTolerance: r.opts.BandTolerance, Logger: r.logger}).Extract(asmPages)
	if len(articles.Order) == 0 {
		r.logger.Warn("no shipment numbers in assembly list", "assembly", assemblyPath)
	}

	ticketPages, err := r.extract(ex, ticketPath)
	if err != nil {
		return r.fail(err)
	}
	store, err := pagestore.Open(ticketPath, r.opts.Style, r.logger)
	if err != nil {
		return r.fail(err)
	}
	defer store.Close()

	ix := pageindex.BuildShipmentIndex(ticketPages, r.logger)

	assignments := make([]grouping.Assignment, 0, len(articles.Order))
	for _, id := range articles.Order {
		assignments = append(assignments, grouping.Assignment{Key: id, Article: articles.Article(id)})
	}
	groups := grouping.Build(assignments, r.opts.Order)

	plan, err := reorder.Build(groups, ix, reorder.Options{
		AppendLeftovers: r.opts.AppendLeftovers,
		Template:        r.opts.SeparatorTemplate,
		Logger:          r.logger,
	})
	if err != nil {
		return r.fail(err)
	}
	if err := r.compose(store, plan); err != nil {
		return r.fail(err)
	}
	return r.save(store, out)
}
