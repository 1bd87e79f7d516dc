package pipeline

import (
	"github.com/carden-code/wb-stickers/internal/grouping"
	"github.com/carden-code/wb-stickers/internal/manifest"
	"github.com/carden-code/wb-stickers/internal/overlay"
	"github.com/carden-code/wb-stickers/internal/pageindex"
	"github.com/carden-code/wb-stickers/internal/pagestore"
	"github.com/carden-code/wb-stickers/internal/reorder"
)

// RunWB sorts the stickers in stickerPath by the articles of the manifest at
// manifestPath and writes the result to out.
func RunWB(manifestPath, stickerPath, out string, opts Options) *Result {
	r := newRun(VariantWB, opts)
	r.logger.Info("sorting WB stickers", "manifest", manifestPath, "stickers", stickerPath)

	if err := r.checkInputs(manifestPath, stickerPath); err != nil {
		return r.fail(err)
	}

	m, err := manifest.Load(manifestPath, manifest.Options{HeaderRows: r.opts.HeaderRows, Logger: r.logger})
	if err != nil {
		return r.fail(err)
	}

	ex, err := r.extractor()
	if err != nil {
		return r.fail(err)
	}
	pages, err := r.extract(ex, stickerPath)
	if err != nil {
		return r.fail(err)
	}

	store, err := pagestore.Open(stickerPath, r.opts.Style, r.logger)
	if err != nil {
		return r.fail(err)
	}
	defer store.Close()

	ix := pageindex.BuildStickerIndex(pages, r.logger)

	var assignments []grouping.Assignment
	for _, ak := range m.ByArticle() {
		for _, key := range ak.Keys {
			assignments = append(assignments, grouping.Assignment{Key: key, Article: ak.Article})
		}
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

	engine := &overlay.Engine{
		Placeholder: r.opts.Placeholder,
		MaxLength:   r.opts.MaxArticleLength,
		Marker:      reorder.Marker(plan.Template),
		Logger:      r.logger,
	}
	stats, err := engine.Apply(store, pages, m.KeyToArticle())
	if err != nil {
		return r.fail(err)
	}
	r.result.Overlays = stats.Overlays

	return r.save(store, out)
}
