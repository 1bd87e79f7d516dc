package pdftext

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Backends known by name, in default preference order.
var registry = map[string]Backend{
	TabulaBackend{}.Name():     TabulaBackend{},
	LedongthucBackend{}.Name(): LedongthucBackend{},
}

// DefaultBackends is the default fallback chain.
var DefaultBackends = []string{"tabula", "ledongthuc"}

// Extractor reads the text layer of PDF files through a chain of backends.
// The first backend that decodes the whole file wins.
type Extractor struct {
	backends []Backend
	logger   *slog.Logger
}

// NewExtractor creates an Extractor for the named backends. Unknown names are
// an error; an empty list selects DefaultBackends.
func NewExtractor(names []string, logger *slog.Logger) (*Extractor, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(names) == 0 {
		names = DefaultBackends
	}
	e := &Extractor{logger: logger}
	for _, name := range names {
		b, ok := registry[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("unknown text backend: %q", name)
		}
		e.backends = append(e.backends, b)
	}
	return e, nil
}

// NewExtractorWith creates an Extractor over explicit backends.
func NewExtractorWith(logger *slog.Logger, backends ...Backend) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{backends: backends, logger: logger}
}

// Extract returns the text layer of every page of the PDF at path.
func (e *Extractor) Extract(path string) ([]Page, error) {
	var errs []error
	for _, b := range e.backends {
		raw, err := b.Pages(path)
		if err != nil {
			e.logger.Warn("text backend failed", "backend", b.Name(), "file", path, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", b.Name(), err))
			continue
		}
		pages := make([]Page, len(raw))
		for i, rp := range raw {
			pages[i] = BuildPage(i, rp)
		}
		e.logger.Debug("extracted text layer", "backend", b.Name(), "file", path, "pages", len(pages))
		return pages, nil
	}
	if len(errs) == 0 {
		return nil, errors.New("no text backend configured")
	}
	return nil, errors.Join(errs...)
}
