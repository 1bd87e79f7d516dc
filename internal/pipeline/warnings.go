package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// warnings collects the messages of every warning logged during a run.
type warnings struct {
	mu   sync.Mutex
	msgs []string
}

func (w *warnings) add(msg string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.msgs = append(w.msgs, msg)
}

func (w *warnings) list() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.msgs...)
}

// collectHandler forwards records to the wrapped handler and keeps a copy
// of every warning and error.
type collectHandler struct {
	next slog.Handler
	w    *warnings
}

func newCollector(logger *slog.Logger) (*slog.Logger, *warnings) {
	w := &warnings{}
	return slog.New(&collectHandler{next: logger.Handler(), w: w}), w
}

func (h *collectHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= slog.LevelWarn || h.next.Enabled(ctx, level)
}

func (h *collectHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelWarn {
		var sb strings.Builder
		sb.WriteString(r.Message)
		r.Attrs(func(a slog.Attr) bool {
			fmt.Fprintf(&sb, " %s=%v", a.Key, a.Value)
			return true
		})
		h.w.add(sb.String())
	}
	if h.next.Enabled(ctx, r.Level) {
		return h.next.Handle(ctx, r)
	}
	return nil
}

func (h *collectHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &collectHandler{next: h.next.WithAttrs(attrs), w: h.w}
}

func (h *collectHandler) WithGroup(name string) slog.Handler {
	return &collectHandler{next: h.next.WithGroup(name), w: h.w}
}
