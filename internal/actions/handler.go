package actions

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
)

// Handler is a slog.Handler that renders records as workflow commands:
// debug records become ::debug::, warnings ::warning:: and errors ::error::.
// Info records are printed as plain lines.
type Handler struct {
	mu     *sync.Mutex
	out    io.Writer
	level  slog.Leveler
	prefix string
	attrs  string
}

// NewHandler creates a Handler writing to out. A nil opts logs at debug
// level, leaving the runner to hide debug output unless step debugging is on.
func NewHandler(out io.Writer, opts *slog.HandlerOptions) *Handler {
	var level slog.Leveler = slog.LevelDebug
	if opts != nil && opts.Level != nil {
		level = opts.Level
	}

	return &Handler{mu: &sync.Mutex{}, out: out, level: level}
}

// Enabled reports whether level is at or above the handler's level.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle writes r as a single line.
func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder

	b.WriteString(r.Message)
	b.WriteString(h.attrs)

	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&b, h.prefix, a)

		return true
	})

	msg := b.String()

	var line string

	switch {
	case r.Level >= slog.LevelError:
		line = formatCommand("error", nil, msg)
	case r.Level >= slog.LevelWarn:
		line = formatCommand("warning", nil, msg)
	case r.Level >= slog.LevelInfo:
		line = msg
	default:
		line = formatCommand("debug", nil, msg)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := io.WriteString(h.out, line+"\n")

	return err
}

// WithAttrs returns a handler that appends attrs to every record.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}

	var b strings.Builder

	b.WriteString(h.attrs)

	for _, a := range attrs {
		writeAttr(&b, h.prefix, a)
	}

	h2 := *h
	h2.attrs = b.String()

	return &h2
}

// WithGroup returns a handler that qualifies later attribute keys with name.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	h2 := *h
	h2.prefix = h.prefix + name + "."

	return &h2
}

func writeAttr(b *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		group := prefix
		if a.Key != "" {
			group += a.Key + "."
		}

		for _, ga := range a.Value.Group() {
			writeAttr(b, group, ga)
		}

		return
	}

	b.WriteString(" ")
	b.WriteString(prefix)
	b.WriteString(a.Key)
	b.WriteString("=")
	b.WriteString(quoteValue(a.Value.String()))
}

func quoteValue(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\"=") {
		return strconv.Quote(s)
	}

	return s
}
