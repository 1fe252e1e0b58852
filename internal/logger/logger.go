// Package logger installs the process-wide slog logger and the bridges that
// route gin and gorm output through it.
package logger

import (
	"context"
	"io"
	log "log/slog"
	"os"
	"strings"
)

type ctxKey struct{}

// TraceIDKey is the attribute name carrying the request trace id.
const TraceIDKey = "trace_id"

// WithTraceID returns a context carrying traceID for log correlation.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, traceID)
}

// TraceID extracts the trace id stored by WithTraceID.
func TraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// ContextHandler adds trace_id from the context to every record.
type ContextHandler struct {
	log.Handler
}

func (h *ContextHandler) Handle(ctx context.Context, r log.Record) error {
	if id := TraceID(ctx); id != "" {
		r.AddAttrs(log.String(TraceIDKey, id))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []log.Attr) log.Handler {
	return &ContextHandler{h.Handler.WithAttrs(attrs)}
}

func (h *ContextHandler) WithGroup(name string) log.Handler {
	return &ContextHandler{h.Handler.WithGroup(name)}
}

// New builds a logger writing to w in the given format ("json" or "text").
func New(w io.Writer, level, format string) *log.Logger {
	opts := &log.HandlerOptions{Level: ParseLevel(level)}

	var h log.Handler
	if strings.EqualFold(format, "text") {
		h = log.NewTextHandler(w, opts)
	} else {
		h = log.NewJSONHandler(w, opts)
	}
	return log.New(&ContextHandler{h})
}

// Init installs a stdout logger as the slog default.
func Init(level, format string) {
	log.SetDefault(New(os.Stdout, level, format))
}

// ParseLevel converts a string to slog.Level, defaulting to info.
func ParseLevel(level string) log.Level {
	switch strings.ToLower(level) {
	case "debug":
		return log.LevelDebug
	case "warn", "warning":
		return log.LevelWarn
	case "error":
		return log.LevelError
	default:
		return log.LevelInfo
	}
}
