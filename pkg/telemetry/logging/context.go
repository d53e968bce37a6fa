package logging

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// Context keys for common log fields.
type contextKey string

const (
	// ReloadIDKey is the context key for the id of a reload cycle.
	ReloadIDKey contextKey = "reload_id"

	// DocumentKey is the context key for the rules document being handled.
	DocumentKey contextKey = "document"
)

// TraceIDField is the log field carrying the id of the active trace.
const TraceIDField = "trace_id"

// WithReloadID adds a reload id to the context.
func WithReloadID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ReloadIDKey, id)
}

// GetReloadID retrieves the reload id from the context.
func GetReloadID(ctx context.Context) string {
	if id, ok := ctx.Value(ReloadIDKey).(string); ok {
		return id
	}
	return ""
}

// WithDocument adds a document name to the context.
func WithDocument(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, DocumentKey, name)
}

// GetDocument retrieves the document name from the context.
func GetDocument(ctx context.Context) string {
	if name, ok := ctx.Value(DocumentKey).(string); ok {
		return name
	}
	return ""
}

// extractContextFields returns the log fields stored in ctx as key/value
// pairs.
func extractContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}

	var attrs []slog.Attr
	if id := GetReloadID(ctx); id != "" {
		attrs = append(attrs, slog.String(string(ReloadIDKey), id))
	}
	if name := GetDocument(ctx); name != "" {
		attrs = append(attrs, slog.String(string(DocumentKey), name))
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		attrs = append(attrs, slog.String(TraceIDField, sc.TraceID().String()))
	}
	return attrs
}

// contextHandler adds context fields to every record.
type contextHandler struct {
	slog.Handler
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if attrs := extractContextFields(ctx); len(attrs) > 0 {
		r = r.Clone()
		r.AddAttrs(attrs...)
	}
	return h.Handler.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithGroup(name)}
}
