package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Span names.
const (
	SpanReload   = "rulebook.reload"
	SpanFindRule = "rulebook.find_rule"
)

// Attribute keys use the "rulebook.*" namespace.
const (
	AttrReloadID      = "rulebook.reload.id"
	AttrReloadTrigger = "rulebook.reload.trigger"
	AttrRulesPath     = "rulebook.rules.path"
	AttrChangedFile   = "rulebook.change.file"
	AttrChangeType    = "rulebook.change.type"
	AttrVersion       = "rulebook.version"
	AttrDocuments     = "rulebook.documents"
	AttrRules         = "rulebook.rules"
	AttrRuleID        = "rulebook.rule.id"
	AttrDocument      = "rulebook.document"
	AttrLookupFound   = "rulebook.lookup.found"
)

// ReloadAttributes returns the attributes identifying one reload.
func ReloadAttributes(id, trigger, path string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrReloadID, id),
		attribute.String(AttrReloadTrigger, trigger),
		attribute.String(AttrRulesPath, path),
	}
}

// SetChangeAttributes records the file change that caused a reload.
func SetChangeAttributes(span trace.Span, file, changeType string) {
	span.SetAttributes(
		attribute.String(AttrChangedFile, file),
		attribute.String(AttrChangeType, changeType),
	)
}

// SetCatalogAttributes records the catalog a reload activated.
func SetCatalogAttributes(span trace.Span, version string, documents, rules int) {
	span.SetAttributes(
		attribute.String(AttrVersion, version),
		attribute.Int(AttrDocuments, documents),
		attribute.Int(AttrRules, rules),
	)
}

// SetLookupAttributes records the outcome of a rule lookup. document is empty
// when the rule was not found.
func SetLookupAttributes(span trace.Span, id, document string) {
	attrs := []attribute.KeyValue{
		attribute.String(AttrRuleID, id),
		attribute.Bool(AttrLookupFound, document != ""),
	}
	if document != "" {
		attrs = append(attrs, attribute.String(AttrDocument, document))
	}
	span.SetAttributes(attrs...)
}
