// Package rulebook provides the policy registry: an immutable, queryable
// collection of the mandates declared in a rules document.
//
// A rules document is the Markdown guide a workspace keeps next to its code
// (for example .cursorrules) to pin the target language version, styling,
// module separation and the resilience pattern required of external API
// calls. Load parses such a document once; the resulting Registry never
// changes, so any number of goroutines may read it without locking. When the
// document changes a new Registry is built from scratch.
//
// # Basic Usage
//
//	registry, err := rulebook.LoadFile(".cursorrules")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, rule := range registry.All() {
//	    fmt.Printf("%s (%s): %s\n", rule.ID, rule.Scope, rule.Title)
//	}
//
//	rule, err := registry.Get("api-resilience")
//	if errors.Is(err, rbErrors.ErrUnknownRuleID) {
//	    // not declared in this document
//	}
//
// # Identifiers
//
// Rule ids are derived from the bolded titles: "**API Resilience**" becomes
// "api-resilience". Ids are unique within a registry; a document declaring the
// same id twice is malformed.
package rulebook
