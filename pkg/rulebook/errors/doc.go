// Package errors provides error types for rules document parsing and rule
// lookup.
//
// Two failure kinds exist and both are matched with the standard errors.Is:
//
//	_, err := rulebook.Load(data)
//	if errors.Is(err, rbErrors.ErrMalformedPolicyDocument) {
//	    // the document does not follow the heading/list structure
//	}
//
//	_, err = registry.Get("no-such-rule")
//	if errors.Is(err, rbErrors.ErrUnknownRuleID) {
//	    // lookup miss
//	}
//
// Parse failures are accumulated into an ErrorList so a single pass reports
// every malformed rule. Each Error carries a Location and, when the source is
// available, the surrounding lines and a suggested fix:
//
//	[structural] Rule 2 is missing a bold title
//	  --> .cursorrules:9:4
//	  |
//	   8 |
//	-> 9 | 2. Modular Architecture: keep modules apart.
//	  |
//	  = suggestion: Start the item with a bold title, e.g. '**Modular Architecture**: ...'
package errors
