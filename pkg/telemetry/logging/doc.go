// Package logging builds the structured logger used across rulebook.
//
// Loggers are plain *slog.Logger values; components accept one and fall back
// to slog.Default() when given nil.
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	logger.Info("Rules loaded",
//	    "documents", 2,
//	    "version", "3f2a9c01d4e5b6a7",
//	)
//
// # Context Fields
//
// The reload id and document name stored with WithReloadID and WithDocument
// are added to every record logged through the *Context methods, together
// with trace_id when ctx carries a valid span:
//
//	ctx = logging.WithReloadID(ctx, event.ID)
//	logger.InfoContext(ctx, "Reloading rules")  // includes reload_id
package logging
