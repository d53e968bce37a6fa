// Package manager loads rules documents from the file system into a catalog
// and keeps that catalog current as the documents change.
//
// A rules source is a single file (for example .cursorrules) or a directory
// of Markdown documents. Each document becomes one immutable
// rulebook.Registry, keyed in the catalog by its metadata name or, failing
// that, its file name without the extension.
//
// # Core Components
//
// Manager coordinates loading, hot-reload and reload notifications.
//
// Loader reads files, checks size and encoding, and parses them.
//
// Catalog stores the active registries and swaps them atomically.
//
// FileWatcher monitors the source with fsnotify and debounces bursts of
// events into a single reload.
//
// # Basic Usage
//
//	cfg := config.NewDefaultConfig()
//	cfg.Rules.Path = ".cursor/rules"
//
//	mgr, err := manager.NewManager(&cfg.Rules, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := mgr.Load(); err != nil {
//	    log.Fatal(err)
//	}
//
//	doc, rule, err := mgr.FindRule("api-resilience")
//
// # Hot Reload
//
// With cfg.Rules.Watch set, Watch blocks and reloads on every change:
//
//	events, unsubscribe := mgr.Subscribe()
//	defer unsubscribe()
//
//	go func() {
//	    for ev := range events {
//	        log.Printf("reload %s: version=%s err=%v", ev.ID, ev.Version, ev.Err)
//	    }
//	}()
//
//	if err := mgr.Watch(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// A reload that fails leaves the previous catalog active. The error is
// reported through LastLoadError, the event stream and the log.
package manager
