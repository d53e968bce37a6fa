package manager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"mercator-hq/rulebook/pkg/config"
	"mercator-hq/rulebook/pkg/rulebook"
	"mercator-hq/rulebook/pkg/rulebook/ast"
	"mercator-hq/rulebook/pkg/telemetry/logging"
	"mercator-hq/rulebook/pkg/telemetry/tracing"
)

// subscriberBuffer is the number of events a slow subscriber may fall behind
// before events are dropped for it.
const subscriberBuffer = 16

// Manager loads rules documents into a catalog and keeps it current.
// Every load is all-or-nothing: when reading or parsing any document fails,
// the previously active catalog stays in place.
type Manager struct {
	config   *config.RulesConfig
	loader   *Loader
	catalog  *Catalog
	logger   *slog.Logger
	recorder Recorder
	tracer   trace.Tracer

	// loadMu serializes loads so two reloads never interleave
	loadMu sync.Mutex

	mu            sync.RWMutex
	lastLoadTime  time.Time
	lastLoadError error

	watchMu     sync.Mutex
	watchCancel context.CancelFunc

	subMu       sync.Mutex
	subscribers map[int]chan ReloadEvent
	nextSubID   int
	closed      bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithMetrics sets the recorder for load and lookup measurements.
func WithMetrics(r Recorder) Option {
	return func(m *Manager) {
		if r != nil {
			m.recorder = r
		}
	}
}

// WithTracer sets the tracer that spans reloads and rule lookups.
func WithTracer(t trace.Tracer) Option {
	return func(m *Manager) {
		if t != nil {
			m.tracer = t
		}
	}
}

// WithLoader replaces the loader derived from the rules configuration.
func WithLoader(l *Loader) Option {
	return func(m *Manager) {
		if l != nil {
			m.loader = l
		}
	}
}

// NewManager creates a manager for the rules source named in cfg.
// Nothing is read until Load is called.
func NewManager(cfg *config.RulesConfig, logger *slog.Logger, opts ...Option) (*Manager, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.Path == "" {
		return nil, errors.New("rules path cannot be empty")
	}

	if logger == nil {
		logger = slog.Default()
	}

	m := &Manager{
		config:      cfg,
		loader:      NewLoader(LoaderConfigFromRules(cfg)),
		catalog:     NewCatalog(),
		logger:      logger,
		recorder:    noopRecorder{},
		tracer:      tracing.Noop().Tracer(),
		subscribers: make(map[int]chan ReloadEvent),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m, nil
}

// Load reads the configured source and activates it.
func (m *Manager) Load() error {
	return m.reload(TriggerInitial, nil)
}

// Reload re-reads the configured source. On failure the previous catalog
// stays active and the error is returned.
func (m *Manager) Reload() error {
	return m.reload(TriggerManual, nil)
}

func (m *Manager) reload(trigger ReloadTrigger, change *FileChange) error {
	m.loadMu.Lock()
	defer m.loadMu.Unlock()

	id := uuid.NewString()
	ctx, span := m.tracer.Start(
		logging.WithReloadID(context.Background(), id),
		tracing.SpanReload,
		trace.WithAttributes(tracing.ReloadAttributes(id, string(trigger), m.config.Path)...),
	)
	defer span.End()
	if change != nil {
		tracing.SetChangeAttributes(span, change.FilePath, change.Type.String())
	}
	start := time.Now()

	m.logger.InfoContext(ctx, "Loading rules",
		"path", m.config.Path,
		"trigger", string(trigger),
	)

	err := m.loadAndReplace(ctx)
	duration := time.Since(start)
	m.recorder.RecordLoad(err == nil, duration)

	m.mu.Lock()
	m.lastLoadError = err
	if err == nil {
		m.lastLoadTime = time.Now()
	}
	m.mu.Unlock()

	tracing.SetError(span, err)
	tracing.SetStatus(span, err)
	if err != nil {
		m.logger.ErrorContext(ctx, "Failed to load rules, keeping previous catalog",
			"error", err,
			"version", m.catalog.Version(),
			"duration_ms", duration.Milliseconds(),
		)
	} else {
		stats := m.catalog.Stats()
		tracing.SetCatalogAttributes(span, stats.Version, stats.DocumentCount, stats.TotalRules)
		m.recorder.SetCatalog(m.catalog.RuleCounts())
		m.logger.InfoContext(ctx, "Rules loaded successfully",
			"documents", m.catalog.Count(),
			"version", m.catalog.Version(),
			"duration_ms", duration.Milliseconds(),
		)
	}

	m.publish(ReloadEvent{
		ID:        id,
		Trigger:   trigger,
		Change:    change,
		Version:   m.catalog.Version(),
		Documents: m.catalog.Count(),
		Err:       err,
		Duration:  duration,
		Timestamp: time.Now(),
	})

	return err
}

func (m *Manager) loadAndReplace(ctx context.Context) error {
	registries, err := m.loader.LoadPath(m.config.Path)
	if err != nil {
		return fmt.Errorf("failed to load rules from %q: %w", m.config.Path, err)
	}

	if err := m.catalog.Replace(registries); err != nil {
		return err
	}

	for _, reg := range registries {
		m.logger.DebugContext(logging.WithDocument(ctx, DocumentName(reg)), "Document loaded",
			"file", reg.SourceFile(),
			"rules", reg.Len(),
			"version", reg.Version(),
		)
	}
	return nil
}

// Document returns the registry of one document by name.
func (m *Manager) Document(name string) (*rulebook.Registry, error) {
	reg, ok := m.catalog.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDocument, name)
	}
	return reg, nil
}

// Documents returns every registry, sorted by document name.
func (m *Manager) Documents() []*rulebook.Registry {
	return m.catalog.All()
}

// FindRule returns the rule with the given id from the first document, in
// name order, that declares it.
func (m *Manager) FindRule(id string) (string, ast.Rule, error) {
	return m.FindRuleContext(context.Background(), id)
}

// FindRuleContext is FindRule with the lookup span parented to any span in
// ctx.
func (m *Manager) FindRuleContext(ctx context.Context, id string) (string, ast.Rule, error) {
	_, span := m.tracer.Start(ctx, tracing.SpanFindRule)
	defer span.End()

	name, rule, err := m.catalog.FindRule(id)
	m.recorder.RecordLookup(err == nil)
	tracing.SetLookupAttributes(span, id, name)
	return name, rule, err
}

// Version returns the version of the active catalog.
func (m *Manager) Version() string {
	return m.catalog.Version()
}

// Info summarizes the active documents.
func (m *Manager) Info() []DocumentInfo {
	return m.catalog.Info()
}

// Stats returns statistics about the active documents.
func (m *Manager) Stats() CatalogStats {
	return m.catalog.Stats()
}

// LastLoadTime returns when a load last succeeded.
func (m *Manager) LastLoadTime() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastLoadTime
}

// LastLoadError returns the error of the most recent load, or nil if it
// succeeded.
func (m *Manager) LastLoadError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastLoadError
}

// Check reports whether the active rules are current: it fails before the
// first successful load and while the most recent reload has failed. It has
// the signature of a health check.
func (m *Manager) Check(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.lastLoadError != nil {
		if m.lastLoadTime.IsZero() {
			return fmt.Errorf("rules not loaded: %w", m.lastLoadError)
		}
		return fmt.Errorf("last reload failed, serving version %s: %w", m.catalog.Version(), m.lastLoadError)
	}
	if m.lastLoadTime.IsZero() {
		return errors.New("rules not loaded")
	}
	return nil
}

// Subscribe returns a channel receiving an event for every load and a
// function that ends the subscription. Events are dropped for a subscriber
// that is not keeping up. The channel is closed by the returned function or
// by Close.
func (m *Manager) Subscribe() (<-chan ReloadEvent, func()) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	ch := make(chan ReloadEvent, subscriberBuffer)
	if m.closed {
		close(ch)
		return ch, func() {}
	}

	id := m.nextSubID
	m.nextSubID++
	m.subscribers[id] = ch

	return ch, func() {
		m.subMu.Lock()
		defer m.subMu.Unlock()
		if sub, ok := m.subscribers[id]; ok {
			delete(m.subscribers, id)
			close(sub)
		}
	}
}

func (m *Manager) publish(event ReloadEvent) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	for _, ch := range m.subscribers {
		select {
		case ch <- event:
		default:
			m.logger.Warn("Dropping reload event for slow subscriber", "reload_id", event.ID)
		}
	}
}

// Watch watches the configured source and reloads on change.
// It blocks until ctx is cancelled or Close is called.
func (m *Manager) Watch(ctx context.Context) error {
	if !m.config.Watch {
		return errors.New("rules watching is not enabled in configuration")
	}

	m.watchMu.Lock()
	if m.watchCancel != nil {
		m.watchMu.Unlock()
		return errors.New("watch already started")
	}
	ctx, cancel := context.WithCancel(ctx)
	m.watchCancel = cancel
	m.watchMu.Unlock()

	defer func() {
		cancel()
		m.watchMu.Lock()
		m.watchCancel = nil
		m.watchMu.Unlock()
	}()

	watchConfig := &FileWatcherConfig{
		Path:             m.config.Path,
		DebounceInterval: m.config.Debounce,
		Extensions:       m.loader.config.AllowedExtensions,
		SkipHidden:       m.loader.config.SkipHidden,
	}
	if watchConfig.DebounceInterval <= 0 {
		watchConfig.DebounceInterval = DefaultFileWatcherConfig().DebounceInterval
	}

	watcher, err := NewFileWatcher(watchConfig, m.logger)
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	return watcher.Watch(ctx, func(change FileChange) error {
		return m.reload(TriggerWatch, &change)
	})
}

// Close stops watching and closes every subscription.
func (m *Manager) Close() error {
	m.watchMu.Lock()
	if m.watchCancel != nil {
		m.watchCancel()
	}
	m.watchMu.Unlock()

	m.subMu.Lock()
	if !m.closed {
		m.closed = true
		for id, ch := range m.subscribers {
			delete(m.subscribers, id)
			close(ch)
		}
	}
	m.subMu.Unlock()

	m.logger.Info("Rules manager closed")
	return nil
}
