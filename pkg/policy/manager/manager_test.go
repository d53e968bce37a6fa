package manager

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"mercator-hq/rulebook/pkg/config"
	rbErrors "mercator-hq/rulebook/pkg/rulebook/errors"
	"mercator-hq/rulebook/pkg/telemetry/logging"
	"mercator-hq/rulebook/pkg/telemetry/tracing"
)

type fakeRecorder struct {
	mu      sync.Mutex
	loads   []bool
	catalog map[string]int
	lookups []bool
}

func (r *fakeRecorder) RecordLoad(success bool, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loads = append(r.loads, success)
}

func (r *fakeRecorder) SetCatalog(rulesPerDocument map[string]int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.catalog = rulesPerDocument
}

func (r *fakeRecorder) RecordLookup(found bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lookups = append(r.lookups, found)
}

func newTestManager(t *testing.T, path string, opts ...Option) *Manager {
	t.Helper()
	cfg := &config.RulesConfig{
		Path:        path,
		Debounce:    20 * time.Millisecond,
		MaxFileSize: 1 << 20,
		Extensions:  config.DefaultRulesExtensions(),
	}
	m, err := NewManager(cfg, logging.Discard(), opts...)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestNewManager_Invalid(t *testing.T) {
	if _, err := NewManager(nil, nil); err == nil {
		t.Error("NewManager(nil) expected error")
	}
	if _, err := NewManager(&config.RulesConfig{}, nil); err == nil {
		t.Error("NewManager(empty path) expected error")
	}
}

func TestManager_Load(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "project.md", projectRules)
	writeFile(t, dir, "service.md", namedRules)

	rec := &fakeRecorder{}
	m := newTestManager(t, dir, WithMetrics(rec))

	if err := m.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if got := len(m.Documents()); got != 2 {
		t.Errorf("Documents() = %d, want 2", got)
	}
	if m.LastLoadTime().IsZero() {
		t.Error("LastLoadTime() not set")
	}
	if m.LastLoadError() != nil {
		t.Errorf("LastLoadError() = %v", m.LastLoadError())
	}

	reg, err := m.Document("project")
	if err != nil {
		t.Fatalf("Document(project) error = %v", err)
	}
	if reg.Len() != 3 {
		t.Errorf("Document(project).Len() = %d, want 3", reg.Len())
	}

	if _, err := m.Document("absent"); !errors.Is(err, ErrUnknownDocument) {
		t.Errorf("Document(absent) error = %v, want ErrUnknownDocument", err)
	}

	doc, rule, err := m.FindRule("timeouts")
	if err != nil || doc != "service" || rule.Position != 1 {
		t.Errorf("FindRule(timeouts) = %q, %+v, %v", doc, rule, err)
	}
	if _, _, err := m.FindRule("nonexistent-rule"); !errors.Is(err, rbErrors.ErrUnknownRuleID) {
		t.Errorf("FindRule(nonexistent-rule) error = %v, want ErrUnknownRuleID", err)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.loads) != 1 || !rec.loads[0] {
		t.Errorf("recorded loads = %v, want [true]", rec.loads)
	}
	if rec.catalog["project"] != 3 || rec.catalog["service"] != 1 {
		t.Errorf("recorded catalog = %v", rec.catalog)
	}
	if len(rec.lookups) != 2 || !rec.lookups[0] || rec.lookups[1] {
		t.Errorf("recorded lookups = %v, want [true false]", rec.lookups)
	}
}

func TestManager_ReloadKeepsLastGood(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "project.md", projectRules)

	rec := &fakeRecorder{}
	m := newTestManager(t, path, WithMetrics(rec))
	if err := m.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	version := m.Version()
	loadTime := m.LastLoadTime()

	writeFile(t, dir, "project.md", missingTitle)

	err := m.Reload()
	if !errors.Is(err, rbErrors.ErrMalformedPolicyDocument) {
		t.Fatalf("Reload() error = %v, want ErrMalformedPolicyDocument", err)
	}
	if m.Version() != version {
		t.Error("failed reload changed the catalog version")
	}
	if !m.LastLoadTime().Equal(loadTime) {
		t.Error("failed reload changed LastLoadTime")
	}
	if !errors.Is(m.LastLoadError(), rbErrors.ErrMalformedPolicyDocument) {
		t.Errorf("LastLoadError() = %v", m.LastLoadError())
	}
	if _, _, err := m.FindRule("modular-architecture"); err != nil {
		t.Errorf("previous rules no longer served: %v", err)
	}

	writeFile(t, dir, "project.md", projectRules+"4. **Logging**: Use structured logging.\n")
	if err := m.Reload(); err != nil {
		t.Fatalf("Reload() after fix error = %v", err)
	}
	if m.Version() == version {
		t.Error("successful reload kept the old version")
	}
	if m.LastLoadError() != nil {
		t.Errorf("LastLoadError() after fix = %v", m.LastLoadError())
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	want := []bool{true, false, true}
	if len(rec.loads) != len(want) {
		t.Fatalf("recorded loads = %v, want %v", rec.loads, want)
	}
	for i := range want {
		if rec.loads[i] != want[i] {
			t.Errorf("recorded loads = %v, want %v", rec.loads, want)
			break
		}
	}
}

func TestManager_PartialDirectoryFailureIsAllOrNothing(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "project.md", projectRules)

	m := newTestManager(t, dir)
	if err := m.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	writeFile(t, dir, "service.md", namedRules)
	writeFile(t, dir, "broken.md", missingTitle)

	if err := m.Reload(); err == nil {
		t.Fatal("Reload() expected error")
	}
	if _, err := m.Document("service"); err == nil {
		t.Error("document from a failed reload became active")
	}
}

func TestManager_DuplicateDocumentNames(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a/service.md", namedRules)
	writeFile(t, dir, "b/other.md", namedRules)

	m := newTestManager(t, dir)
	err := m.Load()

	var catErr *CatalogError
	if !errors.As(err, &catErr) || catErr.Document != "service" {
		t.Errorf("Load() error = %v, want CatalogError for service", err)
	}
}

func TestManager_Subscribe(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "project.md", projectRules)

	m := newTestManager(t, path)
	events, unsubscribe := m.Subscribe()

	if err := m.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	writeFile(t, dir, "project.md", missingTitle)
	_ = m.Reload()

	first := <-events
	if first.Trigger != TriggerInitial || !first.Succeeded() || first.ID == "" {
		t.Errorf("first event = %+v", first)
	}
	if first.Version != m.Version() || first.Documents != 1 {
		t.Errorf("first event version/documents = %q/%d", first.Version, first.Documents)
	}

	second := <-events
	if second.Trigger != TriggerManual || second.Succeeded() {
		t.Errorf("second event = %+v", second)
	}
	if second.ID == first.ID {
		t.Error("events share a reload id")
	}

	unsubscribe()
	if _, ok := <-events; ok {
		t.Error("channel still open after unsubscribe")
	}
	unsubscribe()
}

func TestManager_CloseClosesSubscriptions(t *testing.T) {
	m := newTestManager(t, filepath.Join(t.TempDir(), "absent.md"))
	events, _ := m.Subscribe()

	if err := m.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, ok := <-events; ok {
		t.Error("channel still open after Close")
	}

	late, _ := m.Subscribe()
	if _, ok := <-late; ok {
		t.Error("subscription after Close should be closed")
	}
}

func TestManager_WatchDisabled(t *testing.T) {
	m := newTestManager(t, t.TempDir())
	if err := m.Watch(context.Background()); err == nil {
		t.Error("Watch() expected error when watching is disabled")
	}
}

func TestManager_WatchReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "project.md", projectRules)

	m := newTestManager(t, path)
	m.config.Watch = true
	if err := m.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	version := m.Version()

	events, unsubscribe := m.Subscribe()
	defer unsubscribe()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Watch(ctx) }()

	// let the watcher register before writing
	time.Sleep(100 * time.Millisecond)
	writeFile(t, dir, "project.md", projectRules+"4. **Logging**: Use structured logging.\n")

	select {
	case ev := <-events:
		if ev.Trigger != TriggerWatch {
			t.Errorf("event trigger = %q, want watch", ev.Trigger)
		}
		if !ev.Succeeded() {
			t.Errorf("watch reload failed: %v", ev.Err)
		}
		if ev.Change == nil || filepath.Base(ev.Change.FilePath) != "project.md" {
			t.Errorf("event change = %+v", ev.Change)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for watch reload")
	}

	if m.Version() == version {
		t.Error("version unchanged after watch reload")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Watch() did not return after cancel")
	}
}

func TestManager_WatchTwice(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "project.md", projectRules)

	m := newTestManager(t, path)
	m.config.Watch = true

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- m.Watch(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for {
		m.watchMu.Lock()
		started := m.watchCancel != nil
		m.watchMu.Unlock()
		if started || time.Now().After(deadline) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	if err := m.Watch(ctx); err == nil {
		t.Error("second Watch() expected error")
	}

	_ = m.Close()
	if err := <-done; err != nil {
		t.Errorf("Watch() error = %v", err)
	}
}

func TestManager_Check(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "project.md", projectRules)

	m := newTestManager(t, path)
	ctx := context.Background()

	if err := m.Check(ctx); err == nil {
		t.Error("Check() before Load should fail")
	}

	if err := m.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := m.Check(ctx); err != nil {
		t.Errorf("Check() after Load = %v", err)
	}

	writeFile(t, dir, "project.md", missingTitle)
	_ = m.Reload()
	err := m.Check(ctx)
	if !errors.Is(err, rbErrors.ErrMalformedPolicyDocument) {
		t.Errorf("Check() after failed reload = %v, want ErrMalformedPolicyDocument", err)
	}
}

func TestManager_Tracing(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "project.md", projectRules)

	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m := newTestManager(t, path, WithTracer(provider.Tracer("test")))
	if err := m.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	writeFile(t, dir, "project.md", missingTitle)
	if err := m.Reload(); err == nil {
		t.Fatal("Reload() of malformed document succeeded")
	}

	ctx, parent := provider.Tracer("test").Start(context.Background(), "request")
	if _, _, err := m.FindRuleContext(ctx, "api-resilience"); err != nil {
		t.Fatalf("FindRuleContext() error = %v", err)
	}
	parent.End()

	var reloads, lookups []sdktrace.ReadOnlySpan
	for _, s := range recorder.Ended() {
		switch s.Name() {
		case tracing.SpanReload:
			reloads = append(reloads, s)
		case tracing.SpanFindRule:
			lookups = append(lookups, s)
		}
	}

	if len(reloads) != 2 {
		t.Fatalf("recorded %d reload spans, want 2", len(reloads))
	}
	if reloads[0].Status().Code != codes.Ok {
		t.Errorf("initial load status = %v, want Ok", reloads[0].Status())
	}
	if reloads[1].Status().Code != codes.Error {
		t.Errorf("failed reload status = %v, want Error", reloads[1].Status())
	}

	attrs := map[string]string{}
	for _, kv := range reloads[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	if attrs[tracing.AttrReloadTrigger] != string(TriggerInitial) {
		t.Errorf("trigger attribute = %q, want %q", attrs[tracing.AttrReloadTrigger], TriggerInitial)
	}
	if attrs[tracing.AttrRules] != "3" {
		t.Errorf("rules attribute = %q, want 3", attrs[tracing.AttrRules])
	}
	if attrs[tracing.AttrReloadID] == "" {
		t.Error("reload span has no reload id")
	}

	if len(lookups) != 1 {
		t.Fatalf("recorded %d lookup spans, want 1", len(lookups))
	}
	if lookups[0].Parent().SpanID() != parent.SpanContext().SpanID() {
		t.Error("lookup span is not parented to the caller's span")
	}
}
