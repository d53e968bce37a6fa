package manager

import (
	"time"

	"mercator-hq/rulebook/pkg/rulebook"
	"mercator-hq/rulebook/pkg/rulebook/ast"
)

// RuleSource is the read side of a loaded set of rules documents.
// Commands depend on this rather than on Manager so they can run against a
// catalog loaded once.
type RuleSource interface {
	// Document returns the registry of one document by name.
	Document(name string) (*rulebook.Registry, error)

	// Documents returns every registry, sorted by document name.
	Documents() []*rulebook.Registry

	// FindRule returns the rule with the given id from the first document,
	// in name order, that declares it.
	FindRule(id string) (document string, rule ast.Rule, err error)

	// Version identifies the active set of documents.
	Version() string
}

// DocumentInfo summarizes one loaded rules document.
type DocumentInfo struct {
	// Name is the catalog key: the metadata name or the file name
	Name string

	// Title is the document heading
	Title string

	// Description is the metadata description
	Description string

	// FilePath is the path the document was read from
	FilePath string

	// Version identifies the document content
	Version string

	// RuleCount is the number of rules in the document
	RuleCount int

	// Globs are the file patterns the document applies to
	Globs []string
}

// ReloadTrigger identifies what started a load.
type ReloadTrigger string

const (
	// TriggerInitial is the first load of a manager.
	TriggerInitial ReloadTrigger = "initial"

	// TriggerManual is an explicit Reload call.
	TriggerManual ReloadTrigger = "manual"

	// TriggerWatch is a reload caused by a file system change.
	TriggerWatch ReloadTrigger = "watch"
)

// ReloadEvent reports the outcome of one load or reload.
type ReloadEvent struct {
	// ID uniquely identifies the reload; it also appears in log records
	ID string

	// Trigger is what started the reload
	Trigger ReloadTrigger

	// Change is the file change behind a watch-triggered reload
	Change *FileChange

	// Version is the catalog version active after the reload
	Version string

	// Documents is the number of documents active after the reload
	Documents int

	// Err is non-nil when the reload failed and the previous catalog was kept
	Err error

	// Duration is how long reading and parsing took
	Duration time.Duration

	// Timestamp is when the reload finished
	Timestamp time.Time
}

// Succeeded reports whether the reload activated a new catalog.
func (e ReloadEvent) Succeeded() bool {
	return e.Err == nil
}

// FileChange is a file system change seen by the watcher.
type FileChange struct {
	// Type is the kind of change
	Type FileChangeType

	// FilePath is the path to the file that changed
	FilePath string

	// Timestamp is when the change was seen
	Timestamp time.Time
}

// FileChangeType represents the type of file system change.
type FileChangeType int

const (
	// FileChangeCreate indicates a new file was created
	FileChangeCreate FileChangeType = iota

	// FileChangeModify indicates an existing file was modified
	FileChangeModify

	// FileChangeDelete indicates a file was deleted or renamed away
	FileChangeDelete
)

// String returns a string representation of the change type.
func (t FileChangeType) String() string {
	switch t {
	case FileChangeCreate:
		return "create"
	case FileChangeModify:
		return "modify"
	case FileChangeDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// LoaderConfig contains configuration for the document loader.
type LoaderConfig struct {
	// MaxFileSize is the maximum file size in bytes (default: 1MB)
	MaxFileSize int64

	// AllowedExtensions lists the extensions loaded from a directory
	// (default: [".md", ".mdc", ".cursorrules", ".windsurfrules"])
	AllowedExtensions []string

	// FollowSymlinks controls whether to follow symbolic links (default: true)
	FollowSymlinks bool

	// SkipHidden skips hidden directories, and hidden files other than
	// dotfiles named exactly like an allowed extension (default: true)
	SkipHidden bool

	// Strict requires a metadata block with a description (default: false)
	Strict bool
}

// DefaultLoaderConfig returns the default loader configuration.
func DefaultLoaderConfig() *LoaderConfig {
	return &LoaderConfig{
		MaxFileSize:       1 << 20,
		AllowedExtensions: []string{".md", ".mdc", ".cursorrules", ".windsurfrules"},
		FollowSymlinks:    true,
		SkipHidden:        true,
	}
}

// Recorder receives load and lookup measurements. The metrics collector
// implements it.
type Recorder interface {
	RecordLoad(success bool, duration time.Duration)
	SetCatalog(rulesPerDocument map[string]int)
	RecordLookup(found bool)
}

type noopRecorder struct{}

func (noopRecorder) RecordLoad(bool, time.Duration) {}
func (noopRecorder) SetCatalog(map[string]int)      {}
func (noopRecorder) RecordLookup(bool)              {}
