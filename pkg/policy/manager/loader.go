package manager

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"mercator-hq/rulebook/pkg/config"
	"mercator-hq/rulebook/pkg/rulebook"
	"mercator-hq/rulebook/pkg/rulebook/parser"
)

// Loader reads rules documents from the file system and builds one registry
// per document. It supports single files and directory trees.
type Loader struct {
	config *LoaderConfig
	parser *parser.Parser
}

// NewLoader creates a loader with the given configuration. A nil config uses
// DefaultLoaderConfig.
func NewLoader(config *LoaderConfig) *Loader {
	if config == nil {
		config = DefaultLoaderConfig()
	}
	p := parser.NewParser().
		WithMaxFileSize(config.MaxFileSize).
		WithStrictMode(config.Strict)
	return &Loader{
		config: config,
		parser: p,
	}
}

// LoaderConfigFromRules derives the loader settings from the rules section
// of the process configuration.
func LoaderConfigFromRules(cfg *config.RulesConfig) *LoaderConfig {
	lc := DefaultLoaderConfig()
	if cfg == nil {
		return lc
	}
	if cfg.MaxFileSize > 0 {
		lc.MaxFileSize = cfg.MaxFileSize
	}
	if len(cfg.Extensions) > 0 {
		lc.AllowedExtensions = append([]string(nil), cfg.Extensions...)
	}
	lc.Strict = cfg.Strict
	return lc
}

// LoadPath loads a single file or every rules document under a directory.
func (l *Loader) LoadPath(path string) ([]*rulebook.Registry, error) {
	isDir, err := l.IsDirectory(path)
	if err != nil {
		return nil, err
	}
	if isDir {
		return l.LoadDirectory(path)
	}

	reg, err := l.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return []*rulebook.Registry{reg}, nil
}

// Files lists the rules documents LoadPath would read: path itself for a
// file, or every matching file under a directory in lexical order.
func (l *Loader) Files(path string) ([]string, error) {
	isDir, err := l.IsDirectory(path)
	if err != nil {
		return nil, err
	}
	if !isDir {
		return []string{path}, nil
	}
	return l.collectFiles(path)
}

// LoadFile loads a single rules document.
// It performs file size validation, UTF-8 validation, and Markdown parsing.
func (l *Loader) LoadFile(path string) (*rulebook.Registry, error) {
	fileInfo, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &LoadError{FilePath: path, Message: "file not found", Cause: err}
		}
		if os.IsPermission(err) {
			return nil, &LoadError{FilePath: path, Message: "permission denied", Cause: err}
		}
		return nil, &LoadError{FilePath: path, Message: "failed to access file", Cause: err}
	}

	if !fileInfo.Mode().IsRegular() {
		return nil, &LoadError{FilePath: path, Message: "not a regular file"}
	}

	if fileInfo.Size() > l.config.MaxFileSize {
		return nil, &LoadError{
			FilePath: path,
			Message:  fmt.Sprintf("file size %d bytes exceeds maximum %d bytes", fileInfo.Size(), l.config.MaxFileSize),
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{FilePath: path, Message: "failed to read file", Cause: err}
	}

	if !utf8.Valid(data) {
		return nil, &LoadError{FilePath: path, Message: "file contains invalid UTF-8 encoding"}
	}

	reg, err := rulebook.LoadWithParser(l.parser, data, path)
	if err != nil {
		return nil, &ParseError{FilePath: path, Cause: err}
	}

	return reg, nil
}

// LoadDirectory loads all rules documents under dir recursively, in lexical
// path order. Documents that load are returned together with an error
// listing every file that did not.
func (l *Loader) LoadDirectory(dir string) ([]*rulebook.Registry, error) {
	fileInfo, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &LoadError{FilePath: dir, Message: "directory not found", Cause: err}
		}
		return nil, &LoadError{FilePath: dir, Message: "failed to access directory", Cause: err}
	}

	if !fileInfo.IsDir() {
		return nil, &LoadError{FilePath: dir, Message: "not a directory"}
	}

	files, err := l.collectFiles(dir)
	if err != nil {
		return nil, err
	}

	if len(files) == 0 {
		return nil, &LoadError{FilePath: dir, Message: "no rules documents found in directory"}
	}

	var registries []*rulebook.Registry
	errList := &ErrorList{}

	for _, filePath := range files {
		reg, err := l.LoadFile(filePath)
		if err != nil {
			errList.Add(err)
			continue
		}
		registries = append(registries, reg)
	}

	return registries, errList.ToError()
}

// collectFiles returns the rules document paths under dir.
func (l *Loader) collectFiles(dir string) ([]string, error) {
	var files []string
	visited := make(map[string]bool)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if path != dir && l.config.SkipHidden && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			// .cursorrules and friends are dotfiles by convention
			if !l.HasValidExtension(path) || filepath.Ext(d.Name()) != d.Name() {
				return nil
			}
		}

		if d.IsDir() {
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			if !l.config.FollowSymlinks {
				return nil
			}

			realPath, err := filepath.EvalSymlinks(path)
			if err != nil {
				return &LoadError{FilePath: path, Message: "failed to resolve symlink", Cause: err}
			}

			if visited[realPath] {
				return &LoadError{FilePath: path, Message: "symlink loop detected"}
			}
			visited[realPath] = true

			if !l.HasValidExtension(realPath) {
				return nil
			}

			files = append(files, path)
			return nil
		}

		if !l.HasValidExtension(path) {
			return nil
		}

		files = append(files, path)
		return nil
	})

	if err != nil {
		return nil, &LoadError{FilePath: dir, Message: "failed to walk directory", Cause: err}
	}

	return files, nil
}

// HasValidExtension reports whether path has one of the allowed extensions.
// A dotfile such as .cursorrules counts as its own extension.
func (l *Loader) HasValidExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, validExt := range l.config.AllowedExtensions {
		if ext == strings.ToLower(validExt) {
			return true
		}
	}
	return false
}

// IsDirectory checks if the given path is a directory.
func (l *Loader) IsDirectory(path string) (bool, error) {
	fileInfo, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, &LoadError{FilePath: path, Message: "path does not exist", Cause: err}
		}
		return false, &LoadError{FilePath: path, Message: "failed to access path", Cause: err}
	}

	return fileInfo.IsDir(), nil
}

// DocumentName returns the catalog key for a registry: the metadata name when
// set, otherwise the file name without its extension.
func DocumentName(reg *rulebook.Registry) string {
	if name := strings.TrimSpace(reg.Metadata().Name); name != "" {
		return name
	}

	base := filepath.Base(reg.SourceFile())
	if name := strings.TrimSuffix(base, filepath.Ext(base)); name != "" {
		return name
	}
	return strings.TrimPrefix(base, ".")
}
