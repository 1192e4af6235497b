package documentloaders

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

// ErrNoLoader is returned when no loader is registered for a file extension.
var ErrNoLoader = errors.New("no loader registered for file")

// FileLoaderFactory builds a loader for a single file.
type FileLoaderFactory func(path string) Loader

// Registry maps file extensions to loader factories. It is safe for
// concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FileLoaderFactory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]FileLoaderFactory)}
}

// DefaultRegistry handles plain text and source files, HTML, Markdown, PDF,
// CSV, YAML, JSON, Terraform and Protocol Buffers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	text := func(path string) Loader { return NewText(path) }
	_ = r.Register(text,
		".txt", ".text", ".rst", ".log", ".go", ".py", ".js", ".ts", ".java", ".c", ".h",
		".cpp", ".rs", ".rb", ".sh", ".sql", ".css", ".toml")
	_ = r.Register(func(path string) Loader { return NewHTML(path) }, ".html", ".htm")
	_ = r.Register(func(path string) Loader { return NewMarkdown(path) }, ".md", ".markdown")
	_ = r.Register(func(path string) Loader { return NewPDF(path) }, ".pdf")
	_ = r.Register(func(path string) Loader { return NewCSV(path) }, ".csv")
	_ = r.Register(func(path string) Loader { return NewStructured(path) }, ".yaml", ".yml", ".json")
	_ = r.Register(func(path string) Loader { return NewTerraform(path) }, ".tf")
	_ = r.Register(func(path string) Loader { return NewProto(path) }, ".proto")
	return r
}

// Register binds factory to each extension, replacing earlier bindings.
// Extensions are matched case-insensitively, with or without a leading dot.
func (r *Registry) Register(factory FileLoaderFactory, extensions ...string) error {
	if factory == nil {
		return errors.New("cannot register nil loader factory")
	}
	if len(extensions) == 0 {
		return errors.New("at least one extension is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range extensions {
		ext = normalizeExt(ext)
		if ext == "" {
			continue
		}
		r.factories[ext] = factory
	}
	return nil
}

// LoaderFor returns a loader for path based on its extension.
func (r *Registry) LoaderFor(path string) (Loader, error) {
	ext := normalizeExt(filepath.Ext(path))

	r.mu.RLock()
	factory, ok := r.factories[ext]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoLoader, path)
	}
	return factory(path), nil
}

// Extensions lists the registered extensions in sorted order.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make([]string, 0, len(r.factories))
	for ext := range r.factories {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	return exts
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return ""
	}
	if ext[0] != '.' {
		ext = "." + ext
	}
	return ext
}
