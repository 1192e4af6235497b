package documentloaders

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"github.com/sevigo/docchain/gitutil"
	"github.com/sevigo/docchain/schema"
)

const maxFileSize = 10 * 1024 * 1024

// Git loads the files of a local checkout. Each file is handed to the loader
// registered for its extension; files without one are skipped.
//
// The loader skips:
//   - version control, dependency and build directories
//   - binary extensions
//   - files over 10MB
type Git struct {
	path     string
	registry *Registry
	logger   *slog.Logger
}

var _ Loader = (*Git)(nil)

func NewGit(path string, opts ...Option) *Git {
	o := applyOptions(opts...)
	if o.registry == nil {
		o.registry = DefaultRegistry()
	}
	return &Git{
		path:     path,
		registry: o.registry,
		logger:   o.logger.With("component", "git_loader"),
	}
}

func (g *Git) Load(ctx context.Context) ([]schema.Document, error) {
	g.logger.InfoContext(ctx, "Starting git repository load", "path", g.path)

	var documents []schema.Document
	err := filepath.WalkDir(g.path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			g.logger.Warn("Skipping unreadable path", "path", path, "error", err)
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if d.IsDir() {
			if path != g.path && shouldSkipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		info, err := d.Info()
		if err != nil {
			g.logger.Warn("Could not get file info, skipping", "path", path, "error", err)
			return nil
		}
		if shouldSkipFile(path, info) {
			g.logger.Debug("Skipping excluded file", "path", path, "size", info.Size())
			return nil
		}

		documents = append(documents, g.loadFile(ctx, path, info)...)
		return nil
	})
	if err != nil {
		g.logger.ErrorContext(ctx, "Repository walk failed", "error", err)
		return nil, err
	}

	g.logger.InfoContext(ctx, "Git repository load completed", "path", g.path, "total_documents", len(documents))
	return documents, nil
}

func (g *Git) loadFile(ctx context.Context, path string, info fs.FileInfo) []schema.Document {
	loader, err := g.registry.LoaderFor(path)
	if errors.Is(err, ErrNoLoader) {
		g.logger.Debug("No loader for file, skipping", "path", path)
		return nil
	}

	docs, err := loader.Load(ctx)
	if err != nil {
		g.logger.Warn("Cannot load file, skipping", "path", path, "error", err)
		return nil
	}

	relPath, err := filepath.Rel(g.path, path)
	if err != nil {
		relPath = path
	}
	relPath = filepath.ToSlash(relPath)

	for i := range docs {
		if docs[i].Metadata == nil {
			docs[i].Metadata = make(map[string]any)
		}
		docs[i].Metadata["source"] = relPath
		docs[i].Metadata["file_size"] = info.Size()
		docs[i].Metadata["mod_time"] = info.ModTime()
	}
	return docs
}

func shouldSkipDir(name string) bool {
	skipDirs := []string{
		".git", ".svn", ".hg",
		"vendor", "node_modules", "__pycache__",
		"build", "dist", "target", "out", "bin",
		".vscode", ".idea", ".vs",
	}
	return slices.Contains(skipDirs, name)
}

func shouldSkipFile(path string, info fs.FileInfo) bool {
	if info.Size() > maxFileSize {
		return true
	}

	binaryExts := map[string]bool{
		".exe": true, ".dll": true, ".so": true, ".dylib": true,
		".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
		".bmp": true, ".tiff": true, ".svg": true, ".ico": true,
		".zip": true, ".tar": true, ".gz": true, ".rar": true,
		".7z": true, ".bz2": true, ".xz": true,
		".mp3": true, ".mp4": true, ".avi": true, ".mov": true,
		".wav": true, ".flac": true, ".ogg": true,
		".doc": true, ".docx": true, ".xls": true, ".xlsx": true,
		".ppt": true, ".pptx": true,
		".bin": true, ".dat": true, ".db": true, ".sqlite": true,
	}
	return binaryExts[strings.ToLower(filepath.Ext(path))]
}

// RemoteGit clones a repository into a temporary directory, loads it with
// Git and removes the clone afterwards.
type RemoteGit struct {
	repoURL string
	cloner  *gitutil.Cloner
	opts    []Option
}

var _ Loader = (*RemoteGit)(nil)

// NewRemoteGit uses cloner when non-nil, otherwise a shallow default clone.
func NewRemoteGit(repoURL string, cloner *gitutil.Cloner, opts ...Option) *RemoteGit {
	if cloner == nil {
		cloner = gitutil.NewCloner(gitutil.WithLogger(applyOptions(opts...).logger))
	}
	return &RemoteGit{repoURL: repoURL, cloner: cloner, opts: opts}
}

func (l *RemoteGit) Load(ctx context.Context) ([]schema.Document, error) {
	tempPath, cleanup, err := l.cloner.Clone(ctx, l.repoURL)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	documents, err := NewGit(tempPath, l.opts...).Load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range documents {
		documents[i].Metadata["repository"] = l.repoURL
	}
	return documents, nil
}
