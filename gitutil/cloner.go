// Package gitutil clones remote repositories into throwaway directories.
package gitutil

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Cloner handles the temporary cloning of remote Git repositories.
type Cloner struct {
	logger *slog.Logger
	branch string
	depth  int
}

type Option func(*Cloner)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Cloner) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithBranch checks out branch instead of the remote HEAD.
func WithBranch(branch string) Option {
	return func(c *Cloner) {
		c.branch = branch
	}
}

// WithDepth limits history; zero clones everything.
func WithDepth(depth int) Option {
	return func(c *Cloner) {
		if depth >= 0 {
			c.depth = depth
		}
	}
}

// NewCloner creates a Cloner doing shallow (depth 1) clones by default.
func NewCloner(opts ...Option) *Cloner {
	c := &Cloner{logger: slog.Default(), depth: 1}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "git_cloner")
	return c
}

// CloneOptions returns the go-git options used for repoURL.
func (c *Cloner) CloneOptions(repoURL string) *git.CloneOptions {
	opts := &git.CloneOptions{
		URL:   repoURL,
		Depth: c.depth,
	}
	if c.branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(c.branch)
		opts.SingleBranch = true
	}
	return opts
}

// Clone checks out repoURL into a new temporary directory. The returned
// cleanup func removes it; on error nothing is left behind.
func (c *Cloner) Clone(ctx context.Context, repoURL string) (string, func(), error) {
	tempPath, err := os.MkdirTemp("", "docchain-repo-*")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	c.logger.InfoContext(ctx, "Cloning repository", "url", repoURL, "path", tempPath, "branch", c.branch)

	cleanup := func() {
		c.logger.Debug("Cleaning up temporary repository", "path", tempPath)
		_ = os.RemoveAll(tempPath)
	}

	if _, err := git.PlainCloneContext(ctx, tempPath, false, c.CloneOptions(repoURL)); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to clone repo '%s': %w", repoURL, err)
	}

	c.logger.InfoContext(ctx, "Repository cloned successfully", "path", tempPath)
	return tempPath, cleanup, nil
}
