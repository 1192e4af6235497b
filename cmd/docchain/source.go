package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sevigo/docchain/documentloaders"
	"github.com/sevigo/docchain/gitutil"
	"github.com/sevigo/docchain/schema"
	"github.com/sevigo/docchain/textsplitter"
)

// loaderFor picks a loader for a source argument: a git remote, a web page,
// a local directory or a single file.
func (a *app) loaderFor(source string) (documentloaders.Loader, error) {
	opts := []documentloaders.Option{documentloaders.WithLogger(a.logger)}

	switch {
	case strings.HasSuffix(source, ".git") || strings.HasPrefix(source, "git@"):
		return documentloaders.NewRemoteGit(source, gitutil.NewCloner(gitutil.WithLogger(a.logger)), opts...), nil
	case strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://"):
		return documentloaders.NewWeb(source, opts...), nil
	}

	info, err := os.Stat(source)
	if err != nil {
		return nil, fmt.Errorf("cannot read source: %w", err)
	}
	if info.IsDir() {
		return documentloaders.NewGit(source, opts...), nil
	}
	return documentloaders.DefaultRegistry().LoaderFor(source)
}

// splitOverrides holds command-line values that replace the splitter section
// of the config. A nil field keeps the configured value.
type splitOverrides struct {
	chunkSize    *int
	chunkOverlap *int
	startIndex   bool
}

// newSplitter builds the splitter from the config and any overrides. Override
// values are passed through unchecked so the splitter rejects invalid ones.
func (a *app) newSplitter(overrides splitOverrides) (*textsplitter.RecursiveCharacter, error) {
	cfg := a.cfg.Splitter
	if overrides.chunkSize != nil {
		cfg.ChunkSize = *overrides.chunkSize
	}
	if overrides.chunkOverlap != nil {
		cfg.ChunkOverlap = *overrides.chunkOverlap
	}
	return textsplitter.NewRecursiveCharacter(
		textsplitter.WithConfig(cfg),
		textsplitter.WithStartIndex(overrides.startIndex),
		textsplitter.WithLogger(a.logger),
	)
}

func (a *app) loadChunks(ctx context.Context, source string, splitter textsplitter.TextSplitter) ([]schema.Document, error) {
	loader, err := a.loaderFor(source)
	if err != nil {
		return nil, err
	}
	chunks, err := documentloaders.LoadAndSplit(ctx, loader, splitter)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", source, err)
	}
	a.logger.InfoContext(ctx, "Source loaded", "source", source, "chunks", len(chunks))
	return chunks, nil
}
