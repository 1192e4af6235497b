package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sevigo/docchain/chains"
	"github.com/sevigo/docchain/schema"
	"github.com/sevigo/docchain/vectorstores"
)

func newAskCmd(a *app) *cobra.Command {
	var k int

	cmd := &cobra.Command{
		Use:   "ask <file|dir|url> <question>",
		Short: "Answer a question from the contents of a source",
		Long: `Load and split a source, index the chunks in the configured vector store
and answer the question from the closest chunks.

With --offline the retrieved chunks are printed instead of an answer.

Examples:
  docchain ask docs/ "How do I configure TLS?"
  docchain --offline ask notes.md "deadline"`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if k <= 0 {
				k = a.cfg.Retrieval.K
			}
			question := strings.Join(args[1:], " ")
			return a.runAsk(cmd.Context(), cmd.OutOrStdout(), args[0], question, k)
		},
	}

	cmd.Flags().IntVarP(&k, "top-k", "k", 0, "number of chunks to retrieve (0 uses the config)")
	return cmd
}

func (a *app) runAsk(ctx context.Context, out io.Writer, source, question string, k int) error {
	retriever, cleanup, err := a.indexSource(ctx, source, k)
	if err != nil {
		return err
	}
	defer cleanup()

	st := newStyles()
	if a.offline {
		docs, err := retriever.GetRelevantDocuments(ctx, question)
		if err != nil {
			return err
		}
		if len(docs) == 0 {
			fmt.Fprintln(out, "No relevant chunks found.")
			return nil
		}
		for i, doc := range docs {
			fmt.Fprintln(out, st.Title.Render(fmt.Sprintf("[%d] %s", i+1, doc.Source())))
			fmt.Fprintln(out, doc.PageContent)
			fmt.Fprintln(out)
		}
		return nil
	}

	model, err := a.newModel(ctx)
	if err != nil {
		return err
	}
	qa := chains.NewRetrievalQA(retriever, model, chains.WithLogger(a.logger))
	answer, err := qa.CallWithSources(ctx, question)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, answer.Text)
	if sources := uniqueSources(answer.Sources); len(sources) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, st.Source.Render("Sources: "+strings.Join(sources, ", ")))
	}
	return nil
}

// indexSource loads source into a fresh vector store and returns a retriever
// over it.
func (a *app) indexSource(ctx context.Context, source string, k int) (schema.Retriever, func(), error) {
	splitter, err := a.newSplitter(splitOverrides{})
	if err != nil {
		return nil, nil, err
	}
	chunks, err := a.loadChunks(ctx, source, splitter)
	if err != nil {
		return nil, nil, err
	}

	embedder, err := a.newEmbedder(ctx)
	if err != nil {
		return nil, nil, err
	}
	store, cleanup, err := a.newStore(embedder)
	if err != nil {
		return nil, nil, err
	}
	if len(chunks) == 0 {
		a.logger.WarnContext(ctx, "Source produced no chunks", "source", source)
		return noDocuments{}, cleanup, nil
	}
	if _, err := store.AddDocuments(ctx, chunks); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("indexing %s: %w", source, err)
	}
	return vectorstores.ToRetriever(store, k, a.retrievalOptions()...), cleanup, nil
}

// noDocuments answers every query with nothing. It stands in for a store
// whose collection was never created because the source was empty.
type noDocuments struct{}

func (noDocuments) GetRelevantDocuments(context.Context, string) ([]schema.Document, error) {
	return []schema.Document{}, nil
}

func uniqueSources(docs []schema.Document) []string {
	seen := make(map[string]bool)
	var sources []string
	for _, doc := range docs {
		src := doc.Source()
		if src == "" || seen[src] {
			continue
		}
		seen[src] = true
		sources = append(sources, src)
	}
	return sources
}
