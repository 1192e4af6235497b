package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/sevigo/docchain/agents"
	"github.com/sevigo/docchain/documentloaders"
	"github.com/sevigo/docchain/tools"
)

func newAgentCmd(a *app) *cobra.Command {
	var index string

	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Ask a tool-using agent",
		Long: `Start an interactive ReAct agent with a calculator and a web page reader.
With --index the given source is indexed and offered as a search tool.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			model, err := a.newModel(ctx)
			if err != nil {
				return err
			}

			toolset := []tools.Tool{
				tools.Calculator{},
				tools.WebPage{Options: []documentloaders.Option{documentloaders.WithLogger(a.logger)}},
			}
			if index != "" {
				retriever, cleanup, err := a.indexSource(ctx, index, a.cfg.Retrieval.K)
				if err != nil {
					return err
				}
				defer cleanup()
				toolset = append(toolset, tools.NewRetriever(retriever, "", "Searches "+index+". Input is a search query."))
			}

			executor, err := agents.NewExecutor(model, toolset,
				agents.WithMaxIterations(a.cfg.Agent.MaxIterations),
				agents.WithLogger(a.logger),
			)
			if err != nil {
				return err
			}

			return runREPL(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), "docchain agent",
				func(ctx context.Context, line string) (string, error) {
					return executor.Run(ctx, line)
				})
		},
	}

	cmd.Flags().StringVar(&index, "index", "", "file, directory or URL to expose through a search tool")
	return cmd
}
