package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/sevigo/docchain/chains"
	"github.com/sevigo/docchain/memory"
)

func newChatCmd(a *app) *cobra.Command {
	var (
		session string
		window  int
		reset   bool
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the model, remembering recent turns",
		Long: `Start an interactive conversation. History is kept per session in Redis
when redis.addr is configured, otherwise for the lifetime of the process.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			model, err := a.newModel(ctx)
			if err != nil {
				return err
			}
			history, closeHistory, err := a.newHistory(ctx, session)
			if err != nil {
				return err
			}
			defer closeHistory()

			buffer := memory.NewBuffer(history, window)
			if reset {
				if err := buffer.Clear(ctx); err != nil {
					return err
				}
			}
			conversation := chains.NewConversation(model, buffer, chains.WithLogger(a.logger))

			return runREPL(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), "docchain chat ("+session+")",
				func(ctx context.Context, line string) (string, error) {
					return conversation.Predict(ctx, line)
				})
		},
	}

	cmd.Flags().StringVar(&session, "session", "default", "conversation session id")
	cmd.Flags().IntVar(&window, "window", memory.DefaultWindow, "number of past turns sent to the model")
	cmd.Flags().BoolVar(&reset, "reset", false, "clear the session history before starting")
	return cmd
}
