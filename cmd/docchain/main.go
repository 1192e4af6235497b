// Command docchain splits, indexes and questions documents from the shell.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sevigo/docchain/config"
)

// app is the state shared by all subcommands once the root command has
// loaded the configuration.
type app struct {
	configPath string
	verbose    bool
	offline    bool

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "docchain",
		Short: "Split, index and ask questions about documents",
		Long: `docchain loads documents from files, directories and web pages, splits
them into overlapping chunks and answers questions over them with a language
model of your choice.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = cfg.NewLogger(cmd.ErrOrStderr(), a.verbose)
			slog.SetDefault(a.logger)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "config file path (YAML)")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&a.offline, "offline", false, "use the hashing embedder and skip model calls where possible")

	rootCmd.AddCommand(
		newSplitCmd(a),
		newAskCmd(a),
		newChatCmd(a),
		newAgentCmd(a),
	)
	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
