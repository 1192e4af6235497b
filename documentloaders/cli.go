package documentloaders

import (
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/sevigo/docchain/schema"
)

// CLICommand runs a command and uses its stdout as the document content.
type CLICommand struct {
	Command string
	Args    []string
}

var _ Loader = (*CLICommand)(nil)

func NewCLICommand(command string, args ...string) *CLICommand {
	return &CLICommand{Command: command, Args: args}
}

func (l *CLICommand) Load(ctx context.Context) ([]schema.Document, error) {
	output, err := exec.CommandContext(ctx, l.Command, l.Args...).Output()
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			return nil, fmt.Errorf("command '%s' failed: %w\nstderr: %s", l.Command, err, string(ee.Stderr))
		}
		return nil, err
	}
	doc := schema.NewDocument(string(output), map[string]any{
		"source": fmt.Sprintf("output of command '%s'", l.Command),
	})
	return []schema.Document{doc}, nil
}
