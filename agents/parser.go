package agents

import (
	"fmt"
	"regexp"
	"strings"
)

const finalAnswerPrefix = "Final Answer:"

var actionRe = regexp.MustCompile(`(?s)Action\s*:\s*(.*?)\s*\n\s*Action\s*Input\s*:\s*(.*)`)

// parseOutput reads one model turn. It returns either an action or a finish.
// A final answer wins over an action in the same turn.
func parseOutput(output string) (*Action, *Finish, error) {
	output, _, _ = strings.Cut(output, stopSequence)

	if idx := strings.LastIndex(output, finalAnswerPrefix); idx >= 0 {
		answer := strings.TrimSpace(output[idx+len(finalAnswerPrefix):])
		return nil, &Finish{Output: answer, Log: output}, nil
	}

	match := actionRe.FindStringSubmatch(output)
	if match == nil {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnparsable, output)
	}

	tool := strings.TrimSpace(match[1])
	input := strings.TrimSpace(match[2])
	input = strings.Trim(input, `"`)
	return &Action{Tool: tool, ToolInput: input, Log: output}, nil, nil
}
