package agents

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sevigo/docchain/llms"
	"github.com/sevigo/docchain/prompts"
	"github.com/sevigo/docchain/tools"
)

// Executor alternates model calls and tool calls until the model gives a
// final answer or the iteration cap is hit. Tool failures, unknown tools and
// malformed model output are fed back to the model as observations.
type Executor struct {
	llm           llms.Model
	tools         []tools.Tool
	byName        map[string]tools.Tool
	maxIterations int
	prompt        prompts.PromptTemplate
	callOptions   []llms.CallOption
	logger        *slog.Logger
}

func NewExecutor(llm llms.Model, toolset []tools.Tool, opts ...Option) (*Executor, error) {
	if llm == nil {
		return nil, errors.New("agent model cannot be nil")
	}
	if len(toolset) == 0 {
		return nil, ErrNoTools
	}

	o := options{
		logger:        slog.Default(),
		maxIterations: DefaultMaxIterations,
		prompt:        prompts.ReActPrompt,
	}
	for _, opt := range opts {
		opt(&o)
	}

	byName := make(map[string]tools.Tool, len(toolset))
	for _, t := range toolset {
		if _, exists := byName[t.Name()]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTool, t.Name())
		}
		byName[t.Name()] = t
	}

	return &Executor{
		llm:           llm,
		tools:         toolset,
		byName:        byName,
		maxIterations: o.maxIterations,
		prompt:        o.prompt,
		callOptions:   append(o.callOptions, llms.WithStopWords(stopSequence)),
		logger:        o.logger.With("component", "agent_executor"),
	}, nil
}

// Run returns only the final answer.
func (e *Executor) Run(ctx context.Context, input string) (string, error) {
	result, err := e.Call(ctx, input)
	if err != nil {
		return "", err
	}
	return result.Output, nil
}

// Call runs the loop for input. When the cap is reached the returned result
// holds every step taken and the error wraps ErrMaxIterations.
func (e *Executor) Call(ctx context.Context, input string) (*Result, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, tools.ErrEmptyInput
	}

	result := &Result{}
	for iteration := 1; iteration <= e.maxIterations; iteration++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		prompt := e.prompt.Format(map[string]string{
			"tools":            e.describeTools(),
			"tool_names":       e.toolNames(),
			"input":            input,
			"agent_scratchpad": scratchpad(result.Steps),
		})

		output, err := e.llm.Call(ctx, prompt, e.callOptions...)
		if err != nil {
			return result, fmt.Errorf("agent model call failed: %w", err)
		}

		action, finish, err := parseOutput(output)
		if err != nil {
			e.logger.WarnContext(ctx, "Unparsable agent output", "iteration", iteration, "error", err)
			result.Steps = append(result.Steps, Step{
				Action:      Action{Tool: "_exception", ToolInput: output, Log: strings.TrimSpace(output)},
				Observation: "Invalid format. Reply with either an Action and Action Input, or a Final Answer.",
			})
			continue
		}
		if finish != nil {
			e.logger.DebugContext(ctx, "Agent finished", "iterations", iteration)
			result.Output = finish.Output
			return result, nil
		}

		observation := e.execute(ctx, *action)
		result.Steps = append(result.Steps, Step{Action: *action, Observation: observation})
	}

	e.logger.WarnContext(ctx, "Agent reached iteration cap", "max_iterations", e.maxIterations)
	return result, fmt.Errorf("%w (%d)", ErrMaxIterations, e.maxIterations)
}

func (e *Executor) execute(ctx context.Context, action Action) string {
	tool, ok := e.byName[action.Tool]
	if !ok {
		return fmt.Sprintf("%s is not a valid tool, try one of [%s].", action.Tool, e.toolNames())
	}

	e.logger.DebugContext(ctx, "Calling tool", "tool", action.Tool, "input", action.ToolInput)
	observation, err := tool.Call(ctx, action.ToolInput)
	if err != nil {
		e.logger.WarnContext(ctx, "Tool call failed", "tool", action.Tool, "error", err)
		return "Error: " + err.Error()
	}
	return observation
}

func (e *Executor) describeTools() string {
	lines := make([]string, len(e.tools))
	for i, t := range e.tools {
		lines[i] = t.Name() + ": " + t.Description()
	}
	return strings.Join(lines, "\n")
}

func (e *Executor) toolNames() string {
	names := make([]string, len(e.tools))
	for i, t := range e.tools {
		names[i] = t.Name()
	}
	return strings.Join(names, ", ")
}

func scratchpad(steps []Step) string {
	var sb strings.Builder
	for _, step := range steps {
		sb.WriteString(step.Action.Log)
		sb.WriteString("\n" + observationPrefix + " ")
		sb.WriteString(step.Observation)
		sb.WriteString("\nThought: ")
	}
	return sb.String()
}
