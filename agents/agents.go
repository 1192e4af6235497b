// Package agents runs a model in a ReAct loop over a set of tools.
package agents

import (
	"errors"
	"log/slog"

	"github.com/sevigo/docchain/llms"
	"github.com/sevigo/docchain/prompts"
)

const (
	DefaultMaxIterations = 5
	observationPrefix    = "Observation:"
	stopSequence         = "\n" + observationPrefix
)

var (
	ErrMaxIterations = errors.New("agent stopped after reaching the maximum number of iterations")
	ErrNoTools       = errors.New("agent needs at least one tool")
	ErrDuplicateTool = errors.New("duplicate tool name")
	ErrUnparsable    = errors.New("could not parse agent output")
)

// Action is a tool invocation decided by the model. Log holds the raw model
// output that produced it.
type Action struct {
	Tool      string
	ToolInput string
	Log       string
}

// Step is an action together with what the tool returned.
type Step struct {
	Action      Action
	Observation string
}

// Finish is the model's final answer.
type Finish struct {
	Output string
	Log    string
}

// Result is what an executor run produced. Steps is set even when the run
// fails.
type Result struct {
	Output string
	Steps  []Step
}

type options struct {
	logger        *slog.Logger
	maxIterations int
	prompt        prompts.PromptTemplate
	callOptions   []llms.CallOption
}

type Option func(*options)

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMaxIterations caps the number of model calls per run. Non-positive
// values keep the default.
func WithMaxIterations(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxIterations = n
		}
	}
}

// WithPrompt replaces the ReAct prompt. It must use the tools, tool_names,
// input and agent_scratchpad variables.
func WithPrompt(prompt prompts.PromptTemplate) Option {
	return func(o *options) {
		o.prompt = prompt
	}
}

func WithCallOptions(callOptions ...llms.CallOption) Option {
	return func(o *options) {
		o.callOptions = append(o.callOptions, callOptions...)
	}
}
