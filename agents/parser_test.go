package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOutput(t *testing.T) {
	tests := []struct {
		name       string
		output     string
		wantAction *Action
		wantFinish string
	}{
		{
			name:       "action",
			output:     "I should compute it.\nAction: calculator\nAction Input: 2 + 2",
			wantAction: &Action{Tool: "calculator", ToolInput: "2 + 2"},
		},
		{
			name:       "quoted input",
			output:     "Action: web_page\nAction Input: \"https://example.com\"",
			wantAction: &Action{Tool: "web_page", ToolInput: "https://example.com"},
		},
		{
			name:       "hallucinated observation is cut",
			output:     "Action: calculator\nAction Input: 1+1\nObservation: 2\nThought: done",
			wantAction: &Action{Tool: "calculator", ToolInput: "1+1"},
		},
		{
			name:       "final answer",
			output:     "I now know the final answer\nFinal Answer:  42 ",
			wantFinish: "42",
		},
		{
			name:       "final answer wins over action",
			output:     "Action: calculator\nAction Input: 1\nFinal Answer: done",
			wantFinish: "done",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action, finish, err := parseOutput(tt.output)
			require.NoError(t, err)
			if tt.wantAction != nil {
				require.NotNil(t, action)
				assert.Nil(t, finish)
				assert.Equal(t, tt.wantAction.Tool, action.Tool)
				assert.Equal(t, tt.wantAction.ToolInput, action.ToolInput)
				return
			}
			require.NotNil(t, finish)
			assert.Nil(t, action)
			assert.Equal(t, tt.wantFinish, finish.Output)
		})
	}
}

func TestParseOutput_Invalid(t *testing.T) {
	_, _, err := parseOutput("I am not sure what to do.")
	assert.ErrorIs(t, err, ErrUnparsable)

	_, _, err = parseOutput("Action: calculator")
	assert.ErrorIs(t, err, ErrUnparsable)
}
