package prompts_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/docchain/prompts"
	"github.com/sevigo/docchain/schema"
)

func TestPromptTemplate(t *testing.T) {
	tmpl := prompts.NewPromptTemplate("Hi {{.name}}, {{.greeting}} {{.name}}!")

	t.Run("format", func(t *testing.T) {
		out := tmpl.Format(map[string]string{"name": "Ada", "greeting": "welcome"})
		assert.Equal(t, "Hi Ada, welcome Ada!", out)
	})

	t.Run("lenient format keeps unknown placeholders", func(t *testing.T) {
		out := tmpl.Format(map[string]string{"name": "Ada"})
		assert.Equal(t, "Hi Ada, {{.greeting}} Ada!", out)
	})

	t.Run("values are not expanded again", func(t *testing.T) {
		out := tmpl.Format(map[string]string{"name": "{{.greeting}}", "greeting": "x"})
		assert.Equal(t, "Hi {{.greeting}}, x {{.greeting}}!", out)
	})

	t.Run("strict", func(t *testing.T) {
		_, err := tmpl.FormatStrict(map[string]string{"name": "Ada"})
		require.ErrorIs(t, err, prompts.ErrMissingVariable)
		assert.ErrorContains(t, err, "greeting")

		out, err := tmpl.FormatStrict(map[string]string{"name": "Ada", "greeting": "hello"})
		require.NoError(t, err)
		assert.Equal(t, "Hi Ada, hello Ada!", out)
	})

	t.Run("input variables", func(t *testing.T) {
		assert.Equal(t, []string{"name", "greeting"}, tmpl.InputVariables())
		assert.True(t, tmpl.HasVariable("greeting"))
		assert.False(t, tmpl.HasVariable("context"))
	})
}

func TestBuiltinPrompts(t *testing.T) {
	assert.Equal(t, []string{"context", "query"}, prompts.DefaultRAGPrompt.InputVariables())
	assert.Equal(t, []string{"context", "query"}, prompts.DefaultValidationPrompt.InputVariables())
	assert.Equal(t, []string{"context", "query"}, prompts.ContextQAPrompt.InputVariables())
	assert.Equal(t, []string{"tools", "tool_names", "input", "agent_scratchpad"}, prompts.ReActPrompt.InputVariables())
}

func TestChatPromptTemplate(t *testing.T) {
	history := []schema.MessageContent{
		schema.NewHumanMessage("hi"),
		schema.NewAIMessage("hello"),
	}

	t.Run("placeholder", func(t *testing.T) {
		tmpl := prompts.NewChatPromptTemplate(
			prompts.System("You are {{.persona}}."),
			prompts.MessagesPlaceholder(),
			prompts.Human("{{.input}}"),
		)
		msgs := tmpl.FormatMessages(map[string]string{"persona": "terse", "input": "how are you?"}, history...)
		require.Len(t, msgs, 4)
		assert.Equal(t, schema.ChatMessageTypeSystem, msgs[0].Role)
		assert.Equal(t, "You are terse.", msgs[0].GetTextContent())
		assert.Equal(t, "hi", msgs[1].GetTextContent())
		assert.Equal(t, "hello", msgs[2].GetTextContent())
		assert.Equal(t, schema.ChatMessageTypeHuman, msgs[3].Role)
		assert.Equal(t, "how are you?", msgs[3].GetTextContent())
		assert.Equal(t, []string{"persona", "input"}, tmpl.InputVariables())
	})

	t.Run("history before last message without placeholder", func(t *testing.T) {
		tmpl := prompts.NewChatPromptTemplate(
			prompts.System("sys"),
			prompts.AI("ok"),
			prompts.Human("{{.input}}"),
		)
		msgs := tmpl.FormatMessages(map[string]string{"input": "q"}, history...)
		require.Len(t, msgs, 5)
		assert.Equal(t, "hello", msgs[3].GetTextContent())
		assert.Equal(t, "q", msgs[4].GetTextContent())
	})
}
