package chains_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/docchain/chains"
	"github.com/sevigo/docchain/llms"
	"github.com/sevigo/docchain/llms/fake"
	"github.com/sevigo/docchain/memory"
	"github.com/sevigo/docchain/outputparsers"
	"github.com/sevigo/docchain/prompts"
	"github.com/sevigo/docchain/schema"
)

func TestLLMChain(t *testing.T) {
	ctx := context.Background()

	t.Run("injects format instructions", func(t *testing.T) {
		llm := fake.NewFakeLLM([]string{"red, green"})
		chain := chains.NewLLMChain[[]string](llm,
			prompts.NewPromptTemplate("List {{.n}} colors. {{.format_instructions}}"),
			outputparsers.CommaSeparatedList{})
		chain.CallOptions = []llms.CallOption{llms.WithTemperature(0.1)}

		out, err := chain.Run(ctx, map[string]string{"n": "two"})
		require.NoError(t, err)
		assert.Equal(t, []string{"red", "green"}, out)

		prompt, _ := llm.LastPrompt()
		assert.Equal(t, "List two colors. "+outputparsers.CommaSeparatedList{}.FormatInstructions(), prompt)
		assert.InDelta(t, 0.1, llm.LastOptions().Temperature, 1e-9)
	})

	t.Run("missing variable", func(t *testing.T) {
		llm := fake.NewFakeLLM([]string{"x"})
		chain := chains.NewLLMChain[string](llm, prompts.NewPromptTemplate("{{.a}}"), outputparsers.String{})
		_, err := chain.Run(ctx, nil)
		assert.ErrorIs(t, err, prompts.ErrMissingVariable)
		assert.Equal(t, 0, llm.GetCallCount())
	})

	t.Run("parse error", func(t *testing.T) {
		llm := fake.NewFakeLLM([]string{"maybe"})
		chain := chains.NewLLMChain[bool](llm, prompts.NewPromptTemplate("ok?"), outputparsers.Boolean{})
		_, err := chain.Run(ctx, nil)
		assert.ErrorIs(t, err, outputparsers.ErrParse)
	})
}

func TestStuffDocuments(t *testing.T) {
	llm := fake.NewFakeLLM([]string{"done"})
	stuff := chains.NewStuffDocuments(llm, prompts.NewPromptTemplate("{{.context}}|{{.query}}"))

	docs := []schema.Document{{PageContent: "a"}, {PageContent: "b"}}
	assert.Equal(t, "a\n\nb", stuff.FormatContext(docs))

	out, err := stuff.Call(context.Background(), docs, map[string]string{"query": "q"})
	require.NoError(t, err)
	assert.Equal(t, "done", out)
	prompt, _ := llm.LastPrompt()
	assert.Equal(t, "a\n\nb|q", prompt)
}

func TestConversation(t *testing.T) {
	ctx := context.Background()
	llm := fake.NewFakeLLM([]string{" Hello Ada! ", "Your name is Ada."})
	buffer := memory.NewBuffer(memory.NewInMemory(), 3)
	conv := chains.NewConversation(llm, buffer, chains.WithPrompt(prompts.NewPromptTemplate("{{.history}}\n> {{.input}}")))

	out, err := conv.Predict(ctx, "I am Ada")
	require.NoError(t, err)
	assert.Equal(t, "Hello Ada!", out)

	out, err = conv.Predict(ctx, "Who am I?")
	require.NoError(t, err)
	assert.Equal(t, "Your name is Ada.", out)

	prompt, _ := llm.LastPrompt()
	assert.Equal(t, "Human: I am Ada\nAI: Hello Ada!\n> Who am I?", prompt)

	msgs, err := buffer.LoadMessages(ctx)
	require.NoError(t, err)
	assert.Len(t, msgs, 4)

	_, err = conv.Predict(ctx, "")
	assert.ErrorIs(t, err, chains.ErrEmptyQuery)
}
