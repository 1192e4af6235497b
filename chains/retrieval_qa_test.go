package chains_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/docchain/chains"
	"github.com/sevigo/docchain/llms/fake"
	"github.com/sevigo/docchain/prompts"
	"github.com/sevigo/docchain/schema"
	fakeretriever "github.com/sevigo/docchain/schema/fake"
)

func TestRetrievalQA_Call(t *testing.T) {
	ctx := context.Background()

	t.Run("Success with documents", func(t *testing.T) {
		retrievedDocs := []schema.Document{
			{PageContent: "The sky is blue."},
			{PageContent: "Grass is green."},
		}

		expectedPrompt := fmt.Sprintf(`Use the following context to answer the question at the end.
If you don't know the answer, just say that you don't know, don't try to make up an answer.

Context:
%s

Question: What colors are in nature?

Helpful Answer:`, "The sky is blue.\n\nGrass is green.")

		fakeLLM := fake.NewFakeLLM([]string{"Blue and green are colors in nature."})
		ragChain := chains.NewRetrievalQA(fakeretriever.NewRetriever(retrievedDocs...), fakeLLM)

		answer, err := ragChain.CallWithSources(ctx, "What colors are in nature?")
		require.NoError(t, err)
		assert.Equal(t, "Blue and green are colors in nature.", answer.Text)
		assert.Equal(t, retrievedDocs, answer.Sources)

		lastPrompt, _ := fakeLLM.LastPrompt()
		assert.Equal(t, expectedPrompt, lastPrompt)
	})

	t.Run("Custom prompt", func(t *testing.T) {
		fakeLLM := fake.NewFakeLLM([]string{"ok"})
		ragChain := chains.NewRetrievalQA(
			fakeretriever.NewRetriever(schema.Document{PageContent: "ctx"}),
			fakeLLM,
			chains.WithPrompt(prompts.ContextQAPrompt),
		)

		_, err := ragChain.Call(ctx, "q?")
		require.NoError(t, err)
		lastPrompt, _ := fakeLLM.LastPrompt()
		assert.Equal(t, "Answer the user's question.\n\nContext:\nctx\n\nQuestion:\nq?", lastPrompt)
	})

	t.Run("Fallback when no documents are found", func(t *testing.T) {
		fakeLLM := fake.NewFakeLLM([]string{"I'm not sure, I have no context."})
		ragChain := chains.NewRetrievalQA(fakeretriever.NewRetriever(), fakeLLM)

		answer, err := ragChain.CallWithSources(ctx, "A question with no context.")
		require.NoError(t, err)
		assert.Equal(t, "I'm not sure, I have no context.", answer.Text)
		assert.Empty(t, answer.Sources)

		lastPrompt, _ := fakeLLM.LastPrompt()
		assert.Equal(t, "A question with no context.", lastPrompt)
	})

	t.Run("Error during document retrieval", func(t *testing.T) {
		retrievalErr := errors.New("database connection failed")
		fakeLLM := fake.NewFakeLLM([]string{})
		fakeRetriever := fakeretriever.NewRetriever()
		fakeRetriever.ErrToReturn = retrievalErr

		_, err := chains.NewRetrievalQA(fakeRetriever, fakeLLM).Call(ctx, "Any question.")
		require.ErrorIs(t, err, retrievalErr)
		assert.Contains(t, err.Error(), "document retrieval failed")
		assert.Equal(t, 0, fakeLLM.GetCallCount(), "LLM should not have been called when retrieval fails")
	})

	t.Run("Empty query", func(t *testing.T) {
		_, err := chains.NewRetrievalQA(fakeretriever.NewRetriever(), fake.NewFakeLLM(nil)).Call(ctx, "  ")
		assert.ErrorIs(t, err, chains.ErrEmptyQuery)
	})
}

func TestValidatingRetrievalQA(t *testing.T) {
	ctx := context.Background()
	docs := []schema.Document{{PageContent: "Go was released in 2009."}}

	t.Run("requires validator", func(t *testing.T) {
		_, err := chains.NewValidatingRetrievalQA(fakeretriever.NewRetriever(docs...), fake.NewFakeLLM(nil))
		assert.Error(t, err)

		_, err = chains.NewValidatingRetrievalQA(nil, fake.NewFakeLLM(nil))
		assert.ErrorIs(t, err, chains.ErrNilRetriever)
	})

	t.Run("relevant context", func(t *testing.T) {
		validator := fake.NewFakeLLM([]string{"Yes."})
		generator := fake.NewFakeLLM([]string{"2009"})
		chain, err := chains.NewValidatingRetrievalQA(fakeretriever.NewRetriever(docs...), generator, chains.WithValidator(validator))
		require.NoError(t, err)

		answer, err := chain.Call(ctx, "When was Go released?")
		require.NoError(t, err)
		assert.Equal(t, "2009", answer)

		validationPrompt, _ := validator.LastPrompt()
		assert.Contains(t, validationPrompt, "Go was released in 2009.")
		generationPrompt, _ := generator.LastPrompt()
		assert.Contains(t, generationPrompt, "Context:\nGo was released in 2009.")
	})

	for name, verdict := range map[string]string{"irrelevant context": "no", "unclear verdict": "perhaps"} {
		t.Run(name, func(t *testing.T) {
			validator := fake.NewFakeLLM([]string{verdict})
			generator := fake.NewFakeLLM([]string{"direct"})
			chain, err := chains.NewValidatingRetrievalQA(fakeretriever.NewRetriever(docs...), generator, chains.WithValidator(validator))
			require.NoError(t, err)

			answer, err := chain.Call(ctx, "What is the weather?")
			require.NoError(t, err)
			assert.Equal(t, "direct", answer)
			generationPrompt, _ := generator.LastPrompt()
			assert.Equal(t, "What is the weather?", generationPrompt)
		})
	}
}
