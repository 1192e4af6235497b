package prompts

// DefaultRAGPrompt is a default prompt for Retrieval-Augmented Generation.
var DefaultRAGPrompt = NewPromptTemplate(
	`Use the following context to answer the question at the end.
If you don't know the answer, just say that you don't know, don't try to make up an answer.

Context:
{{.context}}

Question: {{.query}}

Helpful Answer:`)

// DefaultValidationPrompt asks a model whether a context is relevant to a
// question; the answer is parsed as yes or no.
var DefaultValidationPrompt = NewPromptTemplate(
	`You are an expert at evaluating whether a given context can help answer a user's question.

Context:
---
{{.context}}
---

Question: {{.query}}

Does the context contain information that is likely to be helpful in answering the question?
Answer only with "yes" or "no".

Answer:`)

// ContextQAPrompt is the short question answering prompt used by the CLI.
var ContextQAPrompt = NewPromptTemplate(
	`Answer the user's question.

Context:
{{.context}}

Question:
{{.query}}`)

// ConversationPrompt renders a chat history followed by the next input.
var ConversationPrompt = NewPromptTemplate(
	`The following is a friendly conversation between a human and an AI.

{{.history}}
Human: {{.input}}
AI:`)

// ReActPrompt drives the agent loop. The model alternates Thought, Action
// and Action Input lines and receives Observation lines back.
var ReActPrompt = NewPromptTemplate(
	`Answer the following question as best you can. You have access to the following tools:

{{.tools}}

Use the following format:

Question: the input question you must answer
Thought: you should always think about what to do
Action: the action to take, should be one of [{{.tool_names}}]
Action Input: the input to the action
Observation: the result of the action
... (this Thought/Action/Action Input/Observation can repeat N times)
Thought: I now know the final answer
Final Answer: the final answer to the original input question

Begin!

Question: {{.input}}
{{.agent_scratchpad}}`)
