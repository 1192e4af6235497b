package prompts

import (
	"slices"

	"github.com/sevigo/docchain/schema"
)

// MessageTemplate is one role-tagged entry of a ChatPromptTemplate.
type MessageTemplate struct {
	Role        schema.ChatMessageType
	Template    PromptTemplate
	placeholder bool
}

func System(template string) MessageTemplate {
	return MessageTemplate{Role: schema.ChatMessageTypeSystem, Template: NewPromptTemplate(template)}
}

func Human(template string) MessageTemplate {
	return MessageTemplate{Role: schema.ChatMessageTypeHuman, Template: NewPromptTemplate(template)}
}

func AI(template string) MessageTemplate {
	return MessageTemplate{Role: schema.ChatMessageTypeAI, Template: NewPromptTemplate(template)}
}

// MessagesPlaceholder marks where chat history goes.
func MessagesPlaceholder() MessageTemplate {
	return MessageTemplate{placeholder: true}
}

type ChatPromptTemplate struct {
	Messages []MessageTemplate
}

func NewChatPromptTemplate(messages ...MessageTemplate) ChatPromptTemplate {
	return ChatPromptTemplate{Messages: messages}
}

// FormatMessages renders every message template with vars and inserts
// history at the placeholder. Without a placeholder, history goes right
// before the last message.
func (c ChatPromptTemplate) FormatMessages(vars map[string]string, history ...schema.MessageContent) []schema.MessageContent {
	out := make([]schema.MessageContent, 0, len(c.Messages)+len(history))
	placed := false
	for i, m := range c.Messages {
		if m.placeholder {
			out = append(out, history...)
			placed = true
			continue
		}
		if !placed && !c.hasPlaceholder() && i == len(c.Messages)-1 {
			out = append(out, history...)
			placed = true
		}
		out = append(out, schema.NewTextMessage(m.Role, m.Template.Format(vars)))
	}
	if !placed {
		out = append(out, history...)
	}
	return out
}

// InputVariables lists the placeholder names of all message templates.
func (c ChatPromptTemplate) InputVariables() []string {
	var names []string
	for _, m := range c.Messages {
		for _, name := range m.Template.InputVariables() {
			if !slices.Contains(names, name) {
				names = append(names, name)
			}
		}
	}
	return names
}

func (c ChatPromptTemplate) hasPlaceholder() bool {
	return slices.ContainsFunc(c.Messages, func(m MessageTemplate) bool { return m.placeholder })
}
