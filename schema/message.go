package schema

import (
	"fmt"
	"strings"
)

type ChatMessageType string

const (
	ChatMessageTypeSystem  ChatMessageType = "system"
	ChatMessageTypeHuman   ChatMessageType = "human"
	ChatMessageTypeAI      ChatMessageType = "ai"
	ChatMessageTypeGeneric ChatMessageType = "generic"
)

// ParseChatMessageType maps a stored or user supplied role name to a
// ChatMessageType. Provider spellings ("user", "assistant") are accepted.
func ParseChatMessageType(s string) (ChatMessageType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "system":
		return ChatMessageTypeSystem, nil
	case "human", "user":
		return ChatMessageTypeHuman, nil
	case "ai", "assistant":
		return ChatMessageTypeAI, nil
	case "generic":
		return ChatMessageTypeGeneric, nil
	default:
		return "", fmt.Errorf("unknown message role %q", s)
	}
}

type ContentPart interface {
	String() string
	isPart()
}

type TextContent struct {
	Text string
}

func (tc TextContent) String() string {
	return tc.Text
}

func (TextContent) isPart() {}

type MessageContent struct {
	Role  ChatMessageType
	Parts []ContentPart
}

func (mc MessageContent) String() string {
	if len(mc.Parts) == 0 {
		return ""
	}

	var parts []string
	for _, part := range mc.Parts {
		if s := part.String(); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

func (mc MessageContent) GetTextContent() string {
	return mc.String()
}

func NewTextMessage(role ChatMessageType, text string) MessageContent {
	return MessageContent{
		Role:  role,
		Parts: []ContentPart{TextContent{Text: text}},
	}
}

func NewSystemMessage(text string) MessageContent {
	return NewTextMessage(ChatMessageTypeSystem, text)
}

func NewHumanMessage(text string) MessageContent {
	return NewTextMessage(ChatMessageTypeHuman, text)
}

func NewAIMessage(text string) MessageContent {
	return NewTextMessage(ChatMessageTypeAI, text)
}

// BufferString renders messages as "Role: text" lines, the transcript form
// used when history is injected into a plain text prompt.
func BufferString(messages []MessageContent) string {
	var sb strings.Builder
	for i, m := range messages {
		if i > 0 {
			sb.WriteByte('\n')
		}
		switch m.Role {
		case ChatMessageTypeHuman:
			sb.WriteString("Human: ")
		case ChatMessageTypeAI:
			sb.WriteString("AI: ")
		case ChatMessageTypeSystem:
			sb.WriteString("System: ")
		default:
			sb.WriteString(string(m.Role) + ": ")
		}
		sb.WriteString(m.GetTextContent())
	}
	return sb.String()
}
