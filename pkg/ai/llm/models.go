package llm

// Role constants
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Kind is the closed set of message variants a conversation can hold.
// Renderers switch on Kind instead of comparing role strings.
type Kind int

const (
	KindUnknown Kind = iota
	KindHuman
	KindAI
	KindSystem
	KindTool
)

func (k Kind) String() string {
	switch k {
	case KindHuman:
		return "human"
	case KindAI:
		return "ai"
	case KindSystem:
		return "system"
	case KindTool:
		return "tool"
	default:
		return "unknown"
	}
}

// Message represents a chat message
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content,omitempty"`
	Name       string     `json:"name,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// Kind returns the message variant derived from its role
func (m Message) Kind() Kind {
	switch m.Role {
	case RoleUser:
		return KindHuman
	case RoleAssistant:
		return KindAI
	case RoleSystem:
		return KindSystem
	case RoleTool:
		return KindTool
	default:
		return KindUnknown
	}
}

// HasToolCalls reports whether the message asks for tool invocation
func (m Message) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}

// Usage represents token usage statistics
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// FunctionCall represents a function call in a message
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Function describes a callable function
type Function struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Parameters  any    `json:"parameters"` // JSON Schema object
}

// ToolCall represents a tool call
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// Tool represents a callable tool
type Tool struct {
	Type     string   `json:"type"`
	Function Function `json:"function"`
}

// NewUserMessage creates a new user message
func NewUserMessage(content string) Message {
	return Message{
		Role:    RoleUser,
		Content: content,
	}
}

// NewSystemMessage creates a new system message
func NewSystemMessage(content string) Message {
	return Message{
		Role:    RoleSystem,
		Content: content,
	}
}

// NewAssistantMessage creates a new assistant message
func NewAssistantMessage(content string) Message {
	return Message{
		Role:    RoleAssistant,
		Content: content,
	}
}

// NewToolMessage creates a new tool message. name is the tool that produced it.
func NewToolMessage(toolCallID, name, content string) Message {
	return Message{
		Role:       RoleTool,
		ToolCallID: toolCallID,
		Name:       name,
		Content:    content,
	}
}

// UnansweredToolCalls returns the tool calls of the newest AI message that no
// later tool message answers, in call order
func UnansweredToolCalls(messages []Message) []ToolCall {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Kind() != KindAI {
			continue
		}

		answered := make(map[string]bool)
		for _, later := range messages[i+1:] {
			if later.Kind() == KindTool {
				answered[later.ToolCallID] = true
			}
		}

		var pending []ToolCall
		for _, tc := range messages[i].ToolCalls {
			if !answered[tc.ID] {
				pending = append(pending, tc)
			}
		}
		return pending
	}
	return nil
}
