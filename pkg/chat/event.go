package chat

import "github.com/Abraxas-365/wanderlust/pkg/ai/llm"

type EventType string

const (
	EventTypeToolResult EventType = "tool_result"
	EventTypeAIResponse EventType = "ai_response"
	EventTypeError      EventType = "error"
	EventTypeDone       EventType = "done"
)

// Event is what a running turn reports to the page. The concrete types below
// are the only implementations.
type Event interface {
	Type() EventType
	isEvent()
}

type EventToolResult struct {
	ToolName string `json:"tool_name"`
	Content  string `json:"content"`
}

type EventAIResponse struct {
	Content string `json:"content"`
}

type EventError struct {
	Message string `json:"message"`
}

type EventDone struct {
	ThreadID string `json:"thread_id"`
}

func (EventToolResult) Type() EventType { return EventTypeToolResult }
func (EventAIResponse) Type() EventType { return EventTypeAIResponse }
func (EventError) Type() EventType      { return EventTypeError }
func (EventDone) Type() EventType       { return EventTypeDone }

func (EventToolResult) isEvent() {}
func (EventAIResponse) isEvent() {}
func (EventError) isEvent()      {}
func (EventDone) isEvent()       {}

// EventFromMessage maps the newest message of a snapshot to a page event.
// Tool messages become tool results and AI messages with text become
// responses; everything else is silent.
func EventFromMessage(msg llm.Message) (Event, bool) {
	switch msg.Kind() {
	case llm.KindTool:
		return EventToolResult{ToolName: msg.Name, Content: msg.Content}, true
	case llm.KindAI:
		if msg.Content == "" {
			return nil, false
		}
		return EventAIResponse{Content: msg.Content}, true
	case llm.KindHuman, llm.KindSystem, llm.KindUnknown:
		return nil, false
	default:
		return nil, false
	}
}
