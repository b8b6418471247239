package mock

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/Abraxas-365/wanderlust/pkg/ai/llm"
	"github.com/google/uuid"
)

var (
	weatherPattern = regexp.MustCompile(`(?i)weather\s+(?:in|for|at)\s+([^?.!,]+)`)
	countryPattern = regexp.MustCompile(`\b(?:[Aa]bout|[Vv]isit(?:ing)?|[Tt]o|[Ii]n)\s+(\p{Lu}\p{L}*)`)
)

// Provider is a deterministic offline model. It asks for weather_info when a
// user asks about the weather somewhere, for retrieve_places when a country
// is named, and answers with the tool output once results come back.
type Provider struct{}

func NewProvider() *Provider {
	return &Provider{}
}

var _ llm.LLM = (*Provider)(nil)

func (p *Provider) Chat(ctx context.Context, messages []llm.Message, opts ...llm.Option) (llm.Response, error) {
	if err := ctx.Err(); err != nil {
		return llm.Response{}, err
	}

	options := llm.Apply(opts...)
	reply := p.respond(messages, options)

	return llm.Response{
		Message: reply,
		Usage: llm.Usage{
			PromptTokens:     estimateTokens(messages),
			CompletionTokens: len(reply.Content) / 4,
			TotalTokens:      estimateTokens(messages) + len(reply.Content)/4,
		},
	}, nil
}

func (p *Provider) respond(messages []llm.Message, options *llm.ChatOptions) llm.Message {
	if len(messages) == 0 {
		return llm.NewAssistantMessage("[MOCK] How can I help you plan your trip?")
	}

	last := messages[len(messages)-1]
	switch last.Kind() {
	case llm.KindTool:
		return llm.NewAssistantMessage("Here is what I found: " + strings.Join(trailingToolResults(messages), " "))
	case llm.KindHuman:
		if call, ok := pickTool(last.Content, options.Tools); ok {
			return llm.Message{Role: llm.RoleAssistant, ToolCalls: []llm.ToolCall{call}}
		}
		return llm.NewAssistantMessage(fmt.Sprintf("[MOCK] You said: %q", last.Content))
	case llm.KindAI, llm.KindSystem, llm.KindUnknown:
		return llm.NewAssistantMessage("[MOCK] How can I help you plan your trip?")
	default:
		return llm.NewAssistantMessage("[MOCK] How can I help you plan your trip?")
	}
}

func trailingToolResults(messages []llm.Message) []string {
	var results []string
	for i := len(messages) - 1; i >= 0 && messages[i].Kind() == llm.KindTool; i-- {
		results = append([]string{messages[i].Content}, results...)
	}
	return results
}

func pickTool(prompt string, tools []llm.Tool) (llm.ToolCall, bool) {
	if m := weatherPattern.FindStringSubmatch(prompt); m != nil && hasTool(tools, "weather_info") {
		return toolCall("weather_info", "city", strings.TrimSpace(m[1])), true
	}
	if m := countryPattern.FindStringSubmatch(prompt); m != nil && hasTool(tools, "retrieve_places") {
		return toolCall("retrieve_places", "country", m[1]), true
	}
	return llm.ToolCall{}, false
}

func hasTool(tools []llm.Tool, name string) bool {
	for _, t := range tools {
		if t.Function.Name == name {
			return true
		}
	}
	return false
}

func toolCall(name, param, value string) llm.ToolCall {
	args, _ := json.Marshal(map[string]string{param: value})
	return llm.ToolCall{
		ID:   "call_" + uuid.NewString(),
		Type: "function",
		Function: llm.FunctionCall{
			Name:      name,
			Arguments: string(args),
		},
	}
}

func estimateTokens(messages []llm.Message) int {
	total := 0
	for _, msg := range messages {
		total += len(msg.Content) / 4
	}
	return total
}
