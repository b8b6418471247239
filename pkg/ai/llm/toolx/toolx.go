package toolx

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/Abraxas-365/wanderlust/pkg/ai/llm"
)

type Toolx interface {
	Call(ctx context.Context, inputs string) (any, error)
	GetTool() llm.Tool
	Name() string
}

type ToolxClient struct {
	tools map[string]Toolx
}

func FromToolx(tools ...Toolx) *ToolxClient {
	toolMap := make(map[string]Toolx)
	for _, tool := range tools {
		toolMap[tool.Name()] = tool
	}
	return &ToolxClient{tools: toolMap}
}

// Names returns the registered tool names in sorted order
func (t *ToolxClient) Names() []string {
	names := make([]string, 0, len(t.tools))
	for name := range t.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetTools returns tool declarations sorted by name so request payloads are stable
func (t *ToolxClient) GetTools() []llm.Tool {
	names := t.Names()
	tools := make([]llm.Tool, 0, len(names))
	for _, name := range names {
		tools = append(tools, t.tools[name].GetTool())
	}
	return tools
}

// Call runs one tool call and always answers with a tool message. Unknown tools
// and tool failures are reported to the model as message content.
func (t *ToolxClient) Call(ctx context.Context, tc llm.ToolCall) (llm.Message, error) {
	name := tc.Function.Name
	tool, ok := t.tools[name]
	if !ok {
		return llm.NewToolMessage(tc.ID, name, fmt.Sprintf("Error: tool %q not found", name)), nil
	}

	result, err := tool.Call(ctx, tc.Function.Arguments)
	if err != nil {
		if ctx.Err() != nil {
			return llm.Message{}, ctx.Err()
		}
		return llm.NewToolMessage(tc.ID, name, "Error calling tool: "+err.Error()), nil
	}

	resultStr, err := stringify(result)
	if err != nil {
		return llm.NewToolMessage(tc.ID, name, "Error converting result to string: "+err.Error()), nil
	}
	return llm.NewToolMessage(tc.ID, name, resultStr), nil
}

func stringify(result any) (string, error) {
	switch v := result.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case int:
		return strconv.Itoa(v), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		jsonBytes, err := json.Marshal(result)
		if err != nil {
			return "", err
		}
		return string(jsonBytes), nil
	}
}

// ============================================================================
// Single-argument string tools
// ============================================================================

// StringTool adapts a func(string) string into a Toolx taking one required
// string parameter.
type StringTool struct {
	name        string
	description string
	param       string
	paramDesc   string
	fn          func(string) string
}

func NewStringTool(name, description, param, paramDesc string, fn func(string) string) *StringTool {
	return &StringTool{
		name:        name,
		description: description,
		param:       param,
		paramDesc:   paramDesc,
		fn:          fn,
	}
}

func (s *StringTool) Name() string { return s.name }

func (s *StringTool) GetTool() llm.Tool {
	return llm.Tool{
		Type: "function",
		Function: llm.Function{
			Name:        s.name,
			Description: s.description,
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					s.param: map[string]any{
						"type":        "string",
						"description": s.paramDesc,
					},
				},
				"required": []string{s.param},
			},
		},
	}
}

func (s *StringTool) Call(_ context.Context, inputs string) (any, error) {
	var args map[string]any
	if err := json.Unmarshal([]byte(inputs), &args); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}

	raw, ok := args[s.param]
	if !ok {
		return nil, fmt.Errorf("missing required argument %q", s.param)
	}
	value, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("argument %q must be a string", s.param)
	}

	return s.fn(value), nil
}
