package aiopenai

import (
	"context"
	"encoding/json"
	"errors"
	"os"

	"github.com/Abraxas-365/wanderlust/pkg/ai/llm"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared/constant"
)

// OpenAIProvider implements the LLM interface for OpenAI and any server
// speaking the same chat completions API (Ollama's /v1 endpoint included).
type OpenAIProvider struct {
	client openai.Client
}

// NewOpenAIProvider creates a new OpenAI provider. Pass option.WithBaseURL to
// target a compatible server.
func NewOpenAIProvider(apiKey string, opts ...option.RequestOption) *OpenAIProvider {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}

	options := append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	client := openai.NewClient(options...)

	return &OpenAIProvider{
		client: client,
	}
}

var _ llm.LLM = (*OpenAIProvider)(nil)

func defaultChatOptions() *llm.ChatOptions {
	options := llm.DefaultOptions()
	options.Model = "gpt-4o-mini"
	return options
}

// Chat implements the LLM interface
func (p *OpenAIProvider) Chat(ctx context.Context, messages []llm.Message, opts ...llm.Option) (llm.Response, error) {
	options := defaultChatOptions()
	for _, opt := range opts {
		opt(options)
	}

	params, err := buildParams(messages, options)
	if err != nil {
		return llm.Response{}, err
	}

	reqOpts := make([]option.RequestOption, 0, len(options.Headers))
	for k, v := range options.Headers {
		reqOpts = append(reqOpts, option.WithHeader(k, v))
	}

	completion, err := p.client.Chat.Completions.New(ctx, params, reqOpts...)
	if err != nil {
		return llm.Response{}, err
	}

	return convertFromOpenAIResponse(completion)
}

func buildParams(messages []llm.Message, options *llm.ChatOptions) (openai.ChatCompletionNewParams, error) {
	openAIMessages := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		openAIMsg, err := convertToOpenAIMessage(msg)
		if err != nil {
			return openai.ChatCompletionNewParams{}, err
		}
		openAIMessages = append(openAIMessages, openAIMsg)
	}

	params := openai.ChatCompletionNewParams{
		Messages: openAIMessages,
		Model:    options.Model,
	}

	// A nil temperature leaves the server default; zero is sent as zero.
	if options.Temperature != nil {
		params.Temperature = openai.Float(float64(*options.Temperature))
	}

	if options.TopP != 0 {
		params.TopP = openai.Float(float64(options.TopP))
	}

	if options.MaxCompletionTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(options.MaxCompletionTokens))
	} else if options.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(options.MaxTokens))
	}

	if len(options.Stop) > 0 {
		params.Stop = openai.ChatCompletionNewParamsStopUnion{
			OfStringArray: options.Stop,
		}
	}

	if options.Seed != 0 {
		params.Seed = openai.Int(options.Seed)
	}

	if options.User != "" {
		params.User = openai.String(options.User)
	}

	if len(options.Tools) > 0 {
		params.Tools = convertToOpenAITools(options.Tools)
	}

	if options.ToolChoice != nil {
		params.ToolChoice = convertToOpenAIToolChoice(options.ToolChoice)
	}

	return params, nil
}

func convertToOpenAIMessage(msg llm.Message) (openai.ChatCompletionMessageParamUnion, error) {
	switch msg.Kind() {
	case llm.KindSystem:
		return openai.SystemMessage(msg.Content), nil
	case llm.KindHuman:
		return openai.UserMessage(msg.Content), nil
	case llm.KindAI:
		if !msg.HasToolCalls() {
			return openai.AssistantMessage(msg.Content), nil
		}

		toolCalls := make([]openai.ChatCompletionMessageToolCallUnionParam, 0, len(msg.ToolCalls))
		for _, tc := range msg.ToolCalls {
			toolCalls = append(toolCalls, openai.ChatCompletionMessageToolCallUnionParam{
				OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
					ID:   tc.ID,
					Type: constant.Function("function"),
					Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
						Name:      tc.Function.Name,
						Arguments: tc.Function.Arguments,
					},
				},
			})
		}

		return openai.ChatCompletionMessageParamUnion{
			OfAssistant: &openai.ChatCompletionAssistantMessageParam{
				Role: constant.Assistant("assistant"),
				Content: openai.ChatCompletionAssistantMessageParamContentUnion{
					OfString: openai.String(msg.Content),
				},
				ToolCalls: toolCalls,
			},
		}, nil
	case llm.KindTool:
		return openai.ToolMessage(msg.Content, msg.ToolCallID), nil
	case llm.KindUnknown:
		return openai.ChatCompletionMessageParamUnion{}, errors.New("unsupported role: " + msg.Role)
	default:
		return openai.ChatCompletionMessageParamUnion{}, errors.New("unsupported role: " + msg.Role)
	}
}

func convertToOpenAITools(tools []llm.Tool) []openai.ChatCompletionToolUnionParam {
	result := make([]openai.ChatCompletionToolUnionParam, 0, len(tools))

	for _, tool := range tools {
		if tool.Type != "function" {
			continue
		}

		paramsJSON, _ := json.Marshal(tool.Function.Parameters)
		var parametersMap map[string]any
		_ = json.Unmarshal(paramsJSON, &parametersMap)

		result = append(result, openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        tool.Function.Name,
			Description: openai.String(tool.Function.Description),
			Parameters:  openai.FunctionParameters(parametersMap),
		}))
	}

	return result
}

func convertToOpenAIToolChoice(toolChoice any) openai.ChatCompletionToolChoiceOptionUnionParam {
	if strChoice, ok := toolChoice.(string); ok {
		switch strChoice {
		case "none", "required":
			return openai.ChatCompletionToolChoiceOptionUnionParam{
				OfAuto: openai.String(strChoice),
			}
		}
	}

	return openai.ChatCompletionToolChoiceOptionUnionParam{
		OfAuto: openai.String("auto"),
	}
}

func convertFromOpenAIResponse(completion *openai.ChatCompletion) (llm.Response, error) {
	if len(completion.Choices) == 0 {
		return llm.Response{}, errors.New("no choices in response")
	}

	choice := completion.Choices[0]

	message := llm.Message{
		Role:    string(choice.Message.Role),
		Content: choice.Message.Content,
	}

	if len(choice.Message.ToolCalls) > 0 {
		toolCalls := make([]llm.ToolCall, 0, len(choice.Message.ToolCalls))
		for _, tc := range choice.Message.ToolCalls {
			toolCalls = append(toolCalls, llm.ToolCall{
				ID:   tc.ID,
				Type: "function",
				Function: llm.FunctionCall{
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				},
			})
		}
		message.ToolCalls = toolCalls
	}

	usage := llm.Usage{
		PromptTokens:     int(completion.Usage.PromptTokens),
		CompletionTokens: int(completion.Usage.CompletionTokens),
		TotalTokens:      int(completion.Usage.TotalTokens),
	}

	return llm.Response{
		Message: message,
		Usage:   usage,
	}, nil
}
