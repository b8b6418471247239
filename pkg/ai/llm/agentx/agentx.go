package agentx

import (
	"context"

	"github.com/Abraxas-365/wanderlust/pkg/ai/llm"
	"github.com/Abraxas-365/wanderlust/pkg/ai/llm/graphx"
	"github.com/Abraxas-365/wanderlust/pkg/ai/llm/memoryx"
	"github.com/Abraxas-365/wanderlust/pkg/ai/llm/toolx"
	"github.com/Abraxas-365/wanderlust/pkg/errx"
)

const (
	NodeAgent = "agent"
	NodeTools = "tools"
)

// DefaultSystemPrompt is prepended to every model call unless overridden
const DefaultSystemPrompt = "You are a travel agent. Remember user preferences mentioned earlier."

// Agent represents an LLM-powered agent with tool capabilities. Conversation
// memory lives in the graph's checkpoints, not in the agent.
type Agent struct {
	client       *llm.Client
	tools        *toolx.ToolxClient
	systemPrompt string
	temperature  float32
	options      []llm.Option
}

// AgentOption configures an Agent
type AgentOption func(*Agent)

// WithOptions adds LLM options to the agent
func WithOptions(options ...llm.Option) AgentOption {
	return func(a *Agent) {
		a.options = append(a.options, options...)
	}
}

// WithSystemPrompt replaces the default system prompt
func WithSystemPrompt(prompt string) AgentOption {
	return func(a *Agent) {
		if prompt != "" {
			a.systemPrompt = prompt
		}
	}
}

// WithTemperature sets the sampling temperature (default 0)
func WithTemperature(temp float32) AgentOption {
	return func(a *Agent) {
		a.temperature = temp
	}
}

// New creates a new agent
func New(client *llm.Client, tools *toolx.ToolxClient, opts ...AgentOption) *Agent {
	if tools == nil {
		tools = toolx.FromToolx()
	}

	agent := &Agent{
		client:       client,
		tools:        tools,
		systemPrompt: DefaultSystemPrompt,
	}

	for _, opt := range opts {
		opt(agent)
	}

	return agent
}

// Route sends the run to the tool node when the last message asks for tools,
// otherwise ends it. Only the last message is inspected.
func Route(messages []llm.Message) string {
	if len(messages) == 0 {
		return graphx.END
	}
	if messages[len(messages)-1].HasToolCalls() {
		return NodeTools
	}
	return graphx.END
}

func routeState(state graphx.State) string {
	return Route(state.Messages)
}

// Node calls the model once with the system prompt, the thread's messages and
// the declared tools, and appends its reply.
func (a *Agent) Node(ctx context.Context, state graphx.State) (graphx.Update, error) {
	messages := make([]llm.Message, 0, len(state.Messages)+1)
	messages = append(messages, llm.NewSystemMessage(a.systemPrompt))
	messages = append(messages, state.Messages...)

	options := append([]llm.Option{}, a.options...)
	options = append(options, llm.WithTemperature(a.temperature))
	if toolList := a.tools.GetTools(); len(toolList) > 0 {
		options = append(options, llm.WithTools(toolList))
	}

	response, err := a.client.Chat(ctx, messages, options...)
	if err != nil {
		if ctx.Err() != nil {
			return graphx.Update{}, ctx.Err()
		}
		return graphx.Update{}, errx.Wrap(err, "LLM error", errx.TypeExternal)
	}

	reply := response.Message
	if reply.Role == "" {
		reply.Role = llm.RoleAssistant
	}
	return graphx.Update{Messages: []llm.Message{reply}}, nil
}

// ToolNode runs every tool call of the last message and appends one tool
// message per call, in call order.
func ToolNode(tools *toolx.ToolxClient) graphx.NodeFunc {
	return func(ctx context.Context, state graphx.State) (graphx.Update, error) {
		last, ok := state.Last()
		if !ok || !last.HasToolCalls() {
			return graphx.Update{}, nil
		}

		results := make([]llm.Message, 0, len(last.ToolCalls))
		for _, tc := range last.ToolCalls {
			msg, err := tools.Call(ctx, tc)
			if err != nil {
				return graphx.Update{}, err
			}
			results = append(results, msg)
		}
		return graphx.Update{Messages: results}, nil
	}
}

// Compile assembles START -> agent -> (tools -> agent)* -> END
func (a *Agent) Compile(saver memoryx.Saver, maxSteps int) (*graphx.Graph, error) {
	b := graphx.NewBuilder()

	if err := b.AddNode(NodeAgent, a.Node); err != nil {
		return nil, err
	}
	if err := b.AddNode(NodeTools, ToolNode(a.tools)); err != nil {
		return nil, err
	}
	if err := b.AddEdge(graphx.START, NodeAgent); err != nil {
		return nil, err
	}
	if err := b.AddConditionalEdges(NodeAgent, routeState, []string{NodeTools, graphx.END}); err != nil {
		return nil, err
	}
	if err := b.AddEdge(NodeTools, NodeAgent); err != nil {
		return nil, err
	}

	return b.Compile(graphx.Options{
		Name:     "agent",
		Saver:    saver,
		MaxSteps: maxSteps,
	})
}
