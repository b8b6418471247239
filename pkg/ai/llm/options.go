package llm

// ChatOptions contains options for generating chat completions
type ChatOptions struct {
	Model               string            // Model name/identifier
	Temperature         *float32          // Sampling temperature; nil leaves the provider default
	TopP                float32           // Controls diversity (0.0 to 1.0)
	MaxTokens           int               // Maximum number of tokens to generate (legacy)
	MaxCompletionTokens int               // Maximum completion tokens (preferred for new models)
	Stop                []string          // Stop sequences
	Tools               []Tool            // Available tools
	ToolChoice          any               // "auto", "none" or "required"
	Seed                int64             // Random seed for deterministic results
	User                string            // Identifier representing end-user
	Headers             map[string]string // Custom headers to send with the request
}

// Option is a function type to modify ChatOptions
type Option func(*ChatOptions)

// WithModel sets the model to use
func WithModel(model string) Option {
	return func(o *ChatOptions) {
		o.Model = model
	}
}

// WithTemperature sets the sampling temperature. Zero is sent explicitly.
func WithTemperature(temp float32) Option {
	return func(o *ChatOptions) {
		o.Temperature = &temp
	}
}

// WithTopP sets nucleus sampling parameter
func WithTopP(topP float32) Option {
	return func(o *ChatOptions) {
		o.TopP = topP
	}
}

// WithMaxTokens sets the maximum number of tokens to generate (legacy)
func WithMaxTokens(tokens int) Option {
	return func(o *ChatOptions) {
		o.MaxTokens = tokens
	}
}

// WithMaxCompletionTokens sets the maximum completion tokens (preferred)
func WithMaxCompletionTokens(tokens int) Option {
	return func(o *ChatOptions) {
		o.MaxCompletionTokens = tokens
	}
}

// WithStop sets sequences where the API will stop generating further tokens
func WithStop(stop []string) Option {
	return func(o *ChatOptions) {
		o.Stop = stop
	}
}

// WithTools sets the available tools
func WithTools(tools []Tool) Option {
	return func(o *ChatOptions) {
		o.Tools = tools
	}
}

// WithToolChoice forces a specific tool choice mode
func WithToolChoice(toolChoice any) Option {
	return func(o *ChatOptions) {
		o.ToolChoice = toolChoice
	}
}

// WithSeed sets the random seed
func WithSeed(seed int64) Option {
	return func(o *ChatOptions) {
		o.Seed = seed
	}
}

// WithUser sets the user identifier
func WithUser(user string) Option {
	return func(o *ChatOptions) {
		o.User = user
	}
}

// WithHeader adds a custom header to the request
func WithHeader(key, value string) Option {
	return func(o *ChatOptions) {
		if o.Headers == nil {
			o.Headers = make(map[string]string)
		}
		o.Headers[key] = value
	}
}

// DefaultOptions returns the default options
func DefaultOptions() *ChatOptions {
	return &ChatOptions{
		TopP: 1.0,
	}
}

// Apply builds ChatOptions from defaults and the given options
func Apply(opts ...Option) *ChatOptions {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(options)
	}
	return options
}
