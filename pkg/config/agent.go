package config

import "time"

const defaultSystemPrompt = "You are a travel agent. Remember user preferences mentioned earlier."

type AgentConfig struct {
	SystemPrompt string
	// MaxSteps bounds the node executions of a single turn
	MaxSteps int
	// TurnTimeout bounds a whole turn. A tool round trip makes at least two
	// model requests, so it defaults to a multiple of LLM_TIMEOUT.
	TurnTimeout time.Duration
	Title       string
}

const turnTimeoutRequests = 3

func loadAgentConfig() AgentConfig {
	return AgentConfig{
		SystemPrompt: getEnv("AGENT_SYSTEM_PROMPT", defaultSystemPrompt),
		MaxSteps:     getEnvInt("AGENT_MAX_STEPS", 25),
		TurnTimeout:  getEnvDuration("AGENT_TURN_TIMEOUT", 0),
		Title:        getEnv("AGENT_TITLE", "🧳 AI Travel Agent"),
	}
}
