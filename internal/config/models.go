package config

import (
	"fmt"
	"time"
)

// LLMConfig represents the configuration for the LLM provider
type LLMConfig struct {
	Provider string
}

// PipelineConfig represents the holding-area and sweep configuration
type PipelineConfig struct {
	MessageTTL    time.Duration
	StoreCapacity int
	SweepInterval time.Duration
}

// AnalysisConfig represents the hybrid analysis configuration
type AnalysisConfig struct {
	EscalationLower float64
	EscalationUpper float64
	LLMTimeout      time.Duration
}

// ThresholdsConfig represents the decision engine threshold table
type ThresholdsConfig struct {
	ForwardClean       float64
	ForwardWithContext float64
	RedactHarmful      float64
	SummarizeOnly      float64
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// GetLLM returns the LLM configuration
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		Provider: c.GetString("llm.provider"),
	}
}

// GetPipeline returns the pipeline configuration
func (c *Config) GetPipeline() (PipelineConfig, error) {
	ttl, err := c.GetDuration("pipeline.message_ttl")
	if err != nil {
		return PipelineConfig{}, fmt.Errorf("invalid pipeline.message_ttl: %w", err)
	}
	interval, err := c.GetDuration("pipeline.sweep_interval")
	if err != nil {
		return PipelineConfig{}, fmt.Errorf("invalid pipeline.sweep_interval: %w", err)
	}
	return PipelineConfig{
		MessageTTL:    ttl,
		StoreCapacity: c.GetInt("pipeline.store_capacity"),
		SweepInterval: interval,
	}, nil
}

// GetAnalysis returns the hybrid analysis configuration
func (c *Config) GetAnalysis() (AnalysisConfig, error) {
	timeout, err := c.GetDuration("analysis.llm_timeout")
	if err != nil {
		return AnalysisConfig{}, fmt.Errorf("invalid analysis.llm_timeout: %w", err)
	}
	return AnalysisConfig{
		EscalationLower: c.GetFloat64("analysis.escalation.lower"),
		EscalationUpper: c.GetFloat64("analysis.escalation.upper"),
		LLMTimeout:      timeout,
	}, nil
}

// GetThresholds returns the decision engine threshold table
func (c *Config) GetThresholds() ThresholdsConfig {
	return ThresholdsConfig{
		ForwardClean:       c.GetFloat64("engine.thresholds.forward_clean"),
		ForwardWithContext: c.GetFloat64("engine.thresholds.forward_with_context"),
		RedactHarmful:      c.GetFloat64("engine.thresholds.redact_harmful"),
		SummarizeOnly:      c.GetFloat64("engine.thresholds.summarize_only"),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
		MaxBodySize: c.GetInt("bedrock.max_body_size"),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
		MaxBodySize: c.GetInt("gemini.max_body_size"),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
		MaxBodySize: c.GetInt("openai.max_body_size"),
	}
}
