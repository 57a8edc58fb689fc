package di

import (
	"flag"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/gottmail/toneguard/internal/analyzer"
	"github.com/gottmail/toneguard/internal/config"
	"github.com/gottmail/toneguard/internal/core"
	"github.com/gottmail/toneguard/internal/engine"
	"github.com/gottmail/toneguard/internal/factory"
	"github.com/gottmail/toneguard/internal/logging"
	"github.com/gottmail/toneguard/internal/metrics"
	"github.com/gottmail/toneguard/internal/pipeline"
	"github.com/gottmail/toneguard/internal/store"
	"github.com/gottmail/toneguard/internal/trusted"
	"github.com/gottmail/toneguard/internal/utils"
)

// CLIFlags contains all command line flags for the CLI application
type CLIFlags struct {
	// LLM provider flags
	Provider    string
	MaxTokens   int
	Temperature float64
	TopP        float64
	MaxBodySize int

	// Bedrock flags
	BedrockRegion  string
	BedrockModelID string

	// Gemini flags
	GeminiAPIKey    string
	GeminiModelName string

	// OpenAI flags
	OpenAIAPIKey    string
	OpenAIModelName string

	// Analysis flags
	EscalationLower float64
	EscalationUpper float64

	// Input flags
	InputFile  string
	Verbose    bool
	JSONLog    bool
	ConfigFile string
}

// ParseFlags parses command line flags and returns a CLIFlags struct
func ParseFlags() *CLIFlags {
	flags := &CLIFlags{}

	// LLM provider flags
	flag.StringVar(&flags.Provider, "provider", "none", "LLM provider (bedrock, gemini, openai, none)")
	flag.IntVar(&flags.MaxTokens, "max-tokens", 1000, "Maximum tokens for LLM response")
	flag.Float64Var(&flags.Temperature, "temperature", 0.1, "Temperature for LLM generation")
	flag.Float64Var(&flags.TopP, "top-p", 0.9, "Top-p for LLM generation")
	flag.IntVar(&flags.MaxBodySize, "max-body-size", 4096, "Maximum message body size to send to the LLM")

	// Bedrock flags
	flag.StringVar(&flags.BedrockRegion, "bedrock-region", "us-east-1", "AWS region for Bedrock")
	flag.StringVar(&flags.BedrockModelID, "bedrock-model", "anthropic.claude-v2", "Bedrock model ID")

	// Gemini flags
	flag.StringVar(&flags.GeminiAPIKey, "gemini-api-key", "", "API key for Google Gemini")
	flag.StringVar(&flags.GeminiModelName, "gemini-model", "gemini-pro", "Gemini model name")

	// OpenAI flags
	flag.StringVar(&flags.OpenAIAPIKey, "openai-api-key", "", "API key for OpenAI")
	flag.StringVar(&flags.OpenAIModelName, "openai-model", "gpt-4", "OpenAI model name")

	// Analysis flags
	flag.Float64Var(&flags.EscalationLower, "escalation-lower", 0.25, "Lower bound of the ambiguous score band")
	flag.Float64Var(&flags.EscalationUpper, "escalation-upper", 0.75, "Upper bound of the ambiguous score band")

	// Input flags
	flag.StringVar(&flags.InputFile, "file", "", "Input message file (use stdin if not specified)")
	flag.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging")
	flag.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	flag.StringVar(&flags.ConfigFile, "config", "", "Path to config file (overrides command line flags)")

	flag.Parse()
	return flags
}

// BuildCLIContainer creates and configures a dependency injection container for the CLI application
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		if flags.ConfigFile != "" {
			cfg, err := config.New()
			if err != nil {
				return nil, err
			}
			logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
			return cfg, nil
		}
		return createConfigFromFlags(flags), nil
	}); err != nil {
		return nil, err
	}

	// Register metrics collector
	if err := container.Provide(metrics.NewCollector); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewLLMFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewFilterFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewTextProcessorFactory); err != nil {
		return nil, err
	}

	// Register text processor
	if err := container.Provide(func(f *factory.TextProcessorFactory) *utils.TextProcessor {
		return f.CreateTextProcessor()
	}); err != nil {
		return nil, err
	}

	// Register LLM client
	if err := container.Provide(func(f *factory.LLMFactory) (core.LLMClient, error) {
		return f.CreateLLMClient()
	}); err != nil {
		return nil, err
	}

	// Register ephemeral store (one-shot runs still honor the holding-area discipline)
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) (*store.EphemeralStore, error) {
		pipelineCfg, err := cfg.GetPipeline()
		if err != nil {
			return nil, err
		}
		return store.NewEphemeralStore(pipelineCfg.StoreCapacity, pipelineCfg.MessageTTL, logger), nil
	}); err != nil {
		return nil, err
	}

	// Register analyzers with no cache
	if err := container.Provide(analyzer.NewLocalAnalyzer); err != nil {
		return nil, err
	}
	if err := container.Provide(func(
		cfg *config.Config,
		local *analyzer.LocalAnalyzer,
		llmClient core.LLMClient,
		logger *zap.Logger,
		collector *metrics.Collector,
	) (core.ContentAnalyzer, error) {
		analysisCfg, err := cfg.GetAnalysis()
		if err != nil {
			return nil, err
		}
		return analyzer.NewHybridAnalyzer(
			local,
			llmClient,
			nil,   // No cache for CLI
			false, // Cache disabled
			0,
			analyzer.EscalationBand{Lower: analysisCfg.EscalationLower, Upper: analysisCfg.EscalationUpper},
			analysisCfg.LLMTimeout,
			logger,
			collector,
		), nil
	}); err != nil {
		return nil, err
	}

	// Register decision engine
	if err := container.Provide(func(cfg *config.Config, local *analyzer.LocalAnalyzer, logger *zap.Logger) (*engine.Engine, error) {
		thresholds := cfg.GetThresholds()
		return engine.NewEngine(engine.Thresholds{
			ForwardClean:       thresholds.ForwardClean,
			ForwardWithContext: thresholds.ForwardWithContext,
			RedactHarmful:      thresholds.RedactHarmful,
			SummarizeOnly:      thresholds.SummarizeOnly,
		}, local, logger)
	}); err != nil {
		return nil, err
	}

	// Register empty trusted checker for CLI
	if err := container.Provide(func(logger *zap.Logger) *trusted.Checker {
		return trusted.NewChecker(nil, nil, logger)
	}); err != nil {
		return nil, err
	}

	// Register orchestrator
	if err := container.Provide(pipeline.NewOrchestrator); err != nil {
		return nil, err
	}

	// Register mail filter
	if err := container.Provide(func(f *factory.FilterFactory) (core.MailFilter, error) {
		return f.CreateMailFilter()
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags(flags *CLIFlags) *config.Config {
	v := config.NewEmptyViper()

	// CLI specific settings
	v.Set("server.filter_type", "cli")
	v.Set("cli.verbose", flags.Verbose)

	// LLM provider
	v.Set("llm.provider", flags.Provider)

	switch flags.Provider {
	case "bedrock":
		v.Set("bedrock.region", flags.BedrockRegion)
		v.Set("bedrock.model_id", flags.BedrockModelID)
		v.Set("bedrock.max_tokens", flags.MaxTokens)
		v.Set("bedrock.temperature", flags.Temperature)
		v.Set("bedrock.top_p", flags.TopP)
		v.Set("bedrock.max_body_size", flags.MaxBodySize)
	case "gemini":
		v.Set("gemini.api_key", flags.GeminiAPIKey)
		v.Set("gemini.model_name", flags.GeminiModelName)
		v.Set("gemini.max_tokens", flags.MaxTokens)
		v.Set("gemini.temperature", flags.Temperature)
		v.Set("gemini.top_p", flags.TopP)
		v.Set("gemini.max_body_size", flags.MaxBodySize)
	case "openai":
		v.Set("openai.api_key", flags.OpenAIAPIKey)
		v.Set("openai.model_name", flags.OpenAIModelName)
		v.Set("openai.max_tokens", flags.MaxTokens)
		v.Set("openai.temperature", flags.Temperature)
		v.Set("openai.top_p", flags.TopP)
		v.Set("openai.max_body_size", flags.MaxBodySize)
	}

	// Escalation band
	v.Set("analysis.escalation.lower", flags.EscalationLower)
	v.Set("analysis.escalation.upper", flags.EscalationUpper)

	return config.NewFromViper(v)
}
