package di

import (
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

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
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
	if err := container.Provide(factory.NewCacheFactory); err != nil {
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

	// Register analysis cache
	if err := container.Provide(func(f *factory.CacheFactory) (core.AnalysisCache, error) {
		return f.CreateAnalysisCache()
	}); err != nil {
		return nil, err
	}

	// Register pipeline configuration
	if err := container.Provide(func(cfg *config.Config) (config.PipelineConfig, error) {
		return cfg.GetPipeline()
	}); err != nil {
		return nil, err
	}

	// Register ephemeral store and sweeper
	if err := container.Provide(func(pipelineCfg config.PipelineConfig, logger *zap.Logger) *store.EphemeralStore {
		return store.NewEphemeralStore(pipelineCfg.StoreCapacity, pipelineCfg.MessageTTL, logger)
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(ephemeralStore *store.EphemeralStore, pipelineCfg config.PipelineConfig, logger *zap.Logger, collector *metrics.Collector) *store.Sweeper {
		return store.NewSweeper(ephemeralStore, pipelineCfg.SweepInterval, logger, collector)
	}); err != nil {
		return nil, err
	}

	// Register analyzers
	if err := container.Provide(analyzer.NewLocalAnalyzer); err != nil {
		return nil, err
	}
	if err := container.Provide(func(
		cfg *config.Config,
		local *analyzer.LocalAnalyzer,
		llmClient core.LLMClient,
		analysisCache core.AnalysisCache,
		cacheFactory *factory.CacheFactory,
		logger *zap.Logger,
		collector *metrics.Collector,
	) (*analyzer.HybridAnalyzer, error) {
		analysisCfg, err := cfg.GetAnalysis()
		if err != nil {
			return nil, err
		}
		cacheTTL, err := cacheFactory.GetCacheTTL()
		if err != nil {
			return nil, err
		}
		return analyzer.NewHybridAnalyzer(
			local,
			llmClient,
			analysisCache,
			cacheFactory.IsCacheEnabled(),
			cacheTTL,
			analyzer.EscalationBand{Lower: analysisCfg.EscalationLower, Upper: analysisCfg.EscalationUpper},
			analysisCfg.LLMTimeout,
			logger,
			collector,
		), nil
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(hybrid *analyzer.HybridAnalyzer) core.ContentAnalyzer {
		return hybrid
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

	// Register trusted-sender checker
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) *trusted.Checker {
		return trusted.NewChecker(
			cfg.GetStringSlice("trusted.senders"),
			cfg.GetStringSlice("trusted.domains"),
			logger,
		)
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
