package factory

import (
	"fmt"

	"github.com/gottmail/toneguard/internal/adapters/filter"
	"github.com/gottmail/toneguard/internal/config"
	"github.com/gottmail/toneguard/internal/core"
	"github.com/gottmail/toneguard/internal/pipeline"
	"go.uber.org/zap"
)

// FilterFactory creates mail filters based on configuration
type FilterFactory struct {
	cfg          *config.Config
	logger       *zap.Logger
	orchestrator *pipeline.Orchestrator
}

// NewFilterFactory creates a new filter factory
func NewFilterFactory(cfg *config.Config, logger *zap.Logger, orchestrator *pipeline.Orchestrator) *FilterFactory {
	return &FilterFactory{
		cfg:          cfg,
		logger:       logger,
		orchestrator: orchestrator,
	}
}

// CreateMailFilter creates a mail filter based on the configuration
func (f *FilterFactory) CreateMailFilter() (core.MailFilter, error) {
	filterType := f.cfg.GetString("server.filter_type")

	switch filterType {
	case "smtp":
		pipelineCfg, err := f.cfg.GetPipeline()
		if err != nil {
			return nil, err
		}
		return filter.NewSMTPFilter(
			f.orchestrator,
			f.logger,
			f.cfg.GetString("server.listen_address"),
			f.cfg.GetString("server.headers.action"),
			f.cfg.GetString("server.headers.score"),
			f.cfg.GetString("server.headers.reason"),
			f.cfg.GetString("server.downstream.address"),
			f.cfg.GetInt("server.downstream.port"),
			f.cfg.GetBool("server.downstream.enabled"),
			// Processing may take at most the holding-area TTL
			pipelineCfg.MessageTTL,
		), nil
	case "cli":
		return filter.NewCliFilter(
			f.orchestrator,
			f.logger,
			f.cfg.GetBool("cli.verbose"),
		)
	default:
		return nil, fmt.Errorf("unsupported filter type: %s", filterType)
	}
}
