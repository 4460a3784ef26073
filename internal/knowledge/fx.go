package knowledge

import (
	"github.com/agencydesk/agencydesk/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func New(cfg config.Config, log *zap.Logger) Capability {
	if cfg.KnowledgeEndpoint == "" {
		log.Warn("knowledge endpoint not configured, using noop capability")
		return NewNoop()
	}
	return NewHTTPClient(cfg.KnowledgeEndpoint, cfg.KnowledgeToken, log)
}

var Module = fx.Module("knowledge",
	fx.Provide(New),
)
