package bot

import (
	"github.com/agencydesk/agencydesk/internal/bot/repository"
	"github.com/agencydesk/agencydesk/internal/bot/service"
	"go.uber.org/fx"
)

var Module = fx.Module("bot.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.New),
)
