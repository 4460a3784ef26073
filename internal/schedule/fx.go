package schedule

import (
	"github.com/agencydesk/agencydesk/internal/schedule/repository"
	"github.com/agencydesk/agencydesk/internal/schedule/service"
	"go.uber.org/fx"
)

var Module = fx.Module("schedule.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.New),
)
