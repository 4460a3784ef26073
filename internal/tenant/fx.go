package tenant

import (
	"github.com/agencydesk/agencydesk/internal/tenant/repository"
	"github.com/agencydesk/agencydesk/internal/tenant/service"
	"go.uber.org/fx"
)

var Module = fx.Module("tenant.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.New),
)
