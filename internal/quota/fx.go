package quota

import (
	"github.com/agencydesk/agencydesk/internal/quota/service"
	"go.uber.org/fx"
)

var Module = fx.Module("quota.service",
	fx.Provide(service.New),
)
