package document

import (
	"github.com/agencydesk/agencydesk/internal/document/repository"
	"github.com/agencydesk/agencydesk/internal/document/service"
	"go.uber.org/fx"
)

var Module = fx.Module("document.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.New),
)
