package conversation

import (
	"github.com/agencydesk/agencydesk/internal/conversation/service"
	"go.uber.org/fx"
)

var Module = fx.Module("conversation.service",
	fx.Provide(service.New),
)
