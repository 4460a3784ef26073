package authorization

import (
	"context"
	"errors"

	"go.uber.org/fx"
)

var (
	ErrForbidden     = errors.New("forbidden")
	ErrInvalidActor  = errors.New("invalid_actor")
	ErrInvalidTenant = errors.New("invalid_tenant")
	ErrInvalidObject = errors.New("invalid_object")
	ErrInvalidAction = errors.New("invalid_action")
)

// Service answers "may this actor perform this action on this object
// inside this tenant". It complements the role checks the domain
// services already make; route guards call it before dispatch.
type Service interface {
	Authorize(ctx context.Context, actor, tenantID, object, action string) error
}

var Module = fx.Module("authorization",
	fx.Provide(NewEnforcer),
	fx.Provide(NewService),
)
