package domain

import (
	"context"
	"errors"

	"github.com/agencydesk/agencydesk/internal/plan"
	"github.com/agencydesk/agencydesk/internal/tenantctx"
	"github.com/bwmarrin/snowflake"
)

var (
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrNotActive        = errors.New("forbidden_not_active")
	ErrNotOwner         = errors.New("forbidden_not_owner")
	ErrActorNotFound    = errors.New("actor_not_found")
	ErrTenantNotFound   = errors.New("tenant_not_found")
	ErrSelfLockout      = errors.New("owner_self_lockout")
	ErrSeatLimitReached = errors.New("seat_limit_reached")
	ErrNotInvited       = errors.New("actor_not_invited")
	ErrInvalidEmail     = errors.New("invalid_email")
	ErrInvalidName      = errors.New("invalid_name")
	ErrInvalidRole      = errors.New("invalid_role")
)

type Service interface {
	// Signup creates a new tenant on the free tier. The first owner actor
	// is not created here; resolution self-heals it on first login.
	Signup(ctx context.Context, name, contactEmail string) (*Tenant, error)

	// Resolve turns an externally-resolved credential into an
	// AuthedContext, or fails with ErrUnauthenticated. Resolution never
	// promotes a pending actor.
	Resolve(ctx context.Context, cred tenantctx.Credential) (*tenantctx.AuthedContext, error)

	RequireActiveMember(authed *tenantctx.AuthedContext) error
	RequireOwner(authed *tenantctx.AuthedContext) error

	ApproveActor(ctx context.Context, authed *tenantctx.AuthedContext, actorID snowflake.ID) error
	BlockActor(ctx context.Context, authed *tenantctx.AuthedContext, actorID snowflake.ID) error
	PromoteActor(ctx context.Context, authed *tenantctx.AuthedContext, actorID snowflake.ID, role tenantctx.Role) error
	InviteActor(ctx context.Context, authed *tenantctx.AuthedContext, email string, role tenantctx.Role) (*Actor, error)
	AcceptInvite(ctx context.Context, authed *tenantctx.AuthedContext) error
	ListActors(ctx context.Context, authed *tenantctx.AuthedContext) ([]Actor, error)

	// SetPlan is invoked by the billing callback only.
	SetPlan(ctx context.Context, tenantID snowflake.ID, tier plan.Tier) error
}
