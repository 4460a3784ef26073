package domain

import (
	"context"
	"errors"

	"github.com/agencydesk/agencydesk/internal/tenantctx"
	"github.com/bwmarrin/snowflake"
)

var (
	// ErrBotNotFound covers both a missing bot and a bot owned by a
	// foreign tenant, so callers cannot probe for existence across
	// tenants.
	ErrBotNotFound     = errors.New("bot_not_found")
	ErrBotForbidden    = errors.New("bot_forbidden")
	ErrInvalidName     = errors.New("invalid_bot_name")
	ErrBotLimitReached = errors.New("agency_bot_limit_reached")
)

type CreateInput struct {
	Name         string
	Description  string
	Instructions string
	// Private scopes the bot to the creating actor instead of the
	// whole agency.
	Private bool
}

type Service interface {
	// Authorize verifies the bot belongs to the tenant and the actor
	// may use it. Foreign-tenant bots fail with ErrBotNotFound,
	// private bots of another actor with ErrBotForbidden.
	Authorize(ctx context.Context, tenantID, actorID, botID snowflake.ID) (*Bot, error)

	Create(ctx context.Context, authed *tenantctx.AuthedContext, in CreateInput) (*Bot, error)
	List(ctx context.Context, authed *tenantctx.AuthedContext) ([]Bot, error)

	// Delete removes the bot and best-effort cascades over its
	// dependents. Agency bots require the owner role, private bots
	// require the owning actor.
	Delete(ctx context.Context, authed *tenantctx.AuthedContext, botID snowflake.ID) error
}

type Repository interface {
	Insert(ctx context.Context, bot *Bot) error
	Get(ctx context.Context, tenantID, botID snowflake.ID) (*Bot, error)
	ListVisible(ctx context.Context, tenantID, actorID snowflake.ID) ([]Bot, error)
	CountShared(ctx context.Context, tenantID snowflake.ID) (int64, error)
	// DeleteMatching deletes the bot row only when tenant and
	// ownership still match, and reports whether a row went away.
	DeleteMatching(ctx context.Context, tenantID, botID snowflake.ID, ownerActorID *snowflake.ID) (bool, error)
}
