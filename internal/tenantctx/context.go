// Package tenantctx carries the resolved tenant identity through a
// request. Role and status values coming out of storage are never
// trusted directly; they pass through the total normalization here at
// every read boundary.
package tenantctx

import (
	"context"
	"strings"

	"github.com/agencydesk/agencydesk/internal/plan"
	"github.com/bwmarrin/snowflake"
)

type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusActive  Status = "active"
	StatusBlocked Status = "blocked"
)

// NormalizeRole folds an arbitrary stored string into the role enum.
// Unrecognized values fold to member, the least privileged role.
func NormalizeRole(raw string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleOwner:
		return RoleOwner
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleMember
	}
}

// NormalizeStatus folds an arbitrary stored string into the status enum.
// Unrecognized values fold to pending, which grants nothing.
func NormalizeStatus(raw string) Status {
	switch Status(strings.ToLower(strings.TrimSpace(raw))) {
	case StatusActive:
		return StatusActive
	case StatusBlocked:
		return StatusBlocked
	default:
		return StatusPending
	}
}

// Credential is what the external actor-credential resolver hands us:
// a tenant, the tenant's contact email, and optionally an actor id.
type Credential struct {
	TenantID    snowflake.ID
	TenantEmail string
	ActorID     snowflake.ID
}

// AuthedContext is the product of tenancy resolution for one request.
type AuthedContext struct {
	TenantID    snowflake.ID
	TenantEmail string
	ActorID     snowflake.ID
	Role        Role
	Status      Status
	Plan        plan.Tier
}

type authedKey struct{}

// WithAuthed stores the resolved context for downstream handlers.
func WithAuthed(ctx context.Context, authed *AuthedContext) context.Context {
	return context.WithValue(ctx, authedKey{}, authed)
}

// AuthedFromContext returns the resolved tenant context, if set.
func AuthedFromContext(ctx context.Context) (*AuthedContext, bool) {
	if ctx == nil {
		return nil, false
	}
	authed, ok := ctx.Value(authedKey{}).(*AuthedContext)
	if !ok || authed == nil {
		return nil, false
	}
	return authed, true
}
