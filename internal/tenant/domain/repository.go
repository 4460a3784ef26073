package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	CreateTenant(ctx context.Context, tenant *Tenant) error
	GetTenant(ctx context.Context, id snowflake.ID) (*Tenant, error)
	UpdateTenantPlan(ctx context.Context, id snowflake.ID, plan string) error

	CountActors(ctx context.Context, tenantID snowflake.ID) (int64, error)
	CountBillableSeats(ctx context.Context, tenantID snowflake.ID) (int64, error)
	GetActorByID(ctx context.Context, tenantID, actorID snowflake.ID) (*Actor, error)
	GetActorByEmail(ctx context.Context, tenantID snowflake.ID, email string) (*Actor, error)
	ListActors(ctx context.Context, tenantID snowflake.ID) ([]Actor, error)

	// InsertActorIfAbsent inserts the actor unless a row for the same
	// (tenant, email) already exists. Returns true when the row was
	// inserted. Safe under concurrent callers: conditional insert on the
	// unique constraint, not read-then-insert.
	InsertActorIfAbsent(ctx context.Context, actor *Actor) (bool, error)

	UpdateActorRole(ctx context.Context, tenantID, actorID snowflake.ID, role string) error
	UpdateActorStatus(ctx context.Context, tenantID, actorID snowflake.ID, status string) error
}
