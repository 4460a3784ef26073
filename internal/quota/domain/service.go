package domain

import (
	"context"
	"fmt"

	"github.com/agencydesk/agencydesk/internal/plan"
	"github.com/bwmarrin/snowflake"
)

// Usage is a zero-valued snapshot when no ledger row exists.
type Usage struct {
	MessagesCount int `json:"messages_count"`
	UploadsCount  int `json:"uploads_count"`
}

// ExceededError carries the structured quota-exceeded payload callers
// surface as a rate-limit-class failure.
type ExceededError struct {
	Used int       `json:"used"`
	Cap  int       `json:"cap"`
	Plan plan.Tier `json:"plan"`
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf("daily_limit_exceeded: used %d of %d on plan %q", e.Used, e.Cap, e.Plan)
}

type Service interface {
	// GetDailyUsage never errors on a missing row; it reports zeros.
	GetDailyUsage(ctx context.Context, tenantID snowflake.ID, day string) (Usage, error)

	// IncrementMessages and IncrementUploads are atomic
	// upsert-with-add operations; concurrent increments for the same
	// (tenant, day) key must all be reflected. Call them only after the
	// guarded action has fully succeeded.
	IncrementMessages(ctx context.Context, tenantID snowflake.ID, day string) error
	IncrementUploads(ctx context.Context, tenantID snowflake.ID, day string, by int) error

	// EnforceDailyLimit fails with *ExceededError when the tenant's
	// message usage has met or exceeded the plan cap for the day.
	EnforceDailyLimit(ctx context.Context, tenantID snowflake.ID, tier plan.Tier, day string) error

	// EnforceUploadLimit is the upload-cap analogue; a nil cap on the
	// plan always passes.
	EnforceUploadLimit(ctx context.Context, tenantID snowflake.ID, tier plan.Tier, day string) error
}
