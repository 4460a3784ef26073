package billing

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"strings"

	"github.com/agencydesk/agencydesk/internal/config"
	"github.com/agencydesk/agencydesk/internal/plan"
	tenantdomain "github.com/agencydesk/agencydesk/internal/tenant/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var (
	ErrInvalidSecret  = errors.New("invalid_webhook_secret")
	ErrInvalidPayload = errors.New("invalid_webhook_payload")
	ErrInvalidPlan    = errors.New("invalid_plan")
	ErrNotConfigured  = errors.New("webhook_not_configured")
)

// PlanAssignment is the payload the billing provider posts when a
// tenant's subscription changes.
type PlanAssignment struct {
	TenantID string `json:"tenant_id"`
	Plan     string `json:"plan"`
}

type Service interface {
	// AssignPlan verifies the shared secret and moves the tenant to
	// the named tier. Unknown tiers are rejected, not folded, so a
	// provider-side typo cannot silently downgrade a tenant.
	AssignPlan(ctx context.Context, secret string, payload []byte) error
}

type Params struct {
	fx.In

	Cfg     config.Config
	Log     *zap.Logger
	Tenants tenantdomain.Service
}

type service struct {
	secret  string
	log     *zap.Logger
	tenants tenantdomain.Service
}

func New(p Params) Service {
	return &service{
		secret:  p.Cfg.BillingWebhookSecret,
		log:     p.Log.Named("billing.service"),
		tenants: p.Tenants,
	}
}

func (s *service) AssignPlan(ctx context.Context, secret string, payload []byte) error {
	if s.secret == "" {
		return ErrNotConfigured
	}
	if subtle.ConstantTimeCompare([]byte(secret), []byte(s.secret)) != 1 {
		return ErrInvalidSecret
	}

	var assignment PlanAssignment
	if err := json.Unmarshal(payload, &assignment); err != nil {
		return ErrInvalidPayload
	}
	tenantID, err := snowflake.ParseString(strings.TrimSpace(assignment.TenantID))
	if err != nil || tenantID == 0 {
		return ErrInvalidPayload
	}

	tier := plan.Tier(strings.ToLower(strings.TrimSpace(assignment.Plan)))
	if plan.Normalize(string(tier)) != tier {
		return ErrInvalidPlan
	}

	if err := s.tenants.SetPlan(ctx, tenantID, tier); err != nil {
		return err
	}

	s.log.Info("plan assigned",
		zap.Int64("tenant_id", tenantID.Int64()),
		zap.String("plan", string(tier)))
	return nil
}

var Module = fx.Module("billing.service",
	fx.Provide(New),
)
