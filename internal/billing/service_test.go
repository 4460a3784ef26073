package billing

import (
	"context"
	"testing"

	"github.com/agencydesk/agencydesk/internal/config"
	"github.com/agencydesk/agencydesk/internal/plan"
	tenantdomain "github.com/agencydesk/agencydesk/internal/tenant/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type planRecorder struct {
	tenantdomain.Service

	tenantID snowflake.ID
	tier     plan.Tier
	calls    int
}

func (r *planRecorder) SetPlan(_ context.Context, tenantID snowflake.ID, tier plan.Tier) error {
	r.tenantID = tenantID
	r.tier = tier
	r.calls++
	return nil
}

func newService(recorder *planRecorder, secret string) Service {
	return New(Params{
		Cfg:     config.Config{BillingWebhookSecret: secret},
		Log:     zap.NewNop(),
		Tenants: recorder,
	})
}

func TestAssignPlan(t *testing.T) {
	recorder := &planRecorder{}
	svc := newService(recorder, "s3cret")

	err := svc.AssignPlan(context.Background(), "s3cret",
		[]byte(`{"tenant_id":"1234567890","plan":"pro"}`))
	require.NoError(t, err)
	assert.Equal(t, 1, recorder.calls)
	assert.Equal(t, plan.TierPro, recorder.tier)
	assert.Equal(t, "1234567890", recorder.tenantID.String())
}

func TestAssignPlanRejectsBadSecret(t *testing.T) {
	recorder := &planRecorder{}
	svc := newService(recorder, "s3cret")

	err := svc.AssignPlan(context.Background(), "wrong",
		[]byte(`{"tenant_id":"1234567890","plan":"pro"}`))
	assert.ErrorIs(t, err, ErrInvalidSecret)
	assert.Zero(t, recorder.calls)
}

func TestAssignPlanRejectsUnknownTier(t *testing.T) {
	recorder := &planRecorder{}
	svc := newService(recorder, "s3cret")

	err := svc.AssignPlan(context.Background(), "s3cret",
		[]byte(`{"tenant_id":"1234567890","plan":"platinum"}`))
	assert.ErrorIs(t, err, ErrInvalidPlan)
	assert.Zero(t, recorder.calls)
}

func TestAssignPlanUnconfiguredSecretNeverMatches(t *testing.T) {
	recorder := &planRecorder{}
	svc := newService(recorder, "")

	err := svc.AssignPlan(context.Background(), "",
		[]byte(`{"tenant_id":"1234567890","plan":"pro"}`))
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestAssignPlanRejectsGarbagePayload(t *testing.T) {
	recorder := &planRecorder{}
	svc := newService(recorder, "s3cret")

	assert.ErrorIs(t, svc.AssignPlan(context.Background(), "s3cret", []byte(`not json`)), ErrInvalidPayload)
	assert.ErrorIs(t, svc.AssignPlan(context.Background(), "s3cret", []byte(`{"tenant_id":"abc","plan":"pro"}`)), ErrInvalidPayload)
}
