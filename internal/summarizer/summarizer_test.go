package summarizer

import (
	"context"
	"errors"
	"fmt"
	"testing"

	convdomain "github.com/agencydesk/agencydesk/internal/conversation/domain"
	convservice "github.com/agencydesk/agencydesk/internal/conversation/service"
	"github.com/agencydesk/agencydesk/internal/knowledge"
	"github.com/agencydesk/agencydesk/internal/plan"
	pkgdb "github.com/agencydesk/agencydesk/pkg/db"
	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type scriptedCapability struct {
	knowledge.Capability

	summary string
	err     error
	calls   int
	windows []int
}

func (c *scriptedCapability) Summarize(_ context.Context, _ string, msgs []convdomain.Message) (string, error) {
	c.calls++
	c.windows = append(c.windows, len(msgs))
	if c.err != nil {
		return "", c.err
	}
	return c.summary, nil
}

func newFixture(t *testing.T, capability *scriptedCapability) (Service, convdomain.Service, *snowflake.Node) {
	t.Helper()

	db, err := pkgdb.NewTest()
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&convdomain.Conversation{}, &convdomain.Message{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	conversations := convservice.New(convservice.Params{DB: db, Log: zap.NewNop(), GenID: node})
	svc := New(Params{Conversations: conversations, Knowledge: capability, Log: zap.NewNop()})
	return svc, conversations, node
}

func seedConversation(t *testing.T, conversations convdomain.Service, node *snowflake.Node, msgs int) *convdomain.Conversation {
	t.Helper()
	ctx := context.Background()

	conv, err := conversations.GetOrCreate(ctx, node.Generate(), node.Generate(), node.Generate())
	require.NoError(t, err)
	for i := 0; i < msgs; i++ {
		_, err := conversations.AppendMessage(ctx, conv.ID, convdomain.RoleUser, fmt.Sprintf("msg %d", i))
		require.NoError(t, err)
	}
	require.NoError(t, conversations.BumpMessageCount(ctx, conv.ID, msgs))

	conv, err = conversations.GetOrCreate(ctx, conv.TenantID, conv.ActorID, conv.BotID)
	require.NoError(t, err)
	return conv
}

func TestMaybeSummarizeBelowThresholdIsNoop(t *testing.T) {
	capability := &scriptedCapability{summary: "unused"}
	svc, conversations, node := newFixture(t, capability)

	// Free tier threshold is 10.
	conv := seedConversation(t, conversations, node, 5)

	require.NoError(t, svc.MaybeSummarize(context.Background(), conv, plan.TierFree))
	assert.Zero(t, capability.calls)

	reloaded, err := conversations.GetOrCreate(context.Background(), conv.TenantID, conv.ActorID, conv.BotID)
	require.NoError(t, err)
	assert.Equal(t, 5, reloaded.MessageCount)
	assert.Nil(t, reloaded.Summary)
}

func TestMaybeSummarizeCompactsWhenDue(t *testing.T) {
	capability := &scriptedCapability{summary: "they talked about pricing"}
	svc, conversations, node := newFixture(t, capability)

	conv := seedConversation(t, conversations, node, 12)

	require.NoError(t, svc.MaybeSummarize(context.Background(), conv, plan.TierFree))
	assert.Equal(t, 1, capability.calls)

	reloaded, err := conversations.GetOrCreate(context.Background(), conv.TenantID, conv.ActorID, conv.BotID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.Summary)
	assert.Equal(t, "they talked about pricing", *reloaded.Summary)
	assert.Equal(t, 0, reloaded.MessageCount)

	msgs, err := conversations.LoadRecent(context.Background(), conv.ID, 50)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestMaybeSummarizeBacklogBeyondWindowCompactsInPasses(t *testing.T) {
	capability := &scriptedCapability{summary: "first pass"}
	svc, conversations, node := newFixture(t, capability)

	// 50 unsummarized messages, window holds 40. One pass folds the
	// oldest 40; the newest 10 must survive and stay counted.
	conv := seedConversation(t, conversations, node, 50)

	require.NoError(t, svc.MaybeSummarize(context.Background(), conv, plan.TierFree))
	require.Equal(t, []int{40}, capability.windows)

	reloaded, err := conversations.GetOrCreate(context.Background(), conv.TenantID, conv.ActorID, conv.BotID)
	require.NoError(t, err)
	assert.Equal(t, 10, reloaded.MessageCount)

	survivors, err := conversations.LoadRecent(context.Background(), conv.ID, 50)
	require.NoError(t, err)
	require.Len(t, survivors, 10)
	assert.Equal(t, "msg 40", survivors[0].Content)
	assert.Equal(t, "msg 49", survivors[9].Content)

	// Still due on free tier (threshold 10): the next pass folds the
	// remainder.
	capability.summary = "second pass"
	require.NoError(t, svc.MaybeSummarize(context.Background(), reloaded, plan.TierFree))
	require.Equal(t, []int{40, 10}, capability.windows)

	reloaded, err = conversations.GetOrCreate(context.Background(), conv.TenantID, conv.ActorID, conv.BotID)
	require.NoError(t, err)
	assert.Equal(t, 0, reloaded.MessageCount)
	require.NotNil(t, reloaded.Summary)
	assert.Equal(t, "second pass", *reloaded.Summary)
}

func TestMaybeSummarizeThresholdDependsOnPlan(t *testing.T) {
	capability := &scriptedCapability{summary: "summary"}
	svc, conversations, node := newFixture(t, capability)

	// 12 messages: due on free (threshold 10), not on pro (threshold 20).
	conv := seedConversation(t, conversations, node, 12)

	require.NoError(t, svc.MaybeSummarize(context.Background(), conv, plan.TierPro))
	assert.Zero(t, capability.calls)
}

func TestMaybeSummarizeFailureLeavesStateUntouched(t *testing.T) {
	capability := &scriptedCapability{err: errors.New("capability down")}
	svc, conversations, node := newFixture(t, capability)

	conv := seedConversation(t, conversations, node, 12)

	err := svc.MaybeSummarize(context.Background(), conv, plan.TierFree)
	require.Error(t, err)

	reloaded, err := conversations.GetOrCreate(context.Background(), conv.TenantID, conv.ActorID, conv.BotID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.Summary)
	assert.Equal(t, 12, reloaded.MessageCount)

	msgs, err := conversations.LoadRecent(context.Background(), conv.ID, 50)
	require.NoError(t, err)
	assert.Len(t, msgs, 12)

	// Still due: a retry with a healthy capability succeeds.
	capability.err = nil
	capability.summary = "second try"
	require.NoError(t, svc.MaybeSummarize(context.Background(), reloaded, plan.TierFree))
	assert.Equal(t, 2, capability.calls)
}
