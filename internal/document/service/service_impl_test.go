package service

import (
	"context"
	"testing"
	"time"

	botdomain "github.com/agencydesk/agencydesk/internal/bot/domain"
	botrepo "github.com/agencydesk/agencydesk/internal/bot/repository"
	botservice "github.com/agencydesk/agencydesk/internal/bot/service"
	"github.com/agencydesk/agencydesk/internal/clock"
	convdomain "github.com/agencydesk/agencydesk/internal/conversation/domain"
	convservice "github.com/agencydesk/agencydesk/internal/conversation/service"
	"github.com/agencydesk/agencydesk/internal/document/domain"
	docrepo "github.com/agencydesk/agencydesk/internal/document/repository"
	"github.com/agencydesk/agencydesk/internal/knowledge"
	"github.com/agencydesk/agencydesk/internal/plan"
	quotadomain "github.com/agencydesk/agencydesk/internal/quota/domain"
	quotaservice "github.com/agencydesk/agencydesk/internal/quota/service"
	scheddomain "github.com/agencydesk/agencydesk/internal/schedule/domain"
	schedrepo "github.com/agencydesk/agencydesk/internal/schedule/repository"
	tenantdomain "github.com/agencydesk/agencydesk/internal/tenant/domain"
	tenantrepo "github.com/agencydesk/agencydesk/internal/tenant/repository"
	tenantservice "github.com/agencydesk/agencydesk/internal/tenant/service"
	"github.com/agencydesk/agencydesk/internal/tenantctx"
	pkgdb "github.com/agencydesk/agencydesk/pkg/db"
	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// indexingCapability reports a scripted sequence of indexing states.
type indexingCapability struct {
	knowledge.Capability

	statuses []string
	polls    int
}

func (c *indexingCapability) CreateIndex(context.Context, string) (string, error) {
	return "idx-test", nil
}

func (c *indexingCapability) UploadDocument(context.Context, string, string, []byte) (string, error) {
	return "doc-ref-1", nil
}

func (c *indexingCapability) IndexingStatus(context.Context, string, string) (string, error) {
	if c.polls < len(c.statuses) {
		s := c.statuses[c.polls]
		c.polls++
		return s, nil
	}
	return knowledge.IndexingPending, nil
}

func (c *indexingCapability) DeleteIndex(context.Context, string) error { return nil }

type fixture struct {
	svc        *Service
	quota      quotadomain.Service
	capability *indexingCapability
	clk        *clock.FakeClock
	db         *gorm.DB
	node       *snowflake.Node
	owner      *tenantctx.AuthedContext
	bot        *botdomain.Bot
}

func newFixture(t *testing.T, tier plan.Tier, statuses []string) *fixture {
	t.Helper()

	db, err := pkgdb.NewTest()
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&tenantdomain.Tenant{}, &tenantdomain.Actor{},
		&botdomain.Bot{},
		&convdomain.Conversation{}, &convdomain.Message{},
		&quotadomain.LedgerEntry{},
		&domain.Document{}, &domain.ExtractionRecord{},
		&scheddomain.ScheduleEvent{}, &scheddomain.ScheduleTask{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	log := zap.NewNop()
	capability := &indexingCapability{statuses: statuses}
	clk := clock.NewFakeClock(time.Date(2024, 5, 10, 9, 30, 0, 0, time.UTC))

	tenants := tenantservice.New(tenantservice.Params{Log: log, GenID: node, Repo: tenantrepo.NewRepository(db)})
	conversations := convservice.New(convservice.Params{DB: db, Log: log, GenID: node})
	quota := quotaservice.New(quotaservice.Params{DB: db, Log: log})
	repo := docrepo.NewRepository(db)
	bots := botservice.New(botservice.Params{
		Log:           log,
		GenID:         node,
		Repo:          botrepo.NewRepository(db),
		Tenants:       tenants,
		Conversations: conversations,
		Documents:     repo,
		Schedules:     schedrepo.NewRepository(db),
		Knowledge:     capability,
	})

	svc := New(Params{
		Log:       log,
		GenID:     node,
		Repo:      repo,
		Tenants:   tenants,
		Bots:      bots,
		Quota:     quota,
		Knowledge: capability,
		Clock:     clk,
	}).(*Service)
	svc.pollInterval = time.Millisecond
	svc.pollCeiling = 50 * time.Millisecond

	owner := &tenantctx.AuthedContext{
		TenantID: node.Generate(),
		ActorID:  node.Generate(),
		Role:     tenantctx.RoleOwner,
		Status:   tenantctx.StatusActive,
		Plan:     tier,
	}
	bot, err := bots.Create(context.Background(), owner, botdomain.CreateInput{Name: "Helpdesk"})
	require.NoError(t, err)

	return &fixture{
		svc:        svc,
		quota:      quota,
		capability: capability,
		clk:        clk,
		db:         db,
		node:       node,
		owner:      owner,
		bot:        bot,
	}
}

func (f *fixture) uploadsToday(t *testing.T) int {
	t.Helper()
	usage, err := f.quota.GetDailyUsage(context.Background(), f.owner.TenantID, quotadomain.DayOf(f.clk.Now()))
	require.NoError(t, err)
	return usage.UploadsCount
}

func TestUploadWaitsForIndexingThenCharges(t *testing.T) {
	f := newFixture(t, plan.TierFree, []string{
		knowledge.IndexingPending,
		knowledge.IndexingPending,
		knowledge.IndexingCompleted,
	})
	ctx := context.Background()

	doc, err := f.svc.Upload(ctx, f.owner, domain.UploadInput{
		BotID:    f.bot.ID,
		Filename: "guide.pdf",
		Content:  []byte("hello"),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusIndexed, doc.Status)
	assert.Equal(t, "doc-ref-1", doc.DocumentRef)
	assert.Equal(t, 3, f.capability.polls)
	assert.Equal(t, 1, f.uploadsToday(t))

	docs, err := f.svc.List(ctx, f.owner, f.bot.ID)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "guide.pdf", docs[0].Filename)
}

func TestUploadIndexingFailureChargesNothing(t *testing.T) {
	f := newFixture(t, plan.TierFree, []string{knowledge.IndexingFailed})

	_, err := f.svc.Upload(context.Background(), f.owner, domain.UploadInput{
		BotID:    f.bot.ID,
		Filename: "guide.pdf",
		Content:  []byte("hello"),
	})
	assert.ErrorIs(t, err, domain.ErrIndexingFailed)
	assert.Equal(t, 0, f.uploadsToday(t))
}

func TestUploadTimesOutAtCeiling(t *testing.T) {
	// Indexing never completes.
	f := newFixture(t, plan.TierFree, nil)

	_, err := f.svc.Upload(context.Background(), f.owner, domain.UploadInput{
		BotID:    f.bot.ID,
		Filename: "guide.pdf",
		Content:  []byte("hello"),
	})
	assert.ErrorIs(t, err, domain.ErrIndexingTimeout)
	assert.Equal(t, 0, f.uploadsToday(t))
}

func TestUploadEnforcesDailyCap(t *testing.T) {
	f := newFixture(t, plan.TierFree, nil)
	ctx := context.Background()

	// Free tier allows 5 uploads per day; pre-consume them.
	day := quotadomain.DayOf(f.clk.Now())
	require.NoError(t, f.quota.IncrementUploads(ctx, f.owner.TenantID, day, 5))

	_, err := f.svc.Upload(ctx, f.owner, domain.UploadInput{
		BotID:    f.bot.ID,
		Filename: "guide.pdf",
		Content:  []byte("hello"),
	})
	var exceeded *quotadomain.ExceededError
	require.ErrorAs(t, err, &exceeded)
	assert.Equal(t, 5, exceeded.Used)
	assert.Equal(t, 5, exceeded.Cap)
}

func TestUploadRequiresIndexHandle(t *testing.T) {
	f := newFixture(t, plan.TierFree, nil)
	ctx := context.Background()

	require.NoError(t, f.db.Model(&botdomain.Bot{}).
		Where("id = ?", f.bot.ID).
		Update("knowledge_index_handle", nil).Error)

	_, err := f.svc.Upload(ctx, f.owner, domain.UploadInput{
		BotID:    f.bot.ID,
		Filename: "guide.pdf",
		Content:  []byte("hello"),
	})
	assert.ErrorIs(t, err, domain.ErrNoIndexHandle)
}

func TestListExtractionsIsPlanGated(t *testing.T) {
	f := newFixture(t, plan.TierFree, nil)
	ctx := context.Background()

	_, err := f.svc.ListExtractions(ctx, f.owner, f.bot.ID)
	var upgrade *plan.UpgradeRequiredError
	require.ErrorAs(t, err, &upgrade)
	assert.Equal(t, plan.FeatureExtraction, upgrade.Feature)

	// Pro includes extraction.
	pro := *f.owner
	pro.Plan = plan.TierPro
	recs, err := f.svc.ListExtractions(ctx, &pro, f.bot.ID)
	require.NoError(t, err)
	assert.Empty(t, recs)
}
