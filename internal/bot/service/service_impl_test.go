package service

import (
	"context"
	"testing"

	"github.com/agencydesk/agencydesk/internal/bot/domain"
	botrepo "github.com/agencydesk/agencydesk/internal/bot/repository"
	convdomain "github.com/agencydesk/agencydesk/internal/conversation/domain"
	convservice "github.com/agencydesk/agencydesk/internal/conversation/service"
	docdomain "github.com/agencydesk/agencydesk/internal/document/domain"
	docrepo "github.com/agencydesk/agencydesk/internal/document/repository"
	"github.com/agencydesk/agencydesk/internal/knowledge"
	"github.com/agencydesk/agencydesk/internal/plan"
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

type fixture struct {
	svc           domain.Service
	conversations convdomain.Service
	documents     docdomain.Repository
	db            *gorm.DB
	node          *snowflake.Node
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := pkgdb.NewTest()
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&tenantdomain.Tenant{}, &tenantdomain.Actor{},
		&domain.Bot{},
		&convdomain.Conversation{}, &convdomain.Message{},
		&docdomain.Document{}, &docdomain.ExtractionRecord{},
		&scheddomain.ScheduleEvent{}, &scheddomain.ScheduleTask{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	log := zap.NewNop()

	tenants := tenantservice.New(tenantservice.Params{
		Log:   log,
		GenID: node,
		Repo:  tenantrepo.NewRepository(db),
	})
	conversations := convservice.New(convservice.Params{DB: db, Log: log, GenID: node})
	documents := docrepo.NewRepository(db)

	svc := New(Params{
		Log:           log,
		GenID:         node,
		Repo:          botrepo.NewRepository(db),
		Tenants:       tenants,
		Conversations: conversations,
		Documents:     documents,
		Schedules:     schedrepo.NewRepository(db),
		Knowledge:     knowledge.NewNoop(),
	})

	return &fixture{
		svc:           svc,
		conversations: conversations,
		documents:     documents,
		db:            db,
		node:          node,
	}
}

func authedOwner(f *fixture, tier plan.Tier) *tenantctx.AuthedContext {
	return &tenantctx.AuthedContext{
		TenantID: f.node.Generate(),
		ActorID:  f.node.Generate(),
		Role:     tenantctx.RoleOwner,
		Status:   tenantctx.StatusActive,
		Plan:     tier,
	}
}

func memberOf(f *fixture, authed *tenantctx.AuthedContext, status tenantctx.Status) *tenantctx.AuthedContext {
	return &tenantctx.AuthedContext{
		TenantID: authed.TenantID,
		ActorID:  f.node.Generate(),
		Role:     tenantctx.RoleMember,
		Status:   status,
		Plan:     authed.Plan,
	}
}

func TestAuthorizeSharedAndPrivate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := authedOwner(f, plan.TierPro)
	member := memberOf(f, owner, tenantctx.StatusActive)

	shared, err := f.svc.Create(ctx, owner, domain.CreateInput{Name: "Helpdesk"})
	require.NoError(t, err)
	private, err := f.svc.Create(ctx, member, domain.CreateInput{Name: "Scratch", Private: true})
	require.NoError(t, err)

	// Anyone in the tenant may use the shared bot.
	_, err = f.svc.Authorize(ctx, owner.TenantID, member.ActorID, shared.ID)
	assert.NoError(t, err)

	// The private bot only admits its owning actor.
	_, err = f.svc.Authorize(ctx, owner.TenantID, member.ActorID, private.ID)
	assert.NoError(t, err)
	_, err = f.svc.Authorize(ctx, owner.TenantID, owner.ActorID, private.ID)
	assert.ErrorIs(t, err, domain.ErrBotForbidden)
}

func TestAuthorizeForeignTenantLooksMissing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := authedOwner(f, plan.TierPro)

	bot, err := f.svc.Create(ctx, owner, domain.CreateInput{Name: "Helpdesk"})
	require.NoError(t, err)

	otherTenant := f.node.Generate()
	_, err = f.svc.Authorize(ctx, otherTenant, f.node.Generate(), bot.ID)
	assert.ErrorIs(t, err, domain.ErrBotNotFound)

	_, err = f.svc.Authorize(ctx, owner.TenantID, owner.ActorID, f.node.Generate())
	assert.ErrorIs(t, err, domain.ErrBotNotFound)
}

func TestCreateSharedRequiresOwner(t *testing.T) {
	f := newFixture(t)
	owner := authedOwner(f, plan.TierPro)
	member := memberOf(f, owner, tenantctx.StatusActive)

	_, err := f.svc.Create(context.Background(), member, domain.CreateInput{Name: "Helpdesk"})
	assert.ErrorIs(t, err, tenantdomain.ErrNotOwner)
}

func TestCreateEnforcesAgencyBotCap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	// Free tier allows a single shared bot.
	owner := authedOwner(f, plan.TierFree)

	_, err := f.svc.Create(ctx, owner, domain.CreateInput{Name: "First"})
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, owner, domain.CreateInput{Name: "Second"})
	assert.ErrorIs(t, err, domain.ErrBotLimitReached)

	// Private bots are not counted against the shared cap.
	_, err = f.svc.Create(ctx, owner, domain.CreateInput{Name: "Mine", Private: true})
	assert.NoError(t, err)
}

func TestCreateRejectsInactiveActor(t *testing.T) {
	f := newFixture(t)
	owner := authedOwner(f, plan.TierPro)
	pending := memberOf(f, owner, tenantctx.StatusPending)

	_, err := f.svc.Create(context.Background(), pending, domain.CreateInput{Name: "Nope", Private: true})
	assert.ErrorIs(t, err, tenantdomain.ErrNotActive)
}

func TestCreateProvisionsIndexHandle(t *testing.T) {
	f := newFixture(t)
	owner := authedOwner(f, plan.TierPro)

	bot, err := f.svc.Create(context.Background(), owner, domain.CreateInput{Name: "Helpdesk"})
	require.NoError(t, err)
	require.NotNil(t, bot.KnowledgeIndexHandle)
	assert.NotEmpty(t, *bot.KnowledgeIndexHandle)
}

func TestListShowsSharedPlusOwnPrivate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := authedOwner(f, plan.TierPro)
	member := memberOf(f, owner, tenantctx.StatusActive)

	_, err := f.svc.Create(ctx, owner, domain.CreateInput{Name: "Shared"})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, owner, domain.CreateInput{Name: "Owner private", Private: true})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, member, domain.CreateInput{Name: "Member private", Private: true})
	require.NoError(t, err)

	visible, err := f.svc.List(ctx, member)
	require.NoError(t, err)
	names := make([]string, 0, len(visible))
	for _, b := range visible {
		names = append(names, b.Name)
	}
	assert.ElementsMatch(t, []string{"Shared", "Member private"}, names)
}

func TestDeleteRoleRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := authedOwner(f, plan.TierPro)
	member := memberOf(f, owner, tenantctx.StatusActive)

	shared, err := f.svc.Create(ctx, owner, domain.CreateInput{Name: "Shared"})
	require.NoError(t, err)
	private, err := f.svc.Create(ctx, member, domain.CreateInput{Name: "Private", Private: true})
	require.NoError(t, err)

	// A member cannot delete a shared bot.
	err = f.svc.Delete(ctx, member, shared.ID)
	assert.ErrorIs(t, err, tenantdomain.ErrNotOwner)

	// The owner cannot delete someone else's private bot.
	err = f.svc.Delete(ctx, owner, private.ID)
	assert.ErrorIs(t, err, domain.ErrBotForbidden)

	assert.NoError(t, f.svc.Delete(ctx, owner, shared.ID))
	assert.NoError(t, f.svc.Delete(ctx, member, private.ID))
}

func TestDeleteCascadesDependents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := authedOwner(f, plan.TierPro)

	bot, err := f.svc.Create(ctx, owner, domain.CreateInput{Name: "Helpdesk"})
	require.NoError(t, err)

	conv, err := f.conversations.GetOrCreate(ctx, owner.TenantID, owner.ActorID, bot.ID)
	require.NoError(t, err)
	_, err = f.conversations.AppendMessage(ctx, conv.ID, convdomain.RoleUser, "hi")
	require.NoError(t, err)
	require.NoError(t, f.documents.InsertDocument(ctx, &docdomain.Document{
		ID:       f.node.Generate(),
		TenantID: owner.TenantID,
		BotID:    bot.ID,
		Filename: "guide.pdf",
		Status:   docdomain.StatusIndexed,
	}))

	require.NoError(t, f.svc.Delete(ctx, owner, bot.ID))

	_, err = f.svc.Authorize(ctx, owner.TenantID, owner.ActorID, bot.ID)
	assert.ErrorIs(t, err, domain.ErrBotNotFound)

	docs, err := f.documents.ListByBot(ctx, owner.TenantID, bot.ID)
	require.NoError(t, err)
	assert.Empty(t, docs)

	var msgCount int64
	require.NoError(t, f.db.Model(&convdomain.Message{}).
		Where("conversation_id = ?", conv.ID).
		Count(&msgCount).Error)
	assert.Zero(t, msgCount)
}
