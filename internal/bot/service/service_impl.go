package service

import (
	"context"
	"strings"
	"time"

	"github.com/agencydesk/agencydesk/internal/bot/domain"
	convdomain "github.com/agencydesk/agencydesk/internal/conversation/domain"
	docdomain "github.com/agencydesk/agencydesk/internal/document/domain"
	"github.com/agencydesk/agencydesk/internal/knowledge"
	"github.com/agencydesk/agencydesk/internal/plan"
	scheddomain "github.com/agencydesk/agencydesk/internal/schedule/domain"
	tenantdomain "github.com/agencydesk/agencydesk/internal/tenant/domain"
	"github.com/agencydesk/agencydesk/internal/tenantctx"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log           *zap.Logger
	GenID         *snowflake.Node
	Repo          domain.Repository
	Tenants       tenantdomain.Service
	Conversations convdomain.Service
	Documents     docdomain.Repository
	Schedules     scheddomain.Repository
	Knowledge     knowledge.Capability
}

type Service struct {
	log           *zap.Logger
	genID         *snowflake.Node
	repo          domain.Repository
	tenants       tenantdomain.Service
	conversations convdomain.Service
	documents     docdomain.Repository
	schedules     scheddomain.Repository
	knowledge     knowledge.Capability
}

func New(p Params) domain.Service {
	return &Service{
		log:           p.Log.Named("bot.service"),
		genID:         p.GenID,
		repo:          p.Repo,
		tenants:       p.Tenants,
		conversations: p.Conversations,
		documents:     p.Documents,
		schedules:     p.Schedules,
		knowledge:     p.Knowledge,
	}
}

func (s *Service) Authorize(ctx context.Context, tenantID, actorID, botID snowflake.ID) (*domain.Bot, error) {
	bot, err := s.repo.Get(ctx, tenantID, botID)
	if err != nil {
		return nil, err
	}
	if bot == nil {
		return nil, domain.ErrBotNotFound
	}
	if !bot.Shared() && *bot.OwnerActorID != actorID {
		return nil, domain.ErrBotForbidden
	}
	return bot, nil
}

func (s *Service) Create(ctx context.Context, authed *tenantctx.AuthedContext, in domain.CreateInput) (*domain.Bot, error) {
	if err := s.tenants.RequireActiveMember(authed); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, domain.ErrInvalidName
	}

	var ownerActorID *snowflake.ID
	if in.Private {
		actorID := authed.ActorID
		ownerActorID = &actorID
	} else {
		if err := s.tenants.RequireOwner(authed); err != nil {
			return nil, err
		}
		limits := plan.LimitsFor(authed.Plan)
		if limits.AgencyBots != nil {
			count, err := s.repo.CountShared(ctx, authed.TenantID)
			if err != nil {
				return nil, err
			}
			if count >= int64(*limits.AgencyBots) {
				return nil, domain.ErrBotLimitReached
			}
		}
	}

	now := time.Now().UTC()
	bot := &domain.Bot{
		ID:           s.genID.Generate(),
		TenantID:     authed.TenantID,
		OwnerActorID: ownerActorID,
		Name:         in.Name,
		Description:  strings.TrimSpace(in.Description),
		Instructions: strings.TrimSpace(in.Instructions),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// Index provisioning is not load-bearing for bot creation. A bot
	// without a handle answers ungrounded until one is provisioned.
	handle, err := s.knowledge.CreateIndex(ctx, bot.ID.String())
	if err != nil {
		s.log.Warn("knowledge index provisioning failed",
			zap.Int64("bot_id", bot.ID.Int64()), zap.Error(err))
	} else {
		bot.KnowledgeIndexHandle = &handle
	}

	if err := s.repo.Insert(ctx, bot); err != nil {
		return nil, err
	}

	s.log.Info("bot created",
		zap.Int64("tenant_id", authed.TenantID.Int64()),
		zap.Int64("bot_id", bot.ID.Int64()),
		zap.Bool("shared", bot.Shared()))
	return bot, nil
}

func (s *Service) List(ctx context.Context, authed *tenantctx.AuthedContext) ([]domain.Bot, error) {
	if err := s.tenants.RequireActiveMember(authed); err != nil {
		return nil, err
	}
	return s.repo.ListVisible(ctx, authed.TenantID, authed.ActorID)
}

func (s *Service) Delete(ctx context.Context, authed *tenantctx.AuthedContext, botID snowflake.ID) error {
	if err := s.tenants.RequireActiveMember(authed); err != nil {
		return err
	}

	bot, err := s.repo.Get(ctx, authed.TenantID, botID)
	if err != nil {
		return err
	}
	if bot == nil {
		return domain.ErrBotNotFound
	}
	if bot.Shared() {
		if err := s.tenants.RequireOwner(authed); err != nil {
			return err
		}
	} else if *bot.OwnerActorID != authed.ActorID {
		return domain.ErrBotForbidden
	}

	// Dependent cleanup is best-effort per step. A failed step is
	// logged and the rest still runs.
	s.cleanup(ctx, bot)

	deleted, err := s.repo.DeleteMatching(ctx, authed.TenantID, botID, bot.OwnerActorID)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrBotNotFound
	}

	s.log.Info("bot deleted",
		zap.Int64("tenant_id", authed.TenantID.Int64()),
		zap.Int64("bot_id", botID.Int64()))
	return nil
}

func (s *Service) cleanup(ctx context.Context, bot *domain.Bot) {
	steps := []struct {
		name string
		run  func() error
	}{
		{"documents", func() error { return s.documents.DeleteByBot(ctx, bot.TenantID, bot.ID) }},
		{"extractions", func() error { return s.documents.DeleteExtractionsByBot(ctx, bot.TenantID, bot.ID) }},
		{"schedules", func() error { return s.schedules.DeleteByBot(ctx, bot.TenantID, bot.ID) }},
		{"conversations", func() error { return s.conversations.DeleteByBot(ctx, bot.TenantID, bot.ID) }},
		{"knowledge_index", func() error {
			if bot.KnowledgeIndexHandle == nil {
				return nil
			}
			return s.knowledge.DeleteIndex(ctx, *bot.KnowledgeIndexHandle)
		}},
	}
	for _, step := range steps {
		if err := step.run(); err != nil {
			s.log.Warn("bot cleanup step failed",
				zap.String("step", step.name),
				zap.Int64("bot_id", bot.ID.Int64()),
				zap.Error(err))
		}
	}
}
