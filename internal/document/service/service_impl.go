package service

import (
	"context"
	"strings"
	"time"

	botdomain "github.com/agencydesk/agencydesk/internal/bot/domain"
	"github.com/agencydesk/agencydesk/internal/clock"
	"github.com/agencydesk/agencydesk/internal/document/domain"
	"github.com/agencydesk/agencydesk/internal/knowledge"
	obsmetrics "github.com/agencydesk/agencydesk/internal/observability/metrics"
	"github.com/agencydesk/agencydesk/internal/plan"
	quotadomain "github.com/agencydesk/agencydesk/internal/quota/domain"
	tenantdomain "github.com/agencydesk/agencydesk/internal/tenant/domain"
	"github.com/agencydesk/agencydesk/internal/tenantctx"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	defaultPollInterval = 3 * time.Second
	defaultPollCeiling  = 90 * time.Second
)

type Params struct {
	fx.In

	Log       *zap.Logger
	GenID     *snowflake.Node
	Repo      domain.Repository
	Tenants   tenantdomain.Service
	Bots      botdomain.Service
	Quota     quotadomain.Service
	Knowledge knowledge.Capability
	Clock     clock.Clock
}

type Service struct {
	log       *zap.Logger
	genID     *snowflake.Node
	repo      domain.Repository
	tenants   tenantdomain.Service
	bots      botdomain.Service
	quota     quotadomain.Service
	knowledge knowledge.Capability
	clock     clock.Clock

	pollInterval time.Duration
	pollCeiling  time.Duration
}

func New(p Params) domain.Service {
	return &Service{
		log:          p.Log.Named("document.service"),
		genID:        p.GenID,
		repo:         p.Repo,
		tenants:      p.Tenants,
		bots:         p.Bots,
		quota:        p.Quota,
		knowledge:    p.Knowledge,
		clock:        p.Clock,
		pollInterval: defaultPollInterval,
		pollCeiling:  defaultPollCeiling,
	}
}

func (s *Service) Upload(ctx context.Context, authed *tenantctx.AuthedContext, in domain.UploadInput) (*domain.Document, error) {
	if err := s.tenants.RequireActiveMember(authed); err != nil {
		return nil, err
	}

	bot, err := s.bots.Authorize(ctx, authed.TenantID, authed.ActorID, in.BotID)
	if err != nil {
		return nil, err
	}
	if bot.KnowledgeIndexHandle == nil {
		return nil, domain.ErrNoIndexHandle
	}

	in.Filename = strings.TrimSpace(in.Filename)
	if in.Filename == "" || len(in.Content) == 0 {
		return nil, domain.ErrEmptyDocument
	}

	day := quotadomain.DayOf(s.clock.Now())
	if err := s.quota.EnforceUploadLimit(ctx, authed.TenantID, authed.Plan, day); err != nil {
		return nil, err
	}

	ref, err := s.knowledge.UploadDocument(ctx, *bot.KnowledgeIndexHandle, in.Filename, in.Content)
	if err != nil {
		return nil, err
	}

	if err := s.waitForIndexing(ctx, *bot.KnowledgeIndexHandle, ref); err != nil {
		return nil, err
	}

	doc := &domain.Document{
		ID:          s.genID.Generate(),
		TenantID:    authed.TenantID,
		BotID:       bot.ID,
		Filename:    in.Filename,
		SizeBytes:   int64(len(in.Content)),
		DocumentRef: ref,
		Status:      domain.StatusIndexed,
		UploadedBy:  authed.ActorID,
		CreatedAt:   s.clock.Now(),
	}
	if err := s.repo.InsertDocument(ctx, doc); err != nil {
		return nil, err
	}

	// Quota is charged only now, after indexing verifiably finished.
	if err := s.quota.IncrementUploads(ctx, authed.TenantID, day, 1); err != nil {
		s.log.Error("upload quota increment failed",
			zap.Int64("tenant_id", authed.TenantID.Int64()),
			zap.Error(err))
	}
	obsmetrics.Chat().IncUploadIndexed()

	s.log.Info("document indexed",
		zap.Int64("tenant_id", authed.TenantID.Int64()),
		zap.Int64("bot_id", bot.ID.Int64()),
		zap.String("filename", in.Filename))
	return doc, nil
}

// waitForIndexing polls the knowledge service until the document is
// indexed, the ceiling elapses, or indexing is reported failed.
func (s *Service) waitForIndexing(ctx context.Context, handle, ref string) error {
	deadline := time.Now().Add(s.pollCeiling)
	for {
		status, err := s.knowledge.IndexingStatus(ctx, handle, ref)
		if err != nil {
			return err
		}
		switch status {
		case knowledge.IndexingCompleted:
			return nil
		case knowledge.IndexingFailed:
			return domain.ErrIndexingFailed
		}

		if time.Now().After(deadline) {
			return domain.ErrIndexingTimeout
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.pollInterval):
		}
	}
}

func (s *Service) List(ctx context.Context, authed *tenantctx.AuthedContext, botID snowflake.ID) ([]domain.Document, error) {
	if err := s.tenants.RequireActiveMember(authed); err != nil {
		return nil, err
	}
	if _, err := s.bots.Authorize(ctx, authed.TenantID, authed.ActorID, botID); err != nil {
		return nil, err
	}
	return s.repo.ListByBot(ctx, authed.TenantID, botID)
}

func (s *Service) ListExtractions(ctx context.Context, authed *tenantctx.AuthedContext, botID snowflake.ID) ([]domain.ExtractionRecord, error) {
	if err := s.tenants.RequireActiveMember(authed); err != nil {
		return nil, err
	}
	if err := plan.RequireFeature(authed.Plan, plan.FeatureExtraction); err != nil {
		return nil, err
	}
	if _, err := s.bots.Authorize(ctx, authed.TenantID, authed.ActorID, botID); err != nil {
		return nil, err
	}
	return s.repo.ListExtractionsByBot(ctx, authed.TenantID, botID)
}
