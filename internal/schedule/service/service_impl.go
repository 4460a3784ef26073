package service

import (
	"context"
	"strings"

	botdomain "github.com/agencydesk/agencydesk/internal/bot/domain"
	"github.com/agencydesk/agencydesk/internal/clock"
	"github.com/agencydesk/agencydesk/internal/plan"
	"github.com/agencydesk/agencydesk/internal/schedule/domain"
	tenantdomain "github.com/agencydesk/agencydesk/internal/tenant/domain"
	"github.com/agencydesk/agencydesk/internal/tenantctx"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log     *zap.Logger
	GenID   *snowflake.Node
	Repo    domain.Repository
	Tenants tenantdomain.Service
	Bots    botdomain.Service
	Clock   clock.Clock
}

type Service struct {
	log     *zap.Logger
	genID   *snowflake.Node
	repo    domain.Repository
	tenants tenantdomain.Service
	bots    botdomain.Service
	clock   clock.Clock
}

func New(p Params) domain.Service {
	return &Service{
		log:     p.Log.Named("schedule.service"),
		genID:   p.GenID,
		repo:    p.Repo,
		tenants: p.Tenants,
		bots:    p.Bots,
		clock:   p.Clock,
	}
}

func (s *Service) guard(ctx context.Context, authed *tenantctx.AuthedContext, botID snowflake.ID) error {
	if err := s.tenants.RequireActiveMember(authed); err != nil {
		return err
	}
	if err := plan.RequireFeature(authed.Plan, plan.FeatureScheduling); err != nil {
		return err
	}
	_, err := s.bots.Authorize(ctx, authed.TenantID, authed.ActorID, botID)
	return err
}

func (s *Service) CreateEvent(ctx context.Context, authed *tenantctx.AuthedContext, in domain.EventInput) (*domain.ScheduleEvent, error) {
	if err := s.guard(ctx, authed, in.BotID); err != nil {
		return nil, err
	}
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, domain.ErrInvalidTitle
	}
	if !in.EndsAt.After(in.StartsAt) {
		return nil, domain.ErrInvalidRange
	}

	ev := &domain.ScheduleEvent{
		ID:        s.genID.Generate(),
		TenantID:  authed.TenantID,
		BotID:     in.BotID,
		ActorID:   authed.ActorID,
		Title:     in.Title,
		StartsAt:  in.StartsAt,
		EndsAt:    in.EndsAt,
		CreatedAt: s.clock.Now(),
	}
	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		return nil, err
	}
	return ev, nil
}

func (s *Service) ListEvents(ctx context.Context, authed *tenantctx.AuthedContext, botID snowflake.ID) ([]domain.ScheduleEvent, error) {
	if err := s.guard(ctx, authed, botID); err != nil {
		return nil, err
	}
	return s.repo.ListEventsByBot(ctx, authed.TenantID, botID)
}

func (s *Service) CreateTask(ctx context.Context, authed *tenantctx.AuthedContext, in domain.TaskInput) (*domain.ScheduleTask, error) {
	if err := s.guard(ctx, authed, in.BotID); err != nil {
		return nil, err
	}
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, domain.ErrInvalidTitle
	}

	task := &domain.ScheduleTask{
		ID:        s.genID.Generate(),
		TenantID:  authed.TenantID,
		BotID:     in.BotID,
		ActorID:   authed.ActorID,
		Title:     in.Title,
		DueAt:     in.DueAt,
		CreatedAt: s.clock.Now(),
	}
	if err := s.repo.InsertTask(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *Service) ListTasks(ctx context.Context, authed *tenantctx.AuthedContext, botID snowflake.ID) ([]domain.ScheduleTask, error) {
	if err := s.guard(ctx, authed, botID); err != nil {
		return nil, err
	}
	return s.repo.ListTasksByBot(ctx, authed.TenantID, botID)
}

func (s *Service) CompleteTask(ctx context.Context, authed *tenantctx.AuthedContext, taskID snowflake.ID) error {
	if err := s.tenants.RequireActiveMember(authed); err != nil {
		return err
	}
	if err := plan.RequireFeature(authed.Plan, plan.FeatureScheduling); err != nil {
		return err
	}

	task, err := s.repo.GetTask(ctx, authed.TenantID, taskID)
	if err != nil {
		return err
	}
	if task == nil {
		return domain.ErrTaskNotFound
	}
	if _, err := s.bots.Authorize(ctx, authed.TenantID, authed.ActorID, task.BotID); err != nil {
		return err
	}
	return s.repo.MarkTaskDone(ctx, authed.TenantID, taskID)
}
