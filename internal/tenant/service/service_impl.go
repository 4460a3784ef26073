package service

import (
	"context"
	"strings"
	"time"

	"github.com/agencydesk/agencydesk/internal/plan"
	"github.com/agencydesk/agencydesk/internal/tenant/domain"
	"github.com/agencydesk/agencydesk/internal/tenantctx"
	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		log:   p.Log.Named("tenant.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Signup(ctx context.Context, name, contactEmail string) (*domain.Tenant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	contactEmail = strings.ToLower(strings.TrimSpace(contactEmail))
	if contactEmail == "" || !strings.Contains(contactEmail, "@") {
		return nil, domain.ErrInvalidEmail
	}

	now := time.Now().UTC()
	tenant := &domain.Tenant{
		ID:           s.genID.Generate(),
		Name:         name,
		Slug:         slug.Make(name),
		ContactEmail: contactEmail,
		Plan:         string(plan.TierFree),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.CreateTenant(ctx, tenant); err != nil {
		return nil, err
	}

	s.log.Info("tenant created",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("slug", tenant.Slug),
	)
	return tenant, nil
}

func (s *Service) Resolve(ctx context.Context, cred tenantctx.Credential) (*tenantctx.AuthedContext, error) {
	if cred.TenantID == 0 {
		return nil, domain.ErrUnauthenticated
	}

	tenant, err := s.repo.GetTenant(ctx, cred.TenantID)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, domain.ErrUnauthenticated
	}

	if err := s.ensureFirstOwner(ctx, tenant); err != nil {
		return nil, err
	}

	actor, err := s.locateActor(ctx, tenant, cred)
	if err != nil {
		return nil, err
	}
	if actor == nil {
		return nil, domain.ErrUnauthenticated
	}

	return &tenantctx.AuthedContext{
		TenantID:    tenant.ID,
		TenantEmail: tenant.ContactEmail,
		ActorID:     actor.ID,
		Role:        tenantctx.NormalizeRole(actor.Role),
		Status:      tenantctx.NormalizeStatus(actor.Status),
		Plan:        plan.Normalize(tenant.Plan),
	}, nil
}

// ensureFirstOwner repairs tenants with no actor rows by promoting the
// contact email to owner/active. The conditional insert makes this safe
// to run from concurrent resolutions.
func (s *Service) ensureFirstOwner(ctx context.Context, tenant *domain.Tenant) error {
	count, err := s.repo.CountActors(ctx, tenant.ID)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	now := time.Now().UTC()
	owner := &domain.Actor{
		ID:        s.genID.Generate(),
		TenantID:  tenant.ID,
		Email:     tenant.ContactEmail,
		Role:      string(tenantctx.RoleOwner),
		Status:    string(tenantctx.StatusActive),
		CreatedAt: now,
		UpdatedAt: now,
	}
	inserted, err := s.repo.InsertActorIfAbsent(ctx, owner)
	if err != nil {
		return err
	}
	if inserted {
		s.log.Info("bootstrapped first owner",
			zap.String("tenant_id", tenant.ID.String()),
			zap.String("email", tenant.ContactEmail),
		)
	}
	return nil
}

// locateActor follows the credential resolution order: explicit actor id,
// then tenant+email, then a lazily created pending member. Resolution
// never changes an existing actor's status.
func (s *Service) locateActor(ctx context.Context, tenant *domain.Tenant, cred tenantctx.Credential) (*domain.Actor, error) {
	if cred.ActorID != 0 {
		actor, err := s.repo.GetActorByID(ctx, tenant.ID, cred.ActorID)
		if err != nil {
			return nil, err
		}
		if actor != nil {
			return actor, nil
		}
	}

	email := strings.ToLower(strings.TrimSpace(cred.TenantEmail))
	if email == "" {
		return nil, nil
	}

	actor, err := s.repo.GetActorByEmail(ctx, tenant.ID, email)
	if err != nil {
		return nil, err
	}
	if actor != nil {
		return actor, nil
	}

	now := time.Now().UTC()
	pending := &domain.Actor{
		ID:        s.genID.Generate(),
		TenantID:  tenant.ID,
		Email:     email,
		Role:      string(tenantctx.RoleMember),
		Status:    string(tenantctx.StatusPending),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.repo.InsertActorIfAbsent(ctx, pending); err != nil {
		return nil, err
	}
	// Re-fetch so a concurrent insert wins consistently.
	return s.repo.GetActorByEmail(ctx, tenant.ID, email)
}

func (s *Service) RequireActiveMember(authed *tenantctx.AuthedContext) error {
	if authed == nil {
		return domain.ErrUnauthenticated
	}
	if authed.Status != tenantctx.StatusActive {
		return domain.ErrNotActive
	}
	return nil
}

func (s *Service) RequireOwner(authed *tenantctx.AuthedContext) error {
	if err := s.RequireActiveMember(authed); err != nil {
		return err
	}
	if authed.Role != tenantctx.RoleOwner {
		return domain.ErrNotOwner
	}
	return nil
}

func (s *Service) ApproveActor(ctx context.Context, authed *tenantctx.AuthedContext, actorID snowflake.ID) error {
	if err := s.RequireOwner(authed); err != nil {
		return err
	}
	target, err := s.repo.GetActorByID(ctx, authed.TenantID, actorID)
	if err != nil {
		return err
	}
	if target == nil {
		return domain.ErrActorNotFound
	}

	if tenantctx.NormalizeRole(target.Role) == tenantctx.RoleMember {
		limits := plan.LimitsFor(authed.Plan)
		if limits.Seats != nil {
			seats, err := s.repo.CountBillableSeats(ctx, authed.TenantID)
			if err != nil {
				return err
			}
			if seats >= int64(*limits.Seats) {
				return domain.ErrSeatLimitReached
			}
		}
	}

	return s.repo.UpdateActorStatus(ctx, authed.TenantID, actorID, string(tenantctx.StatusActive))
}

func (s *Service) BlockActor(ctx context.Context, authed *tenantctx.AuthedContext, actorID snowflake.ID) error {
	if err := s.RequireOwner(authed); err != nil {
		return err
	}
	if actorID == authed.ActorID {
		return domain.ErrSelfLockout
	}
	target, err := s.repo.GetActorByID(ctx, authed.TenantID, actorID)
	if err != nil {
		return err
	}
	if target == nil {
		return domain.ErrActorNotFound
	}
	return s.repo.UpdateActorStatus(ctx, authed.TenantID, actorID, string(tenantctx.StatusBlocked))
}

func (s *Service) PromoteActor(ctx context.Context, authed *tenantctx.AuthedContext, actorID snowflake.ID, role tenantctx.Role) error {
	if err := s.RequireOwner(authed); err != nil {
		return err
	}
	switch role {
	case tenantctx.RoleOwner, tenantctx.RoleAdmin, tenantctx.RoleMember:
	default:
		return domain.ErrInvalidRole
	}
	if actorID == authed.ActorID && role != tenantctx.RoleOwner {
		return domain.ErrSelfLockout
	}
	target, err := s.repo.GetActorByID(ctx, authed.TenantID, actorID)
	if err != nil {
		return err
	}
	if target == nil {
		return domain.ErrActorNotFound
	}
	return s.repo.UpdateActorRole(ctx, authed.TenantID, actorID, string(role))
}

func (s *Service) InviteActor(ctx context.Context, authed *tenantctx.AuthedContext, email string, role tenantctx.Role) (*domain.Actor, error) {
	if err := s.RequireOwner(authed); err != nil {
		return nil, err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, domain.ErrInvalidEmail
	}
	switch role {
	case tenantctx.RoleAdmin, tenantctx.RoleMember:
	default:
		return nil, domain.ErrInvalidRole
	}

	invitedBy := authed.ActorID
	now := time.Now().UTC()
	invited := &domain.Actor{
		ID:        s.genID.Generate(),
		TenantID:  authed.TenantID,
		Email:     email,
		Role:      string(role),
		Status:    string(tenantctx.StatusPending),
		InvitedBy: &invitedBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	inserted, err := s.repo.InsertActorIfAbsent(ctx, invited)
	if err != nil {
		return nil, err
	}
	if !inserted {
		return s.repo.GetActorByEmail(ctx, authed.TenantID, email)
	}
	return invited, nil
}

func (s *Service) AcceptInvite(ctx context.Context, authed *tenantctx.AuthedContext) error {
	if authed == nil {
		return domain.ErrUnauthenticated
	}
	actor, err := s.repo.GetActorByID(ctx, authed.TenantID, authed.ActorID)
	if err != nil {
		return err
	}
	if actor == nil {
		return domain.ErrActorNotFound
	}
	if actor.InvitedBy == nil {
		return domain.ErrNotInvited
	}
	if tenantctx.NormalizeStatus(actor.Status) == tenantctx.StatusBlocked {
		return domain.ErrNotActive
	}
	return s.repo.UpdateActorStatus(ctx, authed.TenantID, authed.ActorID, string(tenantctx.StatusActive))
}

func (s *Service) ListActors(ctx context.Context, authed *tenantctx.AuthedContext) ([]domain.Actor, error) {
	if err := s.RequireActiveMember(authed); err != nil {
		return nil, err
	}
	return s.repo.ListActors(ctx, authed.TenantID)
}

func (s *Service) SetPlan(ctx context.Context, tenantID snowflake.ID, tier plan.Tier) error {
	tenant, err := s.repo.GetTenant(ctx, tenantID)
	if err != nil {
		return err
	}
	if tenant == nil {
		return domain.ErrTenantNotFound
	}
	if err := s.repo.UpdateTenantPlan(ctx, tenantID, string(tier)); err != nil {
		return err
	}
	s.log.Info("tenant plan updated",
		zap.String("tenant_id", tenantID.String()),
		zap.String("plan", string(tier)),
	)
	return nil
}
