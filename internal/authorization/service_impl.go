package authorization

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	ObjectBot      = "bot"
	ObjectMember   = "member"
	ObjectDocument = "document"
	ObjectSchedule = "schedule"
)

const (
	ActionBotCreate = "bot.create"

	ActionMemberView    = "member.view"
	ActionMemberApprove = "member.approve"
	ActionMemberBlock   = "member.block"
	ActionMemberPromote = "member.promote"
	ActionMemberInvite  = "member.invite"

	ActionDocumentUpload = "document.upload"
	ActionDocumentView   = "document.view"

	ActionScheduleManage = "schedule.manage"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
}

type ServiceImpl struct {
	db       *gorm.DB
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
}

func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	enforcer.BuildRoleLinks()
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		db:       p.DB,
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, actor, tenantID, object, action string) error {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return ErrInvalidActor
	}
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return ErrInvalidTenant
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	subject, roleName, err := s.resolveActor(ctx, actor, tenantID)
	if err != nil {
		return err
	}

	domain := fmt.Sprintf("tenant:%s", tenantID)
	if err := s.ensureGrouping(subject, roleName, domain); err != nil {
		return err
	}

	allowed, err := s.enforcer.Enforce(subject, domain, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.log.Debug("authorization denied",
			zap.String("subject", subject),
			zap.String("object", object),
			zap.String("action", action))
		return ErrForbidden
	}
	return nil
}

func (s *ServiceImpl) resolveActor(ctx context.Context, actor, tenantID string) (string, string, error) {
	raw, ok := strings.CutPrefix(actor, "actor:")
	if !ok {
		return "", "", ErrInvalidActor
	}
	actorID, err := snowflake.ParseString(raw)
	if err != nil || actorID == 0 {
		return "", "", ErrInvalidActor
	}
	parsedTenant, err := snowflake.ParseString(tenantID)
	if err != nil || parsedTenant == 0 {
		return "", "", ErrInvalidTenant
	}

	role, err := s.roleForActor(ctx, parsedTenant, actorID)
	if err != nil {
		return "", "", err
	}
	return actor, fmt.Sprintf("role:%s", strings.ToLower(role)), nil
}

func (s *ServiceImpl) roleForActor(ctx context.Context, tenantID, actorID snowflake.ID) (string, error) {
	var row struct {
		Role string `gorm:"column:role"`
	}
	if err := s.db.WithContext(ctx).Raw(
		`SELECT role
		 FROM actors
		 WHERE tenant_id = ? AND id = ?
		 LIMIT 1`,
		tenantID,
		actorID,
	).Scan(&row).Error; err != nil {
		return "", err
	}

	role := strings.TrimSpace(row.Role)
	if role == "" {
		return "", ErrForbidden
	}
	return role, nil
}

// ensureGrouping keeps the actor's role link in casbin aligned with the
// actors table, replacing a stale link after a promote or demote.
func (s *ServiceImpl) ensureGrouping(subject, roleName, domain string) error {
	existing, err := s.enforcer.GetFilteredGroupingPolicy(0, subject, "", domain)
	if err != nil {
		return err
	}
	for _, rule := range existing {
		if len(rule) < 2 {
			continue
		}
		if rule[1] != roleName {
			params := make([]interface{}, 0, len(rule))
			for _, value := range rule {
				params = append(params, value)
			}
			_, _ = s.enforcer.RemoveGroupingPolicy(params...)
		}
	}

	has, err := s.enforcer.HasGroupingPolicy(subject, roleName, domain)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	_, err = s.enforcer.AddGroupingPolicy(subject, roleName, domain)
	return err
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		// Members interact with bots and their content only.
		{"role:member", ObjectDocument, ActionDocumentUpload},
		{"role:member", ObjectDocument, ActionDocumentView},
		{"role:member", ObjectSchedule, ActionScheduleManage},

		// Admins additionally see the member roster.
		{"role:admin", ObjectDocument, ActionDocumentUpload},
		{"role:admin", ObjectDocument, ActionDocumentView},
		{"role:admin", ObjectSchedule, ActionScheduleManage},
		{"role:admin", ObjectMember, ActionMemberView},

		// Owners manage the tenant. Shared bot creation is an owner
		// action; deletion authority is per bot and stays with the bot
		// service, which knows who owns a private bot.
		{"role:owner", ObjectBot, ActionBotCreate},
		{"role:owner", ObjectMember, ActionMemberView},
		{"role:owner", ObjectMember, ActionMemberApprove},
		{"role:owner", ObjectMember, ActionMemberBlock},
		{"role:owner", ObjectMember, ActionMemberPromote},
		{"role:owner", ObjectMember, ActionMemberInvite},
		{"role:owner", ObjectDocument, ActionDocumentUpload},
		{"role:owner", ObjectDocument, ActionDocumentView},
		{"role:owner", ObjectSchedule, ActionScheduleManage},
	}

	for _, policy := range policies {
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}
	return nil
}
