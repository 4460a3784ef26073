package server

import (
	"context"
	"net/http"
	"time"

	"github.com/agencydesk/agencydesk/internal/authorization"
	"github.com/agencydesk/agencydesk/internal/billing"
	"github.com/agencydesk/agencydesk/internal/bot"
	botdomain "github.com/agencydesk/agencydesk/internal/bot/domain"
	"github.com/agencydesk/agencydesk/internal/chat"
	"github.com/agencydesk/agencydesk/internal/config"
	"github.com/agencydesk/agencydesk/internal/conversation"
	"github.com/agencydesk/agencydesk/internal/document"
	docdomain "github.com/agencydesk/agencydesk/internal/document/domain"
	"github.com/agencydesk/agencydesk/internal/knowledge"
	obstracing "github.com/agencydesk/agencydesk/internal/observability/tracing"
	"github.com/agencydesk/agencydesk/internal/quota"
	"github.com/agencydesk/agencydesk/internal/ratelimit"
	"github.com/agencydesk/agencydesk/internal/schedule"
	scheddomain "github.com/agencydesk/agencydesk/internal/schedule/domain"
	"github.com/agencydesk/agencydesk/internal/summarizer"
	"github.com/agencydesk/agencydesk/internal/tenant"
	tenantdomain "github.com/agencydesk/agencydesk/internal/tenant/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	authorization.Module,
	tenant.Module,
	quota.Module,
	conversation.Module,
	knowledge.Module,
	summarizer.Module,
	bot.Module,
	document.Module,
	schedule.Module,
	chat.Module,
	billing.Module,
	ratelimit.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(log.Named("http")))
	r.Use(obstracing.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(log *zap.Logger) *gin.Engine {
	return NewEngine(log)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine      *gin.Engine
	cfg         config.Config
	log         *zap.Logger
	db          *gorm.DB
	genID       *snowflake.Node
	tenantSvc   tenantdomain.Service
	botSvc      botdomain.Service
	chatSvc     chat.Service
	documentSvc docdomain.Service
	scheduleSvc scheddomain.Service
	billingSvc  billing.Service
	authzSvc    authorization.Service
	chatLimiter *ratelimit.ChatLimiter
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	Log         *zap.Logger
	DB          *gorm.DB
	GenID       *snowflake.Node
	TenantSvc   tenantdomain.Service
	BotSvc      botdomain.Service
	ChatSvc     chat.Service
	DocumentSvc docdomain.Service
	ScheduleSvc scheddomain.Service
	BillingSvc  billing.Service
	AuthzSvc    authorization.Service
	ChatLimiter *ratelimit.ChatLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		log:         p.Log.Named("server"),
		db:          p.DB,
		genID:       p.GenID,
		tenantSvc:   p.TenantSvc,
		botSvc:      p.BotSvc,
		chatSvc:     p.ChatSvc,
		documentSvc: p.DocumentSvc,
		scheduleSvc: p.ScheduleSvc,
		billingSvc:  p.BillingSvc,
		authzSvc:    p.AuthzSvc,
		chatLimiter: p.ChatLimiter,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	api.POST("/signup", s.Signup)
	api.POST("/billing/plan", s.AssignPlan)

	authed := api.Group("", s.TenantContext())

	authed.GET("/usage", s.GetUsage)

	authed.POST("/chat/:botId/messages", s.ChatRateLimit(), s.SendChatMessage)
	authed.POST("/chat/:botId/reset", s.ResetChat)

	authed.GET("/bots", s.ListBots)
	authed.POST("/bots", s.CreateBot)
	authed.DELETE("/bots/:botId", s.DeleteBot)

	authed.GET("/members", s.RequireAction(authorization.ObjectMember, authorization.ActionMemberView), s.ListMembers)
	authed.POST("/members/invite", s.RequireAction(authorization.ObjectMember, authorization.ActionMemberInvite), s.InviteMember)
	authed.POST("/members/accept", s.AcceptInvite)
	authed.POST("/members/:actorId/approve", s.RequireAction(authorization.ObjectMember, authorization.ActionMemberApprove), s.ApproveMember)
	authed.POST("/members/:actorId/block", s.RequireAction(authorization.ObjectMember, authorization.ActionMemberBlock), s.BlockMember)
	authed.POST("/members/:actorId/promote", s.RequireAction(authorization.ObjectMember, authorization.ActionMemberPromote), s.PromoteMember)

	authed.POST("/bots/:botId/documents", s.RequireAction(authorization.ObjectDocument, authorization.ActionDocumentUpload), s.UploadDocument)
	authed.GET("/bots/:botId/documents", s.RequireAction(authorization.ObjectDocument, authorization.ActionDocumentView), s.ListDocuments)
	authed.GET("/bots/:botId/extractions", s.RequireAction(authorization.ObjectDocument, authorization.ActionDocumentView), s.ListExtractions)

	authed.POST("/bots/:botId/events", s.RequireAction(authorization.ObjectSchedule, authorization.ActionScheduleManage), s.CreateScheduleEvent)
	authed.GET("/bots/:botId/events", s.RequireAction(authorization.ObjectSchedule, authorization.ActionScheduleManage), s.ListScheduleEvents)
	authed.POST("/bots/:botId/tasks", s.RequireAction(authorization.ObjectSchedule, authorization.ActionScheduleManage), s.CreateScheduleTask)
	authed.GET("/bots/:botId/tasks", s.RequireAction(authorization.ObjectSchedule, authorization.ActionScheduleManage), s.ListScheduleTasks)
	authed.POST("/tasks/:taskId/complete", s.RequireAction(authorization.ObjectSchedule, authorization.ActionScheduleManage), s.CompleteScheduleTask)
}
