package chat

import (
	"context"
	"errors"
	"regexp"
	"time"

	botdomain "github.com/agencydesk/agencydesk/internal/bot/domain"
	"github.com/agencydesk/agencydesk/internal/clock"
	convdomain "github.com/agencydesk/agencydesk/internal/conversation/domain"
	"github.com/agencydesk/agencydesk/internal/knowledge"
	obsmetrics "github.com/agencydesk/agencydesk/internal/observability/metrics"
	"github.com/agencydesk/agencydesk/internal/plan"
	quotadomain "github.com/agencydesk/agencydesk/internal/quota/domain"
	"github.com/agencydesk/agencydesk/internal/summarizer"
	tenantdomain "github.com/agencydesk/agencydesk/internal/tenant/domain"
	"github.com/agencydesk/agencydesk/internal/tenantctx"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// recentWindow is how many raw messages are handed to the answer
// capability alongside the rolling summary.
const recentWindow = 20

var timeQuestion = regexp.MustCompile(`(?i)\bwhat\s+time\s+is\s+it\b`)

// referenceZone is the timezone used by the time carve-out.
var referenceZone = loadReferenceZone()

func loadReferenceZone() *time.Location {
	loc, err := time.LoadLocation("Asia/Jakarta")
	if err != nil {
		return time.FixedZone("WIB", 7*60*60)
	}
	return loc
}

// Reply is one answered turn. Remaining is the message quota left for
// the day, nil when the turn did not charge quota.
type Reply struct {
	Answer    string `json:"answer"`
	Remaining *int   `json:"remaining,omitempty"`
}

// UsageSnapshot is the display shape for the usage endpoint. Nil caps
// mean unlimited.
type UsageSnapshot struct {
	MessagesUsedToday int  `json:"messages_used_today"`
	MessagesCapToday  *int `json:"messages_cap_today,omitempty"`
	UploadsUsedToday  int  `json:"uploads_used_today"`
	UploadsCapToday   *int `json:"uploads_cap_today,omitempty"`
}

type Service interface {
	SendMessage(ctx context.Context, authed *tenantctx.AuthedContext, botID snowflake.ID, text string) (*Reply, error)
	ResetConversation(ctx context.Context, authed *tenantctx.AuthedContext, botID snowflake.ID) error
	Usage(ctx context.Context, authed *tenantctx.AuthedContext) (*UsageSnapshot, error)
}

type Params struct {
	fx.In

	Log           *zap.Logger
	Tenants       tenantdomain.Service
	Bots          botdomain.Service
	Quota         quotadomain.Service
	Conversations convdomain.Service
	Summarizer    summarizer.Service
	Knowledge     knowledge.Capability
	Clock         clock.Clock
}

type service struct {
	log           *zap.Logger
	tenants       tenantdomain.Service
	bots          botdomain.Service
	quota         quotadomain.Service
	conversations convdomain.Service
	summarizer    summarizer.Service
	knowledge     knowledge.Capability
	clock         clock.Clock
	metrics       *obsmetrics.ChatMetrics
}

func New(p Params) Service {
	return &service{
		log:           p.Log.Named("chat.service"),
		tenants:       p.Tenants,
		bots:          p.Bots,
		quota:         p.Quota,
		conversations: p.Conversations,
		summarizer:    p.Summarizer,
		knowledge:     p.Knowledge,
		clock:         p.Clock,
		metrics:       obsmetrics.Chat(),
	}
}

func (s *service) SendMessage(ctx context.Context, authed *tenantctx.AuthedContext, botID snowflake.ID, text string) (*Reply, error) {
	if err := s.tenants.RequireActiveMember(authed); err != nil {
		return nil, err
	}

	// Zero-cost side channel: answering the clock question touches
	// neither the quota ledger nor the conversation store.
	if timeQuestion.MatchString(text) {
		now := s.clock.Now().In(referenceZone)
		return &Reply{Answer: "It is " + now.Format("15:04 MST, Monday 2 January 2006") + "."}, nil
	}

	day := quotadomain.DayOf(s.clock.Now())
	if err := s.quota.EnforceDailyLimit(ctx, authed.TenantID, authed.Plan, day); err != nil {
		var exceeded *quotadomain.ExceededError
		if errors.As(err, &exceeded) {
			s.metrics.IncQuotaDenial("messages")
		}
		return nil, err
	}

	bot, err := s.bots.Authorize(ctx, authed.TenantID, authed.ActorID, botID)
	if err != nil {
		return nil, err
	}

	conv, err := s.conversations.GetOrCreate(ctx, authed.TenantID, authed.ActorID, botID)
	if err != nil {
		return nil, err
	}

	if _, err := s.conversations.AppendMessage(ctx, conv.ID, convdomain.RoleUser, text); err != nil {
		return nil, err
	}
	if err := s.conversations.BumpMessageCount(ctx, conv.ID, 1); err != nil {
		return nil, err
	}
	conv.MessageCount++

	// Compaction is best-effort; a failed pass leaves the
	// conversation due and chat proceeds.
	wasDue := conv.MessageCount >= plan.SummarizeThreshold(authed.Plan)
	if err := s.summarizer.MaybeSummarize(ctx, conv, authed.Plan); err == nil && wasDue {
		s.metrics.IncSummarization()
		// Pick up the fresh summary and pruned log for the answer.
		conv, err = s.conversations.GetOrCreate(ctx, authed.TenantID, authed.ActorID, botID)
		if err != nil {
			return nil, err
		}
	}

	answer := s.answer(ctx, bot, conv)

	if _, err := s.conversations.AppendMessage(ctx, conv.ID, convdomain.RoleAssistant, answer); err != nil {
		return nil, err
	}
	if err := s.conversations.BumpMessageCount(ctx, conv.ID, 1); err != nil {
		return nil, err
	}

	// The quota slot is committed only after the full turn was
	// recorded; an abandoned or failed request never charges.
	if err := s.quota.IncrementMessages(ctx, authed.TenantID, day); err != nil {
		s.log.Error("message quota increment failed",
			zap.Int64("tenant_id", authed.TenantID.Int64()),
			zap.Error(err))
	}
	s.metrics.IncMessageAnswered(string(authed.Plan))

	return &Reply{Answer: answer, Remaining: s.remaining(ctx, authed, day)}, nil
}

// answer invokes the external capability and degrades to the fixed
// fallback text on failure.
func (s *service) answer(ctx context.Context, bot *botdomain.Bot, conv *convdomain.Conversation) string {
	window, err := s.conversations.LoadRecent(ctx, conv.ID, recentWindow)
	if err != nil {
		s.log.Warn("loading recent messages failed", zap.Error(err))
		s.metrics.IncFallbackAnswer()
		return knowledge.FallbackAnswer
	}

	req := knowledge.AnswerRequest{
		Instructions: bot.Instructions,
		Messages:     window,
	}
	if conv.Summary != nil {
		req.Summary = *conv.Summary
	}
	if bot.KnowledgeIndexHandle != nil {
		req.IndexHandle = *bot.KnowledgeIndexHandle
	}

	answer, err := s.knowledge.Answer(ctx, req)
	if err != nil {
		s.log.Warn("answer capability failed, degrading",
			zap.Int64("bot_id", bot.ID.Int64()), zap.Error(err))
		s.metrics.IncFallbackAnswer()
		return knowledge.FallbackAnswer
	}
	return answer
}

func (s *service) remaining(ctx context.Context, authed *tenantctx.AuthedContext, day string) *int {
	usage, err := s.quota.GetDailyUsage(ctx, authed.TenantID, day)
	if err != nil {
		return nil
	}
	limit := plan.LimitsFor(authed.Plan).DailyMessages
	if limit == nil {
		return nil
	}
	left := *limit - usage.MessagesCount
	if left < 0 {
		left = 0
	}
	return &left
}

func (s *service) ResetConversation(ctx context.Context, authed *tenantctx.AuthedContext, botID snowflake.ID) error {
	if err := s.tenants.RequireActiveMember(authed); err != nil {
		return err
	}
	if _, err := s.bots.Authorize(ctx, authed.TenantID, authed.ActorID, botID); err != nil {
		return err
	}
	conv, err := s.conversations.GetOrCreate(ctx, authed.TenantID, authed.ActorID, botID)
	if err != nil {
		return err
	}
	return s.conversations.Reset(ctx, conv.ID)
}

func (s *service) Usage(ctx context.Context, authed *tenantctx.AuthedContext) (*UsageSnapshot, error) {
	if err := s.tenants.RequireActiveMember(authed); err != nil {
		return nil, err
	}
	usage, err := s.quota.GetDailyUsage(ctx, authed.TenantID, quotadomain.DayOf(s.clock.Now()))
	if err != nil {
		return nil, err
	}
	limits := plan.LimitsFor(authed.Plan)
	return &UsageSnapshot{
		MessagesUsedToday: usage.MessagesCount,
		MessagesCapToday:  limits.DailyMessages,
		UploadsUsedToday:  usage.UploadsCount,
		UploadsCapToday:   limits.DailyUploads,
	}, nil
}

var Module = fx.Module("chat.service",
	fx.Provide(New),
)
