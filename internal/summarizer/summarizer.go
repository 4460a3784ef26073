package summarizer

import (
	"context"

	convdomain "github.com/agencydesk/agencydesk/internal/conversation/domain"
	"github.com/agencydesk/agencydesk/internal/knowledge"
	"github.com/agencydesk/agencydesk/internal/plan"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// windowCap bounds how many raw messages are folded per summarization
// pass. A backlog larger than this compacts over several passes.
const windowCap = 40

type Service interface {
	// MaybeSummarize compacts the conversation when its unsummarized
	// message count has reached the plan's threshold. When the
	// external call fails the conversation is left untouched and
	// stays due, so the next message retries.
	MaybeSummarize(ctx context.Context, conv *convdomain.Conversation, tier plan.Tier) error
}

type Params struct {
	fx.In

	Conversations convdomain.Service
	Knowledge     knowledge.Capability
	Log           *zap.Logger
}

type service struct {
	conversations convdomain.Service
	knowledge     knowledge.Capability
	log           *zap.Logger
}

func New(p Params) Service {
	return &service{
		conversations: p.Conversations,
		knowledge:     p.Knowledge,
		log:           p.Log.Named("summarizer.service"),
	}
}

func (s *service) MaybeSummarize(ctx context.Context, conv *convdomain.Conversation, tier plan.Tier) error {
	threshold := plan.SummarizeThreshold(tier)
	if conv.MessageCount < threshold {
		return nil
	}

	window, err := s.conversations.LoadOldest(ctx, conv.ID, windowCap)
	if err != nil {
		return err
	}
	if len(window) == 0 {
		return nil
	}

	var prior string
	if conv.Summary != nil {
		prior = *conv.Summary
	}

	summary, err := s.knowledge.Summarize(ctx, prior, window)
	if err != nil {
		s.log.Warn("summarization failed, conversation stays due",
			zap.Int64("conversation_id", conv.ID.Int64()),
			zap.Error(err))
		return err
	}

	last := window[len(window)-1].ID
	if err := s.conversations.CompleteSummarization(ctx, conv.ID, summary, last, len(window)); err != nil {
		return err
	}

	s.log.Info("conversation summarized",
		zap.Int64("conversation_id", conv.ID.Int64()),
		zap.Int("folded_messages", len(window)))
	return nil
}

var Module = fx.Module("summarizer",
	fx.Provide(New),
)
