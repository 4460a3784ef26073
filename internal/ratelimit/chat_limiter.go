package ratelimit

import (
	"context"
	"fmt"
	"strings"

	"github.com/agencydesk/agencydesk/internal/config"
	"github.com/bwmarrin/snowflake"
	redis "github.com/redis/go-redis/v9"
)

const keyChatTenant = "chat:tenant:%s"

// ChatLimiter smooths chat bursts per tenant. It is distinct from the
// daily quota ledger: the ledger does daily accounting, this caps
// request rate. Nil when rate limiting is not configured.
type ChatLimiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
}

func NewChatLimiter(cfg config.Config) *ChatLimiter {
	if !cfg.ChatRateLimitEnabled {
		return nil
	}
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.RedisPassword),
	})
	return &ChatLimiter{
		bucket: NewTokenBucket(client),
		rate:   float64(cfg.ChatRateLimitPerSec),
		burst:  cfg.ChatRateLimitBurst,
	}
}

// Allow reports whether the tenant may send another chat request now.
// A nil limiter always allows.
func (l *ChatLimiter) Allow(ctx context.Context, tenantID snowflake.ID) (*RateLimitResult, error) {
	if l == nil || l.bucket == nil {
		return &RateLimitResult{Allowed: true}, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyChatTenant, tenantID), l.rate, l.burst)
}
