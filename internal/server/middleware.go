package server

import (
	"strings"
	"time"

	"github.com/agencydesk/agencydesk/internal/tenantctx"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Credential headers filled in by the fronting identity proxy. The
// service trusts them; it is never exposed without the proxy.
const (
	HeaderTenant      = "X-Tenant-ID"
	HeaderTenantEmail = "X-Tenant-Email"
	HeaderActor       = "X-Actor-ID"
)

// RequestLogger emits one structured line per request.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("route", route),
			zap.Int("status", c.Writer.Status()),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		}
		if lastErr := c.Errors.Last(); lastErr != nil {
			fields = append(fields, zap.String("error", lastErr.Err.Error()))
		}

		if c.Writer.Status() >= 500 {
			log.Error("request", fields...)
			return
		}
		log.Info("request", fields...)
	}
}

// TenantContext resolves the credential headers into an authed tenant
// context and aborts unauthenticated requests.
func (s *Server) TenantContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		cred, err := credentialFromHeaders(c)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		authed, err := s.tenantSvc.Resolve(c.Request.Context(), cred)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Request = c.Request.WithContext(tenantctx.WithAuthed(c.Request.Context(), authed))
		c.Next()
	}
}

func credentialFromHeaders(c *gin.Context) (tenantctx.Credential, error) {
	tenantRaw := strings.TrimSpace(c.GetHeader(HeaderTenant))
	actorRaw := strings.TrimSpace(c.GetHeader(HeaderActor))
	email := strings.TrimSpace(c.GetHeader(HeaderTenantEmail))
	if tenantRaw == "" {
		return tenantctx.Credential{}, ErrUnauthorized
	}

	tenantID, err := snowflake.ParseString(tenantRaw)
	if err != nil {
		return tenantctx.Credential{}, ErrUnauthorized
	}

	cred := tenantctx.Credential{
		TenantID:    tenantID,
		TenantEmail: email,
	}
	if actorRaw != "" {
		actorID, err := snowflake.ParseString(actorRaw)
		if err != nil {
			return tenantctx.Credential{}, ErrUnauthorized
		}
		cred.ActorID = actorID
	}
	return cred, nil
}

func authedFrom(c *gin.Context) (*tenantctx.AuthedContext, bool) {
	return tenantctx.AuthedFromContext(c.Request.Context())
}

// RequireAction enforces the role policy for an object and action
// before the handler runs.
func (s *Server) RequireAction(object, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authed, ok := authedFrom(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		err := s.authzSvc.Authorize(
			c.Request.Context(),
			"actor:"+authed.ActorID.String(),
			authed.TenantID.String(),
			object,
			action,
		)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

// ChatRateLimit smooths per-tenant chat bursts. The daily quota ledger
// still applies underneath.
func (s *Server) ChatRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.chatLimiter == nil {
			c.Next()
			return
		}

		authed, ok := authedFrom(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		result, err := s.chatLimiter.Allow(c.Request.Context(), authed.TenantID)
		if err != nil {
			s.log.Warn("chat rate limit check failed", zap.Error(err))
			c.Next()
			return
		}
		if !result.Allowed {
			c.Header("Retry-After", "1")
			AbortWithError(c, ErrRateLimited)
			return
		}
		c.Next()
	}
}
