package server

import (
	"errors"
	"net/http"

	"github.com/agencydesk/agencydesk/internal/authorization"
	"github.com/agencydesk/agencydesk/internal/billing"
	botdomain "github.com/agencydesk/agencydesk/internal/bot/domain"
	convdomain "github.com/agencydesk/agencydesk/internal/conversation/domain"
	docdomain "github.com/agencydesk/agencydesk/internal/document/domain"
	"github.com/agencydesk/agencydesk/internal/plan"
	quotadomain "github.com/agencydesk/agencydesk/internal/quota/domain"
	scheddomain "github.com/agencydesk/agencydesk/internal/schedule/domain"
	tenantdomain "github.com/agencydesk/agencydesk/internal/tenant/domain"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
	Details map[string]any    `json:"details,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
	ErrRateLimited    = errors.New("rate_limited")
	ErrInternal       = errors.New("internal_error")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := err.Error()
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Code:    code,
					Message: "invalid value",
				},
			},
		}
	}

	var exceeded *quotadomain.ExceededError
	if errors.As(err, &exceeded) {
		return http.StatusTooManyRequests, errorPayload{
			Type:    "daily_limit_exceeded",
			Message: exceeded.Error(),
			Details: map[string]any{
				"used": exceeded.Used,
				"cap":  exceeded.Cap,
				"plan": exceeded.Plan,
			},
		}
	}

	var upgrade *plan.UpgradeRequiredError
	if errors.As(err, &upgrade) {
		return http.StatusPaymentRequired, errorPayload{
			Type:    "upgrade_required",
			Message: upgrade.Error(),
			Details: map[string]any{
				"plan":    upgrade.Plan,
				"feature": upgrade.Feature,
			},
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, tenantdomain.ErrUnauthenticated),
		errors.Is(err, billing.ErrInvalidSecret):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case isForbiddenError(err):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: forbiddenMessage(err),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    notFoundType(err),
			Message: "not found",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	case errors.Is(err, docdomain.ErrIndexingFailed):
		return http.StatusBadGateway, errorPayload{
			Type:    "indexing_failed",
			Message: "document indexing failed",
		}
	case errors.Is(err, docdomain.ErrIndexingTimeout):
		return http.StatusGatewayTimeout, errorPayload{
			Type:    "indexing_timeout",
			Message: "document indexing did not finish in time",
		}
	case errors.Is(err, billing.ErrNotConfigured):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "billing webhook is not configured",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, tenantdomain.ErrInvalidEmail),
		errors.Is(err, tenantdomain.ErrInvalidName),
		errors.Is(err, tenantdomain.ErrInvalidRole),
		errors.Is(err, botdomain.ErrInvalidName),
		errors.Is(err, convdomain.ErrInvalidRole),
		errors.Is(err, scheddomain.ErrInvalidTitle),
		errors.Is(err, scheddomain.ErrInvalidRange),
		errors.Is(err, docdomain.ErrEmptyDocument),
		errors.Is(err, billing.ErrInvalidPayload),
		errors.Is(err, billing.ErrInvalidPlan):
		return true
	default:
		return false
	}
}

func isForbiddenError(err error) bool {
	switch {
	case errors.Is(err, ErrForbidden),
		errors.Is(err, authorization.ErrForbidden),
		errors.Is(err, tenantdomain.ErrNotActive),
		errors.Is(err, tenantdomain.ErrNotOwner),
		errors.Is(err, tenantdomain.ErrNotInvited),
		errors.Is(err, botdomain.ErrBotForbidden):
		return true
	default:
		return false
	}
}

func forbiddenMessage(err error) string {
	switch {
	case errors.Is(err, tenantdomain.ErrNotActive):
		return "membership is not active"
	case errors.Is(err, tenantdomain.ErrNotOwner):
		return "owner role required"
	default:
		return "forbidden"
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, botdomain.ErrBotNotFound),
		errors.Is(err, tenantdomain.ErrActorNotFound),
		errors.Is(err, tenantdomain.ErrTenantNotFound),
		errors.Is(err, scheddomain.ErrTaskNotFound),
		errors.Is(err, convdomain.ErrConversationNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func notFoundType(err error) string {
	switch {
	case errors.Is(err, botdomain.ErrBotNotFound):
		return "bot_not_found"
	case errors.Is(err, tenantdomain.ErrActorNotFound):
		return "actor_not_found"
	case errors.Is(err, scheddomain.ErrTaskNotFound):
		return "task_not_found"
	default:
		return "not_found"
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, tenantdomain.ErrSeatLimitReached),
		errors.Is(err, tenantdomain.ErrSelfLockout),
		errors.Is(err, botdomain.ErrBotLimitReached),
		errors.Is(err, docdomain.ErrNoIndexHandle):
		return true
	default:
		return false
	}
}
