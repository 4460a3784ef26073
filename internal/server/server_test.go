package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/agencydesk/agencydesk/internal/authorization"
	botdomain "github.com/agencydesk/agencydesk/internal/bot/domain"
	"github.com/agencydesk/agencydesk/internal/chat"
	"github.com/agencydesk/agencydesk/internal/plan"
	quotadomain "github.com/agencydesk/agencydesk/internal/quota/domain"
	tenantdomain "github.com/agencydesk/agencydesk/internal/tenant/domain"
	"github.com/agencydesk/agencydesk/internal/tenantctx"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeChatService struct {
	reply    *chat.Reply
	err      error
	lastText string
	lastBot  snowflake.ID
}

func (f *fakeChatService) SendMessage(ctx context.Context, authed *tenantctx.AuthedContext, botID snowflake.ID, text string) (*chat.Reply, error) {
	_ = ctx
	_ = authed
	f.lastBot = botID
	f.lastText = text
	if f.err != nil {
		return nil, f.err
	}
	return f.reply, nil
}

func (f *fakeChatService) ResetConversation(ctx context.Context, authed *tenantctx.AuthedContext, botID snowflake.ID) error {
	_ = ctx
	_ = authed
	f.lastBot = botID
	return f.err
}

func (f *fakeChatService) Usage(ctx context.Context, authed *tenantctx.AuthedContext) (*chat.UsageSnapshot, error) {
	_ = ctx
	_ = authed
	messagesCap := 20
	return &chat.UsageSnapshot{MessagesUsedToday: 3, MessagesCapToday: &messagesCap}, f.err
}

type fakeTenantService struct {
	tenantdomain.Service

	authed     *tenantctx.AuthedContext
	resolveErr error
}

func (f *fakeTenantService) Resolve(ctx context.Context, cred tenantctx.Credential) (*tenantctx.AuthedContext, error) {
	_ = ctx
	_ = cred
	if f.resolveErr != nil {
		return nil, f.resolveErr
	}
	return f.authed, nil
}

type fakeAuthzService struct {
	err        error
	lastTenant string
	lastObject string
	lastAction string
}

func (f *fakeAuthzService) Authorize(ctx context.Context, actor, tenantID, object, action string) error {
	_ = ctx
	_ = actor
	f.lastTenant = tenantID
	f.lastObject = object
	f.lastAction = action
	return f.err
}

type fakeBotService struct {
	botdomain.Service

	created *botdomain.CreateInput
}

func (f *fakeBotService) Create(ctx context.Context, authed *tenantctx.AuthedContext, in botdomain.CreateInput) (*botdomain.Bot, error) {
	_ = ctx
	f.created = &in
	return &botdomain.Bot{ID: snowflake.ID(7), TenantID: authed.TenantID, Name: in.Name}, nil
}

func withAuthed(authed *tenantctx.AuthedContext) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(tenantctx.WithAuthed(c.Request.Context(), authed))
		c.Next()
	}
}

func testAuthed() *tenantctx.AuthedContext {
	return &tenantctx.AuthedContext{
		TenantID: snowflake.ID(10),
		ActorID:  snowflake.ID(20),
		Role:     tenantctx.RoleOwner,
		Status:   tenantctx.StatusActive,
		Plan:     plan.TierFree,
	}
}

func TestSendChatMessage(t *testing.T) {
	gin.SetMode(gin.TestMode)

	remaining := 19
	chatSvc := &fakeChatService{reply: &chat.Reply{Answer: "hello", Remaining: &remaining}}
	srv := &Server{chatSvc: chatSvc, log: zap.NewNop()}

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.POST("/api/chat/:botId/messages", withAuthed(testAuthed()), srv.SendChatMessage)

	req := httptest.NewRequest(http.MethodPost, "/api/chat/42/messages", strings.NewReader(`{"message":" hi there "}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, snowflake.ID(42), chatSvc.lastBot)
	require.Equal(t, "hi there", chatSvc.lastText)

	var body struct {
		Data chat.Reply `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Equal(t, "hello", body.Data.Answer)
	require.NotNil(t, body.Data.Remaining)
	require.Equal(t, 19, *body.Data.Remaining)
}

func TestSendChatMessageRejectsEmptyBody(t *testing.T) {
	gin.SetMode(gin.TestMode)

	chatSvc := &fakeChatService{reply: &chat.Reply{Answer: "unused"}}
	srv := &Server{chatSvc: chatSvc, log: zap.NewNop()}

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.POST("/api/chat/:botId/messages", withAuthed(testAuthed()), srv.SendChatMessage)

	req := httptest.NewRequest(http.MethodPost, "/api/chat/42/messages", strings.NewReader(`{"message":"   "}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.Empty(t, chatSvc.lastText)
}

func TestCreateBotSharedConsultsRolePolicy(t *testing.T) {
	gin.SetMode(gin.TestMode)

	authz := &fakeAuthzService{err: authorization.ErrForbidden}
	bots := &fakeBotService{}
	srv := &Server{botSvc: bots, authzSvc: authz, log: zap.NewNop()}

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.POST("/api/bots", withAuthed(testAuthed()), srv.CreateBot)

	req := httptest.NewRequest(http.MethodPost, "/api/bots", strings.NewReader(`{"name":"Helpdesk"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusForbidden, resp.Code)
	require.Nil(t, bots.created)
	require.Equal(t, snowflake.ID(10).String(), authz.lastTenant)
	require.Equal(t, authorization.ObjectBot, authz.lastObject)
	require.Equal(t, authorization.ActionBotCreate, authz.lastAction)
}

func TestCreateBotPrivateSkipsRolePolicy(t *testing.T) {
	gin.SetMode(gin.TestMode)

	authz := &fakeAuthzService{err: authorization.ErrForbidden}
	bots := &fakeBotService{}
	srv := &Server{botSvc: bots, authzSvc: authz, log: zap.NewNop()}

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.POST("/api/bots", withAuthed(testAuthed()), srv.CreateBot)

	req := httptest.NewRequest(http.MethodPost, "/api/bots", strings.NewReader(`{"name":"Scratch","private":true}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	require.NotNil(t, bots.created)
	require.True(t, bots.created.Private)
	require.Empty(t, authz.lastAction)
}

func TestRequireActionPassesBareTenantID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	authz := &fakeAuthzService{}
	srv := &Server{authzSvc: authz, log: zap.NewNop()}

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.GET("/api/members",
		withAuthed(testAuthed()),
		srv.RequireAction(authorization.ObjectMember, authorization.ActionMemberView),
		func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })

	req := httptest.NewRequest(http.MethodGet, "/api/members", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, snowflake.ID(10).String(), authz.lastTenant)
	require.Equal(t, authorization.ActionMemberView, authz.lastAction)
}

func TestTenantContextRequiresHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)

	srv := &Server{tenantSvc: &fakeTenantService{authed: testAuthed()}, log: zap.NewNop()}

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.GET("/api/usage", srv.TenantContext(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	req := httptest.NewRequest(http.MethodGet, "/api/usage", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	require.Equal(t, http.StatusUnauthorized, resp.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/usage", nil)
	req.Header.Set(HeaderTenant, snowflake.ID(10).String())
	req.Header.Set(HeaderActor, snowflake.ID(20).String())
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)
}

func TestTenantContextPropagatesResolveFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)

	srv := &Server{
		tenantSvc: &fakeTenantService{resolveErr: tenantdomain.ErrUnauthenticated},
		log:       zap.NewNop(),
	}

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.GET("/api/usage", srv.TenantContext(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	req := httptest.NewRequest(http.MethodGet, "/api/usage", nil)
	req.Header.Set(HeaderTenant, snowflake.ID(10).String())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestMapError(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"bot not found", botdomain.ErrBotNotFound, http.StatusNotFound, "bot_not_found"},
		{"bot forbidden", botdomain.ErrBotForbidden, http.StatusForbidden, "forbidden"},
		{"unauthenticated", tenantdomain.ErrUnauthenticated, http.StatusUnauthorized, "unauthorized"},
		{"not active", tenantdomain.ErrNotActive, http.StatusForbidden, "forbidden"},
		{"seat limit", tenantdomain.ErrSeatLimitReached, http.StatusConflict, "conflict"},
		{"invalid name", botdomain.ErrInvalidName, http.StatusBadRequest, "validation_error"},
		{"unknown", context.DeadlineExceeded, http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, payload := mapError(tc.err)
			require.Equal(t, tc.wantStatus, status)
			require.Equal(t, tc.wantType, payload.Type)
		})
	}
}

func TestMapErrorQuotaExceeded(t *testing.T) {
	status, payload := mapError(&quotadomain.ExceededError{Used: 20, Cap: 20, Plan: plan.TierFree})
	require.Equal(t, http.StatusTooManyRequests, status)
	require.Equal(t, "daily_limit_exceeded", payload.Type)
	require.Equal(t, 20, payload.Details["used"])
	require.Equal(t, 20, payload.Details["cap"])
}

func TestMapErrorUpgradeRequired(t *testing.T) {
	status, payload := mapError(&plan.UpgradeRequiredError{Plan: plan.TierFree, Feature: plan.FeatureScheduling})
	require.Equal(t, http.StatusPaymentRequired, status)
	require.Equal(t, "upgrade_required", payload.Type)
	require.Equal(t, plan.FeatureScheduling, payload.Details["feature"])
}
