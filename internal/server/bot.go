package server

import (
	"net/http"
	"strings"

	"github.com/agencydesk/agencydesk/internal/authorization"
	botdomain "github.com/agencydesk/agencydesk/internal/bot/domain"
	"github.com/gin-gonic/gin"
)

type createBotRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Instructions string `json:"instructions"`
	Private      bool   `json:"private"`
}

func (s *Server) CreateBot(c *gin.Context) {
	authed, ok := authedFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req createBotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	// Shared bots are tenant-wide, so their creation runs through the
	// role policy. Private bots are open to any active member.
	if !req.Private {
		err := s.authzSvc.Authorize(
			c.Request.Context(),
			"actor:"+authed.ActorID.String(),
			authed.TenantID.String(),
			authorization.ObjectBot,
			authorization.ActionBotCreate,
		)
		if err != nil {
			AbortWithError(c, err)
			return
		}
	}

	bot, err := s.botSvc.Create(c.Request.Context(), authed, botdomain.CreateInput{
		Name:         strings.TrimSpace(req.Name),
		Description:  strings.TrimSpace(req.Description),
		Instructions: strings.TrimSpace(req.Instructions),
		Private:      req.Private,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": bot})
}

func (s *Server) ListBots(c *gin.Context) {
	authed, ok := authedFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	bots, err := s.botSvc.List(c.Request.Context(), authed)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": bots})
}

func (s *Server) DeleteBot(c *gin.Context) {
	authed, ok := authedFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	botID, err := parseID(c.Param("botId"))
	if err != nil {
		AbortWithError(c, newValidationError("botId", "invalid_bot_id", "invalid bot id"))
		return
	}

	if err := s.botSvc.Delete(c.Request.Context(), authed, botID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": true}})
}
