package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

type sendMessageRequest struct {
	Message string `json:"message"`
}

func (s *Server) SendChatMessage(c *gin.Context) {
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

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	text := strings.TrimSpace(req.Message)
	if text == "" {
		AbortWithError(c, newValidationError("message", "invalid_message", "message must not be empty"))
		return
	}

	reply, err := s.chatSvc.SendMessage(c.Request.Context(), authed, botID, text)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": reply})
}

func (s *Server) ResetChat(c *gin.Context) {
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

	if err := s.chatSvc.ResetConversation(c.Request.Context(), authed, botID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"reset": true}})
}

func (s *Server) GetUsage(c *gin.Context) {
	authed, ok := authedFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	snapshot, err := s.chatSvc.Usage(c.Request.Context(), authed)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": snapshot})
}

func parseID(raw string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(raw))
}
