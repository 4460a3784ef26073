package server

import (
	"net/http"
	"strings"

	"github.com/agencydesk/agencydesk/internal/tenantctx"
	"github.com/gin-gonic/gin"
)

type signupRequest struct {
	Name         string `json:"name"`
	ContactEmail string `json:"contact_email"`
}

func (s *Server) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	tenant, err := s.tenantSvc.Signup(c.Request.Context(), strings.TrimSpace(req.Name), strings.TrimSpace(req.ContactEmail))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": tenant})
}

func (s *Server) ListMembers(c *gin.Context) {
	authed, ok := authedFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	actors, err := s.tenantSvc.ListActors(c.Request.Context(), authed)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": actors})
}

func (s *Server) ApproveMember(c *gin.Context) {
	authed, ok := authedFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	actorID, err := parseID(c.Param("actorId"))
	if err != nil {
		AbortWithError(c, newValidationError("actorId", "invalid_actor_id", "invalid actor id"))
		return
	}

	if err := s.tenantSvc.ApproveActor(c.Request.Context(), authed, actorID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"approved": true}})
}

func (s *Server) BlockMember(c *gin.Context) {
	authed, ok := authedFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	actorID, err := parseID(c.Param("actorId"))
	if err != nil {
		AbortWithError(c, newValidationError("actorId", "invalid_actor_id", "invalid actor id"))
		return
	}

	if err := s.tenantSvc.BlockActor(c.Request.Context(), authed, actorID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"blocked": true}})
}

type promoteMemberRequest struct {
	Role string `json:"role"`
}

func (s *Server) PromoteMember(c *gin.Context) {
	authed, ok := authedFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	actorID, err := parseID(c.Param("actorId"))
	if err != nil {
		AbortWithError(c, newValidationError("actorId", "invalid_actor_id", "invalid actor id"))
		return
	}

	var req promoteMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	role := tenantctx.Role(strings.ToLower(strings.TrimSpace(req.Role)))
	if err := s.tenantSvc.PromoteActor(c.Request.Context(), authed, actorID, role); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"role": role}})
}

type inviteMemberRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (s *Server) InviteMember(c *gin.Context) {
	authed, ok := authedFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req inviteMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	actor, err := s.tenantSvc.InviteActor(c.Request.Context(), authed, strings.TrimSpace(req.Email), tenantctx.Role(strings.ToLower(strings.TrimSpace(req.Role))))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": actor})
}

func (s *Server) AcceptInvite(c *gin.Context) {
	authed, ok := authedFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	if err := s.tenantSvc.AcceptInvite(c.Request.Context(), authed); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"accepted": true}})
}
