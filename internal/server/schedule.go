package server

import (
	"net/http"
	"strings"
	"time"

	scheddomain "github.com/agencydesk/agencydesk/internal/schedule/domain"
	"github.com/gin-gonic/gin"
)

type createEventRequest struct {
	Title    string    `json:"title"`
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
}

func (s *Server) CreateScheduleEvent(c *gin.Context) {
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

	var req createEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	event, err := s.scheduleSvc.CreateEvent(c.Request.Context(), authed, scheddomain.EventInput{
		BotID:    botID,
		Title:    strings.TrimSpace(req.Title),
		StartsAt: req.StartsAt,
		EndsAt:   req.EndsAt,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": event})
}

func (s *Server) ListScheduleEvents(c *gin.Context) {
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

	events, err := s.scheduleSvc.ListEvents(c.Request.Context(), authed, botID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": events})
}

type createTaskRequest struct {
	Title string     `json:"title"`
	DueAt *time.Time `json:"due_at"`
}

func (s *Server) CreateScheduleTask(c *gin.Context) {
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

	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	task, err := s.scheduleSvc.CreateTask(c.Request.Context(), authed, scheddomain.TaskInput{
		BotID: botID,
		Title: strings.TrimSpace(req.Title),
		DueAt: req.DueAt,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": task})
}

func (s *Server) ListScheduleTasks(c *gin.Context) {
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

	tasks, err := s.scheduleSvc.ListTasks(c.Request.Context(), authed, botID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": tasks})
}

func (s *Server) CompleteScheduleTask(c *gin.Context) {
	authed, ok := authedFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	taskID, err := parseID(c.Param("taskId"))
	if err != nil {
		AbortWithError(c, newValidationError("taskId", "invalid_task_id", "invalid task id"))
		return
	}

	if err := s.scheduleSvc.CompleteTask(c.Request.Context(), authed, taskID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"done": true}})
}
