package domain

import (
	"context"
	"errors"
	"time"

	"github.com/agencydesk/agencydesk/internal/tenantctx"
	"github.com/bwmarrin/snowflake"
)

var (
	ErrInvalidTitle = errors.New("invalid_title")
	ErrInvalidRange = errors.New("invalid_time_range")
	ErrTaskNotFound = errors.New("task_not_found")
)

type EventInput struct {
	BotID    snowflake.ID
	Title    string
	StartsAt time.Time
	EndsAt   time.Time
}

type TaskInput struct {
	BotID snowflake.ID
	Title string
	DueAt *time.Time
}

// Service is gated on the plan's scheduling feature; every call checks
// it before touching storage.
type Service interface {
	CreateEvent(ctx context.Context, authed *tenantctx.AuthedContext, in EventInput) (*ScheduleEvent, error)
	ListEvents(ctx context.Context, authed *tenantctx.AuthedContext, botID snowflake.ID) ([]ScheduleEvent, error)
	CreateTask(ctx context.Context, authed *tenantctx.AuthedContext, in TaskInput) (*ScheduleTask, error)
	ListTasks(ctx context.Context, authed *tenantctx.AuthedContext, botID snowflake.ID) ([]ScheduleTask, error)
	CompleteTask(ctx context.Context, authed *tenantctx.AuthedContext, taskID snowflake.ID) error
}

type Repository interface {
	InsertEvent(ctx context.Context, ev *ScheduleEvent) error
	ListEventsByBot(ctx context.Context, tenantID, botID snowflake.ID) ([]ScheduleEvent, error)
	InsertTask(ctx context.Context, task *ScheduleTask) error
	ListTasksByBot(ctx context.Context, tenantID, botID snowflake.ID) ([]ScheduleTask, error)
	GetTask(ctx context.Context, tenantID, taskID snowflake.ID) (*ScheduleTask, error)
	MarkTaskDone(ctx context.Context, tenantID, taskID snowflake.ID) error
	DeleteByBot(ctx context.Context, tenantID, botID snowflake.ID) error
}
