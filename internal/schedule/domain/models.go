package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// ScheduleEvent is a calendar entry a bot manages for a tenant,
// created through the scheduling feature.
type ScheduleEvent struct {
	ID       snowflake.ID `gorm:"primaryKey;autoIncrement:false" json:"id"`
	TenantID snowflake.ID `gorm:"index:idx_schedule_events_tenant_bot" json:"tenant_id"`
	BotID    snowflake.ID `gorm:"index:idx_schedule_events_tenant_bot" json:"bot_id"`
	ActorID  snowflake.ID `json:"actor_id"`

	Title    string    `gorm:"type:varchar(255)" json:"title"`
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`

	CreatedAt time.Time `json:"created_at"`
}

func (ScheduleEvent) TableName() string { return "schedule_events" }

// ScheduleTask is a standalone to-do item, optionally due at a time.
type ScheduleTask struct {
	ID       snowflake.ID `gorm:"primaryKey;autoIncrement:false" json:"id"`
	TenantID snowflake.ID `gorm:"index:idx_schedule_tasks_tenant_bot" json:"tenant_id"`
	BotID    snowflake.ID `gorm:"index:idx_schedule_tasks_tenant_bot" json:"bot_id"`
	ActorID  snowflake.ID `json:"actor_id"`

	Title string     `gorm:"type:varchar(255)" json:"title"`
	DueAt *time.Time `json:"due_at,omitempty"`
	Done  bool       `gorm:"default:false" json:"done"`

	CreatedAt time.Time `json:"created_at"`
}

func (ScheduleTask) TableName() string { return "schedule_tasks" }
