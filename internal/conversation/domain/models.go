// Package domain contains persistence models for conversation state.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Conversation is the rolling chat context for one (tenant, actor, bot)
// triple. MessageCount counts messages since the last summarization,
// not lifetime.
type Conversation struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	TenantID     snowflake.ID `gorm:"not null;uniqueIndex:ux_conversations_triple,priority:1" json:"tenant_id"`
	ActorID      snowflake.ID `gorm:"not null;uniqueIndex:ux_conversations_triple,priority:2" json:"actor_id"`
	BotID        snowflake.ID `gorm:"not null;uniqueIndex:ux_conversations_triple,priority:3" json:"bot_id"`
	Summary      *string      `gorm:"type:text" json:"summary,omitempty"`
	MessageCount int          `gorm:"not null;default:0" json:"message_count"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Conversation) TableName() string { return "conversations" }

// Message is one turn in a conversation. Append-only; pruned only by a
// summarization cycle or an explicit reset.
type Message struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	ConversationID snowflake.ID `gorm:"not null;index" json:"conversation_id"`
	Role           string       `gorm:"type:text;not null" json:"role"`
	Content        string       `gorm:"type:text;not null" json:"content"`
	CreatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Message) TableName() string { return "conversation_messages" }
